// Command diagnose reports the Gemini configuration and runs a resume through
// the parser locally.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"alfredoptarigan/resume-ats/internal/config"
	"alfredoptarigan/resume-ats/internal/logger"
	"alfredoptarigan/resume-ats/internal/services"
)

var rootCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Diagnose the resume parser and its Gemini configuration",
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the Gemini configuration status and recommendations",
	RunE:  runStatus,
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a PDF or DOCX resume and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

var textCmd = &cobra.Command{
	Use:   "text <file>",
	Short: "Print the plain text extracted from a PDF or DOCX resume",
	Args:  cobra.ExactArgs(1),
	RunE:  runText,
}

var (
	parseJobDescription string
	parseTimeout        time.Duration
	parseAtsOnly        bool
)

func init() {
	parseCmd.Flags().StringVar(&parseJobDescription, "jd", "", "Job description to score the resume against")
	parseCmd.Flags().DurationVar(&parseTimeout, "timeout", 3*time.Minute, "Overall time limit for the parse")
	parseCmd.Flags().BoolVar(&parseAtsOnly, "ats-only", false, "Print only the ATS assessment")

	rootCmd.AddCommand(statusCmd, parseCmd, textCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	gemini := services.NewGeminiService(cfg.Gemini, nil, services.NewGenerationState(), nil)

	printStatus(cmd.OutOrStdout(), gemini.Status())
	return nil
}

func printStatus(w io.Writer, status services.GenerationStatus) {
	line := strings.Repeat("=", 60)
	yesNo := func(b bool) string {
		if b {
			return "✅ YES"
		}
		return "❌ NO"
	}

	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "GEMINI API DIAGNOSTIC TOOL")
	fmt.Fprintln(w, line)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "📋 Configuration Status:")
	fmt.Fprintln(w, "  API Key Configured:", yesNo(status.Configured))
	fmt.Fprintln(w, "  Key Source:", status.KeySource)
	fmt.Fprintln(w, "  Gemini Enabled:", yesNo(status.Enabled))
	fmt.Fprintf(w, "  Timeout: %dms (%gs)\n", status.TimeoutMs, float64(status.TimeoutMs)/1000)
	fmt.Fprintln(w, "  Available Models:", strings.Join(status.ModelCandidates, ", "))
	fmt.Fprintln(w)

	if len(status.UnsupportedModels) > 0 {
		fmt.Fprintln(w, "⚠️  Unsupported Models:", strings.Join(status.UnsupportedModels, ", "))
		fmt.Fprintln(w)
	}
	if status.RateLimitedUntil != nil {
		fmt.Fprintln(w, "🚫 Rate Limited Until:", status.RateLimitedUntil.UTC().Format(time.RFC3339))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "💡 Recommendations:")
	if !status.Configured {
		fmt.Fprintln(w, "  ❌ API key not configured!")
		fmt.Fprintln(w, "     Set GEMINI_API_KEY environment variable or add it to config.yaml")
	}
	if status.TimeoutMs < config.DefaultGeminiTimeout.Milliseconds() {
		fmt.Fprintln(w, "  ⚠️  Timeout is low (< 30s)")
		fmt.Fprintln(w, "     Consider increasing: export GEMINI_TIMEOUT_MS=30000")
	} else {
		fmt.Fprintln(w, "  ✅ Timeout is adequate (>= 30s)")
	}
	if status.Configured && status.Enabled {
		fmt.Fprintln(w, "  ✅ System is ready for resume processing")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, line)
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
	defer cancel()

	parser, _ := services.NewResumePipeline(ctx, cfg, log)
	return writeParse(ctx, cmd.OutOrStdout(), parser, services.ParseInput{
		Data:           data,
		Filename:       filepath.Base(args[0]),
		JobDescription: parseJobDescription,
	}, parseAtsOnly)
}

// writeParse prints the parse as indented JSON and fails when the resume
// could not be processed.
func writeParse(ctx context.Context, w io.Writer, parser services.ResumeParserService, input services.ParseInput, atsOnly bool) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if atsOnly {
		outcome := parser.ExtractResumeAts(ctx, input)
		if err := encoder.Encode(outcome); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		if outcome.AtsStatus != services.AtsStatusScored {
			return fmt.Errorf("ats scoring failed: %s", outcome.AtsStatus)
		}
		return nil
	}

	result := parser.ParseResume(ctx, input)
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("parse failed: %s", result.Message)
	}
	return nil
}

func runText(cmd *cobra.Command, args []string) error {
	return writeText(cmd.OutOrStdout(), services.NewDocumentParserService(), args[0])
}

func writeText(w io.Writer, parser services.DocumentParserService, path string) error {
	text, err := parser.ExtractTextFromFile(path)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, text)
	return nil
}
