package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-ats/internal/services"
)

func TestPrintStatus_Unconfigured(t *testing.T) {
	var out bytes.Buffer
	printStatus(&out, services.GenerationStatus{
		KeySource:       "missing",
		Enabled:         true,
		TimeoutMs:       10000,
		ModelCandidates: []string{"gemini-2.5-flash"},
	})

	text := out.String()
	assert.Contains(t, text, "API Key Configured: ❌ NO")
	assert.Contains(t, text, "Key Source: missing")
	assert.Contains(t, text, "Timeout: 10000ms (10s)")
	assert.Contains(t, text, "API key not configured!")
	assert.Contains(t, text, "Timeout is low (< 30s)")
	assert.NotContains(t, text, "System is ready")
}

func TestPrintStatus_Ready(t *testing.T) {
	until := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)
	var out bytes.Buffer
	printStatus(&out, services.GenerationStatus{
		Configured:        true,
		Enabled:           true,
		KeySource:         "environment",
		TimeoutMs:         30000,
		ModelCandidates:   []string{"gemini-2.5-flash"},
		UnsupportedModels: []string{"gemini-pro"},
		RateLimitedUntil:  &until,
	})

	text := out.String()
	assert.Contains(t, text, "Timeout is adequate (>= 30s)")
	assert.Contains(t, text, "Unsupported Models: gemini-pro")
	assert.Contains(t, text, "Rate Limited Until: 2025-05-01T08:30:00Z")
	assert.Contains(t, text, "System is ready for resume processing")
	assert.NotContains(t, text, "API key not configured!")
}

type stubParser struct {
	result services.ParseResult
	ats    services.AtsOutcome
	calls  []string
}

func (s *stubParser) ParseResume(context.Context, services.ParseInput) services.ParseResult {
	s.calls = append(s.calls, "parse")
	return s.result
}

func (s *stubParser) ExtractResumeAts(context.Context, services.ParseInput) services.AtsOutcome {
	s.calls = append(s.calls, "ats")
	return s.ats
}

func TestWriteParse_AtsOnly(t *testing.T) {
	score := 72.5
	parser := &stubParser{ats: services.AtsOutcome{AtsScore: &score, AtsStatus: services.AtsStatusScored}}
	var out bytes.Buffer

	err := writeParse(context.Background(), &out, parser, services.ParseInput{Filename: "cv.pdf"}, true)

	require.NoError(t, err)
	assert.Equal(t, []string{"ats"}, parser.calls)
	var body map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	assert.Equal(t, 72.5, body["atsScore"])
	assert.Equal(t, "scored", body["atsStatus"])
	assert.NotContains(t, body, "parsedData")
}

func TestWriteParse_AtsOnlyFailure(t *testing.T) {
	parser := &stubParser{ats: services.AtsOutcome{AtsStatus: services.AtsStatusUnsupportedFileType}}
	var out bytes.Buffer

	err := writeParse(context.Background(), &out, parser, services.ParseInput{Filename: "cv.txt"}, true)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported_file_type")
	assert.Contains(t, out.String(), `"atsStatus": "unsupported_file_type"`)
}

func TestWriteParse_FullResult(t *testing.T) {
	parser := &stubParser{result: services.ParseResult{OK: false, Message: "Failed to parse resume: bad xref"}}
	var out bytes.Buffer

	err := writeParse(context.Background(), &out, parser, services.ParseInput{Filename: "cv.pdf"}, false)

	require.Error(t, err)
	assert.Equal(t, []string{"parse"}, parser.calls)
	assert.Contains(t, out.String(), "bad xref")
}

type stubDocumentParser struct {
	text string
	err  error
	path string
}

func (s *stubDocumentParser) ExtractText([]byte, string) (string, error) { return s.text, s.err }

func (s *stubDocumentParser) ExtractTextFromFile(path string) (string, error) {
	s.path = path
	return s.text, s.err
}

func TestWriteText(t *testing.T) {
	parser := &stubDocumentParser{text: "Jane Doe\nGo engineer"}
	var out bytes.Buffer

	require.NoError(t, writeText(&out, parser, "resumes/jane.docx"))
	assert.Equal(t, "resumes/jane.docx", parser.path)
	assert.Equal(t, "Jane Doe\nGo engineer\n", out.String())

	parser.err = errors.New("unsupported format")
	assert.Error(t, writeText(&out, parser, "notes.txt"))
}
