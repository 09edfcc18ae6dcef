package services

import (
	"context"

	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/config"
)

// NewResumePipeline wires the generation client, extractors and scorer from
// configuration. A missing or rejected API key leaves the client unconfigured,
// so parsing still works through the fallback paths.
func NewResumePipeline(ctx context.Context, cfg *config.Config, log *zap.Logger) (ResumeParserService, GeminiService) {
	var generator TextGenerator
	if cfg.Gemini.Enabled && cfg.Gemini.Configured() {
		g, err := NewGenAIGenerator(ctx, cfg.Gemini.APIKey)
		if err != nil {
			log.Warn("⚠️ Gemini client unavailable, using fallbacks only", zap.Error(err))
		} else {
			generator = g
		}
	}

	gemini := NewGeminiService(cfg.Gemini, generator, NewGenerationState(), log)
	log.Info("✅ Gemini client initialized",
		zap.Bool("configured", cfg.Gemini.Configured()),
		zap.Bool("enabled", cfg.Gemini.Enabled),
		zap.String("key_source", cfg.Gemini.KeySource),
		zap.Strings("models", cfg.Gemini.Models),
	)

	parser := NewResumeParserService(
		NewDocumentParserService(),
		gemini,
		NewHeuristicExtractor(),
		NewKeywordScorer(cfg.ATS),
		log,
	)

	return parser, gemini
}
