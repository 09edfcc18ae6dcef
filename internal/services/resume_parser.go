package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/resume-ats/internal/models"
)

const (
	SourceAI       = "ai"
	SourceFallback = "fallback"

	unsupportedFormatMessage = "Only PDF and DOCX resumes are supported."
)

type FailureKind string

const (
	FailureNone              FailureKind = ""
	FailureUnsupportedFormat FailureKind = "unsupported_format"
	FailureProcessing        FailureKind = "processing_failed"
)

type AtsStatus string

const (
	AtsStatusUnsupportedFileType AtsStatus = "unsupported_file_type"
	AtsStatusServiceError        AtsStatus = "service_error"
	AtsStatusScored              AtsStatus = "scored"
)

type ParseInput struct {
	Data           []byte
	Filename       string
	JobDescription string
}

type ParserMeta struct {
	ParsedDataSource string `json:"parsedDataSource"`
	AtsSource        string `json:"atsSource,omitempty"`
}

// ParseResult is either a full result (OK) or a failure with a user-facing
// message. Kind tells the HTTP layer which of the two failure classes it is.
type ParseResult struct {
	OK                 bool                     `json:"ok"`
	Message            string                   `json:"message"`
	Kind               FailureKind              `json:"-"`
	ParsedData         *models.CandidateProfile `json:"parsedData"`
	AtsScore           *float64                 `json:"atsScore"`
	AtsMatchPercentage *float64                 `json:"atsMatchPercentage"`
	AtsRawJSON         *models.AtsAssessment    `json:"atsRawJson"`
	ParserMeta         *ParserMeta              `json:"parserMeta,omitempty"`
}

// AtsOutcome is the ATS-only view of a parse.
type AtsOutcome struct {
	AtsScore           *float64              `json:"atsScore"`
	AtsMatchPercentage *float64              `json:"atsMatchPercentage"`
	AtsRawJSON         *models.AtsAssessment `json:"atsRawJson"`
	AtsStatus          AtsStatus             `json:"atsStatus"`
}

type ResumeParserService interface {
	ParseResume(ctx context.Context, input ParseInput) ParseResult
	ExtractResumeAts(ctx context.Context, input ParseInput) AtsOutcome
}

type resumeParserService struct {
	documentParser DocumentParserService
	geminiService  GeminiService
	extractor      ProfileExtractor
	scorer         KeywordScorer
	promptBuilder  *PromptBuilder
	log            *zap.Logger
}

func NewResumeParserService(
	documentParser DocumentParserService,
	geminiService GeminiService,
	extractor ProfileExtractor,
	scorer KeywordScorer,
	log *zap.Logger,
) ResumeParserService {
	if log == nil {
		log = zap.NewNop()
	}

	return &resumeParserService{
		documentParser: documentParser,
		geminiService:  geminiService,
		extractor:      extractor,
		scorer:         scorer,
		promptBuilder:  NewPromptBuilder(),
		log:            log,
	}
}

// ParseResume implements ResumeParserService. It never panics and never
// returns an error: every failure is a ParseResult with OK false.
func (r *resumeParserService) ParseResume(ctx context.Context, input ParseInput) (result ParseResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("❌ Resume parse panicked", zap.Any("panic", rec), zap.String("filename", input.Filename))
			result = failedParse(FailureProcessing, fmt.Sprintf("Failed to parse resume: %v", rec))
		}

		parseDuration.Observe(time.Since(start).Seconds())
		switch {
		case result.OK:
			parseTotal.WithLabelValues("ok").Inc()
		case result.Kind == FailureUnsupportedFormat:
			parseTotal.WithLabelValues("unsupported_format").Inc()
		default:
			parseTotal.WithLabelValues("failed").Inc()
		}
	}()

	ext := ResumeExtension(input.Filename)
	if !IsSupportedExtension(ext) {
		r.log.Warn("⚠️ Unsupported resume format", zap.String("filename", input.Filename), zap.String("extension", ext))
		return failedParse(FailureUnsupportedFormat, unsupportedFormatMessage)
	}

	r.log.Info("📄 Extracting resume text", zap.String("filename", input.Filename), zap.Int("bytes", len(input.Data)))
	text, err := r.documentParser.ExtractText(input.Data, ext)
	if err != nil {
		r.log.Error("❌ Failed to extract resume text", zap.String("filename", input.Filename), zap.Error(err))
		kind := FailureProcessing
		if errors.Is(err, ErrUnsupportedFormat) {
			kind = FailureUnsupportedFormat
		}
		return failedParse(kind, fmt.Sprintf("Failed to parse resume: %s", err.Error()))
	}

	jobDescription := strings.TrimSpace(input.JobDescription)

	var (
		aiProfile ParsedJSON
		aiAts     ParsedJSON
		heuristic models.CandidateProfile
	)

	var g errgroup.Group
	g.Go(recoverAsError(func() {
		aiProfile = r.generateJSON(ctx, r.promptBuilder.BuildProfilePrompt(text), "resume data", profileSchema)
	}))
	g.Go(recoverAsError(func() {
		heuristic = r.extractor.ExtractProfile(text)
	}))
	if jobDescription != "" {
		g.Go(recoverAsError(func() {
			aiAts = r.generateJSON(ctx, r.promptBuilder.BuildATSPrompt(text, jobDescription), "ATS score", atsSchema)
		}))
	}
	if err := g.Wait(); err != nil {
		r.log.Error("❌ Resume parse step failed", zap.String("filename", input.Filename), zap.Error(err))
		return failedParse(FailureProcessing, fmt.Sprintf("Failed to parse resume: %s", err.Error()))
	}

	profile, profileSource := selectProfile(aiProfile, heuristic)
	profileSourceTotal.WithLabelValues(profileSource).Inc()

	result = ParseResult{
		OK:         true,
		ParsedData: &profile,
		ParserMeta: &ParserMeta{ParsedDataSource: profileSource},
	}

	if jobDescription != "" {
		assessment, atsSource := r.selectAssessment(aiAts, text, jobDescription)
		atsSourceTotal.WithLabelValues(atsSource).Inc()

		result.AtsRawJSON = &assessment
		result.AtsScore = assessment.AtsScore
		result.AtsMatchPercentage = assessment.MatchPercentage
		result.ParserMeta.AtsSource = atsSource
	}

	r.log.Info("✅ Resume parsed",
		zap.String("filename", input.Filename),
		zap.String("profile_source", result.ParserMeta.ParsedDataSource),
		zap.String("ats_source", result.ParserMeta.AtsSource),
		zap.Duration("took", time.Since(start)),
	)

	return result
}

// ExtractResumeAts implements ResumeParserService.
func (r *resumeParserService) ExtractResumeAts(ctx context.Context, input ParseInput) AtsOutcome {
	if !IsSupportedExtension(ResumeExtension(input.Filename)) {
		return AtsOutcome{AtsStatus: AtsStatusUnsupportedFileType}
	}

	parsed := r.ParseResume(ctx, input)
	if !parsed.OK {
		return AtsOutcome{AtsStatus: AtsStatusServiceError}
	}

	return AtsOutcome{
		AtsScore:           parsed.AtsScore,
		AtsMatchPercentage: parsed.AtsMatchPercentage,
		AtsRawJSON:         parsed.AtsRawJSON,
		AtsStatus:          AtsStatusScored,
	}
}

// generateJSON absorbs every generation failure into ParsedJSON.Error.
func (r *resumeParserService) generateJSON(ctx context.Context, prompt, label string, schema *gojsonschema.Schema) ParsedJSON {
	if r.geminiService == nil {
		return ParsedJSON{Error: ErrNotConfigured.Error()}
	}

	raw, err := r.geminiService.Generate(ctx, prompt)
	if err != nil {
		r.log.Warn("⚠️ Gemini generation unavailable, falling back", zap.String("label", label), zap.Error(err))
		return ParsedJSON{Error: err.Error()}
	}

	parsed := SafeJSON(raw, label, schema)
	if !parsed.OK() {
		r.log.Warn("⚠️ Unusable Gemini response", zap.String("label", label), zap.String("reason", parsed.Error))
	}
	return parsed
}

func selectProfile(ai ParsedJSON, heuristic models.CandidateProfile) (models.CandidateProfile, string) {
	if ai.OK() {
		if decoded := DecodeProfile(ai.Value); HasSignal(decoded) {
			return decoded, SourceAI
		}
	}
	return heuristic, SourceFallback
}

func (r *resumeParserService) selectAssessment(ai ParsedJSON, text, jobDescription string) (models.AtsAssessment, string) {
	if ai.OK() {
		return DecodeAssessment(ai.Value), SourceAI
	}
	if ai.Error != "" {
		r.log.Info("↩️ Using keyword ATS fallback", zap.String("reason", ai.Error))
	}
	return r.scorer.Score(text, jobDescription), SourceFallback
}

// recoverAsError turns a panic inside an errgroup goroutine into its error,
// since a deferred recover in the caller cannot see it.
func recoverAsError(fn func()) func() error {
	return func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("%v", rec)
			}
		}()
		fn()
		return nil
	}
}

func failedParse(kind FailureKind, message string) ParseResult {
	return ParseResult{OK: false, Kind: kind, Message: message}
}

// DecodeResumePayload decodes a base64 resume, accepting a data URL prefix
// ("data:...;base64,") and unpadded or URL-safe alphabets.
func DecodeResumePayload(payload string) ([]byte, error) {
	if i := strings.LastIndex(payload, ","); i >= 0 {
		payload = payload[i+1:]
	}
	payload = strings.Join(strings.Fields(payload), "")
	if payload == "" {
		return nil, errors.New("empty resume payload")
	}

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}

	var lastErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(payload)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed to decode resume payload: %w", lastErr)
}
