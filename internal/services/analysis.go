package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/repositories"
)

// AnalysisService runs one stored resume through the parser and records the
// outcome on its analysis row.
type AnalysisService interface {
	ProcessAnalysis(ctx context.Context, analysisID uuid.UUID) error
}

type analysisService struct {
	analysisRepo repositories.AnalysisRepository
	docRepo      repositories.DocumentRepository
	storage      StorageService
	parser       ResumeParserService
	log          *zap.Logger
}

func NewAnalysisService(
	analysisRepo repositories.AnalysisRepository,
	docRepo repositories.DocumentRepository,
	storage StorageService,
	parser ResumeParserService,
	log *zap.Logger,
) AnalysisService {
	return &analysisService{
		analysisRepo: analysisRepo,
		docRepo:      docRepo,
		storage:      storage,
		parser:       parser,
		log:          log,
	}
}

func (a *analysisService) ProcessAnalysis(ctx context.Context, analysisID uuid.UUID) error {
	claimed, err := a.analysisRepo.ClaimQueued(analysisID)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if !claimed {
		a.log.Info("⏭️ Analysis not queued, skipping", zap.String("analysis_id", analysisID.String()))
		return nil
	}

	a.log.Info("🔄 Starting resume analysis", zap.String("analysis_id", analysisID.String()))

	analysis, err := a.analysisRepo.FindByID(analysisID)
	if err != nil {
		a.markFailed(analysisID, err.Error())
		return fmt.Errorf("failed to get analysis: %w", err)
	}

	doc, err := a.docRepo.FindByID(analysis.DocumentID)
	if err != nil {
		a.markFailed(analysisID, fmt.Sprintf("Resume document not found: %v", err))
		return fmt.Errorf("failed to get resume document: %w", err)
	}

	data, err := a.storage.ReadFile(doc.FilePath)
	if err != nil {
		a.markFailed(analysisID, fmt.Sprintf("Failed to read resume: %v", err))
		return fmt.Errorf("failed to read resume: %w", err)
	}

	result := a.parser.ParseResume(ctx, ParseInput{
		Data:           data,
		Filename:       doc.OriginalFileName,
		JobDescription: analysis.JobDescription,
	})
	if !result.OK {
		a.markFailed(analysisID, result.Message)
		return fmt.Errorf("failed to parse resume: %s", result.Message)
	}

	update := &repositories.AnalysisUpdateData{
		ParsedData:         result.ParsedData,
		AtsScore:           result.AtsScore,
		AtsMatchPercentage: result.AtsMatchPercentage,
		AtsRawJSON:         result.AtsRawJSON,
	}
	if result.ParserMeta != nil {
		update.ParsedDataSource = result.ParserMeta.ParsedDataSource
		update.AtsSource = result.ParserMeta.AtsSource
	}

	a.log.Info("💾 Saving analysis results", zap.String("analysis_id", analysisID.String()))
	if err := a.analysisRepo.UpdateResult(analysisID, update); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	a.log.Info("✅ Resume analysis completed", zap.String("analysis_id", analysisID.String()))
	return nil
}

func (a *analysisService) markFailed(id uuid.UUID, message string) {
	if err := a.analysisRepo.UpdateError(id, message); err != nil {
		a.log.Error("❌ Failed to record analysis error", zap.String("analysis_id", id.String()), zap.Error(err))
	}
}
