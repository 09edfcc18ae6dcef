package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"alfredoptarigan/resume-ats/internal/models"
	"alfredoptarigan/resume-ats/internal/repositories"
)

type fakeAnalysisRepo struct {
	mu        sync.Mutex
	analyses  map[uuid.UUID]*models.ResumeAnalysis
	statuses  []models.AnalysisStatus
	results   map[uuid.UUID]*repositories.AnalysisUpdateData
	errors    map[uuid.UUID]string
	pending   []models.ResumeAnalysis
	pendingFn func(limit int) ([]models.ResumeAnalysis, error)
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{
		analyses: map[uuid.UUID]*models.ResumeAnalysis{},
		results:  map[uuid.UUID]*repositories.AnalysisUpdateData{},
		errors:   map[uuid.UUID]string{},
	}
}

func (f *fakeAnalysisRepo) Create(a *models.ResumeAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyses[a.ID] = a
	return nil
}

func (f *fakeAnalysisRepo) FindByID(id uuid.UUID) (*models.ResumeAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.analyses[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAnalysisRepo) ClaimQueued(id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.analyses[id]
	if !ok || a.Status != models.StatusQueued {
		return false, nil
	}
	a.Status = models.StatusProcessing
	f.statuses = append(f.statuses, a.Status)
	return true, nil
}

func (f *fakeAnalysisRepo) UpdateResult(id uuid.UUID, data *repositories.AnalysisUpdateData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[id] = data
	if a, ok := f.analyses[id]; ok {
		a.Status = models.StatusCompleted
	}
	return nil
}

func (f *fakeAnalysisRepo) UpdateError(id uuid.UUID, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[id] = msg
	if a, ok := f.analyses[id]; ok {
		a.Status = models.StatusFailed
	}
	return nil
}

func (f *fakeAnalysisRepo) FindPendingJobs(limit int) ([]models.ResumeAnalysis, error) {
	if f.pendingFn != nil {
		return f.pendingFn(limit)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.pending
	f.pending = nil
	return out, nil
}

func (f *fakeAnalysisRepo) status(id uuid.UUID) models.AnalysisStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.analyses[id].Status
}

type fakeDocumentRepo struct {
	docs map[uuid.UUID]*models.Document
}

func (f *fakeDocumentRepo) Create(doc *models.Document) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocumentRepo) FindByID(id uuid.UUID) (*models.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return doc, nil
}

type analysisFixture struct {
	analyses *fakeAnalysisRepo
	docs     *fakeDocumentRepo
	storage  StorageService
	service  AnalysisService
}

func newAnalysisFixture(t *testing.T, docParser DocumentParserService) *analysisFixture {
	t.Helper()
	storage := NewStorageService(t.TempDir())
	require.NoError(t, storage.EnsureUploadDir())

	f := &analysisFixture{
		analyses: newFakeAnalysisRepo(),
		docs:     &fakeDocumentRepo{docs: map[uuid.UUID]*models.Document{}},
		storage:  storage,
	}
	f.service = NewAnalysisService(f.analyses, f.docs, storage,
		newTestParser(t, docParser, disabledGemini()), zaptest.NewLogger(t))
	return f
}

// seed stores a resume file and queues an analysis for it.
func (f *analysisFixture) seed(t *testing.T, originalName, jobDescription string) uuid.UUID {
	t.Helper()
	name, path, err := f.storage.SaveBytes([]byte("resume"), originalName)
	require.NoError(t, err)

	doc := &models.Document{ID: uuid.New(), Filename: name, OriginalFileName: originalName, FilePath: path}
	require.NoError(t, f.docs.Create(doc))

	analysis := &models.ResumeAnalysis{ID: uuid.New(), DocumentID: doc.ID, JobDescription: jobDescription, Status: models.StatusQueued}
	require.NoError(t, f.analyses.Create(analysis))
	return analysis.ID
}

func TestProcessAnalysis_Success(t *testing.T) {
	f := newAnalysisFixture(t, &fakeDocumentParser{text: sampleResume})
	id := f.seed(t, "resume.pdf", sampleJob)

	require.NoError(t, f.service.ProcessAnalysis(context.Background(), id))

	assert.Equal(t, []models.AnalysisStatus{models.StatusProcessing}, f.analyses.statuses)
	assert.Equal(t, models.StatusCompleted, f.analyses.status(id))

	result := f.analyses.results[id]
	require.NotNil(t, result)
	assert.Equal(t, "John Doe", deref(result.ParsedData.FullName))
	assert.Equal(t, 22.22, *result.AtsScore)
	assert.Equal(t, SourceFallback, result.ParsedDataSource)
	assert.Equal(t, SourceFallback, result.AtsSource)
}

func TestProcessAnalysis_ParseFailureIsRecorded(t *testing.T) {
	f := newAnalysisFixture(t, &fakeDocumentParser{err: &DocumentParseError{Format: ExtensionPDF, Err: errors.New("corrupt")}})
	id := f.seed(t, "resume.pdf", "")

	err := f.service.ProcessAnalysis(context.Background(), id)

	require.Error(t, err)
	assert.Equal(t, models.StatusFailed, f.analyses.status(id))
	assert.Contains(t, f.analyses.errors[id], "corrupt")
	assert.Empty(t, f.analyses.results)
}

func TestProcessAnalysis_MissingFile(t *testing.T) {
	f := newAnalysisFixture(t, &fakeDocumentParser{text: sampleResume})
	id := f.seed(t, "resume.docx", "")

	analysis, err := f.analyses.FindByID(id)
	require.NoError(t, err)
	doc, err := f.docs.FindByID(analysis.DocumentID)
	require.NoError(t, err)
	require.NoError(t, os.Remove(doc.FilePath))

	err = f.service.ProcessAnalysis(context.Background(), id)

	require.Error(t, err)
	assert.Equal(t, models.StatusFailed, f.analyses.status(id))
	assert.Contains(t, f.analyses.errors[id], "Failed to read resume")
}

func TestProcessAnalysis_MissingDocument(t *testing.T) {
	f := newAnalysisFixture(t, &fakeDocumentParser{text: sampleResume})
	id := uuid.New()
	require.NoError(t, f.analyses.Create(&models.ResumeAnalysis{ID: id, DocumentID: uuid.New(), Status: models.StatusQueued}))

	err := f.service.ProcessAnalysis(context.Background(), id)

	require.Error(t, err)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.Contains(t, f.analyses.errors[id], "Resume document not found")
}

func TestProcessAnalysis_SkipsRowAlreadyClaimed(t *testing.T) {
	parser := &fakeDocumentParser{text: sampleResume}
	f := newAnalysisFixture(t, parser)
	id := f.seed(t, "resume.pdf", sampleJob)

	require.NoError(t, f.service.ProcessAnalysis(context.Background(), id))
	require.NoError(t, f.service.ProcessAnalysis(context.Background(), id))

	assert.Equal(t, []models.AnalysisStatus{models.StatusProcessing}, f.analyses.statuses)
	assert.Equal(t, models.StatusCompleted, f.analyses.status(id))
	assert.Equal(t, 1, parser.callCount())
}

func TestProcessAnalysis_UnknownIDIsSkipped(t *testing.T) {
	f := newAnalysisFixture(t, &fakeDocumentParser{text: sampleResume})

	require.NoError(t, f.service.ProcessAnalysis(context.Background(), uuid.New()))
	assert.Empty(t, f.analyses.statuses)
	assert.Empty(t, f.analyses.errors)
}

func TestStorage_UsedPathStaysInsideUploadDir(t *testing.T) {
	f := newAnalysisFixture(t, &fakeDocumentParser{text: sampleResume})
	id := f.seed(t, "../outside.pdf", "")

	analysis, err := f.analyses.FindByID(id)
	require.NoError(t, err)
	doc, err := f.docs.FindByID(analysis.DocumentID)
	require.NoError(t, err)

	assert.Equal(t, filepath.Dir(f.storage.GetFilePath("x")), filepath.Dir(doc.FilePath))
}
