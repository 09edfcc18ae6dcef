package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/resume-ats/internal/repositories"
)

const (
	jobQueueSize    = 100
	pendingJobBatch = 10
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(analysisID uuid.UUID)
}

type worker struct {
	analysisRepo    repositories.AnalysisRepository
	analysisService AnalysisService
	jobQueue        chan uuid.UUID
	concurrency     int
	pollInterval    time.Duration
	log             *zap.Logger
	wg              sync.WaitGroup
	stopChan        chan struct{}
	stopOnce        sync.Once

	mu     sync.Mutex
	queued map[uuid.UUID]struct{}
}

func NewWorker(
	analysisRepo repositories.AnalysisRepository,
	analysisService AnalysisService,
	concurrency int,
	pollInterval time.Duration,
	log *zap.Logger,
) Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}

	return &worker{
		analysisRepo:    analysisRepo,
		analysisService: analysisService,
		jobQueue:        make(chan uuid.UUID, jobQueueSize),
		concurrency:     concurrency,
		pollInterval:    pollInterval,
		log:             log,
		stopChan:        make(chan struct{}),
		queued:          make(map[uuid.UUID]struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.Info("🚀 Starting worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)

	w.log.Info("✅ Worker started successfully")
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.log.Info("🛑 Stopping worker...")
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
	w.log.Info("✅ Worker stopped")
}

// EnqueueJob implements Worker.
// An id that is already waiting or running is not enqueued again.
func (w *worker) EnqueueJob(analysisID uuid.UUID) {
	if !w.track(analysisID) {
		w.log.Debug("⏭️ Job already queued", zap.String("analysis_id", analysisID.String()))
		return
	}

	select {
	case w.jobQueue <- analysisID:
		w.log.Info("📥 Job enqueued", zap.String("analysis_id", analysisID.String()))
	case <-w.stopChan:
		w.untrack(analysisID)
		w.log.Warn("⚠️ Worker stopped, cannot enqueue job", zap.String("analysis_id", analysisID.String()))
	}
}

func (w *worker) track(analysisID uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.queued[analysisID]; ok {
		return false
	}
	w.queued[analysisID] = struct{}{}
	return true
}

func (w *worker) untrack(analysisID uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.queued, analysisID)
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			w.log.Info("👷 Worker stopped", zap.Int("worker", workerID))
			return
		case <-ctx.Done():
			return
		case analysisID := <-w.jobQueue:
			w.log.Info("👷 Processing job", zap.Int("worker", workerID), zap.String("analysis_id", analysisID.String()))
			if err := w.analysisService.ProcessAnalysis(ctx, analysisID); err != nil {
				w.log.Error("❌ Job failed", zap.Int("worker", workerID), zap.String("analysis_id", analysisID.String()), zap.Error(err))
			} else {
				w.log.Info("✅ Job completed", zap.Int("worker", workerID), zap.String("analysis_id", analysisID.String()))
			}
			w.untrack(analysisID)
		}
	}
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			w.log.Info("🔄 Pending jobs poller stopped")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pendingJobs, err := w.analysisRepo.FindPendingJobs(pendingJobBatch)
			if err != nil {
				w.log.Warn("⚠️ Failed to fetch pending jobs", zap.Error(err))
				continue
			}

			if len(pendingJobs) > 0 {
				w.log.Info("📋 Found pending jobs", zap.Int("count", len(pendingJobs)))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
