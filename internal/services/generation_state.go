package services

import (
	"sync"
	"time"
)

// GenerationState is the process-wide memory of the generation client: models
// the API rejected as unknown and the rate-limit cooldown. Both only grow, so a
// mutex around each read-modify-write is enough.
type GenerationState struct {
	mu               sync.Mutex
	unsupported      map[string]struct{}
	unsupportedOrder []string
	rateLimitedUntil time.Time
	now              func() time.Time
}

func NewGenerationState() *GenerationState {
	return &GenerationState{
		unsupported: make(map[string]struct{}),
		now:         time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (s *GenerationState) WithClock(now func() time.Time) *GenerationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *GenerationState) MarkUnsupported(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.unsupported[model]; ok {
		return
	}
	s.unsupported[model] = struct{}{}
	s.unsupportedOrder = append(s.unsupportedOrder, model)
}

func (s *GenerationState) IsUnsupported(model string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.unsupported[model]
	return ok
}

func (s *GenerationState) UnsupportedModels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.unsupportedOrder))
	copy(out, s.unsupportedOrder)
	return out
}

// FilterSupported keeps the order of models and drops the unsupported ones.
func (s *GenerationState) FilterSupported(models []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(models))
	for _, m := range models {
		if _, ok := s.unsupported[m]; !ok {
			out = append(out, m)
		}
	}
	return out
}

// RecordRateLimit extends the cooldown to now+delay. An earlier expiry never
// replaces a later one.
func (s *GenerationState) RecordRateLimit(delay time.Duration) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	until := s.now().Add(delay)
	if until.After(s.rateLimitedUntil) {
		s.rateLimitedUntil = until
	}
	return s.rateLimitedUntil
}

// RateLimitedUntil returns the cooldown expiry and whether it is still active.
func (s *GenerationState) RateLimitedUntil() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rateLimitedUntil.After(s.now()) {
		return s.rateLimitedUntil, true
	}
	return time.Time{}, false
}
