package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerationState_UnsupportedIsIdempotent(t *testing.T) {
	s := NewGenerationState()

	s.MarkUnsupported("a")
	s.MarkUnsupported("b")
	s.MarkUnsupported("a")

	assert.Equal(t, []string{"a", "b"}, s.UnsupportedModels())
	assert.Equal(t, []string{"c"}, s.FilterSupported([]string{"a", "c", "b"}))
}

func TestGenerationState_CooldownKeepsLatestExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewGenerationState().WithClock(func() time.Time { return now })

	s.RecordRateLimit(60 * time.Second)
	until := s.RecordRateLimit(5 * time.Second)

	assert.Equal(t, now.Add(60*time.Second), until)
	got, active := s.RateLimitedUntil()
	assert.True(t, active)
	assert.Equal(t, now.Add(60*time.Second), got)
}

func TestGenerationState_NoCooldownByDefault(t *testing.T) {
	_, active := NewGenerationState().RateLimitedUntil()
	assert.False(t, active)
}

func TestGenerationState_ConcurrentUpdates(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewGenerationState().WithClock(func() time.Time { return now })

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.RecordRateLimit(time.Duration(i) * time.Second)
			s.MarkUnsupported("model")
		}(i)
	}
	wg.Wait()

	until, active := s.RateLimitedUntil()
	assert.True(t, active)
	assert.Equal(t, now.Add(50*time.Second), until)
	assert.Equal(t, []string{"model"}, s.UnsupportedModels())
}
