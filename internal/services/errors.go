package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported resume format")
	ErrDocumentParse     = errors.New("document parse failed")
	ErrNotConfigured     = errors.New("gemini api not configured")
	ErrDisabled          = errors.New("gemini disabled by GEMINI_ENABLED=false")
	ErrRateLimited       = errors.New("gemini temporarily rate-limited")
	ErrNoModelsAvailable = errors.New("no supported gemini models available")
	ErrGenerationTimeout = errors.New("gemini request timeout")
)

// DocumentParseError wraps a failure of the underlying PDF or DOCX reader.
type DocumentParseError struct {
	Format string
	Err    error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("failed to read %s file: %v", e.Format, e.Err)
}

func (e *DocumentParseError) Unwrap() error { return e.Err }

func (e *DocumentParseError) Is(target error) bool { return target == ErrDocumentParse }

type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported resume format: %q", e.Extension)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// RateLimitedError is returned without any network call while a cooldown is active.
type RateLimitedError struct {
	Until time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("gemini temporarily rate-limited until %s", e.Until.UTC().Format(time.RFC3339))
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

type TimeoutError struct {
	Model   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("gemini request timeout after %dms (model %s)", e.Timeout.Milliseconds(), e.Model)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrGenerationTimeout }
