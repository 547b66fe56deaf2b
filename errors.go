package godeckai

import "fmt"

// TranslationError is the base error type for translation failures.
type TranslationError struct {
	Message string
	Cause   error
}

func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// ProviderError indicates an AI provider failure (API error, rate limit, etc.).
type ProviderError struct {
	Message   string
	Cause     error
	Retryable bool // Whether the operation can be retried
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// CacheError indicates a cache operation failure.
type CacheError struct {
	Message string
	Cause   error
}

func (e *CacheError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cache error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("cache error: %s", e.Message)
}

func (e *CacheError) Unwrap() error {
	return e.Cause
}

// DocumentError indicates a presentation read or write failure. It is fatal
// for the whole operation; no partial output is produced.
type DocumentError struct {
	Path    string
	Message string
	Cause   error
}

func (e *DocumentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("document error (%s): %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("document error (%s): %s", e.Path, e.Message)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// RedistributionError indicates a single paragraph could not be rewritten
// from its translated marked text. It is recoverable: the paragraph keeps
// its source text and the rest of the document is still translated.
type RedistributionError struct {
	ParagraphID string
	Message     string
}

func (e *RedistributionError) Error() string {
	return fmt.Sprintf("redistribution error (%s): %s", e.ParagraphID, e.Message)
}
