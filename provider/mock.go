package provider

import (
	"context"
	"fmt"
)

// MockProvider is a mock AI provider for testing.
type MockProvider struct {
	Translations map[string]string // Map of source text to translation
	CallCount    int               // Number of times Translate was called
	LastRequest  *TranslateRequest // Last request received
	Err          error             // Error to return, if set
}

// NewMockProvider creates a new mock provider with default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Hello":       "Hola",
			"World":       "Mundo",
			"Hello World": "Hola Mundo",
		},
	}
}

// Translate returns mock translations keyed by the batch ids.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) (map[string]string, error) {
	m.CallCount++
	m.LastRequest = &req

	if m.Err != nil {
		return nil, m.Err
	}

	results := make(map[string]string, len(req.Batch))
	for id, text := range req.Batch {
		if translation, ok := m.Translations[text]; ok {
			results[id] = translation
		} else {
			// Return bracketed text for unknown translations
			results[id] = fmt.Sprintf("[%s]", text)
		}
	}

	return results, nil
}

// Reset resets the call count and last request.
func (m *MockProvider) Reset() {
	m.CallCount = 0
	m.LastRequest = nil
	m.Err = nil
}

// Verify MockProvider implements AIProvider
var _ AIProvider = (*MockProvider)(nil)
