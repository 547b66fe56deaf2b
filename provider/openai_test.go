package provider

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ZaguanLabs/godeckai"
)

func testProvider() *OpenAIProvider {
	return NewOpenAIProvider(OpenAIConfig{APIKey: "test-key"})
}

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	p := testProvider()

	if p.model != "gpt-4o-mini" {
		t.Errorf("Default model = %q, want gpt-4o-mini", p.model)
	}
	if p.temperature != 0.1 {
		t.Errorf("Default temperature = %v, want 0.1", p.temperature)
	}
}

func TestBuildSystemPrompt_MarkerInstructions(t *testing.T) {
	p := testProvider()

	prompt := p.buildSystemPrompt(TranslateRequest{TargetLang: "es_ES"})

	for _, token := range []string{"<BOLD_START>", "<BOLD_END>", "<ITALIC_START>", "<ITALIC_END>"} {
		if !strings.Contains(prompt, token) {
			t.Errorf("Prompt missing token instruction for %s", token)
		}
	}
	if !strings.Contains(prompt, "Spanish (Spain)") {
		t.Error("Prompt missing target language name")
	}
}

func TestBuildSystemPrompt_GlossaryAndExclusions(t *testing.T) {
	p := testProvider()

	prompt := p.buildSystemPrompt(TranslateRequest{
		TargetLang:    "de_DE",
		Glossary:      map[string]string{"churn": "Abwanderung"},
		ExcludedTerms: []string{"KPI", "OKR"},
		Context:       "Board meeting deck",
		Style:         godeckai.StyleAcademic,
	})

	if !strings.Contains(prompt, `"churn" → Abwanderung`) {
		t.Error("Prompt missing glossary entry")
	}
	if !strings.Contains(prompt, "KPI") || !strings.Contains(prompt, "OKR") {
		t.Error("Prompt missing excluded terms")
	}
	if !strings.Contains(prompt, "Board meeting deck") {
		t.Error("Prompt missing context")
	}
	if !strings.Contains(prompt, godeckai.StyleDescription(godeckai.StyleAcademic)) {
		t.Error("Prompt missing style instruction")
	}
}

func TestBuildSystemPrompt_SourceLanguage(t *testing.T) {
	p := testProvider()

	auto := p.buildSystemPrompt(TranslateRequest{TargetLang: "fr_FR", SourceLang: "auto"})
	if !strings.Contains(auto, "Detect the source language") {
		t.Error("Auto source should instruct detection")
	}

	explicit := p.buildSystemPrompt(TranslateRequest{TargetLang: "fr_FR", SourceLang: "de_DE"})
	if !strings.Contains(explicit, "German (Germany)") {
		t.Error("Explicit source should name the language")
	}
}

func TestBuildUserMessage(t *testing.T) {
	p := testProvider()

	msg := p.buildUserMessage(TranslateRequest{
		Batch: map[string]string{
			"s0/sp0/p0": "<BOLD_START>Hello<BOLD_END>",
			"s0/sp1/p0": "World",
		},
	})

	var decoded map[string]string
	if err := json.Unmarshal([]byte(msg), &decoded); err != nil {
		t.Fatalf("User message is not valid JSON: %v", err)
	}
	if decoded["s0/sp0/p0"] != "<BOLD_START>Hello<BOLD_END>" || decoded["s0/sp1/p0"] != "World" {
		t.Errorf("Decoded message = %v", decoded)
	}
}

func TestParseResponse_FlatObject(t *testing.T) {
	p := testProvider()

	result, err := p.parseResponse(`{"s0/sp0/p0": "Hola", "s0/sp1/p0": "Mundo"}`)
	if err != nil {
		t.Fatalf("parseResponse failed: %v", err)
	}
	if result["s0/sp0/p0"] != "Hola" || result["s0/sp1/p0"] != "Mundo" {
		t.Errorf("Unexpected result: %v", result)
	}
}

func TestParseResponse_NestedObject(t *testing.T) {
	p := testProvider()

	// Models sometimes wrap the map in a named key despite instructions.
	result, err := p.parseResponse(`{"translations": {"s0/sp0/p0": "Hola"}}`)
	if err != nil {
		t.Fatalf("parseResponse failed: %v", err)
	}
	if result["s0/sp0/p0"] != "Hola" {
		t.Errorf("Unexpected result: %v", result)
	}
}

func TestParseResponse_Invalid(t *testing.T) {
	p := testProvider()

	cases := []string{
		`not json at all`,
		`["array", "not", "object"]`,
		`{"id": 42}`,
	}
	for _, content := range cases {
		if _, err := p.parseResponse(content); err == nil {
			t.Errorf("Expected error for %q", content)
		} else {
			var pe *godeckai.ProviderError
			if !errors.As(err, &pe) || pe.Retryable {
				t.Errorf("Expected non-retryable ProviderError for %q, got %v", content, err)
			}
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		msg      string
		expected bool
	}{
		{"rate limit exceeded", true},
		{"request timeout", true},
		{"status code 429", true},
		{"status code 503", true},
		{"invalid api key", false},
		{"context length exceeded", false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := isRetryableError(errors.New(tt.msg)); got != tt.expected {
				t.Errorf("isRetryableError(%q) = %v, want %v", tt.msg, got, tt.expected)
			}
		})
	}
}
