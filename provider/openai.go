package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ZaguanLabs/godeckai"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements AIProvider using OpenAI's API.
type OpenAIProvider struct {
	client        *openai.Client
	model         string
	fallbackModel string
	temperature   float32
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey        string  // OpenAI API key (uses OPENAI_API_KEY env var if empty)
	Model         string  // Model to use (default: "gpt-4o-mini")
	FallbackModel string  // Model to retry with when the primary model fails (optional)
	Temperature   float32 // Temperature for generation (default: 0.1)
	BaseURL       string  // Custom base URL (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		// Low temperature keeps marker tokens and terminology stable.
		temperature = 0.1
	}

	return &OpenAIProvider{
		client:        openai.NewClientWithConfig(config),
		model:         model,
		fallbackModel: cfg.FallbackModel,
		temperature:   temperature,
	}
}

// Translate translates a batch of marked paragraph texts using OpenAI.
// The returned map uses the same ids as the request batch.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) (map[string]string, error) {
	if len(req.Batch) == 0 {
		return map[string]string{}, nil
	}

	translations, err := p.translateWith(ctx, p.model, req)
	if err != nil && p.fallbackModel != "" && p.fallbackModel != p.model {
		translations, err = p.translateWith(ctx, p.fallbackModel, req)
	}
	return translations, err
}

func (p *OpenAIProvider) translateWith(ctx context.Context, model string, req TranslateRequest) (map[string]string, error) {
	systemPrompt := p.buildSystemPrompt(req)
	userMessage := p.buildUserMessage(req)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, &godeckai.ProviderError{
			Message:   "OpenAI API call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}

	if len(resp.Choices) == 0 {
		return nil, &godeckai.ProviderError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}

	return p.parseResponse(resp.Choices[0].Message.Content)
}

func (p *OpenAIProvider) buildSystemPrompt(req TranslateRequest) string {
	targetName := godeckai.GetLanguageName(req.TargetLang)
	styleDesc := godeckai.StyleDescription(req.Style)

	contextText := "The content is a business presentation."
	if req.Context != "" {
		contextText = fmt.Sprintf("The content is for: %s. Adapt the tone to be appropriate for this context.", req.Context)
	}

	sourceText := "Detect the source language automatically."
	if req.SourceLang != "" && req.SourceLang != "auto" {
		sourceText = fmt.Sprintf("The source language is %s.", godeckai.GetLanguageName(req.SourceLang))
	}

	prompt := fmt.Sprintf(`# Role
You are an expert native translator specializing in presentation slides. You translate content to %s with the fluency and nuance of a highly educated native speaker.

# Context
%s
%s

# Register
%s

# Task
Translate each paragraph value of the provided JSON object into idiomatic %s.

# Formatting Markers
Paragraphs may contain the literal tokens <BOLD_START>, <BOLD_END>, <ITALIC_START> and <ITALIC_END>. They delimit formatted spans of the original text.
- Copy every token into your output EXACTLY as written. Never translate, rename, drop or add tokens.
- Keep each token attached to the words it formatted in the source, so the emphasized span covers the corresponding words in the translation.
- Do not reorder <BOLD_*> tokens relative to <ITALIC_*> tokens.

# Style Guide
- **Natural Flow**: Avoid literal translations. Rephrase sentences to sound completely natural to a native speaker.
- **Slide Brevity**: Presentation text is terse. Keep translations similarly compact; never pad with filler.
- **Vocabulary**: Use precise, culturally relevant terminology. Avoid awkward "translationese" or robotic phrasing.
- **Idioms**: Never translate idioms literally. Replace them with natural %s equivalents.
- **Numbers & Codes**: Do NOT translate numbers, product codes, URLs, email addresses or file paths.
- **Whitespace**: Preserve leading and trailing spaces of each paragraph exactly.`, targetName, contextText, sourceText, styleDesc, targetName, targetName)

	if len(req.Glossary) > 0 {
		prompt += "\n\n# Glossary\nAlways use these translations for the listed terms:"
		for source, target := range req.Glossary {
			prompt += fmt.Sprintf("\n- \"%s\" → %s", source, target)
		}
	}

	if len(req.ExcludedTerms) > 0 {
		terms := strings.Join(req.ExcludedTerms, "\n- ")
		prompt += fmt.Sprintf("\n\n# Exclusions\nDo NOT translate the following terms. Keep them exactly as they appear in the source:\n- %s", terms)
	}

	prompt += `

# Format
Return a valid JSON object mapping every input id to its translated text, e.g.
{ "s0/sp0/p0": "translated text", "s0/sp1/p0": "<BOLD_START>translated<BOLD_END> text" }
- Use exactly the ids from the input, no more, no fewer.
- Do NOT wrap the JSON in Markdown code blocks.`

	return prompt
}

func (p *OpenAIProvider) buildUserMessage(req TranslateRequest) string {
	data, _ := json.Marshal(req.Batch)
	return string(data)
}

// parseResponse decodes the model output into an id → translation map. A
// top-level object of strings is the expected shape; a single level of
// nesting (e.g. {"translations": {...}}) is tolerated.
func (p *OpenAIProvider) parseResponse(content string) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, &godeckai.ProviderError{
			Message:   "invalid response format from OpenAI",
			Cause:     err,
			Retryable: false,
		}
	}

	result := make(map[string]string, len(raw))
	for id, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			result[id] = s
			continue
		}
		var nested map[string]string
		if err := json.Unmarshal(v, &nested); err == nil {
			for nid, ns := range nested {
				result[nid] = ns
			}
			continue
		}
		return nil, &godeckai.ProviderError{
			Message:   fmt.Sprintf("unexpected value for id %q in OpenAI response", id),
			Retryable: false,
		}
	}

	return result, nil
}

func isRetryableError(err error) bool {
	// Check for common retryable conditions
	errStr := err.Error()
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"temporary",
		"503",
		"502",
		"429",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(strings.ToLower(errStr), pattern) {
			return true
		}
	}
	return false
}

// Verify OpenAIProvider implements AIProvider
var _ AIProvider = (*OpenAIProvider)(nil)
