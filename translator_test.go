package godeckai

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZaguanLabs/godeckai/pptx"
)

const (
	slideHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree>`
	slideFooter = `</p:spTree></p:cSld></p:sld>`
)

// deckBytes builds a minimal .pptx container with one slide part per body.
func deckBytes(t *testing.T, slideBodies ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, body := range slideBodies {
		w, err := zw.Create(fmt.Sprintf("ppt/slides/slide%d.xml", i+1))
		if err != nil {
			t.Fatalf("creating slide part: %v", err)
		}
		if _, err := w.Write([]byte(slideHeader + body + slideFooter)); err != nil {
			t.Fatalf("writing slide part: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func openDeck(t *testing.T, slideBodies ...string) *pptx.Presentation {
	t.Helper()

	data := deckBytes(t, slideBodies...)
	prs, err := pptx.OpenReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("opening deck: %v", err)
	}
	return prs
}

// mockProvider maps source marked text to translations; unknown text comes
// back bracketed.
type mockProvider struct {
	translations map[string]string
	callCount    int
	lastBatch    map[string]string
	err          error
	// returnEmpty makes the provider return an empty map instead of results
	returnEmpty bool
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		translations: map[string]string{
			"Hello World": "Hola Mundo",
			"<BOLD_START>Hello <BOLD_END>World": "<BOLD_START>Hola <BOLD_END>Mundo",
		},
	}
}

func (m *mockProvider) Translate(ctx context.Context, req TranslateRequest) (map[string]string, error) {
	m.callCount++
	m.lastBatch = req.Batch

	if m.err != nil {
		return nil, m.err
	}
	if m.returnEmpty {
		return map[string]string{}, nil
	}

	results := make(map[string]string, len(req.Batch))
	for id, text := range req.Batch {
		if translation, ok := m.translations[text]; ok {
			results[id] = translation
		} else {
			results[id] = "[" + text + "]"
		}
	}
	return results, nil
}

// mockCache is a simple map-backed cache for testing.
type mockCache struct {
	data map[string]string
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string]string)}
}

func (c *mockCache) Get(key string) (string, bool) {
	val, ok := c.data[key]
	return val, ok
}

func (c *mockCache) Set(key string, value string) error {
	c.data[key] = value
	c.sets++
	return nil
}

func TestTranslateDeck_Basic(t *testing.T) {
	prs := openDeck(t, `<p:sp><p:txBody><a:p><a:r><a:t>Hello World</a:t></a:r></a:p></p:txBody></p:sp>`)

	provider := newMockProvider()
	translator := NewTranslator("es_ES", provider)

	result, err := translator.TranslateDeck(context.Background(), prs)
	if err != nil {
		t.Fatalf("TranslateDeck failed: %v", err)
	}

	paras := prs.Walk()
	if len(paras) != 1 {
		t.Fatalf("Expected 1 paragraph, got %d", len(paras))
	}
	if got := paras[0].Text(); got != "Hola Mundo" {
		t.Errorf("Paragraph text = %q, want %q", got, "Hola Mundo")
	}

	if result.Paragraphs != 1 || result.Translated != 1 || result.Cached != 0 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if provider.callCount != 1 {
		t.Errorf("Expected 1 provider call, got %d", provider.callCount)
	}
}

func TestTranslateDeck_PreservesFormatting(t *testing.T) {
	prs := openDeck(t, `<p:sp><p:txBody><a:p><a:r><a:rPr b="1"/><a:t>Hello </a:t></a:r><a:r><a:rPr b="0"/><a:t>World</a:t></a:r></a:p></p:txBody></p:sp>`)

	provider := newMockProvider()
	translator := NewTranslator("es_ES", provider)

	if _, err := translator.TranslateDeck(context.Background(), prs); err != nil {
		t.Fatalf("TranslateDeck failed: %v", err)
	}

	runs := prs.Walk()[0].Runs
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].Text != "Hola " || runs[0].Bold != pptx.FlagOn {
		t.Errorf("Run 0 = %q bold=%v, want bold 'Hola '", runs[0].Text, runs[0].Bold)
	}
	if runs[1].Text != "Mundo" || runs[1].Bold != pptx.FlagOff {
		t.Errorf("Run 1 = %q bold=%v, want plain 'Mundo'", runs[1].Text, runs[1].Bold)
	}
}

func TestTranslateDeck_CacheHit(t *testing.T) {
	provider := newMockProvider()
	cache := newMockCache()
	translator := NewTranslator("es_ES", provider, WithCache(cache))

	slide := `<p:sp><p:txBody><a:p><a:r><a:t>Hello World</a:t></a:r></a:p></p:txBody></p:sp>`

	// First pass populates the cache.
	result1, err := translator.TranslateDeck(context.Background(), openDeck(t, slide))
	if err != nil {
		t.Fatalf("First TranslateDeck failed: %v", err)
	}
	if result1.Translated != 1 || result1.Cached != 0 {
		t.Errorf("First pass: %+v", result1)
	}

	// Second pass over a fresh copy should be served entirely from cache.
	prs2 := openDeck(t, slide)
	result2, err := translator.TranslateDeck(context.Background(), prs2)
	if err != nil {
		t.Fatalf("Second TranslateDeck failed: %v", err)
	}
	if result2.Cached != 1 || result2.Translated != 0 {
		t.Errorf("Second pass: %+v", result2)
	}
	if provider.callCount != 1 {
		t.Errorf("Expected 1 provider call total, got %d", provider.callCount)
	}
	if got := prs2.Walk()[0].Text(); got != "Hola Mundo" {
		t.Errorf("Cached translation applied = %q", got)
	}
}

func TestTranslateDeck_HashDedup(t *testing.T) {
	// Two shapes with identical text produce one provider entry.
	prs := openDeck(t,
		`<p:sp><p:txBody><a:p><a:r><a:t>Hello World</a:t></a:r></a:p></p:txBody></p:sp>`+
			`<p:sp><p:txBody><a:p><a:r><a:t>Hello World</a:t></a:r></a:p></p:txBody></p:sp>`)

	provider := newMockProvider()
	translator := NewTranslator("es_ES", provider)

	result, err := translator.TranslateDeck(context.Background(), prs)
	if err != nil {
		t.Fatalf("TranslateDeck failed: %v", err)
	}

	if len(provider.lastBatch) != 1 {
		t.Errorf("Expected deduplicated batch of 1, got %d", len(provider.lastBatch))
	}
	if result.Translated != 2 {
		t.Errorf("Expected both paragraphs translated, got %d", result.Translated)
	}
	for _, p := range prs.Walk() {
		if p.Text() != "Hola Mundo" {
			t.Errorf("Paragraph %s = %q", p.Loc.ID(), p.Text())
		}
	}
}

func TestTranslateDeck_SourceEqualsTarget(t *testing.T) {
	prs := openDeck(t, `<p:sp><p:txBody><a:p><a:r><a:t>Hola ya</a:t></a:r></a:p></p:txBody></p:sp>`)

	provider := newMockProvider()
	translator := NewTranslator("es_ES", provider, WithSourceLang("es"))

	result, err := translator.TranslateDeck(context.Background(), prs)
	if err != nil {
		t.Fatalf("TranslateDeck failed: %v", err)
	}

	if provider.callCount != 0 {
		t.Errorf("Expected no provider call when source == target, got %d", provider.callCount)
	}
	if result.Translated != 0 {
		t.Errorf("Expected nothing translated, got %+v", result)
	}
	if got := prs.Walk()[0].Text(); got != "Hola ya" {
		t.Errorf("Text should be untouched, got %q", got)
	}
}

func TestTranslateDeck_AutoSourceNeverBypasses(t *testing.T) {
	prs := openDeck(t, `<p:sp><p:txBody><a:p><a:r><a:t>Hello World</a:t></a:r></a:p></p:txBody></p:sp>`)

	provider := newMockProvider()
	translator := NewTranslator("es_ES", provider) // default source "auto"

	if _, err := translator.TranslateDeck(context.Background(), prs); err != nil {
		t.Fatalf("TranslateDeck failed: %v", err)
	}
	if provider.callCount != 1 {
		t.Errorf("Expected provider call with auto source, got %d", provider.callCount)
	}
}

func TestTranslateDeck_EmptyDeck(t *testing.T) {
	prs := openDeck(t, `<p:sp><p:txBody><a:p><a:r><a:t>   </a:t></a:r></a:p></p:txBody></p:sp>`)

	provider := newMockProvider()
	translator := NewTranslator("es_ES", provider)

	result, err := translator.TranslateDeck(context.Background(), prs)
	if err != nil {
		t.Fatalf("TranslateDeck failed: %v", err)
	}

	if provider.callCount != 0 {
		t.Errorf("Expected no provider call for empty deck, got %d", provider.callCount)
	}
	if result.Paragraphs != 0 {
		t.Errorf("Expected 0 paragraphs, got %d", result.Paragraphs)
	}
}

func TestTranslateDeck_MissingTranslationKeepsSource(t *testing.T) {
	prs := openDeck(t, `<p:sp><p:txBody><a:p><a:r><a:t>Hello World</a:t></a:r></a:p></p:txBody></p:sp>`)

	provider := newMockProvider()
	provider.returnEmpty = true
	translator := NewTranslator("es_ES", provider)

	result, err := translator.TranslateDeck(context.Background(), prs)
	if err != nil {
		t.Fatalf("TranslateDeck failed: %v", err)
	}

	if got := prs.Walk()[0].Text(); got != "Hello World" {
		t.Errorf("Identity fallback should keep source text, got %q", got)
	}
	if len(result.Errors) != 1 {
		t.Errorf("Expected one warning, got %v", result.Errors)
	}
}

func TestTranslateDeck_EmptyTranslationKeepsSource(t *testing.T) {
	prs := openDeck(t, `<p:sp><p:txBody><a:p><a:r><a:t>Hello World</a:t></a:r></a:p></p:txBody></p:sp>`)

	provider := newMockProvider()
	provider.translations = map[string]string{
		"Hello World": "<BOLD_START><BOLD_END>",
	}
	translator := NewTranslator("es_ES", provider)

	result, err := translator.TranslateDeck(context.Background(), prs)
	if err != nil {
		t.Fatalf("TranslateDeck failed: %v", err)
	}

	if got := prs.Walk()[0].Text(); got != "Hello World" {
		t.Errorf("Empty translation should keep source text, got %q", got)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "redistribution error") {
		t.Errorf("Expected redistribution warning, got %v", result.Errors)
	}
}

func TestTranslateDeck_Degraded(t *testing.T) {
	prs := openDeck(t, `<p:sp><p:txBody><a:p>`+
		`<a:r><a:rPr b="1"/><a:t>One </a:t></a:r>`+
		`<a:r><a:rPr b="0"/><a:t>Two </a:t></a:r>`+
		`<a:r><a:rPr b="1"/><a:t>Three</a:t></a:r>`+
		`</a:p></p:txBody></p:sp>`)

	provider := newMockProvider()
	provider.translations = map[string]string{
		"<BOLD_START>One <BOLD_END>Two <BOLD_START>Three<BOLD_END>": "<BOLD_START>Uno <BOLD_END>DosTres",
	}
	translator := NewTranslator("es_ES", provider)

	result, err := translator.TranslateDeck(context.Background(), prs)
	if err != nil {
		t.Fatalf("TranslateDeck failed: %v", err)
	}

	if len(result.Degraded) != 1 {
		t.Fatalf("Expected 1 degraded paragraph, got %v", result.Degraded)
	}
	d := result.Degraded[0]
	if d.Segments != 2 || d.Runs != 3 {
		t.Errorf("Degradation = %+v, want 2 segments / 3 runs", d)
	}
	if got := prs.Walk()[0].Text(); got != "Uno DosTres" {
		t.Errorf("Degraded text = %q, want complete text", got)
	}
}

func TestTranslateDeck_ProviderError(t *testing.T) {
	prs := openDeck(t, `<p:sp><p:txBody><a:p><a:r><a:t>Hello World</a:t></a:r></a:p></p:txBody></p:sp>`)

	provider := newMockProvider()
	provider.err = &ProviderError{Message: "quota exhausted", Retryable: false}
	translator := NewTranslator("es_ES", provider)

	_, err := translator.TranslateDeck(context.Background(), prs)

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	// Batch failure mutates nothing.
	if got := prs.Walk()[0].Text(); got != "Hello World" {
		t.Errorf("Deck should be untouched after batch failure, got %q", got)
	}
}

func TestTranslateDeck_Progress(t *testing.T) {
	prs := openDeck(t, `<p:sp><p:txBody><a:p><a:r><a:t>Hello World</a:t></a:r></a:p></p:txBody></p:sp>`)

	var milestones []int
	translator := NewTranslator("es_ES", newMockProvider(),
		WithProgress(func(done, total int, message string) {
			if total != 3 {
				t.Errorf("Expected total 3, got %d", total)
			}
			milestones = append(milestones, done)
		}))

	if _, err := translator.TranslateDeck(context.Background(), prs); err != nil {
		t.Fatalf("TranslateDeck failed: %v", err)
	}

	if len(milestones) != 4 || milestones[0] != 0 || milestones[len(milestones)-1] != 3 {
		t.Errorf("Unexpected milestones: %v", milestones)
	}
}

func TestTranslateDeck_RequestCarriesOptions(t *testing.T) {
	prs := openDeck(t, `<p:sp><p:txBody><a:p><a:r><a:t>Hello World</a:t></a:r></a:p></p:txBody></p:sp>`)

	provider := newMockProvider()
	translator := NewTranslator("es_ES", provider,
		WithSourceLang("en"),
		WithContext("Quarterly review"),
		WithGlossary(map[string]string{"pipeline": "pipeline de ventas"}),
		WithExcludedTerms([]string{"KPI"}),
		WithStyle(StyleCasual),
	)

	var got TranslateRequest
	inner := provider
	spy := providerFunc(func(ctx context.Context, req TranslateRequest) (map[string]string, error) {
		got = req
		return inner.Translate(ctx, req)
	})
	translator.provider = spy

	if _, err := translator.TranslateDeck(context.Background(), prs); err != nil {
		t.Fatalf("TranslateDeck failed: %v", err)
	}

	if got.TargetLang != "es_ES" || got.SourceLang != "en" {
		t.Errorf("Languages = %q/%q", got.SourceLang, got.TargetLang)
	}
	if got.Context != "Quarterly review" || got.Style != StyleCasual {
		t.Errorf("Context/style = %q/%q", got.Context, got.Style)
	}
	if got.Glossary["pipeline"] != "pipeline de ventas" || len(got.ExcludedTerms) != 1 {
		t.Errorf("Glossary/exclusions = %v / %v", got.Glossary, got.ExcludedTerms)
	}
}

type providerFunc func(ctx context.Context, req TranslateRequest) (map[string]string, error)

func (f providerFunc) Translate(ctx context.Context, req TranslateRequest) (map[string]string, error) {
	return f(ctx, req)
}

func TestTranslateFile(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "deck.pptx")
	if err := os.WriteFile(inputPath, deckBytes(t,
		`<p:sp><p:txBody><a:p><a:r><a:t>Hello World</a:t></a:r></a:p></p:txBody></p:sp>`), 0o644); err != nil {
		t.Fatalf("writing input deck: %v", err)
	}

	// Nested output directory is created on demand.
	outputPath := filepath.Join(dir, "out", "deck.es_ES.pptx")

	translator := NewTranslator("es_ES", newMockProvider())
	result, err := translator.TranslateFile(context.Background(), inputPath, outputPath)
	if err != nil {
		t.Fatalf("TranslateFile failed: %v", err)
	}
	if result.Translated != 1 {
		t.Errorf("Unexpected result: %+v", result)
	}

	out, err := pptx.Open(outputPath)
	if err != nil {
		t.Fatalf("Reopening output deck: %v", err)
	}
	if got := out.Walk()[0].Text(); got != "Hola Mundo" {
		t.Errorf("Output deck text = %q, want %q", got, "Hola Mundo")
	}

	// Input file is untouched.
	in, err := pptx.Open(inputPath)
	if err != nil {
		t.Fatalf("Reopening input deck: %v", err)
	}
	if got := in.Walk()[0].Text(); got != "Hello World" {
		t.Errorf("Input deck was modified: %q", got)
	}
}

func TestTranslateFile_MissingInput(t *testing.T) {
	translator := NewTranslator("es_ES", newMockProvider())

	_, err := translator.TranslateFile(context.Background(), "does-not-exist.pptx", "out.pptx")

	var de *DocumentError
	if !errors.As(err, &de) {
		t.Fatalf("Expected DocumentError, got %v", err)
	}
}
