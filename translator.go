package godeckai

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ZaguanLabs/godeckai/pptx"
)

// Translator is the main deck translation engine. It walks a presentation,
// encodes every translatable paragraph into marked text, submits one batched
// provider call per deck, and redistributes the translated text back onto
// the original runs.
type Translator struct {
	targetLang    string
	sourceLang    string
	provider      AIProvider
	cache         TranslationCache
	excludedTerms []string
	context       string
	glossary      map[string]string
	style         TranslationStyle
	progress      ProgressFunc
}

// AIProvider is the interface for AI translation backends. Implementations
// receive a batch keyed by paragraph id and must return translated marked
// text under the same keys. Marker tokens pass through untranslated.
type AIProvider interface {
	Translate(ctx context.Context, req TranslateRequest) (map[string]string, error)
}

// TranslateRequest contains the parameters for a batched translation call.
type TranslateRequest struct {
	Batch         map[string]string // paragraph id → marked text
	TargetLang    string
	SourceLang    string
	ExcludedTerms []string
	Context       string
	Glossary      map[string]string
	Style         TranslationStyle
}

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// ProgressFunc receives coarse pipeline milestones. The provider call is
// atomic per deck, so there is no per-paragraph granularity.
type ProgressFunc func(done, total int, message string)

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithSourceLang sets the source language. The default "auto" lets the
// provider detect it.
func WithSourceLang(lang string) TranslatorOption {
	return func(t *Translator) {
		t.sourceLang = lang
	}
}

// WithCache sets the translation cache.
func WithCache(cache TranslationCache) TranslatorOption {
	return func(t *Translator) {
		t.cache = cache
	}
}

// WithExcludedTerms sets terms that should not be translated.
func WithExcludedTerms(terms []string) TranslatorOption {
	return func(t *Translator) {
		t.excludedTerms = terms
	}
}

// WithContext sets the global translation context (e.g., "quarterly sales deck").
func WithContext(ctx string) TranslatorOption {
	return func(t *Translator) {
		t.context = ctx
	}
}

// WithGlossary sets forced translations for specific terms.
func WithGlossary(glossary map[string]string) TranslatorOption {
	return func(t *Translator) {
		t.glossary = glossary
	}
}

// WithStyle sets the translation style/register.
func WithStyle(style TranslationStyle) TranslatorOption {
	return func(t *Translator) {
		t.style = style
	}
}

// WithProgress sets the milestone progress callback.
func WithProgress(fn ProgressFunc) TranslatorOption {
	return func(t *Translator) {
		t.progress = fn
	}
}

// NewTranslator creates a new Translator with the given target language and provider.
func NewTranslator(targetLang string, provider AIProvider, opts ...TranslatorOption) *Translator {
	t := &Translator{
		targetLang: targetLang,
		sourceLang: "auto",
		provider:   provider,
		style:      StyleFormalTechnical,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Pipeline milestones reported through the progress callback.
const (
	milestoneTotal = 3
)

// TranslateFile translates the deck at inputPath and writes the result to
// outputPath, creating missing output directories. The input file is never
// modified. Batch-level failures abort before any output is produced;
// per-paragraph failures are aggregated into the returned Result.
func (t *Translator) TranslateFile(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	prs, err := pptx.Open(inputPath)
	if err != nil {
		return nil, &DocumentError{Path: inputPath, Message: "opening presentation", Cause: err}
	}

	result, err := t.TranslateDeck(ctx, prs)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &DocumentError{Path: outputPath, Message: "creating output directory", Cause: err}
		}
	}
	if err := prs.Save(outputPath); err != nil {
		return nil, &DocumentError{Path: outputPath, Message: "saving presentation", Cause: err}
	}

	return result, nil
}

// TranslateDeck translates an opened presentation in place. The presentation
// object graph is exclusively owned by this call for its duration; nothing
// is mutated until the full batch has returned successfully.
func (t *Translator) TranslateDeck(ctx context.Context, prs *pptx.Presentation) (*Result, error) {
	result := &Result{}

	t.emit(0, milestoneTotal, "extracting text")

	paras := prs.Walk()
	byID := make(map[string]*pptx.Paragraph, len(paras))
	batch := make(map[string]string, len(paras))
	order := make([]string, 0, len(paras))

	for _, para := range paras {
		marked := EncodeRuns(para.Runs)
		if strings.TrimSpace(StripTokens(marked)) == "" {
			continue
		}
		id := para.Loc.ID()
		byID[id] = para
		batch[id] = marked
		order = append(order, id)

		result.Runs += len(para.Runs)
		result.Characters += utf8.RuneCountInString(para.Text())
	}
	result.Paragraphs = len(order)

	if len(order) == 0 || t.isSourceLang() {
		t.emit(milestoneTotal, milestoneTotal, "done")
		return result, nil
	}

	t.emit(1, milestoneTotal, fmt.Sprintf("translating %d paragraphs to %s", len(order), t.targetLang))

	translations, cachedCount, translatedCount, err := t.translateBatch(ctx, batch, order)
	if err != nil {
		return nil, err
	}
	result.Cached = cachedCount
	result.Translated = translatedCount

	t.emit(2, milestoneTotal, "applying translations")

	for _, id := range order {
		translated, ok := translations[id]
		if !ok {
			// Identity fallback: the paragraph keeps its source text.
			result.Errors = append(result.Errors, fmt.Sprintf("%s: no translation returned, keeping source text", id))
			continue
		}
		if strings.TrimSpace(StripTokens(translated)) == "" {
			redErr := &RedistributionError{ParagraphID: id, Message: "translated text is empty after stripping tokens, keeping source text"}
			result.Errors = append(result.Errors, redErr.Error())
			continue
		}

		para := byID[id]
		info := RedistributeRuns(para.Runs, translated)
		if info.Degraded() {
			result.Degraded = append(result.Degraded, Degradation{
				ParagraphID: id,
				Segments:    info.Segments,
				Runs:        info.Runs,
				Text:        para.Text(),
			})
		}
	}

	t.emit(milestoneTotal, milestoneTotal, "done")

	return result, nil
}

// parallelLookupThreshold is the minimum number of unique texts before cache
// lookups fan out to goroutines.
const parallelLookupThreshold = 5

// translateBatch resolves a batch through the cache and the provider.
// Identical marked texts are deduplicated: one provider entry per unique
// hash, fanned back out to every paragraph sharing it. Ids whose translation
// could not be resolved are simply absent from the returned map.
func (t *Translator) translateBatch(ctx context.Context, batch map[string]string, order []string) (map[string]string, int, int, error) {
	translations := make(map[string]string, len(batch))

	hashOf := make(map[string]string, len(batch))
	idsByHash := make(map[string][]string)
	uniqHashes := make([]string, 0, len(order))

	for _, id := range order {
		h := HashText(batch[id])
		hashOf[id] = h
		if len(idsByHash[h]) == 0 {
			uniqHashes = append(uniqHashes, h)
		}
		idsByHash[h] = append(idsByHash[h], id)
	}

	// Cache lookup per unique hash.
	cachedCount := 0
	var missHashes []string
	if t.cache == nil {
		missHashes = uniqHashes
	} else {
		var hits map[string]string
		if len(uniqHashes) >= parallelLookupThreshold {
			hits, missHashes = ParallelCacheLookup(t.cache, uniqHashes, t.targetLang)
		} else {
			hits = make(map[string]string)
			for _, h := range uniqHashes {
				if cached, ok := t.cache.Get(CacheKey(h, t.targetLang)); ok {
					hits[h] = cached
				} else {
					missHashes = append(missHashes, h)
				}
			}
		}
		for h, val := range hits {
			for _, id := range idsByHash[h] {
				translations[id] = val
				cachedCount++
			}
		}
	}

	// Translate cache misses via the provider, one call for the whole deck.
	translatedCount := 0
	if len(missHashes) > 0 && t.provider != nil {
		missBatch := make(map[string]string, len(missHashes))
		repOf := make(map[string]string, len(missHashes))
		for _, h := range missHashes {
			rep := idsByHash[h][0]
			repOf[h] = rep
			missBatch[rep] = batch[rep]
		}

		results, err := t.provider.Translate(ctx, TranslateRequest{
			Batch:         missBatch,
			TargetLang:    t.targetLang,
			SourceLang:    t.sourceLang,
			ExcludedTerms: t.excludedTerms,
			Context:       t.context,
			Glossary:      t.glossary,
			Style:         t.style,
		})
		if err != nil {
			return nil, 0, 0, err
		}

		for _, h := range missHashes {
			val, ok := results[repOf[h]]
			if !ok {
				continue
			}
			for _, id := range idsByHash[h] {
				translations[id] = val
				translatedCount++
			}
			if t.cache != nil {
				_ = t.cache.Set(CacheKey(h, t.targetLang), val) // Ignore cache set errors
			}
		}
	}

	return translations, cachedCount, translatedCount, nil
}

func (t *Translator) emit(done, total int, message string) {
	if t.progress != nil {
		t.progress(done, total, message)
	}
}

// isSourceLang checks if target matches source (no translation needed).
// An "auto" source never bypasses translation.
func (t *Translator) isSourceLang() bool {
	if t.sourceLang == "" || strings.EqualFold(t.sourceLang, "auto") {
		return false
	}
	return normalizeBaseLang(t.targetLang) == normalizeBaseLang(t.sourceLang)
}

// TargetLang returns the target language.
func (t *Translator) TargetLang() string {
	return t.targetLang
}

// SourceLang returns the source language.
func (t *Translator) SourceLang() string {
	return t.sourceLang
}

// Glossary returns the glossary of forced translations.
func (t *Translator) Glossary() map[string]string {
	return t.glossary
}

// Style returns the translation style.
func (t *Translator) Style() TranslationStyle {
	return t.style
}

// IsRTL returns true if the target language uses right-to-left text direction.
func (t *Translator) IsRTL() bool {
	return IsRTL(t.targetLang)
}

// normalizeBaseLang extracts the base language code (e.g., "pt" from "pt_BR").
func normalizeBaseLang(lang string) string {
	parts := strings.Split(lang, "_")
	if len(parts) > 0 {
		return strings.ToLower(parts[0])
	}
	return strings.ToLower(lang)
}
