package godeckai

// TranslationStyle controls the tone and register of translations.
type TranslationStyle string

const (
	// StyleFormalTechnical keeps a formal, technical tone and preserves
	// specialized terminology. This is the default for business decks.
	StyleFormalTechnical TranslationStyle = "formal_technical"
	// StyleCasual uses casual, conversational language.
	StyleCasual TranslationStyle = "casual"
	// StyleAcademic keeps a formal academic register with terminological precision.
	StyleAcademic TranslationStyle = "academic"
)

// StyleDescription returns the prompt instruction for a translation style.
func StyleDescription(style TranslationStyle) string {
	switch style {
	case StyleCasual:
		return "Use a casual, conversational tone; adapt to everyday language."
	case StyleAcademic:
		return "Keep a formal academic register with terminological precision."
	default:
		return "Keep a formal, technical tone and preserve specialized terms."
	}
}

// Degradation records a paragraph whose redistribution did not line up
// one-to-one with its original runs. The paragraph is still translated; its
// formatting placement may need manual review.
type Degradation struct {
	ParagraphID string // Stable location id of the paragraph
	Segments    int    // Decoded segments in the translated text
	Runs        int    // Original runs in the paragraph
	Text        string // Final paragraph text after redistribution
}

// Result is the outcome of translating one presentation.
type Result struct {
	Paragraphs int // Translatable paragraphs found by the walker
	Runs       int // Formatting runs across those paragraphs
	Characters int // Characters of source text submitted
	Translated int // Paragraphs newly translated by the provider
	Cached     int // Paragraphs served from the cache

	// Degraded lists paragraphs whose translated segment count did not
	// match the original run count. Text is preserved (overflow is appended
	// to the last run) but bold/italic placement may have drifted.
	Degraded []Degradation

	// Errors holds per-paragraph warnings. A non-empty list does not make
	// the operation a failure; affected paragraphs keep their source text.
	Errors []string
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}
