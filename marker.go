package godeckai

import (
	"strings"

	"github.com/ZaguanLabs/godeckai/pptx"
)

// Formatting boundary tokens embedded in the wire text sent to the provider.
// They mark transitions, not spans: a token is emitted only where the
// bold/italic state changes between runs. The provider is instructed to pass
// them through untranslated and in order.
const (
	BoldStart   = "<BOLD_START>"
	BoldEnd     = "<BOLD_END>"
	ItalicStart = "<ITALIC_START>"
	ItalicEnd   = "<ITALIC_END>"
)

var markerTokens = []string{BoldStart, BoldEnd, ItalicStart, ItalicEnd}

var tokenStripper = strings.NewReplacer(
	BoldStart, "",
	BoldEnd, "",
	ItalicStart, "",
	ItalicEnd, "",
)

// Segment is one decoded piece of translated text tagged with the
// formatting state that was open where it appeared.
type Segment struct {
	Text   string
	Bold   bool
	Italic bool
}

// EncodeRuns flattens a paragraph's ordered runs into a single marked string.
//
// Bold and italic are two independent boolean channels, both starting closed.
// A run with an unset (theme-inherited) flag counts as unformatted for
// comparison; the run's stored tri-state is never touched. Runs with empty
// text still participate in state tracking, so a zero-width formatting
// change is encoded faithfully. Any state still open after the last run is
// closed at the end of the string.
func EncodeRuns(runs []*pptx.Run) string {
	var b strings.Builder
	bold, italic := false, false

	for _, r := range runs {
		rb := r.Bold == pptx.FlagOn
		ri := r.Italic == pptx.FlagOn

		if rb != bold {
			if rb {
				b.WriteString(BoldStart)
			} else {
				b.WriteString(BoldEnd)
			}
			bold = rb
		}
		if ri != italic {
			if ri {
				b.WriteString(ItalicStart)
			} else {
				b.WriteString(ItalicEnd)
			}
			italic = ri
		}

		b.WriteString(r.Text)
	}

	if bold {
		b.WriteString(BoldEnd)
	}
	if italic {
		b.WriteString(ItalicEnd)
	}

	return b.String()
}

// splitMarked splits a marked string into alternating literal and token
// parts. Only the four exact token literals are recognized; any other text,
// including text that happens to contain angle brackets, stays literal.
func splitMarked(s string) []string {
	var parts []string
	for len(s) > 0 {
		best := -1
		bestTok := ""
		for _, tok := range markerTokens {
			if i := strings.Index(s, tok); i >= 0 && (best < 0 || i < best) {
				best = i
				bestTok = tok
			}
		}
		if best < 0 {
			parts = append(parts, s)
			break
		}
		parts = append(parts, s[:best], bestTok)
		s = s[best+len(bestTok):]
	}
	return parts
}

// DecodeMarked parses a translated marked string into ordered segments.
// Empty fragments between adjacent tokens are dropped; whitespace-only
// fragments are kept, since leading/trailing spaces inside a run are
// meaningful.
func DecodeMarked(marked string) []Segment {
	var segs []Segment
	bold, italic := false, false

	for _, part := range splitMarked(marked) {
		switch part {
		case BoldStart:
			bold = true
		case BoldEnd:
			bold = false
		case ItalicStart:
			italic = true
		case ItalicEnd:
			italic = false
		case "":
		default:
			segs = append(segs, Segment{Text: part, Bold: bold, Italic: italic})
		}
	}

	return segs
}

// StripTokens removes every formatting token from a marked string.
func StripTokens(marked string) string {
	return tokenStripper.Replace(marked)
}

// RedistributionInfo reports how decoded segments mapped onto runs.
type RedistributionInfo struct {
	Segments int
	Runs     int
	// Overflow is true when there were more segments than runs; the excess
	// text was appended to the last run rather than dropped.
	Overflow bool
}

// Degraded reports whether the segment-to-run mapping was not one-to-one.
// Single-run paragraphs are never degraded: they bypass segmentation.
func (ri RedistributionInfo) Degraded() bool {
	return ri.Runs > 1 && ri.Segments != ri.Runs
}

// RedistributeRuns overwrites a paragraph's runs in place so it reads as the
// translated marked text with formatting reconstructed.
//
// Single-run paragraphs bypass segmentation entirely: the cleaned text is
// assigned and formatting is left untouched, since there is nothing to
// redistribute. For multi-run paragraphs every run is cleared first, then
// segments are assigned positionally. A run's bold/italic flag is only
// rewritten when it was explicitly set in the source; unset flags keep their
// theme-inherited formatting. Surplus runs are left empty; surplus segments
// are appended to the last run.
func RedistributeRuns(runs []*pptx.Run, marked string) RedistributionInfo {
	if len(runs) == 0 {
		return RedistributionInfo{}
	}

	if len(runs) == 1 {
		runs[0].Text = StripTokens(marked)
		return RedistributionInfo{Segments: 1, Runs: 1}
	}

	segs := DecodeMarked(marked)

	for _, r := range runs {
		r.Text = ""
	}

	for i, seg := range segs {
		if i >= len(runs) {
			last := runs[len(runs)-1]
			last.Text += seg.Text
			continue
		}
		r := runs[i]
		r.Text = seg.Text
		if r.Bold != pptx.FlagUnset {
			r.Bold = pptx.FlagOf(seg.Bold)
		}
		if r.Italic != pptx.FlagUnset {
			r.Italic = pptx.FlagOf(seg.Italic)
		}
	}

	return RedistributionInfo{
		Segments: len(segs),
		Runs:     len(runs),
		Overflow: len(segs) > len(runs),
	}
}
