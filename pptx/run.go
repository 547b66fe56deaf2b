package pptx

import (
	"fmt"
	"strconv"
	"strings"
)

// Flag is a tri-state boolean matching OOXML run properties: a character
// format can be explicitly on, explicitly off, or unset and inherited from
// the layout/theme.
type Flag int8

const (
	// FlagUnset means the attribute is absent and the effective value is
	// inherited. Writers never materialize an unset flag.
	FlagUnset Flag = iota
	// FlagOff is an explicit "0"/"false".
	FlagOff
	// FlagOn is an explicit "1"/"true".
	FlagOn
)

// FlagOf converts an effective boolean into an explicit flag.
func FlagOf(on bool) Flag {
	if on {
		return FlagOn
	}
	return FlagOff
}

// Bool returns the effective value, treating unset as false.
func (f Flag) Bool() bool {
	return f == FlagOn
}

// Run is the smallest span of paragraph text carrying one uniform set of
// character formatting. Runs are owned by the in-memory Presentation; the
// pointers handed out by Walk stay valid for the lifetime of that
// Presentation and are written back to the container on Save.
type Run struct {
	Text   string
	Bold   Flag
	Italic Flag

	// Read-only font metadata; never written back.
	FontName string
	FontSize float64 // points

	part     string // zip part name owning this run
	tagName  string // run element name as written, e.g. "a:r"
	origText string
	origBold Flag
	origItal Flag

	t        elemSpan // the <a:t> element
	rpr      tagSpan  // the <a:rPr ...> start tag
	insertAt int64    // position before </a:r>, for runs without <a:t>
}

// elemSpan records the byte layout of a text element inside its part.
type elemSpan struct {
	present     bool
	selfClosing bool
	start       int64 // offset of '<'
	textStart   int64 // offset just after the start tag
	textEnd     int64 // offset of the end tag
	end         int64 // offset just after the element
}

// tagSpan records the byte layout of a start tag inside its part.
type tagSpan struct {
	present bool
	start   int64
	end     int64
	raw     []byte
}

// textTagName derives the <a:t> element name from the run's own prefix, so
// inserted elements use the same namespace binding as the rest of the part.
func (r *Run) textTagName() string {
	if i := strings.IndexByte(r.tagName, ':'); i >= 0 {
		return r.tagName[:i+1] + "t"
	}
	return "t"
}

// Location identifies one paragraph uniquely within the document. It is
// deterministic and stable across walks of the same unmodified file.
type Location struct {
	Slide int   // zero-based slide index
	Path  []int // child-index path through the shape tree, nested groups included
	Row   int   // table row, -1 when not a table cell
	Col   int   // table column, -1 when not a table cell
	Chart bool  // paragraph lives in a chart title part
	Notes bool  // paragraph lives in the slide's speaker notes
	Para  int   // paragraph index within its text container
}

// ID renders the canonical, collision-free paragraph id used as the batch
// key, e.g. "s0/sp2.1/p0", "s3/sp1/tbl/r0c2/p1", "s2/sp4/chart/p0",
// "s1/notes/p2".
func (l Location) ID() string {
	var b strings.Builder
	fmt.Fprintf(&b, "s%d", l.Slide)

	if l.Notes {
		fmt.Fprintf(&b, "/notes/p%d", l.Para)
		return b.String()
	}

	b.WriteString("/sp")
	for i, idx := range l.Path {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	if l.Row >= 0 {
		fmt.Fprintf(&b, "/tbl/r%dc%d", l.Row, l.Col)
	}
	if l.Chart {
		b.WriteString("/chart")
	}
	fmt.Fprintf(&b, "/p%d", l.Para)
	return b.String()
}

// Paragraph is an ordered sequence of runs rendered as one block, the unit
// at which translation context is grouped.
type Paragraph struct {
	Loc  Location
	Runs []*Run
}

// Text returns the concatenated run text.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}
