package pptx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
)

// edit is one byte-range replacement inside a part. An insertion is an edit
// with start == end.
type edit struct {
	start int64
	end   int64
	repl  []byte
}

// runEdits computes the splices a modified run needs against its part.
// Untouched runs produce no edits, which is what keeps unmodified parts
// byte-identical on save.
func runEdits(r *Run, data []byte) []edit {
	if data == nil {
		return nil
	}

	var edits []edit

	if r.Text != r.origText {
		switch {
		case r.t.present && r.t.selfClosing:
			// Rebuild <a:t/> as an open/close pair carrying the text.
			tag := append([]byte(nil), data[r.t.start:r.t.textStart]...)
			tag = bytes.Replace(tag, []byte("/>"), []byte(">"), 1)
			var b bytes.Buffer
			b.Write(tag)
			b.Write(escapeXML(r.Text))
			fmt.Fprintf(&b, "</%s>", r.textTagName())
			edits = append(edits, edit{start: r.t.start, end: r.t.end, repl: b.Bytes()})

		case r.t.present:
			edits = append(edits, edit{
				start: r.t.textStart,
				end:   r.t.textEnd,
				repl:  escapeXML(r.Text),
			})

		case r.insertAt > 0 && r.Text != "":
			// The run had no text element at all; insert one before </a:r>.
			var b bytes.Buffer
			fmt.Fprintf(&b, "<%s>", r.textTagName())
			b.Write(escapeXML(r.Text))
			fmt.Fprintf(&b, "</%s>", r.textTagName())
			edits = append(edits, edit{start: r.insertAt, end: r.insertAt, repl: b.Bytes()})
		}
	}

	// Formatting writes only flip explicit attributes that already exist.
	// Unset flags are inherited and stay that way.
	if r.rpr.present {
		tag := r.rpr.raw
		changed := false
		if r.Bold != r.origBold && r.origBold != FlagUnset && r.Bold != FlagUnset {
			tag = setBoolAttr(tag, "b", r.Bold.Bool())
			changed = true
		}
		if r.Italic != r.origItal && r.origItal != FlagUnset && r.Italic != FlagUnset {
			tag = setBoolAttr(tag, "i", r.Italic.Bool())
			changed = true
		}
		if changed {
			edits = append(edits, edit{start: r.rpr.start, end: r.rpr.end, repl: tag})
		}
	}

	return edits
}

// applyEdits splices a set of non-overlapping edits into data, returning a
// new slice. Edits are applied back-to-front so earlier offsets stay valid.
func applyEdits(data []byte, edits []edit) ([]byte, error) {
	sorted := make([]edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].start < sorted[i-1].end {
			return nil, fmt.Errorf("overlapping edits at offset %d", sorted[i].start)
		}
	}
	last := int64(len(data))
	if n := len(sorted); n > 0 && sorted[n-1].end > last {
		return nil, fmt.Errorf("edit past end of part at offset %d", sorted[n-1].end)
	}

	out := make([]byte, 0, len(data))
	var pos int64
	for _, e := range sorted {
		out = append(out, data[pos:e.start]...)
		out = append(out, e.repl...)
		pos = e.end
	}
	out = append(out, data[pos:]...)
	return out, nil
}

// setBoolAttr rewrites the value of an existing boolean attribute inside a
// raw start tag. The attribute is matched by bare name; OOXML run property
// flags are unprefixed. Tags without the attribute are returned unchanged.
func setBoolAttr(tag []byte, name string, on bool) []byte {
	val := "0"
	if on {
		val = "1"
	}

	for _, quote := range []byte{'"', '\''} {
		needle := []byte(" " + name + "=" + string(quote))
		i := bytes.Index(tag, needle)
		if i < 0 {
			continue
		}
		valStart := i + len(needle)
		valEnd := bytes.IndexByte(tag[valStart:], quote)
		if valEnd < 0 {
			continue
		}
		out := make([]byte, 0, len(tag))
		out = append(out, tag[:valStart]...)
		out = append(out, val...)
		out = append(out, tag[valStart+valEnd:]...)
		return out
	}
	return tag
}

// escapeXML escapes text for use as XML character data.
func escapeXML(s string) []byte {
	var b bytes.Buffer
	// EscapeText only fails on writer errors; bytes.Buffer never errors.
	_ = xml.EscapeText(&b, []byte(s))
	return b.Bytes()
}
