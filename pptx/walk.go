package pptx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"

	"golang.org/x/net/html/charset"
)

// partKind selects which text containers of an OOXML part are walked.
type partKind int

const (
	kindSlide partKind = iota // shape text frames, table cells, chart refs
	kindNotes                 // the notes body placeholder only
	kindChart                 // the rich chart title only
)

// container groups the paragraphs of one text body, in document order.
// A container with a chartRID is a placeholder for a chart part that is
// parsed separately and spliced in at the same position.
type container struct {
	loc      Location
	paras    []*Paragraph
	chartRID string
	path     []int
}

// partResult is the outcome of walking one XML part.
type partResult struct {
	containers []*container
	shapes     int
}

// parsePart token-walks a slide, notes or chart part, recording every run's
// text, tri-state bold/italic and the byte spans needed to splice translated
// content back without re-encoding the document tree.
//
// OOXML parts are UTF-8, for which the charset label reader is a
// pass-through, so decoder offsets index directly into data. Element
// matching is by local name: slide parts prefix DrawingML with "a" and
// PresentationML with "p", chart parts use "c", and local names do not
// collide across the containers walked here.
func parsePart(name string, data []byte, kind partKind, slide int, basePath []int) (*partResult, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	res := &partResult{}

	var (
		counters  []int    // per-group child counters, innermost last
		pathStack []int    // current shape path
		phStack   []string // placeholder type per open <sp>

		inTbl    bool
		row, col int

		inTitle   bool // chart parts: inside <c:title>
		chartDone bool // only the first rich title body is the chart title

		cur       *container
		paraCount int
		para      *Paragraph
		run       *Run
		runTagEnd int64
		inRPr     bool
		inT       bool
	)

	for {
		prevOff := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		off := dec.InputOffset()

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "spTree":
				counters = append(counters, 0)

			case "sp", "pic", "graphicFrame", "grpSp", "cxnSp":
				if len(counters) > 0 {
					idx := counters[len(counters)-1]
					counters[len(counters)-1]++
					pathStack = append(pathStack, idx)
					res.shapes++
					if t.Name.Local == "grpSp" {
						counters = append(counters, 0)
					}
				}
				if t.Name.Local == "sp" {
					phStack = append(phStack, "")
				}

			case "ph":
				if len(phStack) > 0 {
					phStack[len(phStack)-1] = attrVal(t, "type")
				}

			case "tbl":
				inTbl = true
				row, col = -1, -1
			case "tr":
				if inTbl {
					row++
					col = -1
				}
			case "tc":
				if inTbl {
					col++
				}

			case "chart":
				if kind == kindSlide {
					if rid := attrVal(t, "id"); rid != "" {
						res.containers = append(res.containers, &container{
							chartRID: rid,
							path:     snapshot(pathStack),
						})
					}
				}

			case "title":
				if kind == kindChart {
					inTitle = true
				}

			case "txBody":
				if cur != nil {
					break
				}
				switch kind {
				case kindSlide:
					loc := Location{Slide: slide, Path: snapshot(pathStack), Row: -1, Col: -1}
					if inTbl {
						loc.Row, loc.Col = row, col
					}
					cur = &container{loc: loc}
					paraCount = 0
				case kindNotes:
					if len(phStack) > 0 && phStack[len(phStack)-1] == "body" {
						cur = &container{loc: Location{Slide: slide, Notes: true, Row: -1, Col: -1}}
						paraCount = 0
					}
				}

			case "rich":
				if kind == kindChart && inTitle && cur == nil && !chartDone {
					cur = &container{loc: Location{
						Slide: slide,
						Path:  snapshot(basePath),
						Chart: true,
						Row:   -1,
						Col:   -1,
					}}
					paraCount = 0
				}

			case "p":
				if cur != nil && para == nil {
					loc := cur.loc
					loc.Para = paraCount
					paraCount++
					para = &Paragraph{Loc: loc}
				}

			case "r":
				if para != nil && run == nil {
					run = &Run{
						part:    name,
						tagName: rawTagName(data, prevOff),
					}
					runTagEnd = off
				}

			case "rPr":
				if run != nil {
					run.rpr = tagSpan{
						present: true,
						start:   prevOff,
						end:     off,
						raw:     append([]byte(nil), data[prevOff:off]...),
					}
					run.Bold = flagAttr(t, "b")
					run.Italic = flagAttr(t, "i")
					run.origBold = run.Bold
					run.origItal = run.Italic
					if sz := attrVal(t, "sz"); sz != "" {
						if n, err := strconv.Atoi(sz); err == nil {
							run.FontSize = float64(n) / 100
						}
					}
					inRPr = true
				}

			case "latin":
				if run != nil && inRPr {
					if tf := attrVal(t, "typeface"); tf != "" {
						run.FontName = tf
					}
				}

			case "t":
				if run != nil && !run.t.present {
					run.t = elemSpan{present: true, start: prevOff, textStart: off}
					inT = true
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "spTree":
				if len(counters) > 0 {
					counters = counters[:len(counters)-1]
				}

			case "sp", "pic", "graphicFrame", "grpSp", "cxnSp":
				if len(pathStack) > 0 {
					pathStack = pathStack[:len(pathStack)-1]
				}
				if t.Name.Local == "grpSp" && len(counters) > 0 {
					counters = counters[:len(counters)-1]
				}
				if t.Name.Local == "sp" && len(phStack) > 0 {
					phStack = phStack[:len(phStack)-1]
				}

			case "tbl":
				inTbl = false

			case "title":
				if kind == kindChart {
					inTitle = false
				}

			case "txBody":
				if cur != nil && kind != kindChart {
					if len(cur.paras) > 0 {
						res.containers = append(res.containers, cur)
					}
					cur = nil
				}

			case "rich":
				if cur != nil && kind == kindChart {
					if len(cur.paras) > 0 {
						res.containers = append(res.containers, cur)
					}
					cur = nil
					chartDone = true
				}

			case "p":
				if para != nil && cur != nil {
					cur.paras = append(cur.paras, para)
					para = nil
				}

			case "r":
				if run != nil && para != nil {
					if !run.t.present && off != runTagEnd {
						run.insertAt = prevOff
					}
					run.origText = run.Text
					para.Runs = append(para.Runs, run)
				}
				run = nil
				inRPr = false
				inT = false

			case "rPr":
				inRPr = false

			case "t":
				if run != nil && inT {
					if off == run.t.textStart {
						// <a:t/> collapses to a zero-width element.
						run.t.selfClosing = true
						run.t.textEnd = run.t.textStart
						run.t.end = run.t.textStart
					} else {
						run.t.textEnd = prevOff
						run.t.end = off
					}
					inT = false
				}
			}

		case xml.CharData:
			if inT && run != nil {
				run.Text += string(t)
			}
		}
	}

	return res, nil
}

// attrVal returns an attribute value matched by local name.
func attrVal(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// flagAttr reads an OOXML boolean attribute into a tri-state flag.
func flagAttr(se xml.StartElement, local string) Flag {
	for _, a := range se.Attr {
		if a.Name.Local != local {
			continue
		}
		switch a.Value {
		case "1", "true":
			return FlagOn
		case "0", "false":
			return FlagOff
		}
		return FlagUnset
	}
	return FlagUnset
}

// rawTagName extracts the element name as written at offset, prefix included.
func rawTagName(data []byte, off int64) string {
	i := int(off)
	if i >= len(data) || data[i] != '<' {
		return ""
	}
	j := i + 1
	for j < len(data) {
		c := data[j]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '>' || c == '/' {
			break
		}
		j++
	}
	return string(data[i+1 : j])
}

func snapshot(path []int) []int {
	return append([]int(nil), path...)
}
