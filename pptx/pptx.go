// Package pptx reads and writes the text layer of PowerPoint (.pptx)
// presentations. A presentation is an OOXML zip container; slide, notes and
// chart parts are plain XML. The package walks every text-bearing location
// into paragraphs of formatting runs and writes modified run text and
// explicit bold/italic flags back by splicing the original part bytes, so
// untouched markup survives byte-for-byte.
package pptx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
)

// Presentation is an in-memory .pptx container. It is exclusively owned by
// one translation pipeline run; there is no internal locking.
type Presentation struct {
	entries []zipEntry
	index   map[string]int
	slides  []string // slide part names in presentation order
	paras   []*Paragraph
	stats   DeckStats
}

type zipEntry struct {
	name string
	data []byte
}

// DeckStats summarizes a presentation's translatable content.
type DeckStats struct {
	Slides     int
	Shapes     int
	Paragraphs int
	Runs       int
	Characters int
}

// Open loads a presentation from a file.
func Open(filePath string) (*Presentation, error) {
	f, err := os.Open(filePath) // #nosec G304 - caller-provided document path
	if err != nil {
		return nil, fmt.Errorf("opening pptx: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("opening pptx: %w", err)
	}

	return OpenReader(f, st.Size())
}

// OpenReader loads a presentation from an in-memory or seekable source.
func OpenReader(r io.ReaderAt, size int64) (*Presentation, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("reading pptx container: %w", err)
	}

	p := &Presentation{index: make(map[string]int, len(zr.File))}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("reading part %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading part %s: %w", f.Name, err)
		}
		p.index[f.Name] = len(p.entries)
		p.entries = append(p.entries, zipEntry{name: f.Name, data: data})
	}

	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

// load discovers slide parts and walks them into paragraphs. The walk is
// performed once; repeated calls to Walk return the same run references,
// which keeps ids stable and keeps the pointers valid across the
// translation suspend point.
func (p *Presentation) load() error {
	slideNums := make(map[int]string)
	for _, e := range p.entries {
		if strings.HasPrefix(e.name, "ppt/slides/slide") && strings.HasSuffix(e.name, ".xml") {
			if num := slideNumber(e.name); num > 0 {
				slideNums[num] = e.name
			}
		}
	}

	nums := make([]int, 0, len(slideNums))
	for n := range slideNums {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	for i, n := range nums {
		name := slideNums[n]
		p.slides = append(p.slides, name)

		data := p.part(name)
		res, err := parsePart(name, data, kindSlide, i, nil)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		p.stats.Shapes += res.shapes

		rels := p.parseRels(relsName(name))

		for _, c := range res.containers {
			if c.chartRID == "" {
				p.collect(c)
				continue
			}
			target, ok := rels.byID[c.chartRID]
			if !ok {
				slog.Debug("pptx: chart relationship not found", "part", name, "rId", c.chartRID)
				continue
			}
			chartName := resolveTarget(path.Dir(name), target)
			chartData := p.part(chartName)
			if chartData == nil {
				slog.Debug("pptx: chart part not found", "part", chartName)
				continue
			}
			chartRes, err := parsePart(chartName, chartData, kindChart, i, c.path)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", chartName, err)
			}
			for _, cc := range chartRes.containers {
				p.collect(cc)
			}
		}

		// Speaker notes come after all shape paragraphs of the slide.
		if notesTarget := rels.notes; notesTarget != "" {
			notesName := resolveTarget(path.Dir(name), notesTarget)
			notesData := p.part(notesName)
			if notesData == nil {
				slog.Debug("pptx: notes part not found", "part", notesName)
				continue
			}
			notesRes, err := parsePart(notesName, notesData, kindNotes, i, nil)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", notesName, err)
			}
			for _, nc := range notesRes.containers {
				p.collect(nc)
			}
		}
	}

	p.stats.Slides = len(p.slides)
	return nil
}

// collect keeps the container's non-blank paragraphs. Paragraphs whose
// concatenated text is whitespace carry nothing translatable and are left
// completely untouched: they never get an id and never appear in the walk.
func (p *Presentation) collect(c *container) {
	for _, para := range c.paras {
		text := para.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		p.paras = append(p.paras, para)
		p.stats.Paragraphs++
		p.stats.Runs += len(para.Runs)
		p.stats.Characters += len([]rune(text))
	}
}

// Walk returns every translatable paragraph in deterministic
// slide → shape → (table cell) → paragraph order, speaker notes last per
// slide. The same slice and run pointers are returned on every call.
func (p *Presentation) Walk() []*Paragraph {
	return p.paras
}

// Stats returns content statistics gathered during the walk.
func (p *Presentation) Stats() DeckStats {
	return p.stats
}

// SlideCount returns the number of slides.
func (p *Presentation) SlideCount() int {
	return len(p.slides)
}

// part returns a part's raw bytes, or nil when absent.
func (p *Presentation) part(name string) []byte {
	if i, ok := p.index[name]; ok {
		return p.entries[i].data
	}
	return nil
}

// Save writes the presentation, with any run modifications applied, to a
// file. Parts without modified runs are copied byte-for-byte.
func (p *Presentation) Save(filePath string) error {
	f, err := os.Create(filePath) // #nosec G304 - caller-provided output path
	if err != nil {
		return fmt.Errorf("creating pptx: %w", err)
	}
	if err := p.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write serializes the presentation to w, preserving part order.
func (p *Presentation) Write(w io.Writer) error {
	edited, err := p.editedParts()
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, e := range p.entries {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:   e.name,
			Method: zip.Deflate,
		})
		if err != nil {
			return fmt.Errorf("writing part %s: %w", e.name, err)
		}
		data := e.data
		if mod, ok := edited[e.name]; ok {
			data = mod
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("writing part %s: %w", e.name, err)
		}
	}
	return zw.Close()
}

// editedParts computes the spliced bytes for every part with modified runs.
func (p *Presentation) editedParts() (map[string][]byte, error) {
	edits := make(map[string][]edit)

	for _, para := range p.paras {
		for _, r := range para.Runs {
			for _, e := range runEdits(r, p.part(r.part)) {
				edits[r.part] = append(edits[r.part], e)
			}
		}
	}

	out := make(map[string][]byte, len(edits))
	for name, list := range edits {
		data, err := applyEdits(p.part(name), list)
		if err != nil {
			return nil, fmt.Errorf("splicing part %s: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

// relationships is the parsed .rels file of a slide part.
type relationships struct {
	byID  map[string]string // rId → target
	notes string            // target of the notesSlide relationship, if any
}

type relsXML struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// parseRels reads a part's relationship file. Missing or malformed rels are
// treated as empty: the part simply has no charts or notes to follow.
func (p *Presentation) parseRels(name string) relationships {
	rels := relationships{byID: make(map[string]string)}

	data := p.part(name)
	if data == nil {
		return rels
	}

	var parsed relsXML
	if err := xml.Unmarshal(data, &parsed); err != nil {
		slog.Debug("pptx: malformed rels part", "part", name, "error", err)
		return rels
	}

	for _, r := range parsed.Rels {
		rels.byID[r.ID] = r.Target
		if strings.HasSuffix(r.Type, "/notesSlide") {
			rels.notes = r.Target
		}
	}
	return rels
}

// relsName maps "ppt/slides/slide1.xml" to "ppt/slides/_rels/slide1.xml.rels".
func relsName(partName string) string {
	return path.Join(path.Dir(partName), "_rels", path.Base(partName)+".rels")
}

// resolveTarget resolves a relationship target against its source part's
// directory. Absolute targets are container-rooted.
func resolveTarget(baseDir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(baseDir, target))
}

// slideNumber extracts N from "ppt/slides/slideN.xml", 0 when malformed.
func slideNumber(name string) int {
	name = strings.TrimPrefix(name, "ppt/slides/slide")
	name = strings.TrimSuffix(name, ".xml")
	var num int
	if _, err := fmt.Sscanf(name, "%d", &num); err != nil {
		return 0
	}
	return num
}
