// Package report renders an HTML review report for a deck translation. The
// report surfaces degraded paragraphs (where translated segments did not map
// one-to-one onto the original runs) and per-paragraph warnings, so a
// reviewer can check formatting placement without opening every slide.
package report

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/ZaguanLabs/godeckai"
)

// Report holds everything the HTML template needs.
type Report struct {
	InputFile   string
	OutputFile  string
	TargetLang  string
	LangName    string
	HTMLLang    string // BCP 47 form for the lang attribute
	Dir         string // "ltr" or "rtl"
	GeneratedAt string

	Paragraphs int
	Translated int
	Cached     int

	Degraded []godeckai.Degradation
	Warnings []string
}

// New builds a report from a translation result.
func New(result *godeckai.Result, targetLang, inputFile, outputFile string) *Report {
	return &Report{
		InputFile:   inputFile,
		OutputFile:  outputFile,
		TargetLang:  targetLang,
		LangName:    godeckai.GetLanguageName(targetLang),
		HTMLLang:    godeckai.ToHTMLLang(targetLang),
		Dir:         godeckai.GetDirection(targetLang),
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		Paragraphs:  result.Paragraphs,
		Translated:  result.Translated,
		Cached:      result.Cached,
		Degraded:    result.Degraded,
		Warnings:    result.Errors,
	}
}

// Clean reports whether there is nothing for a reviewer to check.
func (r *Report) Clean() bool {
	return len(r.Degraded) == 0 && len(r.Warnings) == 0
}

// WriteHTML renders the report to w.
func (r *Report) WriteHTML(w io.Writer) error {
	if err := reportTemplate.Execute(w, r); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

// WriteFile renders the report to a file.
func (r *Report) WriteFile(path string) error {
	f, err := os.Create(path) // #nosec G304 - caller-provided output path
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	return r.WriteHTML(f)
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Translation review — {{.LangName}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 60rem; color: #1a1a2e; }
h1 { font-size: 1.4rem; }
table.summary td { padding: 0.2rem 1rem 0.2rem 0; color: #444; }
section { margin-top: 2rem; }
.para { border: 1px solid #ddd; border-radius: 6px; padding: 0.8rem 1rem; margin-bottom: 0.8rem; }
.para .id { font-family: monospace; font-size: 0.85rem; color: #666; }
.para .counts { font-size: 0.85rem; color: #a33; }
.para .text { margin-top: 0.4rem; font-size: 1.05rem; }
.warning { color: #a33; font-family: monospace; font-size: 0.9rem; }
.clean { color: #2a7; }
</style>
</head>
<body>
<h1>Translation review — {{.LangName}}</h1>
<table class="summary">
<tr><td>Input</td><td>{{.InputFile}}</td></tr>
<tr><td>Output</td><td>{{.OutputFile}}</td></tr>
<tr><td>Generated</td><td>{{.GeneratedAt}}</td></tr>
<tr><td>Paragraphs</td><td>{{.Paragraphs}}</td></tr>
<tr><td>Translated</td><td>{{.Translated}}</td></tr>
<tr><td>From cache</td><td>{{.Cached}}</td></tr>
</table>
{{if .Clean}}
<section><p class="clean">No degraded paragraphs and no warnings. Formatting placement matched everywhere.</p></section>
{{else}}
{{if .Degraded}}
<section id="degraded">
<h2>Degraded formatting ({{len .Degraded}})</h2>
<p>These paragraphs translated into a different number of formatted segments
than the original had runs. The text is complete, but bold/italic placement
may have drifted and should be reviewed on the slide.</p>
{{range .Degraded}}
<div class="para">
<span class="id">{{.ParagraphID}}</span>
<span class="counts">{{.Segments}} segments → {{.Runs}} runs</span>
<div class="text" lang="{{$.HTMLLang}}" dir="{{$.Dir}}">{{.Text}}</div>
</div>
{{end}}
</section>
{{end}}
{{if .Warnings}}
<section id="warnings">
<h2>Warnings ({{len .Warnings}})</h2>
<ul>
{{range .Warnings}}<li class="warning">{{.}}</li>
{{end}}</ul>
</section>
{{end}}
{{end}}
</body>
</html>
`))
