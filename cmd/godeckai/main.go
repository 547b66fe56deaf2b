// Command godeckai translates PowerPoint presentations using AI.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZaguanLabs/godeckai"
	"github.com/ZaguanLabs/godeckai/cache"
	"github.com/ZaguanLabs/godeckai/pptx"
	"github.com/ZaguanLabs/godeckai/provider"
	"github.com/ZaguanLabs/godeckai/report"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = godeckai.Version
	commit    = godeckai.GitCommit
	buildDate = godeckai.BuildDate
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("godeckai", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Flags
	targetLang := fs.String("lang", "", "Target language code (e.g., es_ES, ja_JP)")
	sourceLang := fs.String("source", "auto", "Source language code (auto = detect)")
	output := fs.String("output", "", "Output file (default: <input>.<lang>.pptx)")
	outputShort := fs.String("o", "", "Output file (short for --output)")
	apiKey := fs.String("api-key", "", "OpenAI API key (default: OPENAI_API_KEY env)")
	model := fs.String("model", "gpt-4o-mini", "OpenAI model to use")
	fallbackModel := fs.String("fallback-model", "", "Model to retry with if the primary model fails")
	style := fs.String("style", "formal_technical", "Translation style: formal_technical, casual, academic")
	contextStr := fs.String("context", "", "Translation context (e.g., 'Q3 sales review deck')")
	exclude := fs.String("exclude", "", "Comma-separated terms to never translate")
	glossaryFile := fs.String("glossary", "", "Glossary file with term=translation lines")
	cacheTTL := fs.Int("cache-ttl", 3600, "Cache TTL in seconds (0 to disable)")
	redisURL := fs.String("redis", "", "Redis URL for a shared translation cache (e.g., redis://localhost:6379)")
	reportFile := fs.String("report", "", "Write an HTML review report to this file")
	showVersion := fs.Bool("version", false, "Show version")
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	dryRun := fs.Bool("dry-run", false, "Show what would be translated without calling API")
	jsonOutput := fs.Bool("json", false, "Output result as JSON")
	diffFile := fs.String("diff", "", "Compare with a previous version of the deck and show changes")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", godeckai.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	// Handle -o alias for --output
	if *outputShort != "" && *output == "" {
		*output = *outputShort
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("input .pptx file is required")
	}
	inputPath := fs.Arg(0)
	inputName := filepath.Base(inputPath)

	// Handle diff mode
	if *diffFile != "" {
		return runDiff(inputPath, *diffFile, *targetLang, stdout, *jsonOutput)
	}

	// Handle dry-run mode
	if *dryRun {
		return runDryRun(inputPath, *targetLang, stdout, *jsonOutput)
	}

	// Validate required flags
	if *targetLang == "" {
		fs.Usage()
		return fmt.Errorf("--lang is required")
	}

	if *output == "" {
		ext := filepath.Ext(inputPath)
		*output = strings.TrimSuffix(inputPath, ext) + "." + *targetLang + ext
	}

	// Get API key
	key := *apiKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return fmt.Errorf("OpenAI API key required (--api-key or OPENAI_API_KEY env)")
	}

	// Create provider
	p := provider.NewOpenAIProvider(provider.OpenAIConfig{
		APIKey:        key,
		Model:         *model,
		FallbackModel: *fallbackModel,
	})

	// Wrap with retry
	retryable := godeckai.NewRetryableProvider(p, godeckai.DefaultRetryConfig())

	// Build options
	opts := []godeckai.TranslatorOption{
		godeckai.WithSourceLang(*sourceLang),
		godeckai.WithStyle(godeckai.TranslationStyle(*style)),
	}

	switch {
	case *redisURL != "":
		rc, err := cache.NewRedisCache(cache.RedisConfig{URL: *redisURL, TTL: *cacheTTL})
		if err != nil {
			return fmt.Errorf("connecting to Redis: %w", err)
		}
		defer rc.Close()
		opts = append(opts, godeckai.WithCache(rc))
	case *cacheTTL > 0:
		opts = append(opts, godeckai.WithCache(cache.NewInMemoryCache(*cacheTTL)))
	}

	if *contextStr != "" {
		opts = append(opts, godeckai.WithContext(*contextStr))
	}

	if *exclude != "" {
		terms := strings.Split(*exclude, ",")
		for i := range terms {
			terms[i] = strings.TrimSpace(terms[i])
		}
		opts = append(opts, godeckai.WithExcludedTerms(terms))
	}

	if *glossaryFile != "" {
		glossary, err := loadGlossary(*glossaryFile)
		if err != nil {
			return fmt.Errorf("loading glossary: %w", err)
		}
		opts = append(opts, godeckai.WithGlossary(glossary))
	}

	if !*quiet {
		opts = append(opts, godeckai.WithProgress(func(done, total int, message string) {
			fmt.Fprintf(stderr, "[%d/%d] %s\n", done, total, message)
		}))
	}

	// Create translator
	translator := godeckai.NewTranslator(*targetLang, retryable, opts...)

	// Translate
	if !*quiet {
		fmt.Fprintf(stderr, "Translating %s to %s...\n", inputName, *targetLang)
	}

	start := time.Now()
	result, err := translator.TranslateFile(context.Background(), inputPath, *output)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	elapsed := time.Since(start)

	if *reportFile != "" {
		rep := report.New(result, *targetLang, inputName, filepath.Base(*output))
		if err := rep.WriteFile(*reportFile); err != nil {
			return err
		}
		if !*quiet {
			fmt.Fprintf(stderr, "Review report written to %s\n", *reportFile)
		}
	}

	if *jsonOutput {
		return outputJSON(stdout, result, *output, elapsed)
	}

	// Stats
	if !*quiet {
		fmt.Fprintf(stderr, "\nDone in %v -> %s\n", elapsed.Round(time.Millisecond), *output)
		fmt.Fprintf(stderr, "  Paragraphs:  %d\n", result.Paragraphs)
		fmt.Fprintf(stderr, "  Translated:  %d\n", result.Translated)
		fmt.Fprintf(stderr, "  From cache:  %d\n", result.Cached)
		if len(result.Degraded) > 0 {
			fmt.Fprintf(stderr, "  Degraded:    %d (formatting placement may have drifted)\n", len(result.Degraded))
		}
		for _, warn := range result.Errors {
			fmt.Fprintf(stderr, "  warning: %s\n", warn)
		}
	}

	return nil
}

// loadGlossary reads a term=translation file, one pair per line. Blank lines
// and lines starting with # are skipped.
func loadGlossary(path string) (map[string]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return nil, err
	}

	glossary := make(map[string]string)
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		term, translation, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected term=translation, got %q", i+1, line)
		}
		glossary[strings.TrimSpace(term)] = strings.TrimSpace(translation)
	}
	return glossary, nil
}

// runDryRun shows what would be translated without calling the API.
func runDryRun(inputPath, targetLang string, stdout io.Writer, jsonOut bool) error {
	prs, err := pptx.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening presentation: %w", err)
	}

	paras := prs.Walk()
	stats := prs.Stats()

	if jsonOut {
		type dryRunPara struct {
			ID     string `json:"id"`
			Marked string `json:"marked"`
		}
		type dryRunOutput struct {
			InputFile  string       `json:"input_file"`
			TargetLang string       `json:"target_lang,omitempty"`
			Slides     int          `json:"slides"`
			Paragraphs []dryRunPara `json:"paragraphs"`
		}

		out := dryRunOutput{
			InputFile:  filepath.Base(inputPath),
			TargetLang: targetLang,
			Slides:     stats.Slides,
		}
		for _, p := range paras {
			out.Paragraphs = append(out.Paragraphs, dryRunPara{
				ID:     p.Loc.ID(),
				Marked: godeckai.EncodeRuns(p.Runs),
			})
		}

		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(stdout, "Dry run: %s", filepath.Base(inputPath))
	if targetLang != "" {
		fmt.Fprintf(stdout, " -> %s", targetLang)
	}
	fmt.Fprintf(stdout, "\n%d slides, %d shapes, %d translatable paragraphs:\n\n",
		stats.Slides, stats.Shapes, stats.Paragraphs)

	for _, p := range paras {
		marked := godeckai.EncodeRuns(p.Runs)
		if len(marked) > 70 {
			marked = marked[:67] + "..."
		}
		fmt.Fprintf(stdout, "  %-24s %q\n", p.Loc.ID(), marked)
	}

	return nil
}

// runDiff compares a deck with a previous version and shows what changed.
func runDiff(newPath, oldPath, targetLang string, stdout io.Writer, jsonOut bool) error {
	oldPrs, err := pptx.Open(oldPath)
	if err != nil {
		return fmt.Errorf("opening previous version: %w", err)
	}
	newPrs, err := pptx.Open(newPath)
	if err != nil {
		return fmt.Errorf("opening presentation: %w", err)
	}

	diff := godeckai.DiffDecks(godeckai.SnapshotDeck(oldPrs), godeckai.SnapshotDeck(newPrs))
	stats := diff.Stats()

	if jsonOut {
		type diffOutput struct {
			InputFile    string `json:"input_file"`
			PreviousFile string `json:"previous_file"`
			TargetLang   string `json:"target_lang,omitempty"`
			Stats        struct {
				Added     int `json:"added"`
				Removed   int `json:"removed"`
				Modified  int `json:"modified"`
				Unchanged int `json:"unchanged"`
			} `json:"stats"`
			NeedsTranslation []string `json:"needs_translation"`
		}

		out := diffOutput{
			InputFile:    filepath.Base(newPath),
			PreviousFile: filepath.Base(oldPath),
			TargetLang:   targetLang,
		}
		out.Stats.Added = stats.Added
		out.Stats.Removed = stats.Removed
		out.Stats.Modified = stats.Modified
		out.Stats.Unchanged = stats.Unchanged

		for _, p := range diff.NeedsTranslation() {
			out.NeedsTranslation = append(out.NeedsTranslation, p.ID)
		}

		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(stdout, "Diff: %s vs %s\n\n", filepath.Base(newPath), filepath.Base(oldPath))
	fmt.Fprintf(stdout, "Summary:\n")
	fmt.Fprintf(stdout, "  Unchanged: %d\n", stats.Unchanged)
	fmt.Fprintf(stdout, "  Added:     %d\n", stats.Added)
	fmt.Fprintf(stdout, "  Removed:   %d\n", stats.Removed)
	fmt.Fprintf(stdout, "  Modified:  %d\n\n", stats.Modified)

	if !diff.HasChanges() {
		fmt.Fprintf(stdout, "No changes detected. All translations are up to date.\n")
		return nil
	}

	fmt.Fprintf(stdout, "Needs translation: %d paragraphs\n\n", len(diff.NeedsTranslation()))

	if len(diff.Added) > 0 {
		fmt.Fprintf(stdout, "Added:\n")
		for _, p := range diff.Added {
			fmt.Fprintf(stdout, "  + %-24s %q\n", p.ID, truncate(p.Text, 50))
		}
		fmt.Fprintf(stdout, "\n")
	}

	if len(diff.Modified) > 0 {
		fmt.Fprintf(stdout, "Modified:\n")
		for _, m := range diff.Modified {
			fmt.Fprintf(stdout, "  ~ %-24s %q -> %q\n", m.New.ID, truncate(m.Old.Text, 30), truncate(m.New.Text, 30))
		}
		fmt.Fprintf(stdout, "\n")
	}

	if len(diff.Removed) > 0 {
		fmt.Fprintf(stdout, "Removed:\n")
		for _, p := range diff.Removed {
			fmt.Fprintf(stdout, "  - %-24s %q\n", p.ID, truncate(p.Text, 50))
		}
		fmt.Fprintf(stdout, "\n")
	}

	return nil
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

// JSONOutput represents the JSON output format.
type JSONOutput struct {
	OutputFile string   `json:"output_file"`
	Paragraphs int      `json:"paragraphs"`
	Translated int      `json:"translated"`
	Cached     int      `json:"cached"`
	Degraded   int      `json:"degraded"`
	Warnings   []string `json:"warnings,omitempty"`
	ElapsedMs  int64    `json:"elapsed_ms"`
}

// outputJSON writes the result as JSON.
func outputJSON(w io.Writer, result *godeckai.Result, outputFile string, elapsed time.Duration) error {
	out := JSONOutput{
		OutputFile: outputFile,
		Paragraphs: result.Paragraphs,
		Translated: result.Translated,
		Cached:     result.Cached,
		Degraded:   len(result.Degraded),
		Warnings:   result.Errors,
		ElapsedMs:  elapsed.Milliseconds(),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
