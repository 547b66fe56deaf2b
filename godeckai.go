// Package godeckai provides an AI-powered PowerPoint translation engine.
//
// Godeckai translates the text of a .pptx presentation into another language
// while leaving every visual attribute untouched. Character-level formatting
// (bold, italic) survives the round trip through inline boundary markers:
// each paragraph's runs are flattened into a single marked string, translated
// as one unit, and the translated string is redistributed back onto the
// original runs.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/godeckai"
//	    "github.com/ZaguanLabs/godeckai/cache"
//	    "github.com/ZaguanLabs/godeckai/provider"
//	)
//
//	func main() {
//	    // Create provider
//	    p := provider.NewOpenAIProvider(provider.OpenAIConfig{
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	    })
//
//	    // Create translator
//	    t := godeckai.NewTranslator("pt_BR", p,
//	        godeckai.WithCache(cache.NewInMemoryCache(3600)),
//	    )
//
//	    // Translate a deck
//	    result, err := t.TranslateFile(context.Background(), "in.pptx", "out.pptx")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("translated %d paragraphs\n", result.Translated)
//	}
package godeckai
