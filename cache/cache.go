// Package cache provides translation caching implementations.
//
// Keys are produced by godeckai.CacheKey: the SHA-256 of a paragraph's
// marked text combined with the target language. Values are the translated
// marked text, so a cache hit skips the provider entirely for that
// paragraph.
package cache

import "github.com/ZaguanLabs/godeckai"

// TranslationCache is the interface for translation caching.
// This is an alias to the main package interface for convenience.
type TranslationCache = godeckai.TranslationCache
