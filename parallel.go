package godeckai

import "sync"

// ParallelCacheLookup checks the cache for a set of unique marked-text
// hashes concurrently. Returns a hash → cached translation map and the
// hashes that missed, in their input order. Lookups are pure reads, so no
// ordering between goroutines matters.
func ParallelCacheLookup(cache TranslationCache, hashes []string, targetLang string) (map[string]string, []string) {
	if cache == nil || len(hashes) == 0 {
		return make(map[string]string), hashes
	}

	type lookupResult struct {
		hash  string
		value string
		found bool
	}

	results := make(chan lookupResult, len(hashes))
	var wg sync.WaitGroup

	for _, hash := range hashes {
		wg.Add(1)
		go func(h string) {
			defer wg.Done()
			if val, ok := cache.Get(CacheKey(h, targetLang)); ok {
				results <- lookupResult{hash: h, value: val, found: true}
			} else {
				results <- lookupResult{hash: h, found: false}
			}
		}(hash)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	hits := make(map[string]string)
	missed := make(map[string]bool)
	for result := range results {
		if result.found {
			hits[result.hash] = result.value
		} else {
			missed[result.hash] = true
		}
	}

	// Rebuild the miss list in input order for deterministic batches.
	var misses []string
	for _, h := range hashes {
		if missed[h] {
			misses = append(misses, h)
		}
	}

	return hits, misses
}
