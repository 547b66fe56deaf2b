package godeckai

import "github.com/ZaguanLabs/godeckai/pptx"

// ParagraphText is a position-stable snapshot of one paragraph's content,
// used for comparing two versions of a deck.
type ParagraphText struct {
	ID   string // Structural location id
	Text string // Concatenated run text
	Hash string // SHA-256 of the trimmed text
}

// SnapshotDeck captures the translatable paragraphs of a presentation for
// later diffing.
func SnapshotDeck(prs *pptx.Presentation) []ParagraphText {
	paras := prs.Walk()
	out := make([]ParagraphText, 0, len(paras))
	for _, p := range paras {
		text := p.Text()
		out = append(out, ParagraphText{
			ID:   p.Loc.ID(),
			Text: text,
			Hash: HashText(text),
		})
	}
	return out
}

// DiffResult represents the difference between two deck versions.
type DiffResult struct {
	// Added contains paragraphs that are new (not in the previous version).
	Added []ParagraphText

	// Removed contains paragraphs that were removed (not in the new version).
	Removed []ParagraphText

	// Unchanged contains paragraphs that exist in both versions.
	Unchanged []ParagraphText

	// Modified contains pairs where the text changed at the same location.
	Modified []ModifiedParagraph
}

// ModifiedParagraph represents a paragraph whose text changed in place.
type ModifiedParagraph struct {
	Old ParagraphText
	New ParagraphText
}

// Stats returns summary statistics for the diff.
func (d *DiffResult) Stats() DiffStats {
	return DiffStats{
		Added:     len(d.Added),
		Removed:   len(d.Removed),
		Unchanged: len(d.Unchanged),
		Modified:  len(d.Modified),
	}
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	Added     int
	Removed   int
	Unchanged int
	Modified  int
}

// HasChanges returns true if there are any differences.
func (d *DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Modified) > 0
}

// NeedsTranslation returns the paragraphs that need to be translated.
// This includes new paragraphs and the new side of modified ones.
func (d *DiffResult) NeedsTranslation() []ParagraphText {
	result := make([]ParagraphText, 0, len(d.Added)+len(d.Modified))
	result = append(result, d.Added...)
	for _, m := range d.Modified {
		result = append(result, m.New)
	}
	return result
}

// DiffDecks compares two deck snapshots and returns the differences.
// Useful for incremental translation: only retranslate what changed
// between two revisions of a presentation.
//
// Paragraphs are matched by content hash first; leftovers that share a
// structural id are reported as modified rather than removed+added, since
// the ids encode the exact position in the document tree.
func DiffDecks(oldParas, newParas []ParagraphText) *DiffResult {
	result := &DiffResult{}

	oldByHash := make(map[string]ParagraphText)
	newByHash := make(map[string]ParagraphText)

	for _, p := range oldParas {
		oldByHash[p.Hash] = p
	}
	for _, p := range newParas {
		newByHash[p.Hash] = p
	}

	for _, p := range oldParas {
		if _, exists := newByHash[p.Hash]; exists {
			result.Unchanged = append(result.Unchanged, p)
		} else {
			result.Removed = append(result.Removed, p)
		}
	}
	for _, p := range newParas {
		if _, exists := oldByHash[p.Hash]; !exists {
			result.Added = append(result.Added, p)
		}
	}

	// Match removed against added by location id to detect in-place edits.
	if len(result.Added) > 0 && len(result.Removed) > 0 {
		matched := make(map[int]bool)
		removedMatched := make(map[int]bool)

		for ri, removed := range result.Removed {
			for ai, added := range result.Added {
				if matched[ai] {
					continue
				}
				if removed.ID == added.ID {
					result.Modified = append(result.Modified, ModifiedParagraph{
						Old: removed,
						New: added,
					})
					matched[ai] = true
					removedMatched[ri] = true
					break
				}
			}
		}

		newAdded := make([]ParagraphText, 0, len(result.Added))
		for i, p := range result.Added {
			if !matched[i] {
				newAdded = append(newAdded, p)
			}
		}
		result.Added = newAdded

		newRemoved := make([]ParagraphText, 0, len(result.Removed))
		for i, p := range result.Removed {
			if !removedMatched[i] {
				newRemoved = append(newRemoved, p)
			}
		}
		result.Removed = newRemoved
	}

	return result
}
