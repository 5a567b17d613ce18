package services

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"

	"maps-review-scraper/models"
)

// Key identifies one review across overlapping load passes. It combines the
// normalized reviewer name, the raw date phrase, and a content hash of the
// comment, so exact duplicates collapse while same-named reviewers with
// different comments survive.
type Key string

// Deduplicator filters records already seen in prior load passes of the same
// place. The key set only grows during a scrape and is discarded with the
// Deduplicator when the place's pipeline completes; nothing leaks across
// places.
type Deduplicator struct {
	seen map[Key]struct{}
}

// NewDeduplicator creates an empty Deduplicator for one place's scrape.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[Key]struct{})}
}

// Dedupe returns the records not seen before and marks them seen. Running the
// same batch twice yields nothing the second time.
func (d *Deduplicator) Dedupe(incoming []models.ReviewRecord) []models.ReviewRecord {
	fresh := make([]models.ReviewRecord, 0, len(incoming))
	for _, rec := range incoming {
		key := RecordKey(rec)
		if _, dup := d.seen[key]; dup {
			continue
		}
		d.seen[key] = struct{}{}
		fresh = append(fresh, rec)
	}
	return fresh
}

// Size returns the number of unique records seen so far.
func (d *Deduplicator) Size() int { return len(d.seen) }

// RecordKey builds the composite dedup key for a record.
func RecordKey(r models.ReviewRecord) Key {
	return Key(normalizeKeyText(r.Reviewer) + "\x1f" + r.Date + "\x1f" + ContentHash(r.Comment))
}

// ContentHash returns a short FNV-64a digest of the normalized text.
func ContentHash(s string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(normalizeKeyText(s)))
	return fmt.Sprintf("%016x", h.Sum64())
}

// normalizeKeyText lowercases, drops punctuation, and collapses whitespace so
// cosmetic differences don't defeat deduplication.
func normalizeKeyText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace && b.Len() > 0:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
