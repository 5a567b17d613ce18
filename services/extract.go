package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"maps-review-scraper/models"
)

var (
	// starRegexp captures the numeric rating from aria-labels like "4 stars".
	starRegexp = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*star`)
	// relDateRegexp matches relative phrases like "a week ago" or "3 months ago".
	relDateRegexp = regexp.MustCompile(`(?i)(a\s+)?(\d+)?\s*(hour|day|week|month|year)s?\s+ago`)
	// todayRegexp is the fallback for reviews posted within the last day.
	todayRegexp = regexp.MustCompile(`(?i)\b(today|yesterday)\b`)
	// trailerRegexp cuts Like/Share buttons and video timestamps off comments.
	trailerRegexp = regexp.MustCompile(`(?i)(Like|Share|(?:0:\d{2})+).*$`)
	// newMarkRegexp strips the leading "New" badge from comment text.
	newMarkRegexp = regexp.MustCompile(`(?i)^\s*New\s*`)
	// puaRegexp removes private-use glyphs (star icons and similar).
	puaRegexp = regexp.MustCompile("[-]")

	localGuideRegexp  = regexp.MustCompile(`(?i)Local\s*Guide(?:\s*·?\s*\d+\s*reviews)?`)
	reviewCountRegexp = regexp.MustCompile(`(?i)\b\d+\s*reviews?\b`)
	photoCountRegexp  = regexp.MustCompile(`(?i)\b\d+\s*photos?\b`)
	bulletRegexp      = regexp.MustCompile("[●•‣·]")
	dirMarkRegexp     = regexp.MustCompile("[‎‪‬]")
)

// Extractor turns raw review containers into validated ReviewRecords.
type Extractor struct {
	log *zap.Logger
}

// NewExtractor creates a ready-to-use Extractor.
func NewExtractor() *Extractor {
	return &Extractor{log: zap.L().With(zap.String("component", "extractor"))}
}

// Extract parses each raw item into a ReviewRecord. Items missing a reviewer
// name or a parseable 1..5 rating are dropped; the count of drops is returned
// for diagnostics. A malformed item never aborts the pass.
func (e *Extractor) Extract(items []models.RawReview) ([]models.ReviewRecord, int) {
	records := make([]models.ReviewRecord, 0, len(items))
	dropped := 0

	for _, item := range items {
		rec, ok := e.extractOne(item)
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}

	if dropped > 0 {
		e.log.Debug("dropped malformed review items",
			zap.Int("dropped", dropped),
			zap.Int("extracted", len(records)),
		)
	}
	return records, dropped
}

func (e *Extractor) extractOne(item models.RawReview) (models.ReviewRecord, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(item.HTML))
	if err != nil {
		e.log.Debug("unparseable review container", zap.String("id", item.ID), zap.Error(err))
		return models.ReviewRecord{}, false
	}

	name := cleanMeta(doc.Find("div.d4r55").First().Text())
	if name == "" {
		return models.ReviewRecord{}, false
	}

	rating, ok := parseRating(doc)
	if !ok {
		return models.ReviewRecord{}, false
	}

	text := doc.Text()
	date := findDate(text)

	return models.ReviewRecord{
		Reviewer: name,
		Rating:   rating,
		Date:     date,
		Comment:  extractComment(text, date),
	}, true
}

// parseRating scans aria-labels for a star rating and validates the 1..5
// range. A fabricated rating is never substituted for a missing one.
func parseRating(doc *goquery.Document) (int, bool) {
	rating := 0
	doc.Find("[aria-label]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		label, _ := sel.Attr("aria-label")
		m := starRegexp.FindStringSubmatch(label)
		if m == nil {
			return true
		}
		val, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return true
		}
		rating = int(val)
		return false
	})

	if rating < 1 || rating > 5 {
		return 0, false
	}
	return rating, true
}

func findDate(text string) string {
	if m := relDateRegexp.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	return strings.TrimSpace(todayRegexp.FindString(text))
}

// extractComment takes the container text after the date marker and strips
// the action-button trailer and icon glyphs, mirroring how the review body
// is laid out on the page.
func extractComment(text, date string) string {
	if date == "" {
		return ""
	}
	pos := strings.Index(text, date)
	if pos < 0 {
		return ""
	}
	comment := text[pos+len(date):]
	comment = newMarkRegexp.ReplaceAllString(comment, "")
	comment = trailerRegexp.ReplaceAllString(comment, "")
	comment = puaRegexp.ReplaceAllString(comment, "")
	return normaliseText(comment)
}

// cleanMeta strips reviewer metadata (Local Guide badges, review and photo
// counts, bullets, directional marks) that bleeds into the name element.
func cleanMeta(s string) string {
	s = localGuideRegexp.ReplaceAllString(s, "")
	s = reviewCountRegexp.ReplaceAllString(s, "")
	s = photoCountRegexp.ReplaceAllString(s, "")
	s = bulletRegexp.ReplaceAllString(s, "")
	s = dirMarkRegexp.ReplaceAllString(s, "")
	return strings.Trim(normaliseText(s), " -–:,.")
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
