package models

import (
	"math"
	"time"
)

// RawReview holds one rendered review container exactly as it came off the
// page: the element's data-review-id and its outer HTML. It is written by a
// load pass and consumed by the extractor; nothing else looks at it.
type RawReview struct {
	ID   string
	HTML string
}

// ReviewRecord is a cleaned, validated review ready for export.
// Rating is always in 1..5; Date keeps the relative phrase from the page
// ("3 weeks ago") and is never resolved to an absolute time.
type ReviewRecord struct {
	Reviewer string `json:"name"`
	Rating   int    `json:"rating"`
	Date     string `json:"date"`
	Comment  string `json:"comment"`
}

// Coordinates is the place position parsed from the page URL.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both components are finite numbers.
func (c Coordinates) Valid() bool {
	return !math.IsNaN(c.Latitude) && !math.IsInf(c.Latitude, 0) &&
		!math.IsNaN(c.Longitude) && !math.IsInf(c.Longitude, 0)
}

// ScrapeStatus is the terminal outcome of one place's pipeline.
type ScrapeStatus string

const (
	StatusSuccess ScrapeStatus = "success"
	StatusPartial ScrapeStatus = "partial_success"
	StatusFailed  ScrapeStatus = "failed"
)

// ScrapeResult is the full outcome of scraping one place.
// A failed result carries no reviews; a partial result carries whatever was
// collected before the run was cut short.
type ScrapeResult struct {
	Location       string
	ScrapedAt      time.Time
	Coordinates    Coordinates
	HasCoordinates bool
	Reviews        []ReviewRecord
	Status         ScrapeStatus
	Err            string
}

// TotalReviews returns the number of collected reviews.
func (r *ScrapeResult) TotalReviews() int { return len(r.Reviews) }

// AverageRating returns the mean rating across collected reviews,
// or 0 when there are none.
func (r *ScrapeResult) AverageRating() float64 {
	if len(r.Reviews) == 0 {
		return 0
	}
	var sum int
	for _, rev := range r.Reviews {
		sum += rev.Rating
	}
	return float64(sum) / float64(len(r.Reviews))
}

// PlaceExport is the per-place JSON payload written by the sinks and read
// back by the merge command.
type PlaceExport struct {
	Location     string         `json:"location"`
	ScrapedAt    time.Time      `json:"scraped_at"`
	Coordinates  *Coordinates   `json:"coordinates"`
	TotalReviews int            `json:"total_reviews"`
	Reviews      []ReviewRecord `json:"reviews"`
}

// SummaryEntry is one place's line in the batch summary. It copies outcome
// data only; the review sequences stay with their ScrapeResult.
type SummaryEntry struct {
	OutputName  string       `json:"output_name"`
	Location    string       `json:"location"`
	ReviewCount int          `json:"review_count"`
	AvgRating   float64      `json:"avg_rating"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	Status      ScrapeStatus `json:"status"`
	Err         string       `json:"error,omitempty"`
}

// BatchSummary aggregates one entry per configured place. It is built
// incrementally by the orchestrator and finalized after the batch loop ends.
type BatchSummary struct {
	Entries     []SummaryEntry `json:"entries"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Append adds one completed place's entry.
func (s *BatchSummary) Append(e SummaryEntry) {
	s.Entries = append(s.Entries, e)
}

// TotalReviews sums review counts across all entries.
func (s *BatchSummary) TotalReviews() int {
	var total int
	for _, e := range s.Entries {
		total += e.ReviewCount
	}
	return total
}

// CombinedReview is one review row in the merged all-places export, tagged
// with the place it came from.
type CombinedReview struct {
	Location string `json:"location"`
	Reviewer string `json:"name"`
	Rating   int    `json:"rating"`
	Date     string `json:"date"`
	Comment  string `json:"comment"`
}

// CombinedExport is the merged payload across every place directory.
type CombinedExport struct {
	GeneratedAt  time.Time        `json:"generated_at"`
	TotalPlaces  int              `json:"total_places"`
	TotalReviews int              `json:"total_reviews"`
	Reviews      []CombinedReview `json:"reviews"`
}

// InsightReport holds the computed analytics over a finished batch.
type InsightReport struct {
	TotalPlaces   int
	Succeeded     int
	Partial       int
	Failed        int
	TotalReviews  int
	AverageRating float64
	TopRated      []SummaryEntry
}
