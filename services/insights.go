package services

import (
	"fmt"
	"sort"
	"strings"

	"maps-review-scraper/models"
)

// InsightService computes and prints cross-place analytics after a batch run.
type InsightService struct{}

// NewInsightService creates an InsightService.
func NewInsightService() *InsightService {
	return &InsightService{}
}

// Generate builds the report from a finalized batch summary.
func (s *InsightService) Generate(sum *models.BatchSummary) *models.InsightReport {
	report := &models.InsightReport{}
	if sum == nil || len(sum.Entries) == 0 {
		return report
	}

	report.TotalPlaces = len(sum.Entries)
	report.TotalReviews = sum.TotalReviews()

	var ratingSum float64
	var ratedReviews int
	var rated []models.SummaryEntry

	for _, e := range sum.Entries {
		switch e.Status {
		case models.StatusSuccess:
			report.Succeeded++
		case models.StatusPartial:
			report.Partial++
		default:
			report.Failed++
		}
		if e.ReviewCount > 0 && e.AvgRating > 0 {
			ratingSum += e.AvgRating * float64(e.ReviewCount)
			ratedReviews += e.ReviewCount
			rated = append(rated, e)
		}
	}

	if ratedReviews > 0 {
		report.AverageRating = round2(ratingSum / float64(ratedReviews))
	}

	// Top 5 places by average rating.
	sort.Slice(rated, func(i, j int) bool {
		return rated[i].AvgRating > rated[j].AvgRating
	})
	if len(rated) > 5 {
		rated = rated[:5]
	}
	report.TopRated = rated

	return report
}

// Print writes a human-readable report to stdout.
func (s *InsightService) Print(r *models.InsightReport, sum *models.BatchSummary) {
	sep := strings.Repeat("=", 60)
	thin := strings.Repeat("-", 60)

	fmt.Printf("\n%s\n", sep)
	fmt.Println("  SCRAPING SUMMARY")
	fmt.Printf("%s\n\n", sep)

	fmt.Printf("  Total places   : %d (success %d, partial %d, failed %d)\n",
		r.TotalPlaces, r.Succeeded, r.Partial, r.Failed)
	fmt.Printf("  Total reviews  : %d\n", r.TotalReviews)
	if r.AverageRating > 0 {
		fmt.Printf("  Average rating : %.2f\n", r.AverageRating)
	} else {
		fmt.Println("  Average rating : N/A")
	}
	fmt.Println()

	if len(r.TopRated) > 0 {
		fmt.Println("  Top rated places")
		fmt.Printf("  %s\n", thin)
		for i, e := range r.TopRated {
			fmt.Printf("  %d. %-36s %.2f (%d reviews)\n",
				i+1, truncate(e.Location, 36), e.AvgRating, e.ReviewCount)
		}
		fmt.Println()
	}

	if sum != nil {
		fmt.Println("  Per-place results")
		fmt.Printf("  %s\n", thin)
		for _, e := range sum.Entries {
			line := fmt.Sprintf("  %-28s %-16s %5d reviews",
				truncate(e.Location, 28), e.Status, e.ReviewCount)
			if e.Err != "" {
				line += "  (" + truncate(e.Err, 48) + ")"
			}
			fmt.Println(line)
		}
	}

	fmt.Printf("%s\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
