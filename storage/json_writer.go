package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"maps-review-scraper/models"
)

// writeJSON marshals v with indentation and writes it at path, creating
// intermediate directories.
func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return eris.Wrapf(err, "json: create output dir for %s", path)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "json: marshal %s", path)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return eris.Wrapf(err, "json: write %s", path)
	}
	return nil
}

// placeExport builds the JSON payload for one scraped place. Coordinates are
// omitted entirely when none were resolved.
func placeExport(res *models.ScrapeResult) *models.PlaceExport {
	export := &models.PlaceExport{
		Location:     res.Location,
		ScrapedAt:    res.ScrapedAt,
		TotalReviews: res.TotalReviews(),
		Reviews:      res.Reviews,
	}
	if export.Reviews == nil {
		export.Reviews = []models.ReviewRecord{}
	}
	if res.HasCoordinates {
		c := res.Coordinates
		export.Coordinates = &c
	}
	return export
}
