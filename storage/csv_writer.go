package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"

	"maps-review-scraper/models"
)

// writeReviewsCSV writes one place's reviews as a CSV file with a header row.
func writeReviewsCSV(path string, reviews []models.ReviewRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return eris.Wrapf(err, "csv: create output dir for %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "csv: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"name", "rating", "date", "comment"}); err != nil {
		return eris.Wrap(err, "csv: write header")
	}

	for _, r := range reviews {
		row := []string{r.Reviewer, strconv.Itoa(r.Rating), r.Date, r.Comment}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "csv: flush %s", path)
	}
	return nil
}

// writeCombinedCSV writes the merged all-places reviews as CSV.
func writeCombinedCSV(path string, combined *models.CombinedExport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return eris.Wrapf(err, "csv: create output dir for %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "csv: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"location", "name", "rating", "date", "comment"}); err != nil {
		return eris.Wrap(err, "csv: write header")
	}

	for _, r := range combined.Reviews {
		row := []string{r.Location, r.Reviewer, strconv.Itoa(r.Rating), r.Date, r.Comment}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "csv: flush %s", path)
	}
	return nil
}
