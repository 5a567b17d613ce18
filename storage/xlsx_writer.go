package storage

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"maps-review-scraper/models"
)

// writeReviewsXLSX writes one place's reviews as a single-sheet workbook.
func writeReviewsXLSX(path string, reviews []models.ReviewRecord) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Reviews")
	if err != nil {
		return eris.Wrap(err, "xlsx: add reviews sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Name", "Rating", "Date", "Comment"} {
		header.AddCell().Value = h
	}

	for _, r := range reviews {
		row := sheet.AddRow()
		row.AddCell().Value = r.Reviewer
		row.AddCell().SetInt(r.Rating)
		row.AddCell().Value = r.Date
		row.AddCell().Value = r.Comment
	}

	return saveXLSX(file, path)
}

// writeSummaryXLSX writes the cross-place batch summary workbook.
func writeSummaryXLSX(path string, sum *models.BatchSummary) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "xlsx: add summary sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Location", "Reviews", "Avg Rating", "Latitude", "Longitude", "Status", "Error"} {
		header.AddCell().Value = h
	}

	for _, e := range sum.Entries {
		row := sheet.AddRow()
		row.AddCell().Value = e.Location
		row.AddCell().SetInt(e.ReviewCount)
		if e.ReviewCount > 0 {
			row.AddCell().SetFloatWithFormat(e.AvgRating, "0.00")
		} else {
			row.AddCell().Value = ""
		}
		if e.Latitude != 0 || e.Longitude != 0 {
			row.AddCell().SetFloat(e.Latitude)
			row.AddCell().SetFloat(e.Longitude)
		} else {
			row.AddCell().Value = ""
			row.AddCell().Value = ""
		}
		row.AddCell().Value = string(e.Status)
		row.AddCell().Value = e.Err
	}

	return saveXLSX(file, path)
}

// writeCombinedXLSX writes the merged all-places workbook.
func writeCombinedXLSX(path string, combined *models.CombinedExport) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("All Reviews")
	if err != nil {
		return eris.Wrap(err, "xlsx: add combined sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Location", "Name", "Rating", "Date", "Comment"} {
		header.AddCell().Value = h
	}

	for _, r := range combined.Reviews {
		row := sheet.AddRow()
		row.AddCell().Value = r.Location
		row.AddCell().Value = r.Reviewer
		row.AddCell().SetInt(r.Rating)
		row.AddCell().Value = r.Date
		row.AddCell().Value = r.Comment
	}

	return saveXLSX(file, path)
}

func saveXLSX(file *xlsx.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return eris.Wrapf(err, "xlsx: create output dir for %s", path)
	}
	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}
