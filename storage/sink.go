package storage

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"maps-review-scraper/config"
	"maps-review-scraper/models"
	"maps-review-scraper/services"
)

// Layout selects how place exports are arranged on disk.
type Layout int

const (
	// LayoutNested puts each place under locations/<output_name>/, the
	// arrangement batch runs use.
	LayoutNested Layout = iota

	// LayoutFlat writes a single place's files directly into the output
	// directory as OneLocation.*.
	LayoutFlat
)

const flatBaseName = "OneLocation"

// DirSink writes scrape results into an output directory tree. The JSON
// export is always written so every configured place leaves a trace;
// spreadsheet and CSV exports are skipped when a place yielded no reviews.
type DirSink struct {
	dir    string
	layout Layout
	store  ReviewStore
	log    *zap.Logger
}

// NewDirSink creates a sink rooted at dir.
func NewDirSink(dir string, layout Layout) *DirSink {
	return &DirSink{
		dir:    dir,
		layout: layout,
		log:    zap.L().With(zap.String("component", "sink")),
	}
}

// WithStore attaches a database backend. Store failures are logged, not
// returned: the files on disk are the system of record.
func (d *DirSink) WithStore(store ReviewStore) *DirSink {
	d.store = store
	return d
}

// WriteResult persists one place's export files.
func (d *DirSink) WriteResult(place config.PlaceConfig, res *models.ScrapeResult) error {
	base, name := d.paths(place)

	if err := writeJSON(filepath.Join(base, name+".json"), placeExport(res)); err != nil {
		return eris.Wrapf(err, "sink: %s", place.Name)
	}

	if len(res.Reviews) > 0 {
		if err := writeReviewsXLSX(filepath.Join(base, name+".xlsx"), res.Reviews); err != nil {
			return eris.Wrapf(err, "sink: %s", place.Name)
		}
		if err := writeReviewsCSV(filepath.Join(base, name+".csv"), res.Reviews); err != nil {
			return eris.Wrapf(err, "sink: %s", place.Name)
		}
	}

	if d.store != nil {
		if err := d.store.StoreResult(res); err != nil {
			d.log.Warn("review store write failed",
				zap.String("place", place.Name),
				zap.Error(err))
		}
	}

	d.log.Info("export written",
		zap.String("place", place.Name),
		zap.String("dir", base),
		zap.Int("reviews", res.TotalReviews()))
	return nil
}

// WriteSummary persists the batch summary as both a workbook and JSON.
func (d *DirSink) WriteSummary(sum *models.BatchSummary) error {
	if err := writeSummaryXLSX(filepath.Join(d.dir, "SUMMARY.xlsx"), sum); err != nil {
		return err
	}
	return writeJSON(filepath.Join(d.dir, "summary.json"), sum)
}

// WriteCombined persists a merged all-places export in all three formats.
func (d *DirSink) WriteCombined(combined *models.CombinedExport) error {
	if err := writeJSON(filepath.Join(d.dir, "all_reviews_combined.json"), combined); err != nil {
		return err
	}
	if err := writeCombinedXLSX(filepath.Join(d.dir, "all_reviews_combined.xlsx"), combined); err != nil {
		return err
	}
	return writeCombinedCSV(filepath.Join(d.dir, "all_reviews_combined.csv"), combined)
}

func (d *DirSink) paths(place config.PlaceConfig) (base, name string) {
	if d.layout == LayoutFlat {
		return d.dir, flatBaseName
	}
	name = place.OutputName
	if name == "" {
		name = config.Slug(place.Name)
	}
	return filepath.Join(d.dir, "locations", name), name
}

var _ services.ResultSink = (*DirSink)(nil)
