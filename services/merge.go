package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"maps-review-scraper/models"
)

// Merger combines the per-place JSON exports under an output directory into a
// single cross-place dataset. Duplicate reviews that appear in more than one
// export (same reviewer, date phrase and comment) are kept once.
type Merger struct {
	log *zap.Logger
}

// NewMerger creates a Merger.
func NewMerger() *Merger {
	return &Merger{log: zap.L().With(zap.String("component", "merger"))}
}

// Merge walks outputDir/locations/<name>/<name>.json, loads every export it
// can read and combines them. Unreadable or malformed exports are skipped
// with a warning; Merge fails only when no export could be loaded at all.
func (m *Merger) Merge(outputDir string) (*models.CombinedExport, error) {
	root := filepath.Join(outputDir, "locations")
	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, eris.Wrapf(err, "merge: read locations dir %s", root)
	}

	combined := &models.CombinedExport{GeneratedAt: time.Now().UTC()}
	seen := make(map[Key]struct{})
	var loaded int

	// Deterministic order regardless of filesystem iteration.
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name() < dirs[j].Name() })

	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		path := filepath.Join(root, d.Name(), d.Name()+".json")
		export, err := m.loadExport(path)
		if err != nil {
			m.log.Warn("skipping export",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		loaded++
		combined.TotalPlaces++

		for _, r := range export.Reviews {
			k := RecordKey(r)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			combined.Reviews = append(combined.Reviews, models.CombinedReview{
				Location: export.Location,
				Reviewer: r.Reviewer,
				Rating:   r.Rating,
				Date:     r.Date,
				Comment:  r.Comment,
			})
		}
	}

	if loaded == 0 {
		return nil, eris.Errorf("merge: no readable exports under %s", root)
	}

	combined.TotalReviews = len(combined.Reviews)
	m.log.Info("merged exports",
		zap.Int("places", combined.TotalPlaces),
		zap.Int("reviews", combined.TotalReviews))
	return combined, nil
}

func (m *Merger) loadExport(path string) (*models.PlaceExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read export")
	}
	var export models.PlaceExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, eris.Wrap(err, "decode export")
	}
	return &export, nil
}
