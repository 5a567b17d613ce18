package config

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
)

// ErrInvalidPlaces marks a malformed place list. A batch never starts when
// the list fails validation.
var ErrInvalidPlaces = errors.New("invalid places configuration")

// PlaceConfig is one entry of the place list. Immutable once loaded.
type PlaceConfig struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	OutputName string `json:"output_name"`
}

type placesFile struct {
	Locations []PlaceConfig `json:"locations"`
}

// LoadPlaces reads the ordered place list from a JSON file of the form
// {"locations": [{"name", "url", "output_name"}, ...]}.
//
// Validation happens here, before any scraping starts: an entry without a URL
// is rejected, and so are two entries sharing an output name, since the later
// one would silently overwrite the earlier one's export.
func LoadPlaces(path string) ([]PlaceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read places file %q", path)
	}

	var f placesFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(ErrInvalidPlaces, "config: parse %q: %v", path, err)
	}

	if len(f.Locations) == 0 {
		return nil, eris.Wrapf(ErrInvalidPlaces, "config: %q contains no locations", path)
	}

	seen := make(map[string]int, len(f.Locations))
	for i := range f.Locations {
		p := &f.Locations[i]
		p.Name = strings.TrimSpace(p.Name)
		p.URL = strings.TrimSpace(p.URL)
		p.OutputName = strings.TrimSpace(p.OutputName)

		if p.URL == "" {
			return nil, eris.Wrapf(ErrInvalidPlaces, "config: entry %d (%q) has no url", i, p.Name)
		}
		if p.Name == "" {
			return nil, eris.Wrapf(ErrInvalidPlaces, "config: entry %d has no name", i)
		}
		if p.OutputName == "" {
			p.OutputName = Slug(p.Name)
		}

		if prev, dup := seen[p.OutputName]; dup {
			return nil, eris.Wrapf(ErrInvalidPlaces,
				"config: entries %d and %d share output name %q", prev, i, p.OutputName)
		}
		seen[p.OutputName] = i
	}

	return f.Locations, nil
}

// Slug derives a filesystem-safe output name from a place name.
func Slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "_"):
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
