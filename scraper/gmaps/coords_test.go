package gmaps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCoordinates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantLat float64
		wantLon float64
		wantOK  bool
	}{
		{
			name:    "pin parameters",
			url:     "https://www.google.com/maps/place/Cafe/@47.49,19.04,17z/data=!3m1!4b1!4m6!3m5!1s0x0:0x0!8m2!3d47.4979123!4d19.0402345!16s",
			wantLat: 47.4979123,
			wantLon: 19.0402345,
			wantOK:  true,
		},
		{
			name:    "pin beats viewport",
			url:     "https://maps.google.com/maps/place/X/@10.0,20.0,15z/data=!3d-33.8675!4d151.207",
			wantLat: -33.8675,
			wantLon: 151.207,
			wantOK:  true,
		},
		{
			name:    "viewport fallback",
			url:     "https://www.google.com/maps/place/Cafe/@47.4979,19.0402,17z",
			wantLat: 47.4979,
			wantLon: 19.0402,
			wantOK:  true,
		},
		{
			name:    "negative viewport",
			url:     "https://www.google.com/maps/place/X/@-33.8675,-151.2073,12z",
			wantLat: -33.8675,
			wantLon: -151.2073,
			wantOK:  true,
		},
		{
			name:   "no coordinates",
			url:    "https://www.google.com/maps/search/coffee",
			wantOK: false,
		},
		{
			name:   "out of range latitude rejected",
			url:    "https://www.google.com/maps/place/X/@91.5,19.0402,17z",
			wantOK: false,
		},
		{
			name:   "empty url",
			url:    "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, ok := parseCoordinates(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.wantLat, c.Latitude, 1e-9)
				assert.InDelta(t, tt.wantLon, c.Longitude, 1e-9)
			}
		})
	}
}
