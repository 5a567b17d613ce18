package gmaps

import (
	"regexp"
	"strconv"

	"maps-review-scraper/models"
)

// Place URLs carry the pin position as !3d<lat>!4d<lon> data parameters; the
// viewport center appears as @<lat>,<lon>,<zoom>. The pin is authoritative,
// the viewport is a fallback.
var (
	pinRegexp      = regexp.MustCompile(`!3d(-?\d+(?:\.\d+)?)!4d(-?\d+(?:\.\d+)?)`)
	viewportRegexp = regexp.MustCompile(`@(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`)
)

// parseCoordinates extracts the place position from a maps URL.
func parseCoordinates(url string) (models.Coordinates, bool) {
	for _, re := range []*regexp.Regexp{pinRegexp, viewportRegexp} {
		m := re.FindStringSubmatch(url)
		if m == nil {
			continue
		}
		lat, errLat := strconv.ParseFloat(m[1], 64)
		lon, errLon := strconv.ParseFloat(m[2], 64)
		if errLat != nil || errLon != nil {
			continue
		}
		c := models.Coordinates{Latitude: lat, Longitude: lon}
		if c.Valid() && inRange(lat, lon) {
			return c, true
		}
	}
	return models.Coordinates{}, false
}

func inRange(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
