package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maps-review-scraper/models"
)

// reviewHTML builds a review container shaped like the rendered page:
// reviewer name element, star aria-label, relative date, then the comment
// followed by the action-button trailer.
func reviewHTML(id, name string, rating int, date, comment string) models.RawReview {
	html := fmt.Sprintf(
		`<div data-review-id=%q><div class="d4r55">%s</div>`+
			`<span role="img" aria-label="%d stars"></span>`+
			`<span>%s</span><span>%s Like Share</span></div>`,
		id, name, rating, date, comment)
	return models.RawReview{ID: id, HTML: html}
}

func TestExtractorParsesReview(t *testing.T) {
	t.Parallel()

	e := NewExtractor()

	records, dropped := e.Extract([]models.RawReview{
		reviewHTML("r1", "Alice Morgan", 5, "2 weeks ago", "Great food and friendly staff"),
	})

	require.Len(t, records, 1)
	assert.Zero(t, dropped)

	rec := records[0]
	assert.Equal(t, "Alice Morgan", rec.Reviewer)
	assert.Equal(t, 5, rec.Rating)
	assert.Equal(t, "2 weeks ago", rec.Date)
	assert.Equal(t, "Great food and friendly staff", rec.Comment)
}

func TestExtractorDropsMalformedItems(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		item models.RawReview
	}{
		{
			name: "missing reviewer name",
			item: models.RawReview{ID: "x", HTML: `<div><span aria-label="4 stars"></span><span>a day ago</span></div>`},
		},
		{
			name: "missing rating",
			item: models.RawReview{ID: "x", HTML: `<div><div class="d4r55">Bob</div><span>a day ago</span></div>`},
		},
		{
			name: "rating out of range",
			item: models.RawReview{ID: "x", HTML: `<div><div class="d4r55">Bob</div><span aria-label="7 stars"></span></div>`},
		},
		{
			name: "unparseable markup treated as missing fields",
			item: models.RawReview{ID: "x", HTML: `garbage without structure`},
		},
	}

	e := NewExtractor()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			records, dropped := e.Extract([]models.RawReview{tt.item})
			assert.Empty(t, records)
			assert.Equal(t, 1, dropped)
		})
	}
}

func TestExtractorMalformedItemNeverAbortsPass(t *testing.T) {
	t.Parallel()

	e := NewExtractor()

	records, dropped := e.Extract([]models.RawReview{
		reviewHTML("r1", "Alice", 4, "a month ago", "Solid lunch spot"),
		{ID: "bad", HTML: `<div><span aria-label="no rating here"></span></div>`},
		reviewHTML("r3", "Carol", 3, "3 days ago", "Average"),
	})

	assert.Len(t, records, 2)
	assert.Equal(t, 1, dropped)
}

func TestExtractorCleansReviewerMetadata(t *testing.T) {
	t.Parallel()

	e := NewExtractor()

	records, _ := e.Extract([]models.RawReview{
		{
			ID: "r1",
			HTML: `<div><div class="d4r55">Dana Reeve Local Guide · 52 reviews</div>` +
				`<span aria-label="5 stars"></span><span>a year ago</span><span>Lovely place Like</span></div>`,
		},
	})

	require.Len(t, records, 1)
	assert.Equal(t, "Dana Reeve", records[0].Reviewer)
	assert.Equal(t, "Lovely place", records[0].Comment)
}

func TestExtractorStripsNewBadgeAndTrailer(t *testing.T) {
	t.Parallel()

	e := NewExtractor()

	records, _ := e.Extract([]models.RawReview{
		{
			ID: "r1",
			HTML: `<div><div class="d4r55">Eve</div><span aria-label="4 stars"></span>` +
				`<span>2 days ago</span><span>New Nice terrace with a view Like Share</span></div>`,
		},
	})

	require.Len(t, records, 1)
	assert.Equal(t, "Nice terrace with a view", records[0].Comment)
}

func TestExtractorRatingOnlyReview(t *testing.T) {
	t.Parallel()

	e := NewExtractor()

	records, _ := e.Extract([]models.RawReview{
		{
			ID: "r1",
			HTML: `<div><div class="d4r55">Frank</div>` +
				`<span aria-label="3 stars"></span><span>5 months ago</span></div>`,
		},
	})

	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].Rating)
	assert.Empty(t, records[0].Comment)
}
