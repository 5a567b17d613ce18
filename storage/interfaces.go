package storage

import "maps-review-scraper/models"

// ReviewStore is the interface any database backend must satisfy.
type ReviewStore interface {
	StoreResult(res *models.ScrapeResult) error
	Close() error
}
