package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"

	"maps-review-scraper/models"
	"maps-review-scraper/services"
)

// PostgresStore persists scraped reviews to PostgreSQL. Re-running a place
// is safe: rows conflict on their content hash and are skipped.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open")
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: ping failed after retries")
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, eris.Wrap(err, "postgres: migrate")
	}

	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS reviews (
			id           SERIAL PRIMARY KEY,
			place        TEXT        NOT NULL,
			reviewer     TEXT        NOT NULL,
			rating       SMALLINT    NOT NULL CHECK (rating BETWEEN 1 AND 5),
			date_phrase  TEXT        NOT NULL DEFAULT '',
			comment      TEXT        NOT NULL DEFAULT '',
			content_hash VARCHAR(16) NOT NULL,
			scraped_at   TIMESTAMPTZ NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (place, reviewer, date_phrase, content_hash)
		);

		CREATE INDEX IF NOT EXISTS idx_reviews_place  ON reviews(place);
		CREATE INDEX IF NOT EXISTS idx_reviews_rating ON reviews(rating);
	`)
	return err
}

// StoreResult batch-inserts one place's collected reviews.
func (ps *PostgresStore) StoreResult(res *models.ScrapeResult) error {
	if res == nil || len(res.Reviews) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(res.Reviews); i += batchSize {
		end := i + batchSize
		if end > len(res.Reviews) {
			end = len(res.Reviews)
		}
		if err := ps.insertBatch(res, res.Reviews[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (ps *PostgresStore) insertBatch(res *models.ScrapeResult, batch []models.ReviewRecord) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*7)

	for idx, r := range batch {
		base := idx * 7
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		valueArgs = append(valueArgs,
			res.Location, r.Reviewer, r.Rating, r.Date, r.Comment,
			services.ContentHash(r.Comment), res.ScrapedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO reviews (place, reviewer, rating, date_phrase, comment, content_hash, scraped_at)
		VALUES %s
		ON CONFLICT (place, reviewer, date_phrase, content_hash) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := ps.db.Exec(query, valueArgs...); err != nil {
		return eris.Wrap(err, "postgres: insert batch")
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

// CountByPlace returns how many reviews are stored per place.
func (ps *PostgresStore) CountByPlace() (map[string]int, error) {
	rows, err := ps.db.Query(`SELECT place, COUNT(*) FROM reviews GROUP BY place`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count by place")
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var place string
		var n int
		if err := rows.Scan(&place, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		counts[place] = n
	}
	return counts, rows.Err()
}
