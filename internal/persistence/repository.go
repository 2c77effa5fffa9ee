// Package persistence implements the two-table store: append-only index
// snapshots and upserted media articles, with a quality-upgrade rule
// enforced on write (an existing article is only overwritten when the
// freshly scraped copy scores strictly higher quality).
package persistence

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/aristath/arduino-trader/internal/database"
	"github.com/aristath/arduino-trader/internal/domain"
)

// Repository wraps a *database.DB with the pipeline's storage operations.
type Repository struct {
	db *database.DB
}

// New builds a Repository.
func New(db *database.DB) *Repository {
	return &Repository{db: db}
}

// CommitRun persists one snapshot and its new/updated articles in a
// single transaction; failure rolls back both.
func (r *Repository) CommitRun(snapshot domain.IndexSnapshot, articles []domain.Article) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertSnapshot(tx, snapshot); err != nil {
		return err
	}
	for _, a := range articles {
		if err := upsertArticle(tx, a); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertSnapshot(tx *sql.Tx, s domain.IndexSnapshot) error {
	_, err := tx.Exec(`
		INSERT INTO index_scores
			(as_of, composite, momentum, price_strength, volume, volatility, equity_vs_bonds, media_sentiment, label, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.AsOf, s.Composite, s.Components.Momentum, s.Components.PriceStrength, s.Components.Volume,
		s.Components.Volatility, s.Components.EquityVsBonds, s.Components.MediaSentiment, s.Label, time.Now(),
	)
	return err
}

// upsertArticle inserts a new article or, for an existing URL, updates
// only when the new quality score strictly exceeds the stored one.
func upsertArticle(tx *sql.Tx, a domain.Article) error {
	var storedQuality float64
	err := tx.QueryRow(`SELECT quality_score FROM media_articles WHERE url = ?`, a.URL).Scan(&storedQuality)

	tags, _ := json.Marshal(a.Tags)

	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`
			INSERT INTO media_articles
				(url, source, title, summary, content, image_url, author, category, tags, published_at,
				 sentiment_score, sentiment_label, quality_score, scraped_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.URL, a.Source, a.Title, a.Summary, a.Content, a.ImageURL, a.Author, a.Category, string(tags),
			nullableTime(a.PublishedAt), a.SentimentScore, a.SentimentLabel, a.QualityScore, a.ScrapedAt,
		)
		return err
	case err != nil:
		return err
	case a.QualityScore > storedQuality:
		_, err = tx.Exec(`
			UPDATE media_articles SET
				source = ?, title = ?, summary = ?, content = ?, image_url = ?, author = ?, category = ?,
				tags = ?, published_at = ?, sentiment_score = ?, sentiment_label = ?, quality_score = ?, scraped_at = ?
			WHERE url = ?`,
			a.Source, a.Title, a.Summary, a.Content, a.ImageURL, a.Author, a.Category, string(tags),
			nullableTime(a.PublishedAt), a.SentimentScore, a.SentimentLabel, a.QualityScore, a.ScrapedAt, a.URL,
		)
		return err
	default:
		return nil // stored quality already >= new quality; no-op
	}
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

// LatestSnapshot returns the most recent index snapshot, or a neutral
// zero-value one with AsOf left zero when the table is empty.
func (r *Repository) LatestSnapshot() (domain.IndexSnapshot, error) {
	row := r.db.QueryRow(`
		SELECT id, as_of, composite, momentum, price_strength, volume, volatility, equity_vs_bonds, media_sentiment, label, created_at
		FROM index_scores ORDER BY as_of DESC, id DESC LIMIT 1`)

	var s domain.IndexSnapshot
	err := row.Scan(&s.ID, &s.AsOf, &s.Composite, &s.Components.Momentum, &s.Components.PriceStrength,
		&s.Components.Volume, &s.Components.Volatility, &s.Components.EquityVsBonds, &s.Components.MediaSentiment,
		&s.Label, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.IndexSnapshot{Composite: 50, Label: "Neutral"}, nil
	}
	return s, err
}

// History returns snapshots ordered by as_of ascending within the given
// range, capped at 365.
func (r *Repository) History(since time.Time) ([]domain.IndexSnapshot, error) {
	rows, err := r.db.Query(`
		SELECT id, as_of, composite, momentum, price_strength, volume, volatility, equity_vs_bonds, media_sentiment, label, created_at
		FROM index_scores WHERE as_of >= ? ORDER BY as_of ASC LIMIT 365`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.IndexSnapshot
	for rows.Next() {
		var s domain.IndexSnapshot
		if err := rows.Scan(&s.ID, &s.AsOf, &s.Composite, &s.Components.Momentum, &s.Components.PriceStrength,
			&s.Components.Volume, &s.Components.Volatility, &s.Components.EquityVsBonds, &s.Components.MediaSentiment,
			&s.Label, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// RecentComponentValues returns up to `limit` stored values for one
// component from the most recent snapshots, oldest first, for use by the
// dynamic scaler (C7).
func (r *Repository) RecentComponentValues(column string, limit int) ([]float64, error) {
	if !allowedColumn(column) {
		return nil, sql.ErrNoRows
	}
	rows, err := r.db.Query(
		`SELECT `+column+` FROM (SELECT `+column+`, as_of FROM index_scores ORDER BY as_of DESC LIMIT ?) ORDER BY as_of ASC`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func allowedColumn(column string) bool {
	switch column {
	case "momentum", "price_strength", "volume", "volatility", "equity_vs_bonds", "media_sentiment":
		return true
	}
	return false
}

// LatestArticles returns up to limit articles ordered by rowid
// descending, optionally starting strictly below a cursor rowid.
func (r *Repository) LatestArticles(limit int, cursor int64) ([]domain.Article, error) {
	query := `SELECT rowid, url, source, title, summary, content, image_url, author, category, tags,
			published_at, sentiment_score, sentiment_label, quality_score, scraped_at
		FROM media_articles`
	args := []interface{}{}
	if cursor > 0 {
		query += ` WHERE rowid < ?`
		args = append(args, cursor)
	}
	query += ` ORDER BY rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Article
	for rows.Next() {
		var rowid int64
		var tags string
		var publishedAt sql.NullTime
		var score sql.NullFloat64
		a := domain.Article{}
		if err := rows.Scan(&rowid, &a.URL, &a.Source, &a.Title, &a.Summary, &a.Content, &a.ImageURL,
			&a.Author, &a.Category, &tags, &publishedAt, &score, &a.SentimentLabel, &a.QualityScore, &a.ScrapedAt); err != nil {
			return nil, err
		}
		if tags != "" {
			_ = json.Unmarshal([]byte(tags), &a.Tags)
		}
		if publishedAt.Valid {
			a.PublishedAt = publishedAt.Time
		}
		if score.Valid {
			v := score.Float64
			a.SentimentScore = &v
		}
		a.ID = rowid
		out = append(out, a)
	}
	return out, rows.Err()
}
