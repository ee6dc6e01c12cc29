package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rmkenv/bluesky-auto/app/dedup"
)

var _ dedup.Backend = (*PostRepository)(nil)

// PostRepository stores published records in the published_posts table.
type PostRepository struct {
	db *DB
}

func NewPostRepository(db *DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Load(ctx context.Context) (map[string]dedup.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id, title, link, date_posted, hashtags, post_id
		FROM published_posts
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query published posts: %w", err)
	}
	defer rows.Close()

	records := make(map[string]dedup.Record)
	for rows.Next() {
		var id, datePosted, hashtags string
		var record dedup.Record

		if err := rows.Scan(&id, &record.Title, &record.Link, &datePosted, &hashtags, &record.PostID); err != nil {
			return nil, fmt.Errorf("failed to scan published post: %w", err)
		}

		record.DatePosted, err = time.Parse(time.RFC3339Nano, datePosted)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date_posted for %s: %w", id, err)
		}
		if err := json.Unmarshal([]byte(hashtags), &record.Hashtags); err != nil {
			return nil, fmt.Errorf("failed to parse hashtags for %s: %w", id, err)
		}

		records[id] = record
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate published posts: %w", err)
	}

	return records, nil
}

// Save upserts every record in a single transaction.
func (r *PostRepository) Save(ctx context.Context, records map[string]dedup.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO published_posts (item_id, title, link, date_posted, hashtags, post_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (item_id) DO UPDATE SET
			title = excluded.title,
			link = excluded.link,
			date_posted = excluded.date_posted,
			hashtags = excluded.hashtags,
			post_id = excluded.post_id
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for id, record := range records {
		hashtags, err := json.Marshal(record.Hashtags)
		if err != nil {
			return fmt.Errorf("failed to encode hashtags for %s: %w", id, err)
		}
		if record.Hashtags == nil {
			hashtags = []byte("[]")
		}

		_, err = stmt.ExecContext(ctx, id, record.Title, record.Link,
			record.DatePosted.UTC().Format(time.RFC3339Nano), string(hashtags), record.PostID)
		if err != nil {
			return fmt.Errorf("failed to upsert published post %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit published posts: %w", err)
	}

	return nil
}

// Count returns the number of stored records.
func (r *PostRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM published_posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count published posts: %w", err)
	}
	return count, nil
}
