package dedup

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Record describes one published item. Records are never modified after
// they are written.
type Record struct {
	Title      string    `json:"title"`
	Link       string    `json:"link"`
	DatePosted time.Time `json:"date_posted"`
	Hashtags   []string  `json:"hashtags"`
	PostID     string    `json:"post_id"`
}

// Backend persists the full id to record mapping.
type Backend interface {
	Load(ctx context.Context) (map[string]Record, error)
	Save(ctx context.Context, records map[string]Record) error
}

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ItemID derives the dedup key from an item link. MD5 matches the keys in
// existing posted_entries.json files.
func ItemID(link string) string {
	sum := md5.Sum([]byte(link))
	return hex.EncodeToString(sum[:])
}
