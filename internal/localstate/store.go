// Package localstate keeps the chat client's own records: watch history and
// the ids the user liked or subscribed to from this client. They drive badges
// only and are never reconciled with the platform.
package localstate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/youi/backend/internal/models"
	"github.com/youi/backend/internal/repositories"
)

const schema = `
CREATE TABLE IF NOT EXISTS watch_history (
    video_id   TEXT PRIMARY KEY,
    title      TEXT NOT NULL DEFAULT '',
    channel    TEXT NOT NULL DEFAULT '',
    thumbnail  TEXT NOT NULL DEFAULT '',
    watched_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS liked_videos (
    video_id TEXT PRIMARY KEY,
    liked_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS subscribed_channels (
    channel_id    TEXT PRIMARY KEY,
    subscribed_at TEXT NOT NULL
);`

// historyLimit caps how many history entries are returned.
const historyLimit = 50

// Store is the SQLite-backed client state.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the state file at path.
func Open(ctx context.Context, path string) (*Store, error) {
	conn, err := repositories.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure local state schema: %w", err)
	}
	return &Store{db: conn, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordWatch adds entry to the history. Re-watching a video moves it to the top
// instead of adding a duplicate.
func (s *Store) RecordWatch(ctx context.Context, entry models.WatchHistoryEntry) error {
	if entry.VideoID == "" {
		return fmt.Errorf("record watch: video id is required")
	}
	watchedAt := entry.WatchedAt
	if watchedAt.IsZero() {
		watchedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO watch_history (video_id, title, channel, thumbnail, watched_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (video_id) DO UPDATE SET
            title = excluded.title,
            channel = excluded.channel,
            thumbnail = excluded.thumbnail,
            watched_at = excluded.watched_at
    `, entry.VideoID, entry.Title, entry.Channel, entry.Thumbnail, watchedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("record watch: %w", err)
	}
	return nil
}

// History returns watched videos, most recent first.
func (s *Store) History(ctx context.Context) ([]models.WatchHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT video_id, title, channel, thumbnail, watched_at
        FROM watch_history
        ORDER BY watched_at DESC
        LIMIT ?
    `, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var entries []models.WatchHistoryEntry
	for rows.Next() {
		var (
			e         models.WatchHistoryEntry
			watchedAt int64
		)
		if err := rows.Scan(&e.VideoID, &e.Title, &e.Channel, &e.Thumbnail, &watchedAt); err != nil {
			return nil, fmt.Errorf("scan watch history: %w", err)
		}
		e.WatchedAt = time.Unix(0, watchedAt).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}
	return entries, nil
}

// MarkLiked records a confirmed like.
func (s *Store) MarkLiked(ctx context.Context, videoID string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO liked_videos (video_id, liked_at) VALUES (?, ?)`,
		videoID, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("mark liked: %w", err)
	}
	return nil
}

// MarkSubscribed records a confirmed subscription.
func (s *Store) MarkSubscribed(ctx context.Context, channelID string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO subscribed_channels (channel_id, subscribed_at) VALUES (?, ?)`,
		channelID, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("mark subscribed: %w", err)
	}
	return nil
}

// LikedIDs returns the set of liked video ids.
func (s *Store) LikedIDs(ctx context.Context) (map[string]bool, error) {
	return s.idSet(ctx, `SELECT video_id FROM liked_videos`)
}

// SubscribedIDs returns the set of subscribed channel ids.
func (s *Store) SubscribedIDs(ctx context.Context) (map[string]bool, error) {
	return s.idSet(ctx, `SELECT channel_id FROM subscribed_channels`)
}

func (s *Store) idSet(ctx context.Context, query string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
