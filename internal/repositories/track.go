package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spotish/internal/models"
	"github.com/desertthunder/spotish/internal/shared"
)

// TrackRepository caches catalog tracks fetched from the server.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Upsert writes tracks in one transaction, replacing rows with the same ID.
func (r *TrackRepository) Upsert(tracks ...models.Track) error {
	now := time.Now()
	return withTx(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO tracks (id, title, duration, preview_url, artist_id, artist_name, album_id, album_title, cached_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				duration = excluded.duration,
				preview_url = excluded.preview_url,
				artist_id = excluded.artist_id,
				artist_name = excluded.artist_name,
				album_id = excluded.album_id,
				album_title = excluded.album_title,
				cached_at = excluded.cached_at
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare track upsert: %w", err)
		}
		defer stmt.Close()

		for _, t := range tracks {
			if t.ID <= 0 {
				return shared.NewValidationError("track id", "must be positive")
			}
			if strings.TrimSpace(t.Title) == "" {
				return shared.NewValidationError("track title", "is required")
			}

			_, err := stmt.Exec(t.ID, t.Title, t.Duration, t.PreviewURL, t.Artist.ID, t.Artist.Name, t.Album.ID, t.Album.Title, now)
			if err != nil {
				return fmt.Errorf("failed to upsert track %d: %w", t.ID, err)
			}
		}
		return nil
	})
}

// Get retrieves a cached track by ID.
func (r *TrackRepository) Get(id int) (*models.Track, error) {
	query := `
		SELECT id, title, duration, preview_url, artist_id, artist_name, album_id, album_title
		FROM tracks
		WHERE id = ?
	`

	t, err := scanTrack(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: track %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}
	return &t, nil
}

// List returns every cached track ordered by ID.
func (r *TrackRepository) List() ([]models.Track, error) {
	query := `
		SELECT id, title, duration, preview_url, artist_id, artist_name, album_id, album_title
		FROM tracks
		ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	defer rows.Close()

	tracks := []models.Track{}
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// Count returns the number of cached tracks.
func (r *TrackRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM tracks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return n, nil
}

// Clear removes every cached track.
func (r *TrackRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM tracks`); err != nil {
		return fmt.Errorf("failed to clear tracks: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(s scanner) (models.Track, error) {
	var t models.Track
	err := s.Scan(&t.ID, &t.Title, &t.Duration, &t.PreviewURL, &t.Artist.ID, &t.Artist.Name, &t.Album.ID, &t.Album.Title)
	return t, err
}
