package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CredentialRepository is a key-value store over the credentials table.
//
// It satisfies session.Store: Put and Delete run in a single transaction so the token and user entries
// are written and cleared together.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new CredentialRepository with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Get returns the value stored under key.
func (r *CredentialRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read credential %q: %w", key, err)
	}
	return value, true, nil
}

// Put upserts every entry.
func (r *CredentialRepository) Put(entries map[string]string) error {
	now := time.Now()
	return withTx(r.db, func(tx *sql.Tx) error {
		for k, v := range entries {
			_, err := tx.Exec(`
				INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
			`, k, v, now)
			if err != nil {
				return fmt.Errorf("failed to write credential %q: %w", k, err)
			}
		}
		return nil
	})
}

// Delete removes keys. Missing keys are ignored.
func (r *CredentialRepository) Delete(keys ...string) error {
	return withTx(r.db, func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.Exec(`DELETE FROM credentials WHERE key = ?`, k); err != nil {
				return fmt.Errorf("failed to delete credential %q: %w", k, err)
			}
		}
		return nil
	})
}

// Keys lists the stored keys in order.
func (r *CredentialRepository) Keys() ([]string, error) {
	rows, err := r.db.Query(`SELECT key FROM credentials ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
