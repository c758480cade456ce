// Package storage keeps live countdown records in SQLite so reactions on
// countdown messages keep working after a restart.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flor3z/countdown-bot/internal/countdown"
	_ "modernc.org/sqlite"
)

// Repository handles all database operations
type Repository struct {
	db *sql.DB
}

var _ countdown.EventStore = (*Repository)(nil)

// NewRepository creates a new repository with SQLite
func NewRepository(dbPath string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers; SQLite would otherwise report SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the database schema
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS countdown_events (
			message_id VARCHAR(20) PRIMARY KEY,
			channel_id VARCHAR(20) NOT NULL,
			guild_id VARCHAR(20) NOT NULL DEFAULT '',
			private INTEGER NOT NULL DEFAULT 0,
			boss INTEGER NOT NULL DEFAULT 0,
			item_name VARCHAR(100) NOT NULL,
			rarity VARCHAR(1) NOT NULL DEFAULT '',
			quantity VARCHAR(20) NOT NULL DEFAULT '',
			original_seconds INTEGER NOT NULL,
			remaining_seconds INTEGER NOT NULL,
			offset_seconds INTEGER NOT NULL DEFAULT 0,
			creator_name VARCHAR(100) NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			created_at_nano INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_countdown_events_channel ON countdown_events(channel_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

const eventColumns = `message_id, channel_id, guild_id, private, boss, item_name, rarity, quantity,
	original_seconds, remaining_seconds, offset_seconds, creator_name, image_url, created_at_nano`

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*countdown.EventRecord, error) {
	var row eventRow
	err := s.Scan(&row.MessageID, &row.ChannelID, &row.GuildID, &row.Private, &row.Boss, &row.ItemName,
		&row.Rarity, &row.Quantity, &row.OriginalSeconds, &row.RemainingSeconds, &row.OffsetSeconds,
		&row.CreatorName, &row.ImageURL, &row.CreatedAtNano)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, countdown.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.record(), nil
}

// Put inserts or replaces a countdown record
func (r *Repository) Put(rec *countdown.EventRecord) error {
	row := toRow(rec)
	_, err := r.db.Exec(
		`INSERT INTO countdown_events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(message_id) DO UPDATE SET
			channel_id = excluded.channel_id, guild_id = excluded.guild_id, private = excluded.private,
			boss = excluded.boss, item_name = excluded.item_name, rarity = excluded.rarity,
			quantity = excluded.quantity, original_seconds = excluded.original_seconds,
			remaining_seconds = excluded.remaining_seconds, offset_seconds = excluded.offset_seconds,
			creator_name = excluded.creator_name, image_url = excluded.image_url,
			created_at_nano = excluded.created_at_nano`,
		row.MessageID, row.ChannelID, row.GuildID, row.Private, row.Boss, row.ItemName, row.Rarity, row.Quantity,
		row.OriginalSeconds, row.RemainingSeconds, row.OffsetSeconds, row.CreatorName, row.ImageURL, row.CreatedAtNano,
	)
	if err != nil {
		return fmt.Errorf("failed to save countdown %s: %w", rec.MessageID, err)
	}
	return nil
}

// Get finds a countdown record by message ID
func (r *Repository) Get(messageID string) (*countdown.EventRecord, error) {
	return scanEvent(r.db.QueryRow(
		`SELECT `+eventColumns+` FROM countdown_events WHERE message_id = ?`,
		messageID,
	))
}

// Take removes a countdown record and returns it. Only one caller gets the row.
func (r *Repository) Take(messageID string) (*countdown.EventRecord, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rec, err := scanEvent(tx.QueryRow(
		`SELECT `+eventColumns+` FROM countdown_events WHERE message_id = ?`,
		messageID,
	))
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`DELETE FROM countdown_events WHERE message_id = ?`, messageID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Count returns the number of live countdowns
func (r *Repository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM countdown_events`).Scan(&n)
	return n, err
}

// GetByChannel returns the countdowns of a channel that have not expired at
// now, oldest first
func (r *Repository) GetByChannel(channelID string, now time.Time) ([]*countdown.EventRecord, error) {
	rows, err := r.db.Query(
		`SELECT `+eventColumns+` FROM countdown_events
		WHERE channel_id = ? AND created_at_nano + remaining_seconds * 1000000000 > ?
		ORDER BY created_at_nano`,
		channelID, now.UnixNano(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*countdown.EventRecord
	for rows.Next() {
		rec, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// PruneExpired deletes countdowns that expired before cutoff
func (r *Repository) PruneExpired(cutoff time.Time) (int, error) {
	res, err := r.db.Exec(
		`DELETE FROM countdown_events WHERE created_at_nano + remaining_seconds * 1000000000 < ?`,
		cutoff.UnixNano(),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
