package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	Download Direction = "download"
	Upload   Direction = "upload"
)

type Transfer struct {
	ID           string
	BaseURL      string
	DepositionID int64
	Filename     string
	Direction    Direction
	Size         int64
	Checksum     string
	At           time.Time
}

// Deposition returns the deposition remembered for baseURL, or 0 if there is
// none.
func (d *Database) Deposition(ctx context.Context, baseURL string) (int64, error) {
	var id int64
	err := d.db.QueryRowContext(ctx,
		`SELECT deposition_id FROM depositions WHERE base_url = ?`, baseURL,
	).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("could not query deposition for '%s': %w", baseURL, err)
	}
	return id, nil
}

func (d *Database) UpsertDeposition(ctx context.Context, baseURL string, id int64) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO depositions (base_url, deposition_id) VALUES (?, ?)
		ON CONFLICT (base_url) DO UPDATE SET deposition_id = excluded.deposition_id, created_at = CURRENT_TIMESTAMP`,
		baseURL, id,
	)
	if err != nil {
		return fmt.Errorf("could not upsert deposition for '%s': %w", baseURL, err)
	}
	return nil
}

// RecordTransfer stores t, assigning an ID and timestamp when they are unset.
func (d *Database) RecordTransfer(ctx context.Context, t Transfer) (Transfer, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.At.IsZero() {
		t.At = time.Now().UTC()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO transfers (id, base_url, deposition_id, filename, direction, size, checksum, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.BaseURL, t.DepositionID, t.Filename, string(t.Direction), t.Size, t.Checksum, t.At,
	)
	if err != nil {
		return t, fmt.Errorf("could not record %s of '%s': %w", t.Direction, t.Filename, err)
	}
	return t, nil
}

// Transfers lists the most recent transfers of a deposition, newest first.
func (d *Database) Transfers(ctx context.Context, baseURL string, depositionID int64, limit int) ([]Transfer, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, base_url, deposition_id, filename, direction, size, checksum, at
		FROM transfers WHERE base_url = ? AND deposition_id = ?
		ORDER BY at DESC LIMIT ?`,
		baseURL, depositionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("could not query transfers: %w", err)
	}
	defer rows.Close()

	var transfers []Transfer
	for rows.Next() {
		var t Transfer
		var direction string
		if err = rows.Scan(&t.ID, &t.BaseURL, &t.DepositionID, &t.Filename, &direction, &t.Size, &t.Checksum, &t.At); err != nil {
			return nil, fmt.Errorf("could not scan transfer: %w", err)
		}
		t.Direction = Direction(direction)
		transfers = append(transfers, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("could not read transfers: %w", err)
	}
	return transfers, nil
}
