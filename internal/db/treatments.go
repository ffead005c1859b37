package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"beautybook/internal/model"
	"beautybook/internal/store"
)

func (db *DB) GetTreatment(ctx context.Context, id string) (*model.Treatment, error) {
	var t model.Treatment
	var category sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, name, category, duration, price, is_active
		FROM treatments WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name, &category, &t.Duration, &t.Price, &t.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("treatment %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get treatment %s: %w", id, err)
	}
	t.Category = category.String
	return &t, nil
}

func (db *DB) ListTreatments(ctx context.Context) ([]model.Treatment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, category, duration, price, is_active
		FROM treatments ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("list treatments: %w", err)
	}
	defer rows.Close()

	var out []model.Treatment
	for rows.Next() {
		var t model.Treatment
		var category sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &category, &t.Duration, &t.Price, &t.Active); err != nil {
			return nil, err
		}
		t.Category = category.String
		out = append(out, t)
	}
	return out, rows.Err()
}

func (db *DB) SaveTreatment(ctx context.Context, t *model.Treatment) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("treatment id is required")
	}
	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO treatments (id, name, category, duration, price, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			duration = excluded.duration,
			price = excluded.price,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		t.ID, t.Name, t.Category, t.Duration, t.Price, t.Active, now, now,
	)
	if err != nil {
		return fmt.Errorf("save treatment %s: %w", t.ID, err)
	}
	return nil
}
