package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"beautybook/internal/model"
	"beautybook/internal/store"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// GetProfessional loads a professional with template, exceptions and
// offered treatments.
func (db *DB) GetProfessional(ctx context.Context, id string) (*model.Professional, error) {
	var p model.Professional
	var specialty sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, name, specialty, is_active, created_at, updated_at
		FROM professionals WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &specialty, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("professional %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get professional %s: %w", id, err)
	}
	p.Specialty = specialty.String

	if err := db.loadDetails(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProfessionals returns every professional ordered by name.
func (db *DB) ListProfessionals(ctx context.Context) ([]model.Professional, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, specialty, is_active, created_at, updated_at
		FROM professionals ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list professionals: %w", err)
	}
	defer rows.Close()

	var out []model.Professional
	for rows.Next() {
		var p model.Professional
		var specialty sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &specialty, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Specialty = specialty.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range out {
		if err := db.loadDetails(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (db *DB) loadDetails(ctx context.Context, p *model.Professional) error {
	var err error
	if p.BaseSchedule, err = loadWeekly(ctx, db, p.ID); err != nil {
		return fmt.Errorf("load schedule of %s: %w", p.ID, err)
	}
	if p.ScheduleExceptions, err = loadExceptions(ctx, db, p.ID); err != nil {
		return fmt.Errorf("load exceptions of %s: %w", p.ID, err)
	}
	if p.AvailableTreatments, err = loadOffered(ctx, db, p.ID); err != nil {
		return fmt.Errorf("load treatments of %s: %w", p.ID, err)
	}
	return nil
}

func loadWeekly(ctx context.Context, q querier, professionalID string) (model.WeeklySchedule, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT weekday, is_active, blocks FROM weekly_schedules WHERE professional_id = ?`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ws := model.WeeklySchedule{}
	for rows.Next() {
		var day string
		var ds model.DaySchedule
		var blocks string
		if err := rows.Scan(&day, &ds.Active, &blocks); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(blocks), &ds.Blocks); err != nil {
			return nil, fmt.Errorf("decode %s blocks: %w", day, err)
		}
		ws[model.Weekday(day)] = ds
	}
	return ws, rows.Err()
}

func loadExceptions(ctx context.Context, q querier, professionalID string) ([]model.ScheduleException, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, date, type, reason, blocks, treatments_override
		FROM schedule_exceptions WHERE professional_id = ?
		ORDER BY position, date`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ScheduleException{}
	for rows.Next() {
		var ex model.ScheduleException
		var reason sql.NullString
		var blocks, override string
		if err := rows.Scan(&ex.ID, &ex.Date, &ex.Type, &reason, &blocks, &override); err != nil {
			return nil, err
		}
		ex.Reason = reason.String
		if err := json.Unmarshal([]byte(blocks), &ex.Blocks); err != nil {
			return nil, fmt.Errorf("decode exception %s blocks: %w", ex.ID, err)
		}
		if err := json.Unmarshal([]byte(override), &ex.AvailableTreatmentsOverride); err != nil {
			return nil, fmt.Errorf("decode exception %s override: %w", ex.ID, err)
		}
		if len(ex.AvailableTreatmentsOverride) == 0 {
			ex.AvailableTreatmentsOverride = nil
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func loadOffered(ctx context.Context, q querier, professionalID string) ([]model.ProfessionalTreatment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT treatment_id, price FROM professional_treatments
		WHERE professional_id = ? ORDER BY position, treatment_id`, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ProfessionalTreatment{}
	for rows.Next() {
		var pt model.ProfessionalTreatment
		if err := rows.Scan(&pt.TreatmentID, &pt.Price); err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

// SaveProfessional upserts the professional and replaces its template,
// exceptions and offered treatments in one transaction.
func (db *DB) SaveProfessional(ctx context.Context, p *model.Professional) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("professional id is required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	// Preserve created_at if the professional already exists.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO professionals (id, name, specialty, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, COALESCE((SELECT created_at FROM professionals WHERE id = ?), ?), ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			specialty = excluded.specialty,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, p.Specialty, p.Active, p.ID, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert professional %s: %w", p.ID, err)
	}

	if err := replaceWeekly(ctx, tx, p.ID, p.BaseSchedule); err != nil {
		return err
	}
	if err := replaceExceptions(ctx, tx, p.ID, p.ScheduleExceptions); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM professional_treatments WHERE professional_id = ?`, p.ID); err != nil {
		return fmt.Errorf("clear treatments of %s: %w", p.ID, err)
	}
	for i, pt := range p.AvailableTreatments {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO professional_treatments (professional_id, treatment_id, price, position)
			VALUES (?, ?, ?, ?)`, p.ID, pt.TreatmentID, pt.Price, i); err != nil {
			return fmt.Errorf("insert treatment %s of %s: %w", pt.TreatmentID, p.ID, err)
		}
	}

	return tx.Commit()
}

// UpdateWeeklySchedule replaces the weekly template.
func (db *DB) UpdateWeeklySchedule(ctx context.Context, professionalID string, ws model.WeeklySchedule) error {
	return db.updateSchedule(ctx, professionalID, func(tx *sql.Tx) error {
		return replaceWeekly(ctx, tx, professionalID, ws)
	})
}

// UpdateExceptions replaces the exception list.
func (db *DB) UpdateExceptions(ctx context.Context, professionalID string, list []model.ScheduleException) error {
	return db.updateSchedule(ctx, professionalID, func(tx *sql.Tx) error {
		return replaceExceptions(ctx, tx, professionalID, list)
	})
}

func (db *DB) updateSchedule(ctx context.Context, professionalID string, apply func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE professionals SET updated_at = ? WHERE id = ?`, time.Now(), professionalID)
	if err != nil {
		return fmt.Errorf("touch professional %s: %w", professionalID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("professional %s: %w", professionalID, store.ErrNotFound)
	}
	if err := apply(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func replaceWeekly(ctx context.Context, tx *sql.Tx, professionalID string, ws model.WeeklySchedule) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM weekly_schedules WHERE professional_id = ?`, professionalID); err != nil {
		return fmt.Errorf("clear schedule of %s: %w", professionalID, err)
	}
	for day, ds := range ws {
		blocks, err := json.Marshal(nonNilBlocks(ds.Blocks))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO weekly_schedules (professional_id, weekday, is_active, blocks)
			VALUES (?, ?, ?, ?)`, professionalID, string(day), ds.Active, string(blocks)); err != nil {
			return fmt.Errorf("insert %s schedule of %s: %w", day, professionalID, err)
		}
	}
	return nil
}

func replaceExceptions(ctx context.Context, tx *sql.Tx, professionalID string, list []model.ScheduleException) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_exceptions WHERE professional_id = ?`, professionalID); err != nil {
		return fmt.Errorf("clear exceptions of %s: %w", professionalID, err)
	}
	for i, ex := range list {
		blocks, err := json.Marshal(nonNilBlocks(ex.Blocks))
		if err != nil {
			return err
		}
		override := ex.AvailableTreatmentsOverride
		if override == nil {
			override = []string{}
		}
		overrideJSON, err := json.Marshal(override)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_exceptions (id, professional_id, date, type, reason, blocks, treatments_override, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ex.ID, professionalID, ex.Date, string(ex.Type), ex.Reason, string(blocks), string(overrideJSON), i,
		); err != nil {
			return fmt.Errorf("insert exception %s of %s: %w", ex.Date, professionalID, err)
		}
	}
	return nil
}

func nonNilBlocks(b []model.TimeBlock) []model.TimeBlock {
	if b == nil {
		return []model.TimeBlock{}
	}
	return b
}
