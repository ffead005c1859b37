package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"beautybook/internal/conflict"
	"beautybook/internal/model"
	"beautybook/internal/store"
)

const appointmentColumns = `id, professional_id, client_id, client_name, client_phone, treatment_id,
	treatments, date, start_time, duration, price, status, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (model.Appointment, error) {
	var a model.Appointment
	var clientName, clientPhone, notes sql.NullString
	var treatments string
	err := row.Scan(
		&a.ID, &a.ProfessionalID, &a.ClientID, &clientName, &clientPhone, &a.TreatmentID,
		&treatments, &a.Date, &a.StartTime, &a.Duration, &a.Price, &a.Status, &notes,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return a, err
	}
	a.ClientName = clientName.String
	a.ClientPhone = clientPhone.String
	a.Notes = notes.String
	if err := json.Unmarshal([]byte(treatments), &a.Treatments); err != nil {
		return a, fmt.Errorf("decode treatments of %s: %w", a.ID, err)
	}
	if len(a.Treatments) == 0 {
		a.Treatments = nil
	}
	return a, nil
}

func (db *DB) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	row := db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
	a, err := scanAppointment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("appointment %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %s: %w", id, err)
	}
	return &a, nil
}

func (db *DB) ListAppointments(ctx context.Context, professionalID, date string) ([]model.Appointment, error) {
	out, err := listDay(ctx, db, professionalID, date)
	if err != nil {
		return nil, fmt.Errorf("list appointments of %s on %s: %w", professionalID, date, err)
	}
	return out, nil
}

func listDay(ctx context.Context, q querier, professionalID, date string) ([]model.Appointment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+appointmentColumns+` FROM appointments
		WHERE professional_id = ? AND date = ?
		ORDER BY start_minute, id`, professionalID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateAppointment inserts a after checking it against the stored day
// inside the same write transaction.
func (db *DB) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	start, end, err := a.Interval()
	if err != nil {
		return err
	}
	treatments, err := encodeTreatments(a.Treatments)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := listDay(ctx, tx, a.ProfessionalID, a.Date)
	if err != nil {
		return fmt.Errorf("load day: %w", err)
	}
	if err := conflict.Check(existing, a.StartTime, a.Duration, ""); err != nil {
		return err
	}

	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = model.StatusScheduled
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO appointments (id, professional_id, client_id, client_name, client_phone, treatment_id,
			treatments, date, start_time, start_minute, end_minute, duration, price, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProfessionalID, a.ClientID, a.ClientName, a.ClientPhone, a.TreatmentID,
		treatments, a.Date, a.StartTime, start, end, a.Duration, a.Price, string(a.Status), a.Notes,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return tx.Commit()
}

// RescheduleAppointment moves a to its new date and start time.
func (db *DB) RescheduleAppointment(ctx context.Context, a *model.Appointment) error {
	start, end, err := a.Interval()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := listDay(ctx, tx, a.ProfessionalID, a.Date)
	if err != nil {
		return fmt.Errorf("load day: %w", err)
	}
	if err := conflict.Check(existing, a.StartTime, a.Duration, a.ID); err != nil {
		return err
	}

	a.UpdatedAt = time.Now()
	res, err := tx.ExecContext(ctx, `
		UPDATE appointments
		SET date = ?, start_time = ?, start_minute = ?, end_minute = ?, updated_at = ?
		WHERE id = ?`,
		a.Date, a.StartTime, start, end, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("reschedule appointment %s: %w", a.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("appointment %s: %w", a.ID, store.ErrNotFound)
	}
	return tx.Commit()
}

func (db *DB) UpdateAppointmentStatus(ctx context.Context, id string, status model.AppointmentStatus) error {
	res, err := db.ExecContext(ctx, `UPDATE appointments SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now(), id)
	if err != nil {
		return fmt.Errorf("update status of %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("appointment %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (db *DB) DeleteAppointment(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete appointment %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("appointment %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func encodeTreatments(ts []model.AppointmentTreatment) (string, error) {
	if ts == nil {
		ts = []model.AppointmentTreatment{}
	}
	b, err := json.Marshal(ts)
	if err != nil {
		return "", fmt.Errorf("encode treatments: %w", err)
	}
	return string(b), nil
}
