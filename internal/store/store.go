// Package store defines the persistence contract of the booking service and
// the decorators that wrap any implementation of it.
package store

import (
	"context"
	"errors"

	"beautybook/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrUnavailable marks infrastructure failures: the store could not be
	// reached or kept failing after retries.
	ErrUnavailable = errors.New("store temporarily unavailable")
)

type ProfessionalStore interface {
	GetProfessional(ctx context.Context, id string) (*model.Professional, error)
	ListProfessionals(ctx context.Context) ([]model.Professional, error)
	// SaveProfessional inserts or replaces the whole professional document.
	SaveProfessional(ctx context.Context, p *model.Professional) error
	UpdateWeeklySchedule(ctx context.Context, professionalID string, ws model.WeeklySchedule) error
	UpdateExceptions(ctx context.Context, professionalID string, list []model.ScheduleException) error
}

type TreatmentStore interface {
	GetTreatment(ctx context.Context, id string) (*model.Treatment, error)
	ListTreatments(ctx context.Context) ([]model.Treatment, error)
	SaveTreatment(ctx context.Context, t *model.Treatment) error
}

type AppointmentStore interface {
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	// ListAppointments returns the professional's appointments on date,
	// cancelled ones included, ordered by start time.
	ListAppointments(ctx context.Context, professionalID, date string) ([]model.Appointment, error)
	// CreateAppointment re-runs conflict detection against the stored day
	// and inserts a atomically. A clash yields a *conflict.ConflictError.
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	// RescheduleAppointment moves a to its new date and start with the same
	// atomic check, ignoring a's own previous occupancy.
	RescheduleAppointment(ctx context.Context, a *model.Appointment) error
	UpdateAppointmentStatus(ctx context.Context, id string, status model.AppointmentStatus) error
	DeleteAppointment(ctx context.Context, id string) error
}

// Store is everything the booking service persists.
type Store interface {
	ProfessionalStore
	TreatmentStore
	AppointmentStore
	Ping(ctx context.Context) error
	Close() error
}

type uncachedReader interface {
	GetProfessionalUncached(ctx context.Context, id string) (*model.Professional, error)
}

// LoadProfessional reads a professional past any cache layer of s. Callers
// that edit the document and save it back use it instead of GetProfessional.
func LoadProfessional(ctx context.Context, s Store, id string) (*model.Professional, error) {
	if u, ok := s.(uncachedReader); ok {
		return u.GetProfessionalUncached(ctx, id)
	}
	return s.GetProfessional(ctx, id)
}
