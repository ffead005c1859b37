// Package booking orchestrates availability queries, bookings and schedule
// edits on top of the scheduling core and a store.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"beautybook/internal/clock"
	"beautybook/internal/events"
	"beautybook/internal/lock"
	"beautybook/internal/metrics"
	"beautybook/internal/model"
	"beautybook/internal/schedule"
	"beautybook/internal/slots"
	"beautybook/internal/store"
)

// Config holds the booking rules.
type Config struct {
	Granularity    int
	MinAdvance     time.Duration
	MaxAdvanceDays int
	Location       *time.Location
	StoreTimeout   time.Duration
	Now            func() time.Time
}

// Service is the booking workflow.
type Service struct {
	store  store.Store
	locker lock.Locker
	bus    *events.EventBus
	cfg    Config
	logger *zerolog.Logger
}

func NewService(st store.Store, locker lock.Locker, bus *events.EventBus, cfg Config, logger *zerolog.Logger) *Service {
	if cfg.Granularity <= 0 {
		cfg.Granularity = slots.DefaultGranularity
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if locker == nil {
		locker = lock.NewLocal(5 * time.Second)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{store: st, locker: locker, bus: bus, cfg: cfg, logger: logger}
}

func (s *Service) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

// Granularity returns the configured slot step in minutes.
func (s *Service) Granularity() int {
	return s.cfg.Granularity
}

// Location returns the clinic timezone.
func (s *Service) Location() *time.Location {
	return s.cfg.Location
}

func (s *Service) GetProfessional(ctx context.Context, id string) (*model.Professional, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.store.GetProfessional(ctx, id)
}

func (s *Service) ListProfessionals(ctx context.Context) ([]model.Professional, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.store.ListProfessionals(ctx)
}

func (s *Service) ListTreatments(ctx context.Context) ([]model.Treatment, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.store.ListTreatments(ctx)
}

func (s *Service) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.store.GetAppointment(ctx, id)
}

// ListAppointments returns the professional's appointments on date.
func (s *Service) ListAppointments(ctx context.Context, professionalID, date string) ([]model.Appointment, error) {
	d, err := clock.ParseDate(date)
	if err != nil {
		return nil, invalid(err.Error())
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.store.ListAppointments(ctx, professionalID, d.String())
}

// EffectiveSchedule resolves the working day of a professional. Inactive
// professionals never work.
func (s *Service) EffectiveSchedule(ctx context.Context, professionalID, date string) (schedule.EffectiveSchedule, error) {
	if _, err := clock.ParseDate(date); err != nil {
		return schedule.EffectiveSchedule{}, invalid(err.Error())
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	p, err := s.store.GetProfessional(ctx, professionalID)
	if err != nil {
		return schedule.EffectiveSchedule{}, err
	}
	return resolve(p, date)
}

func resolve(p *model.Professional, date string) (schedule.EffectiveSchedule, error) {
	eff, err := schedule.ResolveEffectiveSchedule(p, date)
	if err != nil {
		return eff, err
	}
	if !p.Active {
		eff.Available = false
		eff.Blocks = []model.TimeBlock{}
		eff.AllowedTreatments = schedule.AllowedTreatments{}
		eff.Reason = "professional is not active"
	}
	return eff, nil
}

// DayAvailability is the slot grid of one professional on one date.
type DayAvailability struct {
	ProfessionalID string                     `json:"professional_id"`
	Date           string                     `json:"date"`
	TreatmentIDs   []string                   `json:"treatment_ids"`
	Duration       int                        `json:"duration"`
	Granularity    int                        `json:"granularity"`
	Available      bool                       `json:"available"`
	Reason         string                     `json:"reason,omitempty"`
	Schedule       schedule.EffectiveSchedule `json:"schedule"`
	Slots          []model.Slot               `json:"slots"`
}

// AvailableSlots computes the slot grid for treatmentIDs booked back to back.
// A granularity of zero uses the configured step. Not working that day is
// reported in the result, not as an error; a treatment the professional does
// not offer that day is ErrTreatmentNotAllowed.
func (s *Service) AvailableSlots(ctx context.Context, professionalID, date string, treatmentIDs []string, granularity int) (*DayAvailability, error) {
	d, err := clock.ParseDate(date)
	if err != nil {
		return nil, invalid(err.Error())
	}
	if len(treatmentIDs) == 0 {
		return nil, invalid("at least one treatment is required")
	}
	if granularity <= 0 {
		granularity = s.cfg.Granularity
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	p, err := s.store.GetProfessional(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	eff, err := resolve(p, d.String())
	if err != nil {
		return nil, err
	}

	out := &DayAvailability{
		ProfessionalID: professionalID,
		Date:           d.String(),
		TreatmentIDs:   treatmentIDs,
		Granularity:    granularity,
		Schedule:       eff,
		Slots:          []model.Slot{},
	}
	if !eff.Available {
		out.Reason = ErrProfessionalNotWorking.Error()
		if eff.Reason != "" {
			out.Reason += ": " + eff.Reason
		}
		return out, nil
	}

	lines, err := s.treatmentLines(ctx, p, eff, treatmentIDs)
	if err != nil {
		return nil, err
	}
	out.Duration, _ = model.SumTreatments(lines)

	candidates, err := slots.GenerateSlots(eff.Blocks, out.Duration, granularity)
	if err != nil {
		return nil, fmt.Errorf("generate slots: %w", err)
	}
	metrics.ObserveSlots(len(candidates))

	existing, err := s.store.ListAppointments(ctx, professionalID, d.String())
	if err != nil {
		return nil, err
	}

	now := s.cfg.Now()
	grid, err := slots.BuildGrid(candidates, out.Duration, existing, now.Add(s.cfg.MinAdvance), d, s.cfg.Location)
	if err != nil {
		return nil, err
	}
	if s.tooFarAhead(d, now) {
		for i := range grid {
			grid[i].Status = model.SlotUnavailable
		}
		out.Reason = ErrTooFarAhead.Error()
	}

	out.Available = true
	out.Slots = grid
	return out, nil
}

// treatmentLines loads the treatments, checks the day allows them and copies
// their duration and the professional's price.
func (s *Service) treatmentLines(ctx context.Context, p *model.Professional, eff schedule.EffectiveSchedule, ids []string) ([]model.AppointmentTreatment, error) {
	lines := make([]model.AppointmentTreatment, 0, len(ids))
	for _, id := range ids {
		if !eff.AllowedTreatments.Allows(id) {
			return nil, fmt.Errorf("%w: %s on %s", ErrTreatmentNotAllowed, id, eff.Date)
		}
		t, err := s.store.GetTreatment(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown treatment %s", ErrTreatmentNotAllowed, id)
			}
			return nil, err
		}
		if !t.Active {
			return nil, fmt.Errorf("%w: %s is not active", ErrTreatmentNotAllowed, id)
		}
		if t.Duration <= 0 {
			return nil, fmt.Errorf("treatment %s has no duration", id)
		}
		lines = append(lines, model.AppointmentTreatment{
			ID:       t.ID,
			Name:     t.Name,
			Duration: t.Duration,
			Price:    p.PriceFor(*t),
		})
	}
	return lines, nil
}

func (s *Service) tooFarAhead(d clock.Date, now time.Time) bool {
	if s.cfg.MaxAdvanceDays <= 0 {
		return false
	}
	return clock.Today(now, s.cfg.Location).DaysUntil(d) > s.cfg.MaxAdvanceDays
}

// checkWindow enforces the minimum notice and the maximum advance window.
func (s *Service) checkWindow(d clock.Date, startMinutes int) error {
	now := s.cfg.Now()
	if d.At(startMinutes, s.cfg.Location).Before(now.Add(s.cfg.MinAdvance)) {
		return fmt.Errorf("%w: %s %s", ErrPastDate, d, clock.MinutesToTime(startMinutes))
	}
	if s.tooFarAhead(d, now) {
		return fmt.Errorf("%w: %s is more than %d days ahead", ErrTooFarAhead, d, s.cfg.MaxAdvanceDays)
	}
	return nil
}

func (s *Service) acquire(ctx context.Context, professionalID, key string) (lock.ReleaseFunc, error) {
	release, err := s.locker.Acquire(ctx, professionalID, key)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, fmt.Errorf("%w: %v", ErrBusy, err)
		}
		return nil, fmt.Errorf("%w: %w", store.ErrUnavailable, err)
	}
	return release, nil
}

func (s *Service) releaseLock(release lock.ReleaseFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := release(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to release booking lock")
	}
}
