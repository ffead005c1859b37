package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"beautybook/internal/clock"
	"beautybook/internal/conflict"
	"beautybook/internal/events"
	"beautybook/internal/metrics"
	"beautybook/internal/model"
	"beautybook/internal/schedule"
	"beautybook/internal/slots"
)

// BookingRequest asks for treatments back to back starting at StartTime.
type BookingRequest struct {
	ProfessionalID string
	ClientID       string
	ClientName     string
	ClientPhone    string
	TreatmentIDs   []string
	Date           string
	StartTime      string
	Notes          string
}

func (r BookingRequest) validate() (clock.Date, int, error) {
	var msgs []string
	if strings.TrimSpace(r.ProfessionalID) == "" {
		msgs = append(msgs, "professional_id is required")
	}
	if strings.TrimSpace(r.ClientID) == "" {
		msgs = append(msgs, "client_id is required")
	}
	if len(r.TreatmentIDs) == 0 {
		msgs = append(msgs, "at least one treatment is required")
	}
	d, err := clock.ParseDate(r.Date)
	if err != nil {
		msgs = append(msgs, err.Error())
	}
	start, err := clock.TimeToMinutes(r.StartTime)
	if err != nil || start >= clock.MinutesPerDay {
		msgs = append(msgs, fmt.Sprintf("start_time %q must be HH:MM", r.StartTime))
	}
	if len(msgs) > 0 {
		return clock.Date{}, 0, invalid(msgs...)
	}
	return d, start, nil
}

// Book validates the request against the professional's effective schedule
// and the day's appointments, then stores the appointment. The store repeats
// the conflict check atomically with the insert.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*model.Appointment, error) {
	a, err := s.book(ctx, req)
	if err != nil {
		metrics.IncBookingCreated(outcome(err))
		return nil, err
	}
	metrics.IncBookingCreated(string(a.Status))
	s.logger.Info().
		Str("appointment_id", a.ID).
		Str("professional_id", a.ProfessionalID).
		Str("date", a.Date).
		Str("start", a.StartTime).
		Int("duration", a.Duration).
		Msg("appointment booked")
	s.bus.Publish(events.New(events.AppointmentBooked, a.ProfessionalID, a.Date, a))
	return a, nil
}

func (s *Service) book(ctx context.Context, req BookingRequest) (*model.Appointment, error) {
	d, start, err := req.validate()
	if err != nil {
		return nil, err
	}
	date := d.String()

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	p, err := s.store.GetProfessional(ctx, req.ProfessionalID)
	if err != nil {
		return nil, err
	}
	eff, err := s.workingDay(p, date)
	if err != nil {
		return nil, err
	}
	lines, err := s.treatmentLines(ctx, p, eff, req.TreatmentIDs)
	if err != nil {
		return nil, err
	}
	duration, price := model.SumTreatments(lines)

	if err := s.checkPlacement(eff, d, start, req.StartTime, duration); err != nil {
		return nil, err
	}
	if err := s.precheck(ctx, req.ProfessionalID, date, req.StartTime, duration, ""); err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, req.ProfessionalID, date)
	if err != nil {
		return nil, err
	}
	defer s.releaseLock(release)

	now := s.cfg.Now()
	a := &model.Appointment{
		ID:             uuid.NewString(),
		ProfessionalID: req.ProfessionalID,
		ClientID:       req.ClientID,
		ClientName:     strings.TrimSpace(req.ClientName),
		ClientPhone:    strings.TrimSpace(req.ClientPhone),
		TreatmentID:    lines[0].ID,
		Date:           date,
		StartTime:      req.StartTime,
		Duration:       duration,
		Price:          price,
		Status:         model.StatusScheduled,
		Notes:          strings.TrimSpace(req.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if len(lines) > 1 {
		a.Treatments = lines
	}

	if err := s.store.CreateAppointment(ctx, a); err != nil {
		if errors.Is(err, conflict.ErrScheduleConflict) {
			metrics.IncConflict("store")
		}
		return nil, err
	}
	return a, nil
}

// Reschedule moves a scheduled appointment to a new date and start time.
// Its duration and price stay as booked.
func (s *Service) Reschedule(ctx context.Context, appointmentID, date, startTime string) (*model.Appointment, error) {
	d, err := clock.ParseDate(date)
	if err != nil {
		return nil, invalid(err.Error())
	}
	start, err := clock.TimeToMinutes(startTime)
	if err != nil || start >= clock.MinutesPerDay {
		return nil, invalid(fmt.Sprintf("start_time %q must be HH:MM", startTime))
	}
	date = d.String()

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	current, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if current.Status != model.StatusScheduled {
		return nil, fmt.Errorf("%w: %s is %s", ErrInvalidStatus, current.ID, current.Status)
	}

	p, err := s.store.GetProfessional(ctx, current.ProfessionalID)
	if err != nil {
		return nil, err
	}
	eff, err := s.workingDay(p, date)
	if err != nil {
		return nil, err
	}
	for _, id := range treatmentIDs(current) {
		if !eff.AllowedTreatments.Allows(id) {
			return nil, fmt.Errorf("%w: %s on %s", ErrTreatmentNotAllowed, id, date)
		}
	}
	if err := s.checkPlacement(eff, d, start, startTime, current.Duration); err != nil {
		return nil, err
	}
	if err := s.precheck(ctx, current.ProfessionalID, date, startTime, current.Duration, current.ID); err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, current.ProfessionalID, date)
	if err != nil {
		return nil, err
	}
	defer s.releaseLock(release)

	moved := *current
	moved.Date = date
	moved.StartTime = startTime
	moved.UpdatedAt = s.cfg.Now()
	if err := s.store.RescheduleAppointment(ctx, &moved); err != nil {
		if errors.Is(err, conflict.ErrScheduleConflict) {
			metrics.IncConflict("store")
		}
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", moved.ID).
		Str("from", current.Date+" "+current.StartTime).
		Str("to", moved.Date+" "+moved.StartTime).
		Msg("appointment rescheduled")
	s.bus.Publish(events.New(events.AppointmentRescheduled, moved.ProfessionalID, moved.Date, &moved))
	return &moved, nil
}

// Cancel frees the appointment's time. The record is kept.
func (s *Service) Cancel(ctx context.Context, appointmentID string) (*model.Appointment, error) {
	return s.UpdateStatus(ctx, appointmentID, model.StatusCancelled)
}

// UpdateStatus moves a scheduled appointment to a final status.
func (s *Service) UpdateStatus(ctx context.Context, appointmentID string, status model.AppointmentStatus) (*model.Appointment, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	a, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !a.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, a.Status, status)
	}
	if err := s.store.UpdateAppointmentStatus(ctx, appointmentID, status); err != nil {
		return nil, err
	}
	a.Status = status
	a.UpdatedAt = s.cfg.Now()

	if status == model.StatusCancelled {
		metrics.IncBookingCancelled()
		s.bus.Publish(events.New(events.AppointmentCancelled, a.ProfessionalID, a.Date, a))
	}
	s.logger.Info().Str("appointment_id", a.ID).Str("status", string(status)).Msg("appointment status changed")
	return a, nil
}

// Delete removes the appointment record.
func (s *Service) Delete(ctx context.Context, appointmentID string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	a, err := s.store.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAppointment(ctx, appointmentID); err != nil {
		return err
	}
	s.logger.Info().Str("appointment_id", appointmentID).Msg("appointment deleted")
	s.bus.Publish(events.New(events.AppointmentDeleted, a.ProfessionalID, a.Date, a))
	return nil
}

func (s *Service) workingDay(p *model.Professional, date string) (schedule.EffectiveSchedule, error) {
	eff, err := resolve(p, date)
	if err != nil {
		return eff, err
	}
	if !eff.Available {
		if eff.Reason != "" {
			return eff, fmt.Errorf("%w: %s", ErrProfessionalNotWorking, eff.Reason)
		}
		return eff, ErrProfessionalNotWorking
	}
	return eff, nil
}

func (s *Service) checkPlacement(eff schedule.EffectiveSchedule, d clock.Date, start int, startTime string, duration int) error {
	if err := s.checkWindow(d, start); err != nil {
		return err
	}
	fits, err := slots.Fits(eff.Blocks, startTime, duration)
	if err != nil {
		return fmt.Errorf("working blocks: %w", err)
	}
	if !fits {
		return fmt.Errorf("%w: %s + %s", ErrOutsideWorkingHours, startTime, slots.FormatDuration(duration))
	}
	return nil
}

func (s *Service) precheck(ctx context.Context, professionalID, date, start string, duration int, excludeID string) error {
	existing, err := s.store.ListAppointments(ctx, professionalID, date)
	if err != nil {
		return err
	}
	if err := conflict.Check(existing, start, duration, excludeID); err != nil {
		if errors.Is(err, conflict.ErrScheduleConflict) {
			metrics.IncConflict("precheck")
		}
		return err
	}
	return nil
}

func treatmentIDs(a *model.Appointment) []string {
	if len(a.Treatments) == 0 {
		return []string{a.TreatmentID}
	}
	ids := make([]string, 0, len(a.Treatments))
	for _, t := range a.Treatments {
		ids = append(ids, t.ID)
	}
	return ids
}

func outcome(err error) string {
	var ve *ValidationError
	switch {
	case errors.Is(err, conflict.ErrScheduleConflict):
		return "conflict"
	case errors.As(err, &ve):
		return "invalid"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrProfessionalNotWorking),
		errors.Is(err, ErrTreatmentNotAllowed),
		errors.Is(err, ErrOutsideWorkingHours),
		errors.Is(err, ErrPastDate),
		errors.Is(err, ErrTooFarAhead):
		return "rejected"
	}
	return "error"
}
