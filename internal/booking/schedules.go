package booking

import (
	"context"
	"fmt"

	"beautybook/internal/events"
	"beautybook/internal/lock"
	"beautybook/internal/metrics"
	"beautybook/internal/model"
	"beautybook/internal/schedule"
	"beautybook/internal/store"
)

// UpdateWeeklySchedule normalizes, validates and stores a weekly template.
// Validation problems come back as *ValidationError and nothing is saved.
func (s *Service) UpdateWeeklySchedule(ctx context.Context, professionalID string, ws model.WeeklySchedule) (model.WeeklySchedule, error) {
	normalized := schedule.NormalizeSchedule(ws)
	if msgs := schedule.ValidateSchedule(normalized); len(msgs) > 0 {
		metrics.IncScheduleUpdate("weekly", "invalid")
		return nil, invalid(msgs...)
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if _, err := s.store.GetProfessional(ctx, professionalID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateWeeklySchedule(ctx, professionalID, normalized); err != nil {
		metrics.IncScheduleUpdate("weekly", "error")
		return nil, fmt.Errorf("update weekly schedule: %w", err)
	}

	metrics.IncScheduleUpdate("weekly", "ok")
	s.logger.Info().Str("professional_id", professionalID).Msg("weekly schedule updated")
	s.bus.Publish(events.New(events.ScheduleUpdated, professionalID, "", normalized))
	return normalized, nil
}

// UpsertException adds or replaces the exception for its date.
func (s *Service) UpsertException(ctx context.Context, professionalID string, ex model.ScheduleException) (model.ScheduleException, error) {
	ex = schedule.NormalizeException(ex)
	if msgs := schedule.ValidateException(ex); len(msgs) > 0 {
		metrics.IncScheduleUpdate("exception", "invalid")
		return model.ScheduleException{}, invalid(msgs...)
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	release, err := s.acquire(ctx, professionalID, lock.ScheduleKey)
	if err != nil {
		return model.ScheduleException{}, err
	}
	defer s.releaseLock(release)

	p, err := store.LoadProfessional(ctx, s.store, professionalID)
	if err != nil {
		return model.ScheduleException{}, err
	}
	list := schedule.UpsertException(p.ScheduleExceptions, ex)
	if err := s.store.UpdateExceptions(ctx, professionalID, list); err != nil {
		metrics.IncScheduleUpdate("exception", "error")
		return model.ScheduleException{}, fmt.Errorf("update exceptions: %w", err)
	}

	metrics.IncScheduleUpdate("exception", "ok")
	s.logger.Info().
		Str("professional_id", professionalID).
		Str("date", ex.Date).
		Str("type", string(ex.Type)).
		Msg("schedule exception saved")
	s.bus.Publish(events.New(events.ExceptionUpserted, professionalID, ex.Date, ex))
	return ex, nil
}

// DeleteException removes an exception by id.
func (s *Service) DeleteException(ctx context.Context, professionalID, exceptionID string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	release, err := s.acquire(ctx, professionalID, lock.ScheduleKey)
	if err != nil {
		return err
	}
	defer s.releaseLock(release)

	p, err := store.LoadProfessional(ctx, s.store, professionalID)
	if err != nil {
		return err
	}
	var date string
	for _, ex := range p.ScheduleExceptions {
		if ex.ID == exceptionID {
			date = ex.Date
		}
	}
	list, found := schedule.RemoveException(p.ScheduleExceptions, exceptionID)
	if !found {
		return fmt.Errorf("exception %s: %w", exceptionID, store.ErrNotFound)
	}
	if err := s.store.UpdateExceptions(ctx, professionalID, list); err != nil {
		metrics.IncScheduleUpdate("exception", "error")
		return fmt.Errorf("update exceptions: %w", err)
	}

	metrics.IncScheduleUpdate("exception", "deleted")
	s.logger.Info().Str("professional_id", professionalID).Str("exception_id", exceptionID).Msg("schedule exception removed")
	s.bus.Publish(events.New(events.ExceptionDeleted, professionalID, date, map[string]string{"id": exceptionID}))
	return nil
}
