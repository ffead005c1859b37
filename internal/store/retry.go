package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"beautybook/internal/conflict"
	"beautybook/internal/metrics"
	"beautybook/internal/model"
)

// RetryConfig holds configuration for retry logic.
type RetryConfig struct {
	MaxRetries  int
	RetryDelays []time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		RetryDelays: []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
		},
	}
}

func (c RetryConfig) delay(attempt int) time.Duration {
	if len(c.RetryDelays) == 0 {
		return 0
	}
	if attempt >= len(c.RetryDelays) {
		return c.RetryDelays[len(c.RetryDelays)-1]
	}
	return c.RetryDelays[attempt]
}

// Retrying retries failed reads with backoff. Writes pass straight through:
// creating an appointment twice is not harmless.
type Retrying struct {
	Store
	cfg    RetryConfig
	logger *zerolog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRetrying(s Store, cfg RetryConfig, logger *zerolog.Logger) *Retrying {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Retrying{Store: s, cfg: cfg, logger: logger, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Retryable reports whether err is worth another attempt.
func Retryable(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, ErrNotFound),
		errors.Is(err, conflict.ErrScheduleConflict),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

func withRetry[T any](ctx context.Context, r *Retrying, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !Retryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt < r.cfg.MaxRetries {
			delay := r.cfg.delay(attempt)
			metrics.IncStoreRetry(op)
			r.logger.Warn().Err(err).
				Str("op", op).
				Int("attempt", attempt+1).
				Int("max_retries", r.cfg.MaxRetries).
				Dur("delay", delay).
				Msg("retrying store read")
			if err := r.sleep(ctx, delay); err != nil {
				return zero, err
			}
		}
	}

	r.logger.Error().Err(lastErr).Str("op", op).Msg("store read failed after retries")
	return zero, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, lastErr)
}

func (r *Retrying) GetProfessional(ctx context.Context, id string) (*model.Professional, error) {
	return withRetry(ctx, r, "get_professional", func(ctx context.Context) (*model.Professional, error) {
		return r.Store.GetProfessional(ctx, id)
	})
}

func (r *Retrying) ListProfessionals(ctx context.Context) ([]model.Professional, error) {
	return withRetry(ctx, r, "list_professionals", r.Store.ListProfessionals)
}

func (r *Retrying) GetTreatment(ctx context.Context, id string) (*model.Treatment, error) {
	return withRetry(ctx, r, "get_treatment", func(ctx context.Context) (*model.Treatment, error) {
		return r.Store.GetTreatment(ctx, id)
	})
}

func (r *Retrying) ListTreatments(ctx context.Context) ([]model.Treatment, error) {
	return withRetry(ctx, r, "list_treatments", r.Store.ListTreatments)
}

func (r *Retrying) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	return withRetry(ctx, r, "get_appointment", func(ctx context.Context) (*model.Appointment, error) {
		return r.Store.GetAppointment(ctx, id)
	})
}

func (r *Retrying) ListAppointments(ctx context.Context, professionalID, date string) ([]model.Appointment, error) {
	return withRetry(ctx, r, "list_appointments", func(ctx context.Context) ([]model.Appointment, error) {
		return r.Store.ListAppointments(ctx, professionalID, date)
	})
}
