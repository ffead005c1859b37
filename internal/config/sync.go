package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"beautybook/internal/lock"
	"beautybook/internal/model"
	"beautybook/internal/schedule"
	"beautybook/internal/store"
)

// SyncClinic applies clinic.yaml to the store. Treatments and professionals
// are upserted and the ones missing from the file are deactivated. The file
// owns a professional's profile and weekly template; exceptions from the
// file replace stored ones on the same date, other stored exceptions stay.
// Holidays become day-off exceptions only where no exception exists yet.
// Each professional is rewritten under the same schedule lock the booking
// service takes for exception edits; locker may be nil.
func SyncClinic(ctx context.Context, st store.Store, locker lock.Locker, cfg *ClinicConfig, logger *zerolog.Logger) error {
	if cfg == nil {
		return fmt.Errorf("clinic config is nil")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	seenTreatments := make(map[string]struct{})
	for i := range cfg.Treatments {
		t := cfg.Treatments[i]
		if err := st.SaveTreatment(ctx, &t); err != nil {
			return fmt.Errorf("sync treatment %s: %w", t.ID, err)
		}
		seenTreatments[t.ID] = struct{}{}
	}

	treatments, err := st.ListTreatments(ctx)
	if err != nil {
		return fmt.Errorf("list treatments: %w", err)
	}
	for i := range treatments {
		t := treatments[i]
		if _, ok := seenTreatments[t.ID]; ok || !t.Active {
			continue
		}
		t.Active = false
		if err := st.SaveTreatment(ctx, &t); err != nil {
			return fmt.Errorf("deactivate treatment %s: %w", t.ID, err)
		}
		logger.Info().Str("treatment_id", t.ID).Msg("Treatment removed from clinic config, deactivated")
	}

	seen := make(map[string]struct{})
	for _, pc := range cfg.Professionals {
		err := withScheduleLock(ctx, locker, pc.ID, func() error {
			p, err := store.LoadProfessional(ctx, st, pc.ID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				p = &model.Professional{ID: pc.ID}
			case err != nil:
				return fmt.Errorf("load professional %s: %w", pc.ID, err)
			}

			p.Name = pc.Name
			p.Specialty = pc.Specialty
			p.Active = pc.IsActive()
			p.AvailableTreatments = pc.Treatments
			p.BaseSchedule = pc.Schedule

			exceptions := p.ScheduleExceptions
			for _, ex := range pc.Exceptions {
				exceptions = schedule.UpsertException(exceptions, ex)
			}
			p.ScheduleExceptions = withHolidays(exceptions, cfg.Holidays)

			if err := st.SaveProfessional(ctx, p); err != nil {
				return fmt.Errorf("sync professional %s: %w", pc.ID, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		seen[pc.ID] = struct{}{}
	}

	professionals, err := st.ListProfessionals(ctx)
	if err != nil {
		return fmt.Errorf("list professionals: %w", err)
	}
	for _, listed := range professionals {
		if _, ok := seen[listed.ID]; ok || !listed.Active {
			continue
		}
		err := withScheduleLock(ctx, locker, listed.ID, func() error {
			p, err := store.LoadProfessional(ctx, st, listed.ID)
			if err != nil {
				return fmt.Errorf("load professional %s: %w", listed.ID, err)
			}
			p.Active = false
			if err := st.SaveProfessional(ctx, p); err != nil {
				return fmt.Errorf("deactivate professional %s: %w", p.ID, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		logger.Info().Str("professional_id", listed.ID).Msg("Professional removed from clinic config, deactivated")
	}

	logger.Info().
		Int("treatments", len(cfg.Treatments)).
		Int("professionals", len(cfg.Professionals)).
		Int("holidays", len(cfg.Holidays)).
		Msg("Clinic config synced")
	return nil
}

func withScheduleLock(ctx context.Context, locker lock.Locker, professionalID string, fn func() error) error {
	if locker == nil {
		return fn()
	}
	release, err := locker.Acquire(ctx, professionalID, lock.ScheduleKey)
	if err != nil {
		return fmt.Errorf("lock professional %s: %w", professionalID, err)
	}
	defer func() { _ = release(context.WithoutCancel(ctx)) }()
	return fn()
}

func withHolidays(list []model.ScheduleException, holidays []HolidayConfig) []model.ScheduleException {
	taken := make(map[string]bool, len(list))
	for _, ex := range list {
		taken[ex.Date] = true
	}
	for _, h := range holidays {
		if taken[h.Date] {
			continue
		}
		ex := schedule.DayOff(h.Date, h.Name)
		ex.ID = "holiday-" + h.Date
		list = schedule.UpsertException(list, ex)
		taken[h.Date] = true
	}
	return list
}
