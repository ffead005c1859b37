// Package schedule resolves a professional's effective working day from the
// weekly template and date exceptions, and validates both before they are
// saved.
package schedule

import (
	"errors"
	"fmt"
	"slices"

	"beautybook/internal/clock"
	"beautybook/internal/model"
)

var ErrNoProfessional = errors.New("professional is required")

// Source tells where an effective schedule came from.
type Source string

const (
	SourceException Source = "exception"
	SourceTemplate  Source = "template"
)

// AllowedTreatments is either every treatment or an explicit id list.
type AllowedTreatments struct {
	All bool     `json:"all"`
	IDs []string `json:"ids,omitempty"`
}

// Allows reports whether treatmentID may be booked.
func (a AllowedTreatments) Allows(treatmentID string) bool {
	if a.All {
		return true
	}
	return slices.Contains(a.IDs, treatmentID)
}

// AllowsAll reports whether every id in ids may be booked.
func (a AllowedTreatments) AllowsAll(ids []string) bool {
	for _, id := range ids {
		if !a.Allows(id) {
			return false
		}
	}
	return true
}

func (a AllowedTreatments) String() string {
	if a.All {
		return "all"
	}
	return fmt.Sprint(a.IDs)
}

// EffectiveSchedule is the working day that applies to one date.
type EffectiveSchedule struct {
	Date              string            `json:"date"`
	Weekday           model.Weekday     `json:"weekday"`
	Available         bool              `json:"available"`
	Blocks            []model.TimeBlock `json:"blocks"`
	AllowedTreatments AllowedTreatments `json:"allowed_treatments"`
	Source            Source            `json:"source"`
	ExceptionID       string            `json:"exception_id,omitempty"`
	Reason            string            `json:"reason,omitempty"`
}

// WorkBlocks returns only the blocks of kind work.
func (e EffectiveSchedule) WorkBlocks() []model.TimeBlock {
	out := make([]model.TimeBlock, 0, len(e.Blocks))
	for _, b := range e.Blocks {
		if b.IsWork() {
			out = append(out, b)
		}
	}
	return out
}

// ResolveEffectiveSchedule returns the schedule that applies to p on date.
// An exception for the exact date wins over the weekly template. An
// unavailable exception closes the day; custom and partial exceptions
// replace the template blocks outright.
func ResolveEffectiveSchedule(p *model.Professional, date string) (EffectiveSchedule, error) {
	if p == nil {
		return EffectiveSchedule{}, ErrNoProfessional
	}
	d, err := clock.ParseDate(date)
	if err != nil {
		return EffectiveSchedule{}, err
	}

	key := d.String()
	res := EffectiveSchedule{
		Date:    key,
		Weekday: model.WeekdayOf(d.Weekday()),
		Blocks:  []model.TimeBlock{},
	}

	if ex, ok := p.ExceptionFor(key); ok {
		res.Source = SourceException
		res.ExceptionID = ex.ID
		res.Reason = ex.Reason

		if ex.Type == model.ExceptionUnavailable {
			return res, nil
		}

		res.Available = true
		res.Blocks = append(res.Blocks, ex.Blocks...)
		if len(ex.AvailableTreatmentsOverride) > 0 {
			res.AllowedTreatments.IDs = slices.Clone(ex.AvailableTreatmentsOverride)
		} else {
			res.AllowedTreatments.All = true
		}
		return res, nil
	}

	res.Source = SourceTemplate
	day, ok := p.BaseSchedule.Day(res.Weekday)
	if !ok || !day.Active {
		res.Reason = "day off"
		return res, nil
	}

	res.Available = true
	res.Blocks = append(res.Blocks, day.Blocks...)
	res.AllowedTreatments.IDs = p.TreatmentIDs()
	return res, nil
}

// DayOff builds an exception that closes date.
func DayOff(date, reason string) model.ScheduleException {
	return model.ScheduleException{
		Date:   date,
		Type:   model.ExceptionUnavailable,
		Reason: reason,
		Blocks: []model.TimeBlock{},
	}
}

// SpecialHours builds an exception with a single work block for date.
func SpecialHours(date, start, end, reason string) model.ScheduleException {
	return model.ScheduleException{
		Date:   date,
		Type:   model.ExceptionCustom,
		Reason: reason,
		Blocks: []model.TimeBlock{{Start: start, End: end, Kind: model.BlockWork}},
	}
}
