// Package conflict detects overlapping appointments for one professional
// on one date. Intervals are half-open: an appointment ending at 10:00
// does not clash with one starting at 10:00.
package conflict

import (
	"errors"
	"fmt"
	"strings"

	"beautybook/internal/clock"
	"beautybook/internal/model"
)

var (
	ErrScheduleConflict = errors.New("schedule conflict")
	ErrInvalidDuration  = errors.New("duration must be positive")
)

// ConflictError names the appointments a proposal clashes with.
type ConflictError struct {
	Conflicts []model.Appointment
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for i := range e.Conflicts {
		a := &e.Conflicts[i]
		parts = append(parts, fmt.Sprintf("%s %s-%s", a.ID, a.StartTime, a.End()))
	}
	return fmt.Sprintf("%s with appointment(s) %s", ErrScheduleConflict, strings.Join(parts, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrScheduleConflict
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return !(aEnd <= bStart || aStart >= bEnd)
}

// FindConflicts returns the appointments in existing that overlap
// [start, start+duration). Cancelled appointments and the one with
// excludeID are ignored. The existing list is assumed to hold one
// professional's appointments for a single date.
func FindConflicts(existing []model.Appointment, start string, duration int, excludeID string) ([]model.Appointment, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDuration, duration)
	}
	newStart, err := clock.TimeToMinutes(start)
	if err != nil {
		return nil, fmt.Errorf("proposed start: %w", err)
	}
	newEnd := newStart + duration

	var conflicts []model.Appointment
	for i := range existing {
		a := &existing[i]
		if !a.OccupiesTime() || (excludeID != "" && a.ID == excludeID) {
			continue
		}
		s, e, err := a.Interval()
		if err != nil {
			return nil, fmt.Errorf("appointment %s: %w", a.ID, err)
		}
		if Overlaps(newStart, newEnd, s, e) {
			conflicts = append(conflicts, *a)
		}
	}
	return conflicts, nil
}

// Check is FindConflicts returning a *ConflictError when anything clashes.
func Check(existing []model.Appointment, start string, duration int, excludeID string) error {
	conflicts, err := FindConflicts(existing, start, duration, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

// IsSlotBooked reports whether slotStart falls inside an occupying
// appointment. Malformed slot times are never booked.
func IsSlotBooked(slotStart string, existing []model.Appointment) bool {
	m, err := clock.TimeToMinutes(slotStart)
	if err != nil {
		return false
	}
	for i := range existing {
		a := &existing[i]
		if a.OccupiesTime() && a.ContainsTime(m) {
			return true
		}
	}
	return false
}
