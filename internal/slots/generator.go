// Package slots turns working blocks into bookable start times and marks
// them against the day's appointments.
package slots

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"beautybook/internal/clock"
	"beautybook/internal/conflict"
	"beautybook/internal/model"
)

// DefaultGranularity is the step between candidate start times in minutes.
const DefaultGranularity = 30

var (
	ErrInvalidDuration    = errors.New("duration must be positive")
	ErrInvalidGranularity = errors.New("granularity must be positive")
	// ErrInvalidBlock marks a stored block that cannot be scheduled against.
	ErrInvalidBlock = errors.New("invalid schedule block")
)

// Window is a half-open [Start, End) stretch of bookable minutes. Origin is
// the start of the work block it was cut from; start times are stepped from
// there.
type Window struct {
	Start  int
	End    int
	Origin int
}

func (w Window) String() string {
	return clock.MinutesToTime(w.Start) + "-" + clock.MinutesToTime(w.End)
}

// Contains reports whether [start, end) lies entirely inside w.
func (w Window) Contains(start, end int) bool {
	return start >= w.Start && end <= w.End
}

// Windows returns the bookable windows of blocks: work blocks with any
// break or lunch block cut out, sorted by start. Malformed blocks fail with
// ErrInvalidBlock.
func Windows(blocks []model.TimeBlock) ([]Window, error) {
	var work, pauses []Window
	for _, b := range blocks {
		start, err := clock.TimeToMinutes(b.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: %s start: %w", ErrInvalidBlock, b.ID, err)
		}
		end, err := clock.TimeToMinutes(b.End)
		if err != nil {
			return nil, fmt.Errorf("%w: %s end: %w", ErrInvalidBlock, b.ID, err)
		}
		if start >= end {
			return nil, fmt.Errorf("%w: %s %s-%s ends before it starts", ErrInvalidBlock, b.ID, b.Start, b.End)
		}

		w := Window{Start: start, End: end, Origin: start}
		switch b.Kind {
		case model.BlockWork:
			work = append(work, w)
		case model.BlockBreak, model.BlockLunch:
			pauses = append(pauses, w)
		default:
			return nil, fmt.Errorf("%w: %s has unknown kind %q", ErrInvalidBlock, b.ID, b.Kind)
		}
	}

	sort.Slice(work, func(i, j int) bool { return work[i].Start < work[j].Start })

	var out []Window
	for _, w := range work {
		out = append(out, subtract(w, pauses)...)
	}
	return out, nil
}

func subtract(w Window, pauses []Window) []Window {
	parts := []Window{w}
	for _, p := range pauses {
		var next []Window
		for _, part := range parts {
			if !conflict.Overlaps(part.Start, part.End, p.Start, p.End) {
				next = append(next, part)
				continue
			}
			if part.Start < p.Start {
				next = append(next, Window{Start: part.Start, End: p.Start, Origin: part.Origin})
			}
			if p.End < part.End {
				next = append(next, Window{Start: p.End, End: part.End, Origin: part.Origin})
			}
		}
		parts = next
	}
	return parts
}

// GenerateSlots returns every "HH:MM" start t on the granularity grid of its
// work block such that t+duration still ends inside the same window. A window
// that opens after a break starts at the next grid point. Appointments never
// span a break or the gap between blocks.
func GenerateSlots(blocks []model.TimeBlock, duration, granularity int) ([]string, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDuration, duration)
	}
	if granularity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGranularity, granularity)
	}

	windows, err := Windows(blocks)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{})
	var starts []int
	for _, w := range windows {
		t := w.Start
		if off := (w.Start - w.Origin) % granularity; off != 0 {
			t += granularity - off
		}
		for ; t+duration <= w.End; t += granularity {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			starts = append(starts, t)
		}
	}
	sort.Ints(starts)

	out := make([]string, len(starts))
	for i, m := range starts {
		out[i] = clock.MinutesToTime(m)
	}
	return out, nil
}

// Fits reports whether [start, start+duration) lies inside a single
// bookable window of blocks.
func Fits(blocks []model.TimeBlock, start string, duration int) (bool, error) {
	if duration <= 0 {
		return false, fmt.Errorf("%w: %d", ErrInvalidDuration, duration)
	}
	s, err := clock.TimeToMinutes(start)
	if err != nil {
		return false, err
	}
	windows, err := Windows(blocks)
	if err != nil {
		return false, err
	}
	for _, w := range windows {
		if w.Contains(s, s+duration) {
			return true, nil
		}
	}
	return false, nil
}

// BuildGrid marks each candidate start. Candidates whose start instant on
// date is before now are past; candidates that clash with existing are
// booked; the rest are available.
func BuildGrid(candidates []string, duration int, existing []model.Appointment, now time.Time, date clock.Date, loc *time.Location) ([]model.Slot, error) {
	grid := make([]model.Slot, 0, len(candidates))
	for _, c := range candidates {
		m, err := clock.TimeToMinutes(c)
		if err != nil {
			return nil, err
		}
		slot := model.Slot{Time: c, End: clock.MinutesToTime(m + duration), Status: model.SlotAvailable}

		if date.At(m, loc).Before(now) {
			slot.Status = model.SlotPast
			grid = append(grid, slot)
			continue
		}

		clashes, err := conflict.FindConflicts(existing, c, duration, "")
		if err != nil {
			return nil, err
		}
		if len(clashes) > 0 {
			slot.Status = model.SlotBooked
		}
		grid = append(grid, slot)
	}
	return grid, nil
}

// AvailableOnly returns the available slots of grid.
func AvailableOnly(grid []model.Slot) []model.Slot {
	var out []model.Slot
	for _, s := range grid {
		if s.IsAvailable() {
			out = append(out, s)
		}
	}
	return out
}

// ConsecutiveRuns groups available slots whose starts are exactly step
// minutes apart.
func ConsecutiveRuns(grid []model.Slot, step int) [][]model.Slot {
	available := AvailableOnly(grid)
	if len(available) == 0 || step <= 0 {
		return nil
	}

	sort.Slice(available, func(i, j int) bool { return available[i].Time < available[j].Time })

	var groups [][]model.Slot
	current := []model.Slot{available[0]}
	for i := 1; i < len(available); i++ {
		prev, _ := clock.TimeToMinutes(current[len(current)-1].Time)
		cur, _ := clock.TimeToMinutes(available[i].Time)
		if cur-prev == step {
			current = append(current, available[i])
			continue
		}
		groups = append(groups, current)
		current = []model.Slot{available[i]}
	}
	return append(groups, current)
}

// DurationOptions lists the durations, in multiples of step, that can start
// at start given the run of available slots that follows it.
func DurationOptions(grid []model.Slot, start string, step int) []int {
	for _, run := range ConsecutiveRuns(grid, step) {
		for i, s := range run {
			if s.Time != start {
				continue
			}
			n := len(run) - i
			options := make([]int, 0, n)
			for k := 1; k <= n; k++ {
				options = append(options, k*step)
			}
			return options
		}
	}
	return nil
}

// FormatDuration renders minutes as "45 min", "1 h" or "1 h 30 min".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours, mins := minutes/60, minutes%60
	if mins == 0 {
		return fmt.Sprintf("%d h", hours)
	}
	return fmt.Sprintf("%d h %d min", hours, mins)
}
