package schedule

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"beautybook/internal/model"
)

// NormalizeBlocks returns a copy of blocks with ids assigned, fields trimmed
// and blocks ordered by start. Kind defaults to work.
func NormalizeBlocks(blocks []model.TimeBlock) []model.TimeBlock {
	out := make([]model.TimeBlock, 0, len(blocks))
	for _, b := range blocks {
		b.ID = strings.TrimSpace(b.ID)
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		b.Start = strings.TrimSpace(b.Start)
		b.End = strings.TrimSpace(b.End)
		b.Description = strings.TrimSpace(b.Description)
		if b.Kind == "" {
			b.Kind = model.BlockWork
		}
		out = append(out, b)
	}
	// Zero-padded HH:MM sorts chronologically.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// NormalizeSchedule normalizes every day of ws into a new template.
func NormalizeSchedule(ws model.WeeklySchedule) model.WeeklySchedule {
	out := make(model.WeeklySchedule, len(ws))
	for day, ds := range ws {
		key := model.Weekday(strings.ToLower(strings.TrimSpace(string(day))))
		out[key] = model.DaySchedule{Active: ds.Active, Blocks: NormalizeBlocks(ds.Blocks)}
	}
	return out
}

// NormalizeException assigns an id and normalizes blocks.
func NormalizeException(ex model.ScheduleException) model.ScheduleException {
	ex.ID = strings.TrimSpace(ex.ID)
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	ex.Date = strings.TrimSpace(ex.Date)
	ex.Reason = strings.TrimSpace(ex.Reason)
	ex.Blocks = NormalizeBlocks(ex.Blocks)
	if ex.Type == model.ExceptionUnavailable {
		ex.Blocks = []model.TimeBlock{}
	}
	return ex
}

// UpsertException returns list with ex in place of any entry sharing its id
// or its date. The result is ordered by date.
func UpsertException(list []model.ScheduleException, ex model.ScheduleException) []model.ScheduleException {
	out := make([]model.ScheduleException, 0, len(list)+1)
	for _, cur := range list {
		if cur.ID == ex.ID || cur.Date == ex.Date {
			continue
		}
		out = append(out, cur)
	}
	out = append(out, ex)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// RemoveException drops the exception with id. The bool reports whether it
// was present.
func RemoveException(list []model.ScheduleException, id string) ([]model.ScheduleException, bool) {
	out := make([]model.ScheduleException, 0, len(list))
	found := false
	for _, cur := range list {
		if cur.ID == id {
			found = true
			continue
		}
		out = append(out, cur)
	}
	return out, found
}
