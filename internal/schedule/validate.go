package schedule

import (
	"fmt"
	"sort"

	"beautybook/internal/clock"
	"beautybook/internal/model"
)

// ValidateSchedule checks a weekly template and returns human readable
// problems. An empty result means the template is valid.
func ValidateSchedule(ws model.WeeklySchedule) []string {
	var msgs []string

	var unknown []string
	for day := range ws {
		if !day.Valid() {
			unknown = append(unknown, string(day))
		}
	}
	sort.Strings(unknown)
	for _, day := range unknown {
		msgs = append(msgs, fmt.Sprintf("%s: unknown weekday", day))
	}

	for _, day := range model.Weekdays {
		ds, ok := ws[day]
		if !ok {
			continue
		}
		label := string(day)
		if ds.Active {
			if len(ds.Blocks) == 0 {
				msgs = append(msgs, label+": active day has no blocks")
				continue
			}
			if !ds.HasWork() {
				msgs = append(msgs, label+": active day has no work block")
			}
		}
		msgs = append(msgs, validateBlocks(label, ds.Blocks)...)
	}
	return msgs
}

// ValidateException checks a single date exception.
func ValidateException(ex model.ScheduleException) []string {
	label := "exception " + ex.Date
	var msgs []string

	if _, err := clock.ParseDate(ex.Date); err != nil {
		msgs = append(msgs, fmt.Sprintf("exception %q: date must be YYYY-MM-DD", ex.Date))
		label = fmt.Sprintf("exception %q", ex.Date)
	}

	switch ex.Type {
	case model.ExceptionUnavailable:
		if len(ex.Blocks) > 0 {
			msgs = append(msgs, label+": unavailable exception carries blocks that will be ignored")
		}
		if len(ex.AvailableTreatmentsOverride) > 0 {
			msgs = append(msgs, label+": unavailable exception carries a treatment override that will be ignored")
		}
	case model.ExceptionCustom, model.ExceptionPartial:
		msgs = append(msgs, validateBlocks(label, ex.Blocks)...)
	default:
		msgs = append(msgs, fmt.Sprintf("%s: unknown type %q", label, ex.Type))
	}
	return msgs
}

// ValidateExceptions checks every exception and flags dates that appear
// more than once.
func ValidateExceptions(list []model.ScheduleException) []string {
	var msgs []string
	seen := make(map[string]int, len(list))
	for _, ex := range list {
		msgs = append(msgs, ValidateException(ex)...)
		seen[ex.Date]++
	}

	var dups []string
	for date, n := range seen {
		if n > 1 {
			dups = append(dups, date)
		}
	}
	sort.Strings(dups)
	for _, date := range dups {
		msgs = append(msgs, fmt.Sprintf("exception %s: %d exceptions share this date", date, seen[date]))
	}
	return msgs
}

type parsedBlock struct {
	block      model.TimeBlock
	start, end int
}

func validateBlocks(label string, blocks []model.TimeBlock) []string {
	var msgs []string
	var work []parsedBlock

	for i, b := range blocks {
		where := fmt.Sprintf("%s: block %d (%s-%s)", label, i+1, b.Start, b.End)
		if !b.Kind.Valid() {
			msgs = append(msgs, fmt.Sprintf("%s: unknown kind %q", where, b.Kind))
		}
		start, err := clock.TimeToMinutes(b.Start)
		if err != nil || start >= clock.MinutesPerDay {
			msgs = append(msgs, where+": start must be HH:MM")
			continue
		}
		end, err := clock.TimeToMinutes(b.End)
		if err != nil {
			msgs = append(msgs, where+": end must be HH:MM")
			continue
		}
		if start >= end {
			msgs = append(msgs, where+": start must be before end")
			continue
		}
		if b.IsWork() {
			work = append(work, parsedBlock{block: b, start: start, end: end})
		}
	}

	sort.SliceStable(work, func(i, j int) bool { return work[i].start < work[j].start })
	for i := 1; i < len(work); i++ {
		prev, cur := work[i-1], work[i]
		if prev.end > cur.start {
			msgs = append(msgs, fmt.Sprintf("%s: work blocks %s-%s and %s-%s overlap",
				label, prev.block.Start, prev.block.End, cur.block.Start, cur.block.End))
		}
	}
	return msgs
}
