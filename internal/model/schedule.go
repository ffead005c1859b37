package model

import "time"

// Weekday is the key of a day in a weekly template.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists the template keys Monday first.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayKeys = [7]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WeekdayOf maps time.Weekday (0 = Sunday) to its template key.
func WeekdayOf(d time.Weekday) Weekday {
	return weekdayKeys[int(d)%7]
}

// Valid reports whether w is one of the seven known keys.
func (w Weekday) Valid() bool {
	for _, k := range Weekdays {
		if k == w {
			return true
		}
	}
	return false
}

type BlockKind string

const (
	BlockWork  BlockKind = "work"
	BlockBreak BlockKind = "break"
	BlockLunch BlockKind = "lunch"
)

func (k BlockKind) Valid() bool {
	switch k {
	case BlockWork, BlockBreak, BlockLunch:
		return true
	}
	return false
}

// TimeBlock is a half-open [Start, End) stretch of a working day.
type TimeBlock struct {
	ID          string    `json:"id" bson:"id" yaml:"id"`
	Start       string    `json:"start" bson:"start" yaml:"start"` // "09:00"
	End         string    `json:"end" bson:"end" yaml:"end"`       // "18:00"
	Kind        BlockKind `json:"kind" bson:"kind" yaml:"kind"`
	Description string    `json:"description,omitempty" bson:"description,omitempty" yaml:"description,omitempty"`
}

func (b TimeBlock) IsWork() bool {
	return b.Kind == BlockWork
}

type DaySchedule struct {
	Active bool        `json:"active" bson:"active" yaml:"active"`
	Blocks []TimeBlock `json:"blocks" bson:"blocks" yaml:"blocks"`
}

// HasWork reports whether the day carries at least one work block.
func (d DaySchedule) HasWork() bool {
	for _, b := range d.Blocks {
		if b.IsWork() {
			return true
		}
	}
	return false
}

// WeeklySchedule is the recurring template. Missing keys mean the day is off.
type WeeklySchedule map[Weekday]DaySchedule

// Day returns the template for day and whether it is present.
func (w WeeklySchedule) Day(day Weekday) (DaySchedule, bool) {
	if w == nil {
		return DaySchedule{}, false
	}
	d, ok := w[day]
	return d, ok
}

type ExceptionType string

const (
	ExceptionCustom      ExceptionType = "custom"
	ExceptionUnavailable ExceptionType = "unavailable"
	ExceptionPartial     ExceptionType = "partial"
)

func (t ExceptionType) Valid() bool {
	switch t {
	case ExceptionCustom, ExceptionUnavailable, ExceptionPartial:
		return true
	}
	return false
}

// ScheduleException overrides the weekly template for a single date.
type ScheduleException struct {
	ID                          string        `json:"id" bson:"id" yaml:"id"`
	Date                        string        `json:"date" bson:"date" yaml:"date"` // "2026-03-02"
	Type                        ExceptionType `json:"type" bson:"type" yaml:"type"`
	Reason                      string        `json:"reason,omitempty" bson:"reason,omitempty" yaml:"reason,omitempty"`
	Blocks                      []TimeBlock   `json:"blocks" bson:"blocks" yaml:"blocks"`
	AvailableTreatmentsOverride []string      `json:"available_treatments_override,omitempty" bson:"available_treatments_override,omitempty" yaml:"available_treatments_override,omitempty"`
}
