package model

import (
	"time"

	"beautybook/internal/clock"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

// AppointmentTreatment is the duration and price of a treatment as it was
// when the appointment was booked.
type AppointmentTreatment struct {
	ID       string  `json:"id" bson:"id"`
	Name     string  `json:"name,omitempty" bson:"name,omitempty"`
	Duration int     `json:"duration" bson:"duration"`
	Price    float64 `json:"price" bson:"price"`
}

type Appointment struct {
	ID             string                 `json:"id" bson:"_id"`
	ProfessionalID string                 `json:"professional_id" bson:"professional_id"`
	ClientID       string                 `json:"client_id" bson:"client_id"`
	ClientName     string                 `json:"client_name,omitempty" bson:"client_name,omitempty"`
	ClientPhone    string                 `json:"client_phone,omitempty" bson:"client_phone,omitempty"`
	TreatmentID    string                 `json:"treatment_id" bson:"treatment_id"`
	Treatments     []AppointmentTreatment `json:"treatments,omitempty" bson:"treatments,omitempty"`
	Date           string                 `json:"date" bson:"date"`             // "2026-03-02"
	StartTime      string                 `json:"start_time" bson:"start_time"` // "10:00"
	Duration       int                    `json:"duration" bson:"duration"`     // minutes
	Price          float64                `json:"price" bson:"price"`
	Status         AppointmentStatus      `json:"status" bson:"status"`
	Notes          string                 `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt      time.Time              `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at" bson:"updated_at"`
}

// Interval returns [start, end) in minutes since midnight.
func (a *Appointment) Interval() (start, end int, err error) {
	start, err = clock.TimeToMinutes(a.StartTime)
	if err != nil {
		return 0, 0, err
	}
	return start, start + a.Duration, nil
}

// End returns the derived end time. Malformed start times yield "".
func (a *Appointment) End() string {
	start, end, err := a.Interval()
	if err != nil || end < start {
		return ""
	}
	return clock.MinutesToTime(end)
}

// OccupiesTime reports whether the appointment blocks the professional's time.
func (a *Appointment) OccupiesTime() bool {
	return a.Status != StatusCancelled
}

// OverlapsWith reports whether two appointments share any minute.
func (a *Appointment) OverlapsWith(other *Appointment) bool {
	if a.Date != other.Date {
		return false
	}
	as, ae, err := a.Interval()
	if err != nil {
		return false
	}
	bs, be, err := other.Interval()
	if err != nil {
		return false
	}
	return as < be && bs < ae
}

// ContainsTime reports whether minute m falls within [start, end).
func (a *Appointment) ContainsTime(m int) bool {
	start, end, err := a.Interval()
	if err != nil {
		return false
	}
	return m >= start && m < end
}

// CanTransitionTo reports whether the status change is allowed. Only
// scheduled appointments move; the other states are final.
func (a *Appointment) CanTransitionTo(next AppointmentStatus) bool {
	if a.Status != StatusScheduled {
		return false
	}
	switch next {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// SumTreatments returns the total duration and price of ts.
func SumTreatments(ts []AppointmentTreatment) (duration int, price float64) {
	for _, t := range ts {
		duration += t.Duration
		price += t.Price
	}
	return duration, price
}
