package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func appt(id, date, start string, duration int) Appointment {
	return Appointment{ID: id, Date: date, StartTime: start, Duration: duration, Status: StatusScheduled}
}

func TestAppointment_End(t *testing.T) {
	a := appt("a1", "2026-03-02", "10:00", 90)
	assert.Equal(t, "11:30", a.End())

	broken := appt("a2", "2026-03-02", "10h", 30)
	assert.Equal(t, "", broken.End())
}

func TestAppointment_OverlapsWith(t *testing.T) {
	existing := appt("e", "2026-03-02", "10:00", 60)

	// No overlap - before
	before := appt("b", "2026-03-02", "09:00", 60)
	assert.False(t, existing.OverlapsWith(&before))

	// No overlap - after
	after := appt("c", "2026-03-02", "11:00", 30)
	assert.False(t, existing.OverlapsWith(&after))

	// Overlap - starts during
	during := appt("d", "2026-03-02", "10:30", 60)
	assert.True(t, existing.OverlapsWith(&during))

	// Overlap - identical
	same := appt("f", "2026-03-02", "10:00", 60)
	assert.True(t, existing.OverlapsWith(&same))

	// Different day never overlaps
	otherDay := appt("g", "2026-03-03", "10:00", 60)
	assert.False(t, existing.OverlapsWith(&otherDay))
}

func TestAppointment_ContainsTime(t *testing.T) {
	a := appt("a", "2026-03-02", "10:00", 60)
	assert.True(t, a.ContainsTime(600))
	assert.True(t, a.ContainsTime(659))
	assert.False(t, a.ContainsTime(660))
	assert.False(t, a.ContainsTime(599))
}

func TestAppointment_CanTransitionTo(t *testing.T) {
	a := appt("a", "2026-03-02", "10:00", 60)
	assert.True(t, a.CanTransitionTo(StatusCancelled))
	assert.True(t, a.CanTransitionTo(StatusCompleted))
	assert.False(t, a.CanTransitionTo(StatusScheduled))

	a.Status = StatusCancelled
	assert.False(t, a.CanTransitionTo(StatusCompleted))
	assert.False(t, a.OccupiesTime())
}

func TestSumTreatments(t *testing.T) {
	d, p := SumTreatments([]AppointmentTreatment{
		{ID: "facial", Duration: 60, Price: 80},
		{ID: "brows", Duration: 15, Price: 20.5},
	})
	assert.Equal(t, 75, d)
	assert.InDelta(t, 100.5, p, 0.001)
}

func TestWeekdayOf(t *testing.T) {
	assert.Equal(t, Sunday, WeekdayOf(time.Sunday))
	assert.Equal(t, Monday, WeekdayOf(time.Monday))
	assert.Equal(t, Saturday, WeekdayOf(time.Saturday))
	assert.True(t, Friday.Valid())
	assert.False(t, Weekday("funday").Valid())
}

func TestProfessional_Lookups(t *testing.T) {
	p := Professional{
		ScheduleExceptions: []ScheduleException{
			{ID: "x1", Date: "2026-03-02", Type: ExceptionUnavailable},
			{ID: "x2", Date: "2026-03-02", Type: ExceptionCustom},
		},
		AvailableTreatments: []ProfessionalTreatment{{TreatmentID: "facial", Price: 95}, {TreatmentID: "brows"}},
	}

	ex, ok := p.ExceptionFor("2026-03-02")
	assert.True(t, ok)
	assert.Equal(t, "x1", ex.ID)
	_, ok = p.ExceptionFor("2026-03-03")
	assert.False(t, ok)

	assert.Equal(t, []string{"facial", "brows"}, p.TreatmentIDs())
	assert.Equal(t, 95.0, p.PriceFor(Treatment{ID: "facial", Price: 80}))
	assert.Equal(t, 20.0, p.PriceFor(Treatment{ID: "brows", Price: 20}))
}
