package export

import (
	"fmt"
	"io"
	"strings"

	"beautybook/internal/model"
	"beautybook/internal/schedule"
)

const (
	agendaSheet   = "Agenda"
	scheduleSheet = "Schedule"
)

// Agenda is one professional's day.
type Agenda struct {
	Professional model.Professional
	Schedule     schedule.EffectiveSchedule
	Appointments []model.Appointment
}

// WriteAgenda writes the day as a workbook with an appointment list and
// the effective schedule it was booked against.
func WriteAgenda(out io.Writer, a Agenda) error {
	w := newSheetWriter()
	defer func() { _ = w.close() }()

	if err := w.addSheet(agendaSheet); err != nil {
		return err
	}
	if err := w.writeRow("Professional", a.Professional.Name); err != nil {
		return err
	}
	if err := w.writeRow("Date", a.Schedule.Date); err != nil {
		return err
	}
	status := "working"
	if !a.Schedule.Available {
		status = "not working"
		if a.Schedule.Reason != "" {
			status += ": " + a.Schedule.Reason
		}
	}
	if err := w.writeRow("Status", status); err != nil {
		return err
	}
	w.skipRow()

	if err := w.writeHeader("Start", "End", "Client", "Phone", "Treatments", "Duration", "Price", "Status", "Notes"); err != nil {
		return err
	}
	var total float64
	for _, ap := range a.Appointments {
		if err := w.writeRow(
			ap.StartTime, ap.End(), ap.ClientName, ap.ClientPhone, treatmentNames(ap),
			ap.Duration, ap.Price, string(ap.Status), ap.Notes,
		); err != nil {
			return fmt.Errorf("write appointment %s: %w", ap.ID, err)
		}
		if ap.OccupiesTime() {
			total += ap.Price
		}
	}
	w.skipRow()
	if err := w.writeRow("Total", "", "", "", "", "", total); err != nil {
		return err
	}

	if err := w.addSheet(scheduleSheet); err != nil {
		return err
	}
	if err := w.writeRow("Source", string(a.Schedule.Source)); err != nil {
		return err
	}
	if err := w.writeRow("Treatments", a.Schedule.AllowedTreatments.String()); err != nil {
		return err
	}
	w.skipRow()
	if err := w.writeHeader("Start", "End", "Kind", "Description"); err != nil {
		return err
	}
	for _, b := range a.Schedule.Blocks {
		if err := w.writeRow(b.Start, b.End, string(b.Kind), b.Description); err != nil {
			return err
		}
	}

	return w.save(out)
}

func treatmentNames(ap model.Appointment) string {
	if len(ap.Treatments) == 0 {
		return ap.TreatmentID
	}
	names := make([]string, 0, len(ap.Treatments))
	for _, t := range ap.Treatments {
		if t.Name != "" {
			names = append(names, t.Name)
		} else {
			names = append(names, t.ID)
		}
	}
	return strings.Join(names, ", ")
}
