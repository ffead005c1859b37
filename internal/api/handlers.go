package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"beautybook/internal/booking"
	"beautybook/internal/export"
	"beautybook/internal/model"
)

type bookRequest struct {
	ProfessionalID string   `json:"professional_id" validate:"required"`
	ClientID       string   `json:"client_id" validate:"required"`
	ClientName     string   `json:"client_name" validate:"max=200"`
	ClientPhone    string   `json:"client_phone" validate:"max=50"`
	TreatmentIDs   []string `json:"treatment_ids" validate:"required,min=1,dive,required"`
	Date           string   `json:"date" validate:"required,date"`
	StartTime      string   `json:"start_time" validate:"required,hhmm"`
	Notes          string   `json:"notes" validate:"max=2000"`
}

type rescheduleRequest struct {
	Date      string `json:"date" validate:"required,date"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=completed cancelled no_show"`
}

type exceptionRequest struct {
	ID                          string            `json:"id"`
	Date                        string            `json:"date" validate:"required,date"`
	Type                        string            `json:"type" validate:"required,oneof=custom unavailable partial"`
	Reason                      string            `json:"reason" validate:"max=500"`
	Blocks                      []model.TimeBlock `json:"blocks"`
	AvailableTreatmentsOverride []string          `json:"available_treatments_override"`
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, "not_ready", "store not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *HTTPServer) handleTreatments(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListTreatments(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []model.Treatment{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) handleProfessionals(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.ListProfessionals(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if list == nil {
		list = []model.Professional{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) handleProfessional(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.GetProfessional(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GET /api/v1/professionals/{id}/schedule?date=YYYY-MM-DD
func (s *HTTPServer) handleEffectiveSchedule(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	eff, err := s.svc.EffectiveSchedule(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eff)
}

func (s *HTTPServer) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var ws model.WeeklySchedule
	if err := decodeBody(r, &ws); err != nil {
		s.writeServiceError(w, err)
		return
	}
	saved, err := s.svc.UpdateWeeklySchedule(r.Context(), chi.URLParam(r, "id"), ws)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *HTTPServer) handleUpsertException(w http.ResponseWriter, r *http.Request) {
	var req exceptionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	ex, err := s.svc.UpsertException(r.Context(), chi.URLParam(r, "id"), model.ScheduleException{
		ID:                          req.ID,
		Date:                        req.Date,
		Type:                        model.ExceptionType(req.Type),
		Reason:                      req.Reason,
		Blocks:                      req.Blocks,
		AvailableTreatmentsOverride: req.AvailableTreatmentsOverride,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *HTTPServer) handleDeleteException(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteException(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "exceptionID")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/professionals/{id}/slots?date=YYYY-MM-DD&treatment=a,b&granularity=15
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	var treatments []string
	for _, v := range q["treatment"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				treatments = append(treatments, id)
			}
		}
	}
	if len(treatments) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "treatment is required")
		return
	}

	granularity := 0
	if g := q.Get("granularity"); g != "" {
		n, err := strconv.Atoi(g)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "granularity must be a positive number of minutes")
			return
		}
		granularity = n
	}

	day, err := s.svc.AvailableSlots(r.Context(), chi.URLParam(r, "id"), date, treatments, granularity)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (s *HTTPServer) handleDayAppointments(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	list, err := s.svc.ListAppointments(r.Context(), chi.URLParam(r, "id"), date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) handleAgenda(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	p, err := s.svc.GetProfessional(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	eff, err := s.svc.EffectiveSchedule(r.Context(), id, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	list, err := s.svc.ListAppointments(r.Context(), id, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteAgenda(&buf, export.Agenda{Professional: *p, Schedule: eff, Appointments: list}); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="agenda_`+id+`_`+date+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *HTTPServer) handleBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	a, err := s.svc.Book(r.Context(), booking.BookingRequest{
		ProfessionalID: req.ProfessionalID,
		ClientID:       req.ClientID,
		ClientName:     req.ClientName,
		ClientPhone:    req.ClientPhone,
		TreatmentIDs:   req.TreatmentIDs,
		Date:           req.Date,
		StartTime:      req.StartTime,
		Notes:          req.Notes,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *HTTPServer) handleAppointment(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.GetAppointment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *HTTPServer) handleReschedule(w http.ResponseWriter, r *http.Request) {
	var req rescheduleRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	a, err := s.svc.Reschedule(r.Context(), chi.URLParam(r, "id"), req.Date, req.StartTime)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, err)
		return
	}
	a, err := s.svc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), model.AppointmentStatus(req.Status))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *HTTPServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) dateParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "date is required")
		return "", false
	}
	return date, true
}
