package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"beautybook/internal/booking"
	"beautybook/internal/clock"
	"beautybook/internal/conflict"
	"beautybook/internal/schedule"
	"beautybook/internal/slots"
	"beautybook/internal/store"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		m, err := clock.TimeToMinutes(fl.Field().String())
		return err == nil && m < clock.MinutesPerDay
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := clock.ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

type errorResponse struct {
	Error     string          `json:"error"`
	Code      string          `json:"code"`
	Messages  []string        `json:"messages,omitempty"`
	Conflicts []conflictEntry `json:"conflicts,omitempty"`
}

type conflictEntry struct {
	ID        string `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// decodeBody reads a JSON body into dst and runs its validate tags.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &booking.ValidationError{Messages: []string{"invalid JSON body: " + err.Error()}}
	}
	if reflect.Indirect(reflect.ValueOf(dst)).Kind() != reflect.Struct {
		return nil
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return &booking.ValidationError{Messages: msgs}
		}
		return err
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "hhmm":
		return field + " must be HH:MM"
	case "date":
		return field + " must be YYYY-MM-DD"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s item(s)", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// writeServiceError maps a booking error to its HTTP status.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var (
		ve *booking.ValidationError
		ce *conflict.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: ve.Error(), Code: "validation_failed", Messages: ve.Messages,
		})
	case errors.As(err, &ce):
		resp := errorResponse{Error: ce.Error(), Code: "schedule_conflict"}
		for _, a := range ce.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictEntry{ID: a.ID, StartTime: a.StartTime, EndTime: a.End()})
		}
		writeJSON(w, http.StatusConflict, resp)
	case errors.Is(err, conflict.ErrScheduleConflict):
		writeError(w, http.StatusConflict, "schedule_conflict", err.Error())
	case errors.Is(err, booking.ErrProfessionalNotWorking):
		writeError(w, http.StatusUnprocessableEntity, "not_working", err.Error())
	case errors.Is(err, booking.ErrTreatmentNotAllowed):
		writeError(w, http.StatusUnprocessableEntity, "treatment_not_allowed", err.Error())
	case errors.Is(err, booking.ErrOutsideWorkingHours):
		writeError(w, http.StatusUnprocessableEntity, "outside_working_hours", err.Error())
	case errors.Is(err, booking.ErrPastDate):
		writeError(w, http.StatusUnprocessableEntity, "past_date", err.Error())
	case errors.Is(err, booking.ErrTooFarAhead):
		writeError(w, http.StatusUnprocessableEntity, "too_far_ahead", err.Error())
	case errors.Is(err, booking.ErrInvalidStatus):
		writeError(w, http.StatusConflict, "invalid_status", err.Error())
	case errors.Is(err, slots.ErrInvalidBlock):
		// stored schedule data is broken, not the request
		s.logger.Error().Err(err).Msg("invalid stored schedule")
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	case errors.Is(err, clock.ErrInvalidTime), errors.Is(err, clock.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, store.ErrNotFound), errors.Is(err, schedule.ErrNoProfessional):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, booking.ErrBusy):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusLocked, "busy", err.Error())
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn().Err(err).Msg("store unavailable")
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, "unavailable", "temporarily unavailable, please retry")
	default:
		s.logger.Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
