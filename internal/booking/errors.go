package booking

import (
	"errors"
	"strings"
)

var (
	ErrProfessionalNotWorking = errors.New("professional does not work this day")
	ErrTreatmentNotAllowed    = errors.New("treatment is not available")
	ErrOutsideWorkingHours    = errors.New("appointment does not fit the working hours")
	ErrPastDate               = errors.New("appointment time is in the past")
	ErrTooFarAhead            = errors.New("appointment date is beyond the booking window")
	ErrBusy                   = errors.New("schedule is being changed by another request, please retry")
	ErrInvalidStatus          = errors.New("appointment status does not allow this change")
)

// ValidationError carries every problem found in a request or in schedule
// data submitted for saving.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func invalid(msgs ...string) error {
	return &ValidationError{Messages: msgs}
}
