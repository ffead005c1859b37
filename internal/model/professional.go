package model

import "time"

// ProfessionalTreatment links a professional to a catalogue treatment.
// Price, when non-zero, overrides the catalogue price for this professional.
type ProfessionalTreatment struct {
	TreatmentID string  `json:"treatment_id" bson:"treatment_id" yaml:"treatment_id"`
	Price       float64 `json:"price,omitempty" bson:"price,omitempty" yaml:"price,omitempty"`
}

type Professional struct {
	ID                  string                  `json:"id" bson:"_id"`
	Name                string                  `json:"name" bson:"name"`
	Specialty           string                  `json:"specialty,omitempty" bson:"specialty,omitempty"`
	Active              bool                    `json:"active" bson:"active"`
	BaseSchedule        WeeklySchedule          `json:"base_schedule" bson:"base_schedule"`
	ScheduleExceptions  []ScheduleException     `json:"schedule_exceptions" bson:"schedule_exceptions"`
	AvailableTreatments []ProfessionalTreatment `json:"available_treatments" bson:"available_treatments"`
	CreatedAt           time.Time               `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at" bson:"updated_at"`
}

// ExceptionFor returns the first exception registered for date.
func (p *Professional) ExceptionFor(date string) (ScheduleException, bool) {
	for _, e := range p.ScheduleExceptions {
		if e.Date == date {
			return e, true
		}
	}
	return ScheduleException{}, false
}

// TreatmentIDs returns the ids of every treatment the professional offers.
func (p *Professional) TreatmentIDs() []string {
	ids := make([]string, 0, len(p.AvailableTreatments))
	for _, t := range p.AvailableTreatments {
		ids = append(ids, t.TreatmentID)
	}
	return ids
}

// PriceFor returns the professional's price for t.
func (p *Professional) PriceFor(t Treatment) float64 {
	for _, pt := range p.AvailableTreatments {
		if pt.TreatmentID == t.ID && pt.Price > 0 {
			return pt.Price
		}
	}
	return t.Price
}

type Treatment struct {
	ID       string  `json:"id" bson:"_id" yaml:"id"`
	Name     string  `json:"name" bson:"name" yaml:"name"`
	Category string  `json:"category,omitempty" bson:"category,omitempty" yaml:"category,omitempty"`
	Duration int     `json:"duration" bson:"duration" yaml:"duration"` // minutes
	Price    float64 `json:"price" bson:"price" yaml:"price"`
	Active   bool    `json:"active" bson:"active" yaml:"active"`
}
