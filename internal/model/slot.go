package model

type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotBooked      SlotStatus = "booked"
	SlotPast        SlotStatus = "past"
	SlotUnavailable SlotStatus = "unavailable"
)

// Slot is a derived candidate start time. It is never persisted.
type Slot struct {
	Time   string     `json:"time"`
	End    string     `json:"end"`
	Status SlotStatus `json:"status"`
}

func (s Slot) IsAvailable() bool {
	return s.Status == SlotAvailable
}
