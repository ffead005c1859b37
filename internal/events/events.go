package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	AppointmentBooked      = "appointment.booked"
	AppointmentRescheduled = "appointment.rescheduled"
	AppointmentCancelled   = "appointment.cancelled"
	AppointmentDeleted     = "appointment.deleted"
	ScheduleUpdated        = "schedule.updated"
	ExceptionUpserted      = "exception.upserted"
	ExceptionDeleted       = "exception.deleted"

	// All subscribes a handler to every event type.
	All = "*"
)

// Event represents a lightweight domain event.
type Event struct {
	Type           string
	ProfessionalID string
	Date           string
	Payload        []byte
	CreatedAt      time.Time
}

// New builds an event with payload encoded as JSON.
func New(eventType, professionalID, date string, payload any) Event {
	e := Event{Type: eventType, ProfessionalID: professionalID, Date: date, CreatedAt: time.Now()}
	if payload != nil {
		e.Payload, _ = json.Marshal(payload)
	}
	return e
}

// Decode unmarshals the payload into out.
func (e Event) Decode(out any) error {
	return json.Unmarshal(e.Payload, out)
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type, then wildcard subscribers.
// Handler errors are logged and do not stop delivery.
func (b *EventBus) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers[All]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Msg("event handler failed")
		}
	}
}
