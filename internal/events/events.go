package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated      = "booking_created"
	EventBookingApproved     = "booking_approved"
	EventBookingDisapproved  = "booking_disapproved"
	EventStudentLeft         = "student_left"
	EventStudentKicked       = "student_kicked"
	EventReservationCreated  = "reservation_created"
	EventReservationReviewed = "reservation_reviewed"
	EventFeeSubmitted        = "fee_submitted"
	EventFeeReviewed         = "fee_reviewed"
	EventReportCreated       = "report_created"
	EventReportResolved      = "report_resolved"
	EventVerificationDecided = "verification_decided"
	EventMessageSent         = "message_sent"
)

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID string `json:"booking_id"`
	StudentID string `json:"student_id"`
	HostelID  string `json:"hostel_id"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount,omitempty"`
	ChangedBy string `json:"changed_by,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// WorkflowEventPayload is the generic snapshot for non-booking workflows.
type WorkflowEventPayload struct {
	EntityID  string `json:"entity_id"`
	ActorID   string `json:"actor_id,omitempty"`
	Status    string `json:"status,omitempty"`
	Decision  string `json:"decision,omitempty"`
	ChangedBy string `json:"changed_by,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
