package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishJSONDeliversPayload(t *testing.T) {
	bus := NewEventBus()

	var got *Event
	bus.Subscribe(EventBookingApproved, func(ev *Event) error {
		got = ev
		return nil
	})

	err := bus.PublishJSON(EventBookingApproved, BookingEventPayload{
		BookingID: "b-1",
		HostelID:  "h-1",
		Status:    "APPROVED",
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, EventBookingApproved, got.Type)
	assert.False(t, got.CreatedAt.IsZero())

	var payload BookingEventPayload
	require.NoError(t, json.Unmarshal(got.Payload, &payload))
	assert.Equal(t, "b-1", payload.BookingID)
	assert.Equal(t, "h-1", payload.HostelID)
}

func TestHandlersAreIndependent(t *testing.T) {
	bus := NewEventBus()
	var first, second int

	bus.Subscribe(EventFeeReviewed, func(*Event) error {
		first++
		return errors.New("consumer failure")
	})
	bus.Subscribe(EventFeeReviewed, func(*Event) error {
		second++
		return nil
	})
	bus.Subscribe(EventFeeSubmitted, func(*Event) error {
		t.Error("wrong event type delivered")
		return nil
	})

	bus.Publish(&Event{Type: EventFeeReviewed})
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := NewEventBus()

	bus.Publish(&Event{Type: EventStudentKicked})
	assert.NoError(t, bus.PublishJSON(EventStudentKicked, nil))
}

func TestNilBusIsSafe(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventMessageSent, WorkflowEventPayload{EntityID: "m-1"}))
}
