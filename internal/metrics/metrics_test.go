package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCountersAccumulate(t *testing.T) {
	Register()

	before := testutil.ToFloat64(workflowOps.WithLabelValues("booking_approve", "ok"))
	IncWorkflow("booking_approve", "ok")
	IncWorkflow("booking_approve", "ok")
	after := testutil.ToFloat64(workflowOps.WithLabelValues("booking_approve", "ok"))
	assert.InDelta(t, before+2, after, 0.001)

	IncHTTP("/api/v1/hostels")
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequests.WithLabelValues("/api/v1/hostels")), 1.0)

	SetRoomsAvailable("h-1", 7)
	assert.InDelta(t, 7, testutil.ToFloat64(roomsAvailable.WithLabelValues("h-1")), 0.001)
}
