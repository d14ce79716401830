package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostelhub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	workflowOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostelhub",
			Name:      "workflow_operations_total",
			Help:      "Workflow operations by kind and outcome.",
		},
		[]string{"workflow", "outcome"},
	)

	roomsAvailable = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hostelhub",
			Name:      "rooms_available",
			Help:      "Available rooms per hostel.",
		},
		[]string{"hostel_id"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, workflowOps, roomsAvailable)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncWorkflow counts one workflow operation with its outcome
// ("ok", "conflict" or "error").
func IncWorkflow(workflow, outcome string) {
	workflowOps.WithLabelValues(workflow, outcome).Inc()
}

// SetRoomsAvailable records the room inventory for a hostel.
func SetRoomsAvailable(hostelID string, rooms int64) {
	roomsAvailable.WithLabelValues(hostelID).Set(float64(rooms))
}
