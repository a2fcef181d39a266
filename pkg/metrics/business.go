package metrics

import "github.com/prometheus/client_golang/prometheus"

// BusinessMetrics tracks the procurement flow counters exposed on /metrics.
type BusinessMetrics struct {
	imports           *prometheus.CounterVec
	ordersPlaced      prometheus.Counter
	statusTransitions *prometheus.CounterVec
}

// NewBusinessMetrics registers the counters on the provided registerer.
func NewBusinessMetrics(reg prometheus.Registerer) *BusinessMetrics {
	if reg == nil {
		return &BusinessMetrics{}
	}
	imports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_imports_total",
		Help: "Catalog import attempts by result.",
	}, []string{"result"})
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Carts confirmed into placed orders.",
	})
	statusTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Administrative order status transitions by target status.",
	}, []string{"status"})
	reg.MustRegister(imports, ordersPlaced, statusTransitions)
	return &BusinessMetrics{
		imports:           imports,
		ordersPlaced:      ordersPlaced,
		statusTransitions: statusTransitions,
	}
}

// IncImport records one import attempt with the given result label.
func (m *BusinessMetrics) IncImport(result string) {
	if m == nil || m.imports == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	m.imports.WithLabelValues(result).Inc()
}

// IncOrderPlaced records a cart confirmed into an order.
func (m *BusinessMetrics) IncOrderPlaced() {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
}

// IncStatusTransition records a privileged status change.
func (m *BusinessMetrics) IncStatusTransition(status string) {
	if m == nil || m.statusTransitions == nil {
		return
	}
	if status == "" {
		status = "unknown"
	}
	m.statusTransitions.WithLabelValues(status).Inc()
}
