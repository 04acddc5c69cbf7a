// Package metrics holds the Prometheus collectors for account operations.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/congo-pay/accountgate/internal/notification"
)

// Metrics groups the service collectors.
type Metrics struct {
	Operations *prometheus.CounterVec
	Deliveries *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accountgate",
			Name:      "account_operations_total",
			Help:      "Account lifecycle operations by outcome.",
		}, []string{"operation", "outcome"}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accountgate",
			Name:      "notification_deliveries_total",
			Help:      "Notification delivery attempts by kind and result.",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(m.Operations, m.Deliveries)
	return m
}

// Observe records one operation outcome.
func (m *Metrics) Observe(operation, outcome string) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

// CountingNotifier counts deliveries passing through to next.
type CountingNotifier struct {
	next    notification.Notifier
	metrics *Metrics
}

// NewCountingNotifier wraps next.
func NewCountingNotifier(next notification.Notifier, m *Metrics) *CountingNotifier {
	return &CountingNotifier{next: next, metrics: m}
}

// Send forwards the message and records the result.
func (c *CountingNotifier) Send(ctx context.Context, message notification.Message) error {
	err := c.next.Send(ctx, message)
	result := "sent"
	if err != nil {
		result = "failed"
	}
	c.metrics.Deliveries.WithLabelValues(message.Kind, result).Inc()
	return err
}
