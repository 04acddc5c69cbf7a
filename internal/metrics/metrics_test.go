package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/congo-pay/accountgate/internal/notification"
)

type stubNotifier struct{ err error }

func (s stubNotifier) Send(context.Context, notification.Message) error { return s.err }

func TestObserve(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.Observe("register", "ok")
	m.Observe("register", "ok")
	m.Observe("login", "not_verified")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("register", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("login", "not_verified")))
}

func TestCountingNotifier(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	msg := notification.Message{Kind: notification.KindVerificationCode}

	assert.NoError(t, NewCountingNotifier(stubNotifier{}, m).Send(context.Background(), msg))
	failing := NewCountingNotifier(stubNotifier{err: errors.New("down")}, m)
	assert.Error(t, failing.Send(context.Background(), msg))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deliveries.WithLabelValues(notification.KindVerificationCode, "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deliveries.WithLabelValues(notification.KindVerificationCode, "failed")))
}

func TestNewMetricsRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
