package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/viant/storegate/gateway/failure"
)

const outcomeSuccess = "success"

// Metrics holds gateway collectors.
type Metrics struct {
	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates and registers gateway collectors with registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	ret := &Metrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storegate",
				Subsystem: "gateway",
				Name:      "attempts_total",
				Help:      "Transport attempts by outcome class.",
			},
			[]string{"method", "outcome"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storegate",
				Subsystem: "gateway",
				Name:      "retries_total",
				Help:      "Scheduled retries by failure class.",
			},
			[]string{"class"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "storegate",
				Subsystem: "gateway",
				Name:      "attempt_duration_seconds",
				Help:      "Duration of transport attempts.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"method"},
		),
	}
	if registerer != nil {
		registerer.MustRegister(ret.attempts, ret.retries, ret.duration)
	}
	return ret
}

// Instrument records one observation per attempt.
func Instrument(metrics *Metrics) Middleware {
	if metrics == nil {
		return nil
	}
	return func(next Sender) Sender {
		return SenderFunc(func(ctx context.Context, request *Request) (*Response, error) {
			started := time.Now()
			response, err := next.Send(ctx, request)
			metrics.duration.WithLabelValues(request.Method).Observe(time.Since(started).Seconds())
			outcome := outcomeSuccess
			if err != nil || response.StatusCode >= http.StatusBadRequest {
				outcome = failure.Classify(outcomeOf(response, err)).String()
			}
			metrics.attempts.WithLabelValues(request.Method, outcome).Inc()
			return response, err
		})
	}
}

func (m *Metrics) retryHook() RetryHook {
	return func(_ context.Context, _ *Attempt, class failure.Class, _ time.Duration) {
		m.retries.WithLabelValues(class.String()).Inc()
	}
}
