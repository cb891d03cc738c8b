package embedding

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records embedding throughput and latency per model.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	texts    *prometheus.CounterVec
	tokens   *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		texts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embedder",
			Name:      "texts_total",
			Help:      "Texts successfully embedded.",
		}, []string{"model"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embedder",
			Name:      "input_tokens_total",
			Help:      "Input tokens consumed, for encoders that report usage.",
		}, []string{"model"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "embedder",
			Name:      "batch_failures_total",
			Help:      "Embedding calls that failed.",
		}, []string{"model", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "embedder",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of embedding calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"model"}),
	}
	for _, c := range []prometheus.Collector{m.texts, m.tokens, m.failures, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(model string, texts int, usage *TokenUsage, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(model).Observe(took.Seconds())
	if err != nil {
		m.failures.WithLabelValues(model, failureReason(err)).Inc()
		return
	}
	m.texts.WithLabelValues(model).Add(float64(texts))
	if usage != nil {
		m.tokens.WithLabelValues(model).Add(float64(usage.InputTokens))
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrInference):
		return "inference"
	case errors.Is(err, ErrExecutorClosed):
		return "executor_closed"
	default:
		return "other"
	}
}
