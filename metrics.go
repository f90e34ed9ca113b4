package html2pdf

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for html2pdf_generations_total.
const (
	outcomeOK         = "ok"
	outcomeTimeout    = "timeout"
	outcomeIncomplete = "incomplete"
	outcomeFailed     = "command_failed"
	outcomeCancelled  = "cancelled"
	outcomeError      = "error"
)

// Metrics holds the Prometheus collectors for generations.
// A nil *Metrics records nothing.
type Metrics struct {
	generations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	watchWait   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "html2pdf",
				Name:      "generations_total",
				Help:      "Total number of PDF generations by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "html2pdf",
				Name:      "generation_duration_seconds",
				Help:      "Duration of PDF generations in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"strategy"},
		),
		watchWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "html2pdf",
				Name:      "watch_wait_seconds",
				Help:      "Time from engine start until the completion marker was seen",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
	}

	for _, c := range []prometheus.Collector{m.generations, m.duration, m.watchWait} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(strategy string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(strategy, outcomeOf(err)).Inc()
	m.duration.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

func (m *Metrics) observeWatch(wait time.Duration) {
	if m == nil {
		return
	}
	m.watchWait.Observe(wait.Seconds())
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrGenerationTimeout):
		return outcomeTimeout
	case errors.Is(err, ErrGenerationIncomplete):
		return outcomeIncomplete
	case errors.Is(err, ErrCommandFailed):
		return outcomeFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCancelled
	default:
		return outcomeError
	}
}
