package decision

import (
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/decisionflow/metrics"
)

// AttemptEvent describes one settled attempt for the observability sink.
// Events are purely side-effecting and never affect aggregation.
type AttemptEvent struct {
	DecisionID  string        `json:"decision_id"`
	Index       int           `json:"index"`
	Temperature float64       `json:"temperature"`
	Outcome     OutcomeKind   `json:"outcome"`
	Reason      RejectReason  `json:"reason,omitempty"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Observer receives attempt and decision events.
type Observer interface {
	OnAttempt(event AttemptEvent)
	OnDecision(result *Result)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) OnAttempt(AttemptEvent) {}
func (NopObserver) OnDecision(*Result)     {}

// LoggingObserver writes events to a zap logger.
type LoggingObserver struct {
	logger *zap.Logger
}

// NewLoggingObserver creates a zap-backed observer.
func NewLoggingObserver(logger *zap.Logger) *LoggingObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingObserver{logger: logger.With(zap.String("component", "decision"))}
}

func (o *LoggingObserver) OnAttempt(event AttemptEvent) {
	o.logger.Debug("attempt settled",
		zap.String("decision_id", event.DecisionID),
		zap.Int("attempt", event.Index),
		zap.Float64("temperature", event.Temperature),
		zap.String("outcome", string(event.Outcome)),
		zap.String("reason", string(event.Reason)),
		zap.Duration("elapsed", event.Elapsed),
	)
}

func (o *LoggingObserver) OnDecision(result *Result) {
	o.logger.Info("decision completed",
		zap.String("decision_id", result.DecisionID),
		zap.String("status", string(result.Status)),
		zap.Float64("confidence", result.Confidence),
		zap.Int("attempts_used", result.AttemptsUsed),
		zap.Int("attempts_rejected", result.AttemptsRejected),
		zap.Duration("elapsed", result.Elapsed),
	)
}

// MetricsObserver records events on a prometheus collector.
type MetricsObserver struct {
	collector *metrics.Collector
}

// NewMetricsObserver creates a prometheus-backed observer.
func NewMetricsObserver(collector *metrics.Collector) *MetricsObserver {
	return &MetricsObserver{collector: collector}
}

func (o *MetricsObserver) OnAttempt(event AttemptEvent) {
	o.collector.RecordAttempt(string(event.Outcome), event.Elapsed)
}

func (o *MetricsObserver) OnDecision(result *Result) {
	o.collector.RecordDecision(string(result.Status), result.Elapsed)
}

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

func (m MultiObserver) OnAttempt(event AttemptEvent) {
	for _, o := range m {
		o.OnAttempt(event)
	}
}

func (m MultiObserver) OnDecision(result *Result) {
	for _, o := range m {
		o.OnDecision(result)
	}
}
