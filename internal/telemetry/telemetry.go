// Package telemetry provides monitoring for request processing and step
// execution: an in-process metrics snapshot plus Prometheus collectors
// served on the HTTP /metrics endpoint.
package telemetry

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/probaah/probaah/config"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "probaah",
		Name:      "requests_total",
		Help:      "Processed workflow requests by outcome.",
	}, []string{"outcome"})

	stepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "probaah",
		Name:      "steps_total",
		Help:      "Executed workflow steps by action and outcome.",
	}, []string{"action", "outcome"})

	stepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "probaah",
		Name:      "step_duration_seconds",
		Help:      "Workflow step execution duration.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"action"})
)

// Telemetry records workflow and step events.
type Telemetry struct {
	config  config.TelemetryConfig
	logger  *log.Logger
	metrics *Metrics
	mu      sync.RWMutex
}

// Metrics holds the in-process performance snapshot.
type Metrics struct {
	TotalRequests         int64
	SuccessfulRequests    int64
	FailedRequests        int64
	AverageProcessingTime time.Duration

	StepExecutions   map[string]int64
	StepFailures     map[string]int64
	StepAverageTimes map[string]time.Duration
}

// WorkflowEvent represents one complete request processing run.
type WorkflowEvent struct {
	ID             string
	RequestText    string
	Intent         string
	StartTime      time.Time
	EndTime        time.Time
	ProcessingTime time.Duration
	Success        bool
	StepsPlanned   int
	StepsExecuted  int
	Error          string
}

// StepEvent represents one executed workflow step.
type StepEvent struct {
	Action   string
	Success  bool
	Error    string
	Duration time.Duration
}

// NewTelemetry creates a new telemetry instance.
func NewTelemetry(config config.TelemetryConfig) *Telemetry {
	t := &Telemetry{
		config: config,
		logger: log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		metrics: &Metrics{
			StepExecutions:   make(map[string]int64),
			StepFailures:     make(map[string]int64),
			StepAverageTimes: make(map[string]time.Duration),
		},
	}

	if config.Enabled && config.PeriodicLogs {
		go t.startMetricsLogging()
	}

	return t
}

// RecordWorkflowEvent records a complete request processing run.
func (t *Telemetry) RecordWorkflowEvent(ctx context.Context, event WorkflowEvent) {
	if !t.config.Enabled {
		return
	}

	outcome := "success"
	if !event.Success {
		outcome = "failure"
	}
	requestsTotal.WithLabelValues(outcome).Inc()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.TotalRequests++
	if event.Success {
		t.metrics.SuccessfulRequests++
	} else {
		t.metrics.FailedRequests++
	}

	if t.metrics.TotalRequests == 1 {
		t.metrics.AverageProcessingTime = event.ProcessingTime
	} else {
		total := t.metrics.AverageProcessingTime * time.Duration(t.metrics.TotalRequests-1)
		t.metrics.AverageProcessingTime = (total + event.ProcessingTime) / time.Duration(t.metrics.TotalRequests)
	}

	t.logger.Printf("Workflow Event: ID=%s, Intent=%s, Success=%t, Duration=%v, Steps=%d/%d",
		event.ID, event.Intent, event.Success, event.ProcessingTime, event.StepsExecuted, event.StepsPlanned)
}

// RecordStepEvent records one executed workflow step.
func (t *Telemetry) RecordStepEvent(ctx context.Context, event StepEvent) {
	if !t.config.Enabled {
		return
	}

	outcome := "success"
	if !event.Success {
		outcome = "failure"
	}
	stepsTotal.WithLabelValues(event.Action, outcome).Inc()
	stepDuration.WithLabelValues(event.Action).Observe(event.Duration.Seconds())

	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.metrics.StepExecutions[event.Action]
	t.metrics.StepExecutions[event.Action] = n + 1
	if !event.Success {
		t.metrics.StepFailures[event.Action]++
	}
	if n == 0 {
		t.metrics.StepAverageTimes[event.Action] = event.Duration
	} else {
		total := t.metrics.StepAverageTimes[event.Action] * time.Duration(n)
		t.metrics.StepAverageTimes[event.Action] = (total + event.Duration) / time.Duration(n+1)
	}
}

// GetMetrics returns a deep copy of the current metrics snapshot.
func (t *Telemetry) GetMetrics() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := Metrics{
		TotalRequests:         t.metrics.TotalRequests,
		SuccessfulRequests:    t.metrics.SuccessfulRequests,
		FailedRequests:        t.metrics.FailedRequests,
		AverageProcessingTime: t.metrics.AverageProcessingTime,
		StepExecutions:        make(map[string]int64),
		StepFailures:          make(map[string]int64),
		StepAverageTimes:      make(map[string]time.Duration),
	}
	for k, v := range t.metrics.StepExecutions {
		snapshot.StepExecutions[k] = v
	}
	for k, v := range t.metrics.StepFailures {
		snapshot.StepFailures[k] = v
	}
	for k, v := range t.metrics.StepAverageTimes {
		snapshot.StepAverageTimes[k] = v
	}
	return snapshot
}

func (t *Telemetry) startMetricsLogging() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m := t.GetMetrics()
		t.logger.Printf("Metrics: requests=%d success=%d failed=%d avg=%v",
			m.TotalRequests, m.SuccessfulRequests, m.FailedRequests, m.AverageProcessingTime)
	}
}
