package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/probaah/probaah/config"
)

func TestRecordWorkflowEvent(t *testing.T) {
	tele := NewTelemetry(config.TelemetryConfig{Enabled: true})
	ctx := context.Background()

	tele.RecordWorkflowEvent(ctx, WorkflowEvent{ID: "a", Success: true, ProcessingTime: 100 * time.Millisecond})
	tele.RecordWorkflowEvent(ctx, WorkflowEvent{ID: "b", Success: false, ProcessingTime: 300 * time.Millisecond})

	m := tele.GetMetrics()
	if m.TotalRequests != 2 || m.SuccessfulRequests != 1 || m.FailedRequests != 1 {
		t.Fatalf("unexpected counts: %+v", m)
	}
	if m.AverageProcessingTime != 200*time.Millisecond {
		t.Fatalf("expected 200ms average, got %v", m.AverageProcessingTime)
	}
}

func TestRecordStepEvent(t *testing.T) {
	tele := NewTelemetry(config.TelemetryConfig{Enabled: true})
	ctx := context.Background()

	tele.RecordStepEvent(ctx, StepEvent{Action: "substitute", Success: true, Duration: time.Second})
	tele.RecordStepEvent(ctx, StepEvent{Action: "substitute", Success: false, Duration: 3 * time.Second})
	tele.RecordStepEvent(ctx, StepEvent{Action: "validate", Success: true, Duration: time.Second})

	m := tele.GetMetrics()
	if m.StepExecutions["substitute"] != 2 || m.StepFailures["substitute"] != 1 {
		t.Fatalf("unexpected substitute counters: %+v", m)
	}
	if m.StepAverageTimes["substitute"] != 2*time.Second {
		t.Fatalf("expected 2s average, got %v", m.StepAverageTimes["substitute"])
	}
	if m.StepExecutions["validate"] != 1 {
		t.Fatalf("unexpected validate count: %d", m.StepExecutions["validate"])
	}
}

func TestDisabledTelemetryRecordsNothing(t *testing.T) {
	tele := NewTelemetry(config.TelemetryConfig{Enabled: false})
	tele.RecordWorkflowEvent(context.Background(), WorkflowEvent{ID: "a", Success: true})

	if m := tele.GetMetrics(); m.TotalRequests != 0 {
		t.Fatalf("expected no recorded requests, got %d", m.TotalRequests)
	}
}

func TestGetMetricsReturnsCopy(t *testing.T) {
	tele := NewTelemetry(config.TelemetryConfig{Enabled: true})
	tele.RecordStepEvent(context.Background(), StepEvent{Action: "analyze", Success: true, Duration: time.Second})

	m := tele.GetMetrics()
	m.StepExecutions["analyze"] = 99

	if tele.GetMetrics().StepExecutions["analyze"] != 1 {
		t.Fatal("snapshot mutation leaked into telemetry state")
	}
}
