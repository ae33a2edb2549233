package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()

	rec.Observe(ctx, "update_registration", true, 20*time.Millisecond)
	rec.Observe(ctx, "update_registration", true, 30*time.Millisecond)
	rec.Observe(ctx, "update_registration", false, 10*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second)

	snap := rec.Snapshot()
	if snap.DurationsMS["update_registration"] != 60 {
		t.Fatalf("durations %v", snap.DurationsMS)
	}
	if snap.Results["update_registration"]["success"] != 2 {
		t.Fatalf("success count %v", snap.Results)
	}
	if snap.Results["update_registration"]["error"] != 1 {
		t.Fatalf("error count %v", snap.Results)
	}
	if rec.Name() == "" {
		t.Fatal("expected generated export name")
	}
}

func TestJSONTracerEncodesSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)

	_, span := tracer.Start(context.Background(), "fetch_state")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "delete_payment")
	span.End(errors.New("boom"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries %d", len(entries))
	}
	if entries[0].Status != "success" || entries[1].Status != "error" || entries[1].Error != "boom" {
		t.Fatalf("entries %+v", entries)
	}

	dec := json.NewDecoder(&buf)
	var first JSONTraceEntry
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.Operation != "fetch_state" {
		t.Fatalf("operation %q", first.Operation)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewPrometheusMetricsRecorder(reg)
	rec.Observe(context.Background(), "create_registration", true, 50*time.Millisecond)
	rec.Observe(context.Background(), "create_registration", false, 10*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) != 1 {
		t.Fatalf("metric families %d", len(families))
	}
	if got := families[0].GetName(); got != "retreatcore_service_operation_duration_seconds" {
		t.Fatalf("metric name %q", got)
	}
	if len(families[0].GetMetric()) != 2 {
		t.Fatalf("label combinations %d", len(families[0].GetMetric()))
	}
}
