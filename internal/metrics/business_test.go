package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestIncrementDefinitionCreated(t *testing.T) {
	m := getTestMetrics()

	// Get initial value
	initialValue := getCounterValue(t, m.DefinitionCreatedTotal)

	// Increment
	m.IncrementDefinitionCreated()

	// Verify increment
	newValue := getCounterValue(t, m.DefinitionCreatedTotal)
	if newValue <= initialValue {
		t.Errorf("Expected counter to increment, got %f -> %f", initialValue, newValue)
	}
}

func TestRecordEvaluation(t *testing.T) {
	m := getTestMetrics()

	m.RecordEvaluation("formula", nil)
	m.RecordEvaluation("formula", nil)
	m.RecordEvaluation("rollup", errors.New("source gone"))

	if v := getCounterValue(t, m.EvaluationsTotal.WithLabelValues("formula")); v != 2 {
		t.Errorf("Expected 2 formula evaluations, got %f", v)
	}
	if v := getCounterValue(t, m.EvaluationErrorsTotal.WithLabelValues("formula")); v != 0 {
		t.Errorf("Expected 0 formula evaluation errors, got %f", v)
	}
	if v := getCounterValue(t, m.EvaluationErrorsTotal.WithLabelValues("rollup")); v != 1 {
		t.Errorf("Expected 1 rollup evaluation error, got %f", v)
	}
}

func TestIncrementUsageFallback(t *testing.T) {
	m := getTestMetrics()

	initialValue := getCounterValue(t, m.UsageFallbackTotal)

	m.IncrementUsageFallback()

	newValue := getCounterValue(t, m.UsageFallbackTotal)
	if newValue <= initialValue {
		t.Errorf("Expected counter to increment, got %f -> %f", initialValue, newValue)
	}
}

func TestSetDefinitionsTotal(t *testing.T) {
	m := getTestMetrics()

	tests := []struct {
		name  string
		count int64
	}{
		{"zero definitions", 0},
		{"one definition", 1},
		{"multiple definitions", 42},
		{"large number", 1000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.SetDefinitionsTotal(tt.count)
			value := getGaugeValue(t, m.DefinitionsTotal)
			if value != float64(tt.count) {
				t.Errorf("Expected gauge value %d, got %f", tt.count, value)
			}
		})
	}
}

func TestSetBoardsTotal(t *testing.T) {
	m := getTestMetrics()

	tests := []struct {
		name  string
		count int64
	}{
		{"zero boards", 0},
		{"one board", 1},
		{"multiple boards", 100},
		{"large number", 5000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.SetBoardsTotal(tt.count)
			value := getGaugeValue(t, m.BoardsTotal)
			if value != float64(tt.count) {
				t.Errorf("Expected gauge value %d, got %f", tt.count, value)
			}
		})
	}
}

func TestBusinessMetricsIntegration(t *testing.T) {
	m := getTestMetrics()

	// Set initial totals
	m.SetDefinitionsTotal(10)
	m.SetBoardsTotal(50)

	// Verify initial values
	if getGaugeValue(t, m.DefinitionsTotal) != 10 {
		t.Error("Expected DefinitionsTotal to be 10")
	}
	if getGaugeValue(t, m.BoardsTotal) != 50 {
		t.Error("Expected BoardsTotal to be 50")
	}

	// Increment creation counters
	initialCreated := getCounterValue(t, m.DefinitionCreatedTotal)

	m.IncrementDefinitionCreated()
	m.IncrementDefinitionCreated()

	// Verify counters
	if getCounterValue(t, m.DefinitionCreatedTotal) <= initialCreated {
		t.Error("Expected DefinitionCreatedTotal to increment")
	}

	// Update totals
	m.SetDefinitionsTotal(11)
	m.SetBoardsTotal(52)

	// Verify updated values
	if getGaugeValue(t, m.DefinitionsTotal) != 11 {
		t.Error("Expected DefinitionsTotal to be 11")
	}
	if getGaugeValue(t, m.BoardsTotal) != 52 {
		t.Error("Expected BoardsTotal to be 52")
	}
}

// Helper function to get counter value
func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := counter.Write(metric); err != nil {
		t.Fatalf("Failed to write counter metric: %v", err)
	}
	return metric.Counter.GetValue()
}

// Helper function to get gauge value
func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := gauge.Write(metric); err != nil {
		t.Fatalf("Failed to write gauge metric: %v", err)
	}
	return metric.Gauge.GetValue()
}
