package core

import "testing"

func TestMetricsSingleton(t *testing.T) {
	if Metrics() != Metrics() {
		t.Fatal("Metrics returned two different states")
	}
}

func TestMetricsReset(t *testing.T) {
	m := Metrics()
	m.BindViewportCount = 7
	m.BindConstantBufferCount = 3

	MetricsReset()

	if m.BindViewportCount != 0 || m.BindConstantBufferCount != 0 {
		t.Errorf("counters survived reset: viewport=%d constant=%d",
			m.BindViewportCount, m.BindConstantBufferCount)
	}
	if Metrics() != m {
		t.Error("reset replaced the singleton instead of zeroing it")
	}
}
