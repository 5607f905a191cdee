package core

import "sync"

// MetricsState accumulates per-frame bind counts, one counter per pipeline
// state category. The renderer resets it at the start of every frame.
type MetricsState struct {
	BindViewportCount       uint64
	BindVertexShaderCount   uint64
	BindPixelShaderCount    uint64
	BindTopologyCount       uint64
	BindInputLayoutCount    uint64
	BindCullModeCount       uint64
	BindFillModeCount       uint64
	BindSamplerCount        uint64
	BindTextureCount        uint64
	BindBufferIndexCount    uint64
	BindBufferVertexCount   uint64
	BindConstantBufferCount uint64
}

var onceMetrics sync.Once
var metricsState *MetricsState = nil

func MetricsInitialize() error {
	onceMetrics.Do(func() {
		metricsState = &MetricsState{}
	})
	return nil
}

func Metrics() *MetricsState {
	MetricsInitialize()
	return metricsState
}

func MetricsReset() {
	MetricsInitialize()
	*metricsState = MetricsState{}
}
