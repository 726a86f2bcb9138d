package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics records process resource usage, sampled once at the end
// of a command so the metrics textfile carries it.
type RuntimeMetrics struct {
	goroutines  metric.Int64Gauge
	heapBytes   metric.Int64Gauge
	systemBytes metric.Int64Gauge
	totalAlloc  metric.Int64Gauge
	gcCycles    metric.Int64Gauge
	uptime      metric.Float64Gauge
	lastGCPause metric.Float64Gauge
}

// RuntimeStats is one sample of the Go runtime
type RuntimeStats struct {
	Goroutines  int
	HeapBytes   uint64
	SystemBytes uint64
	TotalAlloc  uint64
	GCCycles    uint32
	LastGCPause time.Duration
	Uptime      time.Duration
}

// NewRuntimeMetrics creates the runtime instruments on meter
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	goroutines, err := meter.Int64Gauge(
		"process_goroutines",
		metric.WithDescription("Number of live goroutines"),
	)
	if err != nil {
		return nil, err
	}

	heapBytes, err := meter.Int64Gauge(
		"process_heap_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	systemBytes, err := meter.Int64Gauge(
		"process_runtime_system_bytes",
		metric.WithDescription("Bytes obtained from the OS by the Go runtime"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	totalAlloc, err := meter.Int64Gauge(
		"process_allocated_bytes",
		metric.WithDescription("Cumulative bytes allocated for heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCycles, err := meter.Int64Gauge(
		"process_gc_cycles",
		metric.WithDescription("Completed garbage collection cycles"),
	)
	if err != nil {
		return nil, err
	}

	uptime, err := meter.Float64Gauge(
		"process_uptime_seconds",
		metric.WithDescription("Time since the command started"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	lastGCPause, err := meter.Float64Gauge(
		"process_last_gc_pause_seconds",
		metric.WithDescription("Duration of the most recent GC pause"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		goroutines:  goroutines,
		heapBytes:   heapBytes,
		systemBytes: systemBytes,
		totalAlloc:  totalAlloc,
		gcCycles:    gcCycles,
		uptime:      uptime,
		lastGCPause: lastGCPause,
	}, nil
}

// Collect samples the runtime and records the sample. A nil receiver
// only samples.
func (m *RuntimeMetrics) Collect(ctx context.Context, started time.Time) RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := RuntimeStats{
		Goroutines:  runtime.NumGoroutine(),
		HeapBytes:   mem.HeapAlloc,
		SystemBytes: mem.Sys,
		TotalAlloc:  mem.TotalAlloc,
		GCCycles:    mem.NumGC,
		Uptime:      time.Since(started),
	}
	if mem.NumGC > 0 {
		stats.LastGCPause = time.Duration(mem.PauseNs[(mem.NumGC+255)%256])
	}
	if m == nil {
		return stats
	}

	m.goroutines.Record(ctx, int64(stats.Goroutines))
	m.heapBytes.Record(ctx, int64(stats.HeapBytes))
	m.systemBytes.Record(ctx, int64(stats.SystemBytes))
	m.totalAlloc.Record(ctx, int64(stats.TotalAlloc))
	m.gcCycles.Record(ctx, int64(stats.GCCycles))
	m.uptime.Record(ctx, stats.Uptime.Seconds())
	m.lastGCPause.Record(ctx, stats.LastGCPause.Seconds())
	return stats
}
