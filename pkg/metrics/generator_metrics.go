// Generator service metrics
//
// Named metrics for the macro generator: HTTP traffic, documents produced,
// validation outcomes, live editor sessions and profile reloads.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"runtime"
	"strconv"
	"sync"
	"time"
)

// GeneratorMetrics holds every metric the generator exports.
type GeneratorMetrics struct {
	registry *Registry

	RequestsTotal   *Counter
	RequestDuration *Histogram

	DocumentsGenerated *Counter
	DocumentBytes      *Histogram
	ValidationBlocked  *Counter
	ValidationAdvisory *Counter

	LiveConnections *Gauge
	LiveMessages    *Counter

	ProfileReloads *Counter
	FilesWritten   *Counter

	// Process metrics
	GoRoutines    *Gauge
	HeapAllocated *Gauge
	GCPauseTotal  *Gauge
	StartTime     *Gauge
	UptimeSeconds *Gauge

	startTime time.Time
}

// NewGeneratorMetrics creates a registry populated with the generator's metrics.
func NewGeneratorMetrics() *GeneratorMetrics {
	gm := &GeneratorMetrics{
		registry:  NewRegistry(),
		startTime: time.Now(),

		RequestsTotal: NewCounter("macrogen_http_requests_total",
			"HTTP requests by route and status code"),
		RequestDuration: NewHistogram("macrogen_http_request_duration_seconds",
			"HTTP request latency", DefaultBuckets()),

		DocumentsGenerated: NewCounter("macrogen_documents_generated_total",
			"Macro documents generated by archetype"),
		DocumentBytes: NewHistogram("macrogen_document_bytes",
			"Size of generated macro documents", ExponentialBuckets(1024, 2, 8)),
		ValidationBlocked: NewCounter("macrogen_validation_blocking_total",
			"Blocking validation violations by code"),
		ValidationAdvisory: NewCounter("macrogen_validation_advisory_total",
			"Advisory validation violations by code"),

		LiveConnections: NewGauge("macrogen_live_connections",
			"Open live editor websocket connections"),
		LiveMessages: NewCounter("macrogen_live_messages_total",
			"Profiles received over live editor connections"),

		ProfileReloads: NewCounter("macrogen_profile_reloads_total",
			"Profile file reloads by result"),
		FilesWritten: NewCounter("macrogen_files_written_total",
			"Macro files written to disk"),

		GoRoutines:    NewGauge("macrogen_goroutines", "Number of goroutines"),
		HeapAllocated: NewGauge("macrogen_heap_alloc_bytes", "Heap bytes allocated"),
		GCPauseTotal:  NewGauge("macrogen_gc_pause_total_seconds", "Total GC pause time"),
		StartTime:     NewGauge("macrogen_start_time_seconds", "Process start time as unix timestamp"),
		UptimeSeconds: NewGauge("macrogen_uptime_seconds", "Process uptime"),
	}
	gm.registerAll()
	gm.StartTime.Set(nil, float64(gm.startTime.Unix()))
	return gm
}

func (gm *GeneratorMetrics) registerAll() {
	for _, m := range []Metric{
		gm.RequestsTotal, gm.RequestDuration,
		gm.DocumentsGenerated, gm.DocumentBytes,
		gm.ValidationBlocked, gm.ValidationAdvisory,
		gm.LiveConnections, gm.LiveMessages,
		gm.ProfileReloads, gm.FilesWritten,
		gm.GoRoutines, gm.HeapAllocated, gm.GCPauseTotal,
		gm.StartTime, gm.UptimeSeconds,
	} {
		gm.registry.MustRegister(m)
	}
}

// Registry returns the underlying registry.
func (gm *GeneratorMetrics) Registry() *Registry {
	return gm.registry
}

// RecordRequest records one served HTTP request.
func (gm *GeneratorMetrics) RecordRequest(route string, status int, elapsed time.Duration) {
	gm.RequestsTotal.Inc(Labels{"route": route, "status": strconv.Itoa(status)})
	gm.RequestDuration.Observe(Labels{"route": route}, elapsed.Seconds())
}

// RecordDocument records a generated document.
func (gm *GeneratorMetrics) RecordDocument(archetype string, size int) {
	gm.DocumentsGenerated.Inc(Labels{"archetype": archetype})
	gm.DocumentBytes.Observe(nil, float64(size))
}

// RecordViolation counts one validation violation by code.
func (gm *GeneratorMetrics) RecordViolation(code string, blocking bool) {
	if blocking {
		gm.ValidationBlocked.Inc(Labels{"code": code})
		return
	}
	gm.ValidationAdvisory.Inc(Labels{"code": code})
}

// RecordReload records a profile reload; ok is false when the profile
// failed to load or validate.
func (gm *GeneratorMetrics) RecordReload(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	gm.ProfileReloads.Inc(Labels{"result": result})
}

// UpdateSystemMetrics refreshes the process gauges.
func (gm *GeneratorMetrics) UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	gm.GoRoutines.Set(nil, float64(runtime.NumGoroutine()))
	gm.HeapAllocated.Set(nil, float64(m.HeapAlloc))
	gm.GCPauseTotal.Set(nil, float64(m.PauseTotalNs)/1e9)
	gm.UptimeSeconds.Set(nil, time.Since(gm.startTime).Seconds())
}

// Gather refreshes the process gauges and returns all metrics in
// Prometheus text format.
func (gm *GeneratorMetrics) Gather() string {
	gm.UpdateSystemMetrics()
	return gm.registry.Gather()
}

var (
	globalMetrics     *GeneratorMetrics
	globalMetricsOnce sync.Once
)

// GlobalMetrics returns the process-wide metrics instance.
func GlobalMetrics() *GeneratorMetrics {
	globalMetricsOnce.Do(func() {
		globalMetrics = NewGeneratorMetrics()
	})
	return globalMetrics
}
