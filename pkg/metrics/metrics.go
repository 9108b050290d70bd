// Metrics collection for the macro generator service
//
// Prometheus-compatible counters, gauges and histograms with labels,
// gathered through a Registry in the Prometheus text exposition format.
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MetricType represents the type of metric
type MetricType int

const (
	TypeCounter MetricType = iota
	TypeGauge
	TypeHistogram
)

func (t MetricType) String() string {
	switch t {
	case TypeCounter:
		return "counter"
	case TypeGauge:
		return "gauge"
	case TypeHistogram:
		return "histogram"
	default:
		return "unknown"
	}
}

// Labels represents metric labels as key-value pairs
type Labels map[string]string

// sortedKeys returns the label names in order
func (l Labels) sortedKeys() []string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// key identifies a label set inside one metric
func (l Labels) key() string {
	var sb strings.Builder
	for i, k := range l.sortedKeys() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(l[k])
	}
	return sb.String()
}

// String returns labels in Prometheus format
func (l Labels) String() string {
	if len(l) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range l.sortedKeys() {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%s=\"%s\"", k, escapeLabel(l[k]))
	}
	sb.WriteByte('}')
	return sb.String()
}

func (l Labels) clone() Labels {
	out := make(Labels, len(l)+1)
	for k, v := range l {
		out[k] = v
	}
	return out
}

// with returns a copy of l with one extra label
func (l Labels) with(k, v string) Labels {
	out := l.clone()
	out[k] = v
	return out
}

// escapeLabel escapes special characters in label values
func escapeLabel(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s)
}

// formatFloat formats a float64 for Prometheus output
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Metric is the interface for all metric types
type Metric interface {
	Name() string
	Help() string
	Type() MetricType
	Write(sb *strings.Builder)
}

func writeHeader(sb *strings.Builder, m Metric) {
	fmt.Fprintf(sb, "# HELP %s %s\n# TYPE %s %s\n", m.Name(), m.Help(), m.Name(), m.Type())
}

// series holds the per-label-set values of one metric. Output is sorted by
// label key so scrapes are stable.
type series[T any] struct {
	mu     sync.RWMutex
	values map[string]T
	labels map[string]Labels
}

func (s *series[T]) load(labels Labels, create func() T) T {
	key := labels.key()
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if ok {
		return v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	if s.values == nil {
		s.values = make(map[string]T)
		s.labels = make(map[string]Labels)
	}
	v = create()
	s.values[key] = v
	s.labels[key] = labels.clone()
	return v
}

func (s *series[T]) get(labels Labels) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[labels.key()]
	return v, ok
}

func (s *series[T]) each(fn func(Labels, T)) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	for _, k := range keys {
		s.mu.RLock()
		v, l := s.values[k], s.labels[k]
		s.mu.RUnlock()
		fn(l, v)
	}
}

// Counter is a monotonically increasing metric
type Counter struct {
	name   string
	help   string
	values series[*uint64]
}

// NewCounter creates a new counter metric
func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Name() string     { return c.name }
func (c *Counter) Help() string     { return c.help }
func (c *Counter) Type() MetricType { return TypeCounter }

// Inc increments the counter by 1
func (c *Counter) Inc(labels Labels) {
	c.Add(labels, 1)
}

// Add increments the counter by the given value
func (c *Counter) Add(labels Labels, delta uint64) {
	v := c.values.load(labels, func() *uint64 { return new(uint64) })
	atomic.AddUint64(v, delta)
}

// Get returns the current counter value for labels
func (c *Counter) Get(labels Labels) uint64 {
	v, ok := c.values.get(labels)
	if !ok {
		return 0
	}
	return atomic.LoadUint64(v)
}

func (c *Counter) Write(sb *strings.Builder) {
	writeHeader(sb, c)
	c.values.each(func(l Labels, v *uint64) {
		fmt.Fprintf(sb, "%s%s %d\n", c.name, l, atomic.LoadUint64(v))
	})
}

// Gauge is a metric that can go up and down
type Gauge struct {
	name   string
	help   string
	values series[*gaugeValue]
}

type gaugeValue struct {
	mu    sync.Mutex
	value float64
}

// NewGauge creates a new gauge metric
func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

func (g *Gauge) Name() string     { return g.name }
func (g *Gauge) Help() string     { return g.help }
func (g *Gauge) Type() MetricType { return TypeGauge }

func (g *Gauge) value(labels Labels) *gaugeValue {
	return g.values.load(labels, func() *gaugeValue { return &gaugeValue{} })
}

// Set sets the gauge to the given value
func (g *Gauge) Set(labels Labels, value float64) {
	gv := g.value(labels)
	gv.mu.Lock()
	gv.value = value
	gv.mu.Unlock()
}

// Add adds the given value to the gauge
func (g *Gauge) Add(labels Labels, delta float64) {
	gv := g.value(labels)
	gv.mu.Lock()
	gv.value += delta
	gv.mu.Unlock()
}

// Inc increments the gauge by 1
func (g *Gauge) Inc(labels Labels) { g.Add(labels, 1) }

// Dec decrements the gauge by 1
func (g *Gauge) Dec(labels Labels) { g.Add(labels, -1) }

// Get returns the current gauge value for labels
func (g *Gauge) Get(labels Labels) float64 {
	gv, ok := g.values.get(labels)
	if !ok {
		return 0
	}
	gv.mu.Lock()
	defer gv.mu.Unlock()
	return gv.value
}

func (g *Gauge) Write(sb *strings.Builder) {
	writeHeader(sb, g)
	g.values.each(func(l Labels, gv *gaugeValue) {
		gv.mu.Lock()
		v := gv.value
		gv.mu.Unlock()
		fmt.Fprintf(sb, "%s%s %s\n", g.name, l, formatFloat(v))
	})
}

// Histogram tracks the distribution of observations
type Histogram struct {
	name    string
	help    string
	buckets []float64
	values  series[*histogramValue]
}

// histogramValue keeps per-bucket (not cumulative) counts
type histogramValue struct {
	mu      sync.Mutex
	count   uint64
	sum     float64
	buckets []uint64
}

// NewHistogram creates a new histogram metric with the given upper bounds
func NewHistogram(name, help string, buckets []float64) *Histogram {
	sorted := make([]float64, len(buckets))
	copy(sorted, buckets)
	sort.Float64s(sorted)
	return &Histogram{name: name, help: help, buckets: sorted}
}

// DefaultBuckets returns default histogram buckets for latency metrics
func DefaultBuckets() []float64 {
	return []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1}
}

// ExponentialBuckets creates count buckets starting at start with factor multiplier
func ExponentialBuckets(start, factor float64, count int) []float64 {
	buckets := make([]float64, count)
	for i := 0; i < count; i++ {
		buckets[i] = start
		start *= factor
	}
	return buckets
}

func (h *Histogram) Name() string     { return h.name }
func (h *Histogram) Help() string     { return h.help }
func (h *Histogram) Type() MetricType { return TypeHistogram }

// Observe records a value in the histogram
func (h *Histogram) Observe(labels Labels, value float64) {
	hv := h.values.load(labels, func() *histogramValue {
		return &histogramValue{buckets: make([]uint64, len(h.buckets))}
	})
	idx := sort.SearchFloat64s(h.buckets, value)
	hv.mu.Lock()
	hv.count++
	hv.sum += value
	if idx < len(h.buckets) {
		hv.buckets[idx]++
	}
	hv.mu.Unlock()
}

// Timer returns a function that records the elapsed time when called
func (h *Histogram) Timer(labels Labels) func() {
	start := time.Now()
	return func() {
		h.Observe(labels, time.Since(start).Seconds())
	}
}

// HistogramSnapshot contains a point-in-time snapshot of histogram values.
// Buckets are cumulative, keyed by upper bound.
type HistogramSnapshot struct {
	Count   uint64
	Sum     float64
	Buckets map[float64]uint64
}

// GetSnapshot returns a snapshot of histogram values for the given labels
func (h *Histogram) GetSnapshot(labels Labels) HistogramSnapshot {
	snap := HistogramSnapshot{Buckets: make(map[float64]uint64, len(h.buckets))}
	hv, ok := h.values.get(labels)
	if !ok {
		return snap
	}
	hv.mu.Lock()
	defer hv.mu.Unlock()

	cumulative := uint64(0)
	for i, bound := range h.buckets {
		cumulative += hv.buckets[i]
		snap.Buckets[bound] = cumulative
	}
	snap.Count = hv.count
	snap.Sum = hv.sum
	return snap
}

func (h *Histogram) Write(sb *strings.Builder) {
	writeHeader(sb, h)
	h.values.each(func(l Labels, hv *histogramValue) {
		hv.mu.Lock()
		count, sum := hv.count, hv.sum
		counts := make([]uint64, len(hv.buckets))
		copy(counts, hv.buckets)
		hv.mu.Unlock()

		cumulative := uint64(0)
		for i, bound := range h.buckets {
			cumulative += counts[i]
			fmt.Fprintf(sb, "%s_bucket%s %d\n", h.name, l.with("le", formatFloat(bound)), cumulative)
		}
		fmt.Fprintf(sb, "%s_bucket%s %d\n", h.name, l.with("le", "+Inf"), count)
		fmt.Fprintf(sb, "%s_sum%s %s\n", h.name, l, formatFloat(sum))
		fmt.Fprintf(sb, "%s_count%s %d\n", h.name, l, count)
	})
}

// Registry holds all registered metrics
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]Metric
	order   []string // Preserve registration order
}

// NewRegistry creates a new metrics registry
func NewRegistry() *Registry {
	return &Registry{
		metrics: make(map[string]Metric),
	}
}

// Register adds a metric to the registry
func (r *Registry) Register(metric Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := metric.Name()
	if _, exists := r.metrics[name]; exists {
		return fmt.Errorf("metric %q already registered", name)
	}
	r.metrics[name] = metric
	r.order = append(r.order, name)
	return nil
}

// MustRegister adds a metric and panics on error
func (r *Registry) MustRegister(metric Metric) {
	if err := r.Register(metric); err != nil {
		panic(err)
	}
}

// Get returns a metric by name
func (r *Registry) Get(name string) Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metrics[name]
}

// Gather collects all metrics in Prometheus text format
func (r *Registry) Gather() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	for _, name := range r.order {
		r.metrics[name].Write(&sb)
	}
	return sb.String()
}
