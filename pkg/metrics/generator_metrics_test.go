// Tests for generator service metrics
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package metrics

import (
	"strings"
	"testing"
	"time"
)

func TestGeneratorMetricsRegistered(t *testing.T) {
	gm := NewGeneratorMetrics()
	for _, name := range []string{
		"macrogen_http_requests_total",
		"macrogen_http_request_duration_seconds",
		"macrogen_documents_generated_total",
		"macrogen_validation_blocking_total",
		"macrogen_validation_advisory_total",
		"macrogen_live_connections",
		"macrogen_profile_reloads_total",
		"macrogen_uptime_seconds",
	} {
		if gm.Registry().Get(name) == nil {
			t.Errorf("metric %s not registered", name)
		}
	}
	if gm.StartTime.Get(nil) == 0 {
		t.Error("start time should be set")
	}
}

func TestGeneratorMetricsRecord(t *testing.T) {
	gm := NewGeneratorMetrics()

	gm.RecordRequest("/api/v1/generate", 200, 20*time.Millisecond)
	gm.RecordRequest("/api/v1/generate", 422, time.Millisecond)
	gm.RecordDocument("corexy", 4096)
	gm.RecordViolation("margin_exceeds_half_bed", true)
	gm.RecordViolation("bed_temp_magnet", false)
	gm.RecordReload(true)
	gm.RecordReload(false)
	gm.RecordReload(false)

	if v := gm.RequestsTotal.Get(Labels{"route": "/api/v1/generate", "status": "422"}); v != 1 {
		t.Errorf("expected one 422, got %d", v)
	}
	if c := gm.RequestDuration.GetSnapshot(Labels{"route": "/api/v1/generate"}).Count; c != 2 {
		t.Errorf("expected 2 timed requests, got %d", c)
	}
	if v := gm.DocumentsGenerated.Get(Labels{"archetype": "corexy"}); v != 1 {
		t.Errorf("expected one document, got %d", v)
	}
	if v := gm.ValidationBlocked.Get(Labels{"code": "margin_exceeds_half_bed"}); v != 1 {
		t.Errorf("expected one blocking violation, got %d", v)
	}
	if v := gm.ValidationAdvisory.Get(Labels{"code": "bed_temp_magnet"}); v != 1 {
		t.Errorf("expected one advisory, got %d", v)
	}
	if v := gm.ProfileReloads.Get(Labels{"result": "error"}); v != 2 {
		t.Errorf("expected 2 failed reloads, got %d", v)
	}
}

func TestGeneratorMetricsGather(t *testing.T) {
	gm := NewGeneratorMetrics()
	gm.LiveConnections.Inc(nil)

	output := gm.Gather()
	if !strings.Contains(output, "macrogen_live_connections 1\n") {
		t.Errorf("missing live connection gauge:\n%s", output)
	}
	if gm.GoRoutines.Get(nil) < 1 {
		t.Error("Gather should refresh the goroutine gauge")
	}
}

func TestGlobalMetricsSingleton(t *testing.T) {
	if GlobalMetrics() != GlobalMetrics() {
		t.Error("GlobalMetrics should return one instance")
	}
}
