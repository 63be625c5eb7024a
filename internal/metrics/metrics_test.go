package metrics_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scriptdeck/scriptdeck/internal/metrics"
)

func TestRegistryExposesMetrics(t *testing.T) {
	metrics.EmitBuildInfo()
	metrics.SetJobsRunning(3)
	metrics.IncScriptExit("metrics_test_script")
	metrics.AddPortKillAttempts(2)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("unexpected status code from metrics handler: %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "scriptdeck_jobs_running 3") {
		t.Fatalf("expected jobs gauge in body:\n%s", body)
	}
	if !strings.Contains(body, "scriptdeck_script_exits_total{script=\"metrics_test_script\"} 1") {
		t.Fatalf("expected exit counter in body:\n%s", body)
	}
	if !strings.Contains(body, "scriptdeck_build_info{") {
		t.Fatalf("expected build info metric in body:\n%s", body)
	}
	if !strings.Contains(body, "go_version=") {
		t.Fatalf("expected go_version label on build info metric:\n%s", body)
	}
}
