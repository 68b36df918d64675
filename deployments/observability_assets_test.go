package deployments

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestGrafanaDashboardJSONIsValid(t *testing.T) {
	root := repoRoot(t)
	path := filepath.Join(root, "deployments", "observability", "grafana", "textsql_overview_dashboard.json")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read dashboard file: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("dashboard JSON parse error: %v", err)
	}

	title, _ := decoded["title"].(string)
	if strings.TrimSpace(title) == "" {
		t.Fatal("dashboard title is required")
	}
	panels, ok := decoded["panels"].([]any)
	if !ok || len(panels) == 0 {
		t.Fatal("dashboard must include at least one panel")
	}
}

func TestPrometheusRulesReferenceRecordedSeries(t *testing.T) {
	root := repoRoot(t)
	alerts := readAsset(t, root, "textsql_rules.yaml")
	recording := readAsset(t, root, "textsql_recording_rules.yaml")

	requiredAlerts := map[string]string{
		"TextSQLHTTPErrorRateHigh":     "textsql:slo_http_error_rate_5m",
		"TextSQLAskLatencyP95High":     "textsql:slo_ask_latency_seconds_p95",
		"TextSQLExecuteLatencyP95High": "textsql:slo_execute_latency_seconds_p95",
		"TextSQLModelFallbackDominant": "textsql:slo_fallback_ratio_15m",
		"TextSQLModelLoadFailing":      "textsql:slo_model_load_failures_30m",
		"TextSQLExecuteErrorsHigh":     "textsql:slo_execute_error_ratio_15m",
	}
	for alertName, record := range requiredAlerts {
		if !strings.Contains(alerts, "alert: "+alertName) {
			t.Fatalf("rules missing alert %q", alertName)
		}
		if !strings.Contains(alerts, record) {
			t.Fatalf("rules missing metric reference %q", record)
		}
		if !strings.Contains(recording, "record: "+record) {
			t.Fatalf("recording rules missing record %q", record)
		}
	}
}

func TestRecordingRulesUseExportedMetrics(t *testing.T) {
	recording := readAsset(t, repoRoot(t), "textsql_recording_rules.yaml")

	for _, metric := range []string{
		"textsql_http_requests_total",
		"textsql_http_request_duration_seconds_bucket",
		"textsql_execute_duration_seconds_bucket",
		"textsql_resolve_total",
		"textsql_execute_total",
		"textsql_model_load_failures_total",
	} {
		if !strings.Contains(recording, metric) {
			t.Fatalf("recording rules do not use %q", metric)
		}
	}
}

func TestPrometheusScrapeExampleContainsMetricsPathAndRules(t *testing.T) {
	text := readAsset(t, repoRoot(t), "prometheus-scrape.example.yaml")

	for _, token := range []string{
		"metrics_path: /v1/metrics",
		"textsql_rules.yaml",
		"textsql_recording_rules.yaml",
		"job_name: textsql-api",
	} {
		if !strings.Contains(text, token) {
			t.Fatalf("scrape example missing %q", token)
		}
	}
}

func readAsset(t *testing.T, root, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(root, "deployments", "observability", "prometheus", name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(content)
}

func repoRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(filename), ".."))
}
