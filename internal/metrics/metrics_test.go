package metrics

import (
	"strings"
	"testing"
)

func TestRecordRequestAndExport(t *testing.T) {
	// Record a single request and ensure it appears in the export.
	RecordRequest("GET", "/v1/jobs", 200, 42)

	out := Export()
	if !strings.Contains(out, "mediaforge_http_requests_total{method=\"GET\",path=\"/v1/jobs\",status=\"200\"}") {
		t.Fatalf("expected HTTP request metric for GET /v1/jobs in export, got:\n%s", out)
	}
	if !strings.Contains(out, "mediaforge_http_request_duration_ms_sum") || !strings.Contains(out, "mediaforge_http_request_duration_ms_count") {
		t.Fatalf("expected latency metrics headers in export, got:\n%s", out)
	}
}

func TestRecordJobMetrics(t *testing.T) {
	RecordJobSubmitted("sora-2-video")
	RecordJobFinished("sora-2-video", "failed")

	out := Export()
	if !strings.Contains(out, "mediaforge_jobs_submitted_total{kind=\"sora-2-video\"}") {
		t.Fatalf("expected jobs_submitted_total for sora-2-video, got:\n%s", out)
	}
	if !strings.Contains(out, "mediaforge_jobs_finished_total{kind=\"sora-2-video\",status=\"failed\"}") {
		t.Fatalf("expected jobs_finished_total for sora-2-video/failed, got:\n%s", out)
	}
}

func TestRecordJanitorAndRetention(t *testing.T) {
	RecordJanitorSwept(3)
	RecordRetentionJobs("image", 2)
	RecordRetentionJobs("video", 0)

	out := Export()
	if !strings.Contains(out, "mediaforge_janitor_runs_total") {
		t.Fatalf("expected janitor_runs_total in export, got:\n%s", out)
	}
	if !strings.Contains(out, "mediaforge_retention_jobs_deleted_total{group=\"image\"}") {
		t.Fatalf("expected retention counter for image group, got:\n%s", out)
	}
	if strings.Contains(out, "mediaforge_retention_jobs_deleted_total{group=\"video\"}") {
		t.Fatalf("zero deletions should not create a series, got:\n%s", out)
	}
}
