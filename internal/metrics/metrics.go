package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Simple Prometheus-style metrics for HTTP requests and job lifecycles.
// This is intentionally minimal and in-memory only.

var (
	mu             sync.RWMutex
	requestsTotal  = make(map[reqKey]int64)
	latencyMsSum   = make(map[latKey]int64)
	latencyMsCount = make(map[latKey]int64)

	jobsSubmitted = make(map[string]int64)
	jobsFinished  = make(map[jobKey]int64)

	janitorRuns        int64
	janitorSweptTotal  int64
	retentionJobsTotal = make(map[string]int64)
)

type reqKey struct {
	Method string
	Path   string
	Status int
}

type latKey struct {
	Method string
	Path   string
}

type jobKey struct {
	Kind   string
	Status string
}

// RecordRequest increments request counter and records latency.
func RecordRequest(method, path string, status int, latencyMs int64) {
	mu.Lock()
	defer mu.Unlock()

	rk := reqKey{Method: method, Path: path, Status: status}
	requestsTotal[rk]++

	lk := latKey{Method: method, Path: path}
	latencyMsSum[lk] += latencyMs
	latencyMsCount[lk]++
}

// RecordJobSubmitted increments the submitted counter for a job kind.
func RecordJobSubmitted(kind string) {
	mu.Lock()
	defer mu.Unlock()
	jobsSubmitted[kind]++
}

// RecordJobFinished increments the terminal-state counter for a job kind.
func RecordJobFinished(kind, status string) {
	mu.Lock()
	defer mu.Unlock()
	jobsFinished[jobKey{Kind: kind, Status: status}]++
}

// RecordJanitorSwept records one janitor run and how many jobs it failed.
func RecordJanitorSwept(count int) {
	mu.Lock()
	defer mu.Unlock()
	janitorRuns++
	if count > 0 {
		janitorSweptTotal += int64(count)
	}
}

// RecordRetentionJobs increments the counter of jobs deleted by TTL for
// a given kind group.
func RecordRetentionJobs(group string, deleted int64) {
	if deleted <= 0 {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	retentionJobsTotal[group] += deleted
}

// Export returns Prometheus-style metrics text.
func Export() string {
	mu.RLock()
	defer mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP mediaforge_http_requests_total Total HTTP requests\n")
	b.WriteString("# TYPE mediaforge_http_requests_total counter\n")

	// Sort keys for stable output
	var reqKeys []reqKey
	for k := range requestsTotal {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		if reqKeys[i].Method != reqKeys[j].Method {
			return reqKeys[i].Method < reqKeys[j].Method
		}
		if reqKeys[i].Path != reqKeys[j].Path {
			return reqKeys[i].Path < reqKeys[j].Path
		}
		return reqKeys[i].Status < reqKeys[j].Status
	})

	for _, k := range reqKeys {
		fmt.Fprintf(&b, "mediaforge_http_requests_total{method=\"%s\",path=\"%s\",status=\"%d\"} %d\n",
			k.Method, k.Path, k.Status, requestsTotal[k])
	}

	b.WriteString("# HELP mediaforge_http_request_duration_ms_sum Total request duration in milliseconds\n")
	b.WriteString("# TYPE mediaforge_http_request_duration_ms_sum counter\n")
	b.WriteString("# HELP mediaforge_http_request_duration_ms_count Request count for latency metric\n")
	b.WriteString("# TYPE mediaforge_http_request_duration_ms_count counter\n")

	var latKeys []latKey
	for k := range latencyMsSum {
		latKeys = append(latKeys, k)
	}
	sort.Slice(latKeys, func(i, j int) bool {
		if latKeys[i].Method != latKeys[j].Method {
			return latKeys[i].Method < latKeys[j].Method
		}
		return latKeys[i].Path < latKeys[j].Path
	})

	for _, k := range latKeys {
		fmt.Fprintf(&b, "mediaforge_http_request_duration_ms_sum{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, latencyMsSum[k])
		fmt.Fprintf(&b, "mediaforge_http_request_duration_ms_count{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, latencyMsCount[k])
	}

	b.WriteString("# HELP mediaforge_jobs_submitted_total Total jobs submitted by kind\n")
	b.WriteString("# TYPE mediaforge_jobs_submitted_total counter\n")

	var kinds []string
	for k := range jobsSubmitted {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(&b, "mediaforge_jobs_submitted_total{kind=\"%s\"} %d\n", k, jobsSubmitted[k])
	}

	b.WriteString("# HELP mediaforge_jobs_finished_total Total jobs reaching a terminal state by kind and status\n")
	b.WriteString("# TYPE mediaforge_jobs_finished_total counter\n")

	var jobKeys []jobKey
	for k := range jobsFinished {
		jobKeys = append(jobKeys, k)
	}
	sort.Slice(jobKeys, func(i, j int) bool {
		if jobKeys[i].Kind != jobKeys[j].Kind {
			return jobKeys[i].Kind < jobKeys[j].Kind
		}
		return jobKeys[i].Status < jobKeys[j].Status
	})
	for _, k := range jobKeys {
		fmt.Fprintf(&b, "mediaforge_jobs_finished_total{kind=\"%s\",status=\"%s\"} %d\n", k.Kind, k.Status, jobsFinished[k])
	}

	b.WriteString("# HELP mediaforge_janitor_runs_total Total janitor sweeps\n")
	b.WriteString("# TYPE mediaforge_janitor_runs_total counter\n")
	fmt.Fprintf(&b, "mediaforge_janitor_runs_total %d\n", janitorRuns)

	b.WriteString("# HELP mediaforge_janitor_timed_out_jobs_total Total jobs failed by the janitor\n")
	b.WriteString("# TYPE mediaforge_janitor_timed_out_jobs_total counter\n")
	fmt.Fprintf(&b, "mediaforge_janitor_timed_out_jobs_total %d\n", janitorSweptTotal)

	b.WriteString("# HELP mediaforge_retention_jobs_deleted_total Total jobs deleted by TTL\n")
	b.WriteString("# TYPE mediaforge_retention_jobs_deleted_total counter\n")

	var groups []string
	for g := range retentionJobsTotal {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		fmt.Fprintf(&b, "mediaforge_retention_jobs_deleted_total{group=\"%s\"} %d\n", g, retentionJobsTotal[g])
	}

	return b.String()
}
