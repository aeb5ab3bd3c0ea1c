// Package metrics documents the Prometheus metrics exposed by the
// harvester. All metrics are defined in their owning packages via promauto
// to keep registration next to the instrumented code.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the harvester.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Upstream API Metrics (pkg/wcl):
//   - wcl_requests_total{query, status} (Counter): Requests by query shape
//     (token, encounters, rankings, rate_limit_data) and HTTP status
//   - wcl_request_duration_seconds{query} (Histogram): Request duration
//
// Quota Metrics (pkg/quota):
//   - wcl_quota_points_remaining (Gauge): Remaining upstream point budget
//   - wcl_quota_blocks_total (Counter): Requests refused at critical budget
//   - wcl_quota_throttles_total (Counter): Requests slowed in the warning band
//
// Run Metrics (pkg/executor):
//   - wcl_jobs_total{state} (Counter): Jobs by terminal state
//   - wcl_rows_inserted_total (Counter): Rows handed to the sink
//   - wcl_job_duration_seconds (Histogram): Per-job fetch+persist duration
//
// Example Prometheus Queries:
//
//   # Job failure rate
//   rate(wcl_jobs_total{state="failed"}[5m]) / rate(wcl_jobs_total[5m])
//
//   # Budget exhaustion alert
//   wcl_quota_points_remaining < 300
//
//   # P95 job duration
//   histogram_quantile(0.95, rate(wcl_job_duration_seconds_bucket[5m]))
