// Package metrics defines the Prometheus metrics of the portal.
//
// Metric naming follows Prometheus conventions:
//   - danesh_ prefix for all custom metrics
//   - _total suffix for counters
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// LoginsTotal counts login attempts by result (success, failure, error).
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danesh_logins_total",
			Help: "Total number of login attempts by result.",
		},
		[]string{"result"},
	)

	// RegistrationsTotal counts self-registrations by result.
	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danesh_registrations_total",
			Help: "Total number of account registrations by result.",
		},
		[]string{"result"},
	)

	// SessionsTotal counts session lifecycle events (created, destroyed).
	SessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danesh_sessions_total",
			Help: "Total number of session lifecycle events.",
		},
		[]string{"event"},
	)

	// AccessDeniedTotal counts requests rejected by the access guard by
	// status (401, 403).
	AccessDeniedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danesh_access_denied_total",
			Help: "Total number of requests rejected by the access guard.",
		},
		[]string{"status"},
	)

	// ContentMutationsTotal counts successful content changes by resource and action.
	ContentMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danesh_content_mutations_total",
			Help: "Total number of content changes by resource and action.",
		},
		[]string{"resource", "action"},
	)

	// UploadedBytesTotal counts bytes stored by the upload endpoint.
	UploadedBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "danesh_uploaded_bytes_total",
			Help: "Total number of uploaded bytes.",
		},
	)

	// JobRunsTotal counts maintenance job runs by job and result.
	JobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "danesh_job_runs_total",
			Help: "Total number of maintenance job runs by job and result.",
		},
		[]string{"job", "result"},
	)
)

// Registry holds all portal metrics plus the Go and process collectors
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		LoginsTotal,
		RegistrationsTotal,
		SessionsTotal,
		AccessDeniedTotal,
		ContentMutationsTotal,
		UploadedBytesTotal,
		JobRunsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}
