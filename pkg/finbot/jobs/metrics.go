// Package jobs – metrics.go defines the Prometheus instruments for the
// periodic jobs.
package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finbot",
		Name:      "job_messages_sent_total",
		Help:      "Outbound messages sent by periodic jobs.",
	}, []string{"job"})

	jobSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finbot",
		Name:      "job_user_skips_total",
		Help:      "Users skipped by a job run, by reason.",
	}, []string{"job", "reason"})

	jobFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finbot",
		Name:      "job_failures_total",
		Help:      "Per-user job build or send failures.",
	}, []string{"job"})
)
