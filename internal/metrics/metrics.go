package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Workflow counters exposed on /metrics.
var (
	AwardsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "communityhub_awards_issued_total",
		Help: "Badge+certificate pairs issued successfully.",
	})

	AwardsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "communityhub_awards_failed_total",
		Help: "Award issuance attempts that failed (after compensation).",
	})

	NotificationsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "communityhub_notifications_queued_total",
		Help: "Notification jobs published to the queue.",
	})

	NotificationsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "communityhub_notifications_processed_total",
		Help: "Notification jobs persisted by the worker.",
	})

	UploadsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "communityhub_uploads_failed_total",
		Help: "Asset uploads that failed and left the previous asset in place.",
	})
)
