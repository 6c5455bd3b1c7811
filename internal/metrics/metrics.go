package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	MembersRegistered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gymdesk_members_registered_total",
		Help: "Total number of member registrations",
	})

	MembershipsRenewed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gymdesk_memberships_renewed_total",
		Help: "Total number of membership renewals",
	})

	NotificationsEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gymdesk_notifications_enqueued_total",
		Help: "Total number of notification jobs enqueued",
	})

	NotificationsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gymdesk_notifications_sent_total",
		Help: "Total number of notification jobs delivered",
	})

	NotificationsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gymdesk_notifications_failed_total",
		Help: "Total number of notification jobs that exhausted retries",
	})

	NotificationsRetried = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gymdesk_notifications_retried_total",
		Help: "Total number of notification delivery retries scheduled",
	})

	NotificationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gymdesk_notification_duration_seconds",
		Help:    "Time spent delivering a notification",
		Buckets: prometheus.DefBuckets,
	})
)

// Register registers all collectors with the default registry. Call once at
// startup.
func Register() {
	prometheus.MustRegister(
		MembersRegistered,
		MembershipsRenewed,
		NotificationsEnqueued,
		NotificationsSent,
		NotificationsFailed,
		NotificationsRetried,
		NotificationDuration,
	)
}
