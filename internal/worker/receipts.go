package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gymdesk/backend/internal/metrics"
	"github.com/gymdesk/backend/internal/models"
	"github.com/gymdesk/backend/internal/notify"
)

// ReceiptSender delivers a payment receipt notification.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, name, phone, planLabel string, amount int64, expiryLabel string) error
}

var _ ReceiptSender = (*notify.Client)(nil)

// RegisterReceiptJobs binds the send_receipt handler and the prometheus
// instrumentation hooks to the dispatcher.
func RegisterReceiptJobs(d *Dispatcher, sender ReceiptSender) {
	d.RegisterHandler(models.JobTypeSendReceipt, receiptHandler(sender))
	d.SetInstrumentation(&Instrumentation{
		OnEnqueue: func(job *models.Job) {
			metrics.NotificationsEnqueued.Inc()
		},
		OnComplete: func(job *models.Job, duration time.Duration) {
			metrics.NotificationsSent.Inc()
			metrics.NotificationDuration.Observe(duration.Seconds())
		},
		OnFail: func(job *models.Job, err error, duration time.Duration) {
			if job.Attempts >= job.MaxAttempts {
				metrics.NotificationsFailed.Inc()
			}
			metrics.NotificationDuration.Observe(duration.Seconds())
		},
		OnRetry: func(job *models.Job, retryAfter time.Duration) {
			metrics.NotificationsRetried.Inc()
		},
	})

	log.Println("[worker] registered receipt job handler: send_receipt")
}

// receiptHandler reads the receipt payload and delivers it via the gateway.
// JSON numbers arrive as float64 from the JSONB column.
func receiptHandler(sender ReceiptSender) Handler {
	return func(ctx context.Context, job *models.Job) error {
		name, _ := job.Payload["name"].(string)
		phone, _ := job.Payload["phone"].(string)
		planLabel, _ := job.Payload["plan_label"].(string)
		expiryLabel, _ := job.Payload["expiry_label"].(string)

		if phone == "" {
			return fmt.Errorf("missing phone in payload")
		}

		var amount int64
		if raw, ok := job.Payload["amount"].(float64); ok {
			amount = int64(raw)
		}

		return sender.SendReceipt(ctx, name, phone, planLabel, amount, expiryLabel)
	}
}
