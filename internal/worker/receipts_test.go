package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/gymdesk/backend/internal/models"
)

type fakeSender struct {
	name, phone, planLabel, expiryLabel string
	amount                              int64
	err                                 error
	calls                               int
}

func (f *fakeSender) SendReceipt(ctx context.Context, name, phone, planLabel string, amount int64, expiryLabel string) error {
	f.calls++
	f.name, f.phone, f.planLabel, f.amount, f.expiryLabel = name, phone, planLabel, amount, expiryLabel
	return f.err
}

func TestReceiptHandlerDecodesPayload(t *testing.T) {
	sender := &fakeSender{}
	handler := receiptHandler(sender)

	job := &models.Job{
		JobType: models.JobTypeSendReceipt,
		// numbers decode as float64 from the JSONB column
		Payload: models.JSONB{
			"name":         "Asha Rai",
			"phone":        "9800000001",
			"plan_label":   "Cardio",
			"amount":       float64(9500),
			"expiry_label": "2024-04-15",
		},
	}

	if err := handler(context.Background(), job); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if sender.calls != 1 {
		t.Fatalf("expected 1 send, got %d", sender.calls)
	}
	if sender.amount != 9500 {
		t.Fatalf("unexpected amount: %d", sender.amount)
	}
	if sender.phone != "9800000001" {
		t.Fatalf("unexpected phone: %s", sender.phone)
	}
}

func TestReceiptHandlerRequiresPhone(t *testing.T) {
	sender := &fakeSender{}
	handler := receiptHandler(sender)

	job := &models.Job{
		JobType: models.JobTypeSendReceipt,
		Payload: models.JSONB{"name": "No Phone"},
	}

	if err := handler(context.Background(), job); err == nil {
		t.Fatal("expected error for missing phone")
	}
	if sender.calls != 0 {
		t.Fatal("sender should not be called without a phone")
	}
}

func TestReceiptHandlerPropagatesSendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("gateway down")}
	handler := receiptHandler(sender)

	job := &models.Job{
		JobType: models.JobTypeSendReceipt,
		Payload: models.JSONB{"phone": "9800000001"},
	}

	if err := handler(context.Background(), job); err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestRetryDelayBounds(t *testing.T) {
	d := New(Config{}, nil)

	for attempts := 1; attempts <= 10; attempts++ {
		delay := d.retryDelay(attempts)
		if delay <= 0 {
			t.Fatalf("non-positive delay at attempt %d: %v", attempts, delay)
		}
		// cap plus 20% jitter
		if max := d.config.RetryMaxDelay + d.config.RetryMaxDelay/5; delay > max {
			t.Fatalf("delay %v exceeds cap at attempt %d", delay, attempts)
		}
	}
}
