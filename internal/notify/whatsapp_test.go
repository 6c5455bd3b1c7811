package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestSendReceiptPostsMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("unexpected authorization header: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	err := c.SendReceipt(context.Background(), "Asha Rai", "9800000001", "Cardio", 9500, "2024-04-15")
	if err != nil {
		t.Fatalf("SendReceipt returned error: %v", err)
	}

	if got["to"] != "9800000001" {
		t.Fatalf("unexpected recipient: %v", got["to"])
	}
	text, _ := got["text"].(map[string]any)
	body, _ := text["body"].(string)
	if body == "" {
		t.Fatal("expected a message body")
	}
}

func TestSendMessageRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	if err := c.SendMessage(context.Background(), "9800000001", "hello"); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestSendMessageDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"message": "invalid recipient"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	if err := c.SendMessage(context.Background(), "bogus", "hello"); err == nil {
		t.Fatal("expected error for rejected message")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 attempt, got %d", calls.Load())
	}
}

func TestSendMessageRequiresPhone(t *testing.T) {
	c := NewClient("http://unused", "secret")
	if err := c.SendMessage(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error for empty phone")
	}
}
