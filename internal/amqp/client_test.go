package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"connection closed", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestNewTransactionEvent(t *testing.T) {
	evt := NewTransactionEvent("u1", "tx-1", ActionCreated)

	if evt.UserID != "u1" || evt.TransactionID != "tx-1" || evt.Action != ActionCreated {
		t.Errorf("unexpected event: %+v", evt)
	}
	if evt.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if err := evt.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestTransactionEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		evt     TransactionEvent
		wantErr bool
	}{
		{"created", TransactionEvent{UserID: "u1", Action: ActionCreated}, false},
		{"updated", TransactionEvent{UserID: "u1", Action: ActionUpdated}, false},
		{"deleted", TransactionEvent{UserID: "u1", Action: ActionDeleted}, false},
		{"missing user", TransactionEvent{Action: ActionCreated}, true},
		{"unknown action", TransactionEvent{UserID: "u1", Action: "renamed"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.evt.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionEventJSON(t *testing.T) {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	evt := &TransactionEvent{
		UserID:        "u1",
		TransactionID: "tx-1",
		Action:        ActionUpdated,
		Timestamp:     ts,
	}

	body, err := evt.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := TransactionEventFromJSON(body)
	if err != nil {
		t.Fatalf("TransactionEventFromJSON() error = %v", err)
	}
	if parsed.UserID != evt.UserID || parsed.TransactionID != evt.TransactionID ||
		parsed.Action != evt.Action || !parsed.Timestamp.Equal(evt.Timestamp) {
		t.Errorf("round trip mismatch: %+v", parsed)
	}
}

func TestTransactionEventFromJSONRejectsBadInput(t *testing.T) {
	if _, err := TransactionEventFromJSON([]byte(`{"userId": 5}`)); err == nil {
		t.Error("should fail on malformed JSON")
	}
	if _, err := TransactionEventFromJSON([]byte(`{"userId":"u1","action":"exploded"}`)); err == nil {
		t.Error("should fail on unknown action")
	}
}
