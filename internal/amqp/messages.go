package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Actions carried by a TransactionEvent.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TransactionEvent is a lightweight change notification. It carries only the
// identifiers; consumers fetch the current ledger state themselves, so a
// stale or redelivered event is harmless.
type TransactionEvent struct {
	UserID        string    `json:"userId"`
	TransactionID string    `json:"transactionId"`
	Action        string    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(userID, transactionID, action string) *TransactionEvent {
	return &TransactionEvent{
		UserID:        userID,
		TransactionID: transactionID,
		Action:        action,
		Timestamp:     time.Now(),
	}
}

func (e *TransactionEvent) Validate() error {
	if e.UserID == "" {
		return fmt.Errorf("event missing userId")
	}
	switch e.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return nil
	default:
		return fmt.Errorf("unknown event action %q", e.Action)
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var evt TransactionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	if err := evt.Validate(); err != nil {
		return nil, err
	}
	return &evt, nil
}
