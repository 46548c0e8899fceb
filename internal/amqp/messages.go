package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"budget/internal/core"

	"github.com/google/uuid"
)

// TransactionRecordedMessage announces one ledger append together with the
// balance the ledger reached right after it.
type TransactionRecordedMessage struct {
	EventID      string    `json:"event_id"`
	Kind         string    `json:"kind"`
	Amount       int64     `json:"amount"`
	Description  string    `json:"description"`
	BalanceAfter int64     `json:"balance_after"`
	Sequence     int       `json:"sequence"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewTransactionRecordedMessage builds the event for tx, which was the
// sequence-th entry of the ledger.
func NewTransactionRecordedMessage(tx core.Transaction, balanceAfter int64, sequence int) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		EventID:      uuid.NewString(),
		Kind:         string(tx.Kind),
		Amount:       tx.Amount,
		Description:  tx.Description,
		BalanceAfter: balanceAfter,
		Sequence:     sequence,
		Timestamp:    time.Now().UTC(),
	}
}

// Transaction converts the message back into a ledger transaction.
func (m *TransactionRecordedMessage) Transaction() (core.Transaction, error) {
	kind, err := core.ParseKind(m.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{Kind: kind, Amount: m.Amount, Description: m.Description}, nil
}

func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

var errMissingEventID = errors.New("missing event id")

// TransactionRecordedMessageFromJSON decodes and sanity-checks a message body.
func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(msg.EventID); err != nil {
		return nil, fmt.Errorf("%w: %v", errMissingEventID, err)
	}
	return &msg, nil
}
