package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ImportCompletedMessage announces that a statement import stored new
// cashflows. It carries only IDs; consumers load the rows themselves.
type ImportCompletedMessage struct {
	RunID       string    `json:"run_id"`
	Filename    string    `json:"filename,omitempty"`
	CashflowIDs []int64   `json:"cashflow_ids"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewImportCompletedMessage(runID, filename string, ids []int64) *ImportCompletedMessage {
	return &ImportCompletedMessage{
		RunID:       runID,
		Filename:    filename,
		CashflowIDs: append([]int64(nil), ids...),
		Timestamp:   time.Now().UTC(),
	}
}

func (m *ImportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportCompletedMessageFromJSON decodes and sanity-checks a message body.
func ImportCompletedMessageFromJSON(data []byte) (*ImportCompletedMessage, error) {
	var msg ImportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.RunID == "" {
		return nil, errors.New("import completed message without run_id")
	}
	return &msg, nil
}
