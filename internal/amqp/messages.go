package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	KindInvoice = "invoice"
	KindExpense = "expense"
)

// BackupMessage asks the backup worker to mirror one record. It carries
// only the kind and ID; the worker reloads the record from the store so
// it always exports the latest revision.
type BackupMessage struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Deleted   bool      `json:"deleted,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBackupMessage(kind, id string, deleted bool) *BackupMessage {
	return &BackupMessage{
		Kind:      kind,
		ID:        id,
		Deleted:   deleted,
		Timestamp: time.Now(),
	}
}

func (m *BackupMessage) Validate() error {
	if m.Kind != KindInvoice && m.Kind != KindExpense {
		return fmt.Errorf("unknown message kind %q", m.Kind)
	}
	if m.ID == "" {
		return fmt.Errorf("message id is empty")
	}
	return nil
}

func (m *BackupMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BackupMessageFromJSON(data []byte) (*BackupMessage, error) {
	var msg BackupMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
