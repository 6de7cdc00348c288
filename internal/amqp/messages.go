package amqp

import (
	"encoding/json"
	"time"
)

// BackupCreatedMessage announces a finished backup export. It carries only
// the file path and timestamp; the worker reads the file itself and looks
// up the matching record in storage.
type BackupCreatedMessage struct {
	RecordID  int64     `json:"recordId"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewBackupCreatedMessage(recordID int64, path string, createdAt time.Time) *BackupCreatedMessage {
	return &BackupCreatedMessage{
		RecordID:  recordID,
		Path:      path,
		CreatedAt: createdAt,
	}
}

// ToJSON converts the message to JSON bytes.
func (m *BackupCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BackupCreatedMessageFromJSON creates a message from JSON bytes.
func BackupCreatedMessageFromJSON(data []byte) (*BackupCreatedMessage, error) {
	var msg BackupCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
