package amqp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"budget/internal/core"
)

// ImportJobMessage asks a worker to import the CSV export at Path for UserID.
// The file must be readable by the worker.
type ImportJobMessage struct {
	JobID       string    `json:"job_id"`
	UserID      int64     `json:"user_id"`
	Path        string    `json:"path"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewImportJobMessage(userID int64, path string) *ImportJobMessage {
	return &ImportJobMessage{
		JobID:       uuid.NewString(),
		UserID:      userID,
		Path:        path,
		RequestedAt: time.Now().UTC(),
	}
}

// Validate rejects jobs that can never succeed, so they are not requeued.
func (m *ImportJobMessage) Validate() error {
	if _, err := uuid.Parse(m.JobID); err != nil {
		return fmt.Errorf("job id %q: %w", m.JobID, core.ErrInvalidArgument)
	}
	if err := core.ValidateID(m.UserID, "user id"); err != nil {
		return err
	}
	if strings.TrimSpace(m.Path) == "" {
		return fmt.Errorf("import path: %w", core.ErrEmptyInput)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ImportJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ImportJobMessageFromJSON(data []byte) (*ImportJobMessage, error) {
	var msg ImportJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EventMessage is the wire form of a committed ledger mutation.
type EventMessage struct {
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id"`
	AccountIDs []int64   `json:"account_ids"`
	Strategy   string    `json:"strategy"`
	Count      int       `json:"count"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEventMessage(ev core.LedgerEvent) *EventMessage {
	return &EventMessage{
		Type:       string(ev.Type),
		UserID:     ev.UserID,
		AccountIDs: ev.AccountIDs,
		Strategy:   string(ev.Strategy),
		Count:      ev.Count,
		OccurredAt: ev.OccurredAt,
	}
}

func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
