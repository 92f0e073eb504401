package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a job. These values must
// match the text values stored in the database (jobs.status).
type Status string

const (
	StatusPending  Status = "pending"
	StatusLoading  Status = "loading"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{StatusPending, StatusLoading, StatusComplete, StatusFailed}

// NonTerminalStatuses are the states a job can still leave.
var NonTerminalStatuses = []Status{StatusPending, StatusLoading}

// IsTerminal reports whether no further transition may leave s.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Job is one user-submitted unit of generative work.
//
// Result is set iff Status is complete and Error is set iff Status is
// failed. Input and Result are opaque to everything but the executor
// registered for Kind.
type Job struct {
	ID        uuid.UUID       `json:"id"`
	UserID    string          `json:"userId"`
	Kind      Kind            `json:"type"`
	Input     json.RawMessage `json:"input,omitempty"`
	Status    Status          `json:"status"`
	Progress  int             `json:"progress"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// JobUpdate is a partial update applied atomically to one job. Nil
// fields are left untouched.
type JobUpdate struct {
	Status   *Status
	Progress *int
	Result   json.RawMessage
	Error    *string
}

// ListFilter narrows a per-user job listing. Zero values mean "any".
type ListFilter struct {
	Status Status
	Kind   Kind
}

// StatusPtr and IntPtr are small helpers for building JobUpdate values.
func StatusPtr(s Status) *Status { return &s }

func IntPtr(v int) *int { return &v }

func StringPtr(v string) *string { return &v }
