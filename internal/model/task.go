package model

import (
	"time"
)

// Status represents the current state of a task
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// Bucket returns the statistics bucket for a raw status value.
// Anything other than archived or completed counts as pending, including
// empty and unknown values.
func (s Status) Bucket() Status {
	switch s {
	case StatusArchived, StatusCompleted:
		return s
	default:
		return StatusPending
	}
}

// Next returns the status that follows s in the task view's cycle
func (s Status) Next() Status {
	switch s.Bucket() {
	case StatusPending:
		return StatusCompleted
	case StatusCompleted:
		return StatusArchived
	default:
		return StatusPending
	}
}

// Task represents a todo item owned by one identity
type Task struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"userId"`
	Title       string     `json:"title"`
	Status      Status     `json:"status"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IsDone returns true if the task no longer counts as pending
func (t *Task) IsDone() bool {
	return t.Status.Bucket() != StatusPending
}
