// Package task holds the task entity, its storage contract and the service
// that enforces ownership quota and deletion rules on top of it.
package task

import (
	"strings"
	"time"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusCancelled  Status = "CANCELLED"
)

// Statuses lists every valid status in declaration order.
func Statuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusDone, StatusCancelled}
}

// ActiveStatuses lists the statuses that count against an owner's quota.
func ActiveStatuses() []Status {
	active := make([]Status, 0, 2)
	for _, s := range Statuses() {
		if IsActive(s) {
			active = append(active, s)
		}
	}
	return active
}

// IsActive reports whether a task in status s counts as active.
func IsActive(s Status) bool {
	return s == StatusOpen || s == StatusInProgress
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusDone, StatusCancelled:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus converts raw input into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.TrimSpace(raw))
	if s == "" {
		return "", NewValidationError("status", "status is required")
	}
	if !s.Valid() {
		return "", NewValidationError("status", "unknown status %q", raw)
	}
	return s, nil
}

// Task is the sole entity of the service.
type Task struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Status    Status    `json:"status"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// IsActive reports whether the task counts against its owner's quota.
func (t Task) IsActive() bool {
	return IsActive(t.Status)
}

// Filter selects an owner's tasks created within an optional inclusive range.
type Filter struct {
	From    *time.Time
	To      *time.Time
	OwnerID int64
}

// Contains reports whether createdAt falls inside the filter's bounds.
func (f Filter) Contains(createdAt time.Time) bool {
	if f.From != nil && createdAt.Before(*f.From) {
		return false
	}
	if f.To != nil && createdAt.After(*f.To) {
		return false
	}
	return true
}

// ValidateFields checks the fields every stored task must carry.
func ValidateFields(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title", "title must not be blank")
	}
	if t.Status == "" {
		return NewValidationError("status", "status is required")
	}
	if !t.Status.Valid() {
		return NewValidationError("status", "unknown status %q", string(t.Status))
	}
	return nil
}
