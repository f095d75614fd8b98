package domain

import (
	"strings"
	"time"
)

// Task statuses. Values match the public API contract verbatim.
const (
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

// Task priorities.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Task is an assignable work item. CreatedBy is set once at creation and
// never changes; AssignedTo defaults to the creator when left empty.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     time.Time `json:"due_date"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	AssignedTo  string    `json:"assigned_to"`
	CreatedBy   string    `json:"created_by"`
	Attachment  string    `json:"attachment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// ValidStatus reports whether s is one of the three task statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the three task priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Due date wire formats: a calendar date or a date with minutes precision.
var dueDateLayouts = []string{"2006-01-02", "2006-01-02T15:04"}

// ParseDueDate parses the accepted due date formats. time.Parse rejects
// out-of-range components (e.g. 2023-02-31), which covers calendar validity.
func ParseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dueDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, NewError(ErrCodeInvalid, "Invalid dueDate format, expected YYYY-MM-DD or YYYY-MM-DDTHH:MM")
}
