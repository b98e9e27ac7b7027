package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid task")

// DateLayout is the canonical due date form (day/month/year).
const DateLayout = "02/01/2006"

var dueLayouts = []string{DateLayout, "2/1/2006", "2006-01-02"}

type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists the valid statuses in rank order.
func Statuses() []Status {
	return []Status{StatusNotStarted, StatusInProgress, StatusDone}
}

// Rank orders statuses not-started < in-progress < done. Unknown values rank -1.
func (s Status) Rank() int {
	switch s {
	case StatusNotStarted:
		return 0
	case StatusInProgress:
		return 1
	case StatusDone:
		return 2
	default:
		return -1
	}
}

func (s Status) Valid() bool {
	return s.Rank() >= 0
}

func (s Status) Label() string {
	switch s {
	case StatusNotStarted:
		return "Not started"
	case StatusInProgress:
		return "In progress"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// Weight orders priorities low < medium < high. Unknown values weigh -1.
func (p Priority) Weight() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	default:
		return -1
	}
}

func (p Priority) Valid() bool {
	return p.Weight() >= 0
}

func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	default:
		return string(p)
	}
}

type Task struct {
	ID          int64
	Title       string
	Description string
	Status      Status
	Tag         string
	Due         string
	Priority    Priority
}

// New returns a task with the default status and priority.
func New(title, description string) Task {
	return Task{
		Title:       title,
		Description: description,
		Status:      StatusNotStarted,
		Priority:    PriorityMedium,
	}
}

// DueTime parses Due leniently. ok is false for empty or unparsable values.
func (t Task) DueTime() (time.Time, bool) {
	return ParseDue(t.Due)
}

func (t Task) HasTag() bool {
	return strings.TrimSpace(t.Tag) != ""
}

// Overdue reports whether an unfinished task's due date is before today.
func (t Task) Overdue(now time.Time) bool {
	if t.Status == StatusDone {
		return false
	}
	due, ok := t.DueTime()
	if !ok {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return due.Before(today)
}

// Normalize trims text fields and fills in the default status and priority.
func (t Task) Normalize() Task {
	t.Title = strings.TrimSpace(t.Title)
	t.Description = strings.TrimSpace(t.Description)
	t.Tag = strings.TrimSpace(t.Tag)
	t.Due = strings.TrimSpace(t.Due)
	if t.Status == "" {
		t.Status = StatusNotStarted
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return t
}

// Validate checks the fields a persisted task must satisfy.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalid)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, t.Status)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalid, t.Priority)
	}
	return nil
}

func ParseDue(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dueLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDue renders a date in DateLayout.
func FormatDue(t time.Time) string {
	return t.Format(DateLayout)
}

// CleanDue rewrites a due date in DateLayout. Empty stays empty.
func CleanDue(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	due, ok := ParseDue(v)
	if !ok {
		return "", fmt.Errorf("%w: due date %q is not DD/MM/YYYY", ErrInvalid, v)
	}
	return FormatDue(due), nil
}

// ParseStatus accepts codes, labels and the legacy Portuguese labels.
func ParseStatus(v string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "not-started", "not started", "not_started", "todo", "não iniciado", "nao iniciado":
		return StatusNotStarted, nil
	case "in-progress", "in progress", "in_progress", "doing", "em andamento":
		return StatusInProgress, nil
	case "done", "completed", "concluído", "concluido":
		return StatusDone, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalid, v)
}

// ParsePriority accepts codes, labels and the legacy Portuguese labels.
func ParsePriority(v string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "low", "baixa":
		return PriorityLow, nil
	case "", "medium", "média", "media":
		return PriorityMedium, nil
	case "high", "alta":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("%w: unknown priority %q", ErrInvalid, v)
}

// Next cycles to the following status, wrapping around.
func (s Status) Next(step int) Status {
	all := Statuses()
	return all[wrap(s.Rank()+step, len(all))]
}

func (p Priority) Next(step int) Priority {
	all := Priorities()
	return all[wrap(p.Weight()+step, len(all))]
}

func wrap(idx, n int) int {
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}
