package view

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"planner/internal/task"
)

// StatusAll is the status filter sentinel that matches every status.
const StatusAll = "all"

type SortKey string

const (
	SortDue      SortKey = "due"
	SortPriority SortKey = "priority"
	SortStatus   SortKey = "status"
	SortID       SortKey = "id"
)

func SortKeys() []SortKey {
	return []SortKey{SortDue, SortPriority, SortStatus, SortID}
}

func ParseSortKey(v string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(v)))
	if k == "" {
		return SortDue, nil
	}
	if slices.Contains(SortKeys(), k) {
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", v)
}

func (k SortKey) Label() string {
	switch k {
	case SortDue:
		return "Due date"
	case SortPriority:
		return "Priority"
	case SortStatus:
		return "Status"
	case SortID:
		return "Created"
	default:
		return string(k)
	}
}

// Next cycles through SortKeys.
func (k SortKey) Next() SortKey {
	keys := SortKeys()
	i := slices.Index(keys, k)
	return keys[(i+1)%len(keys)]
}

type Filter struct {
	Title  string
	Tag    string
	Status string
}

func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Title) == "" && strings.TrimSpace(f.Tag) == "" && f.allStatuses()
}

func (f Filter) allStatuses() bool {
	s := strings.TrimSpace(f.Status)
	return s == "" || strings.EqualFold(s, StatusAll)
}

func (f Filter) Match(t task.Task) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Title)); q != "" {
		if !strings.Contains(strings.ToLower(t.Title), q) {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Tag)); q != "" {
		if !t.HasTag() || !strings.Contains(strings.ToLower(t.Tag), q) {
			return false
		}
	}
	if !f.allStatuses() && string(t.Status) != strings.TrimSpace(f.Status) {
		return false
	}
	return true
}

// Apply filters then stably sorts a copy of tasks. The input is not modified.
func Apply(tasks []task.Task, f Filter, key SortKey) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	Sort(out, key)
	return out
}

func Sort(tasks []task.Task, key SortKey) {
	switch key {
	case SortDue:
		slices.SortStableFunc(tasks, compareDue)
	case SortPriority:
		slices.SortStableFunc(tasks, func(a, b task.Task) int {
			return b.Priority.Weight() - a.Priority.Weight()
		})
	case SortStatus:
		slices.SortStableFunc(tasks, func(a, b task.Task) int {
			return a.Status.Rank() - b.Status.Rank()
		})
	case SortID:
		slices.SortStableFunc(tasks, func(a, b task.Task) int {
			switch {
			case a.ID < b.ID:
				return -1
			case a.ID > b.ID:
				return 1
			}
			return 0
		})
	}
}

// compareDue orders parsable dates ascending, then everything else.
func compareDue(a, b task.Task) int {
	ad, aok := a.DueTime()
	bd, bok := b.DueTime()
	switch {
	case aok && bok:
		return ad.Compare(bd)
	case aok:
		return -1
	case bok:
		return 1
	}
	return 0
}

type Day struct {
	Date  time.Time
	Tasks []task.Task
}

// Agenda groups tasks with a parsable due date by day, earliest first.
func Agenda(tasks []task.Task) []Day {
	dated := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := t.DueTime(); ok {
			dated = append(dated, t)
		}
	}
	slices.SortStableFunc(dated, compareDue)

	var days []Day
	for _, t := range dated {
		due, _ := t.DueTime()
		if n := len(days); n > 0 && days[n-1].Date.Equal(due) {
			days[n-1].Tasks = append(days[n-1].Tasks, t)
			continue
		}
		days = append(days, Day{Date: due, Tasks: []task.Task{t}})
	}
	return days
}
