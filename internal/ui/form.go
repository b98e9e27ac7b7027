package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"planner/internal/task"
	"planner/internal/view"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldTag
	fieldDue
	fieldStatus
	fieldPriority
	formFieldCount
)

var formLabels = [formFieldCount]string{"Title", "Description", "Tag", "Due (DD/MM/YYYY)", "Status", "Priority"}

type formState struct {
	taskID   int64
	inputs   [fieldStatus]textinput.Model
	status   task.Status
	priority task.Priority
	index    int
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 40
	ti.Prompt = ""
	return ti
}

// newForm fills the form from t, or with defaults when t is nil.
func newForm(t *task.Task) *formState {
	f := &formState{status: task.StatusNotStarted, priority: task.PriorityMedium}
	f.inputs[fieldTitle] = newInput("Title", 256)
	f.inputs[fieldDescription] = newInput("Description", 1024)
	f.inputs[fieldTag] = newInput("optional", 64)
	f.inputs[fieldDue] = newInput("DD/MM/YYYY", 10)
	if t != nil {
		f.taskID = t.ID
		f.inputs[fieldTitle].SetValue(t.Title)
		f.inputs[fieldDescription].SetValue(t.Description)
		f.inputs[fieldTag].SetValue(t.Tag)
		f.inputs[fieldDue].SetValue(t.Due)
		f.status = t.Status
		f.priority = t.Priority
	}
	return f
}

func (f *formState) draft() view.Draft {
	return view.Draft{
		Title:       f.inputs[fieldTitle].Value(),
		Description: f.inputs[fieldDescription].Value(),
		Tag:         f.inputs[fieldTag].Value(),
		Due:         f.inputs[fieldDue].Value(),
		Status:      f.status,
		Priority:    f.priority,
	}
}

func (f *formState) focus(idx int) tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	f.index = wrapIndex(idx, formFieldCount)
	if f.index < len(f.inputs) {
		return f.inputs[f.index].Focus()
	}
	return nil
}

func (f *formState) cycle(step int) {
	switch f.index {
	case fieldStatus:
		f.status = f.status.Next(step)
	case fieldPriority:
		f.priority = f.priority.Next(step)
	}
}

func (m Model) startForm(t *task.Task) (tea.Model, tea.Cmd) {
	m.form = newForm(t)
	m.mode = modeForm
	if t == nil {
		m.setStatus("New task: tab to move, enter on the last field to save, esc to cancel")
	} else {
		m.setStatus(fmt.Sprintf("Editing task #%d: tab to move, enter on the last field to save, esc to cancel", t.ID))
	}
	return m, m.form.focus(fieldTitle)
}

func (m Model) updateFormMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeList
		return m, nil
	}
	onChoice := m.form.index >= fieldStatus
	switch key := msg.String(); {
	case key == m.cfg.Keys.Cancel || key == "esc":
		m.form = nil
		m.mode = modeList
		m.setStatus("Edit cancelled")
		return m, nil
	case key == m.cfg.Keys.NextField || key == "down":
		return m, m.form.focus(m.form.index + 1)
	case key == m.cfg.Keys.PrevField || key == "up":
		return m, m.form.focus(m.form.index - 1)
	case key == m.cfg.Keys.Confirm || key == "enter":
		if m.form.index >= formFieldCount-1 {
			return m.saveForm()
		}
		return m, m.form.focus(m.form.index + 1)
	case onChoice && (key == "right" || key == "l" || key == " "):
		m.form.cycle(1)
		return m, nil
	case onChoice && (key == "left" || key == "h"):
		m.form.cycle(-1)
		return m, nil
	case onChoice:
		return m, nil
	default:
		var cmd tea.Cmd
		m.form.inputs[m.form.index], cmd = m.form.inputs[m.form.index].Update(msg)
		return m, cmd
	}
}

func (m Model) saveForm() (tea.Model, tea.Cmd) {
	d := m.form.draft()
	id := m.form.taskID
	var err error
	if id == 0 {
		id, err = m.board.Add(d)
	} else {
		err = m.board.Update(id, d)
	}
	if err != nil {
		if errors.Is(err, task.ErrInvalid) {
			m.setError(err.Error())
			return m, nil
		}
		op := "add"
		if m.form.taskID != 0 {
			op = "update"
		}
		m.storeFailed(op, err)
		return m, nil
	}

	verb := "added"
	if m.form.taskID != 0 {
		verb = "updated"
	}
	m.form = nil
	m.mode = modeList
	m.selectID(id)
	m.setStatus(fmt.Sprintf("Task #%d %s", id, verb))
	return m, nil
}

const (
	filterTitle = iota
	filterTag
	filterStatus
	filterSort
	filterFieldCount
)

var filterLabels = [filterFieldCount]string{"Title", "Tag", "Status", "Sort by"}

type filterState struct {
	inputs [filterStatus]textinput.Model
	status string
	sort   view.SortKey
	index  int
}

func statusChoices() []string {
	out := []string{view.StatusAll}
	for _, s := range task.Statuses() {
		out = append(out, string(s))
	}
	return out
}

func newFilter(f view.Filter, sort view.SortKey) *filterState {
	fs := &filterState{status: f.Status, sort: sort}
	if fs.status == "" {
		fs.status = view.StatusAll
	}
	fs.inputs[filterTitle] = newInput("title contains", 128)
	fs.inputs[filterTag] = newInput("tag contains", 64)
	fs.inputs[filterTitle].SetValue(f.Title)
	fs.inputs[filterTag].SetValue(f.Tag)
	return fs
}

func (fs *filterState) focus(idx int) tea.Cmd {
	for i := range fs.inputs {
		fs.inputs[i].Blur()
	}
	fs.index = wrapIndex(idx, filterFieldCount)
	if fs.index < len(fs.inputs) {
		return fs.inputs[fs.index].Focus()
	}
	return nil
}

func (fs *filterState) cycle(step int) {
	switch fs.index {
	case filterStatus:
		choices := statusChoices()
		cur := 0
		for i, c := range choices {
			if c == fs.status {
				cur = i
			}
		}
		fs.status = choices[wrapIndex(cur+step, len(choices))]
	case filterSort:
		keys := view.SortKeys()
		cur := 0
		for i, k := range keys {
			if k == fs.sort {
				cur = i
			}
		}
		fs.sort = keys[wrapIndex(cur+step, len(keys))]
	}
}

func (fs *filterState) value() view.Filter {
	return view.Filter{
		Title:  fs.inputs[filterTitle].Value(),
		Tag:    fs.inputs[filterTag].Value(),
		Status: fs.status,
	}
}

func (m Model) startFilter() (tea.Model, tea.Cmd) {
	m.filter = newFilter(m.board.Filter(), m.board.SortKey())
	m.mode = modeFilter
	m.setStatus("Filter: tab to move, left/right to change, enter to apply, esc to cancel")
	return m, m.filter.focus(filterTitle)
}

func (m Model) updateFilterMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filter == nil {
		m.mode = modeList
		return m, nil
	}
	onChoice := m.filter.index >= filterStatus
	switch key := msg.String(); {
	case key == m.cfg.Keys.Cancel || key == "esc":
		m.filter = nil
		m.mode = modeList
		m.setStatus("Filter unchanged")
		return m, nil
	case key == m.cfg.Keys.NextField || key == "down":
		return m, m.filter.focus(m.filter.index + 1)
	case key == m.cfg.Keys.PrevField || key == "up":
		return m, m.filter.focus(m.filter.index - 1)
	case key == m.cfg.Keys.Confirm || key == "enter":
		m.board.SetFilter(m.filter.value())
		m.board.SetSort(m.filter.sort)
		m.filter = nil
		m.mode = modeList
		m.cursor = 0
		m.setStatus(fmt.Sprintf("%d of %d tasks shown", len(m.board.Visible()), len(m.board.All())))
		return m, nil
	case onChoice && (key == "right" || key == "l" || key == " "):
		m.filter.cycle(1)
		return m, nil
	case onChoice && (key == "left" || key == "h"):
		m.filter.cycle(-1)
		return m, nil
	case onChoice:
		return m, nil
	default:
		var cmd tea.Cmd
		m.filter.inputs[m.filter.index], cmd = m.filter.inputs[m.filter.index].Update(msg)
		return m, cmd
	}
}
