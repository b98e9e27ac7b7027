package ui

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"planner/internal/config"
	"planner/internal/storage"
	"planner/internal/task"
	"planner/internal/view"
)

type mode int

const (
	modeList mode = iota
	modeForm
	modeFilter
	modePath
	modeAgenda
)

type pathAction int

const (
	actionExport pathAction = iota
	actionImport
)

type Model struct {
	board      *view.Board
	cfg        config.Config
	cursor     int
	mode       mode
	status     string
	statusErr  bool
	confirmDel bool
	pendingDel *task.Task
	form       *formState
	filter     *filterState
	path       textinput.Model
	pathAction pathAction
	width      int
	now        func() time.Time
}

func Run(board *view.Board, cfg config.Config) error {
	m := New(board, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

// New builds the model over an already loaded board.
func New(board *view.Board, cfg config.Config) Model {
	pi := textinput.New()
	pi.Placeholder = "tasks.csv"
	pi.CharLimit = 512
	pi.Width = 50

	return Model{
		board:  board,
		cfg:    cfg,
		cursor: clampCursor(0, len(board.Visible())),
		mode:   modeList,
		status: fmt.Sprintf("Press '%s' to add, '%s' to edit, '%s' to delete.", cfg.Keys.Add, cfg.Keys.Edit, cfg.Keys.Delete),
		path:   pi,
		width:  100,
		now:    time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		switch m.mode {
		case modeForm:
			return m.updateFormMode(msg)
		case modeFilter:
			return m.updateFilterMode(msg)
		case modePath:
			return m.updatePathMode(msg)
		case modeAgenda:
			return m.updateAgendaMode(msg.String())
		}
		return m.updateListMode(msg.String())
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.path.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	tasks := m.board.Visible()
	switch key {
	case m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		if len(tasks) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(tasks))
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(tasks))
		}
	case m.cfg.Keys.Add:
		return m.startForm(nil)
	case m.cfg.Keys.Edit, m.cfg.Keys.Confirm:
		if len(tasks) == 0 {
			m.setStatus("No task selected")
			return m, nil
		}
		t := tasks[m.cursor]
		return m.startForm(&t)
	case m.cfg.Keys.Delete:
		if len(tasks) == 0 {
			m.setError("Select a task to delete")
			return m, nil
		}
		t := tasks[m.cursor]
		m.confirmDel = true
		m.pendingDel = &t
		m.setStatus(fmt.Sprintf("Delete #%d \"%s\"? y/n", t.ID, t.Title))
	case m.cfg.Keys.Filter:
		return m.startFilter()
	case m.cfg.Keys.ClearFilter:
		m.board.ClearFilter()
		m.cursor = clampCursor(m.cursor, len(m.board.Visible()))
		m.setStatus("Filters cleared")
	case m.cfg.Keys.Sort:
		m.board.SetSort(m.board.SortKey().Next())
		m.cursor = 0
		m.setStatus("Sorted by " + m.board.SortKey().Label())
	case m.cfg.Keys.Export:
		return m.startPath(actionExport)
	case m.cfg.Keys.Import:
		return m.startPath(actionImport)
	case m.cfg.Keys.Agenda:
		m.mode = modeAgenda
		m.setStatus("Agenda: tasks by due date")
	}
	return m, nil
}

func (m Model) updateAgendaMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Agenda, m.cfg.Keys.Cancel, "esc":
		m.mode = modeList
		m.setStatus("List view")
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", "esc":
		m.setStatus("Delete cancelled")
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.setStatus("Nothing to delete")
			m.confirmDel = false
			return m, nil
		}
		id := m.pendingDel.ID
		m.confirmDel = false
		m.pendingDel = nil
		if err := m.board.Delete(id); err != nil {
			m.storeFailed("delete", err)
			return m, nil
		}
		m.cursor = clampCursor(m.cursor, len(m.board.Visible()))
		m.setStatus(fmt.Sprintf("Task #%d deleted", id))
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) startPath(action pathAction) (tea.Model, tea.Cmd) {
	m.mode = modePath
	m.pathAction = action
	m.path.SetValue("")
	if action == actionExport {
		m.setStatus("Export CSV: type a file path and press Enter")
	} else {
		m.setStatus("Import CSV: type a file path and press Enter")
	}
	return m, m.path.Focus()
}

func (m Model) updatePathMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Cancel, "esc":
		m.mode = modeList
		m.path.Blur()
		m.setStatus("Cancelled")
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		path := m.path.Value()
		var n int
		var err error
		verb := "Exported"
		if m.pathAction == actionExport {
			n, err = m.board.Export(path)
		} else {
			verb = "Imported"
			n, err = m.board.Import(path)
		}
		if err != nil {
			log.Printf("%s %s: %v", verb, path, err)
			if n > 0 {
				m.setError(fmt.Sprintf("%s %d tasks, then failed: %v", verb, n, err))
			} else {
				m.setError(fmt.Sprintf("%s failed: %v", verb, err))
			}
			if n > 0 {
				m.cursor = clampCursor(m.cursor, len(m.board.Visible()))
			}
			return m, nil
		}
		m.mode = modeList
		m.path.Blur()
		m.cursor = clampCursor(m.cursor, len(m.board.Visible()))
		m.setStatus(fmt.Sprintf("%s %d tasks (%s)", verb, n, path))
		return m, nil
	default:
		var cmd tea.Cmd
		m.path, cmd = m.path.Update(msg)
		return m, cmd
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

// storeFailed reports a store error as a generic failure and logs the detail.
func (m *Model) storeFailed(op string, err error) {
	log.Printf("%s failed: %v", op, err)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		m.setError(fmt.Sprintf("Could not %s: task no longer exists", op))
	default:
		m.setError(fmt.Sprintf("Could not %s task", op))
	}
}

func (m *Model) selectID(id int64) {
	for i, t := range m.board.Visible() {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
	m.cursor = clampCursor(m.cursor, len(m.board.Visible()))
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}
