package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"planner/internal/config"
	"planner/internal/task"
	"planner/internal/view"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	overdueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	doneStyle     = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Faint(true)
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Planner"))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(m.summary()))
	b.WriteString("\n\n")

	if m.mode == modeAgenda {
		b.WriteString(m.renderAgenda())
	} else if len(m.board.Visible()) == 0 {
		if len(m.board.All()) == 0 {
			b.WriteString(fmt.Sprintf("No tasks yet. Press '%s' to add one.", m.cfg.Keys.Add))
		} else {
			b.WriteString(fmt.Sprintf("No task matches the filter. Press '%s' to clear it.", m.cfg.Keys.ClearFilter))
		}
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n---\n")

	switch m.mode {
	case modeForm:
		b.WriteString(m.renderForm())
	case modeFilter:
		b.WriteString(m.renderFilter())
	case modePath:
		label := "Export to"
		if m.pathAction == actionImport {
			label = "Import from"
		}
		b.WriteString(label + ": " + m.path.View())
		b.WriteString("\n")
	case modeList:
		b.WriteString(m.renderDetail())
	}

	b.WriteString("\n")
	if m.statusErr {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(m.status)
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(renderHelp(m.cfg.Keys, m.mode)))

	return b.String()
}

func (m Model) summary() string {
	f := m.board.Filter()
	parts := []string{fmt.Sprintf("%d/%d tasks", len(m.board.Visible()), len(m.board.All())), "sort: " + m.board.SortKey().Label()}
	if strings.TrimSpace(f.Title) != "" {
		parts = append(parts, "title~"+f.Title)
	}
	if strings.TrimSpace(f.Tag) != "" {
		parts = append(parts, "tag~"+f.Tag)
	}
	if f.Status != "" && f.Status != view.StatusAll {
		parts = append(parts, "status="+f.Status)
	}
	return strings.Join(parts, " • ")
}

func renderHelp(k config.Keymap, md mode) string {
	switch md {
	case modeForm, modeFilter:
		return fmt.Sprintf("%s/%s field • left/right change choice • %s save • %s cancel", k.NextField, k.PrevField, k.Confirm, k.Cancel)
	case modePath:
		return fmt.Sprintf("%s run • %s cancel", k.Confirm, k.Cancel)
	case modeAgenda:
		return fmt.Sprintf("%s back • %s quit", k.Agenda, k.Quit)
	}
	return fmt.Sprintf("%s/%s move • %s add • %s edit • %s delete • %s filter • %s clear • %s sort • %s export • %s import • %s agenda • %s quit",
		k.Up, k.Down, k.Add, k.Edit, k.Delete, k.Filter, k.ClearFilter, k.Sort, k.Export, k.Import, k.Agenda, k.Quit)
}

func (m Model) renderTaskList() string {
	now := m.now()
	titleWidth := max(12, m.width-62)
	var b strings.Builder
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %-5s %-*s %-12s %-7s %-11s %s", "ID", titleWidth, "Title", "Status", "Prio", "Due", "Tag")))
	b.WriteString("\n")
	for i, t := range m.board.Visible() {
		line := fmt.Sprintf("%-5d %-*s %-12s %-7s %-11s %s",
			t.ID, titleWidth, truncate(t.Title, titleWidth), t.Status.Label(), t.Priority.Label(), t.Due, t.Tag)
		switch {
		case m.cursor == i && m.mode == modeList:
			line = selectedStyle.Render("> " + line)
		case t.Status == task.StatusDone:
			line = doneStyle.Render("  " + line)
		case t.Overdue(now):
			line = overdueStyle.Render("  " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderDetail() string {
	tasks := m.board.Visible()
	if len(tasks) == 0 {
		return "No task selected\n"
	}
	t := tasks[clampCursor(m.cursor, len(tasks))]
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Task #%d", t.ID)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Title       : %s\n", t.Title))
	b.WriteString(fmt.Sprintf("Description : %s\n", t.Description))
	b.WriteString(fmt.Sprintf("Status      : %s\n", t.Status.Label()))
	b.WriteString(fmt.Sprintf("Priority    : %s\n", t.Priority.Label()))
	b.WriteString(fmt.Sprintf("Tag         : %s\n", emptyPlaceholder(t.Tag)))
	b.WriteString(fmt.Sprintf("Due         : %s\n", m.dueHint(t)))
	return b.String()
}

func (m Model) dueHint(t task.Task) string {
	if strings.TrimSpace(t.Due) == "" {
		return "(none)"
	}
	due, ok := t.DueTime()
	if !ok {
		return t.Due + " (unrecognised date)"
	}
	now := m.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if due.Equal(today) {
		return t.Due + " (today)"
	}
	return fmt.Sprintf("%s (%s)", t.Due, humanize.RelTime(due, today, "ago", "from now"))
}

func (m Model) renderForm() string {
	if m.form == nil {
		return ""
	}
	var b strings.Builder
	if m.form.taskID == 0 {
		b.WriteString(titleStyle.Render("New task"))
	} else {
		b.WriteString(titleStyle.Render(fmt.Sprintf("Edit task #%d", m.form.taskID)))
	}
	b.WriteString("\n")
	for i, label := range formLabels {
		prefix := " "
		if i == m.form.index {
			prefix = ">"
		}
		var value string
		switch i {
		case fieldStatus:
			value = "< " + m.form.status.Label() + " >"
		case fieldPriority:
			value = "< " + m.form.priority.Label() + " >"
		default:
			value = m.form.inputs[i].View()
		}
		b.WriteString(fmt.Sprintf("%s %-17s : %s\n", prefix, label, value))
	}
	return b.String()
}

func (m Model) renderFilter() string {
	if m.filter == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Filter"))
	b.WriteString("\n")
	for i, label := range filterLabels {
		prefix := " "
		if i == m.filter.index {
			prefix = ">"
		}
		var value string
		switch i {
		case filterStatus:
			value = "< " + m.filter.status + " >"
		case filterSort:
			value = "< " + m.filter.sort.Label() + " >"
		default:
			value = m.filter.inputs[i].View()
		}
		b.WriteString(fmt.Sprintf("%s %-8s : %s\n", prefix, label, value))
	}
	return b.String()
}

func (m Model) renderAgenda() string {
	days := view.Agenda(m.board.Visible())
	if len(days) == 0 {
		return "No visible task has a due date.\n"
	}
	now := m.now()
	var b strings.Builder
	for _, d := range days {
		b.WriteString(titleStyle.Render(d.Date.Format("Mon 02/01/2006")))
		b.WriteString("\n")
		for _, t := range d.Tasks {
			line := fmt.Sprintf("  #%d %s [%s]", t.ID, t.Title, t.Status.Label())
			if t.Overdue(now) {
				line = overdueStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}
