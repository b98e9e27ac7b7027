package view

import (
	"errors"
	"fmt"
	"strings"

	"planner/internal/task"
	"planner/internal/transfer"
)

var ErrStoreNil = errors.New("task store is nil")

// Store is what the board needs from persistence.
type Store interface {
	Add(t task.Task) (int64, error)
	All() ([]task.Task, error)
	Update(t task.Task) error
	Delete(id int64) error
}

// Draft is the content of the detail form.
type Draft struct {
	Title       string
	Description string
	Tag         string
	Due         string
	Status      task.Status
	Priority    task.Priority
}

func DraftOf(t task.Task) Draft {
	return Draft{
		Title:       t.Title,
		Description: t.Description,
		Tag:         t.Tag,
		Due:         t.Due,
		Status:      t.Status,
		Priority:    t.Priority,
	}
}

// Task validates the draft and returns the task it describes. Due dates must
// parse and are rewritten in task.DateLayout.
func (d Draft) Task(id int64) (task.Task, error) {
	return d.task(id, "")
}

// task builds the record. A due equal to keepDue is stored unchanged even when
// it does not parse.
func (d Draft) task(id int64, keepDue string) (task.Task, error) {
	t := task.Task{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		Tag:         d.Tag,
		Due:         d.Due,
		Priority:    d.Priority,
	}.Normalize()
	if err := t.Validate(); err != nil {
		return task.Task{}, err
	}
	if t.Due != "" && t.Due != keepDue {
		due, err := task.CleanDue(t.Due)
		if err != nil {
			return task.Task{}, err
		}
		t.Due = due
	}
	return t, nil
}

// Board is the view-model behind the list and form. Every command goes to the
// store and then reloads the whole list.
type Board struct {
	store       Store
	all         []task.Task
	visible     []task.Task
	filter      Filter
	sort        SortKey
	defaultSort SortKey
}

func NewBoard(store Store, sort SortKey) (*Board, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if sort == "" {
		sort = SortDue
	}
	return &Board{store: store, sort: sort, defaultSort: sort}, nil
}

func (b *Board) Reload() error {
	all, err := b.store.All()
	if err != nil {
		return err
	}
	b.all = all
	b.refresh()
	return nil
}

func (b *Board) refresh() {
	b.visible = Apply(b.all, b.filter, b.sort)
}

func (b *Board) Visible() []task.Task { return b.visible }

func (b *Board) All() []task.Task { return b.all }

func (b *Board) Filter() Filter { return b.filter }

func (b *Board) SortKey() SortKey { return b.sort }

func (b *Board) Find(id int64) (task.Task, bool) {
	for _, t := range b.all {
		if t.ID == id {
			return t, true
		}
	}
	return task.Task{}, false
}

func (b *Board) Add(d Draft) (int64, error) {
	t, err := d.Task(0)
	if err != nil {
		return 0, err
	}
	id, err := b.store.Add(t)
	if err != nil {
		return 0, err
	}
	return id, b.Reload()
}

// Update replaces task id. An unparsable due date already stored on the task
// is accepted as long as it is left as is.
func (b *Board) Update(id int64, d Draft) error {
	prev, _ := b.Find(id)
	t, err := d.task(id, prev.Due)
	if err != nil {
		return err
	}
	if err := b.store.Update(t); err != nil {
		return err
	}
	return b.Reload()
}

func (b *Board) Delete(id int64) error {
	if err := b.store.Delete(id); err != nil {
		return err
	}
	return b.Reload()
}

func (b *Board) SetFilter(f Filter) {
	b.filter = f
	b.refresh()
}

func (b *Board) SetSort(k SortKey) {
	b.sort = k
	b.refresh()
}

// ClearFilter drops every predicate and restores the default sort.
func (b *Board) ClearFilter() {
	b.filter = Filter{}
	b.sort = b.defaultSort
	b.refresh()
}

// Export writes every stored task, not just the visible ones.
func (b *Board) Export(path string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, errors.New("export path is empty")
	}
	all, err := b.store.All()
	if err != nil {
		return 0, err
	}
	Sort(all, SortID)
	if err := transfer.ExportFile(path, all); err != nil {
		return 0, err
	}
	return len(all), nil
}

// Import adds every row of the CSV at path as a new task. Rows added before a
// store failure stay added.
func (b *Board) Import(path string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, errors.New("import path is empty")
	}
	tasks, err := transfer.ImportFile(path)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, t := range tasks {
		if _, err := b.store.Add(t); err != nil {
			err = fmt.Errorf("import row %d: %w", added+1, err)
			if rerr := b.Reload(); rerr != nil {
				err = errors.Join(err, rerr)
			}
			return added, err
		}
		added++
	}
	return added, b.Reload()
}
