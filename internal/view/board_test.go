package view

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"planner/internal/storage"
	"planner/internal/task"
)

func newBoard(t *testing.T) (*Board, storage.Repository) {
	t.Helper()
	repo, err := storage.Open(storage.BackendSQLite, filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("storage.Open err=%v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	b, err := NewBoard(repo, SortDue)
	if err != nil {
		t.Fatalf("NewBoard() err=%v, want nil", err)
	}
	if err := b.Reload(); err != nil {
		t.Fatalf("Reload() err=%v, want nil", err)
	}
	return b, repo
}

func milkDraft() Draft {
	return Draft{
		Title:       "Buy milk",
		Description: "2%, 1 gallon",
		Status:      task.StatusNotStarted,
		Due:         "15/03/2025",
		Priority:    task.PriorityLow,
	}
}

// --- fakes ---

type fakeStore struct {
	addFn  func(task.Task) (int64, error)
	tasks  []task.Task
	allErr error
}

func (s *fakeStore) Add(t task.Task) (int64, error) { return s.addFn(t) }
func (s *fakeStore) All() ([]task.Task, error)     { return s.tasks, s.allErr }
func (s *fakeStore) Update(task.Task) error         { return storage.ErrNotFound }
func (s *fakeStore) Delete(int64) error             { return storage.ErrNotFound }

// --- tests ---

func TestNewBoard_NilStore(t *testing.T) {
	if _, err := NewBoard(nil, SortDue); !errors.Is(err, ErrStoreNil) {
		t.Fatalf("NewBoard(nil) err=%v, want %v", err, ErrStoreNil)
	}
}

func TestBoard_AddShowsExactRecord(t *testing.T) {
	b, _ := newBoard(t)

	id, err := b.Add(milkDraft())
	if err != nil {
		t.Fatalf("Add() err=%v, want nil", err)
	}
	want := task.Task{ID: id, Title: "Buy milk", Description: "2%, 1 gallon", Status: task.StatusNotStarted, Due: "15/03/2025", Priority: task.PriorityLow}
	got := b.Visible()
	if len(got) != 1 || got[0] != want {
		t.Fatalf("Visible()=%+v, want [%+v]", got, want)
	}
}

func TestBoard_AddValidation(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
	}{
		{name: "empty title", draft: Draft{Description: "d"}},
		{name: "empty description", draft: Draft{Title: "t"}},
		{name: "bad due date", draft: Draft{Title: "t", Description: "d", Due: "next week"}},
		{name: "unknown status", draft: Draft{Title: "t", Description: "d", Status: "blocked"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, repo := newBoard(t)
			if _, err := b.Add(tt.draft); !errors.Is(err, task.ErrInvalid) {
				t.Fatalf("Add() err=%v, want %v", err, task.ErrInvalid)
			}
			all, _ := repo.All()
			if len(all) != 0 {
				t.Fatalf("store has %d rows after invalid add, want 0", len(all))
			}
		})
	}
}

func TestBoard_AddNormalisesDueDate(t *testing.T) {
	b, _ := newBoard(t)
	d := milkDraft()
	d.Due = "2025-03-05"
	id, err := b.Add(d)
	if err != nil {
		t.Fatalf("Add() err=%v", err)
	}
	got, ok := b.Find(id)
	if !ok || got.Due != "05/03/2025" {
		t.Fatalf("Find(%d)=%+v,%v want due 05/03/2025", id, got, ok)
	}
}

func TestBoard_UpdateAndDelete(t *testing.T) {
	b, repo := newBoard(t)
	first, _ := b.Add(milkDraft())
	second, _ := b.Add(Draft{Title: "Other", Description: "d"})

	d := milkDraft()
	d.Status = task.StatusDone
	if err := b.Update(first, d); err != nil {
		t.Fatalf("Update() err=%v", err)
	}
	if got, _ := b.Find(first); got.Status != task.StatusDone {
		t.Fatalf("Find(first).Status=%q, want done", got.Status)
	}
	if got, _ := b.Find(second); got.Status != task.StatusNotStarted {
		t.Fatalf("Find(second).Status=%q, want not-started", got.Status)
	}

	if err := b.Update(999, d); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Update(999) err=%v, want %v", err, storage.ErrNotFound)
	}

	if err := b.Delete(first); err != nil {
		t.Fatalf("Delete() err=%v", err)
	}
	if ok, _ := repo.Exists(first); ok {
		t.Fatalf("Exists(first)=true after Delete, want false")
	}
	if len(b.Visible()) != 1 {
		t.Fatalf("len(Visible())=%d, want 1", len(b.Visible()))
	}
}

func TestBoard_FilterAndClear(t *testing.T) {
	b, err := NewBoard(&fakeStore{tasks: fixtures()}, SortPriority)
	if err != nil {
		t.Fatalf("NewBoard err=%v", err)
	}
	if err := b.Reload(); err != nil {
		t.Fatalf("Reload err=%v", err)
	}

	b.SetFilter(Filter{Tag: "nowhere"})
	if len(b.Visible()) != 0 {
		t.Fatalf("len(Visible())=%d, want 0", len(b.Visible()))
	}
	b.SetSort(SortID)
	b.ClearFilter()
	if !b.Filter().IsZero() {
		t.Fatalf("Filter()=%+v after clear, want zero", b.Filter())
	}
	if b.SortKey() != SortPriority {
		t.Fatalf("SortKey()=%q after clear, want %q", b.SortKey(), SortPriority)
	}
	if got := ids(b.Visible()); !equalIDs(got, []int64{2, 3, 5, 1, 4}) {
		t.Fatalf("Visible()=%v", got)
	}
}

func TestBoard_ExportImportRoundTrip(t *testing.T) {
	src, _ := newBoard(t)
	if _, err := src.Add(milkDraft()); err != nil {
		t.Fatalf("Add() err=%v", err)
	}
	if _, err := src.Add(Draft{Title: "Pay rent", Description: "transfer, today", Tag: "home", Status: task.StatusInProgress, Priority: task.PriorityHigh}); err != nil {
		t.Fatalf("Add() err=%v", err)
	}

	path := filepath.Join(t.TempDir(), "tasks.csv")
	n, err := src.Export(path)
	if err != nil || n != 2 {
		t.Fatalf("Export()=%d,%v want 2,nil", n, err)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "ID,Title,Description,Status,Tag,Due Date,Priority\n") {
		t.Fatalf("export header missing: %q", data)
	}

	dst, _ := newBoard(t)
	n, err = dst.Import(path)
	if err != nil || n != 2 {
		t.Fatalf("Import()=%d,%v want 2,nil", n, err)
	}

	strip := func(tasks []task.Task) map[string]task.Task {
		out := map[string]task.Task{}
		for _, t := range tasks {
			t.ID = 0
			out[t.Title] = t
		}
		return out
	}
	want, got := strip(src.All()), strip(dst.All())
	if len(got) != len(want) {
		t.Fatalf("imported %d tasks, want %d", len(got), len(want))
	}
	for title, w := range want {
		if got[title] != w {
			t.Fatalf("imported %q=%+v, want %+v", title, got[title], w)
		}
	}

	n, err = dst.Import(path)
	if err != nil || n != 2 || len(dst.All()) != 4 {
		t.Fatalf("second Import()=%d,%v total=%d, want duplicates", n, err, len(dst.All()))
	}
}

func TestBoard_ImportStopsOnStoreError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	content := "ID,Title,Description,Status,Tag,Due Date,Priority\n1,a,b,done,,,low\n2,c,d,done,,,low\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile err=%v", err)
	}
	calls := 0
	b, _ := NewBoard(&fakeStore{addFn: func(task.Task) (int64, error) {
		calls++
		if calls == 2 {
			return storage.InvalidID, storage.ErrStore
		}
		return int64(calls), nil
	}}, SortDue)

	n, err := b.Import(path)
	if !errors.Is(err, storage.ErrStore) {
		t.Fatalf("Import() err=%v, want %v", err, storage.ErrStore)
	}
	if n != 1 {
		t.Fatalf("Import() added=%d, want 1", n)
	}
}

func TestBoard_ImportReportsReloadFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	content := "ID,Title,Description,Status,Tag,Due Date,Priority\n1,a,b,done,,,low\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile err=%v", err)
	}
	reloadErr := errors.New("disk gone")
	b, _ := NewBoard(&fakeStore{
		addFn:  func(task.Task) (int64, error) { return storage.InvalidID, storage.ErrStore },
		allErr: reloadErr,
	}, SortDue)

	_, err := b.Import(path)
	if !errors.Is(err, storage.ErrStore) {
		t.Fatalf("Import() err=%v, want %v", err, storage.ErrStore)
	}
	if !errors.Is(err, reloadErr) {
		t.Fatalf("Import() err=%v, want it to include %v", err, reloadErr)
	}
}

func TestBoard_UpdateKeepsUnparsedStoredDue(t *testing.T) {
	b, repo := newBoard(t)
	stored := task.New("Imported long ago", "d")
	stored.Due = "someday"
	id, err := repo.Add(stored)
	if err != nil {
		t.Fatalf("repo.Add() err=%v", err)
	}
	if err := b.Reload(); err != nil {
		t.Fatalf("Reload() err=%v", err)
	}
	prev, _ := b.Find(id)

	d := DraftOf(prev)
	d.Status = task.StatusDone
	if err := b.Update(id, d); err != nil {
		t.Fatalf("Update() with unchanged due err=%v, want nil", err)
	}
	if got, _ := b.Find(id); got.Status != task.StatusDone || got.Due != "someday" {
		t.Fatalf("Find(%d)=%+v, want done with due kept", id, got)
	}

	d.Due = "tomorrow"
	if err := b.Update(id, d); !errors.Is(err, task.ErrInvalid) {
		t.Fatalf("Update() with new bad due err=%v, want %v", err, task.ErrInvalid)
	}
}

func TestBoard_ExportEmptyPath(t *testing.T) {
	b, _ := newBoard(t)
	if _, err := b.Export("  "); err == nil {
		t.Fatalf("Export(blank) err=nil, want non-nil")
	}
	if _, err := b.Import(""); err == nil {
		t.Fatalf("Import(blank) err=nil, want non-nil")
	}
}
