package storage

import (
	"cmp"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"planner/internal/task"
)

func TestJSONStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	s, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("OpenJSON err=%v", err)
	}
	id, err := s.Add(buyMilk())
	if err != nil {
		t.Fatalf("Add() err=%v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile err=%v", err)
	}
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("file is not a JSON object: %v", err)
	}
	if _, ok := raw["1"]; !ok || len(raw) != 2 {
		t.Fatalf("file keys=%v, want 1 and %s", raw, nextIDKey)
	}
	if got := string(raw[nextIDKey]); got != "2" {
		t.Fatalf("%s=%s, want 2", nextIDKey, got)
	}

	s2, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("reopen err=%v", err)
	}
	all, _ := s2.All()
	want := buyMilk()
	want.ID = id
	if len(all) != 1 || all[0] != want {
		t.Fatalf("All()=%+v, want [%+v]", all, want)
	}
	next, _ := s2.Add(task.New("next", "d"))
	if next != id+1 {
		t.Fatalf("Add() after reopen id=%d, want %d", next, id+1)
	}
}

func TestJSONStore_CorruptFileResetsToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile err=%v", err)
	}

	s, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("OpenJSON err=%v, want nil", err)
	}
	all, _ := s.All()
	if len(all) != 0 {
		t.Fatalf("len(All())=%d, want 0", len(all))
	}
	if _, err := s.Add(task.New("fresh", "start")); err != nil {
		t.Fatalf("Add() err=%v", err)
	}
	data, _ := os.ReadFile(path)
	if !json.Valid(data) {
		t.Fatalf("file still corrupt after write: %s", data)
	}
}

func TestJSONStore_SkipsNonNumericKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	content := `{"abc": {"title": "x", "description": "y", "status": "done", "priority": "low"},
		"7": {"title": "kept", "description": "y", "status": "done", "priority": "low"}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile err=%v", err)
	}
	s, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("OpenJSON err=%v", err)
	}
	all, _ := s.All()
	if len(all) != 1 || all[0].ID != 7 || all[0].Title != "kept" {
		t.Fatalf("All()=%+v", all)
	}
}

func TestJSONStore_ConvertsFlatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	content := `{"report": "Q3 numbers", "groceries": "milk and eggs"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile err=%v", err)
	}

	s, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("OpenJSON err=%v", err)
	}
	all, _ := s.All()
	slices.SortFunc(all, func(a, b task.Task) int { return cmp.Compare(a.ID, b.ID) })
	want := []task.Task{
		{ID: 1, Title: "groceries", Description: "milk and eggs", Status: task.StatusNotStarted, Priority: task.PriorityMedium},
		{ID: 2, Title: "report", Description: "Q3 numbers", Status: task.StatusNotStarted, Priority: task.PriorityMedium},
	}
	if !slices.Equal(all, want) {
		t.Fatalf("All()=%+v, want %+v", all, want)
	}

	if _, err := s.Add(task.New("x", "y")); err != nil {
		t.Fatalf("Add() err=%v", err)
	}
	reopened, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("reopen err=%v", err)
	}
	all, _ = reopened.All()
	if len(all) != 3 {
		t.Fatalf("len(All())=%d after reopen, want 3 (flat entries kept)", len(all))
	}
}

func TestJSONStore_NoIDReuseAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	s, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("OpenJSON err=%v", err)
	}
	if _, err := s.Add(task.New("a", "b")); err != nil {
		t.Fatalf("Add() err=%v", err)
	}
	last, _ := s.Add(task.New("c", "d"))
	if err := s.Delete(last); err != nil {
		t.Fatalf("Delete() err=%v", err)
	}

	reopened, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("reopen err=%v", err)
	}
	id, err := reopened.Add(task.New("e", "f"))
	if err != nil {
		t.Fatalf("Add() err=%v", err)
	}
	if id <= last {
		t.Fatalf("Add() after reopen id=%d, want > %d", id, last)
	}
}
