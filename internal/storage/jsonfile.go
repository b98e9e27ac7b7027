package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"planner/internal/task"
)

type jsonRecord struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Tag         string `json:"tag,omitempty"`
	Due         string `json:"due_date,omitempty"`
	Priority    string `json:"priority"`
}

// nextIDKey holds the id high-water mark next to the records so deleted ids
// are never handed out again.
const nextIDKey = "next_id"

// JSONStore keeps every task in one JSON object keyed by id and rewrites the
// whole file on each mutation. Files in the older flat format, mapping a text
// id to a description, are converted on open.
type JSONStore struct {
	path    string
	records map[int64]jsonRecord
	nextID  int64
}

// OpenJSON loads path. A missing file is an empty store; a corrupt file is
// logged and replaced by an empty store on the next write.
func OpenJSON(path string) (*JSONStore, error) {
	if path == "" {
		return nil, errors.New("json path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	s := &JSONStore{path: path, records: map[int64]jsonRecord{}, nextID: 1}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONStore) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("json store %s is corrupt, starting empty: %v", s.path, err)
		return nil
	}

	legacy := map[string]string{}
	for key, msg := range raw {
		if key == nextIDKey {
			var next int64
			if err := json.Unmarshal(msg, &next); err == nil {
				s.nextID = max(s.nextID, next)
				continue
			}
		}
		var desc string
		if err := json.Unmarshal(msg, &desc); err == nil {
			legacy[key] = desc
			continue
		}
		var rec jsonRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			log.Printf("json store %s: skipping record %q: %v", s.path, key, err)
			continue
		}
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil || id <= 0 {
			log.Printf("json store %s: skipping record with id %q", s.path, key)
			continue
		}
		s.records[id] = rec
		if id >= s.nextID {
			s.nextID = id + 1
		}
	}
	if len(legacy) == 0 {
		return nil
	}
	return s.convertLegacy(legacy)
}

// convertLegacy turns flat id-to-description entries into records with fresh
// ids, keeping the old text id as the title, and writes the converted file.
func (s *JSONStore) convertLegacy(legacy map[string]string) error {
	keys := make([]string, 0, len(legacy))
	for key := range legacy {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		s.records[s.nextID] = toRecord(task.New(key, legacy[key]))
		s.nextID++
	}
	log.Printf("json store %s: converted %d flat entries", s.path, len(keys))
	if err := s.save(); err != nil {
		return storeErr("convert flat json store", err)
	}
	return nil
}

func (s *JSONStore) save() error {
	raw := make(map[string]any, len(s.records)+1)
	for id, rec := range s.records {
		raw[strconv.FormatInt(id, 10)] = rec
	}
	raw[nextIDKey] = s.nextID
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tasks-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) Add(t task.Task) (int64, error) {
	id := s.nextID
	s.records[id] = toRecord(t)
	s.nextID++
	if err := s.save(); err != nil {
		delete(s.records, id)
		s.nextID = id
		return InvalidID, storeErr("add task", err)
	}
	return id, nil
}

func (s *JSONStore) All() ([]task.Task, error) {
	tasks := make([]task.Task, 0, len(s.records))
	for id, rec := range s.records {
		tasks = append(tasks, rec.toTask(id))
	}
	return tasks, nil
}

func (s *JSONStore) Update(t task.Task) error {
	prev, ok := s.records[t.ID]
	if !ok {
		return fmt.Errorf("task %d: %w", t.ID, ErrNotFound)
	}
	s.records[t.ID] = toRecord(t)
	if err := s.save(); err != nil {
		s.records[t.ID] = prev
		return storeErr("update task", err)
	}
	return nil
}

func (s *JSONStore) Delete(id int64) error {
	prev, ok := s.records[id]
	if !ok {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	delete(s.records, id)
	if err := s.save(); err != nil {
		s.records[id] = prev
		return storeErr("delete task", err)
	}
	return nil
}

func (s *JSONStore) Exists(id int64) (bool, error) {
	_, ok := s.records[id]
	return ok, nil
}

func toRecord(t task.Task) jsonRecord {
	return jsonRecord{
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Tag:         t.Tag,
		Due:         t.Due,
		Priority:    string(t.Priority),
	}
}

func (r jsonRecord) toTask(id int64) task.Task {
	return task.Task{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Status:      task.Status(r.Status),
		Tag:         r.Tag,
		Due:         r.Due,
		Priority:    task.Priority(r.Priority),
	}
}
