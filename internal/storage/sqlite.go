package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"planner/internal/task"
)

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dbPath, err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Add(t task.Task) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO tasks (title, description, status, tag, due_date, priority) VALUES (?, ?, ?, ?, ?, ?);`,
		t.Title, t.Description, string(t.Status), nullString(t.Tag), nullString(t.Due), string(t.Priority))
	if err != nil {
		return InvalidID, storeErr("add task", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return InvalidID, storeErr("add task", err)
	}
	return id, nil
}

func (s *SQLiteStore) All() ([]task.Task, error) {
	rows, err := s.db.Query(`SELECT id, title, description, status, tag, due_date, priority FROM tasks;`)
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		var t task.Task
		var status, priority string
		var tag, due sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &status, &tag, &due, &priority); err != nil {
			return nil, storeErr("scan task", err)
		}
		t.Status = task.Status(status)
		t.Priority = task.Priority(priority)
		t.Tag = tag.String
		t.Due = due.String
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list tasks", err)
	}
	return tasks, nil
}

func (s *SQLiteStore) Update(t task.Task) error {
	res, err := s.db.Exec(`UPDATE tasks SET title = ?, description = ?, status = ?, tag = ?, due_date = ?, priority = ? WHERE id = ?;`,
		t.Title, t.Description, string(t.Status), nullString(t.Tag), nullString(t.Due), string(t.Priority), t.ID)
	if err != nil {
		return storeErr("update task", err)
	}
	return exactlyOne(res, t.ID)
}

func (s *SQLiteStore) Delete(id int64) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?;`, id)
	if err != nil {
		return storeErr("delete task", err)
	}
	return exactlyOne(res, id)
}

func (s *SQLiteStore) Exists(id int64) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM tasks WHERE id = ?;`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("probe task", err)
	}
	return true, nil
}

func exactlyOne(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("rows affected", err)
	}
	if n != 1 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

func nullString(v string) sql.NullString {
	if strings.TrimSpace(v) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}
