package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// schemaVersion is stored in PRAGMA user_version once the tasks table has the wide layout.
const schemaVersion = 2

const createTasks = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'not-started',
	tag TEXT DEFAULT NULL,
	due_date TEXT DEFAULT NULL,
	priority TEXT NOT NULL DEFAULT 'medium'
);`

// Older databases store the Portuguese labels of the first releases.
var legacyLabels = []struct {
	column, from, to string
}{
	{"status", "não iniciado", "not-started"},
	{"status", "em andamento", "in-progress"},
	{"status", "concluído", "done"},
	{"priority", "baixa", "low"},
	{"priority", "média", "medium"},
	{"priority", "alta", "high"},
}

type execQuerier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// migrate brings any known tasks table layout up to schemaVersion without dropping rows.
func (s *SQLiteStore) migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := migrateTx(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func migrateTx(db execQuerier) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version;`).Scan(&version); err != nil {
		return err
	}
	cols, err := tableColumns(db, "tasks")
	if err != nil {
		return err
	}
	if version >= schemaVersion && len(cols) > 0 {
		return nil
	}

	switch {
	case len(cols) == 0:
		if _, err := db.Exec(createTasks); err != nil {
			return err
		}
	case has(cols, "title"):
	case has(cols, "titulo"):
		if _, err := db.Exec(`ALTER TABLE tasks RENAME COLUMN titulo TO title;`); err != nil {
			return err
		}
	case has(cols, "id") && has(cols, "description"):
		if err := rebuildNarrow(db, cols); err != nil {
			return err
		}
	default:
		return errors.New("unrecognised tasks table layout")
	}

	if err := ensureTaskColumns(db); err != nil {
		return err
	}
	if err := normalizeLabels(db); err != nil {
		return err
	}
	_, err = db.Exec(fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion))
	return err
}

// rebuildNarrow copies the id/description/status table into the wide layout.
// The user-supplied id becomes the title; rows get fresh integer ids.
func rebuildNarrow(db execQuerier, cols map[string]struct{}) error {
	status := "'not-started'"
	if has(cols, "status") {
		status = "COALESCE(status, 'not-started')"
	}
	stmts := []string{
		`ALTER TABLE tasks RENAME TO tasks_legacy;`,
		createTasks,
		fmt.Sprintf(`INSERT INTO tasks (title, description, status)
	SELECT CAST(id AS TEXT), description, %s FROM tasks_legacy ORDER BY rowid;`, status),
		`DROP TABLE tasks_legacy;`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func ensureTaskColumns(db execQuerier) error {
	required := []struct{ name, alter string }{
		{"status", "ALTER TABLE tasks ADD COLUMN status TEXT NOT NULL DEFAULT 'not-started';"},
		{"tag", "ALTER TABLE tasks ADD COLUMN tag TEXT DEFAULT NULL;"},
		{"due_date", "ALTER TABLE tasks ADD COLUMN due_date TEXT DEFAULT NULL;"},
		{"priority", "ALTER TABLE tasks ADD COLUMN priority TEXT NOT NULL DEFAULT 'medium';"},
	}
	existing, err := tableColumns(db, "tasks")
	if err != nil {
		return err
	}
	for _, col := range required {
		if has(existing, col.name) {
			continue
		}
		if _, err := db.Exec(col.alter); err != nil {
			return err
		}
	}
	return nil
}

func normalizeLabels(db execQuerier) error {
	for _, l := range legacyLabels {
		q := fmt.Sprintf(`UPDATE tasks SET %s = ? WHERE %s = ?;`, l.column, l.column)
		if _, err := db.Exec(q, l.to, l.from); err != nil {
			return err
		}
	}
	if _, err := db.Exec(`UPDATE tasks SET status = 'not-started' WHERE status IS NULL OR status = '';`); err != nil {
		return err
	}
	_, err := db.Exec(`UPDATE tasks SET priority = 'medium' WHERE priority IS NULL OR priority = '';`)
	return err
}

func tableColumns(db execQuerier, table string) (map[string]struct{}, error) {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%s);`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		existing[name] = struct{}{}
	}
	return existing, rows.Err()
}

func has(cols map[string]struct{}, name string) bool {
	_, ok := cols[name]
	return ok
}
