// Package transfer reads and writes tasks as CSV with a fixed header.
package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"planner/internal/task"
)

// ErrHeader is returned when the first row is not a known header.
var ErrHeader = errors.New("unexpected csv header")

// Header is written by Export and required by Import.
var Header = []string{"ID", "Title", "Description", "Status", "Tag", "Due Date", "Priority"}

// legacyHeader is what the first releases exported.
var legacyHeader = []string{"ID", "Título", "Descrição", "Status", "Tag", "Data Limite", "Prioridade"}

const (
	colID = iota
	colTitle
	colDescription
	colStatus
	colTag
	colDue
	colPriority
)

func Export(w io.Writer, tasks []task.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, t := range tasks {
		row := []string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			t.Description,
			string(t.Status),
			t.Tag,
			t.Due,
			string(t.Priority),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Import parses every row into a new task. Ids in the file are ignored.
// Nothing is returned unless every row parses and validates.
func Import(r io.Reader) ([]task.Task, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrHeader)
	}
	if err != nil {
		return nil, err
	}
	if !matchHeader(head, Header) && !matchHeader(head, legacyHeader) {
		return nil, fmt.Errorf("%w: %s", ErrHeader, strings.Join(head, ","))
	}
	cr.FieldsPerRecord = len(Header)

	var tasks []task.Task
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		t, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func parseRow(row []string) (task.Task, error) {
	status, err := task.ParseStatus(row[colStatus])
	if err != nil {
		return task.Task{}, err
	}
	priority, err := task.ParsePriority(row[colPriority])
	if err != nil {
		return task.Task{}, err
	}
	t := task.Task{
		Title:       row[colTitle],
		Description: row[colDescription],
		Status:      status,
		Tag:         row[colTag],
		Due:         row[colDue],
		Priority:    priority,
	}.Normalize()
	if err := t.Validate(); err != nil {
		return task.Task{}, err
	}
	if t.Due, err = task.CleanDue(t.Due); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func matchHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		field := strings.TrimSpace(strings.TrimPrefix(got[i], "\ufeff"))
		if !strings.EqualFold(field, want[i]) {
			return false
		}
	}
	return true
}

func ExportFile(path string, tasks []task.Task) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Export(f, tasks); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ImportFile(path string) ([]task.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Import(f)
}
