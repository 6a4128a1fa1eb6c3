// Package boardfile reads and writes human-editable YAML board documents.
//
// A document lists columns in board order, each with its tasks in column
// order:
//
//	columns:
//	  - id: todo
//	    title: To Do
//	    tasks:
//	      - id: t1
//	        title: Write docs
package boardfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/runoshun/board/internal/domain"
)

// Document is the on-disk shape of a board.
type Document struct {
	Columns []ColumnDoc `yaml:"columns"`
}

// ColumnDoc is a column and its tasks.
type ColumnDoc struct {
	CreatedAt time.Time `yaml:"created_at,omitempty"`
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Color     string    `yaml:"color,omitempty"`
	Tasks     []TaskDoc `yaml:"tasks,omitempty"`
}

// TaskDoc is a task inside a column.
type TaskDoc struct {
	CreatedAt   time.Time `yaml:"created_at,omitempty"`
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description,omitempty"`
}

// FromSnapshot converts a snapshot to a document in board order.
func FromSnapshot(s domain.Snapshot) Document {
	var doc Document
	for _, c := range s.SortedColumns() {
		cd := ColumnDoc{ID: c.ID, Title: c.Title, Color: c.Color, CreatedAt: c.CreatedAt}
		for _, t := range s.TasksIn(c.ID) {
			cd.Tasks = append(cd.Tasks, TaskDoc{
				ID:          t.ID,
				Title:       t.Title,
				Description: t.Description,
				CreatedAt:   t.CreatedAt,
			})
		}
		doc.Columns = append(doc.Columns, cd)
	}
	return doc
}

// Snapshot converts the document to a snapshot, taking order from list
// positions. Entries without an id get one from ids; with a nil generator a
// missing id is an error.
func (d Document) Snapshot(ids domain.IDGenerator) (domain.Snapshot, error) {
	var s domain.Snapshot
	for i, cd := range d.Columns {
		id, err := ensureID(cd.ID, ids)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("column %d: %w", i+1, err)
		}
		s.Columns = append(s.Columns, domain.Column{
			ID:         id,
			Title:      cd.Title,
			Color:      cd.Color,
			OrderIndex: i,
			CreatedAt:  cd.CreatedAt,
		})
		for j, td := range cd.Tasks {
			taskID, err := ensureID(td.ID, ids)
			if err != nil {
				return domain.Snapshot{}, fmt.Errorf("column %s task %d: %w", id, j+1, err)
			}
			s.Tasks = append(s.Tasks, domain.Task{
				ID:          taskID,
				Title:       td.Title,
				Description: td.Description,
				ColumnID:    id,
				OrderIndex:  j,
				CreatedAt:   td.CreatedAt,
			})
		}
	}
	return s, nil
}

func ensureID(id string, ids domain.IDGenerator) (string, error) {
	if id != "" {
		return id, nil
	}
	if ids == nil {
		return "", domain.ErrEmptyID
	}
	return ids.NewID(), nil
}

// Encode writes s as YAML.
func Encode(w io.Writer, s domain.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(FromSnapshot(s)); err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	return enc.Close()
}

// Decode reads a YAML document into a snapshot.
func Decode(r io.Reader, ids domain.IDGenerator) (domain.Snapshot, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return domain.Snapshot{}, nil
		}
		return domain.Snapshot{}, fmt.Errorf("decode board: %w", err)
	}
	return doc.Snapshot(ids)
}

// ReadFile decodes the document at path.
func ReadFile(path string, ids domain.IDGenerator) (domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return Decode(bytes.NewReader(data), ids)
}

// WriteFile encodes s to path.
func WriteFile(path string, s domain.Snapshot) error {
	var buf bytes.Buffer
	if err := Encode(&buf, s); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
