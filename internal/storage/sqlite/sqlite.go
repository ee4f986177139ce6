// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// Each student is one row. The update history is a JSON array column, so
// a record round-trips as a single document and no join table is needed.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aanand-mishra/roster-api/internal/storage"
	"github.com/aanand-mishra/roster-api/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is a connection pool and is safe for concurrent use.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at path, creates the students table if it
// does not already exist, and returns a ready-to-use *SQLite.
func New(path string) (*SQLite, error) {
	// sql.Open does NOT open a real connection yet — it just validates
	// the driver name and data source name (DSN).
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// Schema:
	//   id             — text primary key (uuid, or a caller-supplied id)
	//   gender         — indexed, ExistsByGender reads it
	//   created_at     — RFC 3339 timestamp, NULL for full-record inserts
	//   update_history — JSON array of RFC 3339 timestamps, NULL when unset
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id             TEXT    PRIMARY KEY,
			name           TEXT    NOT NULL,
			age            INTEGER NOT NULL,
			gender         TEXT    NOT NULL,
			created_at     TEXT,
			update_history TEXT
		);
		CREATE INDEX IF NOT EXISTS students_gender_idx ON students (gender);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close releases the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// Save upserts a row keyed by id. ON CONFLICT keeps the original rowid, so
// FindAll keeps returning records in first-insert order after updates.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Save(ctx context.Context, student types.Student) (types.Student, error) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}

	createdAt, history, err := encodeAudit(student)
	if err != nil {
		return types.Student{}, fmt.Errorf("Save: %w", err)
	}

	stmt, err := s.Db.PrepareContext(ctx, `
		INSERT INTO students (id, name, age, gender, created_at, update_history)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			age = excluded.age,
			gender = excluded.gender,
			created_at = excluded.created_at,
			update_history = excluded.update_history
	`)
	if err != nil {
		return types.Student{}, fmt.Errorf("Save: prepare: %w", err)
	}
	defer stmt.Close()

	// Argument order matches the ? order in the SQL.
	_, err = stmt.ExecContext(ctx,
		student.ID, student.Name, student.Age, student.Gender, createdAt, history)
	if err != nil {
		return types.Student{}, fmt.Errorf("Save: exec: %w", err)
	}

	return student, nil
}

// FindByID fetches exactly one row matched by primary key.
func (s *SQLite) FindByID(ctx context.Context, id string) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT id, name, age, gender, created_at, update_history FROM students WHERE id = ? LIMIT 1",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("FindByID: prepare: %w", err)
	}
	defer stmt.Close()

	student, err := scanStudent(stmt.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, fmt.Errorf("FindByID: scan: %w", err)
	}

	return student, nil
}

// FindAll returns all rows in insertion order.
func (s *SQLite) FindAll(ctx context.Context) ([]types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT id, name, age, gender, created_at, update_history FROM students ORDER BY rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("FindAll: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindAll: query: %w", err)
	}
	defer rows.Close()

	// Non-nil so the API encodes [] rather than null.
	students := make([]types.Student, 0)

	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("FindAll: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindAll: rows iteration: %w", err)
	}

	return students, nil
}

// DeleteByID removes a row by primary key. Zero affected rows is fine.
func (s *SQLite) DeleteByID(ctx context.Context, id string) error {
	stmt, err := s.Db.PrepareContext(ctx, "DELETE FROM students WHERE id = ?")
	if err != nil {
		return fmt.Errorf("DeleteByID: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, id); err != nil {
		return fmt.Errorf("DeleteByID: exec: %w", err)
	}

	return nil
}

func (s *SQLite) DeleteAll(ctx context.Context) error {
	if _, err := s.Db.ExecContext(ctx, "DELETE FROM students"); err != nil {
		return fmt.Errorf("DeleteAll: exec: %w", err)
	}
	return nil
}

func (s *SQLite) ExistsByGender(ctx context.Context, gender string) (bool, error) {
	var exists bool
	err := s.Db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM students WHERE gender = ?)", gender,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ExistsByGender: scan: %w", err)
	}
	return exists, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (types.Student, error) {
	var (
		student   types.Student
		createdAt sql.NullString
		history   sql.NullString
	)

	// Scan order must match the SELECT column order.
	if err := row.Scan(
		&student.ID,
		&student.Name,
		&student.Age,
		&student.Gender,
		&createdAt,
		&history,
	); err != nil {
		return types.Student{}, err
	}

	if createdAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, createdAt.String)
		if err != nil {
			return types.Student{}, fmt.Errorf("parse created_at: %w", err)
		}
		student.CreatedAt = &t
	}

	if history.Valid {
		if err := json.Unmarshal([]byte(history.String), &student.UpdateHistory); err != nil {
			return types.Student{}, fmt.Errorf("decode update_history: %w", err)
		}
		if student.UpdateHistory == nil {
			student.UpdateHistory = []time.Time{}
		}
	}

	return student, nil
}

func encodeAudit(student types.Student) (createdAt, history sql.NullString, err error) {
	if student.CreatedAt != nil {
		createdAt = sql.NullString{String: student.CreatedAt.Format(time.RFC3339Nano), Valid: true}
	}
	if student.UpdateHistory != nil {
		raw, err := json.Marshal(student.UpdateHistory)
		if err != nil {
			return createdAt, history, fmt.Errorf("encode update_history: %w", err)
		}
		history = sql.NullString{String: string(raw), Valid: true}
	}
	return createdAt, history, nil
}

var _ storage.Storage = (*SQLite)(nil)
