package sheet

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Integrity guards. Both are fatal for the write attempt that trips them and
// must never be silently worked around.
var (
	// ErrHeaderRow rejects any data write addressed at row 1.
	ErrHeaderRow = errors.New("write targets the header row")

	// ErrColumnMismatch rejects a row whose width differs from the header's,
	// which indicates a schema-version skew between client and backend.
	ErrColumnMismatch = errors.New("row width does not match the header")
)

// Store is the sqlite-backed row store: numbered rows, row 1 holding the
// header, data rows uniquely keyed by their date cell.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the row store at the given path.
//
// The database is opened in embedded mode with WAL for concurrent reads. On
// first open the schema is created and the header is written as row 1. The
// caller must Close when done.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := s.conn.Exec(pragma); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if err := s.init(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection after a WAL checkpoint.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	_, _ = s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

// Path returns the backing database path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) init() error {
	const schema = `
CREATE TABLE IF NOT EXISTS sheet_rows (
    row_num  INTEGER PRIMARY KEY,
    row_date TEXT UNIQUE,
    cells    TEXT NOT NULL
);`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Write the header as row 1 exactly once.
	var count int
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM sheet_rows WHERE row_num = 1").Scan(&count); err != nil {
		return fmt.Errorf("failed to check header row: %w", err)
	}
	if count == 0 {
		cells := make([]any, len(header))
		for i, h := range header {
			cells[i] = h
		}
		data, err := json.Marshal(cells)
		if err != nil {
			return fmt.Errorf("failed to encode header: %w", err)
		}
		if _, err := s.conn.Exec(
			"INSERT INTO sheet_rows (row_num, row_date, cells) VALUES (1, NULL, ?)", string(data),
		); err != nil {
			return fmt.Errorf("failed to write header row: %w", err)
		}
	}
	return nil
}

// UpsertDay writes the row for the given date: an existing row for that date
// is replaced in place, otherwise the row is appended. Returns "updated" or
// "created".
//
// The write is rejected with ErrColumnMismatch before anything is touched if
// the row's width differs from the header's, and with ErrHeaderRow if the
// resolved target is row 1. Neither failure mode leaves a partial write.
func (s *Store) UpsertDay(date string, cells []any) (string, error) {
	if len(cells) != len(header) {
		return "", fmt.Errorf("%w: row has %d cells, header has %d", ErrColumnMismatch, len(cells), len(header))
	}
	if date == "" {
		return "", fmt.Errorf("row date must not be empty")
	}

	data, err := json.Marshal(cells)
	if err != nil {
		return "", fmt.Errorf("failed to encode row: %w", err)
	}

	var rowNum int
	err = s.conn.QueryRow("SELECT row_num FROM sheet_rows WHERE row_date = ?", date).Scan(&rowNum)
	switch {
	case err == nil:
		if rowNum == 1 {
			return "", fmt.Errorf("%w: date %s resolves to row 1", ErrHeaderRow, date)
		}
		if _, err := s.conn.Exec("UPDATE sheet_rows SET cells = ? WHERE row_num = ?", string(data), rowNum); err != nil {
			return "", fmt.Errorf("failed to update row %d: %w", rowNum, err)
		}
		return "updated", nil

	case errors.Is(err, sql.ErrNoRows):
		// Append after the current last row. Row 1 is always occupied by the
		// header, so a data row can never land there.
		if _, err := s.conn.Exec(
			"INSERT INTO sheet_rows (row_num, row_date, cells) SELECT MAX(row_num) + 1, ?, ? FROM sheet_rows",
			date, string(data),
		); err != nil {
			return "", fmt.Errorf("failed to append row for %s: %w", date, err)
		}
		return "created", nil

	default:
		return "", fmt.Errorf("failed to look up row for %s: %w", date, err)
	}
}

// Day returns the row for the given date, or ok=false when no row exists.
func (s *Store) Day(date string) ([]any, bool, error) {
	var data string
	err := s.conn.QueryRow("SELECT cells FROM sheet_rows WHERE row_date = ?", date).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read row for %s: %w", date, err)
	}
	cells, err := decodeCells(data)
	if err != nil {
		return nil, false, err
	}
	return cells, true, nil
}

// PrevDay returns the most recent data row dated strictly before the given
// date, or ok=false when there is none.
func (s *Store) PrevDay(date string) ([]any, bool, error) {
	var data string
	err := s.conn.QueryRow(
		"SELECT cells FROM sheet_rows WHERE row_date IS NOT NULL AND row_date < ? ORDER BY row_date DESC LIMIT 1",
		date,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read row before %s: %w", date, err)
	}
	cells, err := decodeCells(data)
	if err != nil {
		return nil, false, err
	}
	return cells, true, nil
}

// TotalDays counts the data rows. The header never counts; this is the
// authoritative day count the client mirrors.
func (s *Store) TotalDays() (int, error) {
	var count int
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM sheet_rows WHERE row_num > 1").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count data rows: %w", err)
	}
	return count, nil
}

// History returns up to limit of the most recent data rows in chronological
// order. The limit is capped at 100.
func (s *Store) History(limit int) ([][]any, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := s.conn.Query(
		"SELECT cells FROM (SELECT row_date, cells FROM sheet_rows WHERE row_date IS NOT NULL ORDER BY row_date DESC LIMIT ?) ORDER BY row_date ASC",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		cells, err := decodeCells(data)
		if err != nil {
			return nil, err
		}
		out = append(out, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return out, nil
}

func decodeCells(data string) ([]any, error) {
	var cells []any
	if err := json.Unmarshal([]byte(data), &cells); err != nil {
		return nil, fmt.Errorf("failed to decode stored row: %w", err)
	}
	return cells, nil
}
