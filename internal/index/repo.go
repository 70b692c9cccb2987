package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// FileRow represents a row in the files table.
type FileRow struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// DayRow is one indexed day node.
type DayRow struct {
	Path  string `json:"path"`
	Date  string `json:"date"`
	Title string `json:"title"`
	// Line is the 1-based line of the day heading.
	Line int `json:"line"`
	// Entries counts the day's direct children.
	Entries int `json:"entries"`
}

// DayQuery filters Days. Empty fields do not constrain. From and To are
// inclusive ISO dates.
type DayQuery struct {
	Path string
	From string
	To   string
}

// UpsertFile replaces a file's row and all of its day rows in one
// transaction.
func (db *DB) UpsertFile(f FileRow, days []DayRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO files (path, checksum, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			updated_at = excluded.updated_at
	`, f.Path, f.Checksum, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert file: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM days WHERE path = ?`, f.Path); err != nil {
		return fmt.Errorf("index: clear days: %w", err)
	}
	if len(days) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO days (path, date, title, line, entries) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare day insert: %w", err)
		}
		defer stmt.Close()
		for _, d := range days {
			if _, err := stmt.Exec(f.Path, d.Date, d.Title, d.Line, d.Entries); err != nil {
				return fmt.Errorf("index: insert day: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteFile removes a file and its day rows.
func (db *DB) DeleteFile(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM days WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete days: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete file: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a file, or "" if not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns path to checksum for every indexed file.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Days returns indexed day nodes ordered by date, then path.
func (db *DB) Days(q DayQuery) ([]DayRow, error) {
	var (
		where []string
		args  []any
	)
	if q.Path != "" {
		where = append(where, "path = ?")
		args = append(args, q.Path)
	}
	if q.From != "" {
		where = append(where, "date >= ?")
		args = append(args, q.From)
	}
	if q.To != "" {
		where = append(where, "date <= ?")
		args = append(args, q.To)
	}
	query := `SELECT path, date, title, line, entries FROM days`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, path"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: days: %w", err)
	}
	defer rows.Close()

	var out []DayRow
	for rows.Next() {
		var d DayRow
		if err := rows.Scan(&d.Path, &d.Date, &d.Title, &d.Line, &d.Entries); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
