// Package store persists finished battles for the GUI's history view.
// It replaces the MongoDB-backed BattleHistory of the pre-distillation
// implementation with an embedded SQLite document store: one row per
// battle, the full record kept as a JSON blob, plus a denormalized
// character column so "last N matching character" queries don't need to
// decode every row.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"smabrog/internal/battle"
)

// Store is the persistence contract the GUI's history view is built on.
type Store interface {
	// Save records a finished battle. Battles still in progress
	// (EndTime zero) are rejected.
	Save(data battle.BattleData) error
	// LastN returns up to n most recently finished battles, most recent
	// first.
	LastN(n int) ([]battle.BattleData, error)
	// LastNWithCharacters returns up to n most recently finished
	// battles in which every name in characters appears among the
	// players, most recent first.
	LastNWithCharacters(characters []string, n int) ([]battle.BattleData, error)
	// Close releases the underlying database handle.
	Close() error
}

// SQLite is a Store backed by an embedded SQLite database file.
type SQLite struct {
	db *sql.DB
}

// Open creates (or reuses) a SQLite database at path and ensures the
// battles table exists.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", path, err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS battles (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	player_count INTEGER NOT NULL,
	rule        TEXT NOT NULL,
	characters  TEXT NOT NULL,
	end_time    DATETIME NOT NULL,
	data        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_battles_end_time ON battles(end_time);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// Save records a finished battle. The character list is denormalized
// into a pipe-delimited column (never empty on either side, so a plain
// substring match can't false-positive across a boundary) for
// LastNWithCharacters to filter on without decoding every row's JSON.
func (s *SQLite) Save(data battle.BattleData) error {
	if data.EndTime.IsZero() {
		return fmt.Errorf("store: refusing to save a battle still in progress")
	}

	blob, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("store: marshal battle: %w", err)
	}

	names := make([]string, 0, len(data.Players))
	for _, p := range data.Players {
		names = append(names, p.Character.Value)
	}
	characters := "|" + strings.Join(names, "|") + "|"

	_, err = s.db.Exec(
		`INSERT INTO battles (player_count, rule, characters, end_time, data) VALUES (?, ?, ?, ?, ?)`,
		data.PlayerCount, data.Rule.String(), characters, data.EndTime, blob,
	)
	if err != nil {
		return fmt.Errorf("store: insert battle: %w", err)
	}
	return nil
}

func (s *SQLite) LastN(n int) ([]battle.BattleData, error) {
	rows, err := s.db.Query(`SELECT data FROM battles ORDER BY end_time DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("store: query last %d: %w", n, err)
	}
	defer rows.Close()
	return scanBattles(rows)
}

// LastNWithCharacters returns the last n battles where every requested
// character name appears in the denormalized column. An empty
// characters slice behaves exactly like LastN.
func (s *SQLite) LastNWithCharacters(characters []string, n int) ([]battle.BattleData, error) {
	if len(characters) == 0 {
		return s.LastN(n)
	}

	query := strings.Builder{}
	query.WriteString(`SELECT data FROM battles WHERE `)
	args := make([]any, 0, len(characters)+1)
	for i, c := range characters {
		if i > 0 {
			query.WriteString(" AND ")
		}
		query.WriteString(`characters LIKE ?`)
		args = append(args, "%|"+c+"|%")
	}
	query.WriteString(` ORDER BY end_time DESC LIMIT ?`)
	args = append(args, n)

	rows, err := s.db.Query(query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: query last %d with characters %v: %w", n, characters, err)
	}
	defer rows.Close()
	return scanBattles(rows)
}

func scanBattles(rows *sql.Rows) ([]battle.BattleData, error) {
	var out []battle.BattleData
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("store: scan row: %w", err)
		}
		var data battle.BattleData
		if err := json.Unmarshal([]byte(blob), &data); err != nil {
			return nil, fmt.Errorf("store: unmarshal row: %w", err)
		}
		out = append(out, data)
	}
	return out, rows.Err()
}

var _ Store = (*SQLite)(nil)
