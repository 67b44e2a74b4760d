package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLite is a persistent journal. It is suitable for single-process
// production use; diagnostics survive restarts.
type SQLite struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLite opens a journal at path ("./wirebus.db", or ":memory:" for
// testing).
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode keeps concurrent readers cheap while branches record.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS emits (
			id TEXT PRIMARY KEY,
			event TEXT NOT NULL,
			symbol INTEGER NOT NULL,
			peer TEXT NOT NULL,
			background INTEGER NOT NULL,
			had_listeners INTEGER NOT NULL,
			error TEXT NOT NULL,
			duration_ns INTEGER NOT NULL,
			at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create emits table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS syncs (
			id TEXT PRIMARY KEY,
			seed TEXT NOT NULL,
			attempted INTEGER NOT NULL,
			reachable INTEGER NOT NULL,
			peers TEXT NOT NULL,
			duration_ns INTEGER NOT NULL,
			at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create syncs table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_emits_at ON emits(at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create emits index: %w", err)
	}
	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_syncs_at ON syncs(at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create syncs index: %w", err)
	}

	return &SQLite{db: db}, nil
}

// RecordEmit implements Journal.
func (s *SQLite) RecordEmit(rec EmitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	rec = stampEmit(rec)

	_, err := s.db.Exec(`
		INSERT INTO emits (id, event, symbol, peer, background, had_listeners, error, duration_ns, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Event, boolInt(rec.Symbol), rec.Peer, boolInt(rec.Background),
		boolInt(rec.HadListeners), rec.Error, rec.Duration.Nanoseconds(),
		rec.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record emit: %w", err)
	}
	return nil
}

// RecordSync implements Journal.
func (s *SQLite) RecordSync(rec SyncRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	rec = stampSync(rec)

	peers, err := json.Marshal(rec.Peers)
	if err != nil {
		return fmt.Errorf("encode peers: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO syncs (id, seed, attempted, reachable, peers, duration_ns, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Seed, rec.Attempted, rec.Reachable, string(peers),
		rec.Duration.Nanoseconds(), rec.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record sync: %w", err)
	}
	return nil
}

// Emits implements Journal.
func (s *SQLite) Emits(limit int) ([]EmitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}

	rows, err := s.db.Query(`
		SELECT id, event, symbol, peer, background, had_listeners, error, duration_ns, at
		FROM emits ORDER BY at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list emits: %w", err)
	}
	defer rows.Close()

	var out []EmitRecord
	for rows.Next() {
		var rec EmitRecord
		var symbol, background, hadListeners int
		var durationNS int64
		var at string
		if err := rows.Scan(&rec.ID, &rec.Event, &symbol, &rec.Peer, &background,
			&hadListeners, &rec.Error, &durationNS, &at); err != nil {
			return nil, fmt.Errorf("scan emit record: %w", err)
		}
		rec.Symbol = symbol != 0
		rec.Background = background != 0
		rec.HadListeners = hadListeners != 0
		rec.Duration = time.Duration(durationNS)
		rec.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emits: %w", err)
	}
	return out, nil
}

// Syncs implements Journal.
func (s *SQLite) Syncs(limit int) ([]SyncRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}

	rows, err := s.db.Query(`
		SELECT id, seed, attempted, reachable, peers, duration_ns, at
		FROM syncs ORDER BY at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list syncs: %w", err)
	}
	defer rows.Close()

	var out []SyncRecord
	for rows.Next() {
		var rec SyncRecord
		var peers string
		var durationNS int64
		var at string
		if err := rows.Scan(&rec.ID, &rec.Seed, &rec.Attempted, &rec.Reachable,
			&peers, &durationNS, &at); err != nil {
			return nil, fmt.Errorf("scan sync record: %w", err)
		}
		if err := json.Unmarshal([]byte(peers), &rec.Peers); err != nil {
			return nil, fmt.Errorf("decode peers: %w", err)
		}
		rec.Duration = time.Duration(durationNS)
		rec.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate syncs: %w", err)
	}
	return out, nil
}

// Close implements Journal. Closing twice is safe.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
