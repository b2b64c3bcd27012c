package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/spec-kit/stock-ledger/internal/repository/memory"
)

var snapshotBuckets = []string{"departments", "roles", "accounts", "items", "reservations", "sequences"}

type sequences struct {
	NextItemID        int64 `json:"next_item_id"`
	NextReservationID int64 `json:"next_reservation_id"`
}

// SQLiteSnapshotter keeps a memory.Store durable by writing its full state
// into a single SQLite table after every committed write.
type SQLiteSnapshotter struct {
	db     *sql.DB
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// OpenSQLite opens (or creates) the snapshot database at path, restores any
// saved state into store and registers itself as the store's commit hook.
func OpenSQLite(path string, store *memory.Store, logger *zap.Logger) (*SQLiteSnapshotter, error) {
	if path == "" {
		return nil, errors.New("sqlite path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}

	s := &SQLiteSnapshotter{db: db, path: path, logger: logger}
	snap, err := s.load()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if snap != nil {
		store.ImportState(*snap)
		logger.Info("restored sqlite snapshot",
			zap.String("path", path),
			zap.Int("items", len(snap.Items)),
			zap.Int("accounts", len(snap.Accounts)),
		)
	}
	store.OnCommit(s.Save)
	return s, nil
}

func (s *SQLiteSnapshotter) load() (*memory.Snapshot, error) {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var snap memory.Snapshot
	var seq sequences
	found := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		found = true
		var target any
		switch bucket {
		case "departments":
			target = &snap.Departments
		case "roles":
			target = &snap.Roles
		case "accounts":
			target = &snap.Accounts
		case "items":
			target = &snap.Items
		case "reservations":
			target = &snap.Reservations
		case "sequences":
			target = &seq
		default:
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return nil, fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	snap.NextItemID = seq.NextItemID
	snap.NextReservationID = seq.NextReservationID
	return &snap, nil
}

// Save writes snap into the state table in a single transaction.
func (s *SQLiteSnapshotter) Save(snap memory.Snapshot) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	for _, bucket := range snapshotBuckets {
		var data []byte
		switch bucket {
		case "departments":
			data, err = json.Marshal(snap.Departments)
		case "roles":
			data, err = json.Marshal(snap.Roles)
		case "accounts":
			data, err = json.Marshal(snap.Accounts)
		case "items":
			data, err = json.Marshal(snap.Items)
		case "reservations":
			data, err = json.Marshal(snap.Reservations)
		case "sequences":
			data, err = json.Marshal(sequences{NextItemID: snap.NextItemID, NextReservationID: snap.NextReservationID})
		}
		if err != nil {
			return fmt.Errorf("encode %s: %w", bucket, err)
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	return tx.Commit()
}

// Ping checks the database handle.
func (s *SQLiteSnapshotter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Path returns the configured database path.
func (s *SQLiteSnapshotter) Path() string { return s.path }

// Close releases the database handle.
func (s *SQLiteSnapshotter) Close() {
	if s != nil && s.db != nil {
		_ = s.db.Close()
	}
}
