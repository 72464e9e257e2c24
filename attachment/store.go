// Package attachment provides a SQLite-backed lazyload.MetadataStore.
//
// The store keeps a read-through cache of attachment metadata for the
// lifetime of the Store value. Warm fills the cache for many ids with one
// query; Metadata serves from the cache and falls back to a single-row
// query, collapsing concurrent misses for the same id.
package attachment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/njchilds90/lazyload"
)

// ErrInvalidMetadata is returned by Put for metadata that cannot be stored.
var ErrInvalidMetadata = errors.New("invalid attachment metadata")

// errNotFound marks an id with no row; Metadata maps it to (nil, nil).
var errNotFound = errors.New("attachment not found")

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file and its directory.
	CreateIfNotExists bool

	// EnableWAL turns on write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Stats counts cache and database activity since the store was opened.
type Stats struct {
	Hits    int64
	Misses  int64
	Queries int64
}

// Store is a lazyload.MetadataStore over a SQLite database.
type Store struct {
	db *sql.DB

	mu    sync.RWMutex
	cache map[int]*lazyload.Metadata // nil value caches an absent id

	group singleflight.Group

	hits    atomic.Int64
	misses  atomic.Int64
	queries atomic.Int64
}

var _ lazyload.MetadataStore = (*Store)(nil)

// Open opens or creates the attachment database at path. The special path
// ":memory:" opens a private in-memory database.
func Open(path string, opts Options) (*Store, error) {
	var dsn string
	switch {
	case path == ":memory:":
		dsn = "file::memory:"
	case opts.CreateIfNotExists:
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = "file:" + path + "?mode=rwc"
	default:
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = "file:" + path + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if path != ":memory:" {
		// An in-memory database lives only as long as its one connection.
		db.SetConnMaxLifetime(time.Hour)
	}

	if opts.EnableWAL && path != ":memory:" {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db, cache: make(map[int]*lazyload.Metadata)}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	_, err := s.db.ExecContext(context.Background(), `
	CREATE TABLE IF NOT EXISTS attachments (
		id INTEGER PRIMARY KEY,
		file TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		sizes TEXT NOT NULL DEFAULT '{}',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`)
	return err
}

// Put inserts or replaces the metadata for m.ID and refreshes the cache.
func (s *Store) Put(ctx context.Context, m *lazyload.Metadata) error {
	if m == nil || m.ID <= 0 || m.File == "" {
		return ErrInvalidMetadata
	}
	sizes, err := json.Marshal(m.Sizes)
	if err != nil {
		return fmt.Errorf("failed to encode sizes for attachment %d: %w", m.ID, err)
	}
	if m.Sizes == nil {
		sizes = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO attachments (id, file, width, height, sizes, updated_at)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
		file = excluded.file,
		width = excluded.width,
		height = excluded.height,
		sizes = excluded.sizes,
		updated_at = CURRENT_TIMESTAMP`,
		m.ID, m.File, m.Width, m.Height, string(sizes))
	if err != nil {
		return fmt.Errorf("failed to store attachment %d: %w", m.ID, err)
	}

	cp := *m
	s.mu.Lock()
	s.cache[m.ID] = &cp
	s.mu.Unlock()
	return nil
}

// Metadata returns the metadata for id, or (nil, nil) if there is none.
func (s *Store) Metadata(ctx context.Context, id int) (*lazyload.Metadata, error) {
	if id <= 0 {
		return nil, nil
	}
	if m, ok := s.cached(id); ok {
		s.hits.Add(1)
		return m, nil
	}
	s.misses.Add(1)

	v, err, _ := s.group.Do(strconv.Itoa(id), func() (any, error) {
		m, err := s.queryOne(ctx, id)
		if errors.Is(err, errNotFound) {
			s.store(id, nil)
			return (*lazyload.Metadata)(nil), nil
		}
		if err != nil {
			return nil, err
		}
		s.store(id, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*lazyload.Metadata), nil
}

// Warm loads every id not yet cached with a single query. Ids with no row
// are cached as absent.
func (s *Store) Warm(ctx context.Context, ids []int) error {
	var missing []any
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := s.cached(id); !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(missing)), ",")
	s.queries.Add(1)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file, width, height, sizes FROM attachments WHERE id IN (`+placeholders+`)`,
		missing...)
	if err != nil {
		return fmt.Errorf("failed to query attachments: %w", err)
	}
	defer rows.Close()

	found := make(map[int]*lazyload.Metadata, len(missing))
	for rows.Next() {
		m, err := scanMetadata(rows)
		if err != nil {
			return err
		}
		found[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read attachments: %w", err)
	}

	s.mu.Lock()
	for _, v := range missing {
		id := v.(int)
		s.cache[id] = found[id]
	}
	s.mu.Unlock()
	return nil
}

// Stats returns a snapshot of the store counters.
func (s *Store) Stats() Stats {
	return Stats{
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Queries: s.queries.Load(),
	}
}

func (s *Store) cached(id int) (*lazyload.Metadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.cache[id]
	return m, ok
}

func (s *Store) store(id int, m *lazyload.Metadata) {
	s.mu.Lock()
	s.cache[id] = m
	s.mu.Unlock()
}

func (s *Store) queryOne(ctx context.Context, id int) (*lazyload.Metadata, error) {
	s.queries.Add(1)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, file, width, height, sizes FROM attachments WHERE id = ?`, id)
	m, err := scanMetadata(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	}
	return m, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMetadata(r scanner) (*lazyload.Metadata, error) {
	var (
		m     lazyload.Metadata
		sizes string
	)
	if err := r.Scan(&m.ID, &m.File, &m.Width, &m.Height, &sizes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan attachment: %w", err)
	}
	if sizes != "" {
		if err := json.Unmarshal([]byte(sizes), &m.Sizes); err != nil {
			return nil, fmt.Errorf("failed to decode sizes for attachment %d: %w", m.ID, err)
		}
	}
	return &m, nil
}
