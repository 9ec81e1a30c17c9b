package indexstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"seqlink/internal/config"
	"seqlink/internal/sequence"
)

// ErrLocked reports that another process holds the index store.
var ErrLocked = errors.New("index store is locked by another process")

// Store manages sequence cache persistence backed by SQLite.
type Store struct {
	db    *sql.DB
	path  string
	lock  *flock.Flock
	codec *codec
}

// RootInfo summarizes one persisted root.
type RootInfo struct {
	Path      string    `json:"path"`
	IndexedAt time.Time `json:"indexed_at"`
	Buckets   int       `json:"buckets"`
	Files     int       `json:"files"`
}

// Open acquires the store lock and initializes or connects to the index database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	dbPath := strings.TrimSpace(cfg.Index.StorePath)
	if dbPath == "" {
		return nil, errors.New("index store path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create index store directory: %w", err)
	}

	lock := flock.New(dbPath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire index lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dbPath)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	c, err := newCodec()
	if err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	store := &Store{db: db, path: dbPath, lock: lock, codec: c}
	if err := store.initSchema(context.Background()); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// Remove deletes the database at path along with its WAL files. It holds
// the store lock while deleting and fails with ErrLocked when another
// process has the store open.
func Remove(path string) error {
	if _, err := os.Stat(filepath.Dir(path)); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire index lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, path)
	}
	defer func() { _ = lock.Unlock() }()

	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove index store: %w", err)
		}
	}
	return nil
}

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// Close closes the database and releases the lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.codec != nil {
		s.codec.close()
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	if s.lock != nil {
		errs = append(errs, s.lock.Unlock())
	}
	return errors.Join(errs...)
}

// Save replaces the persisted snapshot of every root in cache.
func (s *Store) Save(ctx context.Context, cache *sequence.Cache) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	for _, root := range cache.Roots() {
		if err := deleteRoot(ctx, tx, root); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO roots (path, indexed_at) VALUES (?, ?)", root, timestamp); err != nil {
			return fmt.Errorf("insert root %s: %w", root, err)
		}
		for _, b := range cache.Buckets(root) {
			if err := s.insertBucket(ctx, tx, root, b); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (s *Store) insertBucket(ctx context.Context, tx *sql.Tx, root string, b *sequence.Bucket) error {
	blob := s.codec.encode(b.Files)
	memo := b.Memo()
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO buckets (
            root, dir, identifier, file_count, files,
            timecode_in, timecode_out, frame_rate, first_probed, last_probed
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		root,
		b.Dir,
		b.Identifier,
		len(b.Files),
		blob,
		nullableString(memo.TimecodeIn),
		nullableString(memo.TimecodeOut),
		nullableFloat(memo.FrameRate),
		boolToInt(memo.FirstProbed),
		boolToInt(memo.LastProbed),
	)
	if err != nil {
		return fmt.Errorf("insert bucket %s/%s: %w", b.Dir, b.Identifier, err)
	}
	return nil
}

// Load restores every persisted root into cache and returns how many were loaded.
func (s *Store) Load(ctx context.Context, cache *sequence.Cache) (int, error) {
	roots, err := s.rootPaths(ctx)
	if err != nil {
		return 0, err
	}
	for _, root := range roots {
		buckets, err := s.buckets(ctx, root)
		if err != nil {
			return 0, err
		}
		cache.Restore(root, buckets)
	}
	return len(roots), nil
}

// Forget removes a root and its buckets.
func (s *Store) Forget(ctx context.Context, root string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin forget tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := deleteRoot(ctx, tx, root); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit forget: %w", err)
	}
	return nil
}

func deleteRoot(ctx context.Context, tx *sql.Tx, root string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM buckets WHERE root = ?", root); err != nil {
		return fmt.Errorf("clear buckets of %s: %w", root, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM roots WHERE path = ?", root); err != nil {
		return fmt.Errorf("clear root %s: %w", root, err)
	}
	return nil
}

// Roots summarizes the persisted roots.
func (s *Store) Roots(ctx context.Context) ([]RootInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT r.path, r.indexed_at, COUNT(b.id), COALESCE(SUM(b.file_count), 0)
        FROM roots r LEFT JOIN buckets b ON b.root = r.path
        GROUP BY r.path, r.indexed_at
        ORDER BY r.path`)
	if err != nil {
		return nil, fmt.Errorf("query roots: %w", err)
	}
	defer rows.Close()

	var out []RootInfo
	for rows.Next() {
		var (
			info      RootInfo
			indexedAt string
		)
		if err := rows.Scan(&info.Path, &indexedAt, &info.Buckets, &info.Files); err != nil {
			return nil, fmt.Errorf("scan root: %w", err)
		}
		info.IndexedAt = parseTime(indexedAt)
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *Store) rootPaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path FROM roots ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("query roots: %w", err)
	}
	defer rows.Close()

	var roots []string
	for rows.Next() {
		var root string
		if err := rows.Scan(&root); err != nil {
			return nil, fmt.Errorf("scan root: %w", err)
		}
		roots = append(roots, root)
	}
	return roots, rows.Err()
}

func (s *Store) buckets(ctx context.Context, root string) ([]*sequence.Bucket, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT dir, identifier, files, timecode_in, timecode_out, frame_rate, first_probed, last_probed
        FROM buckets WHERE root = ? ORDER BY dir, identifier`, root)
	if err != nil {
		return nil, fmt.Errorf("query buckets of %s: %w", root, err)
	}
	defer rows.Close()

	var out []*sequence.Bucket
	for rows.Next() {
		var (
			dir, identifier         string
			blob                    []byte
			timecodeIn, timecodeOut sql.NullString
			frameRate               sql.NullFloat64
			firstProbed, lastProbed int
		)
		if err := rows.Scan(&dir, &identifier, &blob, &timecodeIn, &timecodeOut, &frameRate, &firstProbed, &lastProbed); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		files, err := s.codec.decode(blob)
		if err != nil {
			return nil, fmt.Errorf("decode files of %s/%s: %w", dir, identifier, err)
		}
		out = append(out, sequence.NewBucket(dir, identifier, files, sequence.Memo{
			TimecodeIn:  timecodeIn.String,
			TimecodeOut: timecodeOut.String,
			FrameRate:   frameRate.Float64,
			FirstProbed: firstProbed != 0,
			LastProbed:  lastProbed != 0,
		}))
	}
	return out, rows.Err()
}
