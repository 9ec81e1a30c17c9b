package sequence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"seqlink/internal/logging"
	"seqlink/internal/mediatime"
	"seqlink/internal/metadata"
)

// ErrNotDirectory reports a search root that is missing or not a directory.
var ErrNotDirectory = errors.New("search root is not a directory")

// Cache groups the files under indexed roots into buckets and memoizes the
// metadata probed from them.
type Cache struct {
	reader metadata.Reader
	logger *slog.Logger

	dirs  map[string]map[string]*Bucket
	roots map[string][]string
}

// Stats summarizes the cache contents.
type Stats struct {
	Roots       int `json:"roots"`
	Directories int `json:"directories"`
	Buckets     int `json:"buckets"`
	Files       int `json:"files"`
}

// NewCache returns an empty cache that probes files with reader.
func NewCache(reader metadata.Reader, logger *slog.Logger) *Cache {
	if reader == nil {
		reader = metadata.Nop{}
	}
	return &Cache{
		reader: reader,
		logger: logging.NewComponentLogger(logger, "indexer"),
		dirs:   make(map[string]map[string]*Bucket),
		roots:  make(map[string][]string),
	}
}

// Index walks root and groups its files into buckets. An indexed root is not
// walked again unless force is set, in which case the buckets it produced
// before are discarded first. Unreadable subdirectories are skipped.
func (c *Cache) Index(root string, force bool) error {
	abs, err := cleanRoot(root)
	if err != nil {
		return err
	}
	if _, ok := c.roots[abs]; ok && !force {
		return nil
	}
	if err := checkRoot(abs); err != nil {
		return err
	}
	// Walk the link target; buckets keep the caller's path as their prefix.
	walkRoot, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotDirectory, abs, err)
	}
	if force {
		for _, dir := range c.roots[abs] {
			delete(c.dirs, dir)
		}
		delete(c.roots, abs)
	}

	files := make(map[string][]string)
	walkErr := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			c.logger.Debug("skipping unreadable path",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
			)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 && isDirLink(path) {
			c.logger.Debug("not following directory link", logging.String(logging.FieldPath, path))
			return nil
		}
		rel, err := filepath.Rel(walkRoot, filepath.Dir(path))
		if err != nil {
			return nil
		}
		dir := filepath.Join(abs, rel)
		files[dir] = append(files[dir], d.Name())
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walk %s: %w", abs, walkErr)
	}

	produced := make([]string, 0, len(files))
	var reused, built int
	for dir, names := range files {
		produced = append(produced, dir)
		if _, ok := c.dirs[dir]; ok && !force {
			reused++
			continue
		}
		c.dirs[dir] = groupFiles(dir, names)
		built++
	}
	slices.Sort(produced)
	c.roots[abs] = produced

	c.logger.Info("indexed search root",
		logging.String(logging.FieldRoot, abs),
		logging.Int("directories", len(produced)),
		logging.Int("rebuilt", built),
		logging.Int("reused", reused),
		logging.Bool("forced", force),
	)
	return nil
}

// Roots lists indexed roots in lexical order.
func (c *Cache) Roots() []string {
	roots := make([]string, 0, len(c.roots))
	for root := range c.roots {
		roots = append(roots, root)
	}
	slices.Sort(roots)
	return roots
}

// Buckets returns the buckets produced by root ordered by directory, then
// identifier. It returns nil for a root that has not been indexed.
func (c *Cache) Buckets(root string) []*Bucket {
	abs, err := cleanRoot(root)
	if err != nil {
		return nil
	}
	var out []*Bucket
	for _, dir := range c.roots[abs] {
		byID := c.dirs[dir]
		ids := make([]string, 0, len(byID))
		for id := range byID {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			out = append(out, byID[id])
		}
	}
	return out
}

// Restore registers root as indexed with previously saved buckets, without
// walking the filesystem. A bucket already held for another root is kept
// along with its memo.
func (c *Cache) Restore(root string, buckets []*Bucket) {
	if abs, err := cleanRoot(root); err == nil {
		root = abs
	}
	seen := make(map[string]struct{})
	var dirs []string
	for _, b := range buckets {
		if len(b.Files) == 0 {
			continue
		}
		if _, ok := seen[b.Dir]; !ok {
			seen[b.Dir] = struct{}{}
			dirs = append(dirs, b.Dir)
		}
		byID, ok := c.dirs[b.Dir]
		if !ok {
			byID = make(map[string]*Bucket)
			c.dirs[b.Dir] = byID
		}
		if _, ok := byID[b.Identifier]; !ok {
			byID[b.Identifier] = b
		}
	}
	slices.Sort(dirs)
	c.roots[root] = dirs
}

// Stats counts the cache contents.
func (c *Cache) Stats() Stats {
	stats := Stats{Roots: len(c.roots), Directories: len(c.dirs)}
	for _, byID := range c.dirs {
		stats.Buckets += len(byID)
		for _, b := range byID {
			stats.Files += len(b.Files)
		}
	}
	return stats
}

// ProbeFirst reads the first file's metadata once and memoizes it on b.
func (c *Cache) ProbeFirst(ctx context.Context, b *Bucket) {
	if b.memo.FirstProbed {
		return
	}
	info := c.reader.Read(ctx, b.First())
	b.recordFirst(strings.TrimSpace(info.Timecode), mediatime.RoundRate(info.FrameRate))
}

// ProbeLast reads the last file's metadata once and memoizes it on b.
func (c *Cache) ProbeLast(ctx context.Context, b *Bucket) {
	if b.memo.LastProbed {
		return
	}
	info := c.reader.Read(ctx, b.Last())
	b.recordLast(strings.TrimSpace(info.Timecode))
}

func cleanRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", fmt.Errorf("%w: empty path", ErrNotDirectory)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve search root: %w", err)
	}
	return filepath.Clean(abs), nil
}

func checkRoot(abs string) error {
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotDirectory, abs, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}
	return nil
}

func isDirLink(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func groupFiles(dir string, names []string) map[string]*Bucket {
	slices.Sort(names)
	byID := make(map[string]*Bucket)
	for _, name := range names {
		id := Identifier(name)
		b, ok := byID[id]
		if !ok {
			b = &Bucket{Dir: dir, Identifier: id}
			byID[id] = b
		}
		b.Files = append(b.Files, name)
	}
	return byID
}
