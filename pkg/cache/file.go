package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// entryExt is the file extension of cache entries.
const entryExt = ".json"

// FileCache stores artifacts as JSON files below a directory. Entries are
// spread over 256 subdirectories by the first byte of the key hash.
//
// Writes go to a temporary file that is renamed into place, so concurrent
// CLI runs sharing a directory never read a half-written PDF.
type FileCache struct {
	dir string
}

// NewFileCache opens (and creates) a file cache in dir.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

type fileEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

func (e fileEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Get returns the artifact for key. Expired and unreadable entries are
// removed and reported as misses.
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}

	var e fileEntry
	if json.Unmarshal(raw, &e) != nil || e.expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set writes data under key. A zero ttl keeps the entry until Clear.
func (c *FileCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	e := fileEntry{Data: data}
	if ttl > 0 {
		e.ExpiresAt = time.Now().Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes key.
func (c *FileCache) Delete(_ context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (c *FileCache) Close() error { return nil }

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Len counts the stored entries, expired ones included.
func (c *FileCache) Len() (int, error) {
	shards, err := c.shards()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, shard := range shards {
		files, err := os.ReadDir(shard)
		if err != nil {
			return 0, err
		}
		for _, f := range files {
			if !f.IsDir() && strings.HasSuffix(f.Name(), entryExt) {
				n++
			}
		}
	}
	return n, nil
}

// Clear removes every entry and returns how many there were. Only the
// shard directories are removed; anything else below the directory is
// left alone.
func (c *FileCache) Clear() (int, error) {
	n, err := c.Len()
	if err != nil {
		return 0, err
	}
	shards, err := c.shards()
	if err != nil {
		return 0, err
	}
	for _, shard := range shards {
		if err := os.RemoveAll(shard); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// shards lists the entry subdirectories. A missing cache directory has none.
func (c *FileCache) shards() ([]string, error) {
	dirs, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, d := range dirs {
		if d.IsDir() && isShard(d.Name()) {
			out = append(out, filepath.Join(c.dir, d.Name()))
		}
	}
	return out, nil
}

func isShard(name string) bool {
	if len(name) != 2 {
		return false
	}
	for _, r := range name {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h[2:]+entryExt)
}

var _ Cache = (*FileCache)(nil)
