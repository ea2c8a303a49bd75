package offline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"

	"github.com/matzehuels/labelsheet/pkg/cache"
	"github.com/matzehuels/labelsheet/pkg/errors"
)

// DirStore keeps each cache in a subdirectory of dir. Entries are JSON files
// named by the hash of their key.
type DirStore struct {
	dir string
}

// NewDirStore creates dir if needed and returns a store rooted there.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DirStore{dir: dir}, nil
}

// Dir returns the root directory.
func (s *DirStore) Dir() string { return s.dir }

func (s *DirStore) Put(_ context.Context, name, key string, e Entry) error {
	if err := errors.ValidatePrefix(name); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(s.dir, name), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path(name, key), data, 0o644)
}

func (s *DirStore) Get(_ context.Context, name, key string) (Entry, bool, error) {
	if err := errors.ValidatePrefix(name); err != nil {
		return Entry{}, false, err
	}
	data, err := os.ReadFile(s.path(name, key))
	if os.IsNotExist(err) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		// Corrupt entry - treat as miss
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (s *DirStore) Names(context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

func (s *DirStore) Drop(_ context.Context, name string) error {
	if err := errors.ValidatePrefix(name); err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(s.dir, name))
}

func (s *DirStore) path(name, key string) string {
	return filepath.Join(s.dir, name, cache.Hash([]byte(key))+".json")
}

var _ Store = (*DirStore)(nil)
