package source

import (
	"sync"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

// Mode identifies where the current code list came from.
type Mode int

const (
	// Empty means no codes are loaded. Manual entry is enabled.
	Empty Mode = iota
	// Manual means the codes were typed in. Manual entry is enabled.
	Manual
	// Import means the codes came from a file. Manual entry is disabled.
	Import
)

func (m Mode) String() string {
	switch m {
	case Manual:
		return "manual"
	case Import:
		return "import"
	default:
		return "empty"
	}
}

// ErrManualDisabled is returned by [Store.SetManual] while imported data is
// loaded.
var ErrManualDisabled = errors.New(errors.ErrCodeManualDisabled,
	"manual entry is disabled while imported data is loaded; clear it first")

// Snapshot is an immutable copy of the store's state.
type Snapshot struct {
	Mode  Mode
	Codes []string
}

// Store holds the single active code list.
// It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	mode   Mode
	codes  []string
	manual []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// SetManual replaces the list with the trimmed, non-empty fields.
// It fails with [ErrManualDisabled] in [Import] mode.
func (s *Store) SetManual(fields []string) error {
	codes := ParseManual(fields)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == Import {
		return ErrManualDisabled
	}
	s.manual = append([]string(nil), fields...)
	s.codes = codes
	if len(codes) == 0 {
		s.mode = Empty
	} else {
		s.mode = Manual
	}
	return nil
}

// Import replaces the list with codes and disables manual entry.
// Any manual fields are discarded. An empty import is a failure: the store
// resets to [Empty] and an import error is returned.
func (s *Store) Import(codes []string) error {
	clean := ParseManual(codes)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.manual = nil
	if len(clean) == 0 {
		s.mode = Empty
		s.codes = nil
		return errors.New(errors.ErrCodeImportFailed, "import contained no codes")
	}
	s.mode = Import
	s.codes = clean
	return nil
}

// Fail records a failed import attempt. The store resets to [Empty] and err is
// returned wrapped as an import error.
func (s *Store) Fail(err error) error {
	s.Clear()
	if errors.Is(err, errors.ErrCodeImportFailed) {
		return err
	}
	return errors.Wrap(errors.ErrCodeImportFailed, err, "import failed")
}

// Clear empties the list and re-enables manual entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = Empty
	s.codes = nil
	s.manual = nil
}

// Mode returns the current mode.
func (s *Store) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// ManualEnabled reports whether manual entry is accepted.
func (s *Store) ManualEnabled() bool {
	return s.Mode() != Import
}

// Codes returns a copy of the active list.
func (s *Store) Codes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.codes...)
}

// ManualFields returns the raw manual fields as last set, including blanks.
// It is empty after an import or a clear.
func (s *Store) ManualFields() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.manual...)
}

// Snapshot returns a copy of the current state for exporters.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Mode: s.mode, Codes: append([]string(nil), s.codes...)}
}
