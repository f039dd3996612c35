// Package datasets catalogs the call-set and candle-set JSON input files the
// research CLI reads from disk, content-hashed so a later run can detect
// that an input file changed since it was registered, the same
// reproducibility guarantee a call-simulation run needs of its inputs that
// an OHLCV dataset registry needs of its source files.
package datasets

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Kind distinguishes the two input shapes the CLI consumes.
type Kind string

const (
	KindCallSet   Kind = "call_set"
	KindCandleSet Kind = "candle_set"
)

// Entry describes one catalogued input file.
type Entry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      Kind   `json:"kind"`
	FilePath  string `json:"file_path"`
	Hash      string `json:"hash"`
	CreatedAt int64  `json:"created_at_ms"` // caller-supplied, never time.Now() inside Register
}

const catalogFile = "catalog.json"

// Registry is a thread-safe, disk-persisted catalog of Entry records.
type Registry struct {
	mu         sync.RWMutex
	catalogDir string
	entries    map[string]Entry
}

// Open loads (or creates) a Registry backed by catalogDir.
func Open(catalogDir string) (*Registry, error) {
	if err := os.MkdirAll(catalogDir, 0o755); err != nil {
		return nil, fmt.Errorf("datasets.Open: mkdir %q: %w", catalogDir, err)
	}
	r := &Registry{catalogDir: catalogDir, entries: make(map[string]Entry)}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) catalogPath() string {
	return filepath.Join(r.catalogDir, catalogFile)
}

func (r *Registry) load() error {
	raw, err := os.ReadFile(r.catalogPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("datasets: read catalog: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("datasets: parse catalog: %w", err)
	}
	for _, e := range entries {
		r.entries[e.ID] = e
	}
	return nil
}

func (r *Registry) persist() error {
	entries := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("datasets: marshal catalog: %w", err)
	}
	return os.WriteFile(r.catalogPath(), raw, 0o644)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("datasets: open %q: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("datasets: hash %q: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Register catalogs filePath under name/kind, hashing its current contents.
// createdAtMs is supplied by the caller rather than read from the wall
// clock, so registration stays reproducible in tests.
func (r *Registry) Register(name string, kind Kind, filePath string, createdAtMs int64) (Entry, error) {
	hash, err := hashFile(filePath)
	if err != nil {
		return Entry{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := Entry{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      kind,
		FilePath:  filePath,
		Hash:      hash,
		CreatedAt: createdAtMs,
	}
	r.entries[entry.ID] = entry
	if err := r.persist(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Get returns the catalogued entry for id.
func (r *Registry) Get(id string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("datasets: unknown entry %q", id)
	}
	return e, nil
}

// VerifyHash re-hashes the file on disk for id and compares it against the
// hash recorded at registration time.
func (r *Registry) VerifyHash(id string) error {
	entry, err := r.Get(id)
	if err != nil {
		return err
	}
	current, err := hashFile(entry.FilePath)
	if err != nil {
		return err
	}
	if current != entry.Hash {
		return fmt.Errorf("datasets: %q has changed since registration (hash mismatch: want %s, got %s)", entry.FilePath, entry.Hash, current)
	}
	return nil
}

// List returns every catalogued entry of the given kind.
func (r *Registry) List(kind Kind) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Entry
	for _, e := range r.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
