// Package registry persists deployed contract addresses per network.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"

	"github.com/vidit21srivastava/cross-chain-ample/ample-service/locks"
)

var (
	ErrNotFound             = errors.New("deployment not found")
	ErrInconsistentTopology = errors.New("inconsistent topology")
)

const recordExt = ".json"

// Batch is a set of entries written to a network atomically.
type Batch struct {
	IsBaseChain      *bool
	BaseChainNetwork string
	Entries          map[string]Entry
}

// Store keeps one JSON record per network in dir. Writes to the same network are
// serialized in-process, and across processes when backed by the OS filesystem.
type Store struct {
	fs        afero.Fs
	dir       string
	lockFiles bool

	locks locks.Keyed[string]
}

func NewStore(fs afero.Fs, dir string) *Store {
	_, isOS := fs.(*afero.OsFs)
	return &Store{fs: fs, dir: dir, lockFiles: isOS}
}

// OpenDir returns a store over dir on the OS filesystem.
func OpenDir(dir string) *Store {
	return NewStore(afero.NewOsFs(), dir)
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(network string) string {
	return filepath.Join(s.dir, network+recordExt)
}

func checkNetwork(network string) error {
	if network == "" || strings.ContainsAny(network, `/\`) || strings.HasPrefix(network, ".") {
		return fmt.Errorf("invalid network name %q", network)
	}
	return nil
}

// Record returns the record of network, or ErrNotFound.
func (s *Store) Record(network string) (*Record, error) {
	if err := checkNetwork(network); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, s.path(network))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no deployments for network %s", ErrNotFound, network)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read deployments of %s: %w", network, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode deployments of %s: %w", network, err)
	}
	return &rec, nil
}

func (s *Store) Read(network string, name string) (Entry, error) {
	rec, err := s.Record(network)
	if err != nil {
		return Entry{}, err
	}
	e, ok := rec.Contracts[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s on network %s", ErrNotFound, name, network)
	}
	return e, nil
}

// Networks lists the networks that have a record, sorted.
func (s *Store) Networks() ([]string, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), recordExt) {
			continue
		}
		out = append(out, strings.TrimSuffix(info.Name(), recordExt))
	}
	sort.Strings(out)
	return out, nil
}

// Write sets a single entry, replacing any previous entry of the same name.
func (s *Store) Write(network string, name string, entry Entry) error {
	return s.WriteBulk(network, Batch{Entries: map[string]Entry{name: entry}})
}

// WriteBulk merges b into the record of network. Either every entry is stored or none is.
func (s *Store) WriteBulk(network string, b Batch) error {
	if err := checkNetwork(network); err != nil {
		return err
	}
	return s.locks.With(network, func() error {
		return s.withFileLock(network, func() error {
			return s.writeBulk(network, b)
		})
	})
}

func (s *Store) writeBulk(network string, b Batch) error {
	rec, err := s.Record(network)
	if errors.Is(err, ErrNotFound) {
		rec = NewRecord()
	} else if err != nil {
		return err
	}

	if b.IsBaseChain != nil {
		if rec.IsBaseChain != nil && *rec.IsBaseChain != *b.IsBaseChain {
			return fmt.Errorf("%w: network %s is recorded with isBaseChain=%t", ErrInconsistentTopology, network, *rec.IsBaseChain)
		}
		v := *b.IsBaseChain
		rec.IsBaseChain = &v
	}
	if b.BaseChainNetwork != "" {
		rec.BaseChainNetwork = b.BaseChainNetwork
	}
	for name, e := range b.Entries {
		if name == isBaseChainKey || name == baseChainNetworkKey {
			return fmt.Errorf("entry name %q is reserved", name)
		}
		rec.Contracts[name] = e
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode deployments of %s: %w", network, err)
	}
	return s.writeAtomic(s.path(network), data)
}

// writeAtomic writes to a temp file next to dst and renames it over dst.
func (s *Store) writeAtomic(dst string, data []byte) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create deployments dir: %w", err)
	}
	tmp := dst + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, append(data, '\n'), 0o644); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, dst); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", dst, err)
	}
	return nil
}

func (s *Store) withFileLock(network string, fn func() error) error {
	if !s.lockFiles {
		return fn()
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create deployments dir: %w", err)
	}
	fl := flock.New(s.path(network) + ".lock")
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("failed to lock deployments of %s: %w", network, err)
	}
	defer func() { _ = fl.Unlock() }()
	return fn()
}
