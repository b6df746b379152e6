package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

const buildInfoDir = "build-info"

// FS locates artifacts below a root directory. Both the hardhat layout
// (<root>/contracts/X.sol/X.json) and the forge layout (<root>/X.sol/X.json) are found
// by searching for <Name>.json inside a directory whose name ends in ".sol".
type FS struct {
	fs   afero.Fs
	root string

	once     sync.Once
	index    map[string][]string
	indexErr error
}

func NewFS(fs afero.Fs, root string) *FS {
	return &FS{fs: fs, root: root}
}

// OpenDir reads artifacts from the OS filesystem.
func OpenDir(dir string) *FS {
	return NewFS(afero.NewOsFs(), dir)
}

func (a *FS) Root() string {
	return a.root
}

func (a *FS) buildIndex() {
	a.index = make(map[string][]string)
	a.indexErr = afero.Walk(a.fs, a.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == buildInfoDir {
				return filepath.SkipDir
			}
			return nil
		}
		base := info.Name()
		if !strings.HasSuffix(base, ".json") || strings.HasSuffix(base, ".dbg.json") {
			return nil
		}
		if !strings.HasSuffix(filepath.Base(filepath.Dir(p)), ".sol") {
			return nil
		}
		name := strings.TrimSuffix(base, ".json")
		a.index[name] = append(a.index[name], p)
		return nil
	})
}

func (a *FS) lookup(name string) (string, error) {
	a.once.Do(a.buildIndex)
	if a.indexErr != nil {
		return "", fmt.Errorf("failed to scan artifacts in %s: %w", a.root, a.indexErr)
	}
	paths := a.index[name]
	switch len(paths) {
	case 0:
		return "", fmt.Errorf("%w: %s (searched %s)", ErrArtifactNotFound, name, a.root)
	case 1:
		return paths[0], nil
	default:
		return "", fmt.Errorf("%w: %s matches %s", ErrAmbiguousArtifact, name, strings.Join(paths, ", "))
	}
}

// Names lists every artifact found, sorted.
func (a *FS) Names() ([]string, error) {
	a.once.Do(a.buildIndex)
	if a.indexErr != nil {
		return nil, a.indexErr
	}
	out := make([]string, 0, len(a.index))
	for name := range a.index {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (a *FS) ReadArtifact(name string) (*Artifact, error) {
	p, err := a.lookup(name)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(a.fs, p)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", p, err)
	}
	art, err := ParseArtifact(name, data)
	if err != nil {
		return nil, err
	}
	art.path = p
	return art, nil
}

// BuildInfo is the compiler input that produced an artifact.
type BuildInfo struct {
	ID              string          `json:"id"`
	SolcVersion     string          `json:"solcVersion"`
	SolcLongVersion string          `json:"solcLongVersion"`
	Input           json.RawMessage `json:"input"`
}

// CompilerVersion is the explorer form, e.g. v0.8.4+commit.c7e474f2.
func (b *BuildInfo) CompilerVersion() string {
	v := b.SolcLongVersion
	if v == "" {
		v = b.SolcVersion
	}
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

type debugFile struct {
	BuildInfo string `json:"buildInfo"`
}

// ReadBuildInfo finds the build info of art: through the hardhat .dbg.json pointer
// when present, otherwise by scanning <root>/build-info for an input compiling art's source.
func (a *FS) ReadBuildInfo(art *Artifact) (*BuildInfo, error) {
	if art.path != "" {
		dbgPath := strings.TrimSuffix(art.path, ".json") + ".dbg.json"
		if data, err := afero.ReadFile(a.fs, dbgPath); err == nil {
			var dbg debugFile
			if err := json.Unmarshal(data, &dbg); err != nil {
				return nil, fmt.Errorf("invalid debug file %s: %w", dbgPath, err)
			}
			return a.readBuildInfoFile(filepath.Join(filepath.Dir(dbgPath), dbg.BuildInfo), art)
		}
	}

	dir := filepath.Join(a.root, buildInfoDir)
	entries, err := afero.ReadDir(a.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrBuildInfoNotFound, art.ContractName, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		bi, err := a.readBuildInfoFile(filepath.Join(dir, entry.Name()), art)
		if err != nil {
			continue
		}
		if bi.compiles(art.SourceName) {
			return bi, nil
		}
	}
	return nil, fmt.Errorf("%w for %s", ErrBuildInfoNotFound, art.ContractName)
}

func (a *FS) readBuildInfoFile(p string, art *Artifact) (*BuildInfo, error) {
	data, err := afero.ReadFile(a.fs, p)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrBuildInfoNotFound, art.ContractName, err)
	}
	var bi BuildInfo
	if err := json.Unmarshal(data, &bi); err != nil {
		return nil, fmt.Errorf("invalid build info %s: %w", p, err)
	}
	if bi.SolcLongVersion == "" && bi.SolcVersion == "" {
		bi.SolcLongVersion = art.CompilerVersion
	}
	return &bi, nil
}

func (b *BuildInfo) compiles(source string) bool {
	var input struct {
		Sources map[string]json.RawMessage `json:"sources"`
	}
	if err := json.Unmarshal(b.Input, &input); err != nil {
		return false
	}
	_, ok := input.Sources[source]
	return ok
}
