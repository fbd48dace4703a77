// Package project reads the retarget.toml project manifest.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"retarget/internal/pipeline"
	"retarget/internal/symbols"
)

// ManifestName is the file looked up by Find.
const ManifestName = "retarget.toml"

var ErrBadReference = errors.New("malformed reference")

type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Project  ProjectConfig  `toml:"project"`
	Consumer ConsumerConfig `toml:"consumer"`
	Walk     WalkConfig     `toml:"walk"`
}

type ProjectConfig struct {
	Name string `toml:"name"`
	// Assemblies are manifest or image paths relative to the manifest,
	// optionally glob patterns.
	Assemblies []string `toml:"assemblies"`
}

// ConsumerConfig lists the consumer's references as "Name" or
// "Name@Version". Embed names references whose interop types are embedded.
type ConsumerConfig struct {
	References []string `toml:"references"`
	Embed      []string `toml:"embed"`
}

type WalkConfig struct {
	Jobs        int    `toml:"jobs"`
	MaxFindings int    `toml:"max-findings"`
	All         bool   `toml:"all"`
	LocalTypes  string `toml:"local-types"`
}

// Find walks up from startDir to locate retarget.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the manifest above startDir. ok is false when
// there is none.
func Discover(startDir string) (m *Manifest, ok bool, err error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err = Load(path)
	return m, true, err
}

// Load parses and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("project") {
		return nil, fmt.Errorf("%s: missing [project]", path)
	}
	if !meta.IsDefined("project", "name") || strings.TrimSpace(cfg.Project.Name) == "" {
		return nil, fmt.Errorf("%s: missing [project].name", path)
	}
	if len(cfg.Project.Assemblies) == 0 {
		return nil, fmt.Errorf("%s: [project].assemblies is empty", path)
	}
	if !meta.IsDefined("consumer", "references") || len(cfg.Consumer.References) == 0 {
		return nil, fmt.Errorf("%s: missing [consumer].references", path)
	}
	if cfg.Walk.Jobs < 0 || cfg.Walk.MaxFindings < 0 {
		return nil, fmt.Errorf("%s: [walk] limits must not be negative", path)
	}
	m := &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}
	if _, err := m.Consumer(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Files expands the assembly entries against the manifest directory. A
// pattern that matches nothing is an error.
func (m *Manifest) Files() ([]string, error) {
	var out []string
	for _, entry := range m.Config.Project.Assemblies {
		pattern := filepath.Join(m.Root, filepath.FromSlash(entry))
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("%s: bad pattern %q: %w", m.Path, entry, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%s: no files match %q", m.Path, entry)
		}
		for _, p := range matches {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// Consumer converts [consumer] into pipeline references.
func (m *Manifest) Consumer() ([]pipeline.ConsumerRef, error) {
	refs := make([]pipeline.ConsumerRef, 0, len(m.Config.Consumer.References))
	for _, s := range m.Config.Consumer.References {
		ref, err := ParseReference(s)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if err := MarkEmbedded(refs, m.Config.Consumer.Embed); err != nil {
		return nil, err
	}
	return refs, nil
}

// ParseReference reads "Name" or "Name@Version".
func ParseReference(s string) (pipeline.ConsumerRef, error) {
	name, ver, hasVer := strings.Cut(strings.TrimSpace(s), "@")
	name = strings.TrimSpace(name)
	if name == "" {
		return pipeline.ConsumerRef{}, fmt.Errorf("%w: %q", ErrBadReference, s)
	}
	ref := pipeline.ConsumerRef{Name: name}
	if hasVer {
		ver = strings.TrimSpace(ver)
		if ver == "" {
			return pipeline.ConsumerRef{}, fmt.Errorf("%w: %q: empty version", ErrBadReference, s)
		}
		if _, err := symbols.ParseVersion(ver); err != nil {
			return pipeline.ConsumerRef{}, fmt.Errorf("%w: %q: %v", ErrBadReference, s, err)
		}
		ref.Version = ver
	}
	return ref, nil
}

// MarkEmbedded flags the named references as embedded. Every name must
// match a reference.
func MarkEmbedded(refs []pipeline.ConsumerRef, names []string) error {
	for _, name := range names {
		found := false
		for i := range refs {
			if refs[i].Name == name {
				refs[i].Embed = true
				found = true
			}
		}
		if !found {
			return fmt.Errorf("%w: embedded %q is not a consumer reference", ErrBadReference, name)
		}
	}
	return nil
}
