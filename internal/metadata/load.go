package metadata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// BundleSchema is the manifest schema understood by this reader.
const BundleSchema uint16 = 1

var (
	ErrSchemaMismatch = errors.New("unsupported schema version")
	ErrUnknownFormat  = errors.New("unknown assembly file format")
)

// LoadFile reads an assembly bundle. The format follows the extension:
// .toml, .yaml/.yml or .rmd (binary image).
func LoadFile(path string) (*Bundle, error) {
	var (
		b   *Bundle
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		b, err = loadTOML(path)
	case ".yaml", ".yml":
		b, err = loadYAML(path)
	case ".rmd":
		b, err = ReadImage(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if b.Schema != 0 && b.Schema != BundleSchema {
		return nil, fmt.Errorf("%s: %w: %d", path, ErrSchemaMismatch, b.Schema)
	}
	NormalizeBundle(b)
	for i := range b.Assemblies {
		if err := ValidateAssembly(&b.Assemblies[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return b, nil
}

// LoadFiles loads every path and returns the assemblies in order.
func LoadFiles(paths []string) ([]*AssemblyDef, error) {
	var out []*AssemblyDef
	for _, p := range paths {
		b, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		for i := range b.Assemblies {
			out = append(out, &b.Assemblies[i])
		}
	}
	return out, nil
}

func loadTOML(path string) (*Bundle, error) {
	var b Bundle
	meta, err := toml.DecodeFile(path, &b)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return &b, nil
}

func loadYAML(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var b Bundle
	if err := dec.Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// NormalizeBundle puts every name in Unicode NFC so lookups compare
// canonically equivalent spellings equal.
func NormalizeBundle(b *Bundle) {
	for i := range b.Assemblies {
		a := &b.Assemblies[i]
		a.Name = norm.NFC.String(a.Name)
		for j := range a.Modules {
			m := &a.Modules[j]
			m.Name = norm.NFC.String(m.Name)
			for k := range m.References {
				m.References[k].Name = norm.NFC.String(m.References[k].Name)
			}
			for k := range m.Forwarders {
				m.Forwarders[k].Type = norm.NFC.String(m.Forwarders[k].Type)
				m.Forwarders[k].Assembly = norm.NFC.String(m.Forwarders[k].Assembly)
			}
			normalizeTypes(m.Types)
		}
	}
}

func normalizeTypes(ts []TypeDef) {
	for i := range ts {
		t := &ts[i]
		t.Namespace = norm.NFC.String(t.Namespace)
		t.Name = norm.NFC.String(t.Name)
		for j := range t.Fields {
			t.Fields[j].Name = norm.NFC.String(t.Fields[j].Name)
		}
		for j := range t.Methods {
			t.Methods[j].Name = norm.NFC.String(t.Methods[j].Name)
		}
		for j := range t.Properties {
			t.Properties[j].Name = norm.NFC.String(t.Properties[j].Name)
		}
		for j := range t.Events {
			t.Events[j].Name = norm.NFC.String(t.Events[j].Name)
		}
		normalizeTypes(t.Nested)
	}
}
