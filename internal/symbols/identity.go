package symbols

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Version is a four-part assembly version.
type Version struct {
	Major, Minor, Build, Revision uint16
}

// ParseVersion accepts one to four dot-separated components.
func ParseVersion(s string) (Version, error) {
	var v Version
	if s == "" {
		return v, nil
	}
	parts := strings.Split(s, ".")
	if len(parts) > 4 {
		return v, fmt.Errorf("invalid version %q: too many components", s)
	}
	dst := []*uint16{&v.Major, &v.Minor, &v.Build, &v.Revision}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
		c, err := safecast.Conv[uint16](n)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: component %d: %w", s, i, err)
		}
		*dst[i] = c
	}
	return v, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Build, v.Revision)
}

// AssemblyIdentity names an assembly. Two identities are equal when every
// component matches; NameEqual ignores version and key.
type AssemblyIdentity struct {
	Name           string
	Version        Version
	PublicKeyToken string
}

func (id AssemblyIdentity) String() string {
	var b strings.Builder
	b.WriteString(id.Name)
	b.WriteString(", Version=")
	b.WriteString(id.Version.String())
	if id.PublicKeyToken != "" {
		b.WriteString(", PublicKeyToken=")
		b.WriteString(id.PublicKeyToken)
	}
	return b.String()
}

func (id AssemblyIdentity) NameEqual(other AssemblyIdentity) bool {
	return strings.EqualFold(id.Name, other.Name)
}

// MetadataTypeName is a namespace plus a mangled type name ("List`1").
type MetadataTypeName struct {
	Namespace string
	Name      string
}

// TopLevelName builds a name from a dotted full name.
func TopLevelName(fullName string) MetadataTypeName {
	if i := strings.LastIndexByte(fullName, '.'); i >= 0 {
		return MetadataTypeName{Namespace: fullName[:i], Name: fullName[i+1:]}
	}
	return MetadataTypeName{Name: fullName}
}

func (n MetadataTypeName) FullName() string {
	if n.Namespace == "" {
		return n.Name
	}
	return n.Namespace + "." + n.Name
}

// Unmangled returns the name without its arity suffix together with the
// arity. Malformed suffixes are kept as part of the name.
func (n MetadataTypeName) Unmangled() (string, int) {
	return UnmangleName(n.Name)
}

// UnmangleName splits "C`2" into ("C", 2).
func UnmangleName(name string) (string, int) {
	i := strings.LastIndexByte(name, '`')
	if i < 0 || i == len(name)-1 {
		return name, 0
	}
	arity, err := strconv.Atoi(name[i+1:])
	if err != nil || arity <= 0 {
		return name, 0
	}
	return name[:i], arity
}

// MangleName appends the arity suffix for generic names.
func MangleName(name string, arity int) string {
	if arity == 0 {
		return name
	}
	return name + "`" + strconv.Itoa(arity)
}
