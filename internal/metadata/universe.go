package metadata

import (
	"errors"
	"fmt"
	"slices"

	"retarget/internal/symbols"
)

var ErrDuplicateAssembly = errors.New("duplicate assembly identity")

// Universe is a closed set of metadata assemblies whose module references
// are bound against each other.
type Universe struct {
	assemblies []*Assembly
	byID       map[string]*Assembly
	byName     map[string][]*Assembly
	linked     map[*Assembly]*Assembly
	resolution []symbols.AssemblySymbol
}

// NewUniverse validates defs, materialises one assembly per def and binds
// every module's references.
func NewUniverse(defs []*AssemblyDef) (*Universe, error) {
	u := &Universe{
		byID:   make(map[string]*Assembly, len(defs)),
		byName: make(map[string][]*Assembly, len(defs)),
		linked: make(map[*Assembly]*Assembly),
	}
	var errs []error
	for _, def := range defs {
		if err := ValidateAssembly(def); err != nil {
			errs = append(errs, err)
			continue
		}
		a, err := newAssembly(def, false)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		key := a.identity.String()
		if _, dup := u.byID[key]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateAssembly, key))
			continue
		}
		u.byID[key] = a
		u.byName[a.identity.Name] = append(u.byName[a.identity.Name], a)
		u.assemblies = append(u.assemblies, a)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	resolution := make([]symbols.AssemblySymbol, len(u.assemblies))
	for i, a := range u.assemblies {
		resolution[i] = a
	}
	u.resolution = resolution
	var pending []embedRef
	for _, a := range u.assemblies {
		pending = append(pending, u.bind(a, resolution)...)
	}
	for _, p := range pending {
		li := u.linkedInstance(p.target, resolution)
		p.syms[p.index] = li
		if !slices.Contains(p.owner.linkedRefs, symbols.AssemblySymbol(li)) {
			p.owner.linkedRefs = append(p.owner.linkedRefs, li)
		}
	}
	return u, nil
}

// embedRef is a reference slot that is rebound to a linked instance once
// every assembly's own references are in place.
type embedRef struct {
	owner  *Assembly
	syms   []symbols.AssemblySymbol
	index  int
	target *Assembly
}

func (u *Universe) bind(a *Assembly, resolution []symbols.AssemblySymbol) []embedRef {
	a.resolution = resolution
	var pending []embedRef
	for _, ms := range a.modules {
		m := ms.(*Module)
		ids := make([]symbols.AssemblyIdentity, len(m.def.References))
		syms := make([]symbols.AssemblySymbol, len(m.def.References))
		for i, ref := range m.def.References {
			ver, _ := symbols.ParseVersion(ref.Version)
			ids[i] = symbols.AssemblyIdentity{Name: ref.Name, Version: ver, PublicKeyToken: ref.PublicKeyToken}
			syms[i] = u.Resolve(ids[i])
			if target, ok := syms[i].(*Assembly); ok && ref.Embed {
				pending = append(pending, embedRef{owner: a, syms: syms, index: i, target: target})
			}
		}
		m.SetReferences(ids, syms)
	}
	return pending
}

// linkedInstance returns the materialisation of a used for references that
// embed its interop types.
func (u *Universe) linkedInstance(a *Assembly, resolution []symbols.AssemblySymbol) *Assembly {
	if li, ok := u.linked[a]; ok {
		return li
	}
	li, _ := newAssembly(a.def, true)
	u.linked[a] = li
	li.resolution = resolution
	for i, ms := range li.modules {
		src := a.modules[i].(*Module)
		ms.(*Module).SetReferences(src.refIDs, src.refSyms)
	}
	return li
}

// Linked returns the instance of a that embeds its interop types into the
// referencing assembly. Assemblies outside the universe and instances that
// are already linked come back unchanged.
func (u *Universe) Linked(a symbols.AssemblySymbol) symbols.AssemblySymbol {
	ma, ok := a.(*Assembly)
	if !ok || ma.linked || u.byID[ma.identity.String()] != ma {
		return a
	}
	return u.linkedInstance(ma, u.resolution)
}

// Assemblies lists the assemblies in definition order. Linked instances
// are not included.
func (u *Universe) Assemblies() []*Assembly { return u.assemblies }

// Lookup finds an assembly by exact identity.
func (u *Universe) Lookup(id symbols.AssemblyIdentity) (*Assembly, bool) {
	a, ok := u.byID[id.String()]
	return a, ok
}

// ByName returns the assemblies with the given simple name.
func (u *Universe) ByName(name string) []*Assembly { return u.byName[name] }

// Resolve binds an identity: exact match first, then the only assembly
// with that name, otherwise a missing assembly.
func (u *Universe) Resolve(id symbols.AssemblyIdentity) symbols.AssemblySymbol {
	if a, ok := u.Lookup(id); ok {
		return a
	}
	if same := u.byName[id.Name]; len(same) == 1 {
		return same[0]
	}
	return symbols.NewMissingAssembly(id)
}

// ValidateAssembly checks every enumerated label, version and GUID in def.
func ValidateAssembly(def *AssemblyDef) error {
	var errs []error
	add := func(where string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}
	}
	if def.Name == "" {
		errs = append(errs, errors.New("assembly without a name"))
	}
	_, err := symbols.ParseVersion(def.Version)
	add(def.Name, err)
	if def.Guid != "" {
		_, err := symbols.NormalizeGuid(def.Guid)
		add(def.Name, err)
	}
	if len(def.Modules) == 0 {
		errs = append(errs, fmt.Errorf("%s: assembly has no modules", def.Name))
	}
	for _, m := range def.Modules {
		for _, r := range m.References {
			_, err := symbols.ParseVersion(r.Version)
			add(def.Name+" reference "+r.Name, err)
		}
		for i := range m.Types {
			t := &m.Types[i]
			full := symbols.MangleName(t.Name, len(t.TypeParameters))
			if t.Namespace != "" {
				full = t.Namespace + "." + full
			}
			validateType(t, def.Name+" "+full, add)
		}
	}
	return errors.Join(errs...)
}

func validateType(t *TypeDef, where string, add func(string, error)) {
	if t.Name == "" {
		add(where, errors.New("type without a name"))
	}
	_, err := symbols.ParseTypeKind(t.Kind)
	add(where, err)
	_, err = symbols.ParseAccessibility(t.Access)
	add(where, err)
	_, err = symbols.ParseTypeFlags(t.Modifiers)
	add(where, err)
	if t.Guid != "" {
		_, err = symbols.NormalizeGuid(t.Guid)
		add(where, err)
	}
	for _, f := range t.Fields {
		_, err = symbols.ParseAccessibility(f.Access)
		add(where+"."+f.Name, err)
		_, err = symbols.ParseMemberFlags(f.Modifiers)
		add(where+"."+f.Name, err)
	}
	for _, m := range t.Methods {
		mw := where + "." + m.Name
		_, err = symbols.ParseMethodKind(m.Kind)
		add(mw, err)
		_, err = symbols.ParseAccessibility(m.Access)
		add(mw, err)
		_, err = symbols.ParseMemberFlags(m.Modifiers)
		add(mw, err)
		_, err = parseCallingConvention(m.CallConv)
		add(mw, err)
		_, err = parseRefKind(m.RefKind)
		add(mw, err)
		for _, p := range m.Parameters {
			_, err = parseRefKind(p.RefKind)
			add(mw+"("+p.Name+")", err)
		}
	}
	for _, p := range t.Properties {
		_, err = symbols.ParseAccessibility(p.Access)
		add(where+"."+p.Name, err)
		_, err = symbols.ParseMemberFlags(p.Modifiers)
		add(where+"."+p.Name, err)
		_, err = parseRefKind(p.RefKind)
		add(where+"."+p.Name, err)
	}
	for _, e := range t.Events {
		_, err = symbols.ParseAccessibility(e.Access)
		add(where+"."+e.Name, err)
		_, err = symbols.ParseMemberFlags(e.Modifiers)
		add(where+"."+e.Name, err)
	}
	for i := range t.Nested {
		n := &t.Nested[i]
		validateType(n, where+"/"+symbols.MangleName(n.Name, len(n.TypeParameters)), add)
	}
}
