// Package refs binds a consuming compilation's references. Referenced
// assemblies that were built against other versions of their own
// references are wrapped in retargeting assemblies.
package refs

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"retarget/internal/retargeting"
	"retarget/internal/symbols"
	"retarget/internal/trace"
)

var (
	ErrDuplicateReference = errors.New("duplicate reference name")
	ErrNotLinkable        = errors.New("reference embeds interop types but no linker is configured")
)

// Reference is one reference of the consumer.
type Reference struct {
	Assembly          symbols.AssemblySymbol
	EmbedInteropTypes bool
}

// Linker produces the instance of an assembly used for references that
// embed interop types. *metadata.Universe implements it.
type Linker interface {
	Linked(a symbols.AssemblySymbol) symbols.AssemblySymbol
}

type Options struct {
	Linker          Linker
	LocalTypePolicy retargeting.LocalTypePolicy
	// Tracer overrides the tracer carried by the context.
	Tracer trace.Tracer
}

// Resolution is the consumer's view of its references.
type Resolution struct {
	// Assemblies parallels the references: the assembly itself, or its
	// retargeting wrapper.
	Assemblies []symbols.AssemblySymbol
	// Retargeted maps each wrapped assembly to its wrapper.
	Retargeted map[symbols.AssemblySymbol]*retargeting.Assembly
	CorLibrary symbols.AssemblySymbol
	Linked     []symbols.AssemblySymbol

	byName map[string]symbols.AssemblySymbol
}

// ByName returns the consumer's view of the referenced assembly with the
// given simple name, or nil.
func (r *Resolution) ByName(name string) symbols.AssemblySymbol {
	return r.byName[name]
}

// Wrappers lists the retargeting assemblies in reference order.
func (r *Resolution) Wrappers() []*retargeting.Assembly {
	out := make([]*retargeting.Assembly, 0, len(r.Retargeted))
	for _, a := range r.Assemblies {
		if w, ok := a.(*retargeting.Assembly); ok {
			out = append(out, w)
		}
	}
	return out
}

type coreLibrary interface {
	IsCoreLibrary() bool
}

type referenceSetter interface {
	SetReferences(ids []symbols.AssemblyIdentity, syms []symbols.AssemblySymbol)
}

// Resolve decides which references need retargeting and binds every
// retargeting module exactly once.
func Resolve(ctx context.Context, references []Reference, opts Options) (*Resolution, error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	span := trace.Begin(tracer, trace.ScopeStage, "refs.resolve", trace.CurrentSpan(ctx).SpanID)
	defer span.End("")

	under := make([]symbols.AssemblySymbol, len(references))
	byName := make(map[string]int, len(references))
	var corlib symbols.AssemblySymbol
	for i, ref := range references {
		if ref.Assembly == nil {
			return nil, fmt.Errorf("reference %d has no assembly", i)
		}
		a := ref.Assembly
		if ref.EmbedInteropTypes && !a.IsLinked() {
			if opts.Linker == nil {
				return nil, fmt.Errorf("%w: %s", ErrNotLinkable, a.Identity())
			}
			a = opts.Linker.Linked(a)
		}
		name := a.Identity().Name
		if j, dup := byName[name]; dup {
			return nil, fmt.Errorf("%w: %s and %s", ErrDuplicateReference, under[j].Identity(), a.Identity())
		}
		byName[name] = i
		under[i] = a
		if c, ok := a.(coreLibrary); ok && c.IsCoreLibrary() && corlib == nil {
			corlib = a
		}
	}

	retarget := needsRetargeting(under, byName)
	res := &Resolution{
		Assemblies: make([]symbols.AssemblySymbol, len(under)),
		Retargeted: make(map[symbols.AssemblySymbol]*retargeting.Assembly),
		byName:     make(map[string]symbols.AssemblySymbol, len(under)),
	}
	ropts := retargeting.Options{Tracer: tracer, LocalTypePolicy: opts.LocalTypePolicy}
	for i, a := range under {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		view := a
		if retarget[i] {
			w := retargeting.NewAssembly(a, a.IsLinked(), ropts)
			res.Retargeted[a] = w
			view = w
		}
		res.Assemblies[i] = view
		res.byName[view.Identity().Name] = view
		if references[i].EmbedInteropTypes {
			res.Linked = append(res.Linked, view)
		}
	}
	if corlib != nil {
		res.CorLibrary = res.byName[corlib.Identity().Name]
	}

	for _, w := range res.Wrappers() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bind(w, res)
		trace.Point(tracer, trace.ScopeAssembly, "refs.retargeted", w.Identity().String(),
			map[string]string{"mapped": strconv.Itoa(len(w.RetargetingModule().AssemblyMap()))})
	}
	span.Attr("retargeted", strconv.Itoa(len(res.Retargeted)))
	return res, nil
}

// needsRetargeting marks every assembly whose bound references differ from
// the consumer's view, then everything that references a marked assembly,
// until nothing changes.
func needsRetargeting(under []symbols.AssemblySymbol, byName map[string]int) []bool {
	marked := make([]bool, len(under))
	differs := func(i int) bool {
		for _, mod := range under[i].Modules() {
			for _, ref := range mod.ReferencedAssemblySymbols() {
				if ref == nil || ref.IsLinked() {
					continue
				}
				j, ok := byName[ref.Identity().Name]
				if !ok {
					if !ref.IsMissing() {
						return true
					}
					continue
				}
				if under[j] != ref || marked[j] {
					return true
				}
			}
		}
		return false
	}
	for changed := true; changed; {
		changed = false
		for i := range under {
			if !marked[i] && differs(i) {
				marked[i] = true
				changed = true
			}
		}
	}
	return marked
}

// bind hands every module of w the consumer's view of its references.
func bind(w *retargeting.Assembly, res *Resolution) {
	if res.CorLibrary != nil {
		w.SetCorLibrary(res.CorLibrary)
	}
	w.SetLinkedReferencedAssemblies(res.Linked)
	w.SetNoPiaResolutionAssemblies(res.Assemblies)

	src := w.Underlying().Modules()
	for i, mod := range w.Modules() {
		switch m := mod.(type) {
		case *retargeting.Module:
			m.SetReferences(resolveModule(src[i], res))
		case referenceSetter:
			if mod != src[i] {
				m.SetReferences(addedModuleReferences(src[i], res))
			}
		}
	}
}

// resolveModule maps the non-linked references of mod to the consumer's
// assemblies with the same names.
func resolveModule(mod symbols.ModuleSymbol, res *Resolution) ([]symbols.AssemblyIdentity, []symbols.AssemblySymbol) {
	ids := mod.ReferencedAssemblies()
	bound := mod.ReferencedAssemblySymbols()
	var outIDs []symbols.AssemblyIdentity
	var outSyms []symbols.AssemblySymbol
	for i, ref := range bound {
		if ref != nil && ref.IsLinked() {
			continue
		}
		outIDs = append(outIDs, ids[i])
		outSyms = append(outSyms, consumerView(ids[i], ref, res))
	}
	return outIDs, outSyms
}

// addedModuleReferences binds every slot of a reloaded added module,
// linked references included.
func addedModuleReferences(mod symbols.ModuleSymbol, res *Resolution) ([]symbols.AssemblyIdentity, []symbols.AssemblySymbol) {
	ids := mod.ReferencedAssemblies()
	bound := mod.ReferencedAssemblySymbols()
	syms := make([]symbols.AssemblySymbol, len(bound))
	for i, ref := range bound {
		if ref != nil && ref.IsLinked() {
			if v := res.ByName(ids[i].Name); v != nil && v.IsLinked() {
				syms[i] = v
			} else {
				syms[i] = ref
			}
			continue
		}
		syms[i] = consumerView(ids[i], ref, res)
	}
	return ids, syms
}

func consumerView(id symbols.AssemblyIdentity, bound symbols.AssemblySymbol, res *Resolution) symbols.AssemblySymbol {
	if v := res.ByName(id.Name); v != nil {
		return v
	}
	if bound != nil && bound.IsMissing() {
		return bound
	}
	return symbols.NewMissingAssembly(id)
}
