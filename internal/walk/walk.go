// Package walk visits every namespace, type and member of an assembly and
// records where retargeting left the graph broken.
package walk

import (
	"context"
	"runtime"
	"slices"
	"strconv"

	"golang.org/x/sync/errgroup"

	"retarget/internal/diag"
	"retarget/internal/symbols"
	"retarget/internal/trace"
)

type Options struct {
	// Jobs bounds the number of types visited concurrently. Zero means
	// GOMAXPROCS.
	Jobs int
	// MaxFindings truncates the report. Zero keeps everything.
	MaxFindings int
	Tracer      trace.Tracer
}

// Assembly walks asm. Types are visited in parallel; the report lists
// findings in declaration order.
func Assembly(ctx context.Context, asm symbols.AssemblySymbol, opts Options) (*Report, error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	span := trace.Begin(tracer, trace.ScopeStage, "walk.assembly", trace.CurrentSpan(ctx).SpanID).
		Attr("assembly", asm.Identity().String())
	defer span.End("")

	w := &walker{assembly: asm.Name(), tracer: tracer}
	types, err := w.collect(ctx, asm)
	if err != nil {
		return nil, err
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]typeResult, len(types))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(types))))
	for i, t := range types {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = w.visitType(t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &Report{Assembly: asm.Identity().String(), Counts: w.counts}
	for _, res := range results {
		r.Counts.add(res.counts)
		r.Findings = append(r.Findings, res.findings...)
	}
	if opts.MaxFindings > 0 && len(r.Findings) > opts.MaxFindings {
		r.Findings = r.Findings[:opts.MaxFindings]
		r.Truncated = true
	}
	span.Attr("types", strconv.Itoa(r.Counts.Types)).
		Attr("findings", strconv.Itoa(len(r.Findings)))
	return r, nil
}

type walker struct {
	assembly string
	tracer   trace.Tracer
	counts   Counts
}

type typeResult struct {
	counts   Counts
	findings []Finding
}

// collect lists every type of asm, nested types after their containers.
func (w *walker) collect(ctx context.Context, asm symbols.AssemblySymbol) ([]symbols.NamedTypeSymbol, error) {
	var out []symbols.NamedTypeSymbol
	var nested func(t symbols.NamedTypeSymbol)
	nested = func(t symbols.NamedTypeSymbol) {
		out = append(out, t)
		for _, m := range t.Members() {
			if nt, ok := m.(symbols.NamedTypeSymbol); ok {
				nested(nt)
			}
		}
	}
	var visit func(ns symbols.NamespaceSymbol) error
	visit = func(ns symbols.NamespaceSymbol) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.counts.Namespaces++
		children, types := symbols.NamespaceMembers(ns)
		for _, t := range types {
			nested(t)
		}
		for _, c := range children {
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	for _, mod := range asm.Modules() {
		w.counts.Modules++
		if err := visit(mod.GlobalNamespace()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type underlyingMethod interface {
	Underlying() symbols.MethodSymbol
}

type underlyingProperty interface {
	Underlying() symbols.PropertySymbol
}

type underlyingEvent interface {
	Underlying() symbols.EventSymbol
}

func (w *walker) visitType(t symbols.NamedTypeSymbol) typeResult {
	v := &typeVisitor{walker: w}
	v.counts.Types++
	owner := symbols.DisplayString(t)
	if b := t.BaseType(); b != nil {
		v.checkType(owner, "base type", symbols.Plain(b))
	}
	for _, it := range t.Interfaces() {
		v.checkType(owner, "interface", symbols.Plain(it))
	}
	v.checkTypeParameters(t.TypeParameters())

	for _, m := range t.Members() {
		switch m := m.(type) {
		case symbols.FieldSymbol:
			v.counts.Fields++
			v.checkType(symbols.DisplayString(m), "field type", m.Type())
		case symbols.MethodSymbol:
			v.counts.Methods++
			v.visitMethod(m)
		case symbols.PropertySymbol:
			v.counts.Properties++
			v.visitProperty(m)
		case symbols.EventSymbol:
			v.counts.Events++
			v.visitEvent(m)
		}
	}
	return typeResult{counts: v.counts, findings: v.findings}
}

type typeVisitor struct {
	*walker
	counts   Counts
	findings []Finding
}

func (v *typeVisitor) visitMethod(m symbols.MethodSymbol) {
	name := symbols.DisplayString(m)
	ret := m.ReturnType()
	v.checkType(name, "return type", symbols.TypeWithModifiers{Type: ret.Type, Modifiers: slices.Concat(ret.Modifiers, m.RefCustomModifiers())})
	v.checkParameters(name, m.Parameters())
	v.checkTypeParameters(m.TypeParameters())

	u, ok := m.(underlyingMethod)
	if !ok {
		return
	}
	before := u.Underlying()
	if len(m.ExplicitInterfaceImplementations()) < len(before.ExplicitInterfaceImplementations()) {
		for _, impl := range before.ExplicitInterfaceImplementations() {
			if !containsByName(m.ExplicitInterfaceImplementations(), impl) {
				v.dropped(name, impl)
			}
		}
	}
	if before.OverriddenMethod() != nil && m.OverriddenMethod() == nil {
		v.lostOverride(name, before.OverriddenMethod())
	}
}

func (v *typeVisitor) visitProperty(p symbols.PropertySymbol) {
	name := symbols.DisplayString(p)
	v.checkType(name, "property type", p.Type())
	v.checkParameters(name, p.Parameters())
	u, ok := p.(underlyingProperty)
	if !ok {
		return
	}
	before := u.Underlying()
	if len(p.ExplicitInterfaceImplementations()) < len(before.ExplicitInterfaceImplementations()) {
		for _, impl := range before.ExplicitInterfaceImplementations() {
			if !containsByName(p.ExplicitInterfaceImplementations(), impl) {
				v.dropped(name, impl)
			}
		}
	}
	if before.OverriddenProperty() != nil && p.OverriddenProperty() == nil {
		v.lostOverride(name, before.OverriddenProperty())
	}
}

func (v *typeVisitor) visitEvent(e symbols.EventSymbol) {
	name := symbols.DisplayString(e)
	v.checkType(name, "event type", e.Type())
	u, ok := e.(underlyingEvent)
	if !ok {
		return
	}
	before := u.Underlying()
	if len(e.ExplicitInterfaceImplementations()) < len(before.ExplicitInterfaceImplementations()) {
		for _, impl := range before.ExplicitInterfaceImplementations() {
			if !containsByName(e.ExplicitInterfaceImplementations(), impl) {
				v.dropped(name, impl)
			}
		}
	}
	if before.OverriddenEvent() != nil && e.OverriddenEvent() == nil {
		v.lostOverride(name, before.OverriddenEvent())
	}
}

// containsByName matches members across versions, where identity cannot
// hold.
func containsByName[S symbols.Symbol](list []S, s symbols.Symbol) bool {
	for _, x := range list {
		if x.Name() == s.Name() && symbols.ContainingType(x).Name() == symbols.ContainingType(s).Name() {
			return true
		}
	}
	return false
}

func (v *typeVisitor) checkParameters(owner string, params []symbols.ParameterSymbol) {
	for _, p := range params {
		v.checkType(owner, "parameter '"+p.Name()+"'", symbols.TypeWithModifiers{
			Type:      p.Type().Type,
			Modifiers: slices.Concat(p.Type().Modifiers, p.RefCustomModifiers()),
		})
	}
}

func (v *typeVisitor) checkTypeParameters(tps []symbols.TypeParameterSymbol) {
	for _, tp := range tps {
		owner := symbols.DisplayString(tp.ContainingSymbol())
		for _, c := range tp.ConstraintTypes() {
			v.checkType(owner, "constraint on '"+tp.Name()+"'", c)
		}
	}
}

func (v *typeVisitor) checkType(owner, position string, twm symbols.TypeWithModifiers) {
	seen := make(map[symbols.NamedTypeSymbol]bool)
	var found []symbols.NamedTypeSymbol
	collectErrors(twm.Type, seen, &found)
	for _, m := range twm.Modifiers {
		collectErrors(m.Modifier, seen, &found)
	}
	for _, cause := range found {
		v.add(owner, position, cause)
	}
}

// collectErrors gathers the error types reachable from t without looking
// inside error types themselves.
func collectErrors(t symbols.TypeSymbol, seen map[symbols.NamedTypeSymbol]bool, out *[]symbols.NamedTypeSymbol) {
	switch t := t.(type) {
	case nil:
	case *symbols.ArrayType:
		collectErrors(t.Element.Type, seen, out)
	case *symbols.PointerType:
		collectErrors(t.Pointee.Type, seen, out)
	case *symbols.FunctionPointerType:
		collectErrors(t.Signature.Return.Type, seen, out)
		for _, p := range t.Signature.Params {
			collectErrors(p.Type.Type, seen, out)
		}
	case symbols.NamedTypeSymbol:
		if t.Kind() == symbols.SymbolErrorType {
			if !seen[t] {
				seen[t] = true
				*out = append(*out, t)
			}
			return
		}
		if symbols.IsDefinition(t) {
			return
		}
		for _, a := range symbols.AllTypeArguments(t) {
			collectErrors(a.Type, seen, out)
		}
	}
}

func (v *typeVisitor) add(owner, position string, cause symbols.NamedTypeSymbol) {
	info := cause.UseSiteDiagnostic()
	code := diag.RetErrorInReferencedAssembly
	msg := "'" + symbols.DisplayString(cause) + "' is not available"
	if info != nil {
		code = info.Code
		msg = info.Message
	}
	d := diag.NewError(code, diag.Location{Assembly: v.assembly, Symbol: owner}, position+": "+msg)
	if info != nil {
		d = d.WithNote(info.Primary, "referenced type")
	}
	v.record(Finding{Kind: classify(cause), Symbol: owner, Position: position, Cause: cause, Diagnostic: &d})
}

func (v *typeVisitor) dropped(owner string, impl symbols.Symbol) {
	d := diag.NewError(diag.RetDroppedImplementation, diag.Location{Assembly: v.assembly, Symbol: owner},
		"explicitly implemented '"+symbols.DisplayString(impl)+"' no longer exists")
	v.record(Finding{Kind: KindDroppedImplementation, Symbol: owner, Position: "explicit implementation", Diagnostic: &d})
}

func (v *typeVisitor) lostOverride(owner string, overridden symbols.Symbol) {
	d := diag.NewError(diag.RetMissingMember, diag.Location{Assembly: v.assembly, Symbol: owner},
		"overridden '"+symbols.DisplayString(overridden)+"' no longer exists")
	v.record(Finding{Kind: KindMissingMember, Symbol: owner, Position: "override", Diagnostic: &d})
}

func (v *typeVisitor) record(f Finding) {
	v.findings = append(v.findings, f)
	trace.Point(v.tracer, trace.ScopeSymbol, "walk.finding", f.Symbol,
		map[string]string{"kind": f.Kind.String(), "code": f.Diagnostic.Code.ID()})
}

func classify(t symbols.NamedTypeSymbol) Kind {
	switch t := t.(type) {
	case *symbols.ConstructedErrorType:
		if def := t.OriginalDefinition(); def != symbols.NamedTypeSymbol(t) {
			return classify(def)
		}
	case *symbols.MissingMetadataType:
		return KindMissingType
	case *symbols.UnsupportedMetadataType:
		return KindUnsupportedType
	case *symbols.NoPiaIllegalGenericInstantiation:
		return KindIllegalInstantiation
	case *symbols.NoPiaMissingCanonicalType:
		return KindMissingCanonical
	case *symbols.NoPiaAmbiguousCanonicalType:
		return KindAmbiguousCanonical
	}
	return KindUseSiteError
}
