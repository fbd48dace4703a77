// Package retargeting rebinds a symbol graph that was built against one set
// of referenced assemblies onto another set, without re-reading the
// underlying definitions.
//
// An Assembly wraps an underlying assembly. Its first module is a Module
// that owns the translation context: an identity cache from underlying
// symbols to their retargeted counterparts and a map from each referenced
// assembly that changed to its destination. Every accessor of a wrapper
// symbol goes back through the translator, so the whole graph reachable
// from the assembly is retargeted lazily and at most once per symbol.
//
// Version skew surfaces as values, never as panics: types that vanished
// become missing metadata types, members that vanished become nil, and
// embedded interop types that cannot be unified become unsupported or
// canonical-type sentinels. Panics are reserved for contract violations
// such as asking a retargeted assembly for special type declarations.
//
// Module.SetReferences must complete before any symbol is queried. After
// that every method is safe for concurrent use.
package retargeting
