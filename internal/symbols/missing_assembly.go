package symbols

import (
	"context"

	"retarget/internal/diag"
)

// MissingAssembly stands in for a referenced assembly that could not be
// bound. Every lookup produces a missing metadata type.
type MissingAssembly struct {
	identity AssemblyIdentity
	module   *missingModule
}

func NewMissingAssembly(id AssemblyIdentity) *MissingAssembly {
	a := &MissingAssembly{identity: id}
	a.module = &missingModule{owner: a}
	a.module.global = &missingNamespace{module: a.module}
	return a
}

func (a *MissingAssembly) Kind() SymbolKind                  { return SymbolAssembly }
func (a *MissingAssembly) Name() string                      { return a.identity.Name }
func (a *MissingAssembly) ContainingSymbol() Symbol          { return nil }
func (a *MissingAssembly) Attributes() []*AttributeData      { return nil }
func (a *MissingAssembly) Identity() AssemblyIdentity        { return a.identity }
func (a *MissingAssembly) Modules() []ModuleSymbol           { return []ModuleSymbol{a.module} }
func (a *MissingAssembly) GlobalNamespace() NamespaceSymbol  { return a.module.global }
func (a *MissingAssembly) CorLibrary() AssemblySymbol        { return a }
func (a *MissingAssembly) IsLinked() bool                    { return false }
func (a *MissingAssembly) IsMissing() bool                   { return true }
func (a *MissingAssembly) LinkedReferencedAssemblies() []AssemblySymbol {
	return nil
}
func (a *MissingAssembly) NoPiaResolutionAssemblies() []AssemblySymbol { return nil }

func (a *MissingAssembly) Documentation(context.Context) (string, error) { return "", nil }

func (a *MissingAssembly) UseSiteDiagnostic() *diag.Diagnostic {
	return diag.Errorf(diag.MetaMissingAssembly, diag.Location{Assembly: a.identity.Name},
		"assembly '"+a.identity.String()+"' is not referenced")
}

func (a *MissingAssembly) DeclaredSpecialType(st SpecialType) NamedTypeSymbol {
	return NewMissingTopLevelType(a.module, TopLevelName(st.MetadataFullName()))
}

func (a *MissingAssembly) LookupTopLevelType(name MetadataTypeName, _ bool) NamedTypeSymbol {
	return NewMissingTopLevelType(a.module, name)
}

type missingModule struct {
	owner  *MissingAssembly
	global *missingNamespace
}

func (m *missingModule) Kind() SymbolKind                     { return SymbolModule }
func (m *missingModule) Name() string                         { return m.owner.identity.Name + ".dll" }
func (m *missingModule) ContainingSymbol() Symbol             { return m.owner }
func (m *missingModule) Attributes() []*AttributeData         { return nil }
func (m *missingModule) UseSiteDiagnostic() *diag.Diagnostic  { return nil }
func (m *missingModule) Ordinal() int                         { return 0 }
func (m *missingModule) GlobalNamespace() NamespaceSymbol     { return m.global }
func (m *missingModule) ReferencedAssemblies() []AssemblyIdentity {
	return nil
}
func (m *missingModule) ReferencedAssemblySymbols() []AssemblySymbol       { return nil }
func (m *missingModule) LookupTopLevelType(MetadataTypeName) NamedTypeSymbol { return nil }
func (m *missingModule) HasExplicitLocalTypes() bool                        { return false }

func (m *missingModule) Documentation(context.Context) (string, error) { return "", nil }

type missingNamespace struct {
	module *missingModule
}

func (n *missingNamespace) Kind() SymbolKind                    { return SymbolNamespace }
func (n *missingNamespace) Name() string                        { return "" }
func (n *missingNamespace) ContainingSymbol() Symbol            { return n.module }
func (n *missingNamespace) Attributes() []*AttributeData        { return nil }
func (n *missingNamespace) UseSiteDiagnostic() *diag.Diagnostic { return nil }
func (n *missingNamespace) IsGlobal() bool                      { return true }
func (n *missingNamespace) Members() []Symbol                   { return nil }

func (n *missingNamespace) Documentation(context.Context) (string, error) { return "", nil }
