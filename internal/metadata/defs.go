package metadata

// Bundle is the on-disk unit: a file lists one or more assemblies.
type Bundle struct {
	Schema     uint16        `toml:"schema,omitempty" yaml:"schema,omitempty" msgpack:"schema"`
	Assemblies []AssemblyDef `toml:"assembly" yaml:"assemblies" msgpack:"assemblies"`
}

type AssemblyDef struct {
	Name           string         `toml:"name" yaml:"name" msgpack:"name"`
	Version        string         `toml:"version" yaml:"version" msgpack:"version"`
	PublicKeyToken string         `toml:"public_key_token" yaml:"public_key_token" msgpack:"pkt"`
	CoreLibrary    bool           `toml:"core_library" yaml:"core_library" msgpack:"corlib"`
	Guid           string         `toml:"guid" yaml:"guid" msgpack:"guid"`
	Attributes     []AttributeDef `toml:"attributes" yaml:"attributes" msgpack:"attrs"`
	Modules        []ModuleDef    `toml:"module" yaml:"modules" msgpack:"modules"`
	Doc            string         `toml:"doc" yaml:"doc" msgpack:"doc"`
}

type ModuleDef struct {
	Name       string          `toml:"name" yaml:"name" msgpack:"name"`
	References []ReferenceDef  `toml:"references" yaml:"references" msgpack:"refs"`
	Types      []TypeDef       `toml:"type" yaml:"types" msgpack:"types"`
	Forwarders []ForwarderDef  `toml:"forwarders" yaml:"forwarders" msgpack:"fwd"`
}

// ReferenceDef names a referenced assembly. Embed marks a reference whose
// interop types are embedded (a linked reference).
type ReferenceDef struct {
	Name           string `toml:"name" yaml:"name" msgpack:"name"`
	Version        string `toml:"version" yaml:"version" msgpack:"version"`
	PublicKeyToken string `toml:"public_key_token" yaml:"public_key_token" msgpack:"pkt"`
	Embed          bool   `toml:"embed" yaml:"embed" msgpack:"embed"`
}

// ForwarderDef sends lookups of Type ("NS.Name`1") to Assembly.
type ForwarderDef struct {
	Type     string `toml:"type" yaml:"type" msgpack:"type"`
	Assembly string `toml:"assembly" yaml:"assembly" msgpack:"asm"`
}

type TypeDef struct {
	Namespace      string          `toml:"namespace" yaml:"namespace" msgpack:"ns"`
	Name           string          `toml:"name" yaml:"name" msgpack:"name"`
	Kind           string          `toml:"kind" yaml:"kind" msgpack:"kind"`
	Access         string          `toml:"access" yaml:"access" msgpack:"access"`
	Modifiers      []string        `toml:"modifiers" yaml:"modifiers" msgpack:"mods"`
	Special        string          `toml:"special" yaml:"special" msgpack:"special"`
	TypeParameters []TypeParamDef  `toml:"type_parameters" yaml:"type_parameters" msgpack:"tps"`
	Base           string          `toml:"base" yaml:"base" msgpack:"base"`
	Interfaces     []string        `toml:"interfaces" yaml:"interfaces" msgpack:"ifaces"`
	EnumUnderlying string          `toml:"enum_underlying" yaml:"enum_underlying" msgpack:"enum"`
	Guid           string          `toml:"guid" yaml:"guid" msgpack:"guid"`
	TypeIdentifier *TypeIdentDef   `toml:"type_identifier" yaml:"type_identifier" msgpack:"tid"`
	Attributes     []AttributeDef  `toml:"attributes" yaml:"attributes" msgpack:"attrs"`
	Fields         []FieldDef      `toml:"fields" yaml:"fields" msgpack:"fields"`
	Methods        []MethodDef     `toml:"methods" yaml:"methods" msgpack:"methods"`
	Properties     []PropertyDef   `toml:"properties" yaml:"properties" msgpack:"props"`
	Events         []EventDef      `toml:"events" yaml:"events" msgpack:"events"`
	Nested         []TypeDef       `toml:"nested" yaml:"nested" msgpack:"nested"`
	MethodImpls    []MethodImplDef `toml:"method_impls" yaml:"method_impls" msgpack:"impls"`
	Doc            string          `toml:"doc" yaml:"doc" msgpack:"doc"`
}

// TypeIdentDef marks an embedded interop type. Empty Scope and Identifier
// produce a parameterless TypeIdentifierAttribute.
type TypeIdentDef struct {
	Scope      string `toml:"scope" yaml:"scope" msgpack:"scope"`
	Identifier string `toml:"identifier" yaml:"identifier" msgpack:"id"`
}

type TypeParamDef struct {
	Name            string   `toml:"name" yaml:"name" msgpack:"name"`
	Variance        string   `toml:"variance" yaml:"variance" msgpack:"var"`
	Constraints     []string `toml:"constraints" yaml:"constraints" msgpack:"cons"`
	ConstraintTypes []string `toml:"constraint_types" yaml:"constraint_types" msgpack:"ctypes"`
}

type FieldDef struct {
	Name       string         `toml:"name" yaml:"name" msgpack:"name"`
	Type       string         `toml:"type" yaml:"type" msgpack:"type"`
	Access     string         `toml:"access" yaml:"access" msgpack:"access"`
	Modifiers  []string       `toml:"modifiers" yaml:"modifiers" msgpack:"mods"`
	Constant   *ArgDef        `toml:"constant" yaml:"constant" msgpack:"const"`
	Marshal    *MarshalDef    `toml:"marshal" yaml:"marshal" msgpack:"marshal"`
	Attributes []AttributeDef `toml:"attributes" yaml:"attributes" msgpack:"attrs"`
	Doc        string         `toml:"doc" yaml:"doc" msgpack:"doc"`
}

type MethodDef struct {
	Name             string         `toml:"name" yaml:"name" msgpack:"name"`
	Kind             string         `toml:"kind" yaml:"kind" msgpack:"kind"`
	Access           string         `toml:"access" yaml:"access" msgpack:"access"`
	Modifiers        []string       `toml:"modifiers" yaml:"modifiers" msgpack:"mods"`
	CallConv         string         `toml:"callconv" yaml:"callconv" msgpack:"cc"`
	TypeParameters   []TypeParamDef `toml:"type_parameters" yaml:"type_parameters" msgpack:"tps"`
	Returns          string         `toml:"returns" yaml:"returns" msgpack:"ret"`
	RefKind          string         `toml:"ref_kind" yaml:"ref_kind" msgpack:"ref"`
	ReturnAttributes []AttributeDef `toml:"return_attributes" yaml:"return_attributes" msgpack:"rattrs"`
	ReturnMarshal    *MarshalDef    `toml:"return_marshal" yaml:"return_marshal" msgpack:"rmarshal"`
	Parameters       []ParamDef     `toml:"parameters" yaml:"parameters" msgpack:"params"`
	Implements       []string       `toml:"implements" yaml:"implements" msgpack:"impl"`
	Overrides        string         `toml:"overrides" yaml:"overrides" msgpack:"ovr"`
	Attributes       []AttributeDef `toml:"attributes" yaml:"attributes" msgpack:"attrs"`
	Doc              string         `toml:"doc" yaml:"doc" msgpack:"doc"`
}

type ParamDef struct {
	Name       string         `toml:"name" yaml:"name" msgpack:"name"`
	Type       string         `toml:"type" yaml:"type" msgpack:"type"`
	RefKind    string         `toml:"ref_kind" yaml:"ref_kind" msgpack:"ref"`
	Optional   bool           `toml:"optional" yaml:"optional" msgpack:"opt"`
	Params     bool           `toml:"params" yaml:"params" msgpack:"params"`
	Default    *ArgDef        `toml:"default" yaml:"default" msgpack:"default"`
	Marshal    *MarshalDef    `toml:"marshal" yaml:"marshal" msgpack:"marshal"`
	Attributes []AttributeDef `toml:"attributes" yaml:"attributes" msgpack:"attrs"`
}

type PropertyDef struct {
	Name       string         `toml:"name" yaml:"name" msgpack:"name"`
	Type       string         `toml:"type" yaml:"type" msgpack:"type"`
	RefKind    string         `toml:"ref_kind" yaml:"ref_kind" msgpack:"ref"`
	Access     string         `toml:"access" yaml:"access" msgpack:"access"`
	Modifiers  []string       `toml:"modifiers" yaml:"modifiers" msgpack:"mods"`
	Parameters []ParamDef     `toml:"parameters" yaml:"parameters" msgpack:"params"`
	Get        string         `toml:"get" yaml:"get" msgpack:"get"`
	Set        string         `toml:"set" yaml:"set" msgpack:"set"`
	Indexer    bool           `toml:"indexer" yaml:"indexer" msgpack:"indexer"`
	Implements []string       `toml:"implements" yaml:"implements" msgpack:"impl"`
	Overrides  string         `toml:"overrides" yaml:"overrides" msgpack:"ovr"`
	Attributes []AttributeDef `toml:"attributes" yaml:"attributes" msgpack:"attrs"`
	Doc        string         `toml:"doc" yaml:"doc" msgpack:"doc"`
}

type EventDef struct {
	Name       string         `toml:"name" yaml:"name" msgpack:"name"`
	Type       string         `toml:"type" yaml:"type" msgpack:"type"`
	Access     string         `toml:"access" yaml:"access" msgpack:"access"`
	Modifiers  []string       `toml:"modifiers" yaml:"modifiers" msgpack:"mods"`
	Add        string         `toml:"add" yaml:"add" msgpack:"add"`
	Remove     string         `toml:"remove" yaml:"remove" msgpack:"remove"`
	Field      string         `toml:"field" yaml:"field" msgpack:"field"`
	Implements []string       `toml:"implements" yaml:"implements" msgpack:"impl"`
	Overrides  string         `toml:"overrides" yaml:"overrides" msgpack:"ovr"`
	Attributes []AttributeDef `toml:"attributes" yaml:"attributes" msgpack:"attrs"`
	Doc        string         `toml:"doc" yaml:"doc" msgpack:"doc"`
}

// MethodImplDef pairs a method of the declaring type (Body, a member
// reference without a type part) with an interface method it implements.
type MethodImplDef struct {
	Body        string `toml:"body" yaml:"body" msgpack:"body"`
	Declaration string `toml:"declaration" yaml:"declaration" msgpack:"decl"`
}

type AttributeDef struct {
	Type  string   `toml:"type" yaml:"type" msgpack:"type"`
	Args  []ArgDef `toml:"args" yaml:"args" msgpack:"args"`
	Named []ArgDef `toml:"named" yaml:"named" msgpack:"named"`
}

// ArgDef is an attribute argument or a constant. Kind is one of string,
// int, long, bool, double, char, type, enum, array; empty infers it from
// Value. Type names the enum type for enums and the element type for
// arrays.
type ArgDef struct {
	Name   string   `toml:"name" yaml:"name" msgpack:"name"`
	Field  bool     `toml:"field" yaml:"field" msgpack:"field"`
	Kind   string   `toml:"kind" yaml:"kind" msgpack:"kind"`
	Type   string   `toml:"type" yaml:"type" msgpack:"type"`
	Value  any      `toml:"value" yaml:"value" msgpack:"value"`
	Values []ArgDef `toml:"values" yaml:"values" msgpack:"values"`
}

type MarshalDef struct {
	UnmanagedType   int    `toml:"unmanaged_type" yaml:"unmanaged_type" msgpack:"ut"`
	SizeConst       int    `toml:"size_const" yaml:"size_const" msgpack:"size"`
	SafeArrayVar    int    `toml:"safe_array_variant" yaml:"safe_array_variant" msgpack:"sav"`
	SafeArrayType   string `toml:"safe_array_type" yaml:"safe_array_type" msgpack:"sat"`
	CustomMarshaler string `toml:"custom_marshaler" yaml:"custom_marshaler" msgpack:"cm"`
	Cookie          string `toml:"cookie" yaml:"cookie" msgpack:"cookie"`
}
