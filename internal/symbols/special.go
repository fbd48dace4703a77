package symbols

// SpecialType identifies the well-known types of the core library. The
// primitive subset doubles as the compact type code used by signatures.
type SpecialType uint8

const (
	SpecialNone SpecialType = iota
	SpecialObject
	SpecialVoid
	SpecialBoolean
	SpecialChar
	SpecialSByte
	SpecialByte
	SpecialInt16
	SpecialUInt16
	SpecialInt32
	SpecialUInt32
	SpecialInt64
	SpecialUInt64
	SpecialSingle
	SpecialDouble
	SpecialString
	SpecialIntPtr
	SpecialUIntPtr
	SpecialTypedReference
	SpecialValueType
	SpecialEnum
	SpecialArray
	SpecialDelegate
	SpecialMulticastDelegate
	SpecialDecimal
	SpecialDateTime
	SpecialNullable

	specialTypeCount
)

var specialTypeNames = [specialTypeCount]string{
	SpecialObject:            "System.Object",
	SpecialVoid:              "System.Void",
	SpecialBoolean:           "System.Boolean",
	SpecialChar:              "System.Char",
	SpecialSByte:             "System.SByte",
	SpecialByte:              "System.Byte",
	SpecialInt16:             "System.Int16",
	SpecialUInt16:            "System.UInt16",
	SpecialInt32:             "System.Int32",
	SpecialUInt32:            "System.UInt32",
	SpecialInt64:             "System.Int64",
	SpecialUInt64:            "System.UInt64",
	SpecialSingle:            "System.Single",
	SpecialDouble:            "System.Double",
	SpecialString:            "System.String",
	SpecialIntPtr:            "System.IntPtr",
	SpecialUIntPtr:           "System.UIntPtr",
	SpecialTypedReference:    "System.TypedReference",
	SpecialValueType:         "System.ValueType",
	SpecialEnum:              "System.Enum",
	SpecialArray:             "System.Array",
	SpecialDelegate:          "System.Delegate",
	SpecialMulticastDelegate: "System.MulticastDelegate",
	SpecialDecimal:           "System.Decimal",
	SpecialDateTime:          "System.DateTime",
	SpecialNullable:          "System.Nullable`1",
}

var specialTypeByName = func() map[string]SpecialType {
	m := make(map[string]SpecialType, len(specialTypeNames))
	for i, n := range specialTypeNames {
		if n != "" {
			m[n] = SpecialType(i)
		}
	}
	return m
}()

// MetadataFullName returns the namespace-qualified metadata name, or "" for
// SpecialNone.
func (s SpecialType) MetadataFullName() string {
	if s < specialTypeCount {
		return specialTypeNames[s]
	}
	return ""
}

func (s SpecialType) String() string {
	if n := s.MetadataFullName(); n != "" {
		return n
	}
	return "none"
}

// SpecialTypeFromFullName maps "System.Int32" style names back to codes.
func SpecialTypeFromFullName(name string) SpecialType {
	return specialTypeByName[name]
}

// IsPrimitiveTypeCode reports whether s has a compact signature encoding.
// Object is special but never a primitive type code.
func (s SpecialType) IsPrimitiveTypeCode() bool {
	switch s {
	case SpecialVoid, SpecialBoolean, SpecialChar,
		SpecialSByte, SpecialByte, SpecialInt16, SpecialUInt16,
		SpecialInt32, SpecialUInt32, SpecialInt64, SpecialUInt64,
		SpecialSingle, SpecialDouble, SpecialString,
		SpecialIntPtr, SpecialUIntPtr, SpecialTypedReference:
		return true
	}
	return false
}

// PrimitiveTypeCodes lists every special type with a compact encoding.
func PrimitiveTypeCodes() []SpecialType {
	out := make([]SpecialType, 0, 17)
	for s := SpecialType(1); s < specialTypeCount; s++ {
		if s.IsPrimitiveTypeCode() {
			out = append(out, s)
		}
	}
	return out
}
