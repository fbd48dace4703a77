package symbols

import (
	"strings"
)

// DisplayString renders s the way reports and diagnostics name symbols.
func DisplayString(s Symbol) string {
	if s == nil {
		return "<null>"
	}
	var b strings.Builder
	writeSymbol(&b, s)
	return b.String()
}

func writeSymbol(b *strings.Builder, s Symbol) {
	switch v := s.(type) {
	case AssemblySymbol:
		b.WriteString(v.Identity().Name)
	case ModuleSymbol:
		b.WriteString(v.Name())
	case NamespaceSymbol:
		if v.IsGlobal() {
			b.WriteString("<global namespace>")
		} else {
			b.WriteString(QualifiedNamespaceName(v))
		}
	case TypeSymbol:
		writeType(b, v)
	case MethodSymbol:
		writeContainer(b, v)
		b.WriteString(v.Name())
		if args := v.TypeArguments(); len(args) > 0 {
			writeTypeArgs(b, args)
		}
		b.WriteByte('(')
		for i, p := range v.Parameters() {
			if i > 0 {
				b.WriteString(", ")
			}
			writeParam(b, p)
		}
		b.WriteByte(')')
	case PropertySymbol:
		writeContainer(b, v)
		if v.IsIndexer() {
			b.WriteString("this[")
			for i, p := range v.Parameters() {
				if i > 0 {
					b.WriteString(", ")
				}
				writeParam(b, p)
			}
			b.WriteByte(']')
			return
		}
		b.WriteString(v.Name())
	case ParameterSymbol:
		writeParam(b, v)
	default:
		writeContainer(b, s)
		b.WriteString(s.Name())
	}
}

func writeContainer(b *strings.Builder, s Symbol) {
	if t := ContainingType(s); t != nil {
		writeType(b, t)
		b.WriteByte('.')
	}
}

func writeParam(b *strings.Builder, p ParameterSymbol) {
	if rk := p.RefKind(); rk != RefNone {
		b.WriteString(rk.String())
		b.WriteByte(' ')
	}
	writeType(b, p.Type().Type)
}

func writeTypeArgs(b *strings.Builder, args []TypeWithModifiers) {
	b.WriteByte('<')
	for i, a := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		writeType(b, a.Type)
	}
	b.WriteByte('>')
}

func writeType(b *strings.Builder, t TypeSymbol) {
	switch v := t.(type) {
	case nil:
		b.WriteString("?")
	case *ArrayType:
		writeType(b, v.Element.Type)
		b.WriteByte('[')
		if !v.IsSZArray() {
			b.WriteString(strings.Repeat(",", v.Rank-1))
		}
		b.WriteByte(']')
	case *PointerType:
		writeType(b, v.Pointee.Type)
		b.WriteByte('*')
	case *FunctionPointerType:
		b.WriteString("delegate*<")
		for _, p := range v.Signature.Params {
			if p.RefKind != RefNone {
				b.WriteString(p.RefKind.String())
				b.WriteByte(' ')
			}
			writeType(b, p.Type.Type)
			b.WriteString(", ")
		}
		writeType(b, v.Signature.Return.Type)
		b.WriteByte('>')
	case *NativeIntegerType:
		b.WriteString(v.Name())
	case TypeParameterSymbol:
		b.WriteString(v.Name())
	case NamedTypeSymbol:
		if c := ContainingType(v); c != nil {
			writeType(b, c)
			b.WriteByte('.')
		} else if ns := NamespaceOf(v); ns != "" {
			b.WriteString(ns)
			b.WriteByte('.')
		}
		b.WriteString(v.Name())
		if v.Arity() > 0 {
			if v.IsUnboundGeneric() {
				b.WriteByte('<')
				b.WriteString(strings.Repeat(",", v.Arity()-1))
				b.WriteByte('>')
			} else {
				writeTypeArgs(b, v.TypeArguments())
			}
		}
	default:
		b.WriteString(t.Name())
	}
}
