package metadata

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"retarget/internal/symbols"
)

// Type references in manifests use a compact textual syntax:
//
//	[Asm]NS.Outer`1/Inner<[Asm]NS.T, !0>   named type, generic arguments for all levels
//	NS.List<int>                           a single level may omit its arity suffix
//	!n / !!n                               type / method type parameter
//	int, string, object, ...               core library keywords
//	nint / nuint                           native integers
//	?Name                                  undiagnosed error type
//	fnptr<R(P1, ref P2)>                   function pointer
//	T[]  T[,]  T*  T modopt(M)  T modreq(M) suffixes

type exprKind uint8

const (
	exprNamed exprKind = iota
	exprTypeParam
	exprMethodTypeParam
	exprKeyword
	exprNative
	exprError
	exprArray
	exprPointer
	exprFnPtr
)

type typeExpr struct {
	kind      exprKind
	assembly  string
	namespace string
	names     []string
	args      []*typeExpr
	ordinal   int
	special   symbols.SpecialType
	unsigned  bool
	elem      *typeExpr
	rank      int
	fn        *fnPtrExpr
	mods      []modExpr
}

type modExpr struct {
	optional bool
	t        *typeExpr
}

type paramExpr struct {
	ref symbols.RefKind
	t   *typeExpr
}

type fnPtrExpr struct {
	ret    paramExpr
	params []paramExpr
}

var keywords = map[string]symbols.SpecialType{
	"void":     symbols.SpecialVoid,
	"bool":     symbols.SpecialBoolean,
	"char":     symbols.SpecialChar,
	"sbyte":    symbols.SpecialSByte,
	"byte":     symbols.SpecialByte,
	"short":    symbols.SpecialInt16,
	"ushort":   symbols.SpecialUInt16,
	"int":      symbols.SpecialInt32,
	"uint":     symbols.SpecialUInt32,
	"long":     symbols.SpecialInt64,
	"ulong":    symbols.SpecialUInt64,
	"float":    symbols.SpecialSingle,
	"double":   symbols.SpecialDouble,
	"string":   symbols.SpecialString,
	"object":   symbols.SpecialObject,
	"decimal":  symbols.SpecialDecimal,
	"typedref": symbols.SpecialTypedReference,
}

type refParser struct {
	src string
	pos int
}

// parseTypeRef parses a complete type reference.
func parseTypeRef(src string) (*typeExpr, error) {
	p := &refParser{src: src}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

func (p *refParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type reference %q at offset %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *refParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *refParser) peek() byte {
	p.skipSpace()
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *refParser) accept(s string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *refParser) peekWord(s string) bool {
	p.skipSpace()
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *refParser) expect(s string) error {
	if !p.accept(s) {
		return p.errorf("expected %q", s)
	}
	return nil
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '`' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (p *refParser) ident() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !isIdentRune(r) {
			break
		}
		p.pos += size
	}
	if start == p.pos {
		return "", p.errorf("expected identifier")
	}
	return p.src[start:p.pos], nil
}

func (p *refParser) number() (int, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, p.errorf("expected number")
	}
	return strconv.Atoi(p.src[start:p.pos])
}

func (p *refParser) parseType() (*typeExpr, error) {
	t, err := p.parseBase()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("[]"):
			t = &typeExpr{kind: exprArray, elem: t, rank: 1}
		case p.peek() == '[':
			p.pos++
			rank := 1
			for p.accept(",") {
				rank++
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			if rank == 1 {
				return nil, p.errorf("use [] for single-dimensional arrays")
			}
			t = &typeExpr{kind: exprArray, elem: t, rank: rank}
		case p.accept("*"):
			t = &typeExpr{kind: exprPointer, elem: t}
		case p.peekWord("modopt(") || p.peekWord("modreq("):
			optional := p.accept("modopt(")
			if !optional {
				p.accept("modreq(")
			}
			m, err := p.parseType()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			t.mods = append(t.mods, modExpr{optional: optional, t: m})
		default:
			return t, nil
		}
	}
}

func (p *refParser) parseBase() (*typeExpr, error) {
	switch {
	case p.accept("!!"):
		n, err := p.number()
		return &typeExpr{kind: exprMethodTypeParam, ordinal: n}, err
	case p.accept("!"):
		n, err := p.number()
		return &typeExpr{kind: exprTypeParam, ordinal: n}, err
	case p.accept("?"):
		t, err := p.parseNamed("")
		if err != nil {
			return nil, err
		}
		t.kind = exprError
		return t, nil
	case p.peek() == '[':
		p.pos++
		end := strings.IndexByte(p.src[p.pos:], ']')
		if end <= 0 {
			return nil, p.errorf("unterminated assembly name")
		}
		asm := strings.TrimSpace(p.src[p.pos : p.pos+end])
		p.pos += end + 1
		return p.parseNamed(asm)
	}
	save := p.pos
	word, err := p.ident()
	if err != nil {
		return nil, err
	}
	next := p.peek()
	switch word {
	case "nint", "nuint":
		return &typeExpr{kind: exprNative, unsigned: word == "nuint"}, nil
	case "fnptr":
		if next == '<' {
			return p.parseFnPtr()
		}
	}
	if st, ok := keywords[word]; ok && next != '.' && next != '/' && next != '<' {
		return &typeExpr{kind: exprKeyword, special: st}, nil
	}
	p.pos = save
	return p.parseNamed("")
}

func (p *refParser) parseNamed(asm string) (*typeExpr, error) {
	first, err := p.ident()
	if err != nil {
		return nil, err
	}
	segs := []string{first}
	for p.peek() == '.' {
		p.pos++
		s, err := p.ident()
		if err != nil {
			return nil, err
		}
		segs = append(segs, s)
	}
	t := &typeExpr{
		kind:      exprNamed,
		assembly:  asm,
		namespace: strings.Join(segs[:len(segs)-1], "."),
		names:     []string{segs[len(segs)-1]},
	}
	for p.accept("/") {
		s, err := p.ident()
		if err != nil {
			return nil, err
		}
		t.names = append(t.names, s)
	}
	if p.accept("<") {
		for {
			a, err := p.parseType()
			if err != nil {
				return nil, err
			}
			t.args = append(t.args, a)
			if p.accept(">") {
				break
			}
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

func (p *refParser) parseParam() (paramExpr, error) {
	var pe paramExpr
	for _, kw := range []struct {
		s string
		k symbols.RefKind
	}{{"ref ", symbols.RefRef}, {"out ", symbols.RefOut}, {"in ", symbols.RefIn}} {
		if p.accept(kw.s) {
			pe.ref = kw.k
			break
		}
	}
	t, err := p.parseType()
	pe.t = t
	return pe, err
}

func (p *refParser) parseFnPtr() (*typeExpr, error) {
	if err := p.expect("<"); err != nil {
		return nil, err
	}
	ret, err := p.parseParam()
	if err != nil {
		return nil, err
	}
	fn := &fnPtrExpr{ret: ret}
	if err := p.expect("("); err != nil {
		return nil, err
	}
	if !p.accept(")") {
		for {
			pe, err := p.parseParam()
			if err != nil {
				return nil, err
			}
			fn.params = append(fn.params, pe)
			if p.accept(")") {
				break
			}
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
	}
	if err := p.expect(">"); err != nil {
		return nil, err
	}
	return &typeExpr{kind: exprFnPtr, fn: fn}, nil
}

// memberRef is "TypeRef::Name" or "TypeRef::Name(P1, P2)". The type part is
// empty for references into the declaring type.
type memberRef struct {
	typ    string
	name   string
	params []string
	hasSig bool
}

func parseMemberRef(src string) (memberRef, error) {
	var ref memberRef
	rest := src
	if i := topLevelIndex(src, "::"); i >= 0 {
		ref.typ = strings.TrimSpace(src[:i])
		rest = src[i+2:]
	}
	rest = strings.TrimSpace(rest)
	if i := strings.IndexByte(rest, '('); i >= 0 {
		if !strings.HasSuffix(rest, ")") {
			return ref, fmt.Errorf("member reference %q: unterminated parameter list", src)
		}
		ref.hasSig = true
		inner := strings.TrimSpace(rest[i+1 : len(rest)-1])
		if inner != "" {
			ref.params = splitTopLevel(inner)
		}
		rest = strings.TrimSpace(rest[:i])
	}
	if rest == "" {
		return ref, fmt.Errorf("member reference %q: missing member name", src)
	}
	ref.name = rest
	return ref, nil
}

// topLevelIndex finds sep outside of brackets.
func topLevelIndex(s, sep string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '[', '(':
			depth++
		case '>', ']', ')':
			depth--
		}
		if depth == 0 && strings.HasPrefix(s[i:], sep) {
			return i
		}
	}
	return -1
}

func splitTopLevel(s string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '[', '(':
			depth++
		case '>', ']', ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}
