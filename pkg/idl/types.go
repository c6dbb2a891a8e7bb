// Package idl models Candid interface descriptions: the type language, the
// service and method signatures, and the values exchanged with canisters.
package idl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNull
	KindBool
	KindNat
	KindInt
	KindNat8
	KindNat16
	KindNat32
	KindNat64
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindText
	KindReserved
	KindEmpty
	KindPrincipal
	KindOpt
	KindVec
	KindRecord
	KindVariant
	KindFunc
	KindService
	KindRef
)

var primitiveNames = map[string]Kind{
	"null":      KindNull,
	"bool":      KindBool,
	"nat":       KindNat,
	"int":       KindInt,
	"nat8":      KindNat8,
	"nat16":     KindNat16,
	"nat32":     KindNat32,
	"nat64":     KindNat64,
	"int8":      KindInt8,
	"int16":     KindInt16,
	"int32":     KindInt32,
	"int64":     KindInt64,
	"float32":   KindFloat32,
	"float64":   KindFloat64,
	"text":      KindText,
	"reserved":  KindReserved,
	"empty":     KindEmpty,
	"principal": KindPrincipal,
}

func (k Kind) String() string {
	for name, kind := range primitiveNames {
		if kind == k {
			return name
		}
	}
	switch k {
	case KindOpt:
		return "opt"
	case KindVec:
		return "vec"
	case KindRecord:
		return "record"
	case KindVariant:
		return "variant"
	case KindFunc:
		return "func"
	case KindService:
		return "service"
	case KindRef:
		return "ref"
	default:
		return "unknown"
	}
}

// Type is a node of the Candid type language. Named references (KindRef)
// are resolved against the enclosing Program after parsing.
type Type struct {
	Kind    Kind
	Name    string
	Elem    *Type
	Fields  []Field
	Func    *Func
	Service *Service

	target *Type
}

// Field is a record field or a variant case.
type Field struct {
	Name string
	ID   uint32
	Type *Type
}

func Prim(kind Kind) *Type { return &Type{Kind: kind} }

func Opt(elem *Type) *Type { return &Type{Kind: KindOpt, Elem: elem} }

func Vec(elem *Type) *Type { return &Type{Kind: KindVec, Elem: elem} }

func Blob() *Type { return Vec(Prim(KindNat8)) }

func Record(fields ...Field) *Type { return &Type{Kind: KindRecord, Fields: fields} }

func VariantType(fields ...Field) *Type { return &Type{Kind: KindVariant, Fields: fields} }

// Tuple builds a record with positional labels 0..n-1.
func Tuple(elems ...*Type) *Type {
	fields := make([]Field, len(elems))
	for i, e := range elems {
		fields[i] = Field{Name: strconv.Itoa(i), ID: uint32(i), Type: e}
	}
	return Record(fields...)
}

func Ref(name string) *Type { return &Type{Kind: KindRef, Name: name} }

// NewField computes the field id from its name.
func NewField(name string, t *Type) Field {
	return Field{Name: name, ID: LabelHash(name), Type: t}
}

// LabelHash is the Candid field id of a textual label.
func LabelHash(label string) uint32 {
	if n, err := strconv.ParseUint(label, 10, 32); err == nil {
		return uint32(n)
	}
	var h uint32
	for _, b := range []byte(label) {
		h = h*223 + uint32(b)
	}
	return h
}

// Resolve follows named references until a structural type is reached.
// Unresolved or cyclic references resolve to themselves.
func (t *Type) Resolve() *Type {
	seen := map[*Type]bool{}
	cur := t
	for cur != nil && cur.Kind == KindRef && cur.target != nil {
		if seen[cur] {
			return cur
		}
		seen[cur] = true
		cur = cur.target
	}
	return cur
}

func (t *Type) IsBlob() bool {
	r := t.Resolve()
	return r.Kind == KindVec && r.Elem.Resolve().Kind == KindNat8
}

// IsTuple reports whether a record uses only positional labels 0..n-1.
func (t *Type) IsTuple() bool {
	r := t.Resolve()
	if r.Kind != KindRecord || len(r.Fields) == 0 {
		return false
	}
	for i, f := range r.Fields {
		if f.Name != strconv.Itoa(i) {
			return false
		}
	}
	return true
}

// Bits returns the width of fixed size numbers and zero for everything else.
func (t *Type) Bits() int {
	switch t.Resolve().Kind {
	case KindNat8, KindInt8:
		return 8
	case KindNat16, KindInt16:
		return 16
	case KindNat32, KindInt32, KindFloat32:
		return 32
	case KindNat64, KindInt64, KindFloat64:
		return 64
	default:
		return 0
	}
}

// IsWideInteger reports integers that do not fit a float64 mantissa.
func (t *Type) IsWideInteger() bool {
	switch t.Resolve().Kind {
	case KindNat, KindInt, KindNat64, KindInt64:
		return true
	default:
		return false
	}
}

func (t *Type) IsSmallInteger() bool {
	switch t.Resolve().Kind {
	case KindNat8, KindNat16, KindNat32, KindInt8, KindInt16, KindInt32:
		return true
	default:
		return false
	}
}

// FieldByName finds a record field or variant case.
func (t *Type) FieldByName(name string) (Field, bool) {
	for _, f := range t.Resolve().Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// String renders the type in Candid text syntax.
func (t *Type) String() string {
	if t == nil {
		return "null"
	}
	switch t.Kind {
	case KindRef:
		return t.Name
	case KindOpt:
		return "opt " + t.Elem.String()
	case KindVec:
		if t.Elem.Kind == KindNat8 {
			return "blob"
		}
		return "vec " + t.Elem.String()
	case KindRecord:
		if t.IsTuple() {
			parts := make([]string, len(t.Fields))
			for i, f := range t.Fields {
				parts[i] = f.Type.String()
			}
			return "record { " + strings.Join(parts, "; ") + " }"
		}
		return "record " + fieldsString(t.Fields, false)
	case KindVariant:
		return "variant " + fieldsString(t.Fields, true)
	case KindFunc:
		return "func " + t.Func.String()
	case KindService:
		return "service " + t.Service.String()
	default:
		return t.Kind.String()
	}
}

func fieldsString(fields []Field, variant bool) string {
	if len(fields) == 0 {
		return "{}"
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		if variant && f.Type.Kind == KindNull {
			parts[i] = quoteLabel(f.Name)
			continue
		}
		parts[i] = quoteLabel(f.Name) + " : " + f.Type.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

func quoteLabel(name string) string {
	if isIdent(name) && !isKeyword(name) {
		return name
	}
	if _, err := strconv.ParseUint(name, 10, 32); err == nil {
		return name
	}
	return strconv.Quote(name)
}

// Func is a method signature.
type Func struct {
	Args        []*Type
	ArgNames    []string
	Rets        []*Type
	Annotations []string
}

func (f *Func) hasAnnotation(a string) bool {
	for _, ann := range f.Annotations {
		if ann == a {
			return true
		}
	}
	return false
}

// IsQuery reports query and composite_query methods.
func (f *Func) IsQuery() bool {
	return f.hasAnnotation("query") || f.hasAnnotation("composite_query")
}

func (f *Func) IsOneway() bool {
	return f.hasAnnotation("oneway")
}

// Mode is "query", "composite_query", "oneway" or "update".
func (f *Func) Mode() string {
	for _, a := range []string{"composite_query", "query", "oneway"} {
		if f.hasAnnotation(a) {
			return a
		}
	}
	return "update"
}

func (f *Func) String() string {
	s := tupleString(f.Args, f.ArgNames) + " -> " + tupleString(f.Rets, nil)
	if len(f.Annotations) > 0 {
		s += " " + strings.Join(f.Annotations, " ")
	}
	return s
}

func tupleString(types []*Type, names []string) string {
	parts := make([]string, len(types))
	for i, t := range types {
		if i < len(names) && names[i] != "" {
			parts[i] = quoteLabel(names[i]) + " : " + t.String()
			continue
		}
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Method is a named entry of a service.
type Method struct {
	Name string
	Type *Type
}

// Func returns the signature, following a named func type when necessary.
func (m Method) Func() *Func {
	r := m.Type.Resolve()
	if r == nil || r.Kind != KindFunc {
		return nil
	}
	return r.Func
}

type Service struct {
	Methods []Method
}

// Lookup finds a method by name.
func (s *Service) Lookup(name string) (*Func, bool) {
	if s == nil {
		return nil, false
	}
	for _, m := range s.Methods {
		if m.Name == name {
			f := m.Func()
			return f, f != nil
		}
	}
	return nil, false
}

// MethodNames returns the method names sorted alphabetically.
func (s *Service) MethodNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Methods))
	for _, m := range s.Methods {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

func (s *Service) String() string {
	if s == nil || len(s.Methods) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, m := range s.Methods {
		if m.Type.Kind == KindRef {
			fmt.Fprintf(&b, "  %s : %s;\n", quoteLabel(m.Name), m.Type.Name)
			continue
		}
		fmt.Fprintf(&b, "  %s : %s;\n", quoteLabel(m.Name), m.Func().String())
	}
	b.WriteString("}")
	return b.String()
}

// Program is a parsed .did file.
type Program struct {
	Types    map[string]*Type
	Order    []string
	Service  *Service
	InitArgs []*Type
}

// Lookup returns a named type definition.
func (p *Program) Lookup(name string) (*Type, bool) {
	t, ok := p.Types[name]
	return t, ok
}
