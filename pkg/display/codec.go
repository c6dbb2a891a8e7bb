// Package display converts between wire-native Candid values and display
// friendly values: big integers become decimal strings, principals become
// text, small blobs become hex and variants carry a "_type" tag.
package display

import (
	"encoding/hex"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/B3Pay/ic-reactor-sub004/pkg/idl"
	"github.com/B3Pay/ic-reactor-sub004/pkg/principal"
)

// TypeTag is the key carrying the variant case in display form.
const TypeTag = "_type"

// maxHexBlob is the largest blob rendered as hex; larger blobs stay bytes.
const maxHexBlob = 512

// Codec converts a value of one Candid type in both directions. ToDisplay
// never fails: values of an unexpected shape pass through unchanged.
type Codec interface {
	ToDisplay(v any) any
	ToCandid(v any) (any, error)
}

// Entry is one key/value pair of a vector of pairs shown as a map.
type Entry struct {
	Key   any `json:"key"`
	Value any `json:"value"`
}

// Entries keeps the order of the underlying vector.
type Entries []Entry

// Get returns the value of the first entry with the given key.
func (e Entries) Get(key any) (any, bool) {
	for _, entry := range e {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return nil, false
}

// New builds the codec for a type.
func New(t *idl.Type) Codec {
	v := &visitor{cache: map[*idl.Type]*lazyCodec{}}
	return v.visit(t)
}

// ForTypes combines a list of types the way method signatures do: no types
// is null, one type is itself, several types are a tuple.
func ForTypes(types []*idl.Type) Codec {
	switch len(types) {
	case 0:
		return passCodec{}
	case 1:
		return New(types[0])
	default:
		return New(idl.Tuple(types...))
	}
}

type visitor struct {
	cache map[*idl.Type]*lazyCodec
}

func (v *visitor) visit(t *idl.Type) Codec {
	if t.Kind == idl.KindRef {
		target := t.Resolve()
		if target == nil || target.Kind == idl.KindRef {
			return passCodec{}
		}
		if c, ok := v.cache[target]; ok {
			return c
		}
		lazy := &lazyCodec{}
		v.cache[target] = lazy
		lazy.inner = v.visit(target)
		return lazy
	}

	switch t.Kind {
	case idl.KindNat, idl.KindInt, idl.KindNat64, idl.KindInt64:
		return bigCodec{kind: t.Kind}
	case idl.KindPrincipal, idl.KindService:
		return principalCodec{}
	case idl.KindFunc:
		return funcCodec{}
	case idl.KindOpt:
		return optCodec{elem: v.visit(t.Elem)}
	case idl.KindVec:
		if t.IsBlob() {
			return blobCodec{}
		}
		elem := t.Elem.Resolve()
		return vecCodec{
			elem:  v.visit(t.Elem),
			pairs: elem.IsTuple() && len(elem.Fields) == 2,
		}
	case idl.KindRecord:
		if t.IsTuple() {
			items := make([]Codec, len(t.Fields))
			for i, f := range t.Fields {
				items[i] = v.visit(f.Type)
			}
			return tupleCodec{items: items}
		}
		fields := make([]fieldCodec, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = fieldCodec{name: f.Name, optional: f.Type.Resolve().Kind == idl.KindOpt, codec: v.visit(f.Type)}
		}
		return recordCodec{fields: fields}
	case idl.KindVariant:
		cases := make(map[string]variantCase, len(t.Fields))
		for _, f := range t.Fields {
			cases[f.Name] = variantCase{null: f.Type.Resolve().Kind == idl.KindNull, codec: v.visit(f.Type)}
		}
		return variantCodec{cases: cases}
	default:
		return passCodec{}
	}
}

// lazyCodec breaks cycles of recursive types.
type lazyCodec struct {
	inner Codec
}

func (c *lazyCodec) ToDisplay(v any) any { return c.inner.ToDisplay(v) }

func (c *lazyCodec) ToCandid(v any) (any, error) { return c.inner.ToCandid(v) }

type passCodec struct{}

func (passCodec) ToDisplay(v any) any { return v }

func (passCodec) ToCandid(v any) (any, error) { return v, nil }

type bigCodec struct {
	kind idl.Kind
}

func (c bigCodec) ToDisplay(v any) any {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return v
		}
		return n.String()
	case uint64:
		return strconv.FormatUint(n, 10)
	case int64:
		return strconv.FormatInt(n, 10)
	}
	return v
}

func (c bigCodec) ToCandid(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	switch c.kind {
	case idl.KindNat64:
		return strconv.ParseUint(s, 10, 64)
	case idl.KindInt64:
		return strconv.ParseInt(s, 10, 64)
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("%q is not a decimal integer", s)
	}
	return n, nil
}

type principalCodec struct{}

func (principalCodec) ToDisplay(v any) any {
	switch p := v.(type) {
	case principal.Principal:
		return p.Text()
	case *principal.Principal:
		if p != nil {
			return p.Text()
		}
	}
	return v
}

func (principalCodec) ToCandid(v any) (any, error) {
	if s, ok := v.(string); ok {
		return principal.FromText(s)
	}
	return v, nil
}

type funcCodec struct{}

func (funcCodec) ToDisplay(v any) any {
	if ref, ok := v.(idl.FuncRef); ok {
		return []any{ref.Service.Text(), ref.Method}
	}
	return v
}

func (funcCodec) ToCandid(v any) (any, error) {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return v, nil
	}
	p, err := idl.ToPrincipal(pair[0])
	if err != nil {
		return nil, err
	}
	method, _ := pair[1].(string)
	return idl.FuncRef{Service: p, Method: method}, nil
}

type blobCodec struct{}

func (blobCodec) ToDisplay(v any) any {
	b, ok := v.([]byte)
	if !ok || len(b) > maxHexBlob {
		return v
	}
	return "0x" + hex.EncodeToString(b)
}

func (blobCodec) ToCandid(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

type vecCodec struct {
	elem  Codec
	pairs bool
}

func (c vecCodec) ToDisplay(v any) any {
	items, ok := v.([]any)
	if !ok {
		return v
	}
	if c.pairs {
		entries := make(Entries, 0, len(items))
		for _, item := range items {
			pair, isPair := c.elem.ToDisplay(item).([]any)
			if !isPair || len(pair) != 2 {
				return c.mapItems(items)
			}
			entries = append(entries, Entry{Key: pair[0], Value: pair[1]})
		}
		return entries
	}
	return c.mapItems(items)
}

func (c vecCodec) mapItems(items []any) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = c.elem.ToDisplay(item)
	}
	return out
}

func (c vecCodec) ToCandid(v any) (any, error) {
	if entries, ok := v.(Entries); ok {
		items := make([]any, len(entries))
		for i, e := range entries {
			item, err := c.elem.ToCandid([]any{e.Key, e.Value})
			if err != nil {
				return nil, errors.Wrapf(err, "entry %d", i)
			}
			items[i] = item
		}
		return items, nil
	}
	items, ok := v.([]any)
	if !ok {
		return v, nil
	}
	out := make([]any, len(items))
	for i, item := range items {
		conv, err := c.elem.ToCandid(item)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out[i] = conv
	}
	return out, nil
}

type optCodec struct {
	elem Codec
}

func (c optCodec) ToDisplay(v any) any {
	items, ok := v.([]any)
	if !ok {
		return v
	}
	if len(items) == 0 {
		return nil
	}
	return c.elem.ToDisplay(items[0])
}

func (c optCodec) ToCandid(v any) (any, error) {
	if v == nil {
		return idl.None(), nil
	}
	conv, err := c.elem.ToCandid(v)
	if err != nil {
		return nil, err
	}
	return idl.Some(conv), nil
}

type fieldCodec struct {
	name     string
	optional bool
	codec    Codec
}

type recordCodec struct {
	fields []fieldCodec
}

func (c recordCodec) ToDisplay(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[k] = val
	}
	for _, f := range c.fields {
		if val, present := m[f.name]; present {
			out[f.name] = f.codec.ToDisplay(val)
		}
	}
	return out
}

func (c recordCodec) ToCandid(v any) (any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return v, nil
	}
	out := make(map[string]any, len(c.fields))
	for _, f := range c.fields {
		val, present := m[f.name]
		if !present && !f.optional {
			continue
		}
		conv, err := f.codec.ToCandid(val)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.name)
		}
		out[f.name] = conv
	}
	return out, nil
}

type tupleCodec struct {
	items []Codec
}

func (c tupleCodec) ToDisplay(v any) any {
	items, ok := v.([]any)
	if !ok || len(items) != len(c.items) {
		return v
	}
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = c.items[i].ToDisplay(item)
	}
	return out
}

func (c tupleCodec) ToCandid(v any) (any, error) {
	items, ok := v.([]any)
	if !ok || len(items) != len(c.items) {
		return v, nil
	}
	out := make([]any, len(items))
	for i, item := range items {
		conv, err := c.items[i].ToCandid(item)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out[i] = conv
	}
	return out, nil
}

type variantCase struct {
	null  bool
	codec Codec
}

type variantCodec struct {
	cases map[string]variantCase
}

func (c variantCodec) ToDisplay(v any) any {
	var label string
	var payload any
	switch x := v.(type) {
	case idl.Variant:
		label, payload = x.Label, x.Value
	case map[string]any:
		if _, tagged := x[TypeTag]; tagged || len(x) != 1 {
			return v
		}
		for k, val := range x {
			label, payload = k, val
		}
	default:
		return v
	}

	vc, known := c.cases[label]
	if !known {
		return v
	}
	if vc.null || payload == nil {
		return map[string]any{TypeTag: label}
	}
	return map[string]any{TypeTag: label, label: vc.codec.ToDisplay(payload)}
}

func (c variantCodec) ToCandid(v any) (any, error) {
	var label string
	var payload any
	switch x := v.(type) {
	case map[string]any:
		tag, ok := x[TypeTag].(string)
		if !ok {
			return v, nil
		}
		label, payload = tag, x[tag]
	case string:
		label = x
	case idl.Variant:
		label, payload = x.Label, x.Value
	default:
		return v, nil
	}

	vc, known := c.cases[label]
	if !known {
		return nil, errors.Errorf("unknown variant case %q", label)
	}
	if vc.null || payload == nil {
		return idl.Variant{Label: label}, nil
	}
	conv, err := vc.codec.ToCandid(payload)
	if err != nil {
		return nil, errors.Wrapf(err, "case %s", label)
	}
	return idl.Variant{Label: label, Value: conv}, nil
}
