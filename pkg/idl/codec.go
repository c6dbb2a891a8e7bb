package idl

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"

	"github.com/pkg/errors"

	"github.com/B3Pay/ic-reactor-sub004/pkg/principal"
)

// Codec encodes call arguments and decodes replies. The binary Candid
// format is provided by an external implementation of this interface.
type Codec interface {
	Encode(types []*Type, values []any) ([]byte, error)
	Decode(types []*Type, data []byte) ([]any, error)
}

// JSONCodec is a type-directed JSON encoding of Candid values used by JSON
// gateways. Unbounded and 64-bit integers travel as decimal strings,
// principals as text, blobs as base64, optionals as zero or one element
// arrays and variants as single key objects.
type JSONCodec struct{}

func NewJSONCodec() *JSONCodec { return &JSONCodec{} }

func (c *JSONCodec) Encode(types []*Type, values []any) ([]byte, error) {
	if len(values) != len(types) {
		return nil, errors.Errorf("expected %d arguments, got %d", len(types), len(values))
	}
	out := make([]any, len(types))
	for i, t := range types {
		v, err := toWire(t, values[i])
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", i)
		}
		out[i] = v
	}
	return json.Marshal(out)
}

func (c *JSONCodec) Decode(types []*Type, data []byte) ([]any, error) {
	var raw []any
	if len(bytes.TrimSpace(data)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.Wrap(err, "decoding reply")
		}
	}
	if len(raw) < len(types) {
		return nil, errors.Errorf("expected %d values in reply, got %d", len(types), len(raw))
	}
	out := make([]any, len(types))
	for i, t := range types {
		v, err := fromWire(t, raw[i])
		if err != nil {
			return nil, errors.Wrapf(err, "return value %d", i)
		}
		out[i] = v
	}
	return out, nil
}

func typeError(t *Type, v any) error {
	return errors.Errorf("cannot use %T as %s", v, t)
}

func toWire(t *Type, v any) (any, error) {
	r := t.Resolve()
	switch r.Kind {
	case KindNull, KindReserved:
		return nil, nil
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, typeError(t, v)
		}
		return b, nil
	case KindNat, KindInt, KindNat64, KindInt64:
		n, err := ToBigInt(v)
		if err != nil {
			return nil, err
		}
		if err := checkRange(r, n); err != nil {
			return nil, err
		}
		return n.String(), nil
	case KindNat8, KindNat16, KindNat32, KindInt8, KindInt16, KindInt32:
		n, err := ToBigInt(v)
		if err != nil {
			return nil, err
		}
		if err := checkRange(r, n); err != nil {
			return nil, err
		}
		return n.Int64(), nil
	case KindFloat32, KindFloat64:
		return toFloat(v)
	case KindText:
		s, ok := v.(string)
		if !ok {
			return nil, typeError(t, v)
		}
		return s, nil
	case KindPrincipal, KindService:
		p, err := ToPrincipal(v)
		if err != nil {
			return nil, err
		}
		return p.Text(), nil
	case KindFunc:
		ref, ok := v.(FuncRef)
		if !ok {
			return nil, typeError(t, v)
		}
		return map[string]any{"service": ref.Service.Text(), "method": ref.Method}, nil
	case KindOpt:
		if v == nil {
			return []any{}, nil
		}
		inner, ok := OptValue(v)
		if !ok {
			if arr, isArr := v.([]any); isArr && len(arr) == 0 {
				return []any{}, nil
			}
			return nil, typeError(t, v)
		}
		w, err := toWire(r.Elem, inner)
		if err != nil {
			return nil, err
		}
		return []any{w}, nil
	case KindVec:
		if r.IsBlob() {
			b, err := toBytes(v)
			if err != nil {
				return nil, err
			}
			return base64.StdEncoding.EncodeToString(b), nil
		}
		items, err := toSlice(v)
		if err != nil {
			return nil, typeError(t, v)
		}
		out := make([]any, len(items))
		for i, item := range items {
			if out[i], err = toWire(r.Elem, item); err != nil {
				return nil, errors.Wrapf(err, "element %d", i)
			}
		}
		return out, nil
	case KindRecord:
		return recordToWire(r, v)
	case KindVariant:
		label, payload, err := variantParts(v)
		if err != nil {
			return nil, err
		}
		f, ok := r.FieldByName(label)
		if !ok {
			return nil, errors.Errorf("unknown variant case %q", label)
		}
		w, err := toWire(f.Type, payload)
		if err != nil {
			return nil, errors.Wrapf(err, "case %s", label)
		}
		return map[string]any{label: w}, nil
	case KindEmpty:
		return nil, errors.New("empty type has no values")
	default:
		return nil, errors.Errorf("unsupported type %s", t)
	}
}

func recordToWire(r *Type, v any) (any, error) {
	if r.IsTuple() {
		items, err := toSlice(v)
		if err != nil || len(items) != len(r.Fields) {
			return nil, typeError(r, v)
		}
		out := make([]any, len(items))
		for i, f := range r.Fields {
			if out[i], err = toWire(f.Type, items[i]); err != nil {
				return nil, errors.Wrapf(err, "element %d", i)
			}
		}
		return out, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, typeError(r, v)
	}
	out := make(map[string]any, len(r.Fields))
	for _, f := range r.Fields {
		fv, present := m[f.Name]
		if !present && f.Type.Resolve().Kind != KindOpt && f.Type.Resolve().Kind != KindNull {
			return nil, errors.Errorf("missing field %q", f.Name)
		}
		w, err := toWire(f.Type, fv)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", f.Name)
		}
		out[f.Name] = w
	}
	return out, nil
}

func variantParts(v any) (string, any, error) {
	switch x := v.(type) {
	case Variant:
		return x.Label, x.Value, nil
	case *Variant:
		return x.Label, x.Value, nil
	case map[string]any:
		if len(x) == 1 {
			for k, val := range x {
				return k, val, nil
			}
		}
	case string:
		return x, nil, nil
	}
	return "", nil, errors.Errorf("cannot use %T as a variant", v)
}

func fromWire(t *Type, v any) (any, error) {
	r := t.Resolve()
	switch r.Kind {
	case KindNull, KindReserved:
		return nil, nil
	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, typeError(t, v)
		}
		return b, nil
	case KindNat, KindInt:
		return ToBigInt(v)
	case KindNat8, KindNat16, KindNat32, KindNat64, KindInt8, KindInt16, KindInt32, KindInt64:
		n, err := ToBigInt(v)
		if err != nil {
			return nil, err
		}
		if err := checkRange(r, n); err != nil {
			return nil, err
		}
		return fixedFromBig(r.Kind, n), nil
	case KindFloat32:
		f, err := toFloat(v)
		return float32(f), err
	case KindFloat64:
		return toFloat(v)
	case KindText:
		s, ok := v.(string)
		if !ok {
			return nil, typeError(t, v)
		}
		return s, nil
	case KindPrincipal, KindService:
		return ToPrincipal(v)
	case KindFunc:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, typeError(t, v)
		}
		p, err := ToPrincipal(m["service"])
		if err != nil {
			return nil, err
		}
		method, _ := m["method"].(string)
		return FuncRef{Service: p, Method: method}, nil
	case KindOpt:
		arr, ok := v.([]any)
		if v == nil || (ok && len(arr) == 0) {
			return []any{}, nil
		}
		if !ok || len(arr) != 1 {
			return nil, typeError(t, v)
		}
		inner, err := fromWire(r.Elem, arr[0])
		if err != nil {
			return nil, err
		}
		return []any{inner}, nil
	case KindVec:
		if r.IsBlob() {
			s, ok := v.(string)
			if !ok {
				return nil, typeError(t, v)
			}
			return base64.StdEncoding.DecodeString(s)
		}
		arr, ok := v.([]any)
		if !ok {
			return nil, typeError(t, v)
		}
		out := make([]any, len(arr))
		for i, item := range arr {
			var err error
			if out[i], err = fromWire(r.Elem, item); err != nil {
				return nil, errors.Wrapf(err, "element %d", i)
			}
		}
		return out, nil
	case KindRecord:
		if r.IsTuple() {
			arr, ok := v.([]any)
			if !ok || len(arr) != len(r.Fields) {
				return nil, typeError(t, v)
			}
			out := make([]any, len(arr))
			for i, f := range r.Fields {
				var err error
				if out[i], err = fromWire(f.Type, arr[i]); err != nil {
					return nil, err
				}
			}
			return out, nil
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, typeError(t, v)
		}
		out := make(map[string]any, len(r.Fields))
		for _, f := range r.Fields {
			fv, err := fromWire(f.Type, m[f.Name])
			if err != nil {
				return nil, errors.Wrapf(err, "field %s", f.Name)
			}
			out[f.Name] = fv
		}
		return out, nil
	case KindVariant:
		label, payload, err := variantParts(v)
		if err != nil {
			return nil, err
		}
		f, ok := r.FieldByName(label)
		if !ok {
			return nil, errors.Errorf("unknown variant case %q", label)
		}
		val, err := fromWire(f.Type, payload)
		if err != nil {
			return nil, err
		}
		return Variant{Label: label, Value: val}, nil
	default:
		return nil, errors.Errorf("unsupported type %s", t)
	}
}

// ToBigInt accepts any Go integer, *big.Int, json.Number, decimal string or
// integral float.
func ToBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, errors.New("nil integer")
		}
		return new(big.Int).Set(n), nil
	case big.Int:
		return new(big.Int).Set(&n), nil
	case json.Number:
		return parseBig(string(n))
	case string:
		return parseBig(n)
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return nil, errors.Errorf("%v is not an integer", n)
		}
		f, _ := big.NewFloat(n).Int(nil)
		return f, nil
	case float32:
		return ToBigInt(float64(n))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Int).SetUint64(rv.Uint()), nil
	}
	return nil, errors.Errorf("cannot use %T as an integer", v)
}

func parseBig(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("%q is not a decimal integer", s)
	}
	return n, nil
}

func checkRange(t *Type, n *big.Int) error {
	bits := t.Bits()
	switch t.Kind {
	case KindNat:
		if n.Sign() < 0 {
			return errors.Errorf("nat cannot be negative: %s", n)
		}
	case KindNat8, KindNat16, KindNat32, KindNat64:
		if n.Sign() < 0 || n.BitLen() > bits {
			return errors.Errorf("%s out of range for %s", n, t.Kind)
		}
	case KindInt8, KindInt16, KindInt32, KindInt64:
		limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
		lower := new(big.Int).Neg(limit)
		if n.Cmp(lower) < 0 || n.Cmp(limit) >= 0 {
			return errors.Errorf("%s out of range for %s", n, t.Kind)
		}
	}
	return nil
}

func fixedFromBig(kind Kind, n *big.Int) any {
	switch kind {
	case KindNat8:
		return uint8(n.Uint64())
	case KindNat16:
		return uint16(n.Uint64())
	case KindNat32:
		return uint32(n.Uint64())
	case KindNat64:
		return n.Uint64()
	case KindInt8:
		return int8(n.Int64())
	case KindInt16:
		return int16(n.Int64())
	case KindInt32:
		return int32(n.Int64())
	default:
		return n.Int64()
	}
}

func toFloat(v any) (float64, error) {
	switch f := v.(type) {
	case float64:
		return f, nil
	case float32:
		return float64(f), nil
	case json.Number:
		return f.Float64()
	case string:
		return strconv.ParseFloat(f, 64)
	}
	n, err := ToBigInt(v)
	if err != nil {
		return 0, fmt.Errorf("cannot use %T as a float", v)
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	return f, nil
}

// ToPrincipal accepts a Principal, its pointer or its text form.
func ToPrincipal(v any) (principal.Principal, error) {
	switch p := v.(type) {
	case principal.Principal:
		return p, nil
	case *principal.Principal:
		if p == nil {
			return principal.Principal{}, errors.New("nil principal")
		}
		return *p, nil
	case string:
		return principal.FromText(p)
	}
	return principal.Principal{}, errors.Errorf("cannot use %T as a principal", v)
}

func toBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}
	items, err := toSlice(v)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(items))
	for i, item := range items {
		n, err := ToBigInt(item)
		if err != nil || n.Sign() < 0 || n.BitLen() > 8 {
			return nil, errors.Errorf("element %d is not a byte", i)
		}
		out[i] = byte(n.Uint64())
	}
	return out, nil
}

func toSlice(v any) ([]any, error) {
	if items, ok := v.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errors.Errorf("cannot use %T as a sequence", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

// compile-time check that JSONCodec implements Codec.
var _ Codec = (*JSONCodec)(nil)
