package reactor

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/B3Pay/ic-reactor-sub004/pkg/display"
	"github.com/B3Pay/ic-reactor-sub004/pkg/idl"
	"github.com/B3Pay/ic-reactor-sub004/pkg/principal"
)

const maxStableDepth = 64

// RequestKey fingerprints a method call: the method name followed by a
// 64-bit hash of the stable serialization of its arguments. Structurally
// equal arguments give the same key.
func RequestKey(method string, args []any) string {
	return fmt.Sprintf("%s-%016x", method, xxhash.Sum64String(StableString(args)))
}

// StableString serializes a value as JSON with sorted object keys. Values
// JSON cannot express get markers: nil is "[null]", NaN is "[NaN]",
// infinities are "[Infinity]" and "[-Infinity]". Big integers become
// decimal strings, byte slices comma separated numbers and principals
// their text.
func StableString(v any) string {
	var b strings.Builder
	writeStable(&b, v, 0)
	return b.String()
}

func writeStable(b *strings.Builder, v any, depth int) {
	if depth > maxStableDepth {
		b.WriteString(`"[Circular]"`)
		return
	}
	switch x := v.(type) {
	case nil:
		b.WriteString(`"[null]"`)
	case string:
		writeJSONString(b, x)
	case bool:
		b.WriteString(strconv.FormatBool(x))
	case int:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case int8, int16, int32, int64:
		b.WriteString(strconv.FormatInt(reflect.ValueOf(x).Int(), 10))
	case uint, uint8, uint16, uint32, uint64:
		b.WriteString(strconv.FormatUint(reflect.ValueOf(x).Uint(), 10))
	case float32:
		writeFloat(b, float64(x))
	case float64:
		writeFloat(b, x)
	case *big.Int:
		if x == nil {
			b.WriteString(`"[null]"`)
			return
		}
		writeJSONString(b, x.String())
	case principal.Principal:
		b.WriteString(`{"__principal__":`)
		writeJSONString(b, x.Text())
		b.WriteByte('}')
	case []byte:
		parts := make([]string, len(x))
		for i, c := range x {
			parts[i] = strconv.Itoa(int(c))
		}
		writeJSONString(b, strings.Join(parts, ","))
	case time.Time:
		writeJSONString(b, x.UTC().Format(time.RFC3339Nano))
	case idl.Variant:
		writeStable(b, map[string]any{x.Label: x.Value}, depth+1)
	case display.Entries:
		pairs := make([]any, len(x))
		for i, e := range x {
			pairs[i] = []any{e.Key, e.Value}
		}
		writeStable(b, pairs, depth+1)
	case map[string]any:
		writeObject(b, x, depth)
	case []any:
		writeArray(b, x, depth)
	default:
		writeReflect(b, v, depth)
	}
}

func writeFloat(b *strings.Builder, f float64) {
	switch {
	case math.IsNaN(f):
		b.WriteString(`"[NaN]"`)
	case math.IsInf(f, 1):
		b.WriteString(`"[Infinity]"`)
	case math.IsInf(f, -1):
		b.WriteString(`"[-Infinity]"`)
	default:
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
}

func writeObject(b *strings.Builder, m map[string]any, depth int) {
	keys := maps.Keys(m)
	slices.Sort(keys)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		writeJSONString(b, k)
		b.WriteByte(':')
		writeStable(b, m[k], depth+1)
	}
	b.WriteByte('}')
}

func writeArray(b *strings.Builder, items []any, depth int) {
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		writeStable(b, item, depth+1)
	}
	b.WriteByte(']')
}

// writeReflect handles typed slices, string keyed maps, pointers and, through
// a JSON round trip, structs.
func writeReflect(b *strings.Builder, v any, depth int) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			b.WriteString(`"[null]"`)
			return
		}
		writeStable(b, rv.Elem().Interface(), depth+1)
		return
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		writeArray(b, items, depth)
		return
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			m := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				m[iter.Key().String()] = iter.Value().Interface()
			}
			writeObject(b, m, depth)
			return
		}
	case reflect.String:
		writeJSONString(b, rv.String())
		return
	}

	raw, err := json.Marshal(v)
	if err != nil {
		writeJSONString(b, fmt.Sprint(v))
		return
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		b.Write(raw)
		return
	}
	writeStable(b, generic, depth+1)
}

func writeJSONString(b *strings.Builder, s string) {
	raw, _ := json.Marshal(s)
	b.Write(raw)
}

// GenerateKey is the argument part of a query key.
func GenerateKey(args []any) string {
	return StableString(args)
}
