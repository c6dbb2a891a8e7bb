package idl

import (
	"encoding/json"

	"github.com/B3Pay/ic-reactor-sub004/pkg/principal"
)

// Variant is a decoded variant value.
type Variant struct {
	Label string
	Value any
}

func (v Variant) VariantLabel() string { return v.Label }

// MarshalJSON renders the variant the way the JSON codec sends it: {"Label": value}.
func (v Variant) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{v.Label: v.Value})
}

// FuncRef is a reference to a method of another service.
type FuncRef struct {
	Service principal.Principal `json:"service"`
	Method  string              `json:"method"`
}

// Some wraps a present optional value.
func Some(v any) []any { return []any{v} }

// None is an absent optional value.
func None() []any { return []any{} }

// OptValue unwraps an optional value. Nil counts as absent.
func OptValue(v any) (any, bool) {
	switch o := v.(type) {
	case []any:
		if len(o) == 1 {
			return o[0], true
		}
	}
	return nil, false
}
