package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/B3Pay/ic-reactor-sub004/pkg/idl"
)

// typeOrder returns the named types so that every type comes after the
// non-recursive types it references. Types on a reference cycle are
// reported in recursive.
func typeOrder(prog *idl.Program) (order []string, recursive map[string]bool) {
	recursive = map[string]bool{}
	const (
		unvisited = iota
		visiting
		done
	)
	state := map[string]int{}

	var visitType func(t *idl.Type)
	var visitName func(name string)
	visitName = func(name string) {
		switch state[name] {
		case visiting:
			recursive[name] = true
			return
		case done:
			return
		}
		t, ok := prog.Lookup(name)
		if !ok {
			return
		}
		state[name] = visiting
		visitType(t)
		state[name] = done
		order = append(order, name)
	}
	visitType = func(t *idl.Type) {
		if t == nil {
			return
		}
		switch t.Kind {
		case idl.KindRef:
			visitName(t.Name)
		case idl.KindOpt, idl.KindVec:
			visitType(t.Elem)
		case idl.KindRecord, idl.KindVariant:
			for _, f := range t.Fields {
				visitType(f.Type)
			}
		case idl.KindFunc:
			for _, a := range t.Func.Args {
				visitType(a)
			}
			for _, r := range t.Func.Rets {
				visitType(r)
			}
		case idl.KindService:
			if t.Service != nil {
				for _, m := range t.Service.Methods {
					visitType(m.Type)
				}
			}
		}
	}
	for _, name := range prog.Order {
		visitName(name)
	}
	return order, recursive
}

func jsQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

var jsPrimitives = map[idl.Kind]string{
	idl.KindNull:      "IDL.Null",
	idl.KindBool:      "IDL.Bool",
	idl.KindNat:       "IDL.Nat",
	idl.KindInt:       "IDL.Int",
	idl.KindNat8:      "IDL.Nat8",
	idl.KindNat16:     "IDL.Nat16",
	idl.KindNat32:     "IDL.Nat32",
	idl.KindNat64:     "IDL.Nat64",
	idl.KindInt8:      "IDL.Int8",
	idl.KindInt16:     "IDL.Int16",
	idl.KindInt32:     "IDL.Int32",
	idl.KindInt64:     "IDL.Int64",
	idl.KindFloat32:   "IDL.Float32",
	idl.KindFloat64:   "IDL.Float64",
	idl.KindText:      "IDL.Text",
	idl.KindReserved:  "IDL.Reserved",
	idl.KindEmpty:     "IDL.Empty",
	idl.KindPrincipal: "IDL.Principal",
}

// jsType renders a type as an IDL factory expression.
func jsType(t *idl.Type) string {
	if p, ok := jsPrimitives[t.Kind]; ok {
		return p
	}
	switch t.Kind {
	case idl.KindRef:
		return t.Name
	case idl.KindOpt:
		return "IDL.Opt(" + jsType(t.Elem) + ")"
	case idl.KindVec:
		return "IDL.Vec(" + jsType(t.Elem) + ")"
	case idl.KindRecord:
		if t.IsTuple() {
			items := make([]string, len(t.Fields))
			for i, f := range t.Fields {
				items[i] = jsType(f.Type)
			}
			return "IDL.Tuple(" + strings.Join(items, ", ") + ")"
		}
		return "IDL.Record(" + jsFields(t.Fields) + ")"
	case idl.KindVariant:
		return "IDL.Variant(" + jsFields(t.Fields) + ")"
	case idl.KindFunc:
		return jsFunc(t.Func)
	case idl.KindService:
		return "IDL.Service(" + jsMethods(t.Service) + ")"
	default:
		return "IDL.Reserved"
	}
}

func jsFields(fields []idl.Field) string {
	if len(fields) == 0 {
		return "{}"
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = jsQuote(f.Name) + " : " + jsType(f.Type)
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

func jsFunc(f *idl.Func) string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = jsType(a)
	}
	rets := make([]string, len(f.Rets))
	for i, r := range f.Rets {
		rets[i] = jsType(r)
	}
	annotations := make([]string, len(f.Annotations))
	for i, a := range f.Annotations {
		annotations[i] = jsQuote(a)
	}
	return fmt.Sprintf("IDL.Func([%s], [%s], [%s])",
		strings.Join(args, ", "), strings.Join(rets, ", "), strings.Join(annotations, ", "))
}

func jsMethods(svc *idl.Service) string {
	if svc == nil || len(svc.Methods) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, m := range svc.Methods {
		fmt.Fprintf(&b, "    %s : %s,\n", jsQuote(m.Name), jsType(m.Type))
	}
	b.WriteString("  }")
	return b.String()
}

// GenerateJS renders the IDL factory module of a program.
func GenerateJS(prog *idl.Program) string {
	order, recursive := typeOrder(prog)
	var b strings.Builder

	b.WriteString("export const idlFactory = ({ IDL }) => {\n")
	writeJSTypes(&b, prog, order, recursive)
	fmt.Fprintf(&b, "  return IDL.Service(%s);\n", jsMethods(prog.Service))
	b.WriteString("};\n")

	b.WriteString("export const init = ({ IDL }) => {\n")
	writeJSTypes(&b, prog, order, recursive)
	args := make([]string, len(prog.InitArgs))
	for i, a := range prog.InitArgs {
		args[i] = jsType(a)
	}
	fmt.Fprintf(&b, "  return [%s];\n", strings.Join(args, ", "))
	b.WriteString("};\n")
	return b.String()
}

func writeJSTypes(b *strings.Builder, prog *idl.Program, order []string, recursive map[string]bool) {
	for _, name := range prog.Order {
		if recursive[name] {
			fmt.Fprintf(b, "  const %s = IDL.Rec();\n", name)
		}
	}
	for _, name := range order {
		t, _ := prog.Lookup(name)
		if recursive[name] {
			fmt.Fprintf(b, "  %s.fill(%s);\n", name, jsType(t))
			continue
		}
		fmt.Fprintf(b, "  const %s = %s;\n", name, jsType(t))
	}
}

var tsPrimitives = map[idl.Kind]string{
	idl.KindNull:      "null",
	idl.KindBool:      "boolean",
	idl.KindNat:       "bigint",
	idl.KindInt:       "bigint",
	idl.KindNat8:      "number",
	idl.KindNat16:     "number",
	idl.KindNat32:     "number",
	idl.KindNat64:     "bigint",
	idl.KindInt8:      "number",
	idl.KindInt16:     "number",
	idl.KindInt32:     "number",
	idl.KindInt64:     "bigint",
	idl.KindFloat32:   "number",
	idl.KindFloat64:   "number",
	idl.KindText:      "string",
	idl.KindReserved:  "any",
	idl.KindEmpty:     "never",
	idl.KindPrincipal: "Principal",
}

// tsType renders a type as a TypeScript type expression.
func tsType(t *idl.Type) string {
	if p, ok := tsPrimitives[t.Kind]; ok {
		return p
	}
	switch t.Kind {
	case idl.KindRef:
		return t.Name
	case idl.KindOpt:
		return "[] | [" + tsType(t.Elem) + "]"
	case idl.KindVec:
		if t.IsBlob() {
			return "Uint8Array | number[]"
		}
		return "Array<" + tsType(t.Elem) + ">"
	case idl.KindRecord:
		if t.IsTuple() {
			items := make([]string, len(t.Fields))
			for i, f := range t.Fields {
				items[i] = tsType(f.Type)
			}
			return "[" + strings.Join(items, ", ") + "]"
		}
		return tsFields(t.Fields)
	case idl.KindVariant:
		if len(t.Fields) == 0 {
			return "never"
		}
		cases := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			cases[i] = "{ " + jsQuote(f.Name) + " : " + tsType(f.Type) + " }"
		}
		return strings.Join(cases, " |\n  ")
	case idl.KindFunc:
		return "[Principal, string]"
	case idl.KindService:
		return "Principal"
	default:
		return "any"
	}
}

func tsFields(fields []idl.Field) string {
	if len(fields) == 0 {
		return "{}"
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = "  " + jsQuote(f.Name) + " : " + tsType(f.Type) + ","
	}
	return "{\n" + strings.Join(parts, "\n") + "\n}"
}

func tsTuple(types []*idl.Type) string {
	items := make([]string, len(types))
	for i, t := range types {
		items[i] = tsType(t)
	}
	return "[" + strings.Join(items, ", ") + "]"
}

func tsReturn(types []*idl.Type) string {
	switch len(types) {
	case 0:
		return "undefined"
	case 1:
		return tsType(types[0])
	default:
		return tsTuple(types)
	}
}

// GenerateTS renders the type declarations of a program.
func GenerateTS(prog *idl.Program) string {
	var b strings.Builder
	b.WriteString("import type { Principal } from '@dfinity/principal';\n")
	b.WriteString("import type { ActorMethod } from '@dfinity/agent';\n")
	b.WriteString("import type { IDL } from '@dfinity/candid';\n\n")

	for _, name := range prog.Order {
		t, _ := prog.Lookup(name)
		if t.Kind == idl.KindRecord && !t.IsTuple() {
			fmt.Fprintf(&b, "export interface %s %s\n", name, tsFields(t.Fields))
			continue
		}
		fmt.Fprintf(&b, "export type %s = %s;\n", name, tsType(t))
	}

	b.WriteString("export interface _SERVICE {\n")
	if prog.Service != nil {
		for _, m := range prog.Service.Methods {
			f := m.Func()
			if f == nil {
				continue
			}
			fmt.Fprintf(&b, "  %s : ActorMethod<%s, %s>,\n", jsQuote(m.Name), tsTuple(f.Args), tsReturn(f.Rets))
		}
	}
	b.WriteString("}\n")
	b.WriteString("export declare const idlFactory: IDL.InterfaceFactory;\n")
	b.WriteString("export declare const init: (args: { IDL: typeof IDL }) => IDL.Type[];\n")
	return b.String()
}

// quoteTS quotes a value as a TypeScript string literal.
func quoteTS(v any) string {
	return strconv.Quote(fmt.Sprint(v))
}
