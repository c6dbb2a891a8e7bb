package idl

import (
	"strings"

	"github.com/pkg/errors"
)

type MethodType string

const (
	MethodTypeQuery    MethodType = "query"
	MethodTypeMutation MethodType = "mutation"
)

// MethodInfo summarises a service method for code generation and listings.
type MethodInfo struct {
	Name    string     `json:"name"`
	Type    MethodType `json:"type"`
	HasArgs bool       `json:"hasArgs"`
	Args    string     `json:"args"`
	Returns string     `json:"returns"`
}

// Methods lists the methods of a parsed program in declaration order.
func (p *Program) Methods() []MethodInfo {
	if p.Service == nil {
		return nil
	}
	methods := make([]MethodInfo, 0, len(p.Service.Methods))
	for _, m := range p.Service.Methods {
		f := m.Func()
		info := MethodInfo{
			Name:    m.Name,
			Type:    MethodTypeMutation,
			HasArgs: len(f.Args) > 0,
			Args:    tupleString(f.Args, f.ArgNames),
			Returns: tupleString(f.Rets, nil),
		}
		if f.IsQuery() {
			info.Type = MethodTypeQuery
		}
		methods = append(methods, info)
	}
	return methods
}

// ExtractMethods parses Candid source and returns its methods.
func ExtractMethods(src string) ([]MethodInfo, error) {
	prog, err := Parse(src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse Candid")
	}
	return prog.Methods(), nil
}

// ParseMethodsFile reads a .did file and returns its methods.
func ParseMethodsFile(path string) ([]MethodInfo, error) {
	prog, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return prog.Methods(), nil
}

// Split partitions methods into queries and mutations.
func Split(methods []MethodInfo) (queries, mutations []MethodInfo) {
	for _, m := range methods {
		if m.Type == MethodTypeQuery {
			queries = append(queries, m)
		} else {
			mutations = append(mutations, m)
		}
	}
	return queries, mutations
}

// Signature is the Candid text of the method type.
func (m MethodInfo) Signature() string {
	sig := m.Args + " -> " + m.Returns
	if m.Type == MethodTypeQuery {
		sig += " query"
	}
	return strings.TrimSpace(sig)
}
