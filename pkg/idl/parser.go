package idl

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// ParseFile reads and parses a .did file.
func ParseFile(path string) (*Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading interface file %s", path)
	}
	prog, err := Parse(string(src))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return prog, nil
}

// Parse parses the Candid text format: type definitions, imports (ignored)
// and an optional service declaration.
func Parse(src string) (*Program, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, prog: &Program{Types: map[string]*Type{}}}
	if err := p.parseProgram(); err != nil {
		return nil, err
	}
	if err := p.resolve(); err != nil {
		return nil, err
	}
	return p.prog, nil
}

type parser struct {
	tokens []token
	pos    int
	prog   *Program
	refs   []*Type
}

func (p *parser) cur() token { return p.tokens[p.pos] }

func (p *parser) peekAt(offset int) token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *parser) advance() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...any) error {
	t := p.cur()
	return &SyntaxError{Line: t.line, Col: t.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) isPunct(s string) bool {
	t := p.cur()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) isWord(s string) bool {
	t := p.cur()
	return t.kind == tokIdent && t.text == s
}

func (p *parser) expectPunct(s string) error {
	if !p.isPunct(s) {
		return p.errorf("expected %q, found %s", s, p.cur())
	}
	p.advance()
	return nil
}

func (p *parser) expectIdent() (string, error) {
	t := p.cur()
	if t.kind != tokIdent {
		return "", p.errorf("expected identifier, found %s", t)
	}
	p.advance()
	return t.text, nil
}

func (p *parser) parseProgram() error {
	for p.cur().kind != tokEOF {
		switch {
		case p.isWord("type"):
			if err := p.parseTypeDef(); err != nil {
				return err
			}
		case p.isWord("import"):
			p.advance()
			if p.isWord("service") {
				p.advance()
			}
			if p.cur().kind != tokText {
				return p.errorf("expected import path, found %s", p.cur())
			}
			p.advance()
		case p.isWord("service"):
			if err := p.parseActor(); err != nil {
				return err
			}
		default:
			return p.errorf("unexpected %s", p.cur())
		}
		if p.isPunct(";") {
			p.advance()
		}
	}
	return nil
}

func (p *parser) parseTypeDef() error {
	p.advance()
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if err := p.expectPunct("="); err != nil {
		return err
	}
	t, err := p.parseDataType()
	if err != nil {
		return err
	}
	if _, dup := p.prog.Types[name]; dup {
		return p.errorf("duplicate type definition %q", name)
	}
	p.prog.Types[name] = t
	p.prog.Order = append(p.prog.Order, name)
	return nil
}

func (p *parser) parseActor() error {
	p.advance()
	// optional service name
	if next := p.peekAt(1); p.cur().kind == tokIdent && next.kind == tokPunct && next.text == ":" {
		p.advance()
	}
	if err := p.expectPunct(":"); err != nil {
		return err
	}

	if p.isPunct("(") {
		args, _, err := p.parseTuple()
		if err != nil {
			return err
		}
		p.prog.InitArgs = args
		if err := p.expectPunct("->"); err != nil {
			return err
		}
	}

	switch {
	case p.isPunct("{"):
		svc, err := p.parseServiceBody()
		if err != nil {
			return err
		}
		p.prog.Service = svc
	case p.cur().kind == tokIdent:
		ref := Ref(p.advance().text)
		p.refs = append(p.refs, ref)
		p.prog.Service = &Service{}
		// filled in by resolve
		p.prog.Service.Methods = []Method{{Name: "", Type: ref}}
	default:
		return p.errorf("expected service body, found %s", p.cur())
	}
	return nil
}

func (p *parser) parseServiceBody() (*Service, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	svc := &Service{}
	seen := map[string]bool{}
	for !p.isPunct("}") {
		name, err := p.parseName()
		if err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, p.errorf("duplicate method %q", name)
		}
		seen[name] = true
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}

		var mt *Type
		switch {
		case p.isPunct("("):
			f, err := p.parseFuncType()
			if err != nil {
				return nil, err
			}
			mt = &Type{Kind: KindFunc, Func: f}
		case p.isWord("func"):
			p.advance()
			f, err := p.parseFuncType()
			if err != nil {
				return nil, err
			}
			mt = &Type{Kind: KindFunc, Func: f}
		case p.cur().kind == tokIdent:
			mt = Ref(p.advance().text)
			p.refs = append(p.refs, mt)
		default:
			return nil, p.errorf("expected method type, found %s", p.cur())
		}
		svc.Methods = append(svc.Methods, Method{Name: name, Type: mt})

		if p.isPunct(";") {
			p.advance()
		} else if !p.isPunct("}") {
			return nil, p.errorf("expected \";\" or \"}\", found %s", p.cur())
		}
	}
	p.advance()
	return svc, nil
}

func (p *parser) parseName() (string, error) {
	t := p.cur()
	switch t.kind {
	case tokIdent, tokText:
		p.advance()
		return t.text, nil
	default:
		return "", p.errorf("expected name, found %s", t)
	}
}

func (p *parser) parseFuncType() (*Func, error) {
	args, names, err := p.parseTuple()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct("->"); err != nil {
		return nil, err
	}
	rets, _, err := p.parseTuple()
	if err != nil {
		return nil, err
	}
	f := &Func{Args: args, ArgNames: names, Rets: rets}
	for p.isWord("query") || p.isWord("composite_query") || p.isWord("oneway") {
		f.Annotations = append(f.Annotations, p.advance().text)
	}
	return f, nil
}

// parseTuple reads "(a : t1, t2)". Argument names are optional.
func (p *parser) parseTuple() ([]*Type, []string, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, nil, err
	}
	var (
		types []*Type
		names []string
	)
	for !p.isPunct(")") {
		name := ""
		if p.cur().kind == tokIdent || p.cur().kind == tokText {
			if next := p.peekAt(1); next.kind == tokPunct && next.text == ":" {
				name = p.advance().text
				p.advance()
			}
		}
		t, err := p.parseDataType()
		if err != nil {
			return nil, nil, err
		}
		types = append(types, t)
		names = append(names, name)
		if p.isPunct(",") {
			p.advance()
		} else if !p.isPunct(")") {
			return nil, nil, p.errorf("expected \",\" or \")\", found %s", p.cur())
		}
	}
	p.advance()
	return types, names, nil
}

func (p *parser) parseDataType() (*Type, error) {
	t := p.cur()
	if t.kind != tokIdent {
		return nil, p.errorf("expected type, found %s", t)
	}
	if kind, ok := primitiveNames[t.text]; ok {
		p.advance()
		return Prim(kind), nil
	}

	switch t.text {
	case "opt":
		p.advance()
		elem, err := p.parseDataType()
		if err != nil {
			return nil, err
		}
		return Opt(elem), nil
	case "vec":
		p.advance()
		elem, err := p.parseDataType()
		if err != nil {
			return nil, err
		}
		return Vec(elem), nil
	case "blob":
		p.advance()
		return Blob(), nil
	case "record":
		p.advance()
		fields, err := p.parseFields(false)
		if err != nil {
			return nil, err
		}
		return Record(fields...), nil
	case "variant":
		p.advance()
		fields, err := p.parseFields(true)
		if err != nil {
			return nil, err
		}
		return VariantType(fields...), nil
	case "func":
		p.advance()
		f, err := p.parseFuncType()
		if err != nil {
			return nil, err
		}
		return &Type{Kind: KindFunc, Func: f}, nil
	case "service":
		p.advance()
		svc, err := p.parseServiceBody()
		if err != nil {
			return nil, err
		}
		return &Type{Kind: KindService, Service: svc}, nil
	}

	if keywords[t.text] {
		return nil, p.errorf("unexpected keyword %s", t)
	}
	p.advance()
	ref := Ref(t.text)
	p.refs = append(p.refs, ref)
	return ref, nil
}

func (p *parser) parseFields(variant bool) ([]Field, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var fields []Field
	seen := map[uint32]string{}
	position := uint32(0)
	for !p.isPunct("}") {
		var field Field
		next := p.peekAt(1)
		labelled := next.kind == tokPunct && next.text == ":"

		switch {
		case labelled && p.cur().kind == tokNumber:
			n, err := strconv.ParseUint(p.advance().text, 10, 32)
			if err != nil {
				return nil, p.errorf("invalid field id: %s", err)
			}
			p.advance()
			t, err := p.parseDataType()
			if err != nil {
				return nil, err
			}
			field = Field{Name: strconv.FormatUint(n, 10), ID: uint32(n), Type: t}
			position = uint32(n) + 1
		case labelled:
			name, err := p.parseName()
			if err != nil {
				return nil, err
			}
			p.advance()
			t, err := p.parseDataType()
			if err != nil {
				return nil, err
			}
			field = NewField(name, t)
		case variant && (p.cur().kind == tokIdent || p.cur().kind == tokText) && !isTypeStart(p.cur()):
			name := p.advance().text
			field = NewField(name, Prim(KindNull))
		default:
			t, err := p.parseDataType()
			if err != nil {
				return nil, err
			}
			field = Field{Name: strconv.FormatUint(uint64(position), 10), ID: position, Type: t}
			position++
		}

		if prev, dup := seen[field.ID]; dup {
			return nil, p.errorf("field %q collides with %q", field.Name, prev)
		}
		seen[field.ID] = field.Name
		fields = append(fields, field)

		if p.isPunct(";") {
			p.advance()
		} else if !p.isPunct("}") {
			return nil, p.errorf("expected \";\" or \"}\", found %s", p.cur())
		}
	}
	p.advance()
	return fields, nil
}

// isTypeStart reports tokens that can only begin a type expression. Inside
// a variant a bare identifier is a case label, never a type reference.
func isTypeStart(t token) bool {
	if t.kind != tokIdent {
		return false
	}
	switch t.text {
	case "opt", "vec", "record", "variant", "func", "service", "blob":
		return true
	}
	_, prim := primitiveNames[t.text]
	return prim
}

func (p *parser) resolve() error {
	for _, ref := range p.refs {
		target, ok := p.prog.Types[ref.Name]
		if !ok {
			return errors.Errorf("undefined type %q", ref.Name)
		}
		ref.target = target
	}

	svc := p.prog.Service
	if svc != nil && len(svc.Methods) == 1 && svc.Methods[0].Name == "" {
		resolved := svc.Methods[0].Type.Resolve()
		switch {
		case resolved.Kind == KindService:
			p.prog.Service = resolved.Service
		case resolved.Kind == KindFunc:
			// "service : (init) -> Name" where Name is a class constructor
			return errors.Errorf("service type %q is a function", svc.Methods[0].Type.Name)
		default:
			return errors.Errorf("service type %q is not a service", svc.Methods[0].Type.Name)
		}
	}

	if p.prog.Service != nil {
		for _, m := range p.prog.Service.Methods {
			if m.Func() == nil {
				return errors.Errorf("method %q does not have a function type", m.Name)
			}
		}
	}
	return nil
}
