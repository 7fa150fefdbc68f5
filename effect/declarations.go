// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"strconv"
	"strings"

	"github.com/gogpu/fxc/scanner"
)

// parseCBuffer parses "cbuffer Name [: register(bN)] { members }"; the
// keyword is current. It backs off when the construct is not a buffer
// definition.
func (p *parser) parseCBuffer() (bool, error) {
	nameTok, ok := p.s.Peek()
	if !ok || !isName(nameTok) {
		return false, nil
	}
	p.s.Next()

	cb := &ConstantBuffer{Name: strings.Clone(nameTok.Text)}
	tok, ok := p.s.Peek()
	if ok && tok.Is(":") {
		p.s.Next()
		reg, err := p.expect("register")
		if err != nil {
			return false, nil
		}
		if cb.Register, err = p.parseRegister(reg); err != nil {
			return true, err
		}
		tok, ok = p.s.Peek()
	}
	if !ok || !tok.Is("{") {
		return false, nil
	}
	p.s.Next()

	members, err := p.parseMembers()
	if err != nil {
		return true, err
	}
	cb.Members = members
	p.eatSemicolon()

	cb.Layout(p.doc.Structs)
	p.addConstantBuffer(cb, nameTok)
	return true, nil
}

func (p *parser) addConstantBuffer(cb *ConstantBuffer, at scanner.Token) {
	if _, exists := p.doc.ConstantBuffers[cb.Name]; exists {
		p.diag(DiagDuplicateDefinition, at, "constant buffer %q already declared; keeping the first", cb.Name)
		return
	}
	p.doc.ConstantBuffers[cb.Name] = cb
}

// parseStruct parses "struct Name { members };"; the keyword is current.
func (p *parser) parseStruct() (bool, error) {
	nameTok, ok := p.s.Peek()
	if !ok || !isName(nameTok) {
		return false, nil
	}
	p.s.Next()
	if !p.peekIs("{") {
		return false, nil
	}
	p.s.Next()

	members, err := p.parseMembers()
	if err != nil {
		return true, err
	}
	p.eatSemicolon()

	name := strings.Clone(nameTok.Text)
	if _, exists := p.doc.Structs[name]; exists {
		p.diag(DiagDuplicateDefinition, nameTok, "struct %q already declared; keeping the first", name)
		return true, nil
	}
	p.doc.Structs[name] = &Struct{Name: name, Members: members}
	return true, nil
}

// memberModifiers are storage and interpolation qualifiers that may precede a
// member type. They do not affect layout.
var memberModifiers = map[string]bool{
	"uniform": true, "static": true, "const": true, "volatile": true,
	"extern": true, "shared": true, "groupshared": true, "precise": true,
	"linear": true, "centroid": true, "nointerpolation": true,
	"noperspective": true, "sample": true, "snorm": true, "unorm": true,
}

// parseMembers parses member declarations up to the closing brace; the
// opening brace is current. A declaration of unknown type is skipped with a
// DiagIgnoredStatement.
func (p *parser) parseMembers() ([]Member, error) {
	var members []Member
	order := OrderDefault
	// reported is set once the current statement has been diagnosed.
	reported := false
	for {
		tok, err := p.next("'}'")
		if err != nil {
			return nil, err
		}
		switch {
		case tok.Is("}"):
			return members, nil
		case tok.Is(";"):
			order = OrderDefault
			reported = false
			continue
		case tok.Is("#"):
			if err := p.directive(tok, true); err != nil {
				return nil, err
			}
			continue
		case tok.Is("{"):
			if _, err := p.skipBalanced("{", "}"); err != nil {
				return nil, err
			}
			reported = false
			continue
		case tok.IsFold("row_major"):
			order = OrderRowMajor
			continue
		case tok.IsFold("column_major"):
			order = OrderColumnMajor
			continue
		}

		typeName, tag, ok, err := p.memberType(tok)
		if err != nil {
			return nil, err
		}
		if !ok {
			if !reported && isName(tok) && !memberModifiers[strings.ToLower(tok.Text)] {
				p.diag(DiagIgnoredStatement, tok, "ignoring member of unknown type %q", tok.Text)
				reported = true
			}
			continue
		}
		decl, err := p.parseDeclarators(typeName, tag, order)
		if err != nil {
			return nil, err
		}
		members = append(members, decl...)
		order = OrderDefault
	}
}

// memberType resolves a type spelling, a generic vector<T, N> or
// matrix<T, R, C>, or a known structure name.
func (p *parser) memberType(tok scanner.Token) (string, TypeTag, bool, error) {
	if (tok.IsFold("vector") || tok.IsFold("matrix")) && p.peekIs("<") {
		p.s.Next()
		args, err := p.genericArguments()
		if err != nil {
			return "", TypeTag{}, false, err
		}
		tag, ok := genericType(tok.Text, args)
		if !ok {
			return "", TypeTag{}, false, p.invalidValue(tok, "generic type arguments", nil)
		}
		return tag.String(), tag, true, nil
	}
	if tag, ok := LookupType(tok.Text); ok {
		return strings.Clone(tok.Text), tag, true, nil
	}
	if _, ok := p.doc.Structs[tok.Text]; ok {
		return strings.Clone(tok.Text), TypeTag{Kind: KindStruct}, true, nil
	}
	return "", TypeTag{}, false, nil
}

// genericArguments returns the arguments between the current '<' and its
// matching '>'.
func (p *parser) genericArguments() ([]string, error) {
	open := p.s.Token()
	depth := 1
	for {
		tok, err := p.next("'>'")
		if err != nil {
			return nil, err
		}
		switch tok.Text {
		case "<":
			depth++
		case ">":
			depth--
			if depth == 0 {
				return splitArguments(p.src[open.End:tok.Start]), nil
			}
		case ";", "{", "}":
			return nil, p.unexpected(tok, "'>'")
		}
	}
}

// parseDeclarators parses one or more declarators after a member type,
// through the terminating ';'. Methods are skipped and yield no member.
func (p *parser) parseDeclarators(typeName string, tag TypeTag, order MatrixOrder) ([]Member, error) {
	var out []Member
	nameTok, err := p.expectName("member name")
	if err != nil {
		return nil, err
	}
	for {
		m := Member{Type: typeName, Tag: tag, Order: order}
		m.Name, m.ArraySize = p.declaratorName(nameTok)

	declarator:
		for {
			tok, err := p.next("';'")
			if err != nil {
				return nil, err
			}
			switch {
			case tok.Is(";"):
				return append(out, m), nil

			case tok.Is(":"):
				if err := p.memberAnnotation(&m); err != nil {
					return nil, err
				}

			case tok.Is("="):
				if err := p.skipInitializer(); err != nil {
					return nil, err
				}
				return append(out, m), nil

			case tok.Is("("):
				if _, err := p.skipBalanced("(", ")"); err != nil {
					return nil, err
				}
				if p.peekIs("{") {
					p.s.Next()
					if _, err := p.skipBalanced("{", "}"); err != nil {
						return nil, err
					}
				} else if _, err := p.expect(";"); err != nil {
					return nil, err
				}
				return out, nil

			case isName(tok):
				out = append(out, m)
				nameTok = tok
				break declarator

			default:
				return nil, p.unexpected(tok, "';'")
			}
		}
	}
}

// memberAnnotation parses what follows ':' after a member name: a
// packoffset, a register binding or a semantic.
func (p *parser) memberAnnotation(m *Member) error {
	tok, err := p.expectName("semantic, packoffset or register")
	if err != nil {
		return err
	}
	switch {
	case tok.IsFold("packoffset"):
		off, err := p.parsePackOffset()
		if err != nil {
			return err
		}
		m.PackOffset = off
	case tok.IsFold("register"):
		if _, err := p.parseRegister(tok); err != nil {
			return err
		}
	default:
		m.Semantic = strings.Clone(tok.Text)
	}
	return nil
}

// skipInitializer consumes an initializer through its ';'; the '=' is
// current.
func (p *parser) skipInitializer() error {
	tok, err := p.next("initializer")
	if err != nil {
		return err
	}
	if tok.Is("}") {
		return p.unexpected(tok, "initializer")
	}
	return p.finishStatement(tok)
}

// finishStatement skips the rest of a statement starting at tok and
// requires its ';'.
func (p *parser) finishStatement(tok scanner.Token) error {
	if err := p.skipStatement(tok); err != nil {
		return err
	}
	if p.s.Is(";") {
		return nil
	}
	_, err := p.expect(";")
	return err
}

// declaratorName splits "name[4][2]" into the name and the total element
// count. A bracket suffix written as a separate token is consumed too.
func (p *parser) declaratorName(tok scanner.Token) (string, int) {
	text := tok.Text
	if next, ok := p.s.Peek(); ok && strings.HasPrefix(next.Text, "[") && strings.HasSuffix(next.Text, "]") {
		p.s.Next()
		text += next.Text
	}

	i := strings.IndexByte(text, '[')
	if i < 0 {
		return strings.Clone(text), 0
	}
	name := strings.Clone(text[:i])
	size := 1
	for rest := text[i:]; strings.HasPrefix(rest, "["); {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			break
		}
		size *= p.arrayDimension(tok, strings.TrimSpace(rest[1:end]))
		rest = rest[end+1:]
	}
	return name, size
}

func (p *parser) arrayDimension(at scanner.Token, expr string) int {
	if n, err := strconv.Atoi(expr); err == nil && n > 0 {
		return n
	}
	if def, ok := p.doc.Defines[expr]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(def)); err == nil && n > 0 {
			return n
		}
	}
	p.diag(DiagUnknownValue, at, "array size %q is not a literal; assuming 1", expr)
	return 1
}

// parseRegister parses "register(b2)" or "register(t0, space1)"; the
// keyword is current.
func (p *parser) parseRegister(kw scanner.Token) (*Register, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	var reg *Register
	space := 0
	for {
		tok, err := p.next("')'")
		if err != nil {
			return nil, err
		}
		if tok.Is(")") {
			break
		}
		text := strings.ToLower(tok.Text)
		if rest, ok := strings.CutPrefix(text, "space"); ok {
			n, err := strconv.Atoi(rest)
			if err != nil {
				return nil, p.invalidValue(tok, "register space", err)
			}
			space = n
			continue
		}
		if len(text) >= 2 && strings.IndexByte("btsuc", text[0]) >= 0 {
			if n, err := strconv.Atoi(text[1:]); err == nil {
				reg = &Register{Class: text[0], Index: n}
				continue
			}
		}
		// Profile qualifier such as register(ps_5_0, t0).
		if !isName(tok) {
			return nil, p.unexpected(tok, "register")
		}
	}
	if reg == nil {
		return nil, p.invalidValue(kw, "register has no binding slot", nil)
	}
	reg.Space = space
	return reg, nil
}

// parsePackOffset parses "(cN[.xyzw])"; the keyword is current.
func (p *parser) parsePackOffset() (*PackOffset, error) {
	if _, err := p.expect("("); err != nil {
		return nil, err
	}
	tok, err := p.next("packoffset register")
	if err != nil {
		return nil, err
	}
	off, ok := parsePackOffset(tok.Text)
	if !ok {
		return nil, p.invalidValue(tok, "packoffset", nil)
	}
	if _, err := p.expect(")"); err != nil {
		return nil, err
	}
	return &off, nil
}

func parsePackOffset(text string) (PackOffset, bool) {
	text = strings.ToLower(text)
	if len(text) < 2 || text[0] != 'c' {
		return PackOffset{}, false
	}
	reg, comp, hasComp := strings.Cut(text[1:], ".")
	n, err := strconv.Atoi(reg)
	if err != nil || n < 0 {
		return PackOffset{}, false
	}
	off := PackOffset{Register: n}
	if hasComp {
		if len(comp) != 1 {
			return PackOffset{}, false
		}
		i := strings.IndexByte("xyzw", comp[0])
		if i < 0 {
			i = strings.IndexByte("rgba", comp[0])
		}
		if i < 0 {
			return PackOffset{}, false
		}
		off.Component = i
	}
	return off, true
}

// parseResource parses "Kind[<Elem[, N]>] name [: register(...)] [{ sampler
// state }], ...;"; the keyword is current. It backs off for function
// declarations returning a resource.
func (p *parser) parseResource(kind ResourceKind) (bool, error) {
	elem, samples := "unknown", 0
	if p.peekIs("<") {
		p.s.Next()
		args, err := p.genericArguments()
		if err != nil {
			return false, nil
		}
		if len(args) > 0 {
			elem = args[0]
		}
		if len(args) > 1 && kind.IsMultisampled() {
			samples, _ = strconv.Atoi(args[1])
		}
	}

	nameTok, ok := p.s.Peek()
	if !ok || !isName(nameTok) {
		return false, nil
	}
	p.s.Next()
	if p.peekIs("(") {
		return false, nil
	}

	var decls []*Resource
	for {
		res := &Resource{Kind: kind, ElementType: elem, Samples: samples}
		res.Name, res.ArraySize = p.declaratorName(nameTok)
		decls = append(decls, res)
		keptEnd := p.s.Token().End

	declarator:
		for {
			tok, err := p.next("';'")
			if err != nil {
				return true, err
			}
			switch {
			case tok.Is(";"):
				p.addResources(decls, nameTok)
				return true, nil

			case tok.Is(":"):
				reg, err := p.expectName("register")
				if err != nil {
					return true, err
				}
				if reg.IsFold("register") {
					if res.Register, err = p.parseRegister(reg); err != nil {
						return true, err
					}
				}
				keptEnd = p.s.Token().End

			case tok.Is("{") && kind.IsSampler():
				if err := p.parseSamplerBlock(res, keptEnd); err != nil {
					return true, err
				}

			case tok.Is("=") && kind.IsSampler():
				done, err := p.parseSamplerInitializer(res, keptEnd)
				if err != nil {
					return true, err
				}
				if done {
					p.addResources(decls, nameTok)
					return true, nil
				}

			case tok.Is("="):
				if err := p.skipInitializer(); err != nil {
					return true, err
				}
				p.addResources(decls, nameTok)
				return true, nil

			case isName(tok):
				nameTok = tok
				break declarator

			default:
				return true, p.unexpected(tok, "';'")
			}
		}
	}
}

func (p *parser) addResources(decls []*Resource, at scanner.Token) {
	for _, res := range decls {
		if _, exists := p.doc.Resources[res.Name]; exists {
			p.diag(DiagDuplicateDefinition, at, "resource %q already declared; keeping the first", res.Name)
			continue
		}
		p.doc.Resources[res.Name] = res
	}
}

// parseSamplerBlock parses a sampler state block and drops it from the
// output; the '{' is current and keptEnd is the end of the text kept before
// it.
func (p *parser) parseSamplerBlock(res *Resource, keptEnd int) error {
	p.out.copyThrough(keptEnd)
	desc := DefaultSamplerDesc()
	if err := parseStateFields(p, &desc, samplerFields); err != nil {
		return err
	}
	res.Sampler = &desc
	p.out.skipThrough(p.s.Pos())
	return nil
}

// parseSamplerInitializer handles "= sampler_state { ... }"; the '=' is
// current. It reports whether the declaration's ';' was consumed.
func (p *parser) parseSamplerInitializer(res *Resource, keptEnd int) (bool, error) {
	tok, err := p.next("initializer")
	if err != nil {
		return false, err
	}
	if tok.IsFold("sampler_state") && p.peekIs("{") {
		p.s.Next()
		return false, p.parseSamplerBlock(res, keptEnd)
	}
	return true, p.finishStatement(tok)
}
