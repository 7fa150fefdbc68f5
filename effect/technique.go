// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"fmt"
	"strings"

	"github.com/gogpu/fxc/scanner"
)

// parseHeader reads an optional name and optional annotation block, then the
// opening brace.
func (p *parser) parseHeader(what string) (string, error) {
	name := ""
	tok, err := p.next(what + " name or '{'")
	if err != nil {
		return "", err
	}
	if isName(tok) {
		if !isIdent(tok) {
			return "", p.unexpected(tok, what+" name")
		}
		name = strings.Clone(tok.Text)
		if tok, err = p.next("'{'"); err != nil {
			return "", err
		}
	}
	if tok.Is("<") {
		if err := p.skipAnnotations(); err != nil {
			return "", err
		}
		if tok, err = p.next("'{'"); err != nil {
			return "", err
		}
	}
	if !tok.Is("{") {
		return "", p.unexpected(tok, "'{'")
	}
	return name, nil
}

// parseTechnique parses a technique block; the keyword is current.
func (p *parser) parseTechnique() error {
	name, err := p.parseHeader("technique")
	if err != nil {
		return err
	}
	if name == "" {
		name = fmt.Sprintf("Technique_%d", len(p.doc.Techniques))
	}
	tech := Technique{Name: name}

	b := newBlock()
	for b.phase() != phaseDone {
		tok, err := p.next("'}' closing technique " + name)
		if err != nil {
			return err
		}
		switch {
		case tok.Is("#"):
			if err := p.directive(tok, false); err != nil {
				return err
			}
		case b.phase() == phaseInBlock && tok.IsFold("pass"):
			pass, err := p.parsePass(len(tech.Passes))
			if err != nil {
				return err
			}
			tech.Passes = append(tech.Passes, pass)
		default:
			b.step(tok.Text)
		}
	}

	p.doc.Techniques = append(p.doc.Techniques, tech)
	return nil
}

// parsePass parses a pass block; the keyword is current.
func (p *parser) parsePass(index int) (Pass, error) {
	name, err := p.parseHeader("pass")
	if err != nil {
		return Pass{}, err
	}
	if name == "" {
		name = fmt.Sprintf("Pass_%d", index)
	}
	pass := Pass{Name: name}

	b := newBlock()
	for b.phase() != phaseDone {
		tok, err := p.next("'}' closing pass " + name)
		if err != nil {
			return pass, err
		}
		if b.phase() == phaseInBlock && !tok.Is("{") && !tok.Is("}") {
			if err := p.passStatement(&pass, tok); err != nil {
				return pass, err
			}
			continue
		}
		b.step(tok.Text)
	}
	return pass, nil
}

func (p *parser) passStatement(pass *Pass, tok scanner.Token) error {
	if tok.Is("#") {
		return p.directive(tok, false)
	}
	if tok.Is(";") {
		return nil
	}
	kw := strings.ToLower(tok.Text)

	if stage, ok := stageKeywords[kw]; ok {
		if _, err := p.expect("="); err != nil {
			return err
		}
		if err := p.bindShader(pass, stage); err != nil {
			return err
		}
		_, err := p.expect(";")
		return err
	}

	if stage, ok := stageSetters[kw]; ok {
		if _, err := p.expect("("); err != nil {
			return err
		}
		if err := p.bindShader(pass, stage); err != nil {
			return err
		}
		if _, err := p.expect(")"); err != nil {
			return err
		}
		_, err := p.expect(";")
		return err
	}

	switch kw {
	case "rasterizerstate", "depthstencilstate", "blendstate":
		if _, err := p.expect("="); err != nil {
			return err
		}
		ref, err := p.stateReference()
		if err != nil {
			return err
		}
		p.bindState(pass, kw, ref)
		_, err = p.expect(";")
		return err

	case "setrasterizerstate", "setdepthstencilstate", "setblendstate":
		if _, err := p.expect("("); err != nil {
			return err
		}
		ref, err := p.expectName("state name")
		if err != nil {
			return err
		}
		p.bindState(pass, strings.TrimPrefix(kw, "set"), ref)
		// Remaining arguments (stencil ref, blend factor, sample mask) are
		// not part of the state objects.
		if !p.peekIs(")") {
			if _, err := p.skipBalanced("(", ")"); err != nil {
				return err
			}
		} else {
			p.s.Next()
		}
		_, err = p.expect(";")
		return err
	}

	p.diag(DiagUnknownField, tok, "pass %q: ignoring unknown statement %q", pass.Name, tok.Text)
	return p.skipStatement(tok)
}

// stateReference reads a state name, optionally in parentheses. It returns a
// zero token for NULL.
func (p *parser) stateReference() (scanner.Token, error) {
	tok, err := p.next("state name")
	if err != nil {
		return tok, err
	}
	if tok.Is("(") {
		ref, err := p.stateReference()
		if err != nil {
			return ref, err
		}
		_, err = p.expect(")")
		return ref, err
	}
	if !isIdent(tok) {
		return tok, p.unexpected(tok, "state name")
	}
	if tok.IsFold("null") {
		return scanner.Token{}, nil
	}
	return tok, nil
}

func (p *parser) bindState(pass *Pass, kind string, ref scanner.Token) {
	if ref.Text == "" || ref.IsFold("null") {
		return
	}
	var found bool
	var slot *string
	switch kind {
	case "rasterizerstate":
		_, found = p.doc.RasterizerStates[ref.Text]
		slot = &pass.RasterizerState
	case "depthstencilstate":
		_, found = p.doc.DepthStencilStates[ref.Text]
		slot = &pass.DepthStencilState
	default:
		_, found = p.doc.BlendStates[ref.Text]
		slot = &pass.BlendState
	}
	if !found {
		p.diag(DiagUnresolvedReference, ref, "pass %q references undeclared state %q", pass.Name, ref.Text)
		return
	}
	*slot = strings.Clone(ref.Text)
}

// bindShader reads a shader value and adds it to the pass: an inline compile
// expression, a shader name, or NULL.
func (p *parser) bindShader(pass *Pass, stage Stage) error {
	tok, err := p.next("shader")
	if err != nil {
		return err
	}

	if tok.IsFold("compile") || tok.IsFold("compileshader") {
		stub, err := p.parseCompile(tok, stage)
		if err != nil {
			return err
		}
		pass.Shaders = append(pass.Shaders, stub)
		return nil
	}

	parens := 0
	for tok.Is("(") {
		parens++
		if tok, err = p.next("shader name"); err != nil {
			return err
		}
	}
	if !isIdent(tok) {
		return p.unexpected(tok, "shader")
	}
	for ; parens > 0; parens-- {
		if _, err := p.expect(")"); err != nil {
			return err
		}
	}
	if tok.IsFold("null") {
		return nil
	}

	stub, ok := p.doc.Shaders[tok.Text]
	if !ok {
		p.diag(DiagUnresolvedReference, tok, "pass %q references undeclared shader %q", pass.Name, tok.Text)
		return nil
	}
	ref := *stub
	ref.Stage = stage
	ref.Arguments = append([]string(nil), stub.Arguments...)
	pass.Shaders = append(pass.Shaders, ref)
	return nil
}

// parseCompile parses "compile profile entry(args)" or
// "CompileShader(profile, entry(args))"; the keyword is current.
func (p *parser) parseCompile(kw scanner.Token, stage Stage) (ShaderStub, error) {
	wrapped := kw.IsFold("compileshader")
	if wrapped {
		if _, err := p.expect("("); err != nil {
			return ShaderStub{}, err
		}
	}
	profile, err := p.expectName("shader profile")
	if err != nil {
		return ShaderStub{}, err
	}
	entry, err := p.expectName("entry point")
	if err != nil {
		return ShaderStub{}, err
	}
	if _, err := p.expect("("); err != nil {
		return ShaderStub{}, err
	}
	args, err := p.rawArguments()
	if err != nil {
		return ShaderStub{}, err
	}
	if wrapped {
		if _, err := p.expect(")"); err != nil {
			return ShaderStub{}, err
		}
	}
	return ShaderStub{
		Stage:      stage,
		EntryPoint: strings.Clone(entry.Text),
		Profile:    strings.Clone(profile.Text),
		Arguments:  args,
	}, nil
}

// parseShaderDecl parses a top-level "Stage [name] = compile ...;"; the
// keyword is current.
func (p *parser) parseShaderDecl(stage Stage) error {
	tok, err := p.next("shader name or '='")
	if err != nil {
		return err
	}
	var nameTok scanner.Token
	if !tok.Is("=") {
		if !isIdent(tok) {
			return p.unexpected(tok, "shader name or '='")
		}
		nameTok = tok
		if _, err := p.expect("="); err != nil {
			return err
		}
	}

	kw, err := p.next("'compile'")
	if err != nil {
		return err
	}
	if !kw.IsFold("compile") && !kw.IsFold("compileshader") {
		return p.unexpected(kw, "'compile'")
	}
	stub, err := p.parseCompile(kw, stage)
	if err != nil {
		return err
	}
	if _, err := p.expect(";"); err != nil {
		return err
	}

	name := strings.Clone(nameTok.Text)
	if name == "" {
		name = fmt.Sprintf("Shader_%d", p.shaderCount)
		nameTok = kw
	}
	p.shaderCount++
	stub.Name = name
	if _, exists := p.doc.Shaders[name]; exists {
		p.diag(DiagDuplicateDefinition, nameTok, "shader %q already declared; keeping the first", name)
		return nil
	}
	p.doc.Shaders[name] = &stub
	return nil
}

// parseRenderState parses "Kind name { Field = Value; ... }"; the keyword
// is current.
func (p *parser) parseRenderState(kind string) error {
	nameTok, err := p.expectIdent("state name")
	if err != nil {
		return err
	}
	tok, err := p.next("'{'")
	if err != nil {
		return err
	}
	if tok.Is("<") {
		if err := p.skipAnnotations(); err != nil {
			return err
		}
		if tok, err = p.next("'{'"); err != nil {
			return err
		}
	}
	if !tok.Is("{") {
		return p.unexpected(tok, "'{'")
	}

	name := strings.Clone(nameTok.Text)
	duplicate := false
	switch kind {
	case "rasterizerstate":
		st := DefaultRasterizerState()
		st.Name = name
		if err := parseStateFields(p, &st, rasterizerFields); err != nil {
			return err
		}
		if _, duplicate = p.doc.RasterizerStates[name]; !duplicate {
			p.doc.RasterizerStates[name] = &st
		}
	case "depthstencilstate":
		st := DefaultDepthStencilState()
		st.Name = name
		if err := parseStateFields(p, &st, depthStencilFields); err != nil {
			return err
		}
		if _, duplicate = p.doc.DepthStencilStates[name]; !duplicate {
			p.doc.DepthStencilStates[name] = &st
		}
	default:
		st := DefaultBlendState()
		st.Name = name
		if err := parseStateFields(p, &st, blendFields); err != nil {
			return err
		}
		if _, duplicate = p.doc.BlendStates[name]; !duplicate {
			p.doc.BlendStates[name] = &st
		}
	}
	if duplicate {
		p.diag(DiagDuplicateDefinition, nameTok, "state %q already declared; keeping the first", name)
	}
	return nil
}

// parseStateFields parses "Field = Value;" assignments up to the closing
// brace; the opening brace is current.
func parseStateFields[T any](p *parser, st *T, fields map[string]fieldSetter[T]) error {
	for {
		tok, err := p.next("'}'")
		if err != nil {
			return err
		}
		switch {
		case tok.Is("}"):
			return nil
		case tok.Is(";"):
			continue
		case tok.Is("#"):
			if err := p.directive(tok, false); err != nil {
				return err
			}
			continue
		case !isName(tok):
			return p.unexpected(tok, "state field")
		}

		field := tok
		if _, err := p.expect("="); err != nil {
			return err
		}
		value, err := p.next("value")
		if err != nil {
			return err
		}
		if value.Is("}") || value.Is(";") {
			return p.unexpected(value, "value")
		}

		set, ok := fields[stateFieldName(field.Text)]
		if !ok {
			p.diag(DiagUnknownField, field, "ignoring unknown state field %q", field.Text)
			if err := p.skipStatement(value); err != nil {
				return err
			}
			continue
		}
		if p.peekIs("(") || value.Is("(") || value.Is("{") || value.Is("<") {
			p.diag(DiagUnknownValue, value, "field %q: ignoring non-literal value", field.Text)
			if err := p.skipStatement(value); err != nil {
				return err
			}
			continue
		}

		known, err := set(st, value)
		if err != nil {
			return p.invalidValue(value, "field "+field.Text, err)
		}
		if !known {
			p.diag(DiagUnknownValue, value, "field %q: unknown value %q; keeping the default", field.Text, value.Text)
		}
		if _, err := p.expect(";"); err != nil {
			return err
		}
	}
}
