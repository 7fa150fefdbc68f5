// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/fxc/scanner"
)

// maxComponents is the largest number of default value components.
const maxComponents = 4

// parseProperties parses a properties block; the keyword is current and the
// next token is '{'.
func (p *parser) parseProperties() error {
	if _, err := p.expect("{"); err != nil {
		return err
	}
	for {
		tok, err := p.next("'}' closing properties")
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
		}

		kind, ok := propertyKinds[strings.ToLower(tok.Text)]
		if !ok {
			return p.unexpected(tok, "property type")
		}
		if err := p.parseProperty(kind); err != nil {
			return err
		}
	}
}

// parseProperty parses one entry after its type keyword.
func (p *parser) parseProperty(kind propertyKind) error {
	nameTok, err := p.expectName("property name")
	if err != nil {
		return err
	}
	name := strings.Clone(nameTok.Text)
	if _, err := p.expect("("); err != nil {
		return err
	}
	displayTok, err := p.next("display name")
	if err != nil {
		return err
	}
	display := strings.Clone(displayTok.Unquote())

	var (
		value = ValueProperty{Name: name, DisplayTag: display, Kind: kind.value}
		tex   = TextureProperty{Name: name, DisplayTag: display, Kind: kind.tex}
	)
	if displayTok.Is(")") {
		value.DisplayTag, tex.DisplayTag = "", ""
	} else if err := p.propertyArguments(kind, &value, &tex); err != nil {
		return err
	}

	if _, err := p.expect("="); err != nil {
		return err
	}
	if kind.texture {
		tok, err := p.next("texture default")
		if err != nil {
			return err
		}
		tex.Default = strings.Clone(tok.Unquote())
	} else {
		if value.Default, err = p.propertyDefault(); err != nil {
			return err
		}
	}
	if _, err := p.expect(";"); err != nil {
		return err
	}

	props := &p.doc.Properties
	if props.Has(name) {
		p.diag(DiagDuplicateDefinition, nameTok, "property %q already declared; keeping the first", name)
		return nil
	}
	if kind.texture {
		props.Textures = append(props.Textures, tex)
	} else {
		props.Values = append(props.Values, value)
	}
	return nil
}

// propertyArguments reads the arguments after the display name through ')'.
func (p *parser) propertyArguments(kind propertyKind, value *ValueProperty, tex *TextureProperty) error {
	stepSet := false
	for {
		tok, err := p.next("')' closing property arguments")
		if err != nil {
			return err
		}
		switch {
		case tok.Is(")"):
			return nil

		case tok.Is("("):
			if _, err := p.skipBalanced("(", ")"); err != nil {
				return err
			}
			p.diag(DiagIgnoredStatement, tok, "ignoring nested property argument")

		case kind.texture:
			srgb, err := scanner.TokenBool(tok)
			if err != nil {
				return p.invalidValue(tok, "sRGB flag", err)
			}
			tex.SRGB = srgb

		case !kind.value.HasStep():
			p.diag(DiagIgnoredStatement, tok, "%s property takes no argument %q", kind.value, tok.Text)

		case tok.IsFold("range"):
			if value.Min, value.Max, err = p.propertyRange(); err != nil {
				return err
			}
			value.HasRange = true

		case !stepSet:
			if value.Step, err = scanner.TokenFloat(tok); err != nil {
				return p.invalidValue(tok, "property step", err)
			}
			stepSet = true

		default:
			p.diag(DiagIgnoredStatement, tok, "ignoring extra property argument %q", tok.Text)
		}
	}
}

// propertyRange parses "(min max)"; the range keyword is current.
func (p *parser) propertyRange() (float64, float64, error) {
	if _, err := p.expect("("); err != nil {
		return 0, 0, err
	}
	var bounds [2]float64
	for i := range bounds {
		tok, err := p.next("range bound")
		if err != nil {
			return 0, 0, err
		}
		if bounds[i], err = scanner.TokenFloat(tok); err != nil {
			return 0, 0, p.invalidValue(tok, "range bound", err)
		}
	}
	if _, err := p.expect(")"); err != nil {
		return 0, 0, err
	}
	return bounds[0], bounds[1], nil
}

// propertyDefault reads a default value: a single literal, a constructor
// call such as float3(1, 0, 0), or a braced list. Components are kept as
// written.
func (p *parser) propertyDefault() ([]string, error) {
	tok, err := p.next("default value")
	if err != nil {
		return nil, err
	}

	closing := ""
	switch {
	case tok.Is("("):
		closing = ")"
	case tok.Is("{"):
		closing = "}"
	case isName(tok) && p.peekIs("("):
		p.s.Next()
		closing = ")"
	}
	if closing == "" {
		return []string{strings.Clone(tok.Text)}, nil
	}

	var comps []string
	for {
		c, err := p.next("'" + closing + "'")
		if err != nil {
			return nil, err
		}
		if c.Is(closing) {
			break
		}
		if len(comps) == maxComponents {
			return nil, p.invalidValue(c, fmt.Sprintf("default value has more than %d components", maxComponents), nil)
		}
		comps = append(comps, strings.Clone(c.Text))
	}
	return comps, nil
}

// synthesizeProperties writes declarations for the properties added since
// the last properties block: one constant buffer for the values and one
// resource per texture.
func (p *parser) synthesizeProperties(at scanner.Token) {
	props := &p.doc.Properties
	values := props.Values[p.valuesEmitted:]
	textures := props.Textures[p.texturesEmitted:]
	if len(values) == 0 && len(textures) == 0 {
		return
	}
	p.valuesEmitted = len(props.Values)
	p.texturesEmitted = len(props.Textures)

	var sb strings.Builder
	if len(values) > 0 {
		name := p.opts.PropertiesBuffer
		if p.propBuffers > 0 {
			name += strconv.Itoa(p.propBuffers)
		}
		p.propBuffers++

		cb := &ConstantBuffer{Name: name, Synthesized: true}
		fmt.Fprintf(&sb, "\ncbuffer %s\n{\n", name)
		for _, v := range values {
			typ := v.Kind.HLSLType()
			tag, _ := LookupType(typ)
			fmt.Fprintf(&sb, "\t%s %s;\n", typ, v.Name)
			cb.Members = append(cb.Members, Member{Name: v.Name, Type: typ, Tag: tag})
		}
		sb.WriteString("};\n")

		cb.Layout(p.doc.Structs)
		p.addConstantBuffer(cb, at)
	} else {
		sb.WriteByte('\n')
	}

	decls := make([]*Resource, 0, len(textures))
	for _, t := range textures {
		kind := t.Kind.Resource()
		fmt.Fprintf(&sb, "%s %s;\n", kind, t.Name)
		decls = append(decls, &Resource{
			Name:        t.Name,
			Kind:        kind,
			ElementType: "unknown",
			Synthesized: true,
		})
	}
	p.addResources(decls, at)

	p.out.insert(sb.String())
}
