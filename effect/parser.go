// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/fxc/loader"
	"github.com/gogpu/fxc/scanner"
)

// parser holds all state of one parse. It fills the tables of doc and builds
// the rewritten source in out.
type parser struct {
	doc    *Document
	opts   Options
	name   string
	src    string
	dir    string
	s      *scanner.Scanner
	out    *rewriter
	loader *loader.Loader

	// Passthrough nesting; effect constructs are only recognized at depth 0.
	braces int
	parens int

	shaderCount int

	// Properties already turned into declarations, and the number of
	// synthesized buffers.
	valuesEmitted   int
	texturesEmitted int
	propBuffers     int
}

func newParser(doc *Document, name, src, dir string, opts Options) *parser {
	return &parser{
		doc:    doc,
		opts:   opts,
		name:   name,
		src:    src,
		dir:    dir,
		s:      scanner.New(src),
		out:    newRewriter(src),
		loader: loader.New(opts.SearchDirs...),
	}
}

// run is the main dispatch loop.
func (p *parser) run() error {
	for p.s.Next() {
		tok := p.s.Token()
		if tok.Is("#") {
			if err := p.directive(tok, true); err != nil {
				return err
			}
			continue
		}

		if p.braces == 0 && p.parens == 0 {
			handled, err := p.topLevel(tok)
			if err != nil {
				return err
			}
			if handled {
				continue
			}
		}

		switch tok.Text {
		case "{":
			p.braces++
		case "}":
			if p.braces > 0 {
				p.braces--
			}
		case "(":
			p.parens++
		case ")":
			if p.parens > 0 {
				p.parens--
			}
		}
		p.out.copyThrough(tok.End)
	}
	p.out.copyThrough(len(p.src))
	return nil
}

// topLevel recognizes effect and declaration constructs. It reports false
// when tok is ordinary shader text.
func (p *parser) topLevel(tok scanner.Token) (bool, error) {
	if !isName(tok) {
		return false, nil
	}
	kw := strings.ToLower(tok.Text)

	switch kw {
	case "technique", "technique10", "technique11":
		return true, p.excise(tok, p.parseTechnique)

	case "rasterizerstate", "depthstencilstate", "blendstate":
		return true, p.excise(tok, func() error { return p.parseRenderState(kw) })

	case "properties":
		next, ok := p.s.Peek()
		if !ok || !next.Is("{") {
			return false, nil
		}
		if err := p.excise(tok, p.parseProperties); err != nil {
			return true, err
		}
		p.synthesizeProperties(tok)
		return true, nil

	case "cbuffer", "tbuffer":
		return p.retain(tok, p.parseCBuffer)

	case "struct":
		return p.retain(tok, p.parseStruct)
	}

	if stage, ok := stageKeywords[kw]; ok {
		return true, p.excise(tok, func() error { return p.parseShaderDecl(stage) })
	}
	if kind, ok := resourceKinds[kw]; ok {
		return p.retain(tok, func() (bool, error) { return p.parseResource(kind) })
	}
	return false, nil
}

// excise parses an effect-only construct starting at tok and drops its text
// from the output, together with a trailing semicolon.
func (p *parser) excise(tok scanner.Token, parse func() error) error {
	p.out.copyThrough(tok.Start)
	if err := parse(); err != nil {
		return err
	}
	p.eatSemicolon()
	p.out.skipThrough(p.s.Pos())
	return nil
}

// retain parses a declaration that is also valid shader source and keeps its
// text. When parse backs off, the scanner is rewound and tok is treated as
// ordinary text.
func (p *parser) retain(tok scanner.Token, parse func() (bool, error)) (bool, error) {
	mark := p.s.Mark()
	ok, err := parse()
	if err != nil {
		return true, err
	}
	if !ok {
		p.s.Restore(mark)
		return false, nil
	}
	p.out.copyThrough(p.s.Pos())
	return true, nil
}

// directive handles a preprocessor line. When emit is set the directive is
// copied to the output; otherwise it lies inside an excised construct.
func (p *parser) directive(hash scanner.Token, emit bool) error {
	if emit {
		p.out.copyThrough(hash.Start)
	}
	start := p.out.len()

	kwTok, ok := p.s.Peek()
	if !ok || !p.sameLine(hash.End, kwTok.Start) {
		// Null directive.
		if emit {
			p.out.copyThrough(hash.End)
		}
		return nil
	}
	p.s.Next()

	var inc *Include
	switch kw := strings.ToLower(kwTok.Text); kw {
	case "define":
		name, err := p.directiveName(kwTok)
		if err != nil {
			return err
		}
		value := strings.TrimSpace(p.s.RestOfLine())
		p.doc.Defines[strings.Clone(name.Text)] = strings.Clone(value)

	case "undef":
		name, err := p.directiveName(kwTok)
		if err != nil {
			return err
		}
		delete(p.doc.Defines, name.Text)
		p.s.SkipLine()

	case "include":
		var err error
		inc, err = p.include(kwTok)
		if err != nil {
			return err
		}

	case "if", "ifdef", "ifndef", "elif", "else", "endif", "pragma", "line", "error", "warning":
		p.s.SkipLine()

	default:
		p.diag(DiagUnknownDirective, kwTok, "unknown directive #%s", kwTok.Text)
		p.s.SkipLine()
	}

	if !emit {
		if inc != nil {
			inc.Offset, inc.End = -1, -1
			p.doc.Includes = append(p.doc.Includes, *inc)
		}
		return nil
	}
	p.out.copyThrough(p.s.Pos())
	if inc != nil {
		inc.Offset, inc.End = start, p.out.len()
		p.doc.Includes = append(p.doc.Includes, *inc)
	}
	return nil
}

func (p *parser) directiveName(kw scanner.Token) (scanner.Token, error) {
	name, ok := p.s.Peek()
	if !ok || !p.sameLine(kw.End, name.Start) {
		return name, p.errorAt(ErrUnexpectedToken, kw.End, "expected macro name after #"+kw.Text)
	}
	if !isName(name) {
		return name, p.unexpected(name, "macro name")
	}
	p.s.Next()
	return name, nil
}

func (p *parser) include(kw scanner.Token) (*Include, error) {
	tok, ok := p.s.Peek()
	if !ok || !p.sameLine(kw.End, tok.Start) {
		return nil, p.errorAt(ErrUnexpectedToken, kw.End, "expected include path")
	}
	p.s.Next()

	inc := &Include{}
	switch {
	case tok.Is("<"):
		text, found := p.s.SkipUntil(">")
		if !found || strings.ContainsRune(text, '\n') {
			return nil, p.errorAt(ErrUnexpectedToken, tok.Start, "unterminated include path")
		}
		inc.Name = strings.Clone(strings.TrimSpace(text))
		inc.System = true
	case tok.Quoted():
		inc.Name = strings.Clone(tok.Unquote())
	default:
		return nil, p.unexpected(tok, "include path")
	}
	p.s.SkipLine()

	if !p.opts.LoadIncludes {
		return inc, nil
	}
	path, err := p.loader.Resolve(inc.Name, p.dir)
	if err != nil {
		if errors.Is(err, loader.ErrNotFound) {
			p.diag(DiagMissingInclude, tok, "include file %q not found", inc.Name)
			return inc, nil
		}
		return nil, p.wrapError(ErrInclude, tok, err)
	}
	f, err := p.loader.Load(path)
	if err != nil {
		return nil, p.wrapError(ErrInclude, tok, err)
	}
	inc.Path = path
	inc.Content = f.String()
	return inc, nil
}

// Token helpers.

func isName(tok scanner.Token) bool {
	if tok.Text == "" {
		return false
	}
	c := tok.Text[0]
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isIdent reports whether the whole token is an identifier. Technique, pass,
// state and shader names must be; they end up in output file names.
func isIdent(tok scanner.Token) bool {
	if !isName(tok) {
		return false
	}
	for i := 1; i < len(tok.Text); i++ {
		c := tok.Text[i]
		if c != '_' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

func (p *parser) sameLine(from, to int) bool {
	if from > to || to > len(p.src) {
		return false
	}
	return !strings.ContainsRune(p.src[from:to], '\n')
}

// next advances and fails at the end of the source.
func (p *parser) next(expected string) (scanner.Token, error) {
	if !p.s.Next() {
		return p.s.Token(), p.unexpected(p.s.Token(), expected)
	}
	return p.s.Token(), nil
}

// expect advances and requires the token to be lit.
func (p *parser) expect(lit string) (scanner.Token, error) {
	want := "'" + lit + "'"
	tok, err := p.next(want)
	if err != nil {
		return tok, err
	}
	if !tok.Is(lit) {
		return tok, p.unexpected(tok, want)
	}
	return tok, nil
}

// expectIdent advances and requires a plain identifier.
func (p *parser) expectIdent(what string) (scanner.Token, error) {
	tok, err := p.next(what)
	if err != nil {
		return tok, err
	}
	if !isIdent(tok) {
		return tok, p.unexpected(tok, what)
	}
	return tok, nil
}

// expectName advances and requires an identifier.
func (p *parser) expectName(what string) (scanner.Token, error) {
	tok, err := p.next(what)
	if err != nil {
		return tok, err
	}
	if !isName(tok) {
		return tok, p.unexpected(tok, what)
	}
	return tok, nil
}

func (p *parser) peekIs(lit string) bool {
	tok, ok := p.s.Peek()
	return ok && tok.Is(lit)
}

func (p *parser) eatSemicolon() {
	if p.peekIs(";") {
		p.s.Next()
	}
}

// skipAnnotations consumes an annotation block; the opening '<' is current.
func (p *parser) skipAnnotations() error {
	for {
		tok, err := p.next("'>' closing annotations")
		if err != nil {
			return err
		}
		if tok.Is(">") {
			return nil
		}
	}
}

// skipBalanced consumes tokens up to the match of the current open token.
func (p *parser) skipBalanced(open, closing string) (scanner.Token, error) {
	depth := 1
	for {
		tok, err := p.next("'" + closing + "'")
		if err != nil {
			return tok, err
		}
		switch tok.Text {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return tok, nil
			}
		}
	}
}

// skipStatement consumes tokens through the next ';' outside of parentheses
// and braces. cur is the statement's current token. An unmatched '}' is left
// unconsumed.
func (p *parser) skipStatement(cur scanner.Token) error {
	depth := 0
	tok := cur
	for {
		switch tok.Text {
		case "(", "{":
			depth++
		case ")":
			depth--
		case "}":
			if depth == 0 {
				return nil
			}
			depth--
		case ";":
			if depth <= 0 {
				return nil
			}
		}
		mark := p.s.Mark()
		next, err := p.next("';'")
		if err != nil {
			return err
		}
		if next.Is("}") && depth == 0 {
			p.s.Restore(mark)
			return nil
		}
		tok = next
	}
}

// rawArguments returns the comma-separated arguments between the current '('
// and its match, as written in the source.
func (p *parser) rawArguments() ([]string, error) {
	open := p.s.Token()
	closeTok, err := p.skipBalanced("(", ")")
	if err != nil {
		return nil, err
	}
	return splitArguments(p.src[open.End:closeTok.Start]), nil
}

// splitArguments splits at commas that are not nested in brackets or quotes.
func splitArguments(text string) []string {
	var args []string
	depth := 0
	inQuote := false
	start := 0
	add := func(end int) {
		if arg := strings.TrimSpace(text[start:end]); arg != "" {
			args = append(args, strings.Clone(arg))
		}
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQuote {
			if c == '\\' {
				i++
			} else if c == '"' {
				inQuote = false
			}
			continue
		}
		switch c {
		case '"':
			inQuote = true
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				add(i)
				start = i + 1
			}
		}
	}
	add(len(text))
	return args
}

// Errors and diagnostics.

func (p *parser) errorAt(kind ErrorKind, offset int, msg string) *ParseError {
	line, col := scanner.LineColumn(p.src, offset)
	return &ParseError{
		Kind:    kind,
		Message: msg,
		File:    p.name,
		Offset:  offset,
		Line:    line,
		Column:  col,
	}
}

func (p *parser) unexpected(tok scanner.Token, expected string) *ParseError {
	if p.s.AtEnd() {
		e := p.errorAt(ErrUnexpectedEOF, len(p.src), "")
		e.Expected = expected
		return e
	}
	e := p.errorAt(ErrUnexpectedToken, tok.Start, "")
	e.Expected = expected
	e.Found = tok.Text
	return e
}

func (p *parser) invalidValue(tok scanner.Token, what string, err error) *ParseError {
	e := p.errorAt(ErrInvalidValue, tok.Start, what)
	e.Err = err
	return e
}

func (p *parser) wrapError(kind ErrorKind, tok scanner.Token, err error) *ParseError {
	e := p.errorAt(kind, tok.Start, "")
	e.Err = err
	return e
}

func (p *parser) diag(kind DiagnosticKind, tok scanner.Token, format string, args ...any) {
	line, col := scanner.LineColumn(p.src, tok.Start)
	p.doc.addDiagnostic(Diagnostic{
		Severity: SeverityWarning,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		File:     p.name,
		Offset:   tok.Start,
		Line:     line,
		Column:   col,
	}, p.opts.OnDiagnostic)
}
