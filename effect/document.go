// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"path/filepath"
	"strings"

	"github.com/gogpu/fxc/loader"
)

// DefaultPropertiesBuffer is the name of the constant buffer synthesized from
// the first properties block.
const DefaultPropertiesBuffer = "CbProperties"

// Options configures parsing.
type Options struct {
	// SearchDirs are tried, in order, for include files not found next to the
	// including file.
	SearchDirs []string

	// LoadIncludes loads the content of each include file so that
	// Document.Expand can splice it in.
	LoadIncludes bool

	// PropertiesBuffer names the constant buffer synthesized from properties
	// blocks. Later blocks append a counter to it.
	PropertiesBuffer string

	// OnDiagnostic, if set, receives every diagnostic as it is found.
	OnDiagnostic func(Diagnostic)
}

// DefaultOptions returns the default parse options.
func DefaultOptions() Options {
	return Options{
		LoadIncludes:     true,
		PropertiesBuffer: DefaultPropertiesBuffer,
	}
}

// Document is the result of parsing one effect source. It owns every table
// extracted from the source and the rewritten shader text. A Document holds
// one parse result at a time: call Reset before parsing again.
type Document struct {
	// Name is the path or name of the parsed source.
	Name string

	// Source is the rewritten shader source with effect-only syntax removed
	// and properties declarations synthesized.
	Source string

	RasterizerStates   map[string]*RasterizerState
	DepthStencilStates map[string]*DepthStencilState
	BlendStates        map[string]*BlendState
	ConstantBuffers    map[string]*ConstantBuffer
	Structs            map[string]*Struct
	Resources          map[string]*Resource
	Shaders            map[string]*ShaderStub

	// Techniques are kept in declaration order; names may repeat.
	Techniques []Technique

	Properties Properties

	// Defines maps macro names to their literal replacement text.
	Defines map[string]string

	Includes    []Include
	Diagnostics []Diagnostic

	parsed bool
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	d := &Document{}
	d.Reset()
	return d
}

// Reset clears every table so the document can be parsed again.
func (d *Document) Reset() {
	*d = Document{
		RasterizerStates:   make(map[string]*RasterizerState),
		DepthStencilStates: make(map[string]*DepthStencilState),
		BlendStates:        make(map[string]*BlendState),
		ConstantBuffers:    make(map[string]*ConstantBuffer),
		Structs:            make(map[string]*Struct),
		Resources:          make(map[string]*Resource),
		Shaders:            make(map[string]*ShaderStub),
		Defines:            make(map[string]string),
	}
}

// Parsed reports whether the document holds a parse result.
func (d *Document) Parsed() bool {
	return d.parsed
}

// ParseFile loads and parses an effect file.
func (d *Document) ParseFile(path string, opts Options) error {
	if d.parsed {
		return ErrNotReset
	}
	f, err := loader.New(opts.SearchDirs...).Load(path)
	if err != nil {
		return &ParseError{Kind: ErrIO, File: path, Err: err}
	}
	return d.parse(path, f.String(), filepath.Dir(path), opts)
}

// ParseSource parses effect text. The name is used in error messages and
// its directory is searched first for include files.
func (d *Document) ParseSource(name, src string, opts Options) error {
	if d.parsed {
		return ErrNotReset
	}
	dir := ""
	if name != "" {
		dir = filepath.Dir(name)
	}
	return d.parse(name, src, dir, opts)
}

func (d *Document) parse(name, src, dir string, opts Options) error {
	if d.RasterizerStates == nil {
		d.Reset()
	}
	if opts.PropertiesBuffer == "" {
		opts.PropertiesBuffer = DefaultPropertiesBuffer
	}

	p := newParser(d, name, src, dir, opts)
	if err := p.run(); err != nil {
		d.Reset()
		return err
	}
	d.Name = name
	d.Source = p.out.String()
	d.parsed = true
	return nil
}

// Expand returns Source with every loaded include directive replaced by the
// content of the included file. Inclusion is one level deep: directives
// inside included files are left as they are.
func (d *Document) Expand() string {
	var sb strings.Builder
	last := 0
	for _, inc := range d.Includes {
		if inc.Path == "" || inc.Offset < last || inc.End > len(d.Source) {
			continue
		}
		sb.WriteString(d.Source[last:inc.Offset])
		sb.WriteString(inc.Content)
		last = inc.End
	}
	if last == 0 {
		return d.Source
	}
	sb.WriteString(d.Source[last:])
	return sb.String()
}

func (d *Document) addDiagnostic(diag Diagnostic, sink func(Diagnostic)) {
	d.Diagnostics = append(d.Diagnostics, diag)
	if sink != nil {
		sink(diag)
	}
}
