// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"fmt"
	"strings"
)

// Stage is a programmable pipeline stage.
type Stage uint8

const (
	StageVertex Stage = iota
	StageHull
	StageDomain
	StageGeometry
	StagePixel
	StageCompute
	StageAmplification
	StageMesh
)

var stageInfo = [...]struct {
	name    string
	keyword string
	prefix  string
}{
	StageVertex:        {"vertex", "VertexShader", "vs"},
	StageHull:          {"hull", "HullShader", "hs"},
	StageDomain:        {"domain", "DomainShader", "ds"},
	StageGeometry:      {"geometry", "GeometryShader", "gs"},
	StagePixel:         {"pixel", "PixelShader", "ps"},
	StageCompute:       {"compute", "ComputeShader", "cs"},
	StageAmplification: {"amplification", "AmplificationShader", "as"},
	StageMesh:          {"mesh", "MeshShader", "ms"},
}

// Stages lists every stage in pipeline order.
var Stages = []Stage{
	StageVertex, StageHull, StageDomain, StageGeometry,
	StagePixel, StageCompute, StageAmplification, StageMesh,
}

// String returns the lowercase stage name.
func (s Stage) String() string {
	if int(s) < len(stageInfo) {
		return stageInfo[s].name
	}
	return fmt.Sprintf("Stage(%d)", s)
}

// Keyword returns the effect keyword that introduces the stage.
func (s Stage) Keyword() string {
	if int(s) < len(stageInfo) {
		return stageInfo[s].keyword
	}
	return ""
}

// Prefix returns the two-letter stage prefix used in profiles and file names.
func (s Stage) Prefix() string {
	if int(s) < len(stageInfo) {
		return stageInfo[s].prefix
	}
	return ""
}

var (
	stageKeywords = map[string]Stage{}
	stageSetters  = map[string]Stage{}
)

func init() {
	for _, s := range Stages {
		kw := strings.ToLower(s.Keyword())
		stageKeywords[kw] = s
		stageSetters["set"+kw] = s
	}
}

// StageFromKeyword looks up a stage by its keyword, ignoring case.
func StageFromKeyword(keyword string) (Stage, bool) {
	s, ok := stageKeywords[strings.ToLower(keyword)]
	return s, ok
}

// ShaderStub is a compile request for one stage: entry point, profile and the
// literal arguments passed to the entry point.
type ShaderStub struct {
	// Name is the declared name, a synthesized Shader_<n> name, or empty
	// for a stub declared inline inside a pass.
	Name       string
	Stage      Stage
	EntryPoint string
	Profile    string
	Arguments  []string
}

// Register is an explicit binding such as register(b2) or register(t0, space1).
type Register struct {
	Class byte // b, t, s, u or c
	Index int
	Space int
}

// String formats the register the way it is written in source.
func (r Register) String() string {
	if r.Space != 0 {
		return fmt.Sprintf("%c%d, space%d", r.Class, r.Index, r.Space)
	}
	return fmt.Sprintf("%c%d", r.Class, r.Index)
}

// PackOffset is an explicit packoffset(cN.comp) placement.
type PackOffset struct {
	Register  int
	Component int // 0..3 for x, y, z, w
}

// Bytes returns the byte offset inside the constant buffer.
func (p PackOffset) Bytes() int {
	return p.Register*16 + p.Component*4
}

// String formats the pack offset the way it is written in source.
func (p PackOffset) String() string {
	if p.Component == 0 {
		return fmt.Sprintf("c%d", p.Register)
	}
	return fmt.Sprintf("c%d.%c", p.Register, "xyzw"[p.Component])
}

// MatrixOrder is a row_major or column_major member modifier.
type MatrixOrder uint8

const (
	OrderDefault MatrixOrder = iota
	OrderRowMajor
	OrderColumnMajor
)

func (o MatrixOrder) String() string {
	switch o {
	case OrderRowMajor:
		return "row_major"
	case OrderColumnMajor:
		return "column_major"
	}
	return ""
}

// Member is a field of a constant buffer or structure.
type Member struct {
	Name string
	// Type is the type spelling as written; for nested structures it is the
	// structure name.
	Type       string
	Tag        TypeTag
	Order      MatrixOrder
	ArraySize  int // 0 when not an array
	Semantic   string
	PackOffset *PackOffset

	// Offset and Size are filled in by Layout for constant buffer members.
	Offset int
	Size   int
}

// ConstantBuffer is a cbuffer declaration.
type ConstantBuffer struct {
	Name     string
	Register *Register
	Members  []Member

	// Size is the packed size in bytes, rounded up to a whole register.
	Size int

	// Synthesized marks buffers generated from a properties block.
	Synthesized bool
}

// Struct is a struct declaration.
type Struct struct {
	Name    string
	Members []Member
}

// Resource is a texture, buffer or sampler declaration.
type Resource struct {
	Name string
	Kind ResourceKind
	// ElementType is the generic argument, or "unknown" when none was given.
	ElementType string
	Samples     int
	ArraySize   int
	Register    *Register

	// Sampler holds the state block of a sampler declaration, if it had one.
	Sampler *SamplerDesc

	Synthesized bool
}

// Pass binds shader stages and fixed-function states.
type Pass struct {
	Name    string
	Shaders []ShaderStub

	// State references by name; empty when not set or unresolved.
	RasterizerState   string
	DepthStencilState string
	BlendState        string
}

// Shader returns the pass's shader for a stage.
func (p *Pass) Shader(stage Stage) (ShaderStub, bool) {
	for _, s := range p.Shaders {
		if s.Stage == stage {
			return s, true
		}
	}
	return ShaderStub{}, false
}

// Technique is a named, ordered list of passes.
type Technique struct {
	Name   string
	Passes []Pass
}

// Include records an #include directive.
type Include struct {
	// Name is the path as written between the delimiters.
	Name string
	// System is true for the <name> form.
	System bool
	// Path is the resolved file, empty when it was not found.
	Path string
	// Content is the loaded file text.
	Content string

	// Offset and End delimit the directive inside Document.Source.
	Offset int
	End    int
}
