// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"strings"

	"github.com/gogpu/fxc/scanner"
)

// enumTable maps between enum values and their lowercase names. Names are
// indexed by value; aliases are extra accepted spellings.
type enumTable[E ~uint8] struct {
	names  []string
	lookup map[string]E
}

func newEnumTable[E ~uint8](names []string, aliases map[string]E) *enumTable[E] {
	t := &enumTable[E]{names: names, lookup: make(map[string]E, len(names)+len(aliases))}
	for i, n := range names {
		t.lookup[n] = E(i)
	}
	for a, v := range aliases {
		t.lookup[a] = v
	}
	return t
}

func (t *enumTable[E]) name(v E) string {
	if int(v) < len(t.names) {
		return t.names[v]
	}
	return "unknown"
}

func (t *enumTable[E]) parse(s string) (E, bool) {
	v, ok := t.lookup[strings.ToLower(s)]
	return v, ok
}

// PolygonMode selects filled or wireframe rasterization.
type PolygonMode uint8

const (
	PolygonWireframe PolygonMode = iota
	PolygonSolid
)

// CullMode selects which triangle faces are discarded.
type CullMode uint8

const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// CompareFunc is a depth, stencil or sampler comparison.
type CompareFunc uint8

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

// StencilOp is a stencil buffer update operation.
type StencilOp uint8

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilIncrSat
	StencilDecrSat
	StencilInvert
	StencilIncr
	StencilDecr
)

// DepthWriteMask enables or disables depth writes.
type DepthWriteMask uint8

const (
	DepthWriteZero DepthWriteMask = iota
	DepthWriteAll
)

// BlendFactor is a source or destination blend factor.
type BlendFactor uint8

const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendInvSrcColor
	BlendSrcAlpha
	BlendInvSrcAlpha
	BlendDstAlpha
	BlendInvDstAlpha
	BlendDstColor
	BlendInvDstColor
)

// BlendOp combines the source and destination blend terms.
type BlendOp uint8

const (
	BlendOpAdd BlendOp = iota
	BlendOpSub
	BlendOpRevSub
	BlendOpMin
	BlendOpMax
)

var (
	polygonModes = newEnumTable[PolygonMode]([]string{"wireframe", "solid"}, nil)
	cullModes    = newEnumTable[CullMode]([]string{"none", "front", "back"}, nil)
	compareFuncs = newEnumTable(
		[]string{"never", "less", "equal", "lequal", "greater", "nequal", "gequal", "always"},
		map[string]CompareFunc{
			"less_equal":    CompareLessEqual,
			"not_equal":     CompareNotEqual,
			"greater_equal": CompareGreaterEqual,
		})
	stencilOps = newEnumTable[StencilOp](
		[]string{"keep", "zero", "replace", "incr_sat", "decr_sat", "invert", "incr", "decr"}, nil)
	depthWriteMasks = newEnumTable[DepthWriteMask]([]string{"zero", "all"}, nil)
	blendFactors    = newEnumTable(
		[]string{
			"zero", "one", "src_color", "inv_src_color", "src_alpha", "inv_src_alpha",
			"dst_alpha", "inv_dst_alpha", "dst_color", "inv_dst_color",
		},
		map[string]BlendFactor{
			"dest_alpha":     BlendDstAlpha,
			"inv_dest_alpha": BlendInvDstAlpha,
			"dest_color":     BlendDstColor,
			"inv_dest_color": BlendInvDstColor,
		})
	blendOps = newEnumTable(
		[]string{"add", "sub", "rev_sub", "min", "max"},
		map[string]BlendOp{
			"subtract":     BlendOpSub,
			"rev_subtract": BlendOpRevSub,
		})
)

func (m PolygonMode) String() string    { return polygonModes.name(m) }
func (m CullMode) String() string       { return cullModes.name(m) }
func (f CompareFunc) String() string    { return compareFuncs.name(f) }
func (o StencilOp) String() string      { return stencilOps.name(o) }
func (m DepthWriteMask) String() string { return depthWriteMasks.name(m) }
func (f BlendFactor) String() string    { return blendFactors.name(f) }
func (o BlendOp) String() string        { return blendOps.name(o) }

// RasterizerState is a named rasterizer state block.
type RasterizerState struct {
	Name                     string
	PolygonMode              PolygonMode
	CullMode                 CullMode
	FrontCCW                 bool
	DepthBias                int32
	DepthBiasClamp           float32
	SlopeScaledDepthBias     float32
	DepthClipEnable          bool
	EnableConservativeRaster bool
}

// DefaultRasterizerState returns a rasterizer state with every field at its
// default.
func DefaultRasterizerState() RasterizerState {
	return RasterizerState{
		PolygonMode: PolygonSolid,
		CullMode:    CullNone,
		FrontCCW:    true,
	}
}

// StencilFace holds the stencil operations for one triangle facing.
type StencilFace struct {
	FailOp      StencilOp
	DepthFailOp StencilOp
	PassOp      StencilOp
	Func        CompareFunc
}

// DepthStencilState is a named depth-stencil state block.
type DepthStencilState struct {
	Name             string
	DepthEnable      bool
	DepthWriteMask   DepthWriteMask
	DepthFunc        CompareFunc
	StencilEnable    bool
	StencilReadMask  uint8
	StencilWriteMask uint8
	FrontFace        StencilFace
	BackFace         StencilFace
}

// DefaultDepthStencilState returns a depth-stencil state with every field at
// its default.
func DefaultDepthStencilState() DepthStencilState {
	face := StencilFace{FailOp: StencilKeep, DepthFailOp: StencilKeep, PassOp: StencilKeep, Func: CompareAlways}
	return DepthStencilState{
		DepthEnable:      true,
		DepthWriteMask:   DepthWriteAll,
		DepthFunc:        CompareLess,
		StencilReadMask:  0xff,
		StencilWriteMask: 0xff,
		FrontFace:        face,
		BackFace:         face,
	}
}

// BlendState is a named blend state block.
type BlendState struct {
	Name                  string
	AlphaToCoverage       bool
	BlendEnable           bool
	SrcBlend              BlendFactor
	DstBlend              BlendFactor
	BlendOp               BlendOp
	SrcBlendAlpha         BlendFactor
	DstBlendAlpha         BlendFactor
	BlendOpAlpha          BlendOp
	RenderTargetWriteMask uint8
}

// DefaultBlendState returns a blend state with every field at its default.
func DefaultBlendState() BlendState {
	return BlendState{
		SrcBlend:              BlendOne,
		DstBlend:              BlendZero,
		BlendOp:               BlendOpAdd,
		SrcBlendAlpha:         BlendOne,
		DstBlendAlpha:         BlendZero,
		BlendOpAlpha:          BlendOpAdd,
		RenderTargetWriteMask: 0xff,
	}
}

// fieldSetter assigns one state field from a value token. It returns false
// when the value is not a known enumerator, and an error when a numeric or
// boolean literal is malformed.
type fieldSetter[T any] func(st *T, tok scanner.Token) (bool, error)

func boolField[T any](field func(*T) *bool) fieldSetter[T] {
	return func(st *T, tok scanner.Token) (bool, error) {
		v, err := scanner.TokenBool(tok)
		if err != nil {
			return false, err
		}
		*field(st) = v
		return true, nil
	}
}

func enumField[T any, E ~uint8](table *enumTable[E], field func(*T) *E) fieldSetter[T] {
	return func(st *T, tok scanner.Token) (bool, error) {
		v, ok := table.parse(tok.Text)
		if ok {
			*field(st) = v
		}
		return ok, nil
	}
}

func int32Field[T any](field func(*T) *int32) fieldSetter[T] {
	return func(st *T, tok scanner.Token) (bool, error) {
		v, err := scanner.TokenInt(tok)
		if err != nil || v < -1<<31 || v > 1<<31-1 {
			return false, &scanner.ValueError{Token: tok, Type: "int"}
		}
		*field(st) = int32(v)
		return true, nil
	}
}

func float32Field[T any](field func(*T) *float32) fieldSetter[T] {
	return func(st *T, tok scanner.Token) (bool, error) {
		v, err := scanner.TokenFloat(tok)
		if err != nil {
			return false, err
		}
		*field(st) = float32(v)
		return true, nil
	}
}

func maskField[T any](field func(*T) *uint8) fieldSetter[T] {
	return func(st *T, tok scanner.Token) (bool, error) {
		v, err := scanner.TokenUint(tok)
		if err != nil || v > 0xff {
			return false, &scanner.ValueError{Token: tok, Type: "mask"}
		}
		*field(st) = uint8(v)
		return true, nil
	}
}

func uint32Field[T any](field func(*T) *uint32) fieldSetter[T] {
	return func(st *T, tok scanner.Token) (bool, error) {
		v, err := scanner.TokenUint(tok)
		if err != nil || v > 1<<32-1 {
			return false, &scanner.ValueError{Token: tok, Type: "uint"}
		}
		*field(st) = uint32(v)
		return true, nil
	}
}

var rasterizerFields = func() map[string]fieldSetter[RasterizerState] {
	polygon := enumField(polygonModes, func(s *RasterizerState) *PolygonMode { return &s.PolygonMode })
	ccw := boolField(func(s *RasterizerState) *bool { return &s.FrontCCW })
	conservative := boolField(func(s *RasterizerState) *bool { return &s.EnableConservativeRaster })
	return map[string]fieldSetter[RasterizerState]{
		"polygonmode":              polygon,
		"fillmode":                 polygon,
		"cullmode":                 enumField(cullModes, func(s *RasterizerState) *CullMode { return &s.CullMode }),
		"frontccw":                 ccw,
		"frontcounterclockwise":    ccw,
		"depthbias":                int32Field(func(s *RasterizerState) *int32 { return &s.DepthBias }),
		"depthbiasclamp":           float32Field(func(s *RasterizerState) *float32 { return &s.DepthBiasClamp }),
		"slopescaleddepthbias":     float32Field(func(s *RasterizerState) *float32 { return &s.SlopeScaledDepthBias }),
		"depthclipenable":          boolField(func(s *RasterizerState) *bool { return &s.DepthClipEnable }),
		"enableconservativeraster": conservative,
		"conservativeraster":       conservative,
	}
}()

func stencilFaceFields(prefix string, face func(*DepthStencilState) *StencilFace, into map[string]fieldSetter[DepthStencilState]) {
	fail := enumField(stencilOps, func(s *DepthStencilState) *StencilOp { return &face(s).FailOp })
	depthFail := enumField(stencilOps, func(s *DepthStencilState) *StencilOp { return &face(s).DepthFailOp })
	pass := enumField(stencilOps, func(s *DepthStencilState) *StencilOp { return &face(s).PassOp })
	fn := enumField(compareFuncs, func(s *DepthStencilState) *CompareFunc { return &face(s).Func })
	into[prefix+"stencilfail"] = fail
	into[prefix+"stencilfailop"] = fail
	into[prefix+"stencildepthfail"] = depthFail
	into[prefix+"stencildepthfailop"] = depthFail
	into[prefix+"stencilpass"] = pass
	into[prefix+"stencilpassop"] = pass
	into[prefix+"stencilfunc"] = fn
}

var depthStencilFields = func() map[string]fieldSetter[DepthStencilState] {
	m := map[string]fieldSetter[DepthStencilState]{
		"depthenable":      boolField(func(s *DepthStencilState) *bool { return &s.DepthEnable }),
		"depthwritemask":   enumField(depthWriteMasks, func(s *DepthStencilState) *DepthWriteMask { return &s.DepthWriteMask }),
		"depthfunc":        enumField(compareFuncs, func(s *DepthStencilState) *CompareFunc { return &s.DepthFunc }),
		"stencilenable":    boolField(func(s *DepthStencilState) *bool { return &s.StencilEnable }),
		"stencilreadmask":  maskField(func(s *DepthStencilState) *uint8 { return &s.StencilReadMask }),
		"stencilwritemask": maskField(func(s *DepthStencilState) *uint8 { return &s.StencilWriteMask }),
	}
	stencilFaceFields("frontface", func(s *DepthStencilState) *StencilFace { return &s.FrontFace }, m)
	stencilFaceFields("backface", func(s *DepthStencilState) *StencilFace { return &s.BackFace }, m)
	return m
}()

var blendFields = func() map[string]fieldSetter[BlendState] {
	a2c := boolField(func(s *BlendState) *bool { return &s.AlphaToCoverage })
	dst := enumField(blendFactors, func(s *BlendState) *BlendFactor { return &s.DstBlend })
	dstAlpha := enumField(blendFactors, func(s *BlendState) *BlendFactor { return &s.DstBlendAlpha })
	return map[string]fieldSetter[BlendState]{
		"alphatocoverage":       a2c,
		"alphatocoverageenable": a2c,
		"blendenable":           boolField(func(s *BlendState) *bool { return &s.BlendEnable }),
		"srcblend":              enumField(blendFactors, func(s *BlendState) *BlendFactor { return &s.SrcBlend }),
		"dstblend":              dst,
		"destblend":             dst,
		"blendop":               enumField(blendOps, func(s *BlendState) *BlendOp { return &s.BlendOp }),
		"srcblendalpha":         enumField(blendFactors, func(s *BlendState) *BlendFactor { return &s.SrcBlendAlpha }),
		"dstblendalpha":         dstAlpha,
		"destblendalpha":        dstAlpha,
		"blendopalpha":          enumField(blendOps, func(s *BlendState) *BlendOp { return &s.BlendOpAlpha }),
		"rendertargetwritemask": maskField(func(s *BlendState) *uint8 { return &s.RenderTargetWriteMask }),
	}
}()

// stateFieldName normalizes a state field name: lowercase, without an
// [index] suffix.
func stateFieldName(name string) string {
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}
