// Package wgpustate translates effect render states and sampler blocks into
// WebGPU pipeline descriptors.
//
// Effect states follow the Direct3D model. Most fields have a direct WebGPU
// counterpart; the rest are approximated and reported by Check.
package wgpustate

import (
	"fmt"
	"maps"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gogpu/fxc/effect"
)

// maxAnisotropy is the largest anisotropy WebGPU accepts.
const maxAnisotropy = 16

// Primitive returns the primitive state for a rasterizer state. A nil state
// uses the rasterizer defaults.
func Primitive(rs *effect.RasterizerState) wgpu.PrimitiveState {
	if rs == nil {
		d := effect.DefaultRasterizerState()
		rs = &d
	}
	ps := wgpu.PrimitiveState{
		Topology:  wgpu.PrimitiveTopologyTriangleList,
		FrontFace: wgpu.FrontFaceCW,
		CullMode:  cullMode(rs.CullMode),
	}
	if rs.FrontCCW {
		ps.FrontFace = wgpu.FrontFaceCCW
	}
	return ps
}

func cullMode(m effect.CullMode) wgpu.CullMode {
	switch m {
	case effect.CullFront:
		return wgpu.CullModeFront
	case effect.CullBack:
		return wgpu.CullModeBack
	}
	return wgpu.CullModeNone
}

// DepthStencil returns the depth-stencil state for a depth attachment of the
// given format. The rasterizer state, when set, contributes the depth bias.
// A nil depth-stencil state uses the defaults.
func DepthStencil(ds *effect.DepthStencilState, rs *effect.RasterizerState, format wgpu.TextureFormat) *wgpu.DepthStencilState {
	if ds == nil {
		d := effect.DefaultDepthStencilState()
		ds = &d
	}
	out := &wgpu.DepthStencilState{
		Format:            format,
		DepthWriteEnabled: ds.DepthEnable && ds.DepthWriteMask == effect.DepthWriteAll,
		DepthCompare:      wgpu.CompareFunctionAlways,
		StencilFront:      disabledStencil(),
		StencilBack:       disabledStencil(),
	}
	if ds.DepthEnable {
		out.DepthCompare = compareFunction(ds.DepthFunc)
	}
	if ds.StencilEnable {
		out.StencilFront = stencilFace(ds.FrontFace)
		out.StencilBack = stencilFace(ds.BackFace)
		out.StencilReadMask = uint32(ds.StencilReadMask)
		out.StencilWriteMask = uint32(ds.StencilWriteMask)
	}
	if rs != nil {
		out.DepthBias = rs.DepthBias
		out.DepthBiasSlopeScale = rs.SlopeScaledDepthBias
		out.DepthBiasClamp = rs.DepthBiasClamp
	}
	return out
}

func disabledStencil() wgpu.StencilFaceState {
	return wgpu.StencilFaceState{
		Compare:     wgpu.CompareFunctionAlways,
		FailOp:      wgpu.StencilOperationKeep,
		DepthFailOp: wgpu.StencilOperationKeep,
		PassOp:      wgpu.StencilOperationKeep,
	}
}

func stencilFace(f effect.StencilFace) wgpu.StencilFaceState {
	return wgpu.StencilFaceState{
		Compare:     compareFunction(f.Func),
		FailOp:      stencilOperation(f.FailOp),
		DepthFailOp: stencilOperation(f.DepthFailOp),
		PassOp:      stencilOperation(f.PassOp),
	}
}

func compareFunction(f effect.CompareFunc) wgpu.CompareFunction {
	switch f {
	case effect.CompareNever:
		return wgpu.CompareFunctionNever
	case effect.CompareLess:
		return wgpu.CompareFunctionLess
	case effect.CompareEqual:
		return wgpu.CompareFunctionEqual
	case effect.CompareLessEqual:
		return wgpu.CompareFunctionLessEqual
	case effect.CompareGreater:
		return wgpu.CompareFunctionGreater
	case effect.CompareNotEqual:
		return wgpu.CompareFunctionNotEqual
	case effect.CompareGreaterEqual:
		return wgpu.CompareFunctionGreaterEqual
	}
	return wgpu.CompareFunctionAlways
}

func stencilOperation(op effect.StencilOp) wgpu.StencilOperation {
	switch op {
	case effect.StencilZero:
		return wgpu.StencilOperationZero
	case effect.StencilReplace:
		return wgpu.StencilOperationReplace
	case effect.StencilIncrSat:
		return wgpu.StencilOperationIncrementClamp
	case effect.StencilDecrSat:
		return wgpu.StencilOperationDecrementClamp
	case effect.StencilInvert:
		return wgpu.StencilOperationInvert
	case effect.StencilIncr:
		return wgpu.StencilOperationIncrementWrap
	case effect.StencilDecr:
		return wgpu.StencilOperationDecrementWrap
	}
	return wgpu.StencilOperationKeep
}

// Blend returns the blend state, or nil when blending is disabled.
func Blend(bs *effect.BlendState) *wgpu.BlendState {
	if bs == nil || !bs.BlendEnable {
		return nil
	}
	return &wgpu.BlendState{
		Color: blendComponent(bs.SrcBlend, bs.DstBlend, bs.BlendOp),
		Alpha: blendComponent(bs.SrcBlendAlpha, bs.DstBlendAlpha, bs.BlendOpAlpha),
	}
}

// blendComponent builds one blend equation. Min and max take no factors in
// WebGPU; both must be one.
func blendComponent(src, dst effect.BlendFactor, op effect.BlendOp) wgpu.BlendComponent {
	c := wgpu.BlendComponent{
		SrcFactor: blendFactor(src),
		DstFactor: blendFactor(dst),
		Operation: blendOperation(op),
	}
	if isMinMax(op) {
		c.SrcFactor, c.DstFactor = wgpu.BlendFactorOne, wgpu.BlendFactorOne
	}
	return c
}

func isMinMax(op effect.BlendOp) bool {
	return op == effect.BlendOpMin || op == effect.BlendOpMax
}

// ColorTarget returns the color target state for a render target of the
// given format. A nil blend state writes every channel without blending.
func ColorTarget(bs *effect.BlendState, format wgpu.TextureFormat) wgpu.ColorTargetState {
	ct := wgpu.ColorTargetState{
		Format:    format,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if bs != nil {
		// Direct3D and WebGPU share the R, G, B, A bit order.
		ct.WriteMask = wgpu.ColorWriteMask(bs.RenderTargetWriteMask & 0xf)
		ct.Blend = Blend(bs)
	}
	return ct
}

func blendFactor(f effect.BlendFactor) wgpu.BlendFactor {
	switch f {
	case effect.BlendZero:
		return wgpu.BlendFactorZero
	case effect.BlendSrcColor:
		return wgpu.BlendFactorSrc
	case effect.BlendInvSrcColor:
		return wgpu.BlendFactorOneMinusSrc
	case effect.BlendSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case effect.BlendInvSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	case effect.BlendDstAlpha:
		return wgpu.BlendFactorDstAlpha
	case effect.BlendInvDstAlpha:
		return wgpu.BlendFactorOneMinusDstAlpha
	case effect.BlendDstColor:
		return wgpu.BlendFactorDst
	case effect.BlendInvDstColor:
		return wgpu.BlendFactorOneMinusDst
	}
	return wgpu.BlendFactorOne
}

func blendOperation(op effect.BlendOp) wgpu.BlendOperation {
	switch op {
	case effect.BlendOpSub:
		return wgpu.BlendOperationSubtract
	case effect.BlendOpRevSub:
		return wgpu.BlendOperationReverseSubtract
	case effect.BlendOpMin:
		return wgpu.BlendOperationMin
	case effect.BlendOpMax:
		return wgpu.BlendOperationMax
	}
	return wgpu.BlendOperationAdd
}

// Sampler returns the sampler descriptor for a sampler block. Anisotropic
// filtering forces linear filters, as WebGPU requires.
func Sampler(label string, d *effect.SamplerDesc) wgpu.SamplerDescriptor {
	sd := wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  addressMode(d.AddressU),
		AddressModeV:  addressMode(d.AddressV),
		AddressModeW:  addressMode(d.AddressW),
		MagFilter:     filterMode(d.MagFilter),
		MinFilter:     filterMode(d.MinFilter),
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   d.MinLOD,
		LodMaxClamp:   d.MaxLOD,
		MaxAnisotropy: 1,
	}
	switch d.MipFilter {
	case effect.MipmapPoint:
		sd.MipmapFilter = wgpu.MipmapFilterModeNearest
	case effect.MipmapNone:
		// Only the base level is sampled.
		sd.MipmapFilter = wgpu.MipmapFilterModeNearest
		sd.LodMaxClamp = sd.LodMinClamp
	}
	if d.Anisotropic && d.MaxAnisotropy > 1 {
		sd.MagFilter = wgpu.FilterModeLinear
		sd.MinFilter = wgpu.FilterModeLinear
		sd.MipmapFilter = wgpu.MipmapFilterModeLinear
		sd.MaxAnisotropy = uint16(min(d.MaxAnisotropy, maxAnisotropy))
	}
	if d.Comparison {
		sd.Compare = compareFunction(d.ComparisonFunc)
	}
	return sd
}

func addressMode(m effect.AddressMode) wgpu.AddressMode {
	switch m {
	case effect.AddressWrap:
		return wgpu.AddressModeRepeat
	case effect.AddressMirror, effect.AddressMirrorOnce:
		return wgpu.AddressModeMirrorRepeat
	}
	return wgpu.AddressModeClampToEdge
}

func filterMode(m effect.FilterMode) wgpu.FilterMode {
	if m == effect.FilterPoint {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

// ViewDimension returns the texture view dimension for a texture resource
// kind. It reports false for buffers and samplers.
func ViewDimension(k effect.ResourceKind) (wgpu.TextureViewDimension, bool) {
	switch k.Dimension() {
	case effect.Dim1D:
		return wgpu.TextureViewDimension1D, true
	case effect.Dim2D:
		return wgpu.TextureViewDimension2D, true
	case effect.Dim2DArray:
		return wgpu.TextureViewDimension2DArray, true
	case effect.Dim3D:
		return wgpu.TextureViewDimension3D, true
	case effect.DimCube:
		return wgpu.TextureViewDimensionCube, true
	case effect.DimCubeArray:
		return wgpu.TextureViewDimensionCubeArray, true
	}
	return wgpu.TextureViewDimensionUndefined, false
}

// PassStates holds the fixed-function pipeline state of one pass.
type PassStates struct {
	Primitive       wgpu.PrimitiveState
	DepthStencil    *wgpu.DepthStencilState
	Target          wgpu.ColorTargetState
	AlphaToCoverage bool
}

// Formats selects the attachment formats of a pass. A zero DepthStencil
// format means the pass has no depth attachment.
type Formats struct {
	Color        wgpu.TextureFormat
	DepthStencil wgpu.TextureFormat
}

// ForPass resolves the state references of a pass against the document.
func ForPass(doc *effect.Document, pass *effect.Pass, formats Formats) PassStates {
	rs := doc.RasterizerStates[pass.RasterizerState]
	bs := doc.BlendStates[pass.BlendState]

	out := PassStates{
		Primitive: Primitive(rs),
		Target:    ColorTarget(bs, formats.Color),
	}
	if formats.DepthStencil != wgpu.TextureFormatUndefined {
		out.DepthStencil = DepthStencil(doc.DepthStencilStates[pass.DepthStencilState], rs, formats.DepthStencil)
	}
	if bs != nil {
		out.AlphaToCoverage = bs.AlphaToCoverage
	}
	return out
}

// Issue is a state setting WebGPU cannot express exactly.
type Issue struct {
	// Kind is rasterizer_state, blend_state or sampler.
	Kind    string
	Name    string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s", i.Kind, i.Name, i.Message)
}

// Check reports every setting in the document that the translation
// approximates or drops. Issues are ordered by kind, then by name.
func Check(doc *effect.Document) []Issue {
	var issues []Issue
	add := func(kind, name, format string, args ...any) {
		issues = append(issues, Issue{Kind: kind, Name: name, Message: fmt.Sprintf(format, args...)})
	}

	for _, name := range slices.Sorted(maps.Keys(doc.RasterizerStates)) {
		rs := doc.RasterizerStates[name]
		if rs.PolygonMode == effect.PolygonWireframe {
			add("rasterizer_state", name, "wireframe fill is not supported; triangles are filled")
		}
		if rs.EnableConservativeRaster {
			add("rasterizer_state", name, "conservative rasterization is not supported")
		}
	}
	for _, name := range slices.Sorted(maps.Keys(doc.BlendStates)) {
		bs := doc.BlendStates[name]
		if bs.BlendEnable && (minMaxWithFactors(bs.BlendOp, bs.SrcBlend, bs.DstBlend) ||
			minMaxWithFactors(bs.BlendOpAlpha, bs.SrcBlendAlpha, bs.DstBlendAlpha)) {
			add("blend_state", name, "min and max ignore blend factors")
		}
	}
	for _, name := range slices.Sorted(maps.Keys(doc.Resources)) {
		d := doc.Resources[name].Sampler
		if d == nil {
			continue
		}
		for _, a := range []struct {
			axis string
			mode effect.AddressMode
		}{{"U", d.AddressU}, {"V", d.AddressV}, {"W", d.AddressW}} {
			switch a.mode {
			case effect.AddressBorder:
				add("sampler", name, "address%s border is not supported; clamping to edge", a.axis)
			case effect.AddressMirrorOnce:
				add("sampler", name, "address%s mirror_once is not supported; mirroring", a.axis)
			}
		}
		if d.MipLODBias != 0 {
			add("sampler", name, "mip LOD bias %g is dropped", d.MipLODBias)
		}
	}
	return issues
}

func minMaxWithFactors(op effect.BlendOp, src, dst effect.BlendFactor) bool {
	return isMinMax(op) && (src != effect.BlendOne || dst != effect.BlendOne)
}
