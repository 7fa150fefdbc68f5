// Package metadata exports the tables of a parsed effect document as a
// structured description for asset pipelines.
//
// The export is a pure transform over effect.Document: named tables are
// written sorted by name, techniques, passes, properties and includes in
// declaration order. Two encodings are available, XML rooted at <root> and
// indented JSON.
package metadata

import (
	"encoding/xml"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/gogpu/fxc/effect"
)

// Root is the exported document.
type Root struct {
	XMLName xml.Name `xml:"root" json:"-"`
	Source  Source   `xml:"source" json:"source"`

	RasterizerStates   []RasterizerState   `xml:"rasterizer_state" json:"rasterizer_states,omitempty"`
	DepthStencilStates []DepthStencilState `xml:"depth_stencil_state" json:"depth_stencil_states,omitempty"`
	BlendStates        []BlendState        `xml:"blend_state" json:"blend_states,omitempty"`
	ConstantBuffers    []ConstantBuffer    `xml:"constant_buffer" json:"constant_buffers,omitempty"`
	Structs            []Struct            `xml:"struct" json:"structs,omitempty"`
	Resources          []Resource          `xml:"resource" json:"resources,omitempty"`
	Includes           []Include           `xml:"include" json:"includes,omitempty"`
	Defines            []Define            `xml:"define" json:"defines,omitempty"`
	Properties         *Properties         `xml:"properties" json:"properties,omitempty"`
	Techniques         []Technique         `xml:"technique" json:"techniques,omitempty"`
}

// Source names the rewritten shader source the metadata describes.
type Source struct {
	Path string `xml:"path,attr" json:"path"`
}

// RasterizerState is an exported rasterizer state block.
type RasterizerState struct {
	Name                     string  `xml:"name,attr" json:"name"`
	PolygonMode              string  `xml:"polygon_mode,attr" json:"polygon_mode"`
	CullMode                 string  `xml:"cull_mode,attr" json:"cull_mode"`
	FrontCCW                 bool    `xml:"front_ccw,attr" json:"front_ccw"`
	DepthBias                int32   `xml:"depth_bias,attr" json:"depth_bias"`
	DepthBiasClamp           float32 `xml:"depth_bias_clamp,attr" json:"depth_bias_clamp"`
	SlopeScaledDepthBias     float32 `xml:"slope_scaled_depth_bias,attr" json:"slope_scaled_depth_bias"`
	DepthClipEnable          bool    `xml:"depth_clip_enable,attr" json:"depth_clip_enable"`
	EnableConservativeRaster bool    `xml:"enable_conservative_raster,attr" json:"enable_conservative_raster"`
}

// DepthStencilState is an exported depth-stencil state block. Stencil masks
// are written in hex.
type DepthStencilState struct {
	Name                      string `xml:"name,attr" json:"name"`
	DepthEnable               bool   `xml:"depth_enable,attr" json:"depth_enable"`
	DepthWriteMask            string `xml:"depth_write_mask,attr" json:"depth_write_mask"`
	DepthFunc                 string `xml:"depth_func,attr" json:"depth_func"`
	StencilEnable             bool   `xml:"stencil_enable,attr" json:"stencil_enable"`
	StencilReadMask           string `xml:"stencil_read_mask,attr" json:"stencil_read_mask"`
	StencilWriteMask          string `xml:"stencil_write_mask,attr" json:"stencil_write_mask"`
	FrontFaceStencilFail      string `xml:"front_face_stencil_fail,attr" json:"front_face_stencil_fail"`
	FrontFaceStencilDepthFail string `xml:"front_face_stencil_depth_fail,attr" json:"front_face_stencil_depth_fail"`
	FrontFaceStencilPass      string `xml:"front_face_stencil_pass,attr" json:"front_face_stencil_pass"`
	FrontFaceStencilFunc      string `xml:"front_face_stencil_func,attr" json:"front_face_stencil_func"`
	BackFaceStencilFail       string `xml:"back_face_stencil_fail,attr" json:"back_face_stencil_fail"`
	BackFaceStencilDepthFail  string `xml:"back_face_stencil_depth_fail,attr" json:"back_face_stencil_depth_fail"`
	BackFaceStencilPass       string `xml:"back_face_stencil_pass,attr" json:"back_face_stencil_pass"`
	BackFaceStencilFunc       string `xml:"back_face_stencil_func,attr" json:"back_face_stencil_func"`
}

// BlendState is an exported blend state block.
type BlendState struct {
	Name                  string `xml:"name,attr" json:"name"`
	AlphaToCoverageEnable bool   `xml:"alpha_to_coverage_enable,attr" json:"alpha_to_coverage_enable"`
	BlendEnable           bool   `xml:"blend_enable,attr" json:"blend_enable"`
	SrcBlend              string `xml:"src_blend,attr" json:"src_blend"`
	DstBlend              string `xml:"dst_blend,attr" json:"dst_blend"`
	BlendOp               string `xml:"blend_op,attr" json:"blend_op"`
	SrcBlendAlpha         string `xml:"src_blend_alpha,attr" json:"src_blend_alpha"`
	DstBlendAlpha         string `xml:"dst_blend_alpha,attr" json:"dst_blend_alpha"`
	BlendOpAlpha          string `xml:"blend_op_alpha,attr" json:"blend_op_alpha"`
	RenderTargetWriteMask string `xml:"render_target_write_mask,attr" json:"render_target_write_mask"`
}

// ConstantBuffer is a cbuffer or tbuffer with its packed layout.
type ConstantBuffer struct {
	Name        string   `xml:"name,attr" json:"name"`
	Register    string   `xml:"register,attr,omitempty" json:"register,omitempty"`
	Size        int      `xml:"size,attr" json:"size"`
	Synthesized bool     `xml:"synthesized,attr,omitempty" json:"synthesized,omitempty"`
	Members     []Member `xml:"member" json:"members"`
}

// Struct is a structure declaration laid out as if it were a cbuffer member.
type Struct struct {
	Name    string   `xml:"name,attr" json:"name"`
	Size    int      `xml:"size,attr" json:"size"`
	Members []Member `xml:"member" json:"members"`
}

// Member is a laid-out field of a constant buffer or structure.
type Member struct {
	Name       string `xml:"name,attr" json:"name"`
	Type       string `xml:"type,attr" json:"type"`
	Offset     int    `xml:"offset,attr" json:"offset"`
	Size       int    `xml:"size,attr" json:"size"`
	ArraySize  int    `xml:"array_size,attr,omitempty" json:"array_size,omitempty"`
	Order      string `xml:"order,attr,omitempty" json:"order,omitempty"`
	Semantic   string `xml:"semantic,attr,omitempty" json:"semantic,omitempty"`
	PackOffset string `xml:"packoffset,attr,omitempty" json:"packoffset,omitempty"`
}

// Resource is a texture, buffer or sampler declaration.
type Resource struct {
	Name        string   `xml:"name,attr" json:"name"`
	Kind        string   `xml:"kind,attr" json:"kind"`
	ElementType string   `xml:"element_type,attr" json:"element_type"`
	Samples     int      `xml:"samples,attr,omitempty" json:"samples,omitempty"`
	ArraySize   int      `xml:"array_size,attr,omitempty" json:"array_size,omitempty"`
	Register    string   `xml:"register,attr,omitempty" json:"register,omitempty"`
	Synthesized bool     `xml:"synthesized,attr,omitempty" json:"synthesized,omitempty"`
	Sampler     *Sampler `xml:"sampler" json:"sampler,omitempty"`
}

// Sampler holds the state block of a sampler resource.
type Sampler struct {
	MinFilter      string  `xml:"min_filter,attr" json:"min_filter"`
	MagFilter      string  `xml:"mag_filter,attr" json:"mag_filter"`
	MipFilter      string  `xml:"mip_filter,attr" json:"mip_filter"`
	Anisotropic    bool    `xml:"anisotropic,attr" json:"anisotropic"`
	MaxAnisotropy  uint32  `xml:"max_anisotropy,attr" json:"max_anisotropy"`
	AddressU       string  `xml:"address_u,attr" json:"address_u"`
	AddressV       string  `xml:"address_v,attr" json:"address_v"`
	AddressW       string  `xml:"address_w,attr" json:"address_w"`
	Comparison     bool    `xml:"comparison,attr" json:"comparison"`
	ComparisonFunc string  `xml:"comparison_func,attr" json:"comparison_func"`
	BorderColor    string  `xml:"border_color,attr" json:"border_color"`
	MipLODBias     float32 `xml:"mip_lod_bias,attr" json:"mip_lod_bias"`
	MinLOD         float32 `xml:"min_lod,attr" json:"min_lod"`
	MaxLOD         float32 `xml:"max_lod,attr" json:"max_lod"`
}

// Include is an #include directive and the file it resolved to.
type Include struct {
	Name   string `xml:"name,attr" json:"name"`
	System bool   `xml:"system,attr" json:"system"`
	Path   string `xml:"path,attr,omitempty" json:"path,omitempty"`
}

// Define is a #define directive; Value is the raw replacement text.
type Define struct {
	Name  string `xml:"name,attr" json:"name"`
	Value string `xml:"value,attr" json:"value"`
}

// Properties lists the tunable parameters. In XML every entry is an element
// named after its kind (<float3>, <color4>, <map2d>...).
type Properties struct {
	Values   []ValueProperty   `xml:"value" json:"values,omitempty"`
	Textures []TextureProperty `xml:"texture" json:"textures,omitempty"`
}

// ValueProperty carries the default components as x/y/z/w, or r/g/b/a for
// colors, or a single default for scalars.
type ValueProperty struct {
	XMLName    xml.Name `json:"-"`
	Kind       string   `xml:"-" json:"kind"`
	Name       string   `xml:"name,attr" json:"name"`
	DisplayTag string   `xml:"display_tag,attr" json:"display_tag"`
	Step       string   `xml:"step,attr,omitempty" json:"step,omitempty"`
	Min        string   `xml:"min,attr,omitempty" json:"min,omitempty"`
	Max        string   `xml:"max,attr,omitempty" json:"max,omitempty"`
	Default    string   `xml:"default,attr,omitempty" json:"default,omitempty"`
	X          string   `xml:"x,attr,omitempty" json:"x,omitempty"`
	Y          string   `xml:"y,attr,omitempty" json:"y,omitempty"`
	Z          string   `xml:"z,attr,omitempty" json:"z,omitempty"`
	W          string   `xml:"w,attr,omitempty" json:"w,omitempty"`
	R          string   `xml:"r,attr,omitempty" json:"r,omitempty"`
	G          string   `xml:"g,attr,omitempty" json:"g,omitempty"`
	B          string   `xml:"b,attr,omitempty" json:"b,omitempty"`
	A          string   `xml:"a,attr,omitempty" json:"a,omitempty"`
}

// TextureProperty is a texture property and its default texture name.
type TextureProperty struct {
	XMLName    xml.Name `json:"-"`
	Kind       string   `xml:"-" json:"kind"`
	Name       string   `xml:"name,attr" json:"name"`
	DisplayTag string   `xml:"display_tag,attr" json:"display_tag"`
	SRGB       bool     `xml:"srgb,attr" json:"srgb"`
	Default    string   `xml:"default,attr" json:"default"`
}

// Technique lists its passes in declaration order.
type Technique struct {
	Name   string `xml:"name,attr" json:"name"`
	Passes []Pass `xml:"pass" json:"passes"`
}

// Pass holds the shader stages and render state references of a pass.
type Pass struct {
	Name              string   `xml:"name,attr" json:"name"`
	Shaders           []Shader `xml:"shader" json:"shaders"`
	RasterizerState   *Ref     `xml:"rs" json:"rasterizer_state,omitempty"`
	DepthStencilState *Ref     `xml:"dss" json:"depth_stencil_state,omitempty"`
	BlendState        *Ref     `xml:"bs" json:"blend_state,omitempty"`
}

// Shader is one stage of a pass. Name is the entry point.
type Shader struct {
	Type      string   `xml:"type,attr" json:"type"`
	Profile   string   `xml:"profile,attr" json:"profile"`
	Name      string   `xml:"name,attr" json:"name"`
	Arguments []string `xml:"argument" json:"arguments,omitempty"`
}

// Ref names a render state.
type Ref struct {
	Name string `xml:"name,attr" json:"name"`
}

// Build converts a parsed document. sourcePath is recorded as the location
// of the rewritten shader source.
func Build(doc *effect.Document, sourcePath string) *Root {
	r := &Root{Source: Source{Path: sourcePath}}

	for _, name := range sortedKeys(doc.RasterizerStates) {
		r.RasterizerStates = append(r.RasterizerStates, rasterizerState(name, doc.RasterizerStates[name]))
	}
	for _, name := range sortedKeys(doc.DepthStencilStates) {
		r.DepthStencilStates = append(r.DepthStencilStates, depthStencilState(name, doc.DepthStencilStates[name]))
	}
	for _, name := range sortedKeys(doc.BlendStates) {
		r.BlendStates = append(r.BlendStates, blendState(name, doc.BlendStates[name]))
	}
	for _, name := range sortedKeys(doc.ConstantBuffers) {
		r.ConstantBuffers = append(r.ConstantBuffers, constantBuffer(doc.ConstantBuffers[name]))
	}
	for _, name := range sortedKeys(doc.Structs) {
		r.Structs = append(r.Structs, structLayout(doc.Structs[name], doc.Structs))
	}
	for _, name := range sortedKeys(doc.Resources) {
		r.Resources = append(r.Resources, resource(doc.Resources[name]))
	}
	for _, inc := range doc.Includes {
		r.Includes = append(r.Includes, Include{Name: inc.Name, System: inc.System, Path: inc.Path})
	}
	for _, name := range sortedKeys(doc.Defines) {
		r.Defines = append(r.Defines, Define{Name: name, Value: doc.Defines[name]})
	}
	if doc.Properties.Len() > 0 {
		r.Properties = properties(&doc.Properties)
	}
	for _, tech := range doc.Techniques {
		r.Techniques = append(r.Techniques, technique(tech))
	}
	return r
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func mask(m uint8) string {
	return fmt.Sprintf("0x%x", m)
}

func rasterizerState(name string, s *effect.RasterizerState) RasterizerState {
	return RasterizerState{
		Name:                     name,
		PolygonMode:              s.PolygonMode.String(),
		CullMode:                 s.CullMode.String(),
		FrontCCW:                 s.FrontCCW,
		DepthBias:                s.DepthBias,
		DepthBiasClamp:           s.DepthBiasClamp,
		SlopeScaledDepthBias:     s.SlopeScaledDepthBias,
		DepthClipEnable:          s.DepthClipEnable,
		EnableConservativeRaster: s.EnableConservativeRaster,
	}
}

func depthStencilState(name string, s *effect.DepthStencilState) DepthStencilState {
	return DepthStencilState{
		Name:                      name,
		DepthEnable:               s.DepthEnable,
		DepthWriteMask:            s.DepthWriteMask.String(),
		DepthFunc:                 s.DepthFunc.String(),
		StencilEnable:             s.StencilEnable,
		StencilReadMask:           mask(s.StencilReadMask),
		StencilWriteMask:          mask(s.StencilWriteMask),
		FrontFaceStencilFail:      s.FrontFace.FailOp.String(),
		FrontFaceStencilDepthFail: s.FrontFace.DepthFailOp.String(),
		FrontFaceStencilPass:      s.FrontFace.PassOp.String(),
		FrontFaceStencilFunc:      s.FrontFace.Func.String(),
		BackFaceStencilFail:       s.BackFace.FailOp.String(),
		BackFaceStencilDepthFail:  s.BackFace.DepthFailOp.String(),
		BackFaceStencilPass:       s.BackFace.PassOp.String(),
		BackFaceStencilFunc:       s.BackFace.Func.String(),
	}
}

func blendState(name string, s *effect.BlendState) BlendState {
	return BlendState{
		Name:                  name,
		AlphaToCoverageEnable: s.AlphaToCoverage,
		BlendEnable:           s.BlendEnable,
		SrcBlend:              s.SrcBlend.String(),
		DstBlend:              s.DstBlend.String(),
		BlendOp:               s.BlendOp.String(),
		SrcBlendAlpha:         s.SrcBlendAlpha.String(),
		DstBlendAlpha:         s.DstBlendAlpha.String(),
		BlendOpAlpha:          s.BlendOpAlpha.String(),
		RenderTargetWriteMask: mask(s.RenderTargetWriteMask),
	}
}

func members(ms []effect.Member) []Member {
	out := make([]Member, 0, len(ms))
	for _, m := range ms {
		mm := Member{
			Name:      m.Name,
			Type:      m.Type,
			Offset:    m.Offset,
			Size:      m.Size,
			ArraySize: m.ArraySize,
			Semantic:  m.Semantic,
		}
		if m.Order != effect.OrderDefault {
			mm.Order = m.Order.String()
		}
		if m.PackOffset != nil {
			mm.PackOffset = m.PackOffset.String()
		}
		out = append(out, mm)
	}
	return out
}

func constantBuffer(cb *effect.ConstantBuffer) ConstantBuffer {
	out := ConstantBuffer{
		Name:        cb.Name,
		Size:        cb.Size,
		Synthesized: cb.Synthesized,
		Members:     members(cb.Members),
	}
	if cb.Register != nil {
		out.Register = cb.Register.String()
	}
	return out
}

// structLayout reports a structure with the offsets it would have as the
// contents of a constant buffer.
func structLayout(s *effect.Struct, structs map[string]*effect.Struct) Struct {
	tmp := effect.ConstantBuffer{Name: s.Name, Members: slices.Clone(s.Members)}
	tmp.Layout(structs)
	return Struct{Name: s.Name, Size: tmp.Size, Members: members(tmp.Members)}
}

func resource(res *effect.Resource) Resource {
	out := Resource{
		Name:        res.Name,
		Kind:        res.Kind.String(),
		ElementType: res.ElementType,
		Samples:     res.Samples,
		ArraySize:   res.ArraySize,
		Synthesized: res.Synthesized,
	}
	if res.Register != nil {
		out.Register = res.Register.String()
	}
	if d := res.Sampler; d != nil {
		out.Sampler = &Sampler{
			MinFilter:      d.MinFilter.String(),
			MagFilter:      d.MagFilter.String(),
			MipFilter:      d.MipFilter.String(),
			Anisotropic:    d.Anisotropic,
			MaxAnisotropy:  d.MaxAnisotropy,
			AddressU:       d.AddressU.String(),
			AddressV:       d.AddressV.String(),
			AddressW:       d.AddressW.String(),
			Comparison:     d.Comparison,
			ComparisonFunc: d.ComparisonFunc.String(),
			BorderColor:    d.BorderColor.String(),
			MipLODBias:     d.MipLODBias,
			MinLOD:         d.MinLOD,
			MaxLOD:         d.MaxLOD,
		}
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func component(def []string, i int) string {
	if i < len(def) {
		return def[i]
	}
	return ""
}

func properties(p *effect.Properties) *Properties {
	out := &Properties{}
	for _, v := range p.Values {
		kind := v.Kind.String()
		vp := ValueProperty{
			XMLName:    xml.Name{Local: kind},
			Kind:       kind,
			Name:       v.Name,
			DisplayTag: v.DisplayTag,
		}
		if v.Kind.HasStep() {
			vp.Step = formatFloat(v.Step)
			if v.HasRange {
				vp.Min = formatFloat(v.Min)
				vp.Max = formatFloat(v.Max)
			}
		}
		switch {
		case v.Kind.IsColor():
			vp.R, vp.G, vp.B = component(v.Default, 0), component(v.Default, 1), component(v.Default, 2)
			if v.Kind == effect.PropColor4 {
				vp.A = component(v.Default, 3)
			}
		case v.Kind.Components() == 1:
			vp.Default = component(v.Default, 0)
		default:
			xyzw := []*string{&vp.X, &vp.Y, &vp.Z, &vp.W}
			for i := range v.Kind.Components() {
				*xyzw[i] = component(v.Default, i)
			}
		}
		out.Values = append(out.Values, vp)
	}
	for _, t := range p.Textures {
		kind := strings.ToLower(t.Kind.String())
		out.Textures = append(out.Textures, TextureProperty{
			XMLName:    xml.Name{Local: kind},
			Kind:       kind,
			Name:       t.Name,
			DisplayTag: t.DisplayTag,
			SRGB:       t.SRGB,
			Default:    t.Default,
		})
	}
	return out
}

func technique(t effect.Technique) Technique {
	out := Technique{Name: t.Name, Passes: make([]Pass, 0, len(t.Passes))}
	for _, p := range t.Passes {
		pass := Pass{Name: p.Name, Shaders: make([]Shader, 0, len(p.Shaders))}
		for _, s := range p.Shaders {
			pass.Shaders = append(pass.Shaders, Shader{
				Type:      s.Stage.String(),
				Profile:   s.Profile,
				Name:      s.EntryPoint,
				Arguments: s.Arguments,
			})
		}
		pass.RasterizerState = ref(p.RasterizerState)
		pass.DepthStencilState = ref(p.DepthStencilState)
		pass.BlendState = ref(p.BlendState)
		out.Passes = append(out.Passes, pass)
	}
	return out
}

func ref(name string) *Ref {
	if name == "" {
		return nil
	}
	return &Ref{Name: name}
}
