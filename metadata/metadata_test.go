package metadata

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/gogpu/fxc/effect"
)

func sampleDocument() *effect.Document {
	doc := effect.NewDocument()

	bs := effect.DefaultBlendState()
	bs.Name = "Alpha"
	bs.BlendEnable = true
	bs.SrcBlend = effect.BlendSrcAlpha
	bs.DstBlend = effect.BlendInvSrcAlpha
	doc.BlendStates["Alpha"] = &bs

	doc.ConstantBuffers["CB"] = &effect.ConstantBuffer{
		Name:     "CB",
		Register: &effect.Register{Class: 'b', Index: 1},
		Size:     16,
		Members:  []effect.Member{{Name: "Tint", Type: "float4", Offset: 0, Size: 16}},
	}

	doc.Properties.Values = []effect.ValueProperty{
		{Name: "Gloss", DisplayTag: "Gloss", Kind: effect.PropFloat, Step: 0.1, Max: 1, HasRange: true, Default: []string{"0.5"}},
		{Name: "Tint", DisplayTag: "Tint", Kind: effect.PropColor3, Default: []string{"1", "0.5", "0"}},
	}
	doc.Properties.Textures = []effect.TextureProperty{
		{Name: "Albedo", DisplayTag: "Albedo", Kind: effect.PropMap2D, SRGB: true, Default: "white"},
	}

	doc.Techniques = []effect.Technique{{
		Name: "Main",
		Passes: []effect.Pass{{
			Name: "P0",
			Shaders: []effect.ShaderStub{
				{Stage: effect.StageVertex, EntryPoint: "VSMain", Profile: "vs_5_0"},
				{Stage: effect.StagePixel, EntryPoint: "PSMain", Profile: "ps_5_0"},
			},
			BlendState: "Alpha",
		}},
	}}
	return doc
}

func TestEncodeXML(t *testing.T) {
	root := Build(sampleDocument(), "out.hlsl")

	var buf bytes.Buffer
	if err := root.EncodeXML(&buf); err != nil {
		t.Fatalf("EncodeXML failed: %v", err)
	}

	want := `<?xml version="1.0" encoding="UTF-8" ?>
<root>
    <source path="out.hlsl"></source>
    <blend_state name="Alpha" alpha_to_coverage_enable="false" blend_enable="true" src_blend="src_alpha" dst_blend="inv_src_alpha" blend_op="add" src_blend_alpha="one" dst_blend_alpha="zero" blend_op_alpha="add" render_target_write_mask="0xff"></blend_state>
    <constant_buffer name="CB" register="b1" size="16">
        <member name="Tint" type="float4" offset="0" size="16"></member>
    </constant_buffer>
    <properties>
        <float name="Gloss" display_tag="Gloss" step="0.1" min="0" max="1" default="0.5"></float>
        <color3 name="Tint" display_tag="Tint" r="1" g="0.5" b="0"></color3>
        <map2d name="Albedo" display_tag="Albedo" srgb="true" default="white"></map2d>
    </properties>
    <technique name="Main">
        <pass name="P0">
            <shader type="vertex" profile="vs_5_0" name="VSMain"></shader>
            <shader type="pixel" profile="ps_5_0" name="PSMain"></shader>
            <bs name="Alpha"></bs>
        </pass>
    </technique>
</root>
`
	if got := buf.String(); got != want {
		t.Errorf("EncodeXML() =\n%s\nwant\n%s", got, want)
	}
}

func TestEncodeJSON(t *testing.T) {
	root := Build(sampleDocument(), "out.hlsl")

	var buf bytes.Buffer
	if err := root.Encode(&buf, FormatJSON); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded struct {
		Source     Source `json:"source"`
		Properties struct {
			Values []struct {
				Kind string `json:"kind"`
				Name string `json:"name"`
				R    string `json:"r"`
			} `json:"values"`
			Textures []struct {
				Kind string `json:"kind"`
				SRGB bool   `json:"srgb"`
			} `json:"textures"`
		} `json:"properties"`
		Techniques []Technique `json:"techniques"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}

	if decoded.Source.Path != "out.hlsl" {
		t.Errorf("source = %q, want out.hlsl", decoded.Source.Path)
	}
	if len(decoded.Properties.Values) != 2 || decoded.Properties.Values[1].Kind != "color3" || decoded.Properties.Values[1].R != "1" {
		t.Errorf("values = %+v", decoded.Properties.Values)
	}
	if len(decoded.Properties.Textures) != 1 || decoded.Properties.Textures[0].Kind != "map2d" || !decoded.Properties.Textures[0].SRGB {
		t.Errorf("textures = %+v", decoded.Properties.Textures)
	}
	if len(decoded.Techniques) != 1 || decoded.Techniques[0].Passes[0].BlendState.Name != "Alpha" {
		t.Errorf("techniques = %+v", decoded.Techniques)
	}
	if strings.Contains(buf.String(), "XMLName") {
		t.Error("JSON output leaks the XML element name")
	}
}

func TestBuildParsed(t *testing.T) {
	src := `struct Light { float3 dir; float intensity; };
struct Scene { float time; Light light; };

RasterizerState Wire { FillMode = Wireframe; CullMode = Back; };
DepthStencilState NoDepth { DepthEnable = false; StencilReadMask = 0x0F; };

Texture2D<float4> Diffuse : register(t0);
SamplerState Linear { Filter = MIN_MAG_MIP_POINT; AddressU = Wrap; };

properties
{
	float3 Offset("Offset", 0.5) = float3(1, 2, 3);
	int Count("Count", 1, range(0 10)) = 4;
	bool Enabled("Enabled") = true;
}

#define QUALITY 2

technique Main
{
	pass P0
	{
		VertexShader = compile vs_5_0 VSMain(1, 2);
		RasterizerState = Wire;
		DepthStencilState = NoDepth;
	}
}
`
	doc := effect.NewDocument()
	if err := doc.ParseSource("scene.fx", src, effect.DefaultOptions()); err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}
	root := Build(doc, "scene.hlsl")

	if len(root.RasterizerStates) != 1 || root.RasterizerStates[0].PolygonMode != "wireframe" || root.RasterizerStates[0].CullMode != "back" {
		t.Errorf("rasterizer states = %+v", root.RasterizerStates)
	}
	if len(root.DepthStencilStates) != 1 {
		t.Fatalf("depth-stencil states = %+v", root.DepthStencilStates)
	}
	if dss := root.DepthStencilStates[0]; dss.DepthEnable || dss.StencilReadMask != "0xf" || dss.StencilWriteMask != "0xff" {
		t.Errorf("depth-stencil state = %+v", dss)
	}

	// Structures are reported with their constant buffer layout.
	if len(root.Structs) != 2 || root.Structs[0].Name != "Light" || root.Structs[1].Name != "Scene" {
		t.Fatalf("structs = %+v", root.Structs)
	}
	if scene := root.Structs[1]; scene.Size != 32 || scene.Members[1].Offset != 16 || scene.Members[1].Size != 16 {
		t.Errorf("Scene = %+v", scene)
	}
	if doc.Structs["Scene"].Members[1].Offset != 0 {
		t.Error("Build modified the document's structure table")
	}

	var diffuse, linear *Resource
	for i := range root.Resources {
		switch root.Resources[i].Name {
		case "Diffuse":
			diffuse = &root.Resources[i]
		case "Linear":
			linear = &root.Resources[i]
		}
	}
	if diffuse == nil || diffuse.Kind != "Texture2D" || diffuse.ElementType != "float4" || diffuse.Register != "t0" || diffuse.Sampler != nil {
		t.Errorf("Diffuse = %+v", diffuse)
	}
	if linear == nil || linear.Sampler == nil || linear.Sampler.MinFilter != "point" || linear.Sampler.AddressU != "wrap" || linear.Sampler.AddressV != "clamp" {
		t.Errorf("Linear = %+v", linear)
	}

	if root.Properties == nil || len(root.Properties.Values) != 3 {
		t.Fatalf("properties = %+v", root.Properties)
	}
	offset, count, enabled := root.Properties.Values[0], root.Properties.Values[1], root.Properties.Values[2]
	if offset.X != "1" || offset.Y != "2" || offset.Z != "3" || offset.W != "" || offset.Step != "0.5" || offset.Min != "" {
		t.Errorf("Offset = %+v", offset)
	}
	if count.Default != "4" || count.Min != "0" || count.Max != "10" || count.Step != "1" {
		t.Errorf("Count = %+v", count)
	}
	if enabled.Default != "true" || enabled.Step != "" || enabled.XMLName.Local != "bool" {
		t.Errorf("Enabled = %+v", enabled)
	}

	if len(root.Defines) != 1 || root.Defines[0] != (Define{Name: "QUALITY", Value: "2"}) {
		t.Errorf("defines = %+v", root.Defines)
	}

	if len(root.Techniques) != 1 || len(root.Techniques[0].Passes) != 1 {
		t.Fatalf("techniques = %+v", root.Techniques)
	}
	pass := root.Techniques[0].Passes[0]
	if len(pass.Shaders) != 1 || pass.Shaders[0].Name != "VSMain" || pass.Shaders[0].Type != "vertex" {
		t.Errorf("shaders = %+v", pass.Shaders)
	}
	if got := pass.Shaders[0].Arguments; len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Errorf("arguments = %q, want [1 2]", got)
	}
	if pass.RasterizerState == nil || pass.RasterizerState.Name != "Wire" || pass.DepthStencilState == nil || pass.BlendState != nil {
		t.Errorf("pass states = %+v %+v %+v", pass.RasterizerState, pass.DepthStencilState, pass.BlendState)
	}

	// The synthesized properties buffer comes out with the declared buffers.
	if len(root.ConstantBuffers) != 1 || !root.ConstantBuffers[0].Synthesized || root.ConstantBuffers[0].Size != 32 {
		t.Errorf("constant buffers = %+v", root.ConstantBuffers)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"xml", FormatXML, false},
		{"JSON", FormatJSON, false},
		{"yaml", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
	if FormatJSON.Ext() != ".json" {
		t.Errorf("FormatJSON.Ext() = %q", FormatJSON.Ext())
	}
}
