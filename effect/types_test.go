// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import "testing"

func TestLookupType(t *testing.T) {
	tests := []struct {
		spelling string
		want     TypeTag
		ok       bool
	}{
		{"float", TypeTag{Kind: KindScalar, Scalar: ScalarFloat, Rows: 1, Cols: 1}, true},
		{"FLOAT3", TypeTag{Kind: KindVector, Scalar: ScalarFloat, Rows: 1, Cols: 3}, true},
		{"int2x3", TypeTag{Kind: KindMatrix, Scalar: ScalarInt, Rows: 2, Cols: 3}, true},
		{"dword", TypeTag{Kind: KindScalar, Scalar: ScalarUint, Rows: 1, Cols: 1}, true},
		{"min16float4", TypeTag{Kind: KindVector, Scalar: ScalarMin16Float, Rows: 1, Cols: 4}, true},
		{"vector", TypeTag{Kind: KindVector, Scalar: ScalarFloat, Rows: 1, Cols: 4}, true},
		{"matrix", TypeTag{Kind: KindMatrix, Scalar: ScalarFloat, Rows: 4, Cols: 4}, true},
		{"float5", TypeTag{}, false},
		{"Light", TypeTag{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.spelling, func(t *testing.T) {
			got, ok := LookupType(tt.spelling)
			if ok != tt.ok || got != tt.want {
				t.Errorf("LookupType(%q) = %v, %v, want %v, %v", tt.spelling, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestGenericType(t *testing.T) {
	tests := []struct {
		base string
		args []string
		want string
		ok   bool
	}{
		{"vector", []string{"float", "3"}, "float3", true},
		{"matrix", []string{"half", "2", "4"}, "half2x4", true},
		{"vector", []string{"float"}, "", false},
		{"vector", []string{"float", "5"}, "", false},
		{"matrix", []string{"Light", "4", "4"}, "", false},
	}

	for _, tt := range tests {
		got, ok := genericType(tt.base, tt.args)
		if ok != tt.ok {
			t.Errorf("genericType(%s, %v) ok = %v, want %v", tt.base, tt.args, ok, tt.ok)
			continue
		}
		if ok && got.String() != tt.want {
			t.Errorf("genericType(%s, %v) = %s, want %s", tt.base, tt.args, got, tt.want)
		}
	}
}

func TestStageKeywords(t *testing.T) {
	for _, s := range Stages {
		got, ok := StageFromKeyword(s.Keyword())
		if !ok || got != s {
			t.Errorf("StageFromKeyword(%q) = %v, %v, want %v", s.Keyword(), got, ok, s)
		}
	}
	if s, ok := StageFromKeyword("pixelshader"); !ok || s != StagePixel {
		t.Errorf("StageFromKeyword(pixelshader) = %v, %v, want pixel", s, ok)
	}
	if _, ok := StageFromKeyword("TessShader"); ok {
		t.Error("StageFromKeyword(TessShader) should fail")
	}
	if StagePixel.Prefix() != "ps" {
		t.Errorf("StagePixel.Prefix() = %q, want ps", StagePixel.Prefix())
	}
}

func TestResourceKinds(t *testing.T) {
	tests := []struct {
		spelling      string
		kind          ResourceKind
		dim           Dimension
		texture, rw   bool
		sampler, msaa bool
	}{
		{"Texture2D", ResTexture2D, Dim2D, true, false, false, false},
		{"texturecubearray", ResTextureCubeArray, DimCubeArray, true, false, false, false},
		{"RWTexture3D", ResRWTexture3D, Dim3D, true, true, false, false},
		{"Texture2DMS", ResTexture2DMS, Dim2D, true, false, false, true},
		{"SamplerComparisonState", ResSamplerComparisonState, DimNone, false, false, true, false},
		{"AppendStructuredBuffer", ResAppendStructuredBuffer, DimNone, false, true, false, false},
		{"RaytracingAccelerationStructure", ResAccelerationStructure, DimNone, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.spelling, func(t *testing.T) {
			k, ok := LookupResourceKind(tt.spelling)
			if !ok || k != tt.kind {
				t.Fatalf("LookupResourceKind(%q) = %v, %v, want %v", tt.spelling, k, ok, tt.kind)
			}
			if k.Dimension() != tt.dim {
				t.Errorf("Dimension() = %v, want %v", k.Dimension(), tt.dim)
			}
			if k.IsTexture() != tt.texture || k.IsReadWrite() != tt.rw ||
				k.IsSampler() != tt.sampler || k.IsMultisampled() != tt.msaa {
				t.Errorf("flags = %v %v %v %v, want %v %v %v %v",
					k.IsTexture(), k.IsReadWrite(), k.IsSampler(), k.IsMultisampled(),
					tt.texture, tt.rw, tt.sampler, tt.msaa)
			}
		})
	}
}

func TestPropertyKinds(t *testing.T) {
	tests := []struct {
		kind       ValueKind
		hlsl       string
		components int
		step       bool
	}{
		{PropBool, "int", 1, false},
		{PropInt, "int", 1, true},
		{PropFloat3, "float3", 3, true},
		{PropColor3, "float3", 3, false},
		{PropColor4, "float4", 4, false},
	}
	for _, tt := range tests {
		if got := tt.kind.HLSLType(); got != tt.hlsl {
			t.Errorf("%v.HLSLType() = %q, want %q", tt.kind, got, tt.hlsl)
		}
		if got := tt.kind.Components(); got != tt.components {
			t.Errorf("%v.Components() = %d, want %d", tt.kind, got, tt.components)
		}
		if got := tt.kind.HasStep(); got != tt.step {
			t.Errorf("%v.HasStep() = %v, want %v", tt.kind, got, tt.step)
		}
	}

	if PropMapCube.Resource() != ResTextureCube {
		t.Errorf("PropMapCube.Resource() = %v, want TextureCube", PropMapCube.Resource())
	}
	if k, ok := propertyKinds["map2darray"]; !ok || !k.texture || k.tex != PropMap2DArray {
		t.Errorf("propertyKinds[map2darray] = %+v, %v", k, ok)
	}
}

func TestPackOffset(t *testing.T) {
	tests := []struct {
		text  string
		want  PackOffset
		bytes int
		ok    bool
	}{
		{"c0", PackOffset{Register: 0}, 0, true},
		{"c12", PackOffset{Register: 12}, 192, true},
		{"c3.z", PackOffset{Register: 3, Component: 2}, 56, true},
		{"C1.a", PackOffset{Register: 1, Component: 3}, 28, true},
		{"c1.q", PackOffset{}, 0, false},
		{"b1", PackOffset{}, 0, false},
		{"c", PackOffset{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := parsePackOffset(tt.text)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("parsePackOffset(%q) = %v, %v, want %v, %v", tt.text, got, ok, tt.want, tt.ok)
			}
			if ok && got.Bytes() != tt.bytes {
				t.Errorf("Bytes() = %d, want %d", got.Bytes(), tt.bytes)
			}
		})
	}
}
