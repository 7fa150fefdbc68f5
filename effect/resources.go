// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import "strings"

// ResourceKind is the declared type of a bindable resource.
type ResourceKind uint8

const (
	ResBuffer ResourceKind = iota
	ResByteAddressBuffer
	ResStructuredBuffer
	ResAppendStructuredBuffer
	ResConsumeStructuredBuffer
	ResRWBuffer
	ResRWByteAddressBuffer
	ResRWStructuredBuffer
	ResTexture1D
	ResTexture1DArray
	ResTexture2D
	ResTexture2DArray
	ResTexture2DMS
	ResTexture2DMSArray
	ResTexture3D
	ResTextureCube
	ResTextureCubeArray
	ResRWTexture1D
	ResRWTexture1DArray
	ResRWTexture2D
	ResRWTexture2DArray
	ResRWTexture3D
	ResSamplerState
	ResSamplerComparisonState
	ResSampler
	ResConstantBuffer
	ResAccelerationStructure
)

// Dimension is the shape of a texture resource.
type Dimension uint8

const (
	DimNone Dimension = iota
	Dim1D
	Dim1DArray
	Dim2D
	Dim2DArray
	Dim3D
	DimCube
	DimCubeArray
)

const (
	resTexture uint8 = 1 << iota
	resRW
	resSampler
	resMultisampled
)

var resourceInfo = [...]struct {
	name  string
	dim   Dimension
	flags uint8
}{
	ResBuffer:                  {"Buffer", DimNone, 0},
	ResByteAddressBuffer:       {"ByteAddressBuffer", DimNone, 0},
	ResStructuredBuffer:        {"StructuredBuffer", DimNone, 0},
	ResAppendStructuredBuffer:  {"AppendStructuredBuffer", DimNone, resRW},
	ResConsumeStructuredBuffer: {"ConsumeStructuredBuffer", DimNone, resRW},
	ResRWBuffer:                {"RWBuffer", DimNone, resRW},
	ResRWByteAddressBuffer:     {"RWByteAddressBuffer", DimNone, resRW},
	ResRWStructuredBuffer:      {"RWStructuredBuffer", DimNone, resRW},
	ResTexture1D:               {"Texture1D", Dim1D, resTexture},
	ResTexture1DArray:          {"Texture1DArray", Dim1DArray, resTexture},
	ResTexture2D:               {"Texture2D", Dim2D, resTexture},
	ResTexture2DArray:          {"Texture2DArray", Dim2DArray, resTexture},
	ResTexture2DMS:             {"Texture2DMS", Dim2D, resTexture | resMultisampled},
	ResTexture2DMSArray:        {"Texture2DMSArray", Dim2DArray, resTexture | resMultisampled},
	ResTexture3D:               {"Texture3D", Dim3D, resTexture},
	ResTextureCube:             {"TextureCube", DimCube, resTexture},
	ResTextureCubeArray:        {"TextureCubeArray", DimCubeArray, resTexture},
	ResRWTexture1D:             {"RWTexture1D", Dim1D, resTexture | resRW},
	ResRWTexture1DArray:        {"RWTexture1DArray", Dim1DArray, resTexture | resRW},
	ResRWTexture2D:             {"RWTexture2D", Dim2D, resTexture | resRW},
	ResRWTexture2DArray:        {"RWTexture2DArray", Dim2DArray, resTexture | resRW},
	ResRWTexture3D:             {"RWTexture3D", Dim3D, resTexture | resRW},
	ResSamplerState:            {"SamplerState", DimNone, resSampler},
	ResSamplerComparisonState:  {"SamplerComparisonState", DimNone, resSampler},
	ResSampler:                 {"sampler", DimNone, resSampler},
	ResConstantBuffer:          {"ConstantBuffer", DimNone, 0},
	ResAccelerationStructure:   {"RaytracingAccelerationStructure", DimNone, 0},
}

var resourceKinds = func() map[string]ResourceKind {
	m := make(map[string]ResourceKind, len(resourceInfo))
	for i := range resourceInfo {
		m[strings.ToLower(resourceInfo[i].name)] = ResourceKind(i)
	}
	return m
}()

// LookupResourceKind finds a resource kind by spelling, ignoring case.
func LookupResourceKind(spelling string) (ResourceKind, bool) {
	k, ok := resourceKinds[strings.ToLower(spelling)]
	return k, ok
}

// String returns the HLSL spelling of the kind.
func (k ResourceKind) String() string {
	if int(k) < len(resourceInfo) {
		return resourceInfo[k].name
	}
	return "unknown"
}

// Dimension returns the texture shape, or DimNone for buffers and samplers.
func (k ResourceKind) Dimension() Dimension {
	if int(k) < len(resourceInfo) {
		return resourceInfo[k].dim
	}
	return DimNone
}

func (k ResourceKind) has(flag uint8) bool {
	return int(k) < len(resourceInfo) && resourceInfo[k].flags&flag != 0
}

// IsTexture reports whether the kind is a texture.
func (k ResourceKind) IsTexture() bool { return k.has(resTexture) }

// IsReadWrite reports whether the kind is an unordered-access view.
func (k ResourceKind) IsReadWrite() bool { return k.has(resRW) }

// IsSampler reports whether the kind is a sampler.
func (k ResourceKind) IsSampler() bool { return k.has(resSampler) }

// IsMultisampled reports whether the kind is a multisampled texture.
func (k ResourceKind) IsMultisampled() bool { return k.has(resMultisampled) }

// ValueKind is the type of a value property.
type ValueKind uint8

const (
	PropBool ValueKind = iota
	PropInt
	PropFloat
	PropFloat2
	PropFloat3
	PropFloat4
	PropColor3
	PropColor4
)

var valueKindInfo = [...]struct {
	name       string
	hlsl       string
	components int
}{
	PropBool:   {"bool", "int", 1},
	PropInt:    {"int", "int", 1},
	PropFloat:  {"float", "float", 1},
	PropFloat2: {"float2", "float2", 2},
	PropFloat3: {"float3", "float3", 3},
	PropFloat4: {"float4", "float4", 4},
	PropColor3: {"color3", "float3", 3},
	PropColor4: {"color4", "float4", 4},
}

func (k ValueKind) String() string { return valueKindInfo[k].name }

// HLSLType returns the type used for the property's constant buffer field.
func (k ValueKind) HLSLType() string { return valueKindInfo[k].hlsl }

// Components returns the number of literal components of the default value.
func (k ValueKind) Components() int { return valueKindInfo[k].components }

// HasStep reports whether the property takes a step and optional range.
func (k ValueKind) HasStep() bool {
	switch k {
	case PropInt, PropFloat, PropFloat2, PropFloat3, PropFloat4:
		return true
	}
	return false
}

// IsColor reports whether the property is a color3 or color4.
func (k ValueKind) IsColor() bool { return k == PropColor3 || k == PropColor4 }

// TextureKind is the type of a texture property.
type TextureKind uint8

const (
	PropMap1D TextureKind = iota
	PropMap1DArray
	PropMap2D
	PropMap2DArray
	PropMap3D
	PropMapCube
	PropMapCubeArray
)

var textureKindInfo = [...]struct {
	name     string
	resource ResourceKind
}{
	PropMap1D:        {"map1D", ResTexture1D},
	PropMap1DArray:   {"map1DArray", ResTexture1DArray},
	PropMap2D:        {"map2D", ResTexture2D},
	PropMap2DArray:   {"map2DArray", ResTexture2DArray},
	PropMap3D:        {"map3D", ResTexture3D},
	PropMapCube:      {"mapCube", ResTextureCube},
	PropMapCubeArray: {"mapCubeArray", ResTextureCubeArray},
}

func (k TextureKind) String() string { return textureKindInfo[k].name }

// Resource returns the texture resource kind declared for the property.
func (k TextureKind) Resource() ResourceKind { return textureKindInfo[k].resource }

type propertyKind struct {
	texture bool
	value   ValueKind
	tex     TextureKind
}

var propertyKinds = func() map[string]propertyKind {
	m := make(map[string]propertyKind, len(valueKindInfo)+len(textureKindInfo))
	for i := range valueKindInfo {
		m[valueKindInfo[i].name] = propertyKind{value: ValueKind(i)}
	}
	for i := range textureKindInfo {
		m[strings.ToLower(textureKindInfo[i].name)] = propertyKind{texture: true, tex: TextureKind(i)}
	}
	return m
}()

// ValueProperty is a tunable scalar, vector or color parameter.
type ValueProperty struct {
	Name       string
	DisplayTag string
	Kind       ValueKind
	Step       float64
	Min        float64
	Max        float64
	HasRange   bool
	// Default holds the literal components as written.
	Default []string
}

// TextureProperty is a tunable texture parameter.
type TextureProperty struct {
	Name       string
	DisplayTag string
	Kind       TextureKind
	SRGB       bool
	Default    string
}

// Properties collects every properties block of a document.
type Properties struct {
	Values   []ValueProperty
	Textures []TextureProperty
}

// Len returns the total number of properties.
func (p *Properties) Len() int {
	return len(p.Values) + len(p.Textures)
}

// Has reports whether a property with the given name exists.
func (p *Properties) Has(name string) bool {
	for _, v := range p.Values {
		if v.Name == name {
			return true
		}
	}
	for _, t := range p.Textures {
		if t.Name == name {
			return true
		}
	}
	return false
}
