// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"strings"

	"github.com/gogpu/fxc/scanner"
)

// FilterMode is a minification or magnification filter.
type FilterMode uint8

const (
	FilterPoint FilterMode = iota
	FilterLinear
)

// MipmapMode is the filter between mip levels.
type MipmapMode uint8

const (
	MipmapNone MipmapMode = iota
	MipmapPoint
	MipmapLinear
)

// AddressMode is a texture coordinate wrapping mode.
type AddressMode uint8

const (
	AddressWrap AddressMode = iota
	AddressMirror
	AddressClamp
	AddressBorder
	AddressMirrorOnce
)

// BorderColor is the color sampled outside the texture in border mode.
type BorderColor uint8

const (
	BorderTransparentBlack BorderColor = iota
	BorderOpaqueBlack
	BorderOpaqueWhite
)

var (
	filterModes = newEnumTable([]string{"point", "linear"},
		map[string]FilterMode{"nearest": FilterPoint})
	mipmapModes = newEnumTable([]string{"none", "point", "linear"},
		map[string]MipmapMode{"nearest": MipmapPoint})
	addressModes = newEnumTable([]string{"wrap", "mirror", "clamp", "border", "mirror_once"},
		map[string]AddressMode{
			"repeat":        AddressWrap,
			"mirror_repeat": AddressMirror,
			"clamp_to_edge": AddressClamp,
		})
	borderColors = newEnumTable[BorderColor](
		[]string{"transparent_black", "opaque_black", "opaque_white"}, nil)
)

func (m FilterMode) String() string  { return filterModes.name(m) }
func (m MipmapMode) String() string  { return mipmapModes.name(m) }
func (m AddressMode) String() string { return addressModes.name(m) }
func (c BorderColor) String() string { return borderColors.name(c) }

// SamplerDesc is the state block of a sampler declaration.
type SamplerDesc struct {
	MinFilter     FilterMode
	MagFilter     FilterMode
	MipFilter     MipmapMode
	Anisotropic   bool
	MaxAnisotropy uint32
	AddressU      AddressMode
	AddressV      AddressMode
	AddressW      AddressMode
	// Comparison is set by a comparison filter or an explicit ComparisonFunc.
	Comparison     bool
	ComparisonFunc CompareFunc
	BorderColor    BorderColor
	MipLODBias     float32
	MinLOD         float32
	MaxLOD         float32
}

// DefaultSamplerDesc returns a sampler with every field at its default.
func DefaultSamplerDesc() SamplerDesc {
	return SamplerDesc{
		MinFilter:      FilterLinear,
		MagFilter:      FilterLinear,
		MipFilter:      MipmapLinear,
		MaxAnisotropy:  1,
		AddressU:       AddressClamp,
		AddressV:       AddressClamp,
		AddressW:       AddressClamp,
		ComparisonFunc: CompareNever,
		BorderColor:    BorderOpaqueWhite,
		MaxLOD:         32,
	}
}

// parseFilter decodes a combined filter name such as MIN_MAG_MIP_LINEAR,
// MIN_POINT_MAG_LINEAR_MIP_POINT, ANISOTROPIC or COMPARISON_MIN_MAG_MIP_POINT.
func parseFilter(d *SamplerDesc, name string) bool {
	name = strings.ToLower(name)
	comparison := false
	if rest, ok := strings.CutPrefix(name, "comparison_"); ok {
		comparison = true
		name = rest
	}
	if name == "anisotropic" {
		d.MinFilter, d.MagFilter, d.MipFilter = FilterLinear, FilterLinear, MipmapLinear
		d.Anisotropic = true
		d.Comparison = d.Comparison || comparison
		return true
	}

	var pending []string
	var seen int
	minF, magF, mipF := d.MinFilter, d.MagFilter, d.MipFilter
	for _, part := range strings.Split(name, "_") {
		switch part {
		case "min", "mag", "mip":
			pending = append(pending, part)
		case "point", "linear":
			if len(pending) == 0 {
				return false
			}
			mode, _ := filterModes.parse(part)
			for _, target := range pending {
				switch target {
				case "min":
					minF = mode
				case "mag":
					magF = mode
				case "mip":
					mipF = MipmapMode(mode) + 1
				}
				seen++
			}
			pending = pending[:0]
		default:
			return false
		}
	}
	if len(pending) != 0 || seen != 3 {
		return false
	}
	d.MinFilter, d.MagFilter, d.MipFilter = minF, magF, mipF
	d.Anisotropic = false
	d.Comparison = d.Comparison || comparison
	return true
}

var samplerFields = func() map[string]fieldSetter[SamplerDesc] {
	bias := float32Field(func(s *SamplerDesc) *float32 { return &s.MipLODBias })
	return map[string]fieldSetter[SamplerDesc]{
		"filter": func(s *SamplerDesc, tok scanner.Token) (bool, error) {
			return parseFilter(s, tok.Text), nil
		},
		"minfilter": enumField(filterModes, func(s *SamplerDesc) *FilterMode { return &s.MinFilter }),
		"magfilter": enumField(filterModes, func(s *SamplerDesc) *FilterMode { return &s.MagFilter }),
		"mipfilter": enumField(mipmapModes, func(s *SamplerDesc) *MipmapMode { return &s.MipFilter }),
		"addressu":  enumField(addressModes, func(s *SamplerDesc) *AddressMode { return &s.AddressU }),
		"addressv":  enumField(addressModes, func(s *SamplerDesc) *AddressMode { return &s.AddressV }),
		"addressw":  enumField(addressModes, func(s *SamplerDesc) *AddressMode { return &s.AddressW }),
		"maxanisotropy": func(s *SamplerDesc, tok scanner.Token) (bool, error) {
			ok, err := uint32Field(func(s *SamplerDesc) *uint32 { return &s.MaxAnisotropy })(s, tok)
			if ok && s.MaxAnisotropy > 1 {
				s.Anisotropic = true
			}
			return ok, err
		},
		"comparisonfunc": func(s *SamplerDesc, tok scanner.Token) (bool, error) {
			v, ok := compareFuncs.parse(tok.Text)
			if ok {
				s.ComparisonFunc = v
				s.Comparison = true
			}
			return ok, nil
		},
		"bordercolor":   enumField(borderColors, func(s *SamplerDesc) *BorderColor { return &s.BorderColor }),
		"mipmaplodbias": bias,
		"miplodbias":    bias,
		"minlod":        float32Field(func(s *SamplerDesc) *float32 { return &s.MinLOD }),
		"maxlod":        float32Field(func(s *SamplerDesc) *float32 { return &s.MaxLOD }),
	}
}()
