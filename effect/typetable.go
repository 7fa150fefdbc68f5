// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import (
	"strconv"
	"strings"
)

// TypeKind classifies a member type.
type TypeKind uint8

const (
	KindScalar TypeKind = iota
	KindVector
	KindMatrix
	KindStruct
)

func (k TypeKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindVector:
		return "vector"
	case KindMatrix:
		return "matrix"
	case KindStruct:
		return "struct"
	}
	return "unknown"
}

// Scalar is the component type of a scalar, vector or matrix.
type Scalar uint8

const (
	ScalarBool Scalar = iota
	ScalarInt
	ScalarUint
	ScalarHalf
	ScalarFloat
	ScalarDouble
	ScalarMin16Float
	ScalarMin10Float
	ScalarMin16Int
	ScalarMin12Int
	ScalarMin16Uint
	ScalarInt16
	ScalarUint16
	ScalarInt64
	ScalarUint64
	ScalarFloat16
)

var scalarInfo = [...]struct {
	name string
	size int
}{
	ScalarBool:       {"bool", 4},
	ScalarInt:        {"int", 4},
	ScalarUint:       {"uint", 4},
	ScalarHalf:       {"half", 4},
	ScalarFloat:      {"float", 4},
	ScalarDouble:     {"double", 8},
	ScalarMin16Float: {"min16float", 4},
	ScalarMin10Float: {"min10float", 4},
	ScalarMin16Int:   {"min16int", 4},
	ScalarMin12Int:   {"min12int", 4},
	ScalarMin16Uint:  {"min16uint", 4},
	ScalarInt16:      {"int16_t", 2},
	ScalarUint16:     {"uint16_t", 2},
	ScalarInt64:      {"int64_t", 8},
	ScalarUint64:     {"uint64_t", 8},
	ScalarFloat16:    {"float16_t", 2},
}

func (s Scalar) String() string {
	if int(s) < len(scalarInfo) {
		return scalarInfo[s].name
	}
	return "unknown"
}

// Size returns the scalar size in bytes inside a constant buffer.
func (s Scalar) Size() int {
	if int(s) < len(scalarInfo) {
		return scalarInfo[s].size
	}
	return 4
}

// TypeTag describes the shape of a member type.
type TypeTag struct {
	Kind   TypeKind
	Scalar Scalar
	Rows   int // 1 for scalars and vectors
	Cols   int // vector width, or matrix column count
}

// String returns the canonical spelling of the tag.
func (t TypeTag) String() string {
	switch t.Kind {
	case KindScalar:
		return t.Scalar.String()
	case KindVector:
		return t.Scalar.String() + strconv.Itoa(t.Cols)
	case KindMatrix:
		return t.Scalar.String() + strconv.Itoa(t.Rows) + "x" + strconv.Itoa(t.Cols)
	}
	return "struct"
}

// typeSpellings maps every lowercase type spelling to its tag. Spellings that
// are aliases of another scalar (dword, the 32-bit _t forms) are listed in
// scalarAliases.
var typeSpellings = buildTypeTable()

var scalarAliases = map[string]Scalar{
	"dword":     ScalarUint,
	"int32_t":   ScalarInt,
	"uint32_t":  ScalarUint,
	"float32_t": ScalarFloat,
	"float64_t": ScalarDouble,
}

func buildTypeTable() map[string]TypeTag {
	spellings := make(map[string]Scalar, len(scalarInfo)+len(scalarAliases))
	for i := range scalarInfo {
		spellings[scalarInfo[i].name] = Scalar(i)
	}
	for name, s := range scalarAliases {
		spellings[name] = s
	}

	table := make(map[string]TypeTag, len(spellings)*21+2)
	for name, s := range spellings {
		table[name] = TypeTag{Kind: KindScalar, Scalar: s, Rows: 1, Cols: 1}
		for n := 1; n <= 4; n++ {
			table[name+strconv.Itoa(n)] = TypeTag{Kind: KindVector, Scalar: s, Rows: 1, Cols: n}
			for m := 1; m <= 4; m++ {
				table[name+strconv.Itoa(n)+"x"+strconv.Itoa(m)] = TypeTag{Kind: KindMatrix, Scalar: s, Rows: n, Cols: m}
			}
		}
	}
	table["vector"] = TypeTag{Kind: KindVector, Scalar: ScalarFloat, Rows: 1, Cols: 4}
	table["matrix"] = TypeTag{Kind: KindMatrix, Scalar: ScalarFloat, Rows: 4, Cols: 4}
	return table
}

// LookupType returns the tag for a scalar, vector or matrix spelling,
// ignoring case.
func LookupType(spelling string) (TypeTag, bool) {
	t, ok := typeSpellings[strings.ToLower(spelling)]
	return t, ok
}

// genericType builds the tag for vector<T, N> and matrix<T, R, C>.
func genericType(base string, args []string) (TypeTag, bool) {
	if len(args) == 0 {
		return TypeTag{}, false
	}
	scalar, ok := LookupType(args[0])
	if !ok || scalar.Kind != KindScalar {
		return TypeTag{}, false
	}
	dims := make([]int, 0, 2)
	for _, a := range args[1:] {
		n, err := strconv.Atoi(a)
		if err != nil || n < 1 || n > 4 {
			return TypeTag{}, false
		}
		dims = append(dims, n)
	}
	switch {
	case strings.EqualFold(base, "vector") && len(dims) == 1:
		return TypeTag{Kind: KindVector, Scalar: scalar.Scalar, Rows: 1, Cols: dims[0]}, true
	case strings.EqualFold(base, "matrix") && len(dims) == 2:
		return TypeTag{Kind: KindMatrix, Scalar: scalar.Scalar, Rows: dims[0], Cols: dims[1]}, true
	}
	return TypeTag{}, false
}
