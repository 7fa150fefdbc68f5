// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

// registerSize is the size of one constant buffer register.
const registerSize = 16

// maxStructDepth bounds nested structure layout; self-referencing structures
// are laid out as empty past it.
const maxStructDepth = 16

// Layout assigns Offset and Size to every member and sets the buffer Size,
// following constant buffer packing rules: members never straddle a 16-byte
// register, arrays, matrices and structures start on a register, the member
// after a structure starts on the next register, and a packoffset places a
// member explicitly. structs resolves nested structure
// members.
func (cb *ConstantBuffer) Layout(structs map[string]*Struct) {
	end := layoutMembers(cb.Members, structs, 0)
	cb.Size = alignUp(end, registerSize)
}

// layoutMembers lays out members in place and returns the end offset of the
// last one.
func layoutMembers(members []Member, structs map[string]*Struct, depth int) int {
	offset, end := 0, 0
	for i := range members {
		m := &members[i]
		elem, aligned := elementSize(m, structs, depth)

		size := elem
		if m.ArraySize > 1 {
			size = alignUp(elem, registerSize)*(m.ArraySize-1) + elem
			aligned = true
		}

		switch {
		case m.PackOffset != nil:
			offset = m.PackOffset.Bytes()
		case aligned:
			offset = alignUp(offset, registerSize)
		case offset%registerSize != 0 && offset%registerSize+size > registerSize:
			offset = alignUp(offset, registerSize)
		}

		m.Offset = offset
		m.Size = size
		offset += size
		end = max(end, offset)
		if m.Tag.Kind == KindStruct {
			offset = alignUp(offset, registerSize)
		}
	}
	return end
}

// elementSize returns the size of one element of m and whether it must start
// on a register boundary.
func elementSize(m *Member, structs map[string]*Struct, depth int) (int, bool) {
	tag := m.Tag
	scalar := tag.Scalar.Size()
	switch tag.Kind {
	case KindScalar:
		return scalar, false
	case KindVector:
		return scalar * tag.Cols, false
	case KindMatrix:
		rows, cols := tag.Rows, tag.Cols
		if m.Order == OrderRowMajor {
			rows, cols = cols, rows
		}
		// Column major: each column occupies its own register.
		stride := alignUp(rows*scalar, registerSize)
		return stride*(cols-1) + rows*scalar, true
	case KindStruct:
		s, ok := structs[m.Type]
		if !ok || depth >= maxStructDepth {
			return 0, true
		}
		inner := make([]Member, len(s.Members))
		copy(inner, s.Members)
		return layoutMembers(inner, structs, depth+1), true
	}
	return scalar, false
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}
