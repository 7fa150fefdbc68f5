// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

// blockPhase is the state of a brace-delimited block being consumed.
type blockPhase uint8

const (
	// phaseInBlock: directly inside the block, statements are recognized.
	phaseInBlock blockPhase = iota
	// phaseInNestedBlock: inside braces nested in the block, tokens are ignored.
	phaseInNestedBlock
	// phaseDone: the block's closing brace was consumed.
	phaseDone
)

func (p blockPhase) String() string {
	switch p {
	case phaseInBlock:
		return "InBlock"
	case phaseInNestedBlock:
		return "InNestedBlock"
	default:
		return "Done"
	}
}

// block tracks brace depth for a block whose opening brace was already
// consumed.
type block struct {
	depth int
}

func newBlock() block {
	return block{depth: 1}
}

func (b *block) phase() blockPhase {
	switch {
	case b.depth <= 0:
		return phaseDone
	case b.depth == 1:
		return phaseInBlock
	default:
		return phaseInNestedBlock
	}
}

// step feeds one token and returns the resulting phase.
func (b *block) step(tok string) blockPhase {
	if b.depth <= 0 {
		return phaseDone
	}
	switch tok {
	case "{":
		b.depth++
	case "}":
		b.depth--
	}
	return b.phase()
}
