// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package effect

import "strings"

// rewriter builds the output source from spans of the input. Everything
// between the last emitted offset and a copy point is kept verbatim, including
// whitespace and comments; a skip point drops it.
type rewriter struct {
	src  string
	last int
	out  strings.Builder
}

func newRewriter(src string) *rewriter {
	r := &rewriter{src: src}
	r.out.Grow(len(src))
	return r
}

// copyThrough appends the input from the last emitted offset up to end.
func (r *rewriter) copyThrough(end int) {
	if end > len(r.src) {
		end = len(r.src)
	}
	if end > r.last {
		r.out.WriteString(r.src[r.last:end])
		r.last = end
	}
}

// skipThrough drops the input from the last emitted offset up to end.
func (r *rewriter) skipThrough(end int) {
	if end > r.last {
		r.last = end
	}
}

// insert appends synthesized text.
func (r *rewriter) insert(text string) {
	r.out.WriteString(text)
}

// len returns the current output length.
func (r *rewriter) len() int {
	return r.out.Len()
}

func (r *rewriter) String() string {
	return r.out.String()
}
