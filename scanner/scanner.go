// Package scanner splits effect source text into tokens.
//
// The scanner has no notion of grammar. A token is a maximal run of bytes that
// are neither separators nor cut-offs; every cut-off byte is a token of its own;
// separators delimit tokens and are never emitted. Line comments, block
// comments and quoted strings are handled before the separator rules apply, so
// a quoted string is always a single opaque token.
//
// Tokens borrow from the source string. They stay valid for as long as the
// caller keeps the source alive, but callers that store token text should copy
// it with strings.Clone when the source is large and short-lived.
package scanner

import "strings"

const (
	// DefaultSeparators delimit tokens without being emitted.
	DefaultSeparators = " \t\r\n,"

	// DefaultCutoffs are always emitted as one-byte tokens.
	DefaultCutoffs = "{}()=#<>;:"
)

// Token is a span of the scanner's source.
type Token struct {
	Text  string
	Start int // byte offset of the first byte
	End   int // byte offset one past the last byte
}

// Is reports whether the token text equals lit exactly.
func (t Token) Is(lit string) bool {
	return t.Text == lit
}

// IsFold reports whether the token text equals lit under ASCII case folding.
func (t Token) IsFold(lit string) bool {
	return strings.EqualFold(t.Text, lit)
}

// Quoted reports whether the token is a double-quoted string.
func (t Token) Quoted() bool {
	return len(t.Text) >= 2 && t.Text[0] == '"' && t.Text[len(t.Text)-1] == '"'
}

// Unquote returns the token text without surrounding double quotes.
// Escape sequences are left as written.
func (t Token) Unquote() string {
	if t.Quoted() {
		return t.Text[1 : len(t.Text)-1]
	}
	if len(t.Text) > 0 && t.Text[0] == '"' {
		// Unterminated string running to the end of the source.
		return t.Text[1:]
	}
	return t.Text
}

type byteSet [256]bool

func newByteSet(chars string) byteSet {
	var s byteSet
	for i := 0; i < len(chars); i++ {
		s[chars[i]] = true
	}
	return s
}

// Scanner is a pull tokenizer with one token of lookahead.
type Scanner struct {
	src        string
	separators byteSet
	cutoffs    byteSet
	pos        int
	tok        Token
	done       bool
}

// New returns a scanner over src using the default separator and cut-off sets.
func New(src string) *Scanner {
	return NewWithSets(src, DefaultSeparators, DefaultCutoffs)
}

// NewWithSets returns a scanner over src using the given character sets.
func NewWithSets(src, separators, cutoffs string) *Scanner {
	s := &Scanner{}
	s.Configure(separators, cutoffs)
	s.Reset(src)
	return s
}

// Configure replaces the separator and cut-off sets. It does not move the
// read position.
func (s *Scanner) Configure(separators, cutoffs string) {
	s.separators = newByteSet(separators)
	s.cutoffs = newByteSet(cutoffs)
}

// Reset binds the scanner to a new source and rewinds it.
func (s *Scanner) Reset(src string) {
	s.src = src
	s.pos = 0
	s.tok = Token{}
	s.done = false
}

// Source returns the text being scanned.
func (s *Scanner) Source() string {
	return s.src
}

// Next advances to the next token and reports whether one was found.
// At the end of the source it returns false, the current token becomes
// empty and further calls are no-ops.
func (s *Scanner) Next() bool {
	if s.done {
		return false
	}
	tok, next, ok := s.scan(s.pos)
	s.tok = tok
	s.pos = next
	if !ok {
		s.done = true
	}
	return ok
}

// Peek returns the token that Next would produce without consuming it.
// The second result is false at the end of the source.
func (s *Scanner) Peek() (Token, bool) {
	if s.done {
		return Token{Start: len(s.src), End: len(s.src)}, false
	}
	tok, _, ok := s.scan(s.pos)
	return tok, ok
}

// Token returns the current token.
func (s *Scanner) Token() Token {
	return s.tok
}

// Text returns the current token's text.
func (s *Scanner) Text() string {
	return s.tok.Text
}

// Is compares the current token with lit exactly.
func (s *Scanner) Is(lit string) bool {
	return s.tok.Text == lit
}

// IsFold compares the current token with lit ignoring ASCII case.
func (s *Scanner) IsFold(lit string) bool {
	return strings.EqualFold(s.tok.Text, lit)
}

// AtEnd reports whether the scanner has run past the last token.
func (s *Scanner) AtEnd() bool {
	return s.done
}

// Pos returns the read position: the offset just past the current token, or
// past whatever a skip operation consumed.
func (s *Scanner) Pos() int {
	return s.pos
}

// Mark is a saved scanner position.
type Mark struct {
	pos  int
	tok  Token
	done bool
}

// Mark saves the scanner position for a later Restore.
func (s *Scanner) Mark() Mark {
	return Mark{pos: s.pos, tok: s.tok, done: s.done}
}

// Restore rewinds the scanner to a saved position.
func (s *Scanner) Restore(m Mark) {
	s.pos = m.pos
	s.tok = m.tok
	s.done = m.done
}

// SkipLine discards the rest of the current line, honouring backslash line
// continuations. The terminating newline is left for the next token scan.
func (s *Scanner) SkipLine() {
	s.RestOfLine()
}

// RestOfLine consumes and returns the raw text from the read position to the
// end of the line. A backslash immediately before the newline continues the
// line; the continuation is returned as written.
func (s *Scanner) RestOfLine() string {
	start := s.pos
	i := start
	for i < len(s.src) {
		if s.src[i] != '\n' {
			i++
			continue
		}
		j := i - 1
		if j >= start && s.src[j] == '\r' {
			j--
		}
		if j >= start && s.src[j] == '\\' {
			i++
			continue
		}
		break
	}
	s.pos = i
	text := s.src[start:i]
	return strings.TrimRight(text, "\r")
}

// SkipUntil consumes raw source up to and including the next occurrence of
// lit and returns the text in between. If lit does not occur, the rest of the
// source is consumed and ok is false.
func (s *Scanner) SkipUntil(lit string) (text string, ok bool) {
	rest := s.src[s.pos:]
	idx := strings.Index(rest, lit)
	if idx < 0 {
		s.pos = len(s.src)
		return rest, false
	}
	s.pos += idx + len(lit)
	return rest[:idx], true
}

// LineColumn converts a byte offset into 1-based line and column numbers.
func (s *Scanner) LineColumn(offset int) (line, column int) {
	return LineColumn(s.src, offset)
}

// LineColumn converts a byte offset in src into 1-based line and column numbers.
func LineColumn(src string, offset int) (line, column int) {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	line = 1 + strings.Count(src[:offset], "\n")
	lineStart := strings.LastIndexByte(src[:offset], '\n') + 1
	return line, offset - lineStart + 1
}

// scan finds the token starting at or after pos. It returns the token, the
// position after it and whether a token was found.
func (s *Scanner) scan(pos int) (Token, int, bool) {
	src := s.src
	n := len(src)
	for {
		for pos < n && s.separators[src[pos]] {
			pos++
		}
		if pos >= n {
			return Token{Start: n, End: n}, n, false
		}
		if src[pos] == '/' && pos+1 < n {
			switch src[pos+1] {
			case '/':
				end := strings.IndexByte(src[pos:], '\n')
				if end < 0 {
					pos = n
				} else {
					pos += end
				}
				continue
			case '*':
				end := strings.Index(src[pos+2:], "*/")
				if end < 0 {
					pos = n
				} else {
					pos += 2 + end + 2
				}
				continue
			}
		}
		break
	}

	start := pos
	c := src[pos]
	switch {
	case s.cutoffs[c]:
		pos++
	case c == '"':
		pos++
		for pos < n && src[pos] != '"' {
			if src[pos] == '\\' && pos+1 < n {
				pos++
			}
			pos++
		}
		if pos < n {
			pos++
		}
	default:
		for pos < n {
			c := src[pos]
			if s.separators[c] || s.cutoffs[c] || c == '"' {
				break
			}
			if c == '/' && pos+1 < n && (src[pos+1] == '/' || src[pos+1] == '*') {
				break
			}
			pos++
		}
	}
	return Token{Text: src[start:pos], Start: start, End: pos}, pos, true
}
