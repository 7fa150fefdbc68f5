package scanner

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueError reports a token that does not convert to the requested type.
type ValueError struct {
	Token Token
	Type  string
}

// Error implements the error interface.
func (e *ValueError) Error() string {
	return fmt.Sprintf("invalid %s value %q", e.Type, e.Token.Text)
}

// Bool converts the current token to a bool.
func (s *Scanner) Bool() (bool, error) { return TokenBool(s.tok) }

// Int converts the current token to a signed integer.
func (s *Scanner) Int() (int64, error) { return TokenInt(s.tok) }

// Uint converts the current token to an unsigned integer.
func (s *Scanner) Uint() (uint64, error) { return TokenUint(s.tok) }

// Float converts the current token to a float.
func (s *Scanner) Float() (float64, error) { return TokenFloat(s.tok) }

// TokenBool accepts true/false and 1/0, ignoring case.
func TokenBool(t Token) (bool, error) {
	switch strings.ToLower(t.Text) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return false, &ValueError{Token: t, Type: "bool"}
}

// TokenInt accepts decimal, 0x hex, 0b binary and leading-zero octal
// literals with an optional sign and u/l suffixes.
func TokenInt(t Token) (int64, error) {
	v, err := strconv.ParseInt(trimIntSuffix(t.Text), 0, 64)
	if err != nil {
		return 0, &ValueError{Token: t, Type: "int"}
	}
	return v, nil
}

// TokenUint is TokenInt for unsigned values.
func TokenUint(t Token) (uint64, error) {
	v, err := strconv.ParseUint(trimIntSuffix(t.Text), 0, 64)
	if err != nil {
		return 0, &ValueError{Token: t, Type: "uint"}
	}
	return v, nil
}

// TokenFloat accepts float literals with an optional f or h suffix.
func TokenFloat(t Token) (float64, error) {
	text := t.Text
	if n := len(text); n > 1 && !isHexLiteral(text) {
		switch text[n-1] {
		case 'f', 'F', 'h', 'H', 'l', 'L':
			text = text[:n-1]
		}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, &ValueError{Token: t, Type: "float"}
	}
	return v, nil
}

func trimIntSuffix(text string) string {
	for len(text) > 1 {
		switch text[len(text)-1] {
		case 'u', 'U', 'l', 'L':
			text = text[:len(text)-1]
			continue
		}
		break
	}
	return text
}

func isHexLiteral(text string) bool {
	text = strings.TrimLeft(text, "+-")
	return len(text) > 1 && text[0] == '0' && (text[1] == 'x' || text[1] == 'X')
}
