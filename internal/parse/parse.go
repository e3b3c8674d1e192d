// Package parse extracts structured data out of free-form backend replies.
// Chat responses are natural language, so extraction must tolerate arbitrary
// surrounding commentary.
package parse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrorKind classifies a parse failure.
type ErrorKind string

const (
	// NoNumericToken means the text contains no decimal token at all.
	NoNumericToken ErrorKind = "no_numeric_token"
	// MalformedStructure means a bracketed region was found but is not
	// well-formed structured data.
	MalformedStructure ErrorKind = "malformed_structure"
)

// ParseError is a soft failure: callers degrade the affected display
// ("unable to parse") instead of treating it like a network error.
type ParseError struct {
	Kind ErrorKind
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse: %s: %s", e.Kind, e.Msg)
}

// priceRe matches the first signed or unsigned decimal token, allowing
// thousands separators ("685.50", "68,550", "-1,234.5").
var priceRe = regexp.MustCompile(`[-+]?\d[\d,]*(?:\.\d+)?`)

// Price extracts the first numeric token from free text and returns it as a
// price amount. Thousands separators are stripped before conversion.
func Price(text string) (float64, error) {
	tok := priceRe.FindString(text)
	if tok == "" {
		return 0, &ParseError{Kind: NoNumericToken, Msg: "no numeric token in response"}
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", ""), 64)
	if err != nil {
		// A matched token that still fails conversion (e.g. ",,")
		// counts as having no usable numeric token.
		return 0, &ParseError{Kind: NoNumericToken, Msg: fmt.Sprintf("token %q is not a number", tok)}
	}
	return v, nil
}

// Records extracts the first balanced bracketed array substring from text
// and unmarshals it into v (a pointer to a slice). Text outside the
// brackets is ignored, so backend commentary before or after the data does
// not matter.
func Records(text string, v any) error {
	sub, err := firstArray(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return &ParseError{Kind: MalformedStructure, Msg: err.Error()}
	}
	return nil
}

// firstArray returns the first balanced [...] substring of text. Brackets
// inside quoted strings do not count toward nesting.
func firstArray(text string) (string, error) {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return "", &ParseError{Kind: MalformedStructure, Msg: "no array literal in response"}
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", &ParseError{Kind: MalformedStructure, Msg: "unbalanced array literal in response"}
}
