package binding

import (
	"strings"

	"github.com/gorilla/css/scanner"
)

// setDisplay rewrites the display declaration of an inline style. An empty
// value removes it. Every other declaration is kept byte for byte, including
// semicolons inside strings and url(...).
func setDisplay(style, value string) string {
	var b strings.Builder
	for _, d := range declarations(style) {
		if !isDisplay(d) {
			b.WriteString(d)
		}
	}
	out := strings.TrimSpace(b.String())
	if out != "" && !strings.HasSuffix(out, ";") {
		out += ";"
	}
	if value != "" {
		if out != "" {
			out += " "
		}
		out += "display: " + value + ";"
	}
	return out
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n")

// declarations splits a declaration list after each top-level semicolon.
// The pieces concatenate back to the input.
func declarations(style string) []string {
	var (
		out      []string
		cur      strings.Builder
		depth    int
		consumed int
	)
	// the scanner folds these to \n; fold first so offsets line up
	style = newlines.Replace(style)
	s := scanner.New(style)
	for {
		tok := s.Next()
		if tok.Type == scanner.TokenEOF {
			break
		}
		if tok.Type == scanner.TokenError {
			// unterminated string or similar: keep the rest untouched
			if consumed < len(style) {
				cur.WriteString(style[consumed:])
			}
			break
		}
		consumed += len(tok.Value)
		cur.WriteString(tok.Value)

		switch {
		case tok.Type == scanner.TokenFunction:
			depth++
		case tok.Type == scanner.TokenChar && (tok.Value == "(" || tok.Value == "["):
			depth++
		case tok.Type == scanner.TokenChar && (tok.Value == ")" || tok.Value == "]"):
			if depth > 0 {
				depth--
			}
		case tok.Type == scanner.TokenChar && tok.Value == ";" && depth == 0:
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

// isDisplay reports whether a declaration sets the display property.
func isDisplay(decl string) bool {
	s := scanner.New(decl)
	tok := s.Next()
	for tok.Type == scanner.TokenS || tok.Type == scanner.TokenComment {
		tok = s.Next()
	}
	if tok.Type != scanner.TokenIdent || !strings.EqualFold(tok.Value, "display") {
		return false
	}
	tok = s.Next()
	for tok.Type == scanner.TokenS || tok.Type == scanner.TokenComment {
		tok = s.Next()
	}
	return tok.Type == scanner.TokenChar && tok.Value == ":"
}
