package asm

import (
	"regexp"
	"strings"
)

// evalExpression wraps the host expression parser with the MACRO-10
// rewrites: the double-comma halfword operator, "." as the current
// location, and inline SIXBIT/ASCII text. dot is the location "." renders
// as; pass a word's own location when resolving its fixup.
func (a *Assembler) evalExpression(s string, pass1 bool, dot int) (int64, bool) {
	if l, r, ok := splitDoubleComma(s); ok {
		lv, lok := a.evalExpression(l, pass1, dot)
		rv, rok := a.evalExpression(r, pass1, dot)
		if !lok || !rok {
			return 0, false
		}
		return a.host.Truncate(lv, 18, true)<<18 | a.host.Truncate(rv, 18, true), true
	}
	s = a.rewriteStrings(s)
	s = rewriteDot(s, a.host.ToStrWord(int64(dot)))
	return a.host.ParseExpression(s, pass1)
}

// rewriteOperands applies the location and inline-text rewrites to an
// instruction operand field before the host encodes it.
func (a *Assembler) rewriteOperands(s string) string {
	s = a.rewriteStrings(s)
	return rewriteDot(s, a.host.ToStrWord(int64(a.dotLocation())))
}

// splitDoubleComma finds a top-level ",," and returns the two halves.
func splitDoubleComma(s string) (string, string, bool) {
	depth := 0
	for i := 0; i+1 < len(s); i++ {
		switch s[i] {
		case '(', '[', '<':
			depth++
		case ')', ']', '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 && s[i+1] == ',' {
				return s[:i], s[i+2:], true
			}
		}
	}
	return "", "", false
}

// rewriteDot replaces "." with the rendered location wherever it stands
// alone: not inside quoted text, and not adjacent to a symbol character,
// so names containing periods and digit-flanked periods survive.
func rewriteDot(s, loc string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	var b strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
			b.WriteByte(c)
		case '.':
			before := i == 0 || !isSymbolChar(s[i-1])
			after := i+1 >= len(s) || !isSymbolChar(s[i+1])
			if before && after {
				b.WriteString(loc)
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// stripComment cuts the comment off a raw operand tail. Inline SIXBIT and
// ASCII text is converted to quoted form first, so a ";" bound by the text
// delimiters survives; only a ";" outside any quoting starts the comment.
func (a *Assembler) stripComment(tail string) string {
	s := a.rewriteStrings(tail)
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case ';':
			return s[:i]
		}
	}
	return s
}

var reInlineText = regexp.MustCompile(`(?i)\b(SIXBIT|ASCIZ|ASCII)[ \t]*`)

// rewriteStrings converts embedded SIXBIT/x…/ and ASCII "x…" forms to the
// quoted words the host parser understands. ASCIZ gains its trailing zero
// character here.
func (a *Assembler) rewriteStrings(s string) string {
	idx := 0
	for {
		m := reInlineText.FindStringSubmatchIndex(s[idx:])
		if m == nil {
			return s
		}
		start, end := idx+m[0], idx+m[1]
		if end >= len(s) {
			return s
		}
		delim := s[end]
		if isSymbolChar(delim) {
			idx = end
			continue
		}
		rest := s[end+1:]
		j := strings.IndexByte(rest, delim)
		if j < 0 {
			return s
		}
		content := rest[:j]
		var quoted string
		switch strings.ToUpper(s[m[2]+idx : m[3]+idx]) {
		case "SIXBIT":
			quoted = "'" + content + "'"
		case "ASCIZ":
			quoted = "\"" + content + "\x00\""
		default:
			quoted = "\"" + content + "\""
		}
		s = s[:start] + quoted + s[end+1+j+1:]
		idx = start + len(quoted)
	}
}
