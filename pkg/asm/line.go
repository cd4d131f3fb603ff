package asm

import (
	"regexp"
	"strings"
)

// One source line: optional label, operator, separator, operand text, and
// comment. The operand and comment groups stay raw so literal capture and
// ASCII delimiter scanning can see the original text.
var reLine = regexp.MustCompile(`(?i)^\s*([A-Z$%.?][0-9A-Z$%.]*:|)\s*([A-Z$%.?][0-9A-Z$%.]*|)(\s*)([^;]*)(;.*|)$`)

// substitution is iterated; a bound value naming another parameter gets one
// more pass, and a pathological cycle stops here instead of spinning
const maxSubstIter = 10

// parseText walks text line by line. parms/values/defaults carry the
// parameter binding of the enclosing macro expansion, if any. top marks the
// outermost walk, the only one that advances the source line counter.
func (a *Assembler) parseText(text string, parms, values, defaults []string, top bool) error {
	for _, line := range strings.Split(text, "\n") {
		if top {
			a.lineNo++
		}
		if a.ended {
			return nil
		}
		if err := a.parseLine(line, parms, values, defaults); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assembler) parseLine(line string, parms, values, defaults []string) error {
	// cross-line ASCII text
	if a.ascii.delim != 0 {
		return a.contASCII(line)
	}

	// pending macro body capture; enclosing parameters substitute into
	// captured lines, except into IRP/IRPC bodies
	if a.def.phase != idle {
		if len(parms) > 0 && a.def.mac.kind != macIrp && a.def.mac.kind != macIrpc {
			line, _ = a.substituteParams(line, parms, values, defaults)
		}
		return a.captureFeed(line)
	}

	m := reLine.FindStringSubmatch(line)
	if m == nil {
		if strings.HasPrefix(strings.TrimSpace(line), ";") {
			return nil
		}
		return a.errorf("unrecognized line: %s", strings.TrimSpace(line))
	}
	op := strings.ToUpper(m[2])

	if len(parms) > 0 && op != "IRP" && op != "IRPC" {
		for i := 0; i < maxSubstIter; i++ {
			next, changed := a.substituteParams(line, parms, values, defaults)
			if !changed {
				break
			}
			line = next
			if m = reLine.FindStringSubmatch(line); m == nil {
				return a.errorf("unrecognized line: %s", strings.TrimSpace(line))
			}
			op = strings.ToUpper(m[2])
			if op == "IRP" || op == "IRPC" {
				break
			}
		}
	}

	label, operands, comment := m[1], m[4], m[5]

	if label != "" {
		typ := symLabel
		if op == "" {
			// a second colon marks an internal label; the rest of the
			// line is a fresh statement
			if t := strings.TrimSpace(operands); strings.HasPrefix(t, ":") {
				if err := a.addSymbol(label[:len(label)-1], int64(a.loc), typ|symInternal); err != nil {
					return err
				}
				return a.parseLine(t[1:]+comment, parms, values, defaults)
			}
		}
		if err := a.addSymbol(label[:len(label)-1], int64(a.loc), typ); err != nil {
			return err
		}
	}

	// FOO=value, FOO==value (private), FOO=:value (internal)
	if op != "" {
		if t := strings.TrimSpace(operands); strings.HasPrefix(t, "=") {
			return a.opAssign(op, t)
		}
	}

	if op == "" {
		if strings.TrimSpace(operands) != "" {
			return a.opEXP(op, operands, operands+comment)
		}
		return nil
	}

	if fn, ok := pseudoOps[op]; ok {
		return fn(a, op, operands, operands+comment)
	}
	if ignoredOps[op] {
		return nil
	}
	if mac, ok := a.macros[normalizeSymbol(op)]; ok {
		return a.invokeMacro(mac, operands)
	}
	// a symbol that is not a machine instruction and runs straight into an
	// expression (or stands alone, like ".") is a bare expression
	if m[3] == "" && a.host.ParseInstruction(op, "", a.loc, true) < 0 {
		return a.opEXP("", "", m[2]+operands+comment)
	}
	return a.opDefault(op, operands)
}

var pseudoOps map[string]func(*Assembler, string, string, string) error

func init() {
	pseudoOps = map[string]func(*Assembler, string, string, string) error{
		"ASCII":  (*Assembler).opText,
		"ASCIZ":  (*Assembler).opText,
		"SIXBIT": (*Assembler).opText,
		"DEFINE": (*Assembler).opDEFINE,
		"OPDEF":  (*Assembler).opOPDEF,
		"REPEAT": (*Assembler).opREPEAT,
		"IFE":    (*Assembler).opIF,
		"IFG":    (*Assembler).opIF,
		"IFL":    (*Assembler).opIF,
		"IFN":    (*Assembler).opIF,
		"IRP":    (*Assembler).opIRP,
		"IRPC":   (*Assembler).opIRP,
		"EXP":    (*Assembler).opEXP,
		"XWD":    (*Assembler).opXWD,
		"LOC":    (*Assembler).opLOC,
		"END":    (*Assembler).opEND,
	}
}

// listing-control directives are accepted and ignored
var ignoredOps = map[string]bool{
	"LALL":   true,
	"LIST":   true,
	"NOSYM":  true,
	"PAGE":   true,
	"SUBTTL": true,
	"TITLE":  true,
	"XLIST":  true,
}

func (a *Assembler) opAssign(name, s string) error {
	typ := symType(0)
	s = s[1:]
	switch {
	case strings.HasPrefix(s, "="):
		typ = symPrivate
		s = s[1:]
	case strings.HasPrefix(s, ":"):
		typ = symInternal
		s = s[1:]
	}
	v, ok := a.evalExpression(strings.TrimSpace(s), false, a.dotLocation())
	if !ok {
		return a.errorf("bad expression in assignment of %s: %s", name, strings.TrimSpace(s))
	}
	return a.addSymbol(name, v, typ)
}

// opEXP works from the raw tail so inline text can carry a ";", the way
// opText scans its delimiters on the raw tail.
func (a *Assembler) opEXP(_, _, tail string) error {
	ops, deferred, err := a.preprocessOperands(a.stripComment(tail), "EXP")
	if err != nil || deferred {
		return err
	}
	for _, chunk := range splitExpressions(ops) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		a.genWord(0, chunk)
	}
	return nil
}

func (a *Assembler) opXWD(_, _, tail string) error {
	ops, deferred, err := a.preprocessOperands(a.stripComment(tail), "XWD")
	if err != nil || deferred {
		return err
	}
	chunks := splitExpressions(ops)
	if len(chunks)%2 != 0 {
		return a.errorf("XWD needs halfword pairs: %s", strings.TrimSpace(ops))
	}
	for i := 0; i+1 < len(chunks); i += 2 {
		a.genWord(0, strings.TrimSpace(chunks[i])+",,"+strings.TrimSpace(chunks[i+1]))
	}
	return nil
}

func (a *Assembler) opLOC(_, operands, _ string) error {
	v, ok := a.evalExpression(strings.TrimSpace(operands), false, a.dotLocation())
	if !ok || v < 0 {
		return a.errorf("bad location: %s", strings.TrimSpace(operands))
	}
	a.loc = int(v)
	return nil
}

func (a *Assembler) opEND(_, operands, _ string) error {
	a.ended = true
	if s := strings.TrimSpace(operands); s != "" {
		a.startExpr = s
	}
	return nil
}

// opDefault hands anything that is not a pseudo-op or macro to the host
// instruction encoder. An address field the host could not resolve yet
// comes back through Undefined and is kept as the word's fixup.
func (a *Assembler) opDefault(op, operands string) error {
	ops, deferred, err := a.preprocessOperands(operands, op)
	if err != nil || deferred {
		return err
	}
	w := a.host.ParseInstruction(op, a.rewriteOperands(ops), a.loc, true)
	if w < 0 {
		return a.errorf("unrecognized instruction: %s %s", op, strings.TrimSpace(operands))
	}
	a.genWord(w, a.host.Undefined())
	return nil
}

// substituteParams replaces each bound parameter anywhere in the line before
// the comment (label and operator included) wherever it appears flanked by
// non-symbol characters; an adjacent apostrophe, the concatenation
// operator, is consumed.
func (a *Assembler) substituteParams(line string, parms, values, defaults []string) (string, bool) {
	changed := false
	for i, p := range parms {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		var ch bool
		line, ch = replaceParam(line, p, paramValue(i, values, defaults))
		changed = changed || ch
	}
	return line, changed
}

func paramValue(i int, values, defaults []string) string {
	if i < len(values) && values[i] != "" {
		return values[i]
	}
	if i < len(defaults) {
		return defaults[i]
	}
	return ""
}

func replaceParam(line, parm, value string) (string, bool) {
	upper := strings.ToUpper(line)
	limit := strings.IndexByte(line, ';')
	if limit < 0 {
		limit = len(line)
	}

	var b strings.Builder
	changed := false
	i := 0
	for i < len(line) {
		j := strings.Index(upper[i:], parm)
		if j < 0 {
			b.WriteString(line[i:])
			break
		}
		j += i
		end := j + len(parm)
		if j >= limit {
			b.WriteString(line[i:])
			break
		}
		before := j == 0 || !isSymbolChar(line[j-1])
		after := end >= len(line) || !isSymbolChar(line[end])
		if !before || !after {
			b.WriteString(line[i:end])
			i = end
			continue
		}
		pre := line[i:j]
		if strings.HasSuffix(pre, "'") {
			pre = pre[:len(pre)-1]
		}
		b.WriteString(pre)
		b.WriteString(value)
		i = end
		if i < len(line) && line[i] == '\'' {
			i++
		}
		changed = true
	}
	return b.String(), changed
}

func isSymbolChar(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' ||
		c == '$' || c == '%' || c == '.' || c == '?'
}

func isSymbolStart(c byte) bool {
	return isSymbolChar(c) && (c < '0' || c > '9')
}
