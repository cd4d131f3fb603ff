package pdp10

import "strings"

// ParseInstruction encodes one instruction as a 36-bit word. Operands take
// the form "[@]AC,[@]Y[(X)]" with the accumulator part optional. An empty op
// encodes just the operand fields, which is how OPDEF bodies pick up their
// call-site operands. Returns a negative value on failure.
//
// In pass 1 an undefined address expression encodes as zero and is recorded
// as the undefined marker, to be folded in by the caller's fixup pass; an
// undefined accumulator or index is always a failure, since a fixup can only
// add into the low half of the word.
func (m *Machine) ParseInstruction(op, operands string, loc int, pass1 bool) int64 {
	m.undefined = nil

	var word int64
	if op != "" {
		opc, ok := Opcode(strings.ToUpper(op))
		if !ok {
			return -1
		}
		word = opc << OpcodeShift
	}

	s := strings.TrimSpace(operands)
	if s == "" {
		return word
	}

	acPart, addrPart, hasAC := splitAC(s)
	if hasAC {
		ac, ok := m.eval(acPart, false)
		if !ok {
			return -1
		}
		word |= (ac & 0o17) << ACShift
	}

	addrPart = strings.TrimSpace(addrPart)
	if strings.HasPrefix(addrPart, "@") {
		word |= IndMask
		addrPart = strings.TrimSpace(addrPart[1:])
	}

	if idx := indexField(addrPart); idx != "" {
		x, ok := m.eval(idx, false)
		if !ok {
			return -1
		}
		word |= (x & 0o17) << IdxShift
		addrPart = strings.TrimSpace(addrPart[:strings.LastIndexByte(addrPart, '(')])
	}

	if addrPart != "" {
		y, ok := m.eval(addrPart, pass1)
		if !ok {
			return -1
		}
		word |= m.Truncate(y, 18, true)
	}
	return word
}

// splitAC separates the accumulator field from the address field at the
// first comma outside any bracketing.
func splitAC(s string) (ac, addr string, ok bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '<':
			depth++
		case ')', ']', '>':
			depth--
		case ',':
			if depth == 0 {
				return s[:i], s[i+1:], true
			}
		}
	}
	return "", s, false
}

// indexField returns the expression inside a trailing "(X)" group, or "".
func indexField(s string) string {
	if !strings.HasSuffix(s, ")") {
		return ""
	}
	open := strings.LastIndexByte(s, '(')
	if open < 0 {
		return ""
	}
	return s[open+1 : len(s)-1]
}
