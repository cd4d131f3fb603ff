package asm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/golang/glog"
)

type macroKind int

const (
	macDefine macroKind = iota
	macOpdef
	macLiteral
	macReserved
	macRepeat
	macIfe
	macIfg
	macIfl
	macIfn
	macIrp
	macIrpc
)

// macro covers named DEFINE/OPDEF definitions, anonymous REPEAT/IFx/IRP/
// IRPC bodies, auto-named literals and reserved variables. Synthetic names
// begin with "?" so they cannot clash with user symbols.
type macro struct {
	name     string
	kind     macroKind
	count    int64 // repeat count, or the conditional's value
	params   []string
	defaults []string
	body     string
	line     int
}

type capturePhase int

const (
	idle capturePhase = iota
	awaitingOpen
	inBody
)

// macroCapture is the body-collection state machine: idle, waiting for the
// opening delimiter, or inside the body tracking delimiter nesting.
type macroCapture struct {
	phase   capturePhase
	openCh  byte
	closeCh byte
	depth   int
	mac     *macro
	body    strings.Builder
	line    int

	// set when a multi-line literal interrupted an operand field; the
	// interrupted line resumes with the literal's name spliced in
	pendingPrefix string
}

func (a *Assembler) startCapture(mac *macro, openCh, closeCh byte, rest string) error {
	a.def = macroCapture{
		phase:   awaitingOpen,
		openCh:  openCh,
		closeCh: closeCh,
		mac:     mac,
		line:    a.lineNo,
	}
	return a.captureFeed(rest)
}

// captureFeed advances the capture state machine over one line (or line
// fragment). On return of the nesting level to zero the body is complete
// and the macro is registered or invoked.
func (a *Assembler) captureFeed(text string) error {
	i := 0
	if a.def.phase == awaitingOpen {
		j := strings.IndexByte(text, a.def.openCh)
		if j < 0 {
			return nil
		}
		a.def.phase = inBody
		a.def.depth = 1
		i = j + 1
	}
	for ; i < len(text); i++ {
		c := text[i]
		switch c {
		case a.def.openCh:
			a.def.depth++
		case a.def.closeCh:
			a.def.depth--
			if a.def.depth == 0 {
				return a.finishCapture(text[i+1:])
			}
		}
		a.def.body.WriteByte(c)
	}
	a.def.body.WriteByte('\n')
	return nil
}

func (a *Assembler) finishCapture(leftover string) error {
	mac := a.def.mac
	mac.body = a.def.body.String()
	pendingPrefix := a.def.pendingPrefix
	a.def = macroCapture{}

	glog.V(2).Infof("asm: captured %s body (%d bytes)", mac.name, len(mac.body))

	switch mac.kind {
	case macDefine, macOpdef:
		// named definitions are invoked later by use site
		a.macros[mac.name] = mac
		return nil
	case macLiteral:
		a.macros[mac.name] = mac
		if err := a.invokeLiteral(mac); err != nil {
			return err
		}
		if pendingPrefix != "" {
			return a.parseLine(pendingPrefix+mac.name+leftover, nil, nil, nil)
		}
		return nil
	default:
		a.macros[mac.name] = mac
		return a.invokeAnonymous(mac)
	}
}

func (a *Assembler) opDEFINE(_, operands, _ string) error {
	name, rest := scanSymbol(strings.TrimSpace(operands))
	if name == "" {
		return a.errorf("unrecognized DEFINE: %s", strings.TrimSpace(operands))
	}
	mac := &macro{name: normalizeSymbol(name), kind: macDefine, line: a.lineNo}
	rest = strings.TrimLeft(rest, " \t")
	if strings.HasPrefix(rest, "(") {
		end, ok := matchDelim(rest, 0, '(', ')')
		if !ok {
			return a.errorf("unrecognized DEFINE: %s", strings.TrimSpace(operands))
		}
		for _, entry := range splitList(rest[1:end]) {
			entry = strings.TrimSpace(entry)
			dflt := ""
			if k := strings.IndexByte(entry, '<'); k >= 0 && strings.HasSuffix(entry, ">") {
				dflt = entry[k+1 : len(entry)-1]
				entry = strings.TrimSpace(entry[:k])
			}
			mac.params = append(mac.params, entry)
			mac.defaults = append(mac.defaults, dflt)
		}
		rest = rest[end+1:]
	}
	return a.startCapture(mac, '<', '>', rest)
}

func (a *Assembler) opOPDEF(_, operands, _ string) error {
	name, rest := scanSymbol(strings.TrimSpace(operands))
	if name == "" {
		return a.errorf("unrecognized OPDEF: %s", strings.TrimSpace(operands))
	}
	mac := &macro{name: normalizeSymbol(name), kind: macOpdef, line: a.lineNo}
	return a.startCapture(mac, '[', ']', rest)
}

func (a *Assembler) opREPEAT(_, operands, _ string) error {
	expr, rest := scanBodyStart(operands)
	n, ok := a.evalExpression(strings.TrimSpace(expr), false, a.dotLocation())
	if !ok {
		return a.errorf("bad REPEAT count: %s", strings.TrimSpace(expr))
	}
	mac := &macro{name: "?REPEAT", kind: macRepeat, count: n, line: a.lineNo}
	return a.startCapture(mac, '<', '>', rest)
}

func (a *Assembler) opIF(op, operands, _ string) error {
	kinds := map[string]macroKind{"IFE": macIfe, "IFG": macIfg, "IFL": macIfl, "IFN": macIfn}
	expr, rest := scanBodyStart(operands)
	v, ok := a.evalExpression(strings.TrimSpace(expr), false, a.dotLocation())
	if !ok {
		return a.errorf("bad %s condition: %s", op, strings.TrimSpace(expr))
	}
	mac := &macro{name: "?" + op, kind: kinds[op], count: v, line: a.lineNo}
	return a.startCapture(mac, '<', '>', rest)
}

func (a *Assembler) opIRP(op, operands, _ string) error {
	i := strings.IndexByte(operands, ',')
	if i < 0 {
		return a.errorf("unrecognized %s: %s", op, strings.TrimSpace(operands))
	}
	kind := macIrp
	if op == "IRPC" {
		kind = macIrpc
	}
	mac := &macro{
		name:   "?" + op,
		kind:   kind,
		params: []string{strings.TrimSpace(operands[:i])},
		line:   a.lineNo,
	}
	return a.startCapture(mac, '<', '>', operands[i+1:])
}

func (a *Assembler) invokeAnonymous(mac *macro) error {
	switch mac.kind {
	case macRepeat:
		for i := int64(0); i < mac.count; i++ {
			if err := a.parseText(mac.body, nil, nil, nil, false); err != nil {
				return err
			}
		}
		return nil
	case macIfe, macIfg, macIfl, macIfn:
		invoke := false
		switch mac.kind {
		case macIfe:
			invoke = mac.count == 0
		case macIfg:
			invoke = mac.count > 0
		case macIfl:
			invoke = mac.count < 0
		case macIfn:
			invoke = mac.count != 0
		}
		if !invoke {
			return nil
		}
		return a.parseText(mac.body, nil, nil, nil, false)
	case macIrp, macIrpc:
		binding, ok := a.paramBinding(mac.params[0])
		if !ok {
			return a.errorf("%s parameter %s is not bound by an enclosing macro",
				strings.TrimPrefix(mac.name, "?"), mac.params[0])
		}
		if mac.kind == macIrp {
			for _, v := range splitList(binding) {
				if err := a.parseText(mac.body, mac.params, []string{strings.TrimSpace(v)}, nil, false); err != nil {
					return err
				}
			}
			return nil
		}
		for i := 0; i < len(binding); i++ {
			if err := a.parseText(mac.body, mac.params, []string{binding[i : i+1]}, nil, false); err != nil {
				return err
			}
		}
		return nil
	}
	return a.errorf("cannot invoke %s", mac.name)
}

// invokeMacro expands a named macro at its use site.
func (a *Assembler) invokeMacro(mac *macro, operands string) error {
	if a.depth >= maxExpansion {
		return a.errorf("macro %s expansion too deep", mac.name)
	}
	switch mac.kind {
	case macDefine:
		values := getValues(operands)
		a.callStack = append(a.callStack, &invocation{mac: mac, values: values})
		a.depth++
		err := a.parseText(mac.body, mac.params, values, mac.defaults, false)
		a.depth--
		a.callStack = a.callStack[:len(a.callStack)-1]
		return err
	case macOpdef:
		return a.invokeOpdef(mac, operands)
	}
	return a.errorf("cannot invoke %s", mac.name)
}

// PDP-10 instruction subfields, used to fold an OPDEF's call-site operands
// into its base word.
const (
	fieldAC   = int64(0o17) << 23
	fieldInd  = int64(1) << 22
	fieldIdx  = int64(0o17) << 18
	fieldAddr = int64(0o777777)
)

// invokeOpdef assembles the definition body into a side scope for the base
// word, then the call-site operands into another, and combines the two:
// accumulator, index and address add onto the base, the indirect bit ORs.
func (a *Assembler) invokeOpdef(mac *macro, operands string) error {
	a.depth++
	defer func() { a.depth-- }()

	a.pushScope("")
	err := a.parseText(mac.body, nil, nil, nil, false)
	w0s, f0s := a.popScope()
	if err != nil {
		return err
	}
	var w0 int64
	var f0 string
	if len(w0s) > 0 {
		w0 = int64(w0s[0])
		f0 = f0s[0].expr
	}

	a.pushScope("")
	ops, deferred, err := a.preprocessOperands(operands, mac.name)
	if err == nil && deferred {
		err = a.errorf("literal spans lines in %s operands", mac.name)
	}
	var w1v int64
	if err == nil {
		w1 := a.host.ParseInstruction("", a.rewriteOperands(ops), a.dotLocation(), true)
		if w1 < 0 {
			err = a.errorf("bad operands for %s: %s", mac.name, strings.TrimSpace(operands))
		} else {
			a.genWord(w1, a.host.Undefined())
		}
	}
	w1s, f1s := a.popScope()
	if err != nil {
		return err
	}
	var f1 string
	if len(w1s) > 0 {
		w1v = int64(w1s[0])
		f1 = f1s[0].expr
	}

	res := w0 + (w1v & (fieldAC | fieldIdx | fieldAddr)) | (w1v & fieldInd)
	fx := f0
	if f1 != "" {
		if fx != "" {
			fx += "+" + f1
		} else {
			fx = f1
		}
	}
	a.genWord(res, fx)
	return nil
}

// invokeLiteral assembles a bracketed body into a side scope and saves the
// capture for materialisation after the main pass.
func (a *Assembler) invokeLiteral(mac *macro) error {
	a.pushScope(mac.name)
	err := a.parseText(mac.body, nil, nil, nil, false)
	words, fixups := a.popScope()
	if err != nil {
		return err
	}
	a.literals = append(a.literals, literal{name: mac.name, words: words, fixups: fixups})
	glog.V(2).Infof("asm: literal %s captured, %d words", mac.name, len(words))
	return nil
}

var reReserved = regexp.MustCompile(`(?i)([A-Z$%.?][0-9A-Z$%.]*)#`)

// preprocessOperands rewrites an operand field before expression or
// instruction parsing: the first bracketed region becomes an auto-named
// literal (repeatedly, so several literals on a line all resolve), and
// every NAME# token becomes NAME backed by a reserved variable. A bracket
// left open starts a cross-line capture; the caller's line resumes once it
// closes, with deferred reported true.
func (a *Assembler) preprocessOperands(operands, reparseOp string) (string, bool, error) {
	out := operands
	for {
		i := strings.IndexByte(out, '[')
		if i < 0 {
			break
		}
		end, ok := matchDelim(out, i, '[', ']')
		if !ok {
			name := a.newLiteralName()
			mac := &macro{name: name, kind: macLiteral, line: a.lineNo}
			a.def = macroCapture{
				phase:         awaitingOpen,
				openCh:        '[',
				closeCh:       ']',
				mac:           mac,
				line:          a.lineNo,
				pendingPrefix: reparseOp + "\t" + out[:i],
			}
			return "", true, a.captureFeed(out[i:])
		}
		name := a.newLiteralName()
		mac := &macro{name: name, kind: macLiteral, body: out[i+1 : end], line: a.lineNo}
		a.macros[name] = mac
		if err := a.invokeLiteral(mac); err != nil {
			return "", false, err
		}
		out = out[:i] + name + out[end+1:]
	}

	out = reReserved.ReplaceAllStringFunc(out, func(m string) string {
		sym := normalizeSymbol(m[:len(m)-1])
		name := "?" + sym
		if _, ok := a.macros[name]; !ok {
			a.macros[name] = &macro{name: name, kind: macReserved, body: sym + ": 0", line: a.lineNo}
			a.varQueue = append(a.varQueue, name)
		}
		return sym
	})
	return out, false, nil
}

func (a *Assembler) newLiteralName() string {
	a.nLiteral++
	return fmt.Sprintf("?%05d", a.nLiteral)
}

// paramBinding resolves a parameter name against the innermost enclosing
// macro invocation that declares it.
func (a *Assembler) paramBinding(name string) (string, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i := len(a.callStack) - 1; i >= 0; i-- {
		inv := a.callStack[i]
		for j, p := range inv.mac.params {
			if strings.ToUpper(strings.TrimSpace(p)) == name {
				return paramValue(j, inv.values, inv.mac.defaults), true
			}
		}
	}
	return "", false
}

// getValues parses a call-site value list: parenthesized or bare, comma
// separated, one layer of <> stripped from each value.
func getValues(operands string) []string {
	s := strings.TrimSpace(operands)
	if s == "" {
		return nil
	}
	if s[0] == '(' {
		if end, ok := matchDelim(s, 0, '(', ')'); ok {
			s = s[1:end]
		} else {
			s = s[1:]
		}
	}
	var values []string
	for _, v := range splitList(s) {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "<") && strings.HasSuffix(v, ">") {
			v = v[1 : len(v)-1]
		}
		values = append(values, v)
	}
	return values
}

func scanSymbol(s string) (string, string) {
	if s == "" || !isSymbolStart(s[0]) {
		return "", s
	}
	i := 1
	for i < len(s) && isSymbolChar(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

// scanBodyStart splits "expr <body>" or "expr,<body>" at the top level.
func scanBodyStart(s string) (expr, rest string) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case '<':
			if depth == 0 {
				return s[:i], s[i:]
			}
		case ',':
			if depth == 0 {
				return s[:i], s[i+1:]
			}
		}
	}
	return s, ""
}

// matchDelim finds the close delimiter matching the open one at position i.
func matchDelim(s string, i int, open, close byte) (int, bool) {
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return j, true
			}
		}
	}
	return 0, false
}

// splitList splits on top-level commas; parentheses, brackets and angle
// brackets protect their contents.
func splitList(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '<':
			depth++
		case ')', ']', '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// splitExpressions is splitList with the double-comma halfword operator
// kept inside its expression.
func splitExpressions(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '<':
			depth++
		case ')', ']', '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				if i+1 < len(s) && s[i+1] == ',' {
					i++
					continue
				}
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}
