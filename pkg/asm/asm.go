// Package asm assembles a useful subset of DEC MACRO-10 source into a
// 36-bit word image. The pipeline runs in two conceptual phases: a line
// walk that emits words, deferred-expression fixups, literals and reserved
// variables, followed by materialisation of the literal pool (with exact
// collapsing), the variables, and resolution of every fixup.
package asm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/golang/glog"
)

const (
	wordLimit = int64(1) << 36
	intLimit  = int64(1) << 35

	// bound on nested macro invocation, so a self-invoking macro fails
	// with a diagnostic instead of exhausting the stack
	maxExpansion = 64
)

// Host is the collaborator that owns expression parsing, instruction
// encoding and the public variable table. pdp10.Machine implements it.
type Host interface {
	// ParseExpression evaluates an infix expression. With pass1 set, an
	// undefined symbol makes the whole expression evaluate to zero and
	// records its text, readable via Undefined, for a later fixup pass.
	ParseExpression(s string, pass1 bool) (int64, bool)
	// Undefined reports the unresolved text of the most recent
	// ParseExpression or ParseInstruction call, or "".
	Undefined() string
	// ParseInstruction encodes one instruction at the given location,
	// negative on failure. An empty op encodes operand fields only.
	ParseInstruction(op, operands string, loc int, pass1 bool) int64
	// ToStrWord renders a value so ParseExpression reads it back.
	ToStrWord(v int64) string
	// Truncate wraps v to bits.
	Truncate(v int64, bits int, unsigned bool) int64

	SetVariable(name string, value int64)
	ResetVariables() map[string]int64
	RestoreVariables(map[string]int64)

	// Println is the console sink for diagnostics and warnings.
	Println(s string)
}

// fixup is a deferred expression attached to an already-emitted word; its
// value is added into the word once every symbol is defined.
type fixup struct {
	expr string
	line int
}

// literal is a captured bracketed scope awaiting materialisation into the
// pool.
type literal struct {
	name   string
	words  []uint64
	fixups []fixup
}

// scopeFrame saves the output stream while a literal or OPDEF operand is
// assembled into a side buffer.
type scopeFrame struct {
	name     string
	words    []uint64
	fixups   map[int]fixup
	loc      int
	scopeLoc int
	line     int
}

type invocation struct {
	mac    *macro
	values []string
}

// Assembler holds the whole pipeline state for one program.
type Assembler struct {
	host    Host
	load    int
	options string

	words    []uint64
	fixups   map[int]fixup
	loc      int
	scopeLoc int

	symbols  map[string]*symbol
	macros   map[string]*macro
	literals []literal
	varQueue []string
	nLiteral int

	scopes    []scopeFrame
	callStack []*invocation
	depth     int

	def   macroCapture
	ascii asciiCapture

	lineNo    int
	ended     bool
	startExpr string
	start     int
	startSet  bool
}

// New returns an assembler that will place the first word at the given
// load address. Recognised option letters: "p" preprocesses only, echoing
// the joined source text to the host sink.
func New(host Host, load int, options string) *Assembler {
	return &Assembler{
		host:     host,
		load:     load,
		loc:      load,
		scopeLoc: -1,
		options:  options,
		fixups:   make(map[int]fixup),
		symbols:  make(map[string]*symbol),
		macros:   make(map[string]*macro),
	}
}

// Assemble runs the pipeline over the given source texts, joined in order.
// The host variable table is snapshotted first and restored before
// returning, so assembly leaves the host's public symbol environment
// untouched. The first fatal error aborts the pass; its message is also
// printed to the host sink.
func (a *Assembler) Assemble(sources ...string) error {
	text := normalizeLines(strings.Join(sources, "\n"))
	if strings.ContainsRune(a.options, 'p') {
		a.host.Println(text)
		return nil
	}

	snap := a.host.ResetVariables()
	defer a.host.RestoreVariables(snap)

	glog.V(1).Infof("asm: main pass, load address %o", a.load)
	err := a.parseText(text, nil, nil, nil, true)
	if err == nil {
		err = a.finish()
	}
	if err != nil {
		a.host.Println(err.Error())
		return err
	}
	return nil
}

// Image returns the assembled words from the load address up to the
// highest emitted location.
func (a *Assembler) Image() []uint64 {
	if a.load >= len(a.words) {
		return nil
	}
	return append([]uint64(nil), a.words[a.load:]...)
}

// Start returns the program start address. The bool reports whether the
// program declared one with an END operand; otherwise the load address is
// returned.
func (a *Assembler) Start() (int, bool) {
	if !a.startSet {
		return a.load, false
	}
	return a.start, true
}

func (a *Assembler) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("error at line %d: %s", a.lineNo, fmt.Sprintf(format, args...))
}

func (a *Assembler) warnf(format string, args ...interface{}) {
	a.host.Println(fmt.Sprintf("warning at line %d: %s", a.lineNo, fmt.Sprintf(format, args...)))
}

// genWord appends one word at the location counter, with an optional
// deferred expression to be added in later.
func (a *Assembler) genWord(w int64, fixupExpr string) {
	if w >= wordLimit || w < -intLimit {
		a.warnf("value %s truncated to 36 bits", a.host.ToStrWord(w))
	}
	w = a.host.Truncate(w, 36, true)
	for a.loc >= len(a.words) {
		a.words = append(a.words, 0)
	}
	a.words[a.loc] = uint64(w)
	if fixupExpr != "" {
		a.fixups[a.loc] = fixup{expr: fixupExpr, line: a.lineNo}
	}
	glog.V(2).Infof("asm: %06o/ %012o %q", a.loc, w, fixupExpr)
	a.loc++
}

func (a *Assembler) inScope() bool {
	return len(a.scopes) > 0
}

// pushScope redirects emission into a fresh side buffer whose location
// counter starts at zero. The outer location stays visible as the "."
// context.
func (a *Assembler) pushScope(name string) {
	a.scopes = append(a.scopes, scopeFrame{
		name:     name,
		words:    a.words,
		fixups:   a.fixups,
		loc:      a.loc,
		scopeLoc: a.scopeLoc,
		line:     a.lineNo,
	})
	a.scopeLoc = a.loc
	a.words = nil
	a.fixups = make(map[int]fixup)
	a.loc = 0
}

// popScope restores the outer stream and returns the captured words with
// their fixups aligned by index.
func (a *Assembler) popScope() ([]uint64, []fixup) {
	fr := a.scopes[len(a.scopes)-1]
	a.scopes = a.scopes[:len(a.scopes)-1]

	words := a.words
	for len(words) < a.loc {
		words = append(words, 0)
	}
	fixups := make([]fixup, len(words))
	for i := range fixups {
		fixups[i] = a.fixups[i]
	}

	a.words = fr.words
	a.fixups = fr.fixups
	a.loc = fr.loc
	a.scopeLoc = fr.scopeLoc
	return words, fixups
}

// dotLocation is the value "." stands for: the enclosing scope's saved
// location while assembling into a side buffer, else the live counter.
func (a *Assembler) dotLocation() int {
	if a.inScope() {
		return a.scopeLoc
	}
	return a.loc
}

// finish is the second phase: literals, reserved variables, then fixups.
func (a *Assembler) finish() error {
	if a.def.phase != idle {
		a.lineNo = a.def.line
		return a.errorf("unterminated macro definition")
	}
	if a.inScope() {
		a.lineNo = a.scopes[len(a.scopes)-1].line
		return a.errorf("unterminated literal")
	}
	if a.ascii.delim != 0 {
		return a.errorf("unterminated %s text", a.ascii.op)
	}

	glog.V(1).Infof("asm: pool at %o, %d literals, %d variables",
		a.loc, len(a.literals), len(a.varQueue))

	// END stopped the main walk; the pool walks below still run
	a.ended = false

	poolBase := a.loc
	for _, lit := range a.literals {
		if addr, ok := a.findLiteral(lit, poolBase); ok {
			glog.V(2).Infof("asm: literal %s collapsed to %o", lit.name, addr)
			if err := a.addSymbol(lit.name, int64(addr), symLabel); err != nil {
				return err
			}
			continue
		}
		if err := a.addSymbol(lit.name, int64(a.loc), symLabel); err != nil {
			return err
		}
		for i, w := range lit.words {
			a.lineNo = lit.fixups[i].line
			a.genWord(int64(w), lit.fixups[i].expr)
		}
	}

	for _, name := range a.varQueue {
		if err := a.parseText(a.macros[name].body, nil, nil, nil, false); err != nil {
			return err
		}
	}

	locs := make([]int, 0, len(a.fixups))
	for loc := range a.fixups {
		locs = append(locs, loc)
	}
	sort.Ints(locs)
	for _, loc := range locs {
		fx := a.fixups[loc]
		a.lineNo = fx.line
		v, ok := a.evalExpression(fx.expr, false, loc)
		if !ok {
			return a.errorf("unable to resolve expression %q", fx.expr)
		}
		w := int64(a.words[loc]) + v
		if w >= wordLimit || w < -intLimit {
			a.warnf("value %s truncated to 36 bits", a.host.ToStrWord(w))
		}
		a.words[loc] = uint64(a.host.Truncate(w, 36, true))
	}

	if a.startExpr != "" {
		v, ok := a.evalExpression(a.startExpr, false, a.loc)
		if !ok {
			return a.errorf("unable to resolve start address %q", a.startExpr)
		}
		a.start = int(v)
		a.startSet = true
	}
	return nil
}

// findLiteral looks for an already-materialised block in [base, loc) whose
// words and fixup expressions match exactly. No arithmetic equivalence is
// attempted.
func (a *Assembler) findLiteral(lit literal, base int) (int, bool) {
	n := len(lit.words)
	if n == 0 {
		return 0, false
	}
	for addr := base; addr+n <= a.loc; addr++ {
		match := true
		for i := 0; i < n; i++ {
			if a.words[addr+i] != lit.words[i] || a.fixups[addr+i].expr != lit.fixups[i].expr {
				match = false
				break
			}
		}
		if match {
			return addr, true
		}
	}
	return 0, false
}

func normalizeLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
