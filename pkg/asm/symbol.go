package asm

import "strings"

type symType int

const (
	symLabel symType = 1 << iota
	symPrivate
	symInternal
)

// symbol is one entry of the symbol table. Every insertion is mirrored
// into the host variable table so expressions can reference it.
type symbol struct {
	name  string
	value int64
	typ   symType
	line  int
}

// addSymbol defines or re-assigns a symbol. Redefining a label is an
// error; any other existing symbol is overwritten.
func (a *Assembler) addSymbol(name string, value int64, typ symType) error {
	name = normalizeSymbol(name)
	if prev, ok := a.symbols[name]; ok && prev.typ&symLabel != 0 {
		return a.errorf("label %s redefined (first defined at line %d)", name, prev.line)
	}
	a.symbols[name] = &symbol{name: name, value: value, typ: typ, line: a.lineNo}
	a.host.SetVariable(name, value)
	return nil
}

// Symbol names are upper-case and significant to six characters.
func normalizeSymbol(name string) string {
	name = strings.ToUpper(name)
	if len(name) > 6 {
		name = name[:6]
	}
	return name
}
