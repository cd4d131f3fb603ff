package asm

import "strings"

// asciiCapture carries ASCII/ASCIZ/SIXBIT text across lines until the
// closing delimiter shows up.
type asciiCapture struct {
	op    string
	delim byte
	buf   string
}

// opText handles the ASCII, ASCIZ and SIXBIT pseudo-ops. The first
// non-blank character of the raw tail is the delimiter; the text runs to
// its next occurrence, spanning lines if need be.
func (a *Assembler) opText(op, _, tail string) error {
	s := strings.TrimLeft(tail, " \t")
	if s == "" {
		return a.errorf("missing %s delimiter", op)
	}
	delim := s[0]
	rest := s[1:]
	if j := strings.IndexByte(rest, delim); j >= 0 {
		a.genText(op, rest[:j])
		return nil
	}
	a.ascii = asciiCapture{op: op, delim: delim, buf: rest + "\n"}
	return nil
}

func (a *Assembler) contASCII(line string) error {
	if j := strings.IndexByte(line, a.ascii.delim); j >= 0 {
		op, text := a.ascii.op, a.ascii.buf+line[:j]
		a.ascii = asciiCapture{}
		a.genText(op, text)
		return nil
	}
	a.ascii.buf += line + "\n"
	return nil
}

// genText packs text into words: five 7-bit characters per word for
// ASCII/ASCIZ (one padding bit at the right), six 6-bit characters for
// SIXBIT. A partial final word is zero padded.
func (a *Assembler) genText(op, text string) {
	if op == "ASCIZ" {
		text += "\x00"
	}
	if op == "SIXBIT" {
		for i := 0; i < len(text); i += 6 {
			var w int64
			for j := 0; j < 6; j++ {
				var c int64
				if i+j < len(text) {
					c = packSixbit(text[i+j])
				}
				w = w<<6 | c
			}
			a.genWord(w, "")
		}
		return
	}
	for i := 0; i < len(text); i += 5 {
		var w int64
		for j := 0; j < 5; j++ {
			var c int64
			if i+j < len(text) {
				c = int64(text[i+j]) & 0o177
			}
			w = w<<7 | c
		}
		a.genWord(w<<1, "")
	}
}

// SIXBIT folds lower case to upper, then biases by 040 and masks to six
// bits.
func packSixbit(c byte) int64 {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	return int64(c+0o40) & 0o77
}
