package asm

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"gomacro10/pkg/pdp10"
)

// benchSource builds a program shaped like a small diagnostic: labelled
// instructions, literals, a macro, and text blocks.
func benchSource(n int) string {
	var b strings.Builder
	b.WriteString("DEFINE CHK(A,B)<CAME A,B\n JRST FAIL>\n")
	b.WriteString("FAIL: NOP\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "T%d: MOVE 1,[%o,,%o]\n", i, i, i)
		fmt.Fprintf(&b, "CHK 1,[%o,,%o]\n", i, i)
	}
	b.WriteString("ASCIZ /BENCHMARK TEXT BLOCK/\n")
	b.WriteString("END FAIL\n")
	return b.String()
}

func BenchmarkAssemble(b *testing.B) {
	src := benchSource(50)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := pdp10.NewMachine()
		m.Output = &bytes.Buffer{}
		a := New(m, 0, "")
		if err := a.Assemble(src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAssembleLiteralHeavy(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&sb, "MOVE 1,[%o]\n", i%8)
	}
	sb.WriteString("END\n")
	src := sb.String()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := pdp10.NewMachine()
		m.Output = &bytes.Buffer{}
		a := New(m, 0, "")
		if err := a.Assemble(src); err != nil {
			b.Fatal(err)
		}
	}
}
