package pdp10

import "testing"

func TestOpcode(t *testing.T) {
	tests := []struct {
		name   string
		want   int64
		wantOk bool
	}{
		{"MOVE", 0o200, true},
		{"MOVEI", 0o201, true},
		{"MOVEM", 0o202, true},
		{"MOVNI", 0o211, true},
		{"ADD", 0o270, true},
		{"ADDB", 0o273, true},
		{"CAIE", 0o302, true},
		{"CAMGE", 0o315, true},
		{"JUMPN", 0o326, true},
		{"HRRZ", 0o550, true},
		{"HRRZI", 0o551, true},
		{"HLRE", 0o574, true},
		{"SETZ", 0o400, true},
		{"SETZB", 0o403, true},
		{"XORM", 0o432, true},
		{"ORB", 0o437, true},
		{"TRN", 0o600, true},
		{"TLNE", 0o603, true},
		{"TDZA", 0o634, true},
		{"TSON", 0o677, true},
		{"JRST", 0o254, true},
		{"NOP", 0o255, true},
		{"PUSHJ", 0o260, true},
		{"FOOBAR", 0, false},
	}
	for _, tc := range tests {
		got, ok := Opcode(tc.name)
		if got != tc.want || ok != tc.wantOk {
			t.Errorf("Opcode(%q) = %o, %v; want %o, %v", tc.name, got, ok, tc.want, tc.wantOk)
		}
	}
}

func TestParseExpression(t *testing.T) {
	m := NewMachine()
	m.SetVariable("FOO", 0o100)
	m.SetVariable("BAR", 3)

	tests := []struct {
		expr   string
		want   int64
		wantOk bool
	}{
		{"10", 0o10, true},
		{"18", 18, true}, // digits 8/9 make the number decimal
		{"^D10", 10, true},
		{"^O17", 0o17, true},
		{"^B101", 5, true},
		{"1+2*3", 7, true},
		{"(1+2)*3", 9, true},
		{"-1", -1, true},
		{"10-3-3", 2, true},
		{"FOO", 0o100, true},
		{"FOO+BAR", 0o103, true},
		{"foo", 0o100, true},
		{"'A'", 0o41, true},
		{"'a'", 0o41, true},
		{"\"A\"", 0o101, true},
		{"\"AB\"", 0o101<<7 | 0o102, true},
		{"1 + 2", 3, true},
		{"", 0, false},
		{"1++", 0, false},
		{"NOSUCH", 0, false},
		{"1/0", 0, false},
	}
	for _, tc := range tests {
		got, ok := m.ParseExpression(tc.expr, false)
		if got != tc.want || ok != tc.wantOk {
			t.Errorf("ParseExpression(%q) = %o, %v; want %o, %v", tc.expr, got, ok, tc.want, tc.wantOk)
		}
	}
}

func TestParseExpressionPass1(t *testing.T) {
	m := NewMachine()
	m.SetVariable("FOO", 5)

	// an undefined symbol reads as zero and marks the whole expression
	v, ok := m.ParseExpression("LATER+3", true)
	if !ok || v != 0 {
		t.Fatalf("ParseExpression(LATER+3, pass1) = %v, %v; want 0, true", v, ok)
	}
	if got := m.Undefined(); got != "LATER+3" {
		t.Errorf("Undefined() = %q; want %q", got, "LATER+3")
	}

	// a defined expression leaves no marker
	if v, ok = m.ParseExpression("FOO+1", true); !ok || v != 6 {
		t.Fatalf("ParseExpression(FOO+1, pass1) = %v, %v; want 6, true", v, ok)
	}
	if got := m.Undefined(); got != "" {
		t.Errorf("Undefined() = %q; want empty", got)
	}
}

func TestTruncate(t *testing.T) {
	m := NewMachine()
	tests := []struct {
		v        int64
		bits     int
		unsigned bool
		want     int64
	}{
		{5, 18, true, 5},
		{-1, 18, true, 0o777777},
		{HalfLimit + 3, 18, true, 3},
		{5, 36, true, 5},
		{-1, 36, true, WordMask},
		{WordLimit + 7, 36, true, 7},
		{0o400000, 18, false, -0o400000},
		{5, 18, false, 5},
	}
	for _, tc := range tests {
		if got := m.Truncate(tc.v, tc.bits, tc.unsigned); got != tc.want {
			t.Errorf("Truncate(%o, %d, %v) = %o; want %o", tc.v, tc.bits, tc.unsigned, got, tc.want)
		}
	}
}

func TestVariableRoundTrip(t *testing.T) {
	m := NewMachine()
	m.SetVariable("KEEP", 42)

	snap := m.ResetVariables()
	m.SetVariable("TEMP", 1)
	m.SetVariable("KEEP", 99)
	m.RestoreVariables(snap)

	if v, ok := m.Variable("KEEP"); !ok || v != 42 {
		t.Errorf("KEEP = %v, %v after restore; want 42, true", v, ok)
	}
	if _, ok := m.Variable("TEMP"); ok {
		t.Errorf("TEMP survived restore")
	}
}

func TestParseInstruction(t *testing.T) {
	m := NewMachine()
	m.SetVariable("DEST", 0o300)

	tests := []struct {
		name     string
		op, ops  string
		want     int64
	}{
		{"no operands", "NOP", "", 0o255 << OpcodeShift},
		{"immediate", "MOVEI", "1,5", 0o201<<OpcodeShift | 1<<ACShift | 5},
		{"symbolic address", "MOVE", "2,DEST", 0o200<<OpcodeShift | 2<<ACShift | 0o300},
		{"indirect", "MOVE", "1,@10", 0o200<<OpcodeShift | 1<<ACShift | IndMask | 0o10},
		{"indexed", "MOVE", "1,10(3)", 0o200<<OpcodeShift | 1<<ACShift | 3<<IdxShift | 0o10},
		{"index only", "ADD", "1,(2)", 0o270<<OpcodeShift | 1<<ACShift | 2<<IdxShift},
		{"address only", "JRST", "DEST", 0o254<<OpcodeShift | 0o300},
		{"negative address", "MOVEI", "1,-1", 0o201<<OpcodeShift | 1<<ACShift | 0o777777},
		{"fields only", "", "3,100", 3<<ACShift | 0o100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := m.ParseInstruction(tc.op, tc.ops, 0, false)
			if got != tc.want {
				t.Errorf("ParseInstruction(%q, %q) = %012o; want %012o", tc.op, tc.ops, got, tc.want)
			}
		})
	}

	if got := m.ParseInstruction("FOOBAR", "1,2", 0, false); got >= 0 {
		t.Errorf("ParseInstruction(FOOBAR) = %o; want negative", got)
	}

	// pass 1 defers an unresolved address and reports it
	got := m.ParseInstruction("MOVE", "1,LATER", 0, true)
	if want := 0o200<<OpcodeShift | int64(1)<<ACShift; got != want {
		t.Errorf("ParseInstruction(MOVE 1,LATER) = %012o; want %012o", got, want)
	}
	if m.Undefined() != "LATER" {
		t.Errorf("Undefined() = %q; want LATER", m.Undefined())
	}

	// without pass 1 the same operand fails
	if got := m.ParseInstruction("MOVE", "1,LATER", 0, false); got >= 0 {
		t.Errorf("ParseInstruction without pass1 = %o; want negative", got)
	}
}
