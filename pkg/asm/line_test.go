package asm

import (
	"reflect"
	"testing"
)

func TestTokenizer(t *testing.T) {
	tests := []struct {
		line                          string
		label, op, operands, comment string
	}{
		{"MOVE 1,2", "", "MOVE", "1,2", ""},
		{"START: EXP 1,,2", "START:", "EXP", "1,,2", ""},
		{"LOOP:", "LOOP:", "", "", ""},
		{"  AOJA 2,.-1 ;bump and loop", "", "AOJA", "2,.-1 ", ";bump and loop"},
		{"A=5", "", "A", "=5", ""},
		{"; just a comment", "", "", "", "; just a comment"},
		{"", "", "", "", ""},
		{"777777", "", "", "777777", ""},
		{"$TAG: NOP", "$TAG:", "NOP", "", ""},
		{".LOOP: SOJG 1,.LOOP", ".LOOP:", "SOJG", "1,.LOOP", ""},
	}
	for _, tc := range tests {
		m := reLine.FindStringSubmatch(tc.line)
		if m == nil {
			t.Errorf("tokenizer rejected %q", tc.line)
			continue
		}
		if m[1] != tc.label || m[2] != tc.op || m[4] != tc.operands || m[5] != tc.comment {
			t.Errorf("tokenize(%q) = label %q op %q operands %q comment %q; want %q %q %q %q",
				tc.line, m[1], m[2], m[4], m[5], tc.label, tc.op, tc.operands, tc.comment)
		}
	}
}

func TestReplaceParam(t *testing.T) {
	tests := []struct {
		line, parm, value string
		want              string
		changed           bool
	}{
		{"MOVEM A,B", "A", "3", "MOVEM 3,B", true},
		{"MOVE'X 1,2", "X", "M", "MOVEM 1,2", true},
		{"X'TAG: EXP X", "X", "Q", "QTAG: EXP Q", true},
		{"AXB", "X", "1", "AXB", false},
		{"EXP A ;A stays", "A", "1", "EXP 1 ;A stays", true},
		{"EXP B", "A", "1", "EXP B", false},
	}
	for _, tc := range tests {
		got, changed := replaceParam(tc.line, tc.parm, tc.value)
		if got != tc.want || changed != tc.changed {
			t.Errorf("replaceParam(%q, %q, %q) = %q, %v; want %q, %v",
				tc.line, tc.parm, tc.value, got, changed, tc.want, tc.changed)
		}
	}
}

func TestSplitExpressions(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"1,2,3", []string{"1", "2", "3"}},
		{"1,,2", []string{"1,,2"}},
		{"1,,2,3", []string{"1,,2", "3"}},
		{"<1,2>,3", []string{"<1,2>", "3"}},
		{"A(1,2),B", []string{"A(1,2)", "B"}},
		{"", []string{""}},
	}
	for _, tc := range tests {
		if got := splitExpressions(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("splitExpressions(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitDoubleComma(t *testing.T) {
	l, r, ok := splitDoubleComma("135531,,246642")
	if !ok || l != "135531" || r != "246642" {
		t.Errorf("splitDoubleComma = %q, %q, %v", l, r, ok)
	}
	if _, _, ok := splitDoubleComma("1,2"); ok {
		t.Errorf("splitDoubleComma split a single comma")
	}
	if _, _, ok := splitDoubleComma("[1,,2]"); ok {
		t.Errorf("splitDoubleComma looked inside brackets")
	}
}

func TestRewriteDot(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{".", "1000"},
		{".-1", "1000-1"},
		{"2,.+3", "2,1000+3"},
		{".LOOP", ".LOOP"},
		{"3.5", "3.5"},
		{"'.'", "'.'"},
	}
	for _, tc := range tests {
		if got := rewriteDot(tc.in, "1000"); got != tc.want {
			t.Errorf("rewriteDot(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestGetValues(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"1,2,3", []string{"1", "2", "3"}},
		{"(1,2,3)", []string{"1", "2", "3"}},
		{"<1,2,3>", []string{"1,2,3"}},
		{"A,<B,C>", []string{"A", "B,C"}},
		{"", nil},
	}
	for _, tc := range tests {
		if got := getValues(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("getValues(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}
