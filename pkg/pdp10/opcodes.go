package pdp10

// The user-mode instruction set is built from families rather than one flat
// table: most PDP-10 opcodes come in groups of four (plain, Immediate,
// Memory, Self/Both) or eight (the skip/jump condition sets), and the octal
// opcode is the family base plus a fixed offset.

var opcodes = map[string]int64{}

// full-word move and arithmetic families, modes "", I, M, S
var moveOps = map[string]int64{
	"MOVE": 0o200,
	"MOVS": 0o204,
	"MOVN": 0o210,
	"MOVM": 0o214,
}

// modes "", I, M, B
var arithOps = map[string]int64{
	"IMUL": 0o220,
	"MUL":  0o224,
	"IDIV": 0o230,
	"DIV":  0o234,
	"ADD":  0o270,
	"SUB":  0o274,
}

// boolean group: sixteen functions at 400+4n, modes "", I, M, B
var boolOps = []string{
	"SETZ", "AND", "ANDCA", "SETM",
	"ANDCM", "SETA", "XOR", "IOR",
	"ANDCB", "EQV", "SETCA", "ORCA",
	"SETCM", "ORCM", "ORCB", "SETO",
}

// condition families, one opcode per condition suffix
var condOps = map[string]int64{
	"CAI":  0o300,
	"CAM":  0o310,
	"JUMP": 0o320,
	"SKIP": 0o330,
	"AOJ":  0o340,
	"AOS":  0o350,
	"SOJ":  0o360,
	"SOS":  0o370,
}

var condSuffixes = []string{"", "L", "E", "LE", "A", "GE", "N", "G"}

// halfword transfer bases; each expands with modifier "", Z, O, E (+10o)
// and mode "", I, M, S (+1)
var halfOps = map[string]int64{
	"HLL": 0o500,
	"HRL": 0o504,
	"HRR": 0o540,
	"HLR": 0o544,
}

// one-of-a-kind opcodes
var plainOps = map[string]int64{
	"DMOVE":  0o120,
	"DMOVN":  0o121,
	"DMOVEM": 0o124,
	"DMOVNM": 0o125,
	"ASH":    0o240,
	"ROT":    0o241,
	"LSH":    0o242,
	"JFFO":   0o243,
	"ASHC":   0o244,
	"ROTC":   0o245,
	"LSHC":   0o246,
	"EXCH":   0o250,
	"BLT":    0o251,
	"AOBJP":  0o252,
	"AOBJN":  0o253,
	"JRST":   0o254,
	"JFCL":   0o255,
	"XCT":    0o256,
	"PUSHJ":  0o260,
	"PUSH":   0o261,
	"POP":    0o262,
	"POPJ":   0o263,
	"JSR":    0o264,
	"JSP":    0o265,
	"JSA":    0o266,
	"JRA":    0o267,
}

func init() {
	for name, base := range moveOps {
		for i, sfx := range []string{"", "I", "M", "S"} {
			opcodes[name+sfx] = base + int64(i)
		}
	}
	for name, base := range arithOps {
		for i, sfx := range []string{"", "I", "M", "B"} {
			opcodes[name+sfx] = base + int64(i)
		}
	}
	for n, name := range boolOps {
		for i, sfx := range []string{"", "I", "M", "B"} {
			opcodes[name+sfx] = 0o400 + 4*int64(n) + int64(i)
		}
	}
	for name, base := range condOps {
		for i, sfx := range condSuffixes {
			opcodes[name+sfx] = base + int64(i)
		}
	}
	for name, base := range halfOps {
		for mi, mod := range []string{"", "Z", "O", "E"} {
			for si, sfx := range []string{"", "I", "M", "S"} {
				opcodes[name+mod+sfx] = base + 0o10*int64(mi) + int64(si)
			}
		}
	}
	// test group: T <half> <modification> <condition>
	halves := map[string]int64{"R": 0, "L": 1, "D": 0o10, "S": 0o11}
	mods := map[string]int64{"N": 0, "Z": 0o20, "C": 0o40, "O": 0o60}
	conds := map[string]int64{"": 0, "E": 2, "A": 4, "N": 6}
	for h, ho := range halves {
		for m, mo := range mods {
			for c, co := range conds {
				opcodes["T"+h+m+c] = 0o600 + ho + mo + co
			}
		}
	}
	for name, op := range plainOps {
		opcodes[name] = op
	}
	// MACRO-10 conveniences
	opcodes["OR"] = opcodes["IOR"]
	opcodes["ORI"] = opcodes["IORI"]
	opcodes["ORM"] = opcodes["IORM"]
	opcodes["ORB"] = opcodes["IORB"]
	opcodes["NOP"] = opcodes["JFCL"]
}

// Opcode returns the 9-bit opcode for a mnemonic, or false when the name is
// not a machine instruction.
func Opcode(name string) (int64, bool) {
	op, ok := opcodes[name]
	return op, ok
}
