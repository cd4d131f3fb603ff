package pdp10

// The PDP-10 works in 36-bit words. Values are carried in int64 so that
// intermediate arithmetic stays exact; a stored word is always in
// [0, WordLimit).
const (
	WordLimit int64 = 1 << 36
	IntLimit  int64 = 1 << 35
	WordMask  int64 = WordLimit - 1

	HalfLimit int64 = 1 << 18
	HalfMask  int64 = HalfLimit - 1
)

// Instruction word layout: opcode in bits 0-8 (DEC numbering, high bits),
// accumulator in 9-12, indirect in 13, index in 14-17, address in 18-35.
const (
	OpcodeMask int64 = 0o777 << 27
	ACMask     int64 = 0o17 << 23
	IndMask    int64 = 1 << 22
	IdxMask    int64 = 0o17 << 18
	AddrMask   int64 = 0o777777

	OpcodeShift = 27
	ACShift     = 23
	IdxShift    = 18
)
