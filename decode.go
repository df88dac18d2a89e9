package m68k

// opFunc handles one MC68000 instruction given its first word already
// latched into c.ir. The registerXxx functions in the ops_*.go files install
// themselves into opcodeTable at init time, one slot per opcode encoding
// they're responsible for.
type opFunc func(*CPU)

// opcodeTable maps every possible 16-bit instruction word directly to its
// handler — a flat array instead of a decode cascade, so Step's dispatch is
// a single slice index regardless of which region of ROM or RAM the
// instruction was fetched from. A nil entry falls through to
// dispatchUndefined.
var opcodeTable [65536]opFunc
