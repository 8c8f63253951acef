// Package asmtext emits RV32 assembler text for one dynamic call site,
// given its already-classified argument layout. It never assembles or
// links the output; it produces the textual instruction sequence a real
// assembler would turn into the call.
package asmtext

// Aliases used throughout this package, matching the RV32 ilp32 calling
// convention. Values are indices into regi/regf below.
const (
	ra = 1
	sp = 2
	t0 = 5
	t1 = 6
	t2 = 7
	t3 = 28
	t4 = 29
	t5 = 30
	t6 = 31
)

// ft0-ft11 name the RV32 D-extension floating temporary registers this
// package saves and restores around a call.
const (
	ft0  = 0
	ft7  = 7
	ft8  = 28
	ft11 = 31
)

// regi holds the canonical assembler mnemonic for every integer register.
var regi = [...]string{
	"x0", "ra", "sp", "x3", "x4", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// regf holds the canonical assembler mnemonic for every floating register.
var regf = [...]string{
	"ft0", "ft1", "ft2", "ft3", "ft4", "ft5", "ft6", "ft7",
	"fs0", "fs1", "fa0", "fa1", "fa2", "fa3", "fa4", "fa5",
	"fa6", "fa7", "fs2", "fs3", "fs4", "fs5", "fs6", "fs7",
	"fs8", "fs9", "fs10", "fs11", "ft8", "ft9", "ft10", "ft11",
}

const wordSize = 4    // This is a 32-bit implementation only, word size is 4 bytes.
const stackAlign = 16 // The stack must be aligned by 16 bytes.
