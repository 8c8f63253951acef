package asmtext

import (
	"fmt"

	"rv32call/src/abi"
	"rv32call/src/util"
)

// Emit writes the RV32 assembler text for a single dynamic call to callee,
// given its pre-computed argument layout c, into a fresh label named
// label. The emitted sequence:
//
//  1. reserves stack space for the saved registers (ra, t0-t6,
//     ft0-ft11), the fa0-fa7 staging area and the classified
//     stack-argument area,
//  2. saves ra and the temporaries t0-t6 and ft0-ft11; a0-a7 and fa0-fa7
//     are not saved, since they carry the arguments in and the result out,
//  3. loads a0-a7 from c, stages each used fa-register's bit pattern to
//     its staging slot via t0 and loads it from there with a real
//     flw/fld, and stores any overflow words to the reserved stack area,
//  4. issues the call,
//  5. restores the saved volatile registers and deallocates the stack,
//
// with no branches or labels inside the sequence, so the whole block reads
// as one atomic unit the way a hand-written trampoline's inline assembly
// would.
func Emit(label, callee string, c abi.Classified, which abi.ABI) (string, error) {
	if label == "" {
		return "", fmt.Errorf("asmtext: Emit: label must not be empty")
	}

	wr := util.Writer{}
	const clobberBytes = 80 // ra (4) + t0-t6 (7*4) + ft0-ft11 (12*4) = 4 + 28 + 48.

	// fa0-fa7 never carry data directly from an immediate; each used
	// register's bit pattern is staged through a scratch stack slot first.
	// Single-precision FLEN needs one word per register, double-precision
	// FLEN needs two.
	fpWordsPerReg := 1
	if which == abi.DoubleFP {
		fpWordsPerReg = 2
	}
	stackArgBytes := c.UsedStackWords * wordSize
	fpScratchBytes := c.UsedFP * fpWordsPerReg * wordSize
	fpScratchBase := stackArgBytes

	frame := stackArgBytes + fpScratchBytes + clobberBytes
	if res := frame % stackAlign; res != 0 {
		frame += stackAlign - res
	}

	wr.Label(label)
	wr.Ins2imm("addi", regi[sp], regi[sp], -frame)

	// Save the return address, which the call below overwrites, and the
	// volatile integer temporaries.
	idx := fpScratchBase + fpScratchBytes
	wr.LoadStore("sw", regi[ra], idx, regi[sp])
	idx += wordSize
	for r := t0; r <= t2; r++ {
		wr.LoadStore("sw", regi[r], idx, regi[sp])
		idx += wordSize
	}
	for r := t3; r <= t6; r++ {
		wr.LoadStore("sw", regi[r], idx, regi[sp])
		idx += wordSize
	}
	// Save volatile floating temporaries; only meaningful under an FP ABI,
	// but saved unconditionally since a dynamic callee's true clobber set
	// is never known in advance.
	for r := ft0; r <= ft7; r++ {
		wr.LoadStore("fsw", regf[r], idx, regi[sp])
		idx += wordSize
	}
	for r := ft8; r <= ft11; r++ {
		wr.LoadStore("fsw", regf[r], idx, regi[sp])
		idx += wordSize
	}

	// Store overflow stack arguments at the bottom of the frame, below the
	// fa-staging area, slot 0 at the lowest address.
	for i, word := range c.Stack {
		wr.Write("\tli\tt0, %d\n", word)
		wr.LoadStore("sw", regi[t0], i*wordSize, regi[sp])
	}

	// Load classified integer argument registers.
	for i := 0; i < c.UsedInt; i++ {
		wr.Write("\tli\t%s, %d\n", regi[10+i], c.IntRegs[i])
	}
	// Load classified floating argument registers, when the ABI provides
	// them: stage the bit pattern through t0/the scratch slot, then issue
	// a real flw (single FLEN) or fld (double FLEN) from it.
	if which != abi.Soft {
		for i := 0; i < c.UsedFP; i++ {
			off := fpScratchBase + i*fpWordsPerReg*wordSize
			bits := c.FPRegs[i]
			if which == abi.DoubleFP {
				wr.Write("\tli\tt0, %d\n", uint32(bits))
				wr.LoadStore("sw", regi[t0], off, regi[sp])
				wr.Write("\tli\tt0, %d\n", uint32(bits>>32))
				wr.LoadStore("sw", regi[t0], off+wordSize, regi[sp])
				wr.LoadStore("fld", regf[10+i], off, regi[sp])
			} else {
				wr.Write("\tli\tt0, %d\n", uint32(bits))
				wr.LoadStore("sw", regi[t0], off, regi[sp])
				wr.LoadStore("flw", regf[10+i], off, regi[sp])
			}
		}
	}

	wr.Ins1("call", callee)

	// Restore the saved registers from the slots they were saved to.
	idx = fpScratchBase + fpScratchBytes
	wr.LoadStore("lw", regi[ra], idx, regi[sp])
	idx += wordSize
	for r := t0; r <= t2; r++ {
		wr.LoadStore("lw", regi[r], idx, regi[sp])
		idx += wordSize
	}
	for r := t3; r <= t6; r++ {
		wr.LoadStore("lw", regi[r], idx, regi[sp])
		idx += wordSize
	}
	for r := ft0; r <= ft7; r++ {
		wr.LoadStore("flw", regf[r], idx, regi[sp])
		idx += wordSize
	}
	for r := ft8; r <= ft11; r++ {
		wr.LoadStore("flw", regf[r], idx, regi[sp])
		idx += wordSize
	}

	wr.Ins2imm("addi", regi[sp], regi[sp], frame)
	wr.Write("\tret\n")

	return wr.String(), nil
}
