// Package llvmgen compiles one dynamic call site into a standalone RV32
// object file via LLVM, using an inline-assembly block to perform the
// argument load, call and register capture as a single atomic unit.
package llvmgen

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"tinygo.org/x/go-llvm"

	"rv32call/src/abi"
)

// Artifact is the result of compiling one call site: the raw object-code
// bytes and the path they were written to, when an output path was given.
type Artifact struct {
	Object []byte
	Path   string
}

// Compile builds a tiny LLVM module containing a single function,
// trampoline_<label>, that loads c's classified registers, issues the call
// to callee through one inline-assembly block, and returns the demoter's
// raw register pair. The module is compiled to an RV32 object file via
// LLVM's target-machine API, mirroring the target-triple/CPU selection and
// object-emission tail of a whole-program LLVM backend, scoped here to one
// function.
func Compile(label, callee string, c abi.Classified, which abi.ABI, ret abi.RetType, out string) (Artifact, error) {
	if label == "" {
		return Artifact{}, errors.New("llvmgen: Compile: label must not be empty")
	}

	llvm.InitializeAllTargetInfos()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmParsers()
	llvm.InitializeAllAsmPrinters()

	ctx := llvm.NewContext()
	defer ctx.Dispose()

	b := ctx.NewBuilder()
	defer b.Dispose()

	m := ctx.NewModule("trampoline_" + label)
	defer m.Dispose()

	i32 := llvm.Int32Type()
	i64 := llvm.Int64Type()

	// trampoline_<label>() -> i64, packing {lo, hi} as the low/high halves
	// of a single 64-bit result, matching the little-endian split the
	// Return Demoter expects.
	fnType := llvm.FunctionType(i64, nil, false)
	fn := llvm.AddFunction(m, "trampoline_"+label, fnType)
	entry := llvm.AddBasicBlock(fn, "entry")
	b.SetInsertPointAtEnd(entry)

	asm, constraints := buildInlineAsm(callee, c, which, ret)

	// The inline-asm block has two output operands, $0 and $1, into which it
	// copies a0 and a1: whichever register the callee actually left its
	// result in (a0/a1 directly, or fa0 folded in by the asm template below),
	// the pair always surfaces as these two i32s.
	pairTy := llvm.StructType([]llvm.Type{i32, i32}, false)
	asmType := llvm.FunctionType(pairTy, nil, false)
	call := llvm.InlineAsm(asmType, asm, constraints, true, false, llvm.InlineAsmDialectATT)
	raw := b.CreateCall(call, nil, "raw")

	lo := b.CreateExtractValue(raw, 0, "lo")
	hi := b.CreateExtractValue(raw, 1, "hi")
	loWide := b.CreateZExt(lo, i64, "lo.wide")
	hiWide := b.CreateZExt(hi, i64, "hi.wide")
	hiShifted := b.CreateShl(hiWide, llvm.ConstInt(i64, 32, false), "hi.shifted")
	result := b.CreateOr(loWide, hiShifted, "result")
	b.CreateRet(result)

	t, tt, err := genTargetTriple()
	if err != nil {
		return Artifact{}, err
	}

	cpu := "generic-rv32"
	features := ""
	tm := t.CreateTargetMachine(tt, cpu, features,
		llvm.CodeGenLevelNone,
		llvm.RelocDefault,
		llvm.CodeModelDefault)
	defer tm.Dispose()

	td := tm.CreateTargetData()
	defer td.Dispose()

	m.SetDataLayout(td.String())
	m.SetTarget(tm.Triple())

	buf, err := tm.EmitToMemoryBuffer(m, llvm.ObjectFile)
	if err != nil {
		return Artifact{}, err
	} else if buf.IsNil() {
		return Artifact{}, errors.New("llvmgen: could not emit compiled code to memory")
	}

	art := Artifact{Object: buf.Bytes()}
	if out != "" {
		if err := os.WriteFile(out, art.Object, 0644); err != nil {
			return Artifact{}, err
		}
		art.Path = out
	}
	return art, nil
}

// buildInlineAsm assembles the inline-asm template and constraint string
// for one call site: every a0-a7 the classifier populated is preloaded by
// an "li", every fa0-fa7 the classifier populated is staged through t0/t1
// and loaded with a real fmv.w.x (ilp32f) or fld off an 8-byte sp scratch
// slot (ilp32d), any stack-spilled words are stored into an outgoing area
// reserved below sp (released again right after the call), the call is
// issued, and the result is folded into the a0/a1 pair copied to the two
// output operands before the full ABI-mandated clobber set (ra, a0-a7,
// t0-t6, and under FP-present ABIs fa0-fa7/ft0-ft11, plus sp whenever the
// block moves sp) is declared so LLVM never reorders a live value across
// the block.
func buildInlineAsm(callee string, c abi.Classified, which abi.ABI, ret abi.RetType) (asm, constraints string) {
	var sb strings.Builder
	for i := 0; i < c.UsedInt; i++ {
		fmt.Fprintf(&sb, "li a%d, %d\n", i, c.IntRegs[i])
	}
	usesScratch := false
	if which != abi.Soft {
		for i := 0; i < c.UsedFP; i++ {
			bits := c.FPRegs[i]
			if which == abi.DoubleFP {
				fmt.Fprintf(&sb, "li t0, %d\n", uint32(bits))
				fmt.Fprintf(&sb, "li t1, %d\n", uint32(bits>>32))
				sb.WriteString("addi sp, sp, -8\n")
				sb.WriteString("sw t0, 0(sp)\n")
				sb.WriteString("sw t1, 4(sp)\n")
				fmt.Fprintf(&sb, "fld fa%d, 0(sp)\n", i)
				sb.WriteString("addi sp, sp, 8\n")
				usesScratch = true
			} else {
				fmt.Fprintf(&sb, "li t0, %d\n", uint32(bits))
				fmt.Fprintf(&sb, "fmv.w.x fa%d, t0\n", i)
			}
		}
	}
	if c.UsedStackWords > 0 {
		// Outgoing stack area: slot 0 at the lowest address, the whole area
		// sized to c.StackByteSize so sp stays 16-byte aligned at the call.
		fmt.Fprintf(&sb, "addi sp, sp, -%d\n", c.StackByteSize)
		for i, word := range c.Stack {
			fmt.Fprintf(&sb, "li t0, %d\n", word)
			fmt.Fprintf(&sb, "sw t0, %d(sp)\n", i*4)
		}
		usesScratch = true
	}
	fmt.Fprintf(&sb, "call %s\n", callee)
	if c.UsedStackWords > 0 {
		fmt.Fprintf(&sb, "addi sp, sp, %d\n", c.StackByteSize)
	}

	// Fold whichever register the callee actually left its result in into
	// the a0/a1 pair the two output operands capture, so the caller never
	// needs to know the ABI's float/int return convention.
	switch {
	case ret == abi.RetFloat && which != abi.Soft:
		sb.WriteString("fmv.x.w a0, fa0\n")
		sb.WriteString("li a1, 0\n")
	case ret == abi.RetDouble && which == abi.DoubleFP:
		sb.WriteString("addi sp, sp, -8\n")
		sb.WriteString("fsd fa0, 0(sp)\n")
		sb.WriteString("lw a0, 0(sp)\n")
		sb.WriteString("lw a1, 4(sp)\n")
		sb.WriteString("addi sp, sp, 8\n")
		usesScratch = true
	case ret == abi.RetLongLong, ret == abi.RetDouble:
		// LONG_LONG always returns in the a0/a1 pair; DOUBLE does too
		// under ilp32/ilp32f, where it is not delivered through fa0.
		// Nothing to fold.
	case ret == abi.RetVoid:
		sb.WriteString("li a0, 0\n")
		sb.WriteString("li a1, 0\n")
	default:
		// Narrow int/pointer return, or FLOAT under ilp32 (integer
		// convention): a0 already holds the meaningful word; a1 is
		// unspecified by the callee, so zero it for a deterministic pair.
		sb.WriteString("li a1, 0\n")
	}
	sb.WriteString("mv $0, a0\n")
	sb.WriteString("mv $1, a1\n")

	clobbers := []string{"~{ra}", "~{a0}", "~{a1}", "~{a2}", "~{a3}", "~{a4}", "~{a5}", "~{a6}", "~{a7}",
		"~{t0}", "~{t1}", "~{t2}", "~{t3}", "~{t4}", "~{t5}", "~{t6}", "~{memory}"}
	if which != abi.Soft {
		clobbers = append(clobbers, "~{fa0}", "~{fa1}", "~{fa2}", "~{fa3}", "~{fa4}", "~{fa5}", "~{fa6}", "~{fa7}",
			"~{ft0}", "~{ft1}", "~{ft2}", "~{ft3}", "~{ft4}", "~{ft5}", "~{ft6}", "~{ft7}",
			"~{ft8}", "~{ft9}", "~{ft10}", "~{ft11}")
	}
	if usesScratch {
		clobbers = append(clobbers, "~{sp}")
	}

	return sb.String(), "=r,=r," + strings.Join(clobbers, ",")
}

// genTargetTriple resolves the fixed riscv32-unknown-none-elf target
// triple this package always compiles against: the trampoline never
// targets any architecture other than RV32.
func genTargetTriple() (llvm.Target, string, error) {
	tt := "riscv32-unknown-none-elf"
	t, err := llvm.GetTargetFromTriple(tt)
	if err != nil {
		return llvm.Target{}, "", fmt.Errorf("llvmgen: %w", err)
	}
	return t, tt, nil
}
