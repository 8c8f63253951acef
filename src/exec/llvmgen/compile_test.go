package llvmgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rv32call/src/abi"
)

// ----------------------
// ----- Functions ------
// ----------------------

// TestBuildInlineAsmLoadsClassifiedRegisters checks that every classified
// integer register appears as an "li" preload before the call mnemonic.
func TestBuildInlineAsmLoadsClassifiedRegisters(t *testing.T) {
	args := []abi.Value{abi.Int32(7), abi.Int32(9)}
	c, err := abi.Classify(abi.CallDescriptor{Args: args}, abi.Soft)
	require.NoError(t, err)

	asm, constraints := buildInlineAsm("target_fn", c, abi.Soft, abi.RetInt)
	assert.Contains(t, asm, "li a0, 7")
	assert.Contains(t, asm, "li a1, 9")
	assert.Contains(t, asm, "call target_fn")
	assert.Contains(t, constraints, "~{ra}")
	assert.Contains(t, constraints, "~{memory}")

	loadIdx := strings.Index(asm, "li a0")
	callIdx := strings.Index(asm, "call target_fn")
	assert.Less(t, loadIdx, callIdx)
}

// TestBuildInlineAsmOmitsFloatClobbersUnderSoftABI checks that the
// soft (ilp32) ABI's clobber list never names a floating register, since
// no such registers exist under that ABI.
func TestBuildInlineAsmOmitsFloatClobbersUnderSoftABI(t *testing.T) {
	c, err := abi.Classify(abi.CallDescriptor{}, abi.Soft)
	require.NoError(t, err)

	_, constraints := buildInlineAsm("target_fn", c, abi.Soft, abi.RetInt)
	assert.NotContains(t, constraints, "~{fa0}")
	assert.NotContains(t, constraints, "~{ft0}")
}

// TestBuildInlineAsmIncludesFloatClobbersUnderDoubleABI checks that the
// ilp32d ABI's clobber list names the full fa0-fa7/ft0-ft11 set.
func TestBuildInlineAsmIncludesFloatClobbersUnderDoubleABI(t *testing.T) {
	c, err := abi.Classify(abi.CallDescriptor{Args: []abi.Value{abi.Float64Val(1)}}, abi.DoubleFP)
	require.NoError(t, err)

	_, constraints := buildInlineAsm("target_fn", c, abi.DoubleFP, abi.RetDouble)
	assert.Contains(t, constraints, "~{fa0}")
	assert.Contains(t, constraints, "~{fa7}")
	assert.Contains(t, constraints, "~{ft11}")
}

// TestBuildInlineAsmLoadsFloatRegisterSingle checks that a classified
// fa-register is loaded with a real fmv.w.x under ilp32f, not a comment.
func TestBuildInlineAsmLoadsFloatRegisterSingle(t *testing.T) {
	c, err := abi.Classify(abi.CallDescriptor{Args: []abi.Value{abi.Float32Val(2.5)}}, abi.Single)
	require.NoError(t, err)
	require.Equal(t, 1, c.UsedFP)

	asm, _ := buildInlineAsm("takes_float", c, abi.Single, abi.RetVoid)
	assert.NotContains(t, asm, "# fa0")
	loadIdx := strings.Index(asm, "fmv.w.x fa0, t0")
	callIdx := strings.Index(asm, "call takes_float")
	require.NotEqual(t, -1, loadIdx)
	require.NotEqual(t, -1, callIdx)
	assert.Less(t, loadIdx, callIdx)
}

// TestBuildInlineAsmLoadsFloatRegisterDouble checks that a classified
// fa-register is loaded with a real fld spanning the full 64-bit payload
// under ilp32d, not a comment.
func TestBuildInlineAsmLoadsFloatRegisterDouble(t *testing.T) {
	c, err := abi.Classify(abi.CallDescriptor{Args: []abi.Value{abi.Float64Val(-9.5)}}, abi.DoubleFP)
	require.NoError(t, err)
	require.Equal(t, 1, c.UsedFP)

	asm, _ := buildInlineAsm("takes_double", c, abi.DoubleFP, abi.RetVoid)
	assert.NotContains(t, asm, "# fa0")
	loadIdx := strings.Index(asm, "fld fa0, 0(sp)")
	callIdx := strings.Index(asm, "call takes_double")
	require.NotEqual(t, -1, loadIdx)
	require.NotEqual(t, -1, callIdx)
	assert.Less(t, loadIdx, callIdx)
}

// TestBuildInlineAsmCapturesFloatReturn checks that a FLOAT return under an
// FP-present ABI is moved out of fa0 into a0 before the output operands
// capture it, rather than leaving a0 undefined.
func TestBuildInlineAsmCapturesFloatReturn(t *testing.T) {
	c, err := abi.Classify(abi.CallDescriptor{}, abi.Single)
	require.NoError(t, err)

	asm, constraints := buildInlineAsm("returns_float", c, abi.Single, abi.RetFloat)
	moveIdx := strings.Index(asm, "fmv.x.w a0, fa0")
	callIdx := strings.Index(asm, "call returns_float")
	require.NotEqual(t, -1, moveIdx)
	require.NotEqual(t, -1, callIdx)
	assert.Less(t, callIdx, moveIdx)
	assert.Contains(t, asm, "mv $0, a0")
	assert.Contains(t, asm, "mv $1, a1")
	assert.True(t, strings.HasPrefix(constraints, "=r,=r,"))
}

// TestBuildInlineAsmCapturesDoubleReturn checks that a DOUBLE return under
// ilp32d is moved out of fa0 into the a0/a1 pair via the sp scratch slot
// before the output operands capture it.
func TestBuildInlineAsmCapturesDoubleReturn(t *testing.T) {
	c, err := abi.Classify(abi.CallDescriptor{}, abi.DoubleFP)
	require.NoError(t, err)

	asm, constraints := buildInlineAsm("returns_double", c, abi.DoubleFP, abi.RetDouble)
	storeIdx := strings.Index(asm, "fsd fa0, 0(sp)")
	callIdx := strings.Index(asm, "call returns_double")
	require.NotEqual(t, -1, storeIdx)
	require.NotEqual(t, -1, callIdx)
	assert.Less(t, callIdx, storeIdx)
	assert.Contains(t, asm, "lw a0, 0(sp)")
	assert.Contains(t, asm, "lw a1, 4(sp)")
	assert.Contains(t, constraints, "~{sp}")
}

// TestBuildInlineAsmLeavesLongLongPairIntact checks that a LONG_LONG return
// is captured straight from a0/a1 with no extra fold-in instructions.
func TestBuildInlineAsmLeavesLongLongPairIntact(t *testing.T) {
	c, err := abi.Classify(abi.CallDescriptor{}, abi.Soft)
	require.NoError(t, err)

	asm, _ := buildInlineAsm("returns_long_long", c, abi.Soft, abi.RetLongLong)
	assert.NotContains(t, asm, "fmv.x.w")
	assert.NotContains(t, asm, "fsd")
	assert.Contains(t, asm, "mv $0, a0")
	assert.Contains(t, asm, "mv $1, a1")
}

// TestBuildInlineAsmLeavesDoubleUnderSoftABIPairIntact checks that a
// DOUBLE return under the soft/single ABI, which is delivered in the real
// a0/a1 pair rather than fa0, is captured straight with no fold-in.
func TestBuildInlineAsmLeavesDoubleUnderSoftABIPairIntact(t *testing.T) {
	c, err := abi.Classify(abi.CallDescriptor{}, abi.Soft)
	require.NoError(t, err)

	asm, _ := buildInlineAsm("returns_double_soft", c, abi.Soft, abi.RetDouble)
	assert.NotContains(t, asm, "fmv.x.w")
	assert.NotContains(t, asm, "fsd")
	assert.NotContains(t, asm, "li a1, 0")
	assert.Contains(t, asm, "mv $0, a0")
	assert.Contains(t, asm, "mv $1, a1")
}

// TestGenTargetTripleIsFixedToRV32 checks that the resolved target triple
// always names RV32, never a host default or another architecture.
func TestGenTargetTripleIsFixedToRV32(t *testing.T) {
	_, tt, err := genTargetTriple()
	if err != nil {
		t.Skipf("LLVM RISC-V target not registered in this build: %s", err)
	}
	assert.Equal(t, "riscv32-unknown-none-elf", tt)
}

// TestCompileRejectsEmptyLabel checks that Compile validates its label
// parameter before touching any LLVM state.
func TestCompileRejectsEmptyLabel(t *testing.T) {
	c, err := abi.Classify(abi.CallDescriptor{}, abi.Soft)
	require.NoError(t, err)
	_, err = Compile("", "target_fn", c, abi.Soft, abi.RetInt, "")
	assert.Error(t, err)
}
