package asmtext

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

// TestEmitNoArgsHasBalancedStackAdjustment checks that a zero-argument call
// site still emits a balanced stack-grow/shrink pair and a single call
// instruction.
func TestEmitNoArgsHasBalancedStackAdjustment(t *testing.T) {
	c, err := abi.Classify(abi.CallDescriptor{}, abi.Soft)
	require.NoError(t, err)

	text, err := Emit("call_site_0", "target_fn", c, abi.Soft)
	require.NoError(t, err)
	assert.Contains(t, text, "call_site_0:")
	assert.Contains(t, text, "call\ttarget_fn")

	growIdx := strings.Index(text, "addi\tsp, sp, -")
	require.NotEqual(t, -1, growIdx)
	grow := strings.TrimSpace(strings.Split(text[growIdx:], "\n")[0])
	frame := strings.TrimPrefix(grow, "addi\tsp, sp, -")
	assert.Contains(t, text, "addi\tsp, sp, "+frame)
}

// TestEmitLoadsClassifiedIntegerRegisters checks that every integer
// register the classifier assigned is loaded with an immediate before the
// call instruction.
func TestEmitLoadsClassifiedIntegerRegisters(t *testing.T) {
	args := []abi.Value{abi.Int32(11), abi.Int32(22), abi.Int32(33)}
	c, err := abi.Classify(abi.CallDescriptor{Args: args}, abi.Soft)
	require.NoError(t, err)

	text, err := Emit("call_site_1", "add3", c, abi.Soft)
	require.NoError(t, err)
	assert.Contains(t, text, "li\ta0, 11")
	assert.Contains(t, text, "li\ta1, 22")
	assert.Contains(t, text, "li\ta2, 33")
}

// TestEmitRejectsEmptyLabel checks that Emit validates its label parameter
// rather than producing malformed assembler text.
func TestEmitRejectsEmptyLabel(t *testing.T) {
	c, err := abi.Classify(abi.CallDescriptor{}, abi.Soft)
	require.NoError(t, err)
	_, err = Emit("", "target_fn", c, abi.Soft)
	assert.Error(t, err)
}

// TestEmitStackOverflowArgumentsStoredBeforeCall checks that stack-spilled
// arguments are stored before the call instruction appears in program
// order.
func TestEmitStackOverflowArgumentsStoredBeforeCall(t *testing.T) {
	args := make([]abi.Value, 9)
	for i := range args {
		args[i] = abi.Int32(int32(i))
	}
	c, err := abi.Classify(abi.CallDescriptor{Args: args}, abi.Soft)
	require.NoError(t, err)

	text, err := Emit("call_site_2", "sum9", c, abi.Soft)
	require.NoError(t, err)
	storeIdx := strings.Index(text, "li\tt0, 8")
	callIdx := strings.Index(text, "call\tsum9")
	require.NotEqual(t, -1, storeIdx)
	require.NotEqual(t, -1, callIdx)
	assert.Less(t, storeIdx, callIdx)
}

// TestEmitLoadsClassifiedFloatRegisterSingle checks that under ilp32f a
// classified fa-register is loaded with a real flw, not a comment, before
// the call instruction.
func TestEmitLoadsClassifiedFloatRegisterSingle(t *testing.T) {
	args := []abi.Value{abi.Float32Val(2.5)}
	c, err := abi.Classify(abi.CallDescriptor{Args: args}, abi.Single)
	require.NoError(t, err)
	require.Equal(t, 1, c.UsedFP)

	text, err := Emit("call_site_3", "takes_float", c, abi.Single)
	require.NoError(t, err)
	assert.NotContains(t, text, "# fa0")
	flwIdx := strings.Index(text, "flw\tfa0,")
	callIdx := strings.Index(text, "call\ttakes_float")
	require.NotEqual(t, -1, flwIdx)
	require.NotEqual(t, -1, callIdx)
	assert.Less(t, flwIdx, callIdx)
}

// TestEmitLoadsClassifiedFloatRegisterDouble checks that under ilp32d a
// classified fa-register is loaded with a real fld spanning the full
// 64-bit NaN-boxed/double payload, not a comment.
func TestEmitLoadsClassifiedFloatRegisterDouble(t *testing.T) {
	args := []abi.Value{abi.Float64Val(-9.5)}
	c, err := abi.Classify(abi.CallDescriptor{Args: args}, abi.DoubleFP)
	require.NoError(t, err)
	require.Equal(t, 1, c.UsedFP)

	text, err := Emit("call_site_4", "takes_double", c, abi.DoubleFP)
	require.NoError(t, err)
	assert.NotContains(t, text, "# fa0")
	fldIdx := strings.Index(text, "fld\tfa0,")
	callIdx := strings.Index(text, "call\ttakes_double")
	require.NotEqual(t, -1, fldIdx)
	require.NotEqual(t, -1, callIdx)
	assert.Less(t, fldIdx, callIdx)
}
