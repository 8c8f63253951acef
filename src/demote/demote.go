// Package demote maps the raw register state left behind by a completed
// call back into a tagged return value, honouring the declared return type
// and the ABI's float/int return conventions.
package demote

import (
	"fmt"

	"rv32call/src/abi"
)

// Raw is the untagged register state captured immediately after a call
// returns: the low and high words of the integer return-register pair
// (a0/a1 on RV32) and, when the ABI provides one, the bit pattern left in
// the floating return register (fa0).
type Raw struct {
	IntLo  uint32
	IntHi  uint32
	FPBits uint64
	HasFP  bool // True when the executor populated FPBits (fa0 was read).
}

// Demote applies the decision table for ret across the three ABI variants
// and returns the corresponding tagged abi.Value. VOID discards raw
// entirely and yields the zero Value, whose Tag carries no meaning.
func Demote(ret abi.RetType, which abi.ABI, raw Raw) (abi.Value, error) {
	switch ret {
	case abi.RetVoid:
		return abi.Value{}, nil

	case abi.RetChar, abi.RetShort, abi.RetInt, abi.RetLong, abi.RetPointer:
		return demoteNarrowInt(ret, raw.IntLo), nil

	case abi.RetLongLong:
		return abi.LongLong64(int64(uint64(raw.IntLo) | uint64(raw.IntHi)<<32)), nil

	case abi.RetFloat:
		return demoteFloat(which, raw), nil

	case abi.RetDouble:
		return demoteDouble(which, raw), nil

	default:
		return abi.Value{}, fmt.Errorf("demote: unknown return tag %d", int(ret))
	}
}

// demoteNarrowInt narrows ret_int_lo to the width ret names, tagging the
// result with the matching argument type so it can be re-used as an
// argument to a subsequent call.
func demoteNarrowInt(ret abi.RetType, lo uint32) abi.Value {
	switch ret {
	case abi.RetChar:
		return abi.Char32(int32(int8(lo)))
	case abi.RetShort:
		return abi.Short32(int32(int16(lo)))
	case abi.RetLong:
		return abi.Long32(int32(lo))
	case abi.RetPointer:
		return abi.Ptr32(lo)
	default: // abi.RetInt
		return abi.Int32(int32(lo))
	}
}

// demoteFloat selects the FLOAT column of the decision table: ilp32 reads
// the 32-bit IEEE-754 bits from the integer return register, ilp32f reads
// them directly out of fa0, and ilp32d reads the low 32 bits of fa0's
// 64-bit container (the NaN-boxed single-precision payload).
func demoteFloat(which abi.ABI, raw Raw) abi.Value {
	switch which {
	case abi.Single:
		return abi.Value{Tag: abi.Float, Lo: uint32(raw.FPBits)}
	case abi.DoubleFP:
		return abi.Value{Tag: abi.Float, Lo: uint32(raw.FPBits)}
	default: // abi.Soft
		return abi.Value{Tag: abi.Float, Lo: raw.IntLo}
	}
}

// demoteDouble selects the DOUBLE column of the decision table: ilp32 and
// ilp32f reassemble the 64-bit value from the integer register pair,
// ilp32d reads it whole out of fa0.
func demoteDouble(which abi.ABI, raw Raw) abi.Value {
	if which == abi.DoubleFP {
		return abi.Value{Tag: abi.Double, Lo: uint32(raw.FPBits), Hi: uint32(raw.FPBits >> 32)}
	}
	return abi.Value{Tag: abi.Double, Lo: raw.IntLo, Hi: raw.IntHi}
}
