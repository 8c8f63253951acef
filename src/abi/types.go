// Package abi implements the RV32 ilp32/ilp32f/ilp32d argument classification
// and return-value demotion rules: the data model and classifier behind the
// dynamic call trampoline.
package abi

import "math"

// ArgType is the closed set of scalar argument types the classifier accepts.
type ArgType int

// Argument-type tags. CHAR, SHORT, INT, LONG and POINTER are 32-bit payloads;
// LONG_LONG and DOUBLE are 64-bit payloads; FLOAT is a 32-bit payload with
// floating-point classification.
const (
	Char ArgType = iota
	Short
	Int
	Long
	LongLong
	Float
	Double
	Pointer
)

// String returns a short mnemonic for the argument type.
func (t ArgType) String() string {
	switch t {
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	case LongLong:
		return "long long"
	case Float:
		return "float"
	case Double:
		return "double"
	case Pointer:
		return "pointer"
	default:
		return "unknown"
	}
}

// RetType is the closed set of return types, which additionally permits VOID.
type RetType int

// Return-type tags.
const (
	RetVoid RetType = iota
	RetChar
	RetShort
	RetInt
	RetLong
	RetLongLong
	RetFloat
	RetDouble
	RetPointer
)

// String returns a short mnemonic for the return type.
func (t RetType) String() string {
	switch t {
	case RetVoid:
		return "void"
	case RetChar:
		return "char"
	case RetShort:
		return "short"
	case RetInt:
		return "int"
	case RetLong:
		return "long"
	case RetLongLong:
		return "long long"
	case RetFloat:
		return "float"
	case RetDouble:
		return "double"
	case RetPointer:
		return "pointer"
	default:
		return "unknown"
	}
}

// ABI identifies one of the three ilp32 ABI variants. It is a compile-time
// constant for a real RV32 build; this module models it as an explicit
// value so the classifier, executor and demoter can be exercised for all
// three variants from one test binary.
type ABI int

const (
	// Soft is ilp32: no floating-point argument registers exist.
	Soft ABI = iota
	// Single is ilp32f: fa0-fa7 are 32-bit FLEN registers.
	Single
	// DoubleFP is ilp32d: fa0-fa7 are 64-bit FLEN registers.
	DoubleFP
)

// String returns the ABI's canonical name.
func (a ABI) String() string {
	switch a {
	case Soft:
		return "ilp32"
	case Single:
		return "ilp32f"
	case DoubleFP:
		return "ilp32d"
	default:
		return "unknown"
	}
}

// Value is a tagged 64-bit-wide argument or return cell. Small (32-bit)
// integer payloads occupy Lo; the upper 32 bits are unobserved for 32-bit
// types. 64-bit payloads split little-endian as {Lo, Hi}.
type Value struct {
	Tag ArgType
	Lo  uint32
	Hi  uint32
}

// Char32 returns a Value tagged CHAR holding v in the low 32 bits.
func Char32(v int32) Value { return Value{Tag: Char, Lo: uint32(v)} }

// Short32 returns a Value tagged SHORT holding v in the low 32 bits.
func Short32(v int32) Value { return Value{Tag: Short, Lo: uint32(v)} }

// Int32 returns a Value tagged INT holding v in the low 32 bits.
func Int32(v int32) Value { return Value{Tag: Int, Lo: uint32(v)} }

// Long32 returns a Value tagged LONG holding v in the low 32 bits.
func Long32(v int32) Value { return Value{Tag: Long, Lo: uint32(v)} }

// Ptr32 returns a Value tagged POINTER holding v.
func Ptr32(v uint32) Value { return Value{Tag: Pointer, Lo: v} }

// LongLong64 returns a Value tagged LONG_LONG holding the 64-bit v,
// little-endian split into Lo/Hi.
func LongLong64(v int64) Value {
	u := uint64(v)
	return Value{Tag: LongLong, Lo: uint32(u), Hi: uint32(u >> 32)}
}

// Float32Val returns a Value tagged FLOAT holding the IEEE-754 bits of v.
func Float32Val(v float32) Value {
	return Value{Tag: Float, Lo: math.Float32bits(v)}
}

// Float64Val returns a Value tagged DOUBLE holding the IEEE-754 bits of v,
// little-endian split into Lo/Hi.
func Float64Val(v float64) Value {
	u := math.Float64bits(v)
	return Value{Tag: Double, Lo: uint32(u), Hi: uint32(u >> 32)}
}

// Bits64 reassembles the Value's Lo/Hi pair into a single 64-bit word,
// little-endian: Lo occupies bits [0:32), Hi occupies bits [32:64).
func (v Value) Bits64() uint64 {
	return uint64(v.Lo) | uint64(v.Hi)<<32
}

// AsFloat32 reinterprets the low 32 bits as an IEEE-754 single.
func (v Value) AsFloat32() float32 { return math.Float32frombits(v.Lo) }

// AsFloat64 reinterprets the 64-bit pair as an IEEE-754 double.
func (v Value) AsFloat64() float64 { return math.Float64frombits(v.Bits64()) }

// CallDescriptor is the read-only description of one dynamic call: a raw
// callee entry address, its declared return type, and its ordered argument
// list. The trampoline never retains pointers into Args past the return of
// Call; the descriptor is borrowed for the duration of one call.
type CallDescriptor struct {
	// Callee is the raw entry address of the function to invoke. On a real
	// RV32 target this is the address an indirect jalr targets; under the
	// exec/sim reference backend it is instead a lookup key into a
	// registry of Go functions standing in for the RV32 callee.
	Callee uint32
	Ret    RetType
	Args   []Value
}
