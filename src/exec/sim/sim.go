package sim

import (
	"fmt"
	"math"
	"reflect"

	"rv32call/src/abi"
	"rv32call/src/demote"
)

// Call runs desc against its registered callee. It first classifies desc
// under which so that any layout error (overflow, unknown tag) is reported
// before anything is invoked, exactly as a real trampoline would fail
// before ever adjusting the stack pointer. It then marshals desc.Args into
// the registered Go function's parameter types, invokes it through
// reflection, and re-encodes the single return value as the raw
// lo/hi/fp-bits state a real return sequence would leave in a0/a1/fa0.
func Call(desc abi.CallDescriptor, which abi.ABI) (demote.Raw, error) {
	if _, err := abi.Classify(desc, which); err != nil {
		return demote.Raw{}, fmt.Errorf("sim: %w", err)
	}

	fn, err := lookup(desc.Callee)
	if err != nil {
		return demote.Raw{}, err
	}

	ft := fn.Type()
	if ft.NumIn() != len(desc.Args) {
		return demote.Raw{}, fmt.Errorf("sim: callee at %#x wants %d arguments, descriptor supplies %d", desc.Callee, ft.NumIn(), len(desc.Args))
	}

	in := make([]reflect.Value, len(desc.Args))
	for i, arg := range desc.Args {
		in[i] = argToReflect(arg, ft.In(i))
	}

	out := fn.Call(in)
	return resultToRaw(out, desc.Ret, which)
}

// argToReflect converts a classified argument cell into a reflect.Value of
// the registered callee's declared parameter type, reversing whichever
// encoding the corresponding abi constructor applied.
func argToReflect(arg abi.Value, want reflect.Type) reflect.Value {
	switch arg.Tag {
	case abi.Float:
		return reflect.ValueOf(arg.AsFloat32()).Convert(want)
	case abi.Double:
		return reflect.ValueOf(arg.AsFloat64()).Convert(want)
	case abi.LongLong:
		return reflect.ValueOf(int64(arg.Bits64())).Convert(want)
	default:
		return reflect.ValueOf(int32(arg.Lo)).Convert(want)
	}
}

// resultToRaw encodes the callee's single return value (out[0], if
// present) into the raw register state the Return Demoter expects, per the
// declared return tag and ABI.
func resultToRaw(out []reflect.Value, ret abi.RetType, which abi.ABI) (demote.Raw, error) {
	if ret == abi.RetVoid {
		return demote.Raw{}, nil
	}
	if len(out) == 0 {
		return demote.Raw{}, fmt.Errorf("sim: callee returned no value but descriptor declares return type %s", ret)
	}
	v := out[0]

	switch ret {
	case abi.RetFloat:
		f32 := float32(v.Float())
		bits := uint64(math.Float32bits(f32))
		switch which {
		case abi.Single:
			return demote.Raw{FPBits: bits, HasFP: true}, nil
		case abi.DoubleFP:
			return demote.Raw{FPBits: bits | 0xFFFFFFFF00000000, HasFP: true}, nil
		default:
			return demote.Raw{IntLo: uint32(bits)}, nil
		}

	case abi.RetDouble:
		bits := math.Float64bits(v.Float())
		if which == abi.DoubleFP {
			return demote.Raw{FPBits: bits, HasFP: true}, nil
		}
		return demote.Raw{IntLo: uint32(bits), IntHi: uint32(bits >> 32)}, nil

	case abi.RetLongLong:
		u := toUint64(v)
		return demote.Raw{IntLo: uint32(u), IntHi: uint32(u >> 32)}, nil

	default:
		return demote.Raw{IntLo: uint32(toUint64(v))}, nil
	}
}

// toUint64 reads an integer-kinded reflect.Value regardless of whether the
// callee declared it signed, unsigned, or as a pointer-sized uintptr.
func toUint64(v reflect.Value) uint64 {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	default:
		return uint64(v.Int())
	}
}
