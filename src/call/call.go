// Package call exposes the trampoline's public entry points: Call executes
// a descriptor against the software reference executor and returns its
// tagged result; Generate produces assembler text or an LLVM-compiled
// object for the same descriptor without ever running it.
package call

import (
	"fmt"

	"rv32call/src/abi"
	"rv32call/src/demote"
	"rv32call/src/exec/asmtext"
	"rv32call/src/exec/llvmgen"
	"rv32call/src/exec/sim"
)

// Backend selects which executor Generate targets. Call always uses the
// reference simulator, since it is the only backend capable of producing a
// real numeric result on a host that cannot execute RV32 machine code.
type Backend int

// Backend identifiers.
const (
	BackendSim Backend = iota
	BackendAsmText
	BackendLLVM
)

// Options configures one Call or Generate invocation.
type Options struct {
	ABI     abi.ABI // Selected ilp32/ilp32f/ilp32d ABI.
	Backend Backend // Generate-only: which codegen backend to use.
	Label   string  // Generate-only: the name given to the generated call site.
	Out     string  // Generate-only: optional output path for llvmgen's object file.
}

// Call classifies desc under opt.ABI, executes it via the software
// reference executor against a previously sim.Register-ed callee, and
// demotes the raw result into a tagged abi.Value. This is the single
// operation described for the programmatic entry point: given a callee
// address, return type and argument list, produce a tagged return value.
func Call(desc abi.CallDescriptor, opt Options) (abi.Value, error) {
	raw, err := sim.Call(desc, opt.ABI)
	if err != nil {
		return abi.Value{}, fmt.Errorf("call: %w", err)
	}
	val, err := demote.Demote(desc.Ret, opt.ABI, raw)
	if err != nil {
		return abi.Value{}, fmt.Errorf("call: %w", err)
	}
	return val, nil
}

// Artifact is the codegen-only output of Generate: either a block of RV32
// assembler text (BackendAsmText) or a compiled object (BackendLLVM).
type Artifact struct {
	Assembly string
	Object   llvmgen.Artifact
}

// Generate classifies desc under opt.ABI and emits the call site through
// the backend named by opt.Backend. It never executes the callee; it only
// produces code that would. calleeName is the symbol Generate should
// target in the emitted call instruction.
func Generate(desc abi.CallDescriptor, calleeName string, opt Options) (Artifact, error) {
	c, err := abi.Classify(desc, opt.ABI)
	if err != nil {
		return Artifact{}, fmt.Errorf("call: %w", err)
	}

	label := opt.Label
	if label == "" {
		label = "call_site"
	}

	switch opt.Backend {
	case BackendAsmText:
		text, err := asmtext.Emit(label, calleeName, c, opt.ABI)
		if err != nil {
			return Artifact{}, fmt.Errorf("call: %w", err)
		}
		return Artifact{Assembly: text}, nil

	case BackendLLVM:
		art, err := llvmgen.Compile(label, calleeName, c, opt.ABI, desc.Ret, opt.Out)
		if err != nil {
			return Artifact{}, fmt.Errorf("call: %w", err)
		}
		return Artifact{Object: art}, nil

	default:
		return Artifact{}, fmt.Errorf("call: Generate does not support backend %d; use BackendAsmText or BackendLLVM", opt.Backend)
	}
}
