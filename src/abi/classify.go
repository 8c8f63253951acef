package abi

import "fmt"

// Register-file and stack-buffer capacities.
const (
	numIntRegs   = 8  // a0-a7.
	numFPRegs    = 8  // fa0-fa7, when the ABI provides them.
	maxStackWord = 64 // Bounded 32-bit stack-slot buffer.
	stackAlign   = 16 // Bytes; the outgoing stack area is always 16-byte aligned.
)

// Classified is the result of running the classifier over a CallDescriptor:
// the populated integer/floating argument register files, the overflow
// stack-word buffer, and the accounting needed by the call executor.
type Classified struct {
	IntRegs [numIntRegs]uint32 // a0-a7.
	FPRegs  [numFPRegs]uint64  // fa0-fa7; only meaningful when UsedFP > 0 and the ABI has FP registers.
	Stack   []uint32           // Word-addressed outgoing stack area, slot 0 at the lowest address.

	UsedInt        int // Number of integer registers assigned, in [0, 8].
	UsedFP         int // Number of floating registers assigned, in [0, 8].
	UsedStackWords int // len(Stack); kept as an explicit field for callers that want accounting without recomputing it.

	StackByteSize int64 // round_up(UsedStackWords*4, 16).
}

// Classify walks desc's argument list in order and assigns each scalar to an
// integer argument register, a floating argument register (when the ABI
// provides one and it is free), or a stack slot, applying doubleword
// alignment and ilp32d NaN-boxing.
//
// Classify is pure and deterministic: it performs no I/O and has no
// observable side effects beyond allocating and returning a fresh Classified
// value; no global scratch is shared between concurrent invocations, so
// concurrent calls never interfere with one another.
func Classify(desc CallDescriptor, which ABI) (Classified, error) {
	var c Classified
	c.Stack = make([]uint32, 0, 8)

	for i, arg := range desc.Args {
		if err := classifyOne(&c, arg, which); err != nil {
			return Classified{}, fmt.Errorf("argument %d: %w", i, err)
		}
	}

	c.UsedStackWords = len(c.Stack)
	if c.UsedStackWords > maxStackWord {
		return Classified{}, fmt.Errorf("classify: %d stack words exceeds buffer capacity %d", c.UsedStackWords, maxStackWord)
	}
	if c.UsedInt > numIntRegs {
		return Classified{}, fmt.Errorf("classify: integer register index %d exceeds %d", c.UsedInt, numIntRegs)
	}
	c.StackByteSize = roundUp16(int64(c.UsedStackWords) * 4)
	return c, nil
}

// classifyOne applies the per-argument placement rules to a single
// argument, in list order, mutating c in place.
func classifyOne(c *Classified, arg Value, which ABI) error {
	switch arg.Tag {
	case Char, Short, Int, Long, Pointer:
		place1WordInt(c, arg.Lo)
		return nil

	case LongLong:
		place2WordInt(c, arg.Lo, arg.Hi)
		return nil

	case Float:
		switch which {
		case Single:
			if c.UsedFP < numFPRegs {
				c.FPRegs[c.UsedFP] = uint64(arg.Lo) // Single-precision value, low half only.
				c.UsedFP++
				return nil
			}
		case DoubleFP:
			if c.UsedFP < numFPRegs {
				// NaN-box: upper 32 bits of the wide FP register are all-ones.
				c.FPRegs[c.UsedFP] = uint64(arg.Lo) | 0xFFFFFFFF00000000
				c.UsedFP++
				return nil
			}
		}
		// soft ABI, or fa0-fa7 exhausted: fall into the 1-word integer rule.
		place1WordInt(c, arg.Lo)
		return nil

	case Double:
		if which == DoubleFP {
			if c.UsedFP < numFPRegs {
				c.FPRegs[c.UsedFP] = arg.Bits64()
				c.UsedFP++
				return nil
			}
			// fa0-fa7 exhausted: fall into the 2-word integer rule.
		}
		// soft / single ABI, or ilp32d with FP registers exhausted.
		place2WordInt(c, arg.Lo, arg.Hi)
		return nil

	default:
		return fmt.Errorf("unknown argument tag %d", int(arg.Tag))
	}
}

// place1WordInt assigns a single 32-bit integer-classified word to the next
// free integer register, spilling to the stack buffer once the register
// file is exhausted. Spillage never moves earlier-assigned values.
func place1WordInt(c *Classified, word uint32) {
	if c.UsedInt < numIntRegs {
		c.IntRegs[c.UsedInt] = word
		c.UsedInt++
		return
	}
	c.Stack = append(c.Stack, word)
}

// place2WordInt assigns a 64-bit integer-classified payload (LONG_LONG, or
// DOUBLE under soft/single, or DOUBLE falling back from an exhausted ilp32d
// FP file) to a register pair, the a7/stack-word-0 split case, or an
// 8-byte-aligned stack slot pair.
func place2WordInt(c *Classified, lo, hi uint32) {
	switch {
	case c.UsedInt <= 6:
		// Pair starts at any index <= 6; no even-alignment requirement for
		// the register file itself.
		c.IntRegs[c.UsedInt] = lo
		c.UsedInt++
		c.IntRegs[c.UsedInt] = hi
		c.UsedInt++
	case c.UsedInt == 7:
		// Exactly one integer register remains: low word to a7, high word
		// to stack slot 0. No alignment padding is inserted in this split
		// case; it is ABI-mandated, not accidental.
		c.IntRegs[7] = lo
		c.UsedInt = 8
		c.Stack = append(c.Stack, hi)
	default:
		// Integer register file already full: pad to an 8-byte-aligned
		// stack offset, then append low word and high word in order.
		if len(c.Stack)%2 != 0 {
			c.Stack = append(c.Stack, 0)
		}
		c.Stack = append(c.Stack, lo, hi)
	}
}

// roundUp16 rounds n up to the next multiple of 16.
func roundUp16(n int64) int64 {
	return (n + stackAlign - 1) &^ (stackAlign - 1)
}
