// Package descfile decodes call-descriptor JSON documents into the abi
// package's CallDescriptor values. A document is either a single call
// object or an array of them, the latter driving the CLI's parallel
// scenario runner.
package descfile

import (
	"encoding/json"
	"fmt"

	"rv32call/src/abi"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// argDoc is the JSON shape of one argument cell. Exactly one of Int, Float
// or Ptr is populated, selected by Type.
type argDoc struct {
	Type  string   `json:"type"`
	Int   *int64   `json:"int,omitempty"`
	Float *float64 `json:"float,omitempty"`
	Ptr   *uint32  `json:"ptr,omitempty"`
}

// callDoc is the JSON shape of one call descriptor.
type callDoc struct {
	Callee uint32   `json:"callee"`
	Ret    string   `json:"ret"`
	Args   []argDoc `json:"args"`
}

// ---------------------
// ----- Functions -----
// ---------------------

// Load decodes raw into one or more call descriptors. raw may hold either a
// single call object or a JSON array of them.
func Load(raw []byte) ([]abi.CallDescriptor, error) {
	trimmed := trimLeadingSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var docs []callDoc
		if err := json.Unmarshal(raw, &docs); err != nil {
			return nil, fmt.Errorf("descfile: %w", err)
		}
		out := make([]abi.CallDescriptor, len(docs))
		for i, d := range docs {
			desc, err := toDescriptor(d)
			if err != nil {
				return nil, fmt.Errorf("descfile: entry %d: %w", i, err)
			}
			out[i] = desc
		}
		return out, nil
	}

	var d callDoc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("descfile: %w", err)
	}
	desc, err := toDescriptor(d)
	if err != nil {
		return nil, fmt.Errorf("descfile: %w", err)
	}
	return []abi.CallDescriptor{desc}, nil
}

// trimLeadingSpace skips JSON whitespace so Load can sniff the first
// meaningful byte without a full parse.
func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\n', '\r':
			i++
			continue
		}
		break
	}
	return b[i:]
}

// toDescriptor converts one decoded callDoc into an abi.CallDescriptor,
// resolving its type-tag strings and building each argument's 64-bit cell.
func toDescriptor(d callDoc) (abi.CallDescriptor, error) {
	ret, err := parseRetType(d.Ret)
	if err != nil {
		return abi.CallDescriptor{}, err
	}
	args := make([]abi.Value, len(d.Args))
	for i, a := range d.Args {
		v, err := toValue(a)
		if err != nil {
			return abi.CallDescriptor{}, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = v
	}
	return abi.CallDescriptor{Callee: d.Callee, Ret: ret, Args: args}, nil
}

// toValue converts one argDoc into a tagged abi.Value.
func toValue(a argDoc) (abi.Value, error) {
	switch a.Type {
	case "char":
		return abi.Char32(int32(need(a.Int))), nil
	case "short":
		return abi.Short32(int32(need(a.Int))), nil
	case "int":
		return abi.Int32(int32(need(a.Int))), nil
	case "long":
		return abi.Long32(int32(need(a.Int))), nil
	case "long_long":
		return abi.LongLong64(need(a.Int)), nil
	case "float":
		return abi.Float32Val(float32(needF(a.Float))), nil
	case "double":
		return abi.Float64Val(needF(a.Float)), nil
	case "pointer":
		return abi.Ptr32(needP(a.Ptr)), nil
	default:
		return abi.Value{}, fmt.Errorf("unknown argument type %q", a.Type)
	}
}

func need(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func needF(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func needP(p *uint32) uint32 {
	if p == nil {
		return 0
	}
	return *p
}

// parseRetType resolves a return-type tag string into its abi.RetType.
func parseRetType(s string) (abi.RetType, error) {
	switch s {
	case "void":
		return abi.RetVoid, nil
	case "char":
		return abi.RetChar, nil
	case "short":
		return abi.RetShort, nil
	case "int":
		return abi.RetInt, nil
	case "long":
		return abi.RetLong, nil
	case "long_long":
		return abi.RetLongLong, nil
	case "float":
		return abi.RetFloat, nil
	case "double":
		return abi.RetDouble, nil
	case "pointer":
		return abi.RetPointer, nil
	default:
		return abi.RetVoid, fmt.Errorf("unknown return type %q", s)
	}
}
