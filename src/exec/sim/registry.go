// Package sim implements the software reference executor: it stands in for
// a real RV32 core by looking up a registered Go function for the
// descriptor's callee address, invoking it through reflection with
// arguments marshalled exactly as a classified register file would deliver
// them, and capturing its result as raw return-register state.
package sim

import (
	"fmt"
	"reflect"
	"sync"
)

// registry maps a callee address to the Go function standing in for the
// code a real trampoline would jalr to at that address. Guarded by mu so a
// Register call from one goroutine can never race a concurrent Call's
// Lookup from another.
type registry struct {
	mu    sync.RWMutex
	funcs map[uint32]reflect.Value
}

var global = &registry{funcs: make(map[uint32]reflect.Value)}

// Register binds addr to fn, a Go function value, so that a CallDescriptor
// naming addr as its callee can be executed by Call. fn must be a function;
// Register panics otherwise, failing loudly on programmer error rather than
// deferring it to first use.
func Register(addr uint32, fn interface{}) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(fmt.Sprintf("sim: Register(%#x, ...): value of kind %s is not a function", addr, v.Kind()))
	}
	global.mu.Lock()
	defer global.mu.Unlock()
	global.funcs[addr] = v
}

// Unregister removes any callee previously bound to addr. It is a no-op if
// addr was never registered.
func Unregister(addr uint32) {
	global.mu.Lock()
	defer global.mu.Unlock()
	delete(global.funcs, addr)
}

// lookup returns the Go function bound to addr, or an error if nothing is
// registered there.
func lookup(addr uint32) (reflect.Value, error) {
	global.mu.RLock()
	defer global.mu.RUnlock()
	fn, ok := global.funcs[addr]
	if !ok {
		return reflect.Value{}, fmt.Errorf("sim: no callee registered at address %#x", addr)
	}
	return fn, nil
}
