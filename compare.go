package mdbxt

/*
#include "compare.h"
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/erigontech/mdbx-go/mdbx"
)

// The engine takes comparators as plain C function pointers with no
// context argument, and cgo cannot hand it a Go function value. Instead a
// fixed table of C trampolines is compiled in; each trampoline knows its
// slot index and calls back into mdbxtCompare, which dispatches to the Go
// function registered for that slot.
//
// Slots are keyed by database name and role, so reinstalling a comparator
// after reopening an environment reuses the existing slot instead of
// consuming a fresh one.

const (
	cmpKeyRole  = "key"
	cmpItemRole = "item"
)

var cmpRegistry = struct {
	sync.RWMutex
	fns   []CmpFunc
	slots map[string]int
}{slots: make(map[string]int)}

// comparatorHandle registers fn under a stable slot and returns the C
// trampoline bound to that slot. A nil fn yields a nil handle. ok is
// false when every trampoline slot is already taken.
func comparatorHandle(role, name string, fn CmpFunc) (handle mdbx.CmpFunc, ok bool) {
	if fn == nil {
		return nil, true
	}
	key := role + "\x00" + name
	cmpRegistry.Lock()
	defer cmpRegistry.Unlock()
	slot, seen := cmpRegistry.slots[key]
	if seen {
		cmpRegistry.fns[slot] = fn
	} else {
		if len(cmpRegistry.fns) >= int(C.mdbxt_cmp_slots()) {
			return nil, false
		}
		slot = len(cmpRegistry.fns)
		cmpRegistry.fns = append(cmpRegistry.fns, fn)
		cmpRegistry.slots[key] = slot
	}
	return mdbx.CmpFunc(unsafe.Pointer(C.mdbxt_cmp_at(C.int(slot)))), true
}

//export mdbxtCompare
func mdbxtCompare(slot C.int, a, b *C.mdbxt_val) C.int {
	cmpRegistry.RLock()
	fn := cmpRegistry.fns[slot]
	cmpRegistry.RUnlock()
	av := unsafe.Slice((*byte)(a.base), int(a.len))
	bv := unsafe.Slice((*byte)(b.base), int(b.len))
	return C.int(fn(av, bv))
}
