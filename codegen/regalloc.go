package codegen

import (
	"strconv"

	"github.com/Flesymeb/rustlikec/ir"
)

// registers available to the allocator: $s0-$s7. The callees this emitter
// produces use the same pool without saving it, so residency is invalidated
// at every call site rather than preserved across jal.
var allRegs = []string{"$s0", "$s1", "$s2", "$s3", "$s4", "$s5", "$s6", "$s7"}

// RegisterManager binds variables to registers within one basic block. Vars
// are always reloaded from memory at the top of a block and, if their
// register copy is newer than memory, stored back out before the block's
// last jump: register residency never crosses a block boundary, which keeps
// the allocator a pure local (per-block) one.
type RegisterManager struct {
	free    []string          // free registers, used as a stack
	regVar  map[string]string // register -> variable currently bound to it
	varReg  map[string]string // variable -> register, if resident
	dirty   map[string]bool   // variable -> register copy newer than memory
	globals map[string]bool
	pool    []string // registers available to this manager, a prefix of allRegs
}

// NewRegisterManager creates a manager with regCount registers free, drawn
// from the front of allRegs. regCount is expected to already be clamped by
// the caller: a single quadruple can need up to three registers at once.
func NewRegisterManager(globals map[string]bool, regCount int) *RegisterManager {
	rm := &RegisterManager{
		regVar:  make(map[string]string),
		varReg:  make(map[string]string),
		dirty:   make(map[string]bool),
		globals: globals,
		pool:    allRegs[:regCount],
	}
	rm.resetFree()
	return rm
}

func (rm *RegisterManager) resetFree() {
	rm.free = append([]string{}, rm.pool...)
}

func isVariableOperand(s string) bool {
	if s == "" || s == "None" {
		return false
	}
	if _, err := strconv.Atoi(s); err == nil {
		return false
	}
	if len(s) > 0 && s[0] == '"' {
		return false
	}
	return true
}

// isLiveAfter reports whether varName is referenced by any quad at or after
// index idx in the remaining function, or is global (live past the
// function's own return). This is the out-set approximation: out_set of a
// point ∪ globals, computed with a forward scan rather than full dataflow.
// A backward jump can still reach earlier uses, so callers must only treat
// a clean (memory-backed) variable as discardable on this evidence.
func isLiveAfter(varName string, quads []ir.Quad, idx int, globals map[string]bool) bool {
	if globals[varName] {
		return true
	}
	for i := idx; i < len(quads); i++ {
		q := quads[i]
		if q.A1 == varName || q.A2 == varName || q.Dst == varName {
			return true
		}
	}
	return false
}

// chooseSpillVictim picks the resident variable whose next use (from idx
// onward) is farthest away, breaking ties by register index. A variable
// with no further use at all is the ideal victim and returns immediately.
// The pool is scanned in order so the choice is deterministic.
func (rm *RegisterManager) chooseSpillVictim(quads []ir.Quad, idx int) (string, string) {
	bestVar, bestReg := "", ""
	bestDist := -1
	for _, reg := range rm.pool {
		v, ok := rm.regVar[reg]
		if !ok {
			continue
		}
		dist := len(quads) // "never used again" sorts highest
		for i := idx; i < len(quads); i++ {
			q := quads[i]
			if q.A1 == v || q.A2 == v || q.Dst == v {
				dist = i
				break
			}
		}
		if dist == len(quads) {
			return v, reg
		}
		if dist > bestDist {
			bestDist = dist
			bestVar, bestReg = v, reg
		}
	}
	return bestVar, bestReg
}

// allocate returns a free register, spilling the farthest-next-use resident
// variable if none is free. emitSpillStore is called with (var, reg) when
// the victim's register copy is newer than memory and must be stored back.
func (rm *RegisterManager) allocate(quads []ir.Quad, idx int, emitSpillStore func(v, reg string)) string {
	if len(rm.free) > 0 {
		reg := rm.free[len(rm.free)-1]
		rm.free = rm.free[:len(rm.free)-1]
		return reg
	}
	victim, reg := rm.chooseSpillVictim(quads, idx)
	if rm.dirty[victim] {
		emitSpillStore(victim, reg)
	}
	delete(rm.dirty, victim)
	delete(rm.varReg, victim)
	delete(rm.regVar, reg)
	return reg
}

// bind records that varName now resides in reg. dirty marks the register
// copy as newer than the variable's memory slot (a computed value, as
// opposed to one just loaded from memory). If varName was already resident
// in a different register, that register is returned to the free pool: its
// old contents are superseded, not merely unbound.
func (rm *RegisterManager) bind(varName, reg string, dirty bool) {
	if oldReg, ok := rm.varReg[varName]; ok && oldReg != reg {
		delete(rm.regVar, oldReg)
		rm.free = append(rm.free, oldReg)
	}
	rm.varReg[varName] = reg
	rm.regVar[reg] = varName
	rm.dirty[varName] = dirty
}

// residentRegister returns the register currently holding varName, if any.
func (rm *RegisterManager) residentRegister(varName string) (string, bool) {
	r, ok := rm.varReg[varName]
	return r, ok
}

// isDirty reports whether varName's register copy is newer than its memory
// slot. A dirty variable must not be released without a store: a backward
// jump may reach a use the forward liveness scan cannot see.
func (rm *RegisterManager) isDirty(varName string) bool {
	return rm.dirty[varName]
}

// release frees reg without spilling: used once a register's last use has
// passed and its value is already in memory.
func (rm *RegisterManager) release(reg string) {
	if v, ok := rm.regVar[reg]; ok {
		delete(rm.varReg, v)
		delete(rm.dirty, v)
	}
	delete(rm.regVar, reg)
	rm.free = append(rm.free, reg)
}

// flushDirty stores every register-only value back to its memory slot, in
// register order, leaving the bindings intact but marked clean. Run before
// any instruction that leaves the block or hands the register pool to a
// callee.
func (rm *RegisterManager) flushDirty(emitStore func(v, reg string)) {
	for _, reg := range rm.pool {
		v, ok := rm.regVar[reg]
		if !ok || !rm.dirty[v] {
			continue
		}
		emitStore(v, reg)
		rm.dirty[v] = false
	}
}
