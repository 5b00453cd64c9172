package codegen

import (
	"strconv"

	"github.com/Flesymeb/rustlikec/ir"
)

// frame is the stack layout for one function: every scalar variable and
// every array/tuple variable gets a fixed memory home, assigned ahead of
// emission by scanning the function's quads once. A register is always a
// cache of a variable's value, never its only home.
type frame struct {
	scalarOffset map[string]int
	arrayBase    map[string]int
	arraySize    map[string]int
	size         int // bytes reserved for locals, excluding the saved-$ra slot
}

func computeFrame(quads []ir.Quad, paramNames []string) *frame {
	f := &frame{
		scalarOffset: make(map[string]int),
		arrayBase:    make(map[string]int),
		arraySize:    make(map[string]int),
	}
	next := 0
	reserveArray := func(name string, words int) {
		if _, ok := f.arrayBase[name]; ok {
			return
		}
		f.arrayBase[name] = next
		f.arraySize[name] = words
		next += 4 * words
	}
	reserveScalar := func(name string) {
		if !isVariableOperand(name) {
			return
		}
		if _, ok := f.arrayBase[name]; ok {
			return
		}
		if _, ok := f.scalarOffset[name]; ok {
			return
		}
		f.scalarOffset[name] = next
		next += 4
	}

	for _, name := range paramNames {
		reserveScalar(name)
	}
	for _, q := range quads {
		switch q.Op {
		case ir.OpArrInit, ir.OpTupInit:
			n, _ := strconv.Atoi(q.A1)
			if n <= 0 {
				n = 1
			}
			reserveArray(q.Dst, n)
		case ir.OpArrStore, ir.OpArrLoad, ir.OpTupStore, ir.OpTupLoad:
			// The array/tuple name operand was already reserved by its INIT
			// and reserveScalar skips it; the remaining operand (index or
			// value, depending on op) may still need a scalar slot.
			reserveScalar(q.A1)
			reserveScalar(q.A2)
			if q.Op == ir.OpArrLoad || q.Op == ir.OpTupLoad {
				reserveScalar(q.Dst)
			}
		case ir.OpLabel, ir.OpGoto, ir.OpIfFalseGoto:
			reserveScalar(q.A1) // IF_FALSE_GOTO's condition; Dst is a label, never a variable
		case ir.OpCall:
			reserveScalar(q.Dst) // A1 is the callee name, A2 the argument count
		case ir.OpParam, ir.OpReturn:
			reserveScalar(q.A1)
		default:
			reserveScalar(q.A1)
			reserveScalar(q.A2)
			reserveScalar(q.Dst)
		}
	}
	f.size = next
	return f
}
