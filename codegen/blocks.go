package codegen

import "github.com/Flesymeb/rustlikec/ir"

// block is a maximal straight-line run of quadruples: control only enters
// at its first instruction and only leaves at its last.
type block struct {
	Start, End int // [Start, End) into the function's quad slice
}

// splitBlocks partitions a function's quads into basic blocks. A leader is
// the first instruction, any LABEL, any FUNC_BEGIN, or the instruction
// immediately after a GOTO, IF_FALSE_GOTO, or RETURN.
func splitBlocks(quads []ir.Quad) []block {
	if len(quads) == 0 {
		return nil
	}
	leaders := map[int]bool{0: true}
	for i, q := range quads {
		switch q.Op {
		case ir.OpLabel, ir.OpFuncBegin:
			leaders[i] = true
		case ir.OpGoto, ir.OpIfFalseGoto, ir.OpReturn:
			if i+1 < len(quads) {
				leaders[i+1] = true
			}
		}
	}
	var starts []int
	for i := range quads {
		if leaders[i] {
			starts = append(starts, i)
		}
	}
	blocks := make([]block, 0, len(starts))
	for i, s := range starts {
		e := len(quads)
		if i+1 < len(starts) {
			e = starts[i+1]
		}
		blocks = append(blocks, block{Start: s, End: e})
	}
	return blocks
}
