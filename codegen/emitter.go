// Package codegen lowers quadruples into MIPS32/SPIM assembly.
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Flesymeb/rustlikec/ir"
)

// addrScratch is never managed by the RegisterManager: it holds array/tuple
// element addresses and, in the prologue, each incoming argument on its way
// to its frame slot, kept out of the $s0-$s7 pool so address arithmetic
// never evicts a live variable.
const addrScratch = "$t9"

// defaultStackBase is the $sp value SPIM's default memory layout leaves free
// for a flat stack growing down from 0x10040000.
const defaultStackBase uint32 = 0x10040000

// Emitter drives the whole program's MIPS32 lowering.
type Emitter struct {
	out       strings.Builder
	strLabels map[string]string
	strOrder  []string
	regCount  int
}

// NewEmitter creates an empty Emitter with a full $s0-$s7 register pool.
func NewEmitter() *Emitter {
	return &Emitter{strLabels: make(map[string]string), regCount: len(allRegs)}
}

// Emit lowers an entire quadruple program to MIPS32/SPIM assembly text, using
// the default stack base and register pool size. The caller is expected to
// have already run ir.Generate on a program that passed sema.Analyze with no
// errors.
func Emit(prog *ir.Program) (string, error) {
	return EmitWithOptions(prog, defaultStackBase, len(allRegs))
}

// EmitWithOptions is Emit with the entry sequence's stack base and the
// register allocator's $s0-$s7 pool size configurable. regCount is clamped
// to [3, len(allRegs)]: a single quadruple can need two source registers
// and a destination at once, and the pool can't exceed MIPS's eight
// callee-saved registers.
func EmitWithOptions(prog *ir.Program, stackBase uint32, regCount int) (string, error) {
	if regCount < 3 {
		regCount = 3
	}
	if regCount > len(allRegs) {
		regCount = len(allRegs)
	}

	e := NewEmitter()
	e.regCount = regCount
	e.collectStringLiterals(prog.Quads)

	funcs, err := splitFunctions(prog.Quads)
	if err != nil {
		return "", err
	}

	e.emitDataSection()
	e.line(".text")
	e.instr("lui $sp, 0x%x", stackBase>>16)
	e.line("j main")
	e.blank()

	for _, fn := range funcs {
		if err := e.emitFunction(fn); err != nil {
			return "", err
		}
		e.blank()
	}

	e.line("end:")
	e.line("li $v0, 10")
	e.line("syscall")
	return e.out.String(), nil
}

func (e *Emitter) line(s string)           { e.out.WriteString(s); e.out.WriteByte('\n') }
func (e *Emitter) blank()                  { e.out.WriteByte('\n') }
func (e *Emitter) instr(format string, a ...interface{}) {
	e.out.WriteByte('\t')
	e.out.WriteString(fmt.Sprintf(format, a...))
	e.out.WriteByte('\n')
}

func (e *Emitter) collectStringLiterals(quads []ir.Quad) {
	seen := func(op string) {
		if strings.HasPrefix(op, `"`) {
			if _, ok := e.strLabels[op]; !ok {
				label := fmt.Sprintf("str%d", len(e.strOrder))
				e.strLabels[op] = label
				e.strOrder = append(e.strOrder, op)
			}
		}
	}
	for _, q := range quads {
		seen(q.A1)
		seen(q.A2)
	}
}

func (e *Emitter) emitDataSection() {
	e.line(".data")
	for _, lit := range e.strOrder {
		unquoted, err := strconv.Unquote(lit)
		if err != nil {
			unquoted = lit
		}
		e.instr("%s: .asciiz %q", e.strLabels[lit], unquoted)
	}
	e.blank()
}

// funcUnit is one function's quads, delimited by FUNC_BEGIN/FUNC_END.
type funcUnit struct {
	Name       string
	ParamNames []string
	Body       []ir.Quad
}

func splitFunctions(quads []ir.Quad) ([]funcUnit, error) {
	var funcs []funcUnit
	i := 0
	for i < len(quads) {
		q := quads[i]
		if q.Op != ir.OpFuncBegin {
			return nil, fmt.Errorf("internal error: expected FUNC_BEGIN, found %s", q.Op)
		}
		name := q.A1
		var params []string
		if q.A2 != "" {
			params = strings.Split(q.A2, ",")
		}
		j := i + 1
		for j < len(quads) && !(quads[j].Op == ir.OpFuncEnd && quads[j].Dst == name) {
			j++
		}
		if j >= len(quads) {
			return nil, fmt.Errorf("internal error: missing FUNC_END for %s", name)
		}
		funcs = append(funcs, funcUnit{Name: name, ParamNames: params, Body: quads[i+1 : j]})
		i = j + 1
	}
	return funcs, nil
}

type funcEmitter struct {
	e        *Emitter
	fn       funcUnit
	frame    *frame
	rm       *RegisterManager
	quads    []ir.Quad
	idx      int
	frameSz  int
	isMain   bool
	retLabel string
	paramBuf []string
	spAdjust int // extra $sp displacement while serializing call arguments
}

func (e *Emitter) emitFunction(fn funcUnit) error {
	isMain := fn.Name == "main"
	fr := computeFrame(fn.Body, fn.ParamNames)
	raSlot := 0
	if !isMain {
		raSlot = 4
	}
	frameSz := fr.size + raSlot

	fe := &funcEmitter{
		e:        e,
		fn:       fn,
		frame:    fr,
		rm:       NewRegisterManager(map[string]bool{}, e.regCount),
		quads:    fn.Body,
		frameSz:  frameSz,
		isMain:   isMain,
		retLabel: fn.Name + "_ret",
	}

	e.line(fn.Name + ":")
	if frameSz > 0 {
		e.instr("addi $sp, $sp, -%d", frameSz)
	}
	if !isMain {
		e.instr("sw $ra, %d($sp)", fr.size)
	}
	for i, p := range fn.ParamNames {
		off, ok := fr.scalarOffset[p]
		if !ok {
			continue
		}
		argOff := 8 + 4*i + frameSz
		e.instr("lw %s, %d($sp)", addrScratch, argOff)
		e.instr("sw %s, %d($sp)", addrScratch, off)
	}

	if err := fe.emitBody(); err != nil {
		return err
	}

	e.line(fe.retLabel + ":")
	if !isMain {
		e.instr("lw $ra, %d($sp)", fr.size)
	}
	if frameSz > 0 {
		e.instr("addi $sp, $sp, %d", frameSz)
	}
	if isMain {
		e.line("j end")
	} else {
		e.line("jr $ra")
	}
	return nil
}

func (fe *funcEmitter) emitBody() error {
	blocks := splitBlocks(fe.quads)
	for _, b := range blocks {
		fe.rm = NewRegisterManager(map[string]bool{}, fe.e.regCount)
		for i := b.Start; i < b.End; i++ {
			fe.idx = i
			if err := fe.emitQuad(fe.quads[i]); err != nil {
				return err
			}
		}
		// A block ending in a jump flushed before emitting it; a
		// fallthrough block flushes here. Residency never survives the
		// boundary either way: the next block starts from memory.
		if !endsBlock(fe.quads[b.End-1].Op) {
			fe.rm.flushDirty(fe.spillStore)
		}
	}
	return nil
}

func endsBlock(op ir.Op) bool {
	return op == ir.OpGoto || op == ir.OpIfFalseGoto || op == ir.OpReturn
}

func (fe *funcEmitter) spillStore(v, reg string) {
	if off, ok := fe.frame.scalarOffset[v]; ok {
		fe.e.instr("sw %s, %d($sp)", reg, off+fe.spAdjust)
	}
}

// loadOperand returns a register holding op's value. Variable operands stay
// resident (bound in the allocator); literal/string operands are loaded
// into a throwaway register the caller must release after use.
func (fe *funcEmitter) loadOperand(op string) (reg string, isTemp bool) {
	switch {
	case isVariableOperand(op):
		if r, ok := fe.rm.residentRegister(op); ok {
			return r, false
		}
		r := fe.rm.allocate(fe.quads, fe.idx, fe.spillStore)
		fe.rm.bind(op, r, false)
		off, ok := fe.frame.scalarOffset[op]
		if ok {
			fe.e.instr("lw %s, %d($sp)", r, off+fe.spAdjust)
		}
		return r, false
	case strings.HasPrefix(op, `"`):
		r := fe.rm.allocate(fe.quads, fe.idx, fe.spillStore)
		fe.e.instr("la %s, %s", r, fe.e.strLabels[op])
		return r, true
	default:
		r := fe.rm.allocate(fe.quads, fe.idx, fe.spillStore)
		fe.e.instr("li %s, %s", r, op)
		return r, true
	}
}

// freeIfDone returns reg to the pool when its value is done with: always
// for a literal scratch, and for a variable once its last forward use has
// passed and its memory slot is current. A dirty variable is never released
// here — a backward jump can still need it, so it waits for a flush or a
// spill.
func (fe *funcEmitter) freeIfDone(op, reg string, isTemp bool) {
	if isTemp {
		fe.rm.release(reg)
		return
	}
	if !isVariableOperand(op) {
		return
	}
	r, ok := fe.rm.residentRegister(op)
	if !ok {
		return
	}
	if fe.rm.isDirty(op) {
		return
	}
	if !isLiveAfter(op, fe.quads, fe.idx+1, map[string]bool{}) {
		fe.rm.release(r)
	}
}

var binOpInstr = map[ir.Op]string{
	ir.OpAdd: "add", ir.OpSub: "sub", ir.OpMul: "mul", ir.OpDiv: "div", ir.OpMod: "rem",
	ir.OpEq: "seq", ir.OpNe: "sne", ir.OpLt: "slt", ir.OpLe: "sle", ir.OpGt: "sgt", ir.OpGe: "sge",
}

func (fe *funcEmitter) emitQuad(q ir.Quad) error {
	switch q.Op {
	case ir.OpFuncBegin, ir.OpFuncEnd:
		return fmt.Errorf("internal error: unexpected %s inside function body", q.Op)
	case ir.OpLabel:
		fe.e.line(q.Dst + ":")
	case ir.OpGoto:
		fe.rm.flushDirty(fe.spillStore)
		fe.e.instr("j %s", q.Dst)
	case ir.OpIfFalseGoto:
		r, _ := fe.loadOperand(q.A1)
		fe.rm.flushDirty(fe.spillStore)
		fe.e.instr("beq %s, $zero, %s", r, q.Dst)
	case ir.OpAssign:
		fe.emitAssign(q)
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod,
		ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
		fe.emitBinOp(q)
	case ir.OpNeg:
		r, isTemp := fe.loadOperand(q.A1)
		rd := fe.rm.allocate(fe.quads, fe.idx, fe.spillStore)
		fe.e.instr("sub %s, $zero, %s", rd, r)
		fe.freeIfDone(q.A1, r, isTemp)
		fe.rm.bind(q.Dst, rd, true)
	case ir.OpNot:
		r, isTemp := fe.loadOperand(q.A1)
		rd := fe.rm.allocate(fe.quads, fe.idx, fe.spillStore)
		fe.e.instr("xori %s, %s, 1", rd, r)
		fe.freeIfDone(q.A1, r, isTemp)
		fe.rm.bind(q.Dst, rd, true)
	case ir.OpParam:
		fe.paramBuf = append(fe.paramBuf, q.A1)
	case ir.OpCall:
		fe.emitCall(q)
	case ir.OpReturn:
		if q.A1 != "" {
			r, _ := fe.loadOperand(q.A1)
			fe.e.instr("move $v0, %s", r)
		}
		fe.rm.flushDirty(fe.spillStore)
		fe.e.instr("j %s", fe.retLabel)
	case ir.OpArrInit, ir.OpTupInit:
		// space was already reserved in the frame; nothing to emit.
	case ir.OpArrStore:
		fe.emitArrStore(q)
	case ir.OpArrLoad:
		fe.emitArrLoad(q)
	case ir.OpTupStore:
		fe.emitTupStore(q)
	case ir.OpTupLoad:
		fe.emitTupLoad(q)
	default:
		return fmt.Errorf("internal error: unhandled quad op %s", q.Op)
	}
	return nil
}

func (fe *funcEmitter) emitAssign(q ir.Quad) {
	r, isTemp := fe.loadOperand(q.A1)
	if isTemp {
		// the literal's scratch register simply becomes dst's home
		fe.rm.bind(q.Dst, r, true)
		return
	}
	fe.freeIfDone(q.A1, r, false)
	rd := fe.rm.allocate(fe.quads, fe.idx, fe.spillStore)
	fe.e.instr("move %s, %s", rd, r)
	fe.rm.bind(q.Dst, rd, true)
}

func (fe *funcEmitter) emitBinOp(q ir.Quad) {
	r1, t1 := fe.loadOperand(q.A1)
	r2, t2 := fe.loadOperand(q.A2)
	rd := fe.rm.allocate(fe.quads, fe.idx, fe.spillStore)
	fe.e.instr("%s %s, %s, %s", binOpInstr[q.Op], rd, r1, r2)
	fe.freeIfDone(q.A1, r1, t1)
	fe.freeIfDone(q.A2, r2, t2)
	fe.rm.bind(q.Dst, rd, true)
}

// emitCall serializes the buffered PARAM values (collected in the IR's
// emission order, the reverse of call order) into the callee's argument
// slots inside the bumped $sp region, then invalidates every register
// binding: the callee uses the same $s pool without saving it.
func (fe *funcEmitter) emitCall(q ir.Quad) {
	argc, _ := strconv.Atoi(q.A2)
	args := make([]string, len(fe.paramBuf))
	copy(args, fe.paramBuf)
	fe.paramBuf = nil
	for i, j := 0, len(args)-1; i < j; i, j = i+1, j-1 {
		args[i], args[j] = args[j], args[i]
	}

	fe.rm.flushDirty(fe.spillStore)

	bump := 8 + 4*argc
	fe.e.instr("addi $sp, $sp, -%d", bump)
	fe.spAdjust = bump
	for i, a := range args {
		r, isTemp := fe.loadOperand(a)
		fe.e.instr("sw %s, %d($sp)", r, 8+4*i)
		fe.freeIfDone(a, r, isTemp)
	}
	fe.spAdjust = 0
	fe.e.instr("jal %s", q.A1)
	fe.e.instr("addi $sp, $sp, %d", bump)

	fe.rm = NewRegisterManager(map[string]bool{}, fe.e.regCount)
	rd := fe.rm.allocate(fe.quads, fe.idx, fe.spillStore)
	fe.e.instr("move %s, $v0", rd)
	fe.rm.bind(q.Dst, rd, true)
}

// arrayElemAddr leaves the address of arrName[idx] in addrScratch.
func (fe *funcEmitter) arrayElemAddr(arrName, idx string) {
	base := fe.frame.arrayBase[arrName]
	if n, err := strconv.Atoi(idx); err == nil {
		fe.e.instr("addi %s, $sp, %d", addrScratch, base+4*n)
		return
	}
	r, isTemp := fe.loadOperand(idx)
	fe.e.instr("sll %s, %s, 2", addrScratch, r)
	fe.e.instr("addi %s, %s, %d", addrScratch, addrScratch, base)
	fe.e.instr("add %s, %s, $sp", addrScratch, addrScratch)
	fe.freeIfDone(idx, r, isTemp)
}

func (fe *funcEmitter) emitArrStore(q ir.Quad) {
	fe.arrayElemAddr(q.Dst, q.A2)
	r, isTemp := fe.loadOperand(q.A1)
	fe.e.instr("sw %s, 0(%s)", r, addrScratch)
	fe.freeIfDone(q.A1, r, isTemp)
}

func (fe *funcEmitter) emitArrLoad(q ir.Quad) {
	fe.arrayElemAddr(q.A1, q.A2)
	rd := fe.rm.allocate(fe.quads, fe.idx, fe.spillStore)
	fe.e.instr("lw %s, 0(%s)", rd, addrScratch)
	fe.rm.bind(q.Dst, rd, true)
}

func (fe *funcEmitter) tupleFieldOffset(tupName, idxLit string) int {
	base := fe.frame.arrayBase[tupName]
	n, _ := strconv.Atoi(idxLit)
	return base + 4*n
}

func (fe *funcEmitter) emitTupStore(q ir.Quad) {
	off := fe.tupleFieldOffset(q.Dst, q.A2)
	r, isTemp := fe.loadOperand(q.A1)
	fe.e.instr("sw %s, %d($sp)", r, off)
	fe.freeIfDone(q.A1, r, isTemp)
}

func (fe *funcEmitter) emitTupLoad(q ir.Quad) {
	off := fe.tupleFieldOffset(q.A1, q.A2)
	rd := fe.rm.allocate(fe.quads, fe.idx, fe.spillStore)
	fe.e.instr("lw %s, %d($sp)", rd, off)
	fe.rm.bind(q.Dst, rd, true)
}
