// Package vm implements the bytecode interpreter: a stack machine
// executing one bytecode.Chunk per call frame, driven by the opcode
// table internal/bytecode defines and the program-wide
// class/enum/function index tables internal/compiler produces.
//
// Runs as a flat opcode switch rather than walking the AST directly,
// using a panic/recover error-isolation idiom: a running Chunk that hits
// a runtime fault (index out of range, nil dereference, division by
// zero) panics with an *errors.GloomError, and Run recovers it at the
// top level into an ordinary Go error, isolating a script fault from
// crashing the host process.
package vm

import (
	"fmt"

	"gloom/internal/bytecode"
	"gloom/internal/compiler"
	gloomerrors "gloom/internal/errors"
	"gloom/internal/object"
	"gloom/internal/types"
)

func throw(line int, format string, args ...interface{}) {
	panic(gloomerrors.NewRuntimeError("", line, fmt.Sprintf(format, args...), nil))
}

// frame is one active call's execution state: its Chunk, the operand
// stack slice it's currently pushing onto (a window into VM.stack), and
// its locals.
type frame struct {
	fn     *object.GloomFunc
	chunk  *bytecode.Chunk
	locals object.CellArray
	ip     int
	base   int // index into VM.stack where this frame's operands start
}

// VM executes one compiled compiler.Program. A VM is single-use: Run
// drives main to completion (or a recovered runtime fault) and returns.
type VM struct {
	prog    *compiler.Program
	statics object.CellArray
	stack   []object.Value
	frames  []*frame

	// OpCallMethod's interface-dispatch branch addresses interfaces by
	// program-wide index; resolveInterfaceMethod looks the
	// *object.Interface up in prog.Interfaces and searches the receiver
	// class's ImplEntry table for it.
}

// New builds a VM ready to run prog's main function. A program without
// a main can be built but not run: Run reports an error.
func New(prog *compiler.Program) *VM {
	return &VM{
		prog:    prog,
		statics: object.NewCellArray(prog.Analysis.StaticSize),
		stack:   make([]object.Value, 0, 256),
	}
}

// Run executes the program's main() with no arguments.
func (vm *VM) Run() (err error) {
	if vm.prog.Main == nil {
		return fmt.Errorf("vm: program has no main function")
	}
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(*gloomerrors.GloomError); ok {
				err = re
				return
			}
			panic(r)
		}
	}()
	vm.callGloomFunc(vm.prog.Main, nil, nil)
	return nil
}

// push/pop manipulate the VM-wide operand stack; frames only ever touch
// the portion above their own base.
func (vm *VM) push(v object.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() object.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) popN(n int) []object.Value {
	out := make([]object.Value, n)
	copy(out, vm.stack[len(vm.stack)-n:])
	vm.stack = vm.stack[:len(vm.stack)-n]
	return out
}

func (vm *VM) peek() object.Value { return vm.stack[len(vm.stack)-1] }

// newLocals allocates a fresh, correctly sized CellArray for a call to
// fn, pre-seeding the captured-variable slots a closure carries.
func newLocals(fn *object.GloomFunc, captured []object.Value) object.CellArray {
	locals := object.NewCellArray(fn.LocalSize)
	for i, c := range fn.Captures {
		if i >= len(captured) {
			break
		}
		locals[c.ToSlot].Write(c.ToSub, captured[i])
	}
	return locals
}

// callGloomFunc invokes fn with args (receiver, if any, already the
// first element) and captured values (nil for a non-closure call),
// returning fn's result. Native functions are dispatched straight to
// their Go implementation; bytecode functions get a fresh frame pushed
// onto vm.frames and run to their OpReturn.
func (vm *VM) callGloomFunc(fn *object.GloomFunc, args []object.Value, captured []object.Value) object.Value {
	if fn.BodyKind == object.BodyNative {
		v, err := fn.Native(args)
		if err != nil {
			throw(0, "%s: %v", fn.Name, err)
		}
		return v
	}

	chunk, ok := fn.Chunk.(*bytecode.Chunk)
	if !ok {
		throw(0, "%s has no compiled body", fn.Name)
	}

	locals := newLocals(fn, captured)
	argi := 0
	if fn.HasSelf {
		locals[fn.SelfSlot].Write(fn.SelfSub, args[0])
		argi = 1
	}
	for _, p := range fn.Params {
		locals[p.Slot].Write(p.Sub, args[argi])
		argi++
	}

	fr := &frame{fn: fn, chunk: chunk, locals: locals, base: len(vm.stack)}
	vm.frames = append(vm.frames, fr)
	result := vm.runFrame(fr)
	vm.frames = vm.frames[:len(vm.frames)-1]
	return result
}

// runFrame executes fr's Chunk to completion, returning the value left
// by its OpReturn.
func (vm *VM) runFrame(fr *frame) object.Value {
	code := fr.chunk.Code
	debug := fr.chunk.Debug
	pool := fr.chunk.Constants

	lineAt := func(ip int) int {
		if ip >= 0 && ip < len(debug) {
			return debug[ip].Line
		}
		return 0
	}

	readU8 := func() byte {
		b := code[fr.ip]
		fr.ip++
		return b
	}
	readU16 := func() int {
		v := int(fr.chunk.ReadUint16(fr.ip))
		fr.ip += 2
		return v
	}
	readU32 := func() uint32 {
		v := fr.chunk.ReadUint32(fr.ip)
		fr.ip += 4
		return v
	}

	for {
		line := lineAt(fr.ip)
		op := bytecode.OpCode(code[fr.ip])
		fr.ip++

		switch op {
		case bytecode.OpLoadDirectInt32:
			vm.push(object.VInt(int64(int32(readU32()))))
		case bytecode.OpLoadDirectNum32:
			vm.push(object.VNum(float64(int32(readU32()))))
		case bytecode.OpLoadDirectChar:
			vm.push(object.VChar(rune(readU32())))
		case bytecode.OpLoadDirectBool:
			vm.push(object.VBool(readU8() != 0))

		case bytecode.OpLoadConstInt:
			vm.push(object.VInt(pool.Ints[readU16()]))
		case bytecode.OpLoadConstNum:
			vm.push(object.VNum(pool.Nums[readU16()]))
		case bytecode.OpLoadConstString:
			vm.push(object.VRef(object.NewString(pool.Strings[readU16()])))

		case bytecode.OpLoadClass:
			vm.push(object.VRef(object.NewMetaClass(vm.prog.Classes[readU16()])))
		case bytecode.OpLoadEnum:
			vm.push(object.VRef(object.NewMetaEnum(vm.prog.Enums[readU16()])))
		case bytecode.OpLoadBuiltinType:
			readU8()
			vm.push(object.VNil())
		case bytecode.OpLoadDirectDefFn:
			funcIdx := readU16()
			nCaptures := int(readU8())
			fn := vm.prog.Funcs[funcIdx]
			captured := make([]object.Value, nCaptures)
			for i := 0; i < nCaptures; i++ {
				c := fn.Captures[i]
				captured[i] = fr.locals[c.FromSlot].Read(c.FromSub)
			}
			vm.push(object.VRef(object.NewClosure(fn, captured)))

		case bytecode.OpReadLocal:
			idx, sub := readU16(), int(readU8())
			vm.push(fr.locals[idx].Read(sub))
		case bytecode.OpReadStatic:
			idx, sub := readU16(), int(readU8())
			vm.push(vm.statics[idx].Read(sub))
		case bytecode.OpReadField:
			idx, sub := readU16(), int(readU8())
			recv := vm.pop()
			inst := asClassInstance(recv, line)
			vm.push(inst.Fields[idx].Read(sub))

		case bytecode.OpWriteLocalInt, bytecode.OpWriteLocalNum, bytecode.OpWriteLocalChar, bytecode.OpWriteLocalBool:
			idx, sub := readU16(), int(readU8())
			v := vm.pop()
			if err := fr.locals[idx].Write(sub, v); err != nil {
				throw(line, "%v", err)
			}
		case bytecode.OpWriteLocalRef:
			idx := readU16()
			v := vm.pop()
			vm.writeRefCell(&fr.locals[idx], v, line)

		case bytecode.OpWriteStaticInt, bytecode.OpWriteStaticNum, bytecode.OpWriteStaticChar, bytecode.OpWriteStaticBool:
			idx, sub := readU16(), int(readU8())
			v := vm.pop()
			if err := vm.statics[idx].Write(sub, v); err != nil {
				throw(line, "%v", err)
			}
		case bytecode.OpWriteStaticRef:
			idx := readU16()
			v := vm.pop()
			vm.writeRefCell(&vm.statics[idx], v, line)

		case bytecode.OpWriteFieldInt, bytecode.OpWriteFieldNum, bytecode.OpWriteFieldChar, bytecode.OpWriteFieldBool:
			idx, sub := readU16(), int(readU8())
			v := vm.pop()
			recv := vm.pop()
			inst := asClassInstance(recv, line)
			if err := inst.Fields[idx].Write(sub, v); err != nil {
				throw(line, "%v", err)
			}
		case bytecode.OpWriteFieldRef:
			idx := readU16()
			v := vm.pop()
			recv := vm.pop()
			inst := asClassInstance(recv, line)
			vm.writeRefCell(&inst.Fields[idx], v, line)

		case bytecode.OpDropLocal:
			idx := readU16()
			v := fr.locals[idx].Read(0)
			vm.Release(v)

		case bytecode.OpPlus:
			vm.binaryPlus(line)
		case bytecode.OpSub:
			vm.binaryArith(line, func(a, b float64) float64 { return a - b })
		case bytecode.OpMul:
			vm.binaryArith(line, func(a, b float64) float64 { return a * b })
		case bytecode.OpDiv:
			vm.binaryDiv(line)
		case bytecode.OpGreaterThan:
			vm.binaryCompare(line, func(c int) bool { return c > 0 })
		case bytecode.OpLessThan:
			vm.binaryCompare(line, func(c int) bool { return c < 0 })
		case bytecode.OpGreaterThanEquals:
			vm.binaryCompare(line, func(c int) bool { return c >= 0 })
		case bytecode.OpLessThanEquals:
			vm.binaryCompare(line, func(c int) bool { return c <= 0 })
		case bytecode.OpEquals:
			b, a := vm.pop(), vm.pop()
			vm.push(object.VBool(object.AddrEqual(a, b)))
		case bytecode.OpNotEquals:
			b, a := vm.pop(), vm.pop()
			vm.push(object.VBool(!object.AddrEqual(a, b)))
		case bytecode.OpNotOp:
			v := vm.pop()
			vm.push(object.VBool(!v.B))
		case bytecode.OpNegOp:
			v := vm.pop()
			if v.Kind == types.KindInt {
				vm.push(object.VInt(-v.I))
			} else {
				vm.push(object.VNum(-v.N))
			}

		case bytecode.OpJumpIf:
			target := readU16()
			if vm.pop().B {
				fr.ip = target
			}
		case bytecode.OpJumpIfNot:
			target := readU16()
			if !vm.pop().B {
				fr.ip = target
			}
		case bytecode.OpJump:
			fr.ip = readU16()

		case bytecode.OpReturn:
			return vm.pop()

		case bytecode.OpCollectTuple:
			n := readU16()
			vm.push(object.VRef(object.NewTuple(vm.popN(n))))
		case bytecode.OpCollectArray:
			n := readU16()
			vm.push(object.VRef(object.NewArray(types.Any, vm.popN(n))))
		case bytecode.OpCollectQueue:
			n := readU16()
			q := object.NewQueue(types.Any)
			for _, v := range vm.popN(n) {
				q.Push(v)
			}
			vm.push(object.VRef(q))

		case bytecode.OpConstruct:
			classIdx := readU16()
			n := int(readU8())
			class := vm.prog.Classes[classIdx]
			values := vm.popN(n)
			inst := object.NewClassInstance(class)
			for i, name := range class.FieldOrder {
				entry := class.Fields[name]
				if err := inst.Fields[entry.Slot].Write(entry.Sub, values[i]); err != nil {
					throw(line, "%v", err)
				}
			}
			vm.push(object.VRef(inst))

		case bytecode.OpConstructEnum:
			enumIdx := readU16()
			variantIdx := int(readU8())
			hasPayload := readU8()
			enum := vm.prog.Enums[enumIdx]
			var related *object.Value
			if hasPayload != 0 {
				v := vm.pop()
				related = &v
			}
			vm.push(object.VRef(object.NewEnumInstance(enum, variantIdx, related)))

		case bytecode.OpCallTopFn:
			funcIdx := readU16()
			argc := int(readU8())
			args := vm.popN(argc)
			fn := vm.prog.Funcs[funcIdx]
			vm.push(vm.callGloomFunc(fn, args, nil))

		case bytecode.OpCallStaticFn:
			argc := int(readU8())
			args := vm.popN(argc)
			callee := vm.pop()
			cl, ok := callee.Obj.(*object.Closure)
			if !ok {
				throw(line, "call target is not a function value")
			}
			vm.push(vm.callGloomFunc(cl.Func, args, cl.Captured))

		case bytecode.OpCallMethod:
			viaInterface := readU8()
			var fn *object.GloomFunc
			if viaInterface != 0 {
				ifaceIdx := readU16()
				methodIdx := readU16()
				argc := int(readU8())
				args := vm.popN(argc)
				fn = vm.resolveInterfaceMethod(args[0], ifaceIdx, methodIdx, line)
				vm.push(vm.callGloomFunc(fn, args, nil))
			} else {
				funcIdx := readU16()
				argc := int(readU8())
				args := vm.popN(argc)
				fn = vm.prog.Funcs[funcIdx]
				vm.push(vm.callGloomFunc(fn, args, nil))
			}

		case bytecode.OpEnumTag:
			v := vm.pop()
			ei := asEnumInstance(v, line)
			vm.push(object.VInt(int64(ei.Tag)))
		case bytecode.OpEnumPayload:
			v := vm.pop()
			ei := asEnumInstance(v, line)
			if ei.Related == nil {
				vm.push(object.VNil())
			} else {
				vm.push(*ei.Related)
			}

		case bytecode.OpLoadNil:
			vm.push(object.VNil())

		case bytecode.OpCast:
			to := readU8()
			v := vm.pop()
			vm.push(castValue(v, to, line))

		case bytecode.OpPop:
			v := vm.pop()
			vm.Release(v)

		case bytecode.OpRetainTop:
			vm.Retain(vm.peek())

		case bytecode.OpIterNew:
			v := vm.pop()
			if v.Obj == nil {
				throw(line, "cannot iterate a null reference")
			}
			vm.push(object.VRef(v.Obj.Iter()))

		case bytecode.OpIterNext:
			top := vm.peek()
			next, ok := iterNext(top, line)
			vm.push(next)
			vm.push(object.VBool(ok))

		default:
			throw(line, "unhandled opcode %s", op)
		}
	}
}

func asClassInstance(v object.Value, line int) *object.ClassInstance {
	inst, ok := v.Obj.(*object.ClassInstance)
	if !ok {
		throw(line, "value is not a class instance")
	}
	return inst
}

func asEnumInstance(v object.Value, line int) *object.EnumInstance {
	ei, ok := v.Obj.(*object.EnumInstance)
	if !ok {
		throw(line, "value is not an enum instance")
	}
	return ei
}

// writeRefCell stores v into a Ref-kind cell, boxing a bare primitive
// (each primitive has a boxed form for variance into the universal Any
// reference) so the cell's Kind stays KindRef across every assignment
// regardless of which concrete type currently occupies
// an Any-typed slot.
func (vm *VM) writeRefCell(cell *object.Cell, v object.Value, line int) {
	if v.Kind != types.KindRef {
		v = object.VRef(object.NewBoxed(v))
	}
	if err := cell.Write(0, v); err != nil {
		throw(line, "%v", err)
	}
}

func (vm *VM) resolveInterfaceMethod(recv object.Value, ifaceIdx, methodIdx int, line int) *object.GloomFunc {
	iface := vm.prog.Interfaces[ifaceIdx]
	inst, ok := recv.Obj.(*object.ClassInstance)
	if !ok {
		throw(line, "interface call on a non-class receiver")
	}
	for cl := inst.Class; cl != nil; cl = cl.Parent {
		for _, impl := range cl.Impls {
			if impl.Interface == iface {
				return inst.Class.Funcs[impl.Dispatch[methodIdx]]
			}
		}
	}
	throw(line, "class %s does not implement the called interface", inst.Class.Name)
	return nil
}

func iterNext(v object.Value, line int) (object.Value, bool) {
	switch it := v.Obj.(type) {
	case *object.ListIter:
		return it.Next()
	case *object.RangeIter:
		return it.Next()
	default:
		throw(line, "value is not an iterator")
		return object.Value{}, false
	}
}

func castValue(v object.Value, to byte, line int) object.Value {
	switch to {
	case 0: // toInt
		switch v.Kind {
		case types.KindInt:
			return v
		case types.KindNum:
			return object.VInt(int64(v.N))
		case types.KindChar:
			return object.VInt(int64(v.C))
		}
	case 1: // toNum
		switch v.Kind {
		case types.KindNum:
			return v
		case types.KindInt:
			return object.VNum(float64(v.I))
		case types.KindChar:
			return object.VNum(float64(v.C))
		}
	case 2: // toChar
		switch v.Kind {
		case types.KindChar:
			return v
		case types.KindInt:
			return object.VChar(rune(v.I))
		case types.KindNum:
			return object.VChar(rune(int64(v.N)))
		}
	}
	throw(line, "invalid cast from %v", v.Kind)
	return object.Value{}
}
