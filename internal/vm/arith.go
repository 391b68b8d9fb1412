package vm

import (
	"gloom/internal/object"
	"gloom/internal/types"
)

// binaryPlus implements OpPlus's two personalities: numeric addition
// (with Int/Num widening applied dynamically) and string concatenation,
// discriminated at runtime because the same opcode serves both — the
// static type checker already ensured only these two operand shapes can
// reach here.
func (vm *VM) binaryPlus(line int) {
	b, a := vm.pop(), vm.pop()
	if a.Kind == types.KindRef {
		as, aok := a.Obj.(*object.StringObj)
		bs, bok := b.Obj.(*object.StringObj)
		if !aok || !bok {
			throw(line, "'+' on a non-numeric, non-string operand")
		}
		vm.push(object.VRef(as.Append(bs)))
		return
	}
	vm.push(numericResult(a, b, func(x, y float64) float64 { return x + y }))
}

func (vm *VM) binaryArith(line int, f func(a, b float64) float64) {
	b, a := vm.pop(), vm.pop()
	if a.Kind == types.KindRef || b.Kind == types.KindRef {
		throw(line, "arithmetic on a non-numeric operand")
	}
	vm.push(numericResult(a, b, f))
}

func (vm *VM) binaryDiv(line int) {
	b, a := vm.pop(), vm.pop()
	if a.Kind == types.KindRef || b.Kind == types.KindRef {
		throw(line, "arithmetic on a non-numeric operand")
	}
	if a.Kind == types.KindInt && b.Kind == types.KindInt {
		if b.I == 0 {
			throw(line, "division by zero")
		}
		vm.push(object.VInt(a.I / b.I))
		return
	}
	bv := b.AsNumber()
	if bv == 0 {
		throw(line, "division by zero")
	}
	vm.push(object.VNum(a.AsNumber() / bv))
}

// numericResult keeps the result an Int when both operands are Int,
// widening to Num the moment either side is Num.
func numericResult(a, b object.Value, f func(x, y float64) float64) object.Value {
	if a.Kind == types.KindInt && b.Kind == types.KindInt {
		return object.VInt(int64(f(float64(a.I), float64(b.I))))
	}
	return object.VNum(f(a.AsNumber(), b.AsNumber()))
}

func (vm *VM) binaryCompare(line int, pass func(cmp int) bool) {
	b, a := vm.pop(), vm.pop()
	if a.Kind == types.KindRef || b.Kind == types.KindRef {
		throw(line, "comparison on a non-numeric operand")
	}
	av, bv := a.AsNumber(), b.AsNumber()
	var cmp int
	switch {
	case av < bv:
		cmp = -1
	case av > bv:
		cmp = 1
	}
	vm.push(object.VBool(pass(cmp)))
}
