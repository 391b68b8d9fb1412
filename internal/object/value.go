// Package object implements the tagged value union and reference-counted
// heap object model: primitive values live unboxed on the Value struct,
// reference-typed values point at a heap Object carrying its own
// refcount header.
package object

import (
	"fmt"

	"gloom/internal/types"
)

// Value is the universal tagged value. Exactly one of the scalar fields
// is meaningful, selected by Kind; KindRef values carry Obj.
type Value struct {
	Kind types.BasicKind
	I    int64
	N    float64
	C    rune
	B    bool
	Obj  Object
}

func VInt(i int64) Value    { return Value{Kind: types.KindInt, I: i} }
func VNum(n float64) Value  { return Value{Kind: types.KindNum, N: n} }
func VChar(c rune) Value    { return Value{Kind: types.KindChar, C: c} }
func VBool(b bool) Value    { return Value{Kind: types.KindBool, B: b} }
func VRef(o Object) Value   { return Value{Kind: types.KindRef, Obj: o} }
func VNil() Value           { return Value{Kind: types.KindRef, Obj: nil} }

// IsNil reports a null reference cell (an uninitialized ref-typed slot).
func (v Value) IsNil() bool { return v.Kind == types.KindRef && v.Obj == nil }

// AsNumber widens Int/Num into a float64 for arithmetic; numeric
// widening happens at operand sites.
func (v Value) AsNumber() float64 {
	switch v.Kind {
	case types.KindInt:
		return float64(v.I)
	case types.KindNum:
		return v.N
	}
	panic(fmt.Sprintf("object: AsNumber on non-numeric value kind %v", v.Kind))
}

// Debug renders a value the way println/print debug-format it, e.g.
// strings are quoted.
func Debug(v Value) string {
	switch v.Kind {
	case types.KindInt:
		return fmt.Sprintf("%d", v.I)
	case types.KindNum:
		return fmt.Sprintf("%g", v.N)
	case types.KindChar:
		return fmt.Sprintf("'%c'", v.C)
	case types.KindBool:
		return fmt.Sprintf("%t", v.B)
	default:
		if v.Obj == nil {
			return "null"
		}
		return v.Obj.DebugString()
	}
}

// Display renders a value without quoting strings; falls back to Debug
// for everything else.
func Display(v Value) string {
	if v.Kind == types.KindRef {
		if s, ok := v.Obj.(*StringObj); ok {
			return s.Value
		}
	}
	return Debug(v)
}

// AddrEqual compares references by pointer identity, and boxed
// primitives by value.
func AddrEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind != types.KindRef {
		switch a.Kind {
		case types.KindInt:
			return a.I == b.I
		case types.KindNum:
			return a.N == b.N
		case types.KindChar:
			return a.C == b.C
		case types.KindBool:
			return a.B == b.B
		}
	}
	if boxedA, ok := a.Obj.(*Boxed); ok {
		if boxedB, ok := b.Obj.(*Boxed); ok {
			return boxedA.equalValue(boxedB)
		}
		return false
	}
	return a.Obj == b.Obj
}

// Cell is the runtime slot layout: an aligned union supporting up to
// the sub-slot maximum per primitive kind, or a single reference.
type Cell struct {
	Kind  types.BasicKind
	Ints  [2]int64
	Nums  [2]float64
	Chars [4]rune
	Bools [16]bool
	Ref   Value
	init  bool
}

// Write stores v into sub-index sub of the cell, validating that the
// written kind matches the cell's declared kind: reads/writes to
// (slot,sub) pairs with mismatched primitive kind are rejected.
func (c *Cell) Write(sub int, v Value) error {
	if c.init && c.Kind != v.Kind {
		return fmt.Errorf("object: slot kind mismatch: cell is %v, write is %v", c.Kind, v.Kind)
	}
	c.Kind = v.Kind
	c.init = true
	switch v.Kind {
	case types.KindInt:
		c.Ints[sub] = v.I
	case types.KindNum:
		c.Nums[sub] = v.N
	case types.KindChar:
		c.Chars[sub] = v.C
	case types.KindBool:
		c.Bools[sub] = v.B
	default:
		c.Ref = v
	}
	return nil
}

// Read loads the value at sub-index sub.
func (c *Cell) Read(sub int) Value {
	switch c.Kind {
	case types.KindInt:
		return VInt(c.Ints[sub])
	case types.KindNum:
		return VNum(c.Nums[sub])
	case types.KindChar:
		return VChar(c.Chars[sub])
	case types.KindBool:
		return VBool(c.Bools[sub])
	default:
		return c.Ref
	}
}

// CellArray is a fixed-length array of Cells sized to a function's
// local_size or a class's field count.
type CellArray []Cell

func NewCellArray(size int) CellArray { return make(CellArray, size) }
