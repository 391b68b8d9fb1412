// Package slots implements a compact typed variable-slot layout:
// locals and fields of differing primitive types are packed into
// word-sized slots, sub-indexed per primitive kind, giving O(1) typed
// access without per-variable heap indirection.
//
// Ported directly from the original's frontend::index::SlotIndexer.
package slots

import "gloom/internal/types"

const (
	intMaxSub  = 1 // 2 per slot
	numMaxSub  = 1
	charMaxSub = 3  // 4 per slot
	boolMaxSub = 15 // 16 per slot
)

// Slot identifies a single typed cell: (slot index, sub-slot index).
type Slot struct {
	Index int
	Sub   int
}

// Indexer allocates slots by primitive kind and tracks, per lexical
// scope, which reference-typed slots must be released on scope exit.
type Indexer struct {
	maxIdx int // -1 means no slot allocated yet

	intSlot, intSub   int
	numSlot, numSub   int
	charSlot, charSub int
	boolSlot, boolSub int

	types       []types.DataType
	dropVecs    [][]int // stack of per-scope drop vectors
}

// New returns an empty indexer with its outermost scope already entered.
func New() *Indexer {
	return &Indexer{
		maxIdx:   -1,
		intSlot:  -1,
		numSlot:  -1,
		charSlot: -1,
		boolSlot: -1,
		dropVecs: [][]int{{}},
	}
}

func (ix *Indexer) putInt() Slot {
	if ix.intSlot < 0 || ix.intSub >= intMaxSub {
		ix.maxIdx++
		ix.types = append(ix.types, types.Int)
		ix.intSlot = ix.maxIdx
		ix.intSub = 0
	} else {
		ix.intSub++
	}
	return Slot{ix.intSlot, ix.intSub}
}

func (ix *Indexer) putNum() Slot {
	if ix.numSlot < 0 || ix.numSub >= numMaxSub {
		ix.maxIdx++
		ix.types = append(ix.types, types.Num)
		ix.numSlot = ix.maxIdx
		ix.numSub = 0
	} else {
		ix.numSub++
	}
	return Slot{ix.numSlot, ix.numSub}
}

func (ix *Indexer) putChar() Slot {
	if ix.charSlot < 0 || ix.charSub >= charMaxSub {
		ix.maxIdx++
		ix.types = append(ix.types, types.Char)
		ix.charSlot = ix.maxIdx
		ix.charSub = 0
	} else {
		ix.charSub++
	}
	return Slot{ix.charSlot, ix.charSub}
}

func (ix *Indexer) putBool() Slot {
	if ix.boolSlot < 0 || ix.boolSub >= boolMaxSub {
		ix.maxIdx++
		ix.types = append(ix.types, types.Bool)
		ix.boolSlot = ix.maxIdx
		ix.boolSub = 0
	} else {
		ix.boolSub++
	}
	return Slot{ix.boolSlot, ix.boolSub}
}

// Put allocates a slot for dataType, packing primitives into shared
// slots and allocating reference-typed slots as singletons recorded in
// the current scope's drop vector.
func (ix *Indexer) Put(dataType types.DataType) Slot {
	switch dataType.BasicKind() {
	case types.KindInt:
		return ix.putInt()
	case types.KindNum:
		return ix.putNum()
	case types.KindChar:
		return ix.putChar()
	case types.KindBool:
		return ix.putBool()
	default:
		ix.maxIdx++
		ix.types = append(ix.types, dataType)
		top := len(ix.dropVecs) - 1
		ix.dropVecs[top] = append(ix.dropVecs[top], ix.maxIdx)
		return Slot{ix.maxIdx, 0}
	}
}

// EnterScope pushes a fresh drop vector for a new lexical sub-block.
func (ix *Indexer) EnterScope() {
	ix.dropVecs = append(ix.dropVecs, nil)
}

// LeaveScope pops and returns the drop vector recorded for the scope
// being left; callers emit a DropLocal for each entry.
func (ix *Indexer) LeaveScope() []int {
	top := len(ix.dropVecs) - 1
	vec := ix.dropVecs[top]
	ix.dropVecs = ix.dropVecs[:top]
	return vec
}

// CurrentDropVec exposes the in-progress scope's drop vector without
// popping it (used by break/continue to release only up to this point).
func (ix *Indexer) CurrentDropVec() []int {
	return ix.dropVecs[len(ix.dropVecs)-1]
}

// FinalDropVec pops the outermost (function-level) drop vector; it is an
// error to call this with nested scopes still open.
func (ix *Indexer) FinalDropVec() []int {
	if len(ix.dropVecs) != 1 {
		panic("slots: FinalDropVec called with open sub-scopes")
	}
	return ix.LeaveScope()
}

// Size returns the high-water-mark slot count, used to size a call
// frame's local array.
func (ix *Indexer) Size() int { return ix.maxIdx + 1 }

// TypeOf returns the declared type originally passed to Put for a given
// slot index (used when the VM needs to validate (slot, sub) kind).
func (ix *Indexer) TypeOf(index int) types.DataType { return ix.types[index] }
