package object

// ObjectType tags a heap object's variant, letting callers avoid
// downcast-by-type-id in hot paths — keeping per-variant vtables
// instead.
type ObjectType int

const (
	ObjString ObjectType = iota
	ObjArray
	ObjQueue
	ObjTuple
	ObjWeak
	ObjBoxed
	ObjClosure
	ObjClassInstance
	ObjEnumInstance
	ObjMetaClass
	ObjMetaEnum
	ObjMetaInterface
	ObjMetaBuiltin
	ObjRangeIter
	ObjListIter
	ObjHostHandle // opaque external resource (db connection, socket); see internal/stdext
)

// RefHeader is the reference count every heap object embeds. Count
// starts at 1 at construction time (the creating site holds the first
// reference); Retain/Release are driven exclusively by the VM (see
// internal/vm/refcount.go) so that the single `drop_by_vm` hook observes
// every release.
type RefHeader struct {
	Count int
}

// Object is the abstract capability every heap-allocated GloomScript
// value implements.
type Object interface {
	Type() ObjectType
	Header() *RefHeader
	DebugString() string

	// ReleaseChildren is invoked once, when this object's count has
	// just dropped to zero, giving the object a chance to release every
	// reference it holds via release. Objects with no children (String,
	// Boxed, Weak) implement this as a no-op.
	ReleaseChildren(release func(Value))

	// At implements the index-based iterator protocol: objects that are
	// list-like collections return their element at
	// cursor, and whether the cursor was in range.
	At(cursor int) (Value, bool)

	// Iter returns a fresh iterator object over this value (a ListIter
	// or RangeIter), used by `for x in iter`.
	Iter() Object
}

func NewHeader() *RefHeader { return &RefHeader{Count: 1} }
