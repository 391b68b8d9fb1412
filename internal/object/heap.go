package object

import (
	"fmt"
	"strings"

	"gloom/internal/types"
)

// ---- String ----

type StringObj struct {
	header RefHeader
	Value  string
}

func NewString(s string) *StringObj { return &StringObj{header: RefHeader{Count: 1}, Value: s} }

func (s *StringObj) Type() ObjectType            { return ObjString }
func (s *StringObj) Header() *RefHeader          { return &s.header }
func (s *StringObj) DebugString() string         { return fmt.Sprintf("%q", s.Value) }
func (s *StringObj) ReleaseChildren(func(Value))  {}
func (s *StringObj) At(cursor int) (Value, bool) {
	runes := []rune(s.Value)
	if cursor < 0 || cursor >= len(runes) {
		return Value{}, false
	}
	return VChar(runes[cursor]), true
}
func (s *StringObj) Iter() Object { return NewListIter(s) }

// Append implements the String.append(self, other) builtin method:
// returns a new string.
func (s *StringObj) Append(other *StringObj) *StringObj {
	return NewString(s.Value + other.Value)
}

// ---- Array ----

type ArrayObj struct {
	header RefHeader
	Elem   types.DataType
	Items  []Value
}

func NewArray(elem types.DataType, items []Value) *ArrayObj {
	return &ArrayObj{header: RefHeader{Count: 1}, Elem: elem, Items: items}
}

func (a *ArrayObj) Type() ObjectType   { return ObjArray }
func (a *ArrayObj) Header() *RefHeader { return &a.header }
func (a *ArrayObj) DebugString() string {
	parts := make([]string, len(a.Items))
	for i, v := range a.Items {
		parts[i] = Debug(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (a *ArrayObj) ReleaseChildren(release func(Value)) {
	for _, v := range a.Items {
		release(v)
	}
}
func (a *ArrayObj) At(cursor int) (Value, bool) {
	if cursor < 0 || cursor >= len(a.Items) {
		return Value{}, false
	}
	return a.Items[cursor], true
}
func (a *ArrayObj) Iter() Object { return NewListIter(a) }

// ---- Queue (FIFO) ----
//
// Supplemented from original_source/src/builtin/queue.rs: the
// Queue(elem) reference kind otherwise carries no operations of its own.

type QueueObj struct {
	header RefHeader
	Elem   types.DataType
	Items  []Value
}

func NewQueue(elem types.DataType) *QueueObj {
	return &QueueObj{header: RefHeader{Count: 1}, Elem: elem}
}

func (q *QueueObj) Type() ObjectType   { return ObjQueue }
func (q *QueueObj) Header() *RefHeader { return &q.header }
func (q *QueueObj) DebugString() string {
	parts := make([]string, len(q.Items))
	for i, v := range q.Items {
		parts[i] = Debug(v)
	}
	return "Queue[" + strings.Join(parts, ", ") + "]"
}
func (q *QueueObj) ReleaseChildren(release func(Value)) {
	for _, v := range q.Items {
		release(v)
	}
}
func (q *QueueObj) At(cursor int) (Value, bool) {
	if cursor < 0 || cursor >= len(q.Items) {
		return Value{}, false
	}
	return q.Items[cursor], true
}
func (q *QueueObj) Iter() Object { return NewListIter(q) }

func (q *QueueObj) Push(v Value) { q.Items = append(q.Items, v) }
func (q *QueueObj) Pop() (Value, bool) {
	if len(q.Items) == 0 {
		return Value{}, false
	}
	v := q.Items[0]
	q.Items = q.Items[1:]
	return v, true
}
func (q *QueueObj) Len() int { return len(q.Items) }

// ---- Tuple ----

type TupleObj struct {
	header RefHeader
	Items  []Value
}

func NewTuple(items []Value) *TupleObj { return &TupleObj{header: RefHeader{Count: 1}, Items: items} }

func (t *TupleObj) Type() ObjectType   { return ObjTuple }
func (t *TupleObj) Header() *RefHeader { return &t.header }
func (t *TupleObj) DebugString() string {
	parts := make([]string, len(t.Items))
	for i, v := range t.Items {
		parts[i] = Debug(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t *TupleObj) ReleaseChildren(release func(Value)) {
	for _, v := range t.Items {
		release(v)
	}
}
func (t *TupleObj) At(cursor int) (Value, bool) {
	if cursor < 0 || cursor >= len(t.Items) {
		return Value{}, false
	}
	return t.Items[cursor], true
}
func (t *TupleObj) Iter() Object { return NewListIter(t) }

// ---- Weak ----
//
// A non-owning handle: holding a WeakObj never increments the target's
// refcount. Get returns false if the target has already been released.

type WeakObj struct {
	header RefHeader
	Target Object
}

func NewWeak(target Object) *WeakObj { return &WeakObj{header: RefHeader{Count: 1}, Target: target} }

func (w *WeakObj) Type() ObjectType             { return ObjWeak }
func (w *WeakObj) Header() *RefHeader           { return &w.header }
func (w *WeakObj) DebugString() string          { return "Weak<...>" }
func (w *WeakObj) ReleaseChildren(func(Value))   {} // does not own Target
func (w *WeakObj) At(int) (Value, bool)         { return Value{}, false }
func (w *WeakObj) Iter() Object                 { return NewListIter(w) }

// Get upgrades the weak handle to a strong Value, or reports false if
// the target's count already reached zero.
func (w *WeakObj) Get() (Value, bool) {
	if w.Target == nil || w.Target.Header().Count <= 0 {
		return Value{}, false
	}
	return VRef(w.Target), true
}

// ---- Boxed primitives ----
//
// Wraps a primitive in a heap cell so it can flow through an Any-typed
// reference slot: each primitive has a boxed form for variance into
// the universal Any reference.

type Boxed struct {
	header RefHeader
	Kind   types.BasicKind
	I      int64
	N      float64
	C      rune
	B      bool
}

func NewBoxed(v Value) *Boxed {
	return &Boxed{header: RefHeader{Count: 1}, Kind: v.Kind, I: v.I, N: v.N, C: v.C, B: v.B}
}

func (b *Boxed) Unbox() Value {
	switch b.Kind {
	case types.KindInt:
		return VInt(b.I)
	case types.KindNum:
		return VNum(b.N)
	case types.KindChar:
		return VChar(b.C)
	default:
		return VBool(b.B)
	}
}

func (b *Boxed) equalValue(o *Boxed) bool {
	if b.Kind != o.Kind {
		return false
	}
	switch b.Kind {
	case types.KindInt:
		return b.I == o.I
	case types.KindNum:
		return b.N == o.N
	case types.KindChar:
		return b.C == o.C
	default:
		return b.B == o.B
	}
}

func (b *Boxed) Type() ObjectType            { return ObjBoxed }
func (b *Boxed) Header() *RefHeader          { return &b.header }
func (b *Boxed) DebugString() string         { return Debug(b.Unbox()) }
func (b *Boxed) ReleaseChildren(func(Value)) {}
func (b *Boxed) At(int) (Value, bool)        { return Value{}, false }
func (b *Boxed) Iter() Object                { return NewListIter(b) }

// ---- Closure ----

type Closure struct {
	header   RefHeader
	Func     *GloomFunc
	Captured []Value // one per Func.Captures entry, in order
}

func NewClosure(fn *GloomFunc, captured []Value) *Closure {
	return &Closure{header: RefHeader{Count: 1}, Func: fn, Captured: captured}
}

func (c *Closure) Type() ObjectType    { return ObjClosure }
func (c *Closure) Header() *RefHeader  { return &c.header }
func (c *Closure) DebugString() string { return fmt.Sprintf("<fn %s>", c.Func.Name) }
func (c *Closure) ReleaseChildren(release func(Value)) {
	for i, cap := range c.Func.Captures {
		if cap.Kind == CaptureByRef {
			release(c.Captured[i])
		}
	}
}
func (c *Closure) At(int) (Value, bool) { return Value{}, false }
func (c *Closure) Iter() Object         { return NewListIter(c) }

// ---- Class instance ----

type ClassInstance struct {
	header RefHeader
	Class  *Class
	Fields CellArray
}

func NewClassInstance(class *Class) *ClassInstance {
	return &ClassInstance{header: RefHeader{Count: 1}, Class: class, Fields: NewCellArray(class.FieldCount)}
}

func (o *ClassInstance) Type() ObjectType    { return ObjClassInstance }
func (o *ClassInstance) Header() *RefHeader  { return &o.header }
func (o *ClassInstance) DebugString() string { return fmt.Sprintf("%s{...}", o.Class.Name) }
func (o *ClassInstance) ReleaseChildren(release func(Value)) {
	for _, entry := range o.Class.Fields {
		if entry.IsMethod {
			continue
		}
		if entry.Type.IsRef() {
			release(o.Fields[entry.Slot].Read(entry.Sub))
		}
	}
}
func (o *ClassInstance) At(int) (Value, bool) { return Value{}, false }
func (o *ClassInstance) Iter() Object         { return NewListIter(o) }

// ---- Enum instance ----

type EnumInstance struct {
	header  RefHeader
	Enum    *EnumClass
	Tag     int
	Related *Value
}

func NewEnumInstance(enum *EnumClass, tag int, related *Value) *EnumInstance {
	return &EnumInstance{header: RefHeader{Count: 1}, Enum: enum, Tag: tag, Related: related}
}

func (e *EnumInstance) Type() ObjectType   { return ObjEnumInstance }
func (e *EnumInstance) Header() *RefHeader { return &e.header }
func (e *EnumInstance) DebugString() string {
	name := e.Enum.Variants[e.Tag].Name
	if e.Related == nil {
		return fmt.Sprintf("%s.%s", e.Enum.Name, name)
	}
	return fmt.Sprintf("%s.%s(%s)", e.Enum.Name, name, Debug(*e.Related))
}
func (e *EnumInstance) ReleaseChildren(release func(Value)) {
	if e.Related != nil && e.Related.Kind == types.KindRef {
		release(*e.Related)
	}
}
func (e *EnumInstance) At(int) (Value, bool) { return Value{}, false }
func (e *EnumInstance) Iter() Object         { return NewListIter(e) }

// ---- Meta-type values ----
//
// The value form of a type: a bare class/enum/interface name evaluates
// to one of these, used to reach static methods.

type MetaClassObj struct {
	header RefHeader
	Class  *Class
}

func NewMetaClass(c *Class) *MetaClassObj { return &MetaClassObj{header: RefHeader{Count: 1}, Class: c} }
func (m *MetaClassObj) Type() ObjectType             { return ObjMetaClass }
func (m *MetaClassObj) Header() *RefHeader           { return &m.header }
func (m *MetaClassObj) DebugString() string          { return "<class " + m.Class.Name + ">" }
func (m *MetaClassObj) ReleaseChildren(func(Value))  {}
func (m *MetaClassObj) At(int) (Value, bool)         { return Value{}, false }
func (m *MetaClassObj) Iter() Object                 { return NewListIter(m) }

type MetaEnumObj struct {
	header RefHeader
	Enum   *EnumClass
}

func NewMetaEnum(e *EnumClass) *MetaEnumObj { return &MetaEnumObj{header: RefHeader{Count: 1}, Enum: e} }
func (m *MetaEnumObj) Type() ObjectType            { return ObjMetaEnum }
func (m *MetaEnumObj) Header() *RefHeader          { return &m.header }
func (m *MetaEnumObj) DebugString() string         { return "<enum " + m.Enum.Name + ">" }
func (m *MetaEnumObj) ReleaseChildren(func(Value)) {}
func (m *MetaEnumObj) At(int) (Value, bool)        { return Value{}, false }
func (m *MetaEnumObj) Iter() Object                { return NewListIter(m) }

type MetaInterfaceObj struct {
	header    RefHeader
	Interface *Interface
}

func NewMetaInterface(i *Interface) *MetaInterfaceObj {
	return &MetaInterfaceObj{header: RefHeader{Count: 1}, Interface: i}
}
func (m *MetaInterfaceObj) Type() ObjectType            { return ObjMetaInterface }
func (m *MetaInterfaceObj) Header() *RefHeader          { return &m.header }
func (m *MetaInterfaceObj) DebugString() string         { return "<interface " + m.Interface.Name + ">" }
func (m *MetaInterfaceObj) ReleaseChildren(func(Value)) {}
func (m *MetaInterfaceObj) At(int) (Value, bool)        { return Value{}, false }
func (m *MetaInterfaceObj) Iter() Object                { return NewListIter(m) }

// ---- Iterators ----
//
// Generators / iterator protocol: objects produce a lazy sequence via
// at(&mut cursor). RangeIter is a small object holding (end, step,
// current); the compiler's `for x in start:end[:step]` loop does not
// create one and counts in a local slot instead. No coroutine machinery
// is required.

type ListIter struct {
	header RefHeader
	Target Object
	Cursor int
}

func NewListIter(target Object) *ListIter {
	return &ListIter{header: RefHeader{Count: 1}, Target: target}
}

func (l *ListIter) Type() ObjectType   { return ObjListIter }
func (l *ListIter) Header() *RefHeader { return &l.header }
func (l *ListIter) DebugString() string { return "<iterator>" }
func (l *ListIter) ReleaseChildren(release func(Value)) { release(VRef(l.Target)) }
func (l *ListIter) At(int) (Value, bool) { return Value{}, false }
func (l *ListIter) Iter() Object         { return l }

// Next advances the cursor and returns the next element, or false at
// end of iteration.
func (l *ListIter) Next() (Value, bool) {
	v, ok := l.Target.At(l.Cursor)
	if !ok {
		return Value{}, false
	}
	l.Cursor++
	return v, true
}

// RangeIter steps an Int from start toward end by step, in either
// direction (supplemented from original_source/src/obj/range.rs). The VM
// can drive one through OpIterNext; no compiled code creates one.
type RangeIter struct {
	header         RefHeader
	Current, End   int64
	Step           int64
}

func NewRangeIter(start, end, step int64) *RangeIter {
	return &RangeIter{header: RefHeader{Count: 1}, Current: start, End: end, Step: step}
}

func (r *RangeIter) Type() ObjectType             { return ObjRangeIter }
func (r *RangeIter) Header() *RefHeader           { return &r.header }
func (r *RangeIter) DebugString() string          { return "<range iterator>" }
func (r *RangeIter) ReleaseChildren(func(Value))  {}
func (r *RangeIter) At(int) (Value, bool)         { return Value{}, false }
func (r *RangeIter) Iter() Object                 { return r }

func (r *RangeIter) Next() (Value, bool) {
	if r.Step > 0 && r.Current >= r.End {
		return Value{}, false
	}
	if r.Step < 0 && r.Current <= r.End {
		return Value{}, false
	}
	v := VInt(r.Current)
	r.Current += r.Step
	return v, true
}
