// Package types implements the type model and subtype checker: a total,
// reflexive subtyping relation over primitive kinds, class/interface/enum
// records, tuples, function signatures and the generic builtin container
// types.
package types

import (
	"fmt"
	"strings"
)

// BasicKind selects the slot layout a type occupies. Every DataType maps
// to exactly one.
type BasicKind int

const (
	KindInt BasicKind = iota
	KindNum
	KindChar
	KindBool
	KindRef
)

func (k BasicKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindNum:
		return "num"
	case KindChar:
		return "char"
	case KindBool:
		return "bool"
	default:
		return "ref"
	}
}

// RefKind discriminates the reference-typed half of DataType.
type RefKind int

const (
	RefAny RefKind = iota
	RefNone
	RefMySelf
	RefClass
	RefEnum
	RefInterface
	RefMetaClass
	RefMetaEnum
	RefMetaInterface
	RefMetaBuiltin
	RefTuple
	RefFunc
	RefWeak
	RefArray
	RefQueue
	RefInt // boxed
	RefNum
	RefChar
	RefBool
	RefString
)

// ClassRef, EnumRef and InterfaceRef are the minimal pointer-identity
// contracts the type model needs from the object model. object.Class,
// object.Enum and object.Interface satisfy these; kept as interfaces here
// so internal/types has no import-cycle on internal/object.
type ClassRef interface {
	ClassName() string
	IsDerivedFrom(other ClassRef) bool
	ImplementsInterface(other InterfaceRef) bool
}

type EnumRef interface {
	EnumName() string
}

type InterfaceRef interface {
	InterfaceName() string
	DerivedFrom(other InterfaceRef) bool
}

// FuncSignature is the structural shape compared for Func types.
type FuncSignature struct {
	Params   []DataType
	Return   DataType
	Wildcard bool // "any signature accepted" bit
}

func (f FuncSignature) equal(o FuncSignature) bool {
	if len(f.Params) != len(o.Params) {
		return false
	}
	for i := range f.Params {
		if !f.Params[i].structEqual(o.Params[i]) {
			return false
		}
	}
	return f.Return.structEqual(o.Return)
}

// DataType is the universal type value: either one of the four packed
// primitive kinds, or a reference type carrying further data.
type DataType struct {
	Kind BasicKind // Int/Num/Char/Bool, or Ref
	Ref  RefType
}

// RefType carries the payload for Kind == KindRef.
type RefType struct {
	Kind RefKind

	Class     ClassRef
	Enum      EnumRef
	Interface InterfaceRef

	Tuple []DataType
	Func  *FuncSignature
	Elem  *DataType // Weak/Array/Queue element type
}

// Convenience constructors for the primitive kinds.
var (
	Int  = DataType{Kind: KindInt}
	Num  = DataType{Kind: KindNum}
	Char = DataType{Kind: KindChar}
	Bool = DataType{Kind: KindBool}
	Any  = DataType{Kind: KindRef, Ref: RefType{Kind: RefAny}}
	None = DataType{Kind: KindRef, Ref: RefType{Kind: RefNone}}
	Void = DataType{Kind: KindRef, Ref: RefType{Kind: RefNone}}
	Str  = DataType{Kind: KindRef, Ref: RefType{Kind: RefString}}
)

func Class(c ClassRef) DataType         { return DataType{Kind: KindRef, Ref: RefType{Kind: RefClass, Class: c}} }
func EnumT(e EnumRef) DataType          { return DataType{Kind: KindRef, Ref: RefType{Kind: RefEnum, Enum: e}} }
func Interface(i InterfaceRef) DataType { return DataType{Kind: KindRef, Ref: RefType{Kind: RefInterface, Interface: i}} }
func MetaClass(c ClassRef) DataType     { return DataType{Kind: KindRef, Ref: RefType{Kind: RefMetaClass, Class: c}} }
func MetaEnum(e EnumRef) DataType       { return DataType{Kind: KindRef, Ref: RefType{Kind: RefMetaEnum, Enum: e}} }
func MetaInterface(i InterfaceRef) DataType {
	return DataType{Kind: KindRef, Ref: RefType{Kind: RefMetaInterface, Interface: i}}
}
func Tuple(elems []DataType) DataType {
	return DataType{Kind: KindRef, Ref: RefType{Kind: RefTuple, Tuple: elems}}
}
func Func(sig FuncSignature) DataType {
	s := sig
	return DataType{Kind: KindRef, Ref: RefType{Kind: RefFunc, Func: &s}}
}
func Weak(elem DataType) DataType  { return DataType{Kind: KindRef, Ref: RefType{Kind: RefWeak, Elem: &elem}} }
func Array(elem DataType) DataType { return DataType{Kind: KindRef, Ref: RefType{Kind: RefArray, Elem: &elem}} }
func Queue(elem DataType) DataType { return DataType{Kind: KindRef, Ref: RefType{Kind: RefQueue, Elem: &elem}} }

// IsRef reports whether t occupies the single reference-typed slot layout.
func (t DataType) IsRef() bool { return t.Kind == KindRef }

// IsNumeric reports whether t is Int, Num, or their boxed forms — used by
// += -= ++ -- checks in the analyzer.
func (t DataType) IsNumeric() bool {
	if t.Kind == KindInt || t.Kind == KindNum {
		return true
	}
	return t.Kind == KindRef && (t.Ref.Kind == RefInt || t.Ref.Kind == RefNum)
}

func (t DataType) IsVoid() bool {
	return t.Kind == KindRef && t.Ref.Kind == RefNone
}

// BasicKind reports the slot layout a value of this type occupies.
func (t DataType) BasicKind() BasicKind { return t.Kind }

// structEqual is structural equality used for Tuple/Func component
// comparison, and pointer identity for Class/Enum/Interface.
func (t DataType) structEqual(o DataType) bool {
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind != KindRef {
		return true
	}
	if t.Ref.Kind != o.Ref.Kind {
		return false
	}
	switch t.Ref.Kind {
	case RefClass:
		return t.Ref.Class == o.Ref.Class
	case RefEnum:
		return t.Ref.Enum == o.Ref.Enum
	case RefInterface:
		return t.Ref.Interface == o.Ref.Interface
	case RefTuple:
		if len(t.Ref.Tuple) != len(o.Ref.Tuple) {
			return false
		}
		for i := range t.Ref.Tuple {
			if !t.Ref.Tuple[i].structEqual(o.Ref.Tuple[i]) {
				return false
			}
		}
		return true
	case RefFunc:
		return t.Ref.Func.equal(*o.Ref.Func)
	case RefWeak, RefArray, RefQueue:
		return t.Ref.Elem.structEqual(*o.Ref.Elem)
	default:
		return true
	}
}

// Subtype is a total, reflexive subtyping relation. Ported from the
// original's DataType::belong_to / RefType::belong_to.
func Subtype(a, b DataType) bool {
	if a.structEqual(b) {
		return true
	}
	if b.Kind == KindRef && b.Ref.Kind == RefAny {
		return true
	}
	if a.IsNumeric() && b.IsNumeric() {
		return true
	}
	if a.Kind != KindRef || b.Kind != KindRef {
		return false
	}
	return refSubtype(a.Ref, b.Ref)
}

func refSubtype(a, b RefType) bool {
	if b.Kind == RefAny {
		return true
	}
	switch a.Kind {
	case RefClass:
		switch b.Kind {
		case RefClass:
			return a.Class == b.Class || a.Class.IsDerivedFrom(b.Class)
		case RefInterface:
			return a.Class.ImplementsInterface(b.Interface)
		}
		return false
	case RefInterface:
		switch b.Kind {
		case RefInterface:
			return a.Interface == b.Interface || a.Interface.DerivedFrom(b.Interface)
		}
		return false
	case RefFunc:
		if b.Kind != RefFunc {
			return false
		}
		if b.Func.Wildcard {
			return true
		}
		return a.Func.equal(*b.Func)
	case RefArray:
		return b.Kind == RefArray && a.Elem.structEqual(*b.Elem)
	case RefQueue:
		return b.Kind == RefQueue && a.Elem.structEqual(*b.Elem)
	case RefWeak:
		return b.Kind == RefWeak && a.Elem.structEqual(*b.Elem)
	case RefTuple:
		if b.Kind != RefTuple || len(a.Tuple) != len(b.Tuple) {
			return false
		}
		for i := range a.Tuple {
			if !Subtype(a.Tuple[i], b.Tuple[i]) {
				return false
			}
		}
		return true
	default:
		return sameRefKind(a, b)
	}
}

func sameRefKind(a, b RefType) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case RefEnum:
		return a.Enum == b.Enum
	default:
		return true
	}
}

// Join returns the common supertype of a and b, as used when a
// heterogeneous array literal collapses to Array<Any>.
func Join(a, b DataType) (DataType, error) {
	if Subtype(a, b) {
		return b, nil
	}
	if Subtype(b, a) {
		return a, nil
	}
	if a.IsNumeric() && b.IsNumeric() {
		return Num, nil
	}
	if a.IsRef() && b.IsRef() {
		// Two classes: walk up a's parent chain looking for a supertype
		// of b, else fall back to Any — mirrors how the original source
		// collapses heterogeneous arrays.
		return Any, nil
	}
	return DataType{}, fmt.Errorf("no common supertype for %s and %s", a, b)
}

// Cast reports whether an explicit `as` conversion is permitted between
// numeric-like kinds or along an existing subtype edge.
func Cast(from, to DataType) bool {
	if Subtype(from, to) || Subtype(to, from) {
		return true
	}
	numLike := func(t DataType) bool {
		return t.IsNumeric() || t.Kind == KindChar || (t.Kind == KindRef && t.Ref.Kind == RefChar)
	}
	return numLike(from) && numLike(to)
}

// String renders a DataType the way the original's Display impl does,
// used for diagnostics.
func (t DataType) String() string {
	switch t.Kind {
	case KindInt:
		return "int"
	case KindNum:
		return "num"
	case KindChar:
		return "char"
	case KindBool:
		return "bool"
	}
	switch t.Ref.Kind {
	case RefAny:
		return "Any"
	case RefNone:
		return "Void"
	case RefMySelf:
		return "MySelf"
	case RefClass:
		return t.Ref.Class.ClassName()
	case RefEnum:
		return t.Ref.Enum.EnumName()
	case RefInterface:
		return t.Ref.Interface.InterfaceName()
	case RefMetaClass:
		return "Meta<" + t.Ref.Class.ClassName() + ">"
	case RefMetaEnum:
		return "Meta<" + t.Ref.Enum.EnumName() + ">"
	case RefMetaInterface:
		return "Meta<" + t.Ref.Interface.InterfaceName() + ">"
	case RefTuple:
		parts := make([]string, len(t.Ref.Tuple))
		for i, e := range t.Ref.Tuple {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ",") + ")"
	case RefFunc:
		parts := make([]string, len(t.Ref.Func.Params))
		for i, p := range t.Ref.Func.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("func(%s)->%s", strings.Join(parts, ","), t.Ref.Func.Return)
	case RefWeak:
		return "Weak<" + t.Ref.Elem.String() + ">"
	case RefArray:
		return "Array<" + t.Ref.Elem.String() + ">"
	case RefQueue:
		return "Queue<" + t.Ref.Elem.String() + ">"
	case RefInt:
		return "Int"
	case RefNum:
		return "Num"
	case RefChar:
		return "Char"
	case RefBool:
		return "Bool"
	case RefString:
		return "String"
	}
	return "?"
}

// Equal is structural/pointer equality, exposed for callers outside this
// package (the analyzer compares declared types with it).
func Equal(a, b DataType) bool { return a.structEqual(b) }
