package types

import "testing"

func TestSubtypeReflexive(t *testing.T) {
	if !Subtype(Int, Int) {
		t.Fatalf("expected Int to be a subtype of itself")
	}
	if !Subtype(Str, Str) {
		t.Fatalf("expected String to be a subtype of itself")
	}
}

func TestSubtypeNumericWidening(t *testing.T) {
	if !Subtype(Int, Num) {
		t.Fatalf("expected Int to be a subtype of Num")
	}
	if !Subtype(Num, Int) {
		t.Fatalf("expected Num to be a subtype of Int (numeric widening is symmetric here)")
	}
}

func TestSubtypeEverythingIsSubtypeOfAny(t *testing.T) {
	if !Subtype(Int, Any) {
		t.Fatalf("expected Int to be a subtype of Any")
	}
	if !Subtype(Str, Any) {
		t.Fatalf("expected String to be a subtype of Any")
	}
	if !Subtype(Array(Int), Any) {
		t.Fatalf("expected Array<Int> to be a subtype of Any")
	}
}

func TestSubtypeRejectsUnrelatedRefKinds(t *testing.T) {
	if Subtype(Str, Bool) {
		t.Fatalf("did not expect String to be a subtype of Bool")
	}
	if Subtype(Array(Int), Str) {
		t.Fatalf("did not expect Array<Int> to be a subtype of String")
	}
}

func TestJoinIntAndIntStaysInt(t *testing.T) {
	j, err := Join(Int, Int)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !Equal(j, Int) {
		t.Fatalf("expected Join(Int, Int) == Int, got %s", j)
	}
}

func TestJoinIntAndNumWidensToNum(t *testing.T) {
	j, err := Join(Int, Num)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !Equal(j, Num) {
		t.Fatalf("expected Join(Int, Num) == Num, got %s", j)
	}
}

func TestArrayQueueWeakStructuralEquality(t *testing.T) {
	if !Equal(Array(Int), Array(Int)) {
		t.Fatalf("expected two Array<Int> constructions to compare structurally equal")
	}
	if Equal(Array(Int), Array(Num)) {
		t.Fatalf("did not expect Array<Int> to equal Array<Num>")
	}
	if !Equal(Queue(Str), Queue(Str)) {
		t.Fatalf("expected two Queue<String> constructions to compare structurally equal")
	}
	if !Equal(Weak(Int), Weak(Int)) {
		t.Fatalf("expected two Weak<Int> constructions to compare structurally equal")
	}
}

func TestTupleStructuralEquality(t *testing.T) {
	a := Tuple([]DataType{Int, Str})
	b := Tuple([]DataType{Int, Str})
	c := Tuple([]DataType{Str, Int})
	if !Equal(a, b) {
		t.Fatalf("expected two identically-shaped tuples to compare equal")
	}
	if Equal(a, c) {
		t.Fatalf("did not expect tuples with swapped element order to compare equal")
	}
}

func TestCastAllowsNumericAndCharConversions(t *testing.T) {
	if !Cast(Int, Num) {
		t.Fatalf("expected Int to be castable to Num")
	}
	if !Cast(Num, Int) {
		t.Fatalf("expected Num to be castable to Int")
	}
	if !Cast(Int, Char) {
		t.Fatalf("expected Int to be castable to Char")
	}
}

func TestCastRejectsUnrelatedKinds(t *testing.T) {
	if Cast(Str, Bool) {
		t.Fatalf("did not expect String to be castable to Bool")
	}
}

func TestDataTypeStringRendering(t *testing.T) {
	cases := map[string]DataType{
		"int":    Int,
		"num":    Num,
		"char":   Char,
		"bool":   Bool,
		"Any":    Any,
		"Void":   Void,
		"String": Str,
	}
	for want, dt := range cases {
		if got := dt.String(); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
	if got := Array(Int).String(); got != "Array<int>" {
		t.Errorf("got %q, want %q", got, "Array<int>")
	}
	if got := Queue(Str).String(); got != "Queue<String>" {
		t.Errorf("got %q, want %q", got, "Queue<String>")
	}
}
