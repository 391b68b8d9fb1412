package bytecode

// OpCode is a single fixed-width tagged bytecode instruction. Operands
// (slot indices, pool indices, jump targets)
// follow the opcode byte in the Chunk's code stream; see chunk.go for
// the write/patch helpers.
type OpCode byte

const (
	// Load literal/constant. Values that fit a 32-bit immediate are
	// inlined with LoadDirect*; anything larger goes through the
	// constant pool with LoadConst*.
	OpLoadDirectInt32 OpCode = iota
	OpLoadDirectNum32
	OpLoadDirectChar
	OpLoadDirectBool
	OpLoadConstInt
	OpLoadConstNum
	OpLoadConstString

	// Load type/function by program-wide index.
	OpLoadClass
	OpLoadEnum
	OpLoadBuiltinType
	OpLoadDirectDefFn

	// Slot I/O: Read takes (slot, sub); Write takes (slot[, sub]) and is
	// split per primitive kind so the VM never has to branch on a
	// runtime tag to know how many bytes of cell to touch.
	OpReadLocal
	OpReadStatic
	OpReadField
	OpWriteLocalInt
	OpWriteLocalNum
	OpWriteLocalChar
	OpWriteLocalBool
	OpWriteLocalRef
	OpWriteStaticInt
	OpWriteStaticNum
	OpWriteStaticChar
	OpWriteStaticBool
	OpWriteStaticRef
	OpWriteFieldInt
	OpWriteFieldNum
	OpWriteFieldChar
	OpWriteFieldBool
	OpWriteFieldRef
	OpDropLocal

	// Arithmetic/comparison/logic, operating on the top of the operand
	// stack; numeric widening happens here, not at load sites.
	OpPlus
	OpSub
	OpMul
	OpDiv
	OpGreaterThan
	OpLessThan
	OpGreaterThanEquals
	OpLessThanEquals
	OpEquals
	OpNotEquals
	OpLogicAnd
	OpLogicOr
	OpNotOp
	OpNegOp

	// Control flow.
	OpJumpIf
	OpJumpIfNot
	OpJump
	OpReturn

	// Composite constructors.
	OpCollectTuple
	OpCollectArray
	OpCollectQueue
	OpConstruct

	// OpConstructEnum builds a tagged-union value: operand is the
	// program-wide enum index, the variant index, and a hasPayload byte;
	// when hasPayload is set the payload value is popped off the operand
	// stack first.
	OpConstructEnum

	// Calls.
	OpCallTopFn
	OpCallStaticFn
	OpCallMethod

	// Enum destructuring for match expressions: the grammar has no
	// dedicated match instruction, so the compiler lowers `match` into a
	// sequence of tag comparisons and jumps, needing a way to pull a
	// tag/payload off an enum instance mid-sequence.
	OpEnumTag
	OpEnumPayload

	// OpLoadNil pushes the null reference, used wherever a Void-typed
	// expression (an else-less if, a bare return) still has to leave a
	// value for the caller to discard or bind.
	OpLoadNil

	// OpCast converts the top-of-stack numeric/char value to the
	// BasicKind given by its one-byte operand, per the `as` operator.
	OpCast

	// OpPop discards the top of the operand stack, releasing it first if
	// it is a reference value; emitted for an expression-statement whose
	// result nobody binds.
	OpPop

	// OpRetainTop bumps the refcount of the top-of-stack value without
	// popping it, used right before a block's own OpDropLocal sequence
	// so a trailing expression value that happens to alias a local
	// doesn't get freed out from under the block's own result.
	OpRetainTop

	// OpIterNew pops a container reference and pushes the iterator object
	// its Iter() method returns, for `for x in iter` loops (an
	// index-based iterator protocol; there is no dedicated ForEach
	// opcode, just a cursor object driven by OpIterNext each pass).
	OpIterNew

	// OpIterNext reads (without popping) the iterator left by OpIterNew,
	// advances its cursor, and pushes the next element followed by a
	// bool reporting whether one was found.
	OpIterNext
)

var opNames = map[OpCode]string{
	OpLoadDirectInt32:   "LoadDirectInt32",
	OpLoadDirectNum32:   "LoadDirectNum32",
	OpLoadDirectChar:    "LoadDirectChar",
	OpLoadDirectBool:    "LoadDirectBool",
	OpLoadConstInt:      "LoadConstInt",
	OpLoadConstNum:      "LoadConstNum",
	OpLoadConstString:   "LoadConstString",
	OpLoadClass:         "LoadClass",
	OpLoadEnum:          "LoadEnum",
	OpLoadBuiltinType:   "LoadBuiltinType",
	OpLoadDirectDefFn:   "LoadDirectDefFn",
	OpReadLocal:         "ReadLocal",
	OpReadStatic:        "ReadStatic",
	OpReadField:         "ReadField",
	OpWriteLocalInt:     "WriteLocalInt",
	OpWriteLocalNum:     "WriteLocalNum",
	OpWriteLocalChar:    "WriteLocalChar",
	OpWriteLocalBool:    "WriteLocalBool",
	OpWriteLocalRef:     "WriteLocalRef",
	OpWriteStaticInt:    "WriteStaticInt",
	OpWriteStaticNum:    "WriteStaticNum",
	OpWriteStaticChar:   "WriteStaticChar",
	OpWriteStaticBool:   "WriteStaticBool",
	OpWriteStaticRef:    "WriteStaticRef",
	OpWriteFieldInt:     "WriteFieldInt",
	OpWriteFieldNum:     "WriteFieldNum",
	OpWriteFieldChar:    "WriteFieldChar",
	OpWriteFieldBool:    "WriteFieldBool",
	OpWriteFieldRef:     "WriteFieldRef",
	OpDropLocal:         "DropLocal",
	OpPlus:              "Plus",
	OpSub:               "Sub",
	OpMul:               "Mul",
	OpDiv:               "Div",
	OpGreaterThan:       "GreaterThan",
	OpLessThan:          "LessThan",
	OpGreaterThanEquals: "GreaterThanEquals",
	OpLessThanEquals:    "LessThanEquals",
	OpEquals:            "Equals",
	OpNotEquals:         "NotEquals",
	OpLogicAnd:          "LogicAnd",
	OpLogicOr:           "LogicOr",
	OpNotOp:             "NotOp",
	OpNegOp:             "NegOp",
	OpJumpIf:            "JumpIf",
	OpJumpIfNot:         "JumpIfNot",
	OpJump:              "Jump",
	OpReturn:            "Return",
	OpCollectTuple:      "CollectTuple",
	OpCollectArray:      "CollectArray",
	OpCollectQueue:      "CollectQueue",
	OpConstruct:         "Construct",
	OpConstructEnum:     "ConstructEnum",
	OpCallTopFn:         "CallTopFn",
	OpCallStaticFn:      "CallStaticFn",
	OpCallMethod:        "CallMethod",
	OpEnumTag:           "EnumTag",
	OpEnumPayload:       "EnumPayload",
	OpLoadNil:           "LoadNil",
	OpCast:              "Cast",
	OpPop:               "Pop",
	OpRetainTop:         "RetainTop",
	OpIterNew:           "IterNew",
	OpIterNext:          "IterNext",
}

func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// StackEffect is the net number of values an instruction leaves on (or
// removes from, if negative) the operand stack, not counting any
// operand bytes encoded inline in the instruction stream. The compiler
// does not call it; it tracks the per-function high-water mark by hand.
// Instructions whose effect depends on a runtime operand (call arg
// counts, collection sizes) are computed by the caller instead of
// looked up here; they report 0 and are annotated at the call site.
func (op OpCode) StackEffect() int {
	switch op {
	case OpLoadDirectInt32, OpLoadDirectNum32, OpLoadDirectChar, OpLoadDirectBool,
		OpLoadConstInt, OpLoadConstNum, OpLoadConstString,
		OpLoadClass, OpLoadEnum, OpLoadBuiltinType, OpLoadDirectDefFn,
		OpReadLocal, OpReadStatic, OpReadField, OpLoadNil:
		return 1
	case OpCast:
		return 0
	case OpPop:
		return -1
	case OpRetainTop:
		return 0
	case OpEnumTag, OpEnumPayload:
		return 0
	case OpPlus, OpSub, OpMul, OpDiv,
		OpGreaterThan, OpLessThan, OpGreaterThanEquals, OpLessThanEquals,
		OpEquals, OpNotEquals, OpLogicAnd, OpLogicOr:
		return -1 // two operands popped, one pushed
	case OpNotOp, OpNegOp:
		return 0 // one popped, one pushed
	case OpWriteLocalInt, OpWriteLocalNum, OpWriteLocalChar, OpWriteLocalBool, OpWriteLocalRef,
		OpWriteStaticInt, OpWriteStaticNum, OpWriteStaticChar, OpWriteStaticBool, OpWriteStaticRef,
		OpWriteFieldInt, OpWriteFieldNum, OpWriteFieldChar, OpWriteFieldBool, OpWriteFieldRef:
		return -1
	case OpDropLocal:
		return 0
	case OpJumpIf, OpJumpIfNot:
		return -1
	case OpJump:
		return 0
	case OpReturn:
		return 0
	default:
		return 0
	}
}
