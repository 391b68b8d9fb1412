// Package builtin implements the language-level builtins the language
// mandates directly: print/println/input as top-level functions, and
// String.append / Func.printBody as methods on the two reference types
// that aren't classes, so they can't go through the ordinary
// class-method table.
//
// Builtins are plain object.GloomFunc records with BodyKind ==
// BodyNative; internal/analysis registers the top-level ones into every
// Program before declaration intake runs, exactly like a user-declared
// function, so name resolution and argument-count/type checking for a
// call to print() go through the same path as a call to any other
// top-level function.
package builtin

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"gloom/internal/bytecode"
	"gloom/internal/object"
	"gloom/internal/types"
)

// Stdout/Stdin default to the process's console; tests swap Stdout to
// capture output without touching the real console.
var (
	Stdout io.Writer     = os.Stdout
	Stdin  *bufio.Reader = bufio.NewReader(os.Stdin)
)

func nativeFunc(name string, hasSelf bool, params []types.DataType, ret types.DataType, fn object.NativeFunc) *object.GloomFunc {
	gf := &object.GloomFunc{
		Name:       name,
		HasSelf:    hasSelf,
		ReturnType: ret,
		BodyKind:   object.BodyNative,
		Native:     fn,
	}
	for i, p := range params {
		gf.Params = append(gf.Params, object.Param{Name: fmt.Sprintf("arg%d", i), Type: p})
	}
	return gf
}

// TopLevel is every builtin installed as a free function, keyed by name.
var TopLevel = map[string]*object.GloomFunc{
	"print":   nativeFunc("print", false, []types.DataType{types.Any}, types.Void, biPrint),
	"println": nativeFunc("println", false, []types.DataType{types.Any}, types.Void, biPrintln),
	"input":   nativeFunc("input", false, nil, types.Str, biInput),
	"Queue":   nativeFunc("Queue", false, nil, types.Queue(types.Any), biQueue),
}

// topLevelOrder pins install order so FuncOrder (and therefore the
// compiler's program-wide function table) is deterministic across runs.
var topLevelOrder = []string{"print", "println", "input", "Queue"}

// Register pre-seeds prog's top-level function table with every builtin
// before the analyzer's declaration-intake phase runs, so calls to them
// resolve exactly like a call to a user-declared top-level function.
func Register(funcs map[string]*object.GloomFunc, order *[]string) {
	for _, name := range topLevelOrder {
		funcs[name] = TopLevel[name]
		*order = append(*order, name)
	}
}

func biPrint(args []object.Value) (object.Value, error) {
	fmt.Fprint(Stdout, object.Debug(args[0]))
	return object.VNil(), nil
}

func biPrintln(args []object.Value) (object.Value, error) {
	fmt.Fprintln(Stdout, object.Debug(args[0]))
	return object.VNil(), nil
}

func biInput(args []object.Value) (object.Value, error) {
	line, err := Stdin.ReadString('\n')
	if err != nil && line == "" {
		return object.VRef(object.NewString("")), nil
	}
	line = strings.TrimRight(line, "\r\n")
	return object.VRef(object.NewString(line)), nil
}

// biQueue is the Queue() constructor: the grammar has no queue-literal
// syntax (only the Queue<T> type annotation), so building one goes
// through this free function instead, the same way the original's REPL
// examples construct one via a builtin call.
func biQueue(args []object.Value) (object.Value, error) {
	return object.VRef(object.NewQueue(types.Any)), nil
}

// StringAppend is String.append(self, other), the one named String
// method. Not installed into any top-level table — internal/
// analysis special-cases method calls on a String-typed receiver and
// binds straight to this record (see analyzeMethodCall).
var StringAppend = nativeFunc("append", true, []types.DataType{types.Str}, types.Str, func(args []object.Value) (object.Value, error) {
	self := args[0].Obj.(*object.StringObj)
	other := args[1].Obj.(*object.StringObj)
	return object.VRef(self.Append(other)), nil
})

// FuncPrintBody is Func.printBody(self): prints a one-line summary of a
// closure's underlying function to Stdout (code size in bytes, max stack
// depth, local count), or a one-line placeholder for a function that is
// still an uncompiled AST or a native builtin. Individual instructions
// are not listed.
var FuncPrintBody = nativeFunc("printBody", true, nil, types.Void, func(args []object.Value) (object.Value, error) {
	cl, ok := args[0].Obj.(*object.Closure)
	if !ok {
		fmt.Fprintln(Stdout, "<not a function value>")
		return object.VNil(), nil
	}
	fmt.Fprintln(Stdout, disassemble(cl.Func))
	return object.VNil(), nil
})

// Array and Queue expose a small method surface (at/set/push/len for
// Array; push/pop/len for Queue), the container operations
// original_source's builtin/queue.rs and obj/array.rs define.
// internal/analysis binds a method call on a
// RefArray/RefQueue receiver straight to these records, the same way it
// does for String.append.
var (
	ArrayAt = nativeFunc("at", true, []types.DataType{types.Int}, types.Any, func(args []object.Value) (object.Value, error) {
		arr := args[0].Obj.(*object.ArrayObj)
		v, ok := arr.At(int(args[1].I))
		if !ok {
			return object.Value{}, fmt.Errorf("array index %d out of range (len %d)", args[1].I, len(arr.Items))
		}
		return v, nil
	})
	ArraySet = nativeFunc("set", true, []types.DataType{types.Int, types.Any}, types.Void, func(args []object.Value) (object.Value, error) {
		arr := args[0].Obj.(*object.ArrayObj)
		i := int(args[1].I)
		if i < 0 || i >= len(arr.Items) {
			return object.Value{}, fmt.Errorf("array index %d out of range (len %d)", i, len(arr.Items))
		}
		arr.Items[i] = args[2]
		return object.VNil(), nil
	})
	ArrayPush = nativeFunc("push", true, []types.DataType{types.Any}, types.Void, func(args []object.Value) (object.Value, error) {
		arr := args[0].Obj.(*object.ArrayObj)
		arr.Items = append(arr.Items, args[1])
		return object.VNil(), nil
	})
	ArrayLen = nativeFunc("len", true, nil, types.Int, func(args []object.Value) (object.Value, error) {
		arr := args[0].Obj.(*object.ArrayObj)
		return object.VInt(int64(len(arr.Items))), nil
	})
	QueuePush = nativeFunc("push", true, []types.DataType{types.Any}, types.Void, func(args []object.Value) (object.Value, error) {
		q := args[0].Obj.(*object.QueueObj)
		q.Push(args[1])
		return object.VNil(), nil
	})
	QueuePop = nativeFunc("pop", true, nil, types.Any, func(args []object.Value) (object.Value, error) {
		q := args[0].Obj.(*object.QueueObj)
		v, ok := q.Pop()
		if !ok {
			return object.Value{}, fmt.Errorf("pop from empty queue")
		}
		return v, nil
	})
	QueueLen = nativeFunc("len", true, nil, types.Int, func(args []object.Value) (object.Value, error) {
		q := args[0].Obj.(*object.QueueObj)
		return object.VInt(int64(q.Len())), nil
	})
)

// Disassemble exposes the same one-line/summary rendering printBody
// uses, for the CLI's build command to print per-function.
func Disassemble(fn *object.GloomFunc) string {
	return disassemble(fn)
}

func disassemble(fn *object.GloomFunc) string {
	switch fn.BodyKind {
	case object.BodyNative:
		return fmt.Sprintf("fn %s: <native>", fn.Name)
	case object.BodyBytecode, object.BodyAST:
		chunk, ok := fn.Chunk.(*bytecode.Chunk)
		if !ok {
			return fmt.Sprintf("fn %s: <uncompiled>", fn.Name)
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "fn %s (%d bytes, stack %d, locals %d)", fn.Name, len(chunk.Code), fn.MaxStack, fn.LocalSize)
		return sb.String()
	default:
		return fmt.Sprintf("fn %s: <none>", fn.Name)
	}
}
