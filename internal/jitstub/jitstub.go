// Package jitstub is a dormant JIT tier: a call counter tracking how
// hot each function gets, and a Compile entry point that shapes one
// throwaway LLVM IR function via github.com/llir/llvm before declining
// to actually emit native code. Never called from the interpreter's
// dispatch loop.
//
// original_source/src/jit/jit_function.rs leaves the same stage
// unimplemented; this package keeps the same tier thresholds and
// "no actual compilation" behavior without ever wiring into the VM.
package jitstub

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"gloom/internal/object"
	gloomtypes "gloom/internal/types"
)

// Tier is how hot a function needs to get before a real implementation
// would consider compiling it.
type Tier int

const (
	TierInterpreted Tier = iota
	TierQuickJIT
	TierOptimized
)

// Profiler counts calls per function, so a future JIT has somewhere to
// hang its hotness heuristic without this package needing to touch the
// VM's call path today.
type Profiler struct {
	counts map[*object.GloomFunc]int
}

func NewProfiler() *Profiler {
	return &Profiler{counts: make(map[*object.GloomFunc]int)}
}

// RecordCall bumps fn's call count and reports whether that count just
// crossed a tier threshold, and which tier.
func (p *Profiler) RecordCall(fn *object.GloomFunc) (bool, Tier) {
	p.counts[fn]++
	switch p.counts[fn] {
	case 100:
		return true, TierQuickJIT
	case 1000:
		return true, TierOptimized
	}
	return false, TierInterpreted
}

// Compile shapes fn's signature into a skeleton LLVM IR function — just
// enough to exercise the ir/types builder — and then declines: no
// native code is actually generated. A real backend would lower fn's
// Chunk to this module's basic blocks instead of a single unreachable
// terminator.
func Compile(fn *object.GloomFunc, tier Tier) (*ir.Module, error) {
	m := ir.NewModule()
	retType := types.Void
	if !fn.ReturnType.IsVoid() {
		retType = types.I64
	}
	params := make([]*ir.Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = ir.NewParam(p.Name, paramType(p))
	}
	irFn := m.NewFunc(fn.Name, retType, params...)
	entry := irFn.NewBlock("entry")
	entry.NewUnreachable()

	return m, fmt.Errorf("jitstub: native compilation not implemented (tier %d)", tier)
}

func paramType(p object.Param) types.Type {
	switch {
	case p.Type.IsRef():
		return types.I8Ptr
	case p.Type.Kind == gloomtypes.KindNum:
		return types.Double
	default:
		return types.I64
	}
}
