package vm

import (
	"gloom/internal/object"
	"gloom/internal/types"
)

// Retain bumps a reference value's count. Primitives are no-ops.
func (vm *VM) Retain(v object.Value) {
	if v.Kind != types.KindRef || v.Obj == nil {
		return
	}
	v.Obj.Header().Count++
}

// Release drops a reference value's count, and once it reaches zero,
// runs the owning class's drop(self) method (if any) before releasing
// every reference the object itself holds — the single drop_by_vm hook,
// driven entirely from this one call site rather than from the object
// model (object.Object has no reference back to the VM).
func (vm *VM) Release(v object.Value) {
	if v.Kind != types.KindRef || v.Obj == nil {
		return
	}
	hdr := v.Obj.Header()
	hdr.Count--
	if hdr.Count > 0 {
		return
	}
	if inst, ok := v.Obj.(*object.ClassInstance); ok && inst.Class.DropIndex >= 0 {
		vm.callGloomFunc(inst.Class.Funcs[inst.Class.DropIndex], []object.Value{v}, nil)
	}
	v.Obj.ReleaseChildren(vm.Release)
}
