package object

import "fmt"

// HostHandle wraps an external resource (a *sql.DB, a *websocket.Conn)
// behind the Object interface so internal/stdext's native functions can
// hand GloomScript code an opaque Any value that still participates in
// ordinary reference counting: when the handle's count reaches zero,
// Close runs exactly once via ReleaseChildren, the same hook a class's
// drop(self) method rides.
type HostHandle struct {
	header RefHeader
	Kind   string // "db", "ws" — used only for DebugString
	Value  interface{}
	Close  func() error
}

func NewHostHandle(kind string, value interface{}, close func() error) *HostHandle {
	return &HostHandle{header: RefHeader{Count: 1}, Kind: kind, Value: value, Close: close}
}

func (h *HostHandle) Type() ObjectType    { return ObjHostHandle }
func (h *HostHandle) Header() *RefHeader  { return &h.header }
func (h *HostHandle) DebugString() string { return fmt.Sprintf("<%s handle>", h.Kind) }
func (h *HostHandle) ReleaseChildren(func(Value)) {
	if h.Close != nil {
		h.Close()
	}
}
func (h *HostHandle) At(int) (Value, bool) { return Value{}, false }
func (h *HostHandle) Iter() Object         { return NewListIter(h) }
