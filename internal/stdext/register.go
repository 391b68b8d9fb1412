// Package stdext implements host-integration builtins beyond the
// language core: database access, websocket transport, UUIDs and
// byte-size formatting. Each
// function is an ordinary object.GloomFunc with BodyKind ==
// object.BodyNative, registered into the top-level function table the
// same way internal/builtin installs print/println/input — so a script
// calls db_open(...) exactly like any user-declared function.
//
// Modeled on a db_connect/db_query/ws_dial builtin surface, adapted to
// this language's statically typed builtin-call convention, with the
// driver set pulled in behind a small dialect-name switch.
package stdext

import (
	"fmt"

	"gloom/internal/object"
	"gloom/internal/types"
)

func nativeFunc(name string, params []types.DataType, ret types.DataType, fn object.NativeFunc) *object.GloomFunc {
	gf := &object.GloomFunc{
		Name:       name,
		ReturnType: ret,
		BodyKind:   object.BodyNative,
		Native:     fn,
	}
	for i, p := range params {
		gf.Params = append(gf.Params, object.Param{Name: fmt.Sprintf("arg%d", i), Type: p})
	}
	return gf
}

// TopLevel is every stdext builtin installed as a free function, keyed
// by name (mirrors internal/builtin.TopLevel).
var TopLevel = map[string]*object.GloomFunc{
	"db_open":         nativeFunc("db_open", []types.DataType{types.Str, types.Str}, types.Any, biDBOpen),
	"db_query":        nativeFunc("db_query", []types.DataType{types.Any, types.Str}, types.Array(types.Any), biDBQuery),
	"ws_dial":         nativeFunc("ws_dial", []types.DataType{types.Str}, types.Any, biWSDial),
	"ws_send":         nativeFunc("ws_send", []types.DataType{types.Any, types.Str}, types.Void, biWSSend),
	"ws_recv":         nativeFunc("ws_recv", []types.DataType{types.Any}, types.Str, biWSRecv),
	"uuid":            nativeFunc("uuid", nil, types.Str, biUUID),
	"humanize_bytes":  nativeFunc("humanize_bytes", []types.DataType{types.Int}, types.Str, biHumanizeBytes),
}

// topLevelOrder pins install order so the program's function table is
// deterministic across runs, the same discipline internal/builtin
// follows.
var topLevelOrder = []string{"db_open", "db_query", "ws_dial", "ws_send", "ws_recv", "uuid", "humanize_bytes"}

// Register pre-seeds prog's top-level function table with every stdext
// builtin before the analyzer's declaration-intake phase runs.
func Register(funcs map[string]*object.GloomFunc, order *[]string) {
	for _, name := range topLevelOrder {
		funcs[name] = TopLevel[name]
		*order = append(*order, name)
	}
}
