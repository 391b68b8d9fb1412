package stdext

import (
	"fmt"

	"github.com/gorilla/websocket"

	"gloom/internal/object"
)

// biWSDial is ws_dial(url) -> Any: opens a websocket connection and
// wraps it in a host handle.
func biWSDial(args []object.Value) (object.Value, error) {
	url := args[0].Obj.(*object.StringObj).Value
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return object.Value{}, fmt.Errorf("ws_dial: %w", err)
	}
	return object.VRef(object.NewHostHandle("ws", conn, conn.Close)), nil
}

func asWSConn(v object.Value, who string) (*websocket.Conn, error) {
	handle, ok := v.Obj.(*object.HostHandle)
	if !ok || handle.Kind != "ws" {
		return nil, fmt.Errorf("%s: argument is not a websocket handle", who)
	}
	return handle.Value.(*websocket.Conn), nil
}

// biWSSend is ws_send(handle, message) -> Void.
func biWSSend(args []object.Value) (object.Value, error) {
	conn, err := asWSConn(args[0], "ws_send")
	if err != nil {
		return object.Value{}, err
	}
	msg := args[1].Obj.(*object.StringObj).Value
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		return object.Value{}, fmt.Errorf("ws_send: %w", err)
	}
	return object.VNil(), nil
}

// biWSRecv is ws_recv(handle) -> String, blocking for the next text
// frame.
func biWSRecv(args []object.Value) (object.Value, error) {
	conn, err := asWSConn(args[0], "ws_recv")
	if err != nil {
		return object.Value{}, err
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return object.Value{}, fmt.Errorf("ws_recv: %w", err)
	}
	return object.VRef(object.NewString(string(data))), nil
}
