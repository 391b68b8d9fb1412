package stdext

import (
	"testing"

	"gloom/internal/object"
)

func TestAsWSConnRejectsWrongHandleKind(t *testing.T) {
	dbHandle := object.VRef(object.NewHostHandle("db", nil, func() error { return nil }))
	if _, err := asWSConn(dbHandle, "ws_send"); err == nil {
		t.Fatalf("expected an error passing a db handle to a websocket function")
	}
}

func TestAsWSConnRejectsNonHandle(t *testing.T) {
	if _, err := asWSConn(object.VInt(1), "ws_send"); err == nil {
		t.Fatalf("expected an error passing a bare int to a websocket function")
	}
}
