package stdext

import (
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"gloom/internal/object"
)

// biUUID is uuid() -> String, a random (v4) identifier.
func biUUID(args []object.Value) (object.Value, error) {
	return object.VRef(object.NewString(uuid.NewString())), nil
}

// biHumanizeBytes is humanize_bytes(n) -> String, e.g. 1536 -> "1.5 kB".
func biHumanizeBytes(args []object.Value) (object.Value, error) {
	n := args[0].I
	return object.VRef(object.NewString(humanize.Bytes(uint64(n)))), nil
}
