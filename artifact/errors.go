package artifact

import "fmt"

var (
	// ErrNotFound is returned when an artifact for the given run / id pair
	// does not exist in the underlying store.
	ErrNotFound = fmt.Errorf("artifact not found")

	// ErrDuplicateID is returned when a save would overwrite an existing
	// artifact id. Stores are append-only; artifacts are immutable.
	ErrDuplicateID = fmt.Errorf("artifact id already stored")
)
