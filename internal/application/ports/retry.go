package ports

import "errors"

// ErrSerializationConflict is returned by Tx.Commit when the underlying
// store detected a serialization failure or deadlock. The executor retries the whole operation, bounded, on this
// specific error; it never retries on any other failure.
var ErrSerializationConflict = errors.New("store: serialization conflict")
