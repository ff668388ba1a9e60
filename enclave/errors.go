package enclave

import "errors"

// The engine's closed error vocabulary. Every failed invocation resolves to
// exactly one of these kinds; callers classify with errors.Is. Validation
// failures are detected before any state mutation, so a failed command never
// leaves a partial record or a partial counter update behind.
var (
	// ErrInvalidParameters reports a request whose shape or sizes are wrong:
	// empty or oversized key id, digest of the wrong length, or an unknown
	// command at the dispatch boundary.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrNotFound reports a key id with no live record.
	ErrNotFound = errors.New("key not found")

	// ErrAlreadyExists reports an attempt to create a key id that is live.
	ErrAlreadyExists = errors.New("key already exists")

	// ErrCapacityExceeded reports that the key store is full.
	ErrCapacityExceeded = errors.New("key store full")

	// ErrAccessDenied reports a signing attempt on a key that is not active,
	// or any command issued after the engine has been closed.
	ErrAccessDenied = errors.New("access denied")

	// ErrUnsupportedKeyType reports a key type outside the recognized range.
	ErrUnsupportedKeyType = errors.New("unsupported key type")

	// ErrNotImplemented reports a command or key type the engine recognizes
	// but does not implement: Ed25519 paths, import, and delete.
	ErrNotImplemented = errors.New("not implemented")

	// ErrShortBuffer reports an output buffer too small for a result
	// structure. Nothing is written to an undersized buffer.
	ErrShortBuffer = errors.New("output buffer too small")

	// ErrPrimitiveFailure wraps an error from the cryptographic primitive
	// layer. The provider's message is preserved in the chain.
	ErrPrimitiveFailure = errors.New("crypto primitive failure")

	// ErrInvalidSignature is reserved for verification paths; no current
	// command returns it.
	ErrInvalidSignature = errors.New("invalid signature")
)
