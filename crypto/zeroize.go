package crypto

import "runtime"

// zeroize overwrites a byte slice with zeros to clear sensitive data from memory.
// Go's garbage collector does not guarantee immediate collection, so secret
// scalars and signature intermediates are cleared explicitly as soon as they
// are no longer needed.
func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b) // Prevent dead code elimination
}
