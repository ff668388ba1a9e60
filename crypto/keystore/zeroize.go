package keystore

import "runtime"

// zeroize overwrites a byte slice with zeros to clear sensitive data from
// memory. Records hold the only long-lived copy of each private scalar, so
// wiping them is what destroys the key.
func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b) // Prevent dead code elimination
}
