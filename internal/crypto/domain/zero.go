package domain

import "crypto/subtle"

// Zero overwrites a byte slice with zeros to clear sensitive data from memory.
// Best effort only: the garbage collector may have copied the slice before the
// wipe runs, so this is defense in depth rather than a guarantee.
func Zero(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}

// SecureEqual compares two byte slices in constant time to prevent timing
// side-channels when comparing secrets or tokens.
func SecureEqual(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
