// Package common contains small helpers shared across client components.
package common

// WipeByteArray zeroes the buffer in place. Use it on password slices once
// they are no longer needed. Safe to call with nil.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
