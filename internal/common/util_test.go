package common

import "testing"

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d not wiped: %d", i, b)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

func TestWipeByteArray_EmptySafe(t *testing.T) {
	WipeByteArray([]byte{})
}
