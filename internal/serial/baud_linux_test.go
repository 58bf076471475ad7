//go:build linux

package serial

import "testing"

func TestBaudToUnix(t *testing.T) {
	for _, b := range []int{9600, 38400, 115200, 460800} {
		if _, err := baudToUnix(b); err != nil {
			t.Fatalf("baud %d: %v", b, err)
		}
	}
	if _, err := baudToUnix(1234); err == nil {
		t.Fatalf("expected error for unsupported baud")
	}
}
