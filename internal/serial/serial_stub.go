//go:build !linux

package serial

import "fmt"

func Open(path string, baud int) (*Port, error) {
	return nil, fmt.Errorf("serial: unsupported OS (need linux)")
}
