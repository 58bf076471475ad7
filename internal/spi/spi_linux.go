//go:build linux

package spi

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// spidev ioctls (linux/spi/spidev.h).
const (
	spiIocWrMode        = 0x40016b01
	spiIocWrBitsPerWord = 0x40016b03
	spiIocWrMaxSpeedHz  = 0x40046b04
	spiIocMessage1      = 0x40206b00

	// ModeNoCS disables the controller chip-select.
	ModeNoCS = 0x40
)

// iocTransfer mirrors struct spi_ioc_transfer.
type iocTransfer struct {
	txBuf       uint64
	rxBuf       uint64
	len         uint32
	speedHz     uint32
	delayUsecs  uint16
	bitsPerWord uint8
	csChange    uint8
	txNbits     uint8
	rxNbits     uint8
	wordDelay   uint8
	pad         uint8
}

// Dev is an opened /dev/spidevB.C.
type Dev struct {
	mu    sync.Mutex
	f     *os.File
	path  string
	speed uint32
}

// Open configures path for 8-bit transfers in the given mode. Speed is capped
// at MaxSpeedHz.
func Open(path string, mode uint8, speedHz int) (*Dev, error) {
	if path == "" {
		return nil, errors.New("spi: empty path")
	}
	if speedHz <= 0 || speedHz > MaxSpeedHz {
		speedHz = MaxSpeedHz
	}
	clean := filepath.Clean(path)
	f, err := os.OpenFile(clean, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("spi: open %s: %w", clean, err)
	}
	d := &Dev{f: f, path: clean, speed: uint32(speedHz)}

	bits := uint8(8)
	speed := d.speed
	for _, c := range []struct {
		req uintptr
		arg unsafe.Pointer
	}{
		{spiIocWrMode, unsafe.Pointer(&mode)},
		{spiIocWrBitsPerWord, unsafe.Pointer(&bits)},
		{spiIocWrMaxSpeedHz, unsafe.Pointer(&speed)},
	} {
		if _, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), c.req, uintptr(c.arg)); errno != 0 {
			_ = f.Close()
			return nil, fmt.Errorf("spi: configure %s: %w", clean, errno)
		}
	}
	return d, nil
}

func (d *Dev) Close() error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}

func (d *Dev) Transfer(w, r []byte, keepCS bool) error {
	if d == nil {
		return errors.New("spi device is nil")
	}
	if len(w) != len(r) {
		return fmt.Errorf("spi: tx/rx length mismatch (%d/%d)", len(w), len(r))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return errors.New("spi device is closed")
	}

	tr := iocTransfer{len: uint32(len(w)), speedHz: d.speed, bitsPerWord: 8}
	if len(w) > 0 {
		tr.txBuf = uint64(uintptr(unsafe.Pointer(&w[0])))
		tr.rxBuf = uint64(uintptr(unsafe.Pointer(&r[0])))
	}
	if keepCS {
		tr.csChange = 1
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), spiIocMessage1, uintptr(unsafe.Pointer(&tr)))
	if errno != 0 {
		return errno
	}
	return nil
}
