package gnss

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ubxgnss/internal/ubx"
)

// BootState tracks the receiver's reset lifecycle.
type BootState uint8

const (
	Idle BootState = iota
	ResetPending
	Ready
)

func (s BootState) String() string {
	switch s {
	case Idle:
		return "idle"
	case ResetPending:
		return "reset-pending"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("boot(%d)", uint8(s))
	}
}

// BootState returns where the Device is in its reset lifecycle.
func (d *Device) BootState() BootState { return d.boot }

func (d *Device) startBootTimer() {
	d.boot = ResetPending
	d.resetAt = now()
}

// SoftwareReset sends CFG-RST. The receiver does not acknowledge it; the boot
// timer starts regardless of whether the send succeeded.
func (d *Device) SoftwareReset(kind ubx.ResetKind) error {
	err := d.Do(Command{Class: ubx.ClassCFG, ID: ubx.CfgRST, Payload: ubx.PayloadCfgRST(kind)})
	d.startBootTimer()
	d.log.Info("software reset", zap.Stringer("kind", kind), zap.Error(err))
	return err
}

// HardwareReset holds the reset line asserted for ResetPulse, then releases
// it and starts the boot timer.
func (d *Device) HardwareReset() error {
	if d.reset == nil {
		return errors.New("gnss: no reset line configured")
	}
	if err := d.reset.Assert(); err != nil {
		return fmt.Errorf("%w: assert reset: %w", ErrBus, err)
	}
	sleep(ResetPulse)
	if err := d.reset.Release(); err != nil {
		return fmt.Errorf("%w: release reset: %w", ErrBus, err)
	}
	d.startBootTimer()
	d.log.Info("hardware reset")
	return nil
}

// Begin brings the receiver to Ready.
//
// Without a pending reset it issues a hot software reset first. It then waits
// out the rest of the boot time, checks the receiver identity with MON-VER and,
// if configure is set, applies the Variant's configuration.
func (d *Device) Begin(configure bool) error {
	if d.boot != ResetPending {
		d.log.Debug("begin without a pending reset, issuing hot start")
		_ = d.SoftwareReset(ubx.ResetHot)
	}
	if left := d.bootRemaining(); left > 0 {
		d.log.Debug("waiting for receiver boot", zap.Duration("remaining", left))
		sleep(left)
	}
	d.boot = Ready

	v, err := d.CheckVersion()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotDetected, d.variant.Name(), err)
	}
	d.mu.Lock()
	d.firmware = v
	d.mu.Unlock()
	d.log.Info("receiver booted",
		zap.String("variant", d.variant.Name()),
		zap.String("software", v.Software),
		zap.String("hardware", v.Hardware))

	if configure {
		if err := d.variant.Configure(d); err != nil {
			return fmt.Errorf("gnss: configure %s: %w", d.variant.Name(), err)
		}
	}
	return nil
}

// bootRemaining is how long the receiver still needs before it can answer.
func (d *Device) bootRemaining() time.Duration {
	if d.boot != ResetPending {
		return 0
	}
	if left := d.bootTime - now().Sub(d.resetAt); left > 0 {
		return left
	}
	return 0
}
