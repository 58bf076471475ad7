package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"ubxgnss/internal/config"
	"ubxgnss/internal/gnss"
	"ubxgnss/internal/gpio"
	"ubxgnss/internal/i2c"
	"ubxgnss/internal/serial"
	"ubxgnss/internal/softi2c"
	"ubxgnss/internal/spi"
	"ubxgnss/internal/transport"
	"ubxgnss/internal/ubx"
)

// hardware owns everything opened for the receiver so it can be released
// in one place.
type hardware struct {
	tr      transport.Transport
	reset   gnss.ResetLine
	closers []io.Closer
}

func (h *hardware) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}

func openHardware(g config.GNSSConfig, log *zap.Logger) (*hardware, error) {
	h := &hardware{}
	ok := false
	defer func() {
		if !ok {
			_ = h.Close()
		}
	}()

	if g.GPIO.Reset != "" {
		line, err := gpio.OpenOutput(g.GPIO.Chip, g.GPIO.Reset, 1)
		if err != nil {
			return nil, fmt.Errorf("reset line: %w", err)
		}
		h.closers = append(h.closers, line)
		h.reset = gpio.NewReset(line)
	}

	o := transport.Options{Logger: log.Named("transport")}
	switch g.Bus {
	case "i2c":
		bus, err := i2c.Open(g.I2CDevice)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, bus)
		o.Lock = bus
		h.tr = transport.NewBurstReader(i2c.NewDDC(bus.Dev(uint16(g.Address))), o)

	case "softi2c":
		sda, err := gpio.OpenPin(g.GPIO.Chip, g.GPIO.SDA)
		if err != nil {
			return nil, fmt.Errorf("sda: %w", err)
		}
		h.closers = append(h.closers, sda)
		scl, err := gpio.OpenPin(g.GPIO.Chip, g.GPIO.SCL)
		if err != nil {
			return nil, fmt.Errorf("scl: %w", err)
		}
		h.closers = append(h.closers, scl)
		bus, err := softi2c.New(sda, scl, byte(g.Address), softi2c.Options{Half: g.GPIO.HalfPeriod})
		if err != nil {
			return nil, err
		}
		o.Lock = bus
		h.tr = transport.NewStreamReader(bus, o)

	case "serial":
		port, err := serial.Open(g.SerialDevice, g.Baud)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, port)
		o.Resume = true
		h.tr = transport.NewStreamReader(port, o)

	case "spi":
		mode := uint8(g.SPIMode)
		var cs spi.Selector
		if g.GPIO.CS != "" {
			line, err := gpio.OpenOutput(g.GPIO.Chip, g.GPIO.CS, 1)
			if err != nil {
				return nil, fmt.Errorf("chip-select: %w", err)
			}
			h.closers = append(h.closers, line)
			cs = gpio.NewChipSelect(line)
			mode |= spi.ModeNoCS
		}
		dev, err := spi.Open(g.SPIDevice, mode, g.SPISpeedHz)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, dev)
		h.tr = transport.NewClockedReader(spi.New(dev, cs), o)

	default:
		return nil, fmt.Errorf("unknown bus %q", g.Bus)
	}

	ok = true
	return h, nil
}

// buildVariant picks the configuration dialect and the port it configures.
func buildVariant(g config.GNSSConfig) (gnss.Variant, error) {
	switch g.Generation {
	case "gen8":
		v := gnss.Gen8{}
		switch g.Bus {
		case "i2c", "softi2c":
			v.Port = ubx.DDCPort(uint8(g.Address))
		case "spi":
			v.Port = ubx.SPIPort(uint8(g.SPIMode))
		case "serial":
			v.Port = ubx.UARTPort(uint32(g.Baud))
		default:
			return nil, fmt.Errorf("unknown bus %q", g.Bus)
		}
		if g.Timepulse.Enable {
			tp := ubx.NewTimepulse(g.Timepulse.FreqHz, g.Timepulse.DutyPercent/100, g.Timepulse.Delay)
			v.Timepulse = &tp
		}
		return v, nil

	case "gen9":
		v := gnss.Gen9{}
		switch g.Bus {
		case "i2c", "softi2c":
			v.Port = gnss.Gen9I2C
		case "spi":
			v.Port = gnss.Gen9SPI
		case "serial":
			v.Port = gnss.Gen9UART1
		default:
			return nil, fmt.Errorf("unknown bus %q", g.Bus)
		}
		if strings.TrimSpace(g.PlatformModel) != "" {
			m, err := gnss.ParsePlatformModel(g.PlatformModel)
			if err != nil {
				return nil, err
			}
			v.Model = &m
		}
		return v, nil
	}
	return nil, fmt.Errorf("unknown generation %q", g.Generation)
}
