package gnss

import (
	"errors"
	"fmt"
	"strings"

	"ubxgnss/internal/ubx"
)

// Variant is the configuration dialect of a receiver generation.
type Variant interface {
	Name() string
	// Configure switches the receiver's active port to UBX and enables
	// NAV-PVT output.
	Configure(d *Device) error
}

// Gen8 configures M8 receivers through legacy payload messages
// (CFG-PRT, CFG-MSG, CFG-CFG).
type Gen8 struct {
	// Port describes the bus the receiver is reached on.
	Port ubx.PortConfig
	// Timepulse, when set, is applied with CFG-TP5 before saving.
	Timepulse *ubx.Timepulse5
}

func (Gen8) Name() string { return "gen8" }

func (g Gen8) Configure(d *Device) error {
	if err := d.ConfigurePort(g.Port); err != nil {
		return fmt.Errorf("port: %w", err)
	}
	if err := d.SetMessageRate(ubx.ClassNAV, ubx.NavPVT, 1); err != nil {
		return fmt.Errorf("enable NAV-PVT: %w", err)
	}
	if g.Timepulse != nil {
		if err := d.ConfigureTimepulse(*g.Timepulse); err != nil {
			return fmt.Errorf("timepulse: %w", err)
		}
		if err := d.SetMessageRate(ubx.ClassTIM, ubx.TimTP, 1); err != nil {
			return fmt.Errorf("enable TIM-TP: %w", err)
		}
	}
	if err := d.SaveSettings(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Configuration keys used by Gen9. The full key catalog lives in the u-blox
// interface description.
const (
	KeyI2CInProtUBX     uint32 = 0x10710001
	KeyI2CInProtNMEA    uint32 = 0x10710002
	KeyI2COutProtUBX    uint32 = 0x10720001
	KeyI2COutProtNMEA   uint32 = 0x10720002
	KeyUART1InProtUBX   uint32 = 0x10730001
	KeyUART1InProtNMEA  uint32 = 0x10730002
	KeyUART1OutProtUBX  uint32 = 0x10740001
	KeyUART1OutProtNMEA uint32 = 0x10740002
	KeySPIInProtUBX     uint32 = 0x10790001
	KeySPIInProtNMEA    uint32 = 0x10790002
	KeySPIOutProtUBX    uint32 = 0x107A0001
	KeySPIOutProtNMEA   uint32 = 0x107A0002

	// Message output rate keys for the I2C port. Other ports are reached by
	// adding a MsgOutOffset.
	KeyMsgOutNavPVT  uint32 = 0x20910006
	KeyMsgOutRxmRAWX uint32 = 0x209102A4

	KeyHWAntVoltCtrl  uint32 = 0x10A3002E
	KeyNavSpgDynModel uint32 = 0x20110021
)

// MsgOutOffset selects the port of a message output rate key.
type MsgOutOffset uint32

const (
	MsgOutI2C   MsgOutOffset = 0
	MsgOutUART1 MsgOutOffset = 1
	MsgOutUART2 MsgOutOffset = 2
	MsgOutUSB   MsgOutOffset = 3
	MsgOutSPI   MsgOutOffset = 4
)

// PlatformModel is the CFG-NAVSPG-DYNMODEL value.
type PlatformModel uint8

const (
	ModelPortable   PlatformModel = 0
	ModelStationary PlatformModel = 2
	ModelPedestrian PlatformModel = 3
	ModelAutomotive PlatformModel = 4
	ModelSea        PlatformModel = 5
	ModelAirborne1G PlatformModel = 6
	ModelAirborne2G PlatformModel = 7
	ModelAirborne4G PlatformModel = 8
	ModelWrist      PlatformModel = 9
	ModelBike       PlatformModel = 10
)

var platformModels = map[string]PlatformModel{
	"portable":   ModelPortable,
	"stationary": ModelStationary,
	"pedestrian": ModelPedestrian,
	"automotive": ModelAutomotive,
	"sea":        ModelSea,
	"airborne1g": ModelAirborne1G,
	"airborne2g": ModelAirborne2G,
	"airborne4g": ModelAirborne4G,
	"wrist":      ModelWrist,
	"bike":       ModelBike,
}

// ParsePlatformModel maps a lowercase model name to its value.
func ParsePlatformModel(s string) (PlatformModel, error) {
	m, ok := platformModels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("gnss: unknown platform model %q", s)
	}
	return m, nil
}

// Gen9Port names the receiver port Gen9 configures.
type Gen9Port uint8

const (
	Gen9I2C Gen9Port = iota
	Gen9SPI
	Gen9UART1
)

type portKeys struct {
	inUBX, inNMEA, outUBX, outNMEA uint32
	msgOut                         MsgOutOffset
}

var gen9Ports = map[Gen9Port]portKeys{
	Gen9I2C:   {KeyI2CInProtUBX, KeyI2CInProtNMEA, KeyI2COutProtUBX, KeyI2COutProtNMEA, MsgOutI2C},
	Gen9SPI:   {KeySPIInProtUBX, KeySPIInProtNMEA, KeySPIOutProtUBX, KeySPIOutProtNMEA, MsgOutSPI},
	Gen9UART1: {KeyUART1InProtUBX, KeyUART1InProtNMEA, KeyUART1OutProtUBX, KeyUART1OutProtNMEA, MsgOutUART1},
}

// Gen9 configures F9 and later receivers through CFG-VALSET keys.
type Gen9 struct {
	Port Gen9Port
	// Model, when set, is applied after the port configuration.
	Model *PlatformModel
}

func (Gen9) Name() string { return "gen9" }

// Configure sets every key even if an earlier one fails and reports all
// failures together.
func (g Gen9) Configure(d *Device) error {
	k, ok := gen9Ports[g.Port]
	if !ok {
		return fmt.Errorf("gnss: unknown gen9 port %d", g.Port)
	}
	steps := []struct {
		key   uint32
		value uint64
	}{
		{k.inNMEA, 0},
		{k.inUBX, 1},
		{k.outNMEA, 0},
		{k.outUBX, 1},
		{KeyMsgOutNavPVT + uint32(k.msgOut), 1},
		{KeyMsgOutRxmRAWX + uint32(k.msgOut), 0},
		{KeyHWAntVoltCtrl, 1},
	}
	var errs []error
	for _, s := range steps {
		if err := d.SetValue(s.key, s.value, ubx.LayerAll); err != nil {
			errs = append(errs, fmt.Errorf("key 0x%08X: %w", s.key, err))
		}
	}
	if g.Model != nil {
		if err := d.SetPlatformModel(*g.Model); err != nil {
			errs = append(errs, fmt.Errorf("platform model: %w", err))
		}
	}
	return errors.Join(errs...)
}
