package ubx

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// ResetKind selects the navigation data cleared by CFG-RST.
type ResetKind uint16

const (
	// ResetHot simulates a short power-down (<4 h).
	ResetHot ResetKind = 0x0000
	// ResetWarm simulates a long power-down (>4 h).
	ResetWarm ResetKind = 0x0001
	// ResetCold clears everything learned, like a factory-new receiver.
	ResetCold ResetKind = 0xFFFF
)

func (k ResetKind) String() string {
	switch k {
	case ResetHot:
		return "hot"
	case ResetWarm:
		return "warm"
	case ResetCold:
		return "cold"
	default:
		return fmt.Sprintf("reset(0x%04X)", uint16(k))
	}
}

const resetControlledSoftware = 0x01

// PayloadCfgRST is the CFG-RST payload for a controlled software reset.
func PayloadCfgRST(kind ResetKind) []byte {
	p := make([]byte, 4)
	binary.LittleEndian.PutUint16(p[0:2], uint16(kind))
	p[2] = resetControlledSoftware
	return p
}

// Port ids used by CFG-PRT.
const (
	PortDDC   uint8 = 0
	PortUART1 uint8 = 1
	PortUART2 uint8 = 2
	PortUSB   uint8 = 3
	PortSPI   uint8 = 4
)

// Protocol mask bits used by CFG-PRT.
const (
	ProtoUBX   uint16 = 0x0001
	ProtoNMEA  uint16 = 0x0002
	ProtoRTCM3 uint16 = 0x0020
)

// UARTMode8N1 is the CFG-PRT mode word for 8 data bits, no parity, 1 stop bit.
const UARTMode8N1 uint32 = 0x000008D0

// PortConfig is the transport-specific part of CFG-PRT.
type PortConfig struct {
	ID uint8
	// Mode is the port mode word: the 7-bit address shifted left once for DDC,
	// the character framing for UART, the SPI mode bits for SPI.
	Mode     uint32
	Baud     uint32
	InProto  uint16
	OutProto uint16
}

// DDCPort configures the I2C (DDC) port at the given 7-bit address for UBX only.
func DDCPort(addr uint8) PortConfig {
	return PortConfig{ID: PortDDC, Mode: uint32(addr) << 1, InProto: ProtoUBX, OutProto: ProtoUBX}
}

// SPIPort configures the SPI port for UBX only.
func SPIPort(spiMode uint8) PortConfig {
	return PortConfig{ID: PortSPI, Mode: uint32(spiMode&0x03) << 1, InProto: ProtoUBX, OutProto: ProtoUBX}
}

// UARTPort configures UART1 as 8N1 at baud for UBX only.
func UARTPort(baud uint32) PortConfig {
	return PortConfig{ID: PortUART1, Mode: UARTMode8N1, Baud: baud, InProto: ProtoUBX, OutProto: ProtoUBX}
}

// PayloadCfgPRT is the 20-byte CFG-PRT payload. txReady and flags are left
// disabled.
func PayloadCfgPRT(pc PortConfig) []byte {
	p := make([]byte, 20)
	p[0] = pc.ID
	binary.LittleEndian.PutUint32(p[4:8], pc.Mode)
	binary.LittleEndian.PutUint32(p[8:12], pc.Baud)
	binary.LittleEndian.PutUint16(p[12:14], pc.InProto)
	binary.LittleEndian.PutUint16(p[14:16], pc.OutProto)
	return p
}

// PayloadCfgMSG is the CFG-MSG payload setting the output rate of (class, id)
// on the current port.
func PayloadCfgMSG(class, id, rate byte) []byte {
	return []byte{class, id, rate}
}

// Storage device bits for CFG-CFG.
const (
	StorageBBR    uint8 = 0x01
	StorageFlash  uint8 = 0x02
	StorageEEPROM uint8 = 0x04
	StorageSPI    uint8 = 0x10
)

// SaveAll selects every configuration section in a CFG-CFG mask.
const SaveAll uint32 = 0x00001F1F

// PayloadCfgCFG is the 13-byte CFG-CFG payload.
func PayloadCfgCFG(clearMask, saveMask, loadMask uint32, devices uint8) []byte {
	p := make([]byte, 13)
	binary.LittleEndian.PutUint32(p[0:4], clearMask)
	binary.LittleEndian.PutUint32(p[4:8], saveMask)
	binary.LittleEndian.PutUint32(p[8:12], loadMask)
	p[12] = devices
	return p
}

// Configuration layers for CFG-VALSET.
const (
	LayerRAM   uint8 = 0x01
	LayerBBR   uint8 = 0x02
	LayerFlash uint8 = 0x04
	LayerAll         = LayerRAM | LayerBBR | LayerFlash
)

// ValueWidth returns the number of value bytes a configuration key carries,
// taken from the size field in key bits 30..28.
func ValueWidth(key uint32) (int, error) {
	switch (key >> 28) & 0x07 {
	case 1, 2:
		return 1, nil
	case 3:
		return 2, nil
	case 4:
		return 4, nil
	case 5:
		return 8, nil
	default:
		return 0, fmt.Errorf("ubx: key 0x%08X has invalid size field %d", key, (key>>28)&0x07)
	}
}

// PayloadCfgVALSET is a version 0 CFG-VALSET payload setting one key to value
// in the given layers. Only the low ValueWidth(key) bytes of value are sent.
func PayloadCfgVALSET(key uint32, value uint64, layers uint8) ([]byte, error) {
	width, err := ValueWidth(key)
	if err != nil {
		return nil, err
	}
	p := make([]byte, 8+width)
	p[0] = 0
	p[1] = layers
	binary.LittleEndian.PutUint32(p[4:8], key)
	var v [8]byte
	binary.LittleEndian.PutUint64(v[:], value)
	copy(p[8:], v[:width])
	return p, nil
}

// CFG-TP5 flag bits.
const (
	TPActive         uint32 = 1 << 0
	TPLockGnssFreq   uint32 = 1 << 1
	TPLockedOtherSet uint32 = 1 << 2
	TPIsFreq         uint32 = 1 << 3
	TPIsLength       uint32 = 1 << 4
	TPAlignToTow     uint32 = 1 << 5
	TPPolarity       uint32 = 1 << 6
	TPGridGPS        uint32 = 1 << 7
)

// Timepulse5 is the 32-byte CFG-TP5 parameter block.
type Timepulse5 struct {
	Index             uint8
	Version           uint8
	AntCableDelayNs   int16
	RFGroupDelayNs    int16
	FreqPeriod        uint32
	FreqPeriodLock    uint32
	PulseLenRatio     uint32
	PulseLenRatioLock uint32
	UserDelayNs       int32
	Flags             uint32
}

// NewTimepulse describes a pulse train at freqHz, high for onFraction of each
// period (0..1), shifted by delay, aligned to the top of the GPS second.
func NewTimepulse(freqHz uint32, onFraction float64, delay time.Duration) Timepulse5 {
	ratio := math.Max(0, onFraction) * (float64(math.MaxUint32) + 1)
	if ratio > math.MaxUint32 {
		ratio = math.MaxUint32
	}
	return Timepulse5{
		Version:        0x01,
		FreqPeriod:     freqHz,
		FreqPeriodLock: 1,
		PulseLenRatio:  uint32(ratio),
		UserDelayNs:    int32(delay.Nanoseconds()),
		Flags:          TPActive | TPLockGnssFreq | TPIsFreq | TPAlignToTow | TPPolarity | TPGridGPS,
	}
}

// PayloadCfgTP5 encodes the parameter block.
func PayloadCfgTP5(t Timepulse5) []byte {
	p := make([]byte, 32)
	p[0] = t.Index
	p[1] = t.Version
	binary.LittleEndian.PutUint16(p[4:6], uint16(t.AntCableDelayNs))
	binary.LittleEndian.PutUint16(p[6:8], uint16(t.RFGroupDelayNs))
	binary.LittleEndian.PutUint32(p[8:12], t.FreqPeriod)
	binary.LittleEndian.PutUint32(p[12:16], t.FreqPeriodLock)
	binary.LittleEndian.PutUint32(p[16:20], t.PulseLenRatio)
	binary.LittleEndian.PutUint32(p[20:24], t.PulseLenRatioLock)
	binary.LittleEndian.PutUint32(p[24:28], uint32(t.UserDelayNs))
	binary.LittleEndian.PutUint32(p[28:32], t.Flags)
	return p
}
