package ubx

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Payload lengths of the fixed-size messages decoded here.
const (
	lenNavPOSLLH  = 28
	lenNavVELNED  = 36
	lenNavSOL     = 52
	lenNavTIMEUTC = 20
	lenNavPVT     = 92
	lenTimTP      = 16
	lenMonHW      = 60
)

// FixType is the GNSS fix type reported by NAV-SOL and NAV-PVT.
type FixType uint8

const (
	FixNone          FixType = 0
	FixDeadReckoning FixType = 1
	Fix2D            FixType = 2
	Fix3D            FixType = 3
	FixGNSSDeadReck  FixType = 4
	FixTimeOnly      FixType = 5
)

func (f FixType) String() string {
	switch f {
	case FixNone:
		return "none"
	case FixDeadReckoning:
		return "dead-reckoning"
	case Fix2D:
		return "2d"
	case Fix3D:
		return "3d"
	case FixGNSSDeadReck:
		return "gnss+dead-reckoning"
	case FixTimeOnly:
		return "time-only"
	default:
		return fmt.Sprintf("fix(%d)", uint8(f))
	}
}

// Position is geodetic position. Heights and accuracies are in meters.
type Position struct {
	ITOW      uint32  `json:"itow_ms"`
	LatDeg    float64 `json:"lat_deg"`
	LonDeg    float64 `json:"lon_deg"`
	HeightM   float64 `json:"height_m"`
	HeightMSL float64 `json:"height_msl_m"`
	HAccM     float64 `json:"h_acc_m"`
	VAccM     float64 `json:"v_acc_m"`
}

// Velocity is NED velocity in m/s.
//
// NAV-VELNED reports a 3-D SpeedMS. NAV-PVT carries no 3-D speed, so a PVT
// update sets SpeedMS to the ground speed.
type Velocity struct {
	ITOW          uint32  `json:"itow_ms"`
	NorthMS       float64 `json:"north_ms"`
	EastMS        float64 `json:"east_ms"`
	DownMS        float64 `json:"down_ms"`
	SpeedMS       float64 `json:"speed_ms"`
	GroundSpeedMS float64 `json:"ground_speed_ms"`
	HeadingDeg    float64 `json:"heading_deg"`
	SpeedAccMS    float64 `json:"speed_acc_ms"`
}

// FixQuality describes the navigation solution.
type FixQuality struct {
	ITOW       uint32  `json:"itow_ms"`
	Fix        FixType `json:"fix_type"`
	FixOK      bool    `json:"fix_ok"`
	Satellites int     `json:"satellites"`
	PDOP       float64 `json:"pdop"`
	PAccM      float64 `json:"p_acc_m,omitempty"`
}

// UTCTime is the receiver's UTC time solution.
type UTCTime struct {
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Day        int    `json:"day"`
	Hour       int    `json:"hour"`
	Minute     int    `json:"minute"`
	Second     int    `json:"second"`
	Nano       int32  `json:"nano"`
	AccNs      uint32 `json:"acc_ns"`
	ValidDate  bool   `json:"valid_date"`
	ValidTime  bool   `json:"valid_time"`
	FullyKnown bool   `json:"fully_resolved"`
}

// Time converts to time.Time. The nanosecond field may be negative, which
// time.Date normalizes.
func (u UTCTime) Time() time.Time {
	return time.Date(u.Year, time.Month(u.Month), u.Day, u.Hour, u.Minute, u.Second, int(u.Nano), time.UTC)
}

// Timepulse is the TIM-TP description of the next time pulse.
type Timepulse struct {
	TowMS    uint32 `json:"tow_ms"`
	TowSubMS uint32 `json:"tow_sub_ms"`
	QErrPS   int32  `json:"q_err_ps"`
	Week     uint16 `json:"week"`
	Flags    uint8  `json:"flags"`
	RefInfo  uint8  `json:"ref_info"`
}

// AntennaPower is the MON-HW antenna supervisor power state.
type AntennaPower uint8

const (
	AntennaOff     AntennaPower = 0
	AntennaOn      AntennaPower = 1
	AntennaUnknown AntennaPower = 2
	// AntennaNoMessage is set locally when MON-HW could not be polled.
	AntennaNoMessage AntennaPower = 0xFF
)

func (a AntennaPower) String() string {
	switch a {
	case AntennaOff:
		return "off"
	case AntennaOn:
		return "on"
	case AntennaUnknown:
		return "unknown"
	case AntennaNoMessage:
		return "no-message"
	default:
		return fmt.Sprintf("antenna(%d)", uint8(a))
	}
}

func short(name string, p []byte, want int) error {
	if len(p) < want {
		return fmt.Errorf("%w: %s payload %d bytes, want %d", ErrMalformed, name, len(p), want)
	}
	return nil
}

func u32(p []byte, off int) uint32 { return binary.LittleEndian.Uint32(p[off:]) }
func i32(p []byte, off int) int32  { return int32(binary.LittleEndian.Uint32(p[off:])) }
func u16(p []byte, off int) uint16 { return binary.LittleEndian.Uint16(p[off:]) }

func mm(v int32) float64   { return float64(v) / 1000 }
func mmU(v uint32) float64 { return float64(v) / 1000 }
func cm(v int32) float64   { return float64(v) / 100 }
func cmU(v uint32) float64 { return float64(v) / 100 }
func deg7(v int32) float64 { return float64(v) * 1e-7 }

// ParseNavPOSLLH decodes NAV-POSLLH.
func ParseNavPOSLLH(p []byte) (Position, error) {
	if err := short("NAV-POSLLH", p, lenNavPOSLLH); err != nil {
		return Position{}, err
	}
	return Position{
		ITOW:      u32(p, 0),
		LonDeg:    deg7(i32(p, 4)),
		LatDeg:    deg7(i32(p, 8)),
		HeightM:   mm(i32(p, 12)),
		HeightMSL: mm(i32(p, 16)),
		HAccM:     mmU(u32(p, 20)),
		VAccM:     mmU(u32(p, 24)),
	}, nil
}

// ParseNavVELNED decodes NAV-VELNED.
func ParseNavVELNED(p []byte) (Velocity, error) {
	if err := short("NAV-VELNED", p, lenNavVELNED); err != nil {
		return Velocity{}, err
	}
	return Velocity{
		ITOW:          u32(p, 0),
		NorthMS:       cm(i32(p, 4)),
		EastMS:        cm(i32(p, 8)),
		DownMS:        cm(i32(p, 12)),
		SpeedMS:       cmU(u32(p, 16)),
		GroundSpeedMS: cmU(u32(p, 20)),
		HeadingDeg:    float64(i32(p, 24)) * 1e-5,
		SpeedAccMS:    cmU(u32(p, 28)),
	}, nil
}

// ParseNavSOL decodes the fix quality fields of NAV-SOL.
func ParseNavSOL(p []byte) (FixQuality, error) {
	if err := short("NAV-SOL", p, lenNavSOL); err != nil {
		return FixQuality{}, err
	}
	return FixQuality{
		ITOW:       u32(p, 0),
		Fix:        FixType(p[10]),
		FixOK:      p[11]&0x01 != 0,
		PAccM:      cmU(u32(p, 24)),
		PDOP:       float64(u16(p, 44)) / 100,
		Satellites: int(p[47]),
	}, nil
}

// ParseNavTIMEUTC decodes NAV-TIMEUTC.
func ParseNavTIMEUTC(p []byte) (UTCTime, error) {
	if err := short("NAV-TIMEUTC", p, lenNavTIMEUTC); err != nil {
		return UTCTime{}, err
	}
	valid := p[19]
	return UTCTime{
		AccNs:      u32(p, 4),
		Nano:       i32(p, 8),
		Year:       int(u16(p, 12)),
		Month:      int(p[14]),
		Day:        int(p[15]),
		Hour:       int(p[16]),
		Minute:     int(p[17]),
		Second:     int(p[18]),
		ValidTime:  valid&0x01 != 0, // validTOW
		ValidDate:  valid&0x02 != 0, // validWKN
		FullyKnown: valid&0x04 != 0, // validUTC
	}, nil
}

// PVT is the set of fields one NAV-PVT message carries.
type PVT struct {
	Position   Position
	Velocity   Velocity
	FixQuality FixQuality
	Time       UTCTime
}

// ParseNavPVT decodes NAV-PVT. Either every field is decoded or an error is
// returned; there is no partial result.
func ParseNavPVT(p []byte) (PVT, error) {
	if err := short("NAV-PVT", p, lenNavPVT); err != nil {
		return PVT{}, err
	}
	itow := u32(p, 0)
	valid := p[11]
	gspeed := mm(i32(p, 60))
	return PVT{
		Time: UTCTime{
			Year:       int(u16(p, 4)),
			Month:      int(p[6]),
			Day:        int(p[7]),
			Hour:       int(p[8]),
			Minute:     int(p[9]),
			Second:     int(p[10]),
			ValidDate:  valid&0x01 != 0,
			ValidTime:  valid&0x02 != 0,
			FullyKnown: valid&0x04 != 0,
			AccNs:      u32(p, 12),
			Nano:       i32(p, 16),
		},
		FixQuality: FixQuality{
			ITOW:       itow,
			Fix:        FixType(p[20]),
			FixOK:      p[21]&0x01 != 0,
			Satellites: int(p[23]),
			PDOP:       float64(u16(p, 76)) / 100,
		},
		Position: Position{
			ITOW:      itow,
			LonDeg:    deg7(i32(p, 24)),
			LatDeg:    deg7(i32(p, 28)),
			HeightM:   mm(i32(p, 32)),
			HeightMSL: mm(i32(p, 36)),
			HAccM:     mmU(u32(p, 40)),
			VAccM:     mmU(u32(p, 44)),
		},
		Velocity: Velocity{
			ITOW:          itow,
			NorthMS:       mm(i32(p, 48)),
			EastMS:        mm(i32(p, 52)),
			DownMS:        mm(i32(p, 56)),
			SpeedMS:       gspeed,
			GroundSpeedMS: gspeed,
			HeadingDeg:    float64(i32(p, 64)) * 1e-5,
			SpeedAccMS:    mmU(u32(p, 68)),
		},
	}, nil
}

// ParseTimTP decodes TIM-TP.
func ParseTimTP(p []byte) (Timepulse, error) {
	if err := short("TIM-TP", p, lenTimTP); err != nil {
		return Timepulse{}, err
	}
	return Timepulse{
		TowMS:    u32(p, 0),
		TowSubMS: u32(p, 4),
		QErrPS:   i32(p, 8),
		Week:     u16(p, 12),
		Flags:    p[14],
		RefInfo:  p[15],
	}, nil
}

// ParseMonHW returns the antenna power state from MON-HW.
func ParseMonHW(p []byte) (AntennaPower, error) {
	if err := short("MON-HW", p, lenMonHW); err != nil {
		return AntennaNoMessage, err
	}
	return AntennaPower(p[21]), nil
}
