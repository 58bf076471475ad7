package ubx

import (
	"bytes"
	"fmt"
)

// Version is the decoded MON-VER response.
type Version struct {
	Software   string   `json:"software"`
	Hardware   string   `json:"hardware"`
	Extensions []string `json:"extensions,omitempty"`
}

const (
	monVerSWLen  = 30
	monVerHWLen  = 10
	monVerExtLen = 30
)

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// ParseMonVER decodes MON-VER: a 30-byte software string, a 10-byte hardware
// string and zero or more 30-byte extension strings.
func ParseMonVER(p []byte) (Version, error) {
	if err := short("MON-VER", p, monVerSWLen+monVerHWLen); err != nil {
		return Version{}, err
	}
	v := Version{
		Software: cString(p[:monVerSWLen]),
		Hardware: cString(p[monVerSWLen : monVerSWLen+monVerHWLen]),
	}
	for off := monVerSWLen + monVerHWLen; off+monVerExtLen <= len(p); off += monVerExtLen {
		if s := cString(p[off : off+monVerExtLen]); s != "" {
			v.Extensions = append(v.Extensions, s)
		}
	}
	return v, nil
}

// GNSSID identifies a constellation.
type GNSSID uint8

const (
	GNSSGPS     GNSSID = 0
	GNSSSBAS    GNSSID = 1
	GNSSGalileo GNSSID = 2
	GNSSBeiDou  GNSSID = 3
	GNSSIMES    GNSSID = 4
	GNSSQZSS    GNSSID = 5
	GNSSGLONASS GNSSID = 6
)

func (g GNSSID) String() string {
	switch g {
	case GNSSGPS:
		return "GPS"
	case GNSSSBAS:
		return "SBAS"
	case GNSSGalileo:
		return "Galileo"
	case GNSSBeiDou:
		return "BeiDou"
	case GNSSIMES:
		return "IMES"
	case GNSSQZSS:
		return "QZSS"
	case GNSSGLONASS:
		return "GLONASS"
	default:
		return fmt.Sprintf("gnss(%d)", uint8(g))
	}
}

// Satellite is one NAV-SAT entry.
type Satellite struct {
	GNSS      GNSSID `json:"gnss"`
	SVID      uint8  `json:"sv_id"`
	CNo       uint8  `json:"cno_dbhz"`
	Elevation int8   `json:"elev_deg"`
	Azimuth   int16  `json:"azim_deg"`
	Quality   uint8  `json:"quality"`
	Used      bool   `json:"used"`
}

const (
	navSatHeaderLen = 8
	navSatBlockLen  = 12
)

// ParseNavSAT decodes NAV-SAT. It returns the satellites present in p and the
// count the receiver reported; the two differ when the message was truncated.
func ParseNavSAT(p []byte) ([]Satellite, int, error) {
	if err := short("NAV-SAT", p, navSatHeaderLen); err != nil {
		return nil, 0, err
	}
	reported := int(p[5])
	sats := make([]Satellite, 0, reported)
	for i := 0; i < reported; i++ {
		off := navSatHeaderLen + i*navSatBlockLen
		if off+navSatBlockLen > len(p) {
			break
		}
		flags := u32(p, off+8)
		sats = append(sats, Satellite{
			GNSS:      GNSSID(p[off]),
			SVID:      p[off+1],
			CNo:       p[off+2],
			Elevation: int8(p[off+3]),
			Azimuth:   int16(u16(p, off+4)),
			Quality:   uint8(flags & 0x07),
			Used:      flags&0x08 != 0,
		})
	}
	return sats, reported, nil
}

// GNSSBlock is one CFG-GNSS configuration block.
type GNSSBlock struct {
	GNSS     GNSSID `json:"gnss"`
	Reserved uint8  `json:"res_trk_ch"`
	Max      uint8  `json:"max_trk_ch"`
	Enabled  bool   `json:"enabled"`
}

// GNSSConfig is the decoded CFG-GNSS response.
type GNSSConfig struct {
	HardwareChannels uint8       `json:"hw_channels"`
	UsedChannels     uint8       `json:"used_channels"`
	Blocks           []GNSSBlock `json:"blocks"`
}

const (
	cfgGNSSHeaderLen = 4
	cfgGNSSBlockLen  = 8
)

// ParseCfgGNSS decodes CFG-GNSS.
func ParseCfgGNSS(p []byte) (GNSSConfig, error) {
	if err := short("CFG-GNSS", p, cfgGNSSHeaderLen); err != nil {
		return GNSSConfig{}, err
	}
	n := int(p[3])
	if err := short("CFG-GNSS", p, cfgGNSSHeaderLen+n*cfgGNSSBlockLen); err != nil {
		return GNSSConfig{}, err
	}
	out := GNSSConfig{HardwareChannels: p[1], UsedChannels: p[2], Blocks: make([]GNSSBlock, 0, n)}
	for i := 0; i < n; i++ {
		off := cfgGNSSHeaderLen + i*cfgGNSSBlockLen
		out.Blocks = append(out.Blocks, GNSSBlock{
			GNSS:     GNSSID(p[off]),
			Reserved: p[off+1],
			Max:      p[off+2],
			Enabled:  u32(p, off+4)&0x01 != 0,
		})
	}
	return out, nil
}

// ParseAck returns the (class, id) an ACK-ACK or ACK-NAK refers to.
func ParseAck(p []byte) (class, id byte, err error) {
	if err := short("ACK", p, 2); err != nil {
		return 0, 0, err
	}
	return p[0], p[1], nil
}
