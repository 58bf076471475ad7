package gnss

import "ubxgnss/internal/ubx"

// State is the latest telemetry decoded from the receiver.
//
// Each field is independently stale until its message arrives; there is no
// overall validity flag. Callers that care about age should track it from
// their own Update cadence.
type State struct {
	Position   ubx.Position     `json:"position"`
	Velocity   ubx.Velocity     `json:"velocity"`
	FixQuality ubx.FixQuality   `json:"fix_quality"`
	Time       ubx.UTCTime      `json:"time"`
	Timepulse  ubx.Timepulse    `json:"timepulse"`
	Antenna    ubx.AntennaPower `json:"antenna"`
}

func newState() State {
	return State{Antenna: ubx.AntennaNoMessage}
}

// Dispatch applies one verified message to st. It reports whether st changed.
// Unknown messages and payloads too short to decode leave st untouched.
//
// A NAV-PVT message is fully decoded before any field is assigned, so st never
// holds a mix of old and new PVT fields.
func Dispatch(st *State, msg []byte) bool {
	if len(msg) == 0 {
		return false
	}
	if msg[0] == ubx.NMEAStart {
		return applyNMEA(st, msg)
	}
	if !ubx.IsUBX(msg) {
		return false
	}

	class, id, p := msg[2], msg[3], ubx.Payload(msg)
	switch class {
	case ubx.ClassNAV:
		switch id {
		case ubx.NavPOSLLH:
			v, err := ubx.ParseNavPOSLLH(p)
			if err != nil {
				return false
			}
			st.Position = v
		case ubx.NavVELNED:
			v, err := ubx.ParseNavVELNED(p)
			if err != nil {
				return false
			}
			st.Velocity = v
		case ubx.NavSOL:
			v, err := ubx.ParseNavSOL(p)
			if err != nil {
				return false
			}
			st.FixQuality = v
		case ubx.NavTIMEUTC:
			v, err := ubx.ParseNavTIMEUTC(p)
			if err != nil {
				return false
			}
			st.Time = v
		case ubx.NavPVT:
			v, err := ubx.ParseNavPVT(p)
			if err != nil {
				return false
			}
			st.Position, st.Velocity, st.FixQuality, st.Time = v.Position, v.Velocity, v.FixQuality, v.Time
		default:
			return false
		}
	case ubx.ClassTIM:
		if id != ubx.TimTP {
			return false
		}
		v, err := ubx.ParseTimTP(p)
		if err != nil {
			return false
		}
		st.Timepulse = v
	case ubx.ClassMON:
		if id != ubx.MonHW {
			return false
		}
		v, err := ubx.ParseMonHW(p)
		if err != nil {
			return false
		}
		st.Antenna = v
	default:
		return false
	}
	return true
}
