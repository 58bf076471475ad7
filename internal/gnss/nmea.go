package gnss

import (
	"strconv"
	"strings"
)

type nmeaSentence struct {
	Type string
	// Fields is the comma-split payload (excluding $ and checksum).
	Fields []string
}

// splitNMEA splits a sentence into its fields. The trailing checksum, if any,
// is dropped without being checked.
func splitNMEA(line string) (nmeaSentence, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return nmeaSentence{}, false
	}
	payload := line[1:]
	if star := strings.LastIndexByte(payload, '*'); star != -1 {
		payload = payload[:star]
	}
	parts := strings.Split(payload, ",")
	if len(parts[0]) < 3 {
		return nmeaSentence{}, false
	}
	// GNxxx/GPxxx/GLxxx etc; keep the sentence type only.
	t := parts[0]
	t = t[len(t)-3:]
	return nmeaSentence{Type: strings.ToUpper(t), Fields: parts}, true
}

func applyNMEA(st *State, msg []byte) bool {
	s, ok := splitNMEA(string(msg))
	if !ok {
		return false
	}
	switch s.Type {
	case "GGA":
		return applyGGA(st, s.Fields)
	case "RMC":
		return applyRMC(st, s.Fields)
	default:
		return false
	}
}

// GGA: fix data
//
//	2,3: latitude (ddmm.mmmm), N/S
//	4,5: longitude (dddmm.mmmm), E/W
//	6: fix quality (0=invalid)
//	9: altitude above MSL (meters)
func applyGGA(st *State, f []string) bool {
	if len(f) < 10 {
		return false
	}
	q := strings.TrimSpace(f[6])
	if q == "" || q == "0" {
		return false
	}
	lat, latOK := parseNMEALatLon(f[2], f[3])
	lon, lonOK := parseNMEALatLon(f[4], f[5])
	if !latOK || !lonOK {
		return false
	}
	st.Position.LatDeg = lat
	st.Position.LonDeg = lon
	if alt, ok := parseFloat(f[9]); ok {
		st.Position.HeightMSL = alt
	}
	return true
}

// RMC: recommended minimum
//
//	1: time (hhmmss.ss)
//	2: status (A=valid)
//	9: date (ddmmyy)
func applyRMC(st *State, f []string) bool {
	if len(f) < 10 || strings.TrimSpace(f[2]) != "A" {
		return false
	}
	hms := strings.TrimSpace(f[1])
	dmy := strings.TrimSpace(f[9])
	if len(hms) < 6 || len(dmy) != 6 {
		return false
	}
	hh, err1 := strconv.Atoi(hms[0:2])
	mm, err2 := strconv.Atoi(hms[2:4])
	secs, err3 := strconv.ParseFloat(hms[4:], 64)
	day, err4 := strconv.Atoi(dmy[0:2])
	mon, err5 := strconv.Atoi(dmy[2:4])
	yy, err6 := strconv.Atoi(dmy[4:6])
	for _, err := range []error{err1, err2, err3, err4, err5, err6} {
		if err != nil {
			return false
		}
	}

	whole := int(secs)
	t := st.Time
	t.Year = 2000 + yy
	t.Month = mon
	t.Day = day
	t.Hour = hh
	t.Minute = mm
	t.Second = whole
	t.Nano = int32((secs - float64(whole)) * 1e9)
	t.ValidDate = true
	t.ValidTime = true
	st.Time = t
	return true
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseNMEALatLon parses ddmm.mmmm / dddmm.mmmm plus hemisphere.
func parseNMEALatLon(v string, hemi string) (float64, bool) {
	v = strings.TrimSpace(v)
	hemi = strings.TrimSpace(strings.ToUpper(hemi))
	if v == "" || (hemi != "N" && hemi != "S" && hemi != "E" && hemi != "W") {
		return 0, false
	}

	// The last two digits of the integer part are whole minutes.
	dot := strings.IndexByte(v, '.')
	intPart := v
	if dot != -1 {
		intPart = v[:dot]
	}
	if len(intPart) < 3 {
		return 0, false
	}

	deg, err := strconv.Atoi(intPart[:len(intPart)-2])
	if err != nil {
		return 0, false
	}
	mins, err := strconv.ParseFloat(v[len(intPart)-2:], 64)
	if err != nil {
		return 0, false
	}

	dec := float64(deg) + mins/60.0
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return dec, true
}
