package web

import (
	"time"

	"ubxgnss/internal/gnss"
)

const ServiceName = "ubxgnss"

// Status assembles /api/status from the receiver service's latest snapshot.
type Status struct {
	start    time.Time
	bus      string
	snapshot func() gnss.Snapshot
}

func NewStatus(bus string, snapshot func() gnss.Snapshot) *Status {
	if snapshot == nil {
		snapshot = func() gnss.Snapshot { return gnss.Snapshot{} }
	}
	return &Status{start: time.Now().UTC(), bus: bus, snapshot: snapshot}
}

type StatusSnapshot struct {
	Service   string        `json:"service"`
	NowUTC    string        `json:"now_utc"`
	UptimeSec int64         `json:"uptime_sec"`
	Bus       string        `json:"bus"`
	GNSS      gnss.Snapshot `json:"gnss"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	up := nowUTC.Sub(s.start)
	if up < 0 {
		up = 0
	}
	return StatusSnapshot{
		Service:   ServiceName,
		NowUTC:    nowUTC.Format(time.RFC3339Nano),
		UptimeSec: int64(up / time.Second),
		Bus:       s.bus,
		GNSS:      s.snapshot(),
	}
}
