package gnss

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"ubxgnss/internal/ubx"
)

const (
	pollTimeout   = 500 * time.Millisecond
	configTimeout = 500 * time.Millisecond
	saveTimeout   = time.Second
	satTimeout    = time.Second
	valsetTimeout = time.Second
)

func (d *Device) pollMessage(class, id byte, timeout time.Duration) ([]byte, error) {
	if err := d.Do(Command{Class: class, ID: id, WantResponse: true, Timeout: timeout}); err != nil {
		return nil, err
	}
	return ubx.Payload(d.Response()), nil
}

// CheckVersion polls MON-VER.
func (d *Device) CheckVersion() (ubx.Version, error) {
	p, err := d.pollMessage(ubx.ClassMON, ubx.MonVER, pollTimeout)
	if err != nil {
		return ubx.Version{}, err
	}
	return ubx.ParseMonVER(p)
}

// AntennaPowerStatus polls MON-HW. On failure the recorded antenna state
// becomes ubx.AntennaNoMessage.
func (d *Device) AntennaPowerStatus() ubx.AntennaPower {
	status := ubx.AntennaNoMessage
	if p, err := d.pollMessage(ubx.ClassMON, ubx.MonHW, pollTimeout); err == nil {
		if v, perr := ubx.ParseMonHW(p); perr == nil {
			status = v
		}
	}
	d.mu.Lock()
	d.state.Antenna = status
	d.mu.Unlock()
	return status
}

// SatelliteInfo polls NAV-SAT and returns at most max satellites plus the
// count the receiver reported. The two differ when max or the receive buffer
// cut the list short.
func (d *Device) SatelliteInfo(max int) ([]ubx.Satellite, int, error) {
	p, err := d.pollMessage(ubx.ClassNAV, ubx.NavSAT, satTimeout)
	if err != nil {
		return nil, 0, err
	}
	sats, reported, err := ubx.ParseNavSAT(p)
	if err != nil {
		return nil, 0, err
	}
	if len(sats) < reported {
		d.log.Warn("NAV-SAT truncated by receive buffer", zap.Int("reported", reported), zap.Int("kept", len(sats)))
	}
	if max >= 0 && len(sats) > max {
		sats = sats[:max]
	}
	return sats, reported, nil
}

// GNSSConfig polls CFG-GNSS.
func (d *Device) GNSSConfig() (ubx.GNSSConfig, error) {
	p, err := d.pollMessage(ubx.ClassCFG, ubx.CfgGNSS, pollTimeout)
	if err != nil {
		return ubx.GNSSConfig{}, err
	}
	return ubx.ParseCfgGNSS(p)
}

// RequestTimepulse polls TIM-TP without waiting; the answer reaches State
// through a later Update.
func (d *Device) RequestTimepulse() error {
	return d.Do(Command{Class: ubx.ClassTIM, ID: ubx.TimTP})
}

// ConfigurePort sends CFG-PRT for the given port.
func (d *Device) ConfigurePort(pc ubx.PortConfig) error {
	return d.Do(Command{Class: ubx.ClassCFG, ID: ubx.CfgPRT, Payload: ubx.PayloadCfgPRT(pc), WantAck: true, Timeout: configTimeout})
}

// SetMessageRate sets how often (class, id) is emitted on the current port, in
// navigation solutions per message. Zero disables it.
func (d *Device) SetMessageRate(class, id, rate byte) error {
	return d.Do(Command{Class: ubx.ClassCFG, ID: ubx.CfgMSG, Payload: ubx.PayloadCfgMSG(class, id, rate), WantAck: true, Timeout: configTimeout})
}

// SaveSettings persists the whole current configuration to battery-backed RAM
// and flash.
func (d *Device) SaveSettings() error {
	p := ubx.PayloadCfgCFG(0, ubx.SaveAll, 0, ubx.StorageBBR|ubx.StorageFlash)
	return d.Do(Command{Class: ubx.ClassCFG, ID: ubx.CfgCFG, Payload: p, WantAck: true, Timeout: saveTimeout})
}

// ConfigureTimepulse sends CFG-TP5.
func (d *Device) ConfigureTimepulse(tp ubx.Timepulse5) error {
	return d.Do(Command{Class: ubx.ClassCFG, ID: ubx.CfgTP5, Payload: ubx.PayloadCfgTP5(tp), WantAck: true, Timeout: configTimeout})
}

// SetValue sets one configuration key with CFG-VALSET. Only generation 9
// receivers understand it. layers defaults to ubx.LayerAll when zero.
func (d *Device) SetValue(key uint32, value uint64, layers uint8) error {
	if layers == 0 {
		layers = ubx.LayerAll
	}
	p, err := ubx.PayloadCfgVALSET(key, value, layers)
	if err != nil {
		return fmt.Errorf("gnss: set 0x%08X: %w", key, err)
	}
	return d.Do(Command{Class: ubx.ClassCFG, ID: ubx.CfgVALSET, Payload: p, WantAck: true, Timeout: valsetTimeout})
}

// SetPlatformModel sets the dynamic platform model through CFG-VALSET.
func (d *Device) SetPlatformModel(m PlatformModel) error {
	return d.SetValue(KeyNavSpgDynModel, uint64(m), 0)
}
