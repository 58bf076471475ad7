package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ubxgnss/internal/config"
	"ubxgnss/internal/gnss"
	"ubxgnss/internal/ubx"
)

func loadDefaults(t *testing.T, g config.GNSSConfig) config.GNSSConfig {
	t.Helper()
	cfg := config.Config{GNSS: g}
	require.NoError(t, config.DefaultAndValidate(&cfg))
	return cfg.GNSS
}

func TestBuildVariant_Gen8Ports(t *testing.T) {
	pins := config.GPIOConfig{SDA: "GPIO2", SCL: "GPIO3"}
	cases := []struct {
		bus  string
		gpio config.GPIOConfig
		want uint8
	}{
		{"i2c", config.GPIOConfig{}, ubx.PortDDC},
		{"softi2c", pins, ubx.PortDDC},
		{"spi", config.GPIOConfig{}, ubx.PortSPI},
		{"serial", config.GPIOConfig{}, ubx.PortUART1},
	}
	for _, tc := range cases {
		t.Run(tc.bus, func(t *testing.T) {
			v, err := buildVariant(loadDefaults(t, config.GNSSConfig{Bus: tc.bus, GPIO: tc.gpio}))
			require.NoError(t, err)
			g8, ok := v.(gnss.Gen8)
			require.True(t, ok)
			assert.Equal(t, tc.want, g8.Port.ID)
			assert.Nil(t, g8.Timepulse)
		})
	}
}

func TestBuildVariant_Gen8DDCAddressAndTimepulse(t *testing.T) {
	g := loadDefaults(t, config.GNSSConfig{Timepulse: config.TimepulseConfig{Enable: true, FreqHz: 10, Delay: time.Microsecond}})
	v, err := buildVariant(g)
	require.NoError(t, err)
	g8 := v.(gnss.Gen8)
	assert.Equal(t, uint32(0x42<<1), g8.Port.Mode)
	require.NotNil(t, g8.Timepulse)
}

func TestBuildVariant_Gen9(t *testing.T) {
	g := loadDefaults(t, config.GNSSConfig{Bus: "spi", Generation: "gen9", PlatformModel: "airborne2g"})
	v, err := buildVariant(g)
	require.NoError(t, err)
	g9 := v.(gnss.Gen9)
	assert.Equal(t, gnss.Gen9SPI, g9.Port)
	require.NotNil(t, g9.Model)
	assert.Equal(t, gnss.ModelAirborne2G, *g9.Model)

	g.PlatformModel = "rocket"
	_, err = buildVariant(g)
	assert.Error(t, err)
}

func TestLoadDefaults_SoftI2CNeedsPins(t *testing.T) {
	cfg := config.Config{GNSS: config.GNSSConfig{Bus: "softi2c"}}
	assert.Error(t, config.DefaultAndValidate(&cfg))
}

func TestBuildVariant_Unknown(t *testing.T) {
	_, err := buildVariant(config.GNSSConfig{Generation: "gen7", Bus: "i2c"})
	assert.Error(t, err)
	_, err = buildVariant(config.GNSSConfig{Generation: "gen9", Bus: "usb"})
	assert.Error(t, err)
}

type closeRecorder struct {
	name  string
	order *[]string
}

func (c closeRecorder) Close() error {
	*c.order = append(*c.order, c.name)
	return nil
}

func TestHardware_ClosesInReverseOrder(t *testing.T) {
	var order []string
	h := &hardware{}
	h.closers = append(h.closers, closeRecorder{"reset", &order}, closeRecorder{"bus", &order})
	require.NoError(t, h.Close())
	assert.Equal(t, []string{"bus", "reset"}, order)
	require.NoError(t, h.Close())
}
