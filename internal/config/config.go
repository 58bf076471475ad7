package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GNSS    GNSSConfig    `yaml:"gnss"`
	Logging LoggingConfig `yaml:"logging"`
	Web     WebConfig     `yaml:"web"`
	UDP     UDPConfig     `yaml:"udp"`
}

type GNSSConfig struct {
	// Bus is one of: i2c, softi2c, serial, spi.
	Bus string `yaml:"bus"`
	// Generation is gen8 (M8 and earlier, CFG-* messages) or gen9 (F9,
	// CFG-VALSET keys).
	Generation string `yaml:"generation"`

	I2CDevice string `yaml:"i2c_device"`
	Address   int    `yaml:"address"`

	SerialDevice string `yaml:"serial_device"`
	Baud         int    `yaml:"baud"`

	SPIDevice  string `yaml:"spi_device"`
	SPISpeedHz int    `yaml:"spi_speed_hz"`
	SPIMode    int    `yaml:"spi_mode"`

	GPIO GPIOConfig `yaml:"gpio"`

	Configure     bool            `yaml:"configure"`
	PlatformModel string          `yaml:"platform_model"`
	Timepulse     TimepulseConfig `yaml:"timepulse"`

	UpdateTimeout time.Duration `yaml:"update_timeout"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	BootTime      time.Duration `yaml:"boot_time"`
	AntennaPoll   time.Duration `yaml:"antenna_poll"`
}

// GPIOConfig names lines by their kernel line name (e.g. GPIO17).
type GPIOConfig struct {
	Chip  string `yaml:"chip"`
	Reset string `yaml:"reset"`
	CS    string `yaml:"cs"`
	SDA   string `yaml:"sda"`
	SCL   string `yaml:"scl"`
	// HalfPeriod is half the bit-banged I2C clock period.
	HalfPeriod time.Duration `yaml:"half_period"`
}

type TimepulseConfig struct {
	Enable      bool          `yaml:"enable"`
	FreqHz      uint32        `yaml:"freq_hz"`
	DutyPercent float64       `yaml:"duty_percent"`
	Delay       time.Duration `yaml:"delay"`
}

type LoggingConfig struct {
	Level  string        `yaml:"level"`
	Format string        `yaml:"format"`
	File   LogFileConfig `yaml:"file"`
}

type LogFileConfig struct {
	Filename   string `yaml:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Listen string `yaml:"listen"`
}

type UDPConfig struct {
	Enable   bool          `yaml:"enable"`
	Dest     string        `yaml:"dest"`
	Interval time.Duration `yaml:"interval"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := DefaultAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func DefaultAndValidate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	g := &cfg.GNSS

	g.Bus = strings.ToLower(strings.TrimSpace(g.Bus))
	if g.Bus == "" {
		g.Bus = "i2c"
	}
	switch g.Bus {
	case "i2c", "softi2c", "serial", "spi":
	default:
		return fmt.Errorf("gnss.bus must be one of i2c, softi2c, serial, spi")
	}

	g.Generation = strings.ToLower(strings.TrimSpace(g.Generation))
	if g.Generation == "" {
		g.Generation = "gen8"
	}
	if g.Generation != "gen8" && g.Generation != "gen9" {
		return fmt.Errorf("gnss.generation must be gen8 or gen9")
	}

	if g.I2CDevice == "" {
		g.I2CDevice = "/dev/i2c-1"
	}
	if g.Address == 0 {
		g.Address = 0x42
	}
	if g.Address < 0x08 || g.Address > 0x77 {
		return fmt.Errorf("gnss.address must be a 7-bit address (0x08-0x77)")
	}

	if g.SerialDevice == "" {
		g.SerialDevice = "/dev/serial0"
	}
	if g.Baud == 0 {
		g.Baud = 9600
	}
	if g.Baud < 0 {
		return fmt.Errorf("gnss.baud must be > 0")
	}

	if g.SPIDevice == "" {
		g.SPIDevice = "/dev/spidev0.0"
	}
	if g.SPISpeedHz == 0 {
		g.SPISpeedHz = 1_000_000
	}
	if g.SPISpeedHz < 0 || g.SPISpeedHz > 5_500_000 {
		return fmt.Errorf("gnss.spi_speed_hz must be in 1..5500000")
	}
	if g.SPIMode < 0 || g.SPIMode > 3 {
		return fmt.Errorf("gnss.spi_mode must be in 0..3")
	}

	if g.Bus == "softi2c" && (g.GPIO.SDA == "" || g.GPIO.SCL == "") {
		return fmt.Errorf("gnss.gpio.sda and gnss.gpio.scl are required when gnss.bus is 'softi2c'")
	}
	if g.GPIO.HalfPeriod <= 0 {
		g.GPIO.HalfPeriod = 5 * time.Microsecond
	}

	g.PlatformModel = strings.ToLower(strings.TrimSpace(g.PlatformModel))
	if g.PlatformModel != "" && g.Generation != "gen9" {
		return fmt.Errorf("gnss.platform_model requires gnss.generation 'gen9'")
	}

	if g.Timepulse.Enable {
		if g.Generation != "gen8" {
			return fmt.Errorf("gnss.timepulse requires gnss.generation 'gen8'")
		}
		if g.Timepulse.FreqHz == 0 {
			g.Timepulse.FreqHz = 1
		}
		if g.Timepulse.DutyPercent == 0 {
			g.Timepulse.DutyPercent = 10
		}
		if g.Timepulse.DutyPercent < 0 || g.Timepulse.DutyPercent > 100 {
			return fmt.Errorf("gnss.timepulse.duty_percent must be in 0..100")
		}
	}

	if g.UpdateTimeout <= 0 {
		g.UpdateTimeout = 100 * time.Millisecond
	}
	if g.PollInterval <= 0 {
		g.PollInterval = time.Millisecond
	}
	if g.BootTime <= 0 {
		g.BootTime = time.Second
	}
	if g.AntennaPoll < 0 {
		return fmt.Errorf("gnss.antenna_poll must be >= 0")
	}

	l := &cfg.Logging
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if l.Level == "" {
		l.Level = "info"
	}
	switch l.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	l.Format = strings.ToLower(strings.TrimSpace(l.Format))
	if l.Format == "" {
		l.Format = "console"
	}
	if l.Format != "console" && l.Format != "json" {
		return fmt.Errorf("logging.format must be console or json")
	}
	if l.File.Filename != "" {
		if l.File.MaxSizeMB <= 0 {
			l.File.MaxSizeMB = 10
		}
		if l.File.MaxBackups <= 0 {
			l.File.MaxBackups = 3
		}
		if l.File.MaxAgeDays <= 0 {
			l.File.MaxAgeDays = 7
		}
	}

	if cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}

	if cfg.UDP.Enable && cfg.UDP.Dest == "" {
		return fmt.Errorf("udp.dest is required when udp.enable is true")
	}
	if cfg.UDP.Interval <= 0 {
		cfg.UDP.Interval = time.Second
	}
	return nil
}
