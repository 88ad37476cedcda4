// Package config loads the hub tool configuration and carries the build
// version injected at link time.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/sensorhub/firmware"
	"github.com/mklimuk/sensorhub/hub"
	"github.com/mklimuk/sensorhub/param"
	"github.com/mklimuk/sensorhub/sensor"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Adapters understood by the command line tool.
const (
	AdapterMCP2221   = "mcp2221"
	AdapterGeneric   = "generic"
	AdapterNanoPi    = "nanopi"
	AdapterNanoPiSPI = "nanopi-spi"
	AdapterSPI       = "spi"
	AdapterMock      = "mock"
)

type Bus struct {
	Adapter string `yaml:"adapter"`
	// Device is the I2C bus or SPI port name for the generic and spi
	// adapters, the bus number for nanopi.
	Device  string `yaml:"device"`
	Address uint8  `yaml:"address"`
	// MaxTransfer caps FIFO reads per transaction; 0 uses the adapter limit.
	MaxTransfer int `yaml:"max_transfer"`
}

type Poll struct {
	Interval time.Duration `yaml:"interval"`
	Attempts int           `yaml:"attempts"`
}

type Config struct {
	Bus       Bus    `yaml:"bus"`
	Firmware  string `yaml:"firmware"`
	ChunkSize int    `yaml:"chunk_size"`
	Poll      Poll   `yaml:"poll"`
	// FIFO watermarks; sizes are ignored by the hub.
	FIFO    *param.FIFOControl            `yaml:"fifo,omitempty"`
	Sensors map[string]param.SensorConfig `yaml:"sensors"`
}

func Default() Config {
	return Config{
		Bus: Bus{
			Adapter: AdapterMCP2221,
			Address: hub.AddressLow,
		},
		ChunkSize: 16,
		Poll: Poll{
			Interval: param.DefaultPollInterval,
			Attempts: param.DefaultMaxAttempts,
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config: %w", err)
	}
	err = yaml.Unmarshal(raw, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	switch c.Bus.Adapter {
	case AdapterMCP2221, AdapterGeneric, AdapterNanoPi, AdapterNanoPiSPI, AdapterSPI, AdapterMock:
	default:
		errs = append(errs, fmt.Errorf("unknown adapter %q", c.Bus.Adapter))
	}
	err := firmware.CheckChunkSize(c.ChunkSize)
	if err != nil {
		errs = append(errs, err)
	}
	if c.Poll.Attempts <= 0 {
		errs = append(errs, fmt.Errorf("poll attempts must be positive"))
	}
	_, err = c.SensorConfigs()
	if err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SensorConfigs resolves sensor names or ids to their configuration.
func (c Config) SensorConfigs() (map[sensor.ID]param.SensorConfig, error) {
	out := make(map[sensor.ID]param.SensorConfig, len(c.Sensors))
	for name, cfg := range c.Sensors {
		id, err := sensor.Parse(name)
		if err != nil {
			return nil, err
		}
		if !id.IsVirtual() {
			return nil, fmt.Errorf("sensor %s cannot be configured", id)
		}
		out[id] = cfg
	}
	return out, nil
}

// HubOptions turns the configuration into driver options.
func (c Config) HubOptions() []hub.Opt {
	opts := []hub.Opt{
		hub.WithChunkSize(c.ChunkSize),
		hub.WithPollInterval(c.Poll.Interval),
		hub.WithPollAttempts(c.Poll.Attempts),
	}
	if c.Bus.MaxTransfer > 0 {
		opts = append(opts, hub.WithMaxTransfer(c.Bus.MaxTransfer))
	}
	return opts
}
