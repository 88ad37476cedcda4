package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/nanopi"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/adapter"
	"github.com/mklimuk/sensorhub/config"
	"github.com/mklimuk/sensorhub/hub"
	"github.com/mklimuk/sensorhub/i2c"
	"github.com/mklimuk/sensorhub/mock"
	"github.com/mklimuk/sensorhub/spi"
)

var busFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "YAML configuration file",
		EnvVars: []string{"HUB_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Usage:   "bus adapter: mcp2221, generic, nanopi, nanopi-spi, spi or mock",
		Value:   config.AdapterMCP2221,
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "i2c bus or spi port name (bus number for nanopi, bus.cs for nanopi-spi)",
	},
	&cli.UintFlag{
		Name:  "address",
		Usage: "hub i2c address",
		Value: hub.AddressLow,
	},
	&cli.IntFlag{
		Name:  "max-transfer",
		Usage: "largest fifo read per bus transaction",
	},
}

// loadConfig merges the configuration file with explicitly set flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}
	if c.IsSet("adapter") || c.String("config") == "" {
		cfg.Bus.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		cfg.Bus.Device = c.String("device")
	}
	if c.IsSet("address") {
		cfg.Bus.Address = uint8(c.Uint("address"))
	}
	if c.IsSet("max-transfer") {
		cfg.Bus.MaxTransfer = c.Int("max-transfer")
	}
	return cfg, cfg.Validate()
}

type session struct {
	*hub.Hub
	cfg     config.Config
	bridge  *adapter.MCP2221
	closers []func() error
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		err := s.closers[i]()
		if err != nil {
			slog.Warn("could not close bus", "error", err)
		}
	}
}

// spiPort parses "bus.cs" (e.g. "0.0"); an empty name picks spidev0.0.
func spiPort(name string) (int, int, error) {
	if name == "" {
		return 0, 0, nil
	}
	busPart, csPart, ok := strings.Cut(name, ".")
	bus, err := strconv.Atoi(busPart)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid spi port %q", name)
	}
	if !ok {
		return bus, 0, nil
	}
	cs, err := strconv.Atoi(csPart)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid spi port %q", name)
	}
	return bus, cs, nil
}

// openHub connects the configured adapter and wraps it in a hub driver.
func openHub(c *cli.Context, extra ...hub.Opt) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg}
	opts := cfg.HubOptions()
	var bus sensorhub.Bus
	switch cfg.Bus.Adapter {
	case config.AdapterMCP2221:
		s.bridge = adapter.NewMCP2221()
		bus = sensorhub.NewRegisterBus(s.bridge, cfg.Bus.Address)
		if cfg.Bus.MaxTransfer == 0 {
			opts = append(opts, hub.WithMaxTransfer(adapter.MaxTransfer))
		}
	case config.AdapterGeneric:
		b, err := i2c.Open(cfg.Bus.Device, uint16(cfg.Bus.Address))
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, b.Close)
		bus = b
	case config.AdapterNanoPi:
		number := 0
		if cfg.Bus.Device != "" {
			number, err = strconv.Atoi(cfg.Bus.Device)
			if err != nil {
				return nil, fmt.Errorf("invalid nanopi bus number %q", cfg.Bus.Device)
			}
		}
		npi := nanopi.NewNeoAdaptor()
		err = npi.I2cBusAdaptor.Connect()
		if err != nil {
			return nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		s.closers = append(s.closers, npi.I2cBusAdaptor.Finalize)
		b := i2c.NewGobotBus(npi, int(cfg.Bus.Address), number)
		err = b.Start()
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, b.Halt)
		bus = b
	case config.AdapterNanoPiSPI:
		number, cs, err := spiPort(cfg.Bus.Device)
		if err != nil {
			return nil, err
		}
		npi := nanopi.NewNeoAdaptor()
		err = npi.SpiBusAdaptor.Connect()
		if err != nil {
			return nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		s.closers = append(s.closers, npi.SpiBusAdaptor.Finalize)
		b := spi.NewGobotBus(npi, number, cs, spi.DefaultSpeed)
		err = b.Start()
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, b.Halt)
		bus = b
	case config.AdapterSPI:
		b, err := spi.Open(cfg.Bus.Device, spi.DefaultFrequency)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, b.Close)
		bus = b
	case config.AdapterMock:
		bus = mock.NewHub()
	default:
		return nil, fmt.Errorf("unknown adapter %q", cfg.Bus.Adapter)
	}
	slog.Debug("bus opened", "adapter", cfg.Bus.Adapter, "device", cfg.Bus.Device, "address", fmt.Sprintf("%#x", cfg.Bus.Address))
	opts = append(opts, hub.WithLogger(slog.Default()))
	s.Hub = hub.New(bus, append(opts, extra...)...)
	return s, nil
}
