package main

import (
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorhub/adapter"
	"github.com/mklimuk/sensorhub/cmd/hub/console"
)

var bridgeFlags = []cli.Flag{
	&cli.IntFlag{Name: "index", Usage: "bridge index as listed by 'usb detect'"},
}

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "USB to I2C bridge maintenance",
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
		&mcp2221GPIOCmd,
		&mcp2221InterruptCmd,
	},
}

func bridge(c *cli.Context) *adapter.MCP2221 {
	return adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
}

var mcp2221StatusCmd = cli.Command{
	Name:  "status",
	Flags: bridgeFlags,
	Action: func(c *cli.Context) error {
		status, err := bridge(c).Status(c.Context)
		if err != nil {
			return console.Fail("adapter communication error", err)
		}
		return console.YAML(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current i2c transfer and free the bus",
	Flags: bridgeFlags,
	Action: func(c *cli.Context) error {
		status, err := bridge(c).ReleaseBus(c.Context)
		if err != nil {
			return console.Fail("adapter communication error", err)
		}
		return console.YAML(status)
	},
}

var mcp2221GPIOCmd = cli.Command{
	Name:  "gpio",
	Usage: "print pin values and power-up settings",
	Flags: bridgeFlags,
	Action: func(c *cli.Context) error {
		b := bridge(c)
		values, err := b.ReadGPIO(c.Context)
		if err != nil {
			return console.Fail("could not read GPIO values", err)
		}
		settings, err := b.GPIOSettings(c.Context)
		if err != nil {
			return console.Fail("could not read GPIO settings", err)
		}
		return console.YAML(map[string]any{"values": values, "settings": settings})
	},
}

var mcp2221InterruptCmd = cli.Command{
	Name:      "interrupt",
	Usage:     "configure a pin as input for the hub interrupt line",
	ArgsUsage: "<pin>",
	Flags: append([]cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip confirmation"},
	}, bridgeFlags...),
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(1, "expected a pin number")
		}
		pin, err := strconv.Atoi(c.Args().First())
		if err != nil || pin < 0 || pin >= adapter.GPIOPins {
			return console.Exit(1, "invalid pin %q", c.Args().First())
		}
		b := bridge(c)
		settings, err := b.GPIOSettings(c.Context)
		if err != nil {
			return console.Fail("could not read GPIO settings", err)
		}
		settings[pin] = adapter.GPIOSetting{Mode: adapter.GPIOModeIn, Designation: adapter.GPIOOperation}
		if !c.Bool("yes") {
			ok, err := console.Confirm("GPIO settings are stored in flash, continue?")
			if err != nil || !ok {
				return console.Exit(1, "aborted")
			}
		}
		err = b.SetGPIOSettings(c.Context, settings)
		if err != nil {
			return console.Fail("could not write GPIO settings", err)
		}
		console.Infof("GP%d configured as input, replug the bridge to apply", pin)
		return nil
	},
}
