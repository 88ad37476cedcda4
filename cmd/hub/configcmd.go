package main

import (
	"maps"
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorhub/cmd/hub/console"
)

var configCmd = cli.Command{
	Name:  "config",
	Usage: "inspect and apply the configuration file",
	Subcommands: cli.Commands{
		&configShowCmd,
		&configApplyCmd,
	},
}

var configShowCmd = cli.Command{
	Name:  "show",
	Usage: "print the effective configuration",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Fail("invalid configuration", err)
		}
		return console.YAML(cfg)
	},
}

var configApplyCmd = cli.Command{
	Name:  "apply",
	Usage: "write the fifo and sensor settings of the configuration to the hub",
	Action: func(c *cli.Context) error {
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		ctx := c.Context
		if h.cfg.FIFO != nil {
			err = h.SetFIFOControl(ctx, *h.cfg.FIFO)
			if err != nil {
				return console.Fail("could not configure fifo", err)
			}
			console.Infof("fifo watermarks set (wakeup %d, non-wakeup %d)", h.cfg.FIFO.WakeupWatermark, h.cfg.FIFO.NonWakeupWatermark)
		}
		sensors, err := h.cfg.SensorConfigs()
		if err != nil {
			return console.Fail("invalid sensor configuration", err)
		}
		for _, id := range slices.Sorted(maps.Keys(sensors)) {
			sc := sensors[id]
			err = h.ConfigureSensor(ctx, id, sc)
			if err != nil {
				return console.Fail("could not configure "+id.String(), err)
			}
			console.Infof("%s: rate %dHz latency %dms", console.Bold(id.String()), sc.SampleRate, sc.MaxReportLatency)
		}
		return nil
	},
}
