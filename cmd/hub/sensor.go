package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorhub/cmd/hub/console"
	"github.com/mklimuk/sensorhub/param"
	"github.com/mklimuk/sensorhub/sensor"
)

var sensorCmd = cli.Command{
	Name:  "sensor",
	Usage: "virtual sensor configuration",
	Subcommands: cli.Commands{
		&sensorListCmd,
		&sensorInfoCmd,
		&sensorEnableCmd,
		&sensorDisableCmd,
		&sensorStatusCmd,
	},
}

func sensorArg(c *cli.Context) (sensor.ID, error) {
	if c.NArg() != 1 {
		return 0, console.Exit(1, "expected 1 argument, got %d", c.NArg())
	}
	id, err := sensor.Parse(c.Args().Get(0))
	if err != nil {
		return 0, console.Exit(1, "%v", err)
	}
	return id, nil
}

var sensorListCmd = cli.Command{
	Name:  "ls",
	Usage: "list the sensors implemented by the running firmware",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "wakeup", Aliases: []string{"w"}},
	},
	Action: func(c *cli.Context) error {
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		w := tabwriter.NewWriter(os.Stdout, 8, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "ID\tSENSOR\tDRIVER\tMAX RATE\tRANGE\tRATE\tLATENCY\n")
		for id := sensor.Accelerometer; id < sensor.WakeupOffset; id++ {
			if c.Bool("wakeup") {
				listSensor(c, h, w, id.Wakeup())
				continue
			}
			listSensor(c, h, w, id)
		}
		return w.Flush()
	},
}

func listSensor(c *cli.Context, h *session, w *tabwriter.Writer, id sensor.ID) {
	info, err := h.SensorInfo(c.Context, id)
	if err != nil {
		console.Warnf("%s: %v", id, err)
		return
	}
	if !info.Present() {
		return
	}
	cfg, err := h.SensorConfig(c.Context, id)
	if err != nil {
		console.Warnf("%s: %v", id, err)
		return
	}
	_, _ = fmt.Fprintf(w, "%d\t%s\t%d.%d\t%d Hz\t%d\t%d Hz\t%d ms\n",
		id, id, info.DriverID, info.DriverVersion, info.MaxRate, info.MaxRange, cfg.SampleRate, cfg.MaxReportLatency)
}

var sensorInfoCmd = cli.Command{
	Name:      "info",
	ArgsUsage: "<sensor>",
	Action: func(c *cli.Context) error {
		id, err := sensorArg(c)
		if err != nil {
			return err
		}
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		info, err := h.SensorInfo(c.Context, id)
		if err != nil {
			return console.Fail("could not read sensor information", err)
		}
		cfg, err := h.SensorConfig(c.Context, id)
		if err != nil {
			return console.Fail("could not read sensor configuration", err)
		}
		return console.YAML(map[string]any{"info": info, "config": cfg})
	},
}

var sensorEnableCmd = cli.Command{
	Name:      "enable",
	ArgsUsage: "<sensor>",
	Flags: []cli.Flag{
		&cli.UintFlag{Name: "rate", Aliases: []string{"r"}, Usage: "sample rate in Hz", Value: 25},
		&cli.UintFlag{Name: "latency", Aliases: []string{"l"}, Usage: "max report latency in ms"},
		&cli.UintFlag{Name: "sensitivity", Usage: "change sensitivity"},
		&cli.UintFlag{Name: "range", Usage: "dynamic range"},
	},
	Action: func(c *cli.Context) error {
		id, err := sensorArg(c)
		if err != nil {
			return err
		}
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		cfg := param.SensorConfig{
			SampleRate:        uint16(c.Uint("rate")),
			MaxReportLatency:  uint16(c.Uint("latency")),
			ChangeSensitivity: uint16(c.Uint("sensitivity")),
			DynamicRange:      uint16(c.Uint("range")),
		}
		err = h.ConfigureSensor(c.Context, id, cfg)
		if err != nil {
			return console.Fail("could not configure sensor", err)
		}
		console.PInfof(console.PictoCompass, "%s enabled at %d Hz", console.White(id), cfg.SampleRate)
		return nil
	},
}

var sensorDisableCmd = cli.Command{
	Name:      "disable",
	ArgsUsage: "<sensor>",
	Action: func(c *cli.Context) error {
		id, err := sensorArg(c)
		if err != nil {
			return err
		}
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		err = h.ConfigureSensor(c.Context, id, param.SensorConfig{})
		if err != nil {
			return console.Fail("could not configure sensor", err)
		}
		console.PInfof(console.PictoStop, "%s disabled", console.White(id))
		return nil
	},
}

var sensorStatusCmd = cli.Command{
	Name:  "physical",
	Usage: "status of the physical accelerometer, gyroscope and magnetometer",
	Action: func(c *cli.Context) error {
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		status, err := h.PhysicalStatus(c.Context)
		if err != nil {
			return console.Fail("could not read physical sensor status", err)
		}
		return console.YAML(status)
	},
}
