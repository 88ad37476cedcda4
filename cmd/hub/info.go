package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorhub/cmd/hub/console"
	"github.com/mklimuk/sensorhub/hub"
)

type hubInfo struct {
	Model     string              `yaml:"model"`
	Identity  hub.Identity        `yaml:"identity"`
	Host      hub.HostStatus      `yaml:"host_status"`
	Chip      hub.ChipStatus      `yaml:"chip_status"`
	Interrupt hub.InterruptStatus `yaml:"interrupt_status"`
	Pending   int                 `yaml:"fifo_bytes_remaining"`
}

var infoCmd = cli.Command{
	Name:  "info",
	Usage: "identify the hub and dump its status registers",
	Action: func(c *cli.Context) error {
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		ctx := c.Context
		var info hubInfo
		info.Identity, err = h.Identify(ctx)
		if err != nil {
			return console.Fail("hub communication error", err)
		}
		info.Model = info.Identity.Model()
		info.Host, err = h.HostStatus(ctx)
		if err != nil {
			return console.Fail("hub communication error", err)
		}
		info.Chip, err = h.ChipStatus(ctx)
		if err != nil {
			return console.Fail("hub communication error", err)
		}
		info.Interrupt, err = h.InterruptStatus(ctx)
		if err != nil {
			return console.Fail("hub communication error", err)
		}
		info.Pending, err = h.BytesRemaining(ctx)
		if err != nil {
			return console.Fail("hub communication error", err)
		}
		return console.YAML(info)
	},
}

var startCmd = cli.Command{
	Name:  "start",
	Usage: "run the uploaded firmware",
	Action: func(c *cli.Context) error {
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		err = h.Start(c.Context)
		if err != nil {
			return console.Fail("could not start hub", err)
		}
		console.PInfof(console.PictoFinish, "cpu running")
		return nil
	},
}

var stopCmd = cli.Command{
	Name:  "stop",
	Usage: "halt the hub cpu",
	Action: func(c *cli.Context) error {
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		err = h.Stop(c.Context)
		if err != nil {
			return console.Fail("could not stop hub", err)
		}
		console.PInfof(console.PictoStop, "cpu halted")
		return nil
	},
}

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "reset the hub; the RAM firmware is lost",
	Action: func(c *cli.Context) error {
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		err = h.Reset(c.Context)
		if err != nil {
			return console.Fail("could not reset hub", err)
		}
		console.PInfof(console.PictoChip, "reset requested")
		return nil
	},
}
