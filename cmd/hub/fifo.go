package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/cmd/hub/console"
	"github.com/mklimuk/sensorhub/event"
)

var fifoCmd = cli.Command{
	Name:  "fifo",
	Usage: "read and manage the event fifo",
	Subcommands: cli.Commands{
		&fifoReadCmd,
		&fifoFlushCmd,
		&fifoStatusCmd,
	},
}

var pollFlags = []cli.Flag{
	&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Usage: "fifo polling interval", Value: 20 * time.Millisecond},
	&cli.IntFlag{Name: "int-pin", Usage: "MCP2221 GP pin wired to the hub interrupt (-1 polls on a timer)", Value: -1},
	&cli.IntFlag{Name: "buffer", Usage: "bytes drained per poll", Value: 1024},
}

// pollLoop drains the fifo until ctx is done, handing every batch of events
// to fn. Malformed bytes are logged and skipped.
func pollLoop(ctx context.Context, c *cli.Context, h *session, fn func([]event.Event) error) error {
	buf := make([]byte, c.Int("buffer"))
	interval := c.Duration("interval")
	pin := c.Int("int-pin")
	if pin >= 0 && h.bridge == nil {
		return console.Exit(1, "--int-pin requires the mcp2221 adapter")
	}
	for {
		if pin >= 0 {
			err := h.bridge.WaitInterrupt(ctx, pin, interval)
			if err != nil {
				return err
			}
		}
		events, err := h.Poll(ctx, buf)
		if len(events) > 0 {
			ferr := fn(events)
			if ferr != nil {
				return ferr
			}
		}
		if err != nil {
			var busErr *sensorhub.BusError
			if errors.As(err, &busErr) || !errors.Is(err, event.ErrMalformedPacket) {
				return err
			}
			slog.Warn("fifo resynchronized", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

var fifoReadCmd = cli.Command{
	Name:  "read",
	Usage: "print decoded events",
	Flags: append([]cli.Flag{
		&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "stop after n events (0 runs until interrupted)"},
		&cli.BoolFlag{Name: "timestamps", Aliases: []string{"t"}, Usage: "include timestamp frames"},
	}, pollFlags...),
	Action: func(c *cli.Context) error {
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		ctx, cancel := context.WithCancel(c.Context)
		defer cancel()
		limit := c.Int("count")
		seen := 0
		err = pollLoop(ctx, c, h, func(events []event.Event) error {
			for _, e := range events {
				if e.IsTimestamp() && !c.Bool("timestamps") {
					continue
				}
				console.Printf("%s\n", e)
				seen++
				if limit > 0 && seen >= limit {
					cancel()
					return nil
				}
			}
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return console.Fail("fifo read failed", err)
		}
		return nil
	},
}

var fifoFlushCmd = cli.Command{
	Name: "flush",
	Action: func(c *cli.Context) error {
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		err = h.FlushFIFO(c.Context)
		if err != nil {
			return console.Fail("could not flush fifo", err)
		}
		console.Infof("fifo flushed")
		return nil
	},
}

var fifoStatusCmd = cli.Command{
	Name: "status",
	Action: func(c *cli.Context) error {
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		remaining, err := h.BytesRemaining(c.Context)
		if err != nil {
			return console.Fail("hub communication error", err)
		}
		control, err := h.FIFOControl(c.Context)
		if err != nil {
			return console.Fail("could not read fifo control", err)
		}
		return console.YAML(map[string]any{"bytes_remaining": remaining, "control": control})
	},
}
