package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorhub/cmd/hub/console"
	"github.com/mklimuk/sensorhub/event"
	"github.com/mklimuk/sensorhub/param"
)

var metaCmd = cli.Command{
	Name:  "meta",
	Usage: "meta event control",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "wakeup", Aliases: []string{"w"}, Usage: "use the wakeup fifo control"},
	},
	Subcommands: cli.Commands{
		&metaGetCmd,
		&metaSetCmd,
	},
}

func parseMetaType(s string) (event.MetaType, error) {
	for t := event.MetaType(1); t <= event.MetaEventCount; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil || n == 0 || n > event.MetaEventCount {
		return 0, fmt.Errorf("unknown meta event %q", s)
	}
	return event.MetaType(n), nil
}

var metaGetCmd = cli.Command{
	Name: "get",
	Action: func(c *cli.Context) error {
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		m, err := h.MetaEvents(c.Context, c.Bool("wakeup"))
		if err != nil {
			return console.Fail("could not read meta events", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 8, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "TYPE\tEVENT\tENABLED\tINTERRUPT\n")
		for t := event.MetaType(1); t <= event.MetaEventCount; t++ {
			f := m.Get(t)
			if t.String() == "reserved" && !f.Enable && !f.Interrupt {
				continue
			}
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t, t, console.Flag(f.Enable), console.Flag(f.Interrupt))
		}
		return w.Flush()
	},
}

var metaSetCmd = cli.Command{
	Name:      "set",
	ArgsUsage: "<event>...",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "disable"},
		&cli.BoolFlag{Name: "interrupt", Aliases: []string{"i"}, Usage: "also raise the host interrupt"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return console.Exit(1, "expected at least 1 argument")
		}
		types := make([]event.MetaType, 0, c.NArg())
		for _, arg := range c.Args().Slice() {
			t, err := parseMetaType(arg)
			if err != nil {
				return console.Exit(1, "%v", err)
			}
			types = append(types, t)
		}
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		wakeup := c.Bool("wakeup")
		m, err := h.MetaEvents(c.Context, wakeup)
		if err != nil {
			return console.Fail("could not read meta events", err)
		}
		for _, t := range types {
			m.Set(t, param.MetaEventFlags{Enable: !c.Bool("disable"), Interrupt: !c.Bool("disable") && c.Bool("interrupt")})
		}
		err = h.SetMetaEvents(c.Context, wakeup, m)
		if err != nil {
			return console.Fail("could not write meta events", err)
		}
		console.Infof("meta event control updated")
		return nil
	},
}
