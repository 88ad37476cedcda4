package main

import (
	"encoding/hex"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorhub/cmd/hub/console"
	"github.com/mklimuk/sensorhub/param"
	"github.com/mklimuk/sensorhub/register"
)

var paramCmd = cli.Command{
	Name:  "param",
	Usage: "raw parameter access",
	Subcommands: cli.Commands{
		&paramGetCmd,
		&paramSetCmd,
	},
}

// paramSpec resolves <page> <id> to a known spec, or builds one of the
// given size for parameters outside the schema.
func paramSpec(c *cli.Context, size int, access register.Access) (param.Spec, error) {
	page, err := param.ParsePage(c.Args().Get(0))
	if err != nil {
		return param.Spec{}, console.Exit(1, "%v", err)
	}
	id, err := strconv.ParseUint(c.Args().Get(1), 0, 7)
	if err != nil {
		return param.Spec{}, console.Exit(1, "invalid parameter id %q", c.Args().Get(1))
	}
	if spec, ok := param.Lookup(page, uint8(id)); ok && !c.IsSet("size") {
		return spec, nil
	}
	return param.Spec{Page: page, ID: uint8(id), Size: size, Access: access}, nil
}

var paramGetCmd = cli.Command{
	Name:      "get",
	ArgsUsage: "<page> <id>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "size", Aliases: []string{"s"}, Value: param.MaxReadSize},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return console.Exit(1, "expected 2 arguments, got %d", c.NArg())
		}
		spec, err := paramSpec(c, c.Int("size"), register.ReadOnly)
		if err != nil {
			return err
		}
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		raw, err := h.ReadParameter(c.Context, spec)
		if err != nil {
			return console.Fail("parameter read failed", err)
		}
		console.Printf("%s: %s\n", console.White(spec), hex.EncodeToString(raw))
		return nil
	},
}

var paramSetCmd = cli.Command{
	Name:      "set",
	ArgsUsage: "<page> <id> <hex payload>",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "size", Aliases: []string{"s"}},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 3 {
			return console.Exit(1, "expected 3 arguments, got %d", c.NArg())
		}
		payload, err := hex.DecodeString(c.Args().Get(2))
		if err != nil {
			return console.Exit(1, "could not decode payload: %v", err)
		}
		size := c.Int("size")
		if size == 0 {
			size = len(payload)
		}
		spec, err := paramSpec(c, size, register.ReadWrite)
		if err != nil {
			return err
		}
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		err = h.WriteParameter(c.Context, spec, payload)
		if err != nil {
			return console.Fail("parameter write failed", err)
		}
		console.Infof("%s written", console.White(spec))
		return nil
	},
}
