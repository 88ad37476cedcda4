package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorhub/cmd/hub/console"
	"github.com/mklimuk/sensorhub/firmware"
	"github.com/mklimuk/sensorhub/hub"
)

var firmwareCmd = cli.Command{
	Name:    "firmware",
	Aliases: []string{"fw"},
	Subcommands: cli.Commands{
		&firmwareInspectCmd,
		&firmwareUploadCmd,
	},
}

func firmwarePath(c *cli.Context, fallback string) (string, error) {
	if c.NArg() == 1 {
		return c.Args().Get(0), nil
	}
	if c.NArg() == 0 && fallback != "" {
		return fallback, nil
	}
	return "", console.Exit(1, "expected 1 argument, got %d", c.NArg())
}

var firmwareInspectCmd = cli.Command{
	Name:      "inspect",
	Usage:     "validate an image and print its header",
	ArgsUsage: "<file>",
	Action: func(c *cli.Context) error {
		path, err := firmwarePath(c, "")
		if err != nil {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return console.Fail("could not read image", err)
		}
		img, err := firmware.Parse(raw)
		if err != nil {
			return console.Fail("image rejected", err)
		}
		chunks := firmware.ChunkCount(int(img.Length), firmware.DefaultChunkSize)
		console.Printf("signature:  %#04x\n", img.Signature)
		console.Printf("rom:        %#04x\n", img.RomVersion)
		console.Printf("crc:        %#08x\n", img.CRC)
		console.Printf("length:     %d bytes (%d chunks of %d)\n", img.Length, chunks, firmware.DefaultChunkSize)
		return nil
	},
}

var firmwareUploadCmd = cli.Command{
	Name:      "upload",
	Usage:     "upload a RAM image; with --boot verify the checksum and start it",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "boot", Aliases: []string{"b"}, Value: true},
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		h, err := openHub(c, hub.WithUploadProgress(func(p firmware.Progress) {
			if p.Chunk%64 == 0 || p.Chunk == p.Chunks {
				console.Infof("%d/%d bytes", p.Bytes, p.Total)
			}
		}))
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		path, err := firmwarePath(c, h.cfg.Firmware)
		if err != nil {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return console.Fail("could not read image", err)
		}
		img, err := firmware.Parse(raw)
		if err != nil {
			return console.Fail("image rejected", err)
		}
		if !c.Bool("yes") {
			ok, err := console.Confirm(fmt.Sprintf("upload %s (%d bytes) to the hub?", path, img.Length))
			if err != nil {
				return console.Fail("prompt error", err)
			}
			if !ok {
				return nil
			}
		}
		ctx := c.Context
		console.PInfof(console.PictoUpload, "uploading %s", console.White(path))
		if c.Bool("boot") {
			err = h.Boot(ctx, img)
			var mismatch *hub.ChecksumError
			if errors.As(err, &mismatch) {
				return console.Exit(2, "checksum mismatch: image %s, hub %s",
					console.Yellow(fmt.Sprintf("%#08x", mismatch.Expected)), console.Red(fmt.Sprintf("%#08x", mismatch.Reported)))
			}
			if err != nil {
				return console.Fail("boot failed", err)
			}
			console.PInfof(console.PictoFinish, "firmware verified and started")
			return nil
		}
		crc, err := h.UploadFirmware(ctx, img)
		if err != nil {
			return console.Fail("upload failed", err)
		}
		status := console.Green("match")
		if crc != img.CRC {
			status = console.Red("mismatch")
		}
		console.PInfof(console.PictoFinish, "uploaded, hub crc %#08x (%s)", crc, status)
		return nil
	},
}
