package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/sensorhub/cmd/hub/console"
	"github.com/mklimuk/sensorhub/event"
)

// message is the JSON form of an event sent to stream clients.
type message struct {
	Sensor string     `json:"sensor"`
	ID     uint8      `json:"id"`
	Delta  uint32     `json:"delta"`
	Shape  string     `json:"shape"`
	Data   event.Data `json:"data"`
}

func encodeEvents(events []event.Event) ([]byte, error) {
	out := make([]message, 0, len(events))
	for _, e := range events {
		if e.IsTimestamp() {
			continue
		}
		out = append(out, message{
			Sensor: e.Sensor.String(),
			ID:     uint8(e.Sensor),
			Delta:  e.Delta,
			Shape:  e.Data.Shape().String(),
			Data:   e.Data,
		})
	}
	if len(out) == 0 {
		return nil, nil
	}
	return json.Marshal(out)
}

var streamCmd = cli.Command{
	Name:  "stream",
	Usage: "publish decoded events to websocket clients",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "listen", Aliases: []string{"l"}, Value: ":8090"},
		&cli.StringFlag{Name: "path", Value: "/events"},
	}, pollFlags...),
	Action: func(c *cli.Context) error {
		h, err := openHub(c)
		if err != nil {
			return console.Fail("could not open hub", err)
		}
		defer h.Close()
		ctx, cancel := context.WithCancel(c.Context)
		defer cancel()

		r := newRoom()
		go r.run(ctx)
		mux := http.NewServeMux()
		mux.Handle(c.String("path"), r)
		srv := &http.Server{
			Addr:        c.String("listen"),
			Handler:     mux,
			BaseContext: func(net.Listener) context.Context { return ctx },
		}
		go func() {
			err := srv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("web server failed", "error", err)
			}
			cancel()
		}()
		defer func() { _ = srv.Close() }()
		console.Infof("streaming events on ws://%s%s", c.String("listen"), c.String("path"))

		err = pollLoop(ctx, c, h, func(events []event.Event) error {
			msg, err := encodeEvents(events)
			if err != nil {
				return err
			}
			if msg != nil {
				r.broadcast(msg)
			}
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return console.Fail("stream failed", err)
		}
		return nil
	},
}
