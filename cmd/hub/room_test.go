package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensorhub/event"
	"github.com/mklimuk/sensorhub/sensor"
)

func TestEncodeEvents(t *testing.T) {
	msg, err := encodeEvents([]event.Event{{Sensor: sensor.TimestampLSW, Delta: 4}})
	require.NoError(t, err)
	assert.Nil(t, msg, "timestamps only")

	msg, err = encodeEvents([]event.Event{
		{Sensor: sensor.TimestampLSW, Delta: 4},
		{Sensor: sensor.Light, Delta: 4, Data: event.Scalar{Value: 120}},
	})
	require.NoError(t, err)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(msg, &out))
	require.Len(t, out, 1)
	assert.Equal(t, float64(sensor.Light), out[0]["id"])
	assert.Equal(t, float64(4), out[0]["delta"])
	assert.Equal(t, map[string]any{"Value": float64(120)}, out[0]["data"])
}

func TestRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newRoom()
	go r.run(ctx)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	// the client registers asynchronously; keep broadcasting until it hears us
	received := make(chan []byte, 1)
	go func() {
		_, msg, err := conn.ReadMessage()
		if err == nil {
			received <- msg
		}
	}()
	deadline := time.After(2 * time.Second)
	for {
		r.broadcast([]byte(`{"hello":1}`))
		select {
		case msg := <-received:
			assert.JSONEq(t, `{"hello":1}`, string(msg))
			return
		case <-deadline:
			t.Fatal("no message received")
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestRoomShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := newRoom()
	go r.run(ctx)
	srv := httptest.NewServer(r)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	joined, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer joined.Close()

	cancel()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("room did not stop")
	}

	// both the client that joined before and one arriving after shutdown are
	// disconnected instead of hanging their handlers
	late, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer late.Close()
	for _, conn := range []*websocket.Conn{joined, late} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := conn.ReadMessage()
		require.Error(t, err)
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) {
			assert.False(t, netErr.Timeout(), "handler kept the connection open")
		}
	}
}
