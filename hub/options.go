package hub

import (
	"log/slog"
	"time"

	"github.com/mklimuk/sensorhub/firmware"
	"github.com/mklimuk/sensorhub/sensor"
)

type Opt func(*Hub)

func WithLogger(logger *slog.Logger) Opt {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithChunkSize sets the firmware upload chunk size (multiple of 4, at most
// firmware.MaxChunkSize).
func WithChunkSize(size int) Opt {
	return func(h *Hub) {
		h.chunkSize = size
	}
}

// WithPollInterval sets the delay between parameter acknowledge reads.
func WithPollInterval(d time.Duration) Opt {
	return func(h *Hub) {
		h.pollInterval = d
	}
}

// WithPollAttempts bounds the number of parameter acknowledge reads.
func WithPollAttempts(n int) Opt {
	return func(h *Hub) {
		h.pollAttempts = n
	}
}

// WithMaxTransfer limits the number of bytes read from the FIFO in a single
// bus transaction. Bridges such as the MCP2221 cannot move a full FIFO window
// at once.
func WithMaxTransfer(n int) Opt {
	return func(h *Hub) {
		h.maxTransfer = n
	}
}

// WithRegistry replaces the sensor table used by the decoder.
func WithRegistry(r *sensor.Registry) Opt {
	return func(h *Hub) {
		h.registry = r
	}
}

// WithUploadProgress is called after every firmware chunk.
func WithUploadProgress(fn func(firmware.Progress)) Opt {
	return func(h *Hub) {
		h.progress = fn
	}
}
