package hub

import (
	"context"
	"errors"
	"fmt"

	"github.com/mklimuk/sensorhub/event"
	"github.com/mklimuk/sensorhub/register"
)

// BytesRemaining reads the number of bytes waiting in the FIFO.
func (h *Hub) BytesRemaining(ctx context.Context) (int, error) {
	n, err := h.regs.ReadUint(ctx, register.BytesRemaining)
	if err != nil {
		return 0, fmt.Errorf("could not read fifo fill level: %w", err)
	}
	return int(n), nil
}

// UpdateTransferCount asks the hub to refresh bytes remaining without waiting
// for the current transfer to finish. The other host interface control bits
// are preserved.
func (h *Hub) UpdateTransferCount(ctx context.Context) error {
	v, err := h.regs.ReadFields(ctx, register.HostInterfaceControl)
	if err != nil {
		return fmt.Errorf("could not read host interface control: %w", err)
	}
	v[register.FieldUpdateTransferCount] = 1
	err = h.regs.WriteFields(ctx, register.HostInterfaceControl, v)
	if err != nil {
		return fmt.Errorf("could not request transfer count update: %w", err)
	}
	return nil
}

// ReadFIFO fills buf with at most bytes remaining FIFO bytes. Reads are split
// into transactions of the FIFO window size, or the configured maximum
// transfer if smaller. A transport that delivers fewer bytes than asked ends
// the read early; the returned count is what actually arrived.
func (h *Hub) ReadFIFO(ctx context.Context, buf []byte) (int, error) {
	remaining, err := h.BytesRemaining(ctx)
	if err != nil {
		return 0, err
	}
	want := min(len(buf), remaining)
	read := 0
	for read < want {
		size := min(want-read, h.maxTransfer)
		n, err := h.regs.ReadWindow(ctx, register.FIFO, buf[read:read+size])
		read += n
		if err != nil {
			return read, fmt.Errorf("could not read fifo: %w", err)
		}
		if n < size {
			h.logger.Warn("short fifo read", "want", size, "got", n)
			break
		}
	}
	return read, nil
}

// FlushFIFO discards the content of both FIFOs.
func (h *Hub) FlushFIFO(ctx context.Context) error {
	err := h.regs.WriteUint(ctx, register.FIFOFlush, register.FIFOFlushAll)
	if err != nil {
		return fmt.Errorf("could not flush fifo: %w", err)
	}
	h.decoder.Reset()
	return nil
}

// Poll reads pending FIFO bytes into buf and decodes them. Malformed stream
// bytes do not stop decoding: the events found are returned together with an
// error matching event.ErrMalformedPacket. Bytes read before a failed bus
// transaction have already left the device, so they are decoded as well and
// returned with the bus error.
func (h *Hub) Poll(ctx context.Context, buf []byte) ([]event.Event, error) {
	n, rerr := h.ReadFIFO(ctx, buf)
	events, derr := h.decoder.Feed(buf[:n])
	if derr != nil {
		var malformed *event.MalformedError
		if errors.As(derr, &malformed) {
			h.logger.Warn("malformed fifo data", "packets", len(malformed.Packets))
		}
	}
	if rerr != nil {
		return events, errors.Join(rerr, derr)
	}
	return events, derr
}

// Decoder exposes the stream decoder, e.g. to read its statistics.
func (h *Hub) Decoder() *event.Decoder {
	return h.decoder
}

// ResetDecoder drops carried bytes and the timestamp clock.
func (h *Hub) ResetDecoder() {
	h.decoder.Reset()
}
