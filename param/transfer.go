package param

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/register"
)

const (
	DefaultPollInterval = 5 * time.Millisecond
	DefaultMaxAttempts  = 100
)

var (
	// ErrParameterRejected is returned when the hub acknowledges a request
	// with the error value (unknown page or parameter).
	ErrParameterRejected = errors.New("parameter rejected by hub")
	ErrParameterTimeout  = errors.New("parameter transfer timed out")
)

// TimeoutError reports a transfer whose acknowledge never arrived within the
// polling budget. It matches ErrParameterTimeout.
type TimeoutError struct {
	Param    Spec
	Attempts int
	Last     byte
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("parameter %s not acknowledged after %d attempts (last ack %#02x)", e.Param, e.Attempts, e.Last)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrParameterTimeout
}

type TransferOpt func(*Transfer)

// WithPollInterval sets the delay between two acknowledge reads.
func WithPollInterval(d time.Duration) TransferOpt {
	return func(t *Transfer) {
		t.interval = d
	}
}

// WithMaxAttempts sets how many times the acknowledge register is read before
// giving up.
func WithMaxAttempts(n int) TransferOpt {
	return func(t *Transfer) {
		t.attempts = n
	}
}

func WithLogger(logger *slog.Logger) TransferOpt {
	return func(t *Transfer) {
		t.logger = logger
	}
}

// Transfer runs the parameter handshake. Callers sharing a bus must not
// interleave two transfers.
type Transfer struct {
	regs     *register.File
	interval time.Duration
	attempts int
	logger   *slog.Logger
}

func NewTransfer(bus sensorhub.Bus, opts ...TransferOpt) *Transfer {
	t := &Transfer{
		regs:     register.NewFile(bus),
		interval: DefaultPollInterval,
		attempts: DefaultMaxAttempts,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.attempts < 1 {
		t.attempts = 1
	}
	return t
}

// Read selects the page, requests p for reading, waits for the acknowledge and
// reads p.Size bytes from the read buffer.
func (t *Transfer) Read(ctx context.Context, p Spec) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !p.Access.Readable() {
		return nil, fmt.Errorf("parameter %s: %w", p, register.ErrNotReadable)
	}
	err := t.selectPage(ctx, p, p.Size%MaxReadSize)
	if err != nil {
		return nil, err
	}
	req := p.ID
	err = t.request(ctx, req)
	if err != nil {
		return nil, err
	}
	err = t.poll(ctx, p, req)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, p.Size)
	n, err := t.regs.ReadWindow(ctx, register.ParameterReadBuffer, buf)
	if err != nil {
		return nil, fmt.Errorf("could not read parameter %s: %w", p, err)
	}
	if n < p.Size {
		return buf[:n], &sensorhub.MalformedResponseError{Reg: register.ParameterReadBuffer.Addr, Want: p.Size, Got: n}
	}
	t.logger.Debug("parameter read", "param", p.String(), "data", fmt.Sprintf("% x", buf))
	return buf, nil
}

// Write stages payload in the write buffer, selects the page, requests p for
// writing, waits for the acknowledge and ends the transfer.
func (t *Transfer) Write(ctx context.Context, p Spec, payload []byte) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !p.Access.Writable() {
		return fmt.Errorf("parameter %s: %w", p, register.ErrNotWritable)
	}
	if len(payload) != p.Size {
		return fmt.Errorf("parameter %s: expected %d bytes, got %d", p, p.Size, len(payload))
	}
	err := t.regs.WriteWindow(ctx, register.ParameterWriteBuffer, payload)
	if err != nil {
		return fmt.Errorf("could not stage parameter %s: %w", p, err)
	}
	err = t.selectPage(ctx, p, p.Size%MaxWriteSize)
	if err != nil {
		return err
	}
	req := p.ID | 0x80
	err = t.request(ctx, req)
	if err != nil {
		return err
	}
	err = t.poll(ctx, p, req)
	if err != nil {
		return err
	}
	err = t.request(ctx, 0)
	if err != nil {
		return err
	}
	t.logger.Debug("parameter written", "param", p.String(), "data", fmt.Sprintf("% x", payload))
	return nil
}

func (t *Transfer) selectPage(ctx context.Context, p Spec, size int) error {
	err := t.regs.WriteFields(ctx, register.ParameterPageSelect, register.Values{
		register.FieldParameterPage: uint32(p.Page),
		register.FieldParameterSize: uint32(size),
	})
	if err != nil {
		return fmt.Errorf("could not select page for parameter %s: %w", p, err)
	}
	return nil
}

func (t *Transfer) request(ctx context.Context, req byte) error {
	err := t.regs.WriteUint(ctx, register.ParameterRequest, uint32(req))
	if err != nil {
		return fmt.Errorf("could not write parameter request %#02x: %w", req, err)
	}
	return nil
}

// poll reads the acknowledge register exactly t.attempts times at most,
// sleeping between reads but not after the last one.
func (t *Transfer) poll(ctx context.Context, p Spec, want byte) error {
	var ack uint32
	var err error
	for attempt := 1; ; attempt++ {
		ack, err = t.regs.ReadUint(ctx, register.ParameterAcknowledge)
		if err != nil {
			return fmt.Errorf("could not read parameter acknowledge: %w", err)
		}
		switch byte(ack) {
		case want:
			return nil
		case register.ParameterAckError:
			return fmt.Errorf("parameter %s: %w", p, ErrParameterRejected)
		}
		if attempt >= t.attempts {
			return &TimeoutError{Param: p, Attempts: attempt, Last: byte(ack)}
		}
		timer := time.NewTimer(t.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
