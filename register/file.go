package register

import (
	"context"
	"fmt"

	"github.com/mklimuk/sensorhub"
)

// File gives typed access to the hub registers over a Bus. Each method issues
// exactly one bus transaction and never retries.
type File struct {
	bus sensorhub.Bus
}

func NewFile(bus sensorhub.Bus) *File {
	return &File{bus: bus}
}

// Read returns the raw bytes of r.
func (f *File) Read(ctx context.Context, r Register) ([]byte, error) {
	if !r.Access.Readable() {
		return nil, fmt.Errorf("%s: %w", r.Name, ErrNotReadable)
	}
	raw := make([]byte, r.Width)
	n, err := f.bus.ReadReg(ctx, r.Addr, raw)
	if err != nil {
		return nil, sensorhub.NewBusError("read", r.Addr, err)
	}
	if n < r.Width {
		return raw[:n], &sensorhub.MalformedResponseError{Reg: r.Addr, Want: r.Width, Got: n}
	}
	return raw, nil
}

// Write stores raw bytes into r. raw must match the register width.
func (f *File) Write(ctx context.Context, r Register, raw []byte) error {
	if !r.Access.Writable() {
		return fmt.Errorf("%s: %w", r.Name, ErrNotWritable)
	}
	if len(raw) != r.Width {
		return fmt.Errorf("%s: expected %d bytes, got %d", r.Name, r.Width, len(raw))
	}
	err := f.bus.WriteReg(ctx, r.Addr, raw)
	if err != nil {
		return sensorhub.NewBusError("write", r.Addr, err)
	}
	return nil
}

func (f *File) ReadUint(ctx context.Context, r Register) (uint32, error) {
	raw, err := f.Read(ctx, r)
	if err != nil {
		return 0, err
	}
	return r.DecodeUint(raw), nil
}

func (f *File) WriteUint(ctx context.Context, r Register, v uint32) error {
	raw, err := r.EncodeUint(v)
	if err != nil {
		return err
	}
	return f.Write(ctx, r, raw)
}

// ReadFields reads r and unpacks its bit-fields.
func (f *File) ReadFields(ctx context.Context, r Register) (Values, error) {
	raw, err := f.Read(ctx, r)
	if err != nil {
		return nil, err
	}
	return r.Decode(raw), nil
}

// WriteFields packs v and writes it to r. Validation happens before any bus
// access.
func (f *File) WriteFields(ctx context.Context, r Register, v Values) error {
	raw, err := r.Encode(v)
	if err != nil {
		return err
	}
	return f.Write(ctx, r, raw)
}

// ReadWindow reads up to w.Size bytes from a burst window in one transaction
// and returns the number of bytes delivered.
func (f *File) ReadWindow(ctx context.Context, w Window, buf []byte) (int, error) {
	if !w.Access.Readable() {
		return 0, fmt.Errorf("%s: %w", w.Name, ErrNotReadable)
	}
	if len(buf) > w.Size {
		return 0, fmt.Errorf("%s: %d bytes exceed the %d byte window", w.Name, len(buf), w.Size)
	}
	n, err := f.bus.ReadReg(ctx, w.Addr, buf)
	if err != nil {
		return 0, sensorhub.NewBusError("read", w.Addr, err)
	}
	return n, nil
}

// WriteWindow writes data to a burst window in one transaction.
func (f *File) WriteWindow(ctx context.Context, w Window, data []byte) error {
	if !w.Access.Writable() {
		return fmt.Errorf("%s: %w", w.Name, ErrNotWritable)
	}
	if len(data) > w.Size {
		return fmt.Errorf("%s: %d bytes exceed the %d byte window", w.Name, len(data), w.Size)
	}
	err := f.bus.WriteReg(ctx, w.Addr, data)
	if err != nil {
		return sensorhub.NewBusError("write", w.Addr, err)
	}
	return nil
}
