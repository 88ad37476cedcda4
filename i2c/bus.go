package i2c

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/mklimuk/sensorhub"
)

var _ sensorhub.Bus = &Bus{}

// Bus talks to a hub on a Linux I2C bus. Register reads use a combined
// transaction (write register, repeated start, read).
type Bus struct {
	dev    *i2c.Dev
	closer io.Closer
	buf    []byte
}

// Open initializes the host drivers and opens the named bus ("" picks the
// first one available).
func Open(name string, address uint16) (*Bus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	b := New(bus, address)
	b.closer = bus
	return b, nil
}

func New(bus i2c.Bus, address uint16) *Bus {
	return &Bus{dev: &i2c.Dev{Bus: bus, Addr: address}}
}

func (b *Bus) ReadReg(ctx context.Context, reg byte, buffer []byte) (int, error) {
	err := b.dev.Tx([]byte{reg}, buffer)
	if err != nil {
		return 0, fmt.Errorf("could not read register %#x at %#x: %w", reg, b.dev.Addr, err)
	}
	return len(buffer), nil
}

func (b *Bus) WriteReg(ctx context.Context, reg byte, data []byte) error {
	b.buf = append(b.buf[:0], reg)
	b.buf = append(b.buf, data...)
	err := b.dev.Tx(b.buf, nil)
	if err != nil {
		return fmt.Errorf("could not write register %#x at %#x: %w", reg, b.dev.Addr, err)
	}
	return nil
}

func (b *Bus) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}
