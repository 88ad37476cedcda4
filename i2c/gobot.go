package i2c

import (
	"context"
	"fmt"

	gobot "gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/sensorhub"
)

var _ sensorhub.Bus = &GobotBus{}

// GobotBus reaches the hub through a gobot I2C adaptor (e.g. a NanoPi board).
// Reads are a register pointer write followed by a separate read.
type GobotBus struct {
	driver *gobot.GenericDriver
	buf    []byte
}

// NewGobotBus binds a driver to address on the adaptor's bus.
func NewGobotBus(adaptor gobot.Connector, address int, bus int) *GobotBus {
	driver := gobot.NewGenericDriver(adaptor, "bhi160", address, func(c gobot.Config) {
		c.SetBus(bus)
	})
	return &GobotBus{driver: driver}
}

func (b *GobotBus) Start() error {
	err := b.driver.Start()
	if err != nil {
		return fmt.Errorf("start error: %w", err)
	}
	return nil
}

func (b *GobotBus) Halt() error {
	return b.driver.Halt()
}

func (b *GobotBus) ReadReg(ctx context.Context, reg byte, buffer []byte) (int, error) {
	err := b.driver.Write([]byte{reg})
	if err != nil {
		return 0, fmt.Errorf("could not set register pointer %#x: %w", reg, err)
	}
	err = b.driver.Read(buffer)
	if err != nil {
		return 0, fmt.Errorf("could not read register %#x: %w", reg, err)
	}
	return len(buffer), nil
}

func (b *GobotBus) WriteReg(ctx context.Context, reg byte, data []byte) error {
	b.buf = append(b.buf[:0], reg)
	b.buf = append(b.buf, data...)
	err := b.driver.Write(b.buf)
	if err != nil {
		return fmt.Errorf("could not write register %#x: %w", reg, err)
	}
	return nil
}
