package spi

import (
	"context"
	"errors"
	"fmt"

	gobot "gobot.io/x/gobot/v2/drivers/spi"

	"github.com/mklimuk/sensorhub"
)

var _ sensorhub.Bus = &GobotBus{}

// DefaultSpeed is used when the caller does not pick a clock.
const DefaultSpeed = 4_000_000

// GobotBus reaches the hub through a gobot SPI adaptor (e.g. the NanoPi
// spidev ports). The hub runs in SPI mode 0.
type GobotBus struct {
	driver *gobot.Driver
	conn   connection
	buf    []byte
}

// connection is the subset of the gobot SPI connection the hub needs.
type connection interface {
	ReadCommandData(command []byte, data []byte) error
	WriteBytes(data []byte) error
}

// NewGobotBus binds a driver to chip select cs on the given bus number.
func NewGobotBus(adaptor gobot.Connector, bus int, cs int, speed int64) *GobotBus {
	d := gobot.NewDriver(adaptor, "bhi160", func(c gobot.Config) {
		c.SetBusNumber(bus)
		c.SetChipNumber(cs)
		c.SetMode(0)
		c.SetBitCount(8)
		if speed <= 0 {
			speed = DefaultSpeed
		}
		c.SetSpeed(speed)
	})
	return &GobotBus{driver: d}
}

func (b *GobotBus) Start() error {
	err := b.driver.Start()
	if err != nil {
		return fmt.Errorf("SPI device start error: %w", err)
	}
	conn, ok := b.driver.Connection().(connection)
	if !ok {
		_ = b.driver.Halt()
		return errors.New("spi connection does not support command reads")
	}
	b.conn = conn
	return nil
}

func (b *GobotBus) Halt() error {
	return b.driver.Halt()
}

// ReadReg clocks out reg with the read bit set followed by len(buffer) dummy
// bytes.
func (b *GobotBus) ReadReg(ctx context.Context, reg byte, buffer []byte) (int, error) {
	if b.conn == nil {
		return 0, errors.New("spi bus not started")
	}
	err := b.conn.ReadCommandData([]byte{reg | readFlag}, buffer)
	if err != nil {
		return 0, fmt.Errorf("could not read register %#x: %w", reg, err)
	}
	return len(buffer), nil
}

func (b *GobotBus) WriteReg(ctx context.Context, reg byte, data []byte) error {
	if b.conn == nil {
		return errors.New("spi bus not started")
	}
	b.buf = append(b.buf[:0], reg&^readFlag)
	b.buf = append(b.buf, data...)
	err := b.conn.WriteBytes(b.buf)
	if err != nil {
		return fmt.Errorf("could not write register %#x: %w", reg, err)
	}
	return nil
}
