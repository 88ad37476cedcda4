// Package spi is a register transport for hubs wired to a SPI port. The
// first byte of a transaction is the register address; bit 7 set selects a
// read.
package spi

import (
	"context"
	"fmt"
	"io"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/mklimuk/sensorhub"
)

const readFlag = 0x80

// DefaultFrequency is well below the 10 MHz the hub accepts.
const DefaultFrequency = 4 * physic.MegaHertz

var _ sensorhub.Bus = &Bus{}

type Bus struct {
	conn   spi.Conn
	closer io.Closer
	tx, rx []byte
}

// Open initializes the host drivers and connects to the named port in mode 0.
func Open(name string, freq physic.Frequency) (*Bus, error) {
	_, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	port, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("could not open spi port: %w", err)
	}
	conn, err := port.Connect(freq, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("could not connect to spi port: %w", err)
	}
	b := New(conn)
	b.closer = port
	return b, nil
}

func New(conn spi.Conn) *Bus {
	return &Bus{conn: conn}
}

func (b *Bus) ReadReg(ctx context.Context, reg byte, buffer []byte) (int, error) {
	n := len(buffer) + 1
	b.tx = append(b.tx[:0], make([]byte, n)...)
	b.rx = append(b.rx[:0], make([]byte, n)...)
	b.tx[0] = reg | readFlag
	err := b.conn.Tx(b.tx, b.rx)
	if err != nil {
		return 0, fmt.Errorf("could not read register %#x: %w", reg, err)
	}
	return copy(buffer, b.rx[1:]), nil
}

func (b *Bus) WriteReg(ctx context.Context, reg byte, data []byte) error {
	b.tx = append(b.tx[:0], reg&^readFlag)
	b.tx = append(b.tx, data...)
	err := b.conn.Tx(b.tx, nil)
	if err != nil {
		return fmt.Errorf("could not write register %#x: %w", reg, err)
	}
	return nil
}

func (b *Bus) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}
