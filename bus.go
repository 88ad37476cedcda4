package sensorhub

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is an address-level transport (USB bridges, gobot adaptors).
type I2CBus interface {
	AddressableReader
	AddressableWriter
}

// Bus is the register-level transport the hub driver talks to. Every call is
// exactly one bus transaction. ReadReg reports how many bytes the transport
// actually delivered.
type Bus interface {
	ReadReg(ctx context.Context, reg byte, buffer []byte) (int, error)
	WriteReg(ctx context.Context, reg byte, data []byte) error
}

var _ Bus = &RegisterBus{}

// RegisterBus exposes a device sitting at a fixed address of an I2CBus as a
// register Bus. A read sets the register pointer with a write and then reads.
type RegisterBus struct {
	transport I2CBus
	address   byte
	buf       []byte
}

func NewRegisterBus(transport I2CBus, address byte) *RegisterBus {
	return &RegisterBus{transport: transport, address: address}
}

func (b *RegisterBus) ReadReg(ctx context.Context, reg byte, buffer []byte) (int, error) {
	err := b.transport.WriteToAddr(ctx, b.address, []byte{reg})
	if err != nil {
		return 0, fmt.Errorf("could not set register pointer %#x: %w", reg, err)
	}
	if len(buffer) == 0 {
		return 0, nil
	}
	err = b.transport.ReadFromAddr(ctx, b.address, buffer)
	if err != nil {
		return 0, fmt.Errorf("could not read register %#x: %w", reg, err)
	}
	return len(buffer), nil
}

func (b *RegisterBus) WriteReg(ctx context.Context, reg byte, data []byte) error {
	b.buf = append(b.buf[:0], reg)
	b.buf = append(b.buf, data...)
	err := b.transport.WriteToAddr(ctx, b.address, b.buf)
	if err != nil {
		return fmt.Errorf("could not write register %#x: %w", reg, err)
	}
	return nil
}

func (b *RegisterBus) Release(ctx context.Context) error {
	return b.transport.Release(ctx)
}
