package adapter

import (
	"context"
	"fmt"
	"time"
)

type GPIOMode byte

const (
	GPIOModeOut         GPIOMode = 0b00000000
	GPIOModeIn          GPIOMode = 0b00001000
	GPIOModeNoOperation GPIOMode = 0xEF
)

func (m GPIOMode) String() string {
	switch m {
	case GPIOModeIn:
		return "INPUT"
	case GPIOModeOut:
		return "OUTPUT"
	default:
		return "NOOP"
	}
}

type GPIODesignation byte

const (
	GPIOOperation GPIODesignation = 0b00000000
	// GPIO1InterruptDetection is the alternate function 2 of GP1.
	GPIO1InterruptDetection GPIODesignation = 0b00000100
)

const gpioModeMask = 0b00001000
const gpioOperationMask = 0b00000111

// GPIOPins is the number of general purpose pins of the bridge.
const GPIOPins = 4

// GPIOPin is the state of one general purpose pin.
type GPIOPin struct {
	Mode  GPIOMode `yaml:"mode"`
	Value byte     `yaml:"value"`
}

type GPIOValues [GPIOPins]GPIOPin

// GPIOSetting is the power-up configuration of one pin.
type GPIOSetting struct {
	Mode        GPIOMode        `yaml:"mode"`
	Designation GPIODesignation `yaml:"designation"`
}

type GPIOSettings [GPIOPins]GPIOSetting

// ReadGPIO reads the current state of all pins.
func (d *MCP2221) ReadGPIO(ctx context.Context) (GPIOValues, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdGetGPIO
	err := d.send(ctx)
	if err != nil {
		return GPIOValues{}, fmt.Errorf("read GPIO values command write failed: %w", err)
	}
	if d.response[1] == engineBusy {
		return GPIOValues{}, ErrCommandFailed
	}
	return decodeGPIOValues(d.response), nil
}

// decodeGPIOValues reads value and direction pairs starting at byte 2.
func decodeGPIOValues(res []byte) GPIOValues {
	var v GPIOValues
	for i := range v {
		value, dir := res[2+2*i], res[3+2*i]
		v[i] = GPIOPin{Mode: GPIOModeNoOperation, Value: value}
		if dir != byte(GPIOModeNoOperation) {
			v[i].Mode = GPIOMode(dir << 3)
		}
	}
	return v
}

func (d *MCP2221) GPIOSettings(ctx context.Context) (GPIOSettings, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdReadFlash
	d.request[1] = flashGPSettings
	err := d.send(ctx)
	if err != nil {
		return GPIOSettings{}, fmt.Errorf("get GP parameters command write failed: %w", err)
	}
	if d.response[1] == engineBusy {
		return GPIOSettings{}, ErrCommandUnsupported
	}
	return decodeGPIOSettings(d.response), nil
}

func decodeGPIOSettings(res []byte) GPIOSettings {
	var s GPIOSettings
	for i := range s {
		s[i] = GPIOSetting{
			Mode:        GPIOMode(res[4+i] & gpioModeMask),
			Designation: GPIODesignation(res[4+i] & gpioOperationMask),
		}
	}
	return s
}

func (d *MCP2221) SetGPIOSettings(ctx context.Context, s GPIOSettings) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdWriteFlash
	d.request[1] = flashGPSettings
	for i, p := range s {
		d.request[2+i] = byte(p.Designation) | byte(p.Mode)
	}
	err := d.send(ctx)
	if err != nil {
		return fmt.Errorf("set GP parameters command write failed: %w", err)
	}
	if d.response[1] == engineBusy {
		return ErrCommandFailed
	}
	return nil
}

// WaitInterrupt polls pin until it reads high. The hub interrupt line is
// active high and stays asserted until the FIFO has been drained.
func (d *MCP2221) WaitInterrupt(ctx context.Context, pin int, interval time.Duration) error {
	if pin < 0 || pin >= GPIOPins {
		return fmt.Errorf("invalid GPIO pin %d", pin)
	}
	for {
		v, err := d.ReadGPIO(ctx)
		if err != nil {
			return err
		}
		if v[pin].Value != 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
