package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/hubctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// MaxTransfer is the largest I2C payload moved by one HID report. Hub reads
// longer than that have to be split by the caller (hub.WithMaxTransfer).
const MaxTransfer = 60

const reportSize = 64

const (
	cmdStatus       = 0x10
	cmdGetData      = 0x40
	cmdGetGPIO      = 0x51
	cmdWriteData    = 0x90
	cmdReadData     = 0x91
	cmdReadFlash    = 0xB0
	cmdWriteFlash   = 0xB1
	flashGPSettings = 0x01
	cancelTransfer  = 0x10
	engineBusy      = 0x01
	readDataError   = 0x41
	readSizeInvalid = 127
)

var ErrCommandUnsupported = errors.New("unsupported command")
var ErrCommandFailed = errors.New("command failed")
var ErrDeviceNotFound = errors.New("MCP2221 device not found")

var _ sensorhub.I2CBus = &MCP2221{}

type MCP2221Opt func(*MCP2221)

// WithDeviceIndex selects one of several attached bridges by enumeration
// order.
func WithDeviceIndex(index int) MCP2221Opt {
	return func(d *MCP2221) {
		d.index = index
	}
}

// WithResponseWait sets the delay between a request and reading its response.
func WithResponseWait(wait time.Duration) MCP2221Opt {
	return func(d *MCP2221) {
		d.responseWait = wait
	}
}

func WithLogger(logger *slog.Logger) MCP2221Opt {
	return func(d *MCP2221) {
		d.logger = logger
	}
}

// MCP2221 drives the Microchip USB to I2C bridge. Every call opens the HID
// device, exchanges one or two 64 byte reports and closes it again.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
	index        int
	logger       *slog.Logger
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

func NewMCP2221(opts ...MCP2221Opt) *MCP2221 {
	d := &MCP2221{
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: 50 * time.Millisecond,
		index:        -1,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Devices lists the attached bridges in enumeration order.
func Devices() []hid.DeviceInfo {
	return hid.Enumerate(VendorID, ProductID)
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	err := writeRequest(d.request, address, buffer)
	if err != nil {
		return err
	}
	err = d.send(ctx)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	if d.response[1] == engineBusy {
		d.logger.Debug("adapter busy", "address", address)
		return sensorhub.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	err := readRequest(d.request, address, len(buffer))
	if err != nil {
		return err
	}
	err = d.send(ctx)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	if d.response[1] == engineBusy {
		return sensorhub.ErrBusBusy
	}
	resetBuffer(d.request)
	resetBuffer(d.response)
	d.request[0] = cmdGetData
	err = d.send(ctx)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	return readResponse(d.response, buffer)
}

// writeRequest frames an I2C write with start and stop conditions.
func writeRequest(req []byte, address byte, data []byte) error {
	if len(data) > MaxTransfer {
		return fmt.Errorf("write of %d bytes exceeds the %d byte report", len(data), MaxTransfer)
	}
	req[0] = cmdWriteData
	binary.LittleEndian.PutUint16(req[1:3], uint16(len(data)))
	req[3] = address << 1
	copy(req[4:], data)
	return nil
}

func readRequest(req []byte, address byte, n int) error {
	if n > MaxTransfer {
		return fmt.Errorf("read of %d bytes exceeds the %d byte report", n, MaxTransfer)
	}
	req[0] = cmdReadData
	binary.LittleEndian.PutUint16(req[1:3], uint16(n))
	req[3] = address<<1 | 1
	return nil
}

func readResponse(res []byte, buffer []byte) error {
	if res[1] == readDataError {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	if res[3] == readSizeInvalid || int(res[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), res[3])
	}
	copy(buffer, res[4:])
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.status(ctx, false)
}

// Release cancels a stuck transfer and frees the bus.
func (d *MCP2221) Release(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	_, err := d.status(ctx, true)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.status(ctx, true)
}

func (d *MCP2221) status(ctx context.Context, cancel bool) (*MCP2221Status, error) {
	d.resetBuffers()
	d.request[0] = cmdStatus
	if cancel {
		d.request[2] = cancelTransfer
	}
	err := d.send(ctx)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9,10: requested I2C transfer length
		11,12: already transferred number of bytes
		13: internal I2C data buffer counter
		14: current I2C communication speed divider
		15: current I2C timeout
		16,17: I2C address being used
		25: read pending
	*/
	return &MCP2221Status{
		I2CDataBufferCounter:   int(buffer[13]),
		I2CSpeedDivider:        int(buffer[14]),
		I2CTimeout:             int(buffer[15]),
		ReadPending:            int(buffer[25]),
		CurrentAddress:         hex.EncodeToString(buffer[16:18]),
		LastWriteRequestedSize: binary.LittleEndian.Uint16(buffer[9:11]),
		LastWriteSentSize:      binary.LittleEndian.Uint16(buffer[11:13]),
	}
}

func (d *MCP2221) open() (*hid.Device, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return nil, ErrDeviceNotFound
	}
	index := d.index
	if index < 0 {
		if len(devs) > 1 {
			return nil, fmt.Errorf("ambiguous device identification: %d bridges attached", len(devs))
		}
		index = 0
	}
	if index >= len(devs) {
		return nil, fmt.Errorf("no device with id %d", index)
	}
	dev, err := devs[index].Open()
	if err != nil {
		return nil, fmt.Errorf("error opening device: %w", err)
	}
	return dev, nil
}

func (d *MCP2221) send(ctx context.Context) error {
	dev, err := d.open()
	if err != nil {
		return err
	}
	defer func() {
		_ = dev.Close()
	}()
	verbose := hubctx.IsVerbose(ctx)
	if verbose {
		d.logger.Debug("sending message to adapter", "report", "\n"+hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d.responseWait):
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		d.logger.Debug("read message from adapter", "report", "\n"+hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	resetBuffer(d.request)
	resetBuffer(d.response)
}

func resetBuffer(buf []byte) {
	for i := range buf {
		buf[i] = 0x00
	}
}
