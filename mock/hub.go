// Package mock provides an in-memory sensor hub that speaks the hub register
// protocol without any hardware. It implements sensorhub.Bus so it can be
// handed to the driver wherever a real transport is expected.
//
// Example usage:
//
//	dev := mock.NewHub()
//	dev.PushFIFO(0x01, 0xFE, 0xFF, 0x05, 0x00, 0x69, 0x08, 0x02)
//	h := hub.New(dev)
//	events, err := h.Poll(ctx, make([]byte, 64))
package mock

import (
	"context"
	"encoding/binary"
	"hash/crc32"
	"sync"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/register"
)

var _ sensorhub.Bus = &Hub{}

// ReadBehaviorFunc may fail a read of reg or shorten it by returning n smaller
// than the requested size.
type ReadBehaviorFunc func(reg byte, size int) (n int, err error)

// WriteBehaviorFunc may fail a write of data to reg.
type WriteBehaviorFunc func(reg byte, data []byte) error

// Transaction records a single bus call.
type Transaction struct {
	Reg   byte
	Write bool
	Data  []byte
}

// Hub simulates a BHI160 class sensor hub.
type Hub struct {
	mx sync.Mutex

	regs map[byte]byte

	upload     []byte
	uploadAddr uint16
	crc        func(body []byte) uint32

	page       byte
	size       byte
	staged     []byte
	readBuffer [16]byte
	params     map[uint16][]byte
	ackDelay   int
	ackPending int
	ackValue   byte
	neverAck   bool
	supported  func(page, param byte) bool

	fifo []byte

	readBehavior  ReadBehaviorFunc
	writeBehavior WriteBehaviorFunc

	log []Transaction
}

type Opt func(*Hub)

// WithAckDelay makes the hub report "not ready" for n acknowledge polls of
// every parameter request.
func WithAckDelay(n int) Opt {
	return func(h *Hub) {
		h.ackDelay = n
	}
}

// WithNeverAck makes every parameter request stay pending forever.
func WithNeverAck() Opt {
	return func(h *Hub) {
		h.neverAck = true
	}
}

// WithCRC replaces the checksum the hub reports after an upload.
func WithCRC(crc func(body []byte) uint32) Opt {
	return func(h *Hub) {
		h.crc = crc
	}
}

// WithSupportedParameters restricts which parameters the hub acknowledges;
// others are answered with the error acknowledge.
func WithSupportedParameters(fn func(page, param byte) bool) Opt {
	return func(h *Hub) {
		h.supported = fn
	}
}

func WithReadBehavior(fn ReadBehaviorFunc) Opt {
	return func(h *Hub) {
		h.readBehavior = fn
	}
}

func WithWriteBehavior(fn WriteBehaviorFunc) Opt {
	return func(h *Hub) {
		h.writeBehavior = fn
	}
}

func NewHub(opts ...Opt) *Hub {
	h := &Hub{
		crc:    crc32.ChecksumIEEE,
		params: make(map[uint16][]byte),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.powerOn()
	return h
}

func (h *Hub) powerOn() {
	h.regs = map[byte]byte{}
	h.regs[register.ProductID.Addr] = register.ProductIDBHI160
	h.regs[register.RevisionID.Addr] = register.RevisionBHI160B
	var rom [2]byte
	binary.LittleEndian.PutUint16(rom[:], register.RomVersionBHI160B)
	h.store(register.RomVersion.Addr, rom[:])
	h.regs[register.HostStatus.Addr] = 0x01
	h.regs[register.ChipStatus.Addr] = 0x10
	h.upload = nil
	h.uploadAddr = 0
	h.fifo = nil
	h.ackValue = 0
	h.ackPending = 0
}

// SetRegister overrides a plain register value.
func (h *Hub) SetRegister(addr byte, data ...byte) {
	h.mx.Lock()
	defer h.mx.Unlock()
	h.store(addr, data)
}

func (h *Hub) store(addr byte, data []byte) {
	for i, b := range data {
		h.regs[addr+byte(i)] = b
	}
}

// ReadReg implements sensorhub.Bus.
func (h *Hub) ReadReg(ctx context.Context, reg byte, buffer []byte) (int, error) {
	h.mx.Lock()
	defer h.mx.Unlock()
	h.log = append(h.log, Transaction{Reg: reg})
	n := len(buffer)
	if h.readBehavior != nil {
		var err error
		n, err = h.readBehavior(reg, len(buffer))
		if err != nil {
			return 0, err
		}
		if n > len(buffer) {
			n = len(buffer)
		}
	}
	out := buffer[:n]
	switch {
	case reg == register.FIFO.Addr:
		k := copy(out, h.fifo)
		h.fifo = h.fifo[k:]
		for i := k; i < len(out); i++ {
			out[i] = 0
		}
	case reg == register.BytesRemaining.Addr:
		remaining := len(h.fifo)
		if remaining > 0xFFFF {
			remaining = 0xFFFF
		}
		var raw [2]byte
		binary.LittleEndian.PutUint16(raw[:], uint16(remaining))
		copy(out, raw[:])
	case reg == register.ParameterAcknowledge.Addr:
		if len(out) > 0 {
			out[0] = h.acknowledge()
		}
	case reg == register.ParameterReadBuffer.Addr:
		copy(out, h.readBuffer[:])
	case reg == register.UploadCRC.Addr:
		var raw [4]byte
		binary.LittleEndian.PutUint32(raw[:], h.crc(h.upload))
		copy(out, raw[:])
	case reg == register.UploadAddress.Addr:
		var raw [2]byte
		binary.BigEndian.PutUint16(raw[:], h.uploadAddr)
		copy(out, raw[:])
	default:
		for i := range out {
			out[i] = h.regs[reg+byte(i)]
		}
	}
	return n, nil
}

func (h *Hub) acknowledge() byte {
	if h.ackPending > 0 {
		h.ackPending--
		return 0
	}
	return h.ackValue
}

// WriteReg implements sensorhub.Bus.
func (h *Hub) WriteReg(ctx context.Context, reg byte, data []byte) error {
	h.mx.Lock()
	defer h.mx.Unlock()
	h.log = append(h.log, Transaction{Reg: reg, Write: true, Data: append([]byte(nil), data...)})
	if h.writeBehavior != nil {
		if err := h.writeBehavior(reg, data); err != nil {
			return err
		}
	}
	switch reg {
	case register.UploadData.Addr:
		h.upload = append(h.upload, data...)
		h.uploadAddr += uint16(len(data))
	case register.UploadAddress.Addr:
		if len(data) == 2 {
			h.uploadAddr = binary.BigEndian.Uint16(data)
			if h.uploadAddr == 0 {
				h.upload = h.upload[:0]
			}
		}
	case register.ParameterWriteBuffer.Addr:
		h.staged = append(h.staged[:0], data...)
	case register.ParameterPageSelect.Addr:
		if len(data) > 0 {
			h.page = data[0] & 0x0F
			h.size = data[0] >> 4
		}
	case register.ParameterRequest.Addr:
		if len(data) > 0 {
			h.request(data[0])
		}
	case register.FIFOFlush.Addr:
		if len(data) > 0 && data[0] == register.FIFOFlushAll {
			h.fifo = nil
		}
	case register.ResetRequest.Addr:
		if len(data) > 0 && data[0] == 1 {
			h.powerOn()
		}
	default:
		h.store(reg, data)
	}
	return nil
}

func (h *Hub) request(req byte) {
	if req == 0 {
		h.ackValue = 0
		return
	}
	param := req & 0x7F
	write := req&0x80 != 0
	if h.neverAck {
		h.ackValue = 0
		return
	}
	h.ackPending = h.ackDelay
	if h.supported != nil && !h.supported(h.page, param) {
		h.ackValue = register.ParameterAckError
		return
	}
	key := uint16(h.page)<<8 | uint16(param)
	if write {
		size := int(h.size)
		if size == 0 || size > len(h.staged) {
			size = len(h.staged)
		}
		h.params[key] = append([]byte(nil), h.staged[:size]...)
		h.ackValue = req
		return
	}
	h.readBuffer = [16]byte{}
	copy(h.readBuffer[:], h.params[key])
	h.ackValue = param
}

// PushFIFO appends raw event bytes to the hub FIFO.
func (h *Hub) PushFIFO(data ...byte) {
	h.mx.Lock()
	defer h.mx.Unlock()
	h.fifo = append(h.fifo, data...)
}

// SetParameter stores a parameter value as if the firmware produced it.
func (h *Hub) SetParameter(page, param byte, value []byte) {
	h.mx.Lock()
	defer h.mx.Unlock()
	h.params[uint16(page)<<8|uint16(param)] = append([]byte(nil), value...)
}

// Parameter returns the stored value of a parameter.
func (h *Hub) Parameter(page, param byte) []byte {
	h.mx.Lock()
	defer h.mx.Unlock()
	return append([]byte(nil), h.params[uint16(page)<<8|uint16(param)]...)
}

// Uploaded returns every byte received through the upload data register
// since the upload address was last reset.
func (h *Hub) Uploaded() []byte {
	h.mx.Lock()
	defer h.mx.Unlock()
	return append([]byte(nil), h.upload...)
}

// Register returns the stored value of a plain register.
func (h *Hub) Register(addr byte) byte {
	h.mx.Lock()
	defer h.mx.Unlock()
	return h.regs[addr]
}

// Transactions returns the bus calls received so far.
func (h *Hub) Transactions() []Transaction {
	h.mx.Lock()
	defer h.mx.Unlock()
	return append([]Transaction(nil), h.log...)
}

// Writes returns the data written to reg, one entry per transaction.
func (h *Hub) Writes(reg byte) [][]byte {
	h.mx.Lock()
	defer h.mx.Unlock()
	var res [][]byte
	for _, tx := range h.log {
		if tx.Write && tx.Reg == reg {
			res = append(res, tx.Data)
		}
	}
	return res
}

// Reads returns how many read transactions targeted reg.
func (h *Hub) Reads(reg byte) int {
	h.mx.Lock()
	defer h.mx.Unlock()
	n := 0
	for _, tx := range h.log {
		if !tx.Write && tx.Reg == reg {
			n++
		}
	}
	return n
}
