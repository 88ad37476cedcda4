package event

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mklimuk/sensorhub/sensor"
)

// ErrMalformedPacket is matched by *MalformedError.
var ErrMalformedPacket = errors.New("malformed packet")

// MalformedPacket locates an unknown sensor id in the stream. Offset counts
// bytes fed to the decoder since it was created or last reset.
type MalformedPacket struct {
	Offset uint64
	ID     sensor.ID
}

// MalformedError lists the frames skipped during one Feed call. It never
// invalidates the events returned alongside it.
type MalformedError struct {
	Packets []MalformedPacket
}

func (e *MalformedError) Error() string {
	first := e.Packets[0]
	return fmt.Sprintf("%d malformed packet(s), first: unknown sensor id %d at offset %d", len(e.Packets), first.ID, first.Offset)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedPacket
}

// Stats counts what the decoder saw since it was created.
type Stats struct {
	Events       uint64
	Malformed    uint64
	PaddingBytes uint64
	Carried      uint64
}

type parseState int

const (
	stateFrameHeader parseState = iota // waiting for a sensor id byte
	statePayload                       // partial frame carried from the previous feed
)

// Decoder turns raw FIFO reads into events. Reads may end anywhere inside a
// frame; the partial frame is carried into the next Feed call. A Decoder is
// not safe for concurrent use.
type Decoder struct {
	registry *sensor.Registry

	state  parseState
	layout sensor.Layout
	carry  []byte
	filled int

	offset uint64
	clock  uint32
	last   uint32

	stats Stats
}

// NewDecoder creates a decoder for the given registry; nil selects
// sensor.Default.
func NewDecoder(registry *sensor.Registry) *Decoder {
	if registry == nil {
		registry = sensor.Default()
	}
	return &Decoder{
		registry: registry,
		carry:    make([]byte, registry.MaxFrame()),
	}
}

// Feed decodes buf and returns the events completed by it. If unknown sensor
// ids were skipped the error is a *MalformedError; the returned events are
// valid either way.
func (d *Decoder) Feed(buf []byte) ([]Event, error) {
	return d.Append(nil, buf)
}

// Append is Feed appending to dst, so a caller can reuse one event slice
// across polls.
func (d *Decoder) Append(dst []Event, buf []byte) ([]Event, error) {
	var malformed []MalformedPacket
	i := 0
	if d.state == statePayload {
		n := copy(d.carry[d.filled:d.layout.FrameSize()], buf)
		d.filled += n
		i = n
		if d.filled < d.layout.FrameSize() {
			d.offset += uint64(len(buf))
			return dst, nil
		}
		dst = append(dst, d.emit(d.layout, d.carry[:d.filled]))
		d.state, d.filled = stateFrameHeader, 0
	}
	for i < len(buf) {
		id := sensor.ID(buf[i])
		if id == sensor.Padding {
			d.stats.PaddingBytes += uint64(len(buf) - i)
			break
		}
		layout, ok := d.registry.Lookup(id)
		if !ok {
			malformed = append(malformed, MalformedPacket{Offset: d.offset + uint64(i), ID: id})
			d.stats.Malformed++
			i++
			continue
		}
		size := layout.FrameSize()
		if i+size > len(buf) {
			if cap(d.carry) < size {
				d.carry = make([]byte, size)
			}
			d.carry = d.carry[:cap(d.carry)]
			d.filled = copy(d.carry, buf[i:])
			d.layout, d.state = layout, statePayload
			d.stats.Carried++
			break
		}
		dst = append(dst, d.emit(layout, buf[i:i+size]))
		i += size
	}
	d.offset += uint64(len(buf))
	if len(malformed) > 0 {
		return dst, &MalformedError{Packets: malformed}
	}
	return dst, nil
}

// Pending reports how many bytes of an incomplete frame are carried.
func (d *Decoder) Pending() int {
	if d.state == statePayload {
		return d.filled
	}
	return 0
}

// Clock is the device time assembled from the last timestamp frames. An MSW
// frame starts a new upper word with the lower word at zero; the LSW frames
// that follow fill it in.
func (d *Decoder) Clock() uint32 {
	return d.clock
}

func (d *Decoder) Stats() Stats {
	return d.stats
}

// Reset drops any carried partial frame and restarts the clock and stream
// offset. Statistics are kept.
func (d *Decoder) Reset() {
	d.state, d.filled = stateFrameHeader, 0
	d.offset, d.clock, d.last = 0, 0, 0
}

func (d *Decoder) emit(layout sensor.Layout, frame []byte) Event {
	id := sensor.ID(frame[0])
	data := decode(layout, frame[1:])
	switch id {
	case sensor.TimestampLSW, sensor.TimestampLSWWakeup:
		d.clock = d.clock&0xFFFF0000 | uint32(binary.LittleEndian.Uint16(frame[1:]))
	case sensor.TimestampMSW, sensor.TimestampMSWWakeup:
		d.clock = uint32(binary.LittleEndian.Uint16(frame[1:])) << 16
	}
	ev := Event{Sensor: id, Delta: d.clock - d.last, Data: data}
	d.last = d.clock
	d.stats.Events++
	return ev
}

func decode(layout sensor.Layout, p []byte) Data {
	le := binary.LittleEndian
	switch layout.Shape {
	case sensor.VectorWithStatus:
		return VectorStatus{
			Vector: [3]int16{int16(le.Uint16(p)), int16(le.Uint16(p[2:])), int16(le.Uint16(p[4:]))},
			Status: Status(p[6]),
		}
	case sensor.VectorBiasStatus:
		return VectorBiasStatus{
			Vector: [3]int16{int16(le.Uint16(p)), int16(le.Uint16(p[2:])), int16(le.Uint16(p[4:]))},
			Bias:   [3]int16{int16(le.Uint16(p[6:])), int16(le.Uint16(p[8:])), int16(le.Uint16(p[10:]))},
			Status: Status(p[12]),
		}
	case sensor.Quaternion:
		return QuaternionAccuracy{
			X:        int16(le.Uint16(p)),
			Y:        int16(le.Uint16(p[2:])),
			Z:        int16(le.Uint16(p[4:])),
			W:        int16(le.Uint16(p[6:])),
			Accuracy: int16(le.Uint16(p[8:])),
		}
	case sensor.Scalar:
		return Scalar{Value: scalar(p[:layout.Size], layout.Signed)}
	case sensor.VectorTimestamp:
		return VectorTimestamp{
			Vector:    [3]int32{int32(le.Uint32(p)), int32(le.Uint32(p[4:])), int32(le.Uint32(p[8:]))},
			Timestamp: le.Uint32(p[12:]),
		}
	case sensor.Meta:
		return Meta{Type: MetaType(p[0]), Arg: [2]byte{p[1], p[2]}}
	case sensor.DebugData:
		var dbg DebugData
		copy(dbg[:], p)
		return dbg
	}
	return Presence{}
}

// scalar reads a little endian integer of 1 to 4 bytes, sign extending when
// signed is set.
func scalar(p []byte, signed bool) int32 {
	var v uint32
	for i := len(p) - 1; i >= 0; i-- {
		v = v<<8 | uint32(p[i])
	}
	bits := uint(len(p)) * 8
	if signed && bits < 32 && v&(1<<(bits-1)) != 0 {
		v |= ^uint32(0) << bits
	}
	return int32(v)
}
