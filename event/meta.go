package event

import (
	"encoding/binary"
	"fmt"

	"github.com/mklimuk/sensorhub/sensor"
)

// MetaType is the first payload byte of a meta event frame.
type MetaType uint8

const (
	FlushComplete       MetaType = 1
	SampleRateChanged   MetaType = 2
	PowerModeChanged    MetaType = 3
	MetaError           MetaType = 4
	SensorError         MetaType = 11
	FIFOOverflow        MetaType = 12
	DynamicRangeChanged MetaType = 13
	FIFOWatermark       MetaType = 14
	SelfTestResult      MetaType = 15
	Initialized         MetaType = 16
)

// MetaEventCount is the number of meta event slots in the meta event control
// parameters.
const MetaEventCount = 32

func (t MetaType) String() string {
	switch t {
	case FlushComplete:
		return "flush_complete"
	case SampleRateChanged:
		return "sample_rate_changed"
	case PowerModeChanged:
		return "power_mode_changed"
	case MetaError:
		return "error"
	case SensorError:
		return "sensor_error"
	case FIFOOverflow:
		return "fifo_overflow"
	case DynamicRangeChanged:
		return "dynamic_range_changed"
	case FIFOWatermark:
		return "fifo_watermark"
	case SelfTestResult:
		return "self_test_result"
	case Initialized:
		return "initialized"
	}
	if t >= 5 && t <= 10 {
		return "reserved"
	}
	return fmt.Sprintf("meta(%d)", uint8(t))
}

// Meta is a hub meta event. The two argument bytes are kept raw; the
// accessors interpret them according to Type.
type Meta struct {
	Type MetaType
	Arg  [2]byte
}

func (Meta) Shape() sensor.Shape { return sensor.Meta }

// Sensor returns the sensor the event refers to for the types that carry one.
func (m Meta) Sensor() (sensor.ID, bool) {
	switch m.Type {
	case FlushComplete, SampleRateChanged, PowerModeChanged, SensorError, DynamicRangeChanged, SelfTestResult:
		return sensor.ID(m.Arg[0]), true
	}
	return 0, false
}

// Value returns the 16 bit argument of FIFO overflow (loss count), FIFO
// watermark (bytes remaining) and initialized (RAM version) events.
func (m Meta) Value() (uint16, bool) {
	switch m.Type {
	case FIFOOverflow, FIFOWatermark, Initialized:
		return binary.LittleEndian.Uint16(m.Arg[:]), true
	}
	return 0, false
}

func (m Meta) String() string {
	if id, ok := m.Sensor(); ok {
		return fmt.Sprintf("%s %s %d", m.Type, id, m.Arg[1])
	}
	if v, ok := m.Value(); ok {
		return fmt.Sprintf("%s %d", m.Type, v)
	}
	return fmt.Sprintf("%s %#02x %#02x", m.Type, m.Arg[0], m.Arg[1])
}
