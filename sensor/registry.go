package sensor

import (
	"fmt"
	"sort"
)

// Shape tags the payload layout of a FIFO frame.
type Shape uint8

const (
	// PresenceOnly frames carry no payload; the id alone is the event.
	PresenceOnly Shape = iota
	// VectorWithStatus is three int16 components and a status byte.
	VectorWithStatus
	// VectorBiasStatus is three int16 components, three int16 bias values and
	// a status byte.
	VectorBiasStatus
	// Quaternion is four int16 components and an int16 accuracy.
	Quaternion
	// Scalar is a single little endian integer of Layout.Size bytes.
	Scalar
	// VectorTimestamp is three int32 components and a uint32 timestamp.
	VectorTimestamp
	// Meta is an event type byte followed by two argument bytes.
	Meta
	// DebugData is 13 opaque bytes.
	DebugData
)

func (s Shape) String() string {
	switch s {
	case PresenceOnly:
		return "presence"
	case VectorWithStatus:
		return "vector_status"
	case VectorBiasStatus:
		return "vector_bias_status"
	case Quaternion:
		return "quaternion"
	case Scalar:
		return "scalar"
	case VectorTimestamp:
		return "vector_timestamp"
	case Meta:
		return "meta"
	case DebugData:
		return "debug"
	}
	return fmt.Sprintf("shape(%d)", uint8(s))
}

// FixedSize returns the payload size of shapes whose layout is fixed.
// Scalar payloads are sized by their Layout.
func (s Shape) FixedSize() (int, bool) {
	switch s {
	case PresenceOnly:
		return 0, true
	case VectorWithStatus:
		return 7, true
	case VectorBiasStatus, DebugData:
		return 13, true
	case Quaternion:
		return 10, true
	case VectorTimestamp:
		return 16, true
	case Meta:
		return 3, true
	}
	return 0, false
}

// Layout is the payload description of a sensor id. Size excludes the id
// byte.
type Layout struct {
	Shape  Shape
	Size   int
	Signed bool
}

// FrameSize is the full frame length including the id byte.
func (l Layout) FrameSize() int {
	return l.Size + 1
}

var (
	vectorStatus     = Layout{Shape: VectorWithStatus, Size: 7, Signed: true}
	vectorBiasStatus = Layout{Shape: VectorBiasStatus, Size: 13, Signed: true}
	quaternion       = Layout{Shape: Quaternion, Size: 10, Signed: true}
	vectorTimestamp  = Layout{Shape: VectorTimestamp, Size: 16, Signed: true}
	meta             = Layout{Shape: Meta, Size: 3}
	debug            = Layout{Shape: DebugData, Size: 13}
)

func scalar(size int, signed bool) Layout {
	return Layout{Shape: Scalar, Size: size, Signed: signed}
}

// Registry maps sensor ids to payload layouts. The zero value is an empty
// registry; use Default for the hub's built-in table.
type Registry struct {
	layouts map[ID]Layout
	max     int
}

// NewRegistry builds a registry from the given table.
func NewRegistry(table map[ID]Layout) *Registry {
	r := &Registry{layouts: make(map[ID]Layout, len(table))}
	for id, l := range table {
		r.Register(id, l)
	}
	return r
}

// Default returns a fresh copy of the built-in sensor table. Virtual sensors
// are registered in both their non-wakeup and wakeup variants.
func Default() *Registry {
	r := &Registry{layouts: make(map[ID]Layout, 64)}
	virtual := map[ID]Layout{
		Accelerometer:             vectorStatus,
		GeomagneticField:          vectorStatus,
		Orientation:               vectorStatus,
		Gyroscope:                 vectorStatus,
		Gravity:                   vectorStatus,
		LinearAcceleration:        vectorStatus,
		RotationVector:            quaternion,
		GameRotationVector:        quaternion,
		GeomagneticRotationVector: quaternion,
		MagneticFieldUncalibrated: vectorBiasStatus,
		GyroscopeUncalibrated:     vectorBiasStatus,
		Light:                     scalar(2, true),
		Proximity:                 scalar(2, true),
		Humidity:                  scalar(2, true),
		Temperature:               scalar(2, true),
		AmbientTemperature:        scalar(2, true),
		Pressure:                  scalar(3, false),
		StepCounter:               scalar(2, false),
		ActivityRecognition:       scalar(2, false),
		HeartRate:                 scalar(1, false),
		SignificantMotion:         scalar(1, false),
		StepDetector:              scalar(1, false),
		TiltDetector:              scalar(1, false),
		WakeGesture:               scalar(1, false),
		GlanceGesture:             scalar(1, false),
		PickUpGesture:             scalar(1, false),
	}
	for id, l := range virtual {
		r.Register(id, l)
		r.Register(id.Wakeup(), l)
	}
	r.Register(Debug, debug)
	r.Register(RawAccelerometer, vectorTimestamp)
	r.Register(RawMagnetometer, vectorTimestamp)
	r.Register(RawGyroscope, vectorTimestamp)
	r.Register(TimestampLSW, scalar(2, false))
	r.Register(TimestampLSWWakeup, scalar(2, false))
	r.Register(TimestampMSW, scalar(2, false))
	r.Register(TimestampMSWWakeup, scalar(2, false))
	r.Register(MetaEvent, meta)
	r.Register(MetaEventWakeup, meta)
	return r
}

// Register adds or replaces the layout of id. Padding cannot be registered.
// Shapes with a fixed layout always get their fixed size.
func (r *Registry) Register(id ID, l Layout) {
	if id == Padding {
		return
	}
	if size, ok := l.Shape.FixedSize(); ok {
		l.Size = size
	}
	if r.layouts == nil {
		r.layouts = make(map[ID]Layout)
	}
	r.layouts[id] = l
	if l.FrameSize() > r.max {
		r.max = l.FrameSize()
	}
}

// Lookup returns the layout of id. Unknown ids report false.
func (r *Registry) Lookup(id ID) (Layout, bool) {
	l, ok := r.layouts[id]
	return l, ok
}

// MaxFrame is the longest frame, id byte included, of any registered sensor.
func (r *Registry) MaxFrame() int {
	if r.max == 0 {
		return 1
	}
	return r.max
}

// IDs lists the registered ids in ascending order.
func (r *Registry) IDs() []ID {
	ids := make([]ID, 0, len(r.layouts))
	for id := range r.layouts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
