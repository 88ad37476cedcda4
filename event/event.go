// Package event defines decoded hub FIFO events and the resumable decoder
// that produces them from raw FIFO reads.
package event

import (
	"encoding/hex"
	"fmt"

	"github.com/mklimuk/sensorhub/sensor"
)

// Event is one decoded FIFO frame. Delta is the number of device clock ticks
// since the previous event of any kind.
type Event struct {
	Sensor sensor.ID
	Delta  uint32
	Data   Data
}

func (e Event) String() string {
	return fmt.Sprintf("%s +%d %v", e.Sensor, e.Delta, e.Data)
}

// IsTimestamp reports timestamp frames, which advance the clock but carry no
// sensor data.
func (e Event) IsTimestamp() bool {
	return e.Sensor.IsTimestamp()
}

// Data is the typed payload of an event. The concrete type depends on the
// sensor layout: VectorStatus, VectorBiasStatus, QuaternionAccuracy, Scalar,
// VectorTimestamp, Meta, DebugData or Presence.
type Data interface {
	Shape() sensor.Shape
}

// Status is the accuracy reported with vector samples.
type Status uint8

const (
	Unreliable Status = iota
	Low
	Medium
	High
)

func (s Status) String() string {
	switch s {
	case Unreliable:
		return "unreliable"
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

type VectorStatus struct {
	Vector [3]int16
	Status Status
}

func (VectorStatus) Shape() sensor.Shape { return sensor.VectorWithStatus }

func (v VectorStatus) String() string {
	return fmt.Sprintf("[%d %d %d] %s", v.Vector[0], v.Vector[1], v.Vector[2], v.Status)
}

type VectorBiasStatus struct {
	Vector [3]int16
	Bias   [3]int16
	Status Status
}

func (VectorBiasStatus) Shape() sensor.Shape { return sensor.VectorBiasStatus }

type QuaternionAccuracy struct {
	X, Y, Z, W int16
	Accuracy   int16
}

func (QuaternionAccuracy) Shape() sensor.Shape { return sensor.Quaternion }

func (q QuaternionAccuracy) String() string {
	return fmt.Sprintf("(%d %d %d %d) ±%d", q.X, q.Y, q.Z, q.W, q.Accuracy)
}

// Scalar holds any single value payload widened to int32; unsigned layouts
// are zero extended.
type Scalar struct {
	Value int32
}

func (Scalar) Shape() sensor.Shape { return sensor.Scalar }

func (s Scalar) String() string {
	return fmt.Sprintf("%d", s.Value)
}

type VectorTimestamp struct {
	Vector    [3]int32
	Timestamp uint32
}

func (VectorTimestamp) Shape() sensor.Shape { return sensor.VectorTimestamp }

type DebugData [13]byte

func (DebugData) Shape() sensor.Shape { return sensor.DebugData }

func (d DebugData) String() string {
	return hex.EncodeToString(d[:])
}

// Presence is the payload of zero length frames.
type Presence struct{}

func (Presence) Shape() sensor.Shape { return sensor.PresenceOnly }

func (Presence) String() string { return "present" }
