package param

import (
	"encoding/binary"
	"fmt"

	"github.com/mklimuk/sensorhub/sensor"
)

// SensorConfig is the configuration block of a virtual sensor. A zero sample
// rate disables the sensor.
type SensorConfig struct {
	SampleRate        uint16 `yaml:"sample_rate"`
	MaxReportLatency  uint16 `yaml:"max_report_latency"`
	ChangeSensitivity uint16 `yaml:"change_sensitivity"`
	DynamicRange      uint16 `yaml:"dynamic_range"`
}

func (c SensorConfig) MarshalBinary() ([]byte, error) {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint16(raw[0:], c.SampleRate)
	binary.LittleEndian.PutUint16(raw[2:], c.MaxReportLatency)
	binary.LittleEndian.PutUint16(raw[4:], c.ChangeSensitivity)
	binary.LittleEndian.PutUint16(raw[6:], c.DynamicRange)
	return raw, nil
}

func (c *SensorConfig) UnmarshalBinary(raw []byte) error {
	if len(raw) < 8 {
		return fmt.Errorf("sensor config: expected 8 bytes, got %d", len(raw))
	}
	c.SampleRate = binary.LittleEndian.Uint16(raw[0:])
	c.MaxReportLatency = binary.LittleEndian.Uint16(raw[2:])
	c.ChangeSensitivity = binary.LittleEndian.Uint16(raw[4:])
	c.DynamicRange = binary.LittleEndian.Uint16(raw[6:])
	return nil
}

// SensorInfo describes a virtual sensor as reported by the firmware. A zero
// SensorType means the sensor is not present.
type SensorInfo struct {
	SensorType    sensor.ID `yaml:"sensor_type"`
	DriverID      uint8     `yaml:"driver_id"`
	DriverVersion uint8     `yaml:"driver_version"`
	Power         uint8     `yaml:"power"`
	MaxRange      uint16    `yaml:"max_range"`
	Resolution    uint16    `yaml:"resolution"`
	MaxRate       uint16    `yaml:"max_rate"`
	FIFOReserved  uint16    `yaml:"fifo_reserved"`
	FIFOMax       uint16    `yaml:"fifo_max"`
	EventSize     uint8     `yaml:"event_size"`
	MinRate       uint8     `yaml:"min_rate"`
}

// Present reports whether the firmware implements the sensor.
func (i SensorInfo) Present() bool {
	return i.SensorType != sensor.Padding
}

func (i *SensorInfo) UnmarshalBinary(raw []byte) error {
	if len(raw) < 16 {
		return fmt.Errorf("sensor info: expected 16 bytes, got %d", len(raw))
	}
	le := binary.LittleEndian
	*i = SensorInfo{
		SensorType:    sensor.ID(raw[0]),
		DriverID:      raw[1],
		DriverVersion: raw[2],
		Power:         raw[3],
		MaxRange:      le.Uint16(raw[4:]),
		Resolution:    le.Uint16(raw[6:]),
		MaxRate:       le.Uint16(raw[8:]),
		FIFOReserved:  le.Uint16(raw[10:]),
		FIFOMax:       le.Uint16(raw[12:]),
		EventSize:     raw[14],
		MinRate:       raw[15],
	}
	return nil
}

func (i SensorInfo) MarshalBinary() ([]byte, error) {
	le := binary.LittleEndian
	raw := make([]byte, 16)
	raw[0] = byte(i.SensorType)
	raw[1] = i.DriverID
	raw[2] = i.DriverVersion
	raw[3] = i.Power
	le.PutUint16(raw[4:], i.MaxRange)
	le.PutUint16(raw[6:], i.Resolution)
	le.PutUint16(raw[8:], i.MaxRate)
	le.PutUint16(raw[10:], i.FIFOReserved)
	le.PutUint16(raw[12:], i.FIFOMax)
	raw[14] = i.EventSize
	raw[15] = i.MinRate
	return raw, nil
}
