package param

import (
	"encoding/binary"
	"fmt"

	"github.com/mklimuk/sensorhub/event"
	"github.com/mklimuk/sensorhub/register"
)

// MetaEventFlags controls one meta event type.
type MetaEventFlags struct {
	Interrupt bool `yaml:"interrupt"`
	Enable    bool `yaml:"enable"`
}

// MetaEventControl holds the flags of meta event types 1 to 32; index 0 is
// type 1.
type MetaEventControl [event.MetaEventCount]MetaEventFlags

func (m *MetaEventControl) Get(t event.MetaType) MetaEventFlags {
	if t == 0 || int(t) > len(m) {
		return MetaEventFlags{}
	}
	return m[t-1]
}

func (m *MetaEventControl) Set(t event.MetaType, f MetaEventFlags) {
	if t == 0 || int(t) > len(m) {
		return
	}
	m[t-1] = f
}

func (m MetaEventControl) MarshalBinary() ([]byte, error) {
	var word uint64
	for i, f := range m {
		if f.Interrupt {
			word |= 1 << (2 * i)
		}
		if f.Enable {
			word |= 1 << (2*i + 1)
		}
	}
	return binary.LittleEndian.AppendUint64(nil, word), nil
}

func (m *MetaEventControl) UnmarshalBinary(raw []byte) error {
	if len(raw) < 8 {
		return fmt.Errorf("meta event control: expected 8 bytes, got %d", len(raw))
	}
	word := binary.LittleEndian.Uint64(raw)
	for i := range m {
		m[i] = MetaEventFlags{
			Interrupt: word&(1<<(2*i)) != 0,
			Enable:    word&(1<<(2*i+1)) != 0,
		}
	}
	return nil
}

// FIFOControl holds the FIFO watermarks and, when read, the FIFO sizes. The
// hub ignores the sizes on write.
type FIFOControl struct {
	WakeupWatermark    uint16 `yaml:"wakeup_watermark"`
	WakeupSize         uint16 `yaml:"wakeup_size"`
	NonWakeupWatermark uint16 `yaml:"non_wakeup_watermark"`
	NonWakeupSize      uint16 `yaml:"non_wakeup_size"`
}

func (f FIFOControl) MarshalBinary() ([]byte, error) {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint16(raw[0:], f.WakeupWatermark)
	binary.LittleEndian.PutUint16(raw[2:], f.WakeupSize)
	binary.LittleEndian.PutUint16(raw[4:], f.NonWakeupWatermark)
	binary.LittleEndian.PutUint16(raw[6:], f.NonWakeupSize)
	return raw, nil
}

func (f *FIFOControl) UnmarshalBinary(raw []byte) error {
	if len(raw) < 8 {
		return fmt.Errorf("fifo control: expected 8 bytes, got %d", len(raw))
	}
	f.WakeupWatermark = binary.LittleEndian.Uint16(raw[0:])
	f.WakeupSize = binary.LittleEndian.Uint16(raw[2:])
	f.NonWakeupWatermark = binary.LittleEndian.Uint16(raw[4:])
	f.NonWakeupSize = binary.LittleEndian.Uint16(raw[6:])
	return nil
}

type PowerMode uint8

const (
	NotPresent PowerMode = iota
	PowerDown
	Suspend
	SelfTest
	InterruptMotion
	OneShot
	LowPowerActive
	Active
)

func (p PowerMode) String() string {
	switch p {
	case NotPresent:
		return "not_present"
	case PowerDown:
		return "power_down"
	case Suspend:
		return "suspend"
	case SelfTest:
		return "self_test"
	case InterruptMotion:
		return "interrupt_motion"
	case OneShot:
		return "one_shot"
	case LowPowerActive:
		return "low_power_active"
	case Active:
		return "active"
	}
	return fmt.Sprintf("power_mode(%d)", uint8(p))
}

const (
	fieldDataAvailable  = "data_available"
	fieldI2CNack        = "i2c_nack"
	fieldDeviceIDError  = "device_id_error"
	fieldTransientError = "transient_error"
	fieldDataLost       = "data_lost"
	fieldPowerMode      = "power_mode"
)

// sensorStatus is the status byte of a physical sensor.
var sensorStatus = register.Register{Name: "sensor_status", Width: 1, Access: register.ReadOnly, Fields: []register.Field{
	{Name: fieldDataAvailable, Offset: 0, Width: 1},
	{Name: fieldI2CNack, Offset: 1, Width: 1},
	{Name: fieldDeviceIDError, Offset: 2, Width: 1},
	{Name: fieldTransientError, Offset: 3, Width: 1},
	{Name: fieldDataLost, Offset: 4, Width: 1},
	{Name: fieldPowerMode, Offset: 5, Width: 3},
}}

type SensorFlags struct {
	DataAvailable  bool      `yaml:"data_available"`
	I2CNack        bool      `yaml:"i2c_nack"`
	DeviceIDError  bool      `yaml:"device_id_error"`
	TransientError bool      `yaml:"transient_error"`
	DataLost       bool      `yaml:"data_lost"`
	PowerMode      PowerMode `yaml:"power_mode"`
}

func decodeSensorFlags(b byte) SensorFlags {
	v := sensorStatus.Decode([]byte{b})
	return SensorFlags{
		DataAvailable:  v.Bool(fieldDataAvailable),
		I2CNack:        v.Bool(fieldI2CNack),
		DeviceIDError:  v.Bool(fieldDeviceIDError),
		TransientError: v.Bool(fieldTransientError),
		DataLost:       v.Bool(fieldDataLost),
		PowerMode:      PowerMode(v[fieldPowerMode]),
	}
}

func (f SensorFlags) encode() byte {
	raw, _ := sensorStatus.Encode(register.Values{
		fieldDataAvailable:  bit(f.DataAvailable),
		fieldI2CNack:        bit(f.I2CNack),
		fieldDeviceIDError:  bit(f.DeviceIDError),
		fieldTransientError: bit(f.TransientError),
		fieldDataLost:       bit(f.DataLost),
		fieldPowerMode:      uint32(f.PowerMode) & 0x07,
	})
	return raw[0]
}

func bit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

type PhysicalSensor struct {
	SampleRate   uint16      `yaml:"sample_rate"`
	DynamicRange uint16      `yaml:"dynamic_range"`
	Flags        SensorFlags `yaml:"flags"`
}

// PhysicalSensorStatus reports the state of the accelerometer, gyroscope and
// magnetometer attached to the hub.
type PhysicalSensorStatus struct {
	Accelerometer PhysicalSensor `yaml:"accelerometer"`
	Gyroscope     PhysicalSensor `yaml:"gyroscope"`
	Magnetometer  PhysicalSensor `yaml:"magnetometer"`
}

func (s *PhysicalSensorStatus) sensors() []*PhysicalSensor {
	return []*PhysicalSensor{&s.Accelerometer, &s.Gyroscope, &s.Magnetometer}
}

func (s *PhysicalSensorStatus) UnmarshalBinary(raw []byte) error {
	if len(raw) < 15 {
		return fmt.Errorf("physical sensor status: expected 15 bytes, got %d", len(raw))
	}
	for i, p := range s.sensors() {
		b := raw[i*5:]
		*p = PhysicalSensor{
			SampleRate:   binary.LittleEndian.Uint16(b[0:]),
			DynamicRange: binary.LittleEndian.Uint16(b[2:]),
			Flags:        decodeSensorFlags(b[4]),
		}
	}
	return nil
}

func (s PhysicalSensorStatus) MarshalBinary() ([]byte, error) {
	raw := make([]byte, 15)
	for i, p := range s.sensors() {
		b := raw[i*5:]
		binary.LittleEndian.PutUint16(b[0:], p.SampleRate)
		binary.LittleEndian.PutUint16(b[2:], p.DynamicRange)
		b[4] = p.Flags.encode()
	}
	return raw, nil
}
