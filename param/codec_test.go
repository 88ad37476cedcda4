package param

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensorhub/event"
	"github.com/mklimuk/sensorhub/sensor"
)

func TestSensorConfig(t *testing.T) {
	cfg := SensorConfig{SampleRate: 100, MaxReportLatency: 0x0203, ChangeSensitivity: 4, DynamicRange: 0x1000}
	raw, err := cfg.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x64, 0x00, 0x03, 0x02, 0x04, 0x00, 0x00, 0x10}, raw)

	var got SensorConfig
	require.NoError(t, got.UnmarshalBinary(raw))
	assert.Equal(t, cfg, got)
	assert.Error(t, got.UnmarshalBinary(raw[:7]))
}

func TestSensorInfo(t *testing.T) {
	raw, _ := hex.DecodeString("01020304e8031000c8000a00f401070a")
	var info SensorInfo
	require.NoError(t, info.UnmarshalBinary(raw))
	assert.Equal(t, SensorInfo{
		SensorType:    sensor.Accelerometer,
		DriverID:      2,
		DriverVersion: 3,
		Power:         4,
		MaxRange:      1000,
		Resolution:    16,
		MaxRate:       200,
		FIFOReserved:  10,
		FIFOMax:       500,
		EventSize:     7,
		MinRate:       10,
	}, info)
	assert.True(t, info.Present())

	back, err := info.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, raw, back)

	assert.False(t, SensorInfo{}.Present())
}

func TestMetaEventControl(t *testing.T) {
	var m MetaEventControl
	m.Set(event.FlushComplete, MetaEventFlags{Enable: true})
	m.Set(event.SampleRateChanged, MetaEventFlags{Interrupt: true, Enable: true})
	m.Set(event.Initialized, MetaEventFlags{Interrupt: true})
	m.Set(0, MetaEventFlags{Enable: true})
	m.Set(33, MetaEventFlags{Enable: true})

	raw, err := m.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0E, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00}, raw)

	var got MetaEventControl
	require.NoError(t, got.UnmarshalBinary(raw))
	assert.Equal(t, m, got)
	assert.Equal(t, MetaEventFlags{Interrupt: true, Enable: true}, got.Get(event.SampleRateChanged))
	assert.Equal(t, MetaEventFlags{}, got.Get(event.FIFOOverflow))
	assert.Equal(t, MetaEventFlags{}, got.Get(0))
}

func TestPhysicalSensorStatus(t *testing.T) {
	raw := []byte{
		0x64, 0x00, 0x04, 0x00, 0xE1,
		0xC8, 0x00, 0xD0, 0x07, 0x1E,
		0x19, 0x00, 0x00, 0x00, 0x40,
	}
	var s PhysicalSensorStatus
	require.NoError(t, s.UnmarshalBinary(raw))
	assert.Equal(t, PhysicalSensor{SampleRate: 100, DynamicRange: 4, Flags: SensorFlags{DataAvailable: true, PowerMode: Active}}, s.Accelerometer)
	assert.Equal(t, PhysicalSensor{SampleRate: 200, DynamicRange: 2000, Flags: SensorFlags{
		I2CNack: true, DeviceIDError: true, TransientError: true, DataLost: true,
	}}, s.Gyroscope)
	assert.Equal(t, Suspend, s.Magnetometer.Flags.PowerMode)

	back, err := s.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, raw, back)
}

func TestLookup(t *testing.T) {
	s, ok := Lookup(System, 31)
	require.True(t, ok)
	assert.Equal(t, PhysicalStatus, s)

	s, ok = Lookup(Sensors, 65)
	require.True(t, ok)
	assert.Equal(t, SensorConfigSpec(sensor.Accelerometer), s)

	s, ok = Lookup(Sensors, 4)
	require.True(t, ok)
	assert.Equal(t, 16, s.Size)

	_, ok = Lookup(Algorithm, 1)
	assert.False(t, ok)
	_, ok = Lookup(Sensors, 64)
	assert.False(t, ok)

	for _, spec := range []Spec{MetaEvents, FIFOControlParam, WakeupMetaEvents, PhysicalStatus, SensorInfoSpec(sensor.Gyroscope), SensorConfigSpec(sensor.Gyroscope.Wakeup())} {
		assert.NoError(t, spec.Validate(), spec.String())
	}
}

func TestParsePage(t *testing.T) {
	p, err := ParsePage("sensors")
	require.NoError(t, err)
	assert.Equal(t, Sensors, p)
	p, err = ParsePage("13")
	require.NoError(t, err)
	assert.Equal(t, Custom13, p)
	_, err = ParsePage("16")
	assert.Error(t, err)
}
