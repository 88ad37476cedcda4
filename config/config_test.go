package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensorhub/param"
	"github.com/mklimuk/sensorhub/sensor"
)

const sample = `
bus:
  adapter: generic
  device: /dev/i2c-1
  address: 0x29
firmware: Bosch_PCB_7183_di03_BMI160-7183_di03.2.1.11696.fw
poll:
  interval: 2ms
  attempts: 50
fifo:
  non_wakeup_watermark: 512
sensors:
  accelerometer:
    sample_rate: 100
    max_report_latency: 0
  game_rotation_vector_wakeup:
    sample_rate: 50
  "11":
    sample_rate: 25
`

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(write(t, sample))
	require.NoError(t, err)
	assert.Equal(t, AdapterGeneric, cfg.Bus.Adapter)
	assert.Equal(t, "/dev/i2c-1", cfg.Bus.Device)
	assert.EqualValues(t, 0x29, cfg.Bus.Address)
	assert.Equal(t, 16, cfg.ChunkSize, "defaults survive")
	assert.Equal(t, 2*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, 50, cfg.Poll.Attempts)
	require.NotNil(t, cfg.FIFO)
	assert.EqualValues(t, 512, cfg.FIFO.NonWakeupWatermark)

	sensors, err := cfg.SensorConfigs()
	require.NoError(t, err)
	assert.Equal(t, map[sensor.ID]param.SensorConfig{
		sensor.Accelerometer:               {SampleRate: 100},
		sensor.GameRotationVector.Wakeup(): {SampleRate: 50},
		sensor.RotationVector:              {SampleRate: 25},
	}, sensors)
	assert.Len(t, cfg.HubOptions(), 3)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(write(t, "bus:\n  adapter: serial\nchunk_size: 10\nsensors:\n  raw_accelerometer:\n    sample_rate: 1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown adapter")
	assert.Contains(t, err.Error(), "chunk size 10")
	assert.Contains(t, err.Error(), "cannot be configured")

	_, err = Load(write(t, "chunk_size: 60\n"))
	require.Error(t, err, "chunk larger than the upload window")
	assert.Contains(t, err.Error(), "chunk size 60 exceeds")

	_, err = Load(write(t, "sensors: [1, 2"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
