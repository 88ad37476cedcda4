package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLayouts(t *testing.T) {
	r := Default()
	tests := []struct {
		id    ID
		shape Shape
		size  int
	}{
		{Accelerometer, VectorWithStatus, 7},
		{Accelerometer.Wakeup(), VectorWithStatus, 7},
		{Gyroscope, VectorWithStatus, 7},
		{RotationVector, Quaternion, 10},
		{GameRotationVector.Wakeup(), Quaternion, 10},
		{GyroscopeUncalibrated, VectorBiasStatus, 13},
		{Pressure, Scalar, 3},
		{StepCounter, Scalar, 2},
		{HeartRate, Scalar, 1},
		{PickUpGesture, Scalar, 1},
		{ActivityRecognition.Wakeup(), Scalar, 2},
		{RawAccelerometer, VectorTimestamp, 16},
		{Debug, DebugData, 13},
		{TimestampLSW, Scalar, 2},
		{TimestampMSWWakeup, Scalar, 2},
		{MetaEvent, Meta, 3},
		{MetaEventWakeup, Meta, 3},
	}
	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			l, ok := r.Lookup(tt.id)
			require.True(t, ok)
			assert.Equal(t, tt.shape, l.Shape)
			assert.Equal(t, tt.size, l.Size)
		})
	}
}

func TestUnknownIDs(t *testing.T) {
	r := Default()
	for _, id := range []ID{Padding, 26, 30, 0xFF, 100} {
		_, ok := r.Lookup(id)
		assert.False(t, ok, "id %d", id)
	}
}

func TestMaxFrame(t *testing.T) {
	r := Default()
	assert.Equal(t, 17, r.MaxFrame())

	empty := &Registry{}
	assert.Equal(t, 1, empty.MaxFrame())
	empty.Register(200, Layout{Shape: PresenceOnly})
	l, ok := empty.Lookup(200)
	require.True(t, ok)
	assert.Equal(t, 1, l.FrameSize())

	empty.Register(Padding, Layout{Shape: Scalar, Size: 40})
	_, ok = empty.Lookup(Padding)
	assert.False(t, ok)
	assert.Equal(t, 1, empty.MaxFrame())
}

func TestWakeup(t *testing.T) {
	assert.Equal(t, ID(33), Accelerometer.Wakeup())
	assert.Equal(t, Accelerometer, Accelerometer.Wakeup().Base())
	assert.Equal(t, ID(33), ID(33).Wakeup())
	assert.Equal(t, MetaEvent, MetaEvent.Wakeup())
	assert.True(t, ID(63).IsWakeup())
	assert.False(t, ID(32).IsWakeup())
	assert.False(t, Padding.IsVirtual())
	assert.True(t, TimestampMSWWakeup.IsTimestamp())
	assert.False(t, StepCounter.IsTimestamp())
}

func TestNames(t *testing.T) {
	assert.Equal(t, "accelerometer", Accelerometer.String())
	assert.Equal(t, "accelerometer_wakeup", Accelerometer.Wakeup().String())
	assert.Equal(t, "sensor_26", ID(26).String())

	id, err := Parse("game_rotation_vector")
	require.NoError(t, err)
	assert.Equal(t, GameRotationVector, id)

	id, err = Parse("gyroscope_wakeup")
	require.NoError(t, err)
	assert.Equal(t, Gyroscope.Wakeup(), id)

	id, err = Parse("9")
	require.NoError(t, err)
	assert.Equal(t, Gravity, id)

	_, err = Parse("warp_drive")
	assert.Error(t, err)
}

func TestIDs(t *testing.T) {
	r := NewRegistry(map[ID]Layout{5: {Shape: Scalar, Size: 2}, 1: {Shape: VectorWithStatus, Size: 7}})
	assert.Equal(t, []ID{1, 5}, r.IDs())
	assert.Equal(t, 8, r.MaxFrame())
}
