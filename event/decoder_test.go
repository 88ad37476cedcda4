package event

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensorhub/sensor"
)

var accelFrame = []byte{0x01, 0xFE, 0xFF, 0x05, 0x00, 0x69, 0x08, 0x02}

var accelEvent = Event{
	Sensor: sensor.Accelerometer,
	Data:   VectorStatus{Vector: [3]int16{-2, 5, 2153}, Status: Medium},
}

func stream() []byte {
	var s []byte
	s = append(s, accelFrame...)
	s = append(s, 0xFC, 0x10, 0x00)
	s = append(s, 0x0B, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0xFF, 0x7F, 0x05, 0x00)
	s = append(s, 0xFE, 0x10, 0x34, 0x12)
	s = append(s, 0x06, 0xFF, 0xFF, 0xFF)
	s = append(s, 0xFB,
		0x01, 0x00, 0x00, 0x00,
		0xFF, 0xFF, 0xFF, 0xFF,
		0x00, 0x00, 0x01, 0x00,
		0x78, 0x56, 0x34, 0x12)
	s = append(s, 0x12, 0x01)
	s = append(s, 0x10, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00, 0x05, 0x00, 0x06, 0x00, 0x03)
	s = append(s, 0xFD, 0x01, 0x00)
	s = append(s, 0x07, 0xFE, 0xFF)
	s = append(s, accelFrame...)
	return s
}

func feedAll(t *testing.T, d *Decoder, parts ...[]byte) []Event {
	t.Helper()
	var events []Event
	for _, p := range parts {
		ev, err := d.Feed(p)
		require.NoError(t, err)
		events = append(events, ev...)
	}
	return events
}

func TestDecoderSingleFrame(t *testing.T) {
	d := NewDecoder(nil)
	events, err := d.Feed(accelFrame)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, accelEvent, events[0])
}

func TestDecoderStream(t *testing.T) {
	d := NewDecoder(nil)
	events := feedAll(t, d, stream())
	require.Len(t, events, 11)

	assert.Equal(t, accelEvent, events[0])
	assert.Equal(t, Event{Sensor: sensor.TimestampLSW, Delta: 0x10, Data: Scalar{Value: 0x10}}, events[1])
	assert.Equal(t, Event{Sensor: sensor.RotationVector, Data: QuaternionAccuracy{X: 1, Y: 2, Z: 3, W: 32767, Accuracy: 5}}, events[2])

	meta, ok := events[3].Data.(Meta)
	require.True(t, ok)
	assert.Equal(t, Initialized, meta.Type)
	v, ok := meta.Value()
	require.True(t, ok)
	assert.EqualValues(t, 0x1234, v)

	assert.Equal(t, Scalar{Value: 0xFFFFFF}, events[4].Data)
	assert.Equal(t, VectorTimestamp{Vector: [3]int32{1, -1, 0x10000}, Timestamp: 0x12345678}, events[5].Data)
	assert.Equal(t, Event{Sensor: sensor.StepDetector, Data: Scalar{Value: 1}}, events[6])
	assert.Equal(t, VectorBiasStatus{Vector: [3]int16{1, 2, 3}, Bias: [3]int16{4, 5, 6}, Status: High}, events[7].Data)
	assert.Equal(t, Event{Sensor: sensor.TimestampMSW, Delta: 0xFFF0, Data: Scalar{Value: 1}}, events[8])
	assert.Equal(t, Event{Sensor: sensor.Temperature, Data: Scalar{Value: -2}}, events[9])
	assert.Equal(t, accelEvent, events[10])

	assert.EqualValues(t, 0x10000, d.Clock())
	assert.Equal(t, 0, d.Pending())
}

func TestDecoderSplitAtEveryBoundary(t *testing.T) {
	s := stream()
	want := feedAll(t, NewDecoder(nil), s)

	for k := 0; k <= len(s); k++ {
		got := feedAll(t, NewDecoder(nil), s[:k], s[k:])
		require.Equal(t, want, got, "split at %d", k)
	}

	var bytes [][]byte
	for i := range s {
		bytes = append(bytes, s[i:i+1])
	}
	assert.Equal(t, want, feedAll(t, NewDecoder(nil), bytes...))
}

func TestDecoderCarry(t *testing.T) {
	d := NewDecoder(nil)
	events, err := d.Feed(accelFrame[:3])
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, 3, d.Pending())

	events, err = d.Feed(accelFrame[3:5])
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, 5, d.Pending())

	events, err = d.Feed(append(accelFrame[5:], accelFrame[:1]...))
	require.NoError(t, err)
	assert.Equal(t, []Event{accelEvent}, events)
	assert.Equal(t, 1, d.Pending())
	assert.EqualValues(t, 2, d.Stats().Carried)
}

func TestDecoderResync(t *testing.T) {
	d := NewDecoder(nil)
	events, err := d.Feed(append([]byte{0xFF}, accelFrame...))
	require.Len(t, events, 1)
	assert.Equal(t, accelEvent, events[0])

	require.ErrorIs(t, err, ErrMalformedPacket)
	var malformed *MalformedError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, []MalformedPacket{{Offset: 0, ID: 0xFF}}, malformed.Packets)
	assert.EqualValues(t, 1, d.Stats().Malformed)
}

func TestDecoderResyncOffsetAcrossFeeds(t *testing.T) {
	d := NewDecoder(nil)
	_, err := d.Feed(accelFrame)
	require.NoError(t, err)

	events, err := d.Feed([]byte{0x1A, 0x1E, 0x01, 0xFE, 0xFF, 0x05, 0x00, 0x69, 0x08, 0x02})
	assert.Equal(t, []Event{accelEvent}, events)
	var malformed *MalformedError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, []MalformedPacket{{Offset: 8, ID: 0x1A}, {Offset: 9, ID: 0x1E}}, malformed.Packets)
}

func TestDecoderPadding(t *testing.T) {
	for k := 1; k <= 64; k++ {
		d := NewDecoder(nil)
		events, err := d.Feed(make([]byte, k))
		assert.NoError(t, err)
		assert.Empty(t, events)
		assert.EqualValues(t, k, d.Stats().PaddingBytes)
	}
}

func TestDecoderPaddingEndsBuffer(t *testing.T) {
	tests := []struct {
		input []byte
		want  int
	}{
		{append(append([]byte{}, accelFrame...), 0x00, 0x00), 1},
		{append(append(append([]byte{}, accelFrame...), 0x00), accelFrame...), 1},
		{append([]byte{0x00}, accelFrame...), 0},
	}
	for _, tt := range tests {
		t.Run(hex.EncodeToString(tt.input), func(t *testing.T) {
			events, err := NewDecoder(nil).Feed(tt.input)
			require.NoError(t, err)
			assert.Len(t, events, tt.want)
		})
	}
}

func TestDecoderReset(t *testing.T) {
	d := NewDecoder(nil)
	_, err := d.Feed(append([]byte{0xFC, 0x05, 0x00}, accelFrame[:4]...))
	require.NoError(t, err)
	require.Equal(t, 4, d.Pending())

	d.Reset()
	assert.Equal(t, 0, d.Pending())
	assert.Zero(t, d.Clock())

	events, err := d.Feed(accelFrame)
	require.NoError(t, err)
	assert.Equal(t, []Event{accelEvent}, events)
}

func TestDecoderDelta(t *testing.T) {
	d := NewDecoder(nil)
	events := feedAll(t, d,
		[]byte{0xFC, 0xF0, 0xFF},
		[]byte{0xFD, 0x01, 0x00, 0xFC, 0x05, 0x00},
		accelFrame,
	)
	require.Len(t, events, 4)
	assert.EqualValues(t, 0xFFF0, events[0].Delta)
	assert.EqualValues(t, 0x10, events[1].Delta)
	assert.EqualValues(t, 5, events[2].Delta)
	assert.EqualValues(t, 0, events[3].Delta)
	assert.EqualValues(t, 0x10005, d.Clock())
}

func TestDecoderDeltaWraps(t *testing.T) {
	d := NewDecoder(nil)
	events := feedAll(t, d,
		[]byte{0xFD, 0xFF, 0xFF, 0xFC, 0xFE, 0xFF},
		[]byte{0xFD, 0x00, 0x00, 0xFC, 0x01, 0x00},
	)
	require.Len(t, events, 4)
	assert.EqualValues(t, 0xFFFF0000, events[0].Delta)
	assert.EqualValues(t, 0xFFFE, events[1].Delta)
	assert.EqualValues(t, 2, events[2].Delta)
	assert.EqualValues(t, 1, events[3].Delta)
}

func TestDecoderCustomRegistry(t *testing.T) {
	r := sensor.NewRegistry(map[sensor.ID]sensor.Layout{
		100: {Shape: sensor.PresenceOnly},
		101: {Shape: sensor.Scalar, Size: 4, Signed: true},
	})
	d := NewDecoder(r)
	events, err := d.Feed([]byte{100, 101, 0xFE, 0xFF, 0xFF, 0xFF, 100})
	require.NoError(t, err)
	assert.Equal(t, []Event{
		{Sensor: 100, Data: Presence{}},
		{Sensor: 101, Data: Scalar{Value: -2}},
		{Sensor: 100, Data: Presence{}},
	}, events)

	_, err = d.Feed(accelFrame)
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

func TestDecoderAppendReusesSlice(t *testing.T) {
	d := NewDecoder(nil)
	buf := make([]Event, 0, 4)
	events, err := d.Append(buf, append(append([]byte{}, accelFrame...), accelFrame...))
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Same(t, &buf[:1][0], &events[0])
}

func TestScalar(t *testing.T) {
	tests := []struct {
		input  []byte
		signed bool
		want   int32
	}{
		{[]byte{0xFF}, false, 255},
		{[]byte{0xFF}, true, -1},
		{[]byte{0x00, 0x80}, true, -32768},
		{[]byte{0x00, 0x80}, false, 32768},
		{[]byte{0x01, 0x02, 0x03}, false, 0x030201},
		{[]byte{0xFF, 0xFF, 0xFF}, true, -1},
		{[]byte{0xFF, 0xFF, 0xFF, 0xFF}, true, -1},
	}
	for _, tt := range tests {
		t.Run(hex.EncodeToString(tt.input), func(t *testing.T) {
			assert.Equal(t, tt.want, scalar(tt.input, tt.signed))
		})
	}
}
