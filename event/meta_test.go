package event

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mklimuk/sensorhub/sensor"
)

func TestMeta(t *testing.T) {
	flush := Meta{Type: FlushComplete, Arg: [2]byte{0x01, 0x00}}
	id, ok := flush.Sensor()
	assert.True(t, ok)
	assert.Equal(t, sensor.Accelerometer, id)
	_, ok = flush.Value()
	assert.False(t, ok)
	assert.Equal(t, "flush_complete accelerometer 0", flush.String())

	overflow := Meta{Type: FIFOOverflow, Arg: [2]byte{0x02, 0x01}}
	v, ok := overflow.Value()
	assert.True(t, ok)
	assert.EqualValues(t, 0x0102, v)
	assert.Equal(t, "fifo_overflow 258", overflow.String())

	assert.Equal(t, "reserved", MetaType(7).String())
	assert.Equal(t, "meta(42)", MetaType(42).String())
	assert.Equal(t, "error 0x01 0x02", Meta{Type: MetaError, Arg: [2]byte{1, 2}}.String())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "medium", Medium.String())
	assert.Equal(t, "status(9)", Status(9).String())
}
