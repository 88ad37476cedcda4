package i2c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestBus(t *testing.T) {
	ctx := context.Background()
	pb := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x28, W: []byte{0x90}, R: []byte{0x83}},
		{Addr: 0x28, W: []byte{0x38}, R: []byte{0x12, 0x00}},
		{Addr: 0x28, W: []byte{0x34, 0x01}},
		{Addr: 0x28, W: []byte{0x5C, 0x01, 0x02, 0x03}},
	}}
	b := New(pb, 0x28)

	buf := make([]byte, 1)
	n, err := b.ReadReg(ctx, 0x90, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte{0x83}, buf)

	buf = make([]byte, 2)
	_, err = b.ReadReg(ctx, 0x38, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x00}, buf)

	require.NoError(t, b.WriteReg(ctx, 0x34, []byte{0x01}))
	require.NoError(t, b.WriteReg(ctx, 0x5C, []byte{0x01, 0x02, 0x03}))
	require.NoError(t, pb.Close())
	require.NoError(t, b.Close())
}
