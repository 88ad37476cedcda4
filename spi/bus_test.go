package spi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"
)

func TestBus(t *testing.T) {
	ctx := context.Background()
	pb := &spitest.Playback{Playback: conntest.Playback{Ops: []conntest.IO{
		{W: []byte{0x90 | 0x80, 0x00}, R: []byte{0x00, 0x83}},
		{W: []byte{0x38 | 0x80, 0x00, 0x00}, R: []byte{0x00, 0x20, 0x01}},
		{W: []byte{0x34, 0x01}},
	}}}
	conn, err := pb.Connect(DefaultFrequency, spi.Mode0, 8)
	require.NoError(t, err)
	b := New(conn)

	buf := make([]byte, 1)
	n, err := b.ReadReg(ctx, 0x90, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte{0x83}, buf)

	buf = make([]byte, 2)
	n, err = b.ReadReg(ctx, 0x38, buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{0x20, 0x01}, buf)

	require.NoError(t, b.WriteReg(ctx, 0x34, []byte{0x01}))
	require.NoError(t, pb.Close())
}
