package spi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	commands [][]byte
	writes   [][]byte
	reply    []byte
}

func (r *recorder) ReadCommandData(command []byte, data []byte) error {
	r.commands = append(r.commands, append([]byte(nil), command...))
	copy(data, r.reply)
	return nil
}

func (r *recorder) WriteBytes(data []byte) error {
	r.writes = append(r.writes, append([]byte(nil), data...))
	return nil
}

func TestGobotBus(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{reply: []byte{0x83}}
	b := &GobotBus{conn: rec}

	buf := make([]byte, 1)
	n, err := b.ReadReg(ctx, 0x90, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte{0x83}, buf)
	assert.Equal(t, [][]byte{{0x90 | readFlag}}, rec.commands)

	require.NoError(t, b.WriteReg(ctx, 0x34, []byte{0x01}))
	assert.Equal(t, [][]byte{{0x34, 0x01}}, rec.writes)

	_, err = (&GobotBus{}).ReadReg(ctx, 0x90, buf)
	assert.Error(t, err, "not started")
}
