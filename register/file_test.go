package register_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/mock"
	"github.com/mklimuk/sensorhub/register"
)

func TestFileRead(t *testing.T) {
	ctx := context.Background()
	dev := mock.NewHub()
	f := register.NewFile(dev)

	id, err := f.ReadUint(ctx, register.ProductID)
	require.NoError(t, err)
	assert.EqualValues(t, register.ProductIDBHI160, id)

	rom, err := f.ReadUint(ctx, register.RomVersion)
	require.NoError(t, err)
	assert.EqualValues(t, register.RomVersionBHI160B, rom)

	status, err := f.ReadFields(ctx, register.HostStatus)
	require.NoError(t, err)
	assert.True(t, status.Bool(register.FieldReset))
}

func TestFileWriteFields(t *testing.T) {
	ctx := context.Background()
	dev := mock.NewHub()
	f := register.NewFile(dev)

	err := f.WriteFields(ctx, register.HostInterfaceControl, register.Values{register.FieldUpdateTransferCount: 1})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x04}}, dev.Writes(register.HostInterfaceControl.Addr))

	err = f.WriteFields(ctx, register.ParameterPageSelect, register.Values{register.FieldParameterPage: 99})
	assert.Error(t, err)
	assert.Empty(t, dev.Writes(register.ParameterPageSelect.Addr), "invalid values must not reach the bus")
}

func TestFileAccess(t *testing.T) {
	ctx := context.Background()
	dev := mock.NewHub()
	f := register.NewFile(dev)

	_, err := f.Read(ctx, register.ResetRequest)
	assert.ErrorIs(t, err, register.ErrNotReadable)

	err = f.WriteUint(ctx, register.ProductID, 1)
	assert.ErrorIs(t, err, register.ErrNotWritable)

	_, err = f.ReadWindow(ctx, register.UploadData, make([]byte, 4))
	assert.ErrorIs(t, err, register.ErrNotReadable)

	err = f.WriteWindow(ctx, register.ParameterWriteBuffer, make([]byte, 9))
	assert.Error(t, err)
	assert.Empty(t, dev.Transactions())
}

func TestFileShortRead(t *testing.T) {
	dev := mock.NewHub(mock.WithReadBehavior(func(reg byte, size int) (int, error) {
		return size - 1, nil
	}))
	f := register.NewFile(dev)

	_, err := f.ReadUint(context.Background(), register.BytesRemaining)
	assert.ErrorIs(t, err, sensorhub.ErrMalformedResponse)
	var malformed *sensorhub.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, 2, malformed.Want)
	assert.Equal(t, 1, malformed.Got)
}

func TestFileBusError(t *testing.T) {
	dev := mock.NewHub(mock.WithWriteBehavior(func(reg byte, data []byte) error {
		return sensorhub.ErrBusBusy
	}))
	f := register.NewFile(dev)

	err := f.WriteUint(context.Background(), register.FIFOFlush, register.FIFOFlushAll)
	var busErr *sensorhub.BusError
	require.True(t, errors.As(err, &busErr))
	assert.Equal(t, "write", busErr.Op)
	assert.Equal(t, register.FIFOFlush.Addr, busErr.Reg)
	assert.True(t, busErr.Retryable)
	assert.ErrorIs(t, err, sensorhub.ErrBusBusy)
}
