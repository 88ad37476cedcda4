package sensorhub

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockI2CBus is a mock implementation of I2CBus using testify/mock
type MockI2CBus struct {
	mock.Mock
}

func (m *MockI2CBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, append([]byte(nil), buffer...))
	return args.Error(0)
}

func (m *MockI2CBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	args := m.Called(ctx, address, buffer)
	if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockI2CBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestRegisterBus_ReadReg(t *testing.T) {
	ctx := context.Background()
	transport := &MockI2CBus{}
	transport.On("WriteToAddr", ctx, byte(0x28), []byte{0x38}).Return(nil).Once()
	transport.On("ReadFromAddr", ctx, byte(0x28), mock.Anything).Return([]byte{0x10, 0x02}, nil).Once()

	b := NewRegisterBus(transport, 0x28)
	buf := make([]byte, 2)
	n, err := b.ReadReg(ctx, 0x38, buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{0x10, 0x02}, buf)
	transport.AssertExpectations(t)
}

func TestRegisterBus_WriteReg(t *testing.T) {
	ctx := context.Background()
	transport := &MockI2CBus{}
	transport.On("WriteToAddr", ctx, byte(0x28), []byte{0x34, 0x02}).Return(nil).Once()
	transport.On("WriteToAddr", ctx, byte(0x28), []byte{0x96, 0x01, 0x02, 0x03, 0x04}).Return(nil).Once()

	b := NewRegisterBus(transport, 0x28)
	require.NoError(t, b.WriteReg(ctx, 0x34, []byte{0x02}))
	require.NoError(t, b.WriteReg(ctx, 0x96, []byte{0x01, 0x02, 0x03, 0x04}))
	transport.AssertExpectations(t)
}

func TestRegisterBus_Errors(t *testing.T) {
	ctx := context.Background()
	transport := &MockI2CBus{}
	transport.On("WriteToAddr", ctx, byte(0x28), []byte{0x90}).Return(ErrBusBusy)

	b := NewRegisterBus(transport, 0x28)
	_, err := b.ReadReg(ctx, 0x90, make([]byte, 1))
	assert.ErrorIs(t, err, ErrBusBusy)

	busErr := NewBusError("read", 0x90, err)
	assert.True(t, busErr.Retryable)
	assert.Contains(t, busErr.Error(), "0x90")

	other := NewBusError("write", 0x34, errors.New("nack"))
	assert.False(t, other.Retryable)
}

func TestRegisterBus_Release(t *testing.T) {
	ctx := context.Background()
	transport := &MockI2CBus{}
	transport.On("Release", ctx).Return(nil).Once()
	require.NoError(t, NewRegisterBus(transport, 0x28).Release(ctx))
	transport.AssertExpectations(t)
}

func TestMalformedResponseError(t *testing.T) {
	var err error = &MalformedResponseError{Reg: 0x38, Want: 2, Got: 1}
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, "malformed response from register 0x38: expected 2 bytes, got 1", err.Error())
}
