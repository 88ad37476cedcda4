package sensorhub

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is matched by every *MalformedResponseError.
var ErrMalformedResponse = errors.New("malformed response")

// BusError is a transport failure on a single register transaction.
// Retryable is a hint for the caller; the driver itself never retries.
type BusError struct {
	Op        string
	Reg       byte
	Retryable bool
	Err       error
}

func NewBusError(op string, reg byte, err error) *BusError {
	return &BusError{
		Op:        op,
		Reg:       reg,
		Retryable: errors.Is(err, ErrBusBusy),
		Err:       err,
	}
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bus %s at register %#02x failed: %v", e.Op, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// MalformedResponseError reports a transaction that delivered fewer bytes
// than the register or parameter declares.
type MalformedResponseError struct {
	Reg  byte
	Want int
	Got  int
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from register %#02x: expected %d bytes, got %d", e.Reg, e.Want, e.Got)
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}
