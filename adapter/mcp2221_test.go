package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRequest(t *testing.T) {
	req := make([]byte, reportSize)
	require.NoError(t, writeRequest(req, 0x28, []byte{0x34, 0x02}))
	assert.Equal(t, []byte{0x90, 0x02, 0x00, 0x50, 0x34, 0x02, 0x00}, req[:7])

	assert.Error(t, writeRequest(req, 0x28, make([]byte, MaxTransfer+1)))
}

func TestReadRequest(t *testing.T) {
	req := make([]byte, reportSize)
	require.NoError(t, readRequest(req, 0x29, 50))
	assert.Equal(t, []byte{0x91, 0x32, 0x00, 0x53}, req[:4])

	assert.Error(t, readRequest(req, 0x29, 61))
}

func TestReadResponse(t *testing.T) {
	res := make([]byte, reportSize)
	res[0] = cmdGetData
	res[3] = 2
	res[4], res[5] = 0x83, 0x03

	buf := make([]byte, 2)
	require.NoError(t, readResponse(res, buf))
	assert.Equal(t, []byte{0x83, 0x03}, buf)

	assert.Error(t, readResponse(res, make([]byte, 3)), "size mismatch")
	res[3] = readSizeInvalid
	assert.Error(t, readResponse(res, make([]byte, 2)))
	res[1] = readDataError
	assert.Error(t, readResponse(res, buf))
}

func TestBufferToStatus(t *testing.T) {
	res := make([]byte, reportSize)
	res[9], res[10] = 0x10, 0x00
	res[11], res[12] = 0x0C, 0x00
	res[13] = 4
	res[14] = 0x76
	res[15] = 0x10
	res[16], res[17] = 0x50, 0x00
	res[25] = 1

	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   4,
		I2CSpeedDivider:        0x76,
		I2CTimeout:             0x10,
		CurrentAddress:         "5000",
		LastWriteRequestedSize: 16,
		LastWriteSentSize:      12,
		ReadPending:            1,
	}, bufferToStatus(res))
}

func TestDecodeGPIO(t *testing.T) {
	res := make([]byte, reportSize)
	copy(res[2:], []byte{0x01, 0x01, 0x00, 0x00, 0x00, 0xEF, 0x01, 0x01})
	v := decodeGPIOValues(res)
	assert.Equal(t, GPIOPin{Mode: GPIOModeIn, Value: 1}, v[0])
	assert.Equal(t, GPIOPin{Mode: GPIOModeOut}, v[1])
	assert.Equal(t, GPIOModeNoOperation, v[2].Mode)
	assert.Equal(t, "INPUT", v[3].Mode.String())

	copy(res[4:], []byte{0x08, 0x0C, 0x00, 0x02})
	s := decodeGPIOSettings(res)
	assert.Equal(t, GPIOSetting{Mode: GPIOModeIn}, s[0])
	assert.Equal(t, GPIOSetting{Mode: GPIOModeIn, Designation: GPIO1InterruptDetection}, s[1])
	assert.Equal(t, GPIOSetting{Mode: GPIOModeOut, Designation: 0x02}, s[3])
}
