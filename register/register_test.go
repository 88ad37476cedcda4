package register

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapIsValid(t *testing.T) {
	seen := map[byte]string{}
	for _, r := range Map {
		t.Run(r.Name, func(t *testing.T) {
			assert.NoError(t, r.Validate())
			prev, dup := seen[r.Addr]
			assert.False(t, dup, "address %#x shared with %s", r.Addr, prev)
			seen[r.Addr] = r.Name
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		reg  Register
	}{
		{"width", Register{Name: "w", Width: 3}},
		{"zero field", Register{Name: "z", Width: 1, Fields: []Field{{Name: "a", Width: 0}}}},
		{"overflow", Register{Name: "o", Width: 1, Fields: []Field{{Name: "a", Offset: 6, Width: 3}}}},
		{"overlap", Register{Name: "ov", Width: 1, Fields: []Field{
			{Name: "a", Offset: 0, Width: 4},
			{Name: "b", Offset: 3, Width: 2},
		}}},
		{"duplicate", Register{Name: "d", Width: 1, Fields: []Field{flag("a", 0), flag("a", 1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.reg.Validate())
		})
	}
}

func TestFieldRoundTrip(t *testing.T) {
	for _, r := range Map {
		for _, f := range r.Fields {
			for v := uint32(0); v <= f.Max(); v++ {
				raw, err := r.Encode(Values{f.Name: v})
				require.NoError(t, err, "%s.%s=%d", r.Name, f.Name, v)
				got := r.Decode(raw)
				assert.Equal(t, v, got[f.Name], "%s.%s", r.Name, f.Name)
				for _, other := range r.Fields {
					if other.Name != f.Name {
						assert.Zero(t, got[other.Name], "%s.%s leaked into %s", r.Name, f.Name, other.Name)
					}
				}
			}
		}
	}
}

func TestEncode(t *testing.T) {
	raw, err := ChipControl.Encode(Values{FieldCPURunRequest: 0, FieldHostUploadEnable: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02}, raw)

	raw, err = ParameterPageSelect.Encode(Values{FieldParameterPage: 3, FieldParameterSize: 8})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x83}, raw)

	raw, err = ParameterRequest.Encode(Values{FieldParameter: 65, FieldDirection: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xC1}, raw)
}

func TestEncodeErrors(t *testing.T) {
	_, err := ParameterPageSelect.Encode(Values{FieldParameterPage: 16})
	var overflow *FieldOverflowError
	require.True(t, errors.As(err, &overflow))
	assert.Equal(t, FieldParameterPage, overflow.Field)
	assert.EqualValues(t, 4, overflow.Width)

	_, err = ChipControl.Encode(Values{"nope": 1})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		raw  []byte
		want Values
	}{
		{[]byte{0x00}, Values{FieldReset: 0, FieldAlgorithmStandby: 0, FieldHostIfID: 0, FieldAlgorithmID: 0}},
		{[]byte{0x01}, Values{FieldReset: 1, FieldAlgorithmStandby: 0, FieldHostIfID: 0, FieldAlgorithmID: 0}},
		{[]byte{0xFF}, Values{FieldReset: 1, FieldAlgorithmStandby: 1, FieldHostIfID: 7, FieldAlgorithmID: 7}},
		{[]byte{0x2E}, Values{FieldReset: 0, FieldAlgorithmStandby: 1, FieldHostIfID: 3, FieldAlgorithmID: 1}},
	}
	for _, tt := range tests {
		t.Run(hex.EncodeToString(tt.raw), func(t *testing.T) {
			assert.Equal(t, tt.want, HostStatus.Decode(tt.raw))
		})
	}
}

func TestUintOrder(t *testing.T) {
	raw, err := UploadAddress.EncodeUint(0x1234)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34}, raw)
	assert.EqualValues(t, 0x1234, UploadAddress.DecodeUint(raw))

	raw, err = BytesRemaining.EncodeUint(0x1234)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x34, 0x12}, raw)

	raw, err = UploadCRC.EncodeUint(0xDEADBEEF)
	require.NoError(t, err)
	assert.Equal(t, binary.LittleEndian.AppendUint32(nil, 0xDEADBEEF), raw)

	_, err = BytesRemaining.EncodeUint(0x10000)
	assert.Error(t, err)

	assert.EqualValues(t, 0x05, BytesRemaining.DecodeUint([]byte{0x05}))
}

func TestAccess(t *testing.T) {
	assert.True(t, ReadWrite.Readable())
	assert.True(t, ReadWrite.Writable())
	assert.False(t, ReadOnly.Writable())
	assert.False(t, WriteOnly.Readable())
	assert.Equal(t, "RW", ReadWrite.String())
}
