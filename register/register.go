// Package register describes the hub register space: fixed width registers
// with optional bit-field layouts and variable length windows used for burst
// transfers. Encoding and decoding are pure; File performs the bus access.
package register

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

type Access byte

const (
	ReadOnly  Access = 0b01
	WriteOnly Access = 0b10
	ReadWrite        = ReadOnly | WriteOnly
)

func (a Access) Readable() bool { return a&ReadOnly != 0 }

func (a Access) Writable() bool { return a&WriteOnly != 0 }

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "RO"
	case WriteOnly:
		return "WO"
	case ReadWrite:
		return "RW"
	default:
		return "--"
	}
}

var (
	ErrNotReadable  = errors.New("register is not readable")
	ErrNotWritable  = errors.New("register is not writable")
	ErrUnknownField = errors.New("unknown field")
)

// Field is a named bit span inside a register, counted from the least
// significant bit of the decoded integer value.
type Field struct {
	Name   string
	Offset uint8
	Width  uint8
}

func (f Field) mask() uint32 {
	if f.Width >= 32 {
		return 0xFFFFFFFF
	}
	return (1 << f.Width) - 1
}

// Max returns the largest value the field can hold.
func (f Field) Max() uint32 {
	return f.mask()
}

// FieldOverflowError is returned when a value does not fit its field.
type FieldOverflowError struct {
	Register string
	Field    string
	Value    uint32
	Width    uint8
}

func (e *FieldOverflowError) Error() string {
	return fmt.Sprintf("%s.%s: value %d does not fit in %d bits", e.Register, e.Field, e.Value, e.Width)
}

// Values holds decoded field values by name.
type Values map[string]uint32

// Bool reports whether the named single-bit flag is set.
func (v Values) Bool(name string) bool {
	return v[name] != 0
}

// Register is a fixed width register. Multi-byte registers are little endian
// unless Order says otherwise.
type Register struct {
	Name   string
	Addr   byte
	Width  int
	Access Access
	Order  binary.ByteOrder
	Fields []Field
}

// Validate checks the width and that fields neither overlap nor exceed the
// register width.
func (r Register) Validate() error {
	switch r.Width {
	case 1, 2, 4:
	default:
		return fmt.Errorf("register %s: unsupported width %d", r.Name, r.Width)
	}
	bits := uint(r.Width) * 8
	fields := make([]Field, len(r.Fields))
	copy(fields, r.Fields)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Offset < fields[j].Offset })
	seen := make(map[string]bool, len(fields))
	end := uint(0)
	for i, f := range fields {
		if f.Width == 0 {
			return fmt.Errorf("register %s: field %s has zero width", r.Name, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("register %s: duplicate field %s", r.Name, f.Name)
		}
		seen[f.Name] = true
		if uint(f.Offset)+uint(f.Width) > bits {
			return fmt.Errorf("register %s: field %s exceeds %d bits", r.Name, f.Name, bits)
		}
		if i > 0 && uint(f.Offset) < end {
			return fmt.Errorf("register %s: field %s overlaps %s", r.Name, f.Name, fields[i-1].Name)
		}
		end = uint(f.Offset) + uint(f.Width)
	}
	return nil
}

func (r Register) order() binary.ByteOrder {
	if r.Order == nil {
		return binary.LittleEndian
	}
	return r.Order
}

// Field looks up a field descriptor by name.
func (r Register) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// EncodeUint converts an integer value to the register's raw bytes.
func (r Register) EncodeUint(v uint32) ([]byte, error) {
	if r.Width < 4 && v>>(uint(r.Width)*8) != 0 {
		return nil, fmt.Errorf("register %s: value %#x does not fit in %d bytes", r.Name, v, r.Width)
	}
	raw := make([]byte, r.Width)
	switch r.Width {
	case 1:
		raw[0] = byte(v)
	case 2:
		r.order().PutUint16(raw, uint16(v))
	case 4:
		r.order().PutUint32(raw, v)
	default:
		return nil, fmt.Errorf("register %s: unsupported width %d", r.Name, r.Width)
	}
	return raw, nil
}

// DecodeUint converts raw bytes to an integer. Missing bytes read as zero and
// extra bytes are ignored.
func (r Register) DecodeUint(raw []byte) uint32 {
	buf := make([]byte, 4)
	copy(buf[:r.Width], raw)
	switch r.Width {
	case 1:
		return uint32(buf[0])
	case 2:
		return uint32(r.order().Uint16(buf))
	default:
		return r.order().Uint32(buf)
	}
}

// Encode packs the given field values into raw bytes. Fields absent from v
// are zero.
func (r Register) Encode(v Values) ([]byte, error) {
	var word uint32
	for name, value := range v {
		f, ok := r.Field(name)
		if !ok {
			return nil, fmt.Errorf("register %s: %w %q", r.Name, ErrUnknownField, name)
		}
		if value > f.mask() {
			return nil, &FieldOverflowError{Register: r.Name, Field: name, Value: value, Width: f.Width}
		}
		word |= value << f.Offset
	}
	return r.EncodeUint(word)
}

// Decode unpacks raw bytes into field values. It never fails: every bit
// pattern maps to some set of values.
func (r Register) Decode(raw []byte) Values {
	word := r.DecodeUint(raw)
	v := make(Values, len(r.Fields))
	for _, f := range r.Fields {
		v[f.Name] = (word >> f.Offset) & f.mask()
	}
	return v
}

// Window is a register address used for variable length bursts (FIFO, upload
// data, parameter buffers). Size is the largest transfer the device accepts
// in one transaction.
type Window struct {
	Name   string
	Addr   byte
	Size   int
	Access Access
}
