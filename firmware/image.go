// Package firmware parses hub RAM firmware images and uploads them through
// the hub's upload registers.
//
// An image starts with a 16 byte little endian header:
//
//	0..1   signature (0x652A)
//	2..3   ROM version the image was built for
//	4..7   CRC32 the hub reports after a correct upload
//	12..13 body length
//
// The body is transferred in 32 bit words with the byte order reversed inside
// every word.
package firmware

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	HeaderSize = 16
	Signature  = 0x652A
	WordSize   = 4

	// DefaultChunkSize matches the hub's upload data window.
	DefaultChunkSize = 16
	// MaxChunkSize is the size of the upload data window.
	MaxChunkSize = 16
)

var ErrInvalidFirmware = errors.New("invalid firmware")

// InvalidError describes why an image was rejected. It matches
// ErrInvalidFirmware.
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid firmware: %s", e.Reason)
}

func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalidFirmware
}

func invalid(format string, args ...any) error {
	return &InvalidError{Reason: fmt.Sprintf(format, args...)}
}

type Header struct {
	Signature  uint16
	RomVersion uint16
	CRC        uint32
	Length     uint16
}

// ParseHeader decodes and checks the signature of an image header.
func ParseHeader(raw []byte) (Header, error) {
	if len(raw) < HeaderSize {
		return Header{}, invalid("image is %d bytes, shorter than the %d byte header", len(raw), HeaderSize)
	}
	h := Header{
		Signature:  binary.LittleEndian.Uint16(raw[0:2]),
		RomVersion: binary.LittleEndian.Uint16(raw[2:4]),
		CRC:        binary.LittleEndian.Uint32(raw[4:8]),
		Length:     binary.LittleEndian.Uint16(raw[12:14]),
	}
	if h.Signature != Signature {
		return h, invalid("signature is %#04x, expected %#04x", h.Signature, Signature)
	}
	return h, nil
}

// CheckRom rejects an image built for a different ROM version.
func (h Header) CheckRom(rom uint16) error {
	if h.RomVersion != rom {
		return invalid("image targets ROM %#04x, device has %#04x", h.RomVersion, rom)
	}
	return nil
}

// Image is a parsed, validated firmware image kept in memory.
type Image struct {
	Header
	body []byte
}

// Parse validates raw and returns the image. The slice is retained.
func Parse(raw []byte) (*Image, error) {
	h, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}
	body := raw[HeaderSize:]
	if len(body) != int(h.Length) {
		return nil, invalid("header declares %d body bytes, image carries %d", h.Length, len(body))
	}
	return &Image{Header: h, body: body}, nil
}

// Body returns the body as stored in the file, before word swapping.
func (img *Image) Body() []byte {
	return img.body
}

// Chunks returns the upload chunks of the body: word swapped, zero padded to
// a whole word and split into pieces of at most size bytes.
func (img *Image) Chunks(size int) ([][]byte, error) {
	c, err := NewChunker(bytes.NewReader(img.body), size)
	if err != nil {
		return nil, err
	}
	chunks := make([][]byte, 0, ChunkCount(len(img.body), size))
	for {
		chunk, err := c.Next()
		if errors.Is(err, io.EOF) {
			return chunks, nil
		}
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, append([]byte(nil), chunk...))
	}
}

// ChunkCount is the number of chunks a body of length bytes is split into.
func ChunkCount(length, size int) int {
	return (length + size - 1) / size
}

// CheckChunkSize reports whether size can be used for uploads. Chunks must
// hold whole words and fit the upload data window.
func CheckChunkSize(size int) error {
	if size <= 0 || size%WordSize != 0 {
		return fmt.Errorf("chunk size %d is not a positive multiple of %d", size, WordSize)
	}
	if size > MaxChunkSize {
		return fmt.Errorf("chunk size %d exceeds the %d byte upload window", size, MaxChunkSize)
	}
	return nil
}

// Chunker streams upload chunks from a body reader without buffering the
// whole image.
type Chunker struct {
	r    io.Reader
	buf  []byte
	read int
	done bool
}

func NewChunker(r io.Reader, size int) (*Chunker, error) {
	if err := CheckChunkSize(size); err != nil {
		return nil, err
	}
	return &Chunker{r: r, buf: make([]byte, size)}, nil
}

// Next returns the next chunk, or io.EOF after the last one. The returned
// slice is reused by the following call.
func (c *Chunker) Next() ([]byte, error) {
	if c.done {
		return nil, io.EOF
	}
	n, err := io.ReadFull(c.r, c.buf)
	switch {
	case errors.Is(err, io.EOF):
		c.done = true
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		c.done = true
	case err != nil:
		return nil, fmt.Errorf("could not read firmware body: %w", err)
	}
	c.read += n
	padded := (n + WordSize - 1) / WordSize * WordSize
	for i := n; i < padded; i++ {
		c.buf[i] = 0
	}
	chunk := c.buf[:padded]
	swapWords(chunk)
	return chunk, nil
}

// Read is the number of body bytes consumed so far, padding excluded.
func (c *Chunker) Read() int {
	return c.read
}

func swapWords(b []byte) {
	for i := 0; i+WordSize <= len(b); i += WordSize {
		b[i], b[i+1], b[i+2], b[i+3] = b[i+3], b[i+2], b[i+1], b[i]
	}
}
