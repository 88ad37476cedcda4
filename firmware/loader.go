package firmware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/register"
)

// ChunkError reports the chunk whose write failed. The device keeps a partial
// image; the upload has to be restarted from the beginning.
type ChunkError struct {
	Index int
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("firmware chunk %d: %v", e.Index, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// Progress is passed to the progress callback after every chunk.
type Progress struct {
	Chunk  int
	Chunks int
	Bytes  int
	Total  int
}

type LoaderOpt func(*Loader)

// WithChunkSize sets the number of bytes written per upload transaction. It
// must be a multiple of 4 no larger than MaxChunkSize.
func WithChunkSize(size int) LoaderOpt {
	return func(l *Loader) {
		l.chunkSize = size
	}
}

func WithLogger(logger *slog.Logger) LoaderOpt {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithRomVersion makes uploads reject images built for another ROM before
// anything is written.
func WithRomVersion(rom uint16) LoaderOpt {
	return func(l *Loader) {
		l.rom = rom
		l.checkRom = true
	}
}

func WithProgress(fn func(Progress)) LoaderOpt {
	return func(l *Loader) {
		l.progress = fn
	}
}

// Loader uploads RAM images. Chunks are written strictly in body order and
// nothing is retried.
type Loader struct {
	regs      *register.File
	chunkSize int
	logger    *slog.Logger
	progress  func(Progress)
	rom       uint16
	checkRom  bool
}

func NewLoader(bus sensorhub.Bus, opts ...LoaderOpt) *Loader {
	l := &Loader{
		regs:      register.NewFile(bus),
		chunkSize: DefaultChunkSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start writes the chip control register: run requests the CPU to execute
// the uploaded image, upload keeps the upload path enabled.
func (l *Loader) Start(ctx context.Context, run, upload bool) error {
	err := l.regs.WriteFields(ctx, register.ChipControl, register.Values{
		register.FieldCPURunRequest:    boolBit(run),
		register.FieldHostUploadEnable: boolBit(upload),
	})
	if err != nil {
		return fmt.Errorf("could not write chip control: %w", err)
	}
	return nil
}

// Upload transfers img and returns the CRC the device computed over what it
// received. Comparing it with img.CRC is up to the caller.
func (l *Loader) Upload(ctx context.Context, img *Image) (uint32, error) {
	err := l.check(img.Header)
	if err != nil {
		return 0, err
	}
	c, err := NewChunker(bytes.NewReader(img.body), l.chunkSize)
	if err != nil {
		return 0, err
	}
	return l.upload(ctx, c, int(img.Length))
}

// UploadFrom streams an image from r without holding it in memory. The header
// is validated before anything is written; a body shorter or longer than the
// header declares is reported after the transfer as InvalidError.
func (l *Loader) UploadFrom(ctx context.Context, r io.Reader) (Header, uint32, error) {
	raw := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return Header{}, 0, invalid("could not read header: %v", err)
	}
	h, err := ParseHeader(raw)
	if err != nil {
		return h, 0, err
	}
	err = l.check(h)
	if err != nil {
		return h, 0, err
	}
	c, err := NewChunker(io.LimitReader(r, int64(h.Length)), l.chunkSize)
	if err != nil {
		return h, 0, err
	}
	crc, err := l.upload(ctx, c, int(h.Length))
	if err != nil {
		return h, 0, err
	}
	if c.Read() != int(h.Length) {
		return h, crc, invalid("header declares %d body bytes, stream carried %d", h.Length, c.Read())
	}
	if n, _ := r.Read(make([]byte, 1)); n > 0 {
		return h, crc, invalid("stream carries more than the %d declared body bytes", h.Length)
	}
	return h, crc, nil
}

func (l *Loader) check(h Header) error {
	if !l.checkRom {
		return nil
	}
	return h.CheckRom(l.rom)
}

func (l *Loader) upload(ctx context.Context, c *Chunker, total int) (uint32, error) {
	err := l.Start(ctx, false, true)
	if err != nil {
		return 0, err
	}
	err = l.regs.WriteUint(ctx, register.UploadAddress, 0)
	if err != nil {
		return 0, fmt.Errorf("could not reset upload address: %w", err)
	}
	chunks := ChunkCount(total, l.chunkSize)
	l.logger.Debug("uploading firmware", "bytes", total, "chunks", chunks, "chunk_size", l.chunkSize)
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return 0, &ChunkError{Index: i, Err: err}
		}
		chunk, err := c.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, &ChunkError{Index: i, Err: err}
		}
		err = l.regs.WriteWindow(ctx, register.UploadData, chunk)
		if err != nil {
			return 0, &ChunkError{Index: i, Err: err}
		}
		if l.progress != nil {
			l.progress(Progress{Chunk: i + 1, Chunks: chunks, Bytes: c.Read(), Total: total})
		}
	}
	crc, err := l.regs.ReadUint(ctx, register.UploadCRC)
	if err != nil {
		return 0, fmt.Errorf("could not read upload crc: %w", err)
	}
	l.logger.Debug("firmware uploaded", "crc", fmt.Sprintf("%#08x", crc))
	return crc, nil
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
