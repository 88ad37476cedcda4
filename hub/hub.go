// Package hub is the driver for BHI160 class sensor hubs. It composes the
// register, firmware, parameter and event packages into the operations a
// host needs: identify the chip, upload and start the RAM firmware, configure
// sensors and poll decoded events from the FIFO.
//
// A Hub owns its bus for its lifetime and is not safe for concurrent use.
package hub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mklimuk/sensorhub"
	"github.com/mklimuk/sensorhub/event"
	"github.com/mklimuk/sensorhub/firmware"
	"github.com/mklimuk/sensorhub/param"
	"github.com/mklimuk/sensorhub/register"
	"github.com/mklimuk/sensorhub/sensor"
)

// I2C addresses selectable with the SA0 pin.
const (
	AddressLow  = 0x28
	AddressHigh = 0x29
)

var ErrChecksumMismatch = errors.New("firmware checksum mismatch")

// ChecksumError is returned by Boot when the device reports a CRC different
// from the one carried by the image. The CPU is left stopped.
type ChecksumError struct {
	Expected uint32
	Reported uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("firmware checksum mismatch: image %#08x, device %#08x", e.Expected, e.Reported)
}

func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksumMismatch
}

type Hub struct {
	bus    sensorhub.Bus
	regs   *register.File
	loader *firmware.Loader
	params *param.Transfer

	decoder  *event.Decoder
	registry *sensor.Registry

	logger       *slog.Logger
	chunkSize    int
	pollInterval time.Duration
	pollAttempts int
	maxTransfer  int
	progress     func(firmware.Progress)
}

func New(bus sensorhub.Bus, opts ...Opt) *Hub {
	h := &Hub{
		bus:          bus,
		regs:         register.NewFile(bus),
		logger:       slog.Default(),
		chunkSize:    firmware.DefaultChunkSize,
		pollInterval: param.DefaultPollInterval,
		pollAttempts: param.DefaultMaxAttempts,
		maxTransfer:  register.FIFO.Size,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.maxTransfer <= 0 || h.maxTransfer > register.FIFO.Size {
		h.maxTransfer = register.FIFO.Size
	}
	h.loader = firmware.NewLoader(bus,
		firmware.WithChunkSize(h.chunkSize),
		firmware.WithLogger(h.logger),
		firmware.WithProgress(h.progress),
	)
	h.params = param.NewTransfer(bus,
		param.WithPollInterval(h.pollInterval),
		param.WithMaxAttempts(h.pollAttempts),
		param.WithLogger(h.logger),
	)
	h.decoder = event.NewDecoder(h.registry)
	return h
}

type Identity struct {
	ProductID  uint8  `yaml:"product_id"`
	RevisionID uint8  `yaml:"revision_id"`
	RomVersion uint16 `yaml:"rom_version"`
	RamVersion uint16 `yaml:"ram_version"`
}

// Model names the chip from its product and revision ids.
func (i Identity) Model() string {
	if i.ProductID != register.ProductIDBHI160 {
		return fmt.Sprintf("unknown(%#02x)", i.ProductID)
	}
	switch i.RevisionID {
	case register.RevisionBHI160:
		return "BHI160"
	case register.RevisionBHI160B:
		return "BHI160B"
	}
	return fmt.Sprintf("BHI160(rev %d)", i.RevisionID)
}

// Identify reads the identification registers.
func (h *Hub) Identify(ctx context.Context) (Identity, error) {
	var id Identity
	for _, r := range []struct {
		reg register.Register
		set func(uint32)
	}{
		{register.ProductID, func(v uint32) { id.ProductID = uint8(v) }},
		{register.RevisionID, func(v uint32) { id.RevisionID = uint8(v) }},
		{register.RomVersion, func(v uint32) { id.RomVersion = uint16(v) }},
		{register.RamVersion, func(v uint32) { id.RamVersion = uint16(v) }},
	} {
		v, err := h.regs.ReadUint(ctx, r.reg)
		if err != nil {
			return id, fmt.Errorf("could not read %s: %w", r.reg.Name, err)
		}
		r.set(v)
	}
	return id, nil
}

type HostStatus struct {
	Reset            bool  `yaml:"reset"`
	AlgorithmStandby bool  `yaml:"algorithm_standby"`
	HostInterfaceID  uint8 `yaml:"host_interface_id"`
	AlgorithmID      uint8 `yaml:"algorithm_id"`
}

func (h *Hub) HostStatus(ctx context.Context) (HostStatus, error) {
	v, err := h.regs.ReadFields(ctx, register.HostStatus)
	if err != nil {
		return HostStatus{}, fmt.Errorf("could not read host status: %w", err)
	}
	return HostStatus{
		Reset:            v.Bool(register.FieldReset),
		AlgorithmStandby: v.Bool(register.FieldAlgorithmStandby),
		HostInterfaceID:  uint8(v[register.FieldHostIfID]),
		AlgorithmID:      uint8(v[register.FieldAlgorithmID]),
	}, nil
}

type ChipStatus struct {
	EEPROMDetected bool `yaml:"eeprom_detected"`
	EEUploadDone   bool `yaml:"ee_upload_done"`
	EEUploadError  bool `yaml:"ee_upload_error"`
	FirmwareIdle   bool `yaml:"firmware_idle"`
	NoEEPROM       bool `yaml:"no_eeprom"`
}

func (h *Hub) ChipStatus(ctx context.Context) (ChipStatus, error) {
	v, err := h.regs.ReadFields(ctx, register.ChipStatus)
	if err != nil {
		return ChipStatus{}, fmt.Errorf("could not read chip status: %w", err)
	}
	return ChipStatus{
		EEPROMDetected: v.Bool(register.FieldEEPROMDetected),
		EEUploadDone:   v.Bool(register.FieldEEUploadDone),
		EEUploadError:  v.Bool(register.FieldEEUploadError),
		FirmwareIdle:   v.Bool(register.FieldFirmwareIdle),
		NoEEPROM:       v.Bool(register.FieldNoEEPROM),
	}, nil
}

type InterruptStatus struct {
	HostInterrupt      bool `yaml:"host_interrupt"`
	WakeupWatermark    bool `yaml:"wakeup_watermark"`
	WakeupLatency      bool `yaml:"wakeup_latency"`
	WakeupImmediate    bool `yaml:"wakeup_immediate"`
	NonWakeupWatermark bool `yaml:"non_wakeup_watermark"`
	NonWakeupLatency   bool `yaml:"non_wakeup_latency"`
	NonWakeupImmediate bool `yaml:"non_wakeup_immediate"`
}

func (h *Hub) InterruptStatus(ctx context.Context) (InterruptStatus, error) {
	v, err := h.regs.ReadFields(ctx, register.IntStatus)
	if err != nil {
		return InterruptStatus{}, fmt.Errorf("could not read interrupt status: %w", err)
	}
	return InterruptStatus{
		HostInterrupt:      v.Bool(register.FieldHostInterrupt),
		WakeupWatermark:    v.Bool(register.FieldWakeupWatermark),
		WakeupLatency:      v.Bool(register.FieldWakeupLatency),
		WakeupImmediate:    v.Bool(register.FieldWakeupImmediate),
		NonWakeupWatermark: v.Bool(register.FieldNonWakeupWatermark),
		NonWakeupLatency:   v.Bool(register.FieldNonWakeupLatency),
		NonWakeupImmediate: v.Bool(register.FieldNonWakeupImmediate),
	}, nil
}

// UploadFirmware uploads img and returns the CRC reported by the device.
func (h *Hub) UploadFirmware(ctx context.Context, img *firmware.Image) (uint32, error) {
	return h.loader.Upload(ctx, img)
}

// UploadFirmwareFrom streams an image from r.
func (h *Hub) UploadFirmwareFrom(ctx context.Context, r io.Reader) (firmware.Header, uint32, error) {
	return h.loader.UploadFrom(ctx, r)
}

// Boot checks that img targets this chip's ROM, uploads it, compares the
// reported CRC with the image and starts the CPU on a match.
func (h *Hub) Boot(ctx context.Context, img *firmware.Image) error {
	rom, err := h.regs.ReadUint(ctx, register.RomVersion)
	if err != nil {
		return fmt.Errorf("could not read rom version: %w", err)
	}
	err = img.CheckRom(uint16(rom))
	if err != nil {
		return err
	}
	crc, err := h.loader.Upload(ctx, img)
	if err != nil {
		return fmt.Errorf("could not upload firmware: %w", err)
	}
	if crc != img.CRC {
		return &ChecksumError{Expected: img.CRC, Reported: crc}
	}
	h.logger.Info("firmware verified, starting", "crc", fmt.Sprintf("%#08x", crc))
	h.decoder.Reset()
	return h.Start(ctx)
}

// Control writes the run request and upload enable bits of chip control.
func (h *Hub) Control(ctx context.Context, run, upload bool) error {
	return h.loader.Start(ctx, run, upload)
}

// Start requests the CPU to run the uploaded firmware.
func (h *Hub) Start(ctx context.Context) error {
	return h.loader.Start(ctx, true, false)
}

// Stop halts the CPU.
func (h *Hub) Stop(ctx context.Context) error {
	return h.loader.Start(ctx, false, false)
}

// Reset requests a chip reset. The RAM firmware is lost and the decoder
// state is dropped.
func (h *Hub) Reset(ctx context.Context) error {
	err := h.regs.WriteUint(ctx, register.ResetRequest, 1)
	if err != nil {
		return fmt.Errorf("could not request reset: %w", err)
	}
	h.decoder.Reset()
	return nil
}

func (h *Hub) ReadParameter(ctx context.Context, p param.Spec) ([]byte, error) {
	return h.params.Read(ctx, p)
}

func (h *Hub) WriteParameter(ctx context.Context, p param.Spec, payload []byte) error {
	return h.params.Write(ctx, p, payload)
}

type binaryUnmarshaler interface {
	UnmarshalBinary([]byte) error
}

type binaryMarshaler interface {
	MarshalBinary() ([]byte, error)
}

func (h *Hub) readInto(ctx context.Context, p param.Spec, v binaryUnmarshaler) error {
	raw, err := h.params.Read(ctx, p)
	if err != nil {
		return err
	}
	return v.UnmarshalBinary(raw)
}

func (h *Hub) writeFrom(ctx context.Context, p param.Spec, v binaryMarshaler) error {
	raw, err := v.MarshalBinary()
	if err != nil {
		return err
	}
	return h.params.Write(ctx, p, raw)
}

// ConfigureSensor writes the configuration of a virtual sensor. A zero sample
// rate disables it.
func (h *Hub) ConfigureSensor(ctx context.Context, id sensor.ID, cfg param.SensorConfig) error {
	if !id.IsVirtual() {
		return fmt.Errorf("sensor %s cannot be configured", id)
	}
	err := h.writeFrom(ctx, param.SensorConfigSpec(id), cfg)
	if err != nil {
		return fmt.Errorf("could not configure %s: %w", id, err)
	}
	h.logger.Debug("sensor configured", "sensor", id.String(), "rate", cfg.SampleRate, "latency", cfg.MaxReportLatency)
	return nil
}

func (h *Hub) SensorConfig(ctx context.Context, id sensor.ID) (param.SensorConfig, error) {
	var cfg param.SensorConfig
	if !id.IsVirtual() {
		return cfg, fmt.Errorf("sensor %s has no configuration", id)
	}
	err := h.readInto(ctx, param.SensorConfigSpec(id), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("could not read %s configuration: %w", id, err)
	}
	return cfg, nil
}

func (h *Hub) SensorInfo(ctx context.Context, id sensor.ID) (param.SensorInfo, error) {
	var info param.SensorInfo
	if !id.IsVirtual() {
		return info, fmt.Errorf("sensor %s has no information block", id)
	}
	err := h.readInto(ctx, param.SensorInfoSpec(id), &info)
	if err != nil {
		return info, fmt.Errorf("could not read %s information: %w", id, err)
	}
	return info, nil
}

func metaSpec(wakeup bool) param.Spec {
	if wakeup {
		return param.WakeupMetaEvents
	}
	return param.MetaEvents
}

// MetaEvents reads the meta event control of the non-wakeup or wakeup FIFO.
func (h *Hub) MetaEvents(ctx context.Context, wakeup bool) (param.MetaEventControl, error) {
	var m param.MetaEventControl
	err := h.readInto(ctx, metaSpec(wakeup), &m)
	if err != nil {
		return m, fmt.Errorf("could not read meta event control: %w", err)
	}
	return m, nil
}

func (h *Hub) SetMetaEvents(ctx context.Context, wakeup bool, m param.MetaEventControl) error {
	err := h.writeFrom(ctx, metaSpec(wakeup), m)
	if err != nil {
		return fmt.Errorf("could not write meta event control: %w", err)
	}
	return nil
}

func (h *Hub) FIFOControl(ctx context.Context) (param.FIFOControl, error) {
	var f param.FIFOControl
	err := h.readInto(ctx, param.FIFOControlParam, &f)
	if err != nil {
		return f, fmt.Errorf("could not read fifo control: %w", err)
	}
	return f, nil
}

func (h *Hub) SetFIFOControl(ctx context.Context, f param.FIFOControl) error {
	err := h.writeFrom(ctx, param.FIFOControlParam, f)
	if err != nil {
		return fmt.Errorf("could not write fifo control: %w", err)
	}
	return nil
}

func (h *Hub) PhysicalStatus(ctx context.Context) (param.PhysicalSensorStatus, error) {
	var s param.PhysicalSensorStatus
	err := h.readInto(ctx, param.PhysicalStatus, &s)
	if err != nil {
		return s, fmt.Errorf("could not read physical sensor status: %w", err)
	}
	return s, nil
}
