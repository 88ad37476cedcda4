package register

import "encoding/binary"

// Field names used by the hub register map.
const (
	FieldCPURunRequest    = "cpu_run_request"
	FieldHostUploadEnable = "host_upload_enable"

	FieldReset            = "reset"
	FieldAlgorithmStandby = "algorithm_standby"
	FieldHostIfID         = "host_if_id"
	FieldAlgorithmID      = "algorithm_id"

	FieldHostInterrupt        = "host_interrupt"
	FieldWakeupWatermark      = "wakeup_watermark"
	FieldWakeupLatency        = "wakeup_latency"
	FieldWakeupImmediate      = "wakeup_immediate"
	FieldNonWakeupWatermark   = "non_wakeup_watermark"
	FieldNonWakeupLatency     = "non_wakeup_latency"
	FieldNonWakeupImmediate   = "non_wakeup_immediate"
	FieldEEPROMDetected       = "eeprom_detected"
	FieldEEUploadDone         = "ee_upload_done"
	FieldEEUploadError        = "ee_upload_error"
	FieldFirmwareIdle         = "firmware_idle"
	FieldNoEEPROM             = "no_eeprom"
	FieldParameterPage        = "parameter_page"
	FieldParameterSize        = "parameter_size"
	FieldParameter            = "parameter"
	FieldDirection            = "direction"
	FieldAlgorithmStandbyReq  = "algorithm_standby_request"
	FieldAbortTransfer        = "abort_transfer"
	FieldUpdateTransferCount  = "update_transfer_count"
	FieldWakeupFIFODisable    = "wakeup_fifo_host_interrupt_disable"
	FieldNEDCoordinates       = "ned_coordinates"
	FieldAPSuspended          = "ap_suspended"
	FieldRequestSelfTest      = "request_sensor_self_test"
	FieldNonWakeupFIFODisable = "non_wakeup_fifo_host_interrupt_disable"
)

// ParameterAckError is the parameter acknowledge value for an unsupported
// page or parameter.
const ParameterAckError = 0x80

// FIFOFlushAll flushes every sensor FIFO when written to FIFOFlush.
const FIFOFlushAll = 0xFF

func flag(name string, offset uint8) Field {
	return Field{Name: name, Offset: offset, Width: 1}
}

var (
	FIFO = Window{Name: "buffer_out", Addr: 0x00, Size: 0x32, Access: ReadOnly}

	FIFOFlush = Register{Name: "fifo_flush", Addr: 0x32, Width: 1, Access: WriteOnly}

	ChipControl = Register{Name: "chip_control", Addr: 0x34, Width: 1, Access: ReadWrite, Fields: []Field{
		flag(FieldCPURunRequest, 0),
		flag(FieldHostUploadEnable, 1),
	}}

	HostStatus = Register{Name: "host_status", Addr: 0x35, Width: 1, Access: ReadOnly, Fields: []Field{
		flag(FieldReset, 0),
		flag(FieldAlgorithmStandby, 1),
		{Name: FieldHostIfID, Offset: 2, Width: 3},
		{Name: FieldAlgorithmID, Offset: 5, Width: 3},
	}}

	IntStatus = Register{Name: "int_status", Addr: 0x36, Width: 1, Access: ReadOnly, Fields: []Field{
		flag(FieldHostInterrupt, 0),
		flag(FieldWakeupWatermark, 1),
		flag(FieldWakeupLatency, 2),
		flag(FieldWakeupImmediate, 3),
		flag(FieldNonWakeupWatermark, 4),
		flag(FieldNonWakeupLatency, 5),
		flag(FieldNonWakeupImmediate, 6),
	}}

	ChipStatus = Register{Name: "chip_status", Addr: 0x37, Width: 1, Access: ReadOnly, Fields: []Field{
		flag(FieldEEPROMDetected, 0),
		flag(FieldEEUploadDone, 1),
		flag(FieldEEUploadError, 2),
		flag(FieldFirmwareIdle, 3),
		flag(FieldNoEEPROM, 4),
	}}

	BytesRemaining = Register{Name: "bytes_remaining", Addr: 0x38, Width: 2, Access: ReadOnly}

	ParameterAcknowledge = Register{Name: "parameter_acknowledge", Addr: 0x3A, Width: 1, Access: ReadOnly}

	ParameterReadBuffer = Window{Name: "parameter_read_buffer", Addr: 0x3B, Size: 16, Access: ReadOnly}

	ParameterPageSelect = Register{Name: "parameter_page_select", Addr: 0x54, Width: 1, Access: ReadWrite, Fields: []Field{
		{Name: FieldParameterPage, Offset: 0, Width: 4},
		{Name: FieldParameterSize, Offset: 4, Width: 4},
	}}

	HostInterfaceControl = Register{Name: "host_interface_control", Addr: 0x55, Width: 1, Access: ReadWrite, Fields: []Field{
		flag(FieldAlgorithmStandbyReq, 0),
		flag(FieldAbortTransfer, 1),
		flag(FieldUpdateTransferCount, 2),
		flag(FieldWakeupFIFODisable, 3),
		flag(FieldNEDCoordinates, 4),
		flag(FieldAPSuspended, 5),
		flag(FieldRequestSelfTest, 6),
		flag(FieldNonWakeupFIFODisable, 7),
	}}

	ParameterWriteBuffer = Window{Name: "parameter_write_buffer", Addr: 0x5C, Size: 8, Access: WriteOnly}

	ParameterRequest = Register{Name: "parameter_request", Addr: 0x64, Width: 1, Access: ReadWrite, Fields: []Field{
		{Name: FieldParameter, Offset: 0, Width: 7},
		flag(FieldDirection, 7),
	}}

	RomVersion = Register{Name: "rom_version", Addr: 0x70, Width: 2, Access: ReadOnly}
	RamVersion = Register{Name: "ram_version", Addr: 0x72, Width: 2, Access: ReadOnly}
	ProductID  = Register{Name: "product_id", Addr: 0x90, Width: 1, Access: ReadOnly}
	RevisionID = Register{Name: "revision_id", Addr: 0x91, Width: 1, Access: ReadOnly}

	UploadAddress = Register{Name: "upload_address", Addr: 0x94, Width: 2, Access: ReadWrite, Order: binary.BigEndian}

	UploadData = Window{Name: "upload_data", Addr: 0x96, Size: 16, Access: WriteOnly}

	UploadCRC = Register{Name: "upload_crc", Addr: 0x97, Width: 4, Access: ReadOnly}

	ResetRequest = Register{Name: "reset_request", Addr: 0x9B, Width: 1, Access: WriteOnly}
)

// Map lists every fixed width register of the hub.
var Map = []Register{
	FIFOFlush,
	ChipControl,
	HostStatus,
	IntStatus,
	ChipStatus,
	BytesRemaining,
	ParameterAcknowledge,
	ParameterPageSelect,
	HostInterfaceControl,
	ParameterRequest,
	RomVersion,
	RamVersion,
	ProductID,
	RevisionID,
	UploadAddress,
	UploadCRC,
	ResetRequest,
}

// Known identification values.
const (
	ProductIDBHI160   = 0x83
	RevisionBHI160    = 0x01
	RevisionBHI160B   = 0x03
	RomVersionBHI160  = 0x2112
	RomVersionBHI160B = 0x2DAD
)
