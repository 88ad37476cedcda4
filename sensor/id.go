// Package sensor names the hub's virtual sensors and maps every sensor id to
// the byte layout of its FIFO frames.
package sensor

import "fmt"

// ID identifies a virtual sensor and doubles as the first byte of every FIFO
// frame it produces.
type ID uint8

// WakeupOffset is added to a non-wakeup sensor id to obtain its wakeup
// variant.
const WakeupOffset = 32

const (
	Padding ID = 0

	Accelerometer             ID = 1
	GeomagneticField          ID = 2
	Orientation               ID = 3
	Gyroscope                 ID = 4
	Light                     ID = 5
	Pressure                  ID = 6
	Temperature               ID = 7
	Proximity                 ID = 8
	Gravity                   ID = 9
	LinearAcceleration        ID = 10
	RotationVector            ID = 11
	Humidity                  ID = 12
	AmbientTemperature        ID = 13
	MagneticFieldUncalibrated ID = 14
	GameRotationVector        ID = 15
	GyroscopeUncalibrated     ID = 16
	SignificantMotion         ID = 17
	StepDetector              ID = 18
	StepCounter               ID = 19
	GeomagneticRotationVector ID = 20
	HeartRate                 ID = 21
	TiltDetector              ID = 22
	WakeGesture               ID = 23
	GlanceGesture             ID = 24
	PickUpGesture             ID = 25
	ActivityRecognition       ID = 31

	Debug              ID = 245
	TimestampLSWWakeup ID = 246
	TimestampMSWWakeup ID = 247
	MetaEventWakeup    ID = 248
	RawGyroscope       ID = 249
	RawMagnetometer    ID = 250
	RawAccelerometer   ID = 251
	TimestampLSW       ID = 252
	TimestampMSW       ID = 253
	MetaEvent          ID = 254
)

var names = map[ID]string{
	Padding:                   "padding",
	Accelerometer:             "accelerometer",
	GeomagneticField:          "geomagnetic_field",
	Orientation:               "orientation",
	Gyroscope:                 "gyroscope",
	Light:                     "light",
	Pressure:                  "pressure",
	Temperature:               "temperature",
	Proximity:                 "proximity",
	Gravity:                   "gravity",
	LinearAcceleration:        "linear_acceleration",
	RotationVector:            "rotation_vector",
	Humidity:                  "humidity",
	AmbientTemperature:        "ambient_temperature",
	MagneticFieldUncalibrated: "magnetic_field_uncalibrated",
	GameRotationVector:        "game_rotation_vector",
	GyroscopeUncalibrated:     "gyroscope_uncalibrated",
	SignificantMotion:         "significant_motion",
	StepDetector:              "step_detector",
	StepCounter:               "step_counter",
	GeomagneticRotationVector: "geomagnetic_rotation_vector",
	HeartRate:                 "heart_rate",
	TiltDetector:              "tilt_detector",
	WakeGesture:               "wake_gesture",
	GlanceGesture:             "glance_gesture",
	PickUpGesture:             "pick_up_gesture",
	ActivityRecognition:       "activity_recognition",
	Debug:                     "debug",
	TimestampLSWWakeup:        "timestamp_lsw_wakeup",
	TimestampMSWWakeup:        "timestamp_msw_wakeup",
	MetaEventWakeup:           "meta_event_wakeup",
	RawGyroscope:              "raw_gyroscope",
	RawMagnetometer:           "raw_magnetometer",
	RawAccelerometer:          "raw_accelerometer",
	TimestampLSW:              "timestamp_lsw",
	TimestampMSW:              "timestamp_msw",
	MetaEvent:                 "meta_event",
}

// Wakeup returns the wakeup variant of a virtual sensor. Ids outside the
// virtual range are returned unchanged.
func (id ID) Wakeup() ID {
	if id.IsVirtual() && !id.IsWakeup() {
		return id + WakeupOffset
	}
	return id
}

// Base strips the wakeup offset.
func (id ID) Base() ID {
	if id.IsWakeup() {
		return id - WakeupOffset
	}
	return id
}

// IsVirtual reports whether id is in the range of configurable virtual
// sensors (both variants).
func (id ID) IsVirtual() bool {
	return id >= Accelerometer && id < 2*WakeupOffset
}

func (id ID) IsWakeup() bool {
	return id > WakeupOffset && id < 2*WakeupOffset
}

// IsTimestamp reports whether id carries a half of the device clock.
func (id ID) IsTimestamp() bool {
	switch id {
	case TimestampLSW, TimestampMSW, TimestampLSWWakeup, TimestampMSWWakeup:
		return true
	}
	return false
}

func (id ID) String() string {
	if name, ok := names[id]; ok {
		return name
	}
	if id.IsWakeup() {
		if name, ok := names[id.Base()]; ok {
			return name + "_wakeup"
		}
	}
	return fmt.Sprintf("sensor_%d", uint8(id))
}

// Parse resolves a sensor name (as printed by String) or a decimal id.
func Parse(name string) (ID, error) {
	for id := ID(0); ; id++ {
		if id.String() == name {
			return id, nil
		}
		if id == 255 {
			break
		}
	}
	var n uint8
	if _, err := fmt.Sscanf(name, "%d", &n); err == nil {
		return ID(n), nil
	}
	return 0, fmt.Errorf("unknown sensor %q", name)
}
