// Package param implements the hub's paged parameter interface: the schema
// of known parameters, the request/acknowledge handshake and codecs for the
// typed parameters.
package param

import (
	"fmt"

	"github.com/mklimuk/sensorhub/register"
	"github.com/mklimuk/sensorhub/sensor"
)

type Page uint8

const (
	// Page0 is selected after an Algorithm page access to let the hub copy
	// back its algorithm data.
	Page0     Page = 0
	System    Page = 1
	Algorithm Page = 2
	Sensors   Page = 3
	Custom12  Page = 12
	Custom13  Page = 13
	Custom14  Page = 14
)

func (p Page) String() string {
	switch p {
	case Page0:
		return "page0"
	case System:
		return "system"
	case Algorithm:
		return "algorithm"
	case Sensors:
		return "sensors"
	case Custom12, Custom13, Custom14:
		return fmt.Sprintf("custom%d", uint8(p))
	}
	return fmt.Sprintf("page(%d)", uint8(p))
}

// ParsePage accepts a page name or number.
func ParsePage(s string) (Page, error) {
	for p := Page(0); p < 16; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	var n uint8
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && n < 16 {
		return Page(n), nil
	}
	return 0, fmt.Errorf("unknown parameter page %q", s)
}

const (
	MaxReadSize  = 16
	MaxWriteSize = 8

	// SensorConfigOffset is added to a sensor id to address its configuration
	// parameter on the sensors page.
	SensorConfigOffset = 64
)

// Spec identifies a parameter and fixes its payload size, which is the same
// for reads and writes.
type Spec struct {
	Name   string
	Page   Page
	ID     uint8
	Size   int
	Access register.Access
}

func (s Spec) String() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("%s/%d", s.Page, s.ID)
}

// Validate checks the parameter size and id against the limits of the parameter registers.
func (s Spec) Validate() error {
	if s.Page > 0x0F {
		return fmt.Errorf("parameter %s: page %d does not fit 4 bits", s, s.Page)
	}
	if s.ID == 0 || s.ID > 0x7F {
		return fmt.Errorf("parameter %s: id %d outside 1..127", s, s.ID)
	}
	if s.Size <= 0 || s.Size > MaxReadSize {
		return fmt.Errorf("parameter %s: size %d outside 1..%d", s, s.Size, MaxReadSize)
	}
	if s.Access.Writable() && s.Size > MaxWriteSize {
		return fmt.Errorf("parameter %s: writable parameters are limited to %d bytes", s, MaxWriteSize)
	}
	return nil
}

var (
	MetaEvents = Spec{Name: "meta_event_control", Page: System, ID: 1, Size: 8, Access: register.ReadWrite}

	FIFOControlParam = Spec{Name: "fifo_control", Page: System, ID: 2, Size: 8, Access: register.ReadWrite}

	WakeupMetaEvents = Spec{Name: "wakeup_meta_event_control", Page: System, ID: 29, Size: 8, Access: register.ReadWrite}

	PhysicalStatus = Spec{Name: "physical_sensor_status", Page: System, ID: 31, Size: 15, Access: register.ReadOnly}
)

// SensorInfoSpec addresses the read-only information block of a sensor.
func SensorInfoSpec(id sensor.ID) Spec {
	return Spec{Name: "sensor_info:" + id.String(), Page: Sensors, ID: uint8(id), Size: 16, Access: register.ReadOnly}
}

// SensorConfigSpec addresses the configuration block of a sensor.
func SensorConfigSpec(id sensor.ID) Spec {
	return Spec{Name: "sensor_config:" + id.String(), Page: Sensors, ID: uint8(id) + SensorConfigOffset, Size: 8, Access: register.ReadWrite}
}

// Lookup returns the descriptor of a known parameter.
func Lookup(page Page, id uint8) (Spec, bool) {
	switch page {
	case System:
		for _, s := range []Spec{MetaEvents, FIFOControlParam, WakeupMetaEvents, PhysicalStatus} {
			if s.ID == id {
				return s, true
			}
		}
	case Sensors:
		if id >= 1 && id < SensorConfigOffset {
			return SensorInfoSpec(sensor.ID(id)), true
		}
		if id > SensorConfigOffset && id < 2*SensorConfigOffset {
			return SensorConfigSpec(sensor.ID(id - SensorConfigOffset)), true
		}
	}
	return Spec{}, false
}
