// Package pb holds the message contract spoken by the emulation service.
//
// The service defines its messages in protobuf. Field numbers and enum values
// below mirror that contract and are encoded with the protobuf wire format,
// so any conforming protobuf peer can read what this package writes.
package pb

import (
	"fmt"
	"strings"
)

// Operation selects what a command asks the service to do
type Operation int32

const (
	NoOperation Operation = iota
	Attach
	Detach
	DetachAll
	Insert
	Eject
	Reserve
	ServerInfoOp
	DeviceInfoOp
)

var operationNames = map[Operation]string{
	NoOperation:  "NO_OPERATION",
	Attach:       "ATTACH",
	Detach:       "DETACH",
	DetachAll:    "DETACH_ALL",
	Insert:       "INSERT",
	Eject:        "EJECT",
	Reserve:      "RESERVE",
	ServerInfoOp: "SERVER_INFO",
	DeviceInfoOp: "DEVICE_INFO",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OPERATION(%d)", int32(o))
}

// DeviceType is the emulated device class
type DeviceType int32

const (
	Undefined DeviceType = iota
	SAHD                 // SASI hard disk
	SCHD                 // SCSI hard disk
	SCRM                 // SCSI removable disk
	SCMO                 // SCSI magneto-optical
	SCCD                 // SCSI CD-ROM
	SCBR                 // host bridge
	SCDP                 // DaynaPort network adapter
)

var deviceTypeNames = []string{"UNDEFINED", "SAHD", "SCHD", "SCRM", "SCMO", "SCCD", "SCBR", "SCDP"}

func (t DeviceType) String() string {
	if t >= 0 && int(t) < len(deviceTypeNames) {
		return deviceTypeNames[t]
	}
	return fmt.Sprintf("DEVICE_TYPE(%d)", int32(t))
}

// ParseDeviceType maps a type tag such as "SCCD" to its DeviceType.
// Matching is case-insensitive.
func ParseDeviceType(s string) (DeviceType, error) {
	tag := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range deviceTypeNames {
		if name == tag && i != int(Undefined) {
			return DeviceType(i), nil
		}
	}
	return Undefined, fmt.Errorf("unknown device type %q", s)
}
