// Package command builds the commands understood by the emulation service.
//
// Builders only shape and validate; none of them touch the network.
package command

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sigreer/rascsictl/internal/pb"
)

// MaxID is the highest SCSI ID on the emulated bus
const MaxID = 7

// ValidationError reports caller input rejected before any I/O
type ValidationError struct {
	Field string
	Value string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Msg)
}

// ValidateID checks that id addresses a slot on the bus
func ValidateID(id int) error {
	if id < 0 || id > MaxID {
		return &ValidationError{Field: "SCSI ID", Value: strconv.Itoa(id), Msg: "should be a number between 0-7"}
	}
	return nil
}

// ParseID converts caller text into a validated SCSI ID
func ParseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &ValidationError{Field: "SCSI ID", Value: s, Msg: "should be a number between 0-7"}
	}
	return id, ValidateID(id)
}

// IsRemovable reports whether t takes removable media that can be swapped
// without re-attaching the drive
func IsRemovable(t pb.DeviceType) bool {
	switch t {
	case pb.SCCD, pb.SCRM, pb.SCMO:
		return true
	}
	return false
}

// AttachParams describes a device to attach
type AttachParams struct {
	ID    int
	Type  pb.DeviceType
	Image string
	Unit  int
	// Param is an extra device parameter appended after the image
	Param string

	// Vendor, Product and Revision are sent only when all three are set
	Vendor   *string
	Product  *string
	Revision *string

	// BlockSize is never sent for CD-ROM devices
	BlockSize *int
}

// ValidateAttach checks every attach argument that can be judged without
// asking the service
func ValidateAttach(p AttachParams) error {
	if err := ValidateID(p.ID); err != nil {
		return err
	}
	if p.Type == pb.Undefined {
		return &ValidationError{Field: "device type", Value: p.Type.String(), Msg: "a device type is required"}
	}
	if p.Unit < 0 || p.Unit > math.MaxInt32 {
		return &ValidationError{Field: "unit", Value: strconv.Itoa(p.Unit), Msg: "must be between 0 and 2147483647"}
	}
	if p.BlockSize != nil && p.Type != pb.SCCD {
		if bs := *p.BlockSize; bs <= 0 || bs > math.MaxInt32 {
			return &ValidationError{Field: "block size", Value: strconv.Itoa(bs), Msg: "must be between 1 and 2147483647"}
		}
	}
	return nil
}

// Attach builds an ATTACH command
func Attach(p AttachParams) (*pb.Command, error) {
	if err := ValidateAttach(p); err != nil {
		return nil, err
	}

	dev := &pb.DeviceDefinition{
		ID:   int32(p.ID),
		Unit: int32(p.Unit),
		Type: p.Type,
	}
	if p.Image != "" {
		dev.Params = append(dev.Params, p.Image)
	}
	if p.Param != "" {
		dev.Params = append(dev.Params, p.Param)
	}
	if p.Vendor != nil && p.Product != nil && p.Revision != nil {
		dev.Vendor = *p.Vendor
		dev.Product = *p.Product
		dev.Revision = *p.Revision
	}
	// CD-ROM sectors are fixed at 2048 bytes
	if p.BlockSize != nil && p.Type != pb.SCCD {
		dev.BlockSize = int32(*p.BlockSize)
	}

	return &pb.Command{Operation: pb.Attach, Devices: []*pb.DeviceDefinition{dev}}, nil
}

// AttachOrInsert builds an ATTACH command, or an INSERT when both the
// requested type and currentType, the type already at p.ID, take removable
// media. Inserting swaps the medium and keeps the existing drive.
func AttachOrInsert(p AttachParams, currentType pb.DeviceType) (*pb.Command, error) {
	if IsRemovable(p.Type) && IsRemovable(currentType) {
		return Insert(p.ID, p.Image)
	}
	return Attach(p)
}

// AttachNetworkAdapter builds an ATTACH for a DaynaPort network adapter
func AttachNetworkAdapter(id int) (*pb.Command, error) {
	return Attach(AttachParams{ID: id, Type: pb.SCDP})
}

// Detach builds a DETACH for the device at id
func Detach(id int) (*pb.Command, error) {
	return single(pb.Detach, id)
}

// DetachAll builds a DETACH_ALL; it carries no devices
func DetachAll() *pb.Command {
	return &pb.Command{Operation: pb.DetachAll}
}

// Eject builds an EJECT for the device at id
func Eject(id int) (*pb.Command, error) {
	return single(pb.Eject, id)
}

// Insert builds an INSERT loading image into the device at id
func Insert(id int, image string) (*pb.Command, error) {
	cmd, err := single(pb.Insert, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(image) == "" {
		return nil, &ValidationError{Field: "image", Value: image, Msg: "an image file is required"}
	}
	cmd.Devices[0].Params = []string{image}
	return cmd, nil
}

// Reserve builds a RESERVE. ids is passed through opaquely, e.g. "1,4"; an
// empty string releases all reservations.
func Reserve(ids string) *pb.Command {
	return &pb.Command{Operation: pb.Reserve, Params: []string{ids}}
}

// DeviceInfo builds a DEVICE_INFO; a nil id asks for every attached device
func DeviceInfo(id *int) (*pb.Command, error) {
	if id == nil {
		return &pb.Command{Operation: pb.DeviceInfoOp}, nil
	}
	return single(pb.DeviceInfoOp, *id)
}

// ServerInfo builds a SERVER_INFO
func ServerInfo() *pb.Command {
	return &pb.Command{Operation: pb.ServerInfoOp}
}

func single(op pb.Operation, id int) (*pb.Command, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	return &pb.Command{
		Operation: op,
		Devices:   []*pb.DeviceDefinition{{ID: int32(id)}},
	}, nil
}
