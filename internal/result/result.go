// Package result turns service responses into typed results.
package result

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/pkg/errors"

	"github.com/sigreer/rascsictl/internal/pb"
)

// Result is the decoded answer to one command. Status false means the
// service rejected or failed the operation and Message says why; that is a
// normal outcome, not an error.
type Result struct {
	Status  bool    `json:"status"`
	Message string  `json:"msg"`
	Payload Payload `json:"payload,omitempty"`
}

// Payload is one of ServerInfo, DeviceInfoList or Empty
type Payload interface {
	isPayload()
}

// Empty is the payload of operations that only report status
type Empty struct{}

// ServerInfo is the version of the running service
type ServerInfo struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Patch int `json:"patch"`
}

// DeviceInfoList is the answer to a device query
type DeviceInfoList struct {
	Devices []DeviceRecord `json:"devices"`
}

func (Empty) isPayload()          {}
func (ServerInfo) isPayload()     {}
func (DeviceInfoList) isPayload() {}

// Version joins the version numbers with dots, e.g. "21.10.1"
func (s ServerInfo) Version() string {
	return fmt.Sprintf("%d.%d.%d", s.Major, s.Minor, s.Patch)
}

// Semver returns the version for comparisons. Development builds of the
// service report a negative patch number, which is treated as 0 here.
func (s ServerInfo) Semver() semver.Version {
	clamp := func(v int) uint64 {
		if v < 0 {
			return 0
		}
		return uint64(v)
	}
	return semver.Version{Major: clamp(s.Major), Minor: clamp(s.Minor), Patch: clamp(s.Patch)}
}

// TypeOf returns the type tag of the first device, or "" when the list is empty
func (l DeviceInfoList) TypeOf() string {
	if len(l.Devices) == 0 {
		return ""
	}
	return l.Devices[0].Type
}

// OccupiedIDs returns the ID of every listed device, in service order
func (l DeviceInfoList) OccupiedIDs() []int {
	ids := make([]int, 0, len(l.Devices))
	for _, d := range l.Devices {
		ids = append(ids, d.ID)
	}
	return ids
}

// ServerInfo returns the server info payload, if that is what r carries
func (r *Result) ServerInfo() (ServerInfo, bool) {
	s, ok := r.Payload.(ServerInfo)
	return s, ok
}

// Version returns the dotted service version, or "" when r carries none
func (r *Result) Version() string {
	if s, ok := r.ServerInfo(); ok && r.Status {
		return s.Version()
	}
	return ""
}

// DeviceList returns the device payload; it is empty for other payloads
func (r *Result) DeviceList() DeviceInfoList {
	l, _ := r.Payload.(DeviceInfoList)
	return l
}

// StatusFlags are the conditions surfaced for a device
type StatusFlags uint8

const (
	ReadOnly StatusFlags = 1 << iota
	WriteProtected
	NoMedia
	Locked
)

var flagNames = []struct {
	flag StatusFlags
	name string
}{
	{ReadOnly, "Read-Only"},
	{WriteProtected, "Write-Protected"},
	{NoMedia, "No Media"},
	{Locked, "Locked"},
}

func (f StatusFlags) Has(flag StatusFlags) bool {
	return f&flag != 0
}

// String joins the set flags, e.g. "Read-Only, No Media"; "" when none are set
func (f StatusFlags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, ", ")
}

func (f StatusFlags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// DeviceRecord is one device from a device query
type DeviceRecord struct {
	ID        int         `json:"id"`
	Unit      int         `json:"unit"`
	Type      string      `json:"type"`
	Status    StatusFlags `json:"status"`
	Path      string      `json:"path"`
	File      string      `json:"file"`
	Params    []string    `json:"params"`
	Vendor    string      `json:"vendor"`
	Product   string      `json:"product"`
	Revision  string      `json:"revision"`
	BlockSize int         `json:"block_size"`
}

// NewDeviceRecord flattens a service device. A status flag is surfaced only
// when the device has the matching capability; read-only needs none.
func NewDeviceRecord(d *pb.Device) DeviceRecord {
	var flags StatusFlags
	if d.Properties.ReadOnly {
		flags |= ReadOnly
	}
	if d.Status.Protected && d.Properties.Protectable {
		flags |= WriteProtected
	}
	if d.Status.Removed && d.Properties.Removable {
		flags |= NoMedia
	}
	if d.Status.Locked && d.Properties.Lockable {
		flags |= Locked
	}

	return DeviceRecord{
		ID:        int(d.ID),
		Unit:      int(d.Unit),
		Type:      d.Type.String(),
		Status:    flags,
		Path:      d.File.Name,
		File:      basename(d.File.Name),
		Params:    append([]string(nil), d.Params...),
		Vendor:    d.Vendor,
		Product:   d.Product,
		Revision:  d.Revision,
		BlockSize: int(d.BlockSize),
	}
}

func basename(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Base(p)
}

// Decode parses payload as the response to op
func Decode(op pb.Operation, payload []byte) (*Result, error) {
	var msg pb.Result
	if err := msg.Unmarshal(payload); err != nil {
		return nil, errors.Wrapf(err, "decode %s result", op)
	}
	return FromMessage(op, &msg), nil
}

// FromMessage selects the payload variant by op
func FromMessage(op pb.Operation, msg *pb.Result) *Result {
	r := &Result{Status: msg.Status, Message: msg.Msg, Payload: Empty{}}

	switch op {
	case pb.ServerInfoOp:
		if si := msg.ServerInfo; si != nil {
			r.Payload = ServerInfo{
				Major: int(si.MajorVersion),
				Minor: int(si.MinorVersion),
				Patch: int(si.PatchVersion),
			}
		} else {
			r.Payload = ServerInfo{}
		}
	case pb.DeviceInfoOp:
		list := DeviceInfoList{Devices: []DeviceRecord{}}
		if msg.DeviceInfo != nil {
			for _, d := range msg.DeviceInfo.Devices {
				list.Devices = append(list.Devices, NewDeviceRecord(d))
			}
		}
		r.Payload = list
	}
	return r
}
