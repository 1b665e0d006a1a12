package fakeserver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sigreer/rascsictl/internal/pb"
)

// Bus emulates the device table of a running service
type Bus struct {
	mu       sync.Mutex
	devices  map[[2]int32]*pb.Device
	reserved map[int32]bool

	Version pb.ServerInfo
}

// NewBus returns an empty bus reporting version 21.10.1
func NewBus() *Bus {
	return &Bus{
		devices:  make(map[[2]int32]*pb.Device),
		reserved: make(map[int32]bool),
		Version:  pb.ServerInfo{MajorVersion: 21, MinorVersion: 10, PatchVersion: 1},
	}
}

// Put places d on the bus as is, replacing whatever was at its ID and unit
func (b *Bus) Put(d *pb.Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices[[2]int32{d.ID, d.Unit}] = d
}

// Device returns the device at id and unit, or nil
func (b *Bus) Device(id, unit int32) *pb.Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.devices[[2]int32{id, unit}]
}

// Reserved returns the reserved IDs in ascending order
func (b *Bus) Reserved() []int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var ids []int32
	for id := range b.reserved {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Handle implements Handler
func (b *Bus) Handle(cmd *pb.Command) *pb.Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch cmd.Operation {
	case pb.ServerInfoOp:
		v := b.Version
		return &pb.Result{Status: true, ServerInfo: &v}
	case pb.DeviceInfoOp:
		return b.deviceInfo(cmd)
	case pb.DetachAll:
		b.devices = make(map[[2]int32]*pb.Device)
		return ok()
	case pb.Reserve:
		return b.reserve(cmd.Params)
	}

	if len(cmd.Devices) == 0 {
		return fail("Missing device definition")
	}
	def := cmd.Devices[0]
	key := [2]int32{def.ID, def.Unit}
	dev := b.devices[key]

	switch cmd.Operation {
	case pb.Attach:
		return b.attach(def)
	case pb.Detach:
		if dev == nil {
			return noDevice(def)
		}
		delete(b.devices, key)
		return ok()
	case pb.Insert:
		if dev == nil {
			return noDevice(def)
		}
		if !dev.Properties.Removable {
			return fail(fmt.Sprintf("Device type %s does not support INSERT", dev.Type))
		}
		if len(def.Params) == 0 || def.Params[0] == "" {
			return fail("Missing filename for INSERT")
		}
		dev.File.Name = def.Params[0]
		dev.Status.Removed = false
		return ok()
	case pb.Eject:
		if dev == nil {
			return noDevice(def)
		}
		if !dev.Properties.Removable {
			return fail(fmt.Sprintf("Device type %s does not support EJECT", dev.Type))
		}
		dev.File.Name = ""
		dev.Status.Removed = true
		return ok()
	}
	return fail(fmt.Sprintf("Received unknown command: %s", cmd.Operation))
}

func (b *Bus) attach(def *pb.DeviceDefinition) *pb.Result {
	if b.reserved[def.ID] {
		return fail(fmt.Sprintf("Device ID %d is reserved", def.ID))
	}
	if _, taken := b.devices[[2]int32{def.ID, def.Unit}]; taken {
		return fail(fmt.Sprintf("Duplicate ID %d, unit %d", def.ID, def.Unit))
	}

	dev := &pb.Device{
		ID:        def.ID,
		Unit:      def.Unit,
		Type:      def.Type,
		Vendor:    def.Vendor,
		Product:   def.Product,
		Revision:  def.Revision,
		BlockSize: def.BlockSize,
	}
	imageBacked := true
	switch def.Type {
	case pb.SAHD, pb.SCHD:
		dev.Properties.Protectable = true
	case pb.SCRM, pb.SCMO:
		dev.Properties = pb.DeviceProperties{Protectable: true, Removable: true, Lockable: true}
	case pb.SCCD:
		dev.Properties = pb.DeviceProperties{ReadOnly: true, Removable: true, Lockable: true}
	case pb.SCBR, pb.SCDP:
		dev.Params = def.Params
		imageBacked = false
	default:
		return fail(fmt.Sprintf("Unknown device type %s", def.Type))
	}

	if imageBacked {
		if len(def.Params) > 0 {
			dev.File.Name = def.Params[0]
		}
		if dev.File.Name == "" {
			if !dev.Properties.Removable {
				return fail(fmt.Sprintf("Missing filename for %s", def.Type))
			}
			dev.Status.Removed = true
		}
	}
	if dev.Product == "" {
		dev.Product = "RASCSI " + def.Type.String()
	}

	b.devices[[2]int32{def.ID, def.Unit}] = dev
	return ok()
}

func (b *Bus) deviceInfo(cmd *pb.Command) *pb.Result {
	var devices []*pb.Device
	if len(cmd.Devices) == 0 {
		for _, d := range b.devices {
			devices = append(devices, d)
		}
	} else {
		for _, def := range cmd.Devices {
			found := false
			for _, d := range b.devices {
				if d.ID == def.ID {
					devices = append(devices, d)
					found = true
				}
			}
			if !found {
				return &pb.Result{Msg: fmt.Sprintf("No device for ID %d", def.ID), DeviceInfo: &pb.DeviceInfo{}}
			}
		}
	}
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].ID != devices[j].ID {
			return devices[i].ID < devices[j].ID
		}
		return devices[i].Unit < devices[j].Unit
	})
	return &pb.Result{Status: true, DeviceInfo: &pb.DeviceInfo{Devices: devices}}
}

func (b *Bus) reserve(params []string) *pb.Result {
	reserved := make(map[int32]bool)
	if len(params) > 0 && params[0] != "" {
		for _, s := range strings.Split(params[0], ",") {
			id, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || id < 0 || id > 7 {
				return fail(fmt.Sprintf("Invalid ID %q", s))
			}
			if _, used := b.firstAt(int32(id)); used {
				return fail(fmt.Sprintf("ID %d is currently in use", id))
			}
			reserved[int32(id)] = true
		}
	}
	b.reserved = reserved
	return ok()
}

func (b *Bus) firstAt(id int32) (*pb.Device, bool) {
	for _, d := range b.devices {
		if d.ID == id {
			return d, true
		}
	}
	return nil, false
}

func ok() *pb.Result {
	return &pb.Result{Status: true}
}

func fail(msg string) *pb.Result {
	return &pb.Result{Msg: msg}
}

func noDevice(def *pb.DeviceDefinition) *pb.Result {
	return fail(fmt.Sprintf("No device for ID %d, unit %d", def.ID, def.Unit))
}
