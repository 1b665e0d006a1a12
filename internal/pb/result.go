package pb

import "google.golang.org/protobuf/encoding/protowire"

// Result is the service's answer to one command.
// At most one of ServerInfo and DeviceInfo is set.
type Result struct {
	Status     bool
	Msg        string
	ServerInfo *ServerInfo
	DeviceInfo *DeviceInfo
}

type ServerInfo struct {
	MajorVersion int32
	MinorVersion int32
	PatchVersion int32
}

type DeviceInfo struct {
	Devices []*Device
}

// Device is one attached device as reported by the service
type Device struct {
	ID         int32
	Unit       int32
	Type       DeviceType
	Properties DeviceProperties
	Status     DeviceStatus
	File       ImageFile
	Params     []string
	Vendor     string
	Product    string
	Revision   string
	BlockSize  int32
}

// DeviceProperties are the capabilities of a device
type DeviceProperties struct {
	ReadOnly    bool
	Protectable bool
	Removable   bool
	Lockable    bool
}

// DeviceStatus is the current state of a device
type DeviceStatus struct {
	Protected bool
	Removed   bool
	Locked    bool
}

type ImageFile struct {
	Name string
}

func (r *Result) Marshal() []byte {
	var b []byte
	b = appendBool(b, 1, r.Status)
	b = appendString(b, 2, r.Msg)
	if r.ServerInfo != nil {
		b = appendMessage(b, 3, r.ServerInfo.Marshal())
	}
	if r.DeviceInfo != nil {
		b = appendMessage(b, 4, r.DeviceInfo.Marshal())
	}
	return b
}

func (r *Result) Unmarshal(b []byte) error {
	*r = Result{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBool(typ, b)
			r.Status = v
			return n, err
		case 2:
			v, n, err := consumeString(typ, b)
			r.Msg = v
			return n, err
		case 3:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			r.ServerInfo, r.DeviceInfo = new(ServerInfo), nil
			return n, r.ServerInfo.Unmarshal(v)
		case 4:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			r.ServerInfo, r.DeviceInfo = nil, new(DeviceInfo)
			return n, r.DeviceInfo.Unmarshal(v)
		}
		return skip(num, typ, b)
	})
}

func (s *ServerInfo) Marshal() []byte {
	var b []byte
	b = appendInt32(b, 1, s.MajorVersion)
	b = appendInt32(b, 2, s.MinorVersion)
	b = appendInt32(b, 3, s.PatchVersion)
	return b
}

func (s *ServerInfo) Unmarshal(b []byte) error {
	*s = ServerInfo{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (n int, err error) {
		switch num {
		case 1:
			s.MajorVersion, n, err = consumeInt32(typ, b)
		case 2:
			s.MinorVersion, n, err = consumeInt32(typ, b)
		case 3:
			s.PatchVersion, n, err = consumeInt32(typ, b)
		default:
			return skip(num, typ, b)
		}
		return n, err
	})
}

func (d *DeviceInfo) Marshal() []byte {
	var b []byte
	for _, dev := range d.Devices {
		b = appendMessage(b, 1, dev.Marshal())
	}
	return b
}

func (d *DeviceInfo) Unmarshal(b []byte) error {
	*d = DeviceInfo{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return skip(num, typ, b)
		}
		v, n, err := consumeBytes(typ, b)
		if err != nil {
			return 0, err
		}
		dev := new(Device)
		if err := dev.Unmarshal(v); err != nil {
			return 0, err
		}
		d.Devices = append(d.Devices, dev)
		return n, nil
	})
}

func (d *Device) Marshal() []byte {
	var b []byte
	b = appendInt32(b, 1, d.ID)
	b = appendInt32(b, 2, d.Unit)
	b = appendInt32(b, 3, int32(d.Type))
	b = appendMessage(b, 4, d.Properties.marshal())
	b = appendMessage(b, 5, d.Status.marshal())
	b = appendMessage(b, 6, d.File.marshal())
	for _, p := range d.Params {
		b = appendRepeatedString(b, 7, p)
	}
	b = appendString(b, 8, d.Vendor)
	b = appendString(b, 9, d.Product)
	b = appendString(b, 10, d.Revision)
	b = appendInt32(b, 11, d.BlockSize)
	return b
}

func (d *Device) Unmarshal(b []byte) error {
	*d = Device{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (n int, err error) {
		switch num {
		case 1:
			d.ID, n, err = consumeInt32(typ, b)
		case 2:
			d.Unit, n, err = consumeInt32(typ, b)
		case 3:
			var v int32
			v, n, err = consumeInt32(typ, b)
			d.Type = DeviceType(v)
		case 4, 5, 6:
			var v []byte
			if v, n, err = consumeBytes(typ, b); err != nil {
				return 0, err
			}
			switch num {
			case 4:
				err = d.Properties.unmarshal(v)
			case 5:
				err = d.Status.unmarshal(v)
			default:
				err = d.File.unmarshal(v)
			}
		case 7:
			var v string
			if v, n, err = consumeString(typ, b); err == nil {
				d.Params = append(d.Params, v)
			}
		case 8:
			d.Vendor, n, err = consumeString(typ, b)
		case 9:
			d.Product, n, err = consumeString(typ, b)
		case 10:
			d.Revision, n, err = consumeString(typ, b)
		case 11:
			d.BlockSize, n, err = consumeInt32(typ, b)
		default:
			return skip(num, typ, b)
		}
		return n, err
	})
}

func (p *DeviceProperties) marshal() []byte {
	var b []byte
	b = appendBool(b, 1, p.ReadOnly)
	b = appendBool(b, 2, p.Protectable)
	b = appendBool(b, 3, p.Removable)
	b = appendBool(b, 4, p.Lockable)
	return b
}

func (p *DeviceProperties) unmarshal(b []byte) error {
	*p = DeviceProperties{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (n int, err error) {
		switch num {
		case 1:
			p.ReadOnly, n, err = consumeBool(typ, b)
		case 2:
			p.Protectable, n, err = consumeBool(typ, b)
		case 3:
			p.Removable, n, err = consumeBool(typ, b)
		case 4:
			p.Lockable, n, err = consumeBool(typ, b)
		default:
			return skip(num, typ, b)
		}
		return n, err
	})
}

func (s *DeviceStatus) marshal() []byte {
	var b []byte
	b = appendBool(b, 1, s.Protected)
	b = appendBool(b, 2, s.Removed)
	b = appendBool(b, 3, s.Locked)
	return b
}

func (s *DeviceStatus) unmarshal(b []byte) error {
	*s = DeviceStatus{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (n int, err error) {
		switch num {
		case 1:
			s.Protected, n, err = consumeBool(typ, b)
		case 2:
			s.Removed, n, err = consumeBool(typ, b)
		case 3:
			s.Locked, n, err = consumeBool(typ, b)
		default:
			return skip(num, typ, b)
		}
		return n, err
	})
}

func (f *ImageFile) marshal() []byte {
	return appendString(nil, 1, f.Name)
}

func (f *ImageFile) unmarshal(b []byte) error {
	*f = ImageFile{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (n int, err error) {
		if num != 1 {
			return skip(num, typ, b)
		}
		f.Name, n, err = consumeString(typ, b)
		return n, err
	})
}
