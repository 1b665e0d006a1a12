package pb

import "google.golang.org/protobuf/encoding/protowire"

// Command is one request to the service
type Command struct {
	Operation Operation
	Devices   []*DeviceDefinition
	Params    []string
}

// DeviceDefinition addresses a device and, for attach, describes it
type DeviceDefinition struct {
	ID        int32
	Unit      int32
	Type      DeviceType
	Params    []string
	BlockSize int32 // 0 means unset
	Vendor    string
	Product   string
	Revision  string
}

// Marshal encodes the command in protobuf wire format
func (c *Command) Marshal() []byte {
	var b []byte
	b = appendInt32(b, 1, int32(c.Operation))
	for _, d := range c.Devices {
		b = appendMessage(b, 2, d.Marshal())
	}
	for _, p := range c.Params {
		b = appendRepeatedString(b, 3, p)
	}
	return b
}

// Unmarshal replaces c with the command decoded from b
func (c *Command) Unmarshal(b []byte) error {
	*c = Command{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeInt32(typ, b)
			c.Operation = Operation(v)
			return n, err
		case 2:
			v, n, err := consumeBytes(typ, b)
			if err != nil {
				return 0, err
			}
			d := new(DeviceDefinition)
			if err := d.Unmarshal(v); err != nil {
				return 0, err
			}
			c.Devices = append(c.Devices, d)
			return n, nil
		case 3:
			v, n, err := consumeString(typ, b)
			if err != nil {
				return 0, err
			}
			c.Params = append(c.Params, v)
			return n, nil
		}
		return skip(num, typ, b)
	})
}

// Marshal encodes the definition in protobuf wire format
func (d *DeviceDefinition) Marshal() []byte {
	var b []byte
	b = appendInt32(b, 1, d.ID)
	b = appendInt32(b, 2, d.Unit)
	b = appendInt32(b, 3, int32(d.Type))
	for _, p := range d.Params {
		b = appendRepeatedString(b, 4, p)
	}
	b = appendInt32(b, 5, d.BlockSize)
	b = appendString(b, 6, d.Vendor)
	b = appendString(b, 7, d.Product)
	b = appendString(b, 8, d.Revision)
	return b
}

// Unmarshal replaces d with the definition decoded from b
func (d *DeviceDefinition) Unmarshal(b []byte) error {
	*d = DeviceDefinition{}
	return walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var (
			n   int
			err error
		)
		switch num {
		case 1:
			d.ID, n, err = consumeInt32(typ, b)
		case 2:
			d.Unit, n, err = consumeInt32(typ, b)
		case 3:
			var v int32
			v, n, err = consumeInt32(typ, b)
			d.Type = DeviceType(v)
		case 4:
			var v string
			if v, n, err = consumeString(typ, b); err == nil {
				d.Params = append(d.Params, v)
			}
		case 5:
			d.BlockSize, n, err = consumeInt32(typ, b)
		case 6:
			d.Vendor, n, err = consumeString(typ, b)
		case 7:
			d.Product, n, err = consumeString(typ, b)
		case 8:
			d.Revision, n, err = consumeString(typ, b)
		default:
			return skip(num, typ, b)
		}
		return n, err
	})
}
