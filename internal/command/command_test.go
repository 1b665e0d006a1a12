package command

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sigreer/rascsictl/internal/pb"
)

func ptr[T any](v T) *T { return &v }

func TestValidateID(t *testing.T) {
	for id := 0; id <= MaxID; id++ {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%d) = %v", id, err)
		}
	}
	for _, id := range []int{-1, 8, 42} {
		var ve *ValidationError
		if err := ValidateID(id); !errors.As(err, &ve) {
			t.Errorf("ValidateID(%d) = %v, want *ValidationError", id, err)
		}
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{" 7 ", 7, false},
		{"8", 8, true},
		{"x", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseID(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseID(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseID(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAttach(t *testing.T) {
	tests := []struct {
		name string
		in   AttachParams
		want *pb.DeviceDefinition
	}{
		{
			name: "hard disk with image",
			in:   AttachParams{ID: 1, Type: pb.SCHD, Image: "disk.hds"},
			want: &pb.DeviceDefinition{ID: 1, Type: pb.SCHD, Params: []string{"disk.hds"}},
		},
		{
			name: "image and extra param",
			in:   AttachParams{ID: 2, Unit: 1, Type: pb.SCBR, Image: "img", Param: "eth0"},
			want: &pb.DeviceDefinition{ID: 2, Unit: 1, Type: pb.SCBR, Params: []string{"img", "eth0"}},
		},
		{
			name: "full vendor triple",
			in: AttachParams{ID: 3, Type: pb.SCHD, Image: "a.hds",
				Vendor: ptr("QUANTUM"), Product: ptr("FIREBALL"), Revision: ptr("1.0")},
			want: &pb.DeviceDefinition{ID: 3, Type: pb.SCHD, Params: []string{"a.hds"},
				Vendor: "QUANTUM", Product: "FIREBALL", Revision: "1.0"},
		},
		{
			name: "partial vendor triple dropped",
			in:   AttachParams{ID: 3, Type: pb.SCHD, Vendor: ptr("QUANTUM"), Product: ptr("FIREBALL")},
			want: &pb.DeviceDefinition{ID: 3, Type: pb.SCHD},
		},
		{
			name: "block size forwarded for hard disk",
			in:   AttachParams{ID: 4, Type: pb.SCHD, BlockSize: ptr(1024)},
			want: &pb.DeviceDefinition{ID: 4, Type: pb.SCHD, BlockSize: 1024},
		},
		{
			name: "block size suppressed for CD-ROM",
			in:   AttachParams{ID: 5, Type: pb.SCCD, Image: "os.iso", BlockSize: ptr(2048)},
			want: &pb.DeviceDefinition{ID: 5, Type: pb.SCCD, Params: []string{"os.iso"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Attach(tt.in)
			if err != nil {
				t.Fatalf("Attach: %v", err)
			}
			want := &pb.Command{Operation: pb.Attach, Devices: []*pb.DeviceDefinition{tt.want}}
			if diff := cmp.Diff(want, cmd); diff != "" {
				t.Errorf("command mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAttachRejects(t *testing.T) {
	tests := map[string]AttachParams{
		"id":                         {ID: 8, Type: pb.SCHD},
		"type":                       {ID: 1},
		"unit":                       {ID: 1, Type: pb.SCHD, Unit: -1},
		"unit above int32":           {ID: 1, Type: pb.SCHD, Unit: 1 << 31},
		"block size":                 {ID: 1, Type: pb.SCHD, BlockSize: ptr(0)},
		"block size above int32":     {ID: 1, Type: pb.SCHD, BlockSize: ptr(1 << 31)},
		"block size wrapping to 512": {ID: 1, Type: pb.SCHD, BlockSize: ptr(1<<32 + 512)},
	}
	for name, p := range tests {
		var ve *ValidationError
		if _, err := Attach(p); !errors.As(err, &ve) {
			t.Errorf("%s: err = %v, want *ValidationError", name, err)
		}
		if err := ValidateAttach(p); !errors.As(err, &ve) {
			t.Errorf("%s: ValidateAttach = %v, want *ValidationError", name, err)
		}
	}

	// CD-ROM ignores the block size, so any value is accepted
	cmd, err := Attach(AttachParams{ID: 5, Type: pb.SCCD, BlockSize: ptr(1 << 31)})
	if err != nil || cmd.Devices[0].BlockSize != 0 {
		t.Errorf("cd with oversized block size: %+v %v", cmd, err)
	}
}

func TestAttachOrInsert(t *testing.T) {
	tests := []struct {
		name    string
		reqType pb.DeviceType
		current pb.DeviceType
		want    pb.Operation
	}{
		{"removable on removable", pb.SCRM, pb.SCRM, pb.Insert},
		{"cd on removable", pb.SCCD, pb.SCRM, pb.Insert},
		{"mo on cd", pb.SCMO, pb.SCCD, pb.Insert},
		{"removable on empty slot", pb.SCRM, pb.Undefined, pb.Attach},
		{"removable on hard disk", pb.SCRM, pb.SCHD, pb.Attach},
		{"hard disk on removable", pb.SCHD, pb.SCRM, pb.Attach},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := AttachOrInsert(AttachParams{ID: 2, Type: tt.reqType, Image: "media.img"}, tt.current)
			if err != nil {
				t.Fatalf("AttachOrInsert: %v", err)
			}
			if cmd.Operation != tt.want {
				t.Errorf("operation = %v, want %v", cmd.Operation, tt.want)
			}
		})
	}
}

func TestAttachOrInsertShapesInsert(t *testing.T) {
	cmd, err := AttachOrInsert(AttachParams{ID: 6, Type: pb.SCRM, Image: "zip.hda", BlockSize: ptr(512)}, pb.SCRM)
	if err != nil {
		t.Fatal(err)
	}
	want := &pb.Command{
		Operation: pb.Insert,
		Devices:   []*pb.DeviceDefinition{{ID: 6, Params: []string{"zip.hda"}}},
	}
	if diff := cmp.Diff(want, cmd); diff != "" {
		t.Errorf("command mismatch (-want +got):\n%s", diff)
	}
}

func TestSimpleBuilders(t *testing.T) {
	mustCmd := func(c *pb.Command, err error) *pb.Command {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		return c
	}
	dev := func(id int32) []*pb.DeviceDefinition { return []*pb.DeviceDefinition{{ID: id}} }

	tests := []struct {
		name string
		got  *pb.Command
		want *pb.Command
	}{
		{"detach", mustCmd(Detach(3)), &pb.Command{Operation: pb.Detach, Devices: dev(3)}},
		{"detach all", DetachAll(), &pb.Command{Operation: pb.DetachAll}},
		{"eject", mustCmd(Eject(0)), &pb.Command{Operation: pb.Eject, Devices: dev(0)}},
		{"reserve", Reserve("1,4"), &pb.Command{Operation: pb.Reserve, Params: []string{"1,4"}}},
		{"device info all", mustCmd(DeviceInfo(nil)), &pb.Command{Operation: pb.DeviceInfoOp}},
		{"device info one", mustCmd(DeviceInfo(ptr(5))), &pb.Command{Operation: pb.DeviceInfoOp, Devices: dev(5)}},
		{"server info", ServerInfo(), &pb.Command{Operation: pb.ServerInfoOp}},
		{"daynaport", mustCmd(AttachNetworkAdapter(6)),
			&pb.Command{Operation: pb.Attach, Devices: []*pb.DeviceDefinition{{ID: 6, Type: pb.SCDP}}}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, tt.got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestBuildersValidateBeforeShaping(t *testing.T) {
	if _, err := Detach(-1); err == nil {
		t.Error("Detach(-1) should fail")
	}
	if _, err := Eject(9); err == nil {
		t.Error("Eject(9) should fail")
	}
	if _, err := Insert(2, " "); err == nil {
		t.Error("Insert without image should fail")
	}
	if _, err := DeviceInfo(ptr(8)); err == nil {
		t.Error("DeviceInfo(8) should fail")
	}
}
