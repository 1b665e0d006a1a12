package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/sigreer/rascsictl/internal/command"
	"github.com/sigreer/rascsictl/internal/db"
	"github.com/sigreer/rascsictl/internal/inventory"
	"github.com/sigreer/rascsictl/internal/pb"
	"github.com/sigreer/rascsictl/internal/result"
	"github.com/sigreer/rascsictl/internal/transport"
)

func TestParseIDList(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"", []int{}, false},
		{"7", []int{7}, false},
		{"0, 7,", []int{0, 7}, false},
		{"1,8", nil, true},
		{"a", nil, true},
	}
	for _, tt := range tests {
		got, err := parseIDList(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseIDList(%q) err = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && !cmp.Equal(got, tt.want) {
			t.Errorf("parseIDList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{
			&transport.Error{Kind: transport.ServiceUnavailable, Endpoint: "pi:6868", Attempts: 100, Err: errors.New("connection refused")},
			"Failed to connect to RaSCSI at pi:6868 with error: connection refused. Is the RaSCSI service running?",
		},
		{
			&transport.Error{Kind: transport.ConnectionLost, Endpoint: "pi:6868", Err: errors.New("EOF")},
			"Lost connection to RaSCSI at pi:6868.",
		},
		{
			&transport.Error{Kind: transport.ProtocolError, Endpoint: "pi:6868", Err: errors.New("short header")},
			"Did not get a valid response from RaSCSI at pi:6868.",
		},
		{
			&rejectedError{what: "Detach ID 3", msg: "No device for ID 3, unit 0"},
			"Detach ID 3 was rejected by RaSCSI: No device for ID 3, unit 0",
		},
	}
	for _, tt := range tests {
		if got := describe(tt.err); !strings.HasPrefix(got, tt.want) {
			t.Errorf("describe(%v) = %q, want prefix %q", tt.err, got, tt.want)
		}
	}
}

func TestAttachParams(t *testing.T) {
	cmd := &cobra.Command{Use: "attach"}
	cmd.Flags().Int("unit", 0, "")
	cmd.Flags().String("param", "", "")
	cmd.Flags().String("vendor", "", "")
	cmd.Flags().String("product", "", "")
	cmd.Flags().String("revision", "", "")
	cmd.Flags().Int("block-size", 0, "")
	if err := cmd.Flags().Parse([]string{"--unit", "1", "--vendor", "QUANTUM", "--product", "FIREBALL", "--revision", "", "--block-size", "1024"}); err != nil {
		t.Fatal(err)
	}

	p, err := attachParams(cmd, []string{"3", "schd", "disk.hds"})
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != 3 || p.Type != pb.SCHD || p.Image != "disk.hds" || p.Unit != 1 {
		t.Errorf("p = %+v", p)
	}
	if p.Vendor == nil || *p.Vendor != "QUANTUM" || p.Revision == nil || *p.Revision != "" {
		t.Errorf("inquiry fields = %v %v %v", p.Vendor, p.Product, p.Revision)
	}
	if p.BlockSize == nil || *p.BlockSize != 1024 {
		t.Errorf("block size = %v", p.BlockSize)
	}

	var ve *command.ValidationError
	if _, err := attachParams(cmd, []string{"3", "floppy"}); !errors.As(err, &ve) {
		t.Errorf("unknown type err = %v", err)
	}
	if _, err := attachParams(cmd, []string{"9", "SCHD"}); !errors.As(err, &ve) {
		t.Errorf("bad id err = %v", err)
	}
}

func TestEmptyDeviceListEncodesAsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := inventory.PrintJSON(&buf, deviceViews(nil)); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("json = %q, want []", got)
	}

	views := deviceViews([]result.DeviceRecord{{ID: 3, Type: "SCHD"}})
	if len(views) != 1 || views[0].ID != 3 || views[0].Padding {
		t.Errorf("views = %+v", views)
	}
}

func TestEntryMessage(t *testing.T) {
	tests := []struct {
		name string
		e    db.Entry
		want string
	}{
		{"ok", db.Entry{Outcome: db.OutcomeOK, Message: "done"}, "done"},
		{"rejected", db.Entry{Outcome: db.OutcomeRejected, Message: "No device for ID 3, unit 0"}, "No device for ID 3, unit 0"},
		{"unreachable", db.Entry{Outcome: db.OutcomeFailed, ErrorKind: "service unavailable", Attempts: 100}, "service unavailable after 100 attempts"},
		{"single attempt", db.Entry{Outcome: db.OutcomeFailed, ErrorKind: "connection lost", Attempts: 1}, "connection lost after 1 attempt"},
		{"undecodable response", db.Entry{Outcome: db.OutcomeFailed, ErrorKind: "protocol error"}, "protocol error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entryMessage(&tt.e); got != tt.want {
				t.Errorf("entryMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
