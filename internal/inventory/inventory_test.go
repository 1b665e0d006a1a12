package inventory

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/sigreer/rascsictl/internal/result"
)

func TestValidIDs(t *testing.T) {
	tests := []struct {
		name     string
		devices  []result.DeviceRecord
		excluded []int
		occupied []int
		want     []int
	}{
		{
			name:     "empty bus",
			want:     []int{7, 6, 5, 4, 3, 2, 1, 0},
			occupied: []int{},
		},
		{
			name:     "occupied ids removed",
			devices:  []result.DeviceRecord{{ID: 0}, {ID: 2}, {ID: 5}},
			occupied: []int{0, 2, 5},
			want:     []int{7, 6, 4, 3, 1},
		},
		{
			name:     "no media frees its id",
			devices:  []result.DeviceRecord{{ID: 0}, {ID: 2, Status: result.NoMedia}, {ID: 5}},
			occupied: []int{0, 2, 5},
			want:     []int{7, 6, 4, 3, 2, 1},
		},
		{
			name:     "excluded and occupied overlap",
			devices:  []result.DeviceRecord{{ID: 1}, {ID: 3}},
			excluded: []int{3, 7, 7},
			occupied: []int{1, 3},
			want:     []int{6, 5, 4, 2, 0},
		},
		{
			name:     "excluded beats no media",
			devices:  []result.DeviceRecord{{ID: 4, Status: result.NoMedia | result.Locked}},
			excluded: []int{4},
			occupied: []int{4},
			want:     []int{7, 6, 5, 3, 2, 1, 0},
		},
		{
			name: "second unit with media keeps id occupied",
			devices: []result.DeviceRecord{
				{ID: 6, Unit: 0, Status: result.NoMedia},
				{ID: 6, Unit: 1},
			},
			occupied: []int{6, 6},
			want:     []int{7, 5, 4, 3, 2, 1, 0},
		},
		{
			name:     "out of range ids ignored",
			excluded: []int{-1, 9},
			occupied: []int{},
			want:     []int{7, 6, 5, 4, 3, 2, 1, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidIDs(tt.devices, tt.excluded, tt.occupied)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ValidIDs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidIDsLeavesInputsAlone(t *testing.T) {
	occupied := []int{2, 5}
	excluded := []int{1}
	ValidIDs([]result.DeviceRecord{{ID: 2, Status: result.NoMedia}}, excluded, occupied)

	if diff := cmp.Diff([]int{2, 5}, occupied); diff != "" {
		t.Errorf("occupied modified:\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, excluded); diff != "" {
		t.Errorf("excluded modified:\n%s", diff)
	}
}

func TestSortAndPadAlwaysCoversBus(t *testing.T) {
	// every subset of the bus
	for mask := 0; mask < 1<<8; mask++ {
		var devices []result.DeviceRecord
		var occupied []int
		// feed devices in descending order to exercise the sort
		for id := 7; id >= 0; id-- {
			if mask&(1<<id) != 0 {
				devices = append(devices, result.DeviceRecord{ID: id, Type: "SCHD", File: "d.hds", Product: "DISK"})
				occupied = append(occupied, id)
			}
		}

		views := SortAndPad(devices, occupied)
		if len(views) != 8 {
			t.Fatalf("mask %08b: %d rows, want 8", mask, len(views))
		}
		for i, v := range views {
			if v.ID != i {
				t.Fatalf("mask %08b: row %d has id %d", mask, i, v.ID)
			}
			taken := mask&(1<<i) != 0
			if v.Padding == taken {
				t.Errorf("mask %08b: id %d padding = %v", mask, i, v.Padding)
			}
			if !taken && (v.Type != "-" || v.Status != "-" || v.File != "-" || v.Product != "-") {
				t.Errorf("mask %08b: padding row %+v lacks placeholders", mask, v)
			}
		}
	}
}

func TestSortAndPadKeepsUnitsTogether(t *testing.T) {
	devices := []result.DeviceRecord{
		{ID: 3, Unit: 1, Type: "SCHD"},
		{ID: 1, Unit: 0, Type: "SCCD", Status: result.NoMedia},
		{ID: 3, Unit: 0, Type: "SCHD"},
	}
	views := SortAndPad(devices, []int{3, 1, 3})

	if len(views) != 9 {
		t.Fatalf("%d rows, want 9", len(views))
	}
	if views[1].Type != "SCCD" || views[1].Status != "No Media" {
		t.Errorf("row 1 = %+v", views[1])
	}
	if views[3].Unit != 1 || views[4].Unit != 0 || views[3].ID != 3 || views[4].ID != 3 {
		t.Errorf("units at id 3 reordered: %+v, %+v", views[3], views[4])
	}
}

func TestPrintTable(t *testing.T) {
	views := SortAndPad([]result.DeviceRecord{
		{ID: 2, Type: "SCRM", Status: result.NoMedia, Vendor: "IOMEGA", Product: "ZIP 100"},
	}, []int{2})

	var buf bytes.Buffer
	PrintTable(&buf, views)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	if len(lines) != 10 {
		t.Fatalf("%d lines, want header, rule and 8 rows:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[4], "No Media") || !strings.Contains(lines[4], "IOMEGA ZIP 100") {
		t.Errorf("device row = %q", lines[4])
	}
	if fields := strings.Fields(lines[2]); len(fields) != 6 || fields[1] != "-" {
		t.Errorf("padding row = %q", lines[2])
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, SortAndPad(nil, nil)); err != nil {
		t.Fatal(err)
	}
	var rows []DeviceView
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 8 || !rows[0].Padding {
		t.Errorf("rows = %+v", rows)
	}
}

func TestPrintIDs(t *testing.T) {
	var buf bytes.Buffer
	PrintIDs(&buf, []int{7, 4, 1})
	if buf.String() != "7,4,1\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"disk.hds", 28, "disk.hds"},
		{"ディスクイメージ.hds", 12, "ディスクイメージ.hds"},
		{"ディスクイメージ_バックアップ_2024.hds", 10, "ディスクイメー..."},
		{"abcdefghij", 8, "abcde..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}
