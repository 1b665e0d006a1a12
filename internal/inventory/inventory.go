// Package inventory reconciles a device listing into the set of free SCSI IDs
// and a display table covering the whole bus.
package inventory

import (
	"sort"

	"github.com/samber/lo"

	"github.com/sigreer/rascsictl/internal/command"
	"github.com/sigreer/rascsictl/internal/result"
)

// Placeholder fills the text columns of a padding row
const Placeholder = "-"

// DeviceView is one display row
type DeviceView struct {
	ID        int      `json:"id"`
	Unit      int      `json:"unit"`
	Type      string   `json:"type"`
	Status    string   `json:"status"`
	Path      string   `json:"path,omitempty"`
	File      string   `json:"file"`
	Params    []string `json:"params,omitempty"`
	Vendor    string   `json:"vendor,omitempty"`
	Product   string   `json:"product"`
	Revision  string   `json:"revision,omitempty"`
	BlockSize int      `json:"block_size,omitempty"`

	// Padding marks a row standing in for an ID with no device
	Padding bool `json:"padding,omitempty"`
}

// ValidIDs returns the IDs open for a new attachment, highest first.
//
// An ID is open when it is neither excluded nor occupied. A device reporting
// No Media releases one occurrence of its ID from occupied first, so new media
// can be attached on top of an empty removable drive. Neither input slice is
// modified.
func ValidIDs(devices []result.DeviceRecord, excluded, occupied []int) []int {
	taken := append([]int(nil), occupied...)
	for _, d := range devices {
		if !d.Status.Has(result.NoMedia) {
			continue
		}
		if i := lo.IndexOf(taken, d.ID); i >= 0 {
			taken = append(taken[:i], taken[i+1:]...)
		}
	}

	invalid := lo.Uniq(append(append([]int(nil), excluded...), taken...))

	// highest first; callers preselect the first entry
	valid := make([]int, 0, command.MaxID+1)
	for id := command.MaxID; id >= 0; id-- {
		if !lo.Contains(invalid, id) {
			valid = append(valid, id)
		}
	}
	return valid
}

// NewDeviceView flattens a device record into a row
func NewDeviceView(d result.DeviceRecord) DeviceView {
	return DeviceView{
		ID:        d.ID,
		Unit:      d.Unit,
		Type:      d.Type,
		Status:    d.Status.String(),
		Path:      d.Path,
		File:      d.File,
		Params:    d.Params,
		Vendor:    d.Vendor,
		Product:   d.Product,
		Revision:  d.Revision,
		BlockSize: d.BlockSize,
	}
}

func paddingView(id int) DeviceView {
	return DeviceView{
		ID:      id,
		Type:    Placeholder,
		Status:  Placeholder,
		File:    Placeholder,
		Product: Placeholder,
		Padding: true,
	}
}

// SortAndPad returns a row per device plus a padding row for every ID on the
// bus missing from occupied, ordered by ID. Rows sharing an ID keep the
// service's order.
//
// Rows are ordered numerically. Older front ends compared the IDs as strings;
// for the single-digit IDs of the bus both orders are the same.
func SortAndPad(devices []result.DeviceRecord, occupied []int) []DeviceView {
	views := lo.Map(devices, func(d result.DeviceRecord, _ int) DeviceView {
		return NewDeviceView(d)
	})
	for id := 0; id <= command.MaxID; id++ {
		if !lo.Contains(occupied, id) {
			views = append(views, paddingView(id))
		}
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].ID < views[j].ID
	})
	return views
}
