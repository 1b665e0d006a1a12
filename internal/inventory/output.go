package inventory

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PrintJSON outputs the rows as JSON
func PrintJSON(w io.Writer, views []DeviceView) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(views)
}

// PrintTable outputs the rows as a formatted table
func PrintTable(w io.Writer, views []DeviceView) {
	fmt.Fprintf(w, "%-3s %-4s %-5s %-30s %-28s %s\n", "ID", "LUN", "TYPE", "STATUS", "FILE", "PRODUCT")
	fmt.Fprintln(w, strings.Repeat("-", 90))

	for _, v := range views {
		unit := strconv.Itoa(v.Unit)
		if v.Padding {
			unit = Placeholder
		}
		fmt.Fprintf(w, "%-3d %-4s %-5s %-30s %-28s %s\n",
			v.ID, unit, v.Type, orDash(v.Status), orDash(truncate(v.File, 28)), orDash(product(v)))
	}
}

// PrintIDs outputs IDs as a comma separated line
func PrintIDs(w io.Writer, ids []int) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	fmt.Fprintln(w, strings.Join(parts, ","))
}

// PrintIDsJSON outputs IDs as a JSON array; an empty list prints []
func PrintIDsJSON(w io.Writer, ids []int) error {
	if ids == nil {
		ids = []int{}
	}
	return json.NewEncoder(w).Encode(ids)
}

// product joins vendor, product and revision for display
func product(v DeviceView) string {
	if v.Padding {
		return v.Product
	}
	var parts []string
	for _, s := range []string{v.Vendor, v.Product, v.Revision} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func orDash(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
