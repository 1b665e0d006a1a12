package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigreer/rascsictl/internal/command"
	"github.com/sigreer/rascsictl/internal/inventory"
	"github.com/sigreer/rascsictl/internal/result"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices on the SCSI bus",
	Long: `List the devices currently attached to RaSCSI.

Without --id the table has one row per SCSI ID 0-7; IDs with nothing
attached are shown with "-" placeholders.

Status flags only appear when the device supports them:
  Read-Only        media can never be written
  Write-Protected  media is protected (protectable devices)
  No Media         no image loaded (removable devices)
  Locked           media is locked in the drive (lockable devices)

Examples:
  rascsictl devices                  # Full bus table
  rascsictl devices --id 3           # Only ID 3
  rascsictl devices --json           # Machine readable`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

var validIDsCmd = &cobra.Command{
	Use:   "valid-ids",
	Short: "Show the SCSI IDs a new device may use",
	Long: `Show the SCSI IDs a new device can be attached to, highest first.

An ID is usable when nothing is attached there, or when the device there is
a removable drive with no media loaded. IDs given with --exclude are never
offered; ID 7 is excluded by default since it is usually the host adapter.`,
	Args: cobra.NoArgs,
	RunE: runValidIDs,
}

var typeCmd = &cobra.Command{
	Use:   "type <id>",
	Short: "Show the type of the device at a SCSI ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := command.ParseID(args[0])
		if err != nil {
			return err
		}
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		typ, err := s.client.DeviceType(cmd.Context(), id)
		if err != nil {
			return err
		}
		if typ == "" {
			fmt.Printf("No device attached at ID %d\n", id)
			return nil
		}
		fmt.Println(typ)
		return nil
	},
}

func init() {
	devicesCmd.Flags().Int("id", -1, "only show the device at this SCSI ID")
	devicesCmd.Flags().Bool("json", false, "Output as JSON")

	validIDsCmd.Flags().String("exclude", "7", "comma separated IDs never to offer")
	validIDsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runDevices(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	idFlag, _ := cmd.Flags().GetInt("id")

	var id *int
	if cmd.Flags().Changed("id") {
		if err := command.ValidateID(idFlag); err != nil {
			return err
		}
		id = &idFlag
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	devices, occupied, err := s.client.ListDevices(cmd.Context(), id)
	if err != nil {
		return err
	}

	var views []inventory.DeviceView
	if id == nil {
		views = s.client.SortAndPad(devices, occupied)
	} else {
		views = deviceViews(devices)
		if len(views) == 0 && !jsonOut {
			fmt.Printf("No device attached at ID %d\n", *id)
			return nil
		}
	}

	if jsonOut {
		return inventory.PrintJSON(os.Stdout, views)
	}
	inventory.PrintTable(os.Stdout, views)
	return nil
}

// deviceViews turns records into rows without padding; never nil, so an
// empty listing encodes as []
func deviceViews(devices []result.DeviceRecord) []inventory.DeviceView {
	views := make([]inventory.DeviceView, 0, len(devices))
	for _, d := range devices {
		views = append(views, inventory.NewDeviceView(d))
	}
	return views
}

func runValidIDs(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	excludeFlag, _ := cmd.Flags().GetString("exclude")

	excluded, err := parseIDList(excludeFlag)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	devices, occupied, err := s.client.ListDevices(cmd.Context(), nil)
	if err != nil {
		return err
	}
	ids := s.client.ComputeValidIDs(devices, excluded, occupied)

	if jsonOut {
		return inventory.PrintIDsJSON(os.Stdout, ids)
	}
	if len(ids) == 0 {
		warnf("No free SCSI IDs")
		return nil
	}
	inventory.PrintIDs(os.Stdout, ids)
	return nil
}
