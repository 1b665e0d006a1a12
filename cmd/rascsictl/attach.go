package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigreer/rascsictl/internal/command"
	"github.com/sigreer/rascsictl/internal/pb"
)

var attachCmd = &cobra.Command{
	Use:   "attach <id> <type> [image]",
	Short: "Attach an emulated device",
	Long: `Attach an emulated device at a SCSI ID.

Types:
  SAHD  SASI hard disk        SCHD  SCSI hard disk
  SCRM  removable disk        SCMO  magneto-optical
  SCCD  CD-ROM                SCBR  host bridge
  SCDP  DaynaPort network adapter

If a removable drive (SCRM, SCMO, SCCD) is already attached at the ID and
the requested type is removable too, the image is inserted into that drive
instead of attaching a second one.

Vendor, product and revision must be given together. The block size is
ignored for CD-ROM drives, which always use 2048 byte sectors.

Examples:
  rascsictl attach 0 SCHD /home/pi/images/boot.hds
  rascsictl attach 5 SCCD                          # Empty CD-ROM drive
  rascsictl attach 5 SCCD /home/pi/images/os.iso   # Insert into the drive
  rascsictl attach 1 SCHD big.hds --block-size 1024 \
      --vendor QUANTUM --product FIREBALL --revision 1.0`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runAttach,
}

var detachCmd = &cobra.Command{
	Use:   "detach <id>",
	Short: "Detach the device at a SCSI ID",
	Args:  cobra.ExactArgs(1),
	RunE: withID(func(cmd *cobra.Command, s *session, id int) error {
		res, err := s.client.Detach(cmd.Context(), id)
		if err != nil {
			return err
		}
		return report(res, fmt.Sprintf("Detach ID %d", id))
	}),
}

var detachAllCmd = &cobra.Command{
	Use:   "detach-all",
	Short: "Detach every device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.client.DetachAll(cmd.Context())
		if err != nil {
			return err
		}
		return report(res, "Detach all")
	},
}

var ejectCmd = &cobra.Command{
	Use:   "eject <id>",
	Short: "Eject the media from a removable drive",
	Args:  cobra.ExactArgs(1),
	RunE: withID(func(cmd *cobra.Command, s *session, id int) error {
		res, err := s.client.Eject(cmd.Context(), id)
		if err != nil {
			return err
		}
		return report(res, fmt.Sprintf("Eject ID %d", id))
	}),
}

var insertCmd = &cobra.Command{
	Use:   "insert <id> <image>",
	Short: "Insert an image into a removable drive",
	Long: `Insert an image into the removable drive at a SCSI ID. If media is
already loaded the service replaces it.`,
	Args: cobra.ExactArgs(2),
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

		res, err := s.client.Insert(cmd.Context(), id, args[1])
		if err != nil {
			return err
		}
		return report(res, fmt.Sprintf("Insert %s into ID %d", args[1], id))
	},
}

var daynaportCmd = &cobra.Command{
	Use:   "daynaport <id>",
	Short: "Attach a DaynaPort network adapter",
	Args:  cobra.ExactArgs(1),
	RunE: withID(func(cmd *cobra.Command, s *session, id int) error {
		res, err := s.client.AttachNetworkAdapter(cmd.Context(), id)
		if err != nil {
			return err
		}
		return report(res, fmt.Sprintf("Attach network adapter at ID %d", id))
	}),
}

var reserveCmd = &cobra.Command{
	Use:   "reserve <ids>",
	Short: "Reserve SCSI IDs so nothing can be attached there",
	Long: `Replace the list of reserved SCSI IDs with a comma separated list,
e.g. "0,7". An empty argument ("") releases every reservation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// validated locally so typos never reach the service
		if _, err := parseIDList(args[0]); err != nil {
			return err
		}
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.client.ReserveIDs(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return report(res, "Reserve IDs")
	},
}

func init() {
	attachCmd.Flags().Int("unit", 0, "logical unit number")
	attachCmd.Flags().String("param", "", "device parameter, e.g. interface list for SCDP")
	attachCmd.Flags().String("vendor", "", "SCSI vendor name")
	attachCmd.Flags().String("product", "", "SCSI product name")
	attachCmd.Flags().String("revision", "", "SCSI revision")
	attachCmd.Flags().Int("block-size", 0, "sector size in bytes")
}

// withID parses the SCSI ID argument and opens a session before run
func withID(run func(cmd *cobra.Command, s *session, id int) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		id, err := command.ParseID(args[0])
		if err != nil {
			return err
		}
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()
		return run(cmd, s, id)
	}
}

func runAttach(cmd *cobra.Command, args []string) error {
	p, err := attachParams(cmd, args)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.client.Attach(cmd.Context(), p)
	if err != nil {
		return err
	}
	return report(res, fmt.Sprintf("Attach %s at ID %d", p.Type, p.ID))
}

func attachParams(cmd *cobra.Command, args []string) (command.AttachParams, error) {
	id, err := command.ParseID(args[0])
	if err != nil {
		return command.AttachParams{}, err
	}
	typ, err := pb.ParseDeviceType(args[1])
	if err != nil {
		return command.AttachParams{}, &command.ValidationError{Field: "device type", Value: args[1], Msg: err.Error()}
	}

	p := command.AttachParams{ID: id, Type: typ}
	if len(args) > 2 {
		p.Image = args[2]
	}

	flags := cmd.Flags()
	p.Unit, _ = flags.GetInt("unit")
	p.Param, _ = flags.GetString("param")
	for name, dst := range map[string]**string{
		"vendor":   &p.Vendor,
		"product":  &p.Product,
		"revision": &p.Revision,
	} {
		if flags.Changed(name) {
			v, _ := flags.GetString(name)
			*dst = &v
		}
	}
	if flags.Changed("block-size") {
		bs, _ := flags.GetInt("block-size")
		p.BlockSize = &bs
	}
	return p, nil
}
