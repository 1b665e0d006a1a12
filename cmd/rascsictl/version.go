package main

import (
	"fmt"

	"github.com/blang/semver/v4"
	"github.com/spf13/cobra"

	"github.com/sigreer/rascsictl/internal/version"
)

var minServiceVersion = semver.MustParse(version.MinServiceVersion)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the client and RaSCSI service versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("rascsictl %s\n", version.Version)

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		res, err := s.client.ServerInfo(cmd.Context())
		if err != nil {
			return err
		}
		si, ok := res.ServerInfo()
		if !res.Status || !ok {
			return &rejectedError{what: "Version query", msg: res.Message}
		}

		fmt.Printf("RaSCSI %s at %s\n", si.Version(), s.client.Endpoint())
		if si.Semver().LT(minServiceVersion) {
			warnf("Warning: RaSCSI %s is older than %s; some commands may be rejected", si.Version(), minServiceVersion)
		}
		return nil
	},
}
