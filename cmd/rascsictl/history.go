package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sigreer/rascsictl/internal/db"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show commands recorded in the local journal",
	Long: `Show the commands this machine sent to RaSCSI and how each ended.

Outcomes:
  ok        the service accepted the command
  rejected  the service answered but declined it
  failed    no answer: service down, connection lost or a bad response

Examples:
  rascsictl history                     # Last 20 commands
  rascsictl history --operation ATTACH  # Only attach commands
  rascsictl history --failures 24h      # Transport failures in the last day`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of entries to show")
	historyCmd.Flags().String("operation", "", "only show this operation, e.g. ATTACH")
	historyCmd.Flags().Duration("failures", 0, "only show transport failures within this window, e.g. 24h")
	historyCmd.Flags().Bool("json", false, "Output as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	operation, _ := cmd.Flags().GetString("operation")
	failures, _ := cmd.Flags().GetDuration("failures")
	jsonOut, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Journal.Disabled {
		return errors.New("the command journal is disabled")
	}

	journal, err := db.New(cfg.Journal.Path)
	if err != nil {
		return errors.Wrap(err, "open command journal")
	}
	defer journal.Close()

	ctx := cmd.Context()
	var entries []*db.Entry
	switch {
	case failures > 0:
		entries, err = journal.FailuresSince(ctx, time.Now().Add(-failures))
	case operation != "":
		entries, err = journal.CommandsByOperation(ctx, strings.ToUpper(operation), limit)
	default:
		entries, err = journal.RecentCommands(ctx, limit)
	}
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No commands recorded")
		return nil
	}

	fmt.Printf("%-16s %-12s %-4s %-9s %-8s %s\n", "WHEN", "OPERATION", "ID", "OUTCOME", "TOOK", "MESSAGE")
	fmt.Println(strings.Repeat("-", 90))
	for _, e := range entries {
		id := "-"
		if e.SCSIID != nil {
			id = strconv.Itoa(*e.SCSIID)
		}
		fmt.Printf("%-16s %-12s %-4s %-9s %-8s %s\n",
			humanize.Time(e.Timestamp), e.Operation, id, e.Outcome,
			e.Duration.Round(time.Millisecond), entryMessage(e))
	}

	total, ok, rejected, failed, err := journal.CommandCount(ctx)
	if err == nil {
		fmt.Printf("\n%s commands recorded: %d ok, %d rejected, %d failed\n", humanize.Comma(int64(total)), ok, rejected, failed)
	}
	return nil
}

// entryMessage summarises a journal entry; failures show their kind and, when
// known, how many connection attempts were made
func entryMessage(e *db.Entry) string {
	if e.Outcome != db.OutcomeFailed || e.ErrorKind == "" {
		return e.Message
	}
	if e.Attempts <= 0 {
		return e.ErrorKind
	}
	return fmt.Sprintf("%s after %s", e.ErrorKind, english.Plural(e.Attempts, "attempt", ""))
}
