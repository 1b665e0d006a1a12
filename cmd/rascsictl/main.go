package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sigreer/rascsictl/internal/client"
	"github.com/sigreer/rascsictl/internal/config"
	"github.com/sigreer/rascsictl/internal/db"
	"github.com/sigreer/rascsictl/internal/transport"
	"github.com/sigreer/rascsictl/internal/version"
)

var (
	cfgFile   string
	host      string
	port      int
	logLevel  string
	noJournal bool
)

var rootCmd = &cobra.Command{
	Use:   "rascsictl",
	Short: "Control a RaSCSI SCSI device emulator",
	Long: `rascsictl talks to a running RaSCSI service over its control port.
It attaches, detaches and swaps emulated SCSI devices and lists what is
currently on the bus.

Every command opens one connection, sends one request and exits. The
service is the only source of truth for device state; the local journal
only records what was asked and how it ended.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/rascsictl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&host, "host", "", "RaSCSI host (overrides config and "+config.EnvHost+")")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "RaSCSI control port (overrides config and "+config.EnvPort+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noJournal, "no-journal", false, "do not record commands in the local journal")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(validIDsCmd)
	rootCmd.AddCommand(typeCmd)
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(detachCmd)
	rootCmd.AddCommand(detachAllCmd)
	rootCmd.AddCommand(ejectCmd)
	rootCmd.AddCommand(insertCmd)
	rootCmd.AddCommand(daynaportCmd)
	rootCmd.AddCommand(reserveCmd)
	rootCmd.AddCommand(historyCmd)
}

// session is what a command needs to reach the service
type session struct {
	cfg     *config.Config
	client  *client.Client
	journal *db.DB
}

func (s *session) Close() {
	if s.journal != nil {
		s.journal.Close()
	}
}

// loadConfig reads the config and layers the command line flags on top
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if noJournal {
		cfg.Journal.Disabled = true
	}
	setupLogging(cfg.LogLevel)

	if err := config.DotEnvErr(); err != nil {
		log.Warn().Err(err).Msg("ignoring .env file")
	}
	log.Debug().
		Str("config", cfg.Source).
		Str("dotenv", config.DotEnvPath()).
		Str("endpoint", cfg.Transport().Address()).
		Msg("configuration loaded")
	return cfg, nil
}

// openSession builds a client for the configured endpoint. A journal that
// cannot be opened is logged and skipped; it never blocks a command.
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg}
	var opts []client.Option
	if !cfg.Journal.Disabled {
		j, err := db.New(cfg.Journal.Path)
		if err != nil {
			log.Debug().Err(err).Msg("command journal unavailable")
		} else {
			s.journal = j
			opts = append(opts, client.WithJournal(j))
		}
	}
	s.client = client.New(transport.New(cfg.Transport()), opts...)
	return s, nil
}

func setupLogging(level string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log.Logger

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// describe turns a failure into the message shown to the user
func describe(err error) string {
	var endpoint string
	if te, ok := asTransportError(err); ok {
		endpoint = te.Endpoint
	}

	switch transport.KindOf(err) {
	case transport.ServiceUnavailable:
		return fmt.Sprintf("Failed to connect to RaSCSI at %s with error: %v. Is the RaSCSI service running?",
			endpoint, errorCause(err))
	case transport.ConnectionLost:
		return fmt.Sprintf("Lost connection to RaSCSI at %s. Try again; if the issue persists, please report a bug.", endpoint)
	case transport.ProtocolError:
		return fmt.Sprintf("Did not get a valid response from RaSCSI at %s. Try again; if the issue persists, please report a bug.", endpoint)
	}
	return err.Error()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, describe(err))
		stop()
		os.Exit(1)
	}
}
