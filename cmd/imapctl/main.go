// Command imapctl inspects a mailbox server from the command line.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/emersion/go-imapsession/internal/config"
	"github.com/emersion/go-imapsession/internal/logging"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "imapctl",
		Short:         "imapctl - IMAP command line client",
		Long:          "Command line tool querying an IMAP server: capabilities, mailboxes, searches and quotas.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "configuration file (IMAPCTL_* environment variables override it)")

	// version works without a configuration
	rootCmd.AddCommand(versionCmd())

	for _, cmd := range []*cobra.Command{
		capsCmd(a),
		listCmd(a),
		statusCmd(a),
		searchCmd(a),
		sortCmd(a),
		quotaCmd(a),
	} {
		cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
			return a.load()
		}
		rootCmd.AddCommand(cmd)
	}

	return rootCmd
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.WithServer(logging.New(cfg.Logging), cfg.Server.Address)
	return nil
}
