// Package cli implements the mediasweep command line.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dfryer1193/mediasweep/internal/config"
	"github.com/dfryer1193/mediasweep/internal/logging"
)

// options is shared by all subcommands; cfg is populated before any subcommand runs
type options struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	opts := &options{v: config.New()}

	root := &cobra.Command{
		Use:           "mediasweep",
		Short:         "Find and remove unused images from a WordPress media library",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.v, opts.cfgFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg

			return logging.Setup(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is ./mediasweep.yaml)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	_ = opts.v.BindPFlag("log.level", flags.Lookup("log-level"))

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newScanCommand(opts))
	root.AddCommand(newSweepCommand(opts))

	return root
}

// Execute runs the root command and reports errors on stderr
func Execute(ctx context.Context) error {
	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}
