// Command blogctl is the operator tool for a blog data directory.
package main

import (
	"fmt"
	"go-blog-app/internal/config"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options are the flags shared by every subcommand.
type options struct {
	dataDir  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "blogctl",
		Short:         "Maintenance commands for the blog's data directory",
		Long:          "blogctl works on the same config.yml / BLOG_* environment as the server.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "override storage.dataDir")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level")

	root.AddCommand(
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "blogctl %s\n", version)
			},
		},
		newMigrateManifestsCmd(opts),
		newSignURLCmd(opts),
		newPruneCacheCmd(opts),
	)
	return root
}

// load reads the configuration and applies the command-line overrides.
func (o *options) load() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.dataDir != "" {
		cfg.Storage.DataDir = o.dataDir
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}
