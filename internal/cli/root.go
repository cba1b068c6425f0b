package cli

import (
	"errors"
	"fmt"

	"catalog-mirror/config"

	"github.com/spf13/cobra"
)

// errCommandRequired is returned when the binary is run without a command
var errCommandRequired = errors.New("a command is required")

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool

	loadConfig func() (*config.Config, error)
}

// NewRootCommand creates the root command for the catalog mirror CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{loadConfig: config.Load}

	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Mirror a Shopify catalog and its orders into a local store",
		Long: `Mirror products and orders from the Shopify Admin API into a local
relational store and export them in a platform-agnostic JSON shape.`,
		SilenceUsage: true,
		Args:         cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			if len(args) > 0 {
				return fmt.Errorf("unknown command %q", args[0])
			}
			return errCommandRequired
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log every page fetch")

	cmd.AddCommand(NewSyncProductsCommand(opts))
	cmd.AddCommand(NewSyncOrdersCommand(opts))
	cmd.AddCommand(NewGetProductsCommand(opts))
	cmd.AddCommand(NewGetOrdersCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}
