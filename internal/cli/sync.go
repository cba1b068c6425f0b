package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"catalog-mirror/internal/service"

	"github.com/spf13/cobra"
)

// NewSyncProductsCommand creates the sync-products command.
func NewSyncProductsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-products",
		Short: "Fetch every remote product and upsert it into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, rootOpts, "Synced products", (*service.SyncService).SyncProducts)
		},
	}
}

// NewSyncOrdersCommand creates the sync-orders command.
func NewSyncOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-orders",
		Short: "Fetch remote orders and their line items into the store",
		Long: `Fetch remote orders of any status and store each one with its line
items. Orders already in the store are left untouched. Pagination stops at
SYNC_ORDER_CAP fetched orders.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, rootOpts, "Synced orders", (*service.SyncService).SyncOrders)
		},
	}
}

type syncFunc func(*service.SyncService, context.Context) (*service.SyncResult, error)

func runSync(cmd *cobra.Command, rootOpts *RootOptions, label string, run syncFunc) error {
	a, err := newApp(rootOpts)
	if err != nil {
		return err
	}
	defer a.close()

	svc, err := a.syncService()
	if err != nil {
		return err
	}

	result, err := run(svc, cmd.Context())
	a.pushMetrics(serviceName + "-" + cmd.Name())
	if err != nil {
		return err
	}

	printSyncResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), label, result)
	return nil
}

func printSyncResult(out, errOut io.Writer, label string, result *service.SyncResult) {
	fmt.Fprintf(out, "%s: %d\n", label, result.Processed)
	if result.Skipped > 0 {
		fmt.Fprintf(errOut, "Skipped %d malformed %s records\n", result.Skipped, result.Resource)
	}
	if len(result.Unresolved) > 0 {
		fmt.Fprintf(errOut, "Unresolved orders, line items dropped: %s\n", strings.Join(result.Unresolved, ", "))
	}
}
