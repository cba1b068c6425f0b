package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"catalog-mirror/internal/models"
	"catalog-mirror/internal/service"

	"github.com/spf13/cobra"
)

// NewGetProductsCommand creates the get-products command.
func NewGetProductsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get-products",
		Short: "Export stored products to OUTPUT_DIR/products.unified.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, rootOpts, models.ResourceProducts, (*service.CatalogReader).ProductsJSON)
		},
	}
}

// NewGetOrdersCommand creates the get-orders command.
func NewGetOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get-orders",
		Short: "Export stored orders to OUTPUT_DIR/orders.unified.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, rootOpts, models.ResourceOrders, (*service.CatalogReader).OrdersJSON)
		},
	}
}

type exportFunc func(*service.CatalogReader, context.Context) ([]byte, error)

// runExport always reads the store directly; the cache only serves the API.
func runExport(cmd *cobra.Command, rootOpts *RootOptions, resource string, export exportFunc) error {
	a, err := newApp(rootOpts)
	if err != nil {
		return err
	}
	defer a.close()

	data, err := export(service.NewCatalogReader(a.store, nil), cmd.Context())
	if err != nil {
		return err
	}

	path, err := writeExport(a.cfg.Output.Dir, resource, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s written\n", path)
	return nil
}

func writeExport(dir, resource string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, resource+".unified.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
