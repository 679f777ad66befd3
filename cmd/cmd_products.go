// cmd_products.go - Katalog Commands
// Hauptfunktionen: ListProductsHandler, AddProductHandler, DeleteProductHandler
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/7blacky7/imagematch/api"
)

// ListProductsHandler - Listet alle Produkte, optional gefiltert nach Kategorie
func ListProductsHandler(cmd *cobra.Command, args []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	resp, err := client.ListProducts(cmd.Context())
	if err != nil {
		return err
	}

	category, _ := cmd.Flags().GetString("category")
	products := make([]api.Product, 0, len(resp.Products))
	for _, p := range resp.Products {
		if category == "" || strings.EqualFold(p.Category, category) {
			products = append(products, p)
		}
	}

	if useJSON(cmd) {
		return printJSON(cmd.OutOrStdout(), products)
	}

	var data [][]string
	for _, p := range products {
		data = append(data, []string{p.ID[:min(8, len(p.ID))], truncate(p.Name, 32), p.Category, truncate(p.ImageURL, maxColumnWidth), p.CreatedAt.Local().Format(time.DateTime)})
	}

	table := newTable(cmd.OutOrStdout(), []string{"ID", "NAME", "CATEGORY", "IMAGE", "CREATED"})
	table.AppendBulk(data)
	table.Render()
	return nil
}

// AddProductHandler - Legt ein Produkt an
func AddProductHandler(cmd *cobra.Command, args []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	category, _ := cmd.Flags().GetString("category")
	p, err := client.CreateProduct(cmd.Context(), &api.CreateProductRequest{
		Name:     args[0],
		Category: category,
		ImageURL: args[1],
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), p.ID)
	return nil
}

// DeleteProductHandler - Entfernt Produkte per ID
func DeleteProductHandler(cmd *cobra.Command, args []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	for _, id := range args {
		if err := client.DeleteProduct(cmd.Context(), id); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted '%s'\n", id)
	}
	return nil
}

// newProductsCmd - Erstellt den products Command mit Unterbefehlen
func newProductsCmd() *cobra.Command {
	productsCmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"catalog"},
		Short:   "Manage the product catalog",
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List products",
		Args:    cobra.ExactArgs(0),
		PreRunE: checkServerHeartbeat,
		RunE:    ListProductsHandler,
	}
	listCmd.Flags().String("category", "", "Only show products of this category")
	listCmd.Flags().Bool("json", false, "Print JSON instead of a table")

	addCmd := &cobra.Command{
		Use:     "add NAME IMAGE_URL",
		Short:   "Add a product",
		Args:    cobra.ExactArgs(2),
		PreRunE: checkServerHeartbeat,
		RunE:    AddProductHandler,
	}
	addCmd.Flags().String("category", "", "Product category")

	rmCmd := &cobra.Command{
		Use:     "rm ID [ID...]",
		Short:   "Remove products",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: checkServerHeartbeat,
		RunE:    DeleteProductHandler,
	}

	productsCmd.AddCommand(listCmd, addCmd, rmCmd)
	return productsCmd
}
