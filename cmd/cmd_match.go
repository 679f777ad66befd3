// cmd_match.go - match Command
// Hauptfunktionen: MatchHandler
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/7blacky7/imagematch/api"
)

// MatchHandler - Rankt Kandidaten-URLs (oder den Katalog) gegen ein Referenzbild
func MatchHandler(cmd *cobra.Command, args []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	products, _ := cmd.Flags().GetBool("products")
	if products {
		return matchProducts(cmd, client, args[0])
	}

	if len(args) < 2 {
		return fmt.Errorf("at least one candidate image URL is required")
	}

	data, name, err := loadImage(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	resp, err := client.MatchImages(cmd.Context(), &api.MatchImagesRequest{
		Image:     data,
		Filename:  name,
		ImageURLs: args[1:],
	})
	if err != nil {
		return err
	}

	if useJSON(cmd) {
		return printJSON(cmd.OutOrStdout(), resp.Matches)
	}

	table := newTable(cmd.OutOrStdout(), []string{"RANK", "SIMILARITY", "IMAGE"})
	for i, m := range resp.Matches {
		table.Append([]string{fmt.Sprint(i + 1), fmt.Sprintf("%.4f", m.Similarity), truncate(m.ImageURL, maxColumnWidth)})
	}
	table.Render()

	if resp.Failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d candidate(s) could not be compared\n", resp.Failed, len(args)-1)
	}
	return nil
}

// matchProducts - Referenz gegen alle Katalog-Produkte. URLs werden vom Server geladen.
func matchProducts(cmd *cobra.Command, client *api.Client, ref string) error {
	req := &api.ProductMatchRequest{}
	if isURL(ref) {
		req.ImageURL = ref
	} else {
		data, name, err := loadImage(cmd.Context(), ref)
		if err != nil {
			return err
		}
		req.Image, req.Filename = data, name
	}

	matches, err := client.MatchProducts(cmd.Context(), req)
	if err != nil {
		return err
	}

	if useJSON(cmd) {
		return printJSON(cmd.OutOrStdout(), matches)
	}

	table := newTable(cmd.OutOrStdout(), []string{"RANK", "SIMILARITY", "NAME", "CATEGORY", "IMAGE"})
	for i, m := range matches {
		table.Append([]string{fmt.Sprint(i + 1), fmt.Sprintf("%.4f", m.Similarity), truncate(m.Name, 32), m.Category, truncate(m.ImageURL, maxColumnWidth)})
	}
	table.Render()
	return nil
}

// newMatchCmd - Erstellt den match Command
func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match REFERENCE [URL...]",
		Short: "Rank candidate images by similarity to a reference image",
		Long: `Rank candidate images by similarity to a reference image.

REFERENCE is a local file or an http(s) URL. Candidates that cannot be
downloaded or decoded are left out of the result.`,
		Example: `  imagematch match shoe.jpg https://example.com/a.jpg https://example.com/b.jpg
  imagematch match --products shoe.jpg`,
		Args:    cobra.MinimumNArgs(1),
		PreRunE: checkServerHeartbeat,
		RunE:    MatchHandler,
	}
	cmd.Flags().Bool("products", false, "Match against the product catalog instead of URL arguments")
	cmd.Flags().Bool("json", false, "Print JSON instead of a table")
	return cmd
}
