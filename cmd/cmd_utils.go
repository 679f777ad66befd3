// cmd_utils.go - Gemeinsame Hilfsfunktionen der Commands
// Hauptfunktionen: checkServerHeartbeat, loadImage, useJSON, printJSON, newTable, truncate
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/7blacky7/imagematch/api"
	"github.com/7blacky7/imagematch/envconfig"
	"github.com/7blacky7/imagematch/fetch"
)

// checkServerHeartbeat - Prueft ob der Server erreichbar ist
func checkServerHeartbeat(cmd *cobra.Command, _ []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}
	if err := client.Heartbeat(cmd.Context()); err != nil {
		if strings.Contains(err.Error(), " refused") || strings.Contains(err.Error(), "could not connect") {
			return fmt.Errorf("imagematch server not responding at %s - start it with 'imagematch serve'", envconfig.Host())
		}
		return err
	}
	return nil
}

// isURL - true fuer http(s)-Locator
func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// loadImage - Liest ein Bild von Platte oder laedt es per URL.
// Gibt Daten und einen Dateinamen fuer den Upload zurueck.
func loadImage(ctx context.Context, arg string) ([]byte, string, error) {
	if isURL(arg) {
		data, err := fetch.New(
			fetch.WithTimeout(envconfig.ReferenceTimeout()),
			fetch.WithImageOnly(),
		).Fetch(ctx, arg)
		if err != nil {
			return nil, "", err
		}
		return data, filepath.Base(arg), nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return nil, "", err
	}
	return data, filepath.Base(arg), nil
}

// useJSON - JSON-Ausgabe wenn --json gesetzt oder stdout kein Terminal ist
func useJSON(cmd *cobra.Command) bool {
	if v, err := cmd.Flags().GetBool("json"); err == nil && v {
		return true
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	return !ok || !term.IsTerminal(int(f.Fd()))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTable - Tabelle im Stil von "imagematch products list"
func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

// maxColumnWidth begrenzt URL- und Namensspalten in Tabellen
const maxColumnWidth = 64

// truncate kuerzt s auf width Terminal-Spalten
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}
