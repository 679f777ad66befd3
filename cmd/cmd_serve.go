// cmd_serve.go - Server Start und Versionsanzeige
// Hauptfunktionen: RunServer, versionHandler, InfoHandler
package cmd

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/7blacky7/imagematch/api"
	"github.com/7blacky7/imagematch/envconfig"
	"github.com/7blacky7/imagematch/server"
	"github.com/7blacky7/imagematch/version"
)

// RunServer - Startet den imagematch-Server
func RunServer(_ *cobra.Command, _ []string) error {
	ln, err := net.Listen("tcp", envconfig.Host().Host)
	if err != nil {
		return err
	}

	err = server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// versionHandler - Zeigt die Version an
func versionHandler(cmd *cobra.Command, _ []string) {
	out := cmd.OutOrStdout()

	client, err := api.ClientFromEnvironment()
	if err != nil {
		return
	}

	serverVersion, err := client.Version(cmd.Context())
	if err != nil {
		fmt.Fprintln(out, "Warning: could not connect to a running imagematch instance")
	}

	if serverVersion != "" {
		fmt.Fprintf(out, "imagematch version is %s\n", serverVersion)
	}

	if serverVersion != version.Version {
		fmt.Fprintf(out, "Warning: client version is %s\n", version.Version)
	}
}

// InfoHandler - Zeigt das geladene Modell des Servers
func InfoHandler(cmd *cobra.Command, _ []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	info, err := client.Info(cmd.Context())
	if err != nil {
		return err
	}

	if useJSON(cmd) {
		return printJSON(cmd.OutOrStdout(), info)
	}

	table := newTable(cmd.OutOrStdout(), []string{"MODEL", "TYPE", "DIM", "IMAGE SIZE", "PARALLEL"})
	table.Append([]string{
		info.Model,
		info.Type,
		fmt.Sprint(info.EmbeddingDim),
		fmt.Sprint(info.ImageSize),
		fmt.Sprint(info.Parallel),
	})
	table.Render()
	return nil
}

// newServeCmd - Erstellt den serve Command
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Start imagematch",
		Args:    cobra.ExactArgs(0),
		RunE:    RunServer,
	}
}

// newInfoCmd - Erstellt den info Command
func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "info",
		Short:   "Show the model loaded by the server",
		Args:    cobra.ExactArgs(0),
		PreRunE: checkServerHeartbeat,
		RunE:    InfoHandler,
	}
	cmd.Flags().Bool("json", false, "Print JSON instead of a table")
	return cmd
}
