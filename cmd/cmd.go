// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs
package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/containerd/console"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/7blacky7/imagematch/envconfig"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-28s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cobra.EnableCommandSorting = false

	if runtime.GOOS == "windows" && term.IsTerminal(int(os.Stdout.Fd())) {
		console.ConsoleFromFile(os.Stdin) //nolint:errcheck
	}

	rootCmd := &cobra.Command{
		Use:           "imagematch",
		Short:         "Rank images by visual similarity",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			if version, _ := cmd.Flags().GetBool("version"); version {
				versionHandler(cmd, args)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	serveCmd := newServeCmd()
	matchCmd := newMatchCmd()
	productsCmd := newProductsCmd()
	infoCmd := newInfoCmd()
	benchCmd := newBenchCmd()

	envVars := envconfig.AsMap()
	envs := []envconfig.EnvVar{envVars["IMAGEMATCH_HOST"]}

	for _, cmd := range []*cobra.Command{serveCmd, matchCmd, productsCmd, infoCmd, benchCmd} {
		switch cmd {
		case serveCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["IMAGEMATCH_DEBUG"],
				envVars["IMAGEMATCH_HOST"],
				envVars["IMAGEMATCH_ORIGINS"],
				envVars["IMAGEMATCH_MODELS"],
				envVars["IMAGEMATCH_CATALOG"],
				envVars["CLIP_MODEL"],
				envVars["IMAGEMATCH_DEVICE"],
				envVars["IMAGEMATCH_ORT_LIBRARY"],
				envVars["IMAGEMATCH_NUM_PARALLEL"],
				envVars["IMAGEMATCH_NUM_THREADS"],
				envVars["IMAGEMATCH_FETCH_TIMEOUT"],
				envVars["IMAGEMATCH_REFERENCE_TIMEOUT"],
				envVars["IMAGEMATCH_PROCESS_TIMEOUT"],
				envVars["IMAGEMATCH_MAX_UPLOAD"],
				envVars["IMAGEMATCH_MAX_FETCH"],
				envVars["IMAGEMATCH_MAX_PIXELS"],
				envVars["IMAGEMATCH_LOW_MEMORY"],
			})
		case benchCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["IMAGEMATCH_MODELS"],
				envVars["CLIP_MODEL"],
				envVars["IMAGEMATCH_DEVICE"],
				envVars["IMAGEMATCH_ORT_LIBRARY"],
				envVars["IMAGEMATCH_NUM_THREADS"],
			})
		default:
			appendEnvDocs(cmd, envs)
		}
	}

	rootCmd.AddCommand(
		serveCmd,
		matchCmd,
		productsCmd,
		infoCmd,
		benchCmd,
	)

	return rootCmd
}
