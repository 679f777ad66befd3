// cmd_bench.go - Lokaler Encoder-Benchmark ohne laufenden Server
// Hauptfunktionen: BenchHandler, runBench
package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/7blacky7/imagematch/embedding"
	"github.com/7blacky7/imagematch/envconfig"
	"github.com/7blacky7/imagematch/match"
	"github.com/7blacky7/imagematch/vision"

	// Encoder-Backends registrieren
	_ "github.com/7blacky7/imagematch/vision/histogram"
	_ "github.com/7blacky7/imagematch/vision/onnx"
)

// benchOptions sind die Flags von "imagematch bench"
type benchOptions struct {
	model      string
	device     string
	threads    int
	iterations int
	warmup     int
	maxPixels  int64
}

// benchResult ist eine Zeile der Ausgabe
type benchResult struct {
	Image      string        `json:"image"`
	Format     string        `json:"format"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Mean       time.Duration `json:"mean_ns"`
	Min        time.Duration `json:"min_ns"`
	Max        time.Duration `json:"max_ns"`
	Similarity float64       `json:"similarity"`
}

// BenchHandler - Laedt das Modell lokal und misst Encode-Latenzen
func BenchHandler(cmd *cobra.Command, args []string) error {
	opts := benchOptions{}
	opts.model, _ = cmd.Flags().GetString("model")
	opts.device, _ = cmd.Flags().GetString("device")
	opts.threads, _ = cmd.Flags().GetInt("threads")
	opts.iterations, _ = cmd.Flags().GetInt("iterations")
	opts.warmup, _ = cmd.Flags().GetInt("warmup")
	opts.maxPixels = int64(envconfig.MaxPixels())

	if opts.iterations < 1 {
		return fmt.Errorf("--iterations must be at least 1")
	}

	encoder, err := vision.NewEncoder(opts.model, envconfig.Models(),
		vision.WithDevice(opts.device),
		vision.WithThreads(opts.threads),
		vision.WithRuntimeLibrary(envconfig.RuntimeLibrary()),
	)
	if err != nil {
		return fmt.Errorf("load model %q: %w", opts.model, err)
	}

	oracle := embedding.New(encoder)
	defer oracle.Close()

	inputs := make([][]byte, len(args))
	for i, arg := range args {
		if inputs[i], _, err = loadImage(cmd.Context(), arg); err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
	}

	results, err := runBench(cmd.Context(), oracle, args, inputs, opts)
	if err != nil {
		return err
	}

	if useJSON(cmd) {
		return printJSON(cmd.OutOrStdout(), results)
	}
	printBench(cmd.OutOrStdout(), oracle.ModelInfo(), results)
	return nil
}

// runBench embeddet jedes Bild warmup+iterations mal. Similarity bezieht sich auf das erste Bild.
func runBench(ctx context.Context, oracle *embedding.Client, names []string, inputs [][]byte, opts benchOptions) ([]benchResult, error) {
	size := oracle.ModelInfo().ImageSize
	results := make([]benchResult, len(inputs))

	var first embedding.Vector
	for i, data := range inputs {
		var vec embedding.Vector
		durations := make([]time.Duration, 0, opts.iterations)

		for n := range opts.warmup + opts.iterations {
			img, err := vision.NormalizeWithLimit(data, size, opts.maxPixels)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", names[i], err)
			}
			results[i].Format = img.Format.String()
			results[i].Width, results[i].Height = img.Width, img.Height

			start := time.Now()
			vec, err = oracle.Embed(ctx, img)
			elapsed := time.Since(start)
			img.Release()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", names[i], err)
			}

			if n >= opts.warmup {
				durations = append(durations, elapsed)
			}
		}

		if i == 0 {
			first = vec
		}

		var total time.Duration
		for _, d := range durations {
			total += d
		}

		results[i].Image = filepath.Base(names[i])
		results[i].Mean = total / time.Duration(len(durations))
		results[i].Min = slices.Min(durations)
		results[i].Max = slices.Max(durations)
		results[i].Similarity = match.Score(first, vec)
	}

	return results, nil
}

func printBench(w io.Writer, info vision.ModelInfo, results []benchResult) {
	fmt.Fprintf(w, "model %s (%s, dim %d, size %d)\n\n", info.Name, info.Type, info.EmbeddingDim, info.ImageSize)

	table := newTable(w, []string{"IMAGE", "FORMAT", "SIZE", "MEAN", "MIN", "MAX", "SIMILARITY"})
	for _, r := range results {
		table.Append([]string{
			r.Image,
			r.Format,
			fmt.Sprintf("%dx%d", r.Width, r.Height),
			r.Mean.Round(time.Microsecond).String(),
			r.Min.Round(time.Microsecond).String(),
			r.Max.Round(time.Microsecond).String(),
			fmt.Sprintf("%.4f", r.Similarity),
		})
	}
	table.Render()
}

// newBenchCmd - Erstellt den bench Command
func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench IMAGE [IMAGE...]",
		Short: "Benchmark the embedding model locally",
		Example: `  imagematch bench photo.jpg
  imagematch bench --model histogram --iterations 50 a.png b.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: BenchHandler,
	}
	cmd.Flags().String("model", envconfig.Model(), "Model variant ("+fmt.Sprint(vision.KnownModels())+")")
	cmd.Flags().String("device", envconfig.Device(), "Compute device: cpu, cuda")
	cmd.Flags().Int("threads", int(envconfig.NumThreads()), "CPU threads for the model")
	cmd.Flags().Int("iterations", 10, "Number of timed runs per image")
	cmd.Flags().Int("warmup", 1, "Number of untimed runs per image")
	cmd.Flags().Bool("json", false, "Print JSON instead of a table")
	return cmd
}
