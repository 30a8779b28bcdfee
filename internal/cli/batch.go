package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/nrmlc/internal/pipeline"
	"github.com/ppiankov/nrmlc/internal/worker"
)

// outputSuffix names batch outputs: rules.json -> rules.nrml.json
const outputSuffix = ".nrml.json"

var (
	batchFlags   conversionFlags
	concurrency  int
	outputDir    string
	listFile     string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [inputs...]",
	Short: "Convert many workspace exports in parallel",
	Long: `Batch converts workspace exports concurrently:
- Inputs are files, directories (their *.json files), or a --list file
- Each input is converted independently with its own identity tokens
- Each output is written as <name>.nrml.json, next to its input or in --output-dir

Example:
  nrmlc batch workspaces/
  nrmlc batch a.json b.json --output-dir ./rules --concurrency 8
  nrmlc batch --list inputs.txt --ids counter --verify`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchFlags.register(batchCmd.Flags())
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "output directory (default: next to each input)")
	batchCmd.Flags().StringVar(&listFile, "list", "", "file listing input paths, one per line")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && listFile == "" {
		return fmt.Errorf("no inputs: pass files or directories, or --list")
	}

	cfg, err := batchFlags.buildConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}

	paths, err := worker.ExpandInputs(args, outputSuffix)
	if err != nil {
		return err
	}
	if listFile != "" {
		listed, err := worker.ReadPathsFromFile(listFile)
		if err != nil {
			return fmt.Errorf("read list: %w", err)
		}
		paths = append(paths, listed...)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  nrmlc Batch Conversion\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Inputs:       %d\n", len(paths))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	if outputDir != "" {
		fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	}
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	results := processor.ProcessFiles(ctx, paths)

	for _, result := range results {
		if result.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		out := outputPath(result.Path, outputDir)
		if err := p.Renderer().WriteFile(out, result.Result.Rendered); err != nil {
			result.Error = err
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, err)
			continue
		}

		st := result.Result.Stats
		note := ""
		if result.Result.Cached {
			note = " (cached)"
		}
		fmt.Fprintf(os.Stderr, "✓ %s → %s (%d facts, %d items)%s\n", result.Path, out, st.Facts, st.Items, note)
		if verbose {
			p.Renderer().RenderSummary(os.Stderr, result.Result)
		}
	}

	s := worker.Summarize(results)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d inputs\n", s.Total)
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", s.Succeeded)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", s.Failed)
	fmt.Fprintf(os.Stderr, "  Degraded:  %d\n", s.Degraded)
	fmt.Fprintf(os.Stderr, "  Cached:    %d\n", s.Cached)
	fmt.Fprintf(os.Stderr, "\n")

	if s.Failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", s.Failed, s.Total)
	}
	return nil
}

// outputPath maps an input file to its rule document path
func outputPath(input, dir string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + outputSuffix
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base)
}
