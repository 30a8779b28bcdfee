package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/nrmlc/internal/model"
	"github.com/ppiankov/nrmlc/internal/pipeline"
)

var (
	convertFlags conversionFlags
	watch        bool
	summary      bool
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <workspace.json|-> [output.json]",
	Short: "Convert one workspace export into a rule document",
	Long: `Convert reads a block-editor workspace export and writes the NRML rule
document built from it:
- input:<kind> declarations become the inputs section
- include:<law>.<output> declarations become includes with a reference item
- literal assignments become a type definition plus a value initialization
- arithmetic and comparison assignments become calculated and conditional values
- count/sum/avg/min/max declarations become aggregations exposed as outputs

The document is written to stdout unless an output path is given.

Example:
  nrmlc convert workspace.json
  nrmlc convert workspace.json rules.json --ids counter --valid-from 2025-01-01
  nrmlc convert workspace.json rules.json --verify --watch`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertFlags.register(convertCmd.Flags())
	convertCmd.Flags().BoolVar(&watch, "watch", false, "re-convert whenever the input file changes")
	convertCmd.Flags().BoolVar(&summary, "summary", false, "print counts and diagnostics to stderr")
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := ""
	if len(args) == 2 {
		output = args[1]
	}

	cfg, err := convertFlags.buildConfig(cmd)
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg, logger)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Converting: %s\n", input)
		fmt.Fprintf(os.Stderr, "IDs: %s  Language: %s  Cache: %v\n",
			cfg.Conversion.IDScheme, cfg.Conversion.Language, cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	if err := convertOnce(cmd, p, cfg, input, output); err != nil {
		if !watch {
			return err
		}
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
	}

	if !watch {
		return nil
	}
	if input == "-" {
		return fmt.Errorf("--watch needs a file, not stdin")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl-C to stop)\n", input)
	w := pipeline.NewWatcher(input, pipeline.DefaultDebounce, logger)
	return w.Run(ctx, func() {
		if err := convertOnce(cmd, p, cfg, input, output); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		}
	})
}

func convertOnce(cmd *cobra.Command, p *pipeline.Pipeline, cfg *model.Config, input, output string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := p.ConvertFile(ctx, input)
	if err != nil {
		return fmt.Errorf("convert failed: %w", err)
	}

	if output == "" || output == "-" {
		if _, err := cmd.OutOrStdout().Write(res.Rendered); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	} else {
		if err := p.Renderer().WriteFile(output, res.Rendered); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote: %s\n", output)
		}
	}

	for _, d := range res.Diagnostics {
		logger.Debug("diagnostic",
			zap.String("pass", d.Pass),
			zap.String("subject", d.Subject),
			zap.String("reason", d.Reason))
	}

	if summary || verbose {
		p.Renderer().RenderSummary(os.Stderr, res)
	}

	if cfg.Output.Verify && len(res.Dangling) > 0 {
		return fmt.Errorf("%s: %d dangling references", input, len(res.Dangling))
	}
	return nil
}
