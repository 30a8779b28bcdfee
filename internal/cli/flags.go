package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ppiankov/nrmlc/internal/model"
)

// conversionFlags are shared by convert and batch. Only flags the user set
// override the loaded configuration.
type conversionFlags struct {
	language   string
	schemaURL  string
	idScheme   string
	validFrom  string
	allStacks  bool
	strictRefs bool
	indent     int
	verify     bool
	noCache    bool
	cacheDir   string
	maxBytes   int64
}

func (f *conversionFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.language, "lang", model.DefaultLanguage, "language of display names")
	fs.StringVar(&f.schemaURL, "schema", model.DefaultSchemaURL, "$schema URL of the emitted document")
	fs.StringVar(&f.idScheme, "ids", "uuid", "identity token scheme (uuid, counter)")
	fs.StringVar(&f.validFrom, "valid-from", "", "validity date of emitted versions, YYYY-MM-DD (default: today)")
	fs.BoolVar(&f.allStacks, "all-stacks", false, "convert every top-level block stack, not only the first")
	fs.BoolVar(&f.strictRefs, "strict-refs", false, "drop filters and calculations whose operands do not resolve")
	fs.IntVar(&f.indent, "indent", 2, "spaces per indent level (0 = compact)")
	fs.BoolVar(&f.verify, "verify", false, "check referential integrity of the output")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable the conversion cache")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "cache directory (enables the cache)")
	fs.Int64Var(&f.maxBytes, "max-bytes", 10_000_000, "max input bytes to read")
}

func (f *conversionFlags) apply(cmd *cobra.Command, cfg *model.Config) {
	changed := cmd.Flags().Changed

	if changed("lang") {
		cfg.Conversion.Language = f.language
	}
	if changed("schema") {
		cfg.Conversion.SchemaURL = f.schemaURL
	}
	if changed("ids") {
		cfg.Conversion.IDScheme = f.idScheme
	}
	if changed("valid-from") {
		cfg.Conversion.ValidFrom = f.validFrom
	}
	if changed("all-stacks") {
		cfg.Conversion.AllStacks = f.allStacks
	}
	if changed("strict-refs") {
		cfg.Conversion.StrictReferences = f.strictRefs
	}
	if changed("indent") {
		cfg.Output.Indent = f.indent
	}
	if changed("verify") {
		cfg.Output.Verify = f.verify
	}
	if changed("cache-dir") {
		cfg.Cache.Enabled = true
		cfg.Cache.Dir = f.cacheDir
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	if changed("max-bytes") {
		cfg.Input.MaxBytes = f.maxBytes
	}
	if verbose {
		cfg.Output.Verbose = true
	}
}

// buildConfig loads the layered configuration and applies flags
func (f *conversionFlags) buildConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	f.apply(cmd, cfg)
	return cfg, nil
}
