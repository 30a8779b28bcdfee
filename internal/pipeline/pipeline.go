package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/nrmlc/internal/cache"
	"github.com/ppiankov/nrmlc/internal/generate"
	"github.com/ppiankov/nrmlc/internal/model"
	"github.com/ppiankov/nrmlc/internal/registry"
	"github.com/ppiankov/nrmlc/internal/validate"
)

// Pipeline reads, converts, verifies and renders workspace exports
type Pipeline struct {
	reader    *Reader
	renderer  *Renderer
	validator *validate.Validator
	cache     cache.Cache // nil when disabled
	config    *model.Config
	validFrom time.Time
	logger    *zap.Logger
}

// NewPipeline creates a pipeline from a validated configuration
func NewPipeline(cfg *model.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	validFrom, err := cfg.ValidFromDate()
	if err != nil {
		return nil, err
	}
	if _, err := registry.NewIDSource(cfg.Conversion.IDScheme); err != nil {
		return nil, err
	}

	p := &Pipeline{
		reader:    NewReader(cfg.Input.MaxBytes),
		renderer:  NewRenderer(cfg.Output.Indent),
		validator: validate.NewValidator(CollectionElementPath),
		config:    cfg,
		validFrom: validFrom,
		logger:    logger,
	}
	if cfg.Cache.Enabled {
		p.cache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	return p, nil
}

// Renderer returns the pipeline's renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// ConvertResult is the outcome of converting one workspace. Document is nil
// when the result was served from cache.
type ConvertResult struct {
	Source      string              `json:"source"`
	Document    *model.Document     `json:"-"`
	Rendered    []byte              `json:"-"`
	Stats       registry.Stats      `json:"stats"`
	Diagnostics []Diagnostic        `json:"diagnostics,omitempty"`
	Dangling    []validate.Dangling `json:"dangling,omitempty"`
	Cached      bool                `json:"cached"`
}

// cached form of a ConvertResult
type cacheEntry struct {
	Rendered    []byte              `json:"rendered"`
	Stats       registry.Stats      `json:"stats"`
	Diagnostics []Diagnostic        `json:"diagnostics,omitempty"`
	Dangling    []validate.Dangling `json:"dangling,omitempty"`
}

// ConvertFile converts the workspace export at path ("-" reads stdin)
func (p *Pipeline) ConvertFile(ctx context.Context, path string) (*ConvertResult, error) {
	read, err := p.reader.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return p.convert(ctx, read)
}

// ConvertBytes converts an in-memory workspace export; name labels errors
// and results
func (p *Pipeline) ConvertBytes(ctx context.Context, name string, data []byte) (*ConvertResult, error) {
	read, err := p.reader.Parse(name, data)
	if err != nil {
		return nil, err
	}
	return p.convert(ctx, read)
}

func (p *Pipeline) convert(ctx context.Context, read *ReadResult) (*ConvertResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := p.cacheKey(read.Raw)
	if res, ok := p.fromCache(key, read.Source); ok {
		return res, nil
	}

	ids, err := registry.NewIDSource(p.config.Conversion.IDScheme)
	if err != nil {
		return nil, err
	}

	conv := NewConverter(p.Options(ids), p.logger.With(zap.String("source", read.Source)))
	doc, err := conv.Convert(read.Workspace)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", read.Source, err)
	}

	rendered, err := p.renderer.Marshal(doc)
	if err != nil {
		return nil, err
	}

	res := &ConvertResult{
		Source:      read.Source,
		Document:    doc,
		Rendered:    rendered,
		Stats:       conv.Stats(),
		Diagnostics: conv.Diagnostics(),
	}

	if p.config.Output.Verify {
		check, err := p.validator.ValidateJSON(rendered)
		if err != nil {
			return nil, fmt.Errorf("verify %s: %w", read.Source, err)
		}
		res.Dangling = check.Dangling
		if !check.OK() {
			p.logger.Warn("dangling references",
				zap.String("source", read.Source),
				zap.Int("count", len(check.Dangling)))
		}
	}

	p.toCache(key, res)
	return res, nil
}

// Options derives converter options from the configuration
func (p *Pipeline) Options(ids registry.IDSource) Options {
	c := p.config.Conversion
	return Options{
		Language:         c.Language,
		SchemaURL:        c.SchemaURL,
		ValidFrom:        p.validFrom,
		IDs:              ids,
		AllStacks:        c.AllStacks,
		StrictReferences: c.StrictReferences,
	}
}

// cacheKey covers the input and every setting that changes the output,
// including the effective validity date
func (p *Pipeline) cacheKey(raw []byte) string {
	c := p.config.Conversion
	return cache.Key(
		raw,
		[]byte(c.Language),
		[]byte(c.SchemaURL),
		[]byte(c.IDScheme),
		[]byte(generate.New(p.validFrom).ValidFrom()),
		[]byte(strconv.FormatBool(c.AllStacks)),
		[]byte(strconv.FormatBool(c.StrictReferences)),
		[]byte(strconv.Itoa(p.config.Output.Indent)),
		[]byte(strconv.FormatBool(p.config.Output.Verify)),
	)
}

func (p *Pipeline) fromCache(key, source string) (*ConvertResult, bool) {
	if p.cache == nil {
		return nil, false
	}
	data, ok := p.cache.Get(key)
	if !ok {
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		p.logger.Debug("discarding unreadable cache entry", zap.String("source", source), zap.Error(err))
		_ = p.cache.Delete(key)
		return nil, false
	}

	p.logger.Debug("cache hit", zap.String("source", source))
	return &ConvertResult{
		Source:      source,
		Rendered:    entry.Rendered,
		Stats:       entry.Stats,
		Diagnostics: entry.Diagnostics,
		Dangling:    entry.Dangling,
		Cached:      true,
	}, true
}

func (p *Pipeline) toCache(key string, res *ConvertResult) {
	if p.cache == nil {
		return
	}
	data, err := json.Marshal(cacheEntry{
		Rendered:    res.Rendered,
		Stats:       res.Stats,
		Diagnostics: res.Diagnostics,
		Dangling:    res.Dangling,
	})
	if err != nil {
		p.logger.Warn("cache encode failed", zap.Error(err))
		return
	}
	if err := p.cache.Set(key, data, 0); err != nil {
		p.logger.Warn("cache write failed", zap.String("source", res.Source), zap.Error(err))
	}
}

// Verify checks referential integrity of an already encoded document
func (p *Pipeline) Verify(data []byte) (*validate.Result, error) {
	return p.validator.ValidateJSON(data)
}
