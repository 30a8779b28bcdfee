package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/nrmlc/internal/pipeline"
)

// Converter converts one workspace export
type Converter interface {
	ConvertFile(ctx context.Context, path string) (*pipeline.ConvertResult, error)
}

// ConvertJob converts a single file
type ConvertJob struct {
	Path      string
	Converter Converter
}

// Execute runs the conversion
func (j *ConvertJob) Execute(ctx context.Context) Result {
	res, err := j.Converter.ConvertFile(ctx, j.Path)
	if err != nil {
		return &FileResult{Path: j.Path, Error: err}
	}
	return &FileResult{Path: j.Path, Result: res}
}

// FileResult is the outcome of converting one file
type FileResult struct {
	Path   string
	Result *pipeline.ConvertResult
	Error  error
}

// GetError returns the conversion error, if any
func (r *FileResult) GetError() error {
	return r.Error
}

// BatchProcessor converts many files concurrently
type BatchProcessor struct {
	converter   Converter
	concurrency int
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(converter Converter, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		converter:   converter,
		concurrency: concurrency,
	}
}

// ProcessFiles converts every path and returns results in input order.
// Paths not reached because ctx was cancelled are appended last, carrying
// ctx's error.
func (b *BatchProcessor) ProcessFiles(ctx context.Context, paths []string) []*FileResult {
	if len(paths) == 0 {
		return []*FileResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		if !pool.Submit(&ConvertJob{Path: path, Converter: b.converter}) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*FileResult, 0, len(paths))
	for _, r := range results {
		out = append(out, r.(*FileResult))
	}

	// jobs lost to cancellation
	if len(out) < len(paths) {
		done := make(map[string]bool, len(out))
		for _, r := range out {
			done[r.Path] = true
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		for _, path := range paths {
			if !done[path] {
				out = append(out, &FileResult{Path: path, Error: err})
			}
		}
	}

	return out
}

// ProcessList reads paths from a list file and converts them
func (b *BatchProcessor) ProcessList(ctx context.Context, listPath string) ([]*FileResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}

	return b.ProcessFiles(ctx, paths), nil
}

// ReadPathsFromFile reads input paths from a file (one per line). Blank
// lines and # comments are skipped, duplicates dropped, and relative paths
// resolved against the list file's directory.
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(listPath)

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}

// ExpandInputs turns command-line arguments into input files: directories
// contribute their *.json files (sorted, non-recursive), files pass through.
// Files already ending in outputSuffix are skipped so a batch can write
// into its own input directory.
func ExpandInputs(args []string, outputSuffix string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}

		matches, err := filepath.Glob(filepath.Join(arg, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", arg, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if outputSuffix != "" && strings.HasSuffix(m, outputSuffix) {
				continue
			}
			add(m)
		}
	}

	return paths, nil
}

// Summary counts the outcomes of a batch
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Cached    int
	Degraded  int // converted with diagnostics or dangling references
}

// Summarize tallies batch results
func Summarize(results []*FileResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Error != nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		if r.Result.Cached {
			s.Cached++
		}
		if len(r.Result.Diagnostics) > 0 || len(r.Result.Dangling) > 0 {
			s.Degraded++
		}
	}
	return s
}
