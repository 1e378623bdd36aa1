package tasks

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/markx/internal/formatter"
	"github.com/desertthunder/markx/internal/models"
	"golang.org/x/time/rate"
)

// BulkAnalyzeOpts contains configuration for bulk analyses.
type BulkAnalyzeOpts struct {
	Format     formatter.Format // Manifest format (default: json)
	OutputDir  string           // Manifest directory (default: analysis_{epoch})
	NumWorkers int              // Concurrent workers (default: 3, max: 10)
	RateLimit  float64          // Analyses started per second (default: 1)
	Direct     bool             // Use the one-shot endpoint instead of the stream
}

// URLResult is the outcome of one URL in a bulk run.
type URLResult struct {
	URL      string
	Record   *models.AnalysisRecord
	Analysis *models.WebsiteAnalysis
	Error    error
}

// BulkAnalyzeResult summarises a bulk run.
type BulkAnalyzeResult struct {
	Total           int
	Succeeded       int
	Failed          int
	Results         []URLResult
	OutputDirectory string
	ManifestPath    string
}

// Records returns the analysis records in completion order.
func (r *BulkAnalyzeResult) Records() []*models.AnalysisRecord {
	records := make([]*models.AnalysisRecord, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Record != nil {
			records = append(records, res.Record)
		}
	}
	return records
}

// BulkAnalyze analyses urls concurrently with rate limiting and progress tracking.
//
// Blank and duplicate URLs are skipped. Individual failures are reported in the result;
// an error is returned only when the run was cancelled or the manifest could not be written.
func (e *AnalysisEngine) BulkAnalyze(ctx context.Context, prog chan<- ProgressUpdate, urls []string, opts BulkAnalyzeOpts) (*BulkAnalyzeResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("analysis_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1
	}

	targets := dedupe(urls)
	result := &BulkAnalyzeResult{
		Total:           len(targets),
		OutputDirectory: opts.OutputDir,
		Results:         make([]URLResult, 0, len(targets)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan string, len(targets))
	results := make(chan URLResult, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.analyzeWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, target := range targets {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- target
			e.sendProgress(prog, queuedUpdate(i+1, len(targets), target))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Error == nil {
			result.Succeeded++
			e.sendProgress(prog, analyzeCompletedUpdate(completed, len(targets), res))
		} else {
			result.Failed++
			e.sendProgress(prog, analyzeFailedUpdate(completed, len(targets), res))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "analysis_manifest."+string(opts.Format))
	e.sendProgress(prog, manifestUpdate(manifestPath))
	if err := formatter.WriteAnalysisReport(manifestPath, "Bulk Website Analysis", result.Records()); err != nil {
		return result, fmt.Errorf("analysis completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("bulk analysis interrupted after %d of %d: %w", completed, len(targets), err)
	}
	return result, nil
}

// analyzeWorker analyses URLs from the jobs channel.
func (e *AnalysisEngine) analyzeWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan string, results chan<- URLResult, opts BulkAnalyzeOpts) {
	defer wg.Done()

	for target := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var (
			run *AnalysisRunResult
			err error
		)
		if opts.Direct {
			run, err = e.RunDirect(ctx, target, nil)
		} else {
			run, err = e.Run(ctx, target, nil)
		}

		res := URLResult{URL: target, Error: err}
		if run != nil {
			res.Record = run.Record
			res.Analysis = run.Analysis
		}
		results <- res
	}
}

func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || strings.HasPrefix(u, "#") || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
