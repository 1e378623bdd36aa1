package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/markx/internal/formatter"
	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/desertthunder/markx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// AnalyzeURL streams an AI analysis of one URL.
func (r *Runner) AnalyzeURL(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	if r.engine == nil {
		return fmt.Errorf("%w: analysis engine not initialized", shared.ErrServiceUnavailable)
	}

	target := strings.TrimSpace(cmd.StringArg("url"))
	if target == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	useJSON := cmd.Bool("json")
	r.logger.Info("analyzing website", "url", target, "direct", cmd.Bool("direct"))

	result, err := r.runWithProgress(ctx, target, cmd.Bool("direct"), !useJSON)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAnalysisFailed, err)
	}

	if useJSON {
		return r.writeJSON(formatter.NewAnalysisRow(result.Record), true)
	}

	row := formatter.NewAnalysisRow(result.Record)
	r.writePlain("\n")
	r.writePlainHeader("Analysis Complete")
	r.writePlain("URL: %s\n", row.URL)
	if row.Name != "" {
		r.writePlain("Name: %s\n", row.Name)
	}
	if row.Description != "" {
		r.writePlain("Description: %s\n", row.Description)
	}
	if row.Space != "" {
		r.writePlain("Suggested space: %s\n", row.Space)
	}
	if len(row.Tags) > 0 {
		r.writePlain("Suggested tags: %s\n", strings.Join(row.Tags, ", "))
	}
	r.writePlain("Took: %s (%d events)\n", row.Duration, row.Events)
	return nil
}

// runWithProgress runs one analysis, echoing progress lines when echo is set.
func (r *Runner) runWithProgress(ctx context.Context, target string, direct, echo bool) (*tasks.AnalysisRunResult, error) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if echo {
				r.printProgress(update)
			}
		}
	}()

	var (
		result *tasks.AnalysisRunResult
		err    error
	)
	if direct {
		result, err = r.engine.RunDirect(ctx, target, progressCh)
	} else {
		result, err = r.engine.Run(ctx, target, progressCh)
	}
	close(progressCh)
	<-done

	return result, err
}

func (r *Runner) printProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.Status:
		r.writePlain("… %s\n", update.Message)
	case tasks.BasicInfo:
		r.writePlain("ℹ %s\n", update.Message)
	case tasks.Result:
		r.writePlain("✓ %s\n", update.Message)
	case tasks.Failure:
		r.writePlain("✗ %s\n", update.Message)
	case tasks.Queue:
		r.logger.Debug(update.Message)
	case tasks.Analyze, tasks.Manifest:
		r.writePlain("%s\n", update.Message)
	}
}

// AnalyzeBulk analyses every URL in a file (one per line) with a worker pool.
func (r *Runner) AnalyzeBulk(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	if r.engine == nil {
		return fmt.Errorf("%w: analysis engine not initialized", shared.ErrServiceUnavailable)
	}

	urls := cmd.StringSlice("url")
	if path := cmd.StringArg("file"); path != "" {
		fromFile, err := readURLs(path)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("%w: provide a file of URLs or --url", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	opts := tasks.BulkAnalyzeOpts{
		Format:     format,
		OutputDir:  cmd.String("output-dir"),
		NumWorkers: r.config.Analysis.Workers,
		RateLimit:  r.config.Analysis.RateLimit,
		Direct:     cmd.Bool("direct"),
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = cmd.Int("workers")
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float64("rate")
	}

	r.logger.Info("starting bulk analysis", "urls", len(urls), "workers", opts.NumWorkers, "rate", opts.RateLimit)

	progressCh := make(chan tasks.ProgressUpdate, 100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.printProgress(update)
		}
	}()

	result, err := r.engine.BulkAnalyze(ctx, progressCh, urls, opts)
	close(progressCh)
	<-done

	if result != nil {
		r.writePlain("\n")
		r.writePlainHeader("Bulk Analysis Complete")
		r.writePlain("Total: %d\n", result.Total)
		r.writePlain("Succeeded: %d\n", result.Succeeded)
		r.writePlain("Failed: %d\n", result.Failed)
		if result.ManifestPath != "" {
			r.writePlain("Manifest: %s\n", result.ManifestPath)
		}
	}
	return err
}

// readURLs reads one URL per line; BulkAnalyze drops blanks, comments and duplicates.
func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", shared.ErrInvalidArgument, path, err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		urls = append(urls, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return urls, nil
}

// AnalyzeHistory prints or exports recorded analyses.
func (r *Runner) AnalyzeHistory(ctx context.Context, cmd *cli.Command) error {
	if r.analyses == nil {
		return fmt.Errorf("%w: analysis history needs the database (run 'markx setup database')", shared.ErrServiceUnavailable)
	}

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if u := cmd.String("url"); u != "" {
		criteria["url"] = u
	}
	if s := cmd.String("status"); s != "" {
		criteria["status"] = models.AnalysisStatus(s)
	}

	records, err := r.analyses.List(criteria)
	if err != nil {
		return err
	}

	if output := cmd.String("output"); output != "" {
		if err := formatter.WriteAnalysisReport(output, "Analysis History", records); err != nil {
			return err
		}
		return r.writePlain("✓ Wrote %d analyses to %s\n", len(records), output)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	return r.writeRendered(formatter.RenderAnalyses(format, "Analysis History", records))
}

// AnalyzeUsage shows the AI analysis quota.
func (r *Runner) AnalyzeUsage(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	usage, err := r.services.Analysis.ResourceUsage(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(usage, true)
	}

	r.writePlain("Used: %d/%d\n", usage.Used, usage.Limit)
	r.writePlain("Remaining: %d\n", usage.Remaining)
	if usage.ResetTime != "" {
		r.writePlain("Resets: %s\n", usage.ResetTime)
	}
	return nil
}
