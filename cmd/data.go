package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/urfave/cli/v3"
)

// DataExport downloads a full account export.
func (r *Runner) DataExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	dir := cmd.String("dir")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	r.logger.Info("exporting account data", "dir", dir)
	result, err := r.services.Users.Export(ctx, dir)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Exported %d bytes to %s\n", result.Size, result.Path)
}

// DataImport uploads a previous account export.
func (r *Runner) DataImport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	path := cmd.StringArg("path")
	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return err
	}

	r.logger.Info("importing account data", "path", path, "bytes", len(data))
	result, err := r.services.Users.Import(ctx, filepath.Base(path), bytes.NewReader(data), r.uploadProgress())
	if err != nil {
		return err
	}
	r.writePlain("\n")
	return r.printImport(result)
}

// Feedback sends feedback to the maintainers.
func (r *Runner) Feedback(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	content := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	content, err := r.valueOrPrompt(content, "Feedback")
	if err != nil {
		return err
	}

	resp, err := r.services.Feedback.Create(ctx, models.FeedbackRequest{
		Type:    cmd.String("type"),
		Content: content,
		Contact: cmd.String("contact"),
	})
	if err != nil {
		return err
	}
	r.logger.Info("feedback sent", "id", resp.ID)
	return r.writePlain("✓ Thanks! Feedback received\n")
}
