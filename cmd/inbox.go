package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/urfave/cli/v3"
)

// InboxList lists bookmarks that integrations delivered to the inbox.
func (r *Runner) InboxList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	params := models.ReceivedParams{ListParams: models.ListParams{
		Page:   cmd.Int("page"),
		Size:   cmd.Int("size"),
		Search: cmd.String("search"),
	}}
	if s := cmd.String("state"); s != "" && s != "all" {
		state, err := models.ParseReceivedState(s)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		params.State = state
	}

	page, err := r.services.Received.List(ctx, params)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d inbox entries:\n\n", page.Total)
	for i, rb := range page.Records {
		r.writePlain("%d. %s [%s]\n", i+1, rb.Name, rb.State)
		r.writePlain("   URL: %s\n", rb.URL)
		if rb.Group != "" {
			r.writePlain("   Group: %s\n", rb.Group)
		}
		r.writePlain("   ID: %s\n\n", rb.ID)
	}
	return nil
}

// InboxAdd posts a link to the inbox.
func (r *Runner) InboxAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	target := cmd.StringArg("url")
	name := cmd.String("name")
	if name == "" {
		name = target
	}
	rb, err := r.services.Received.Create(ctx, models.AddReceivedRequest{
		Name:        name,
		URL:         target,
		Description: cmd.String("description"),
		Group:       cmd.String("group"),
		Tag:         cmd.String("tag"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added %s to the inbox (%s)\n", rb.URL, rb.ID)
}

// InboxConfirm files an inbox entry as a bookmark.
func (r *Runner) InboxConfirm(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if err := r.services.Received.Confirm(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Confirmed inbox entry %s\n", id)
}

func (r *Runner) InboxDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if err := r.services.Received.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted inbox entry %s\n", id)
}

func (r *Runner) InboxStats(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	stats, err := r.services.Received.Stats(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}
	r.writePlain("Pending:   %d\n", stats.PendingCount)
	r.writePlain("Confirmed: %d\n", stats.ConfirmedCount)
	r.writePlain("Deleted:   %d\n", stats.DeletedCount)
	return r.writePlain("Total:     %d\n", stats.TotalCount)
}

// BookmarkDuplicates prints the duplicate report as JSON.
func (r *Runner) BookmarkDuplicates(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	report, err := r.services.Bookmarks.Duplicates(ctx, cmd.Int("level"))
	if err != nil {
		return err
	}
	if len(report) == 0 {
		return r.writePlain("No duplicates found\n")
	}
	return r.writeJSON(report, cmd.Bool("pretty"))
}

// BookmarkIgnored lists the duplicate groups hidden from the report.
func (r *Runner) BookmarkIgnored(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	groups, err := r.services.Bookmarks.IgnoredGroups(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(groups, true)
	}
	for _, g := range groups {
		r.writePlain("%s\n", g)
	}
	return nil
}

func (r *Runner) BookmarkIgnore(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	group := cmd.StringArg("group")
	if err := r.services.Bookmarks.AddIgnoredGroup(ctx, group); err != nil {
		return err
	}
	return r.writePlain("✓ Ignoring duplicate group %s\n", group)
}

// BookmarkUnignore removes one group, or every group with --all.
func (r *Runner) BookmarkUnignore(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	if cmd.Bool("all") {
		if err := r.services.Bookmarks.SetIgnoredGroups(ctx, nil); err != nil {
			return err
		}
		return r.writePlain("✓ Cleared ignored duplicate groups\n")
	}

	group := cmd.StringArg("group")
	if err := r.services.Bookmarks.RemoveIgnoredGroup(ctx, group); err != nil {
		return err
	}
	return r.writePlain("✓ No longer ignoring %s\n", group)
}
