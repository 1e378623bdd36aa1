package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SpaceList lists spaces with their bookmark counts when --stats is set.
func (r *Runner) SpaceList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	page, err := r.services.Spaces.List(ctx, models.ListParams{
		Page:   cmd.Int("page"),
		Size:   cmd.Int("size"),
		Search: cmd.String("search"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d spaces (page %d of %d):\n\n", page.Total, page.Current, page.Pages)
	for i, s := range page.Records {
		r.writePlain("%d. %s\n", i+1, s.Name)
		if s.Description != "" {
			r.writePlain("   Description: %s\n", s.Description)
		}
		r.writePlain("   ID: %s\n", s.ID)
		r.writePlain("   Visibility: %s\n", shared.VisibilityString(s.Shared))
		if cmd.Bool("stats") {
			if stats, err := r.services.Spaces.Stats(ctx, s.ID); err == nil {
				r.writePlain("   Bookmarks: %d\n", stats.TotalCount)
			} else {
				r.logger.Warn("failed to fetch space stats", "space", s.ID, "error", err)
			}
		}
		r.writePlain("\n")
	}
	return nil
}

// SpaceAdd creates a space.
func (r *Runner) SpaceAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	space, err := r.services.Spaces.Create(ctx, models.AddSpaceRequest{
		Name:        cmd.StringArg("name"),
		Icon:        cmd.String("icon"),
		Sort:        cmd.Int("sort"),
		Description: cmd.String("description"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created space %s (%s)\n", space.Name, space.ID)
}

// SpaceEdit updates a space.
func (r *Runner) SpaceEdit(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	space, err := r.services.Spaces.Update(ctx, models.EditSpaceRequest{
		ID:          cmd.StringArg("id"),
		Name:        cmd.String("name"),
		Icon:        cmd.String("icon"),
		Sort:        cmd.Int("sort"),
		Description: cmd.String("description"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated space %s\n", space.Name)
}

// SpaceDelete removes a space.
func (r *Runner) SpaceDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if err := r.services.Spaces.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted space %s\n", id)
}

// TagList lists every tag.
func (r *Runner) TagList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	tags, err := r.services.Tags.All(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(tags, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d tags:\n\n", len(tags))
	for i, t := range tags {
		r.writePlain("%d. %s", i+1, t.Name)
		if t.Color != "" {
			r.writePlain(" [%s]", t.Color)
		}
		r.writePlain("\n   ID: %s\n", t.ID)
		if cmd.Bool("stats") {
			if stats, err := r.services.Tags.BookmarkStats(ctx, t.ID); err == nil {
				r.writePlain("   Bookmarks: %d\n", stats.TotalCount)
			} else {
				r.logger.Warn("failed to fetch tag stats", "tag", t.ID, "error", err)
			}
		}
	}
	return nil
}

// TagAdd creates a tag.
func (r *Runner) TagAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	tag, err := r.services.Tags.Create(ctx, models.AddTagRequest{
		Name:        cmd.StringArg("name"),
		Color:       cmd.String("color"),
		Description: cmd.String("description"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created tag %s (%s)\n", tag.Name, tag.ID)
}

// TagDelete removes a tag.
func (r *Runner) TagDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	id := cmd.StringArg("id")
	if err := r.services.Tags.Delete(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted tag %s\n", id)
}

// ShareURL prints the public link of a shared space.
func (r *Runner) ShareURL(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	link, err := r.services.Shares.ShareURL(ctx, cmd.StringArg("space"))
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", link)
}

// ShareEnable turns sharing on, or off with --disable.
func (r *Runner) ShareEnable(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	enable := !cmd.Bool("disable")
	req := models.UpdateShareRequest{SpaceID: cmd.StringArg("space"), Enable: enable, Key: cmd.String("key")}
	if err := r.services.Shares.Update(ctx, req); err != nil {
		return err
	}
	return r.writePlain("✓ Sharing %s for space %s\n", map[bool]string{true: "enabled", false: "disabled"}[enable], req.SpaceID)
}

// ShareCollect adds a shared space to the signed-in user's library.
func (r *Runner) ShareCollect(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	spaceID := cmd.StringArg("space")
	password, err := r.valueOrPrompt(cmd.String("password"), "Share password")
	if err != nil {
		return err
	}
	if err := r.services.Shares.Collect(ctx, models.CollectSpaceRequest{SpaceID: spaceID, Password: password}); err != nil {
		return fmt.Errorf("failed to collect space: %w", err)
	}
	return r.writePlain("✓ Collected space %s\n", spaceID)
}

// SpaceSort saves the given space order.
func (r *Runner) SpaceSort(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	if err := r.services.Spaces.Reorder(ctx, ids); err != nil {
		return err
	}
	return r.writePlain("✓ Reordered %d spaces\n", len(ids))
}

// TagSort saves the given tag order.
func (r *Runner) TagSort(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	if err := r.services.Tags.DragSort(ctx, models.TagDragSort{SortedTagIDs: ids}); err != nil {
		return err
	}
	return r.writePlain("✓ Reordered %d tags\n", len(ids))
}

// ShareCollectors lists who collected a shared space.
func (r *Runner) ShareCollectors(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	page, err := r.services.Shares.Collectors(ctx, models.CollectorParams{
		SpaceID: cmd.StringArg("space"),
		Page:    cmd.Int("page"),
		Size:    cmd.Int("size"),
	})
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	r.writePlain("Collected by %d users:\n\n", page.Total)
	for i, c := range page.Records {
		r.writePlain("%d. %s (%s) since %s\n", i+1, c.Name, c.UserID, c.CollectedAt)
	}
	return nil
}

// ShareRevoke removes one collector from a shared space.
func (r *Runner) ShareRevoke(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	spaceID, userID := cmd.StringArg("space"), cmd.StringArg("user")
	if err := r.services.Shares.RemoveCollector(ctx, spaceID, userID); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s from space %s\n", userID, spaceID)
}

// ShareUncollect drops a collected space from the library.
func (r *Runner) ShareUncollect(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	spaceID := cmd.StringArg("space")
	if err := r.services.Shares.Uncollect(ctx, spaceID); err != nil {
		return err
	}
	return r.writePlain("✓ Uncollected space %s\n", spaceID)
}

// ShareCollected lists spaces collected from other users.
func (r *Runner) ShareCollected(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	page, err := r.services.Shares.Collected(ctx, models.ListParams{
		Page:   cmd.Int("page"),
		Size:   cmd.Int("size"),
		Search: cmd.String("search"),
	})
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d collected spaces:\n\n", page.Total)
	for i, s := range page.Records {
		r.writePlain("%d. %s\n   ID: %s\n", i+1, s.Name, s.ID)
	}
	return nil
}
