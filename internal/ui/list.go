package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
)

var (
	_ list.Item = spaceItem{}
	_ list.Item = bookmarkItem{}
)

// spaceItem wraps [models.Space] to implement [list.Item].
type spaceItem struct {
	space models.Space
}

func (i spaceItem) FilterValue() string { return i.space.Name }
func (i spaceItem) Title() string       { return i.space.Name }
func (i spaceItem) Description() string {
	desc := shared.VisibilityString(i.space.Shared)
	if i.space.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.space.Description)
	}
	return desc
}

// bookmarkItem wraps [models.Bookmark] to implement [list.Item].
type bookmarkItem struct {
	bookmark models.Bookmark
}

func (i bookmarkItem) FilterValue() string { return i.bookmark.Name + " " + i.bookmark.URL }
func (i bookmarkItem) Title() string {
	if i.bookmark.Star {
		return "★ " + i.bookmark.Name
	}
	return i.bookmark.Name
}
func (i bookmarkItem) Description() string {
	desc := i.bookmark.URL
	if tags := i.bookmark.TagNames(); len(tags) > 0 {
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(tags, ", "))
	}
	return desc
}
