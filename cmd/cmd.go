// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/desertthunder/markx/internal/services"
	"github.com/urfave/cli/v3"
)

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output", Value: true},
	}
}

// exportFlags are shared by every command that prints a bookmark list.
func exportFlags() []cli.Flag {
	return append(jsonFlags(),
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Export format: plain, csv, md, txt or json (default: from --output extension)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the export to a file (md writes a directory)",
		},
		&cli.BoolFlag{Name: "icons", Usage: "Download favicons into a Markdown export"},
		&cli.IntFlag{Name: "limit", Usage: "Maximum number of bookmarks"},
	)
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a default config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
					},
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
					},
					&cli.BoolFlag{Name: "rollback", Usage: "Roll back the latest migration instead"},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with a username or email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Usage: "Username or email"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password (prompted when omitted)"},
					&cli.BoolFlag{Name: "session", Usage: "Do not persist the token"},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and sign in",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Remove the stored token",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show where the token comes from and who it belongs to",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.AuthStatus,
			},
			{
				Name:  "github",
				Usage: "Sign in with GitHub through a local callback server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "code", Usage: "Exchange an authorization code you already have"},
					&cli.DurationFlag{Name: "timeout", Usage: "How long to wait for the callback", Value: 2 * time.Minute},
					&cli.BoolFlag{Name: "no-browser", Usage: "Print the authorization URL instead of opening it"},
				},
				Action: r.AuthGithub,
			},
			{
				Name:  "token",
				Usage: "Show the active token, or store one",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "set", Usage: "Store this token"},
					&cli.BoolFlag{Name: "session", Usage: "Do not persist the stored token"},
					&cli.BoolFlag{Name: "reveal", Usage: "Print the full token"},
				},
				Action: r.AuthToken,
			},
			{
				Name:  "password",
				Usage: "Change the account password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "current"},
					&cli.StringFlag{Name: "new"},
					&cli.StringFlag{Name: "confirm"},
				},
				Action: r.AuthPassword,
			},
			{
				Name:   "forgot",
				Usage:  "Mail a password reset code",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "email"}},
				Action: r.AuthForgot,
			},
			{
				Name:  "reset",
				Usage: "Set a new password with a mailed reset code",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email"},
					&cli.StringFlag{Name: "code"},
					&cli.StringFlag{Name: "new"},
					&cli.StringFlag{Name: "confirm"},
				},
				Action: r.AuthReset,
			},
			{
				Name:      "username",
				Usage:     "Change the account username",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.AuthUsername,
			},
			{
				Name:  "keys",
				Usage: "Manage API keys",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List API keys",
						Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
						Action: r.AuthKeys,
					},
					{
						Name:      "create",
						Usage:     "Create an API key",
						Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
						Flags:     []cli.Flag{&cli.StringFlag{Name: "description"}},
						Action:    r.AuthKeyCreate,
					},
					{
						Name:      "delete",
						Usage:     "Delete an API key",
						Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
						Action:    r.AuthKeyDelete,
					},
				},
			},
		},
	}
}

// bookmarkCommand handles bookmark operations
func bookmarkCommand(r *Runner) *cli.Command {
	editFlags := []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}},
		&cli.StringFlag{Name: "description", Aliases: []string{"d"}},
		&cli.StringFlag{Name: "space", Aliases: []string{"s"}, Usage: "Space ID"},
		&cli.StringSliceFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Tag ID (repeatable)"},
	}

	return &cli.Command{
		Name:    "bookmark",
		Aliases: []string{"bm"},
		Usage:   "Bookmark operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List bookmarks in a space, a tag, or the whole library",
				Flags: append(exportFlags(),
					&cli.StringFlag{Name: "space", Aliases: []string{"s"}, Usage: "Space ID"},
					&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Tag ID"},
					&cli.StringFlag{Name: "search", Usage: "Filter by text"},
					&cli.BoolFlag{Name: "unassigned", Usage: "Only bookmarks without a space"},
				),
				Action: r.BookmarkList,
			},
			{
				Name:      "search",
				Usage:     "Full-text search",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags:     exportFlags(),
				Action:    r.BookmarkSearch,
			},
			{
				Name:      "add",
				Usage:     "Save a bookmark",
				Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
				Flags: append(editFlags,
					&cli.BoolFlag{Name: "analyze", Aliases: []string{"a"}, Usage: "Fill missing fields from an AI analysis"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				),
				Action: r.BookmarkAdd,
			},
			{
				Name:      "edit",
				Usage:     "Update a bookmark",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     append(editFlags, &cli.StringFlag{Name: "url"}),
				Action:    r.BookmarkEdit,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a bookmark",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.BookmarkDelete,
			},
			{
				Name:      "star",
				Usage:     "Star a bookmark",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "unstar", Usage: "Remove the star"},
					&cli.BoolFlag{Name: "toggle", Usage: "Flip the star"},
				},
				Action: r.BookmarkStar,
			},
			{
				Name:  "starred",
				Usage: "List starred bookmarks",
				Flags: append(exportFlags(),
					&cli.BoolFlag{Name: "most-visited", Usage: "List the most visited bookmarks instead"},
				),
				Action: r.BookmarkStarred,
			},
			{
				Name:  "open",
				Usage: "Open a bookmark in the browser and count the visit",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
					&cli.StringArg{Name: "url"},
				},
				Action: r.BookmarkOpen,
			},
			{
				Name:      "import",
				Usage:     "Import a Chrome bookmarks HTML export",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Action:    r.BookmarkImport,
			},
			{
				Name:    "duplicates",
				Aliases: []string{"dupes"},
				Usage:   "Report duplicate bookmarks",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "level", Aliases: []string{"l"}, Usage: "Match strictness", Value: services.DefaultDuplicateLevel},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output", Value: true},
				},
				Action: r.BookmarkDuplicates,
			},
			{
				Name:  "ignored",
				Usage: "Duplicate groups hidden from the report",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List ignored groups",
						Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
						Action: r.BookmarkIgnored,
					},
					{
						Name:      "add",
						Usage:     "Hide a duplicate group",
						Arguments: []cli.Argument{&cli.StringArg{Name: "group"}},
						Action:    r.BookmarkIgnore,
					},
					{
						Name:      "remove",
						Aliases:   []string{"rm"},
						Usage:     "Show a duplicate group again",
						Arguments: []cli.Argument{&cli.StringArg{Name: "group"}},
						Flags:     []cli.Flag{&cli.BoolFlag{Name: "all", Usage: "Clear every ignored group"}},
						Action:    r.BookmarkUnignore,
					},
				},
			},
		},
	}
}

// spaceCommand handles space operations
func spaceCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "space",
		Usage: "Space operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List spaces",
				Flags: append(jsonFlags(),
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "size", Value: 50},
					&cli.StringFlag{Name: "search"},
					&cli.BoolFlag{Name: "stats", Usage: "Include bookmark counts"},
				),
				Action: r.SpaceList,
			},
			{
				Name:      "add",
				Usage:     "Create a space",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}},
					&cli.StringFlag{Name: "icon"},
					&cli.IntFlag{Name: "sort"},
				},
				Action: r.SpaceAdd,
			},
			{
				Name:      "edit",
				Usage:     "Update a space",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}},
					&cli.StringFlag{Name: "icon"},
					&cli.IntFlag{Name: "sort"},
				},
				Action: r.SpaceEdit,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a space",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SpaceDelete,
			},
			{
				Name:      "sort",
				Usage:     "Save a space order",
				ArgsUsage: "<id>...",
				Action:    r.SpaceSort,
			},
		},
	}
}

// tagCommand handles tag operations
func tagCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tag",
		Usage: "Tag operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List tags",
				Flags:  append(jsonFlags(), &cli.BoolFlag{Name: "stats", Usage: "Include bookmark counts"}),
				Action: r.TagList,
			},
			{
				Name:      "add",
				Usage:     "Create a tag",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "color", Value: "#7D56F4"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}},
				},
				Action: r.TagAdd,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a tag",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.TagDelete,
			},
			{
				Name:      "sort",
				Usage:     "Save a tag order",
				ArgsUsage: "<id>...",
				Action:    r.TagSort,
			},
		},
	}
}

// shareCommand handles space sharing
func shareCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "share",
		Usage: "Share spaces",
		Commands: []*cli.Command{
			{
				Name:      "url",
				Usage:     "Print a shared space's public link",
				Arguments: []cli.Argument{&cli.StringArg{Name: "space"}},
				Action:    r.ShareURL,
			},
			{
				Name:      "enable",
				Usage:     "Enable sharing for a space",
				Arguments: []cli.Argument{&cli.StringArg{Name: "space"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "key", Usage: "Access password for the share"},
					&cli.BoolFlag{Name: "disable", Usage: "Disable sharing instead"},
				},
				Action: r.ShareEnable,
			},
			{
				Name:      "collect",
				Usage:     "Add someone's shared space to your library",
				Arguments: []cli.Argument{&cli.StringArg{Name: "space"}},
				Flags:     []cli.Flag{&cli.StringFlag{Name: "password", Aliases: []string{"p"}}},
				Action:    r.ShareCollect,
			},
			{
				Name:      "uncollect",
				Usage:     "Remove a collected space from your library",
				Arguments: []cli.Argument{&cli.StringArg{Name: "space"}},
				Action:    r.ShareUncollect,
			},
			{
				Name:  "collected",
				Usage: "List spaces collected from other users",
				Flags: append(jsonFlags(),
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "size", Value: 50},
					&cli.StringFlag{Name: "search"},
				),
				Action: r.ShareCollected,
			},
			{
				Name:      "collectors",
				Usage:     "List who collected one of your spaces",
				Arguments: []cli.Argument{&cli.StringArg{Name: "space"}},
				Flags: append(jsonFlags(),
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "size", Value: 50},
				),
				Action: r.ShareCollectors,
			},
			{
				Name:  "revoke",
				Usage: "Remove a user's collection of your space",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "space"},
					&cli.StringArg{Name: "user"},
				},
				Action: r.ShareRevoke,
			},
		},
	}
}

// inboxCommand handles bookmarks received from integrations
func inboxCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "inbox",
		Usage: "Review bookmarks received from integrations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List inbox entries",
				Flags: append(jsonFlags(),
					&cli.StringFlag{Name: "state", Usage: "pending, confirmed, deleted or all", Value: "pending"},
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "size", Value: 50},
					&cli.StringFlag{Name: "search"},
				),
				Action: r.InboxList,
			},
			{
				Name:      "add",
				Usage:     "Send a link to the inbox",
				Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Defaults to the URL"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}},
					&cli.StringFlag{Name: "group", Aliases: []string{"g"}},
					&cli.StringFlag{Name: "tag", Aliases: []string{"t"}},
				},
				Action: r.InboxAdd,
			},
			{
				Name:      "confirm",
				Usage:     "File an entry as a bookmark",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.InboxConfirm,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Discard an entry",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.InboxDelete,
			},
			{
				Name:   "stats",
				Usage:  "Count entries per state",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.InboxStats,
			},
		},
	}
}

// analyzeCommand handles AI website analysis
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "AI website analysis",
		Commands: []*cli.Command{
			{
				Name:      "url",
				Usage:     "Stream an analysis of one URL",
				Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "direct", Usage: "Use the one-shot endpoint instead of the stream"},
					&cli.BoolFlag{Name: "json", Usage: "Output the recorded result as JSON"},
				},
				Action: r.AnalyzeURL,
			},
			{
				Name:      "bulk",
				Usage:     "Analyze many URLs with a worker pool",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "url", Usage: "URL to analyze (repeatable)"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Manifest format: json, csv, md or txt", Value: "json"},
					&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Manifest directory"},
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "Concurrent analyses (max 10)"},
					&cli.Float64Flag{Name: "rate", Usage: "Analyses started per second"},
					&cli.BoolFlag{Name: "direct", Usage: "Use the one-shot endpoint instead of the stream"},
				},
				Action: r.AnalyzeBulk,
			},
			{
				Name:  "history",
				Usage: "Show recorded analyses",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Usage: "Only this URL"},
					&cli.StringFlag{Name: "status", Usage: "running, completed or failed"},
					&cli.IntFlag{Name: "limit", Value: 20},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "txt"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write a report; format from extension"},
				},
				Action: r.AnalyzeHistory,
			},
			{
				Name:   "usage",
				Usage:  "Show the AI analysis quota",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.AnalyzeUsage,
			},
		},
	}
}

// dataCommand handles account export and import
func dataCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "data",
		Usage: "Export and import account data",
		Commands: []*cli.Command{
			{
				Name:   "export",
				Usage:  "Download a full export",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Value: "."}},
				Action: r.DataExport,
			},
			{
				Name:      "import",
				Usage:     "Upload a previous export",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Action:    r.DataImport,
			},
		},
	}
}

// feedbackCommand sends feedback
func feedbackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "feedback",
		Usage:     "Send feedback",
		ArgsUsage: "[message]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Value: "suggestion"},
			&cli.StringFlag{Name: "contact", Usage: "How to reach you"},
		},
		Action: r.Feedback,
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse spaces and analyze bookmarks interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-file", Value: "./tmp/markx-tui.log", Usage: "Where logs go while the TUI runs"},
		},
		Action: r.TUI,
	}
}
