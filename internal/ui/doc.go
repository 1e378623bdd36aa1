// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI browses the library and analyzes links:
//  1. [SpaceListView] : Browse spaces, including the unassigned bucket
//  2. [BookmarkListView] : Browse a space's bookmarks, enter analyzes the selected link
//  3. [InputView] : Type any URL to analyze
//  4. [AnalyzeView] : Spinner, streamed status messages, and the site's basic info
//  5. [ResultView] : Suggested space and tags, or the failure message
//
// Progress flows from [tasks.AnalysisEngine] over a buffered channel. Keyboard navigation uses vim-style
// bindings with contextual help from charmbracelet/bubbles/help.
package ui
