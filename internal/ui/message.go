package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSpacesFetched MsgKind = iota
	MsgBookmarksFetched
	MsgProgressUpdate
	MsgAnalysisComplete
)

type spacesFetched struct {
	spaces []models.Space
	err    error
}

type bookmarksFetched struct {
	space     models.Space
	bookmarks []models.Bookmark
	err       error
}

type analysisComplete struct {
	result *tasks.AnalysisRunResult
	err    error
}

// spacesFetchedMsg is the constructor for [MsgSpacesFetched]
func spacesFetchedMsg(spaces []models.Space, err error) Msg {
	return Msg{kind: MsgSpacesFetched, data: spacesFetched{spaces, err}}
}

// bookmarksFetchedMsg is the constructor for [MsgBookmarksFetched]
func bookmarksFetchedMsg(space models.Space, bookmarks []models.Bookmark, err error) Msg {
	return Msg{kind: MsgBookmarksFetched, data: bookmarksFetched{space, bookmarks, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// analysisCompleteMsg is the constructor for [MsgAnalysisComplete]
func analysisCompleteMsg(result *tasks.AnalysisRunResult, err error) Msg {
	return Msg{kind: MsgAnalysisComplete, data: analysisComplete{result, err}}
}
