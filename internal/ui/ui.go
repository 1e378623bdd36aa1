package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/markx/internal/formatter"
	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/services"
	"github.com/desertthunder/markx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SpaceListView ViewState = iota
	BookmarkListView
	InputView
	AnalyzeView
	ResultView
)

// statusLogSize is how many recent status lines the analyze view shows.
const statusLogSize = 8

// Library supplies the spaces and bookmarks to browse.
type Library interface {
	Spaces(ctx context.Context) ([]models.Space, error)
	Bookmarks(ctx context.Context, spaceID string) ([]models.Bookmark, error)
}

// AnalysisRunner runs one streaming analysis. [tasks.AnalysisEngine] implements it.
type AnalysisRunner interface {
	Run(ctx context.Context, target string, progress chan<- tasks.ProgressUpdate) (*tasks.AnalysisRunResult, error)
}

type servicesLibrary struct {
	svc *services.Services
}

// NewServicesLibrary adapts [services.Services] into a [Library].
//
// The space with an empty ID lists bookmarks that belong to no space.
func NewServicesLibrary(svc *services.Services) Library {
	return servicesLibrary{svc: svc}
}

func (l servicesLibrary) Spaces(ctx context.Context) ([]models.Space, error) {
	page, err := l.svc.Spaces.All(ctx)
	if err != nil {
		return nil, err
	}
	return page.Records, nil
}

func (l servicesLibrary) Bookmarks(ctx context.Context, spaceID string) ([]models.Bookmark, error) {
	if spaceID == "" {
		return l.svc.Bookmarks.Unassigned(ctx)
	}
	return l.svc.Bookmarks.BySpace(ctx, spaceID, "")
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	returnTo     ViewState
	library      Library
	engine       AnalysisRunner
	width        int
	height       int
	spaceList    list.Model
	bookmarkList list.Model
	space        *models.Space
	input        textinput.Model
	spinner      spinner.Model
	target       string
	progressChan chan tasks.ProgressUpdate
	done         chan Msg
	statuses     []string
	info         *models.BasicInfo
	result       *tasks.AnalysisRunResult
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, library Library, engine AnalysisRunner) *Model {
	input := textinput.New()
	input.Placeholder = "https://example.com"
	input.Prompt = "URL: "
	input.CharLimit = 2048

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.ok

	return &Model{
		ctx:          ctx,
		view:         SpaceListView,
		library:      library,
		engine:       engine,
		spaceList:    newList("Spaces", nil),
		bookmarkList: newList("Bookmarks", nil),
		input:        input,
		spinner:      sp,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	return l
}

// Init fetches the space list.
func (m *Model) Init() tea.Cmd {
	return m.fetchSpaces()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.spaceList.SetSize(msg.Width-4, msg.Height-8)
		m.bookmarkList.SetSize(msg.Width-4, msg.Height-8)
		m.input.Width = max(msg.Width-10, 20)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SpaceListView:
			return m.handleSpaceListKeys(msg)
		case BookmarkListView:
			return m.handleBookmarkListKeys(msg)
		case InputView:
			return m.handleInputKeys(msg)
		case AnalyzeView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != AnalyzeView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSpacesFetched:
		data := msg.data.(spacesFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		items := make([]list.Item, 0, len(data.spaces)+1)
		for _, s := range data.spaces {
			items = append(items, spaceItem{space: s})
		}
		items = append(items, spaceItem{space: models.Space{Name: "Unassigned", Description: "Bookmarks without a space"}})
		m.spaceList.SetItems(items)
		return m, nil

	case MsgBookmarksFetched:
		data := msg.data.(bookmarksFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.space = &data.space
		items := make([]list.Item, len(data.bookmarks))
		for i, b := range data.bookmarks {
			items[i] = bookmarkItem{bookmark: b}
		}
		m.bookmarkList.SetItems(items)
		m.bookmarkList.Title = fmt.Sprintf("Bookmarks in '%s'", data.space.Name)
		m.bookmarkList.ResetSelected()
		m.view = BookmarkListView
		return m, nil

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		switch update.Phase {
		case tasks.Status:
			m.statuses = append(m.statuses, update.Message)
		case tasks.BasicInfo:
			if info, ok := update.Data.(*models.BasicInfo); ok {
				m.info = info
			}
		case tasks.Failure:
			m.statuses = append(m.statuses, styles.err.Render(update.Message))
		}
		return m, waitForProgress(m.progressChan, m.done)

	case MsgAnalysisComplete:
		data := msg.data.(analysisComplete)
		m.result = data.result
		m.err = data.err
		if data.result != nil {
			if data.result.BasicInfo != nil {
				m.info = data.result.BasicInfo
			}
			if len(data.result.Statuses) > len(m.statuses) {
				m.statuses = data.result.Statuses
			}
		}
		m.progressChan = nil
		m.done = nil
		m.view = ResultView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" +
			m.help.ShortHelpView(m.keys.help(-1))
	}

	switch m.view {
	case SpaceListView:
		return m.renderList(m.spaceList)
	case BookmarkListView:
		return m.renderList(m.bookmarkList)
	case InputView:
		return m.renderInput()
	case AnalyzeView:
		return m.renderAnalyze()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) filtering(l list.Model) bool {
	return l.FilterState() == list.Filtering
}

func (m *Model) handleSpaceListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.err != nil {
		return m.handleErrorKeys(msg)
	}
	if !m.filtering(m.spaceList) {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.analyze):
			return m, m.openInput()
		case key.Matches(msg, m.keys.open):
			if item, ok := m.spaceList.SelectedItem().(spaceItem); ok {
				return m, m.fetchBookmarks(item.space)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.spaceList, cmd = m.spaceList.Update(msg)
	return m, cmd
}

func (m *Model) handleBookmarkListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.err != nil {
		return m.handleErrorKeys(msg)
	}
	if !m.filtering(m.bookmarkList) {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			m.view = SpaceListView
			return m, nil
		case key.Matches(msg, m.keys.analyze):
			return m, m.openInput()
		case key.Matches(msg, m.keys.submit):
			if item, ok := m.bookmarkList.SelectedItem().(bookmarkItem); ok {
				m.returnTo = BookmarkListView
				return m, m.startAnalysis(item.bookmark.URL)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.bookmarkList, cmd = m.bookmarkList.Update(msg)
	return m, cmd
}

// handleErrorKeys dismisses a fetch error, returning to the space list.
func (m *Model) handleErrorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.err = nil
		m.view = SpaceListView
	}
	return m, nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.input.Blur()
		m.view = m.returnTo
		return m, nil
	case tea.KeyEnter:
		target := strings.TrimSpace(m.input.Value())
		if target == "" {
			return m, nil
		}
		m.input.Blur()
		return m, m.startAnalysis(target)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.clearAnalysis()
		m.view = m.returnTo
	case key.Matches(msg, m.keys.restart):
		m.clearAnalysis()
		m.space = nil
		m.view = SpaceListView
		return m, m.fetchSpaces()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SpaceListView:
		m.spaceList, cmd = m.spaceList.Update(msg)
	case BookmarkListView:
		m.bookmarkList, cmd = m.bookmarkList.Update(msg)
	case InputView:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) clearAnalysis() {
	m.target = ""
	m.statuses = nil
	m.info = nil
	m.result = nil
	m.err = nil
}

func (m *Model) openInput() tea.Cmd {
	m.returnTo = m.view
	m.input.Reset()
	m.view = InputView
	return m.input.Focus()
}

func (m *Model) fetchSpaces() tea.Cmd {
	return func() tea.Msg {
		spaces, err := m.library.Spaces(m.ctx)
		return spacesFetchedMsg(spaces, err)
	}
}

func (m *Model) fetchBookmarks(space models.Space) tea.Cmd {
	return func() tea.Msg {
		bookmarks, err := m.library.Bookmarks(m.ctx, space.ID)
		return bookmarksFetchedMsg(space, bookmarks, err)
	}
}

// startAnalysis runs the engine in the background and streams its progress into the model.
func (m *Model) startAnalysis(target string) tea.Cmd {
	m.clearAnalysis()
	m.target = target
	m.view = AnalyzeView

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.progressChan = progress
	m.done = done

	go func() {
		result, err := m.engine.Run(m.ctx, target, progress)
		close(progress)
		done <- analysisCompleteMsg(result, err)
	}()

	return tea.Batch(m.spinner.Tick, waitForProgress(progress, done))
}

func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan Msg) tea.Cmd {
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		return <-done
	}
}

func (m *Model) renderList(l list.Model) string {
	return fmt.Sprintf("%s\n\n%s", l.View(), m.help.ShortHelpView(m.keys.help(m.view)))
}

func (m *Model) renderInput() string {
	title := styles.title.Render("Analyze a URL")
	helpView := m.help.ShortHelpView(m.keys.help(InputView))
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), helpView)
}

func (m *Model) renderInfo() string {
	if m.info == nil {
		return ""
	}
	lines := []string{styles.label.Render("Site") + m.info.Name}
	if m.info.Description != "" {
		lines = append(lines, styles.label.Render("About")+m.info.Description)
	}
	return styles.box.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderAnalyze() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Analyzing " + m.target))
	b.WriteString("\n")

	current := "Connecting..."
	if n := len(m.statuses); n > 0 {
		current = m.statuses[n-1]
	}
	fmt.Fprintf(&b, "%s %s\n", m.spinner.View(), current)

	log := m.statuses
	if len(log) > 1 {
		log = log[:len(log)-1]
		if len(log) > statusLogSize {
			log = log[len(log)-statusLogSize:]
		}
		for _, s := range log {
			b.WriteString(styles.help.Render("  ✓ "+s) + "\n")
		}
	}

	if info := m.renderInfo(); info != "" {
		b.WriteString("\n" + info + "\n")
	}

	b.WriteString("\n" + m.help.ShortHelpView(m.keys.help(AnalyzeView)))
	return b.String()
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView(m.keys.help(ResultView))

	if m.err != nil {
		msg := fmt.Sprintf("Analysis failed: %v", m.err)
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(msg), helpView)
	}
	if m.result == nil || m.result.Record == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	row := formatter.NewAnalysisRow(m.result.Record)
	title := styles.ok.Render("✓ Analysis Complete")

	lines := []string{
		styles.label.Render("URL") + row.URL,
		styles.label.Render("Name") + row.Name,
	}
	if row.Description != "" {
		lines = append(lines, styles.label.Render("About")+row.Description)
	}
	if row.Space != "" {
		lines = append(lines, styles.label.Render("Space")+row.Space)
	} else {
		lines = append(lines, styles.label.Render("Space")+styles.warn.Render("no suggestion"))
	}
	if len(row.Tags) > 0 {
		lines = append(lines, styles.label.Render("Tags")+strings.Join(row.Tags, ", "))
	}
	lines = append(lines,
		styles.label.Render("Events")+fmt.Sprint(row.Events),
		styles.label.Render("Took")+row.Duration,
	)

	return fmt.Sprintf("%s\n%s\n\n%s", title, styles.box.Render(strings.Join(lines, "\n")), helpView)
}
