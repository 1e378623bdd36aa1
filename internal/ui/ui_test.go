package ui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/tasks"
)

type fakeLibrary struct {
	spaces    []models.Space
	bookmarks map[string][]models.Bookmark
	err       error
	requested []string
}

func (f *fakeLibrary) Spaces(ctx context.Context) ([]models.Space, error) {
	return f.spaces, f.err
}

func (f *fakeLibrary) Bookmarks(ctx context.Context, spaceID string) ([]models.Bookmark, error) {
	f.requested = append(f.requested, spaceID)
	return f.bookmarks[spaceID], f.err
}

type fakeRunner struct {
	updates []tasks.ProgressUpdate
	err     error
}

func (f *fakeRunner) Run(ctx context.Context, target string, progress chan<- tasks.ProgressUpdate) (*tasks.AnalysisRunResult, error) {
	for _, u := range f.updates {
		progress <- u
	}
	record := models.NewAnalysisRecord(target, models.ModeStream)
	if f.err != nil {
		record.Fail(f.err.Error())
		return &tasks.AnalysisRunResult{Record: record}, f.err
	}
	record.SetBasicInfo("Example", "An example site")
	record.Complete(json.RawMessage(`{"spaceName":"Reading","tagNames":["go","news"]}`))
	return &tasks.AnalysisRunResult{Record: record, Statuses: []string{"Fetching page", "Thinking"}}, nil
}

func newTestModel(lib *fakeLibrary, runner *fakeRunner) *Model {
	m := NewModel(context.Background(), lib, runner)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// drain feeds progress and completion messages back into the model until the run finishes.
func drain(t *testing.T, m *Model) {
	t.Helper()
	for i := 0; i < 20 && m.view == AnalyzeView; i++ {
		msg := waitForProgress(m.progressChan, m.done)()
		m.Update(msg)
	}
	if m.view != ResultView {
		t.Fatalf("expected result view, got %v", m.view)
	}
}

func TestModel(t *testing.T) {
	lib := &fakeLibrary{
		spaces: []models.Space{{ID: "s1", Name: "Reading"}},
		bookmarks: map[string][]models.Bookmark{
			"s1": {{ID: "b1", Name: "Go Blog", URL: "https://go.dev/blog", Star: true}},
			"":   {{ID: "b2", Name: "Loose", URL: "https://loose.example"}},
		},
	}

	t.Run("Init Lists Spaces With Unassigned", func(t *testing.T) {
		m := newTestModel(lib, &fakeRunner{})
		m.Update(m.Init()())

		items := m.spaceList.Items()
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if items[1].(spaceItem).space.Name != "Unassigned" {
			t.Errorf("expected unassigned bucket last, got %v", items[1])
		}
	})

	t.Run("Fetch Error Is Shown And Dismissed", func(t *testing.T) {
		m := newTestModel(&fakeLibrary{err: errors.New("offline")}, &fakeRunner{})
		m.Update(m.Init()())

		if !strings.Contains(m.View(), "offline") {
			t.Errorf("expected error in view, got %q", m.View())
		}
		m.Update(keyMsg("esc"))
		if m.err != nil {
			t.Error("expected error to be cleared")
		}
	})

	t.Run("Select Space Then Analyze Bookmark", func(t *testing.T) {
		runner := &fakeRunner{updates: []tasks.ProgressUpdate{
			{Phase: tasks.Status, Message: "Fetching page"},
			{Phase: tasks.BasicInfo, Data: &models.BasicInfo{Name: "Example"}},
		}}
		m := newTestModel(lib, runner)
		m.Update(m.Init()())

		_, cmd := m.Update(keyMsg("enter"))
		m.Update(cmd())
		if m.view != BookmarkListView {
			t.Fatalf("expected bookmark view, got %v", m.view)
		}
		if lib.requested[len(lib.requested)-1] != "s1" {
			t.Errorf("expected bookmarks for s1, got %v", lib.requested)
		}

		m.Update(keyMsg("enter"))
		if m.view != AnalyzeView || m.target != "https://go.dev/blog" {
			t.Fatalf("expected analysis of bookmark, got view %v target %q", m.view, m.target)
		}

		msg := waitForProgress(m.progressChan, m.done)()
		m.Update(msg)
		if !strings.Contains(m.View(), "Fetching page") {
			t.Errorf("expected status in analyze view, got %q", m.View())
		}

		drain(t, m)
		view := m.View()
		for _, want := range []string{"Analysis Complete", "Reading", "go, news"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected %q in result view", want)
			}
		}

		m.Update(keyMsg("esc"))
		if m.view != BookmarkListView {
			t.Errorf("expected to return to bookmarks, got %v", m.view)
		}
	})

	t.Run("Typed URL Failure", func(t *testing.T) {
		m := newTestModel(lib, &fakeRunner{err: errors.New("analysis timed out")})
		m.Update(m.Init()())

		m.Update(keyMsg("a"))
		if m.view != InputView {
			t.Fatalf("expected input view, got %v", m.view)
		}
		m.Update(keyMsg("enter"))
		if m.view != InputView {
			t.Error("empty input should not start an analysis")
		}

		m.Update(keyMsg("https://slow.example"))
		m.Update(keyMsg("enter"))
		if m.target != "https://slow.example" {
			t.Fatalf("unexpected target %q", m.target)
		}

		drain(t, m)
		if !strings.Contains(m.View(), "analysis timed out") {
			t.Errorf("expected failure in view, got %q", m.View())
		}

		m.Update(keyMsg("esc"))
		if m.view != SpaceListView {
			t.Errorf("expected to return to spaces, got %v", m.view)
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := newTestModel(lib, &fakeRunner{})
		_, cmd := m.Update(keyMsg("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestItems(t *testing.T) {
	b := bookmarkItem{bookmark: models.Bookmark{
		Name: "Go", URL: "https://go.dev", Star: true,
		Tags: []models.Tag{{Name: "lang"}},
	}}
	if b.Title() != "★ Go" {
		t.Errorf("unexpected title %q", b.Title())
	}
	if b.Description() != "https://go.dev • lang" {
		t.Errorf("unexpected description %q", b.Description())
	}

	s := spaceItem{space: models.Space{Name: "Team", Shared: true, Description: "shared links"}}
	if s.Description() != "Shared • shared links" {
		t.Errorf("unexpected description %q", s.Description())
	}
}

func TestKeyMap(t *testing.T) {
	keys := newKeyMap()

	t.Run("Result View Offers Restart", func(t *testing.T) {
		help := keys.help(ResultView)
		if len(help) != 3 || help[1].Help().Key != "r" {
			t.Errorf("unexpected result help %v", help)
		}
	})

	t.Run("Bookmark Enter Analyzes", func(t *testing.T) {
		if got := keys.help(BookmarkListView)[0].Help().Desc; got != "analyze" {
			t.Errorf("expected enter to analyze, got %q", got)
		}
	})

	t.Run("Unknown View Falls Back", func(t *testing.T) {
		if got := len(keys.help(ViewState(99))); got != 2 {
			t.Errorf("expected back and quit, got %d bindings", got)
		}
	})
}
