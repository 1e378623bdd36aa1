package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/markx/internal/analysis"
	"github.com/desertthunder/markx/internal/credentials"
	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
	tu "github.com/desertthunder/markx/internal/testing"
	"github.com/desertthunder/markx/internal/transport"
)

type captured struct {
	Method string
	Path   string
	Query  map[string]string
	Header http.Header
	Body   []byte
}

// backend answers every request with routes[method+" "+path], defaulting to an empty success envelope.
type backend struct {
	mu       sync.Mutex
	requests []captured
	routes   map[string]http.HandlerFunc
	srv      *httptest.Server
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{routes: map[string]http.HandlerFunc{}}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		q := map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		path := strings.TrimPrefix(r.URL.Path, "/api")

		b.mu.Lock()
		b.requests = append(b.requests, captured{Method: r.Method, Path: path, Query: q, Header: r.Header.Clone(), Body: body})
		h := b.routes[r.Method+" "+path]
		b.mu.Unlock()

		if h != nil {
			h(w, r)
			return
		}
		tu.WriteJSON(w, http.StatusOK, tu.Envelope(true, "ok", nil))
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) reply(method, path string, data any) {
	b.routes[method+" "+path] = func(w http.ResponseWriter, r *http.Request) {
		tu.WriteJSON(w, http.StatusOK, tu.Envelope(true, "ok", data))
	}
}

func (b *backend) last(t *testing.T) captured {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		t.Fatal("no request reached the backend")
	}
	return b.requests[len(b.requests)-1]
}

func (b *backend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func newTestServices(t *testing.T, b *backend) *Services {
	t.Helper()
	store := credentials.NewStore(credentials.Options{Logger: shared.NewLogger(io.Discard)})
	_ = store.Set("secret", false)

	client, err := transport.New(transport.Options{
		BaseURL:     b.srv.URL + "/api",
		Credentials: store,
		Navigator:   transport.NavigatorFunc(func(string) {}),
		Logger:      shared.NewLogger(io.Discard),
	})
	if err != nil {
		t.Fatalf("transport.New() error = %v", err)
	}

	analyzer := analysis.New(analysis.Options{
		BaseURL:     b.srv.URL + "/api",
		DisablePush: true,
		HTTPClient:  b.srv.Client(),
		Tokens:      store,
		Logger:      shared.NewLogger(io.Discard),
	})
	return New(client, analyzer)
}

func assertRequest(t *testing.T, got captured, method, path string) {
	t.Helper()
	if got.Method != method || got.Path != path {
		t.Errorf("expected %s %s, got %s %s", method, path, got.Method, got.Path)
	}
}

func TestFaviconURL(t *testing.T) {
	tc := []struct {
		name   string
		domain string
		size   int
		want   string
	}{
		{"Default Size", "go.dev", 0, "http://localhost:8080/api/favicon/icon?domain=go.dev&sz=32"},
		{"Custom Size", "go.dev", 64, "http://localhost:8080/api/favicon/icon?domain=go.dev&sz=64"},
		{"Escaped Domain", "a b&c", 16, "http://localhost:8080/api/favicon/icon?domain=a+b%26c&sz=16"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FaviconURL("http://localhost:8080/api/", tt.domain, tt.size); got != tt.want {
				t.Errorf("FaviconURL() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestUserService(t *testing.T) {
	t.Run("Login Hashes Password", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodPost, "/user/login", map[string]any{
			"userInfo":  map[string]string{"name": "ada"},
			"tokenInfo": map[string]any{"tokenName": "satoken", "tokenValue": "tok-1", "isLogin": true},
		})
		s := newTestServices(t, b)

		resp, err := s.Users.Login(context.Background(), "ada@example.com", "password")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if resp.TokenInfo.TokenValue != "tok-1" || resp.UserInfo.Name != "ada" {
			t.Errorf("unexpected response %+v", resp)
		}

		var req models.LoginRequest
		_ = json.Unmarshal(b.last(t).Body, &req)
		if req.Password != shared.HashPassword("password") || req.Password == "password" {
			t.Errorf("password should be hashed, got %q", req.Password)
		}
		if req.Credential != "ada@example.com" {
			t.Errorf("unexpected credential %q", req.Credential)
		}
	})

	t.Run("Login Requires Credentials", func(t *testing.T) {
		b := newBackend(t)
		s := newTestServices(t, b)

		if _, err := s.Users.Login(context.Background(), "", "x"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if b.count() != 0 {
			t.Error("no request should be sent")
		}
	})

	t.Run("Register", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodPost, "/user/register", map[string]any{"tokenInfo": map[string]any{"tokenValue": "t"}})
		s := newTestServices(t, b)

		if _, err := s.Users.Register(context.Background(), "ada", "ada@example.com", "pw"); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		var req models.RegisterRequest
		_ = json.Unmarshal(b.last(t).Body, &req)
		if req.Password != shared.HashPassword("pw") {
			t.Errorf("password should be hashed, got %q", req.Password)
		}
	})

	t.Run("Change Password", func(t *testing.T) {
		b := newBackend(t)
		s := newTestServices(t, b)

		if err := s.Users.ChangePassword(context.Background(), "old", "new", "other"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for mismatched confirmation, got %v", err)
		}
		if err := s.Users.ChangePassword(context.Background(), "old", "new", "new"); err != nil {
			t.Fatalf("ChangePassword() error = %v", err)
		}

		got := b.last(t)
		assertRequest(t, got, http.MethodPost, "/user/change-password")
		var req models.ChangePasswordRequest
		_ = json.Unmarshal(got.Body, &req)
		if req.CurrentPassword != shared.HashPassword("old") || req.NewPassword != shared.HashPassword("new") {
			t.Errorf("unexpected request %+v", req)
		}
	})

	t.Run("Info Sends Bearer", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodGet, "/user/info", map[string]string{"name": "ada", "email": "ada@example.com"})
		s := newTestServices(t, b)

		info, err := s.Users.Info(context.Background())
		if err != nil {
			t.Fatalf("Info() error = %v", err)
		}
		if info.Email != "ada@example.com" {
			t.Errorf("unexpected info %+v", info)
		}
		if got := b.last(t).Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
	})

	t.Run("Keys", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodGet, "/user/keys", []map[string]string{{"id": "k1", "accessKey": "ak"}})
		b.reply(http.MethodPost, "/user/key", map[string]string{"id": "k2", "keyName": "ci"})
		s := newTestServices(t, b)

		keys, err := s.Users.Keys(context.Background())
		if err != nil || len(keys) != 1 || keys[0].AccessKey != "ak" {
			t.Fatalf("Keys() = %v, %v", keys, err)
		}
		key, err := s.Users.CreateKey(context.Background(), models.CreateKeyRequest{KeyName: "ci"})
		if err != nil || key.ID != "k2" {
			t.Fatalf("CreateKey() = %v, %v", key, err)
		}
		if err := s.Users.DeleteKey(context.Background(), "k2"); err != nil {
			t.Fatalf("DeleteKey() error = %v", err)
		}
		assertRequest(t, b.last(t), http.MethodDelete, "/user/key/k2")

		if err := s.Users.DeleteKey(context.Background(), ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Github", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodGet, "/user/github/oauth2/redirect", "https://github.com/login/oauth/authorize?client_id=x")
		b.reply(http.MethodGet, "/user/github/oauth2/login", map[string]any{"tokenInfo": map[string]any{"tokenValue": "gh"}})
		s := newTestServices(t, b)

		redirect, err := s.Users.GithubRedirect(context.Background())
		if err != nil || !strings.HasPrefix(redirect, "https://github.com/") {
			t.Fatalf("GithubRedirect() = %q, %v", redirect, err)
		}

		resp, err := s.Users.GithubLogin(context.Background(), "abc")
		if err != nil || resp.TokenInfo.TokenValue != "gh" {
			t.Fatalf("GithubLogin() = %v, %v", resp, err)
		}
		if got := b.last(t).Query["code"]; got != "abc" {
			t.Errorf("code = %q", got)
		}
	})

	t.Run("Export", func(t *testing.T) {
		b := newBackend(t)
		b.routes["GET /user/export"] = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte(`[{"name":"Go"}]`))
		}
		s := newTestServices(t, b)
		s.Users.now = func() time.Time { return time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) }

		dir := t.TempDir()
		result, err := s.Users.Export(context.Background(), dir)
		if err != nil {
			t.Fatalf("Export() error = %v", err)
		}
		if filepath.Base(result.Path) != "bookmarks-export-2026-03-04.json" {
			t.Errorf("unexpected path %s", result.Path)
		}
		if got := tu.MustReadFile(t, result.Path); got != `[{"name":"Go"}]` {
			t.Errorf("unexpected content %s", got)
		}
	})

	t.Run("Import", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodPost, "/user/import", map[string]int{"successCount": 2, "totalCount": 2})
		s := newTestServices(t, b)

		var last int
		result, err := s.Users.Import(context.Background(), "export.json", strings.NewReader(`[]`), func(p int) { last = p })
		if err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		if result.SuccessCount != 2 {
			t.Errorf("unexpected result %+v", result)
		}
		if last != 100 {
			t.Errorf("expected final progress 100, got %d", last)
		}
		if ct := b.last(t).Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/form-data") {
			t.Errorf("Content-Type = %q", ct)
		}
	})
}

func TestBookmarkService(t *testing.T) {
	bookmarks := []map[string]any{{"id": "b1", "name": "Go", "url": "https://go.dev", "icon": 3}}

	t.Run("Listing Endpoints", func(t *testing.T) {
		tc := []struct {
			name  string
			call  func(s *BookmarkService) ([]models.Bookmark, error)
			path  string
			query map[string]string
		}{
			{"By Space", func(s *BookmarkService) ([]models.Bookmark, error) {
				return s.BySpace(context.Background(), "sp 1", "go")
			}, "/bookmark/space/sp 1", map[string]string{"search": "go"}},
			{"By Tag", func(s *BookmarkService) ([]models.Bookmark, error) {
				return s.ByTag(context.Background(), "t1", "")
			}, "/bookmark/tag/t1", map[string]string{}},
			{"Search", func(s *BookmarkService) ([]models.Bookmark, error) {
				return s.Search(context.Background(), "golang", 5)
			}, "/bookmark/search", map[string]string{"query": "golang", "limit": "5"}},
			{"Most Visited", func(s *BookmarkService) ([]models.Bookmark, error) {
				return s.MostVisited(context.Background(), 10)
			}, "/bookmark/most-visited", map[string]string{"limit": "10"}},
			{"Starred", func(s *BookmarkService) ([]models.Bookmark, error) {
				return s.Starred(context.Background(), 0)
			}, "/bookmark/starred", map[string]string{}},
			{"Unassigned", func(s *BookmarkService) ([]models.Bookmark, error) {
				return s.Unassigned(context.Background())
			}, "/bookmark/no-namespace", map[string]string{}},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				b := newBackend(t)
				b.reply(http.MethodGet, tt.path, bookmarks)
				s := newTestServices(t, b)

				got, err := tt.call(s.Bookmarks)
				if err != nil {
					t.Fatalf("error = %v", err)
				}
				if len(got) != 1 || got[0].Icon != "3" {
					t.Errorf("unexpected bookmarks %+v", got)
				}

				req := b.last(t)
				assertRequest(t, req, http.MethodGet, tt.path)
				if len(req.Query) != len(tt.query) {
					t.Errorf("query = %v, want %v", req.Query, tt.query)
				}
				for k, v := range tt.query {
					if req.Query[k] != v {
						t.Errorf("query[%s] = %q, want %q", k, req.Query[k], v)
					}
				}
			})
		}
	})

	t.Run("Mutations", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodPost, "/bookmark", map[string]string{"id": "b2", "url": "https://go.dev"})
		b.reply(http.MethodPut, "/bookmark", map[string]string{"id": "b2", "name": "Go"})
		s := newTestServices(t, b)
		ctx := context.Background()

		created, err := s.Bookmarks.Create(ctx, models.AddBookmarkRequest{Name: "Go", URL: "https://go.dev", TagIDs: []string{"t1"}})
		if err != nil || created.ID != "b2" {
			t.Fatalf("Create() = %v, %v", created, err)
		}
		if !strings.Contains(string(b.last(t).Body), `"tagsIds":["t1"]`) {
			t.Errorf("unexpected create body %s", b.last(t).Body)
		}

		if _, err := s.Bookmarks.Update(ctx, models.EditBookmarkRequest{ID: "b2", Name: "Go"}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		steps := []struct {
			name   string
			call   func() error
			method string
			path   string
		}{
			{"Delete", func() error { return s.Bookmarks.Delete(ctx, "b2") }, http.MethodDelete, "/bookmark"},
			{"Star", func() error { return s.Bookmarks.Star(ctx, "b2") }, http.MethodPost, "/bookmark/star"},
			{"Unstar", func() error { return s.Bookmarks.Unstar(ctx, "b2") }, http.MethodDelete, "/bookmark/star"},
			{"Toggle Star", func() error { return s.Bookmarks.ToggleStar(ctx, "b2") }, http.MethodPut, "/bookmark/star"},
		}
		for _, step := range steps {
			if err := step.call(); err != nil {
				t.Fatalf("%s error = %v", step.name, err)
			}
			req := b.last(t)
			assertRequest(t, req, step.method, step.path)
			if req.Query["id"] != "b2" {
				t.Errorf("%s: id = %q", step.name, req.Query["id"])
			}
		}

		if err := s.Bookmarks.RecordVisit(ctx, "b2"); err != nil {
			t.Fatalf("RecordVisit() error = %v", err)
		}
		assertRequest(t, b.last(t), http.MethodPost, "/bookmark/b2/increment-usage")
	})

	t.Run("Validation", func(t *testing.T) {
		b := newBackend(t)
		s := newTestServices(t, b)
		ctx := context.Background()

		if _, err := s.Bookmarks.Create(ctx, models.AddBookmarkRequest{Name: "x"}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("Create without url: %v", err)
		}
		if err := s.Bookmarks.Delete(ctx, " "); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("Delete without id: %v", err)
		}
		if _, err := s.Bookmarks.Search(ctx, "", 1); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("Search without query: %v", err)
		}
		if b.count() != 0 {
			t.Errorf("expected no requests, got %d", b.count())
		}
	})

	t.Run("Rejected", func(t *testing.T) {
		b := newBackend(t)
		b.routes["GET /bookmark/starred"] = func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusOK, tu.Envelope(false, "quota exceeded", nil))
		}
		s := newTestServices(t, b)

		_, err := s.Bookmarks.Starred(context.Background(), 3)
		if !errors.Is(err, shared.ErrRejected) {
			t.Fatalf("expected ErrRejected, got %v", err)
		}
		var terr *transport.Error
		if !errors.As(err, &terr) || terr.Message != "quota exceeded" {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("Import Chrome", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodPost, "/bookmark/import/chrome", map[string]any{"successCount": 3, "failCount": 1, "totalCount": 4})
		s := newTestServices(t, b)

		result, err := s.Bookmarks.ImportChrome(context.Background(), "bookmarks.html", strings.NewReader("<DL></DL>"), nil)
		if err != nil {
			t.Fatalf("ImportChrome() error = %v", err)
		}
		if result.TotalCount != 4 || result.FailCount != 1 {
			t.Errorf("unexpected result %+v", result)
		}
		if !strings.Contains(string(b.last(t).Body), `filename="bookmarks.html"`) {
			t.Error("multipart body should carry the filename")
		}
	})
}

func TestSpaceAndTagServices(t *testing.T) {
	t.Run("Space CRUD", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodGet, "/space", map[string]any{"records": []map[string]string{{"id": "s1", "name": "Dev"}}, "total": 1})
		b.reply(http.MethodGet, "/space/s1", map[string]string{"id": "s1", "name": "Dev"})
		b.reply(http.MethodPost, "/space", map[string]string{"id": "s2", "name": "Ops"})
		b.reply(http.MethodGet, "/bookmark/space/s1/stats", map[string]any{"spaceId": "s1", "totalCount": 7})
		s := newTestServices(t, b)
		ctx := context.Background()

		page, err := s.Spaces.List(ctx, models.ListParams{Page: 2, Size: 20})
		if err != nil || page.Total != 1 || page.Records[0].Name != "Dev" {
			t.Fatalf("List() = %+v, %v", page, err)
		}
		if q := b.last(t).Query; q["page"] != "2" || q["size"] != "20" {
			t.Errorf("unexpected query %v", q)
		}

		if space, err := s.Spaces.Get(ctx, "s1"); err != nil || space.Name != "Dev" {
			t.Fatalf("Get() = %+v, %v", space, err)
		}
		if _, err := s.Spaces.Create(ctx, models.AddSpaceRequest{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("Create without name: %v", err)
		}
		if space, err := s.Spaces.Create(ctx, models.AddSpaceRequest{Name: "Ops"}); err != nil || space.ID != "s2" {
			t.Fatalf("Create() = %+v, %v", space, err)
		}
		if stats, err := s.Spaces.Stats(ctx, "s1"); err != nil || stats.TotalCount != 7 {
			t.Fatalf("Stats() = %+v, %v", stats, err)
		}
		if err := s.Spaces.Delete(ctx, "s2"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		assertRequest(t, b.last(t), http.MethodDelete, "/space/s2")
	})

	t.Run("Space Not Found", func(t *testing.T) {
		b := newBackend(t)
		b.routes["GET /space/missing"] = func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusNotFound, tu.Envelope(false, "not here", nil))
		}
		s := newTestServices(t, b)

		if _, err := s.Spaces.Get(context.Background(), "missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Tags", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodGet, "/tag/all", []map[string]string{{"id": "t1", "name": "go"}, {"id": "t2", "name": "rust"}})
		b.reply(http.MethodGet, "/tag/stats", map[string]int{"totalCount": 2})
		b.reply(http.MethodGet, "/bookmark/tag/t1/stats", map[string]any{"tagId": "t1", "totalCount": 9})
		b.reply(http.MethodPut, "/tag", map[string]string{"id": "t1", "name": "golang", "color": "#00add8"})
		s := newTestServices(t, b)
		ctx := context.Background()

		tags, err := s.Tags.All(ctx)
		if err != nil || len(tags) != 2 {
			t.Fatalf("All() = %v, %v", tags, err)
		}
		if stats, err := s.Tags.Stats(ctx); err != nil || stats.TotalCount != 2 {
			t.Fatalf("Stats() = %+v, %v", stats, err)
		}
		if stats, err := s.Tags.BookmarkStats(ctx, "t1"); err != nil || stats.TagID != "t1" {
			t.Fatalf("BookmarkStats() = %+v, %v", stats, err)
		}
		if tag, err := s.Tags.Update(ctx, models.EditTagRequest{ID: "t1", Name: "golang", Color: "#00add8"}); err != nil || tag.Name != "golang" {
			t.Fatalf("Update() = %+v, %v", tag, err)
		}
		if _, err := s.Tags.List(ctx, models.ListParams{Search: " go "}); err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if q := b.last(t).Query; q["search"] != "go" {
			t.Errorf("unexpected query %v", q)
		}
	})
}

func TestShareService(t *testing.T) {
	b := newBackend(t)
	b.reply(http.MethodGet, "/space-share/share-url", "http://localhost:5173/share/abc")
	s := newTestServices(t, b)
	ctx := context.Background()

	link, err := s.Shares.ShareURL(ctx, "s1")
	if err != nil || link != "http://localhost:5173/share/abc" {
		t.Fatalf("ShareURL() = %q, %v", link, err)
	}
	if b.last(t).Query["spaceId"] != "s1" {
		t.Errorf("unexpected query %v", b.last(t).Query)
	}

	if err := s.Shares.Update(ctx, models.UpdateShareRequest{SpaceID: "s1", Enable: true}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	assertRequest(t, b.last(t), http.MethodPatch, "/space-share/update")

	if err := s.Shares.Collect(ctx, models.CollectSpaceRequest{SpaceID: "s1", Password: "pw"}); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	assertRequest(t, b.last(t), http.MethodPost, "/space-share/collect")

	if err := s.Shares.Collect(ctx, models.CollectSpaceRequest{}); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestAnalysisService(t *testing.T) {
	t.Run("Analyze And Usage", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodPost, "/website-analysis/analyze", map[string]any{"url": "https://go.dev", "spaceName": "Dev", "tagNames": []string{"go"}})
		b.reply(http.MethodGet, "/website-analysis/resource-usage", map[string]int{"used": 3, "limit": 10, "remaining": 7})
		s := newTestServices(t, b)
		ctx := context.Background()

		result, err := s.Analysis.Analyze(ctx, "https://go.dev")
		if err != nil || result.SpaceName != "Dev" || result.TagNames[0] != "go" {
			t.Fatalf("Analyze() = %+v, %v", result, err)
		}
		if !strings.Contains(string(b.last(t).Body), `"url":"https://go.dev"`) {
			t.Errorf("unexpected body %s", b.last(t).Body)
		}

		usage, err := s.Analysis.ResourceUsage(ctx)
		if err != nil || usage.Remaining != 7 {
			t.Fatalf("ResourceUsage() = %+v, %v", usage, err)
		}
	})

	t.Run("Stream Delegates To Analyzer", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodGet, analysis.StreamPath, map[string]string{"url": "https://go.dev", "name": "Go"})
		s := newTestServices(t, b)

		var result json.RawMessage
		err := s.Analysis.Stream(context.Background(), "https://go.dev", analysis.Callbacks{
			OnResult: func(d json.RawMessage) { result = d },
		})
		if err != nil {
			t.Fatalf("Stream() error = %v", err)
		}
		if !strings.Contains(string(result), `"name":"Go"`) {
			t.Errorf("unexpected result %s", result)
		}
		if got := b.last(t).Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
	})

	t.Run("Stream Without Analyzer", func(t *testing.T) {
		b := newBackend(t)
		s := newTestServices(t, b)
		s.Analysis.analyzer = nil

		if err := s.Analysis.Stream(context.Background(), "https://go.dev", analysis.Callbacks{}); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestFeedbackService(t *testing.T) {
	b := newBackend(t)
	b.reply(http.MethodPost, "/feedback", map[string]string{"id": "f1"})
	s := newTestServices(t, b)

	resp, err := s.Feedback.Create(context.Background(), models.FeedbackRequest{Content: "works well"})
	if err != nil || resp.ID != "f1" {
		t.Fatalf("Create() = %+v, %v", resp, err)
	}
	if _, err := s.Feedback.Create(context.Background(), models.FeedbackRequest{}); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestExportFilename(t *testing.T) {
	day := time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)
	if got := ExportFilename(day); got != "bookmarks-export-2025-12-31.json" {
		t.Errorf("ExportFilename() = %s", got)
	}
}

func TestAccountManagement(t *testing.T) {
	t.Run("Forgot Password", func(t *testing.T) {
		b := newBackend(t)
		s := newTestServices(t, b)

		if err := s.Users.ForgotPassword(context.Background(), "ada@example.com"); err != nil {
			t.Fatalf("ForgotPassword() error = %v", err)
		}
		got := b.last(t)
		assertRequest(t, got, http.MethodPost, "/user/forgot-password")
		if string(got.Body) != `{"email":"ada@example.com"}` {
			t.Errorf("unexpected body %s", got.Body)
		}
	})

	t.Run("Reset Password Hashes", func(t *testing.T) {
		b := newBackend(t)
		s := newTestServices(t, b)
		ctx := context.Background()

		if err := s.Users.ResetPassword(ctx, "ada@example.com", "123456", "new", "other"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for mismatched confirmation, got %v", err)
		}
		if err := s.Users.ResetPassword(ctx, "ada@example.com", "", "new", "new"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument without code, got %v", err)
		}
		if b.count() != 0 {
			t.Fatalf("invalid resets should not be sent, got %d requests", b.count())
		}

		if err := s.Users.ResetPassword(ctx, "ada@example.com", "123456", "new", "new"); err != nil {
			t.Fatalf("ResetPassword() error = %v", err)
		}
		got := b.last(t)
		assertRequest(t, got, http.MethodPost, "/user/reset-password")
		var req models.ResetPasswordRequest
		_ = json.Unmarshal(got.Body, &req)
		if req.Code != "123456" || req.NewPassword != shared.HashPassword("new") || req.ConfirmPassword != shared.HashPassword("new") {
			t.Errorf("unexpected request %+v", req)
		}
	})

	t.Run("Change Username", func(t *testing.T) {
		b := newBackend(t)
		s := newTestServices(t, b)

		if err := s.Users.ChangeUsername(context.Background(), " "); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if err := s.Users.ChangeUsername(context.Background(), "grace"); err != nil {
			t.Fatalf("ChangeUsername() error = %v", err)
		}
		got := b.last(t)
		assertRequest(t, got, http.MethodPost, "/user/change-username")
		if string(got.Body) != `{"newUsername":"grace"}` {
			t.Errorf("unexpected body %s", got.Body)
		}
	})

	t.Run("Password Status", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodGet, "/user/password/status", false)
		s := newTestServices(t, b)

		set, err := s.Users.HasPassword(context.Background())
		if err != nil {
			t.Fatalf("HasPassword() error = %v", err)
		}
		if set {
			t.Error("expected an account without a password")
		}
	})
}

func TestDuplicates(t *testing.T) {
	t.Run("Report Passes Through", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodGet, "/bookmark/duplicates", map[string]any{"go.dev": []string{"b1", "b2"}})
		s := newTestServices(t, b)

		report, err := s.Bookmarks.Duplicates(context.Background(), 0)
		if err != nil {
			t.Fatalf("Duplicates() error = %v", err)
		}
		if b.last(t).Query["level"] != "1" {
			t.Errorf("expected default level 1, got %q", b.last(t).Query["level"])
		}
		var groups map[string][]string
		if err := json.Unmarshal(report, &groups); err != nil || len(groups["go.dev"]) != 2 {
			t.Errorf("unexpected report %s (%v)", report, err)
		}

		if _, err := s.Bookmarks.Duplicates(context.Background(), 3); err != nil {
			t.Fatalf("Duplicates() error = %v", err)
		}
		if b.last(t).Query["level"] != "3" {
			t.Errorf("expected level 3, got %q", b.last(t).Query["level"])
		}
	})

	t.Run("Ignored Groups", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodGet, "/bookmark/ignored-groups", []string{"go.dev"})
		s := newTestServices(t, b)
		ctx := context.Background()

		groups, err := s.Bookmarks.IgnoredGroups(ctx)
		if err != nil || len(groups) != 1 || groups[0] != "go.dev" {
			t.Fatalf("IgnoredGroups() = %v, %v", groups, err)
		}

		if err := s.Bookmarks.AddIgnoredGroup(ctx, "dev tools"); err != nil {
			t.Fatalf("AddIgnoredGroup() error = %v", err)
		}
		got := b.last(t)
		assertRequest(t, got, http.MethodPost, "/bookmark/ignored-groups")
		if string(got.Body) != `{"groupName":"dev tools"}` {
			t.Errorf("unexpected body %s", got.Body)
		}

		if err := s.Bookmarks.RemoveIgnoredGroup(ctx, "dev tools"); err != nil {
			t.Fatalf("RemoveIgnoredGroup() error = %v", err)
		}
		assertRequest(t, b.last(t), http.MethodDelete, "/bookmark/ignored-groups/dev tools")

		if err := s.Bookmarks.SetIgnoredGroups(ctx, nil); err != nil {
			t.Fatalf("SetIgnoredGroups() error = %v", err)
		}
		got = b.last(t)
		assertRequest(t, got, http.MethodPut, "/bookmark/ignored-groups")
		if string(got.Body) != `{"groupNames":[]}` {
			t.Errorf("clearing should send an empty list, got %s", got.Body)
		}

		if err := s.Bookmarks.AddIgnoredGroup(ctx, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestOrdering(t *testing.T) {
	t.Run("Reorder Spaces", func(t *testing.T) {
		b := newBackend(t)
		s := newTestServices(t, b)

		if err := s.Spaces.Reorder(context.Background(), []string{"s2", "s1"}); err != nil {
			t.Fatalf("Reorder() error = %v", err)
		}
		got := b.last(t)
		assertRequest(t, got, http.MethodPut, "/space/sort")
		var updates []models.SortUpdate
		_ = json.Unmarshal(got.Body, &updates)
		if len(updates) != 2 || updates[0] != (models.SortUpdate{ID: "s2", Sort: 0}) || updates[1] != (models.SortUpdate{ID: "s1", Sort: 1}) {
			t.Errorf("unexpected updates %+v", updates)
		}

		if err := s.Spaces.Reorder(context.Background(), []string{"s1", ""}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := s.Spaces.Reorder(context.Background(), nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Drag Sort", func(t *testing.T) {
		b := newBackend(t)
		s := newTestServices(t, b)
		ctx := context.Background()

		if err := s.Spaces.DragSort(ctx, models.SpaceDragSort{DraggedSpaceID: "s3", TargetIndex: "0"}); err != nil {
			t.Fatalf("space DragSort() error = %v", err)
		}
		got := b.last(t)
		assertRequest(t, got, http.MethodPut, "/space/drag-sort")
		if string(got.Body) != `{"draggedSpaceId":"s3","targetIndex":"0"}` {
			t.Errorf("unexpected body %s", got.Body)
		}

		if err := s.Tags.DragSort(ctx, models.TagDragSort{SortedTagIDs: []string{"t2", "t1"}}); err != nil {
			t.Fatalf("tag DragSort() error = %v", err)
		}
		got = b.last(t)
		assertRequest(t, got, http.MethodPut, "/tag/drag-sort")
		if string(got.Body) != `{"sortedTagIds":["t2","t1"]}` {
			t.Errorf("unexpected body %s", got.Body)
		}

		if err := s.Tags.DragSort(ctx, models.TagDragSort{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestCollectors(t *testing.T) {
	b := newBackend(t)
	b.reply(http.MethodGet, "/space-share/collection-users", map[string]any{
		"records": []map[string]string{{"userId": "u2", "name": "grace", "collectedAt": "2024-01-02"}},
		"total":   1,
	})
	b.reply(http.MethodGet, "/space-share/user-spaces", map[string]any{
		"records": []map[string]string{{"id": "s9", "name": "Shared Go"}},
		"total":   1,
	})
	s := newTestServices(t, b)
	ctx := context.Background()

	page, err := s.Shares.Collectors(ctx, models.CollectorParams{SpaceID: "s1", Page: 2, Size: 5})
	if err != nil || len(page.Records) != 1 || page.Records[0].Name != "grace" {
		t.Fatalf("Collectors() = %+v, %v", page, err)
	}
	if q := b.last(t).Query; q["spaceId"] != "s1" || q["page"] != "2" || q["size"] != "5" {
		t.Errorf("unexpected query %v", q)
	}

	if err := s.Shares.RemoveCollector(ctx, "s1", "u2"); err != nil {
		t.Fatalf("RemoveCollector() error = %v", err)
	}
	got := b.last(t)
	assertRequest(t, got, http.MethodDelete, "/space-share/remove")
	if string(got.Body) != `{"spaceId":"s1","userId":"u2"}` {
		t.Errorf("unexpected body %s", got.Body)
	}

	if err := s.Shares.Uncollect(ctx, "s9"); err != nil {
		t.Fatalf("Uncollect() error = %v", err)
	}
	got = b.last(t)
	assertRequest(t, got, http.MethodDelete, "/space-share/cancel-collect")
	if got.Query["spaceId"] != "s9" {
		t.Errorf("unexpected query %v", got.Query)
	}

	spaces, err := s.Shares.Collected(ctx, models.ListParams{Search: "go"})
	if err != nil || len(spaces.Records) != 1 || spaces.Records[0].ID != "s9" {
		t.Fatalf("Collected() = %+v, %v", spaces, err)
	}
	assertRequest(t, b.last(t), http.MethodGet, "/space-share/user-spaces")

	calls := b.count()
	if _, err := s.Shares.Collectors(ctx, models.CollectorParams{}); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
	if err := s.Shares.RemoveCollector(ctx, "s1", ""); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
	if b.count() != calls {
		t.Error("invalid calls should not reach the backend")
	}
}

func TestReceivedService(t *testing.T) {
	t.Run("List Filters By State", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodGet, "/received/bookmark", map[string]any{
			"records": []map[string]any{{"id": "r1", "name": "Go", "url": "https://go.dev", "icon": 3, "state": 1}},
			"total":   1,
		})
		s := newTestServices(t, b)

		page, err := s.Received.List(context.Background(), models.ReceivedParams{State: models.ReceivedPending, ListParams: models.ListParams{Size: 20}})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(page.Records) != 1 || page.Records[0].State != models.ReceivedPending || page.Records[0].Icon != "3" {
			t.Errorf("unexpected page %+v", page)
		}
		if q := b.last(t).Query; q["state"] != "1" || q["size"] != "20" {
			t.Errorf("unexpected query %v", q)
		}
	})

	t.Run("Lifecycle", func(t *testing.T) {
		b := newBackend(t)
		b.reply(http.MethodPost, "/received/bookmark", map[string]any{"id": "r2", "name": "Go", "url": "https://go.dev", "state": 1})
		b.reply(http.MethodPut, "/received/bookmark", map[string]any{"id": "r2", "name": "Go Dev", "state": 1})
		b.reply(http.MethodGet, "/received/bookmark/r2", map[string]any{"id": "r2", "state": 2})
		b.reply(http.MethodGet, "/received/bookmark/stats", map[string]int{"pendingCount": 2, "confirmedCount": 1, "totalCount": 3})
		s := newTestServices(t, b)
		ctx := context.Background()

		created, err := s.Received.Create(ctx, models.AddReceivedRequest{Name: "Go", URL: "https://go.dev", Group: "dev"})
		if err != nil || created.ID != "r2" {
			t.Fatalf("Create() = %+v, %v", created, err)
		}

		updated, err := s.Received.Update(ctx, models.EditReceivedRequest{ID: "r2", AddReceivedRequest: models.AddReceivedRequest{Name: "Go Dev"}})
		if err != nil || updated.Name != "Go Dev" {
			t.Fatalf("Update() = %+v, %v", updated, err)
		}
		if !strings.Contains(string(b.last(t).Body), `"id":"r2"`) {
			t.Errorf("update body should carry the id, got %s", b.last(t).Body)
		}

		if err := s.Received.Confirm(ctx, "r2"); err != nil {
			t.Fatalf("Confirm() error = %v", err)
		}
		assertRequest(t, b.last(t), http.MethodPost, "/received/bookmark/r2/confirm")

		got, err := s.Received.Get(ctx, "r2")
		if err != nil || got.State != models.ReceivedConfirmed {
			t.Fatalf("Get() = %+v, %v", got, err)
		}

		if err := s.Received.Delete(ctx, "r2"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		assertRequest(t, b.last(t), http.MethodDelete, "/received/bookmark/r2")

		stats, err := s.Received.Stats(ctx)
		if err != nil || stats.PendingCount != 2 || stats.TotalCount != 3 {
			t.Fatalf("Stats() = %+v, %v", stats, err)
		}
	})

	t.Run("Validation", func(t *testing.T) {
		b := newBackend(t)
		s := newTestServices(t, b)
		ctx := context.Background()

		if _, err := s.Received.Create(ctx, models.AddReceivedRequest{Name: "Go"}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("Create without url: %v", err)
		}
		if _, err := s.Received.Update(ctx, models.EditReceivedRequest{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("Update without id: %v", err)
		}
		if err := s.Received.Confirm(ctx, ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("Confirm without id: %v", err)
		}
		if b.count() != 0 {
			t.Errorf("expected no requests, got %d", b.count())
		}
	})
}
