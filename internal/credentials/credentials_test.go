package credentials

import (
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"testing"

	"github.com/desertthunder/markx/internal/shared"
)

type failingPersister struct{ err error }

func (f failingPersister) Load(string) (string, error) { return "", f.err }
func (f failingPersister) Save(string, string) error   { return f.err }
func (f failingPersister) Delete(string) error         { return f.err }

func newTestStore(t *testing.T) (*Store, http.CookieJar, *url.URL, *MemoryPersister) {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	u, _ := url.Parse("http://localhost:8080/api")
	persister := NewMemoryPersister()

	store := NewStore(Options{Jar: jar, CookieURL: u, Persister: persister, Logger: shared.NewLogger(nil)})
	return store, jar, u, persister
}

func TestStore(t *testing.T) {
	t.Run("Empty Store", func(t *testing.T) {
		store, _, _, _ := newTestStore(t)

		if v, tier := store.Lookup(); v != "" || tier != TierNone {
			t.Errorf("Lookup() = %q, %s", v, tier)
		}
		if _, err := store.Token(); !errors.Is(err, shared.ErrNoCredential) {
			t.Errorf("expected ErrNoCredential, got %v", err)
		}
	})

	t.Run("Priority Order", func(t *testing.T) {
		store, jar, u, _ := newTestStore(t)

		if err := store.Set("session-token", false); err != nil {
			t.Fatal(err)
		}
		if v, tier := store.Lookup(); v != "session-token" || tier != TierSession {
			t.Errorf("Lookup() = %q, %s", v, tier)
		}

		if err := store.Set("persistent-token", true); err != nil {
			t.Fatal(err)
		}
		if v, tier := store.Lookup(); v != "persistent-token" || tier != TierPersistent {
			t.Errorf("Lookup() = %q, %s", v, tier)
		}

		jar.SetCookies(u, []*http.Cookie{{Name: CookieName, Value: "cookie-token", Path: "/"}})
		if v, tier := store.Lookup(); v != "cookie-token" || tier != TierCookie {
			t.Errorf("Lookup() = %q, %s", v, tier)
		}

		tok, err := store.Token()
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if tok.AccessToken != "cookie-token" || tok.Type() != "Bearer" {
			t.Errorf("unexpected token %+v", tok)
		}
	})

	t.Run("Clear Empties Every Tier", func(t *testing.T) {
		store, jar, u, persister := newTestStore(t)

		jar.SetCookies(u, []*http.Cookie{{Name: CookieName, Value: "cookie-token", Path: "/"}})
		_ = store.Set("persistent-token", true)
		_ = store.Set("session-token", false)

		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}

		if v, tier := store.Lookup(); v != "" || tier != TierNone {
			t.Errorf("Lookup() after Clear = %q, %s", v, tier)
		}
		if _, err := persister.Load("default"); err == nil {
			t.Error("persistent tier should be empty")
		}
		for _, c := range jar.Cookies(u) {
			if c.Name == CookieName {
				t.Error("satoken cookie should be expired")
			}
		}
	})

	t.Run("Set Rejects Empty Token", func(t *testing.T) {
		store, _, _, _ := newTestStore(t)
		if err := store.Set("  ", false); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Persistent Without Storage", func(t *testing.T) {
		store := NewStore(Options{})
		if err := store.Set("tok", true); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
		if err := store.Set("tok", false); err != nil {
			t.Errorf("session tier should work without storage: %v", err)
		}
		if store.Profile() != "default" {
			t.Errorf("expected default profile, got %q", store.Profile())
		}
	})

	t.Run("Persistent Failure Falls Through To Session", func(t *testing.T) {
		store := NewStore(Options{Persister: failingPersister{err: errors.New("disk on fire")}})
		_ = store.Set("session-token", false)

		if v, tier := store.Lookup(); v != "session-token" || tier != TierSession {
			t.Errorf("Lookup() = %q, %s", v, tier)
		}
		if err := store.Clear(); err == nil {
			t.Error("expected Clear to report persistent failure")
		}
		if v, _ := store.Lookup(); v != "" {
			t.Error("session tier should still be cleared when persistence fails")
		}
	})

	t.Run("Concurrent Access", func(t *testing.T) {
		store, _, _, _ := newTestStore(t)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if i%2 == 0 {
					_ = store.Set("tok", i%4 == 0)
				} else {
					store.Lookup()
				}
			}(i)
		}
		wg.Wait()
	})
}

func hasSessionCookie(jar http.CookieJar, rawURL string) bool {
	u, _ := url.Parse(rawURL)
	for _, c := range jar.Cookies(u) {
		if c.Name == CookieName {
			return true
		}
	}
	return false
}

func TestSessionCookieScope(t *testing.T) {
	base, _ := url.Parse("http://api.test/api")

	t.Run("Cookie Without Path Set Through Store Jar", func(t *testing.T) {
		raw, _ := cookiejar.New(nil)
		store := NewStore(Options{Jar: raw, CookieURL: base, Logger: shared.NewLogger(nil)})

		login, _ := url.Parse("http://api.test/api/bookmark/login")
		store.Jar().SetCookies(login, []*http.Cookie{{Name: CookieName, Value: "abc"}})

		if v, tier := store.Lookup(); v != "abc" || tier != TierCookie {
			t.Fatalf("Lookup() = %q, %s", v, tier)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if hasSessionCookie(raw, "http://api.test/api/bookmark/list") {
			t.Error("jar still sends satoken after Clear")
		}
		if v, tier := store.Lookup(); v != "" || tier != TierNone {
			t.Errorf("Lookup() after Clear = %q, %s", v, tier)
		}
	})

	t.Run("Cookie Already In Jar Under Login Directory", func(t *testing.T) {
		raw, _ := cookiejar.New(nil)
		login, _ := url.Parse("http://api.test/api/user/login")
		raw.SetCookies(login, []*http.Cookie{{Name: CookieName, Value: "abc"}})

		store := NewStore(Options{Jar: raw, CookieURL: base, CookiePaths: []string{"/user"}, Logger: shared.NewLogger(nil)})

		if v, tier := store.Lookup(); v != "abc" || tier != TierCookie {
			t.Fatalf("Lookup() = %q, %s", v, tier)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if hasSessionCookie(raw, "http://api.test/api/user/info") {
			t.Error("jar still sends satoken to /api/user after Clear")
		}
	})

	t.Run("Domain Cookie Is Expired", func(t *testing.T) {
		raw, _ := cookiejar.New(nil)
		apiHost, _ := url.Parse("http://api.example.com/api")
		store := NewStore(Options{Jar: raw, CookieURL: apiHost, Logger: shared.NewLogger(nil)})

		store.Jar().SetCookies(apiHost, []*http.Cookie{{Name: CookieName, Value: "abc", Domain: "example.com", Path: "/"}})
		if !hasSessionCookie(raw, "http://www.example.com/") {
			t.Fatal("expected domain cookie to be stored")
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		if hasSessionCookie(raw, "http://www.example.com/") || hasSessionCookie(raw, "http://api.example.com/api") {
			t.Error("domain cookie survived Clear")
		}
	})

	t.Run("Other Cookies Are Not Tracked", func(t *testing.T) {
		raw, _ := cookiejar.New(nil)
		store := NewStore(Options{Jar: raw, CookieURL: base, Logger: shared.NewLogger(nil)})

		login, _ := url.Parse("http://api.test/api/user/login")
		store.Jar().SetCookies(login, []*http.Cookie{{Name: "theme", Value: "dark"}})

		if got := len(store.jar.scopes()); got != 0 {
			t.Errorf("expected no tracked scopes, got %d", got)
		}
		u, _ := url.Parse("http://api.test/api/user/info")
		if got := raw.Cookies(u); len(got) != 1 || got[0].Value != "dark" {
			t.Errorf("expected the theme cookie to pass through, got %v", got)
		}
	})

	t.Run("Nil Jar", func(t *testing.T) {
		store := NewStore(Options{CookieURL: base})
		if store.Jar() != nil {
			t.Error("expected nil jar")
		}
		if err := store.Clear(); err != nil {
			t.Errorf("Clear() error = %v", err)
		}
	})
}

func TestDefaultCookiePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "/"},
		{"login", "/"},
		{"/login", "/"},
		{"/api/user/login", "/api/user"},
		{"/api/user/", "/api/user"},
	}
	for _, tt := range tests {
		if got := defaultCookiePath(tt.in); got != tt.want {
			t.Errorf("defaultCookiePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
