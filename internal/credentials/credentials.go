// Package credentials resolves the bearer token markx sends to the backend.
//
// A token can live in three tiers, consulted in priority order:
//  1. the "satoken" cookie the backend sets, held in the client's cookie jar
//  2. persistent storage (the SQLite credentials table, keyed by profile)
//  3. session storage, which lasts only as long as the process
//
// [Store] implements [oauth2.TokenSource] so the transport can attach the header with [oauth2.Token.SetAuthHeader].
package credentials

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/markx/internal/shared"
	"golang.org/x/oauth2"
)

// CookieName is the session cookie issued by the backend.
const CookieName = "satoken"

// Persister is the persistent credential tier.
type Persister interface {
	Load(profile string) (string, error)
	Save(profile, token string) error
	Delete(profile string) error
}

// Tier names where a credential was found.
type Tier string

const (
	TierNone       Tier = "none"
	TierCookie     Tier = "cookie"
	TierPersistent Tier = "persistent"
	TierSession    Tier = "session"
)

// Options configures a [Store].
type Options struct {
	// Jar holds backend cookies. May be nil.
	Jar http.CookieJar
	// CookieURL is the URL whose cookies are consulted, normally the API base URL.
	CookieURL *url.URL
	// CookiePaths are paths under CookieURL where a session cookie issued without a Path
	// attribute lands, i.e. the directories of the login endpoints.
	CookiePaths []string
	// Persister is the persistent tier. May be nil.
	Persister Persister
	Profile   string
	Logger    *log.Logger
}

// Store is a concurrency-safe view over the three credential tiers.
type Store struct {
	mu        sync.RWMutex
	jar       *trackingJar
	cookieURL *url.URL
	scopes    []cookieScope
	persister Persister
	profile   string
	session   string
	logger    *log.Logger
}

// NewStore creates a [Store]. The profile defaults to "default".
func NewStore(opts Options) *Store {
	profile := strings.TrimSpace(opts.Profile)
	if profile == "" {
		profile = "default"
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Store{
		cookieURL: opts.CookieURL,
		persister: opts.Persister,
		profile:   profile,
		logger:    shared.WithLogger(logger, "component", "credentials"),
	}
	if opts.Jar != nil {
		s.jar = &trackingJar{CookieJar: opts.Jar}
	}
	if opts.CookieURL != nil {
		s.scopes = append(s.scopes, cookieScope{url: scopeURL(opts.CookieURL, "/")})
		base := strings.TrimRight(opts.CookieURL.Path, "/")
		if base != "" {
			s.scopes = append(s.scopes, cookieScope{url: scopeURL(opts.CookieURL, base)})
		}
		for _, p := range opts.CookiePaths {
			s.scopes = append(s.scopes, cookieScope{url: scopeURL(opts.CookieURL, base+"/"+strings.Trim(p, "/"))})
		}
	}
	return s
}

// Jar returns the cookie jar HTTP clients should use so the store sees where session cookies land.
//
// It is nil when the store was built without a jar.
func (s *Store) Jar() http.CookieJar {
	if s.jar == nil {
		return nil
	}
	return s.jar
}

// Profile returns the profile used for the persistent tier.
func (s *Store) Profile() string { return s.profile }

// Lookup returns the highest-priority credential and the tier it came from.
//
// The empty string with [TierNone] means no credential is present.
func (s *Store) Lookup() (string, Tier) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v := s.cookieValue(); v != "" {
		return v, TierCookie
	}

	if s.persister != nil {
		token, err := s.persister.Load(s.profile)
		switch {
		case err == nil && token != "":
			return token, TierPersistent
		case err != nil && !errors.Is(err, shared.ErrNoCredential):
			s.logger.Warn("persistent credential lookup failed", "profile", s.profile, "error", err)
		}
	}

	if s.session != "" {
		return s.session, TierSession
	}
	return "", TierNone
}

// Token implements [oauth2.TokenSource].
//
// Tokens never expire client-side, so the returned token carries no expiry.
func (s *Store) Token() (*oauth2.Token, error) {
	value, _ := s.Lookup()
	if value == "" {
		return nil, shared.ErrNoCredential
	}
	return &oauth2.Token{AccessToken: value, TokenType: "Bearer"}, nil
}

// Set stores token in the persistent tier when persistent is true, otherwise in the session tier.
func (s *Store) Set(token string, persistent bool) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", shared.ErrMissingArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !persistent {
		s.session = token
		return nil
	}

	if s.persister == nil {
		return fmt.Errorf("%w: no persistent credential storage configured", shared.ErrMissingConfig)
	}
	if err := s.persister.Save(s.profile, token); err != nil {
		return err
	}
	return nil
}

// Clear empties all three tiers.
//
// Every tier is attempted even if one fails; the first failure is returned.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireCookie()
	s.session = ""

	if s.persister != nil {
		if err := s.persister.Delete(s.profile); err != nil {
			return fmt.Errorf("failed to clear persistent credential: %w", err)
		}
	}
	return nil
}

// allScopes returns the configured scopes followed by every scope the jar has seen.
func (s *Store) allScopes() []cookieScope {
	scopes := append([]cookieScope(nil), s.scopes...)
	if s.jar != nil {
		scopes = append(scopes, s.jar.scopes()...)
	}
	return scopes
}

func (s *Store) cookieValue() string {
	if s.jar == nil {
		return ""
	}
	for _, scope := range s.allScopes() {
		for _, c := range s.jar.CookieJar.Cookies(scope.url) {
			if c.Name == CookieName && c.Value != "" {
				return c.Value
			}
		}
	}
	return ""
}

// expireCookie removes the session cookie at every scope it may have been stored under.
func (s *Store) expireCookie() {
	if s.jar == nil {
		return
	}
	for _, scope := range s.allScopes() {
		s.jar.CookieJar.SetCookies(scope.url, []*http.Cookie{{
			Name: CookieName, Value: "", Path: scope.url.Path, Domain: scope.domain, MaxAge: -1,
		}})
	}
	s.jar.reset()
}

// cookieScope is the origin, path and optional Domain attribute a session cookie is stored under.
type cookieScope struct {
	url    *url.URL
	domain string
}

// trackingJar records the scope of every session cookie set through it.
type trackingJar struct {
	http.CookieJar
	mu   sync.Mutex
	list []cookieScope
}

func (j *trackingJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	for _, c := range cookies {
		if c.Name != CookieName || c.Value == "" {
			continue
		}
		path := c.Path
		if path == "" || path[0] != '/' {
			path = defaultCookiePath(u.Path)
		}
		scope := cookieScope{url: scopeURL(u, path), domain: c.Domain}
		if !j.has(scope) {
			j.list = append(j.list, scope)
		}
	}
	j.mu.Unlock()

	j.CookieJar.SetCookies(u, cookies)
}

// has reports whether an equal scope was recorded. Callers hold mu.
func (j *trackingJar) has(scope cookieScope) bool {
	for _, s := range j.list {
		if s.domain == scope.domain && s.url.String() == scope.url.String() {
			return true
		}
	}
	return false
}

func (j *trackingJar) scopes() []cookieScope {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]cookieScope(nil), j.list...)
}

func (j *trackingJar) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.list = nil
}

func scopeURL(u *url.URL, path string) *url.URL {
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: path}
}

// defaultCookiePath is the directory of the request path, which is where a cookie without a Path attribute applies.
func defaultCookiePath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

// MemoryPersister is an in-process [Persister], used when no database is configured.
type MemoryPersister struct {
	mu     sync.Mutex
	tokens map[string]string
}

// NewMemoryPersister creates an empty [MemoryPersister].
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{tokens: map[string]string{}}
}

func (m *MemoryPersister) Load(profile string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.tokens[profile]
	if !ok {
		return "", shared.ErrNoCredential
	}
	return token, nil
}

func (m *MemoryPersister) Save(profile, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[profile] = token
	return nil
}

func (m *MemoryPersister) Delete(profile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, profile)
	return nil
}
