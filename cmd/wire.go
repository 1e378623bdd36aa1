package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/markx/internal/analysis"
	"github.com/desertthunder/markx/internal/credentials"
	"github.com/desertthunder/markx/internal/repositories"
	"github.com/desertthunder/markx/internal/services"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/desertthunder/markx/internal/tasks"
	"github.com/desertthunder/markx/internal/transport"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

// deps is the object graph shared by every command.
type deps struct {
	db          *sql.DB
	credentials *credentials.Store
	accounts    *repositories.CredentialRepository
	analyses    *repositories.AnalysisRepository
	services    *services.Services
	engine      *tasks.AnalysisEngine
}

func (d *deps) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

// wire builds the client stack from config.
//
// A database that cannot be opened degrades to in-memory credentials and unrecorded analyses.
func wire(config *shared.Config, logger *log.Logger) (*deps, error) {
	d := &deps{}

	baseURL, err := url.Parse(config.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid api.base_url: %v", shared.ErrInvalidConfig, err)
	}

	jar, err := newCookieJar()
	if err != nil {
		return nil, err
	}

	var persister credentials.Persister
	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		logger.Warn("database unavailable, credentials will not persist", "path", config.Database.Path, "error", err)
		persister = credentials.NewMemoryPersister()
	} else {
		d.db = db
		d.accounts = repositories.NewCredentialRepository(db)
		d.analyses = repositories.NewAnalysisRepository(db)
		persister = d.accounts
	}

	d.credentials = credentials.NewStore(credentials.Options{
		Jar:         jar,
		CookieURL:   baseURL,
		CookiePaths: services.SessionCookiePaths,
		Persister:   persister,
		Profile:     config.Auth.Profile,
		Logger:      logger,
	})

	var navigator transport.Navigator = transport.LogNavigator{Logger: logger, WebURL: config.API.WebURL}
	if config.API.OpenBrowser {
		navigator = transport.BrowserNavigator{WebURL: config.API.WebURL, Open: shared.OpenBrowser, Logger: logger}
	}

	var limiter *rate.Limiter
	if config.API.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.API.RateLimit), 1)
	}

	client, err := transport.New(transport.Options{
		BaseURL:     config.API.BaseURL,
		Timeout:     config.API.RequestTimeout(),
		Jar:         d.credentials.Jar(),
		Credentials: d.credentials,
		Navigator:   navigator,
		AuthPath:    config.API.AuthPath,
		Logger:      logger,
		Limiter:     limiter,
	})
	if err != nil {
		d.Close()
		return nil, err
	}

	// Streams outlive the request timeout, so they get their own client over the same jar and transport.
	streamClient := &http.Client{Jar: d.credentials.Jar(), Transport: client.HTTPClient().Transport}
	analyzer := analysis.New(analysis.Options{
		BaseURL:    client.BaseURL(),
		HTTPClient: streamClient,
		Tokens:     d.credentials,
		Timeout:    config.Analysis.StreamTimeout(),
		Logger:     logger,
	})

	d.services = services.New(client, analyzer)

	var store tasks.Store
	if d.analyses != nil {
		store = d.analyses
	}
	d.engine = tasks.NewAnalysisEngine(analyzer, d.services.Analysis, store, logger)

	return d, nil
}

// newCookieJar returns a jar that refuses cookies scoped to a public suffix such as "co.uk".
func newCookieJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return jar, nil
}
