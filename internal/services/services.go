package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/markx/internal/analysis"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/desertthunder/markx/internal/transport"
)

// DefaultFaviconSize is the icon edge length requested when none is given.
const DefaultFaviconSize = 32

// SessionCookiePaths are the directories of the login endpoints, relative to the API base.
// A session cookie set by a login response without a Path attribute is scoped to one of them.
var SessionCookiePaths = []string{"/user", "/user/github/oauth2"}

// Services groups the resource clients that share one transport.
type Services struct {
	Users     *UserService
	Bookmarks *BookmarkService
	Spaces    *SpaceService
	Tags      *TagService
	Shares    *ShareService
	Received  *ReceivedService
	Analysis  *AnalysisService
	Feedback  *FeedbackService

	client *transport.Client
}

// New builds every service on client. analyzer may be nil when streaming analysis is unused.
func New(client *transport.Client, analyzer *analysis.Analyzer) *Services {
	return &Services{
		Users:     &UserService{client: client, now: time.Now},
		Bookmarks: &BookmarkService{client: client},
		Spaces:    &SpaceService{client: client},
		Tags:      &TagService{client: client},
		Shares:    &ShareService{client: client},
		Received:  &ReceivedService{client: client},
		Analysis:  &AnalysisService{client: client, analyzer: analyzer},
		Feedback:  &FeedbackService{client: client},
		client:    client,
	}
}

// Client returns the shared transport.
func (s *Services) Client() *transport.Client { return s.client }

// FaviconURL returns the backend favicon proxy URL for domain.
func (s *Services) FaviconURL(domain string, size int) string {
	return FaviconURL(s.client.BaseURL(), domain, size)
}

// FaviconURL builds {base}/favicon/icon?domain=<domain>&sz=<size>. A non-positive size selects [DefaultFaviconSize].
func FaviconURL(base, domain string, size int) string {
	if size <= 0 {
		size = DefaultFaviconSize
	}
	return strings.TrimRight(base, "/") + "/favicon/icon?domain=" + url.QueryEscape(domain) + "&sz=" + strconv.Itoa(size)
}

// resource joins a collection path and an escaped ID.
func resource(collection, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: id is required", shared.ErrMissingArgument)
	}
	return collection + "/" + url.PathEscape(id), nil
}

func idParam(id string) (*transport.RequestConfig, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id is required", shared.ErrMissingArgument)
	}
	return transport.WithParams(url.Values{"id": {id}}), nil
}

func getByID[T any](ctx context.Context, c *transport.Client, collection, id string) (*T, error) {
	path, err := resource(collection, id)
	if err != nil {
		return nil, err
	}
	var out T
	if err := c.Get(ctx, path, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func deleteByID(ctx context.Context, c *transport.Client, collection, id string) error {
	path, err := resource(collection, id)
	if err != nil {
		return err
	}
	return c.Delete(ctx, path, nil, nil, nil)
}
