package transport

import (
	"strings"

	"github.com/charmbracelet/log"
)

// Navigator sends the user to the authentication entry point after a session ends.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// LogNavigator tells the user where to sign in again without leaving the terminal.
type LogNavigator struct {
	Logger *log.Logger
	WebURL string
}

func (n LogNavigator) Navigate(path string) {
	if n.Logger == nil {
		return
	}
	n.Logger.Warn("session expired, sign in again", "url", joinURL(n.WebURL, path), "hint", "markx auth login")
}

// BrowserNavigator opens the web application's sign-in page.
type BrowserNavigator struct {
	WebURL string
	Open   func(url string) error
	Logger *log.Logger
}

func (n BrowserNavigator) Navigate(path string) {
	target := joinURL(n.WebURL, path)
	if n.Open == nil {
		return
	}
	if err := n.Open(target); err != nil && n.Logger != nil {
		n.Logger.Warn("failed to open sign-in page", "url", target, "error", err)
	}
}

func joinURL(base, path string) string {
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
