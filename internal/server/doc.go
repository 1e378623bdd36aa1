// Package server runs the short-lived local HTTP server used during interactive sign-in.
//
// # Router
//
// [BasicRouter] implements [Router] over [http.ServeMux]. Handlers are registered per method,
// and [Middleware] added first wraps outermost. [RequestLogger] logs requests without their
// query strings.
//
// # GitHub Callback
//
// `markx auth github` asks the backend for a GitHub authorization URL, opens it, and starts a
// [Server] with a [CallbackHandler] mounted at [CallbackPath]. The handler takes exactly one
// redirect and hands its `code` to the CLI, which exchanges it through the backend.
// Later requests are refused.
package server
