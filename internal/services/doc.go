// Package services wraps the backend's REST resources in typed calls over [transport.Client].
//
// # Services
//
// [Services] bundles one value per resource group:
//   - [UserService]: login, registration, profile, access keys, data export/import and GitHub OAuth
//   - [BookmarkService]: listing by space or tag, search, starring, CRUD and Chrome import
//   - [SpaceService] and [TagService]: CRUD and counts
//   - [ShareService]: space sharing and collection
//   - [AnalysisService]: one-shot and streaming website analysis, quota usage
//   - [FeedbackService]: feedback submission
//
// Services carry no bookmark semantics of their own. Every call goes through the transport
// client, so credential attachment, unauthenticated teardown and error classification are
// handled there.
//
// # Passwords
//
// Passwords are hashed with [shared.HashPassword] before they leave the process; the backend
// never sees plain text.
//
// # Error Handling
//
// Errors are [transport.Error] values and match the shared sentinels:
//   - [shared.ErrNotAuthenticated]: credential missing or rejected
//   - [shared.ErrRejected]: the backend answered with flag=false
//   - [shared.ErrNotFound], [shared.ErrForbidden], [shared.ErrServerError]
//   - [shared.ErrMissingArgument]: a required ID or field was empty
package services
