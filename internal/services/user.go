package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/desertthunder/markx/internal/transport"
)

// UserService covers account, key and data endpoints under /user.
type UserService struct {
	client *transport.Client
	now    func() time.Time
}

// Login signs in with a username or email. The password is hashed before it is sent.
//
// Storing the returned token is left to the caller.
func (s *UserService) Login(ctx context.Context, credential, password string) (*models.LoginResponse, error) {
	if strings.TrimSpace(credential) == "" || password == "" {
		return nil, fmt.Errorf("%w: credential and password are required", shared.ErrMissingArgument)
	}

	var resp models.LoginResponse
	req := models.LoginRequest{Credential: credential, Password: shared.HashPassword(password)}
	if err := s.client.Post(ctx, "/user/login", req, &resp, nil); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.LoginResponse, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", shared.ErrMissingArgument)
	}

	var resp models.LoginResponse
	req := models.RegisterRequest{Username: username, Email: email, Password: shared.HashPassword(password)}
	if err := s.client.Post(ctx, "/user/register", req, &resp, nil); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Info fetches the signed-in user's profile.
func (s *UserService) Info(ctx context.Context) (*models.UserInfo, error) {
	var info models.UserInfo
	if err := s.client.Get(ctx, "/user/info", &info, nil); err != nil {
		return nil, err
	}
	return &info, nil
}

// ChangePassword hashes all three passwords before sending them.
func (s *UserService) ChangePassword(ctx context.Context, current, next, confirm string) error {
	if current == "" || next == "" {
		return fmt.Errorf("%w: current and new password are required", shared.ErrMissingArgument)
	}
	if next != confirm {
		return fmt.Errorf("%w: new password and confirmation differ", shared.ErrInvalidArgument)
	}

	req := models.ChangePasswordRequest{
		CurrentPassword: shared.HashPassword(current),
		NewPassword:     shared.HashPassword(next),
		ConfirmPassword: shared.HashPassword(confirm),
	}
	return s.client.Post(ctx, "/user/change-password", req, nil, nil)
}

// ExportFilename names a data export taken on day.
func ExportFilename(day time.Time) string {
	return "bookmarks-export-" + day.Format(time.DateOnly) + ".json"
}

// Export downloads the user's data into dir.
func (s *UserService) Export(ctx context.Context, dir string) (*transport.DownloadResult, error) {
	return s.client.Download(ctx, "/user/export", ExportFilename(s.now()), dir, nil)
}

// Import uploads a previous export.
func (s *UserService) Import(ctx context.Context, filename string, content io.Reader, onProgress transport.ProgressFunc) (*models.ImportResult, error) {
	var result models.ImportResult
	if err := s.client.Upload(ctx, "/user/import", filename, content, onProgress, &result, nil); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *UserService) Keys(ctx context.Context) ([]models.UserKey, error) {
	var keys []models.UserKey
	if err := s.client.Get(ctx, "/user/keys", &keys, nil); err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *UserService) CreateKey(ctx context.Context, req models.CreateKeyRequest) (*models.UserKey, error) {
	var key models.UserKey
	if err := s.client.Post(ctx, "/user/key", req, &key, nil); err != nil {
		return nil, err
	}
	return &key, nil
}

func (s *UserService) DeleteKey(ctx context.Context, id string) error {
	return deleteByID(ctx, s.client, "/user/key", id)
}

// GithubRedirect returns the GitHub authorization URL to open in a browser.
func (s *UserService) GithubRedirect(ctx context.Context) (string, error) {
	var redirect string
	if err := s.client.Get(ctx, "/user/github/oauth2/redirect", &redirect, nil); err != nil {
		return "", err
	}
	if redirect == "" {
		return "", fmt.Errorf("%w: empty GitHub redirect URL", shared.ErrDecodeResponse)
	}
	return redirect, nil
}

// GithubLogin exchanges the OAuth callback code for a session.
func (s *UserService) GithubLogin(ctx context.Context, code string) (*models.LoginResponse, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: authorization code is required", shared.ErrMissingArgument)
	}

	var resp models.LoginResponse
	cfg := transport.WithParams(url.Values{"code": {code}})
	if err := s.client.Get(ctx, "/user/github/oauth2/login", &resp, cfg); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword asks the backend to mail a reset code to email.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", shared.ErrMissingArgument)
	}
	return s.client.Post(ctx, "/user/forgot-password", models.ForgotPasswordRequest{Email: email}, nil, nil)
}

// ResetPassword sets a new password using the mailed code. Both passwords are hashed.
func (s *UserService) ResetPassword(ctx context.Context, email, code, next, confirm string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" || next == "" {
		return fmt.Errorf("%w: email, code and new password are required", shared.ErrMissingArgument)
	}
	if next != confirm {
		return fmt.Errorf("%w: new password and confirmation differ", shared.ErrInvalidArgument)
	}

	req := models.ResetPasswordRequest{
		Email:           email,
		Code:            code,
		NewPassword:     shared.HashPassword(next),
		ConfirmPassword: shared.HashPassword(confirm),
	}
	return s.client.Post(ctx, "/user/reset-password", req, nil, nil)
}

func (s *UserService) ChangeUsername(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: new username is required", shared.ErrMissingArgument)
	}
	return s.client.Post(ctx, "/user/change-username", models.ChangeUsernameRequest{NewUsername: name}, nil, nil)
}

// HasPassword reports whether the account has a password. GitHub-only accounts do not.
func (s *UserService) HasPassword(ctx context.Context) (bool, error) {
	var set bool
	if err := s.client.Get(ctx, "/user/password/status", &set, nil); err != nil {
		return false, err
	}
	return set, nil
}
