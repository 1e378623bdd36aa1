package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/markx/internal/models"
	"github.com/desertthunder/markx/internal/server"
	"github.com/desertthunder/markx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin signs in with a username or email and stores the session token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireServices(); err != nil {
		return err
	}

	user, err := r.valueOrPrompt(cmd.String("user"), "Username or email")
	if err != nil {
		return err
	}
	password, err := r.valueOrPrompt(cmd.String("password"), "Password")
	if err != nil {
		return err
	}

	r.logger.Info("signing in", "user", user)
	resp, err := r.services.Users.Login(ctx, user, password)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return r.storeLogin(resp, !cmd.Bool("session"))
}

// AuthRegister creates an account and signs in with it.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireServices(); err != nil {
		return err
	}

	resp, err := r.services.Users.Register(ctx, cmd.String("user"), cmd.String("email"), cmd.String("password"))
	if err != nil {
		return err
	}
	return r.storeLogin(resp, true)
}

// storeLogin saves the token from a login response and reports who signed in.
func (r *Runner) storeLogin(resp *models.LoginResponse, persistent bool) error {
	token := strings.TrimSpace(resp.TokenInfo.TokenValue)
	if token == "" {
		return fmt.Errorf("%w: login response carried no token", shared.ErrDecodeResponse)
	}

	if err := r.services.Client().SetToken(token, persistent); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if persistent && r.accounts != nil {
		if err := r.accounts.SaveWithUser(r.credentials.Profile(), token, resp.UserInfo.Name); err != nil {
			r.logger.Warn("failed to record account name", "error", err)
		}
	}

	r.logger.Info("authentication successful", "user", resp.UserInfo.Name, "persistent", persistent)
	r.writePlain("✓ Signed in as %s\n", resp.UserInfo.Name)
	if !persistent {
		r.writePlain("Session token only; it is discarded when this command exits.\n")
	}
	return nil
}

// AuthLogout removes the stored credential from every tier.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireServices(); err != nil {
		return err
	}
	if err := r.services.Client().RemoveToken(); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	r.logger.Info("signed out", "profile", r.credentials.Profile())
	return r.writePlain("✓ Signed out\n")
}

// AuthStatus reports where the credential comes from and who it belongs to.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireServices(); err != nil {
		return err
	}

	token, tier := r.credentials.Lookup()
	status := map[string]any{
		"profile":       r.credentials.Profile(),
		"source":        string(tier),
		"authenticated": false,
		"api":           r.services.Client().BaseURL(),
	}

	if token != "" {
		info, err := r.services.Users.Info(ctx)
		switch {
		case err == nil:
			status["authenticated"] = true
			status["user"] = info.Name
			status["email"] = info.Email
			if set, err := r.services.Users.HasPassword(ctx); err == nil {
				status["password_set"] = set
			} else {
				r.logger.Debug("password state unavailable", "error", err)
			}
		case errors.Is(err, shared.ErrNotAuthenticated):
			status["error"] = "session expired"
		default:
			return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlain("API: %s\n", status["api"])
	r.writePlain("Profile: %s\n", status["profile"])
	if status["authenticated"] == true {
		r.writePlain("Authentication: ✓ %s <%s> (%s)\n", status["user"], status["email"], tier)
	} else if token != "" {
		r.writePlain("Authentication: ✗ stored %s token was rejected\n", tier)
	} else {
		r.writePlain("Authentication: ✗ Not authenticated\n")
	}
	return nil
}

// AuthGithub signs in through GitHub, capturing the authorization code on a local callback server.
func (r *Runner) AuthGithub(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireServices(); err != nil {
		return err
	}

	code := strings.TrimSpace(cmd.String("code"))
	if code == "" {
		var err error
		if code, err = r.awaitGithubCode(ctx, cmd.Duration("timeout"), cmd.Bool("no-browser")); err != nil {
			return err
		}
	}

	resp, err := r.services.Users.GithubLogin(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return r.storeLogin(resp, true)
}

func (r *Runner) awaitGithubCode(ctx context.Context, timeout time.Duration, noBrowser bool) (string, error) {
	authURL, err := r.services.Users.GithubRedirect(ctx)
	if err != nil {
		return "", err
	}

	handler := server.NewCallbackHandler("")
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(handler)

	srv, err := server.Start(r.config.Server.CallbackAddr(), router, r.logger)
	if err != nil {
		return "", err
	}
	defer srv.Shutdown()

	r.logger.Info("waiting for GitHub callback", "addr", srv.Addr())

	if noBrowser {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else {
		r.writePlain("→ Opening browser for GitHub authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warn("failed to open browser automatically", "error", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	}

	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return handler.Wait(waitCtx, srv.Errors())
}

// AuthToken prints the active token, or stores one given with --set.
func (r *Runner) AuthToken(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireServices(); err != nil {
		return err
	}

	if value := strings.TrimSpace(cmd.String("set")); value != "" {
		if err := r.services.Client().SetToken(value, !cmd.Bool("session")); err != nil {
			return fmt.Errorf("failed to store token: %w", err)
		}
		return r.writePlain("✓ Token stored for profile %s\n", r.credentials.Profile())
	}

	token, tier := r.credentials.Lookup()
	if token == "" {
		return shared.ErrNotAuthenticated
	}
	if cmd.Bool("reveal") {
		return r.writePlain("%s\n", token)
	}
	return r.writePlain("%s (%s)\n", shared.Truncate(token, 8), tier)
}

// AuthPassword changes the account password.
func (r *Runner) AuthPassword(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	current, err := r.valueOrPrompt(cmd.String("current"), "Current password")
	if err != nil {
		return err
	}
	next, err := r.valueOrPrompt(cmd.String("new"), "New password")
	if err != nil {
		return err
	}
	confirm, err := r.valueOrPrompt(cmd.String("confirm"), "Confirm new password")
	if err != nil {
		return err
	}

	if err := r.services.Users.ChangePassword(ctx, current, next, confirm); err != nil {
		return err
	}
	return r.writePlain("✓ Password changed\n")
}

// AuthKeys lists API keys.
func (r *Runner) AuthKeys(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	keys, err := r.services.Users.Keys(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(keys, true)
	}

	r.writePlain("Found %d keys:\n\n", len(keys))
	for i, k := range keys {
		r.writePlain("%d. %s\n", i+1, k.KeyName)
		r.writePlain("   ID: %s\n", k.ID)
		if k.Description != "" {
			r.writePlain("   Description: %s\n", k.Description)
		}
	}
	return nil
}

// AuthKeyCreate creates an API key.
func (r *Runner) AuthKeyCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	key, err := r.services.Users.CreateKey(ctx, models.CreateKeyRequest{
		KeyName:     cmd.StringArg("name"),
		Description: cmd.String("description"),
	})
	if err != nil {
		return err
	}
	return r.writeJSON(key, true)
}

// AuthKeyDelete deletes an API key.
func (r *Runner) AuthKeyDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	if err := r.services.Users.DeleteKey(ctx, cmd.StringArg("id")); err != nil {
		return err
	}
	return r.writePlain("✓ Key deleted\n")
}

// AuthForgot requests a password reset code.
func (r *Runner) AuthForgot(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireServices(); err != nil {
		return err
	}

	email, err := r.valueOrPrompt(cmd.String("email"), "Email")
	if err != nil {
		return err
	}
	if err := r.services.Users.ForgotPassword(ctx, email); err != nil {
		return err
	}
	return r.writePlain("✓ Reset code sent to %s\n", email)
}

// AuthReset sets a new password with a mailed reset code.
func (r *Runner) AuthReset(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireServices(); err != nil {
		return err
	}

	email, err := r.valueOrPrompt(cmd.String("email"), "Email")
	if err != nil {
		return err
	}
	code, err := r.valueOrPrompt(cmd.String("code"), "Reset code")
	if err != nil {
		return err
	}
	next, err := r.valueOrPrompt(cmd.String("new"), "New password")
	if err != nil {
		return err
	}
	confirm, err := r.valueOrPrompt(cmd.String("confirm"), "Confirm new password")
	if err != nil {
		return err
	}

	if err := r.services.Users.ResetPassword(ctx, email, code, next, confirm); err != nil {
		return err
	}
	return r.writePlain("✓ Password reset, sign in with auth login\n")
}

func (r *Runner) AuthUsername(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	name := cmd.StringArg("name")
	if err := r.services.Users.ChangeUsername(ctx, name); err != nil {
		return err
	}
	return r.writePlain("✓ Username changed to %s\n", name)
}
