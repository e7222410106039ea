package main

import (
	"context"
	"fmt"
	"time"

	"github.com/noelfm/sleighlist/internal/models"
	"github.com/noelfm/sleighlist/internal/ratelimit"
	"github.com/noelfm/sleighlist/internal/server"
	"github.com/noelfm/sleighlist/internal/services"
	"github.com/noelfm/sleighlist/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const oauthFlowTimeout = 2 * time.Minute

// AuthLogin runs the OAuth2 authorization code flow against Spotify.
//
// Opens the browser to the authorization URL, receives the callback on a
// short-lived local server, and persists the token pair to the config file
// and the credential store.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	oauthSvc, ok := r.music.(services.OAuthService)
	if !ok {
		return fmt.Errorf("%w: add Spotify credentials to %s and re-run", shared.ErrMissingCredentials, r.configPath)
	}

	token, err := r.doOAuth(ctx, oauthSvc)
	if err != nil {
		return err
	}

	if setter, ok := r.music.(interface{ SetToken(*oauth2.Token) }); ok {
		setter.SetToken(token)
	}

	user, err := r.music.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("authenticated but failed to fetch account: %w", err)
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return err
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		r.logger.Warn("failed to save config", "error", err)
	}

	r.persistCredential(user, token)

	r.logger.Info("authentication successful", "account", user.ID)
	return r.writePlain("✓ Authenticated as %s (%s)\n", user.DisplayName, user.ID)
}

// doOAuth drives one browser login round trip and returns the issued token.
func (r *Runner) doOAuth(ctx context.Context, oauthSvc services.OAuthService) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	authURL := oauthSvc.GetAuthURL(state)
	handler := server.NewOAuthHandler(oauthSvc.GetOAuthConfig(), state)

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	callbackServer := server.NewCallbackServer(addr, handler, r.logger, server.Logging(r.logger))
	callbackServer.Start()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := callbackServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("callback server shutdown", "error", err)
		}
	}()

	// Give the listener a beat before sending the user to the browser.
	time.Sleep(100 * time.Millisecond)

	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open this URL to authorize:\n\n%s\n\n", authURL)
	} else {
		r.writePlain("Waiting for authorization in your browser...\n")
	}

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAuthentication, result.Error())
		}
		return result.Token, nil
	case <-time.After(oauthFlowTimeout):
		return nil, fmt.Errorf("%w: no callback received within %s", shared.ErrTimeout, oauthFlowTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// persistCredential stores the token pair in the credential table. Failures
// are logged, not returned; the config file already holds the token.
func (r *Runner) persistCredential(user *services.User, token *oauth2.Token) {
	if r.credentials == nil {
		return
	}
	credential := models.NewCredential(0, user.ID, user.DisplayName, token.AccessToken, token.RefreshToken, token.Expiry)
	if err := r.credentials.Upsert(credential); err != nil {
		r.logger.Warn("failed to persist credential", "error", err)
	}
}

// AuthStatus reports the authenticated account and token state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.music == nil {
		return r.writePlain("✗ Not configured: add Spotify credentials to %s\n", r.configPath)
	}

	user, err := r.music.CurrentUser(ctx)
	if err != nil {
		r.logger.Debug("status probe failed", "error", err)
		return r.writePlain("✗ Not authenticated: %v\nRun `sleighlist auth login` to connect Spotify.\n", err)
	}

	r.writePlain("✓ Authenticated\n")
	r.writePlain("Account: %s (%s)\n", user.DisplayName, user.ID)
	if user.Product != "" {
		r.writePlain("Plan: %s\n", user.Product)
	}

	if r.credentials != nil {
		if stored, err := r.credentials.GetByAccount(user.ID); err == nil {
			if stored.Expired() {
				r.writePlain("Token: expired, will refresh on next request\n")
			} else if !stored.ExpiresAt().IsZero() {
				r.writePlain("Token: valid until %s\n", stored.ExpiresAt().Format(time.RFC1123))
			}
		}
	}

	identifier := ratelimit.Identifier(user.ID, "")
	r.writePlain("Quota: %d analysis, %d generation requests left this minute\n",
		r.musicLimiter.Remaining(identifier), r.genLimiter.Remaining(identifier))

	return nil
}
