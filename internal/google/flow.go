package google

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// CodePrompt asks the user to visit authURL and returns the authorization
// code they were given. The CLI reads it from stdin; a headless host can
// wire its own implementation.
type CodePrompt func(authURL string) (string, error)

// FlowAuthorizer implements Authorizer on top of the standard OAuth2
// authorization-code flow. Silent mode refreshes the credentials cached on
// disk without any interaction; consent mode runs the interactive exchange
// and persists the result.
type FlowAuthorizer struct {
	conf      *oauth2.Config
	tokenFile string
	prompt    CodePrompt
}

const oobRedirect = "urn:ietf:wg:oauth:2.0:oob"

// NewFlowAuthorizer builds an authorizer for the given OAuth client.
// tokenFile is where refreshed credentials are cached between runs.
func NewFlowAuthorizer(clientID, clientSecret, tokenFile string, prompt CodePrompt) *FlowAuthorizer {
	return &FlowAuthorizer{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  oobRedirect,
			Scopes:       DefaultScopes,
		},
		tokenFile: tokenFile,
		prompt:    prompt,
	}
}

// RequestToken acquires a token in the requested mode. Errors from silent
// mode mean the cached credentials are missing or stale; the Manager decides
// whether to escalate.
func (a *FlowAuthorizer) RequestToken(ctx context.Context, mode PromptMode) (*oauth2.Token, error) {
	if mode == PromptSilent {
		return a.refresh(ctx)
	}
	return a.consent(ctx)
}

func (a *FlowAuthorizer) refresh(ctx context.Context) (*oauth2.Token, error) {
	cached, err := a.readToken()
	if err != nil {
		return nil, fmt.Errorf("no cached credentials: %w", err)
	}

	fresh, err := a.conf.TokenSource(ctx, cached).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh failed: %w", err)
	}

	if fresh.AccessToken != cached.AccessToken {
		if err := a.writeToken(fresh); err != nil {
			return nil, err
		}
	}
	return fresh, nil
}

func (a *FlowAuthorizer) consent(ctx context.Context) (*oauth2.Token, error) {
	if a.prompt == nil {
		return nil, fmt.Errorf("no consent prompt available")
	}

	authURL := a.conf.AuthCodeURL("state", oauth2.AccessTypeOffline)
	code, err := a.prompt(authURL)
	if err != nil {
		return nil, fmt.Errorf("consent declined: %w", err)
	}

	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}

	if err := a.writeToken(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// readToken loads the cached token file: access token and refresh token as
// two whitespace-separated fields.
func (a *FlowAuthorizer) readToken() (*oauth2.Token, error) {
	slurp, err := os.ReadFile(a.tokenFile)
	if err != nil {
		return nil, err
	}
	f := strings.Fields(strings.TrimSpace(string(slurp)))
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token file format")
	}
	return &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		// Expired on purpose so the token source always refreshes.
		Expiry: time.Unix(1, 0),
	}, nil
}

func (a *FlowAuthorizer) writeToken(t *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(a.tokenFile), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data := t.AccessToken + " " + t.RefreshToken
	if err := os.WriteFile(a.tokenFile, []byte(data), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// DefaultTokenFile returns the conventional token cache location.
func DefaultTokenFile() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "sitecal", "google.token")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".cache", "sitecal", "google.token")
}
