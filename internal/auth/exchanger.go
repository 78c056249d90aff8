package auth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"

	"simplegit.dev/simplegit/internal/config"
	sgerrors "simplegit.dev/simplegit/internal/errors"
)

// Exchanger builds authorization URLs and trades codes for tokens
type Exchanger interface {
	AuthCodeURL(state, redirectURL string) string
	Exchange(ctx context.Context, code, redirectURL string) (string, error)
}

type oauthExchanger struct {
	cfg    oauth2.Config
	client *http.Client
}

// NewOAuthExchanger returns an Exchanger for the configured GitHub OAuth app.
// Requests go through client when it is not nil.
func NewOAuthExchanger(gh config.GitHubConfig, client *http.Client) Exchanger {
	endpoint := oauthgithub.Endpoint
	if gh.AuthURL != "" {
		endpoint.AuthURL = gh.AuthURL
	}
	if gh.TokenURL != "" {
		endpoint.TokenURL = gh.TokenURL
	}
	return &oauthExchanger{
		cfg: oauth2.Config{
			ClientID:     gh.ClientID,
			ClientSecret: gh.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       gh.Scopes,
		},
		client: client,
	}
}

func (e *oauthExchanger) config(redirectURL string) *oauth2.Config {
	cfg := e.cfg
	cfg.RedirectURL = redirectURL
	return &cfg
}

func (e *oauthExchanger) AuthCodeURL(state, redirectURL string) string {
	return e.config(redirectURL).AuthCodeURL(state)
}

func (e *oauthExchanger) Exchange(ctx context.Context, code, redirectURL string) (string, error) {
	if e.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, e.client)
	}
	tok, err := e.config(redirectURL).Exchange(ctx, code)
	if err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", sgerrors.NewAuthFlowError(nil, "provider returned an empty access token")
	}
	return tok.AccessToken, nil
}
