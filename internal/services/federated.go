package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/notekeeper/apiserver/config"
	"golang.org/x/oauth2"
)

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"

	maxUserInfoBytes = 1 << 20
)

// ErrUnsupportedProvider is returned for providers without a userinfo endpoint.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// FederatedIdentity is what an identity provider reports about its user.
type FederatedIdentity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}

// IdentityResolver turns a provider access token into a verified identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, provider, accessToken string) (FederatedIdentity, error)
}

type googleUser struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type gitHubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type userInfoAPI struct {
	URL     string
	Headers map[string]string
}

// OAuthResolver queries provider userinfo endpoints with the caller's access token.
type OAuthResolver struct {
	apis       map[string]userInfoAPI
	httpClient *http.Client
}

func NewOAuthResolver(cfg config.OAuthConfig, httpClient *http.Client) *OAuthResolver {
	apis := map[string]userInfoAPI{}
	if cfg.GoogleUserInfoURL != "" {
		apis[ProviderGoogle] = userInfoAPI{URL: cfg.GoogleUserInfoURL}
	}
	if cfg.GitHubUserInfoURL != "" {
		apis[ProviderGitHub] = userInfoAPI{
			URL: cfg.GitHubUserInfoURL,
			Headers: map[string]string{
				"Accept":               "application/vnd.github+json",
				"X-GitHub-Api-Version": "2022-11-28",
			},
		}
	}
	return &OAuthResolver{apis: apis, httpClient: httpClient}
}

func (r *OAuthResolver) Resolve(ctx context.Context, provider, accessToken string) (FederatedIdentity, error) {
	api, ok := r.apis[provider]
	if !ok {
		return FederatedIdentity{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
	if strings.TrimSpace(accessToken) == "" {
		return FederatedIdentity{}, errors.New("access token is required")
	}

	if r.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api.URL, nil)
	if err != nil {
		return FederatedIdentity{}, err
	}
	for k, v := range api.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return FederatedIdentity{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBytes))
	if err != nil {
		return FederatedIdentity{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return FederatedIdentity{}, fmt.Errorf("%s userinfo returned status %d", provider, resp.StatusCode)
	}

	return parseIdentity(body, provider)
}

func parseIdentity(data []byte, provider string) (FederatedIdentity, error) {
	identity := FederatedIdentity{Provider: provider}

	switch provider {
	case ProviderGoogle:
		var g googleUser
		if err := json.Unmarshal(data, &g); err != nil {
			return FederatedIdentity{}, err
		}
		identity.Subject = g.Sub
		identity.Email = g.Email
		identity.Name = g.Name
	case ProviderGitHub:
		var gh gitHubUser
		if err := json.Unmarshal(data, &gh); err != nil {
			return FederatedIdentity{}, err
		}
		if gh.ID != 0 {
			identity.Subject = strconv.FormatInt(gh.ID, 10)
		}
		identity.Email = gh.Email
		identity.Name = gh.Name
		if identity.Name == "" {
			identity.Name = gh.Login
		}
	default:
		return FederatedIdentity{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	if identity.Subject == "" {
		return FederatedIdentity{}, errors.New("provider did not return a subject")
	}
	return identity, nil
}
