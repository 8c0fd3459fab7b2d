package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const (
	// DefaultGoogleIssuerURL はGoogleのOpenID Connect発行者URL。
	DefaultGoogleIssuerURL = "https://accounts.google.com"

	providerGoogle = "google"
)

// GoogleOAuthConfig はGoogle OAuthプロバイダーの設定。
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	IssuerURL    string

	// テスト用。EndpointとKeySetを両方指定した場合はディスカバリーを行わない。
	Endpoint   oauth2.Endpoint
	KeySet     oidc.KeySet
	HTTPClient *http.Client
}

// GoogleOAuthProvider はGoogleのOpenID Connectによる認証を提供する。
// IDトークンの署名、発行者、audience、有効期限を検証する。
type GoogleOAuthProvider struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	httpClient  *http.Client
}

// NewGoogleOAuthProvider はGoogleOAuthProviderを生成する。
// 発行者のディスカバリードキュメントを取得するため起動時に一度だけ呼び出す。
func NewGoogleOAuthProvider(ctx context.Context, config GoogleOAuthConfig) (*GoogleOAuthProvider, error) {
	if config.ClientID == "" || config.ClientSecret == "" || config.RedirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}
	if config.IssuerURL == "" {
		config.IssuerURL = DefaultGoogleIssuerURL
	}

	p := &GoogleOAuthProvider{httpClient: config.HTTPClient}
	oidcConfig := &oidc.Config{ClientID: config.ClientID}

	endpoint := config.Endpoint
	if config.KeySet != nil && endpoint.TokenURL != "" {
		p.verifier = oidc.NewVerifier(config.IssuerURL, config.KeySet, oidcConfig)
	} else {
		provider, err := oidc.NewProvider(p.clientContext(ctx), config.IssuerURL)
		if err != nil {
			return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
		}
		p.verifier = provider.Verifier(oidcConfig)
		endpoint = provider.Endpoint()
	}

	p.oauthConfig = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Endpoint:     endpoint,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}

	return p, nil
}

// GetLoginURL はGoogleの認証URLを生成する。
// スコープにはopenid, email, profileを含む。
func (p *GoogleOAuthProvider) GetLoginURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// idTokenClaims はIDトークンから取り出すクレーム。
type idTokenClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// ExchangeCode は認可コードをトークンに交換し、IDトークンからユーザー情報を取得する。
func (p *GoogleOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	ctx = p.clientContext(ctx)

	// 1. 認可コードをトークンに交換
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	// 2. IDトークンを検証
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("id_token not found in token response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id_token: %w", err)
	}

	// 3. クレームからユーザー情報を取り出す
	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse id_token claims: %w", err)
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("id_token missing required claims")
	}

	return &OAuthUserInfo{
		ProviderUserID: claims.Subject,
		Email:          claims.Email,
		EmailVerified:  claims.EmailVerified,
		Name:           claims.Name,
		Provider:       providerGoogle,
	}, nil
}

// clientContext はHTTPクライアントが指定されている場合にoauth2とoidcへ引き渡す。
func (p *GoogleOAuthProvider) clientContext(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	return oidc.ClientContext(ctx, p.httpClient)
}

// compile-time interface check
var _ OAuthProvider = (*GoogleOAuthProvider)(nil)
