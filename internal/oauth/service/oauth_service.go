package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/folio-studio/folio-backend/config"
	"github.com/folio-studio/folio-backend/internal/oauth/domain"
)

const pendingTTL = 10 * time.Minute

// ClientStore persists registered clients.
type ClientStore interface {
	Create(ctx context.Context, c *domain.Client) error
	GetByID(ctx context.Context, clientID string) (*domain.Client, error)
	TouchLastUsed(ctx context.Context, clientID string) error
}

// GrantStore holds codes and refresh tokens with single-use semantics.
type GrantStore interface {
	SaveCode(ctx context.Context, code string, grant *domain.AuthCode, ttl time.Duration) error
	ConsumeCode(ctx context.Context, code string) (*domain.AuthCode, error)
	SaveRefresh(ctx context.Context, token string, grant *domain.RefreshGrant, ttl time.Duration) error
	ConsumeRefresh(ctx context.Context, token string) (*domain.RefreshGrant, error)
	DeleteRefresh(ctx context.Context, token string) (bool, error)
}

type OAuthService struct {
	clients ClientStore
	grants  GrantStore
	signer  *TokenSigner
	cfg     config.OAuthConfig
	now     func() time.Time
}

func NewOAuthService(clients ClientStore, grants GrantStore, signer *TokenSigner, cfg config.OAuthConfig) *OAuthService {
	return &OAuthService{
		clients: clients,
		grants:  grants,
		signer:  signer,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Register validates RFC 7591 metadata and stores a new client.
func (s *OAuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.RegisterResponse, error) {
	if len(req.RedirectURIs) == 0 {
		return nil, fmt.Errorf("%w: redirect_uris is required", domain.ErrInvalidRedirectURI)
	}
	for _, u := range req.RedirectURIs {
		if err := validateRedirectURI(u); err != nil {
			return nil, err
		}
	}

	method := req.TokenEndpointAuthMethod
	if method == "" {
		method = domain.AuthMethodNone
	}
	if method != domain.AuthMethodNone && method != domain.AuthMethodSecretPost {
		return nil, fmt.Errorf("%w: unsupported token_endpoint_auth_method %q", domain.ErrInvalidClientMetadata, method)
	}
	for _, gt := range req.GrantTypes {
		if gt != domain.GrantAuthorizationCode && gt != domain.GrantRefreshToken {
			return nil, fmt.Errorf("%w: unsupported grant type %q", domain.ErrInvalidClientMetadata, gt)
		}
	}
	for _, rt := range req.ResponseTypes {
		if rt != "code" {
			return nil, fmt.Errorf("%w: unsupported response type %q", domain.ErrInvalidClientMetadata, rt)
		}
	}

	scope := strings.Join(domain.SupportedScopes, " ")
	if strings.TrimSpace(req.Scope) != "" {
		scopes, ok := normalizeScope(req.Scope, domain.SupportedScopes)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported scope %q", domain.ErrInvalidClientMetadata, req.Scope)
		}
		scope = scopes
	}

	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		name = "MCP client"
	}
	if len(name) > 200 {
		return nil, fmt.Errorf("%w: client_name is too long", domain.ErrInvalidClientMetadata)
	}

	client := &domain.Client{
		ClientID:                uuid.New().String(),
		ClientName:              name,
		RedirectURIs:            req.RedirectURIs,
		TokenEndpointAuthMethod: method,
		Scope:                   scope,
		Dynamic:                 true,
	}

	var secret string
	if method == domain.AuthMethodSecretPost {
		var err error
		secret, err = randomToken(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate client secret: %w", err)
		}
		client.SecretHash = hashSecret(secret)
	}

	if err := s.clients.Create(ctx, client); err != nil {
		return nil, err
	}

	return &domain.RegisterResponse{
		ClientID:                client.ClientID,
		ClientSecret:            secret,
		ClientIDIssuedAt:        client.CreatedAt.Unix(),
		ClientName:              client.ClientName,
		RedirectURIs:            client.RedirectURIs,
		TokenEndpointAuthMethod: client.TokenEndpointAuthMethod,
		GrantTypes:              []string{domain.GrantAuthorizationCode, domain.GrantRefreshToken},
		ResponseTypes:           []string{"code"},
		Scope:                   client.Scope,
	}, nil
}

// AuthorizeError carries an error that can be reported to the client by
// redirecting, because the redirect URI has already been checked.
type AuthorizeError struct {
	Err         error
	Description string
	RedirectURI string
	State       string
}

func (e *AuthorizeError) Error() string {
	return e.Err.Error() + ": " + e.Description
}

func (e *AuthorizeError) Unwrap() error { return e.Err }

// RedirectURL renders the error as the client's redirect target.
func (e *AuthorizeError) RedirectURL() string {
	params := url.Values{}
	params.Set("error", e.Err.Error())
	if e.Description != "" {
		params.Set("error_description", e.Description)
	}
	if e.State != "" {
		params.Set("state", e.State)
	}
	return appendQuery(e.RedirectURI, params)
}

// Authorize validates an authorization request. Errors found before the
// client and redirect URI are trusted are plain errors; later ones are
// *AuthorizeError.
func (s *OAuthService) Authorize(ctx context.Context, req *domain.AuthorizeRequest) (*domain.PendingAuthorization, error) {
	if req.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id is required", domain.ErrInvalidRequest)
	}
	client, err := s.clients.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return nil, fmt.Errorf("%w: unknown client_id", domain.ErrInvalidClient)
		}
		return nil, err
	}
	if req.RedirectURI == "" || !client.AllowsRedirect(req.RedirectURI) {
		return nil, fmt.Errorf("%w: redirect_uri is not registered for this client", domain.ErrInvalidRequest)
	}

	fail := func(e error, desc string) (*domain.PendingAuthorization, error) {
		return nil, &AuthorizeError{Err: e, Description: desc, RedirectURI: req.RedirectURI, State: req.State}
	}

	if req.ResponseType != "code" {
		return fail(domain.ErrUnsupportedResponseType, "only response_type=code is supported")
	}
	if req.CodeChallenge == "" {
		return fail(domain.ErrInvalidRequest, "code_challenge is required")
	}
	if req.CodeChallengeMethod != "S256" {
		return fail(domain.ErrInvalidRequest, "code_challenge_method must be S256")
	}

	scope := client.Scope
	if strings.TrimSpace(req.Scope) != "" {
		normalized, ok := normalizeScope(req.Scope, strings.Fields(client.Scope))
		if !ok {
			return fail(domain.ErrInvalidScope, "requested scope exceeds the client's registration")
		}
		scope = normalized
	}

	return &domain.PendingAuthorization{
		ClientID:      client.ClientID,
		ClientName:    client.ClientName,
		RedirectURI:   req.RedirectURI,
		State:         req.State,
		Scope:         scope,
		CodeChallenge: req.CodeChallenge,
		ExpiresAt:     s.now().Add(pendingTTL),
	}, nil
}

// EncodePending signs p for the consent cookie.
func (s *OAuthService) EncodePending(p *domain.PendingAuthorization) (string, error) {
	return s.signer.SignPending(p)
}

// DecodePending verifies and decodes the consent cookie.
func (s *OAuthService) DecodePending(raw string) (*domain.PendingAuthorization, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: no pending authorization", domain.ErrInvalidRequest)
	}
	p, err := s.signer.ParsePending(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: pending authorization is invalid or expired", domain.ErrInvalidRequest)
	}
	return p, nil
}

// Approve issues a single-use authorization code for profileID and returns
// the redirect target carrying it.
func (s *OAuthService) Approve(ctx context.Context, p *domain.PendingAuthorization, profileID string) (string, error) {
	code, err := randomToken(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	grant := &domain.AuthCode{
		ClientID:      p.ClientID,
		RedirectURI:   p.RedirectURI,
		CodeChallenge: p.CodeChallenge,
		ProfileID:     profileID,
		Scope:         p.Scope,
		IssuedAt:      s.now(),
	}
	if err := s.grants.SaveCode(ctx, code, grant, s.cfg.CodeTTL); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("code", code)
	if p.State != "" {
		params.Set("state", p.State)
	}
	return appendQuery(p.RedirectURI, params), nil
}

// Deny returns the redirect target reporting access_denied.
func (s *OAuthService) Deny(p *domain.PendingAuthorization) string {
	e := &AuthorizeError{Err: domain.ErrAccessDenied, Description: "the user denied the request", RedirectURI: p.RedirectURI, State: p.State}
	return e.RedirectURL()
}

// Token handles both supported grant types.
func (s *OAuthService) Token(ctx context.Context, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	switch req.GrantType {
	case domain.GrantAuthorizationCode:
		return s.exchangeCode(ctx, req)
	case domain.GrantRefreshToken:
		return s.refresh(ctx, req)
	case "":
		return nil, fmt.Errorf("%w: grant_type is required", domain.ErrInvalidRequest)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedGrantType, req.GrantType)
	}
}

func (s *OAuthService) exchangeCode(ctx context.Context, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	if req.Code == "" || req.CodeVerifier == "" {
		return nil, fmt.Errorf("%w: code and code_verifier are required", domain.ErrInvalidRequest)
	}
	client, err := s.authenticateClient(ctx, req)
	if err != nil {
		return nil, err
	}

	// Consumed before any check so a failed attempt still burns the code.
	grant, err := s.grants.ConsumeCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if grant.ClientID != client.ClientID {
		return nil, fmt.Errorf("%w: code was issued to another client", domain.ErrInvalidGrant)
	}
	if grant.RedirectURI != req.RedirectURI {
		return nil, fmt.Errorf("%w: redirect_uri mismatch", domain.ErrInvalidGrant)
	}
	if !VerifyPKCE(req.CodeVerifier, grant.CodeChallenge) {
		return nil, fmt.Errorf("%w: code_verifier does not match", domain.ErrInvalidGrant)
	}

	if err := s.clients.TouchLastUsed(ctx, client.ClientID); err != nil {
		return nil, err
	}
	return s.issue(ctx, client.ClientID, grant.ProfileID, grant.Scope)
}

func (s *OAuthService) refresh(ctx context.Context, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	if req.RefreshToken == "" {
		return nil, fmt.Errorf("%w: refresh_token is required", domain.ErrInvalidRequest)
	}
	client, err := s.authenticateClient(ctx, req)
	if err != nil {
		return nil, err
	}

	grant, err := s.grants.ConsumeRefresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if grant.ClientID != client.ClientID {
		return nil, fmt.Errorf("%w: refresh token was issued to another client", domain.ErrInvalidGrant)
	}

	scope := grant.Scope
	if strings.TrimSpace(req.Scope) != "" {
		narrowed, ok := normalizeScope(req.Scope, strings.Fields(grant.Scope))
		if !ok {
			return nil, fmt.Errorf("%w: scope exceeds the original grant", domain.ErrInvalidScope)
		}
		scope = narrowed
	}
	return s.issue(ctx, client.ClientID, grant.ProfileID, scope)
}

func (s *OAuthService) issue(ctx context.Context, clientID, profileID, scope string) (*domain.TokenResponse, error) {
	access, err := s.signer.IssueAccessToken(profileID, clientID, scope, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := randomToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	grant := &domain.RefreshGrant{ClientID: clientID, ProfileID: profileID, Scope: scope, IssuedAt: s.now()}
	if err := s.grants.SaveRefresh(ctx, refresh, grant, s.cfg.RefreshTTL); err != nil {
		return nil, err
	}

	return &domain.TokenResponse{
		AccessToken:  access,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
		RefreshToken: refresh,
		Scope:        scope,
	}, nil
}

// Revoke removes a refresh token. Unknown tokens are not an error.
func (s *OAuthService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: token is required", domain.ErrInvalidRequest)
	}
	_, err := s.grants.DeleteRefresh(ctx, token)
	return err
}

func (s *OAuthService) authenticateClient(ctx context.Context, req *domain.TokenRequest) (*domain.Client, error) {
	if req.ClientID == "" {
		return nil, fmt.Errorf("%w: client_id is required", domain.ErrInvalidClient)
	}
	client, err := s.clients.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return nil, fmt.Errorf("%w: unknown client", domain.ErrInvalidClient)
		}
		return nil, err
	}
	if client.Public() {
		return client, nil
	}
	if req.ClientSecret == "" || subtle.ConstantTimeCompare([]byte(hashSecret(req.ClientSecret)), []byte(client.SecretHash)) != 1 {
		return nil, fmt.Errorf("%w: client authentication failed", domain.ErrInvalidClient)
	}
	return client, nil
}

// AuthServerMetadata builds the RFC 8414 document.
func (s *OAuthService) AuthServerMetadata() *domain.AuthServerMetadata {
	iss := s.cfg.Issuer
	return &domain.AuthServerMetadata{
		Issuer:                            iss,
		AuthorizationEndpoint:             iss + "/oauth/authorize",
		TokenEndpoint:                     iss + "/oauth/token",
		RegistrationEndpoint:              iss + "/register",
		RevocationEndpoint:                iss + "/oauth/revoke",
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{domain.GrantAuthorizationCode, domain.GrantRefreshToken},
		TokenEndpointAuthMethodsSupported: []string{domain.AuthMethodNone, domain.AuthMethodSecretPost},
		CodeChallengeMethodsSupported:     []string{"S256"},
		ScopesSupported:                   domain.SupportedScopes,
	}
}

// ProtectedResourceMetadata builds the RFC 9728 document for the MCP endpoint.
func (s *OAuthService) ProtectedResourceMetadata() *domain.ProtectedResourceMetadata {
	return &domain.ProtectedResourceMetadata{
		Resource:               s.cfg.Issuer + "/api/mcp/v1/messages",
		AuthorizationServers:   []string{s.cfg.Issuer},
		ScopesSupported:        domain.SupportedScopes,
		BearerMethodsSupported: []string{"header"},
	}
}

// ResourceMetadataURL is advertised in WWW-Authenticate challenges.
func ResourceMetadataURL(issuer string) string {
	return issuer + "/.well-known/oauth-protected-resource"
}

func validateRedirectURI(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute URL", domain.ErrInvalidRedirectURI, raw)
	}
	if u.Fragment != "" {
		return fmt.Errorf("%w: %q must not contain a fragment", domain.ErrInvalidRedirectURI, raw)
	}
	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if isLoopback(u.Hostname()) {
			return nil
		}
		return fmt.Errorf("%w: http is only allowed for loopback hosts", domain.ErrInvalidRedirectURI)
	default:
		return fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidRedirectURI, u.Scheme)
	}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// normalizeScope dedupes requested and checks it against allowed, keeping
// the order of allowed.
func normalizeScope(requested string, allowed []string) (string, bool) {
	want := make(map[string]bool)
	for _, s := range strings.Fields(requested) {
		want[s] = true
	}
	out := make([]string, 0, len(want))
	for _, s := range allowed {
		if want[s] {
			out = append(out, s)
			delete(want, s)
		}
	}
	if len(want) > 0 || len(out) == 0 {
		return "", false
	}
	return strings.Join(out, " "), true
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func appendQuery(base string, params url.Values) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
