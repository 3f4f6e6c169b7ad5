package domain

import (
	"errors"
	"time"
)

const (
	AuthMethodNone       = "none"
	AuthMethodSecretPost = "client_secret_post"

	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"

	ScopeRead  = "mcp:read"
	ScopeWrite = "mcp:write"
)

// SupportedScopes is advertised in both metadata documents.
var SupportedScopes = []string{ScopeRead, ScopeWrite}

// RFC 6749 and RFC 7591 error codes. Each sentinel's message is the wire
// error code so handlers can answer with err.Error() of the root cause.
var (
	ErrInvalidRequest          = errors.New("invalid_request")
	ErrInvalidClient           = errors.New("invalid_client")
	ErrInvalidGrant            = errors.New("invalid_grant")
	ErrUnsupportedGrantType    = errors.New("unsupported_grant_type")
	ErrUnsupportedResponseType = errors.New("unsupported_response_type")
	ErrInvalidScope            = errors.New("invalid_scope")
	ErrAccessDenied            = errors.New("access_denied")
	ErrInvalidRedirectURI      = errors.New("invalid_redirect_uri")
	ErrInvalidClientMetadata   = errors.New("invalid_client_metadata")

	ErrClientNotFound = errors.New("oauth client not found")
)

// Client is a registered OAuth client. Only the SHA-256 digest of a
// confidential client's secret is stored.
type Client struct {
	ClientID                string     `json:"client_id"`
	ClientName              string     `json:"client_name"`
	RedirectURIs            []string   `json:"redirect_uris"`
	TokenEndpointAuthMethod string     `json:"token_endpoint_auth_method"`
	SecretHash              string     `json:"-"`
	Scope                   string     `json:"scope"`
	Dynamic                 bool       `json:"dynamic"`
	LastUsedAt              *time.Time `json:"last_used_at,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
}

// AllowsRedirect reports an exact match against the registered URIs.
func (c *Client) AllowsRedirect(uri string) bool {
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}

func (c *Client) Public() bool {
	return c.TokenEndpointAuthMethod == AuthMethodNone
}

// RegisterRequest is the RFC 7591 client metadata accepted by /register.
type RegisterRequest struct {
	ClientName              string   `json:"client_name"`
	RedirectURIs            []string `json:"redirect_uris"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	GrantTypes              []string `json:"grant_types,omitempty"`
	ResponseTypes           []string `json:"response_types,omitempty"`
	Scope                   string   `json:"scope,omitempty"`
}

// RegisterResponse is the RFC 7591 registration response.
type RegisterResponse struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret,omitempty"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at"`
	ClientSecretExpiresAt   int64    `json:"client_secret_expires_at"`
	ClientName              string   `json:"client_name"`
	RedirectURIs            []string `json:"redirect_uris"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	Scope                   string   `json:"scope"`
}

// AuthorizeRequest holds the query parameters of /oauth/authorize.
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	State               string
	Scope               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// PendingAuthorization is an authorize request awaiting the user's consent.
// It travels in a signed cookie between /oauth/authorize and /oauth/consent.
type PendingAuthorization struct {
	ClientID      string    `json:"client_id"`
	ClientName    string    `json:"client_name"`
	RedirectURI   string    `json:"redirect_uri"`
	State         string    `json:"state,omitempty"`
	Scope         string    `json:"scope"`
	CodeChallenge string    `json:"code_challenge"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// AuthCode is the server-side record of an issued authorization code.
type AuthCode struct {
	ClientID      string    `json:"client_id"`
	RedirectURI   string    `json:"redirect_uri"`
	CodeChallenge string    `json:"code_challenge"`
	ProfileID     string    `json:"profile_id"`
	Scope         string    `json:"scope"`
	IssuedAt      time.Time `json:"issued_at"`
}

// RefreshGrant is what a refresh token stands for.
type RefreshGrant struct {
	ClientID  string    `json:"client_id"`
	ProfileID string    `json:"profile_id"`
	Scope     string    `json:"scope"`
	IssuedAt  time.Time `json:"issued_at"`
}

// TokenRequest is the form posted to /oauth/token.
type TokenRequest struct {
	GrantType    string
	Code         string
	RedirectURI  string
	CodeVerifier string
	RefreshToken string
	ClientID     string
	ClientSecret string
	Scope        string
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// AuthServerMetadata is the RFC 8414 document.
type AuthServerMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	RegistrationEndpoint              string   `json:"registration_endpoint"`
	RevocationEndpoint                string   `json:"revocation_endpoint"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	ScopesSupported                   []string `json:"scopes_supported"`
}

// ProtectedResourceMetadata is the RFC 9728 document.
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	ScopesSupported        []string `json:"scopes_supported"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
}
