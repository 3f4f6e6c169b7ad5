package http

import (
	"github.com/folio-studio/folio-backend/internal/oauth/service"
)

const consentCookie = "folio_oauth_request"

type Handler struct {
	oauth      *service.OAuthService
	consentURL string
	secure     bool
}

// New builds the OAuth handlers. secure marks the consent cookie Secure and
// should be set whenever the issuer is served over https.
func New(oauth *service.OAuthService, consentURL string, secure bool) *Handler {
	return &Handler{
		oauth:      oauth,
		consentURL: consentURL,
		secure:     secure,
	}
}

type consentView struct {
	ClientID    string   `json:"client_id"`
	ClientName  string   `json:"client_name"`
	RedirectURI string   `json:"redirect_uri"`
	Scopes      []string `json:"scopes"`
	ExpiresAt   int64    `json:"expires_at"`
}

type consentDecision struct {
	Decision string `json:"decision" binding:"required"`
}

type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
