package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	httpapi "github.com/folio-studio/folio-backend/internal/api/http"
	"github.com/folio-studio/folio-backend/internal/auth"
	"github.com/folio-studio/folio-backend/internal/logging"
	"github.com/folio-studio/folio-backend/internal/oauth/domain"
	"github.com/folio-studio/folio-backend/internal/oauth/service"
)

func (h *Handler) AuthServerMetadata(c *gin.Context) {
	c.JSON(http.StatusOK, h.oauth.AuthServerMetadata())
}

func (h *Handler) ProtectedResourceMetadata(c *gin.Context) {
	c.JSON(http.StatusOK, h.oauth.ProtectedResourceMetadata())
}

// RegisterClient implements RFC 7591 dynamic client registration.
func (h *Handler) RegisterClient(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, oauthError{Error: domain.ErrInvalidClientMetadata.Error(), ErrorDescription: err.Error()})
		return
	}

	resp, err := h.oauth.Register(c.Request.Context(), &req)
	if err != nil {
		h.writeOAuthError(c, err)
		return
	}

	logging.FromContext(c.Request.Context()).Info("oauth.client.registered",
		"client_id", resp.ClientID,
		"client_name", resp.ClientName,
		"auth_method", resp.TokenEndpointAuthMethod,
	)
	c.JSON(http.StatusCreated, resp)
}

// Authorize validates the request, parks it in the consent cookie and
// sends the browser to the consent page.
func (h *Handler) Authorize(c *gin.Context) {
	req := &domain.AuthorizeRequest{
		ResponseType:        c.Query("response_type"),
		ClientID:            c.Query("client_id"),
		RedirectURI:         c.Query("redirect_uri"),
		State:               c.Query("state"),
		Scope:               c.Query("scope"),
		CodeChallenge:       c.Query("code_challenge"),
		CodeChallengeMethod: c.Query("code_challenge_method"),
	}

	pending, err := h.oauth.Authorize(c.Request.Context(), req)
	if err != nil {
		var ae *service.AuthorizeError
		if errors.As(err, &ae) {
			c.Redirect(http.StatusFound, ae.RedirectURL())
			return
		}
		// The redirect URI is not trusted yet, so the error goes to the browser.
		if body, _, ok := classify(err); ok {
			c.AbortWithStatusJSON(http.StatusBadRequest, body)
			return
		}
		h.writeOAuthError(c, err)
		return
	}

	signed, err := h.oauth.EncodePending(pending)
	if err != nil {
		httpapi.Error(c, http.StatusInternalServerError, "failed to start authorization", err)
		return
	}

	h.setConsentCookie(c, signed, int(time.Until(pending.ExpiresAt).Seconds()))
	c.Redirect(http.StatusFound, h.consentURL)
}

// GetConsent shows the consent page what is being asked for.
func (h *Handler) GetConsent(c *gin.Context) {
	pending, ok := h.pending(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": consentView{
		ClientID:    pending.ClientID,
		ClientName:  pending.ClientName,
		RedirectURI: pending.RedirectURI,
		Scopes:      strings.Fields(pending.Scope),
		ExpiresAt:   pending.ExpiresAt.Unix(),
	}})
}

// PostConsent records the signed-in user's decision.
func (h *Handler) PostConsent(c *gin.Context) {
	var body consentDecision
	if err := c.ShouldBindJSON(&body); err != nil {
		httpapi.Error(c, http.StatusBadRequest, "invalid request body", err)
		return
	}

	pending, ok := h.pending(c)
	if !ok {
		return
	}

	log := logging.FromContext(c.Request.Context())
	profile := auth.ProfileFrom(c)

	switch body.Decision {
	case "approve":
		target, err := h.oauth.Approve(c.Request.Context(), pending, profile.ID)
		if err != nil {
			httpapi.Error(c, http.StatusInternalServerError, "failed to issue authorization code", err)
			return
		}
		h.setConsentCookie(c, "", -1)
		log.Info("oauth.consent.approved", "client_id", pending.ClientID, "profile_id", profile.ID, "scope", pending.Scope)
		c.JSON(http.StatusOK, gin.H{"redirect_to": target})
	case "deny":
		h.setConsentCookie(c, "", -1)
		log.Info("oauth.consent.denied", "client_id", pending.ClientID, "profile_id", profile.ID)
		c.JSON(http.StatusOK, gin.H{"redirect_to": h.oauth.Deny(pending)})
	default:
		httpapi.Error(c, http.StatusBadRequest, "decision must be approve or deny", nil)
	}
}

// Token is the RFC 6749 token endpoint. Parameters arrive form encoded.
func (h *Handler) Token(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")

	clientID, clientSecret := c.PostForm("client_id"), c.PostForm("client_secret")
	if id, secret, ok := c.Request.BasicAuth(); ok {
		clientID, clientSecret = id, secret
	}

	resp, err := h.oauth.Token(c.Request.Context(), &domain.TokenRequest{
		GrantType:    c.PostForm("grant_type"),
		Code:         c.PostForm("code"),
		RedirectURI:  c.PostForm("redirect_uri"),
		CodeVerifier: c.PostForm("code_verifier"),
		RefreshToken: c.PostForm("refresh_token"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scope:        c.PostForm("scope"),
	})
	if err != nil {
		logging.FromContext(c.Request.Context()).Info("oauth.token.rejected", "client_id", clientID, "error", err)
		h.writeOAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Revoke implements RFC 7009. Unknown tokens still answer 200.
func (h *Handler) Revoke(c *gin.Context) {
	err := h.oauth.Revoke(c.Request.Context(), c.PostForm("token"))
	if err != nil {
		h.writeOAuthError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) pending(c *gin.Context) (*domain.PendingAuthorization, bool) {
	raw, _ := c.Cookie(consentCookie)
	pending, err := h.oauth.DecodePending(raw)
	if err != nil {
		httpapi.Error(c, http.StatusBadRequest, "no pending authorization request", err)
		return nil, false
	}
	return pending, true
}

func (h *Handler) setConsentCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(consentCookie, value, maxAge, "/oauth", "", h.secure, true)
}

var oauthErrors = []struct {
	err    error
	status int
}{
	{domain.ErrInvalidClient, http.StatusUnauthorized},
	{domain.ErrInvalidRequest, http.StatusBadRequest},
	{domain.ErrInvalidGrant, http.StatusBadRequest},
	{domain.ErrUnsupportedGrantType, http.StatusBadRequest},
	{domain.ErrUnsupportedResponseType, http.StatusBadRequest},
	{domain.ErrInvalidScope, http.StatusBadRequest},
	{domain.ErrInvalidRedirectURI, http.StatusBadRequest},
	{domain.ErrInvalidClientMetadata, http.StatusBadRequest},
}

// writeOAuthError answers {error, error_description} with the wire code of
// the sentinel err wraps; anything else is a server_error. A 401 carries
// the challenge RFC 6749 section 5.2 asks for.
func (h *Handler) writeOAuthError(c *gin.Context, err error) {
	if body, status, ok := classify(err); ok {
		if status == http.StatusUnauthorized {
			c.Header("WWW-Authenticate", `Basic realm="oauth", error="`+body.Error+`"`)
		}
		c.AbortWithStatusJSON(status, body)
		return
	}
	_ = c.Error(err)
	logging.FromContext(c.Request.Context()).Error("oauth.internal_error", "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, oauthError{Error: "server_error"})
}

func classify(err error) (oauthError, int, bool) {
	for _, e := range oauthErrors {
		if errors.Is(err, e.err) {
			return oauthError{
				Error:            e.err.Error(),
				ErrorDescription: strings.TrimPrefix(err.Error(), e.err.Error()+": "),
			}, e.status, true
		}
	}
	return oauthError{}, 0, false
}
