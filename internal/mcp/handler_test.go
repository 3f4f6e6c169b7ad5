package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "github.com/folio-studio/folio-backend/internal/auth/domain"
	"github.com/folio-studio/folio-backend/internal/auth/middleware"
	"github.com/folio-studio/folio-backend/internal/ratelimit"
)

type staticUsers struct{}

func (staticUsers) VerifyIDToken(_ context.Context, token string) (*fbauth.Token, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &fbauth.Token{UID: "fb-1"}, nil
}

func (staticUsers) ResolveProfile(context.Context, *authdomain.Identity) (*authdomain.Profile, error) {
	return &authdomain.Profile{ID: "p-1", Role: authdomain.RoleEditor}, nil
}

func setupHandler(t *testing.T, limit int) *gin.Engine {
	r, _ := setupHandlerWithRedis(t, limit)
	return r
}

func setupHandlerWithRedis(t *testing.T, limit int) (*gin.Engine, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return routerWithLimiter(ratelimit.NewLimiter(rdb, "mcp", limit, time.Minute)), mr
}

func routerWithLimiter(l Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	authn := middleware.NewAuthenticator(staticUsers{}, nil, staticUsers{}, "https://api.example.com/.well-known/oauth-protected-resource")
	h := NewHandler(NewServer(&fakeStore{}, "folio", "test"), l)

	r := gin.New()
	h.Register(r.Group("/api"), authn)
	return r
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("limiter offline")
}

func post(r http.Handler, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/mcp/v1/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_RequiresBearer(t *testing.T) {
	r := setupHandler(t, 10)

	w := post(r, "", `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Bearer resource_metadata="https://api.example.com/.well-known/oauth-protected-resource"`, w.Header().Get("WWW-Authenticate"))

	w = post(r, "forged", `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_Ping(t *testing.T) {
	r := setupHandler(t, 10)
	w := post(r, "good", `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":{}}`, w.Body.String())
}

func TestHandler_Notification(t *testing.T) {
	r := setupHandler(t, 10)
	w := post(r, "good", `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHandler_RateLimit(t *testing.T) {
	r := setupHandler(t, 2)
	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`

	assert.Equal(t, http.StatusOK, post(r, "good", body).Code)
	assert.Equal(t, http.StatusOK, post(r, "good", body).Code)

	w := post(r, "good", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeRateLimited, resp.Error.Code)
}

func TestHandler_RateLimitWithoutRedis(t *testing.T) {
	r, mr := setupHandlerWithRedis(t, 2)
	mr.Close()
	body := `{"jsonrpc":"2.0","id":1,"method":"ping"}`

	assert.Equal(t, http.StatusOK, post(r, "good", body).Code)
	assert.Equal(t, http.StatusOK, post(r, "good", body).Code)

	w := post(r, "good", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "the local bucket keeps limiting")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestHandler_LimiterWithoutDecisionLetsRequestsThrough(t *testing.T) {
	r := routerWithLimiter(brokenLimiter{})
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, post(r, "good", `{"jsonrpc":"2.0","id":1,"method":"ping"}`).Code)
	}
}
