package http

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
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "github.com/folio-studio/folio-backend/internal/auth/domain"
	"github.com/folio-studio/folio-backend/internal/auth/middleware"
	"github.com/folio-studio/folio-backend/internal/canvas/repository"
	"github.com/folio-studio/folio-backend/internal/canvas/service"
)

type siteSessions struct{}

func (siteSessions) VerifyIDToken(_ context.Context, token string) (*fbauth.Token, error) {
	if token != "t-editor" {
		return nil, errors.New("bad token")
	}
	return &fbauth.Token{UID: "fb-editor"}, nil
}

type accessTokens struct{}

func (accessTokens) VerifyAccessToken(token string) (*authdomain.AccessClaims, error) {
	if token != "at-editor" {
		return nil, errors.New("bad token")
	}
	return &authdomain.AccessClaims{ProfileID: "u-editor", Scope: "mcp:read mcp:write"}, nil
}

type profiles struct{}

func (profiles) ResolveProfile(context.Context, *authdomain.Identity) (*authdomain.Profile, error) {
	return &authdomain.Profile{ID: "u-editor", Role: authdomain.RoleEditor}, nil
}

var canvasCols = []string{"id", "studio_project_id", "name", "status", "data", "version", "created_at", "updated_at"}

func setup(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	gin.SetMode(gin.TestMode)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := New(service.NewCanvasService(repository.NewCanvasRepository(db)))
	r := gin.New()
	h.Register(r.Group("/api/v1"), middleware.NewAuthenticator(siteSessions{}, accessTokens{}, profiles{}, ""))
	return r, mock
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	return sendAs(r, "t-editor", method, path, body)
}

func sendAs(r http.Handler, token, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func expectCanvas(mock sqlmock.Sqlmock, version int) {
	now := time.Now()
	mock.ExpectQuery(`FROM "customer_profiles" WHERE id = \$1`).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows(canvasCols).
			AddRow("c-1", nil, "Indie makers", "draft", []byte(`{"blocks":{"pains":[{"id":"i-1","text":"slow onboarding"}]}}`), version, now, now))
}

func TestAddItem(t *testing.T) {
	r, mock := setup(t)
	expectCanvas(mock, 3)
	mock.ExpectQuery(`UPDATE "customer_profiles"`).
		WithArgs("c-1", 3, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"version", "updated_at"}).AddRow(4, time.Now()))

	rr := send(r, http.MethodPost, "/api/v1/canvases/customer_profile/c-1/items", `{"expected_version":3,"block":"gains","text":"fast setup"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var body struct {
		Canvas struct {
			Version int `json:"version"`
		} `json:"canvas"`
		Item struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Canvas.Version)
	assert.NotEmpty(t, body.Item.ID)
	assert.Equal(t, "fast setup", body.Item.Text)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVersionConflict(t *testing.T) {
	r, mock := setup(t)
	expectCanvas(mock, 5)

	rr := send(r, http.MethodPatch, "/api/v1/canvases/customer_profile/c-1/items/i-1", `{"expected_version":3,"text":"x"}`)
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{
		"error": "version conflict",
		"details": "the canvas changed since it was loaded; refetch and try again",
		"current_version": 5
	}`, rr.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemErrors(t *testing.T) {
	t.Run("unknown block is 400", func(t *testing.T) {
		r, mock := setup(t)
		expectCanvas(mock, 3)
		rr := send(r, http.MethodPost, "/api/v1/canvases/customer_profile/c-1/items/i-1/move", `{"expected_version":3,"block":"channels","position":0}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown item is 404", func(t *testing.T) {
		r, mock := setup(t)
		expectCanvas(mock, 3)
		rr := send(r, http.MethodDelete, "/api/v1/canvases/customer_profile/c-1/items/i-9?expected_version=3", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("unknown kind is 404", func(t *testing.T) {
		r, _ := setup(t)
		rr := send(r, http.MethodGet, "/api/v1/canvases/swot/c-1", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("delete needs expected_version", func(t *testing.T) {
		r, _ := setup(t)
		rr := send(r, http.MethodDelete, "/api/v1/canvases/customer_profile/c-1/items/i-1", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCanvasRoutes_RefuseOAuthAccessTokens(t *testing.T) {
	r, mock := setup(t)

	rr := sendAs(r, "at-editor", http.MethodPost, "/api/v1/canvases/customer_profile/c-1/items",
		`{"block":"pains","text":"x","expected_version":1}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
