package bootstrap

import (
	"context"
	"database/sql"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"pkt.systems/pslog"

	"github.com/folio-studio/folio-backend/config"
	httpapi "github.com/folio-studio/folio-backend/internal/api/http"
	apimw "github.com/folio-studio/folio-backend/internal/api/http/middleware"
	authhttp "github.com/folio-studio/folio-backend/internal/auth/http"
	"github.com/folio-studio/folio-backend/internal/auth/middleware"
	authrepo "github.com/folio-studio/folio-backend/internal/auth/repository"
	authservice "github.com/folio-studio/folio-backend/internal/auth/service"
	canvashttp "github.com/folio-studio/folio-backend/internal/canvas/http"
	canvasrepo "github.com/folio-studio/folio-backend/internal/canvas/repository"
	canvasservice "github.com/folio-studio/folio-backend/internal/canvas/service"
	contenthttp "github.com/folio-studio/folio-backend/internal/content/http"
	contentrepo "github.com/folio-studio/folio-backend/internal/content/repository"
	contentservice "github.com/folio-studio/folio-backend/internal/content/service"
	"github.com/folio-studio/folio-backend/internal/mcp"
	oauthhttp "github.com/folio-studio/folio-backend/internal/oauth/http"
	oauthrepo "github.com/folio-studio/folio-backend/internal/oauth/repository"
	oauthservice "github.com/folio-studio/folio-backend/internal/oauth/service"
	"github.com/folio-studio/folio-backend/internal/ratelimit"
)

const ServiceName = "folio-backend"

type RouterDeps struct {
	Config *config.Config
	Logger pslog.Logger
	DB     *sql.DB
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	// Firebase may be nil, in which case only OAuth access tokens are accepted.
	Firebase *fbauth.Client
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	cfg := dep.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(apimw.RequestID(dep.Logger))
	r.Use(apimw.CORS(cfg.Server.CORSAllowedOrigins))

	var dbPing, redisPing httpapi.Pinger
	if dep.Pool != nil {
		dbPing = dep.Pool
	}
	if dep.Redis != nil {
		redisPing = httpapi.PingFunc(func(ctx context.Context) error { return dep.Redis.Ping(ctx).Err() })
	}
	httpapi.NewHealthHandler(ServiceName, cfg.App.Version, dbPing, redisPing).RegisterRoutes(r)

	profiles := authservice.NewAuthService(authrepo.NewProfileRepository(dep.DB))
	signer := oauthservice.NewTokenSigner(cfg.OAuth.SigningKey, cfg.OAuth.Issuer)

	var idTokens middleware.IDTokenVerifier
	if dep.Firebase != nil {
		idTokens = dep.Firebase
	}
	authn := middleware.NewAuthenticator(idTokens, signer, profiles, oauthservice.ResourceMetadataURL(cfg.OAuth.Issuer))

	oauth := oauthservice.NewOAuthService(
		oauthrepo.NewClientRepository(dep.DB),
		oauthrepo.NewGrantStore(dep.Redis),
		signer,
		cfg.OAuth,
	)
	secureCookies := cfg.IsProduction() || strings.HasPrefix(cfg.OAuth.Issuer, "https://")
	oauthhttp.New(oauth, cfg.OAuth.ConsentURL, secureCookies).Register(r, authn)

	api := r.Group("/api")
	limiter := ratelimit.NewLimiter(dep.Redis, "mcp", cfg.MCP.RateLimit, cfg.MCP.RateWindow)
	mcpServer := mcp.NewServer(mcp.NewSQLStore(dep.DB), ServiceName, cfg.App.Version)
	mcp.NewHandler(mcpServer, limiter).Register(api, authn)

	v1 := api.Group("/v1")
	authhttp.New(profiles).Register(v1, authn)

	content := contenthttp.New(contentservice.NewContentService(
		contentrepo.NewProjectRepository(dep.DB),
		contentrepo.NewLogEntryRepository(dep.DB),
		contentrepo.NewBacklogRepository(dep.DB),
		contentrepo.NewGlossaryRepository(dep.DB),
	))
	content.Register(v1, authn)
	content.RegisterPublic(api.Group("/public"))

	canvashttp.New(canvasservice.NewCanvasService(canvasrepo.NewCanvasRepository(dep.DB))).Register(v1, authn)

	return r
}
