package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/codecove/codecove-backend/config"
	httpapi "github.com/codecove/codecove-backend/internal/api/http"
	"github.com/codecove/codecove-backend/internal/auth"
	authhttp "github.com/codecove/codecove-backend/internal/auth/http"
	"github.com/codecove/codecove-backend/internal/files"
	filescache "github.com/codecove/codecove-backend/internal/files/cache"
	fileshttp "github.com/codecove/codecove-backend/internal/files/http"
	filesservice "github.com/codecove/codecove-backend/internal/files/service"
	"github.com/codecove/codecove-backend/internal/middleware"
	"github.com/codecove/codecove-backend/internal/projects"
	projectshttp "github.com/codecove/codecove-backend/internal/projects/http"
	"github.com/codecove/codecove-backend/internal/storage/blob"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	DB          *pgxpool.Pool
	Redis       *redis.Client
	Blobs       blob.Store
	Verifier    auth.TokenVerifier
	AuthCfg     *config.AuthConfig
	Logger      *zap.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(dep.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(rate.Limit(20), 40))

	if dep.AuthCfg != nil {
		authHandler := authhttp.New(dep.AuthCfg, dep.Logger)
		authHandler.Register(api.Group("/auth"))
	}

	authed := api.Group("")
	authed.Use(auth.RequireAuth(dep.Verifier))

	projectRepo := projects.NewRepo(dep.DB)
	projectsHandler := projectshttp.New(projectRepo, dep.Blobs, dep.Logger)
	projectsHandler.Register(authed.Group("/projects"))

	fileRepo := files.NewRepo(dep.DB)
	var cache filesservice.ContentCache
	if dep.Redis != nil {
		cache = filescache.New(dep.Redis, 0)
	}
	fileService := filesservice.New(fileRepo, dep.Blobs, cache, dep.Logger)
	filesHandler := fileshttp.New(fileService, dep.Logger)
	filesHandler.Register(authed.Group("/files"))

	return r
}
