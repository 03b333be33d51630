package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/designstudio/portfolio-backend/internal/api/http"
	"github.com/designstudio/portfolio-backend/internal/api/http/middleware"
	"github.com/designstudio/portfolio-backend/internal/auth"
	authhttp "github.com/designstudio/portfolio-backend/internal/auth/http"
	authmw "github.com/designstudio/portfolio-backend/internal/auth/middleware"
	authsvc "github.com/designstudio/portfolio-backend/internal/auth/service"
	"github.com/designstudio/portfolio-backend/internal/media"
	projhttp "github.com/designstudio/portfolio-backend/internal/projects/http"
)

type RouterDeps struct {
	ServiceName  string
	Version      string
	CORSOrigins  []string
	SecureCookie bool

	DB    *pgxpool.Pool
	Redis *redis.Client

	Auth        *authsvc.AuthService
	Projects    projhttp.ProjectService
	Subscriber  projhttp.Subscriber
	MediaStore  media.Store
	MaxUpload   int64
	UploadsDir  string // served at /uploads when the local backend is used
	LoginPerMin int
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if dep.MaxUpload > 0 {
		r.MaxMultipartMemory = dep.MaxUpload
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	if dep.UploadsDir != "" {
		r.Static("/uploads", dep.UploadsDir)
	}

	r.Use(authmw.Authenticate(dep.Auth))

	loginPerMin := dep.LoginPerMin
	if loginPerMin == 0 {
		loginPerMin = 10
	}
	authHandler := authhttp.New(dep.Auth, dep.SecureCookie)
	authHandler.Register(r.Group("/api/auth"), middleware.RateLimit(middleware.NewIPRateLimiter(loginPerMin, 5)))

	var opts []media.Option
	if dep.MaxUpload > 0 {
		opts = append(opts, media.WithMaxBytes(dep.MaxUpload))
	}
	coordinator := media.NewCoordinator(dep.MediaStore, auth.RequestAuthorizer{}, opts...)
	projectsHandler := projhttp.New(dep.Projects, coordinator, dep.Subscriber)
	projectsHandler.Register(r.Group("/api/v1"), authmw.RequireAdmin())

	return r
}
