package router

import (
	"fmt"
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/invitefeed/docs"
	"github.com/d60-Lab/invitefeed/internal/api/handler"
	"github.com/d60-Lab/invitefeed/internal/api/middleware"
	"github.com/d60-Lab/invitefeed/internal/auth"
)

// Options 控制可选中间件
type Options struct {
	EnableGzip    bool
	EnableSwagger bool
	EnableSentry  bool
	// TracingService 非空时启用 otelgin
	TracingService string
	// RateLimit <= 0 表示不限流
	RateLimit float64
	RateBurst int
	// TrustedProxies 可信反向代理；为空时不信任 X-Forwarded-For，限流按连接地址计
	TrustedProxies []string
}

// Setup 注册全部路由
func Setup(h *handler.Handler, tokens *auth.TokenService, opts Options) (*gin.Engine, error) {
	handler.RegisterValidators()

	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery())
	if opts.EnableSentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if opts.TracingService != "" {
		r.Use(otelgin.Middleware(opts.TracingService))
	}
	r.Use(middleware.RequestLogger())
	if opts.EnableGzip {
		r.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.EnableSwagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.InstanceName(docs.SwaggerInfo.InstanceName())))
	}

	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if opts.RateLimit > 0 {
		limit = middleware.NewIPRateLimiter(opts.RateLimit, opts.RateBurst).Middleware()
	}
	r.POST("/register", limit, h.Register)
	r.POST("/login", limit, h.Login)

	authed := middleware.JWTAuth(tokens)
	r.GET("/profile", authed, h.MyProfile)
	r.GET("/profile/:username", authed, h.UserProfile)

	api := r.Group("/api")
	{
		invites := api.Group("/invites")
		invites.POST("/generate", authed, h.GenerateInvite)
		invites.POST("/follow/:inviteId", authed, h.RedeemInvite)
		invites.GET("/:inviteId", h.GetInvite)

		api.GET("/feed", authed, h.Feed)
		api.POST("/posts", authed, h.CreatePost)
	}

	return r, nil
}
