package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/code-tutor/internal/chat"
	"github.com/suPer8Hu/code-tutor/internal/common"
	"github.com/suPer8Hu/code-tutor/internal/config"
	"github.com/suPer8Hu/code-tutor/internal/httpapi/handlers"
	"github.com/suPer8Hu/code-tutor/internal/httpapi/middleware"
	"github.com/suPer8Hu/code-tutor/internal/logger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

type Deps struct {
	DB    *gorm.DB
	Cfg   config.Config
	Log   *logger.Logger
	Tutor chat.Tutor

	// optional
	Publisher handlers.JobPublisher
	Limiter   handlers.RateLimiter
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(d.Log))
	if d.Cfg.OtelEnabled {
		r.Use(otelgin.Middleware("code-tutor"))
	}
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.CORS(d.Cfg.CORSAllowOrigins))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(d.DB, d.Cfg, d.Log, d.Tutor)
	h.Publisher = d.Publisher
	h.Limiter = d.Limiter

	r.GET("/ping", h.Ping)

	api := r.Group("/api")
	api.POST("/register/", h.Register)
	api.POST("/token", h.Token)
	api.POST("/token/refresh", h.RefreshToken)

	authGroup := api.Group("/")
	authGroup.Use(middleware.AuthRequired(d.Cfg.JWTSecret))
	// scripts
	authGroup.GET("/scripts/", h.ListScripts)
	authGroup.POST("/get-script/", h.OpenScript)
	authGroup.POST("/create-script/", h.CreateScript)
	authGroup.PUT("/update/:id/", h.UpdateScript)
	authGroup.DELETE("/delete/:id/", h.DeleteScript)
	// tutoring
	authGroup.POST("/ai-advice/", h.AIAdvice)
	authGroup.POST("/ai-advice/async", h.AIAdviceAsync)
	authGroup.GET("/ai-advice/jobs/:job_id", h.GetAdviceJob)
	authGroup.GET("/chat-history/", h.ChatHistory)
	authGroup.GET("/skills/", h.ListSkills)
	return r
}
