package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/code-tutor/internal/chat"
	"github.com/suPer8Hu/code-tutor/internal/common"
	"github.com/suPer8Hu/code-tutor/internal/config"
	"github.com/suPer8Hu/code-tutor/internal/httpapi/middleware"
	"github.com/suPer8Hu/code-tutor/internal/logger"
	"github.com/suPer8Hu/code-tutor/internal/scripts"
	"gorm.io/gorm"
)

// JobPublisher hands queued tutoring jobs to the worker.
type JobPublisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

// RateLimiter bounds tutoring submissions per user.
type RateLimiter interface {
	AllowTutorRequest(ctx context.Context, userID uint64, limit int) (bool, error)
}

type Handler struct {
	DB      *gorm.DB
	Cfg     config.Config
	Log     *logger.Logger
	Scripts *scripts.Service
	ChatSvc *chat.Service

	// optional; nil disables async turns / rate limiting
	Publisher JobPublisher
	Limiter   RateLimiter
}

func NewHandler(db *gorm.DB, cfg config.Config, log *logger.Logger, tutor chat.Tutor) *Handler {
	scriptRepo := scripts.NewRepo(db)
	chatSvc := chat.NewService(log, chat.NewRepo(db), scriptRepo, tutor, cfg.ChatContextWindowSize)
	return &Handler{
		DB:      db,
		Cfg:     cfg,
		Log:     log,
		Scripts: scripts.NewService(scriptRepo),
		ChatSvc: chatSvc,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"message": "pong"})
}

func userIDFromContext(c *gin.Context) (uint64, bool) {
	return middleware.UserID(c)
}

// currentUser writes 401 and reports false when the request has no identity.
func currentUser(c *gin.Context) (uint64, bool) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
	}
	return uid, ok
}
