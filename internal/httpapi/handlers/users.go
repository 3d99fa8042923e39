package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/code-tutor/internal/auth"
	"github.com/suPer8Hu/code-tutor/internal/common"
	"github.com/suPer8Hu/code-tutor/internal/models"
	"gorm.io/gorm"
)

const maxUsernameLen = 150

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "username and password required")
		return
	}
	if utf8.RuneCountInString(req.Username) > maxUsernameLen {
		common.Fail(c, http.StatusBadRequest, 10003, "username must be at most 150 characters")
		return
	}

	var cnt int64
	if err := h.DB.WithContext(c.Request.Context()).Model(&models.User{}).Where("username = ?", req.Username).Count(&cnt).Error; err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	if cnt > 0 {
		common.Fail(c, http.StatusBadRequest, 10004, "a user with that username already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20002, "failed to hash password")
		return
	}

	user := models.User{Username: req.Username, PasswordHash: hash}
	if err := h.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		// lost a race on the unique index
		common.Fail(c, http.StatusBadRequest, 10004, "a user with that username already exists")
		return
	}
	h.Log.Info("user registered", "user_id", user.ID)

	common.JSON(c, http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
	})
}

// Token exchanges credentials for an access/refresh pair.
func (h *Handler) Token(c *gin.Context) {
	var req credentialsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Username == "" || req.Password == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "username and password required")
		return
	}

	var user models.User
	err := h.DB.WithContext(c.Request.Context()).Where("username = ?", req.Username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		common.Fail(c, http.StatusInternalServerError, 20001, "db error")
		return
	}
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		common.Fail(c, http.StatusUnauthorized, 40103, "No active account found with the given credentials")
		return
	}

	access, err := auth.SignJWT(user.ID, auth.AccessToken, h.Cfg.JWTSecret, h.accessTTL())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}
	refresh, err := auth.SignJWT(user.ID, auth.RefreshToken, h.Cfg.JWTSecret, h.refreshTTL())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}
	common.OK(c, gin.H{"access": access, "refresh": refresh})
}

func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Refresh == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "refresh token required")
		return
	}
	uid, err := auth.ParseJWT(req.Refresh, auth.RefreshToken, h.Cfg.JWTSecret)
	if err != nil {
		common.Fail(c, http.StatusUnauthorized, 40102, "Token is invalid or expired")
		return
	}
	access, err := auth.SignJWT(uid, auth.AccessToken, h.Cfg.JWTSecret, h.accessTTL())
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}
	common.OK(c, gin.H{"access": access})
}

func (h *Handler) accessTTL() time.Duration {
	if h.Cfg.AccessTTLMin <= 0 {
		return time.Hour
	}
	return time.Duration(h.Cfg.AccessTTLMin) * time.Minute
}

func (h *Handler) refreshTTL() time.Duration {
	if h.Cfg.RefreshTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(h.Cfg.RefreshTTLHours) * time.Hour
}
