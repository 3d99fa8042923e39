package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/suPer8Hu/code-tutor/internal/chat"
	"github.com/suPer8Hu/code-tutor/internal/common"
)

const maxIdempotencyKeyLen = 128

type adviceReq struct {
	UserMessage string    `json:"user_message"`
	Code        string    `json:"code"`
	Language    string    `json:"language"`
	ScriptID    common.ID `json:"script_id"`
}

func (r adviceReq) toRequest(uid uint64) chat.AdviceRequest {
	return chat.AdviceRequest{
		UserID:   uid,
		ScriptID: uint64(r.ScriptID),
		Message:  r.UserMessage,
		Code:     r.Code,
		Language: r.Language,
	}
}

type historyItem struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// bindAdvice reads the body and applies the rate limit. It writes the error
// response and reports false when the request must stop.
func (h *Handler) bindAdvice(c *gin.Context, uid uint64) (adviceReq, bool) {
	var req adviceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "Message and script_id are required.")
		return req, false
	}
	if h.Limiter != nil {
		allowed, err := h.Limiter.AllowTutorRequest(c.Request.Context(), uid, h.Cfg.TutorRateLimit)
		if err != nil {
			// fail open
			h.Log.Warn("rate limiter unavailable", "user_id", uid, "error", err)
		} else if !allowed {
			common.Fail(c, http.StatusTooManyRequests, 42901, "too many tutoring requests, slow down")
			return req, false
		}
	}
	return req, true
}

// AIAdvice runs one tutoring turn and answers with the Markdown reply.
func (h *Handler) AIAdvice(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	req, ok := h.bindAdvice(c, uid)
	if !ok {
		return
	}

	md, err := h.ChatSvc.Advise(c.Request.Context(), req.toRequest(uid))
	if err != nil {
		h.adviceError(c, err)
		return
	}
	common.OK(c, gin.H{"response": md})
}

// AIAdviceAsync stores the user message and queues the rest of the turn.
func (h *Handler) AIAdviceAsync(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	if h.Publisher == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "async tutoring is not available")
		return
	}

	idempoKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if len(idempoKey) > maxIdempotencyKeyLen {
		common.Fail(c, http.StatusBadRequest, 10003, "idempotency key too long")
		return
	}
	var idempoKeyPtr *string
	if idempoKey != "" {
		idempoKeyPtr = &idempoKey
	}

	req, ok := h.bindAdvice(c, uid)
	if !ok {
		return
	}

	job, created, err := h.ChatSvc.Enqueue(c.Request.Context(), req.toRequest(uid), idempoKeyPtr)
	if err != nil {
		h.adviceError(c, err)
		return
	}

	// publish only when a new job was created
	if created {
		if err := h.Publisher.PublishJob(c.Request.Context(), job.ID); err != nil {
			h.Log.Error("publish job failed", "user_id", uid, "job_id", job.ID, "error", err)
			common.Fail(c, http.StatusInternalServerError, 50002, "enqueue failed")
			return
		}
	}
	common.JSON(c, http.StatusAccepted, gin.H{"job_id": job.ID, "status": job.Status})
}

func (h *Handler) GetAdviceJob(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	jobID := strings.TrimSpace(c.Param("job_id"))
	if jobID == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "job_id required")
		return
	}

	j, err := h.ChatSvc.GetJob(c.Request.Context(), uid, jobID)
	if err != nil {
		if errors.Is(err, chat.ErrJobNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "job not found")
			return
		}
		h.Log.Error("get job failed", "user_id", uid, "job_id", jobID, "error", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	resp := gin.H{
		"job_id":    j.ID,
		"status":    j.Status,
		"script_id": j.ScriptID,
	}
	switch j.Status {
	case chat.JobSucceeded:
		md, err := h.ChatSvc.JobReply(c.Request.Context(), j)
		if err != nil {
			h.Log.Error("load job reply failed", "job_id", j.ID, "error", err)
			common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
			return
		}
		resp["response"] = md
	case chat.JobFailed:
		resp["error"] = lo.FromPtr(j.Error)
	}
	common.OK(c, resp)
}

// ChatHistory lists one script's conversation, oldest first.
func (h *Handler) ChatHistory(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	raw := strings.TrimSpace(c.Query("script_id"))
	if raw == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "script_id is required.")
		return
	}
	scriptID, err := common.ParseID(raw)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10002, "script_id must be a valid integer.")
		return
	}

	msgs, err := h.ChatSvc.History(c.Request.Context(), uid, scriptID)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			common.Fail(c, http.StatusNotFound, 40401, "Not found.")
			return
		}
		h.Log.Error("chat history failed", "user_id", uid, "script_id", scriptID, "error", err)
		common.Fail(c, http.StatusInternalServerError, 50001, err.Error())
		return
	}

	common.OK(c, gin.H{"history": lo.Map(msgs, func(m chat.Message, _ int) historyItem {
		return historyItem{Role: m.Role, Content: m.Content, Timestamp: m.CreatedAt.Format(time.RFC3339Nano)}
	})})
}

func (h *Handler) ListSkills(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	skills, err := h.ChatSvc.Skills(c.Request.Context(), uid)
	if err != nil {
		h.Log.Error("list skills failed", "user_id", uid, "error", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.OK(c, skills)
}

func (h *Handler) adviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrInvalid):
		common.Fail(c, http.StatusBadRequest, 10002, "Message and script_id are required.")
	case errors.Is(err, chat.ErrLanguage):
		common.Fail(c, http.StatusBadRequest, 10003, err.Error())
	case errors.Is(err, chat.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40401, "Not found.")
	case errors.Is(err, chat.ErrUnreadable):
		common.Fail(c, http.StatusInternalServerError, 50003, chat.UnreadableMessage)
	default:
		// raw error text is part of the tutoring contract
		common.Fail(c, http.StatusInternalServerError, 50004, err.Error())
	}
}
