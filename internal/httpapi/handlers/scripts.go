package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/suPer8Hu/code-tutor/internal/common"
	"github.com/suPer8Hu/code-tutor/internal/scripts"
)

func (h *Handler) ListScripts(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.Scripts.List(c.Request.Context(), uid)
	if err != nil {
		h.Log.Error("list scripts failed", "user_id", uid, "error", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.OK(c, lo.Map(list, func(s scripts.Script, _ int) scripts.Summary { return s.Summary() }))
}

func (h *Handler) OpenScript(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		ID common.ID `json:"id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == 0 {
		common.Fail(c, http.StatusBadRequest, 10001, "id must be a valid integer")
		return
	}
	sc, err := h.Scripts.Open(c.Request.Context(), uid, uint64(req.ID))
	if err != nil {
		h.scriptError(c, err)
		return
	}
	common.OK(c, sc)
}

func (h *Handler) CreateScript(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	var in scripts.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	sc, err := h.Scripts.Create(c.Request.Context(), uid, in)
	if err != nil {
		h.scriptError(c, err)
		return
	}
	common.JSON(c, http.StatusCreated, sc)
}

func (h *Handler) UpdateScript(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := common.ParseID(c.Param("id"))
	if err != nil || id == 0 {
		common.Fail(c, http.StatusNotFound, 40401, "Not found.")
		return
	}
	var in scripts.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	sc, err := h.Scripts.Update(c.Request.Context(), uid, id, in)
	if err != nil {
		h.scriptError(c, err)
		return
	}
	common.JSON(c, http.StatusAccepted, sc)
}

func (h *Handler) DeleteScript(c *gin.Context) {
	uid, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := common.ParseID(c.Param("id"))
	if err != nil || id == 0 {
		common.Fail(c, http.StatusNotFound, 40401, "Not found.")
		return
	}
	if err := h.Scripts.Delete(c.Request.Context(), uid, id); err != nil {
		h.scriptError(c, err)
		return
	}
	h.Log.Info("script deleted", "user_id", uid, "script_id", id)
	c.Status(http.StatusNoContent)
}

func (h *Handler) scriptError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scripts.ErrNotFound):
		common.Fail(c, http.StatusNotFound, 40401, "Not found.")
	case errors.Is(err, scripts.ErrInvalid):
		common.Fail(c, http.StatusBadRequest, 10002, err.Error())
	default:
		h.Log.Error("script request failed", "path", c.FullPath(), "error", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
	}
}
