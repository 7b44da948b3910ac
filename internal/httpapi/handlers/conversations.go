package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/pairhub/internal/common"
)

type submitReq struct {
	PairID   string `json:"pairId"`
	JSONData any    `json:"jsonData"`
}

func (h *Handler) SubmitConversation(c *gin.Context) {
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.PairID == "" || missing(req.JSONData) {
		common.Fail(c, http.StatusBadRequest, 10002, "Both pairId and jsonData are required")
		return
	}

	res, err := h.Svc.Submit(c.Request.Context(), req.PairID, req.JSONData)
	if err != nil {
		h.failConversation(c, err)
		return
	}
	common.OK(c, res)
}

func (h *Handler) GetStagedConversation(c *gin.Context) {
	content, ok := h.Svc.GetStaged(c.Request.Context(), c.Param("id"))
	if !ok {
		common.Fail(c, http.StatusNotFound, 40402, "Conversation not found")
		return
	}
	common.OK(c, content)
}

func (h *Handler) ClearStagedConversation(c *gin.Context) {
	cleared := h.Svc.ClearStaged(c.Request.Context(), c.Param("id"))
	common.OK(c, gin.H{"cleared": cleared})
}
