package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/pairhub/internal/common"
)

// MaxBatchPairs bounds a single POST /pairs/batch.
const MaxBatchPairs = 1000

type createPairReq struct {
	DeviceA any `json:"deviceA"`
	DeviceB any `json:"deviceB"`
}

func (h *Handler) CreatePair(c *gin.Context) {
	var req createPairReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if missing(req.DeviceA) || missing(req.DeviceB) {
		common.Fail(c, http.StatusBadRequest, 10002, "Both deviceA and deviceB are required")
		return
	}

	p, err := h.Svc.CreatePair(c.Request.Context(), req.DeviceA, req.DeviceB)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create device pair")
		return
	}
	common.OK(c, p)
}

func (h *Handler) ListPairs(c *gin.Context) {
	common.OK(c, h.Svc.ListPairs(c.Request.Context()))
}

func (h *Handler) GetPair(c *gin.Context) {
	p, ok := h.Svc.GetPair(c.Request.Context(), c.Param("pair_id"))
	if !ok {
		common.Fail(c, http.StatusNotFound, 40401, "Device pair not found")
		return
	}
	common.OK(c, p)
}

func (h *Handler) ListSummaries(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	out, err := h.Svc.LatestSummaries(c.Request.Context(), c.Param("pair_id"), limit)
	if err != nil {
		h.failConversation(c, err)
		return
	}
	common.OK(c, out)
}

type batchPairsReq struct {
	Pairs []createPairReq `json:"pairs"`
}

// BatchPairs queues one pairing job per entry. Workers create the pairs.
func (h *Handler) BatchPairs(c *gin.Context) {
	if h.Jobs == nil {
		common.Fail(c, http.StatusServiceUnavailable, 50301, "batch pairing disabled")
		return
	}

	var req batchPairsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if len(req.Pairs) == 0 || len(req.Pairs) > MaxBatchPairs {
		common.Fail(c, http.StatusBadRequest, 10003, "pairs must hold 1 to "+strconv.Itoa(MaxBatchPairs)+" entries")
		return
	}
	for i, p := range req.Pairs {
		if missing(p.DeviceA) || missing(p.DeviceB) {
			common.Fail(c, http.StatusBadRequest, 10002, "pairs["+strconv.Itoa(i)+"]: both deviceA and deviceB are required")
			return
		}
	}

	queued := 0
	for _, p := range req.Pairs {
		if err := h.Jobs.PublishPairJob(c.Request.Context(), p.DeviceA, p.DeviceB); err != nil {
			h.Obs.Log().Error().Int("queued", queued).Err(err).Msg("publish pair job failed")
			common.FailWithData(c, http.StatusBadGateway, 50201, "failed to queue pairing jobs", gin.H{"queued": queued})
			return
		}
		queued++
	}
	common.OK(c, gin.H{"queued": queued})
}

func (h *Handler) LatestSummary(c *gin.Context) {
	s, ok := h.Svc.LatestSummary(c.Request.Context(), c.Param("pair_id"))
	if !ok {
		common.Fail(c, http.StatusNotFound, 40403, "Summary not found")
		return
	}
	common.OK(c, s)
}

func (h *Handler) DeleteSummary(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		common.Fail(c, http.StatusBadRequest, 10004, "invalid summary id")
		return
	}
	deleted, err := h.Svc.DeleteSummary(c.Request.Context(), id)
	if err != nil {
		h.Obs.Log().Error().Str("summary_id", c.Param("id")).Err(err).Msg("delete summary failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to delete summary")
		return
	}
	common.OK(c, gin.H{"deleted": deleted})
}
