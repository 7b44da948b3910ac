package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/pairhub/internal/common"
	"github.com/suPer8Hu/pairhub/internal/httpapi/handlers"
	"github.com/suPer8Hu/pairhub/internal/httpapi/middleware"
	"github.com/suPer8Hu/pairhub/internal/observe"
)

func NewRouter(h *handlers.Handler, obs *observe.Observer) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(obs))
	r.Use(middleware.Recovery(obs))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	// device pairs
	r.POST("/pairs", h.CreatePair)
	r.GET("/pairs", h.ListPairs)
	r.POST("/pairs/batch", h.BatchPairs)
	r.GET("/pairs/:pair_id", h.GetPair)
	r.GET("/pairs/:pair_id/summaries", h.ListSummaries)
	r.GET("/pairs/:pair_id/summaries/latest", h.LatestSummary)

	// summaries
	r.DELETE("/summaries/:id", h.DeleteSummary)

	// conversations
	r.POST("/conversations", h.SubmitConversation)
	r.GET("/conversations/staged/:id", h.GetStagedConversation)
	r.DELETE("/conversations/staged/:id", h.ClearStagedConversation)
	return r
}
