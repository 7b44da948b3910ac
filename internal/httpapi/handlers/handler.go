package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/pairhub/internal/common"
	"github.com/suPer8Hu/pairhub/internal/conversation"
	"github.com/suPer8Hu/pairhub/internal/observe"
)

// PairJobPublisher queues bulk pairing work. See rabbitmq.Publisher.
type PairJobPublisher interface {
	PublishPairJob(ctx context.Context, deviceA, deviceB any) error
}

type Handler struct {
	Svc  *conversation.Service
	Jobs PairJobPublisher // nil disables POST /pairs/batch
	Obs  *observe.Observer
}

func NewHandler(svc *conversation.Service, jobs PairJobPublisher, obs *observe.Observer) *Handler {
	return &Handler{Svc: svc, Jobs: jobs, Obs: obs}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

// failConversation maps a conversation.Error onto the response envelope.
func (h *Handler) failConversation(c *gin.Context, err error) {
	var e *conversation.Error
	if !errors.As(err, &e) {
		h.Obs.Log().Error().Str("path", c.Request.URL.Path).Err(err).Msg("unexpected error")
		common.Fail(c, http.StatusInternalServerError, 50001, "Internal server error")
		return
	}

	switch e.Code {
	case conversation.ErrorInvalidInput:
		common.FailWithData(c, http.StatusBadRequest, 40001, e.Reason, gin.H{"errors": e.Errors})
	case conversation.ErrorPairNotFound:
		common.Fail(c, http.StatusNotFound, 40401, e.Reason)
	default:
		h.Obs.Log().Error().Str("path", c.Request.URL.Path).Err(err).Msg("request failed")
		common.Fail(c, http.StatusInternalServerError, 50001, "Internal server error")
	}
}

// missing follows the usual falsy checks for required JSON fields.
func missing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	}
	return false
}
