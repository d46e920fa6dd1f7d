package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/advisormatch-backend/internal/http/response"
	"github.com/yungbote/advisormatch-backend/internal/pkg/errors"
	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
	"github.com/yungbote/advisormatch-backend/internal/services"
)

type ExploreHandler struct {
	log      *logger.Logger
	explorer *services.ExplorerService
}

func NewExploreHandler(log *logger.Logger, explorer *services.ExplorerService) *ExploreHandler {
	return &ExploreHandler{
		log:      log.With("handler", "ExploreHandler"),
		explorer: explorer,
	}
}

type exploreStartRequest struct {
	InitialInterest string `json:"initial_interest"`
}

func (h *ExploreHandler) Start(c *gin.Context) {
	var req exploreStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}

	result, err := h.explorer.Start(c.Request.Context(), req.InitialInterest)
	if err != nil {
		switch {
		case stderrors.Is(err, errors.ErrInvalidArgument):
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		case stderrors.Is(err, errors.ErrNoCandidates):
			response.RespondError(c, http.StatusNotFound, "no_candidates", err)
		default:
			h.log.Error("Explore start failed", "error", err)
			response.RespondError(c, http.StatusInternalServerError, "explore_start_failed", err)
		}
		return
	}
	response.RespondOK(c, result)
}

type exploreRespondRequest struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

func (h *ExploreHandler) Respond(c *gin.Context) {
	var req exploreRespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}

	result, err := h.explorer.Respond(c.Request.Context(), req.SessionID, req.Response)
	if err != nil {
		switch {
		case stderrors.Is(err, errors.ErrNotFound):
			response.RespondError(c, http.StatusNotFound, "session_not_found", err)
		case stderrors.Is(err, errors.ErrNoCandidates):
			response.RespondError(c, http.StatusNotFound, "no_candidates", err)
		default:
			h.log.Error("Explore respond failed", "error", err, "session_id", req.SessionID)
			response.RespondError(c, http.StatusInternalServerError, "explore_respond_failed", err)
		}
		return
	}
	response.RespondOK(c, result)
}

type exploreFinishRequest struct {
	SessionID string `json:"session_id"`
}

func (h *ExploreHandler) Finish(c *gin.Context) {
	var req exploreFinishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}

	result, err := h.explorer.Finish(c.Request.Context(), req.SessionID)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			response.RespondError(c, http.StatusNotFound, "session_not_found", err)
			return
		}
		h.log.Error("Explore finish failed", "error", err, "session_id", req.SessionID)
		response.RespondError(c, http.StatusInternalServerError, "explore_finish_failed", err)
		return
	}
	response.RespondOK(c, result)
}
