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

type SearchHandler struct {
	log          *logger.Logger
	search       *services.SearchService
	explanations *services.ExplanationService
}

func NewSearchHandler(log *logger.Logger, search *services.SearchService, explanations *services.ExplanationService) *SearchHandler {
	return &SearchHandler{
		log:          log.With("handler", "SearchHandler"),
		search:       search,
		explanations: explanations,
	}
}

type searchRequest struct {
	Query        string   `json:"query"`
	Limit        int      `json:"limit"`
	MinHIndex    int      `json:"min_h_index"`
	Universities []string `json:"universities"`
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}

	results, err := h.search.Search(c.Request.Context(), services.SearchRequest{
		Query:        req.Query,
		Limit:        req.Limit,
		MinHIndex:    req.MinHIndex,
		Universities: req.Universities,
	})
	if err != nil {
		if stderrors.Is(err, errors.ErrInvalidArgument) {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		h.log.Error("Search failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "search_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"results": results})
}

type explainRequest struct {
	Interests string `json:"interests"`
	FacultyID int64  `json:"faculty_id"`
}

func (h *SearchHandler) Explain(c *gin.Context) {
	var req explainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}

	explanation, err := h.explanations.Explain(c.Request.Context(), req.Interests, req.FacultyID)
	if err != nil {
		switch {
		case stderrors.Is(err, errors.ErrInvalidArgument):
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		case stderrors.Is(err, errors.ErrNotFound):
			response.RespondError(c, http.StatusNotFound, "faculty_not_found", err)
		default:
			h.log.Error("Explain failed", "error", err, "faculty_id", req.FacultyID)
			response.RespondError(c, http.StatusInternalServerError, "explain_failed", err)
		}
		return
	}
	response.RespondOK(c, explanation)
}
