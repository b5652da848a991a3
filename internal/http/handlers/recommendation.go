package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	httpMW "github.com/yungbote/neurobridge-recommender/internal/http/middleware"
	"github.com/yungbote/neurobridge-recommender/internal/http/response"
	"github.com/yungbote/neurobridge-recommender/internal/modules/recommendation"
	"github.com/yungbote/neurobridge-recommender/internal/pkg/ctxutil"
	"github.com/yungbote/neurobridge-recommender/internal/platform/logger"
	"github.com/yungbote/neurobridge-recommender/internal/services"
)

type RecommendationHandler struct {
	log  *logger.Logger
	recs services.RecommendationService
}

func NewRecommendationHandler(log *logger.Logger, recs services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{log: log.With("handler", "RecommendationHandler"), recs: recs}
}

func requestUser(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func recommendationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil || id == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_recommendation_id", err)
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/recommendations
func (h *RecommendationHandler) Generate(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	var req recommendation.Context
	if err := c.ShouldBindJSON(&req); err != nil {
		var idErr *recommendation.InvalidIDError
		if errors.As(err, &idErr) {
			response.RespondError(c, http.StatusBadRequest, "invalid_id", idErr)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	out, err := h.recs.Generate(c.Request.Context(), userID, req)
	if err != nil {
		response.RespondServiceError(c, err, "generation_failed")
		return
	}
	if len(out.FailedSources) > 0 {
		c.Header(httpMW.HeaderDegradedSources, strings.Join(out.FailedSources, ","))
	}
	response.RespondOK(c, out.Recommendations)
}

// GET /api/recommendations?contextType=&contextId=
func (h *RecommendationHandler) List(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	contextID, err := uuid.Parse(c.Query("contextId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_context_id", err)
		return
	}
	out, err := h.recs.ListForContext(c.Request.Context(), userID, c.Query("contextType"), contextID)
	if err != nil {
		response.RespondServiceError(c, err, "list_recommendations_failed")
		return
	}
	response.RespondOK(c, out)
}

// POST /api/recommendations/:id/view
func (h *RecommendationHandler) View(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	id, ok := recommendationID(c)
	if !ok {
		return
	}
	if err := h.recs.MarkViewed(c.Request.Context(), userID, id); err != nil {
		response.RespondServiceError(c, err, "view_recommendation_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/recommendations/:id/dismiss
func (h *RecommendationHandler) Dismiss(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	id, ok := recommendationID(c)
	if !ok {
		return
	}
	if err := h.recs.Dismiss(c.Request.Context(), userID, id); err != nil {
		response.RespondServiceError(c, err, "dismiss_recommendation_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

type rateRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// POST /api/recommendations/:id/rate
func (h *RecommendationHandler) Rate(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	id, ok := recommendationID(c)
	if !ok {
		return
	}
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.recs.Rate(c.Request.Context(), userID, id, req.Rating, req.Comment); err != nil {
		response.RespondServiceError(c, err, "rate_recommendation_failed")
		return
	}
	c.Status(http.StatusNoContent)
}
