package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/filtering"
)

type RecommendResponse struct {
	Recommendations []catalog.Assessment `json:"recommendations"`
}

type AssessmentsResponse struct {
	Assessments []catalog.Assessment `json:"assessments"`
	Count       int                  `json:"count"`
	Total       int                  `json:"total"`
	RefreshedAt time.Time            `json:"refreshed_at"`
}

type RefreshResponse struct {
	Status       string    `json:"status"`
	Count        int       `json:"count"`
	UnnamedCount int       `json:"unnamed_count"`
	RefreshedAt  time.Time `json:"refreshed_at"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleRecommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, &ValidationError{Message: "request body must be a JSON object with text or url"})
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.Info("recommendation request received",
		zap.Int("text_length", len(req.Text)),
		zap.String("url", req.URL),
		zap.String("request_id", c.GetString(requestIDKey)),
	)

	ctx := c.Request.Context()

	cat, err := s.catalog.Get(ctx, false)
	if err != nil {
		s.metrics.ObserveRecommendation(err, 0)
		s.respondError(c, err)
		return
	}

	res, err := s.rec.Recommend(ctx, req.toRecommender(), cat)
	if err != nil {
		s.metrics.ObserveRecommendation(err, 0)
		s.respondError(c, err)
		return
	}

	items := res.Recommendations
	if items == nil {
		items = []catalog.Assessment{}
	}
	s.metrics.ObserveRecommendation(nil, len(items))

	s.logger.Info("returning recommendations", zap.Int("count", len(items)))
	c.JSON(http.StatusOK, RecommendResponse{Recommendations: items})
}

func (s *Server) handleAssessments(c *gin.Context) {
	var query AssessmentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		s.respondError(c, &ValidationError{Message: "remote and adaptive filters must be true or false"})
		return
	}

	cat, err := s.catalog.Get(c.Request.Context(), false)
	if err != nil {
		s.respondError(c, err)
		return
	}

	items := cat.Assessments
	if criteria := query.criteria(); !criteria.Empty() {
		steps := criteria.Steps()
		s.logger.Info("filtering assessments",
			zap.Strings("filters", filtering.Describe(steps)),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
		items = filtering.Run(steps, items, s.logger)
	}
	if items == nil {
		items = []catalog.Assessment{}
	}

	c.JSON(http.StatusOK, AssessmentsResponse{
		Assessments: items,
		Count:       len(items),
		Total:       cat.Len(),
		RefreshedAt: cat.RefreshedAt,
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	s.logger.Info("request to refresh assessment data")

	cat, err := s.catalog.Refresh(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	unnamed := cat.UnnamedCount()
	if unnamed > 0 {
		s.logger.Warn("refreshed catalog contains unnamed assessments", zap.Int("unnamed_count", unnamed))
	}

	s.logger.Info("assessment data refreshed", zap.Int("count", cat.Len()))
	c.JSON(http.StatusOK, RefreshResponse{
		Status:       "success",
		Count:        cat.Len(),
		UnnamedCount: unnamed,
		RefreshedAt:  cat.RefreshedAt,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   s.version,
		Timestamp: s.now().UTC(),
	})
}
