package api

import (
	"net/http"
	"strconv"
	"time"

	"CricPredict/internal/repository"
	"CricPredict/internal/service"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LeaderboardHandler serves the ranked projection and statistics.
type LeaderboardHandler struct {
	lbService *service.LeaderboardService
	logger    *logrus.Logger
}

// NewLeaderboardHandler creates a LeaderboardHandler around the shared
// projection cache.
func NewLeaderboardHandler(db *gorm.DB, logger *logrus.Logger, projections *gocache.Cache) *LeaderboardHandler {
	svc := service.NewLeaderboardService(repository.NewLeaderboardRepository(db), projections, logger)
	return &LeaderboardHandler{lbService: svc, logger: logger}
}

// GetLeaderboard returns one leaderboard page.
// GET /api/leaderboard?limit=50&offset=0
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, err := h.lbService.Leaderboard(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.logger, "GetLeaderboard", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": rows})
}

// GetStatistics returns poll/vote counts and accuracy for a period.
// GET /api/statistics?period=all|7d|30d or ?from=RFC3339&to=RFC3339
func (h *LeaderboardHandler) GetStatistics(c *gin.Context) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from: " + err.Error()})
			return
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to: " + err.Error()})
			return
		}
		to = &t
	}

	stats, err := h.lbService.Statistics(c.Request.Context(), c.DefaultQuery("period", "all"), from, to)
	if err != nil {
		respondError(c, h.logger, "GetStatistics", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RefreshUserTotals recomputes the denormalized user points/rank cache.
// POST /api/admin/users/refresh-totals
func (h *LeaderboardHandler) RefreshUserTotals(c *gin.Context) {
	n, err := h.lbService.RefreshUserTotals(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "RefreshUserTotals", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users_refreshed": n})
}
