package api

import (
	"net/http"

	"CricPredict/internal/repository"
	"CricPredict/internal/service"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SettlementHandler is the privileged settlement surface.
type SettlementHandler struct {
	settlementService *service.SettlementService
	logger            *logrus.Logger
}

// NewSettlementHandler creates a SettlementHandler. projections is the
// shared leaderboard/statistics cache flushed on settlement.
func NewSettlementHandler(db *gorm.DB, logger *logrus.Logger, projections *gocache.Cache) *SettlementHandler {
	notifier := service.NewLogNotifier(repository.NewNotificationRepository(db), logger)
	svc := service.NewSettlementService(
		repository.NewPollRepository(db),
		repository.NewVoteRepository(db),
		repository.NewSettlementRepository(db),
		repository.NewLeaderboardRepository(db),
		notifier,
		projections,
		logger,
	)
	return &SettlementHandler{settlementService: svc, logger: logger}
}

type settlePollRequest struct {
	CorrectOptionIDs []uint64 `json:"correct_option_ids" binding:"required"`
}

// SettlePoll settles a poll with the given correct options.
// POST /api/admin/polls/:poll_uuid/settle
func (h *SettlementHandler) SettlePoll(c *gin.Context) {
	admin := CurrentUser(c)
	if admin == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin required"})
		return
	}
	var req settlePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	result, err := h.settlementService.SettlePoll(c.Request.Context(), admin.ID, c.Param("poll_uuid"), req.CorrectOptionIDs)
	if err != nil {
		respondError(c, h.logger, "SettlePoll", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
