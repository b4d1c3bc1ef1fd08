package api

import (
	"net/http"

	"CricPredict/internal/repository"
	"CricPredict/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// VoteHandler accepts predictions.
type VoteHandler struct {
	voteService *service.VoteService
	logger      *logrus.Logger
}

// NewVoteHandler creates a VoteHandler.
func NewVoteHandler(db *gorm.DB, logger *logrus.Logger) *VoteHandler {
	svc := service.NewVoteService(
		repository.NewPollRepository(db),
		repository.NewVoteRepository(db),
		logger,
	)
	return &VoteHandler{voteService: svc, logger: logger}
}

type castVoteRequest struct {
	OptionID uint64 `json:"option_id" binding:"required"`
}

// CastVote records the caller's vote on a poll.
// POST /api/polls/:poll_uuid/votes
func (h *VoteHandler) CastVote(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	vote, err := h.voteService.CastVote(c.Request.Context(), user.ID, c.Param("poll_uuid"), req.OptionID)
	if err != nil {
		respondError(c, h.logger, "CastVote", err)
		return
	}
	c.JSON(http.StatusCreated, vote)
}
