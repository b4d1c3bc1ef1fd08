package api

import (
	"net/http"
	"strconv"
	"time"

	"CricPredict/internal/config"
	"CricPredict/internal/repository"
	"CricPredict/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PollHandler is the poll lifecycle surface: creation, listing, explicit
// close, deadline change and the expired sweep.
type PollHandler struct {
	pollService *service.PollService
	logger      *logrus.Logger
}

// NewPollHandler creates a PollHandler.
func NewPollHandler(db *gorm.DB, logger *logrus.Logger, cfg *config.Config) *PollHandler {
	svc := service.NewPollService(
		repository.NewPollRepository(db),
		repository.NewVoteRepository(db),
		repository.NewMatchRepository(db),
		logger,
		cfg.Sweep.BatchSize,
	)
	return &PollHandler{pollService: svc, logger: logger}
}

// CreatePoll creates a poll with its options. POST /api/admin/polls
func (h *PollHandler) CreatePoll(c *gin.Context) {
	var req service.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	detail, err := h.pollService.CreatePoll(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "CreatePoll", err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// ListPolls lists polls.
// GET /api/polls?match_uuid=&status=&type=&page=1&page_size=20
func (h *PollHandler) ListPolls(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.pollService.ListPolls(c.Request.Context(),
		c.Query("match_uuid"), c.Query("status"), c.Query("type"), page, pageSize)
	if err != nil {
		respondError(c, h.logger, "ListPolls", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetPollDetail returns one poll with options. GET /api/polls/:poll_uuid
func (h *PollHandler) GetPollDetail(c *gin.Context) {
	detail, err := h.pollService.GetPollDetail(c.Request.Context(), c.Param("poll_uuid"))
	if err != nil {
		respondError(c, h.logger, "GetPollDetail", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ClosePoll explicitly closes an ACTIVE poll.
// POST /api/admin/polls/:poll_uuid/close
func (h *PollHandler) ClosePoll(c *gin.Context) {
	poll, err := h.pollService.ClosePoll(c.Request.Context(), c.Param("poll_uuid"))
	if err != nil {
		respondError(c, h.logger, "ClosePoll", err)
		return
	}
	c.JSON(http.StatusOK, poll)
}

// SweepExpired closes every ACTIVE poll past its deadline.
// POST /api/admin/polls/sweep
func (h *PollHandler) SweepExpired(c *gin.Context) {
	closed, err := h.pollService.SweepExpired(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "SweepExpired", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": closed})
}

type updateEndTimeRequest struct {
	PollEndTime time.Time `json:"poll_end_time"`
}

// UpdateEndTime moves the deadline of a vote-less ACTIVE poll.
// POST /api/admin/polls/:poll_uuid/end-time
func (h *PollHandler) UpdateEndTime(c *gin.Context) {
	var req updateEndTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	poll, err := h.pollService.UpdateEndTime(c.Request.Context(), c.Param("poll_uuid"), req.PollEndTime)
	if err != nil {
		respondError(c, h.logger, "UpdateEndTime", err)
		return
	}
	c.JSON(http.StatusOK, poll)
}
