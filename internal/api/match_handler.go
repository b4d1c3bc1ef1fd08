package api

import (
	"net/http"
	"strconv"

	"CricPredict/internal/repository"
	"CricPredict/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MatchHandler is the operator surface for teams and matches.
type MatchHandler struct {
	matchService *service.MatchService
	logger       *logrus.Logger
}

// NewMatchHandler creates a MatchHandler.
func NewMatchHandler(db *gorm.DB, logger *logrus.Logger) *MatchHandler {
	svc := service.NewMatchService(repository.NewMatchRepository(db), logger)
	return &MatchHandler{matchService: svc, logger: logger}
}

// CreateTeam creates a team. POST /api/admin/teams
func (h *MatchHandler) CreateTeam(c *gin.Context) {
	var req service.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	team, err := h.matchService.CreateTeam(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "CreateTeam", err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

// UpdateTeam renames an unreferenced team. POST /api/admin/teams/:team_uuid
func (h *MatchHandler) UpdateTeam(c *gin.Context) {
	var req service.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	team, err := h.matchService.UpdateTeam(c.Request.Context(), c.Param("team_uuid"), &req)
	if err != nil {
		respondError(c, h.logger, "UpdateTeam", err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// ListTeams lists all teams. GET /api/teams
func (h *MatchHandler) ListTeams(c *gin.Context) {
	teams, err := h.matchService.ListTeams(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "ListTeams", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

// CreateMatch creates a match. POST /api/admin/matches
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	var req service.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	match, err := h.matchService.CreateMatch(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, "CreateMatch", err)
		return
	}
	c.JSON(http.StatusCreated, match)
}

// ListMatches lists matches. GET /api/matches?status=&page=1&page_size=20
func (h *MatchHandler) ListMatches(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	matches, total, err := h.matchService.ListMatches(c.Request.Context(), c.Query("status"), page, pageSize)
	if err != nil {
		respondError(c, h.logger, "ListMatches", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "page": page, "page_size": pageSize, "matches": matches})
}

// UpdateMatchStatus advances a match status.
// POST /api/admin/matches/:match_uuid/status
func (h *MatchHandler) UpdateMatchStatus(c *gin.Context) {
	var req service.UpdateMatchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	match, err := h.matchService.UpdateMatchStatus(c.Request.Context(), c.Param("match_uuid"), &req)
	if err != nil {
		respondError(c, h.logger, "UpdateMatchStatus", err)
		return
	}
	c.JSON(http.StatusOK, match)
}
