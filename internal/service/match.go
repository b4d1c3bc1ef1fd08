package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CricPredict/internal/model"
	"CricPredict/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// MatchService is the operator surface for teams and matches. Match status
// transitions are monotonic; teams freeze once a match references them.
type MatchService struct {
	repo   repository.MatchRepository
	logger *logrus.Logger
}

// NewMatchService creates a MatchService.
func NewMatchService(repo repository.MatchRepository, logger *logrus.Logger) *MatchService {
	return &MatchService{repo: repo, logger: logger}
}

// CreateTeamRequest is the operator input for a new team.
type CreateTeamRequest struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// CreateTeam stores a new team.
func (s *MatchService) CreateTeam(ctx context.Context, req *CreateTeamRequest) (*model.Team, error) {
	name := strings.TrimSpace(req.Name)
	short := strings.TrimSpace(req.ShortName)
	if name == "" || short == "" {
		return nil, fmt.Errorf("name and short_name are required")
	}
	now := time.Now()
	team := &model.Team{
		TeamUUID:  uuid.NewString(),
		Name:      name,
		ShortName: short,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	s.logger.WithField("team_uuid", team.TeamUUID).Info("team created")
	return team, nil
}

// UpdateTeam renames a team. Rejected once any match references the team,
// so historical fixtures keep the names they were played under.
func (s *MatchService) UpdateTeam(ctx context.Context, teamUUID string, req *CreateTeamRequest) (*model.Team, error) {
	team, err := s.repo.GetTeamByUUID(ctx, teamUUID)
	if err != nil {
		return nil, err
	}
	referenced, err := s.repo.TeamReferenced(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("check references: %w", err)
	}
	if referenced {
		return nil, model.ErrTeamReferenced
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		team.Name = name
	}
	if short := strings.TrimSpace(req.ShortName); short != "" {
		team.ShortName = short
	}
	if err := s.repo.UpdateTeam(ctx, team); err != nil {
		return nil, fmt.Errorf("update team: %w", err)
	}
	return team, nil
}

// ListTeams returns all teams.
func (s *MatchService) ListTeams(ctx context.Context) ([]*model.Team, error) {
	return s.repo.ListTeams(ctx)
}

// CreateMatchRequest is the operator input for a new match.
type CreateMatchRequest struct {
	HomeTeamUUID string    `json:"home_team_uuid"`
	AwayTeamUUID string    `json:"away_team_uuid"`
	StartTime    time.Time `json:"start_time"`
	Venue        string    `json:"venue"`
}

// CreateMatch stores a new UPCOMING match between two distinct teams.
func (s *MatchService) CreateMatch(ctx context.Context, req *CreateMatchRequest) (*model.Match, error) {
	if req.HomeTeamUUID == req.AwayTeamUUID {
		return nil, fmt.Errorf("a match needs two distinct teams")
	}
	home, err := s.repo.GetTeamByUUID(ctx, req.HomeTeamUUID)
	if err != nil {
		return nil, err
	}
	away, err := s.repo.GetTeamByUUID(ctx, req.AwayTeamUUID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	match := &model.Match{
		MatchUUID:  uuid.NewString(),
		HomeTeamID: home.ID,
		AwayTeamID: away.ID,
		StartTime:  req.StartTime,
		Venue:      strings.TrimSpace(req.Venue),
		Status:     model.MatchStatusUpcoming,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateMatch(ctx, match); err != nil {
		return nil, fmt.Errorf("create match: %w", err)
	}
	s.logger.WithField("match_uuid", match.MatchUUID).Info("match created")
	return match, nil
}

// ListMatches returns a paged match listing, optionally filtered by status.
func (s *MatchService) ListMatches(ctx context.Context, status string, page, pageSize int) ([]*model.Match, int64, error) {
	return s.repo.ListMatches(ctx, status, page, pageSize)
}

// UpdateMatchStatusRequest advances a match and optionally records the
// final result.
type UpdateMatchStatusRequest struct {
	Status     string  `json:"status"`
	HomeScore  *int    `json:"home_score,omitempty"`
	AwayScore  *int    `json:"away_score,omitempty"`
	ResultText *string `json:"result_text,omitempty"`
}

// UpdateMatchStatus advances the match status. Regressions (e.g.
// COMPLETED -> UPCOMING) are ErrInvalidTransition.
func (s *MatchService) UpdateMatchStatus(ctx context.Context, matchUUID string, req *UpdateMatchStatusRequest) (*model.Match, error) {
	match, err := s.repo.GetMatchByUUID(ctx, matchUUID)
	if err != nil {
		return nil, err
	}
	if !model.CanAdvanceMatchStatus(match.Status, req.Status) {
		return nil, model.ErrInvalidTransition
	}
	if err := s.repo.UpdateMatchStatus(ctx, match.ID, req.Status, req.HomeScore, req.AwayScore, req.ResultText); err != nil {
		return nil, fmt.Errorf("update match status: %w", err)
	}
	match.Status = req.Status
	if req.HomeScore != nil {
		match.HomeScore = req.HomeScore
	}
	if req.AwayScore != nil {
		match.AwayScore = req.AwayScore
	}
	if req.ResultText != nil {
		match.ResultText = req.ResultText
	}
	s.logger.WithFields(logrus.Fields{
		"match_uuid": match.MatchUUID,
		"status":     match.Status,
	}).Info("match status updated")
	return match, nil
}
