package repository

import (
	"context"
	"errors"
	"time"

	"CricPredict/internal/model"

	"gorm.io/gorm"
)

// MatchRepository owns team and match rows.
type MatchRepository interface {
	CreateTeam(ctx context.Context, team *model.Team) error
	GetTeamByUUID(ctx context.Context, teamUUID string) (*model.Team, error)
	GetTeamByID(ctx context.Context, id uint64) (*model.Team, error)
	ListTeams(ctx context.Context) ([]*model.Team, error)
	// TeamReferenced reports whether any match references the team; a
	// referenced team is immutable.
	TeamReferenced(ctx context.Context, teamID uint64) (bool, error)
	UpdateTeam(ctx context.Context, team *model.Team) error

	CreateMatch(ctx context.Context, match *model.Match) error
	GetMatchByUUID(ctx context.Context, matchUUID string) (*model.Match, error)
	GetMatchByID(ctx context.Context, id uint64) (*model.Match, error)
	ListMatches(ctx context.Context, status string, page, pageSize int) ([]*model.Match, int64, error)
	UpdateMatchStatus(ctx context.Context, matchID uint64, status string, homeScore, awayScore *int, resultText *string) error
}

type matchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a MatchRepository.
func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) CreateTeam(ctx context.Context, team *model.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

func (r *matchRepository) GetTeamByUUID(ctx context.Context, teamUUID string) (*model.Team, error) {
	var t model.Team
	if err := r.db.WithContext(ctx).Where("team_uuid = ?", teamUUID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrTeamNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *matchRepository) GetTeamByID(ctx context.Context, id uint64) (*model.Team, error) {
	var t model.Team
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrTeamNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *matchRepository) ListTeams(ctx context.Context) ([]*model.Team, error) {
	var teams []*model.Team
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *matchRepository) TeamReferenced(ctx context.Context, teamID uint64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Match{}).
		Where("home_team_id = ? OR away_team_id = ?", teamID, teamID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *matchRepository) UpdateTeam(ctx context.Context, team *model.Team) error {
	return r.db.WithContext(ctx).Model(&model.Team{}).
		Where("id = ?", team.ID).
		Updates(map[string]interface{}{
			"name":       team.Name,
			"short_name": team.ShortName,
			"updated_at": time.Now(),
		}).Error
}

func (r *matchRepository) CreateMatch(ctx context.Context, match *model.Match) error {
	return r.db.WithContext(ctx).Create(match).Error
}

func (r *matchRepository) GetMatchByUUID(ctx context.Context, matchUUID string) (*model.Match, error) {
	var m model.Match
	if err := r.db.WithContext(ctx).Where("match_uuid = ?", matchUUID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *matchRepository) GetMatchByID(ctx context.Context, id uint64) (*model.Match, error) {
	var m model.Match
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *matchRepository) ListMatches(ctx context.Context, status string, page, pageSize int) ([]*model.Match, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	db := r.db.WithContext(ctx).Model(&model.Match{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var matches []*model.Match
	if err := db.Order("start_time ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&matches).Error; err != nil {
		return nil, 0, err
	}
	return matches, total, nil
}

func (r *matchRepository) UpdateMatchStatus(ctx context.Context, matchID uint64, status string, homeScore, awayScore *int, resultText *string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if homeScore != nil {
		updates["home_score"] = *homeScore
	}
	if awayScore != nil {
		updates["away_score"] = *awayScore
	}
	if resultText != nil {
		updates["result_text"] = *resultText
	}
	return r.db.WithContext(ctx).Model(&model.Match{}).
		Where("id = ?", matchID).Updates(updates).Error
}
