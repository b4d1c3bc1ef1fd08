// Package testutil provides the shared database harness for repository and
// service tests: an in-memory SQLite database migrated to the production
// schema, so the uk_user_poll uniqueness constraint and the settlement
// transaction behave like they do against PostgreSQL.
package testutil

import (
	"context"
	"io"
	"testing"
	"time"

	"CricPredict/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenTestDB opens an isolated in-memory database with the full schema.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// A single connection keeps concurrent test writes serialized the way
	// a pooled postgres connection set would serialize on row locks.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Team{},
		&model.Match{},
		&model.Poll{},
		&model.Option{},
		&model.Vote{},
		&model.SettlementRecord{},
		&model.NotificationIntent{},
	))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// NewTestLogger returns a logger that swallows output.
func NewTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// CreateUser inserts a user with the given creation time (the leaderboard
// tie-break key).
func CreateUser(t *testing.T, db *gorm.DB, name, role string, createdAt time.Time) *model.User {
	t.Helper()
	u := &model.User{
		DisplayName: name,
		Role:        role,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(u).Error)
	return u
}

// CreateTeam inserts a team.
func CreateTeam(t *testing.T, db *gorm.DB, name, short string) *model.Team {
	t.Helper()
	team := &model.Team{
		TeamUUID:  uuid.NewString(),
		Name:      name,
		ShortName: short,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, db.Create(team).Error)
	return team
}

// CreateMatch inserts an UPCOMING match between two fresh teams.
func CreateMatch(t *testing.T, db *gorm.DB) *model.Match {
	t.Helper()
	home := CreateTeam(t, db, "Home "+uuid.NewString()[:8], "HME")
	away := CreateTeam(t, db, "Away "+uuid.NewString()[:8], "AWY")
	m := &model.Match{
		MatchUUID:  uuid.NewString(),
		HomeTeamID: home.ID,
		AwayTeamID: away.ID,
		StartTime:  time.Now().Add(24 * time.Hour),
		Venue:      "Test Ground",
		Status:     model.MatchStatusUpcoming,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

// CreatePoll inserts a poll with options on the given match.
func CreatePoll(t *testing.T, db *gorm.DB, matchID uint64, pollType string, endTime time.Time, optionTexts ...string) (*model.Poll, []*model.Option) {
	t.Helper()
	p := &model.Poll{
		PollUUID:    uuid.NewString(),
		MatchID:     matchID,
		Type:        pollType,
		Question:    "Who wins?",
		PollEndTime: endTime,
		Status:      model.PollStatusActive,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, db.Create(p).Error)
	options := make([]*model.Option, 0, len(optionTexts))
	for i, text := range optionTexts {
		opt := &model.Option{
			PollID:      p.ID,
			DisplayText: text,
			Position:    i,
			CreatedAt:   time.Now(),
		}
		require.NoError(t, db.Create(opt).Error)
		options = append(options, opt)
	}
	return p, options
}

// CreateVote inserts a vote row directly (bypassing the recorder).
func CreateVote(t *testing.T, db *gorm.DB, userID, pollID, optionID uint64, createdAt time.Time) *model.Vote {
	t.Helper()
	v := &model.Vote{
		VoteUUID:  uuid.NewString(),
		UserID:    userID,
		PollID:    pollID,
		OptionID:  optionID,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(v).Error)
	return v
}
