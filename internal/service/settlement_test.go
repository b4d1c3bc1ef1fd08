package service_test

import (
	"context"
	"testing"
	"time"

	"CricPredict/internal/model"
	"CricPredict/internal/repository"
	"CricPredict/internal/service"
	"CricPredict/internal/testutil"

	gocache "github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSettlementService(db *gorm.DB, projections *gocache.Cache) *service.SettlementService {
	logger := testutil.NewTestLogger()
	notifier := service.NewLogNotifier(repository.NewNotificationRepository(db), logger)
	return service.NewSettlementService(
		repository.NewPollRepository(db),
		repository.NewVoteRepository(db),
		repository.NewSettlementRepository(db),
		repository.NewLeaderboardRepository(db),
		notifier,
		projections,
		logger,
	)
}

func TestSettlePoll(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newSettlementService(db, gocache.New(time.Minute, time.Minute))
	ctx := context.Background()

	admin := testutil.CreateUser(t, db, "admin", model.RoleAdmin, time.Now())
	u1 := testutil.CreateUser(t, db, "u1", model.RoleUser, time.Now())
	u2 := testutil.CreateUser(t, db, "u2", model.RoleUser, time.Now())
	match := testutil.CreateMatch(t, db)
	poll, options := testutil.CreatePoll(t, db, match.ID, model.PollTypeWinner, time.Now().Add(-time.Minute), "A", "B")
	testutil.CreateVote(t, db, u1.ID, poll.ID, options[0].ID, time.Now().Add(-time.Hour))
	testutil.CreateVote(t, db, u2.ID, poll.ID, options[1].ID, time.Now().Add(-time.Hour))
	require.NoError(t, db.Model(&model.Poll{}).Where("id = ?", poll.ID).Update("status", model.PollStatusClosed).Error)

	result, err := svc.SettlePoll(ctx, admin.ID, poll.PollUUID, []uint64{options[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 30, result.PointsPerVote)
	assert.Equal(t, int64(2), result.VotesScored)
	assert.Equal(t, int64(30), result.PointsAwarded)

	var got model.Poll
	require.NoError(t, db.First(&got, poll.ID).Error)
	assert.Equal(t, model.PollStatusSettled, got.Status)

	var optA, optB model.Option
	require.NoError(t, db.First(&optA, options[0].ID).Error)
	require.NoError(t, db.First(&optB, options[1].ID).Error)
	assert.True(t, optA.IsCorrect)
	assert.False(t, optB.IsCorrect)

	var v1, v2 model.Vote
	require.NoError(t, db.Where("user_id = ?", u1.ID).First(&v1).Error)
	require.NoError(t, db.Where("user_id = ?", u2.ID).First(&v2).Error)
	assert.Equal(t, 30, v1.Points)
	assert.Equal(t, 0, v2.Points)

	// One notification intent per affected user, already dispatched.
	var intents []model.NotificationIntent
	require.NoError(t, db.Where("poll_id = ?", poll.ID).Find(&intents).Error)
	assert.Len(t, intents, 2)
	for _, intent := range intents {
		assert.Equal(t, "POLL_SETTLED", intent.Kind)
		assert.NotNil(t, intent.DispatchedAt)
	}

	// Denormalized totals were refreshed post-commit.
	var u1Row model.User
	require.NoError(t, db.First(&u1Row, u1.ID).Error)
	assert.Equal(t, int64(30), u1Row.Points)
	assert.Equal(t, int64(1), u1Row.Rank)
}

func TestSettlePollIdempotent(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newSettlementService(db, gocache.New(time.Minute, time.Minute))
	ctx := context.Background()

	admin := testutil.CreateUser(t, db, "admin", model.RoleAdmin, time.Now())
	u1 := testutil.CreateUser(t, db, "u1", model.RoleUser, time.Now())
	match := testutil.CreateMatch(t, db)
	poll, options := testutil.CreatePoll(t, db, match.ID, model.PollTypeMOTM, time.Now().Add(-time.Minute), "A", "B")
	testutil.CreateVote(t, db, u1.ID, poll.ID, options[0].ID, time.Now().Add(-time.Hour))
	require.NoError(t, db.Model(&model.Poll{}).Where("id = ?", poll.ID).Update("status", model.PollStatusClosed).Error)

	first, err := svc.SettlePoll(ctx, admin.ID, poll.PollUUID, []uint64{options[0].ID})
	require.NoError(t, err)

	// Same option set: no-op read-through of the stored result.
	again, err := svc.SettlePoll(ctx, admin.ID, poll.PollUUID, []uint64{options[0].ID})
	require.NoError(t, err)
	assert.Equal(t, first.PointsAwarded, again.PointsAwarded)
	assert.Equal(t, first.SettledAt.Unix(), again.SettledAt.Unix())

	// Different option set: rejected, nothing re-scored.
	_, err = svc.SettlePoll(ctx, admin.ID, poll.PollUUID, []uint64{options[1].ID})
	assert.ErrorIs(t, err, model.ErrAlreadySettled)

	var v1 model.Vote
	require.NoError(t, db.Where("user_id = ?", u1.ID).First(&v1).Error)
	assert.Equal(t, 50, v1.Points)

	var records int64
	require.NoError(t, db.Model(&model.SettlementRecord{}).Where("poll_id = ?", poll.ID).Count(&records).Error)
	assert.Equal(t, int64(1), records)
}

func TestSettlePollTransitions(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newSettlementService(db, gocache.New(time.Minute, time.Minute))
	ctx := context.Background()

	admin := testutil.CreateUser(t, db, "admin", model.RoleAdmin, time.Now())
	match := testutil.CreateMatch(t, db)

	t.Run("active before deadline is rejected", func(t *testing.T) {
		poll, options := testutil.CreatePoll(t, db, match.ID, model.PollTypeWinner, time.Now().Add(time.Hour), "A", "B")
		_, err := svc.SettlePoll(ctx, admin.ID, poll.PollUUID, []uint64{options[0].ID})
		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	})

	t.Run("active past deadline auto-closes", func(t *testing.T) {
		poll, options := testutil.CreatePoll(t, db, match.ID, model.PollTypeWinner, time.Now().Add(-time.Minute), "A", "B")
		_, err := svc.SettlePoll(ctx, admin.ID, poll.PollUUID, []uint64{options[0].ID})
		require.NoError(t, err)
		var got model.Poll
		require.NoError(t, db.First(&got, poll.ID).Error)
		assert.Equal(t, model.PollStatusSettled, got.Status)
	})

	t.Run("unknown poll", func(t *testing.T) {
		_, err := svc.SettlePoll(ctx, admin.ID, "no-such-poll", []uint64{1})
		assert.ErrorIs(t, err, model.ErrPollNotFound)
	})

	t.Run("foreign option id", func(t *testing.T) {
		poll, _ := testutil.CreatePoll(t, db, match.ID, model.PollTypeWinner, time.Now().Add(-time.Minute), "A", "B")
		other, otherOpts := testutil.CreatePoll(t, db, match.ID, model.PollTypeWinner, time.Now().Add(-time.Minute), "X", "Y")
		_ = other
		_, err := svc.SettlePoll(ctx, admin.ID, poll.PollUUID, []uint64{otherOpts[0].ID})
		assert.ErrorIs(t, err, model.ErrInvalidOption)
	})

	t.Run("empty option set", func(t *testing.T) {
		poll, _ := testutil.CreatePoll(t, db, match.ID, model.PollTypeWinner, time.Now().Add(-time.Minute), "A", "B")
		_, err := svc.SettlePoll(ctx, admin.ID, poll.PollUUID, nil)
		assert.ErrorIs(t, err, model.ErrInvalidOption)
	})
}

// TestSettlePollAwardSum checks sum(points awarded) == correct votes * table
// value, including a multi-correct ("push") settlement.
func TestSettlePollAwardSum(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newSettlementService(db, gocache.New(time.Minute, time.Minute))
	ctx := context.Background()

	admin := testutil.CreateUser(t, db, "admin", model.RoleAdmin, time.Now())
	match := testutil.CreateMatch(t, db)
	poll, options := testutil.CreatePoll(t, db, match.ID, model.PollTypeWickets, time.Now().Add(-time.Minute), "0-3", "4-6", "7+")

	// 3 votes on the first correct option, 2 on the second, 1 on the loser.
	for i := 0; i < 3; i++ {
		u := testutil.CreateUser(t, db, "w1", model.RoleUser, time.Now())
		testutil.CreateVote(t, db, u.ID, poll.ID, options[0].ID, time.Now())
	}
	for i := 0; i < 2; i++ {
		u := testutil.CreateUser(t, db, "w2", model.RoleUser, time.Now())
		testutil.CreateVote(t, db, u.ID, poll.ID, options[1].ID, time.Now())
	}
	loser := testutil.CreateUser(t, db, "loser", model.RoleUser, time.Now())
	testutil.CreateVote(t, db, loser.ID, poll.ID, options[2].ID, time.Now())

	result, err := svc.SettlePoll(ctx, admin.ID, poll.PollUUID, []uint64{options[0].ID, options[1].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(6), result.VotesScored)
	assert.Equal(t, int64(5*80), result.PointsAwarded)

	var sum int64
	require.NoError(t, db.Model(&model.Vote{}).
		Where("poll_id = ?", poll.ID).
		Select("COALESCE(SUM(points), 0)").Scan(&sum).Error)
	assert.Equal(t, result.PointsAwarded, sum)
}
