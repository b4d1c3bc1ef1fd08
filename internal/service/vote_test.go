package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"CricPredict/internal/model"
	"CricPredict/internal/repository"
	"CricPredict/internal/service"
	"CricPredict/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newVoteService(db *gorm.DB) *service.VoteService {
	return service.NewVoteService(
		repository.NewPollRepository(db),
		repository.NewVoteRepository(db),
		testutil.NewTestLogger(),
	)
}

func TestCastVotePreconditions(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newVoteService(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice", model.RoleUser, time.Now())
	match := testutil.CreateMatch(t, db)
	active, activeOpts := testutil.CreatePoll(t, db, match.ID, model.PollTypeWinner, time.Now().Add(time.Hour), "A", "B")
	closed, closedOpts := testutil.CreatePoll(t, db, match.ID, model.PollTypeWinner, time.Now().Add(time.Hour), "A", "B")
	require.NoError(t, db.Model(&model.Poll{}).Where("id = ?", closed.ID).Update("status", model.PollStatusClosed).Error)
	expired, expiredOpts := testutil.CreatePoll(t, db, match.ID, model.PollTypeWinner, time.Now().Add(-time.Minute), "A", "B")

	t.Run("poll not found", func(t *testing.T) {
		_, err := svc.CastVote(ctx, user.ID, "no-such-poll", activeOpts[0].ID)
		assert.ErrorIs(t, err, model.ErrPollNotFound)
	})

	t.Run("closed by status", func(t *testing.T) {
		_, err := svc.CastVote(ctx, user.ID, closed.PollUUID, closedOpts[0].ID)
		assert.ErrorIs(t, err, model.ErrPollClosed)
	})

	t.Run("closed by deadline while still ACTIVE", func(t *testing.T) {
		// Persisted status says ACTIVE; the deadline decides anyway.
		_, err := svc.CastVote(ctx, user.ID, expired.PollUUID, expiredOpts[0].ID)
		assert.ErrorIs(t, err, model.ErrPollClosed)
	})

	t.Run("option from another poll", func(t *testing.T) {
		_, err := svc.CastVote(ctx, user.ID, active.PollUUID, closedOpts[0].ID)
		assert.ErrorIs(t, err, model.ErrInvalidOption)
	})

	t.Run("first vote succeeds with zero points", func(t *testing.T) {
		vote, err := svc.CastVote(ctx, user.ID, active.PollUUID, activeOpts[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 0, vote.Points)
		assert.Equal(t, user.ID, vote.UserID)
		assert.NotEmpty(t, vote.VoteUUID)
	})

	t.Run("second vote is a duplicate", func(t *testing.T) {
		_, err := svc.CastVote(ctx, user.ID, active.PollUUID, activeOpts[1].ID)
		assert.ErrorIs(t, err, model.ErrDuplicateVote)
	})

	t.Run("settled poll is closed for everyone", func(t *testing.T) {
		settled, settledOpts := testutil.CreatePoll(t, db, match.ID, model.PollTypeWickets, time.Now().Add(time.Hour), "A", "B")
		testutil.CreateVote(t, db, user.ID, settled.ID, settledOpts[0].ID, time.Now())
		require.NoError(t, db.Model(&model.Poll{}).Where("id = ?", settled.ID).Update("status", model.PollStatusSettled).Error)

		// The closed gate fires before the duplicate check, so the prior
		// voter and a fresh user get the same outcome.
		_, err := svc.CastVote(ctx, user.ID, settled.PollUUID, settledOpts[1].ID)
		assert.ErrorIs(t, err, model.ErrPollClosed)

		fresh := testutil.CreateUser(t, db, "latecomer", model.RoleUser, time.Now())
		_, err = svc.CastVote(ctx, fresh.ID, settled.PollUUID, settledOpts[0].ID)
		assert.ErrorIs(t, err, model.ErrPollClosed)
	})
}

// TestCastVoteConcurrentDuplicates drives the same (user, poll) pair from
// many goroutines; exactly one insert may win the unique index.
func TestCastVoteConcurrentDuplicates(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := newVoteService(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "racer", model.RoleUser, time.Now())
	match := testutil.CreateMatch(t, db)
	poll, options := testutil.CreatePoll(t, db, match.ID, model.PollTypeScore, time.Now().Add(time.Hour), "150+", "under 150")

	const attempts = 10
	var created, duplicates atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.CastVote(ctx, user.ID, poll.PollUUID, options[n%2].ID)
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, model.ErrDuplicateVote):
				duplicates.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(attempts-1), duplicates.Load())

	var count int64
	require.NoError(t, db.Model(&model.Vote{}).
		Where("user_id = ? AND poll_id = ?", user.ID, poll.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
