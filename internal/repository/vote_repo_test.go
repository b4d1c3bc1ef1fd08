package repository_test

import (
	"context"
	"testing"
	"time"

	"CricPredict/internal/model"
	"CricPredict/internal/repository"
	"CricPredict/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateVoteUniqueConstraint(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := repository.NewVoteRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice", model.RoleUser, time.Now())
	match := testutil.CreateMatch(t, db)
	poll, options := testutil.CreatePoll(t, db, match.ID, model.PollTypeWinner, time.Now().Add(time.Hour), "A", "B")

	first := &model.Vote{
		VoteUUID:  uuid.NewString(),
		UserID:    user.ID,
		PollID:    poll.ID,
		OptionID:  options[0].ID,
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.CreateVote(ctx, first))

	// Same pair again, even with a different option, is rejected by the
	// index, not by a prior read.
	second := &model.Vote{
		VoteUUID:  uuid.NewString(),
		UserID:    user.ID,
		PollID:    poll.ID,
		OptionID:  options[1].ID,
		CreatedAt: time.Now(),
	}
	err := repo.CreateVote(ctx, second)
	assert.ErrorIs(t, err, model.ErrDuplicateVote)

	var count int64
	require.NoError(t, db.Model(&model.Vote{}).Where("poll_id = ?", poll.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// The same user may still vote on a different poll.
	other, otherOpts := testutil.CreatePoll(t, db, match.ID, model.PollTypeMOTM, time.Now().Add(time.Hour), "X", "Y")
	require.NoError(t, repo.CreateVote(ctx, &model.Vote{
		VoteUUID:  uuid.NewString(),
		UserID:    user.ID,
		PollID:    other.ID,
		OptionID:  otherOpts[0].ID,
		CreatedAt: time.Now(),
	}))
}

func TestCountByOption(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := repository.NewVoteRepository(db)
	ctx := context.Background()

	match := testutil.CreateMatch(t, db)
	poll, options := testutil.CreatePoll(t, db, match.ID, model.PollTypeWinner, time.Now().Add(time.Hour), "A", "B", "C")

	for i := 0; i < 3; i++ {
		u := testutil.CreateUser(t, db, "voter", model.RoleUser, time.Now())
		testutil.CreateVote(t, db, u.ID, poll.ID, options[0].ID, time.Now())
	}
	u := testutil.CreateUser(t, db, "odd one out", model.RoleUser, time.Now())
	testutil.CreateVote(t, db, u.ID, poll.ID, options[1].ID, time.Now())

	counts, err := repo.CountByOption(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[options[0].ID])
	assert.Equal(t, int64(1), counts[options[1].ID])
	assert.Equal(t, int64(0), counts[options[2].ID])
}

func TestAdvanceStatusGuarded(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := repository.NewPollRepository(db)
	ctx := context.Background()

	match := testutil.CreateMatch(t, db)
	poll, _ := testutil.CreatePoll(t, db, match.ID, model.PollTypeWinner, time.Now().Add(time.Hour), "A", "B")

	ok, err := repo.AdvanceStatus(ctx, poll.ID, model.PollStatusActive, model.PollStatusClosed)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second close loses the guard.
	ok, err = repo.AdvanceStatus(ctx, poll.ID, model.PollStatusActive, model.PollStatusClosed)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByUUID(ctx, poll.PollUUID)
	require.NoError(t, err)
	assert.Equal(t, model.PollStatusClosed, got.Status)
}

func TestListExpiredActive(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := repository.NewPollRepository(db)
	ctx := context.Background()

	match := testutil.CreateMatch(t, db)
	expired, _ := testutil.CreatePoll(t, db, match.ID, model.PollTypeWinner, time.Now().Add(-time.Minute), "A", "B")
	testutil.CreatePoll(t, db, match.ID, model.PollTypeMOTM, time.Now().Add(time.Hour), "A", "B")

	polls, err := repo.ListExpiredActive(ctx, time.Now(), 100)
	require.NoError(t, err)
	require.Len(t, polls, 1)
	assert.Equal(t, expired.ID, polls[0].ID)
}
