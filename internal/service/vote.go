package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CricPredict/internal/model"
	"CricPredict/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// VoteService is the vote recorder. Preconditions run in a fixed order so
// every failure mode has one distinct outcome:
//
//  1. poll exists            -> ErrPollNotFound
//  2. effectively ACTIVE     -> ErrPollClosed
//  3. option belongs to poll -> ErrInvalidOption
//  4. first vote of the pair -> ErrDuplicateVote
//
// The duplicate check is decided by the uk_user_poll index at insert time,
// not by a prior read, so two tabs racing each other resolve to exactly one
// vote row.
type VoteService struct {
	pollRepo repository.PollRepository
	voteRepo repository.VoteRepository
	logger   *logrus.Logger
}

// NewVoteService creates a VoteService.
func NewVoteService(pollRepo repository.PollRepository, voteRepo repository.VoteRepository, logger *logrus.Logger) *VoteService {
	return &VoteService{pollRepo: pollRepo, voteRepo: voteRepo, logger: logger}
}

// VoteReceipt is the response to a recorded vote. It carries the public poll
// identifier so the caller can correlate the receipt without knowing
// internal row ids.
type VoteReceipt struct {
	VoteUUID  string    `json:"vote_uuid"`
	PollUUID  string    `json:"poll_uuid"`
	UserID    uint64    `json:"user_id"`
	OptionID  uint64    `json:"option_id"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// CastVote records one user's prediction on a poll. The created vote starts
// at 0 points; settlement moves it to its final value exactly once. Votes
// are never deleted and their option never changes.
func (s *VoteService) CastVote(ctx context.Context, userID uint64, pollUUID string, optionID uint64) (*VoteReceipt, error) {
	poll, err := s.pollRepo.GetByUUID(ctx, pollUUID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if model.EffectiveStatus(poll, now) != model.PollStatusActive {
		return nil, model.ErrPollClosed
	}

	options, err := s.pollRepo.ListOptions(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	valid := false
	for _, opt := range options {
		if opt.ID == optionID {
			valid = true
			break
		}
	}
	if !valid {
		return nil, model.ErrInvalidOption
	}

	vote := &model.Vote{
		VoteUUID:  uuid.NewString(),
		UserID:    userID,
		PollID:    poll.ID,
		OptionID:  optionID,
		Points:    0,
		CreatedAt: now,
	}
	if err := s.voteRepo.CreateVote(ctx, vote); err != nil {
		if errors.Is(err, model.ErrDuplicateVote) {
			// Expected outcome of correct concurrent behavior, not a failure.
			s.logger.WithFields(logrus.Fields{
				"user_id":   userID,
				"poll_uuid": pollUUID,
			}).Info("duplicate vote rejected")
			return nil, err
		}
		return nil, fmt.Errorf("create vote: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"vote_uuid": vote.VoteUUID,
		"user_id":   userID,
		"poll_uuid": pollUUID,
		"option_id": optionID,
	}).Info("vote recorded")
	return &VoteReceipt{
		VoteUUID:  vote.VoteUUID,
		PollUUID:  poll.PollUUID,
		UserID:    vote.UserID,
		OptionID:  vote.OptionID,
		Points:    vote.Points,
		CreatedAt: vote.CreatedAt,
	}, nil
}
