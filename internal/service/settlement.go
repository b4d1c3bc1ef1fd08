package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"CricPredict/internal/model"
	"CricPredict/internal/repository"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// SettlementResult is what a settlement call returns, whether it just ran
// or already happened.
type SettlementResult struct {
	PollUUID         string    `json:"poll_uuid"`
	PollType         string    `json:"poll_type"`
	CorrectOptionIDs []uint64  `json:"correct_option_ids"`
	PointsPerVote    int       `json:"points_per_vote"`
	VotesScored      int64     `json:"votes_scored"`
	PointsAwarded    int64     `json:"points_awarded"`
	SettledAt        time.Time `json:"settled_at"`
}

// SettlementService marks correct options and awards points, exactly once
// per poll. Settlement is a one-way door: a second call with the same
// correct-option set reads the stored result back, a second call with a
// different set is rejected so historical point totals never move.
type SettlementService struct {
	pollRepo       repository.PollRepository
	voteRepo       repository.VoteRepository
	settlementRepo repository.SettlementRepository
	lbRepo         repository.LeaderboardRepository
	notifier       Notifier
	projections    *gocache.Cache // leaderboard/statistics cache, flushed on commit
	logger         *logrus.Logger
}

// NewSettlementService creates a SettlementService. projections is the
// shared read-side cache; it is flushed whenever a settlement commits.
func NewSettlementService(
	pollRepo repository.PollRepository,
	voteRepo repository.VoteRepository,
	settlementRepo repository.SettlementRepository,
	lbRepo repository.LeaderboardRepository,
	notifier Notifier,
	projections *gocache.Cache,
	logger *logrus.Logger,
) *SettlementService {
	return &SettlementService{
		pollRepo:       pollRepo,
		voteRepo:       voteRepo,
		settlementRepo: settlementRepo,
		lbRepo:         lbRepo,
		notifier:       notifier,
		projections:    projections,
		logger:         logger,
	}
}

// SettlePoll settles the poll with the given correct options.
//
// The poll must be CLOSED, or ACTIVE with its deadline passed (auto-closed
// here); settling an ACTIVE poll before its deadline is ErrInvalidTransition.
// The multi-row score update runs inside one transaction in the settlement
// repository; notifications and the denormalized user totals refresh happen
// after commit and are best-effort.
func (s *SettlementService) SettlePoll(ctx context.Context, actorID uint64, pollUUID string, correctOptionIDs []uint64) (*SettlementResult, error) {
	poll, err := s.pollRepo.GetByUUID(ctx, pollUUID)
	if err != nil {
		return nil, err
	}

	if poll.Status == model.PollStatusSettled {
		return s.priorResult(ctx, poll, correctOptionIDs)
	}

	if poll.Status == model.PollStatusActive {
		if time.Now().Before(poll.PollEndTime) {
			return nil, model.ErrInvalidTransition
		}
		// Past the deadline the poll is effectively closed; converge the
		// row before settling. Losing this race to a sweep is fine.
		if _, err := s.pollRepo.AdvanceStatus(ctx, poll.ID, model.PollStatusActive, model.PollStatusClosed); err != nil {
			return nil, fmt.Errorf("auto-close poll: %w", err)
		}
	}

	if len(correctOptionIDs) == 0 {
		return nil, model.ErrInvalidOption
	}
	options, err := s.pollRepo.ListOptions(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	owned := make(map[uint64]bool, len(options))
	for _, opt := range options {
		owned[opt.ID] = true
	}
	for _, id := range correctOptionIDs {
		if !owned[id] {
			return nil, model.ErrInvalidOption
		}
	}

	pointsPerVote := model.PointsForType(poll.Type)
	record, err := s.settlementRepo.SettlePoll(ctx, poll.ID, correctOptionIDs, pointsPerVote, actorID)
	if err != nil {
		if errors.Is(err, model.ErrAlreadySettled) {
			// A concurrent settlement won the status race; fall back to
			// the idempotent read-through path.
			return s.priorResult(ctx, poll, correctOptionIDs)
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"poll_uuid":      poll.PollUUID,
		"points_awarded": record.PointsAwarded,
		"votes_scored":   record.VotesScored,
		"settled_by":     actorID,
	}).Info("poll settled")

	// Post-commit side effects. None of these may fail the settlement.
	s.projections.Flush()
	if _, err := s.lbRepo.RefreshUserTotals(ctx); err != nil {
		s.logger.WithError(err).Warn("refresh user totals after settlement")
	}
	votes, err := s.voteRepo.ListByPoll(ctx, poll.ID)
	if err != nil {
		s.logger.WithError(err).WithField("poll_uuid", poll.PollUUID).Warn("load votes for notification")
	} else {
		s.notifier.PollSettled(ctx, poll, record, votes)
	}

	return resultFromRecord(poll, record)
}

// priorResult implements the idempotent path for an already settled poll:
// the same correct-option set returns the stored result unchanged, a
// different set is rejected.
func (s *SettlementService) priorResult(ctx context.Context, poll *model.Poll, correctOptionIDs []uint64) (*SettlementResult, error) {
	record, err := s.settlementRepo.GetRecordByPollID(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("load settlement record: %w", err)
	}
	var settled []uint64
	if err := json.Unmarshal(record.CorrectOptionIDs, &settled); err != nil {
		return nil, fmt.Errorf("unmarshal settlement record: %w", err)
	}
	if len(correctOptionIDs) > 0 && !sameIDSet(settled, correctOptionIDs) {
		return nil, model.ErrAlreadySettled
	}
	return resultFromRecord(poll, record)
}

func resultFromRecord(poll *model.Poll, record *model.SettlementRecord) (*SettlementResult, error) {
	var ids []uint64
	if err := json.Unmarshal(record.CorrectOptionIDs, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal settlement record: %w", err)
	}
	return &SettlementResult{
		PollUUID:         poll.PollUUID,
		PollType:         poll.Type,
		CorrectOptionIDs: ids,
		PointsPerVote:    record.PointsPerVote,
		VotesScored:      record.VotesScored,
		PointsAwarded:    record.PointsAwarded,
		SettledAt:        record.CreatedAt,
	}, nil
}

func sameIDSet(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]uint64(nil), a...)
	bs := append([]uint64(nil), b...)
	sort.Slice(as, func(i, j int) bool { return as[i] < as[j] })
	sort.Slice(bs, func(i, j int) bool { return bs[i] < bs[j] })
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
