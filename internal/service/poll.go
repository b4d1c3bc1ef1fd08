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

// PollService governs the poll lifecycle: creation, explicit close, the
// expired-poll sweep and list/detail projections. The persisted status only
// advances ACTIVE -> CLOSED -> SETTLED; voting-time decisions additionally
// respect the deadline through model.EffectiveStatus.
type PollService struct {
	pollRepo  repository.PollRepository
	voteRepo  repository.VoteRepository
	matchRepo repository.MatchRepository
	logger    *logrus.Logger
	sweepSize int
}

// NewPollService creates a PollService.
func NewPollService(pollRepo repository.PollRepository, voteRepo repository.VoteRepository, matchRepo repository.MatchRepository, logger *logrus.Logger, sweepSize int) *PollService {
	return &PollService{
		pollRepo:  pollRepo,
		voteRepo:  voteRepo,
		matchRepo: matchRepo,
		logger:    logger,
		sweepSize: sweepSize,
	}
}

// CreatePollRequest is the operator input for a new poll.
type CreatePollRequest struct {
	MatchUUID   string    `json:"match_uuid"`
	Type        string    `json:"type"`
	Question    string    `json:"question"`
	PollEndTime time.Time `json:"poll_end_time"`
	Options     []string  `json:"options"`
}

// OptionView is one option in a poll projection.
type OptionView struct {
	ID          uint64 `json:"id"`
	DisplayText string `json:"display_text"`
	IsCorrect   bool   `json:"is_correct"`
	VoteCount   *int64 `json:"vote_count,omitempty"` // hidden while voting is open
}

// PollDetail is the poll projection served to the portal.
type PollDetail struct {
	PollUUID        string       `json:"poll_uuid"`
	MatchUUID       string       `json:"match_uuid"`
	Type            string       `json:"type"`
	Question        string       `json:"question"`
	PollEndTime     time.Time    `json:"poll_end_time"`
	Status          string       `json:"status"`
	EffectiveStatus string       `json:"effective_status"`
	Options         []OptionView `json:"options"`
}

// PollListResult is a paged poll listing.
type PollListResult struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Polls    []*PollDetail `json:"polls"`
}

// CreatePoll validates and stores a new ACTIVE poll with its options.
func (s *PollService) CreatePoll(ctx context.Context, req *CreatePollRequest) (*PollDetail, error) {
	if !model.ValidPollType(req.Type) {
		return nil, fmt.Errorf("unknown poll type %q", req.Type)
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, fmt.Errorf("question is required")
	}
	if len(req.Options) < 2 {
		return nil, fmt.Errorf("a poll needs at least 2 options")
	}
	if !req.PollEndTime.After(time.Now()) {
		return nil, fmt.Errorf("poll_end_time must be in the future")
	}

	match, err := s.matchRepo.GetMatchByUUID(ctx, req.MatchUUID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	poll := &model.Poll{
		PollUUID:    uuid.NewString(),
		MatchID:     match.ID,
		Type:        req.Type,
		Question:    strings.TrimSpace(req.Question),
		PollEndTime: req.PollEndTime,
		Status:      model.PollStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	options := make([]*model.Option, 0, len(req.Options))
	for _, text := range req.Options {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("option text cannot be empty")
		}
		options = append(options, &model.Option{DisplayText: text, CreatedAt: now})
	}

	if err := s.pollRepo.CreatePollWithOptions(ctx, poll, options); err != nil {
		return nil, fmt.Errorf("create poll: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"poll_uuid":  poll.PollUUID,
		"match_uuid": match.MatchUUID,
		"type":       poll.Type,
	}).Info("poll created")

	return s.buildDetail(ctx, poll, match.MatchUUID)
}

// GetPollDetail returns the poll with its options. Per-option tallies stay
// hidden while the poll is effectively ACTIVE so the running count cannot
// anchor later voters.
func (s *PollService) GetPollDetail(ctx context.Context, pollUUID string) (*PollDetail, error) {
	poll, err := s.pollRepo.GetByUUID(ctx, pollUUID)
	if err != nil {
		return nil, err
	}
	match, err := s.matchRepo.GetMatchByID(ctx, poll.MatchID)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(ctx, poll, match.MatchUUID)
}

// ListPolls returns a paged listing, optionally filtered by match and status.
func (s *PollService) ListPolls(ctx context.Context, matchUUID, status, pollType string, page, pageSize int) (*PollListResult, error) {
	filter := repository.PollFilter{Status: status, Type: pollType}
	var matchUUIDByID = map[uint64]string{}
	if matchUUID != "" {
		match, err := s.matchRepo.GetMatchByUUID(ctx, matchUUID)
		if err != nil {
			return nil, err
		}
		filter.MatchID = match.ID
		matchUUIDByID[match.ID] = match.MatchUUID
	}

	polls, total, err := s.pollRepo.ListPolls(ctx, filter, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}
	result := &PollListResult{Total: total, Page: page, PageSize: pageSize, Polls: make([]*PollDetail, 0, len(polls))}
	for _, poll := range polls {
		mu, ok := matchUUIDByID[poll.MatchID]
		if !ok {
			match, err := s.matchRepo.GetMatchByID(ctx, poll.MatchID)
			if err != nil {
				return nil, err
			}
			mu = match.MatchUUID
			matchUUIDByID[poll.MatchID] = mu
		}
		detail, err := s.buildDetail(ctx, poll, mu)
		if err != nil {
			return nil, err
		}
		result.Polls = append(result.Polls, detail)
	}
	return result, nil
}

// ClosePoll explicitly closes an ACTIVE poll. Closing is legal only from
// ACTIVE; anything else is ErrInvalidTransition, including losing the race
// to another closer.
func (s *PollService) ClosePoll(ctx context.Context, pollUUID string) (*model.Poll, error) {
	poll, err := s.pollRepo.GetByUUID(ctx, pollUUID)
	if err != nil {
		return nil, err
	}
	if poll.Status != model.PollStatusActive {
		return nil, model.ErrInvalidTransition
	}
	ok, err := s.pollRepo.AdvanceStatus(ctx, poll.ID, model.PollStatusActive, model.PollStatusClosed)
	if err != nil {
		return nil, fmt.Errorf("close poll: %w", err)
	}
	if !ok {
		return nil, model.ErrInvalidTransition
	}
	poll.Status = model.PollStatusClosed
	s.logger.WithField("poll_uuid", poll.PollUUID).Info("poll closed")
	return poll, nil
}

// SweepExpired converges persisted state with effective state: every ACTIVE
// poll past its deadline is explicitly closed. Triggered by an external
// scheduler or operator call, never by a background goroutine of this
// service.
func (s *PollService) SweepExpired(ctx context.Context) (int, error) {
	polls, err := s.pollRepo.ListExpiredActive(ctx, time.Now(), s.sweepSize)
	if err != nil {
		return 0, fmt.Errorf("list expired polls: %w", err)
	}
	closed := 0
	for _, poll := range polls {
		ok, err := s.pollRepo.AdvanceStatus(ctx, poll.ID, model.PollStatusActive, model.PollStatusClosed)
		if err != nil {
			s.logger.WithError(err).WithField("poll_uuid", poll.PollUUID).Warn("sweep close failed")
			continue
		}
		if ok {
			closed++
		}
	}
	if closed > 0 {
		s.logger.Infof("sweep closed %d expired polls", closed)
	}
	return closed, nil
}

// UpdateEndTime rewrites the voting deadline of an ACTIVE poll. Disallowed
// once any vote exists: moving the goalposts after people have committed
// would be unfair to earlier or later voters.
func (s *PollService) UpdateEndTime(ctx context.Context, pollUUID string, endTime time.Time) (*model.Poll, error) {
	poll, err := s.pollRepo.GetByUUID(ctx, pollUUID)
	if err != nil {
		return nil, err
	}
	if poll.Status != model.PollStatusActive {
		return nil, model.ErrInvalidTransition
	}
	hasVotes, err := s.pollRepo.HasVotes(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("check votes: %w", err)
	}
	if hasVotes {
		return nil, model.ErrVotesExist
	}
	if !endTime.After(time.Now()) {
		return nil, fmt.Errorf("poll_end_time must be in the future")
	}
	if err := s.pollRepo.UpdateEndTime(ctx, poll.ID, endTime); err != nil {
		return nil, fmt.Errorf("update end time: %w", err)
	}
	poll.PollEndTime = endTime
	return poll, nil
}

func (s *PollService) buildDetail(ctx context.Context, poll *model.Poll, matchUUID string) (*PollDetail, error) {
	options, err := s.pollRepo.ListOptions(ctx, poll.ID)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}

	effective := model.EffectiveStatus(poll, time.Now())
	var counts map[uint64]int64
	if effective != model.PollStatusActive {
		counts, err = s.voteRepo.CountByOption(ctx, poll.ID)
		if err != nil {
			return nil, fmt.Errorf("count votes: %w", err)
		}
	}

	detail := &PollDetail{
		PollUUID:        poll.PollUUID,
		MatchUUID:       matchUUID,
		Type:            poll.Type,
		Question:        poll.Question,
		PollEndTime:     poll.PollEndTime,
		Status:          poll.Status,
		EffectiveStatus: effective,
		Options:         make([]OptionView, 0, len(options)),
	}
	for _, opt := range options {
		view := OptionView{
			ID:          opt.ID,
			DisplayText: opt.DisplayText,
			IsCorrect:   opt.IsCorrect,
		}
		if counts != nil {
			c := counts[opt.ID]
			view.VoteCount = &c
		}
		detail.Options = append(detail.Options, view)
	}
	return detail, nil
}
