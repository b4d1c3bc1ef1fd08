package model

import "errors"

// Domain errors. These are expected outcomes of correct concurrent behavior,
// surfaced to the caller as-is; only storage/infra failures get wrapped.
var (
	ErrPollNotFound   = errors.New("poll not found")
	ErrMatchNotFound  = errors.New("match not found")
	ErrTeamNotFound   = errors.New("team not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrOptionNotFound = errors.New("option not found")

	// ErrPollClosed covers both an explicitly closed/settled poll and an
	// ACTIVE poll whose deadline has passed.
	ErrPollClosed = errors.New("poll is closed for voting")

	// ErrDuplicateVote is terminal: the (user, poll) pair is already taken.
	// Never retried automatically.
	ErrDuplicateVote = errors.New("user has already voted on this poll")

	ErrInvalidOption = errors.New("option does not belong to this poll")

	// ErrAlreadySettled is returned when a settled poll is re-settled with a
	// different correct-option set. Re-settling with the same set is a no-op
	// returning the stored result instead.
	ErrAlreadySettled = errors.New("poll is already settled")

	ErrInvalidTransition = errors.New("invalid status transition")

	ErrForbidden = errors.New("caller is not allowed to perform this action")

	// ErrVotesExist guards poll end-time mutation once votes have been cast.
	ErrVotesExist = errors.New("poll already has votes")

	// ErrTeamReferenced guards team mutation once a match references it.
	ErrTeamReferenced = errors.New("team is referenced by a match")
)
