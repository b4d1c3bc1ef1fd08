package model

import "time"

// Poll statuses. The persisted status only moves forward:
// ACTIVE -> CLOSED -> SETTLED.
const (
	PollStatusActive  = "ACTIVE"
	PollStatusClosed  = "CLOSED"
	PollStatusSettled = "SETTLED"
)

// Poll types.
const (
	PollTypeWinner  = "WINNER"
	PollTypeMOTM    = "MOTM"
	PollTypeScore   = "SCORE"
	PollTypeWickets = "WICKETS"
	PollTypeCustom  = "CUSTOM"
)

// Match statuses.
const (
	MatchStatusUpcoming  = "UPCOMING"
	MatchStatusLive      = "LIVE"
	MatchStatusCompleted = "COMPLETED"
	MatchStatusCancelled = "CANCELLED"
)

// User roles.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// pointTable is the canonical per-type award for a correct vote. Not
// configurable: settlements must score identically no matter who runs them.
var pointTable = map[string]int{
	PollTypeWinner:  30,
	PollTypeMOTM:    50,
	PollTypeScore:   100,
	PollTypeWickets: 80,
	PollTypeCustom:  40,
}

// PointsForType returns the award for a correct vote on a poll of the given
// type, or 0 for an unknown type.
func PointsForType(pollType string) int {
	return pointTable[pollType]
}

// ValidPollType reports whether pollType is one of the known poll types.
func ValidPollType(pollType string) bool {
	_, ok := pointTable[pollType]
	return ok
}

// EffectiveStatus derives the status the poll has for voting purposes: an
// ACTIVE poll whose deadline has passed is CLOSED even if no close call has
// converged the persisted row yet. The persisted status itself only advances
// through explicit close/settle operations.
func EffectiveStatus(p *Poll, now time.Time) string {
	if p.Status == PollStatusActive && now.After(p.PollEndTime) {
		return PollStatusClosed
	}
	return p.Status
}

var pollStatusOrder = map[string]int{
	PollStatusActive:  0,
	PollStatusClosed:  1,
	PollStatusSettled: 2,
}

// CanAdvancePollStatus reports whether a poll may move from one persisted
// status directly to the next. Only single forward steps are legal.
func CanAdvancePollStatus(from, to string) bool {
	f, okF := pollStatusOrder[from]
	t, okT := pollStatusOrder[to]
	return okF && okT && t == f+1
}

var matchStatusOrder = map[string]int{
	MatchStatusUpcoming:  0,
	MatchStatusLive:      1,
	MatchStatusCompleted: 2,
}

// CanAdvanceMatchStatus reports whether a match status transition is legal.
// Transitions are monotonic; CANCELLED is reachable from UPCOMING or LIVE
// and is terminal, as is COMPLETED.
func CanAdvanceMatchStatus(from, to string) bool {
	if from == MatchStatusCompleted || from == MatchStatusCancelled {
		return false
	}
	if to == MatchStatusCancelled {
		return from == MatchStatusUpcoming || from == MatchStatusLive
	}
	f, okF := matchStatusOrder[from]
	t, okT := matchStatusOrder[to]
	return okF && okT && t > f
}
