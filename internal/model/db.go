package model

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:surrogate primary key" json:"id"`
	DisplayName string    `gorm:"column:display_name;type:varchar(64);not null;comment:name shown on the leaderboard" json:"display_name"`
	Role        string    `gorm:"column:role;type:varchar(8);not null;default:USER;comment:USER or ADMIN" json:"role"`
	Points      int64     `gorm:"column:points;type:bigint;not null;default:0;comment:denormalized point total, recomputed from votes" json:"points"`
	Rank        int64     `gorm:"column:rank;type:bigint;not null;default:0;comment:denormalized leaderboard rank, recomputed from votes" json:"rank"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamp;default:now();comment:account creation time, leaderboard tie-break" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;type:timestamp;default:now()" json:"updated_at"`
}

type Team struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	TeamUUID  string    `gorm:"column:team_uuid;type:varchar(64);uniqueIndex;not null;comment:public identifier" json:"team_uuid"`
	Name      string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	ShortName string    `gorm:"column:short_name;type:varchar(16);not null" json:"short_name"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:now()" json:"updated_at"`
}

type Match struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	MatchUUID  string    `gorm:"column:match_uuid;type:varchar(64);uniqueIndex;not null;comment:public identifier" json:"match_uuid"`
	HomeTeamID uint64    `gorm:"column:home_team_id;type:bigint;not null" json:"home_team_id"`
	AwayTeamID uint64    `gorm:"column:away_team_id;type:bigint;not null" json:"away_team_id"`
	StartTime  time.Time `gorm:"column:start_time;type:timestamp;not null" json:"start_time"`
	Venue      string    `gorm:"column:venue;type:varchar(128)" json:"venue"`
	Status     string    `gorm:"column:status;type:varchar(16);not null;default:UPCOMING;comment:UPCOMING/LIVE/COMPLETED/CANCELLED, advances only" json:"status"`
	HomeScore  *int      `gorm:"column:home_score;type:int;comment:final score, set on completion" json:"home_score,omitempty"`
	AwayScore  *int      `gorm:"column:away_score;type:int" json:"away_score,omitempty"`
	ResultText *string   `gorm:"column:result_text;type:varchar(256);comment:free-form result summary" json:"result_text,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamp;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;type:timestamp;default:now()" json:"updated_at"`
}

type Poll struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	PollUUID    string    `gorm:"column:poll_uuid;type:varchar(64);uniqueIndex;not null;comment:public identifier" json:"poll_uuid"`
	MatchID     uint64    `gorm:"column:match_id;type:bigint;not null;index;comment:owning match" json:"match_id"`
	Type        string    `gorm:"column:type;type:varchar(16);not null;comment:WINNER/MOTM/SCORE/WICKETS/CUSTOM" json:"type"`
	Question    string    `gorm:"column:question;type:varchar(256);not null" json:"question"`
	PollEndTime time.Time `gorm:"column:poll_end_time;type:timestamp;not null;comment:voting deadline, immutable once votes exist" json:"poll_end_time"`
	Status      string    `gorm:"column:status;type:varchar(16);not null;default:ACTIVE;comment:ACTIVE/CLOSED/SETTLED, advances only" json:"status"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamp;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;type:timestamp;default:now()" json:"updated_at"`
}

type Option struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PollID      uint64    `gorm:"column:poll_id;type:bigint;not null;index;comment:owning poll" json:"-"`
	DisplayText string    `gorm:"column:display_text;type:varchar(128);not null" json:"display_text"`
	Position    int       `gorm:"column:position;type:int;not null;default:0;comment:display order within the poll" json:"position"`
	IsCorrect   bool      `gorm:"column:is_correct;type:boolean;not null;default:false;comment:set at settlement, false before" json:"is_correct"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamp;default:now()" json:"created_at"`
}

// Vote is immutable after insert except for points, which moves 0 -> final
// exactly once at settlement. uk_user_poll is the one-vote-per-user-per-poll
// guarantee; concurrent inserts race on the index, not on application reads.
type Vote struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	VoteUUID  string    `gorm:"column:vote_uuid;type:varchar(64);uniqueIndex;not null;comment:public identifier" json:"vote_uuid"`
	UserID    uint64    `gorm:"column:user_id;type:bigint;not null;uniqueIndex:uk_user_poll" json:"user_id"`
	PollID    uint64    `gorm:"column:poll_id;type:bigint;not null;uniqueIndex:uk_user_poll" json:"-"`
	OptionID  uint64    `gorm:"column:option_id;type:bigint;not null;index;comment:must belong to the same poll" json:"option_id"`
	Points    int       `gorm:"column:points;type:int;not null;default:0;comment:0 until settlement" json:"points"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:now()" json:"created_at"`
}

type SettlementRecord struct {
	ID               uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	PollID           uint64         `gorm:"column:poll_id;type:bigint;uniqueIndex;not null;comment:one settlement per poll" json:"-"`
	CorrectOptionIDs datatypes.JSON `gorm:"column:correct_option_ids;type:jsonb;not null;comment:option ids marked correct" json:"correct_option_ids"`
	PointsPerVote    int            `gorm:"column:points_per_vote;type:int;not null;comment:value from the per-type point table" json:"points_per_vote"`
	VotesScored      int64          `gorm:"column:votes_scored;type:bigint;not null;comment:total votes on the poll at settlement" json:"votes_scored"`
	PointsAwarded    int64          `gorm:"column:points_awarded;type:bigint;not null;comment:sum of points handed out" json:"points_awarded"`
	SettledBy        uint64         `gorm:"column:settled_by;type:bigint;not null;comment:admin user id" json:"settled_by"`
	CreatedAt        time.Time      `gorm:"column:created_at;type:timestamp;default:now()" json:"created_at"`
}

type NotificationIntent struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID       uint64         `gorm:"column:user_id;type:bigint;not null;index" json:"user_id"`
	PollID       uint64         `gorm:"column:poll_id;type:bigint;not null;index" json:"poll_id"`
	Kind         string         `gorm:"column:kind;type:varchar(32);not null;comment:event kind, e.g. POLL_SETTLED" json:"kind"`
	Payload      datatypes.JSON `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	DispatchedAt *time.Time     `gorm:"column:dispatched_at;type:timestamp;comment:nil until handed to the dispatcher" json:"dispatched_at,omitempty"`
	CreatedAt    time.Time      `gorm:"column:created_at;type:timestamp;default:now()" json:"created_at"`
}

func (User) TableName() string               { return "users" }
func (Team) TableName() string               { return "teams" }
func (Match) TableName() string              { return "matches" }
func (Poll) TableName() string               { return "polls" }
func (Option) TableName() string             { return "options" }
func (Vote) TableName() string               { return "votes" }
func (SettlementRecord) TableName() string   { return "settlement_records" }
func (NotificationIntent) TableName() string { return "notification_intents" }
