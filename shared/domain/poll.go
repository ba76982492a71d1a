package domain

import "time"

type PollId = int64
type OptionId = int64

type PollType string

const (
	PollTypeThread PollType = "thread" // user polls attached to forum threads
	PollTypeAdmin  PollType = "admin"  // platform-wide admin polls
)

type Poll struct {
	Id        PollId
	Question  string
	Type      PollType
	IsActive  bool
	EndsAt    *time.Time
	CreatedAt time.Time
	CreatorId UserId
	ThreadId  *ThreadId // thread polls only

	Creator UserSummary
	Options []PollOption

	TotalVotes int
	UserVote   OptionId // 0 when the caller has not voted
}

type PollOption struct {
	Id         OptionId
	PollId     PollId
	Text       string
	OrderIndex int
	VoteCount  int
}

type PollCreationData struct {
	Question  string
	Type      PollType
	EndsAt    *time.Time
	CreatorId UserId
	ThreadId  *ThreadId
	Options   []string // option text, in order
}

// PollUpdate: once votes exist only Question/EndsAt/IsActive may change.
type PollUpdate struct {
	Question *string
	EndsAt   *time.Time
	IsActive *bool
}

type Vote struct {
	Id        int64
	PollId    PollId
	OptionId  OptionId
	UserId    UserId
	CreatedAt time.Time
}

type PollFilter struct {
	Type       PollType // "" means all
	ActiveOnly bool
	ThreadId   ThreadId // 0 means all
	CreatorId  UserId   // 0 means all
	Page       Page
}

// PollAnalysis summarizes results the way the voting report does.
type PollAnalysis struct {
	PollId            PollId
	Question          string
	TotalVotes        int
	Options           []PollOption
	Winners           []PollOption
	ResultType        string // no_votes, clear_winner, tie
	IsConcluded       bool
	ParticipationRate string // no_participation, low, moderate, high
}
