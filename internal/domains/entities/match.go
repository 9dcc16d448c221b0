package entities

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchWaiting  MatchStatus = "waiting"
	MatchOngoing  MatchStatus = "ongoing"
	MatchFinished MatchStatus = "finished"
)

type MatchResult string

const (
	ResultWin  MatchResult = "win"
	ResultDraw MatchResult = "draw"
)

const (
	DefaultTotalQuestions = 10
	DefaultTimeLimit      = 120 * time.Second

	// SkippedOption marks the answer entry recorded for a skip.
	SkippedOption = -1
)

// Answer is an append-only record of one question attempt. Exactly one entry
// exists per question index per player.
type Answer struct {
	QuestionIndex  int       `dynamodbav:"QuestionIndex" json:"questionIndex"`
	SelectedOption int       `dynamodbav:"SelectedOption" json:"selectedOption"`
	IsCorrect      bool      `dynamodbav:"IsCorrect" json:"isCorrect"`
	IsSkipped      bool      `dynamodbav:"IsSkipped" json:"isSkipped"`
	AnsweredAt     time.Time `dynamodbav:"AnsweredAt" json:"answeredAt"`
}

// MatchPlayer is the per-player slice of a match document. Rank and the
// rating fields are only populated at settlement.
type MatchPlayer struct {
	PlayerId          string   `dynamodbav:"PlayerId" json:"playerId"`
	Score             float64  `dynamodbav:"Score" json:"score"`
	CorrectAnswers    int      `dynamodbav:"CorrectAnswers" json:"correctAnswers"`
	WrongAnswers      int      `dynamodbav:"WrongAnswers" json:"wrongAnswers"`
	QuestionsAnswered int      `dynamodbav:"QuestionsAnswered" json:"questionsAnswered"`
	Answers           []Answer `dynamodbav:"Answers" json:"answers"`
	Rank              int      `dynamodbav:"Rank" json:"rank"`
	RatingBefore      int      `dynamodbav:"RatingBefore" json:"ratingBefore"`
	RatingAfter       int      `dynamodbav:"RatingAfter" json:"ratingAfter"`
	RatingChange      int      `dynamodbav:"RatingChange" json:"ratingChange"`
}

// HasAnswered reports whether the player already answered or skipped the
// question at the given index.
func (p *MatchPlayer) HasAnswered(questionIndex int) bool {
	for _, answer := range p.Answers {
		if answer.QuestionIndex == questionIndex {
			return true
		}
	}
	return false
}

type Match struct {
	MatchId        string        `dynamodbav:"MatchId" json:"matchId"`
	Status         MatchStatus   `dynamodbav:"Status" json:"status"`
	Players        []MatchPlayer `dynamodbav:"Players" json:"players"`
	QuestionSet    []string      `dynamodbav:"QuestionSet" json:"questionSet"`
	TotalQuestions int           `dynamodbav:"TotalQuestions" json:"totalQuestions"`
	TimeLimit      int           `dynamodbav:"TimeLimit" json:"timeLimit"` // seconds
	StartTime      time.Time     `dynamodbav:"StartTime" json:"startTime"`
	EndTime        time.Time     `dynamodbav:"EndTime" json:"endTime"`
	Result         MatchResult   `dynamodbav:"Result" json:"result"`
	Winner         string        `dynamodbav:"Winner" json:"winner"`
}

// NewMatch pairs two players into a fresh waiting match.
func NewMatch(player1Id, player2Id string) Match {
	return Match{
		MatchId: uuid.NewString(),
		Status:  MatchWaiting,
		Players: []MatchPlayer{
			{PlayerId: player1Id},
			{PlayerId: player2Id},
		},
		TotalQuestions: DefaultTotalQuestions,
		TimeLimit:      int(DefaultTimeLimit.Seconds()),
	}
}

// PlayerWithId returns the match player entry for the given identifier.
func (m *Match) PlayerWithId(playerId string) (*MatchPlayer, bool) {
	for i := range m.Players {
		if m.Players[i].PlayerId == playerId {
			return &m.Players[i], true
		}
	}
	return nil, false
}

// Opponent returns the other player entry.
func (m *Match) Opponent(playerId string) (*MatchPlayer, bool) {
	for i := range m.Players {
		if m.Players[i].PlayerId != playerId {
			return &m.Players[i], true
		}
	}
	return nil, false
}

// Completed reports whether every player answered the full question set.
func (m *Match) Completed() bool {
	if len(m.Players) != 2 {
		return false
	}
	for i := range m.Players {
		if m.Players[i].QuestionsAnswered < m.TotalQuestions {
			return false
		}
	}
	return true
}

// Deadline is the authoritative wall-clock end of the match.
func (m *Match) Deadline() time.Time {
	return m.StartTime.Add(time.Duration(m.TimeLimit) * time.Second)
}
