package dtos

import (
	"time"

	"github.com/codeclash-vn/rapidfire/internal/domains/entities"
)

// PlayerStatsResponse is the live per-player scoreboard line.
type PlayerStatsResponse struct {
	PlayerId          string  `json:"playerId"`
	Score             float64 `json:"score"`
	CorrectAnswers    int     `json:"correctAnswers"`
	WrongAnswers      int     `json:"wrongAnswers"`
	QuestionsAnswered int     `json:"questionsAnswered"`
}

func PlayerStatsResponseFromEntity(player entities.MatchPlayer) PlayerStatsResponse {
	return PlayerStatsResponse{
		PlayerId:          player.PlayerId,
		Score:             player.Score,
		CorrectAnswers:    player.CorrectAnswers,
		WrongAnswers:      player.WrongAnswers,
		QuestionsAnswered: player.QuestionsAnswered,
	}
}

// LiveUpdateResponse is broadcast periodically and after every answer.
type LiveUpdateResponse struct {
	MatchId          string                `json:"matchId"`
	RemainingSeconds int                   `json:"remainingSeconds"`
	Players          []PlayerStatsResponse `json:"players"`
}

func LiveUpdateResponseFromEntity(match entities.Match, remaining time.Duration) LiveUpdateResponse {
	players := make([]PlayerStatsResponse, 0, len(match.Players))
	for _, player := range match.Players {
		players = append(players, PlayerStatsResponseFromEntity(player))
	}
	seconds := int(remaining.Round(time.Second).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	return LiveUpdateResponse{
		MatchId:          match.MatchId,
		RemainingSeconds: seconds,
		Players:          players,
	}
}

// MatchSnapshotResponse answers a join: full state needed to (re)render the
// match, including the player's own previous answers after a reconnect.
type MatchSnapshotResponse struct {
	MatchId          string             `json:"matchId"`
	Status           string             `json:"status"`
	TotalQuestions   int                `json:"totalQuestions"`
	TimeLimit        int                `json:"timeLimit"`
	StartTime        time.Time          `json:"startTime"`
	RemainingSeconds int                `json:"remainingSeconds"`
	Questions        []QuestionResponse `json:"questions"`
	OwnAnswers       []entities.Answer  `json:"ownAnswers"`
	Players          []PlayerStatsResponse `json:"players"`
}

// AnswerResultResponse is the private reply to the submitter.
type AnswerResultResponse struct {
	QuestionIndex int    `json:"questionIndex"`
	IsCorrect     bool   `json:"isCorrect"`
	IsSkipped     bool   `json:"isSkipped"`
	CorrectOption int    `json:"correctOption"`
	Explanation   string `json:"explanation"`
}

// SettledPlayerResponse is one player's final line in the terminal event.
type SettledPlayerResponse struct {
	PlayerId          string  `json:"playerId"`
	Score             float64 `json:"score"`
	Rank              int     `json:"rank"`
	CorrectAnswers    int     `json:"correctAnswers"`
	WrongAnswers      int     `json:"wrongAnswers"`
	QuestionsAnswered int     `json:"questionsAnswered"`
	RatingBefore      int     `json:"ratingBefore"`
	RatingAfter       int     `json:"ratingAfter"`
	RatingChange      int     `json:"ratingChange"`
}

// MatchFinishedResponse is the terminal settlement payload sent to both sides.
type MatchFinishedResponse struct {
	MatchId string                  `json:"matchId"`
	Result  string                  `json:"result"`
	Winner  string                  `json:"winner,omitempty"`
	EndTime time.Time               `json:"endTime"`
	Players []SettledPlayerResponse `json:"players"`
}

func MatchFinishedResponseFromEntity(match entities.Match) MatchFinishedResponse {
	players := make([]SettledPlayerResponse, 0, len(match.Players))
	for _, player := range match.Players {
		players = append(players, SettledPlayerResponse{
			PlayerId:          player.PlayerId,
			Score:             player.Score,
			Rank:              player.Rank,
			CorrectAnswers:    player.CorrectAnswers,
			WrongAnswers:      player.WrongAnswers,
			QuestionsAnswered: player.QuestionsAnswered,
			RatingBefore:      player.RatingBefore,
			RatingAfter:       player.RatingAfter,
			RatingChange:      player.RatingChange,
		})
	}
	return MatchFinishedResponse{
		MatchId: match.MatchId,
		Result:  string(match.Result),
		Winner:  match.Winner,
		EndTime: match.EndTime,
		Players: players,
	}
}
