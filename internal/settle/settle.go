// Package settle holds the one authoritative match finalization rule: outcome
// decision, rank assignment, rating updates and profile bookkeeping. Both the
// live match engine and the reconciliation sweep go through it so the two can
// never disagree on who won.
package settle

import (
	"time"

	"github.com/codeclash-vn/rapidfire/internal/domains/entities"
	"github.com/codeclash-vn/rapidfire/pkg/utils"
)

// Decision is the computed outcome of a match before persistence.
type Decision struct {
	Result   entities.MatchResult
	Winner   string // empty on draw
	Ranks    [2]int
	Outcomes [2]float64 // Elo outcome per player, same order as match.Players
}

// Decide applies the score rule: strictly higher score wins; equal scores is
// a draw with both players ranked 1.
func Decide(match *entities.Match) Decision {
	p1, p2 := &match.Players[0], &match.Players[1]
	switch {
	case p1.Score > p2.Score:
		return Decision{
			Result:   entities.ResultWin,
			Winner:   p1.PlayerId,
			Ranks:    [2]int{1, 2},
			Outcomes: [2]float64{utils.OutcomeWin, utils.OutcomeLoss},
		}
	case p2.Score > p1.Score:
		return Decision{
			Result:   entities.ResultWin,
			Winner:   p2.PlayerId,
			Ranks:    [2]int{2, 1},
			Outcomes: [2]float64{utils.OutcomeLoss, utils.OutcomeWin},
		}
	default:
		return Decision{
			Result:   entities.ResultDraw,
			Ranks:    [2]int{1, 1},
			Outcomes: [2]float64{utils.OutcomeDraw, utils.OutcomeDraw},
		}
	}
}

// Apply finalizes the match document and mutates both profiles in place:
// new rating, counters, recent form and match history. Profiles must be in
// the same order as match.Players. The caller persists both afterwards.
func Apply(match *entities.Match, profiles [2]*entities.UserProfile, kFactor int, now time.Time) Decision {
	decision := Decide(match)

	ratingsBefore := [2]int{profiles[0].RapidFireRating, profiles[1].RapidFireRating}
	for i := range match.Players {
		player := &match.Players[i]
		opponent := ratingsBefore[1-i]
		delta := utils.RatingDelta(ratingsBefore[i], opponent, decision.Outcomes[i], kFactor)

		player.Rank = decision.Ranks[i]
		player.RatingBefore = ratingsBefore[i]
		player.RatingAfter = utils.ApplyDelta(ratingsBefore[i], delta)
		player.RatingChange = delta

		profile := profiles[i]
		profile.RapidFireRating = player.RatingAfter
		stats := profile.StatsFor(entities.GameTypeRapidFire)
		stats.Played++
		outcome := "D"
		switch {
		case decision.Result == entities.ResultDraw:
			stats.Tied++
		case decision.Winner == player.PlayerId:
			stats.Won++
			outcome = "W"
		default:
			stats.Lost++
			outcome = "L"
		}
		profile.RecordForm(entities.FormEntry{Outcome: outcome, PlayedAt: now})

		opponentEntry, _ := match.Opponent(player.PlayerId)
		profile.RecordMatch(entities.MatchHistoryEntry{
			MatchId:      match.MatchId,
			OpponentId:   opponentEntry.PlayerId,
			Outcome:      outcome,
			Score:        player.Score,
			RatingChange: delta,
			PlayedAt:     now,
		})
	}

	match.Status = entities.MatchFinished
	match.EndTime = now
	match.Result = decision.Result
	match.Winner = decision.Winner
	return decision
}
