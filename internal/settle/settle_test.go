package settle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeclash-vn/rapidfire/internal/domains/entities"
	"github.com/codeclash-vn/rapidfire/pkg/utils"
)

func testMatch(score1, score2 float64) *entities.Match {
	return &entities.Match{
		MatchId:        "match-1",
		Status:         entities.MatchOngoing,
		TotalQuestions: entities.DefaultTotalQuestions,
		TimeLimit:      120,
		StartTime:      time.Now().Add(-time.Minute),
		Players: []entities.MatchPlayer{
			{PlayerId: "p1", Score: score1},
			{PlayerId: "p2", Score: score2},
		},
	}
}

func testProfiles(rating1, rating2 int) [2]*entities.UserProfile {
	p1 := entities.NewUserProfile("p1")
	p2 := entities.NewUserProfile("p2")
	p1.RapidFireRating = rating1
	p2.RapidFireRating = rating2
	return [2]*entities.UserProfile{&p1, &p2}
}

func TestApplyWin(t *testing.T) {
	// 7 correct / 3 wrong vs 5 correct / 5 wrong, both fresh at 1200.
	match := testMatch(7-3*0.25, 5-5*0.25)
	profiles := testProfiles(1200, 1200)
	now := time.Now()

	decision := Apply(match, profiles, utils.DefaultKFactor, now)

	assert.Equal(t, entities.ResultWin, decision.Result)
	assert.Equal(t, "p1", decision.Winner)

	require.Equal(t, entities.MatchFinished, match.Status)
	assert.Equal(t, now, match.EndTime)
	assert.Equal(t, "p1", match.Winner)

	winner, loser := match.Players[0], match.Players[1]
	assert.Equal(t, 1, winner.Rank)
	assert.Equal(t, 2, loser.Rank)
	assert.Equal(t, 16, winner.RatingChange)
	assert.Equal(t, -16, loser.RatingChange)
	assert.Equal(t, 1216, winner.RatingAfter)
	assert.Equal(t, 1184, loser.RatingAfter)
	assert.Equal(t, 1200, winner.RatingBefore)

	assert.Equal(t, 1216, profiles[0].RapidFireRating)
	assert.Equal(t, entities.GameStats{Played: 1, Won: 1}, profiles[0].RapidFireStats)
	assert.Equal(t, entities.GameStats{Played: 1, Lost: 1}, profiles[1].RapidFireStats)
	require.Len(t, profiles[0].RecentForm, 1)
	assert.Equal(t, "W", profiles[0].RecentForm[0].Outcome)
	require.Len(t, profiles[1].MatchHistory, 1)
	assert.Equal(t, "p1", profiles[1].MatchHistory[0].OpponentId)
	assert.Equal(t, -16, profiles[1].MatchHistory[0].RatingChange)
}

func TestApplyDraw(t *testing.T) {
	// 4 correct / 2 wrong / 4 skipped each.
	score := 4 - 2*0.25
	match := testMatch(score, score)
	profiles := testProfiles(1300, 1300)

	decision := Apply(match, profiles, utils.DefaultKFactor, time.Now())

	assert.Equal(t, entities.ResultDraw, decision.Result)
	assert.Empty(t, decision.Winner)
	assert.Equal(t, entities.ResultDraw, match.Result)
	assert.Empty(t, match.Winner)
	for i := range match.Players {
		assert.Equal(t, 1, match.Players[i].Rank)
		assert.Zero(t, match.Players[i].RatingChange)
		assert.Equal(t, 1300, match.Players[i].RatingAfter)
	}
	assert.Equal(t, entities.GameStats{Played: 1, Tied: 1}, profiles[0].RapidFireStats)
	assert.Equal(t, "D", profiles[1].RecentForm[0].Outcome)
}

func TestApplyRespectsRatingFloor(t *testing.T) {
	match := testMatch(1, 5)
	profiles := testProfiles(105, 1900)

	Apply(match, profiles, utils.DefaultKFactor, time.Now())

	assert.Equal(t, utils.RatingFloor, profiles[0].RapidFireRating)
	assert.Equal(t, utils.RatingFloor, match.Players[0].RatingAfter)
	assert.Negative(t, match.Players[0].RatingChange)
}

func TestApplyDeltasNeedNotBeSymmetric(t *testing.T) {
	match := testMatch(6, 2)
	profiles := testProfiles(1000, 1400)

	Apply(match, profiles, utils.DefaultKFactor, time.Now())

	// Underdog win moves more than the favorite's loss; accepted behavior.
	assert.Greater(t, match.Players[0].RatingChange, -match.Players[1].RatingChange-2)
	assert.Positive(t, match.Players[0].RatingChange)
	assert.Negative(t, match.Players[1].RatingChange)
}

func TestHistoryBound(t *testing.T) {
	profile := entities.NewUserProfile("p1")
	for i := 0; i < entities.HistoryLimit+5; i++ {
		profile.RecordForm(entities.FormEntry{Outcome: "W"})
		profile.RecordMatch(entities.MatchHistoryEntry{MatchId: "m"})
	}
	assert.Len(t, profile.RecentForm, entities.HistoryLimit)
	assert.Len(t, profile.MatchHistory, entities.HistoryLimit)
}
