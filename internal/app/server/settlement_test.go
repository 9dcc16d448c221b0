package server

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeclash-vn/rapidfire/internal/domains/entities"
)

// Plays a full match: p1 answers 7 right and 3 wrong, p2 answers 5 and 5.
func playDecisiveMatch(t *testing.T, match *Match) {
	t.Helper()
	for i := 0; i < 10; i++ {
		option := 0
		if i >= 7 {
			option = 1
		}
		require.Nil(t, match.applyAnswer("p1", i, option, false))
	}
	for i := 0; i < 10; i++ {
		option := 0
		if i >= 5 {
			option = 1
		}
		require.Nil(t, match.applyAnswer("p2", i, option, false))
	}
}

func TestSettlementPersistsRatingsAndStats(t *testing.T) {
	storage := newFakeStorage()
	s := newTestServer(storage, &fakeQuestionSource{poolSize: 20})
	match, _, _ := startedMatch(s, "m1")

	playDecisiveMatch(t, match)
	require.True(t, match.isSettled())

	saved := storage.savedMatch("m1")
	assert.Equal(t, entities.MatchFinished, saved.Status)
	assert.Equal(t, entities.ResultWin, saved.Result)
	assert.Equal(t, "p1", saved.Winner)
	assert.False(t, saved.EndTime.IsZero())

	winner, _ := saved.PlayerWithId("p1")
	loser, _ := saved.PlayerWithId("p2")
	assert.InDelta(t, 6.25, winner.Score, 1e-9)
	assert.InDelta(t, 3.75, loser.Score, 1e-9)
	assert.Equal(t, 1, winner.Rank)
	assert.Equal(t, 2, loser.Rank)
	assert.Equal(t, 1200, winner.RatingBefore)
	assert.Equal(t, 1216, winner.RatingAfter)
	assert.Equal(t, -16, loser.RatingChange)

	winnerProfile := storage.savedProfile("p1")
	loserProfile := storage.savedProfile("p2")
	assert.Equal(t, 1216, winnerProfile.RapidFireRating)
	assert.Equal(t, 1184, loserProfile.RapidFireRating)
	assert.Equal(t, 1, winnerProfile.RapidFireStats.Played)
	assert.Equal(t, 1, winnerProfile.RapidFireStats.Won)
	assert.Equal(t, 1, loserProfile.RapidFireStats.Lost)
	assert.Zero(t, winnerProfile.GameStats.Played, "other game types stay untouched")
	require.NotEmpty(t, winnerProfile.MatchHistory)
	assert.Equal(t, "m1", winnerProfile.MatchHistory[0].MatchId)
}

func TestSettlementDraw(t *testing.T) {
	storage := newFakeStorage()
	s := newTestServer(storage, &fakeQuestionSource{poolSize: 20})
	match, _, _ := startedMatch(s, "m1")

	for i := 0; i < 10; i++ {
		require.Nil(t, match.applyAnswer("p1", i, 0, false))
		require.Nil(t, match.applyAnswer("p2", i, 0, false))
	}
	require.True(t, match.isSettled())

	saved := storage.savedMatch("m1")
	assert.Equal(t, entities.ResultDraw, saved.Result)
	assert.Empty(t, saved.Winner)
	for _, player := range saved.Players {
		assert.Equal(t, 1, player.Rank)
		assert.Zero(t, player.RatingChange, "equal ratings draw to a zero delta")
	}
	assert.Equal(t, 1, storage.savedProfile("p1").RapidFireStats.Tied)
}

func TestSettlementReloadsFreshRatings(t *testing.T) {
	storage := newFakeStorage()
	strong := entities.NewUserProfile("p1")
	strong.RapidFireRating = 1400
	storage.profiles["p1"] = strong

	s := newTestServer(storage, &fakeQuestionSource{poolSize: 20})
	match, _, _ := startedMatch(s, "m1")
	playDecisiveMatch(t, match)

	saved := storage.savedMatch("m1")
	winner, _ := saved.PlayerWithId("p1")
	assert.Equal(t, 1400, winner.RatingBefore)
	// Favorite beating an underdog moves less than the symmetric 16.
	assert.Less(t, winner.RatingChange, 16)
	assert.Positive(t, winner.RatingChange)
}

func TestSettlementProfileLoadFailureKeepsMatchOngoing(t *testing.T) {
	storage := newFakeStorage()
	storage.profileLoadErr = errors.New("dynamodb unavailable")
	s := newTestServer(storage, &fakeQuestionSource{poolSize: 20})
	match, _, _ := startedMatch(s, "m1")

	match.settle("countdown")

	// The settled flag is spent but nothing was persisted as finished; the
	// reconciliation sweep picks the match up from storage.
	saved := storage.savedMatch("m1")
	assert.Equal(t, entities.MatchOngoing, saved.Status)
	_, held := s.registry.get("m1")
	assert.False(t, held)
}

func TestSettlementSurvivesMatchPutFailure(t *testing.T) {
	storage := newFakeStorage()
	s := newTestServer(storage, &fakeQuestionSource{poolSize: 20})
	match, conn1, _ := startedMatch(s, "m1")
	storage.matchPutErr = errors.New("dynamodb unavailable")

	playDecisiveMatch(t, match)

	// Profiles were still updated and the terminal event still went out.
	assert.Equal(t, 1216, storage.savedProfile("p1").RapidFireRating)
	_, ok := conn1.lastOfType("match_finished")
	assert.True(t, ok)
}
