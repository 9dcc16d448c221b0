package server

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/codeclash-vn/rapidfire/internal/domains/dtos"
	"github.com/codeclash-vn/rapidfire/internal/domains/entities"
	"github.com/codeclash-vn/rapidfire/internal/settle"
	"github.com/codeclash-vn/rapidfire/pkg/logging"
)

// Handler for finalizing a match. Runs once per match, guarded by the match's
// settled flag. Ordering matters: ratings are reloaded fresh, the decision is
// applied, both profiles then the match document are persisted, the terminal
// event goes out, and only then is the runtime purged.
func (s *server) handleSettlement(match *Match, trigger string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	profiles := make([]*entities.UserProfile, 0, 2)
	for _, matchPlayer := range match.doc.Players {
		profile, err := s.storage.GetOrCreateUserProfile(ctx, matchPlayer.PlayerId)
		if err != nil {
			// Without fresh ratings there is nothing sane to settle with. The
			// match stays persisted as ongoing and the sweep picks it up.
			logging.Error("settlement failed to load profile",
				zap.String("match_id", match.id),
				zap.String("player_id", matchPlayer.PlayerId),
				zap.Error(err),
			)
			s.registry.remove(match.id)
			return
		}
		profiles = append(profiles, &profile)
	}

	decision := settle.Apply(
		&match.doc,
		[2]*entities.UserProfile{profiles[0], profiles[1]},
		s.config.KFactor,
		time.Now(),
	)

	// One player's failed update must not skip the other's.
	for _, profile := range profiles {
		if err := s.storage.PutUserProfile(ctx, *profile); err != nil {
			logging.Error("settlement failed to persist profile",
				zap.String("match_id", match.id),
				zap.String("player_id", profile.UserId),
				zap.Error(err),
			)
		}
	}
	if err := s.storage.PutMatch(ctx, match.doc); err != nil {
		// Persisted status stays ongoing; the reconciliation sweep will
		// finish the job rather than leaving the match stuck.
		logging.Error("settlement failed to persist match",
			zap.String("match_id", match.id),
			zap.Error(err),
		)
	}

	match.notifyPlayers(response{
		Type: "match_finished",
		Data: dtos.MatchFinishedResponseFromEntity(match.doc),
	})

	s.registry.remove(match.id)
	logging.Info("match settled",
		zap.String("match_id", match.id),
		zap.String("trigger", trigger),
		zap.String("result", string(decision.Result)),
		zap.String("winner", decision.Winner),
	)
}
