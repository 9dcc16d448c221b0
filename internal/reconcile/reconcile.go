// Package reconcile force-settles matches stranded in the ongoing state.
// Runtime match state is process-local, so a restart mid-match leaves the
// persisted document ongoing forever with no timer to finish it. The sweep
// closes that gap from the persisted answer tallies alone.
package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/codeclash-vn/rapidfire/internal/domains/entities"
	"github.com/codeclash-vn/rapidfire/internal/settle"
	"github.com/codeclash-vn/rapidfire/pkg/logging"
)

type Storage interface {
	FetchStuckMatches(ctx context.Context, cutoff time.Time) ([]entities.Match, error)
	PutMatch(ctx context.Context, match entities.Match) error
	GetOrCreateUserProfile(ctx context.Context, userId string) (entities.UserProfile, error)
	PutUserProfile(ctx context.Context, profile entities.UserProfile) error
}

type Reconciler struct {
	storage Storage
	kFactor int
	grace   time.Duration
	now     func() time.Time
}

// New builds a sweep. grace is how long past its deadline a match must be
// before it is considered stranded rather than about to be settled live.
func New(storage Storage, kFactor int, grace time.Duration) *Reconciler {
	return &Reconciler{
		storage: storage,
		kFactor: kFactor,
		grace:   grace,
		now:     time.Now,
	}
}

// Run settles every stranded match once and reports how many were handled.
// Individual failures are logged and skipped; one bad match must not stall
// the rest of the sweep.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	now := r.now()
	matches, err := r.storage.FetchStuckMatches(ctx, now)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, match := range matches {
		if now.Before(match.Deadline().Add(r.grace)) {
			// Still inside the live window; its own countdown may settle it.
			continue
		}
		if len(match.Players) != 2 {
			logging.Error("stranded match has wrong player count",
				zap.String("match_id", match.MatchId),
				zap.Int("players", len(match.Players)),
			)
			continue
		}
		if err := r.settleMatch(ctx, match, now); err != nil {
			logging.Error("failed to reconcile match",
				zap.String("match_id", match.MatchId),
				zap.Error(err),
			)
			continue
		}
		settled++
	}
	if settled > 0 {
		logging.Info("reconciliation sweep finished", zap.Int("settled", settled))
	}
	return settled, nil
}

func (r *Reconciler) settleMatch(ctx context.Context, match entities.Match, now time.Time) error {
	profile1, err := r.storage.GetOrCreateUserProfile(ctx, match.Players[0].PlayerId)
	if err != nil {
		return err
	}
	profile2, err := r.storage.GetOrCreateUserProfile(ctx, match.Players[1].PlayerId)
	if err != nil {
		return err
	}

	decision := settle.Apply(&match, [2]*entities.UserProfile{&profile1, &profile2}, r.kFactor, now)

	if err := r.storage.PutUserProfile(ctx, profile1); err != nil {
		return err
	}
	if err := r.storage.PutUserProfile(ctx, profile2); err != nil {
		return err
	}
	if err := r.storage.PutMatch(ctx, match); err != nil {
		return err
	}
	logging.Info("stranded match settled",
		zap.String("match_id", match.MatchId),
		zap.String("result", string(decision.Result)),
		zap.String("winner", decision.Winner),
	)
	return nil
}
