package server

import (
	"sync"

	"go.uber.org/zap"

	"github.com/codeclash-vn/rapidfire/pkg/logging"
)

// matchRegistry is the process-wide store of runtime match state. Entries are
// exclusively owned by this process; a restart loses them all, which the
// reconciliation sweep compensates for. Removal is the single place where an
// entry's timers are cancelled, so nothing can fire against a purged match.
type matchRegistry struct {
	mu      sync.Mutex
	matches map[string]*Match
}

func newMatchRegistry() *matchRegistry {
	return &matchRegistry{
		matches: make(map[string]*Match),
	}
}

func (r *matchRegistry) create(matchId string, match *Match) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.matches[matchId]; exists {
		return false
	}
	r.matches[matchId] = match
	return true
}

func (r *matchRegistry) get(matchId string) (*Match, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	match, ok := r.matches[matchId]
	return match, ok
}

// remove purges an entry, cancelling its timers and stopping its loop first.
func (r *matchRegistry) remove(matchId string) {
	r.mu.Lock()
	match, ok := r.matches[matchId]
	delete(r.matches, matchId)
	r.mu.Unlock()
	if !ok {
		return
	}
	match.close()
	logging.Info("match removed from registry", zap.String("match_id", matchId))
}

func (r *matchRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matches)
}
