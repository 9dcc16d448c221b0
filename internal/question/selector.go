// Package question draws the fixed-size question set for a match and caches
// the active pool in front of the backing table.
package question

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/codeclash-vn/rapidfire/internal/domains/entities"
)

// ErrPoolExhausted means no eligible question exists at all. A short pool is
// not an error; the selector then returns everything it has.
var ErrPoolExhausted = errors.New("question pool exhausted")

// Loader fetches the active question pool from cache or backing store.
type Loader interface {
	FetchActiveQuestions(ctx context.Context) ([]entities.Question, error)
}

type Selector struct {
	loader Loader

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSelector(loader Loader) *Selector {
	return &Selector{
		loader: loader,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Select draws up to count distinct active questions, uniformly at random.
// Domain quotas, when given, are honored subject to availability; remaining
// slots are filled from the rest of the pool.
func (s *Selector) Select(
	ctx context.Context,
	count int,
	quotas map[string]int,
) ([]entities.Question, error) {
	pool, err := s.loader.FetchActiveQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load question pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, ErrPoolExhausted
	}

	s.mu.Lock()
	s.rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	s.mu.Unlock()

	if count > len(pool) {
		count = len(pool)
	}

	selected := make([]entities.Question, 0, count)
	used := make(map[string]bool, count)

	// Quota pass first, then top up from whatever is left.
	for domain, quota := range quotas {
		for _, candidate := range pool {
			if quota == 0 || len(selected) == count {
				break
			}
			if candidate.Domain != domain || used[candidate.QuestionId] {
				continue
			}
			selected = append(selected, candidate)
			used[candidate.QuestionId] = true
			quota--
		}
	}
	for _, candidate := range pool {
		if len(selected) == count {
			break
		}
		if used[candidate.QuestionId] {
			continue
		}
		selected = append(selected, candidate)
		used[candidate.QuestionId] = true
	}
	return selected, nil
}

// Resolve maps an already-persisted question set back to full questions,
// preserving order. Used when a match runtime is rebuilt for a reconnect.
func (s *Selector) Resolve(ctx context.Context, questionIds []string) ([]entities.Question, error) {
	pool, err := s.loader.FetchActiveQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load question pool: %w", err)
	}
	byId := make(map[string]entities.Question, len(pool))
	for _, question := range pool {
		byId[question.QuestionId] = question
	}
	resolved := make([]entities.Question, 0, len(questionIds))
	for _, id := range questionIds {
		question, ok := byId[id]
		if !ok {
			return nil, fmt.Errorf("question %s no longer in pool: %w", id, ErrPoolExhausted)
		}
		resolved = append(resolved, question)
	}
	return resolved, nil
}
