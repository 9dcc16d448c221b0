package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/codeclash-vn/rapidfire/internal/domains/entities"
)

// fakeConn records everything written to it.
type fakeConn struct {
	mu       sync.Mutex
	messages []interface{}
	closed   bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) sent() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]interface{}{}, c.messages...)
}

func (c *fakeConn) lastOfType(msgType string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		switch msg := c.messages[i].(type) {
		case response:
			if msg.Type == msgType {
				return msg.Data, true
			}
		case errorResponse:
			if msgType == "error" {
				return msg, true
			}
		}
	}
	return nil, false
}

func (c *fakeConn) countOfType(msgType string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, raw := range c.messages {
		if msg, ok := raw.(response); ok && msg.Type == msgType {
			count++
		}
	}
	return count
}

// fakeStorage is an in-memory Storage and reconcile target.
type fakeStorage struct {
	mu             sync.Mutex
	matches        map[string]entities.Match
	profiles       map[string]entities.UserProfile
	profilePutErr  error
	matchPutErr    error
	profileLoadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		matches:  make(map[string]entities.Match),
		profiles: make(map[string]entities.UserProfile),
	}
}

func (s *fakeStorage) GetMatch(ctx context.Context, matchId string) (entities.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match, ok := s.matches[matchId]
	if !ok {
		return entities.Match{}, fmt.Errorf("match not found")
	}
	return match, nil
}

func (s *fakeStorage) PutMatch(ctx context.Context, match entities.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.matchPutErr != nil {
		return s.matchPutErr
	}
	s.matches[match.MatchId] = cloneMatch(match)
	return nil
}

func (s *fakeStorage) GetOrCreateUserProfile(ctx context.Context, userId string) (entities.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profileLoadErr != nil {
		return entities.UserProfile{}, s.profileLoadErr
	}
	if profile, ok := s.profiles[userId]; ok {
		return profile, nil
	}
	profile := entities.NewUserProfile(userId)
	s.profiles[userId] = profile
	return profile, nil
}

func (s *fakeStorage) PutUserProfile(ctx context.Context, profile entities.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profilePutErr != nil {
		return s.profilePutErr
	}
	s.profiles[profile.UserId] = profile
	return nil
}

func (s *fakeStorage) savedMatch(matchId string) entities.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches[matchId]
}

func (s *fakeStorage) savedProfile(userId string) entities.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[userId]
}

// cloneMatch deep-copies through JSON so stored documents don't alias the
// runtime's slices.
func cloneMatch(match entities.Match) entities.Match {
	raw, _ := json.Marshal(match)
	var copied entities.Match
	_ = json.Unmarshal(raw, &copied)
	return copied
}

// fakeQuestionSource serves a deterministic pool. Option 0 is always correct.
type fakeQuestionSource struct {
	poolSize  int
	selectErr error
}

func (f *fakeQuestionSource) pool() []entities.Question {
	questions := make([]entities.Question, 0, f.poolSize)
	for i := 0; i < f.poolSize; i++ {
		questions = append(questions, entities.Question{
			QuestionId:  fmt.Sprintf("q-%d", i),
			Text:        fmt.Sprintf("question %d", i),
			Domain:      "dsa",
			Explanation: fmt.Sprintf("because %d", i),
			Active:      true,
			Options: []entities.QuestionOption{
				{Text: "right", IsCorrect: true},
				{Text: "wrong"},
				{Text: "wronger"},
				{Text: "wrongest"},
			},
		})
	}
	return questions
}

func (f *fakeQuestionSource) Select(ctx context.Context, count int, quotas map[string]int) ([]entities.Question, error) {
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	pool := f.pool()
	if count > len(pool) {
		count = len(pool)
	}
	return pool[:count], nil
}

func (f *fakeQuestionSource) Resolve(ctx context.Context, questionIds []string) ([]entities.Question, error) {
	byId := make(map[string]entities.Question)
	for _, q := range f.pool() {
		byId[q.QuestionId] = q
	}
	resolved := make([]entities.Question, 0, len(questionIds))
	for _, id := range questionIds {
		q, ok := byId[id]
		if !ok {
			return nil, fmt.Errorf("unknown question %s", id)
		}
		resolved = append(resolved, q)
	}
	return resolved, nil
}

func newTestServer(storage *fakeStorage, questions QuestionSource) *server {
	return &server{
		config: Config{
			MatchDuration:     120 * time.Second,
			TotalQuestions:    10,
			KFactor:           32,
			BroadcastInterval: 0, // no periodic ticker in unit tests
			DisconnectGrace:   25 * time.Millisecond,
		},
		registry:       newMatchRegistry(),
		storage:        storage,
		questionSource: questions,
	}
}

func waitingDoc(matchId string) entities.Match {
	return entities.Match{
		MatchId: matchId,
		Status:  entities.MatchWaiting,
		Players: []entities.MatchPlayer{
			{PlayerId: "p1"},
			{PlayerId: "p2"},
		},
	}
}

// startedMatch runs both joins synchronously and returns the running match
// with both fake connections attached.
func startedMatch(s *server, matchId string) (*Match, *fakeConn, *fakeConn) {
	match := s.newMatch(waitingDoc(matchId))
	s.registry.create(matchId, match)
	conn1, conn2 := &fakeConn{}, &fakeConn{}
	match.handleJoin("p1", conn1)
	match.handleJoin("p2", conn2)
	return match, conn1, conn2
}
