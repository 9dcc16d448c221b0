package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/codeclash-vn/rapidfire/internal/domains/dtos"
	"github.com/codeclash-vn/rapidfire/internal/domains/entities"
	"github.com/codeclash-vn/rapidfire/internal/question"
	"github.com/codeclash-vn/rapidfire/pkg/logging"
)

// QuestionSource draws or re-resolves a match's question set.
type QuestionSource interface {
	Select(ctx context.Context, count int, quotas map[string]int) ([]entities.Question, error)
	Resolve(ctx context.Context, questionIds []string) ([]entities.Question, error)
}

type MatchConfig struct {
	TimeLimit         time.Duration
	TotalQuestions    int
	BroadcastInterval time.Duration
	DisconnectGrace   time.Duration
	DomainQuotas      map[string]int
}

type commandKind uint8

const (
	cmdJoin commandKind = iota
	cmdAnswer
	cmdSkip
	cmdClientTimeout
	cmdChat
	cmdDisconnect
	cmdDeadline
	cmdAbandoned
	cmdBroadcast
)

type command struct {
	kind           commandKind
	playerId       string
	conn           wsConn
	questionIndex  int
	selectedOption int
	message        string
}

type response struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type errorResponse struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// Match is the runtime state of one active match. The doc field mirrors the
// persisted match document and is mutated only by the match's own command
// loop, so handlers never race on it. Timers re-enter through the command
// channel instead of touching state directly.
type Match struct {
	id        string
	doc       entities.Match
	questions []entities.Question
	players   []*player
	config    MatchConfig

	cmdCh chan command
	done  chan struct{}

	countdown *time.Timer
	ticker    *time.Ticker
	grace     *time.Timer

	questionSource QuestionSource
	saveHandler    func(*Match)
	settleHandler  func(*Match, string)
	abortHandler   func(*Match, string)

	settled   bool
	closeOnce sync.Once
	mu        sync.Mutex
}

func (m *Match) start() {
	for {
		select {
		case <-m.done:
			return
		case cmd := <-m.cmdCh:
			m.dispatch(cmd)
		}
	}
}

// enqueue hands a command to the match loop. Safe after shutdown: a closed
// match drops the command instead of blocking or panicking.
func (m *Match) enqueue(cmd command) {
	select {
	case <-m.done:
	case m.cmdCh <- cmd:
	}
}

func (m *Match) dispatch(cmd command) {
	switch cmd.kind {
	case cmdJoin:
		m.handleJoin(cmd.playerId, cmd.conn)
	case cmdAnswer:
		if err := m.applyAnswer(cmd.playerId, cmd.questionIndex, cmd.selectedOption, false); err != nil {
			m.rejectPlayer(cmd.playerId, err)
		}
	case cmdSkip:
		if err := m.applyAnswer(cmd.playerId, cmd.questionIndex, entities.SkippedOption, true); err != nil {
			m.rejectPlayer(cmd.playerId, err)
		}
	case cmdClientTimeout:
		if err := m.applyClientTimeout(cmd.playerId); err != nil {
			m.rejectPlayer(cmd.playerId, err)
		}
	case cmdChat:
		m.forwardChat(cmd.playerId, cmd.message)
	case cmdDisconnect:
		m.handleDisconnect(cmd.playerId)
	case cmdDeadline:
		m.settle("countdown")
	case cmdAbandoned:
		m.settle("abandoned")
	case cmdBroadcast:
		m.broadcastLive()
	}
}

func (m *Match) playerWith(playerId string) (*player, bool) {
	for _, player := range m.players {
		if player.Id == playerId {
			return player, true
		}
	}
	return nil, false
}

func (m *Match) opponentOf(playerId string) (*player, bool) {
	for _, player := range m.players {
		if player.Id != playerId {
			return player, true
		}
	}
	return nil, false
}

func (m *Match) handleJoin(playerId string, conn wsConn) {
	player, exist := m.playerWith(playerId)
	if !exist {
		logging.Error("join from non-participant",
			zap.String("match_id", m.id),
			zap.String("player_id", playerId),
		)
		return
	}
	player.setConn(conn)
	m.stopGraceTimer()

	logging.Info("player connected",
		zap.String("match_id", m.id),
		zap.String("player_id", playerId),
	)

	switch m.doc.Status {
	case entities.MatchWaiting:
		if m.bothConnected() {
			m.transitionToOngoing()
			return
		}
		player.writeJson(response{Type: "match_state", Data: m.snapshotFor(playerId)})
	case entities.MatchOngoing:
		// Reconnect into a running match: resend the full state.
		player.writeJson(response{Type: "match_state", Data: m.snapshotFor(playerId)})
	}
}

func (m *Match) bothConnected() bool {
	for _, player := range m.players {
		if !player.connected() {
			return false
		}
	}
	return true
}

func (m *Match) noneConnected() bool {
	for _, player := range m.players {
		if player.connected() {
			return false
		}
	}
	return true
}

// transitionToOngoing is the waiting -> ongoing edge: draw the question set,
// stamp the start time, persist, arm the timers and announce the start.
func (m *Match) transitionToOngoing() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(m.doc.QuestionSet) == 0 {
		questions, err := m.questionSource.Select(ctx, m.config.TotalQuestions, m.config.DomainQuotas)
		if err != nil {
			logging.Error("failed to select questions",
				zap.String("match_id", m.id),
				zap.Error(err),
			)
			code := ErrStatusMatchNotFound
			if errors.Is(err, question.ErrPoolExhausted) {
				code = ErrStatusPoolExhausted
			}
			m.abortHandler(m, code)
			return
		}
		m.questions = questions
		questionIds := make([]string, 0, len(questions))
		for _, q := range questions {
			questionIds = append(questionIds, q.QuestionId)
		}
		m.doc.QuestionSet = questionIds
		// A short pool shrinks the match rather than failing it.
		m.doc.TotalQuestions = len(questions)
	}

	now := time.Now()
	m.doc.Status = entities.MatchOngoing
	m.doc.StartTime = now
	m.save()

	m.setCountdown(m.config.TimeLimit)
	m.startTicker()

	for _, player := range m.players {
		player.writeJson(response{Type: "match_started", Data: m.snapshotFor(player.Id)})
	}
	logging.Info("match started",
		zap.String("match_id", m.id),
		zap.Int("questions", m.doc.TotalQuestions),
	)
}

// applyAnswer handles both answers and skips; a skip is bookkept identically
// but never moves the score.
func (m *Match) applyAnswer(playerId string, questionIndex, selectedOption int, skip bool) *wsError {
	if m.doc.Status != entities.MatchOngoing {
		return newWsError(ErrStatusMatchNotOngoing, "match is not accepting answers")
	}
	matchPlayer, exist := m.doc.PlayerWithId(playerId)
	if !exist {
		return newWsError(ErrStatusPlayerNotInMatch, "not a participant of this match")
	}
	if questionIndex < 0 || questionIndex >= len(m.questions) {
		return newWsError(ErrStatusInvalidQuestion, "question index out of range")
	}
	if matchPlayer.HasAnswered(questionIndex) {
		return newWsError(ErrStatusDuplicateAnswer, "question already answered or skipped")
	}
	now := time.Now()
	if !now.Before(m.doc.Deadline()) {
		// The countdown may not have fired yet; late answers are still dead.
		return newWsError(ErrStatusTimeExpired, "time budget exhausted")
	}

	currentQuestion := m.questions[questionIndex]
	answer := entities.Answer{
		QuestionIndex:  questionIndex,
		SelectedOption: selectedOption,
		IsSkipped:      skip,
		AnsweredAt:     now,
	}
	if !skip {
		if selectedOption < 0 || selectedOption >= len(currentQuestion.Options) {
			return newWsError(ErrStatusInvalidPayload, "selected option out of range")
		}
		if selectedOption == currentQuestion.CorrectOption() {
			answer.IsCorrect = true
			matchPlayer.Score += 1
			matchPlayer.CorrectAnswers++
		} else {
			matchPlayer.Score -= 0.25
			matchPlayer.WrongAnswers++
		}
	}
	matchPlayer.QuestionsAnswered++
	matchPlayer.Answers = append(matchPlayer.Answers, answer)

	m.save()

	if player, ok := m.playerWith(playerId); ok {
		player.writeJson(response{Type: "answer_result", Data: dtos.AnswerResultResponse{
			QuestionIndex: questionIndex,
			IsCorrect:     answer.IsCorrect,
			IsSkipped:     skip,
			CorrectOption: currentQuestion.CorrectOption(),
			Explanation:   currentQuestion.Explanation,
		}})
	}
	m.broadcastLive()

	if m.doc.Completed() {
		m.settle("completed")
	}
	return nil
}

// applyClientTimeout handles the advisory end signal. The server clock is
// authoritative: an early client signal is ignored, not honored.
func (m *Match) applyClientTimeout(playerId string) *wsError {
	if m.doc.Status != entities.MatchOngoing {
		return newWsError(ErrStatusMatchNotOngoing, "match is not running")
	}
	if _, exist := m.doc.PlayerWithId(playerId); !exist {
		return newWsError(ErrStatusPlayerNotInMatch, "not a participant of this match")
	}
	if time.Now().Before(m.doc.Deadline()) {
		logging.Info("premature client timeout ignored",
			zap.String("match_id", m.id),
			zap.String("player_id", playerId),
		)
		return nil
	}
	m.settle("client_timeout")
	return nil
}

func (m *Match) forwardChat(playerId, message string) {
	if opponent, ok := m.opponentOf(playerId); ok {
		opponent.writeJson(response{Type: "chat", Data: map[string]string{
			"from":    playerId,
			"message": message,
		}})
	}
}

func (m *Match) handleDisconnect(playerId string) {
	player, exist := m.playerWith(playerId)
	if !exist {
		return
	}
	player.setConn(nil)
	logging.Info("player disconnected",
		zap.String("match_id", m.id),
		zap.String("player_id", playerId),
	)

	if !m.noneConnected() {
		// The match keeps running for the remaining player; no pause.
		return
	}
	switch m.doc.Status {
	case entities.MatchWaiting:
		// Nobody left before the match ever started.
		m.abortHandler(m, "")
	case entities.MatchOngoing:
		logging.Info("both players disconnected",
			zap.String("match_id", m.id),
			zap.String("grace", m.config.DisconnectGrace.String()),
		)
		m.startGraceTimer()
	}
}

// settle runs settlement at most once per match, whichever of the countdown,
// the completion check, a client timeout or the abandon grace fires first.
func (m *Match) settle(trigger string) {
	m.mu.Lock()
	if m.settled {
		m.mu.Unlock()
		return
	}
	m.settled = true
	m.mu.Unlock()

	logging.Info("settling match",
		zap.String("match_id", m.id),
		zap.String("trigger", trigger),
	)
	m.settleHandler(m, trigger)
}

func (m *Match) isSettled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settled
}

func (m *Match) save() {
	m.saveHandler(m)
}

func (m *Match) rejectPlayer(playerId string, wsErr *wsError) {
	if player, ok := m.playerWith(playerId); ok {
		player.writeJson(errorResponse{Type: "error", Code: wsErr.Code, Error: wsErr.Message})
	}
}

func (m *Match) broadcastLive() {
	if m.doc.Status != entities.MatchOngoing {
		return
	}
	m.notifyPlayers(response{
		Type: "live_update",
		Data: dtos.LiveUpdateResponseFromEntity(m.doc, time.Until(m.doc.Deadline())),
	})
}

func (m *Match) notifyPlayers(resp response) {
	for _, player := range m.players {
		if err := player.writeJson(resp); err != nil {
			logging.Error("couldn't notify player",
				zap.String("match_id", m.id),
				zap.String("player_id", player.Id),
			)
		}
	}
}

func (m *Match) snapshotFor(playerId string) dtos.MatchSnapshotResponse {
	remaining := time.Duration(m.doc.TimeLimit) * time.Second
	if m.doc.Status == entities.MatchOngoing {
		remaining = time.Until(m.doc.Deadline())
	}
	snapshot := dtos.MatchSnapshotResponse{
		MatchId:          m.id,
		Status:           string(m.doc.Status),
		TotalQuestions:   m.doc.TotalQuestions,
		TimeLimit:        m.doc.TimeLimit,
		StartTime:        m.doc.StartTime,
		RemainingSeconds: int(remaining.Round(time.Second).Seconds()),
		Questions:        dtos.QuestionResponsesFromEntities(m.questions),
	}
	if snapshot.RemainingSeconds < 0 {
		snapshot.RemainingSeconds = 0
	}
	for _, matchPlayer := range m.doc.Players {
		snapshot.Players = append(snapshot.Players, dtos.PlayerStatsResponseFromEntity(matchPlayer))
	}
	if matchPlayer, ok := m.doc.PlayerWithId(playerId); ok {
		snapshot.OwnAnswers = matchPlayer.Answers
	}
	return snapshot
}

// setCountdown arms the authoritative deadline timer.
func (m *Match) setCountdown(d time.Duration) {
	m.countdown = time.AfterFunc(d, func() {
		m.enqueue(command{kind: cmdDeadline})
	})
	logging.Info("countdown set",
		zap.String("match_id", m.id),
		zap.String("duration", d.String()),
	)
}

func (m *Match) startTicker() {
	if m.config.BroadcastInterval <= 0 {
		return
	}
	m.ticker = time.NewTicker(m.config.BroadcastInterval)
	go func() {
		for {
			select {
			case <-m.done:
				return
			case <-m.ticker.C:
				m.enqueue(command{kind: cmdBroadcast})
			}
		}
	}()
}

func (m *Match) startGraceTimer() {
	m.stopGraceTimer()
	m.grace = time.AfterFunc(m.config.DisconnectGrace, func() {
		m.enqueue(command{kind: cmdAbandoned})
	})
}

func (m *Match) stopGraceTimer() {
	if m.grace != nil {
		m.grace.Stop()
		m.grace = nil
	}
}

// close cancels every timer and stops the command loop. Called exactly once,
// by registry removal.
func (m *Match) close() {
	m.closeOnce.Do(func() {
		if m.countdown != nil {
			m.countdown.Stop()
		}
		if m.ticker != nil {
			m.ticker.Stop()
		}
		m.stopGraceTimer()
		close(m.done)
		for _, player := range m.players {
			player.closeConn()
		}
	})
}
