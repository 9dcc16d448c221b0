package server

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/codeclash-vn/rapidfire/pkg/logging"
)

// Handler for when a user sends a message on an established connection.
func (s *server) handleWebSocketMessage(playerId string, match *Match, payload payload) {
	switch payload.Type {
	case "answer":
		var data answerPayload
		if err := json.Unmarshal(payload.Data, &data); err != nil {
			match.rejectPlayer(playerId, newWsError(ErrStatusInvalidPayload, "malformed answer payload"))
			return
		}
		match.enqueue(command{
			kind:           cmdAnswer,
			playerId:       playerId,
			questionIndex:  data.QuestionIndex,
			selectedOption: data.SelectedOption,
		})
	case "skip":
		var data answerPayload
		if err := json.Unmarshal(payload.Data, &data); err != nil {
			match.rejectPlayer(playerId, newWsError(ErrStatusInvalidPayload, "malformed skip payload"))
			return
		}
		match.enqueue(command{
			kind:          cmdSkip,
			playerId:      playerId,
			questionIndex: data.QuestionIndex,
		})
	case "timeout":
		match.enqueue(command{kind: cmdClientTimeout, playerId: playerId})
	case "chat":
		var data chatPayload
		if err := json.Unmarshal(payload.Data, &data); err != nil {
			return
		}
		match.enqueue(command{kind: cmdChat, playerId: playerId, message: data.Message})
	default:
		logging.Info("invalid payload type:", zap.String("type", payload.Type))
	}
}

// Handler for persisting the live match document after each mutation.
func (s *server) handleSaveMatch(match *Match) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.storage.PutMatch(ctx, match.doc); err != nil {
		logging.Error("failed to save match",
			zap.String("match_id", match.id),
			zap.Error(err),
		)
	}
}

// Handler for a match that cannot start (empty question pool, or everyone
// left the lobby). No settlement runs; the runtime is just torn down.
func (s *server) handleAbort(match *Match, code string) {
	if code != "" {
		for _, player := range match.players {
			player.writeJson(errorResponse{Type: "error", Code: code, Error: "match aborted"})
		}
	}
	s.registry.remove(match.id)
	logging.Info("match aborted",
		zap.String("match_id", match.id),
		zap.String("code", code),
	)
}
