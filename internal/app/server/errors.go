package server

import "errors"

// Wire-level status codes surfaced to the offending connection only.
var (
	ErrStatusAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrStatusMatchNotFound        = "MATCH_NOT_FOUND"
	ErrStatusMatchNotOngoing      = "MATCH_NOT_ONGOING"
	ErrStatusPlayerNotInMatch     = "PLAYER_NOT_IN_MATCH"
	ErrStatusDuplicateAnswer      = "DUPLICATE_ANSWER"
	ErrStatusTimeExpired          = "TIME_EXPIRED"
	ErrStatusInvalidQuestion      = "INVALID_QUESTION"
	ErrStatusInvalidPayload       = "INVALID_PAYLOAD"
	ErrStatusPoolExhausted        = "POOL_EXHAUSTED"
)

var ErrAuthenticationFailed = errors.New("authentication failed")

// wsError is a rejection sent back to the sender; the opponent never sees it.
type wsError struct {
	Code    string
	Message string
}

func (e *wsError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

func newWsError(code, message string) *wsError {
	return &wsError{Code: code, Message: message}
}
