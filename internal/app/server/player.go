package server

import "sync"

type Status uint8

const (
	INIT Status = iota
	CONNECTED
	DISCONNECTED
)

func (s Status) String() string {
	switch s {
	case INIT:
		return "INIT"
	case CONNECTED:
		return "CONNECTED"
	case DISCONNECTED:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// wsConn is the connection surface the engine writes to. *websocket.Conn
// satisfies it; tests substitute a recorder.
type wsConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// player is the connection-side view of a match participant. Scores and
// answers live on the match document, not here.
type player struct {
	Id     string
	Conn   wsConn
	Status Status

	mu *sync.Mutex
}

func newPlayer(conn wsConn, playerId string) *player {
	return &player{
		Id:     playerId,
		Conn:   conn,
		Status: INIT,
		mu:     new(sync.Mutex),
	}
}

func (p *player) setConn(conn wsConn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if conn == nil {
		p.Status = DISCONNECTED
	} else {
		p.Status = CONNECTED
	}
	p.Conn = conn
}

func (p *player) connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Status == CONNECTED
}

func (p *player) writeJson(msg interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Conn == nil {
		return nil
	}
	return p.Conn.WriteJSON(msg)
}

func (p *player) closeConn() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Conn != nil {
		p.Conn.Close()
	}
}
