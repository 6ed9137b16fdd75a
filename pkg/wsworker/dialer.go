package wsworker

import (
	"github.com/gorilla/websocket"
)

// Conn is the subset of *websocket.Conn the worker depends on, so tests
// can substitute a fake transport without opening a real socket.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens a Conn to a server URL.
type Dialer interface {
	Dial(url string) (Conn, error)
}

// gorillaDialer is the production Dialer, backed by gorilla/websocket.
type gorillaDialer struct{}

func (gorillaDialer) Dial(url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
