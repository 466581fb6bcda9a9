package realtime

import (
	"sync"

	"github.com/coder/websocket"

	"github.com/aidar/taskflow/internal/domain"
)

// closer закрывает websocket соединение с кодом статуса
type closer interface {
	Close(code websocket.StatusCode, reason string) error
}

// Conn представляет аутентифицированное соединение, зарегистрированное в Hub.
// Исходящие кадры проходят через буферизованную очередь send в порядке публикации.
type Conn struct {
	id       string
	identity domain.Identity
	ws       closer

	send chan []byte
	done chan struct{}
	once sync.Once

	// rooms защищено мьютексом Hub
	rooms map[int64]struct{}
}

// NewConn создает соединение с очередью заданного размера
func NewConn(id string, identity domain.Identity, ws closer, buffer int) *Conn {
	if buffer <= 0 {
		buffer = 1
	}
	return &Conn{
		id:       id,
		identity: identity,
		ws:       ws,
		send:     make(chan []byte, buffer),
		done:     make(chan struct{}),
		rooms:    make(map[int64]struct{}),
	}
}

// Done закрывается после удаления соединения из Hub
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// enqueue кладет кадр в очередь; при переполнении кадр отбрасывается
func (c *Conn) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// stop помечает соединение завершенным и закрывает websocket, если задан код
func (c *Conn) stop(code websocket.StatusCode, reason string) {
	c.once.Do(func() {
		close(c.done)
	})
	if c.ws != nil && code != 0 {
		_ = c.ws.Close(code, reason)
	}
}
