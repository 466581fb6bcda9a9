package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/realtime"
)

// ErrSocketClosed is returned by Join after Close
var ErrSocketClosed = errors.New("socket is closed")

// SocketOption configures a Socket
type SocketOption func(*Socket)

// WithLogger sets the socket logger
func WithLogger(logger *slog.Logger) SocketOption {
	return func(s *Socket) {
		s.logger = logger
	}
}

// WithBackOff sets the reconnect policy factory. The default is exponential
// backoff starting at 500ms, capped at 30s, retrying until the socket is closed.
func WithBackOff(newBackOff func() backoff.BackOff) SocketOption {
	return func(s *Socket) {
		s.newBackOff = newBackOff
	}
}

// Socket is a realtime connection that reconnects with backoff and
// re-sends join_project for every joined room after each reconnect.
type Socket struct {
	url        string
	newBackOff func() backoff.BackOff
	logger     *slog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	rooms     map[int64]struct{}
	created   []func(domain.Task)
	updated   []func(domain.Task)
	deleted   []func(domain.TaskDeleted)
	connected []func()
	closed    bool
	err       error

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSocket creates a socket for wsURL authenticated with token
func NewSocket(wsURL, token string, opts ...SocketOption) (*Socket, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	s := &Socket{
		url:        u.String(),
		newBackOff: defaultBackOff,
		logger:     slog.Default(),
		rooms:      make(map[int64]struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// WebSocketURL derives the realtime endpoint from an API base URL
func WebSocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// OnCreated registers a task_created handler
func (s *Socket) OnCreated(fn func(domain.Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, fn)
}

// OnUpdated registers a task_updated handler
func (s *Socket) OnUpdated(fn func(domain.Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = append(s.updated, fn)
}

// OnDeleted registers a task_deleted handler
func (s *Socket) OnDeleted(fn func(domain.TaskDeleted)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, fn)
}

// OnConnected registers a handler called after every successful (re)connect
// and after the joins have been sent. Events missed while disconnected are
// not replayed, so this is the place to resync.
func (s *Socket) OnConnected(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = append(s.connected, fn)
}

// Start connects in the background and keeps reconnecting until ctx is
// cancelled or Close is called.
func (s *Socket) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.closed || s.cancel != nil {
		s.mu.Unlock()
		cancel()
		return
	}
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx)
}

// Join subscribes to a project room. The room is remembered and re-joined after reconnects.
func (s *Socket) Join(ctx context.Context, projectID int64) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSocketClosed
	}
	s.rooms[projectID] = struct{}{}
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	return sendJoin(ctx, conn, projectID)
}

// Done is closed when the run loop exits
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

// Err returns the error that stopped the run loop, if any
func (s *Socket) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops reconnecting and closes the connection
func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel == nil {
		close(s.done)
		return nil
	}
	cancel()
	<-s.done
	return nil
}

func (s *Socket) run(ctx context.Context) {
	defer close(s.done)

	for {
		conn, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Error("Realtime socket stopped", "error", err)
				s.setErr(err)
			}
			return
		}

		s.attach(ctx, conn)
		err = s.readLoop(ctx, conn)
		s.detach()
		_ = conn.CloseNow()

		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("Realtime connection lost, reconnecting", "error", err)
	}
}

// dial retries the handshake with backoff. 401 is permanent: the token will not become valid.
func (s *Socket) dial(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn
	operation := func() error {
		c, resp, err := websocket.Dial(ctx, s.url, nil)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusUnauthorized {
				return backoff.Permanent(fmt.Errorf("realtime handshake rejected: %w", domain.ErrUnauthorized))
			}
			return err
		}
		conn = c
		return nil
	}
	notify := func(err error, wait time.Duration) {
		s.logger.Debug("Realtime dial failed", "error", err, "retry_in", wait)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(s.newBackOff(), ctx), notify); err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *Socket) attach(ctx context.Context, conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	rooms := make([]int64, 0, len(s.rooms))
	for projectID := range s.rooms {
		rooms = append(rooms, projectID)
	}
	connected := append([]func(){}, s.connected...)
	s.mu.Unlock()

	for _, projectID := range rooms {
		if err := sendJoin(ctx, conn, projectID); err != nil {
			s.logger.Warn("Failed to join project room", "project_id", projectID, "error", err)
		}
	}
	for _, fn := range connected {
		fn()
	}
}

func (s *Socket) detach() {
	s.mu.Lock()
	s.conn = nil
	s.mu.Unlock()
}

func (s *Socket) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Socket) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var msg realtime.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug("Ignoring malformed frame", "error", err)
			continue
		}
		s.dispatch(msg)
	}
}

func (s *Socket) dispatch(msg realtime.Message) {
	switch msg.Event {
	case domain.EventTaskCreated, domain.EventTaskUpdated:
		var task domain.Task
		if err := json.Unmarshal(msg.Data, &task); err != nil {
			s.logger.Debug("Ignoring malformed task payload", "event", msg.Event, "error", err)
			return
		}
		s.mu.Lock()
		handlers := s.created
		if msg.Event == domain.EventTaskUpdated {
			handlers = s.updated
		}
		handlers = append([]func(domain.Task){}, handlers...)
		s.mu.Unlock()
		for _, fn := range handlers {
			fn(task)
		}
	case domain.EventTaskDeleted:
		var deleted domain.TaskDeleted
		if err := json.Unmarshal(msg.Data, &deleted); err != nil {
			s.logger.Debug("Ignoring malformed task payload", "event", msg.Event, "error", err)
			return
		}
		s.mu.Lock()
		handlers := append([]func(domain.TaskDeleted){}, s.deleted...)
		s.mu.Unlock()
		for _, fn := range handlers {
			fn(deleted)
		}
	default:
		s.logger.Debug("Ignoring unknown event", "event", msg.Event)
	}
}

func sendJoin(ctx context.Context, conn *websocket.Conn, projectID int64) error {
	frame, err := realtime.EncodeJoin(projectID)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, frame)
}
