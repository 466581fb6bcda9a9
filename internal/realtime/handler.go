package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/aidar/taskflow/internal/domain"
	"github.com/aidar/taskflow/internal/middleware"
)

// Options содержит настройки websocket эндпоинта
type Options struct {
	PingInterval   time.Duration // Интервал ping; 0 отключает keepalive
	WriteTimeout   time.Duration // Таймаут записи одного кадра
	SendBuffer     int           // Размер очереди исходящих кадров соединения
	OriginPatterns []string      // Разрешенные Origin для браузерных клиентов
}

// Handler обрабатывает GET /ws: аутентифицирует запрос, выполняет upgrade
// и обслуживает соединение до его закрытия
type Handler struct {
	hub      *Hub
	verifier middleware.TokenVerifier
	opts     Options
	logger   *slog.Logger
}

// NewHandler создает новый Handler
func NewHandler(hub *Hub, verifier middleware.TokenVerifier, opts Options, logger *slog.Logger) *Handler {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		hub:      hub,
		verifier: verifier,
		opts:     opts,
		logger:   logger,
	}
}

// ServeHTTP реализует http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authenticate(r)
	if err != nil {
		middleware.RespondUnauthorized(w, r, "invalid or missing token")
		return
	}

	// Снимаем дедлайны http.Server: соединение живет до закрытия
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.opts.OriginPatterns,
	})
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	conn := NewConn(uuid.NewString(), *identity, ws, h.opts.SendBuffer)
	if err := h.hub.Register(conn); err != nil {
		_ = ws.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	h.logger.Debug("WebSocket connected", "conn_id", conn.id, "user_id", conn.identity.UserID)

	ctx, cancel := context.WithCancel(r.Context())
	defer func() {
		cancel()
		h.hub.Unregister(conn.id)
		_ = ws.CloseNow()
	}()

	go h.writeLoop(ctx, cancel, conn, ws)
	if h.opts.PingInterval > 0 {
		go h.pingLoop(ctx, cancel, ws)
	}

	h.readLoop(ctx, conn, ws)
}

// authenticate берет токен из ?token= или заголовка Authorization
func (h *Handler) authenticate(r *http.Request) (*domain.Identity, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		var ok bool
		token, ok = middleware.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			return nil, domain.ErrUnauthorized
		}
	}
	return h.verifier.ValidateToken(token)
}

// readLoop обрабатывает кадры клиента; любая ошибка чтения завершает соединение
func (h *Handler) readLoop(ctx context.Context, conn *Conn, ws *websocket.Conn) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status == -1 && !errors.Is(err, context.Canceled) {
				h.logger.Debug("WebSocket read failed", "conn_id", conn.id, "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("Ignoring malformed frame", "conn_id", conn.id, "error", err)
			continue
		}

		switch msg.Event {
		case domain.EventJoinProject:
			projectID, err := ParseProjectID(msg.Data)
			if err != nil {
				h.logger.Debug("Ignoring join with invalid project id", "conn_id", conn.id, "data", string(msg.Data))
				continue
			}
			if err := h.hub.Join(conn.id, projectID); err != nil {
				return
			}
		default:
			h.logger.Debug("Ignoring unknown event", "conn_id", conn.id, "event", msg.Event)
		}
	}
}

// writeLoop единственный писатель соединения: отправляет кадры из очереди по порядку
func (h *Handler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *Conn, ws *websocket.Conn) {
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.done:
			return
		case frame := <-conn.send:
			writeCtx, writeCancel := context.WithTimeout(ctx, h.opts.WriteTimeout)
			err := ws.Write(writeCtx, websocket.MessageText, frame)
			writeCancel()
			if err != nil {
				h.logger.Debug("WebSocket write failed", "conn_id", conn.id, "error", err)
				return
			}
		}
	}
}

// pingLoop проверяет живость соединения; неудачный ping закрывает его
func (h *Handler) pingLoop(ctx context.Context, cancel context.CancelFunc, ws *websocket.Conn) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, h.opts.WriteTimeout)
			err := ws.Ping(pingCtx)
			pingCancel()
			if err != nil {
				cancel()
				return
			}
		}
	}
}
