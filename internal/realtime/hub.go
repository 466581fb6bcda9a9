// Package realtime реализует комнаты проектов и рассылку событий задач по websocket.
package realtime

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/coder/websocket"

	"github.com/aidar/taskflow/internal/domain"
)

var (
	// ErrHubClosed возвращается при регистрации после остановки Hub
	ErrHubClosed = errors.New("realtime hub is closed")

	// ErrUnknownConnection возвращается для незарегистрированного соединения
	ErrUnknownConnection = errors.New("unknown connection")
)

// Hub хранит таблицу комнат проектов и доставляет события их участникам.
// Все изменения таблицы и публикации выполняются под одним мьютексом,
// поэтому порядок событий внутри комнаты совпадает с порядком публикации.
type Hub struct {
	mu     sync.Mutex
	conns  map[string]*Conn
	rooms  map[int64]map[string]*Conn
	closed bool

	logger *slog.Logger
}

// NewHub создает пустой Hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		conns:  make(map[string]*Conn),
		rooms:  make(map[int64]map[string]*Conn),
		logger: logger,
	}
}

// Register добавляет соединение в Hub
func (h *Hub) Register(conn *Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	h.conns[conn.id] = conn

	h.logger.Debug("Realtime connection registered",
		"conn_id", conn.id,
		"user_id", conn.identity.UserID,
		"connections", len(h.conns),
	)
	return nil
}

// Unregister удаляет соединение из всех комнат. Повторный вызов безопасен.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if ok {
		h.removeLocked(conn)
	}
	total := len(h.conns)
	h.mu.Unlock()

	if !ok {
		return
	}
	conn.stop(0, "")
	h.logger.Debug("Realtime connection unregistered", "conn_id", connID, "connections", total)
}

// removeLocked удаляет соединение из таблиц; вызывается под блокировкой
func (h *Hub) removeLocked(conn *Conn) {
	for projectID := range conn.rooms {
		room := h.rooms[projectID]
		delete(room, conn.id)
		if len(room) == 0 {
			delete(h.rooms, projectID)
		}
	}
	conn.rooms = make(map[int64]struct{})
	delete(h.conns, conn.id)
}

// Join добавляет соединение в комнату проекта. Повторный вызов ничего не меняет.
func (h *Hub) Join(connID string, projectID int64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}

	room, ok := h.rooms[projectID]
	if !ok {
		room = make(map[string]*Conn)
		h.rooms[projectID] = room
	}
	room[connID] = conn
	conn.rooms[projectID] = struct{}{}

	h.logger.Debug("Connection joined project room", "conn_id", connID, "project_id", projectID)
	return nil
}

// Publish отправляет событие всем участникам комнаты проекта.
// Комната без участников ничего не получает.
func (h *Hub) Publish(projectID int64, event domain.TaskEvent) {
	frame, err := EncodeEvent(event)
	if err != nil {
		h.logger.Error("Failed to encode realtime event", "event", event.Kind, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conn := range h.rooms[projectID] {
		h.deliverLocked(conn, frame, event.Kind)
	}
}

func (h *Hub) deliverLocked(conn *Conn, frame []byte, kind domain.EventKind) {
	if !conn.enqueue(frame) {
		h.logger.Warn("Dropping realtime event, send queue is full",
			"conn_id", conn.id,
			"event", kind,
		)
	}
}

// JoinedRooms возвращает отсортированный список комнат соединения
func (h *Hub) JoinedRooms(connID string) []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return nil
	}
	rooms := make([]int64, 0, len(conn.rooms))
	for projectID := range conn.rooms {
		rooms = append(rooms, projectID)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i] < rooms[j] })
	return rooms
}

// RoomSize возвращает количество участников комнаты
func (h *Hub) RoomSize(projectID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[projectID])
}

// ConnectionCount возвращает количество зарегистрированных соединений
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close закрывает все соединения со статусом GoingAway и отклоняет новые
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*Conn, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
		h.removeLocked(conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.stop(websocket.StatusGoingAway, "server shutting down")
	}
	h.logger.Info("Realtime hub closed", "connections", len(conns))
}
