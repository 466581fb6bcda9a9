package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aidar/taskflow/internal/domain"
)

// ErrInvalidProjectID возвращается когда join_project содержит некорректный ID
var ErrInvalidProjectID = errors.New("invalid project id")

// Message представляет кадр realtime канала: {"event": "...", "data": ...}
type Message struct {
	Event domain.EventKind `json:"event"`
	Data  json.RawMessage  `json:"data,omitempty"`
}

// EncodeEvent сериализует событие задачи в кадр
func EncodeEvent(event domain.TaskEvent) ([]byte, error) {
	data, err := json.Marshal(event.Payload())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", event.Kind, err)
	}
	return json.Marshal(Message{Event: event.Kind, Data: data})
}

// EncodeJoin сериализует кадр join_project
func EncodeJoin(projectID int64) ([]byte, error) {
	return json.Marshal(Message{
		Event: domain.EventJoinProject,
		Data:  json.RawMessage(strconv.FormatInt(projectID, 10)),
	})
}

// ParseProjectID принимает ID проекта числом или числовой строкой
func ParseProjectID(raw json.RawMessage) (int64, error) {
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, ErrInvalidProjectID
		}
		id, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, ErrInvalidProjectID
		}
	}
	if id <= 0 {
		return 0, ErrInvalidProjectID
	}
	return id, nil
}
