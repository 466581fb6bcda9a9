package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/taskflow/internal/domain"
)

func newTestHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func registerConn(t *testing.T, hub *Hub, id string, buffer int) *Conn {
	t.Helper()
	conn := NewConn(id, domain.Identity{UserID: 1, Username: "admin"}, nil, buffer)
	require.NoError(t, hub.Register(conn))
	return conn
}

func decodeFrame(t *testing.T, frame []byte) Message {
	t.Helper()
	var msg Message
	require.NoError(t, json.Unmarshal(frame, &msg))
	return msg
}

func TestHub_PublishReachesOnlyRoomMembers(t *testing.T) {
	hub := newTestHub()
	a := registerConn(t, hub, "a", 8)
	b := registerConn(t, hub, "b", 8)
	c := registerConn(t, hub, "c", 8)

	require.NoError(t, hub.Join("a", 1))
	require.NoError(t, hub.Join("b", 1))
	require.NoError(t, hub.Join("c", 2))

	hub.Publish(1, domain.NewTaskCreated(&domain.Task{ID: 10, ProjectID: 1, Title: "x"}))

	for _, conn := range []*Conn{a, b} {
		require.Len(t, conn.send, 1)
		msg := decodeFrame(t, <-conn.send)
		assert.Equal(t, domain.EventTaskCreated, msg.Event)
	}
	assert.Empty(t, c.send)
}

func TestHub_PublishToEmptyRoomIsNoop(t *testing.T) {
	hub := newTestHub()
	conn := registerConn(t, hub, "a", 8)

	hub.Publish(42, domain.NewTaskDeleted(1, 42))

	assert.Empty(t, conn.send)
	assert.Equal(t, 0, hub.RoomSize(42))
}

func TestHub_PreservesPublishOrder(t *testing.T) {
	hub := newTestHub()
	conn := registerConn(t, hub, "a", 8)
	require.NoError(t, hub.Join("a", 1))

	for id := int64(1); id <= 5; id++ {
		hub.Publish(1, domain.NewTaskUpdated(&domain.Task{ID: id, ProjectID: 1}))
	}

	for id := int64(1); id <= 5; id++ {
		msg := decodeFrame(t, <-conn.send)
		var task domain.Task
		require.NoError(t, json.Unmarshal(msg.Data, &task))
		assert.Equal(t, id, task.ID)
	}
}

func TestHub_FullQueueDropsEvent(t *testing.T) {
	hub := newTestHub()
	conn := registerConn(t, hub, "a", 1)
	require.NoError(t, hub.Join("a", 1))

	hub.Publish(1, domain.NewTaskDeleted(1, 1))
	hub.Publish(1, domain.NewTaskDeleted(2, 1))

	require.Len(t, conn.send, 1)
	msg := decodeFrame(t, <-conn.send)
	assert.JSONEq(t, `{"id":1,"projectId":1}`, string(msg.Data))
}

func TestHub_JoinIsIdempotentAndSupportsManyRooms(t *testing.T) {
	hub := newTestHub()
	registerConn(t, hub, "a", 8)

	require.NoError(t, hub.Join("a", 3))
	require.NoError(t, hub.Join("a", 1))
	require.NoError(t, hub.Join("a", 3))

	assert.Equal(t, []int64{1, 3}, hub.JoinedRooms("a"))
	assert.Equal(t, 1, hub.RoomSize(3))
	assert.ErrorIs(t, hub.Join("missing", 1), ErrUnknownConnection)
}

func TestHub_UnregisterCleansAllRooms(t *testing.T) {
	hub := newTestHub()
	conn := registerConn(t, hub, "a", 8)
	registerConn(t, hub, "b", 8)
	require.NoError(t, hub.Join("a", 1))
	require.NoError(t, hub.Join("a", 2))
	require.NoError(t, hub.Join("b", 2))

	hub.Unregister("a")
	hub.Unregister("a")

	assert.Nil(t, hub.JoinedRooms("a"))
	assert.Equal(t, 0, hub.RoomSize(1))
	assert.Equal(t, 1, hub.RoomSize(2))
	assert.Equal(t, 1, hub.ConnectionCount())

	select {
	case <-conn.Done():
	default:
		t.Fatal("connection must be stopped after unregister")
	}

	hub.Publish(2, domain.NewTaskDeleted(1, 2))
	assert.Empty(t, conn.send)
}

func TestHub_CloseRejectsNewConnections(t *testing.T) {
	hub := newTestHub()
	conn := registerConn(t, hub, "a", 8)
	require.NoError(t, hub.Join("a", 1))

	hub.Close()

	assert.Equal(t, 0, hub.ConnectionCount())
	assert.Equal(t, 0, hub.RoomSize(1))
	<-conn.Done()

	err := hub.Register(NewConn("b", domain.Identity{}, nil, 1))
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestParseProjectID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{raw: `7`, want: 7},
		{raw: `"12"`, want: 12},
		{raw: `"abc"`, wantErr: true},
		{raw: `0`, wantErr: true},
		{raw: `-3`, wantErr: true},
		{raw: `1.5`, wantErr: true},
		{raw: `null`, wantErr: true},
		{raw: `{"id":1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseProjectID(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidProjectID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
