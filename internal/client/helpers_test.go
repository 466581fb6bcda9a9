package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aidar/taskflow/internal/app"
	"github.com/aidar/taskflow/internal/config"
)

// newTestServer поднимает приложение на in-memory хранилище с демо-данными
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Server:   config.ServerConfig{RequestTimeout: 5 * time.Second},
		Database: config.DatabaseConfig{Driver: config.StorageMemory},
		JWT:      config.JWTConfig{Secret: "client-test-secret", ExpirationHours: 1, BcryptCost: bcrypt.MinCost},
		Realtime: config.RealtimeConfig{PingInterval: time.Second, WriteTimeout: time.Second, SendBuffer: 16},
		Log:      config.LogConfig{Level: "error"},
		Seed:     config.SeedConfig{Enabled: true},
	}

	application, err := app.New(cfg)
	require.NoError(t, err)
	require.NoError(t, application.Initialize(context.Background()))

	server := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = application.Shutdown(ctx)
		server.Close()
	})
	return server
}

// loginAdmin возвращает клиент, авторизованный как admin
func loginAdmin(t *testing.T, server *httptest.Server) *APIClient {
	t.Helper()
	api := NewAPIClient(server.URL, server.Client())
	_, err := api.Login(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	return api
}
