package integration

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	"github.com/aidar/taskflow/internal/app"
	"github.com/aidar/taskflow/internal/client"
	"github.com/aidar/taskflow/internal/config"
)

// TestEnvironment содержит все ресурсы необходимые для интеграционных тестов
type TestEnvironment struct {
	PostgresContainer *postgres.PostgresContainer
	App               *app.App
	Server            *httptest.Server
	BaseURL           string
	DB                *pgxpool.Pool
	ctx               context.Context
}

// SetupTestEnvironment создает и инициализирует полное тестовое окружение.
// Миграции и демо-данные применяет само приложение при старте.
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	ctx := context.Background()

	// Запускаем PostgreSQL контейнер
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("taskflow_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	// Получаем строку подключения
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	cfg := &config.Config{
		Server: config.ServerConfig{
			RequestTimeout: 10 * time.Second,
		},
		Database: config.DatabaseConfig{
			Driver:      config.StoragePostgres,
			URL:         connStr,
			MaxConns:    10,
			MinConns:    1,
			ConnTimeout: 5 * time.Second,
			AutoMigrate: true,
		},
		JWT: config.JWTConfig{
			Secret:          "test-jwt-secret-key-for-integration-tests",
			ExpirationHours: 24,
			BcryptCost:      bcrypt.MinCost,
		},
		Realtime: config.RealtimeConfig{
			PingInterval: time.Second,
			WriteTimeout: time.Second,
			SendBuffer:   32,
		},
		Log:  config.LogConfig{Level: "warn"},
		Seed: config.SeedConfig{Enabled: true},
	}

	// Создаем и инициализируем приложение
	application, err := app.New(cfg)
	require.NoError(t, err, "Failed to create application")

	err = application.Initialize(ctx)
	require.NoError(t, err, "Failed to initialize application")

	server := httptest.NewServer(application.Handler())

	// Создаем подключение к БД для прямых запросов в тестах
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	return &TestEnvironment{
		PostgresContainer: pgContainer,
		App:               application,
		Server:            server,
		BaseURL:           server.URL,
		DB:                pool,
		ctx:               ctx,
	}
}

// Cleanup очищает все тестовые ресурсы
func (te *TestEnvironment) Cleanup(t *testing.T) {
	t.Helper()

	// Останавливаем приложение
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if te.App != nil {
		_ = te.App.Shutdown(shutdownCtx)
	}
	if te.Server != nil {
		te.Server.Close()
	}

	// Закрываем подключение к БД
	if te.DB != nil {
		te.DB.Close()
	}

	// Останавливаем PostgreSQL контейнер
	if te.PostgresContainer != nil {
		_ = te.PostgresContainer.Terminate(te.ctx)
	}
}

// Login возвращает API клиент, авторизованный под указанным пользователем
func (te *TestEnvironment) Login(t *testing.T, username, password string) *client.APIClient {
	t.Helper()

	api := client.NewAPIClient(te.BaseURL, te.Server.Client())
	_, err := api.Login(te.ctx, username, password)
	require.NoError(t, err, "Failed to login as %s", username)
	return api
}
