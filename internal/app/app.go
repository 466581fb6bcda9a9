package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aidar/taskflow/internal/config"
	"github.com/aidar/taskflow/internal/handler"
	"github.com/aidar/taskflow/internal/middleware"
	"github.com/aidar/taskflow/internal/realtime"
	"github.com/aidar/taskflow/internal/repository"
	"github.com/aidar/taskflow/internal/repository/memory"
	"github.com/aidar/taskflow/internal/repository/postgres"
	"github.com/aidar/taskflow/internal/service"
)

// App представляет приложение со всеми зависимостями
type App struct {
	config    *config.Config
	db        *pgxpool.Pool
	hub       *realtime.Hub
	server    *http.Server
	logger    *slog.Logger
	logCloser io.Closer
}

// repositories объединяет репозитории выбранного хранилища
type repositories struct {
	users    repository.UserRepository
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
}

// New создает новый экземпляр приложения
func New(cfg *config.Config) (*App, error) {
	logger, closer := newLogger(cfg.Log)
	slog.SetDefault(logger)

	app := &App{
		config:    cfg,
		logger:    logger,
		logCloser: closer,
	}

	return app, nil
}

// newLogger создает JSON логгер; при заданном LOG_FILE пишет в файл с ротацией
func newLogger(cfg config.LogConfig) (*slog.Logger, io.Closer) {
	var out io.Writer = os.Stdout
	var closer io.Closer

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = rotator
		closer = rotator
	}

	h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.SlogLevel()})
	return slog.New(h), closer
}

// Initialize инициализирует все компоненты приложения
func (a *App) Initialize(ctx context.Context) error {
	repos, err := a.setupStorage(ctx)
	if err != nil {
		return err
	}

	if a.config.Seed.Enabled {
		seeder := service.NewSeeder(repos.users, repos.projects, repos.tasks, a.config.JWT.BcryptCost, a.logger)
		if err := seeder.Seed(ctx); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
	}

	// Настраиваем HTTP сервер и роутинг
	a.setupServer(repos)

	a.logger.Info("Application initialized successfully", "storage", a.config.Database.Driver)
	return nil
}

// setupStorage выбирает хранилище согласно STORAGE_DRIVER
func (a *App) setupStorage(ctx context.Context) (*repositories, error) {
	if a.config.Database.Driver == config.StorageMemory {
		store := memory.NewStore()
		a.logger.Warn("Using in-memory storage, data is lost on restart")
		return &repositories{
			users:    store.Users(),
			projects: store.Projects(),
			tasks:    store.Tasks(),
		}, nil
	}

	// Подключаемся к базе данных
	if err := a.connectDB(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if a.config.Database.AutoMigrate {
		if err := postgres.MigratePool(ctx, a.db); err != nil {
			return nil, err
		}
		a.logger.Info("Database migrations applied")
	}

	return &repositories{
		users:    postgres.NewUserRepository(a.db),
		projects: postgres.NewProjectRepository(a.db),
		tasks:    postgres.NewTaskRepository(a.db),
	}, nil
}

// connectDB устанавливает подключение к PostgreSQL с connection pool
func (a *App) connectDB(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(a.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}

	// Настраиваем размеры connection pool
	poolConfig.MaxConns = a.config.Database.MaxConns
	poolConfig.MinConns = a.config.Database.MinConns
	poolConfig.ConnConfig.ConnectTimeout = a.config.Database.ConnTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверяем подключение к БД
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = pool
	a.logger.Info("Connected to database")
	return nil
}

// setupServer инициализирует HTTP роутер и обработчики
func (a *App) setupServer(repos *repositories) {
	a.hub = realtime.NewHub(a.logger)

	// Инициализируем слой сервисов (бизнес-логика)
	authService := service.NewAuthService(
		repos.users,
		a.config.JWT.Secret,
		a.config.JWT.GetExpiration(),
		service.WithBcryptCost(a.config.JWT.BcryptCost),
	)
	projectService := service.NewProjectService(repos.projects, repos.tasks)
	taskService := service.NewTaskService(repos.tasks, repos.projects, repos.users, a.hub)

	// Инициализируем HTTP обработчики
	authHandler := handler.NewAuthHandler(authService)
	projectHandler := handler.NewProjectHandler(projectService)
	taskHandler := handler.NewTaskHandler(taskService)
	statsHandler := handler.NewStatsHandler(projectService)
	wsHandler := realtime.NewHandler(a.hub, authService, realtime.Options{
		PingInterval:   a.config.Realtime.PingInterval,
		WriteTimeout:   a.config.Realtime.WriteTimeout,
		SendBuffer:     a.config.Realtime.SendBuffer,
		OriginPatterns: a.config.Realtime.AllowedOrigins,
	}, a.logger)

	// Инициализируем middleware для JWT авторизации
	authMiddleware := middleware.AuthMiddleware(authService)

	// Настраиваем роутер
	r := chi.NewRouter()

	// Глобальные middleware (применяются ко всем запросам)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Health check для мониторинга
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		handler.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
			"status":      "ok",
			"connections": a.hub.ConnectionCount(),
		})
	})

	// Websocket монтируется вне /api: на него не действует Timeout middleware
	r.Method(http.MethodGet, "/ws", wsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(a.config.Server.RequestTimeout))

		// Публичные эндпоинты (без авторизации)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		// Защищенные эндпоинты (требуют JWT токен в заголовке Authorization)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			r.Get("/auth/me", authHandler.Me)

			// Эндпоинты проектов
			r.Get("/projects", projectHandler.List)
			r.Post("/projects", projectHandler.Create)
			r.Get("/projects/{projectId}", projectHandler.Get)
			r.Get("/projects/{projectId}/stats", statsHandler.GetProjectStats)

			// Эндпоинты задач
			r.Get("/projects/{projectId}/tasks", taskHandler.ListByProject)
			r.Post("/projects/{projectId}/tasks", taskHandler.Create)
			r.Put("/tasks/{id}", taskHandler.Update)
			r.Delete("/tasks/{id}", taskHandler.Delete)
		})
	})

	// Создаем HTTP сервер с настройками таймаутов
	a.server = &http.Server{
		Addr:         a.config.Server.Addr(),
		Handler:      r,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	a.logger.Info("HTTP server configured", "addr", a.server.Addr)
}

// Handler возвращает корневой HTTP обработчик (доступен после Initialize)
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run запускает HTTP сервер
func (a *App) Run() error {
	a.logger.Info("Starting HTTP server", "addr", a.server.Addr)
	return a.server.ListenAndServe()
}

// Shutdown корректно останавливает приложение
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application")

	// Закрываем websocket соединения: http.Server.Shutdown их не ждет
	if a.hub != nil {
		a.hub.Close()
	}

	// Останавливаем HTTP сервер (ждем завершения текущих запросов)
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	// Закрываем подключения к базе данных
	if a.db != nil {
		a.db.Close()
	}

	a.logger.Info("Application stopped gracefully")
	if a.logCloser != nil {
		return a.logCloser.Close()
	}
	return nil
}
