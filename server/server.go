package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"podcastr/cache"
	"podcastr/config"
	"podcastr/core/auth"
	"podcastr/core/episodes"
	"podcastr/core/hub"
	"podcastr/core/player"
	"podcastr/core/session"
	"podcastr/logger"
	"podcastr/model"
	"podcastr/storage"

	"github.com/gorilla/mux"
)

// EpisodeService 页面和播放接口使用的剧集读取服务
type EpisodeService interface {
	Latest(ctx context.Context) ([]model.Episode, error)
	Episode(ctx context.Context, id string) (model.Episode, error)
}

// App 持有 HTTP 层需要的所有依赖
type App struct {
	cfg       *config.Config
	episodes  EpisodeService
	sessions  *session.Manager
	tokens    *auth.TokenIssuer
	hub       *hub.Hub
	templates *Templates
	now       func() time.Time
}

// NewApp 创建 App，会话状态变化会通过 hub 推送给订阅者
func NewApp(cfg *config.Config, svc EpisodeService, h *hub.Hub, templates *Templates, opts ...player.Option) *App {
	sessions := session.NewManager(cfg.SessionIdleTTL,
		session.WithPlayerOptions(opts...),
		session.WithChangeFunc(func(sessionID string, snap player.Snapshot) {
			if err := h.Publish(sessionID, hub.MsgTypeState, snap); err != nil {
				logger.Warn("failed to publish player state", logger.String("session", sessionID), logger.ErrorField(err))
			}
		}),
	)

	return &App{
		cfg:       cfg,
		episodes:  svc,
		sessions:  sessions,
		tokens:    auth.NewTokenIssuer(cfg.SessionSecret, cfg.SessionIdleTTL),
		hub:       h,
		templates: templates,
		now:       time.Now,
	}
}

// Router 注册所有路由
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware, loggingMiddleware)

	router.HandleFunc("/healthz", a.HealthHandler).Methods(http.MethodGet)
	router.PathPrefix("/static/").Handler(NewStaticHandler(a.cfg))

	// 以下路由都需要会话
	app := router.NewRoute().Subrouter()
	app.Use(a.sessionMiddleware)

	app.HandleFunc("/", a.HomeHandler).Methods(http.MethodGet)
	app.HandleFunc("/episodes/{id}", a.EpisodeHandler).Methods(http.MethodGet)

	app.HandleFunc("/api/player", a.GetPlayerHandler).Methods(http.MethodGet)
	app.HandleFunc("/api/player/{action}", a.PlayerActionHandler).Methods(http.MethodPost)
	app.HandleFunc("/ws/player", a.WebSocketHandler)

	router.NotFoundHandler = http.HandlerFunc(a.NotFoundHandler)
	return router
}

// HealthHandler 健康检查
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": a.sessions.Len(),
	})
}

// Start initializes and starts the HTTP server.
func Start(cfg *config.Config) error {
	var episodeCache episodes.Cache
	if cfg.RedisEnabled() {
		if err := cache.ConnectRedis(cfg); err != nil {
			logger.Warn("Redis unavailable, running without episode cache", logger.ErrorField(err))
		} else {
			defer cache.CloseRedis()
			episodeCache = cache.NewEpisodeCache(cache.RedisClient)
			logger.Info("Successfully connected to Redis")
		}
	}

	if cfg.MinioEnabled() {
		if err := storage.InitMinio(cfg); err != nil {
			logger.Warn("MinIO unavailable, serving embedded assets", logger.ErrorField(err))
		}
	}

	templates, err := LoadTemplates(cfg.TemplateDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TemplateDir != "" {
		go func() {
			if err := templates.Watch(ctx); err != nil {
				logger.Error("template watcher stopped", logger.ErrorField(err))
			}
		}()
	}

	client := episodes.NewClient(cfg.EpisodesAPIURL, cfg.EpisodesAPITimeout)
	svc := episodes.NewService(client, episodeCache, episodes.ServiceConfig{
		Limit:             cfg.EpisodesLimit,
		ListRevalidate:    cfg.ListRevalidate,
		EpisodeRevalidate: cfg.EpisodeRevalidate,
	})

	h := hub.New()
	go h.Run()
	defer h.Stop()

	app := NewApp(cfg, svc, h, templates)
	go app.sessions.Run(ctx, 10*time.Minute)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      app.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			logger.String("addr", cfg.HTTPAddr),
			logger.String("episodesAPI", client.BaseURL()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
