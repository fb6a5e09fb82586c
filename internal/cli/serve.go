package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daily-trivia-service/internal/app"
	"daily-trivia-service/internal/config"
	"daily-trivia-service/internal/domain"
	"daily-trivia-service/internal/infra/memory"
	infrapg "daily-trivia-service/internal/infra/postgres"
	infraredis "daily-trivia-service/internal/infra/redis"
	"daily-trivia-service/internal/store"
	"daily-trivia-service/internal/supply"
	transport "daily-trivia-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the trivia service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	days, err := domain.NewDayClock(cfg.ResetAt(), cfg.Timezone())
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	completionTTL := config.TTLDuration(cfg.Cache.CompletionTTL, 25*time.Hour)
	sessionTTL := config.TTLDuration(cfg.Cache.SessionTTL, 25*time.Minute)
	setTTL := config.TTLDuration(cfg.Cache.SetTTL, 30*time.Minute)
	recentTTL := config.TTLDuration(cfg.Cache.RecentTTL, 7*24*time.Hour)
	markerTTL := config.TTLDuration(cfg.Cache.ResetMarkerTTL, 48*time.Hour)

	// The volatile side is Redis when configured, a process-local tier
	// otherwise; the in-process layer always fronts completions.
	var volatile store.Tier = memory.NewTier()
	var claims app.Claimer = memory.NewTier()
	var markers app.MarkerStore = memory.NewTier()
	if redisClient != nil {
		kv := infraredis.NewKV(redisClient)
		volatile = kv
		claims = kv
		markers = kv
	}

	completionOpts := []store.Option[domain.CompletionRecord]{
		store.WithMemory[domain.CompletionRecord](memory.NewTier()),
		store.WithVolatile[domain.CompletionRecord](volatile),
	}
	var completionLister app.CompletionLister
	var historyRecorder app.HistoryRecorder
	var historySource supply.HistorySource
	if pool != nil {
		completionRepo := infrapg.NewCompletionRepo(pool)
		historyRepo := infrapg.NewHistoryRepo(pool)
		completionOpts = append(completionOpts,
			store.WithDurable[domain.CompletionRecord](infrapg.NewCompletionAdapter(completionRepo), true))
		completionLister = completionRepo
		historyRecorder = historyRepo
		historySource = historyRepo
	}

	completionStore := store.New[domain.CompletionRecord]("completion", completionOpts...)
	sessionStore := store.New[domain.QuizSession]("active-session",
		store.WithVolatile[domain.QuizSession](volatile))
	setStore := store.New[domain.QuestionSet]("question-set",
		store.WithVolatile[domain.QuestionSet](volatile))

	var recentSource supply.RecentSource
	var recentRecorder app.RecentRecorder
	if redisClient != nil {
		recent := infraredis.NewRecentSet(redisClient, recentTTL)
		recentSource = recent
		recentRecorder = recent
	}

	endpoints := make([]supply.Endpoint, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		endpoints = append(endpoints, supply.Endpoint{
			Name:    p.Name,
			URL:     p.URL,
			Shape:   p.Shape,
			Timeout: config.TTLDuration(p.Timeout, 12*time.Second),
		})
	}
	supplier := supply.NewService(
		supply.NewGateway(endpoints),
		supply.NewValidator(),
		supply.FallbackBank(),
		historySource,
		recentSource,
		config.TTLDuration(cfg.Supply.PoliteDelay, 500*time.Millisecond),
	)

	completions := app.NewCompletionService(completionStore, days, completionTTL)

	engineCfg := app.Config{
		QuestionTime:     config.TTLDuration(cfg.Quiz.QuestionTime, 30*time.Second),
		ContinuationTime: config.TTLDuration(cfg.Quiz.ContinuationTime, 60*time.Second),
		RevealTime:       config.TTLDuration(cfg.Quiz.RevealTime, 4*time.Second),
		TickInterval:     config.TTLDuration(cfg.Quiz.TickInterval, 2*time.Second),
		SessionTTL:       sessionTTL,
		SetTTL:           setTTL,
	}
	engine := app.NewEngine(engineCfg, sessionStore, setStore, supplier, completions, claims, historyRecorder, recentRecorder)

	if completionLister == nil {
		completionLister = emptyLister{}
	}
	reset := app.NewResetCoordinator(markers, completionLister, days, markerTTL)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	transport.NewHandler(engine, reset).Register(mux)
	mux.HandleFunc("/ws", transport.NewWSFeed(engine).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// emptyLister stands in when no durable store is configured; the daily
// snapshot is simply empty.
type emptyLister struct{}

func (emptyLister) ForDay(_ context.Context, _ string) ([]domain.CompletionRecord, error) {
	return nil, nil
}
