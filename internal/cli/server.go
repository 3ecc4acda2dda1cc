package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/config"
	"eduquiz-service/internal/event"
	"eduquiz-service/internal/infra/memory"
	pgstore "eduquiz-service/internal/infra/postgres"
	redisinfra "eduquiz-service/internal/infra/redis"
	"eduquiz-service/internal/player"
	transport "eduquiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores groups the system of record behind the app interfaces.
type stores struct {
	quizzes app.QuizStore
	results app.ResultStore
	loader  memory.QuizLoader
	close   func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, st.loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(st.loader, quizTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	publisher, err := event.NewPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
	if err != nil {
		return err
	}
	defer publisher.Close()

	play := app.NewPlayService(sessions, quizRepo, st.results,
		app.WithTick(config.TTLDuration(cfg.Player.Tick, player.DefaultTick)),
		app.WithEvents(publisher),
	)
	catalog := app.NewCatalogService(st.quizzes, quizRepo, st.results, nil)
	results := app.NewResultsService(st.quizzes, st.results, nil)

	router := transport.NewRouter(
		transport.NewAPIHandler(catalog, play, results),
		transport.NewWSHandler(play),
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
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

// openStores connects Postgres when configured and otherwise falls back to an
// in-memory store seeded with the demo quizzes.
func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.Postgres.URL == "" {
		log.Printf("postgres url not configured, using in-memory store with demo quizzes")
		mem := memory.NewStore(memory.SampleQuizzes()...)
		return stores{quizzes: mem, results: mem, loader: mem, close: func() {}}, nil
	}

	db := openBun(cfg.Postgres.URL)
	if err := migrateDB(ctx, db); err != nil {
		db.Close()
		return stores{}, err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		db.Close()
		return stores{}, err
	}
	store := pgstore.NewStore(db)
	return stores{
		quizzes: store,
		results: store,
		loader:  pgstore.NewQuizLoader(pool),
		close: func() {
			pool.Close()
			db.Close()
		},
	}, nil
}
