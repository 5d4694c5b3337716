package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizpath-service/internal/app"
	"quizpath-service/internal/config"
	"quizpath-service/internal/domain"
	"quizpath-service/internal/infra/memory"
	"quizpath-service/internal/infra/postgres"
	rediscache "quizpath-service/internal/infra/redis"
	transport "quizpath-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the scoring server",
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var store app.Store
	var loader memory.QuizLoader
	if cfg.Postgres.URL != "" {
		db := postgres.Open(cfg.Postgres.URL)
		defer db.Close()
		store = postgres.NewStore(db)

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = postgres.NewQuizLoader(pool)
	} else {
		memStore := memory.NewStore()
		seedSampleData(memStore)
		store = memStore
		loader = memStore
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var content app.QuizContent
	if redisClient != nil {
		content = rediscache.NewQuizContent(redisClient, loader, quizTTL)
	} else {
		content = memory.NewQuizContent(loader, quizTTL)
	}

	engine := app.NewEngine(store, content)
	feed := app.NewProgressFeed()
	wsHandler := transport.NewWSHandler(engine, feed)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", transport.Healthz)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizpath service on :%s", finalPort)
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

// seedSampleData loads a minimal catalog so the no-database mode is usable
// out of the box: one parent, one student, and an assigned three-quiz path.
func seedSampleData(store *memory.Store) {
	parent := store.AddUser(domain.User{Name: "Pat", Role: domain.RoleParent})
	student := store.AddUser(domain.User{Name: "Sam", Role: domain.RoleStudent})

	q1 := store.AddQuiz(domain.Quiz{
		Question:      "What is 2 + 2?",
		Options:       []string{"3", "4", "5"},
		CorrectAnswer: "4",
		Explanation:   "Two plus two makes four.",
		Points:        10,
		CreatorID:     parent.ID,
	})
	q2 := store.AddQuiz(domain.Quiz{
		Question:      "Which planet is closest to the sun?",
		Options:       []string{"Venus", "Mercury", "Mars"},
		CorrectAnswer: "Mercury",
		Explanation:   "Mercury orbits closest to the sun.",
		Points:        10,
		CreatorID:     parent.ID,
	})
	q3 := store.AddQuiz(domain.Quiz{
		Question:      "How many sides does a hexagon have?",
		Options:       []string{"5", "6", "7"},
		CorrectAnswer: "6",
		Explanation:   "Hexagons have six sides.",
		Points:        10,
		CreatorID:     parent.ID,
	})

	path := store.AddPath(domain.Path{
		Name:        "Starter Path",
		Description: "Warm-up questions",
		BonusPoints: 15,
		CreatorID:   parent.ID,
	}, q1.ID, q2.ID, q3.ID)

	engine := app.NewEngine(store, nil)
	if err := engine.AssignPath(context.Background(), parent, student.ID, path.ID, app.AssignOptions{}); err != nil {
		log.Printf("seed: assign sample path: %v", err)
	}
	log.Printf("seeded sample data: student=%d path=%d", student.ID, path.ID)
}
