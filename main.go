package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sretter/boardflow/database"
	"github.com/sretter/boardflow/handlers"
	"github.com/sretter/boardflow/services"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "boardflow",
		Short: "Kanban board and coaching server",
		Long: `boardflow serves a kanban task board (columns, categories, tasks),
a team-member roster, and a rule-based coaching feature over HTTP,
backed by SQLite.`,
	}
	rootCmd.AddCommand(serveCmd(), seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and seed the board's columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := LoadEnv(".env"); err != nil {
				return err
			}
			cfg := ConfigFromEnv()

			db, err := database.InitDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Seed(db); err != nil {
				color.Red("seed failed: %v", err)
				return err
			}
			color.Green("database %s seeded", cfg.DBPath)
			return nil
		},
	}
}

func runServer() error {
	if err := LoadEnv(".env"); err != nil {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	cfg := ConfigFromEnv()

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := database.InitDB(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	if err := database.Seed(db); err != nil {
		logger.Fatal("failed to seed database", zap.Error(err))
	}

	// Initialize services
	store := database.NewStore(db)
	boardService := services.NewBoardService(store, services.DefaultRosterColumnID)
	placementService := services.NewPlacementService(store, boardService, logger)
	coachService := services.NewCoachService(store, placementService, logger)

	// Initialize handlers
	boardHandler := handlers.NewBoardHandler(placementService, logger)
	taskHandler := handlers.NewTaskHandler(placementService, store, logger)
	categoryHandler := handlers.NewCategoryHandler(placementService, store, logger)
	teamHandler := handlers.NewTeamHandler(store, logger)
	coachHandler := handlers.NewCoachHandler(coachService, logger)

	// Setup router
	r := mux.NewRouter()
	r.Use(handlers.RequestLogger(logger))

	r.HandleFunc("/api/board", boardHandler.GetBoard).Methods("GET")
	r.HandleFunc("/api/board/refresh", boardHandler.RefreshBoard).Methods("POST")

	r.HandleFunc("/api/tasks", taskHandler.ListTasks).Methods("GET")
	r.HandleFunc("/api/tasks", taskHandler.CreateTask).Methods("POST")
	r.HandleFunc("/api/tasks", taskHandler.UpdateTask).Methods("PUT")
	r.HandleFunc("/api/tasks", taskHandler.DeleteTask).Methods("DELETE")
	r.HandleFunc("/api/tasks/{id}/move", taskHandler.MoveTask).Methods("POST", "PATCH")

	r.HandleFunc("/api/categories", categoryHandler.ListCategories).Methods("GET")
	r.HandleFunc("/api/categories", categoryHandler.CreateCategory).Methods("POST")
	r.HandleFunc("/api/categories", categoryHandler.RenameCategory).Methods("PUT")
	r.HandleFunc("/api/categories", categoryHandler.DeleteCategory).Methods("DELETE")

	r.HandleFunc("/api/team-members", teamHandler.ListMembers).Methods("GET")
	r.HandleFunc("/api/team-members", teamHandler.CreateMember).Methods("POST")
	r.HandleFunc("/api/team-members", teamHandler.UpdateMember).Methods("PUT", "PATCH")
	r.HandleFunc("/api/team-members", teamHandler.DeleteMember).Methods("DELETE")

	r.HandleFunc("/api/coach/conversations", coachHandler.SubmitConversation).Methods("POST")

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods("GET")

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server starting", zap.String("port", cfg.Port), zap.String("db", cfg.DBPath))
	return server.ListenAndServe()
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
