package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "vitalquiz",
		Short:         "Vital point flashcard quiz server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newLoadCmd(&configPath))
	root.AddCommand(newStatsCmd(&configPath))
	return root
}

// openStore loads config and returns a migrated database.
func openStore(configPath string) (*Config, *gorm.DB, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	if err := AutoMigrate(db); err != nil {
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return cfg, db, nil
}

func newServeCmd(configPath *string) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, db, err := openStore(*configPath)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			if err := seedIfEmpty(db, cfg.CatalogPath); err != nil {
				return err
			}

			eng := NewEngine(db, cfg.Seed)
			r := newRouter(eng, cfg)
			log.Printf("Listening on :%s (driver=%s)", cfg.Port, cfg.DBDriver)
			return r.Run(":" + cfg.Port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	return cmd
}

// seedIfEmpty loads the catalog file into an empty item table. A missing
// file is not an error; the server then runs with an empty catalog.
func seedIfEmpty(db *gorm.DB, path string) error {
	isEmpty, err := IsItemTableEmpty(db)
	if err != nil {
		return fmt.Errorf("count items: %w", err)
	}
	if !isEmpty {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		log.Printf("No catalog file at %s; running with empty catalog", path)
		return nil
	}
	report, err := LoadCatalogJSON(db, path)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	log.Printf("Seeded %d items from %s", report.Created, path)
	return nil
}

func newLoadCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "load <catalog.json>",
		Short: "Create or update catalog items from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openStore(*configPath)
			if err != nil {
				return err
			}
			report, err := LoadCatalogJSON(db, args[0])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "items loaded (created: %d, updated: %d)\n", report.Created, report.Updated)
			return nil
		},
	}
}

func newStatsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print learning statistics and weak points",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := openStore(*configPath)
			if err != nil {
				return err
			}
			s, err := ComputeStatistics(db)
			if err != nil {
				return err
			}
			weak, err := WeakPoints(db, weakPointLimit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "attempts: %d  correct: %d  incorrect: %d  accuracy: %.1f%%\n",
				s.TotalAttempts, s.TotalCorrect, s.TotalIncorrect, s.AccuracyRate)
			for i, w := range weak {
				fmt.Fprintf(out, "%2d. %s %s (%s)  %d/%d wrong\n",
					i+1, w.Item.Number, w.Item.Name, w.Item.Reading, w.IncorrectCount, w.Attempts())
			}
			return nil
		},
	}
}

func newRouter(eng *Engine, cfg *Config) *gin.Engine {
	r := gin.Default()

	// --- CORS: configured origins + any localhost:port ---
	allowed := map[string]bool{}
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			if allowed[origin] {
				return true
			}
			// allow any http://localhost:PORT during development
			return strings.HasPrefix(origin, "http://localhost:")
		},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })

	api := r.Group("/api/v1")
	{
		// Catalog
		api.GET("/items", ListItems(eng))
		api.GET("/items/:id", GetItem(eng))

		// Sessions
		api.POST("/sessions", StartSession(eng))
		api.GET("/sessions", ListSessions(eng))

		sess := api.Group("/sessions/:id", RequireSession(eng))
		sess.GET("", GetSession(eng))
		sess.DELETE("", DeleteSession(eng))
		sess.GET("/current", CurrentQuestionHandler(eng))
		sess.POST("/answer", SubmitAnswer(eng))
		sess.POST("/pause", PauseSession(eng))
		sess.POST("/resume", ResumeSession(eng))
		sess.POST("/complete", CompleteSession(eng))

		// History & stats
		api.GET("/history", ListHistory(eng))
		api.GET("/history/statistics", Stats(eng))
		api.GET("/history/weak-points", ListWeakPoints(eng))
		api.GET("/history/test-results", ListTestResults(eng))
	}
	return r
}
