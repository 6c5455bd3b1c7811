package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/gymdesk/backend/internal/billing"
	"github.com/gymdesk/backend/internal/config"
	"github.com/gymdesk/backend/internal/httpserver"
	"github.com/gymdesk/backend/internal/metrics"
	"github.com/gymdesk/backend/internal/migrations"
	"github.com/gymdesk/backend/internal/notify"
	"github.com/gymdesk/backend/internal/store"
	"github.com/gymdesk/backend/internal/worker"
)

func main() {
	// Best-effort: load environment variables from .env-style files in local
	// development. These calls are safe to ignore in production environments.
	_ = godotenv.Load(
		"../.env",
		".env",
	)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	logDBTarget(cfg.DatabaseURL)
	configureDB(db)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	if err := runMigrationsWithDirtyFix(db); err != nil {
		log.Fatalf("failed to apply database migrations: %v", err)
	}

	metrics.Register()

	s, err := store.New(db)
	if err != nil {
		log.Fatalf("failed to create store: %v", err)
	}
	members, err := store.NewMemberStore(db)
	if err != nil {
		log.Fatalf("failed to create member store: %v", err)
	}
	txns, err := store.NewTransactionStore(db)
	if err != nil {
		log.Fatalf("failed to create transaction store: %v", err)
	}
	expenses, err := store.NewExpenseStore(db)
	if err != nil {
		log.Fatalf("failed to create expense store: %v", err)
	}
	jobs, err := store.NewJobStore(db)
	if err != nil {
		log.Fatalf("failed to create job store: %v", err)
	}

	calculator := billing.NewCalculator(billing.DefaultCatalog())

	var dispatcher *worker.Dispatcher
	if cfg.NotificationsEnabled() {
		dispatcher = worker.New(worker.DefaultConfig(), jobs)
		sender := notify.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppAPIToken)
		worker.RegisterReceiptJobs(dispatcher, sender)
	} else {
		log.Println("notifications disabled: no WhatsApp gateway configured")
	}

	srv := httpserver.New(cfg, httpserver.Deps{
		DB:         db,
		Store:      s,
		Members:    members,
		Txns:       txns,
		Expenses:   expenses,
		Jobs:       jobs,
		Calculator: calculator,
		Dispatcher: dispatcher,
	})

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("graceful shutdown failed: %v", err)
		}
	}()

	log.Printf("backend starting on %s", cfg.ServerAddress)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server exited with error: %v", err)
		os.Exit(1)
	}
}

func configureDB(db *sql.DB) {
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
}

func runMigrationsWithDirtyFix(db *sql.DB) error {
	if err := migrations.Up(db); err != nil {
		if strings.Contains(err.Error(), "Dirty database version") {
			log.Printf("migrations: dirty database detected, attempting to fix...")
			if fixErr := migrations.FixDirtyDatabase(db); fixErr != nil {
				log.Printf("migrations: failed to fix dirty database: %v", fixErr)
				return err
			}
			return migrations.Up(db)
		}
		return err
	}
	return nil
}

func logDBTarget(dsn string) {
	// Avoid logging secrets: only log hostname + database path.
	u, err := url.Parse(dsn)
	if err != nil {
		log.Printf("db: configured (dsn parse error: %v)", err)
		return
	}
	log.Printf("db: host=%s db=%s", u.Hostname(), strings.TrimPrefix(u.Path, "/"))
}
