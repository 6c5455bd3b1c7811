// Command admintool manages the database schema and staff accounts from the
// command line: migrations, dirty-state recovery and user bootstrap.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/gymdesk/backend/internal/config"
	"github.com/gymdesk/backend/internal/migrations"
	"github.com/gymdesk/backend/internal/models"
	"github.com/gymdesk/backend/internal/store"
)

func main() {
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "migrate":
		log.Printf("Applying migrations...")
		if err := migrations.Up(db); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
		log.Printf("Migrations applied successfully")

	case "reset":
		log.Printf("Resetting schema (all data will be lost)...")
		if err := migrations.Reset(db); err != nil {
			log.Fatalf("failed to reset schema: %v", err)
		}
		log.Printf("Schema reset successfully")

	case "fix":
		log.Printf("Attempting to fix dirty database...")
		if err := migrations.FixDirtyDatabase(db); err != nil {
			log.Fatalf("failed to fix dirty database: %v", err)
		}
		log.Printf("Database fixed successfully")

	case "cleanup":
		cleanupJobs(db, os.Args[2:])

	case "create-user":
		createUser(db, os.Args[2:])

	default:
		usage()
		os.Exit(1)
	}
}

func cleanupJobs(db *sql.DB, args []string) {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	days := fs.Int("days", 30, "delete finished notification jobs older than this many days")
	fs.Parse(args)

	jobs, err := store.NewJobStore(db)
	if err != nil {
		log.Fatalf("failed to create job store: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := jobs.CleanupOldJobs(ctx, time.Duration(*days)*24*time.Hour)
	if err != nil {
		log.Fatalf("failed to clean up notification jobs: %v", err)
	}

	log.Printf("Removed %d finished notification jobs older than %d days", removed, *days)
}

func createUser(db *sql.DB, args []string) {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	username := fs.String("username", "", "login name (required)")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "password (required)")
	admin := fs.Bool("admin", false, "grant the admin role")
	fs.Parse(args)

	if *username == "" || *password == "" {
		log.Fatalf("create-user: -username and -password are required")
	}

	s, err := store.New(db)
	if err != nil {
		log.Fatalf("failed to create store: %v", err)
	}

	role := models.RoleStaff
	if *admin {
		role = models.RoleAdmin
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := s.CreateUser(ctx, *username, *name, *password, role)
	if err != nil {
		log.Fatalf("failed to create user: %v", err)
	}

	log.Printf("Created %s user %q (%s)", user.Role, user.Username, user.ID)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command>\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  migrate        apply pending schema migrations")
	fmt.Fprintln(os.Stderr, "  reset          drop and recreate the schema")
	fmt.Fprintln(os.Stderr, "  fix            clear a dirty migration state")
	fmt.Fprintln(os.Stderr, "  cleanup        delete old finished notification jobs")
	fmt.Fprintln(os.Stderr, "  create-user    create a staff or admin account")
}
