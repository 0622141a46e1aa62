// Package main provides the operator CLI for deployment and operations tasks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/easeaico/pet-village/internal/config"
	"github.com/easeaico/pet-village/internal/relationship"
	"github.com/easeaico/pet-village/internal/storage"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "migrate":
		migrateCmd(os.Args[2:])
	case "seed":
		seedCmd(os.Args[2:])
	case "validate":
		validateCmd()
	case "version":
		fmt.Printf("pet-village operator v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pet-village operator - Deployment and operations CLI

Usage:
  operator <command> [flags]

Commands:
  migrate     Create or update database tables
  seed        Seed the NPC cast and relationships, then verify them
  validate    Validate environment configuration and store integrity
  version     Show version information
  help        Show this help message

Examples:
  operator migrate              # Create all tables
  operator migrate --dry-run    # List the tables without touching the database
  operator seed                 # Seed the cast (existing rows are kept)
  operator validate             # Check env vars, database and cast rows`)
}

var tables = []string{
	"users", "inventories", "pets", "memorials",
	"npc_states", "npc_relationships",
	"drama_events", "drama_votes", "drama_sessions",
}

// migrateCmd handles the migrate command.
func migrateCmd(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Show what would be migrated without executing")
	_ = fs.Parse(args)

	if *dryRun {
		fmt.Println("Dry run mode - no changes will be made")
		for _, t := range tables {
			fmt.Printf("  - Would migrate %s\n", t)
		}
		return
	}

	store := openStore(loadConfigForOperator().DatabaseURL)
	defer store.Close()

	fmt.Println("Migrating application tables...")
	if err := store.Migrate(context.Background()); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	fmt.Println("  ✓ Application tables migrated")
	fmt.Println("\nMigration completed successfully!")
}

// seedCmd handles the seed command.
func seedCmd(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	migrate := fs.Bool("migrate", true, "Run migrations before seeding")
	_ = fs.Parse(args)

	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	store := openStore(cfg.DatabaseURL)
	defer store.Close()

	ctx := context.Background()
	if *migrate {
		if err := store.Migrate(ctx); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}

	fmt.Println("Seeding NPC cast...")
	if err := store.SeedCast(ctx, relationship.DefaultCast, relationship.ScaleFromConfig(cfg.Relationship)); err != nil {
		log.Fatalf("failed to seed cast: %v", err)
	}
	if err := store.VerifyCast(ctx, relationship.DefaultCast); err != nil {
		log.Fatalf("cast verification failed: %v", err)
	}
	fmt.Printf("  ✓ %d NPCs and %d relationships present\n",
		len(relationship.DefaultCast), len(relationship.Pairs(relationship.DefaultCast)))
}

// validateCmd validates the configuration.
func validateCmd() {
	fmt.Println("Validating configuration...")

	cfg, err := config.Parse()
	if err != nil {
		fmt.Println("  ✗ Configuration is invalid:")
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Printf("    - %s\n", line)
		}
		os.Exit(1)
	}

	settings := []struct {
		name   string
		envVar string
		value  string
	}{
		{"Database URL", "DATABASE_URL", maskDatabaseURL(cfg.DatabaseURL)},
		{"HTTP Address", "HTTP_ADDR", cfg.HTTPAddr},
		{"Redis Address", "REDIS_ADDR", cfg.RedisAddr},
		{"Drama Channel", "DRAMA_CHANNEL", cfg.DramaChannel},
		{"Trace Endpoint", "TRACE_ENDPOINT", cfg.TraceEndpoint},
		{"Narrator Provider", "NARRATOR_PROVIDER", cfg.Narrator.Provider},
		{"Narrator API Key", "NARRATOR_API_KEY", maskValue(cfg.Narrator.APIKey)},
		{"Admin Token", "ADMIN_TOKEN", maskValue(cfg.AdminToken)},
		{"Decay Interval", "DECAY_INTERVAL", cfg.Decay.Interval.String()},
		{"Drama Interval", "DRAMA_INTERVAL", cfg.Drama.Interval.String()},
		{"Vote Window", "DRAMA_VOTE_WINDOW", cfg.Drama.VoteWindow.String()},
	}
	for _, s := range settings {
		if s.value == "" {
			fmt.Printf("  - %s (%s): not set (optional)\n", s.name, s.envVar)
			continue
		}
		fmt.Printf("  ✓ %s (%s): %s\n", s.name, s.envVar, s.value)
	}

	fmt.Println("\nTesting database connection...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Printf("  ✗ Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	fmt.Println("  ✓ Database connection successful")

	if err := store.VerifyCast(ctx, relationship.DefaultCast); err != nil {
		if errors.Is(err, storage.ErrIntegrity) {
			fmt.Println("  ! NPC cast is incomplete, run `operator seed`")
		} else {
			fmt.Printf("  ✗ Failed to verify cast: %v\n", err)
		}
		os.Exit(1)
	}
	fmt.Println("  ✓ NPC cast and relationships present")

	fmt.Println("\nConfiguration validation completed!")
}

// loadConfigForOperator loads config with relaxed validation for operator commands.
func loadConfigForOperator() config.Config {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}
	return config.Config{DatabaseURL: dbURL}
}

func openStore(databaseURL string) *storage.Store {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := storage.NewStore(ctx, databaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return store
}

func maskValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "****" + value[len(value)-4:]
}

func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	pw, ok := u.User.Password()
	if !ok || pw == "" {
		return raw
	}
	return strings.Replace(raw, ":"+pw+"@", ":****@", 1)
}
