package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/stayline/hotel-admin-backend/internal/config"
	"github.com/stayline/hotel-admin-backend/internal/database"
)

// Wipes bookings (and optionally the room/package catalog) from a non-production database.
func main() {
	dbURL := flag.String("database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	includeCatalog := flag.Bool("include-catalog", false, "also clear rooms and package offerings")
	confirm := flag.Bool("yes", false, "confirm the wipe")
	flag.Parse()

	_ = godotenv.Load()

	if os.Getenv("ENVIRONMENT") == "production" {
		log.Fatal("refusing to clear data while ENVIRONMENT=production")
	}
	if *dbURL == "" {
		*dbURL = os.Getenv("DATABASE_URL")
	}
	if *dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	tables := []string{"booking_audit_logs", "package_bookings"}
	if *includeCatalog {
		tables = append(tables, "package_offerings", "rooms")
	}
	if !*confirm {
		log.Fatalf("this deletes every row in %s; rerun with -yes", strings.Join(tables, ", "))
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                *dbURL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
		ConnMaxLifetime:    time.Minute,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	for _, table := range tables {
		var count int
		if err := db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+table); err != nil {
			fmt.Printf("  %-20s error: %v\n", table, err)
			continue
		}
		fmt.Printf("  %-20s %d rows\n", table, count)
	}
}
