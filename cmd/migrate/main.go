package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	appmigrations "github.com/civicdesk/civic-portal/migrations"
)

// Applies the embedded schema migrations. With no arguments every pending
// migration runs; "down" rolls back the most recent one and
// "force <version>" repairs a dirty schema record.
func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		return errors.New("DATABASE_URL is required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("database driver: %w", err)
	}
	src, err := iofs.New(appmigrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if len(args) > 0 {
		switch args[0] {
		case "force":
			if len(args) < 2 {
				return errors.New("usage: migrate force <version>")
			}
			v, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parse version %q: %w", args[1], err)
			}
			if err := m.Force(v); err != nil {
				return fmt.Errorf("force version %d: %w", v, err)
			}
			fmt.Printf("schema version forced to %d\n", v)
			return nil
		case "down":
			if err := m.Steps(-1); err != nil {
				return fmt.Errorf("roll back one migration: %w", err)
			}
			fmt.Println("rolled back one migration")
			return nil
		default:
			return fmt.Errorf("unknown command %q", args[0])
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	fmt.Printf("schema at version %d (dirty=%v)\n", version, dirty)
	return nil
}
