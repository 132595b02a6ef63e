package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"passreset/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	path := flag.String("path", "migrations", "directory holding the migration files")
	down := flag.Bool("down", false, "roll back every applied migration")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	m, err := migrate.New("file://"+*path, cfg.PostgresqlURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not connect to DB: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	if *down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No change.")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not apply migrations: %v\n", err)
		os.Exit(1)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("All migrations rolled back.")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Schema version %d (dirty: %v)\n", version, dirty)
}
