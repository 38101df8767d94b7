package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/yourusername/exam-engine-api/internal/config"
)

// fix-db: ручное управление миграциями: снятие dirty-состояния, откат и накат.
//
//	fix-db -force 3      снять dirty и выставить версию 3
//	fix-db -down 1       откатить одну миграцию
//	fix-db -up           применить все миграции
//	fix-db -version      показать текущую версию
func main() {
	force := flag.Int("force", -1, "force migration version (cleans dirty state)")
	down := flag.Int("down", 0, "roll back N migrations")
	up := flag.Bool("up", false, "apply all pending migrations")
	showVersion := flag.Bool("version", false, "print current migration version")
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal(err)
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.Database.MigrationsPath, "postgres", driver)
	if err != nil {
		log.Fatal(err)
	}

	switch {
	case *force >= 0:
		fmt.Printf("Forcing migration version to %d to clean dirty state...\n", *force)
		if err := m.Force(*force); err != nil {
			log.Fatalf("Failed to force version: %v", err)
		}
	case *down > 0:
		fmt.Printf("Rolling back %d migration(s)...\n", *down)
		if err := m.Steps(-*down); err != nil {
			log.Fatalf("Failed to roll back: %v", err)
		}
	case *up:
		fmt.Println("Applying migrations...")
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
	case *showVersion:
	default:
		flag.Usage()
		os.Exit(2)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		log.Fatalf("Failed to read version: %v", err)
	}
	fmt.Printf("Current version: %d (dirty: %v)\n", version, dirty)
}
