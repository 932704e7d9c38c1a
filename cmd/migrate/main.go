package main

import (
	"log"
	"os"

	"proptoken/internal/config"
	"proptoken/internal/db"

	migrate "github.com/rubenv/sql-migrate"
)

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	direction := migrate.Up
	if len(os.Args) > 1 && os.Args[1] == "down" {
		direction = migrate.Down
	}

	migrations := &migrate.FileMigrationSource{Dir: "migrations"}
	applied, err := migrate.Exec(database.DB, "postgres", migrations, direction)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Printf("applied %d migrations", applied)
}
