package main

import (
	"database/sql"
	"flag"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/artyrk/filebox/internal/migration"
)

func main() {
	var (
		dbPath = flag.String("db", "./filebox.db", "Registry database path")
		action = flag.String("action", "up", "Migration action: up, down, version")
	)
	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sql.Open("sqlite3", *dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	manager, err := migration.NewManager(db)
	if err != nil {
		log.Fatalf("Failed to create migration manager: %v", err)
	}

	switch *action {
	case "up":
		if err := manager.Up(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	case "down":
		if err := manager.Down(); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		log.Println("Rolled back last migration")
	case "version":
		version, dirty, err := manager.Version()
		if err != nil {
			log.Fatalf("Failed to read version: %v", err)
		}
		log.Printf("Schema version %d (dirty: %v)", version, dirty)
	default:
		log.Fatalf("Unknown action %q", *action)
	}
}
