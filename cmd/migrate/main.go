// ABOUTME: Schema upgrade utility for existing zohosync databases
// ABOUTME: Backs up the database, creates missing tables, and optionally prunes old sync reports

package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/harperreed/zohosync/db"
	"github.com/harperreed/zohosync/logging"
)

type migrateOptions struct {
	dryRun   bool
	backup   bool
	keepRuns int
	now      func() time.Time
}

func main() {
	dbPath := flag.String("db", "", "Path to database file (required)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup before migration")
	keepRuns := flag.Int("keep-runs", -1, "Keep only the newest N sync reports (-1 keeps all)")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logging.Init(*logLevel, "text")

	if *dbPath == "" {
		logging.Log.Fatal("Error: -db flag is required")
	}

	opts := migrateOptions{dryRun: *dryRun, backup: *backup, keepRuns: *keepRuns, now: time.Now}
	if err := migrate(*dbPath, opts, logging.Log); err != nil {
		logging.Log.WithError(err).Fatal("Migration failed")
	}

	logging.Log.Info("Migration completed successfully")
}

func migrate(dbPath string, opts migrateOptions, log logrus.FieldLogger) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", dbPath)
	}

	database, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()
	database.SetMaxOpenConns(1)

	if opts.backup && !opts.dryRun {
		backupPath := fmt.Sprintf("%s.backup.%s", dbPath, opts.now().Format("20060102-150405"))
		log.WithField("path", backupPath).Info("Creating backup")

		// VACUUM INTO reads through the WAL, so commits not yet checkpointed
		// into the main file are included.
		if _, err := database.Exec("VACUUM INTO ?", backupPath); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	missing, err := db.MissingTables(database)
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	log.WithField("missing_tables", missing).Info("Schema inspected")

	if opts.dryRun {
		if len(missing) > 0 {
			log.Infof("[DRY RUN] Would create tables: %v", missing)
		} else {
			log.Info("[DRY RUN] Schema is up to date")
		}
		if opts.keepRuns >= 0 {
			log.Infof("[DRY RUN] Would keep the newest %d sync reports", opts.keepRuns)
		}
		return nil
	}

	if err := db.InitSchema(database); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	if len(missing) > 0 {
		log.WithField("tables", missing).Info("Created missing tables")
	}

	if opts.keepRuns >= 0 {
		removed, err := db.PruneRuns(database, opts.keepRuns)
		if err != nil {
			return err
		}
		log.WithField("removed", removed).Info("Pruned sync reports")
	}

	return nil
}
