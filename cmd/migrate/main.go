package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/wellness-in-schools/video-library/internal/config"
	"github.com/wellness-in-schools/video-library/internal/db"
	"github.com/wellness-in-schools/video-library/pkg/logger"
)

func main() {
	var (
		dbURL          string
		migrationsPath string
		direction      string
		steps          int
	)

	flag.StringVar(&dbURL, "db", "", "Database URL (defaults to DATABASE_URL, then the APP_DATABASE_* settings)")
	flag.StringVar(&migrationsPath, "path", "./migrations", "Path to migrations directory")
	flag.StringVar(&direction, "direction", "up", "Migration direction: up or down")
	flag.IntVar(&steps, "steps", 0, "Number of steps to migrate (0 means all)")
	flag.Parse()

	if err := logger.Init("info", ""); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		url, err := urlFromConfig()
		if err != nil {
			logger.Log.Fatal("Database URL must be provided via -db, DATABASE_URL or APP_DATABASE_* settings", zap.Error(err))
		}
		dbURL = url
	}

	m, err := migrate.New("file://"+migrationsPath, dbURL)
	if err != nil {
		logger.Log.Fatal("Failed to create migrate instance", zap.Error(err))
	}
	defer m.Close()

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		logger.Log.Fatal("Invalid direction, must be 'up' or 'down'", zap.String("direction", direction))
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Log.Fatal("Migration failed", zap.Error(err))
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		logger.Log.Info("Migration completed successfully (no version)")
		return
	}
	if err != nil {
		logger.Log.Fatal("Failed to get migration version", zap.Error(err))
	}

	logger.Log.Info("Migration completed successfully",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
}

// urlFromConfig builds the URL from the same settings the server uses. The
// server's own validation is skipped since only the database section matters.
func urlFromConfig() (string, error) {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return "", err
	}
	dbCfg := db.DefaultConfig()
	dbCfg.Host = cfg.Host
	dbCfg.Port = cfg.Port
	dbCfg.User = cfg.User
	dbCfg.Password = cfg.Password
	dbCfg.Database = cfg.Name
	dbCfg.SSLMode = cfg.SSLMode
	return dbCfg.URL(), nil
}
