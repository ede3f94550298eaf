package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diwise/alarm-correlation/internal/pkg/infrastructure/logging"
)

type ConnectorConfig struct {
	Host     string
	Username string
	DbName   string
	Password string
	Port     string
	SslMode  string
}

func getEnvOrDefault(name, def string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return def
}

func LoadConfigFromEnv(ctx context.Context) ConnectorConfig {
	return ConnectorConfig{
		Host:     os.Getenv("POSTGRES_HOST"),
		Username: os.Getenv("POSTGRES_USER"),
		DbName:   getEnvOrDefault("POSTGRES_DBNAME", "diwise"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		SslMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}
}

type ConnectorFunc func() (*gorm.DB, zerolog.Logger, error)

func NewSQLiteConnector(ctx context.Context) ConnectorFunc {
	log := logging.GetLoggerFromContext(ctx)

	return func() (*gorm.DB, zerolog.Logger, error) {
		db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
			Logger:          logger.Default.LogMode(logger.Silent),
			CreateBatchSize: 1000,
		})

		if err == nil {
			db.Exec("PRAGMA foreign_keys = ON")
			sqldb, _ := db.DB()
			sqldb.SetMaxOpenConns(1)
		}

		return db, log, err
	}
}

func NewPostgreSQLConnector(ctx context.Context, cfg ConnectorConfig) ConnectorFunc {
	dbURI := fmt.Sprintf("host=%s user=%s dbname=%s port=%s sslmode=%s password=%s",
		cfg.Host, cfg.Username, cfg.DbName, cfg.Port, cfg.SslMode, cfg.Password)

	log := logging.GetLoggerFromContext(ctx)

	return func() (*gorm.DB, zerolog.Logger, error) {
		sublogger := log.With().Str("host", cfg.Host).Str("database", cfg.DbName).Logger()

		const maxAttempts int = 5
		var err error

		for attempt := 1; attempt <= maxAttempts; attempt++ {
			sublogger.Info().Msgf("connecting to database host (attempt %d of %d)", attempt, maxAttempts)

			var db *gorm.DB
			db, err = gorm.Open(postgres.Open(dbURI), &gorm.Config{
				Logger: logger.New(
					&logadapter{logger: sublogger},
					logger.Config{
						SlowThreshold:             time.Second,
						LogLevel:                  logger.Warn,
						IgnoreRecordNotFoundError: true,
						Colorful:                  false,
					},
				),
			})
			if err == nil {
				return db, sublogger, nil
			}

			sublogger.Error().Err(err).Msg("failed to connect to database")
			time.Sleep(3 * time.Second)
		}

		return nil, sublogger, fmt.Errorf("unable to connect to database after %d attempts: %w", maxAttempts, err)
	}
}

// logadapter provides a Printf interface to the gorm logger
// so that we can forward the log data to zerolog
type logadapter struct {
	logger zerolog.Logger
}

func (adapter *logadapter) Printf(format string, args ...interface{}) {
	adapter.logger.Info().Msgf(format, args...)
}
