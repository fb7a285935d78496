package db

import (
	"context"
	"database/sql"
	"fmt"

	"usuarios-service/config"

	_ "github.com/lib/pq" // Postgres driver
	"go.uber.org/zap"
)

var openDB = sql.Open

func ConnectPostgres(ctx context.Context, cfg config.DatabaseConfig, log *zap.SugaredLogger) (*sql.DB, error) {
	if cfg.Engine != "postgres" {
		return nil, fmt.Errorf("unsupported database engine: %s", cfg.Engine)
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Name, cfg.SSLMode)

	conn, err := openDB("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	log.Infow("connected to postgres", "host", cfg.Host, "database", cfg.Name)
	return conn, nil
}
