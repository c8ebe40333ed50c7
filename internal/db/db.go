// internal/db/db.go
package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/unclebandit/campaign-crm/internal/config"
	"github.com/unclebandit/campaign-crm/internal/repository"
	"github.com/unclebandit/campaign-crm/internal/repository/memory"
	"github.com/unclebandit/campaign-crm/internal/repository/mongostore"
	"github.com/unclebandit/campaign-crm/internal/repository/postgres"
)

// OpenPostgres connects to PostgreSQL and sizes the pool.
func OpenPostgres(ctx context.Context, c config.PostgresConfig) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", c.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	conn.SetMaxOpenConns(c.MaxOpenConns)
	conn.SetMaxIdleConns(c.MaxIdleConns)
	return conn, nil
}

// OpenStore connects the configured backend and returns its repositories.
func OpenStore(ctx context.Context, c config.StoreConfig, logger *zap.Logger) (*repository.Store, error) {
	switch c.Driver {
	case "memory":
		logger.Warn("using in-memory store, data is lost on exit")
		return memory.New(), nil

	case "postgres":
		conn, err := OpenPostgres(ctx, c.Postgres)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		logger.Info("connected to database",
			zap.String("driver", "postgres"),
			zap.String("host", c.Postgres.Host),
			zap.String("database", c.Postgres.Database))
		return postgres.New(conn), nil

	case "mongo":
		ctx, cancel := context.WithTimeout(ctx, c.Mongo.Timeout)
		defer cancel()

		client, err := mongostore.Connect(ctx, c.Mongo.URI)
		if err != nil {
			return nil, err
		}
		store, err := mongostore.New(ctx, client, client.Database(c.Mongo.Database))
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		logger.Info("connected to database",
			zap.String("driver", "mongo"),
			zap.String("database", c.Mongo.Database))
		return store, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", c.Driver)
}
