package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/aac-therapy-api/pkg/config"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
	pingTimeout     = 5 * time.Second
)

// DSN renders a lib/pq keyword/value connection string. Values containing
// spaces or quotes are single-quoted.
func DSN(cfg config.DatabaseConfig) string {
	pairs := []struct{ key, value string }{
		{"host", cfg.Host},
		{"port", fmt.Sprint(cfg.Port)},
		{"user", cfg.User},
		{"password", cfg.Password},
		{"dbname", cfg.Name},
		{"sslmode", cfg.SSLMode},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value == "" {
			continue
		}
		parts = append(parts, p.key+"="+quoteDSNValue(p.value))
	}
	return strings.Join(parts, " ")
}

func quoteDSNValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
	return "'" + escaped + "'"
}

// NewPostgres opens the pool and waits for the server to answer, retrying a
// few times so the API can start alongside a database container.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	for attempt := 1; ; attempt++ {
		err = ping(ctx, db)
		if err == nil {
			return db, nil
		}
		if attempt == connectAttempts {
			break
		}
		logger.Warn("database not ready", zap.Int("attempt", attempt), zap.String("host", cfg.Host), zap.Error(err))
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
	_ = db.Close()
	return nil, fmt.Errorf("ping postgres after %d attempts: %w", connectAttempts, err)
}

func ping(ctx context.Context, db *sqlx.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.PingContext(pingCtx)
}
