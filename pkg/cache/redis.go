package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/aac-therapy-api/pkg/config"
)

// NewRedis returns a configured Redis client, or nil when caching is disabled.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// ReportKey is the cache key of a persisted progress report.
func ReportKey(reportID string) string {
	return "therapy:report:" + reportID
}

// PatientReportsPattern matches every cached report listing of a patient.
func PatientReportsPattern(patientID string) string {
	return "therapy:patient:" + patientID + ":reports*"
}

// PatientReportsKey caches the report history listing of a patient.
func PatientReportsKey(patientID string) string {
	return "therapy:patient:" + patientID + ":reports"
}
