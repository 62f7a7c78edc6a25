package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/aac-therapy-api/pkg/config"
)

func TestDSNQuotesAwkwardValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "therapy",
		Password: "it's a secret",
		Name:     "aac_therapy",
		SSLMode:  "disable",
	})
	assert.Equal(t, `host=db port=5432 user=therapy password='it\'s a secret' dbname=aac_therapy sslmode=disable`, dsn)
}

func TestDSNSkipsEmptyValues(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "localhost", Port: 5432, Name: "aac_therapy"})
	assert.Equal(t, "host=localhost port=5432 dbname=aac_therapy", dsn)
}
