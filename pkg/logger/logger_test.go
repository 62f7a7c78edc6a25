package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/aac-therapy-api/pkg/config"
)

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	l, err := New(&config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "chatty", Format: "json"}})
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zapcore.InfoLevel))
	require.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestGinMiddlewareLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	r := gin.New()
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/goals/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.POST("/reports", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/health", nil),
		httptest.NewRequest(http.MethodGet, "/goals/g-1", nil),
		httptest.NewRequest(http.MethodPost, "/reports", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, "/goals/:id", entries[1].ContextMap()["route"])
	require.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}
