package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/aac-therapy-api/pkg/config"
	"github.com/noah-isme/aac-therapy-api/pkg/middleware/requestid"
)

const serviceName = "aac-therapy-api"

// New builds the process logger. Production uses the JSON production preset;
// everything else gets development defaults. LOG_FORMAT=console switches the
// encoder and an unparsable LOG_LEVEL falls back to info.
func New(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	}

	zapCfg.Encoding = "json"
	if cfg.Log.Format == "console" {
		zapCfg.Encoding = "console"
	}
	if cfg.Log.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			level = zapcore.InfoLevel
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build(zap.Fields(
		zap.String("service", serviceName),
		zap.String("env", cfg.Env),
	))
}

// quietPaths are probed constantly and only logged at debug level.
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// GinMiddleware writes one access log line per request. The level follows
// the response status.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", c.FullPath()),
			zap.Int("status", status),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if reqID := requestid.Value(c); reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if _, quiet := quietPaths[c.Request.URL.Path]; quiet && status < 400 {
			l.Debug("http_request", fields...)
			return
		}
		switch {
		case status >= 500:
			l.Error("http_request", fields...)
		case status >= 400:
			l.Warn("http_request", fields...)
		default:
			l.Info("http_request", fields...)
		}
	}
}
