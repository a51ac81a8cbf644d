package observability

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/servicedesk/internal/config"
)

// NewLogger builds the JSON logger used by serve, migrate and provision-admin.
func NewLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	return build(cfg, "stdout")
}

// NewFileLogger sends desk logs to cfg.File because the terminal belongs to
// the UI. An empty path disables logging.
func NewFileLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	path := strings.TrimSpace(cfg.File)
	if path == "" {
		return zap.NewNop(), nil
	}
	return build(cfg, path)
}

func build(cfg config.LoggerConfig, output string) (*zap.Logger, error) {
	encoder := zap.NewProductionEncoderConfig()
	encoder.MessageKey = "message"
	encoder.TimeKey = "ts"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder.EncodeLevel = zapcore.LowercaseLevelEncoder

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Encoding:         "json",
		EncoderConfig:    encoder,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}
	logger, err := zapCfg.Build(zap.AddCaller())
	if err != nil {
		return nil, err
	}
	return logger.Named("servicedesk"), nil
}

// parseLevel falls back to info for empty or unknown LOG_LEVEL values.
func parseLevel(raw string) zapcore.Level {
	level, err := zapcore.ParseLevel(strings.TrimSpace(raw))
	if err != nil || raw == "" {
		return zapcore.InfoLevel
	}
	return level
}
