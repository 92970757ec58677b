package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"payfast_gateway_echo/internal/config"
)

const (
	_defaultMaxSize    = 100
	_defaultMaxBackups = 7
	_defaultMaxAge     = 30
)

// CategoryKey is the field every ITN log entry carries so entries can be
// filtered by failure category.
const CategoryKey = "category"

// Category tags a log entry with the given category.
func Category(name string) zap.Field {
	return zap.String(CategoryKey, name)
}

// New builds a JSON zap logger writing to stdout and, when a filename is
// configured, to a rotating file.
func New(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("logging.New: parse level: %w", err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		FunctionKey:   zapcore.OmitKey,
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}

	syncers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if cfg.Log.Filename != "" {
		syncers = append(syncers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Log.Filename,
			MaxSize:    _defaultMaxSize,
			MaxBackups: _defaultMaxBackups,
			MaxAge:     _defaultMaxAge,
			Compress:   true,
		}))
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(syncers...),
		level,
	)

	return zap.New(core,
		zap.Fields(
			zap.String("service", cfg.App.Name),
			zap.String("env", cfg.App.Env),
		),
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	), nil
}
