package contract

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log formats.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// LogConfig configures logging.
type LogConfig struct {
	Level  string
	Format string
}

// InitLogger initializes the global zap logger. Both formats write to stderr.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == LogFormatConsole {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "contract: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "contract: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// SyncLogger flushes buffered log entries.
func SyncLogger() {
	_ = zap.L().Sync()
}
