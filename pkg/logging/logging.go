// Package logging holds the process-wide zap logger. Provisioning is an
// interactive tool, so the default encoder is the human console form;
// LOG_LEVEL switches verbosity without flags.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.SugaredLogger

func init() {
	Init(os.Getenv("LOG_LEVEL"))
}

// Init (re)builds the global logger at the given level. Empty level
// means info.
func Init(level string) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true
	if level != "" {
		var zapLevel zapcore.Level
		if err := zapLevel.UnmarshalText([]byte(strings.ToLower(level))); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(zapLevel)
		}
	}
	built, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	logger = built.Sugar()
}

// L returns the global sugared logger.
func L() *zap.SugaredLogger { return logger }
