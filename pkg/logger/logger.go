package logger

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Log struct {
	LogLevel zapcore.Level `yaml:"level" envconfig:"LOG_LEVEL" default:"info"`
	Sink     string        `yaml:"sink" envconfig:"LOG_SINK"`
}

func NewLogger(cfg Log, name string) *zap.Logger {
	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	c.DisableStacktrace = true
	if cfg.Sink != "" {
		c.OutputPaths = append(c.OutputPaths, cfg.Sink)
	}
	logger, err := c.Build()
	if err != nil {
		log.Fatal("logger build ", err)
	}
	return logger.Named(name)
}
