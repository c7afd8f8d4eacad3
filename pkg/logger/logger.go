package logger

import (
	"fmt"

	"github.com/Leopold1975/awr_control/internal/pkg/config"
	"go.uber.org/zap"
)

type Logger struct {
	sl *zap.SugaredLogger
}

func New(cfg config.Logger) (Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return Logger{}, fmt.Errorf("parse level error: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.DisableStacktrace = true

	if len(cfg.Output) != 0 {
		zcfg.OutputPaths = cfg.Output
	}

	if len(cfg.ErrOutput) != 0 {
		zcfg.ErrorOutputPaths = cfg.ErrOutput
	}

	l, err := zcfg.Build()
	if err != nil {
		return Logger{}, fmt.Errorf("build logger error: %w", err)
	}

	return Logger{sl: l.Sugar()}, nil
}

// NewNop возвращает логгер, который ничего не пишет.
func NewNop() Logger {
	return Logger{sl: zap.NewNop().Sugar()}
}

func (l Logger) Info(msg string) {
	l.sl.Info(msg)
}

func (l Logger) Infof(format string, args ...any) {
	l.sl.Infof(format, args...)
}

func (l Logger) Debugf(format string, args ...any) {
	l.sl.Debugf(format, args...)
}

func (l Logger) Warnf(format string, args ...any) {
	l.sl.Warnf(format, args...)
}

func (l Logger) Error(msg string) {
	l.sl.Error(msg)
}

func (l Logger) Errorf(format string, args ...any) {
	l.sl.Errorf(format, args...)
}

// With возвращает логгер с дополнительными полями.
func (l Logger) With(kv ...any) Logger {
	return Logger{sl: l.sl.With(kv...)}
}

func (l Logger) Sync() error {
	if err := l.sl.Sync(); err != nil {
		return fmt.Errorf("sync error: %w", err)
	}

	return nil
}
