// Package logger собирает *zap.Logger для сервиса.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options настройки логгера.
type Options struct {
	Production  bool     // JSON и уровень info вместо консоли и debug
	Level       string   // явный уровень, перекрывает выбранный по окружению
	OutputPaths []string // пути вывода логов
	Fields      map[string]any
}

// Option функциональная опция логгера.
type Option func(*Options)

// WithProduction включает режим продакшн-окружения.
func WithProduction(production bool) Option {
	return func(o *Options) { o.Production = production }
}

// WithLevel задаёт уровень логирования.
func WithLevel(level string) Option {
	return func(o *Options) { o.Level = level }
}

// WithOutput задаёт пути вывода.
func WithOutput(paths ...string) Option {
	return func(o *Options) { o.OutputPaths = paths }
}

// WithField добавляет поле к каждой записи.
func WithField(key string, value any) Option {
	return func(o *Options) {
		if o.Fields == nil {
			o.Fields = make(map[string]any)
		}
		o.Fields[key] = value
	}
}

// New создает новый логгер с указанными настройками.
func New(opts ...Option) (*zap.Logger, error) {
	options := Options{OutputPaths: []string{"stdout"}}
	for _, opt := range opts {
		opt(&options)
	}

	encoding, level := "console", "debug"
	if options.Production {
		encoding, level = "json", "info"
	}
	if options.Level != "" {
		level = options.Level
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}

	conf := zap.Config{
		Level:       lvl,
		Development: !options.Production,
		Encoding:    encoding,
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:     "msg",
			LevelKey:       "level",
			TimeKey:        "ts",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      options.OutputPaths,
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    options.Fields,
	}

	log, err := conf.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}

// MustNew как New, но паникует при ошибке.
func MustNew(opts ...Option) *zap.Logger {
	log, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return log
}
