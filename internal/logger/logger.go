// Package logger provides structured logging using Zap.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init initializes the global logger. In "production" it emits JSON at info
// level; "test" silences output; anything else uses the development config.
func Init(env string) {
	once.Do(func() {
		var base *zap.Logger
		var err error

		switch env {
		case "production":
			base, err = zap.NewProduction()
		case "test":
			base = zap.NewNop()
		default:
			base, err = zap.NewDevelopment()
		}
		if err != nil {
			base = zap.NewNop()
		}
		sugar = base.Sugar().Named("sofia")
	})
}

// Get returns the global sugared logger. Falls back to a development logger
// if Init has not been called.
func Get() *zap.SugaredLogger {
	if sugar == nil {
		Init("development")
	}
	return sugar
}

// ForUser returns a child logger tagged with the given user id.
func ForUser(userID string) *zap.SugaredLogger {
	return Get().With("user_id", userID)
}

// Named returns a child logger for a component.
func Named(component string) *zap.SugaredLogger {
	return Get().Named(component)
}

// Sync flushes any buffered log entries. Should be deferred in main.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
