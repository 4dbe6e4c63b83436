// Package logger provides structured event logging for the whole
// service. Every call takes an event name plus a free-form field map so
// log lines stay grep-able by event.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	log  *zap.Logger
	once sync.Once
)

func Init() {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.MessageKey = "event"
		built, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			built = zap.NewNop()
		}
		log = built
	})
}

func Info(event string, fields map[string]interface{}) {
	Init()
	log.Info(event, toZapFields(fields)...)
}

func Warn(event string, fields map[string]interface{}) {
	Init()
	log.Warn(event, toZapFields(fields)...)
}

func Error(event string, err error, fields map[string]interface{}) {
	Init()
	log.Error(event, append(toZapFields(fields), zap.Error(err))...)
}

func InfoWithUser(userID, event string, fields map[string]interface{}) {
	Init()
	log.Info(event, append(toZapFields(fields), zap.String("user_id", userID))...)
}

func WarnWithUser(userID, event string, fields map[string]interface{}) {
	Init()
	log.Warn(event, append(toZapFields(fields), zap.String("user_id", userID))...)
}

func toZapFields(fields map[string]interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(fields)+1)
	for key, value := range fields {
		out = append(out, zap.Any(key, value))
	}
	return out
}
