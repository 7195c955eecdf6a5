package logsvc

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/trezcool/convivencia/core"
	"github.com/trezcool/convivencia/core/user"
)

// ZapLogger writes structured entries to the console.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

var _ core.Logger = (*ZapLogger)(nil)

func NewZapLogger(conf *core.Config) (*ZapLogger, error) {
	var (
		zl  *zap.Logger
		err error
	)
	if conf.Debug {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zl = zl.With(zap.String("app", conf.AppName), zap.String("env", conf.Env))
	return &ZapLogger{sugar: zl.Sugar()}, nil
}

// NewNopLogger returns a logger that discards everything (tests).
func NewNopLogger() *ZapLogger {
	return &ZapLogger{sugar: zap.NewNop().Sugar()}
}

func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}

// fields turns logger args into key-value pairs.
// expected fmt: error, map[string]interface{}, user.User
func fields(args []interface{}) []interface{} {
	kvs := make([]interface{}, 0, len(args)*2)
	for i, arg := range args {
		switch a := arg.(type) {
		case error:
			kvs = append(kvs, zap.Error(a))
		case map[string]interface{}:
			for k, v := range a {
				kvs = append(kvs, k, v)
			}
		case user.User:
			kvs = append(kvs, "user", a.Username)
		default:
			kvs = append(kvs, fmt.Sprintf("arg%d", i), a)
		}
	}
	return kvs
}

func (l *ZapLogger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugw(msg, fields(args)...)
}

func (l *ZapLogger) Info(msg string, args ...interface{}) {
	l.sugar.Infow(msg, fields(args)...)
}

func (l *ZapLogger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnw(msg, fields(args)...)
}

func (l *ZapLogger) Error(msg string, args ...interface{}) {
	l.sugar.Errorw(msg, fields(args)...)
}

func (l *ZapLogger) Fatal(msg string, args ...interface{}) {
	l.sugar.Fatalw(msg, fields(args)...)
}
