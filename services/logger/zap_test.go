package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/convivencia/core/user"
)

func TestZapLogger(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	logger := &ZapLogger{sugar: zap.New(obs).Sugar()}

	logger.Info("records imported", map[string]interface{}{"count": 3})
	logger.Error("import failed", errors.New("boom"), user.User{Username: "admin"}, 42)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, "records imported", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.EqualValues(t, 3, entries[0].ContextMap()["count"])

	ctx := entries[1].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "admin", ctx["user"])
	assert.EqualValues(t, 42, ctx["arg2"])
}
