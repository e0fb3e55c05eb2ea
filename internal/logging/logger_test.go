package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoggerKeyValues(t *testing.T) {
	tl := NewTestLogger()
	tl.With("job_id", "abc").Info("page recognized", "page", 2)

	entries := tl.FilterMessage("page recognized").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "abc", fields["job_id"])
	assert.EqualValues(t, 2, fields["page"])
	tl.AssertLogged(t, zapcore.InfoLevel, "recognized")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "recognized")
}

func TestConfigureRejectsUnknownValues(t *testing.T) {
	assert.Error(t, Configure("loud", "json"))
	assert.Error(t, Configure("info", "xml"))
	require.NoError(t, Configure("debug", "console"))
	assert.NotNil(t, NewLogger("worker").Underlying())
}
