package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitRejectsBadLevel(t *testing.T) {
	assert.Error(t, Init("", "loud"))
	assert.NoError(t, Init("", "debug"))
}

func TestInitWriter(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, zapcore.InfoLevel)
	defer InitWriter(&bytes.Buffer{}, zapcore.InfoLevel)

	Logger.Debug("hidden")
	Named("pipeline").Infow("entry written", "name", "1.txt")
	Close()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "pipeline")
	assert.Contains(t, out, "entry written")
	assert.Contains(t, out, "1.txt")
}

func TestInitFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bucketzip.log")
	require.NoError(t, Init(file, "info"))
	Logger.Info("to file")
	Close()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
