package logging_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/containerkit/internal/logging"
	"github.com/systmms/containerkit/pkg/redact"
)

func TestInfoWritesToConfiguredOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.New(false, true)
	logger.SetOutput(&buf)

	logger.Info("loaded %d secrets", 3)

	assert.Equal(t, "✓ loaded 3 secrets\n", buf.String())
}

func TestDebugSuppressedWithoutDebugMode(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.New(false, true)
	logger.SetOutput(&buf)

	logger.Debug("noisy detail")

	assert.Empty(t, buf.String())
}

func TestDebugEmittedInDebugMode(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.New(true, true)
	logger.SetOutput(&buf)

	logger.Debug("detail %s", "here")

	assert.Equal(t, "[DEBUG] detail here\n", buf.String())
}

func TestWarnAndErrorPrefixes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.New(false, true)
	logger.SetOutput(&buf)

	logger.Warn("watch out")
	logger.Error("it broke")

	assert.Contains(t, buf.String(), "⚠ watch out\n")
	assert.Contains(t, buf.String(), "✗ it broke\n")
}

func TestSecretTypeNeverPrintsValue(t *testing.T) {
	t.Parallel()

	s := logging.Secret("hunter2")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", s))
}

func TestLoggerThroughRedactingWriter(t *testing.T) {
	t.Parallel()

	vocab := redact.NewVocabulary()
	vocab.Add("db-password-42")

	var buf bytes.Buffer
	logger := logging.New(false, true)
	logger.SetOutput(redact.NewWriter(&buf, vocab))

	// A value interpolated as a plain string still must not survive the
	// trip through the sink.
	logger.Info("connecting with %s", "db-password-42")

	assert.NotContains(t, buf.String(), "db-password-42")
	assert.Contains(t, buf.String(), "**************")
}
