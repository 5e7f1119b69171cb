package redact_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/containerkit/pkg/redact"
)

// failingWriter always fails, to verify stream errors pass through.
type failingWriter struct{ err error }

func (f failingWriter) Write(p []byte) (int, error) { return 0, f.err }

// partialWriter accepts limit bytes and then fails.
type partialWriter struct {
	limit int
	err   error
}

func (p *partialWriter) Write(b []byte) (int, error) {
	if len(b) <= p.limit {
		return len(b), nil
	}
	return p.limit, p.err
}

func TestWriterPassThroughWithEmptyVocabulary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := redact.NewWriter(&buf, redact.NewVocabulary())

	msg := "nothing secret here\n"
	n, err := w.Write([]byte(msg))

	require.NoError(t, err)
	assert.Equal(t, len(msg), n)
	assert.Equal(t, msg, buf.String())
}

func TestWriterMasksSecrets(t *testing.T) {
	t.Parallel()

	v := redact.NewVocabulary()
	v.Add("T0P-Secret")

	var buf bytes.Buffer
	w := redact.NewWriter(&buf, v)

	msg := "leaked: T0P-Secret end"
	n, err := w.Write([]byte(msg))

	require.NoError(t, err)
	assert.Equal(t, len(msg), n)
	assert.Equal(t, "leaked: ********** end", buf.String())
}

func TestWriterReportsInputLengthWhenMaskChangesByteCount(t *testing.T) {
	t.Parallel()

	v := redact.NewVocabulary()
	v.Add("pässword") // 8 runes, 9 bytes raw; mask is 8 single-byte asterisks

	var buf bytes.Buffer
	w := redact.NewWriter(&buf, v)

	msg := "value: pässword"
	n, err := w.Write([]byte(msg))

	require.NoError(t, err)
	assert.Equal(t, len(msg), n, "io.Writer contract: n reflects consumed input")
	assert.Equal(t, "value: ********", buf.String())
}

func TestWriterPropagatesStreamErrors(t *testing.T) {
	t.Parallel()

	v := redact.NewVocabulary()
	v.Add("secret")

	streamErr := errors.New("disk full")
	w := redact.NewWriter(failingWriter{err: streamErr}, v)

	n, err := w.Write([]byte("has a secret in it"))
	assert.ErrorIs(t, err, streamErr, "redaction must never mask a real I/O failure")
	assert.Zero(t, n)
}

func TestWriterReportsNothingConsumedOnPartialStreamWrite(t *testing.T) {
	t.Parallel()

	v := redact.NewVocabulary()
	v.Add("pässword") // masked form has fewer bytes than the input

	streamErr := errors.New("connection reset")
	w := redact.NewWriter(&partialWriter{limit: 5, err: streamErr}, v)

	n, err := w.Write([]byte("value: pässword"))
	require.ErrorIs(t, err, streamErr)
	assert.Zero(t, n, "a partial count would index the masked bytes, not the input")
}

func TestWriterMasksAcrossMultipleWrites(t *testing.T) {
	t.Parallel()

	v := redact.NewVocabulary()
	v.Add("sk_live_12345")

	var buf bytes.Buffer
	w := redact.NewWriter(&buf, v)

	for i := 0; i < 2; i++ {
		_, err := w.Write([]byte("key=sk_live_12345\n"))
		require.NoError(t, err)
	}

	assert.Equal(t, "key=*************\nkey=*************\n", buf.String())
}

func TestWrapStdioMasksProcessOutput(t *testing.T) {
	// Not parallel: swaps the global os.Stdout/os.Stderr.

	v := redact.NewVocabulary()
	v.Add("super-secret-token")

	// Capture what would have reached the real stdout.
	captureR, captureW, err := os.Pipe()
	require.NoError(t, err)
	origStdout, origStderr := os.Stdout, os.Stderr
	os.Stdout = captureW
	os.Stderr = captureW

	restore, err := redact.WrapStdio(v)
	require.NoError(t, err)

	fmt.Fprintln(os.Stdout, "stdout leak: super-secret-token")
	fmt.Fprintln(os.Stderr, "stderr leak: super-secret-token")

	restore()
	os.Stdout = origStdout
	os.Stderr = origStderr
	captureW.Close()

	out, err := io.ReadAll(captureR)
	require.NoError(t, err)
	captureR.Close()

	assert.NotContains(t, string(out), "super-secret-token")
	assert.Contains(t, string(out), "stdout leak: ******************")
	assert.Contains(t, string(out), "stderr leak: ******************")
}

func TestWrapStdioRestoreStopsInterception(t *testing.T) {
	// Not parallel: swaps the global os.Stdout/os.Stderr.

	v := redact.NewVocabulary()
	restore, err := redact.WrapStdio(v)
	require.NoError(t, err)

	wrapped := os.Stdout
	restore()

	assert.NotSame(t, wrapped, os.Stdout, "restore must reinstall the original stream")
}
