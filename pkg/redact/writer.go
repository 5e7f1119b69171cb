package redact

import (
	"io"
)

// Writer wraps an output stream and masks registered secrets in
// everything written through it. Redaction itself never fails; errors
// from the wrapped stream propagate unchanged.
type Writer struct {
	out   io.Writer
	vocab *Vocabulary
}

// NewWriter wraps out with the given vocabulary. A nil vocabulary uses
// the process-wide Default.
func NewWriter(out io.Writer, vocab *Vocabulary) *Writer {
	if vocab == nil {
		vocab = Default
	}
	return &Writer{out: out, vocab: vocab}
}

// Write masks every registered variant in p and forwards the result.
// With an empty vocabulary the bytes pass through untouched. On success
// n is len(p), regardless of how the masked form's byte length differs
// from the input (masking preserves character count, not byte count).
// On a wrapped-stream error n is 0: a partial count would index into
// the masked bytes, not p.
func (w *Writer) Write(p []byte) (int, error) {
	if w.vocab.Len() == 0 {
		return w.out.Write(p)
	}

	masked := w.vocab.Replace(string(p))
	if _, err := w.out.Write([]byte(masked)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Unwrap returns the wrapped stream.
func (w *Writer) Unwrap() io.Writer {
	return w.out
}
