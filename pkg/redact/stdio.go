package redact

import (
	"bufio"
	"io"
	"os"
	"sync"
)

// WrapStdio replaces os.Stdout and os.Stderr with pipe-backed streams
// whose contents are masked against vocab before reaching the real
// descriptors. It is meant to be called once by the hosting application
// at startup; calling it again stacks another layer, which works but is
// wasteful. The returned restore function puts the original streams back
// and drains both pipes.
//
// Masking is applied line-wise: a secret split across a line boundary is
// not matched. Writers that need stricter guarantees should route through
// NewWriter directly instead of the process streams.
func WrapStdio(vocab *Vocabulary) (restore func(), err error) {
	if vocab == nil {
		vocab = Default
	}

	origOut, origErr := os.Stdout, os.Stderr

	var wg sync.WaitGroup

	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, err
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		copyMasked(NewWriter(origOut, vocab), outR)
	}()
	go func() {
		defer wg.Done()
		copyMasked(NewWriter(origErr, vocab), errR)
	}()

	os.Stdout = outW
	os.Stderr = errW

	return func() {
		os.Stdout = origOut
		os.Stderr = origErr
		outW.Close()
		errW.Close()
		wg.Wait()
		outR.Close()
		errR.Close()
	}, nil
}

// copyMasked forwards src to dst one line at a time so that each mask
// pass sees whole lines rather than arbitrary pipe-sized chunks.
func copyMasked(dst io.Writer, src io.Reader) {
	reader := bufio.NewReader(src)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			if _, werr := dst.Write([]byte(line)); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}
