package mnioutil

import (
	"io"

	"github.com/pkg/errors"
)

// ErrBufferFull is returned when a bounded write buffer has no room left
var ErrBufferFull = errors.New("buffer is full")

type timeoutError interface {
	Timeout() bool
}

// IsTimeoutError checks if the error is a timeout error
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	te, ok := errors.Cause(err).(timeoutError)
	return ok && te.Timeout()
}

// WriteAll writes all bytes of data to the writer, retrying on timeouts
func WriteAll(w io.Writer, data []byte) error {
	for len(data) > 0 {
		n, err := w.Write(data)
		data = data[n:]
		if err != nil && !IsTimeoutError(err) {
			return err
		}
	}
	return nil
}

// ReadAll reads from the reader until data is filled, retrying on timeouts
func ReadAll(r io.Reader, data []byte) error {
	for len(data) > 0 {
		n, err := r.Read(data)
		data = data[n:]
		if err != nil && !IsTimeoutError(err) {
			return err
		}
	}
	return nil
}
