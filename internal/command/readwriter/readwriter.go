package readwriter

import (
	"io"
)

// ReadWriter holds the streams commands report to.
type ReadWriter struct {
	Out    io.Writer
	In     io.Reader
	ErrOut io.Writer
}
