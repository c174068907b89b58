package resp

import (
	"bufio"
	"strconv"

	"github.com/lalinsky/gocache/cacheerr"
)

// Writer frames RESP2 commands onto a buffered writer. Callers must
// call Flush once after writing one or more commands; Writer never
// flushes implicitly, so a Pipeline can batch many commands behind one
// flush.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter wraps a buffered writer for command framing.
func NewWriter(bw *bufio.Writer) *Writer {
	return &Writer{bw: bw}
}

// WriteCommand frames args as a RESP2 array of bulk strings:
// "*len(args)\r\n" followed by "$len\r\n<arg>\r\n" per argument. It does
// not flush.
func (w *Writer) WriteCommand(args ...[]byte) error {
	if err := w.writeHeader('*', len(args)); err != nil {
		return err
	}
	for _, a := range args {
		if err := w.writeHeader('$', len(a)); err != nil {
			return err
		}
		if _, err := w.bw.Write(a); err != nil {
			return cacheerr.Wrap(cacheerr.WriteFailed, err)
		}
		if _, err := w.bw.WriteString("\r\n"); err != nil {
			return cacheerr.Wrap(cacheerr.WriteFailed, err)
		}
	}
	return nil
}

func (w *Writer) writeHeader(tag byte, n int) error {
	if err := w.bw.WriteByte(tag); err != nil {
		return cacheerr.Wrap(cacheerr.WriteFailed, err)
	}
	if _, err := w.bw.WriteString(strconv.Itoa(n)); err != nil {
		return cacheerr.Wrap(cacheerr.WriteFailed, err)
	}
	if _, err := w.bw.WriteString("\r\n"); err != nil {
		return cacheerr.Wrap(cacheerr.WriteFailed, err)
	}
	return nil
}

// Flush pushes any buffered command bytes onto the underlying stream.
func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return cacheerr.Wrap(cacheerr.WriteFailed, err)
	}
	return nil
}

// FormatInt renders n into a 32-byte stack buffer the way the curated
// command surface formats integer arguments, avoiding an allocation
// per call.
func FormatInt(buf *[32]byte, n int64) []byte {
	return strconv.AppendInt(buf[:0], n, 10)
}
