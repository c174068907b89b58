package mcmeta

import (
	"bufio"
	"strconv"

	"github.com/lalinsky/gocache/cacheerr"
)

// Writer frames meta-protocol commands onto a buffered writer. Like
// resp.Writer, it never flushes implicitly.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter wraps a buffered writer for command framing.
func NewWriter(bw *bufio.Writer) *Writer {
	return &Writer{bw: bw}
}

func (w *Writer) writeString(s string) error {
	if _, err := w.bw.WriteString(s); err != nil {
		return cacheerr.Wrap(cacheerr.WriteFailed, err)
	}
	return nil
}

func (w *Writer) crlf() error {
	return w.writeString("\r\n")
}

// WriteGet frames "mg <key> v f c [Tttl]". ttl == 0 omits the T token.
func (w *Writer) WriteGet(key string, ttl uint32) error {
	if err := w.writeString("mg " + key + " v f c"); err != nil {
		return err
	}
	if ttl > 0 {
		if err := w.writeString(" T" + strconv.FormatUint(uint64(ttl), 10)); err != nil {
			return err
		}
	}
	return w.crlf()
}

// WriteTouch frames "mg <key> Tttl", the meta-get-with-TTL form used
// to implement touch (no value/flags/cas requested).
func (w *Writer) WriteTouch(key string, ttl uint32) error {
	if err := w.writeString("mg " + key + " T" + strconv.FormatUint(uint64(ttl), 10)); err != nil {
		return err
	}
	return w.crlf()
}

var modeTokens = map[SetMode]string{
	ModeSet:     "",
	ModeAdd:     " ME",
	ModeReplace: " MR",
	ModeAppend:  " MA",
	ModePrepend: " MP",
}

// WriteSet frames "ms <key> <size> [Tttl] [Fflags] [Ccas] [M...]"
// followed by "<value>\r\n". ttl and flags are emitted only when
// nonzero, matching the curated surface's contract.
func (w *Writer) WriteSet(key string, value []byte, ttl, flags uint32, cas uint64, hasCas bool, mode SetMode) error {
	if err := w.writeString("ms " + key + " " + strconv.Itoa(len(value))); err != nil {
		return err
	}
	if ttl > 0 {
		if err := w.writeString(" T" + strconv.FormatUint(uint64(ttl), 10)); err != nil {
			return err
		}
	}
	if flags > 0 {
		if err := w.writeString(" F" + strconv.FormatUint(uint64(flags), 10)); err != nil {
			return err
		}
	}
	if hasCas {
		if err := w.writeString(" C" + strconv.FormatUint(cas, 10)); err != nil {
			return err
		}
	}
	if tok, ok := modeTokens[mode]; ok && tok != "" {
		if err := w.writeString(tok); err != nil {
			return err
		}
	}
	if err := w.crlf(); err != nil {
		return err
	}
	if _, err := w.bw.Write(value); err != nil {
		return cacheerr.Wrap(cacheerr.WriteFailed, err)
	}
	return w.crlf()
}

// WriteDelete frames "md <key>".
func (w *Writer) WriteDelete(key string) error {
	if err := w.writeString("md " + key); err != nil {
		return err
	}
	return w.crlf()
}

// WriteArithmetic frames "ma <key> v D<delta> [MD]"; decrement selects
// the MD (decrement) mode token, the default being increment.
func (w *Writer) WriteArithmetic(key string, delta uint64, decrement bool) error {
	if err := w.writeString("ma " + key + " v D" + strconv.FormatUint(delta, 10)); err != nil {
		return err
	}
	if decrement {
		if err := w.writeString(" MD"); err != nil {
			return err
		}
	}
	return w.crlf()
}

// WriteFlushAll frames "flush_all".
func (w *Writer) WriteFlushAll() error {
	if err := w.writeString("flush_all"); err != nil {
		return err
	}
	return w.crlf()
}

// WriteVersion frames "version".
func (w *Writer) WriteVersion() error {
	if err := w.writeString("version"); err != nil {
		return err
	}
	return w.crlf()
}

// Flush pushes any buffered command bytes onto the underlying stream.
func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return cacheerr.Wrap(cacheerr.WriteFailed, err)
	}
	return nil
}
