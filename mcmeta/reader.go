package mcmeta

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"github.com/lalinsky/gocache/cacheerr"
)

// Reader decodes meta-protocol replies from a buffered reader.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps a buffered reader for response decoding.
func NewReader(br *bufio.Reader) *Reader {
	return &Reader{br: br}
}

// readLine reads one CRLF-terminated response line and returns it
// with the CRLF stripped.
func (r *Reader) readLine() ([]byte, error) {
	line, err := r.br.ReadSlice('\n')
	if err != nil {
		if err == io.EOF {
			return nil, cacheerr.Wrap(cacheerr.EndOfStream, err)
		}
		return nil, cacheerr.Wrap(cacheerr.ReadFailed, err)
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, cacheerr.New(cacheerr.ProtocolError, "malformed response line")
	}
	return line[:len(line)-2], nil
}

// classifyCode maps a non-success response code to its cacheerr Kind.
// Unrecognized codes (e.g. stray HD where a value-bearing code is
// expected) surface as UnexpectedType by the caller, not here.
func classifyCode(code string, rest []byte) (error, bool) {
	switch code {
	case "NS":
		return cacheerr.New(cacheerr.NotStored, ""), true
	case "EX":
		return cacheerr.New(cacheerr.Exists, ""), true
	case "EN", "NF":
		return cacheerr.New(cacheerr.NotFound, ""), true
	case "SERVER_ERROR":
		return cacheerr.New(cacheerr.ServerError, string(bytes.TrimSpace(rest))), true
	default:
		return nil, false
	}
}

func parseUint32(b []byte) (uint32, error) {
	n, err := strconv.ParseUint(string(b), 10, 32)
	if err != nil {
		return 0, cacheerr.New(cacheerr.InvalidCharacter, string(b))
	}
	return uint32(n), nil
}

func parseUint64(b []byte) (uint64, error) {
	n, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0, cacheerr.New(cacheerr.InvalidCharacter, string(b))
	}
	return n, nil
}

// parseTokens scans the optional f/c flag tokens following a VA/HD
// response's size field.
func parseTokens(tokens [][]byte) (flags uint32, cas uint64, err error) {
	for _, tok := range tokens {
		if len(tok) == 0 {
			continue
		}
		switch tok[0] {
		case 'f':
			if flags, err = parseUint32(tok[1:]); err != nil {
				return 0, 0, err
			}
		case 'c':
			if cas, err = parseUint64(tok[1:]); err != nil {
				return 0, 0, err
			}
		}
	}
	return flags, cas, nil
}

func (r *Reader) readPayload(buf []byte, n int) ([]byte, error) {
	if int64(len(buf)) < int64(n) {
		return nil, cacheerr.New(cacheerr.ValueTooLarge, "")
	}
	if _, err := io.ReadFull(r.br, buf[:n]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, cacheerr.Wrap(cacheerr.EndOfStream, err)
		}
		return nil, cacheerr.Wrap(cacheerr.ReadFailed, err)
	}
	var crlf [2]byte
	if _, err := io.ReadFull(r.br, crlf[:]); err != nil {
		return nil, cacheerr.Wrap(cacheerr.ReadFailed, err)
	}
	if crlf[0] != '\r' || crlf[1] != '\n' {
		return nil, cacheerr.New(cacheerr.ProtocolError, "value missing trailing CRLF")
	}
	return buf[:n], nil
}

// ReadGet parses a "VA <size> [fN] [cN]" success line plus its value
// payload into buf, or returns a resumable NotFound on "EN".
func (r *Reader) ReadGet(buf []byte) (Info, error) {
	line, err := r.readLine()
	if err != nil {
		return Info{}, err
	}
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return Info{}, cacheerr.New(cacheerr.ProtocolError, "empty response")
	}
	code := string(fields[0])
	if code != "VA" {
		if cerr, ok := classifyCode(code, line); ok {
			return Info{}, cerr
		}
		return Info{}, cacheerr.New(cacheerr.UnexpectedType, "expected VA")
	}
	if len(fields) < 2 {
		return Info{}, cacheerr.New(cacheerr.ProtocolError, "VA missing size")
	}
	size, err := strconv.Atoi(string(fields[1]))
	if err != nil || size < 0 {
		return Info{}, cacheerr.New(cacheerr.InvalidCharacter, string(fields[1]))
	}
	flags, cas, err := parseTokens(fields[2:])
	if err != nil {
		return Info{}, err
	}
	val, err := r.readPayload(buf, size)
	if err != nil {
		return Info{}, err
	}
	return Info{Value: val, Flags: flags, Cas: cas}, nil
}

// ReadTouch parses the HD/EN/... response to the mg-with-T touch form.
func (r *Reader) ReadTouch() error {
	return r.readHDOrError()
}

// ReadSet parses the ms response: HD on success, NS/EX/SERVER_ERROR
// otherwise.
func (r *Reader) ReadSet() error {
	return r.readHDOrError()
}

// ReadDelete parses the md response: HD on success, NF on miss.
func (r *Reader) ReadDelete() error {
	return r.readHDOrError()
}

func (r *Reader) readHDOrError() error {
	line, err := r.readLine()
	if err != nil {
		return err
	}
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return cacheerr.New(cacheerr.ProtocolError, "empty response")
	}
	code := string(fields[0])
	if code == "HD" {
		return nil
	}
	if cerr, ok := classifyCode(code, line); ok {
		return cerr
	}
	return cacheerr.New(cacheerr.UnexpectedType, "expected HD")
}

// ReadArithmetic parses the ma response: "VA <size>\r\n<digits>\r\n"
// on success (the new counter value), NF on miss.
func (r *Reader) ReadArithmetic() (uint64, error) {
	line, err := r.readLine()
	if err != nil {
		return 0, err
	}
	fields := bytes.Fields(line)
	if len(fields) == 0 {
		return 0, cacheerr.New(cacheerr.ProtocolError, "empty response")
	}
	code := string(fields[0])
	if code != "VA" {
		if cerr, ok := classifyCode(code, line); ok {
			return 0, cerr
		}
		return 0, cacheerr.New(cacheerr.UnexpectedType, "expected VA")
	}
	if len(fields) < 2 {
		return 0, cacheerr.New(cacheerr.ProtocolError, "VA missing size")
	}
	size, err := strconv.Atoi(string(fields[1]))
	if err != nil || size < 0 {
		return 0, cacheerr.New(cacheerr.InvalidCharacter, string(fields[1]))
	}
	buf := make([]byte, size)
	val, err := r.readPayload(buf, size)
	if err != nil {
		return 0, err
	}
	return parseUint64(val)
}

// ReadFlushAll parses the legacy "OK" reply to flush_all.
func (r *Reader) ReadFlushAll() error {
	line, err := r.readLine()
	if err != nil {
		return err
	}
	if string(line) == "OK" {
		return nil
	}
	fields := bytes.Fields(line)
	if len(fields) > 0 {
		if cerr, ok := classifyCode(string(fields[0]), line); ok {
			return cerr
		}
	}
	return cacheerr.New(cacheerr.UnexpectedType, "expected OK")
}

// ReadVersion parses "VERSION <str>".
func (r *Reader) ReadVersion() (string, error) {
	line, err := r.readLine()
	if err != nil {
		return "", err
	}
	fields := bytes.Fields(line)
	if len(fields) >= 1 && string(fields[0]) == "VERSION" {
		return string(bytes.TrimSpace(line[len("VERSION"):])), nil
	}
	if len(fields) > 0 {
		if cerr, ok := classifyCode(string(fields[0]), line); ok {
			return "", cerr
		}
	}
	return "", cacheerr.New(cacheerr.UnexpectedType, "expected VERSION")
}
