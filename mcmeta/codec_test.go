package mcmeta

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalinsky/gocache/cacheerr"
)

func TestWriteGet(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(bufio.NewWriter(&buf))
	require.NoError(t, w.WriteGet("k", 0))
	require.NoError(t, w.Flush())
	assert.Equal(t, "mg k v f c\r\n", buf.String())
}

func TestWriteGetWithTTL(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(bufio.NewWriter(&buf))
	require.NoError(t, w.WriteGet("k", 60))
	require.NoError(t, w.Flush())
	assert.Equal(t, "mg k v f c T60\r\n", buf.String())
}

func TestWriteSetWithModeAndCas(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(bufio.NewWriter(&buf))
	require.NoError(t, w.WriteSet("k", []byte("val"), 30, 0, 7, true, ModeReplace))
	require.NoError(t, w.Flush())
	assert.Equal(t, "ms k 3 T30 C7 MR\r\nval\r\n", buf.String())
}

func TestReadGetSuccess(t *testing.T) {
	r := NewReader(bufio.NewReader(bytes.NewBufferString("VA 5 f0 c3\r\nhello\r\n")))
	buf := make([]byte, 16)
	info, err := r.ReadGet(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(info.Value))
	assert.Equal(t, uint64(3), info.Cas)
}

func TestReadGetMiss(t *testing.T) {
	r := NewReader(bufio.NewReader(bytes.NewBufferString("EN\r\n")))
	_, err := r.ReadGet(make([]byte, 16))
	require.Error(t, err)
	assert.True(t, cacheerr.Is(err, cacheerr.NotFound))
	assert.True(t, cacheerr.Resumable(err))
}

func TestReadSetNotStored(t *testing.T) {
	r := NewReader(bufio.NewReader(bytes.NewBufferString("NS\r\n")))
	err := r.ReadSet()
	require.Error(t, err)
	assert.True(t, cacheerr.Is(err, cacheerr.NotStored))
}

func TestReadSetExists(t *testing.T) {
	r := NewReader(bufio.NewReader(bytes.NewBufferString("EX\r\n")))
	err := r.ReadSet()
	require.Error(t, err)
	assert.True(t, cacheerr.Is(err, cacheerr.Exists))
}

func TestReadArithmetic(t *testing.T) {
	r := NewReader(bufio.NewReader(bytes.NewBufferString("VA 2\r\n42\r\n")))
	n, err := r.ReadArithmetic()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), n)
}

func TestReadFlushAllLegacyOK(t *testing.T) {
	r := NewReader(bufio.NewReader(bytes.NewBufferString("OK\r\n")))
	require.NoError(t, r.ReadFlushAll())
}

func TestReadVersion(t *testing.T) {
	r := NewReader(bufio.NewReader(bytes.NewBufferString("VERSION 1.6.21\r\n")))
	v, err := r.ReadVersion()
	require.NoError(t, err)
	assert.Equal(t, "1.6.21", v)
}

func TestReadServerError(t *testing.T) {
	r := NewReader(bufio.NewReader(bytes.NewBufferString("SERVER_ERROR out of memory\r\n")))
	err := r.ReadSet()
	require.Error(t, err)
	assert.True(t, cacheerr.Is(err, cacheerr.ServerError))
	assert.True(t, cacheerr.Resumable(err))
}
