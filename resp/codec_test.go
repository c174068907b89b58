package resp

import (
	"bufio"
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalinsky/gocache/cacheerr"
)

// readerFrom builds a Reader directly over raw bytes, for tests that
// only exercise decoding.
func readerFrom(raw string) *Reader {
	return NewReader(bufio.NewReader(bytes.NewBufferString(raw)))
}

func TestWriteCommandRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	w := NewWriter(bufio.NewWriter(client))
	r := NewReader(bufio.NewReader(server))

	go func() {
		w.WriteCommand([]byte("SET"), []byte("k"), []byte("v"))
		w.Flush()
	}()

	v, err := r.ReadValue()
	require.NoError(t, err)
	require.Equal(t, KindArray, v.Kind)
	require.Len(t, v.Array, 3)
	assert.Equal(t, []byte("SET"), v.Array[0].Bulk)
	assert.Equal(t, []byte("k"), v.Array[1].Bulk)
	assert.Equal(t, []byte("v"), v.Array[2].Bulk)
}

func TestExecSimpleString(t *testing.T) {
	r := readerFrom("+PONG\r\n")
	s, err := r.ExecSimpleString()
	require.NoError(t, err)
	assert.Equal(t, "PONG", string(s))
}

func TestExecSimpleStringError(t *testing.T) {
	r := readerFrom("-ERR unknown command\r\n")
	_, err := r.ExecSimpleString()
	require.Error(t, err)
	assert.True(t, cacheerr.Is(err, cacheerr.RedisError))
	assert.True(t, cacheerr.Resumable(err))
}

func TestExecIntegerOverflow(t *testing.T) {
	r := readerFrom(":99999999999999999999999999\r\n")
	_, err := r.ExecInteger()
	require.Error(t, err)
	assert.True(t, cacheerr.Is(err, cacheerr.Overflow))
}

func TestExecBulkStringNull(t *testing.T) {
	r := readerFrom("$-1\r\n")
	buf := make([]byte, 16)
	v, err := r.ExecBulkString(buf)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestExecBulkStringTooLarge(t *testing.T) {
	r := readerFrom("$5\r\nhello\r\n")
	buf := make([]byte, 3)
	_, err := r.ExecBulkString(buf)
	require.Error(t, err)
	assert.True(t, cacheerr.Is(err, cacheerr.ValueTooLarge))
}

func TestExecBulkStringAllocUsesCallback(t *testing.T) {
	r := readerFrom("$5\r\nhello\r\n")
	var allocated int
	v, err := r.ExecBulkStringAlloc(func(n int) []byte {
		allocated = n
		return make([]byte, n)
	})
	require.NoError(t, err)
	assert.Equal(t, 5, allocated)
	assert.Equal(t, "hello", string(v))
}

func TestDiscardBulkStringIgnoresSize(t *testing.T) {
	r := readerFrom("$5\r\nhello\r\n")
	require.NoError(t, r.DiscardBulkString())
}

func TestExecOkOrNilAcceptsAllThreeForms(t *testing.T) {
	cases := []string{"+OK\r\n", "$-1\r\n", "$3\r\nold\r\n"}
	for _, raw := range cases {
		r := readerFrom(raw)
		assert.NoError(t, r.ExecOkOrNil(), raw)
	}
}

func TestReadValueNestedArray(t *testing.T) {
	r := readerFrom("*2\r\n:1\r\n$3\r\nfoo\r\n")
	v, err := r.ReadValue()
	require.NoError(t, err)
	require.Equal(t, KindArray, v.Kind)
	require.Len(t, v.Array, 2)
	assert.Equal(t, int64(1), v.Array[0].Int)
	assert.Equal(t, []byte("foo"), v.Array[1].Bulk)
}
