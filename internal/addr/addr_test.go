package addr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHostPort(t *testing.T) {
	host, port, err := Parse("127.0.0.1:6379")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
	assert.Equal(t, 6379, port)
}

func TestParseBracketedIPv6(t *testing.T) {
	host, port, err := Parse("[::1]:6379")
	require.NoError(t, err)
	assert.Equal(t, "[::1]", host)
	assert.Equal(t, 6379, port)
}

func TestParseMissingPort(t *testing.T) {
	_, _, err := Parse("127.0.0.1")
	require.Error(t, err)
}

func TestParseInvalidPort(t *testing.T) {
	_, _, err := Parse("127.0.0.1:notaport")
	require.Error(t, err)
}

func TestFormatRoundTrips(t *testing.T) {
	for _, host := range []string{"localhost", "[::1]", "127.0.0.1"} {
		s := Format(host, 6379)
		gotHost, gotPort, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, host, gotHost)
		assert.Equal(t, 6379, gotPort)
	}
}
