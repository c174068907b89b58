package memcache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testServers(n int) []*Server {
	servers := make([]*Server, n)
	for i := range servers {
		servers[i] = newServer(fmt.Sprintf("host%d:1121%d", i, i), defaultOptions())
	}
	return servers
}

func TestModuloHasherDeterministic(t *testing.T) {
	servers := testServers(4)
	h := ModuloHasher{}
	for _, key := range []string{"a", "b", "session:42", "long-key-name-with-stuff"} {
		first := h.Pick(servers, key)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, h.Pick(servers, key))
		}
	}
}

func TestRendezvousHasherDeterministic(t *testing.T) {
	servers := testServers(4)
	h := RendezvousHasher{}
	for _, key := range []string{"a", "b", "session:42", "long-key-name-with-stuff"} {
		first := h.Pick(servers, key)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, h.Pick(servers, key))
		}
	}
}

func TestRendezvousHasherSingleServer(t *testing.T) {
	servers := testServers(1)
	h := RendezvousHasher{}
	assert.Equal(t, 0, h.Pick(servers, "anything"))
}

// TestRendezvousDistribution is spec.md's Testable Property 6:
// 1,000 random keys over 3 servers land between 20% and 50% on each.
func TestRendezvousDistribution(t *testing.T) {
	servers := testServers(3)
	h := RendezvousHasher{}
	counts := make([]int, 3)
	const n = 1000
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%d", i)
		counts[h.Pick(servers, key)]++
	}
	for i, c := range counts {
		frac := float64(c) / float64(n)
		assert.Truef(t, frac >= 0.20 && frac <= 0.50,
			"server %d got %.1f%% of keys, want 20-50%%", i, frac*100)
	}
}

func TestNoneHasherPanicsIfCalledDirectly(t *testing.T) {
	defer func() {
		assert.NotNil(t, recover())
	}()
	NoneHasher{}.Pick(testServers(2), "k")
}
