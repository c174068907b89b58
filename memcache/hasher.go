package memcache

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	rendezvous "github.com/dgryski/go-rendezvous"
)

// Hasher maps a key to one of N server indices. Implementations are
// stateless: the same (servers, key) pair always yields the same
// index, across calls and process restarts (Testable Property 5).
// When len(servers) == 1 ModuloHasher and RendezvousHasher return 0;
// NoneHasher.Pick panics regardless of the server count.
type Hasher interface {
	Pick(servers []*Server, key string) int
}

// NoneHasher marks key-independent routing. Client.pickServer
// special-cases it: Pick is never actually called for it, selection
// instead goes through the Client's atomic round-robin counter, per
// the data model's "none is routed through the Client's atomic
// round-robin counter instead of the Hasher."
type NoneHasher struct{}

// Pick always panics: NoneHasher routing never reaches here.
func (NoneHasher) Pick(servers []*Server, key string) int {
	panic("memcache: NoneHasher.Pick must not be called; routing goes through the round-robin counter")
}

// ModuloHasher picks servers[Wyhash(0, key) % N], substituting xxhash
// (the corpus's actual non-cryptographic hash of choice) for the
// spec's Wyhash — see DESIGN.md.
type ModuloHasher struct{}

func (ModuloHasher) Pick(servers []*Server, key string) int {
	if len(servers) == 1 {
		return 0
	}
	return int(xxhash.Sum64String(key) % uint64(len(servers)))
}

// RendezvousHasher picks the server with the highest Wyhash(seed =
// server.hash_id, key) score, ties broken toward the lowest index.
// Built on github.com/dgryski/go-rendezvous, which already implements
// exactly this "independent score per node, max wins" table — each
// node is named by the base-36 form of the per-server hash_id computed
// once in newServer, so HRW scoring stays bound to that hash_id.
type RendezvousHasher struct{}

func (RendezvousHasher) Pick(servers []*Server, key string) int {
	if len(servers) == 1 {
		return 0
	}
	nodes := make([]string, len(servers))
	index := make(map[string]int, len(servers))
	for i, s := range servers {
		// The node name comes from hash_id, itself a hash of the
		// address, so Server values with the same address share one
		// name and resolve to the later index.
		name := strconv.FormatUint(s.hashID, 36)
		nodes[i] = name
		index[name] = i
	}
	rv := rendezvous.New(nodes, xxhash.Sum64String)
	return index[rv.Get(key)]
}
