package memcache

import "github.com/cespare/xxhash/v2"

// Server is one routable memcached-compatible endpoint: its address,
// a dedicated connection Pool, and a precomputed hash identity used by
// RendezvousHasher so scoring never re-hashes the address string on
// every lookup.
type Server struct {
	addr string
	pool *Pool

	hashID uint64
}

func newServer(addr string, opts Options) *Server {
	return &Server{
		addr:   addr,
		pool:   newPool(addr, opts),
		hashID: xxhash.Sum64String(addr),
	}
}

// Addr reports the server's "host:port" address.
func (s *Server) Addr() string { return s.addr }
