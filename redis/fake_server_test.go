package redis

import (
	"bufio"
	"net"
	"testing"

	"github.com/lalinsky/gocache/resp"
)

// fakeServer is a scripted RESP2 peer listening on loopback: each
// accepted connection is handed to handle, which reads/writes raw
// protocol bytes directly. Tests drive Client.New against fs.addr().
type fakeServer struct {
	ln net.Listener
}

func newFakeServer(t *testing.T, handle func(net.Conn)) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	fs := &fakeServer{ln: ln}
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			go handle(c)
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return fs
}

func (fs *fakeServer) addr() string { return fs.ln.Addr().String() }

// readCommand decodes one RESP2 array-of-bulk-strings command off nc.
func readCommand(r *resp.Reader) ([]string, error) {
	v, err := r.ReadValue()
	if err != nil {
		return nil, err
	}
	args := make([]string, len(v.Array))
	for i, e := range v.Array {
		args[i] = string(e.Bulk)
	}
	return args, nil
}

func newConnIO(nc net.Conn) (*resp.Reader, *bufio.Writer) {
	return resp.NewReader(bufio.NewReader(nc)), bufio.NewWriter(nc)
}
