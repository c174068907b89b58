// Package mcmeta implements the memcached meta-protocol (mg/ms/md/ma,
// flush_all, version): command framing and typed response decoding,
// streaming value payloads into caller-owned buffers.
package mcmeta

// Info is the result of a successful get: Value is a sub-slice of the
// caller-provided buffer, Flags and Cas are parsed from the "VA"
// response line's f/c tokens.
type Info struct {
	Value []byte
	Flags uint32
	Cas   uint64
}

// SetMode selects the ms storage mode flag: none for a plain set, or
// M{E,R,A,P} for add/replace/append/prepend.
type SetMode int

const (
	ModeSet SetMode = iota
	ModeAdd
	ModeReplace
	ModeAppend
	ModePrepend
)
