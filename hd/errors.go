package hd

import "errors"

var (
	// ErrHeaderComp is the compression-fatal sentinel: any decode error,
	// capacity exhaustion or operation on an already-poisoned context
	// returns it, and once a Deflate or Inflate call fails with it the
	// context is poisoned for good. There is no resynchronization — the
	// caller must tear the context down and close the connection.
	ErrHeaderComp = errors.New("hd: header compression/decompression error")

	// ErrNoMem mirrors the original's NGHTTP2_ERR_NOMEM sentinel. A Go
	// process aborts on allocation failure rather than reporting it, so
	// nothing in this package returns ErrNoMem today; it is declared so
	// callers porting error dispatch from the C API have the full sentinel
	// set, and so errors.Is checks keep compiling if a future allocation
	// path (an arena, a pool) starts surfacing it.
	ErrNoMem = errors.New("hd: out of memory")
)
