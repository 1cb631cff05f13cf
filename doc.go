// Package h2hd bundles the core of an HTTP/2-draft library: the frame
// wire codec (package frame) and the reference-set-based header
// compression engine (package hd). It performs no I/O; callers own
// sockets, TLS, scheduling and HTTP semantics.
package h2hd
