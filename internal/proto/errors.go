// Package proto implements the Minecraft Java Edition wire codec for
// protocol version 754: typed readers and writers for every value shape
// the protocol uses, over a pooled, length-delimited buffer.
package proto

import "errors"

// Codec-level failures. None of these are fatal on their own; the
// caller (internal/netio) decides whether a given failure terminates
// the connection.
var (
	// ErrShortRead is returned when fewer bytes remain in the frame
	// than a value shape needs to decode.
	ErrShortRead = errors.New("proto: short read")
	// ErrMalformed is returned for bad bytes: an over-length VarInt or
	// VarLong, an invalid declared string length, or invalid UTF-8.
	ErrMalformed = errors.New("proto: malformed value")
	// ErrOutOfRange is returned when a decoded value cannot be
	// represented in its declared shape.
	ErrOutOfRange = errors.New("proto: value out of range")
)
