package wire

import "errors"

// ErrFrameMalformed indicates the parser found an invalid length, a
// truncated message, or an unrecognized kind byte. Per spec §7 this is
// always recoverable: the caller discards the message.
var ErrFrameMalformed = errors.New("wire: frame malformed")

// ErrGeometryMismatch indicates a decoded payload's declared dimensions
// disagree with what the caller expected. Treated as ErrFrameMalformed by
// callers per spec §7.
var ErrGeometryMismatch = errors.New("wire: geometry mismatch")
