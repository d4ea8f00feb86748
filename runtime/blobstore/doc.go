// Package blobstore implements the versioned, gzip-compressed,
// hash-checked Conversation State blob format (C8) plus a forward-only
// schema migration registry. It never imports the conversation package:
// callers convert their State to/from a StateDoc so blobstore stays a pure
// wire-format codec with no dependency on the domain type it serializes.
//
// Wire format (spec §4.7), all multi-byte header integers big-endian:
//
//	offset  0..3   magic       = ASCII "CVST"
//	offset  4..5   version     = u16
//	offset  6..37  hash        = SHA-256 of bytes [38..]
//	offset 38..EOF compressed  = gzip( utf-8( json( StateDoc ) ) )
package blobstore

const (
	magic        = "CVST"
	headerLen    = 38
	hashLen      = 32
	magicOffset  = 0
	versionOff   = 4
	hashOffset   = 6
	payloadStart = headerLen
)
