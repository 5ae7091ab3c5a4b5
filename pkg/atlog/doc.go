// Package atlog implements the ATRealTimeLog binary log format: a framed,
// self-delimiting byte stream with optional per-record ZLIB compression and
// optional per-record ECDH+AES-128-CFB encryption over secp256k1.
//
// The format is produced and consumed one record at a time. Writer emits a
// fixed file header followed by any number of records; Reader validates the
// header and then parses records until a clean end of stream or a framing
// error. See framing.go for the on-disk layout.
package atlog
