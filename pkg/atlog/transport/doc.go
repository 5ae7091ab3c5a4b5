// Package transport provides an in-memory, context-aware duplex byte
// connection for driving atlog.Writer and atlog.Reader against each other
// without a real file or socket. It is intended for tests and examples that
// want to exercise the codec as a live stream (a writer appending records
// while a reader tails them) rather than against a fully-buffered
// bytes.Buffer.
package transport
