// Package internalcheck holds static-analysis tests enforcing a couple of
// logging and crypto-hygiene policies across pkg/atlog: no %x/%X formatting
// of values that might carry secrets, and no direct == comparison of byte
// slices that should go through a constant-time comparison instead.
//
// It is not part of the public API.
package internalcheck
