// Package logging wraps log/slog in a small interface so callers can supply
// their own Logger (for tests, or to route around redaction policy) without
// pulling slog types into the atlog package's exported surface.
package logging
