// Package uid generates identifiers: snowflake numbers for primary keys,
// UUIDs for correlation and opaque random tokens for links and grants.
package uid

// NumberID generates unique, roughly time ordered 64-bit identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
