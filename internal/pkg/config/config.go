// Package config exposes typed, read-only access to runtime settings.
package config

import (
	"io"
	"time"
)

// Config reads settings by dotted key (for example "modules.recovery.code_ttl_seconds").
// Missing keys yield the zero value of the requested type.
type Config interface {
	io.Closer

	// GetSecond, GetMinute and GetHour read an integer and scale it to a duration.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration

	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint16(key string) uint16
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 value; invalid input yields nil.
	GetBinary(key string) []byte

	// GetArray splits a comma separated value, trimming blanks and dropping empty items.
	GetArray(key string) []string
}
