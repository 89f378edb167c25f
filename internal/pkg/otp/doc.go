// Package otp generates short numeric one-time codes.
//
// Codes are drawn uniformly from crypto/rand over the range of the configured
// length, so a 4-digit code is always 1000..9999.
package otp
