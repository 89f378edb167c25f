// Package clock hides the wall clock behind an interface so expiry windows
// (one-time codes, reset grants, document links) can be driven from tests.
package clock
