// Package hash turns secrets into digests that are safe to persist.
//
// Passwords and document access keys go through an adaptive hasher (bcrypt or
// argon2id) whose output carries its own salt and cost. Opaque tokens and
// one-time codes go through HMAC-SHA256 instead, so a stored digest can be
// looked up by equality.
//
// Every implementation satisfies Hash:
//
//	h := hash.NewHMACSHA256(secret)
//	digest, err := h.Hash("4821")
//	ok := h.Verify(string(digest), "4821")
package hash
