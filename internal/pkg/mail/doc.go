// Package mail sends transactional email (verification links, reset codes,
// security notices) without tying callers to a provider.
//
// The SMTP driver is used in deployed environments. The log driver writes the
// rendered message to the structured logger and is meant for local runs.
package mail
