// Package jwt issues and verifies the short-lived session token that the
// login endpoint places in the "token" cookie.
package jwt
