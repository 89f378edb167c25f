// Package validator checks request structs declared with `validate` tags and
// hosts the password policy shared by registration, password change and reset.
package validator
