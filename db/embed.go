// Package db ships the Postgres schema as ordered migration files.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
