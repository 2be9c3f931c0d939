// Package db carries the SQL schema migrations and seed data, embedded so the
// migrator binary and integration tests do not depend on the working directory.
package db

import "embed"

// Migrations holds the goose migration files under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Seeds holds the development seed and reset scripts under seeds/.
//
//go:embed seeds/*.sql
var Seeds embed.FS

const (
	MigrationsDir = "migrations"
	SeedFile      = "seeds/seed.sql"
	ResetFile     = "seeds/reset.sql"
)
