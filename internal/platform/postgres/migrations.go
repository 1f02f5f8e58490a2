package postgres

import "embed"

// Migrations holds the goose SQL migrations for the Postgres schema.
// Embedding them keeps the server binary self-contained: the migrate
// command works without a checkout of the source tree.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the path of the migration files inside Migrations.
const MigrationsDir = "migrations"
