package store

import "embed"

// EmbedMigrations holds the SQL migration files shipped with the binary.
//
//go:embed migrations/*.sql
var EmbedMigrations embed.FS
