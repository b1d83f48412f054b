package migrations

import "embed"

// Migrations holds the embedded goose migration files
//
//go:embed *.sql
var Migrations embed.FS
