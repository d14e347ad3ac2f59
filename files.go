package accounts

import (
	"embed"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS exposes the accounts table migrations so embedding apps
// can feed them to their migration runner.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
