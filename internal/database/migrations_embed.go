package database

import (
	"io/fs"

	"github.com/MAY0LPHI/Parking-simples/db/migrations"
)

// MigrationsFS exposes the schema files compiled into the binary, so the
// migrator runs regardless of the process working directory.
func MigrationsFS() fs.FS {
	return migrations.Files
}
