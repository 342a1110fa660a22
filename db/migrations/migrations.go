// Package migrations carries the schema files that are compiled into the
// binary and applied by the boot-time migrator.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
